// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/FormidableLabs/formideploy/cmd/formideploy/cli"
	"github.com/FormidableLabs/formideploy/lib/archive"
	"github.com/FormidableLabs/formideploy/lib/awscli"
	"github.com/FormidableLabs/formideploy/lib/config"
	"github.com/FormidableLabs/formideploy/lib/deploy"
	"github.com/FormidableLabs/formideploy/lib/github"
	"github.com/FormidableLabs/formideploy/lib/gitinfo"
	"github.com/FormidableLabs/formideploy/lib/surge"
)

// deploymentTokenEnv names the environment variable holding the
// GitHub deployment token. Notifications stay disabled when unset.
const deploymentTokenEnv = "GITHUB_DEPLOYMENT_TOKEN"

func deployCommand() *cli.Command {
	var (
		staging    bool
		production bool
		dryRun     bool
		archiveRef string
	)

	return &cli.Command{
		Name:    "deploy",
		Summary: "Deploy the build directory to the website",
		Description: `Publish the build output to the staging or production site.

Staging publishes the whole build directory to a per-build surge.sh
domain. Production syncs the nested site path into the website
bucket, applies cache headers and redirects, invalidates the CDN,
and records a compressed archive of the deployed build. Passing
--archive rolls production back to a previously archived deploy.`,
		Usage: "formideploy deploy (--staging | --production) [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("deploy", pflag.ContinueOnError)
			flagSet.BoolVar(&staging, "staging", false, "Deploy the build to the staging site")
			flagSet.BoolVar(&production, "production", false, "Deploy the build to the production site")
			flagSet.BoolVar(&dryRun, "dryrun", false, "Log deployment actions without running them")
			flagSet.StringVar(&archiveRef, "archive", "", "Archive to roll production back to")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Deploy the build to staging",
				Command:     "formideploy deploy --staging",
			},
			{
				Description: "Simulate a production deploy",
				Command:     "formideploy deploy --production --dryrun",
			},
			{
				Description: "Roll production back to an archived deploy",
				Command:     "formideploy deploy --production --archive archive-8638408693935591-20200604-212744-409-bf41536-clean.tar.gz",
			},
		},
		Run: func(args []string) error {
			// --staging wins when both targets are given, matching
			// the historical behavior of the deploy action.
			if staging {
				production = false
			}
			if !staging && !production {
				return fmt.Errorf("one of --staging or --production is required")
			}
			if staging && archiveRef != "" {
				return fmt.Errorf("--archive is only supported with --production")
			}

			cfg, logger, err := setup("deploy")
			if err != nil {
				return err
			}
			ctx := context.Background()

			if staging {
				notifier, err := newNotifier(cfg, "staging", cfg.StagingURL(), dryRun, logger)
				if err != nil {
					return err
				}
				deployer := deploy.NewStaging(deploy.StagingConfig{
					Config:    cfg,
					Publisher: surge.New(surge.Config{DryRun: dryRun, Logger: logger}),
					Notifier:  notifier,
					Logger:    logger,
				})
				return deployer.Run(ctx)
			}

			notifier, err := newNotifier(cfg, "production", cfg.URL(), dryRun, logger)
			if err != nil {
				return err
			}
			store := awscli.New(awscli.Config{
				Region: cfg.Production.Region,
				DryRun: dryRun,
				Logger: logger,
			})
			deployer := deploy.NewProduction(deploy.ProductionConfig{
				Config:   cfg,
				Store:    store,
				Catalog:  archive.NewCatalog(store, catalogLocation(cfg), "", logger),
				Git:      gitinfo.New(gitinfo.Config{Logger: logger}),
				Notifier: notifier,
				Logger:   logger,
			})
			return deployer.Run(ctx, archiveRef)
		},
	}
}

// newNotifier wires the GitHub deployment notifier. Without a token
// in the environment the notifier is constructed without a client
// and stays disabled.
func newNotifier(cfg *config.Config, environment, url string, dryRun bool, logger *slog.Logger) (*github.Notifier, error) {
	var client *github.Client
	if token := os.Getenv(deploymentTokenEnv); token != "" {
		created, err := github.NewClient(github.Config{Token: token, Logger: logger})
		if err != nil {
			return nil, err
		}
		client = created
	}

	return github.NewNotifier(github.NotifierConfig{
		Client:        client,
		Org:           cfg.GitHub.Org,
		Repo:          cfg.GitHub.Repo,
		Environment:   environment,
		URL:           url,
		BuildID:       cfg.Build.ID,
		IsPullRequest: cfg.Build.PullRequest(),
		DryRun:        dryRun,
		Logger:        logger,
	}), nil
}
