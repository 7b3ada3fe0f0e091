// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

// Package commands builds the formideploy CLI command tree: serve,
// deploy, and archives, plus version output.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/FormidableLabs/formideploy/cmd/formideploy/cli"
	"github.com/FormidableLabs/formideploy/lib/archive"
	"github.com/FormidableLabs/formideploy/lib/config"
	"github.com/FormidableLabs/formideploy/lib/version"
)

// Root builds and returns the complete formideploy command tree.
func Root() *cli.Command {
	var showVersion bool

	root := &cli.Command{
		Name:    "formideploy",
		Summary: "Deployment tooling for Formidable static websites",
		Description: `formideploy: deploy static website builds.

Serve a build locally, publish it to the staging or production site,
and inspect the production archive history for rollbacks.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("formideploy", pflag.ContinueOnError)
			flagSet.BoolVarP(&showVersion, "version", "v", false, "Print version information")
			return flagSet
		},
		Subcommands: []*cli.Command{
			serveCommand(),
			deployCommand(),
			archivesCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Serve the build directory on port 3333",
				Command:     "formideploy serve --port 3333",
			},
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
			{
				Description: "List the 5 most recent production archives",
				Command:     "formideploy archives --limit 5",
			},
			{
				Description: "List archives deployed before a specific UTC instant",
				Command:     "formideploy archives --start 2020-06-05T02:22:34.842Z",
			},
		},
	}

	root.Run = func(args []string) error {
		if showVersion {
			fmt.Println(version.Info())
			return nil
		}
		root.PrintHelp(os.Stderr)
		return nil
	}

	return root
}

// setup builds the per-action logger and loads the project
// configuration from the working directory.
func setup(action string) (*config.Config, *slog.Logger, error) {
	logger := cli.NewCommandLogger()

	runID, err := cli.GenerateRunID()
	if err != nil {
		return nil, nil, fmt.Errorf("generating run ID: %w", err)
	}
	logger = logger.With("action", action, "run", runID)

	cfg, err := config.Load(".", nil)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// catalogLocation maps the loaded configuration onto the archive
// store layout.
func catalogLocation(cfg *config.Config) archive.Location {
	return archive.Location{
		Domain:   cfg.Production.Domain,
		BasePath: cfg.Site.BasePath,
		Bucket:   cfg.Production.Bucket,
	}
}
