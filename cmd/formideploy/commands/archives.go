// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/FormidableLabs/formideploy/cmd/formideploy/cli"
	"github.com/FormidableLabs/formideploy/lib/archive"
	"github.com/FormidableLabs/formideploy/lib/awscli"
)

// defaultListLimit bounds an archive listing when --limit is not
// given.
const defaultListLimit = 10

func archivesCommand() *cli.Command {
	var (
		limit      int
		start      string
		archiveRef string
	)

	return &cli.Command{
		Name:    "archives",
		Summary: "List production archives or show a single archive",
		Description: `List archived production deploys, most recent first.

Passing --archive instead shows the stored metadata for a single
archive. Rollback records can be inspected the same way.`,
		Usage: "formideploy archives [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("archives", pflag.ContinueOnError)
			flagSet.IntVar(&limit, "limit", defaultListLimit, "Maximum number of archives to list")
			flagSet.StringVar(&start, "start", "", "Newest UTC instant (RFC 3339) to list archives from (default now)")
			flagSet.StringVar(&archiveRef, "archive", "", "Display metadata for a single archive")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "List the 5 most recent production archives",
				Command:     "formideploy archives --limit 5",
			},
			{
				Description: "List archives deployed before a specific UTC instant",
				Command:     "formideploy archives --start 2020-06-05T02:22:34.842Z",
			},
			{
				Description: "Show metadata for a single archive",
				Command:     "formideploy archives --archive archive-8638408693935591-20200604-212744-409-bf41536-clean.tar.gz",
			},
		},
		Run: func(args []string) error {
			cfg, logger, err := setup("archives")
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			store := awscli.New(awscli.Config{Region: cfg.Production.Region, Logger: logger})
			catalog := archive.NewCatalog(store, catalogLocation(cfg), "", logger)

			if archiveRef != "" {
				name, err := archive.Parse(archiveRef)
				if err != nil {
					return err
				}
				meta, key, err := catalog.FetchMetadata(ctx, name)
				if err != nil {
					return err
				}
				fmt.Println(archive.FormatMetadata(key, meta))
				return nil
			}

			startAt := time.Now()
			if start != "" {
				parsed, err := time.Parse(time.RFC3339, start)
				if err != nil {
					return fmt.Errorf("parsing --start: %w", err)
				}
				startAt = parsed
			}

			entries, err := catalog.List(ctx, archive.Query{Limit: limit, Start: startAt})
			if err != nil {
				return err
			}
			fmt.Println(archive.FormatList(entries))
			return nil
		},
	}
}
