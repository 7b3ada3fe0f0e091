// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package commands

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/FormidableLabs/formideploy/cmd/formideploy/cli"
	"github.com/FormidableLabs/formideploy/lib/serve"
)

func serveCommand() *cli.Command {
	var port int

	return &cli.Command{
		Name:    "serve",
		Summary: "Run a local server from the static build directory",
		Description: `Serve the build output directory over HTTP on localhost.

The whole build directory is served, so a site nested under a base
path is reachable at the same path it will occupy in production.`,
		Usage: "formideploy serve [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("serve", pflag.ContinueOnError)
			flagSet.IntVar(&port, "port", serve.DefaultPort, "Port to run the local server on")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Serve the build directory on the default port",
				Command:     "formideploy serve",
			},
			{
				Description: "Serve on an alternate port",
				Command:     "formideploy serve --port 3333",
			},
		},
		Run: func(args []string) error {
			cfg, logger, err := setup("serve")
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			server := serve.New(serve.Config{
				Dir:      cfg.Build.Dir,
				BasePath: cfg.Site.BasePath,
				Port:     port,
				Logger:   logger,
			})
			return server.Run(context.Background())
		},
	}
}
