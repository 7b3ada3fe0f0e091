// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

// Package surge wraps the surge.sh publish CLI for staging deploys.
//
// Surge ships a Node library, but its publishing lifecycle is hard to
// hook into and its error handling calls process.exit, so formideploy
// shells out to the CLI the same way it does for the storage tool.
package surge

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner executes one surge invocation.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

// ExecRunner runs the surge binary via os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, args []string) error {
	var stderr bytes.Buffer
	command := exec.CommandContext(ctx, "surge", args...)
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return fmt.Errorf("surge %s: %w (stderr: %s)",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Config holds configuration for creating a Publisher.
type Config struct {
	// DryRun logs the publish instead of running it.
	DryRun bool

	// Runner executes invocations. Defaults to ExecRunner.
	Runner Runner

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Publisher publishes a local directory to a surge.sh domain.
type Publisher struct {
	dryRun bool
	runner Runner
	logger *slog.Logger
}

// New creates a Publisher from the given configuration.
func New(config Config) *Publisher {
	runner := config.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{dryRun: config.DryRun, runner: runner, logger: logger}
}

// Publish uploads the project directory to the domain. The directory
// is resolved to an absolute path so surge's project detection cannot
// wander.
func (p *Publisher) Publish(ctx context.Context, dir, domain string) error {
	project, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving project directory: %w", err)
	}

	args := []string{"publish", "--project", project, "--domain", domain}
	if p.dryRun {
		p.logger.Info("(dryrun) skipping surge publish", "args", strings.Join(args, " "))
		return nil
	}

	p.logger.Info("publishing to surge", "project", project, "domain", domain)
	return p.runner.Run(ctx, args)
}
