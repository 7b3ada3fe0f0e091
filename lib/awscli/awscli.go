// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

// Package awscli provides a typed interface to the aws CLI. The S3
// sync operation is not available from SDKs in a form worth owning, so
// formideploy shells out for every storage operation and keeps the
// exec boundary thin: one method per operation, structured arguments,
// no stringly-typed assembly in callers.
//
// The central type is CLI. A configured region is injected into every
// invocation, and dry-run handling lives here at the leaf: operations
// the aws CLI can simulate natively pass --dryrun, operations it
// cannot are replaced with a log line describing the mutation they
// would have performed. Read-only operations always run.
package awscli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Runner executes one aws CLI invocation and returns its stdout.
// Production code uses ExecRunner; tests substitute a fake to exercise
// argument construction and response decoding without the real CLI.
type Runner interface {
	Run(ctx context.Context, args []string) ([]byte, error)
}

// ExecRunner runs the aws binary via os/exec.
type ExecRunner struct{}

// Run executes "aws args..." capturing stdout. Stderr is captured
// separately and attached to the returned *ExecError on failure.
func (ExecRunner) Run(ctx context.Context, args []string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "aws", args...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return nil, &ExecError{
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

// ExecError reports a failed aws CLI invocation with its captured
// stderr, which is where the CLI writes its diagnostic detail.
type ExecError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("aws %s: %v (stderr: %s)", strings.Join(e.Args, " "), e.Err, e.Stderr)
}

func (e *ExecError) Unwrap() error { return e.Err }

// IsNoSuchKey reports whether err is an aws CLI failure for a key that
// does not exist (head-object and get-object surface this as a 404).
func IsNoSuchKey(err error) bool {
	var execError *ExecError
	if !errors.As(err, &execError) {
		return false
	}
	return strings.Contains(execError.Stderr, "(404)") ||
		strings.Contains(execError.Stderr, "NoSuchKey") ||
		strings.Contains(execError.Stderr, "Not Found")
}

// Config holds configuration for creating a CLI.
type Config struct {
	// Region is passed as --region on every invocation when set.
	Region string

	// DryRun replaces storage mutations with log-only descriptions.
	DryRun bool

	// Runner executes invocations. Defaults to ExecRunner.
	Runner Runner

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// CLI is a typed aws command builder and executor.
type CLI struct {
	region string
	dryRun bool
	runner Runner
	logger *slog.Logger
}

// New creates a CLI from the given configuration.
func New(config Config) *CLI {
	runner := config.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CLI{
		region: config.Region,
		dryRun: config.DryRun,
		runner: runner,
		logger: logger,
	}
}

// DryRun reports whether this CLI is in dry-run mode.
func (c *CLI) DryRun() bool { return c.dryRun }

// run executes one invocation, appending --region when configured.
func (c *CLI) run(ctx context.Context, args ...string) ([]byte, error) {
	if c.region != "" {
		args = append(args, "--region", c.region)
	}
	c.logger.Info("running aws", "args", strings.Join(args, " "))
	return c.runner.Run(ctx, args)
}

// skipMutation reports (and logs) whether a mutation without native
// dry-run support should be skipped.
func (c *CLI) skipMutation(description string) bool {
	if !c.dryRun {
		return false
	}
	c.logger.Info("(dryrun) skipping mutation", "action", description)
	return true
}

// dryRunFlag returns the native --dryrun flag for s3 subcommands that
// support it, or nothing.
func (c *CLI) dryRunFlag() []string {
	if c.dryRun {
		return []string{"--dryrun"}
	}
	return nil
}

// CallerIdentity probes credentials via sts get-caller-identity.
// A non-nil error means the current environment cannot authenticate.
func (c *CLI) CallerIdentity(ctx context.Context) error {
	_, err := c.run(ctx, "sts", "get-caller-identity")
	return err
}
