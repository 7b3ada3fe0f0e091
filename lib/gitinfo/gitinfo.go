// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

// Package gitinfo resolves the git metadata attached to every
// deployment: author, branch, revision, commit date, and working-tree
// state. Values come from CI environment variables when present and
// from the git CLI otherwise, with manual FORMIDEPLOY_GIT_* overrides
// taking precedence over both.
package gitinfo

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Empty marks a metadata value that could not be determined.
const Empty = "EMPTY"

// shaShortLength is the number of revision characters used in archive
// names and short metadata.
const shaShortLength = 7

// Info is the resolved git metadata for the current checkout.
type Info struct {
	UserName   string
	UserEmail  string
	Branch     string
	CommitDate string
	SHA        string
	SHAShort   string
	Dirty      bool
}

// State returns "clean" or "dirty".
func (i Info) State() string {
	if i.Dirty {
		return "dirty"
	}
	return "clean"
}

// Runner executes one git invocation and returns its trimmed stdout.
type Runner interface {
	Run(ctx context.Context, args []string) (string, error)
}

// ExecRunner runs the git binary via os/exec with TZ pinned to GMT so
// date output is stable across machines.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, args []string) (string, error) {
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", args...)
	command.Env = append(os.Environ(), "TZ=GMT")
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w (stderr: %s)",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Config holds configuration for creating a Provider.
type Config struct {
	// Getenv looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string

	// Runner executes git invocations. Defaults to ExecRunner.
	Runner Runner

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Provider resolves Info once per process and memoizes the result:
// the metadata describes the checkout being deployed, which does not
// change mid-run.
type Provider struct {
	getenv func(string) string
	runner Runner
	logger *slog.Logger

	once sync.Once
	info Info
	err  error
}

// New creates a Provider from the given configuration.
func New(config Config) *Provider {
	getenv := config.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	runner := config.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{getenv: getenv, runner: runner, logger: logger}
}

// branchRE extracts the branch name from "git show -s --pretty=%d",
// whose output looks like "(HEAD -> main, origin/main)".
var branchRE = regexp.MustCompile(`\(HEAD -> ([^,)]+)`)

// Info resolves the checkout metadata. The first call does the work;
// subsequent calls return the memoized result.
func (p *Provider) Info(ctx context.Context) (Info, error) {
	p.once.Do(func() {
		p.info, p.err = p.resolve(ctx)
		if p.err == nil {
			p.logger.Info("git info",
				"branch", p.info.Branch,
				"sha", p.info.SHAShort,
				"state", p.info.State())
		}
	})
	return p.info, p.err
}

func (p *Provider) resolve(ctx context.Context) (Info, error) {
	branch, sha := p.fromEnvironment()

	if branch == "" {
		branch = p.branchFromGit(ctx)
	}
	if sha == "" {
		resolved, err := p.runner.Run(ctx, []string{"rev-parse", "HEAD"})
		if err != nil {
			return Info{}, fmt.Errorf("resolving revision: %w", err)
		}
		sha = resolved
	}
	if len(sha) < shaShortLength {
		return Info{}, fmt.Errorf("revision %q is too short", sha)
	}

	userName := p.getenv("GITHUB_ACTOR")
	if userName == "" {
		userName = p.configValue(ctx, "user.name")
	}

	info := Info{
		UserName:   userName,
		UserEmail:  p.configValue(ctx, "user.email"),
		Branch:     branch,
		CommitDate: p.commitDate(ctx),
		SHA:        sha,
		SHAShort:   sha[:shaShortLength],
		Dirty:      p.dirty(ctx),
	}
	if info.Branch == "" {
		info.Branch = Empty
	}
	return info, nil
}

// fromEnvironment returns the branch and revision dictated by the CI
// environment, either possibly empty. Manual overrides win; otherwise
// pull-request variables beat push variables.
func (p *Provider) fromEnvironment() (branch, sha string) {
	switch {
	case p.getenv("GITHUB_HEAD_REF") != "":
		branch = p.getenv("GITHUB_HEAD_REF")
	case p.getenv("TRAVIS_PULL_REQUEST_BRANCH") != "" && p.getenv("TRAVIS_PULL_REQUEST_SHA") != "":
		branch = p.getenv("TRAVIS_PULL_REQUEST_BRANCH")
		sha = p.getenv("TRAVIS_PULL_REQUEST_SHA")
	case p.getenv("TRAVIS_BRANCH") != "" && p.getenv("TRAVIS_COMMIT") != "":
		branch = p.getenv("TRAVIS_BRANCH")
		sha = p.getenv("TRAVIS_COMMIT")
	case p.getenv("CIRCLE_BRANCH") != "" && p.getenv("CIRCLE_SHA1") != "":
		branch = p.getenv("CIRCLE_BRANCH")
		sha = p.getenv("CIRCLE_SHA1")
	}

	if override := p.getenv("FORMIDEPLOY_GIT_BRANCH"); override != "" {
		branch = override
	}
	if override := p.getenv("FORMIDEPLOY_GIT_SHA"); override != "" {
		sha = override
	}
	return branch, sha
}

// configValue reads a git config key, mapping any failure (unset key,
// no git, no repository) to Empty.
func (p *Provider) configValue(ctx context.Context, key string) string {
	value, err := p.runner.Run(ctx, []string{"config", "--get", key})
	if err != nil || value == "" {
		return Empty
	}
	return value
}

// branchFromGit recovers the checked-out branch from the HEAD
// decoration. Detached heads have no decoration and yield "".
func (p *Provider) branchFromGit(ctx context.Context) string {
	show, err := p.runner.Run(ctx, []string{"show", "-s", "--pretty=%d", "HEAD"})
	if err != nil {
		return ""
	}
	match := branchRE.FindStringSubmatch(show)
	if match == nil {
		return ""
	}
	return match[1]
}

// commitDate returns the HEAD committer date as an ISO-8601 UTC
// timestamp with millisecond precision, or Empty if it cannot be
// determined.
func (p *Provider) commitDate(ctx context.Context) string {
	raw, err := p.runner.Run(ctx,
		[]string{"show", "--no-patch", "--no-notes", "--pretty=%cd", "--date=iso-strict", "HEAD"})
	if err != nil {
		return Empty
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Empty
	}
	return parsed.UTC().Format("2006-01-02T15:04:05.000Z")
}

// dirty reports whether the working tree has uncommitted changes.
// "git diff --quiet" exits nonzero on any difference, so an error here
// means dirty.
func (p *Provider) dirty(ctx context.Context) bool {
	_, err := p.runner.Run(ctx, []string{"diff", "--no-ext-diff", "--quiet"})
	return err != nil
}
