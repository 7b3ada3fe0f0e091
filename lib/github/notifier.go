// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package github

import (
	"context"
	"fmt"
	"log/slog"
)

// NotifierConfig holds configuration for creating a Notifier.
type NotifierConfig struct {
	// Client performs the API calls. May be nil when no token is
	// available; the notifier then stays disabled.
	Client *Client

	// Org and Repo locate the repository.
	Org  string
	Repo string

	// Environment names the deployment target.
	Environment string

	// URL is the deployed site URL.
	URL string

	// BuildID is the pull request number driving this build.
	BuildID string

	// IsPullRequest reports whether this build runs for a pull
	// request.
	IsPullRequest bool

	// DryRun disables all notifications.
	DryRun bool

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Notifier records deployment start and outcome on the pull request
// that triggered the build. Notifications are best-effort decoration
// of the deploy: when disabled (dry-run, no token, not a pull
// request) every method logs the reason and does nothing.
type Notifier struct {
	config NotifierConfig
	logger *slog.Logger

	deploymentID int64
}

// NewNotifier creates a Notifier from the given configuration.
func NewNotifier(config NotifierConfig) *Notifier {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{config: config, logger: logger}
}

// Enabled reports whether notifications will be sent.
func (n *Notifier) Enabled() bool {
	return n.disabledReason() == ""
}

// disabledReason returns why notifications are off, or "" when
// enabled.
func (n *Notifier) disabledReason() string {
	switch {
	case n.config.DryRun:
		return "dryrun"
	case n.config.Client == nil:
		return "not authenticated"
	case n.config.BuildID == "" || !n.config.IsPullRequest:
		return "not a pull request"
	}
	return ""
}

// Start creates the deployment record for this publish. Resolves the
// pull request head revision first: deployments attach to a revision,
// not a branch name.
func (n *Notifier) Start(ctx context.Context) error {
	if reason := n.disabledReason(); reason != "" {
		n.logger.Info("notifications disabled", "reason", reason)
		return nil
	}

	head, err := n.config.Client.GetPullRequestHead(ctx, n.config.Org, n.config.Repo, n.config.BuildID)
	if err != nil {
		return fmt.Errorf("starting notification: %w", err)
	}
	n.logger.Info("starting notification", "branch", head.Branch, "sha", head.SHA)

	description := fmt.Sprintf("Starting %s deployment of %s (%s) to %s",
		n.config.Environment, head.Branch, head.SHA, n.config.URL)
	deploymentID, err := n.config.Client.CreateDeployment(ctx, n.config.Org, n.config.Repo, DeploymentInput{
		Ref:         head.SHA,
		Environment: n.config.Environment,
		Description: description,
	})
	if err != nil {
		return fmt.Errorf("starting notification: %w", err)
	}

	n.deploymentID = deploymentID
	n.logger.Info("started notification", "deployment", deploymentID)
	return nil
}

// Finish records the deployment outcome. A Finish without a prior
// successful Start is a no-op: there is no deployment to update.
func (n *Notifier) Finish(ctx context.Context, state string) error {
	if !n.Enabled() || n.deploymentID == 0 {
		return nil
	}

	n.logger.Info("finishing notification", "deployment", n.deploymentID, "state", state)
	err := n.config.Client.CreateDeploymentStatus(ctx, n.config.Org, n.config.Repo, n.deploymentID, DeploymentStatusInput{
		State:          state,
		Environment:    n.config.Environment,
		EnvironmentURL: n.config.URL,
	})
	if err != nil {
		return fmt.Errorf("finishing notification: %w", err)
	}
	n.logger.Info("finished notification", "deployment", n.deploymentID)
	return nil
}
