// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package deploy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FormidableLabs/formideploy/lib/config"
	"github.com/FormidableLabs/formideploy/lib/surge"
)

// StagingConfig holds the collaborators for a staging publish.
type StagingConfig struct {
	// Config is the loaded project configuration.
	Config *config.Config

	// Publisher uploads the build to the staging host.
	Publisher *surge.Publisher

	// Notifier reports deployment status.
	Notifier Notifier

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Staging publishes the build output to the staging domain.
type Staging struct {
	cfg       *config.Config
	publisher *surge.Publisher
	notifier  Notifier
	logger    *slog.Logger
}

// NewStaging creates a Staging from the given configuration.
func NewStaging(config StagingConfig) *Staging {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Staging{
		cfg:       config.Config,
		publisher: config.Publisher,
		notifier:  config.Notifier,
		logger:    logger,
	}
}

// Run publishes the whole build output directory to the staging
// domain. The full directory is published, not just the nested site
// path, so the staging URL mirrors the production layout. Like the
// production path, the outcome notification runs whether or not the
// publish succeeded.
func (s *Staging) Run(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	url := s.cfg.StagingURL()

	if err := s.notifier.Start(ctx); err != nil {
		return err
	}

	s.logger.Info("publishing build to staging", "from", s.cfg.Build.Dir, "url", url)
	publishErr := s.publisher.Publish(ctx, s.cfg.Build.Dir, s.cfg.Staging.Domain)

	state := "success"
	if publishErr != nil {
		state = "failure"
	}
	s.logger.Info("publish "+state, "url", url)

	if err := s.notifier.Finish(ctx, state); err != nil {
		if publishErr == nil {
			return err
		}
		s.logger.Error("finishing notification", "error", err)
	}

	if publishErr != nil {
		return fmt.Errorf("publishing to staging: %w", publishErr)
	}
	return nil
}
