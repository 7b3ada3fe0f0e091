// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

// Package config loads the formideploy project configuration.
//
// Configuration is read from a single file in the project root, the
// first of formideploy.yml, formideploy.yaml, formideploy.jsonc, or
// formideploy.json that exists. Decoding is strict: unknown keys are
// rejected rather than silently merged. Defaults and CI-environment
// derivations are applied once at load; the resulting value is
// immutable and passed into every component that needs it.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// searchOrder is the candidate configuration file list, checked in
// order from the working directory.
var searchOrder = []string{
	"formideploy.yml",
	"formideploy.yaml",
	"formideploy.jsonc",
	"formideploy.json",
}

// Config is the full project configuration after defaults and
// derivations.
type Config struct {
	Lander     Lander     `yaml:"lander" json:"lander"`
	GitHub     GitHub     `yaml:"github" json:"github"`
	Build      Build      `yaml:"build" json:"build"`
	Site       Site       `yaml:"site" json:"site"`
	Staging    Staging    `yaml:"staging" json:"staging"`
	Production Production `yaml:"production" json:"production"`
}

// Lander identifies a nested open-source project site. An empty name
// means the base website.
type Lander struct {
	// Name is the package name, e.g. "spectacle". Also assumed to be
	// the GitHub repository name.
	Name string `yaml:"name" json:"name"`
}

// GitHub locates the repository for deployment notifications.
type GitHub struct {
	Org string `yaml:"org" json:"org"`

	// Repo defaults to the lander name, or the base-website repository
	// when no lander is configured.
	Repo string `yaml:"repo" json:"repo"`
}

// Build describes the local build output and CI context.
type Build struct {
	// Dir is the build output directory.
	Dir string `yaml:"dir" json:"dir"`

	// Path is the directory actually served and deployed,
	// Dir/Site.BasePath by default.
	Path string `yaml:"path" json:"path"`

	// ID is the build identifier, the CI pull-request number by
	// default.
	ID string `yaml:"id" json:"id"`

	// IsPullRequest enables GitHub PR enhancements. When unset it is
	// derived: true exactly when a CI pull-request number was found.
	IsPullRequest *bool `yaml:"isPullRequest" json:"isPullRequest"`

	// JobID and JobURL identify the CI job for deployment metadata.
	// Derived from CI environment variables when unset.
	JobID  string `yaml:"jobId" json:"jobId"`
	JobURL string `yaml:"jobUrl" json:"jobUrl"`
}

// PullRequest reports whether this build is for a pull request.
func (b Build) PullRequest() bool {
	return b.IsPullRequest != nil && *b.IsPullRequest
}

// Site describes the served website layout.
type Site struct {
	// BasePath is the nested path the site is served from, e.g.
	// "open-source/spectacle". Empty for the base website.
	BasePath string `yaml:"basePath" json:"basePath"`

	// Excludes are sub-paths uploaded separately; the production sync
	// must not delete them.
	Excludes []string `yaml:"excludes" json:"excludes"`

	// Redirects maps source paths to redirect locations, implemented
	// as empty objects with website-redirect metadata.
	Redirects map[string]string `yaml:"redirects" json:"redirects"`
}

// Staging configures the staging deployment target.
type Staging struct {
	// Domain is the staging domain, derived from the lander name and
	// build id when unset.
	Domain string `yaml:"domain" json:"domain"`
}

// Production configures the production deployment target.
type Production struct {
	Domain string `yaml:"domain" json:"domain"`
	Bucket string `yaml:"bucket" json:"bucket"`

	// Region is passed to the storage CLI when set.
	Region string `yaml:"region" json:"region"`
}

// Default returns the configuration defaults before file overrides and
// derivations.
func Default() *Config {
	return &Config{
		GitHub: GitHub{Org: "FormidableLabs"},
		Build:  Build{Dir: "dist"},
		Production: Production{
			Domain: "formidable.com",
			Bucket: "formidable.com",
		},
	}
}

// Load finds the project configuration file in dir, decodes it
// strictly, and applies defaults and derivations. getenv supplies CI
// environment lookups and defaults to os.Getenv.
func Load(dir string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	for _, name := range searchOrder {
		configPath := filepath.Join(dir, name)
		data, err := os.ReadFile(configPath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", configPath, err)
		}

		cfg := Default()
		if err := decode(name, data, cfg); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", configPath, err)
		}
		cfg.derive(getenv)
		return cfg, nil
	}

	return nil, fmt.Errorf("no project configuration found; provide one of: %s",
		strings.Join(searchOrder, ", "))
}

// decode parses the file contents by extension. Both formats reject
// unknown keys.
func decode(name string, data []byte, cfg *Config) error {
	if strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml") {
		decoder := yaml.NewDecoder(strings.NewReader(string(data)))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil {
			return err
		}
		return nil
	}

	decoder := json.NewDecoder(strings.NewReader(string(jsonc.ToJSON(data))))
	decoder.DisallowUnknownFields()
	return decoder.Decode(cfg)
}

// derive fills unset values from CI environment variables and the
// lander/base-website rules.
func (c *Config) derive(getenv func(string) string) {
	if c.Build.ID == "" {
		c.Build.ID = buildID(getenv)
	}
	if c.Build.IsPullRequest == nil {
		isPR := c.Build.ID != ""
		c.Build.IsPullRequest = &isPR
	}
	if c.Build.JobID == "" {
		c.Build.JobID = firstEnv(getenv, "TRAVIS_JOB_ID", "CIRCLE_BUILD_NUM", "GITHUB_RUN_ID")
	}
	if c.Build.JobURL == "" {
		c.Build.JobURL = firstEnv(getenv, "TRAVIS_JOB_WEB_URL", "CIRCLE_BUILD_URL")
	}

	if c.Lander.Name != "" {
		if c.GitHub.Repo == "" {
			c.GitHub.Repo = c.Lander.Name
		}
		if c.Site.BasePath == "" {
			c.Site.BasePath = path.Join("open-source", c.Lander.Name)
		}
		if c.Staging.Domain == "" {
			c.Staging.Domain = fmt.Sprintf("formidable-com-%s-staging-%s.surge.sh",
				c.Lander.Name, c.Build.ID)
		}
	} else {
		if c.GitHub.Repo == "" {
			c.GitHub.Repo = "formidable.com"
		}
		if c.Staging.Domain == "" {
			c.Staging.Domain = fmt.Sprintf("formidable-com-staging-%s.surge.sh", c.Build.ID)
		}
	}

	if c.Build.Path == "" {
		c.Build.Path = filepath.Join(c.Build.Dir, filepath.FromSlash(c.Site.BasePath))
	}
}

// buildID infers the pull-request number from Travis or CircleCI
// environment variables.
func buildID(getenv func(string) string) string {
	if pr := getenv("TRAVIS_PULL_REQUEST"); pr != "" && pr != "false" {
		return pr
	}

	// CircleCI exposes the PR as a URL; the number is the last path
	// segment.
	circle := getenv("CI_PULL_REQUEST")
	if i := strings.LastIndex(circle, "/"); i >= 0 {
		circle = circle[i+1:]
	}
	return circle
}

func firstEnv(getenv func(string) string, keys ...string) string {
	for _, key := range keys {
		if value := getenv(key); value != "" {
			return value
		}
	}
	return ""
}

// URL returns the public production URL for the configured site.
func (c *Config) URL() string {
	return "https://" + path.Join(c.Production.Domain, c.Site.BasePath)
}

// StagingURL returns the public staging URL.
func (c *Config) StagingURL() string {
	return "https://" + c.Staging.Domain
}

// Validate checks the parts every real action needs: the build output
// directory must exist.
func (c *Config) Validate() error {
	info, err := os.Stat(c.Build.Path)
	if err != nil {
		return fmt.Errorf("build output missing at %s: %w", c.Build.Path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("build output at %s is not a directory", c.Build.Path)
	}
	return nil
}
