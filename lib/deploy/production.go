// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

// Package deploy implements the staging and production deployment
// actions. The production path is a small state machine: an
// authentication probe that can downgrade the run to a skip, archive
// preparation (fresh snapshot or rollback resolution), the storage
// publish, and unconditional notification and cleanup phases that run
// whether or not the publish succeeded.
package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FormidableLabs/formideploy/lib/archive"
	"github.com/FormidableLabs/formideploy/lib/awscli"
	"github.com/FormidableLabs/formideploy/lib/clock"
	"github.com/FormidableLabs/formideploy/lib/config"
	"github.com/FormidableLabs/formideploy/lib/gitinfo"
)

// Cache lifetimes, in seconds, applied as max-age values.
const (
	cacheMaxAgeDefault = 10 * 60
	cacheMaxAgeHashed  = 365 * 24 * 60 * 60
	cacheMaxAgeMedia   = 24 * 60 * 60
)

// hashedFileRE infers "this file name embeds a content hash". Old
// Gatsby versions hashed source rather than produced contents and run
// afoul of this detection.
var hashedFileRE = regexp.MustCompile(`[/.][a-f0-9]{8,}\.[a-z]+$`)

// mediaFileTypes get the medium cache lifetime.
var mediaFileTypes = []string{"bmp", "gif", "jpg", "jpeg", "png", "svg", "webp"}

// builtinExcludes are always excluded from the production sync.
var builtinExcludes = []string{"*.DS_Store*"}

// Notifier records deployment start and outcome. Satisfied by
// *github.Notifier.
type Notifier interface {
	Start(ctx context.Context) error
	Finish(ctx context.Context, state string) error
}

// ProductionConfig holds the collaborators for a production publish.
type ProductionConfig struct {
	// Config is the loaded project configuration.
	Config *config.Config

	// Store is the storage CLI, carrying the dry-run flag.
	Store *awscli.CLI

	// Catalog lists, resolves, and downloads archives.
	Catalog *archive.Catalog

	// Git resolves checkout metadata for fresh archives.
	Git *gitinfo.Provider

	// Notifier reports deployment status.
	Notifier Notifier

	// Clock provides the deploy timestamp. Defaults to clock.Real().
	Clock clock.Clock

	// TempDir roots locally materialized archive payloads. Defaults
	// to the system temp dir.
	TempDir string

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Production runs production publishes and rollbacks.
type Production struct {
	cfg      *config.Config
	store    *awscli.CLI
	catalog  *archive.Catalog
	git      *gitinfo.Provider
	notifier Notifier
	clock    clock.Clock
	tempDir  string
	logger   *slog.Logger
}

// NewProduction creates a Production from the given configuration.
func NewProduction(config ProductionConfig) *Production {
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	tempDir := config.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Production{
		cfg:      config.Config,
		store:    config.Store,
		catalog:  config.Catalog,
		git:      config.Git,
		notifier: config.Notifier,
		clock:    clk,
		tempDir:  tempDir,
		logger:   logger,
	}
}

// prepared is the materialized input to the publish phase.
type prepared struct {
	// srcDir is the local tree mirrored to the public location.
	srcDir string

	// payloadPath is the local archive tarball or rollback pointer
	// file uploaded to the archives bucket.
	payloadPath string

	// key is the payload's destination key.
	key string

	// meta is the payload's normalized wire metadata.
	meta map[string]string

	// fresh marks a payload tarball created by this run, to be
	// deleted during cleanup. Rollbacks reuse cached downloads and
	// pointer files, which are never cleaned up.
	fresh bool
}

// Run executes one production publish. A non-empty reference selects
// rollback mode. An authentication failure downgrades the run to an
// intentional no-op skip, not an error. A publish failure is captured,
// carried through the notification and cleanup phases, and re-raised
// only after both have run.
func (p *Production) Run(ctx context.Context, reference string) error {
	if err := p.cfg.Validate(); err != nil {
		return err
	}
	url := p.cfg.URL()

	if err := p.store.CallerIdentity(ctx); err != nil {
		p.logger.Warn("storage authentication failed", "error", err)
		p.logger.Info("publish skipped", "url", url)
		return nil
	}

	if err := p.notifier.Start(ctx); err != nil {
		return err
	}

	var prep *prepared
	var err error
	if reference != "" {
		prep, err = p.prepareRollback(ctx, reference)
	} else {
		prep, err = p.prepareFresh(ctx)
	}
	if err != nil {
		return err
	}

	publishErr := p.publish(ctx, prep, url)
	state := "success"
	if publishErr != nil {
		state = "failure"
	}
	p.logger.Info("publish "+state, "url", url)

	if err := p.notifier.Finish(ctx, state); err != nil {
		if publishErr == nil {
			return err
		}
		p.logger.Error("finishing notification", "error", err)
	}

	if prep.fresh {
		p.logger.Info("removing local archive", "path", prep.payloadPath)
		if err := os.Remove(prep.payloadPath); err != nil {
			if publishErr == nil {
				return fmt.Errorf("removing local archive: %w", err)
			}
			p.logger.Error("removing local archive", "error", err)
		}
	}

	return publishErr
}

// localPayloadPath maps a destination key to a path under the temp
// root, creating parent directories.
func (p *Production) localPayloadPath(key string) (string, error) {
	payloadPath := filepath.Join(p.tempDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(payloadPath), 0o755); err != nil {
		return "", fmt.Errorf("creating payload directory: %w", err)
	}
	return payloadPath, nil
}

// prepareFresh snapshots the local build output into a new archive
// payload with metadata from the current checkout.
func (p *Production) prepareFresh(ctx context.Context) (*prepared, error) {
	git, err := p.git.Info(ctx)
	if err != nil {
		return nil, err
	}

	now := p.clock.Now()
	name := archive.Name{
		Time:          now,
		RevisionShort: git.SHAShort,
		Dirty:         git.Dirty,
		Kind:          archive.KindArchive,
	}
	formatted, err := name.Format()
	if err != nil {
		return nil, err
	}
	key := p.catalog.Location().Key(formatted)

	payloadPath, err := p.localPayloadPath(key)
	if err != nil {
		return nil, err
	}
	p.logger.Info("creating local archive", "path", payloadPath, "from", p.cfg.Build.Path)
	if err := archive.CreateTarball(p.cfg.Build.Path, payloadPath); err != nil {
		return nil, err
	}

	meta := archive.Metadata{
		DeployDate:    isoMillis(now),
		DeployType:    archive.KindArchive.DeployType(),
		BuildJobID:    p.cfg.Build.JobID,
		BuildJobURL:   p.cfg.Build.JobURL,
		GitUserName:   git.UserName,
		GitUserEmail:  git.UserEmail,
		GitSHA:        git.SHA,
		GitSHAShort:   git.SHAShort,
		GitBranch:     git.Branch,
		GitCommitDate: git.CommitDate,
		GitState:      git.State(),
	}

	return &prepared{
		srcDir:      p.cfg.Build.Path,
		payloadPath: payloadPath,
		key:         key,
		meta:        meta.Normalize(),
		fresh:       true,
	}, nil
}

// prepareRollback resolves the reference to its original archive,
// downloads and unpacks that archive as the publish source, and writes
// a JSON pointer record as the rollback payload.
func (p *Production) prepareRollback(ctx context.Context, reference string) (*prepared, error) {
	original, err := p.catalog.Resolve(ctx, reference)
	if err != nil {
		return nil, err
	}

	artifact, err := p.catalog.Download(ctx, original)
	if err != nil {
		return nil, err
	}
	originalMeta, originalKey, err := p.catalog.FetchMetadata(ctx, original)
	if err != nil {
		return nil, err
	}
	p.logger.Info("rolling back to archive",
		"key", originalKey, "sha", original.RevisionShort)

	now := p.clock.Now()
	name := archive.Name{
		Time:          now,
		RevisionShort: original.RevisionShort,
		Dirty:         original.Dirty,
		Kind:          archive.KindRollback,
	}
	formatted, err := name.Format()
	if err != nil {
		return nil, err
	}
	key := p.catalog.Location().Key(formatted)

	rollbackMeta := archive.RollbackMetadata{
		DeployDate:   isoMillis(now),
		DeployType:   archive.KindRollback.DeployType(),
		BuildJobID:   p.cfg.Build.JobID,
		BuildJobURL:  p.cfg.Build.JobURL,
		OriginalName: originalKey,
		Original:     originalMeta,
	}

	record := struct {
		Rollback map[string]string `json:"rollback"`
		Original struct {
			Name string            `json:"name"`
			Meta map[string]string `json:"meta"`
		} `json:"original"`
	}{Rollback: rollbackMeta.Fields()}
	record.Original.Name = originalKey
	record.Original.Meta = originalMeta.Fields()

	body, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding rollback record: %w", err)
	}

	payloadPath, err := p.localPayloadPath(key)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(payloadPath, body, 0o644); err != nil {
		return nil, fmt.Errorf("writing rollback record: %w", err)
	}

	return &prepared{
		srcDir:      artifact.BuildDir,
		payloadPath: payloadPath,
		key:         key,
		meta:        rollbackMeta.Normalize(),
	}, nil
}

// publish mirrors the prepared source to the public location, applies
// differentiated cache lifetimes, writes redirects, invalidates the
// CDN, and uploads the archive payload.
func (p *Production) publish(ctx context.Context, prep *prepared, url string) error {
	location := p.catalog.Location()
	site := p.cfg.Site

	p.logger.Info("publishing build", "from", prep.srcDir, "url", url)
	if err := p.store.SyncTree(ctx, awscli.SyncInput{
		SourceDir:       prep.srcDir,
		Bucket:          location.Bucket,
		Prefix:          location.BasePath,
		CacheControl:    maxAge(cacheMaxAgeDefault),
		Delete:          true,
		ExactTimestamps: true,
		Excludes:        syncExcludes(site),
	}); err != nil {
		return fmt.Errorf("syncing build: %w", err)
	}

	p.logger.Info("setting longer TTLs on media assets")
	mediaIncludes := make([]string, len(mediaFileTypes))
	for i, extension := range mediaFileTypes {
		mediaIncludes[i] = "*." + extension
	}
	if err := p.store.SetCacheControl(ctx, location.Bucket, location.BasePath,
		mediaIncludes, maxAge(cacheMaxAgeMedia)); err != nil {
		return fmt.Errorf("setting media cache lifetimes: %w", err)
	}

	hashed, err := hashedFiles(prep.srcDir)
	if err != nil {
		return err
	}
	p.logger.Info("setting longer TTLs on hashed assets", "count", len(hashed))
	if len(hashed) > 0 {
		if err := p.store.SetCacheControl(ctx, location.Bucket, location.BasePath,
			hashed, maxAge(cacheMaxAgeHashed)); err != nil {
			return fmt.Errorf("setting hashed cache lifetimes: %w", err)
		}
	}

	if err := p.createRedirects(ctx, location.Bucket, site.Redirects); err != nil {
		return err
	}

	if err := p.invalidateCDN(ctx); err != nil {
		return err
	}

	p.logger.Info("uploading archive payload",
		"bucket", location.ArchiveBucket(), "key", prep.key)
	if err := p.store.Upload(ctx, prep.payloadPath, location.ArchiveBucket(), prep.key, prep.meta); err != nil {
		return fmt.Errorf("uploading archive payload: %w", err)
	}
	return nil
}

// createRedirects fans out one put per configured redirect and joins
// before returning. Ordering across the fan-out is not guaranteed.
func (p *Production) createRedirects(ctx context.Context, bucket string, redirects map[string]string) error {
	if len(redirects) == 0 {
		return nil
	}
	p.logger.Info("creating redirects", "count", len(redirects))

	var group sync.WaitGroup
	errs := make([]error, 0, len(redirects))
	var mu sync.Mutex

	for source, destination := range redirects {
		source, destination := source, destination
		group.Add(1)
		go func() {
			defer group.Done()
			etag, err := p.store.PutRedirect(ctx, bucket, redirectFile(source), destination)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("creating redirect %s: %w", source, err))
				return
			}
			if etag != "" {
				p.logger.Info("created redirect", "key", redirectFile(source), "etag", etag)
			}
		}()
	}
	group.Wait()

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// invalidateCDN finds the distribution whose aliases include the
// production domain and invalidates the site's cache path. Exactly one
// distribution must match; in dry-run mode the lookup is skipped and a
// placeholder logged.
func (p *Production) invalidateCDN(ctx context.Context) error {
	domain := p.cfg.Production.Domain
	p.logger.Info("finding CDN distribution", "domain", domain)

	distributions, err := p.store.ListDistributions(ctx, domain)
	if err != nil {
		return fmt.Errorf("listing distributions: %w", err)
	}

	distribution := awscli.Distribution{ID: "EMPTY", DomainName: "EMPTY"}
	if !p.store.DryRun() {
		if len(distributions) != 1 {
			ids := make([]string, len(distributions))
			for i, d := range distributions {
				ids[i] = d.ID
			}
			return fmt.Errorf("expected exactly 1 matching distribution, found %d: %s",
				len(distributions), strings.Join(ids, ", "))
		}
		distribution = distributions[0]
	}

	invalidatePath := "/" + path.Join(p.cfg.Site.BasePath, "*")
	p.logger.Info("invalidating CDN cache",
		"distribution", distribution.ID, "domain", distribution.DomainName, "path", invalidatePath)

	invalidationID, err := p.store.CreateInvalidation(ctx, distribution.ID, invalidatePath)
	if err != nil {
		return fmt.Errorf("invalidating CDN cache: %w", err)
	}
	if invalidationID != "" {
		p.logger.Info("created invalidation", "id", invalidationID)
	}
	return nil
}

// syncExcludes aggregates the built-in excludes, the configured
// separately-deployed sub-paths, and the redirect object keys, which
// must survive a sync with delete.
func syncExcludes(site config.Site) []string {
	excludes := append([]string{}, builtinExcludes...)
	for _, exclude := range site.Excludes {
		if !strings.HasSuffix(exclude, "/") {
			exclude += "/"
		}
		excludes = append(excludes, exclude+"*")
	}
	sources := make([]string, 0, len(site.Redirects))
	for source := range site.Redirects {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		excludes = append(excludes, redirectFile(source))
	}
	return excludes
}

// redirectFile maps a redirect source path to the object key created
// for it: paths without an extension address a directory and gain an
// index.html.
func redirectFile(source string) string {
	if path.Ext(source) != "" {
		return source
	}
	return path.Join(source, "index.html")
}

// hashedFiles returns the source-relative paths of files whose names
// embed a content hash.
func hashedFiles(dir string) ([]string, error) {
	var hashed []string
	err := filepath.WalkDir(dir, func(filePath string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		relative, err := filepath.Rel(dir, filePath)
		if err != nil {
			return err
		}
		relative = filepath.ToSlash(relative)
		if hashedFileRE.MatchString("/" + relative) {
			hashed = append(hashed, relative)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning for hashed assets: %w", err)
	}
	return hashed, nil
}

func maxAge(seconds int) string {
	return fmt.Sprintf("max-age=%d,public", seconds)
}

// isoMillis renders an instant as an ISO-8601 UTC timestamp with
// millisecond precision.
func isoMillis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
