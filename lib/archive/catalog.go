// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package archive

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/FormidableLabs/formideploy/lib/awscli"
	"github.com/FormidableLabs/formideploy/lib/timekey"
)

// Location identifies where a site's archives live: the production
// domain and base path form the key prefix inside the archives bucket.
type Location struct {
	// Domain is the production domain (e.g. "formidable.com").
	Domain string

	// BasePath is the nested site path, empty for the base site.
	BasePath string

	// Bucket is the production bucket; archives live in the
	// "-archives" sibling.
	Bucket string
}

// ArchiveBucket returns the bucket that stores archive objects.
func (l Location) ArchiveBucket() string { return l.Bucket + "-archives" }

// Key returns the full object key for an archive name.
func (l Location) Key(name string) string {
	key := l.Domain
	if l.BasePath != "" {
		key = path.Join(key, l.BasePath)
	}
	return path.Join(key, name)
}

// Prefix returns the listing prefix that matches every archive key at
// this location.
func (l Location) Prefix() string { return l.Key("archive-") }

// Catalog lists, resolves, and downloads archive objects from the
// remote store.
type Catalog struct {
	store    *awscli.CLI
	location Location
	cacheDir string
	logger   *slog.Logger
}

// NewCatalog creates a Catalog. cacheDir is the root for the local
// download cache; if empty, a formideploy directory under the system
// temp dir is used.
func NewCatalog(store *awscli.CLI, location Location, cacheDir string, logger *slog.Logger) *Catalog {
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "formideploy")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{store: store, location: location, cacheDir: cacheDir, logger: logger}
}

// Location returns the catalog's location.
func (c *Catalog) Location() Location { return c.location }

// Query bounds one catalog listing.
type Query struct {
	// Limit is the maximum number of entries to return.
	Limit int

	// Start is the cursor: archives deployed at or after this instant
	// are excluded.
	Start time.Time
}

// Entry is one listed archive with the metadata recoverable from its
// key alone.
type Entry struct {
	// Key is the full object key.
	Key string

	// Name is the parsed archive name.
	Name Name

	// Meta is the subset of metadata derivable from the key: deploy
	// date, deploy type, short revision, and dirty state.
	Meta Metadata
}

// List issues one bounded listing. Results come back in the store's
// native key order which, by the sort-key construction, is descending
// deployment time, most recent first. Every key must parse; a single
// malformed key fails the call with *CorruptEntryError.
func (c *Catalog) List(ctx context.Context, query Query) ([]Entry, error) {
	if query.Limit <= 0 {
		return nil, fmt.Errorf("catalog listing limit must be positive, got %d", query.Limit)
	}

	// The boundary key is the sort key of one millisecond before the
	// cursor: start-after is exclusive and sort keys grow as time goes
	// backwards, so this admits strictly-older archives only.
	boundary, err := timekey.ToSortKey(query.Start.Add(-time.Millisecond))
	if err != nil {
		return nil, fmt.Errorf("catalog start cursor: %w", err)
	}

	prefix := c.location.Prefix()
	objects, err := c.store.ListObjects(ctx, c.location.ArchiveBucket(), prefix, query.Limit, prefix+boundary)
	if err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}

	entries := make([]Entry, 0, len(objects))
	for _, object := range objects {
		if len(entries) == query.Limit {
			break
		}
		name, err := Parse(path.Base(object.Key))
		if err != nil {
			return nil, &CorruptEntryError{Key: object.Key, Err: err}
		}
		entries = append(entries, Entry{
			Key:  object.Key,
			Name: name,
			Meta: Metadata{
				DeployDate:  name.Time.Format(time.RFC3339Nano),
				DeployType:  name.Kind.DeployType(),
				GitSHAShort: name.RevisionShort,
				GitState:    name.State(),
			},
		})
	}
	return entries, nil
}

// rollbackRecord is the JSON body of a rollback pointer object.
type rollbackRecord struct {
	Rollback map[string]string `json:"rollback"`
	Original struct {
		Name string            `json:"name"`
		Meta map[string]string `json:"meta"`
	} `json:"original"`
}

// Resolve turns an archive reference into the full-archive name to
// deploy from. An Archive-kind reference is returned unchanged. A
// Rollback-kind reference is followed through its pointer body to the
// original archive, exactly one level deep: a pointer whose target is
// itself a rollback fails with *ChainedRollbackError.
func (c *Catalog) Resolve(ctx context.Context, reference string) (Name, error) {
	name, err := Parse(path.Base(reference))
	if err != nil {
		return Name{}, err
	}
	if name.Kind == KindArchive {
		return name, nil
	}

	formatted, err := name.Format()
	if err != nil {
		return Name{}, err
	}
	key := c.location.Key(formatted)
	c.logger.Info("resolving rollback pointer", "key", key)

	body, err := c.store.GetObject(ctx, c.location.ArchiveBucket(), key)
	if err != nil {
		if awscli.IsNoSuchKey(err) {
			return Name{}, &NotFoundError{Key: key}
		}
		return Name{}, fmt.Errorf("fetching rollback pointer %s: %w", key, err)
	}

	var record rollbackRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return Name{}, fmt.Errorf("decoding rollback pointer %s: %w", key, err)
	}
	if record.Original.Name == "" {
		return Name{}, fmt.Errorf("rollback pointer %s has no original archive name", key)
	}

	original, err := Parse(path.Base(record.Original.Name))
	if err != nil {
		return Name{}, err
	}
	if original.Kind != KindArchive {
		return Name{}, &ChainedRollbackError{Reference: reference, Original: record.Original.Name}
	}
	return original, nil
}

// FetchMetadata retrieves and denormalizes the stored metadata for one
// archive. Fails with *NotFoundError if the key does not exist.
func (c *Catalog) FetchMetadata(ctx context.Context, name Name) (Metadata, string, error) {
	formatted, err := name.Format()
	if err != nil {
		return Metadata{}, "", err
	}
	key := c.location.Key(formatted)

	wire, err := c.store.HeadObject(ctx, c.location.ArchiveBucket(), key)
	if err != nil {
		if awscli.IsNoSuchKey(err) {
			return Metadata{}, "", &NotFoundError{Key: key}
		}
		return Metadata{}, "", fmt.Errorf("fetching metadata for %s: %w", key, err)
	}
	return Denormalize(wire), key, nil
}

// Artifact is a downloaded archive payload materialized locally.
type Artifact struct {
	// ArchivePath is the cached tar.gz file.
	ArchivePath string

	// BuildDir is the freshly extracted build tree, rooted to mirror
	// the location's domain and base path.
	BuildDir string
}

// Download fetches an archive payload into the local cache and
// extracts it. The cache path is a deterministic function of the full
// remote key, so a key already present is never re-fetched; remote
// archives are immutable once written, making the cache a pure
// optimization. The extraction directory is wiped and rebuilt on
// every call.
func (c *Catalog) Download(ctx context.Context, name Name) (*Artifact, error) {
	formatted, err := name.Format()
	if err != nil {
		return nil, err
	}
	key := c.location.Key(formatted)

	digest := blake3.Sum256([]byte(key))
	archivePath := filepath.Join(c.cacheDir, "zips",
		hex.EncodeToString(digest[:8])+"-"+formatted)

	if _, err := os.Stat(archivePath); err == nil {
		c.logger.Info("found cached archive", "path", archivePath)
	} else {
		if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
			return nil, fmt.Errorf("creating archive cache directory: %w", err)
		}
		c.logger.Info("downloading archive", "key", key, "path", archivePath)
		if err := c.store.CopyToLocal(ctx, c.location.ArchiveBucket(), key, archivePath); err != nil {
			if awscli.IsNoSuchKey(err) {
				return nil, &NotFoundError{Key: key}
			}
			return nil, fmt.Errorf("downloading %s: %w", key, err)
		}
	}

	buildDir := filepath.Join(c.cacheDir, "builds", filepath.FromSlash(c.location.Key("")))
	if err := os.RemoveAll(buildDir); err != nil {
		return nil, fmt.Errorf("clearing build directory: %w", err)
	}
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating build directory: %w", err)
	}
	if err := ExtractTarball(archivePath, buildDir); err != nil {
		return nil, err
	}

	return &Artifact{ArchivePath: archivePath, BuildDir: buildDir}, nil
}
