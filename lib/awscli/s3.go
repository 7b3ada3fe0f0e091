// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package awscli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Object is one entry from a bucket listing.
type Object struct {
	Key  string `json:"Key"`
	Size int64  `json:"Size"`
}

// s3URL renders an s3:// URL for a bucket and key/prefix.
func s3URL(bucket, key string) string {
	if key == "" {
		return "s3://" + bucket
	}
	return "s3://" + bucket + "/" + key
}

// ListObjects issues one bounded list-objects-v2 request. startAfter
// is the exclusive lexicographic lower bound on returned keys; results
// come back in the bucket's native ascending key order.
func (c *CLI) ListObjects(ctx context.Context, bucket, prefix string, maxItems int, startAfter string) ([]Object, error) {
	stdout, err := c.run(ctx,
		"s3api", "list-objects-v2",
		"--bucket", bucket,
		"--prefix", prefix,
		"--max-items", strconv.Itoa(maxItems),
		"--start-after", startAfter,
	)
	if err != nil {
		return nil, err
	}

	var listing struct {
		Contents []Object `json:"Contents"`
	}
	if err := json.Unmarshal(stdout, &listing); err != nil {
		return nil, fmt.Errorf("decoding list-objects-v2 response: %w", err)
	}
	return listing.Contents, nil
}

// HeadObject returns the user metadata attached to a key.
func (c *CLI) HeadObject(ctx context.Context, bucket, key string) (map[string]string, error) {
	stdout, err := c.run(ctx,
		"s3api", "head-object",
		"--bucket", bucket,
		"--key", key,
	)
	if err != nil {
		return nil, err
	}

	var head struct {
		Metadata map[string]string `json:"Metadata"`
	}
	if err := json.Unmarshal(stdout, &head); err != nil {
		return nil, fmt.Errorf("decoding head-object response: %w", err)
	}
	return head.Metadata, nil
}

// GetObject fetches an object's body. Used for small pointer records
// only; large payloads go through CopyToLocal.
func (c *CLI) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	return c.run(ctx, "s3", "cp", s3URL(bucket, key), "-")
}

// CopyToLocal downloads an object to a local file. Downloads are
// read-only and run even in dry-run mode.
func (c *CLI) CopyToLocal(ctx context.Context, bucket, key, localPath string) error {
	_, err := c.run(ctx, "s3", "cp", s3URL(bucket, key), localPath)
	return err
}

// Upload copies a local file to an object, attaching the given user
// metadata. Uses the CLI's native dry-run support.
func (c *CLI) Upload(ctx context.Context, localPath, bucket, key string, metadata map[string]string) error {
	args := []string{"s3", "cp"}
	args = append(args, c.dryRunFlag()...)
	if len(metadata) > 0 {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encoding object metadata: %w", err)
		}
		args = append(args, "--metadata", string(encoded))
	}
	args = append(args, localPath, s3URL(bucket, key))

	_, err := c.run(ctx, args...)
	return err
}

// SyncInput describes one s3 sync invocation.
type SyncInput struct {
	SourceDir string
	Bucket    string
	Prefix    string

	// CacheControl is the Cache-Control header applied to every
	// uploaded object.
	CacheControl string

	// Delete removes remote objects that no longer exist locally.
	Delete bool

	// ExactTimestamps re-uploads size-matched files unless the
	// timestamps agree exactly. Mitigates syncs that wrongly skip
	// changed files of identical size.
	ExactTimestamps bool

	// Excludes are sync exclude patterns, applied in order.
	Excludes []string
}

// SyncTree mirrors a local directory to a bucket prefix. Uses the
// CLI's native dry-run support.
func (c *CLI) SyncTree(ctx context.Context, input SyncInput) error {
	args := []string{"s3", "sync"}
	args = append(args, c.dryRunFlag()...)
	if input.CacheControl != "" {
		args = append(args, "--cache-control", input.CacheControl)
	}
	if input.Delete {
		args = append(args, "--delete")
	}
	if input.ExactTimestamps {
		args = append(args, "--exact-timestamps")
	}
	for _, exclude := range input.Excludes {
		args = append(args, "--exclude", exclude)
	}
	args = append(args, input.SourceDir, s3URL(input.Bucket, input.Prefix))

	_, err := c.run(ctx, args...)
	return err
}

// SetCacheControl rewrites the Cache-Control header on objects already
// in the bucket matching the include patterns, via an in-place
// recursive self-copy with a metadata directive. Uses the CLI's native
// dry-run support.
func (c *CLI) SetCacheControl(ctx context.Context, bucket, prefix string, includes []string, cacheControl string) error {
	destination := s3URL(bucket, prefix)
	args := []string{"s3", "cp"}
	args = append(args, c.dryRunFlag()...)
	args = append(args,
		"--recursive",
		"--copy-props", "metadata-directive",
		"--cache-control", cacheControl,
		"--exclude", "*",
	)
	for _, include := range includes {
		args = append(args, "--include", include)
	}
	args = append(args, destination, destination)

	_, err := c.run(ctx, args...)
	return err
}

// PutRedirect creates an empty object whose website-redirect-location
// metadata causes the static site to serve a redirect for that key.
// Returns the new object's ETag. The s3api has no dry-run support, so
// in dry-run mode the call is logged and skipped.
func (c *CLI) PutRedirect(ctx context.Context, bucket, key, location string) (string, error) {
	if c.skipMutation(fmt.Sprintf("redirect: %s to %s", s3URL(bucket, key), location)) {
		return "", nil
	}

	stdout, err := c.run(ctx,
		"s3api", "put-object",
		"--bucket", bucket,
		"--key", key,
		"--website-redirect-location", location,
	)
	if err != nil {
		return "", err
	}

	var result struct {
		ETag string `json:"ETag"`
	}
	if err := json.Unmarshal(stdout, &result); err != nil {
		return "", fmt.Errorf("decoding put-object response: %w", err)
	}
	return result.ETag, nil
}
