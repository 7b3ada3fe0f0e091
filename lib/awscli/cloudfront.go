// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package awscli

import (
	"context"
	"encoding/json"
	"fmt"
)

// Distribution is one CDN distribution matched by alias.
type Distribution struct {
	ID         string `json:"Id"`
	DomainName string `json:"DomainName"`
}

// ListDistributions returns the CDN distributions whose alias list
// contains aliasDomain. Assumes all distributions fit in one response.
// In dry-run mode the lookup is skipped and an empty slice returned.
func (c *CLI) ListDistributions(ctx context.Context, aliasDomain string) ([]Distribution, error) {
	if c.skipMutation("list-distributions") {
		return nil, nil
	}

	query := "DistributionList.Items[].{Id: Id, DomainName: DomainName, Aliases: Aliases}" +
		fmt.Sprintf("[?contains(Aliases.Items, '%s')]", aliasDomain)
	stdout, err := c.run(ctx, "cloudfront", "list-distributions", "--query", query)
	if err != nil {
		return nil, err
	}

	var distributions []Distribution
	if err := json.Unmarshal(stdout, &distributions); err != nil {
		return nil, fmt.Errorf("decoding list-distributions response: %w", err)
	}
	return distributions, nil
}

// CreateInvalidation invalidates a CDN cache path on the given
// distribution and returns the invalidation id. The cloudfront API
// has no dry-run support, so in dry-run mode the call is logged and
// skipped.
func (c *CLI) CreateInvalidation(ctx context.Context, distributionID, path string) (string, error) {
	if c.skipMutation(fmt.Sprintf("create-invalidation for %s of %s", distributionID, path)) {
		return "", nil
	}

	stdout, err := c.run(ctx,
		"cloudfront", "create-invalidation",
		"--distribution-id", distributionID,
		"--paths", path,
	)
	if err != nil {
		return "", err
	}

	var result struct {
		Invalidation struct {
			ID string `json:"Id"`
		} `json:"Invalidation"`
	}
	if err := json.Unmarshal(stdout, &result); err != nil {
		return "", fmt.Errorf("decoding create-invalidation response: %w", err)
	}
	return result.Invalidation.ID, nil
}
