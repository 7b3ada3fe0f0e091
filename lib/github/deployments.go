// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// PullRequestHead is the head reference of a pull request.
type PullRequestHead struct {
	Branch string
	SHA    string
}

// GetPullRequestHead fetches the head branch and revision of a pull
// request.
func (client *Client) GetPullRequestHead(ctx context.Context, org, repo string, number string) (PullRequestHead, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%s", org, repo, number)
	body, _, err := client.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return PullRequestHead{}, err
	}

	var parsed struct {
		Head struct {
			Ref string `json:"ref"`
			SHA string `json:"sha"`
		} `json:"head"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return PullRequestHead{}, fmt.Errorf("github: decoding pull request: %w", err)
	}
	return PullRequestHead{Branch: parsed.Head.Ref, SHA: parsed.Head.SHA}, nil
}

// DeploymentInput describes a deployment to create.
type DeploymentInput struct {
	// Ref is the git revision being deployed.
	Ref string

	// Environment names the deployment target ("staging", "production").
	Environment string

	// Description is free-form context for the deployment record.
	Description string
}

// CreateDeployment creates a deployment record and returns its id.
//
// required_contexts is always empty: formideploy runs inside CI, so
// waiting for status checks from here would deadlock. GitHub responds
// 201 when the deployment is created; the documented 202 (auto-merge)
// and 409 (conflict) responses mean no deployment exists and are
// surfaced as errors.
func (client *Client) CreateDeployment(ctx context.Context, org, repo string, input DeploymentInput) (int64, error) {
	path := fmt.Sprintf("/repos/%s/%s/deployments", org, repo)
	body, status, err := client.do(ctx, http.MethodPost, path, map[string]any{
		"ref":               input.Ref,
		"environment":       input.Environment,
		"description":       input.Description,
		"required_contexts": []string{},
	})
	if err != nil {
		return 0, err
	}
	if status != http.StatusCreated {
		return 0, fmt.Errorf("github: deployment not created for %s (HTTP %d)", input.Ref, status)
	}

	var parsed struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("github: decoding deployment: %w", err)
	}
	return parsed.ID, nil
}

// DeploymentStatusInput describes a terminal deployment status.
type DeploymentStatusInput struct {
	// State is the deployment outcome: "success", "failure", or
	// "error".
	State string

	// Environment matches the value the deployment was created with.
	Environment string

	// EnvironmentURL is the deployed site URL shown in the GitHub UI.
	EnvironmentURL string
}

// CreateDeploymentStatus records the outcome of a deployment.
// auto_inactive is always set so prior deployments of the same
// environment are marked inactive.
func (client *Client) CreateDeploymentStatus(ctx context.Context, org, repo string, deploymentID int64, input DeploymentStatusInput) error {
	path := fmt.Sprintf("/repos/%s/%s/deployments/%d/statuses", org, repo, deploymentID)
	_, _, err := client.do(ctx, http.MethodPost, path, map[string]any{
		"state":           input.State,
		"environment":     input.Environment,
		"environment_url": input.EnvironmentURL,
		"auto_inactive":   true,
	})
	return err
}
