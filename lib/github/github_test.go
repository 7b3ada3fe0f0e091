// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL: server.URL,
		Token:   "test-token",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestGetPullRequestHead(t *testing.T) {
	var receivedAuth string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/repos/FormidableLabs/spectacle/pulls/1234" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		receivedAuth = request.Header.Get("Authorization")
		json.NewEncoder(writer).Encode(map[string]any{
			"head": map[string]string{"ref": "feature-branch", "sha": "abc123"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	head, err := client.GetPullRequestHead(context.Background(), "FormidableLabs", "spectacle", "1234")
	if err != nil {
		t.Fatalf("GetPullRequestHead: %v", err)
	}
	if head.Branch != "feature-branch" || head.SHA != "abc123" {
		t.Errorf("head = %+v", head)
	}
	if receivedAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", receivedAuth)
	}
}

func TestCreateDeployment(t *testing.T) {
	var receivedBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/repos/FormidableLabs/spectacle/deployments" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		json.NewDecoder(request.Body).Decode(&receivedBody)
		writer.WriteHeader(http.StatusCreated)
		json.NewEncoder(writer).Encode(map[string]any{"id": 99})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	id, err := client.CreateDeployment(context.Background(), "FormidableLabs", "spectacle", DeploymentInput{
		Ref:         "abc123",
		Environment: "staging",
		Description: "Starting staging deployment",
	})
	if err != nil {
		t.Fatalf("CreateDeployment: %v", err)
	}
	if id != 99 {
		t.Errorf("id = %d, want 99", id)
	}

	if receivedBody["ref"] != "abc123" || receivedBody["environment"] != "staging" {
		t.Errorf("body = %v", receivedBody)
	}
	contexts, ok := receivedBody["required_contexts"].([]any)
	if !ok || len(contexts) != 0 {
		t.Errorf("required_contexts = %v, want empty list", receivedBody["required_contexts"])
	}
}

func TestCreateDeploymentRejectsNon201(t *testing.T) {
	// 202 means GitHub merged instead of deploying; no deployment
	// record exists.
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusAccepted)
		json.NewEncoder(writer).Encode(map[string]any{"message": "auto-merged"})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.CreateDeployment(context.Background(), "org", "repo", DeploymentInput{Ref: "abc123"})
	if err == nil {
		t.Fatal("CreateDeployment should reject a 202 response")
	}
}

func TestCreateDeploymentStatus(t *testing.T) {
	var receivedBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/repos/FormidableLabs/spectacle/deployments/99/statuses" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		json.NewDecoder(request.Body).Decode(&receivedBody)
		writer.WriteHeader(http.StatusCreated)
		json.NewEncoder(writer).Encode(map[string]any{"id": 1})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	err := client.CreateDeploymentStatus(context.Background(), "FormidableLabs", "spectacle", 99, DeploymentStatusInput{
		State:          "success",
		Environment:    "staging",
		EnvironmentURL: "https://formidable-com-spectacle-staging-1234.surge.sh",
	})
	if err != nil {
		t.Fatalf("CreateDeploymentStatus: %v", err)
	}

	if receivedBody["state"] != "success" {
		t.Errorf("state = %v", receivedBody["state"])
	}
	if receivedBody["auto_inactive"] != true {
		t.Errorf("auto_inactive = %v, want true", receivedBody["auto_inactive"])
	}
}

func TestAPIErrorParsing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
		json.NewEncoder(writer).Encode(map[string]any{
			"message":           "Not Found",
			"documentation_url": "https://docs.github.com/rest",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.GetPullRequestHead(context.Background(), "org", "repo", "1")
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want IsNotFound", err)
	}
}

func TestNotifierLifecycle(t *testing.T) {
	var statusBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/repos/FormidableLabs/spectacle/pulls/1234":
			json.NewEncoder(writer).Encode(map[string]any{
				"head": map[string]string{"ref": "feature", "sha": "abc123"},
			})
		case "/repos/FormidableLabs/spectacle/deployments":
			writer.WriteHeader(http.StatusCreated)
			json.NewEncoder(writer).Encode(map[string]any{"id": 7})
		case "/repos/FormidableLabs/spectacle/deployments/7/statuses":
			json.NewDecoder(request.Body).Decode(&statusBody)
			writer.WriteHeader(http.StatusCreated)
			json.NewEncoder(writer).Encode(map[string]any{"id": 1})
		default:
			t.Errorf("unexpected path: %s", request.URL.Path)
			writer.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	notifier := NewNotifier(NotifierConfig{
		Client:        newTestClient(t, server),
		Org:           "FormidableLabs",
		Repo:          "spectacle",
		Environment:   "production",
		URL:           "https://formidable.com/open-source/spectacle",
		BuildID:       "1234",
		IsPullRequest: true,
	})

	if !notifier.Enabled() {
		t.Fatal("notifier should be enabled")
	}
	if err := notifier.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := notifier.Finish(context.Background(), "success"); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if statusBody["state"] != "success" || statusBody["environment"] != "production" {
		t.Errorf("status body = %v", statusBody)
	}
}

func TestNotifierDisabledReasons(t *testing.T) {
	cases := []struct {
		name   string
		config NotifierConfig
	}{
		{"dryrun", NotifierConfig{DryRun: true, BuildID: "1", IsPullRequest: true}},
		{"no token", NotifierConfig{BuildID: "1", IsPullRequest: true}},
		{"not a pull request", NotifierConfig{Client: &Client{}, BuildID: "1"}},
		{"no build id", NotifierConfig{Client: &Client{}, IsPullRequest: true}},
	}
	for _, test := range cases {
		test := test
		t.Run(test.name, func(t *testing.T) {
			notifier := NewNotifier(test.config)
			if notifier.Enabled() {
				t.Fatal("notifier should be disabled")
			}
			// Disabled notifiers never touch the network.
			if err := notifier.Start(context.Background()); err != nil {
				t.Errorf("Start: %v", err)
			}
			if err := notifier.Finish(context.Background(), "failure"); err != nil {
				t.Errorf("Finish: %v", err)
			}
		})
	}
}
