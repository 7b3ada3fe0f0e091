// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package gitinfo

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeGit replays canned outputs keyed by the joined argument string.
// Missing entries fail, like git outside a repository.
type fakeGit struct {
	outputs map[string]string
	calls   []string
}

func (g *fakeGit) Run(_ context.Context, args []string) (string, error) {
	key := strings.Join(args, " ")
	g.calls = append(g.calls, key)
	output, ok := g.outputs[key]
	if !ok {
		return "", errors.New("git " + key + ": exit status 128")
	}
	return output, nil
}

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func cleanCheckout() map[string]string {
	return map[string]string{
		"config --get user.name":  "Jane Doe",
		"config --get user.email": "jane@example.com",
		"show -s --pretty=%d HEAD": "(HEAD -> main, origin/main)",
		"show --no-patch --no-notes --pretty=%cd --date=iso-strict HEAD": "2020-06-05T10:22:34+08:00",
		"rev-parse HEAD":           "3a9319fdd1b2896f4ad137676e47e0dcd2fe8ab2",
		"diff --no-ext-diff --quiet": "",
	}
}

func TestInfoFromGit(t *testing.T) {
	t.Parallel()

	git := &fakeGit{outputs: cleanCheckout()}
	provider := New(Config{Getenv: envMap(nil), Runner: git})

	info, err := provider.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}

	want := Info{
		UserName:   "Jane Doe",
		UserEmail:  "jane@example.com",
		Branch:     "main",
		CommitDate: "2020-06-05T02:22:34.000Z",
		SHA:        "3a9319fdd1b2896f4ad137676e47e0dcd2fe8ab2",
		SHAShort:   "3a9319f",
		Dirty:      false,
	}
	if info != want {
		t.Errorf("Info = %+v\nwant   %+v", info, want)
	}
	if info.State() != "clean" {
		t.Errorf("State = %q, want clean", info.State())
	}
}

func TestInfoMapsFailuresToEmpty(t *testing.T) {
	t.Parallel()

	// Only revision resolution works; everything else fails or is
	// unavailable (detached HEAD, no user config).
	git := &fakeGit{outputs: map[string]string{
		"rev-parse HEAD":           "3a9319fdd1b2896f4ad137676e47e0dcd2fe8ab2",
		"show -s --pretty=%d HEAD": "(HEAD, origin/main)",
	}}
	provider := New(Config{Getenv: envMap(nil), Runner: git})

	info, err := provider.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.UserName != Empty || info.UserEmail != Empty || info.Branch != Empty || info.CommitDate != Empty {
		t.Errorf("Info = %+v, want EMPTY placeholders", info)
	}
	if !info.Dirty {
		t.Error("diff failure should report dirty")
	}
}

func TestInfoMemoized(t *testing.T) {
	t.Parallel()

	git := &fakeGit{outputs: cleanCheckout()}
	provider := New(Config{Getenv: envMap(nil), Runner: git})

	first, err := provider.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	callCount := len(git.calls)

	second, err := provider.Info(context.Background())
	if err != nil {
		t.Fatalf("Info (second): %v", err)
	}
	if first != second {
		t.Errorf("memoized Info differs: %+v vs %+v", first, second)
	}
	if len(git.calls) != callCount {
		t.Errorf("second Info ran %d more git commands", len(git.calls)-callCount)
	}
}

func TestInfoRevisionFailureIsFatal(t *testing.T) {
	t.Parallel()

	git := &fakeGit{outputs: map[string]string{}}
	provider := New(Config{Getenv: envMap(nil), Runner: git})

	if _, err := provider.Info(context.Background()); err == nil {
		t.Fatal("Info should fail when no revision can be resolved")
	}
}

func TestEnvironmentPrecedence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		env        map[string]string
		wantBranch string
		wantSHA    string
	}{
		{
			name:       "manual overrides beat everything",
			env:        map[string]string{
				"FORMIDEPLOY_GIT_BRANCH":     "override-branch",
				"FORMIDEPLOY_GIT_SHA":        "aaaaaaabbbbbbbcccccccdddddddeeeeeeefffff",
				"GITHUB_HEAD_REF":            "pr-branch",
				"TRAVIS_BRANCH":              "travis-branch",
				"TRAVIS_COMMIT":              "1111111222222233333334444444555555566666",
			},
			wantBranch: "override-branch",
			wantSHA:    "aaaaaaa",
		},
		{
			name:       "pull request head ref wins over travis",
			env:        map[string]string{
				"GITHUB_HEAD_REF":            "pr-branch",
				"TRAVIS_PULL_REQUEST_BRANCH": "travis-pr-branch",
				"TRAVIS_PULL_REQUEST_SHA":    "1111111222222233333334444444555555566666",
			},
			wantBranch: "pr-branch",
			wantSHA:    "3a9319f", // falls back to git
		},
		{
			name:       "travis pull request variables",
			env:        map[string]string{
				"TRAVIS_PULL_REQUEST_BRANCH": "travis-pr-branch",
				"TRAVIS_PULL_REQUEST_SHA":    "1111111222222233333334444444555555566666",
				"TRAVIS_BRANCH":              "travis-branch",
				"TRAVIS_COMMIT":              "9999999888888877777776666666555555544444",
			},
			wantBranch: "travis-pr-branch",
			wantSHA:    "1111111",
		},
		{
			name:       "travis push variables",
			env:        map[string]string{
				"TRAVIS_BRANCH": "travis-branch",
				"TRAVIS_COMMIT": "9999999888888877777776666666555555544444",
			},
			wantBranch: "travis-branch",
			wantSHA:    "9999999",
		},
		{
			name:       "circle variables",
			env:        map[string]string{
				"CIRCLE_BRANCH": "circle-branch",
				"CIRCLE_SHA1":   "5555555444444433333332222222111111100000",
			},
			wantBranch: "circle-branch",
			wantSHA:    "5555555",
		},
	}

	for _, test := range cases {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			git := &fakeGit{outputs: cleanCheckout()}
			provider := New(Config{Getenv: envMap(test.env), Runner: git})

			info, err := provider.Info(context.Background())
			if err != nil {
				t.Fatalf("Info: %v", err)
			}
			if info.Branch != test.wantBranch {
				t.Errorf("Branch = %q, want %q", info.Branch, test.wantBranch)
			}
			if info.SHAShort != test.wantSHA {
				t.Errorf("SHAShort = %q, want %q", info.SHAShort, test.wantSHA)
			}
		})
	}
}

func TestGitHubActorOverridesUserName(t *testing.T) {
	t.Parallel()

	git := &fakeGit{outputs: cleanCheckout()}
	provider := New(Config{
		Getenv: envMap(map[string]string{"GITHUB_ACTOR": "octocat"}),
		Runner: git,
	})

	info, err := provider.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.UserName != "octocat" {
		t.Errorf("UserName = %q, want octocat", info.UserName)
	}
}
