// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package archive

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTarballRoundTrip(t *testing.T) {
	t.Parallel()

	sourceDir := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "index.html"), "<html>home</html>")
	writeFile(t, filepath.Join(sourceDir, "static", "app.3a9319f0.js"), "console.log(1)")
	writeFile(t, filepath.Join(sourceDir, "static", "logo.png"), "not-really-a-png")

	archivePath := filepath.Join(t.TempDir(), "nested", "site.tar.gz")
	if err := CreateTarball(sourceDir, archivePath); err != nil {
		t.Fatalf("CreateTarball: %v", err)
	}

	destDir := t.TempDir()
	if err := ExtractTarball(archivePath, destDir); err != nil {
		t.Fatalf("ExtractTarball: %v", err)
	}

	for _, relative := range []string{
		"index.html",
		filepath.Join("static", "app.3a9319f0.js"),
		filepath.Join("static", "logo.png"),
	} {
		original, err := os.ReadFile(filepath.Join(sourceDir, relative))
		if err != nil {
			t.Fatalf("reading source %s: %v", relative, err)
		}
		extracted, err := os.ReadFile(filepath.Join(destDir, relative))
		if err != nil {
			t.Fatalf("reading extracted %s: %v", relative, err)
		}
		if string(original) != string(extracted) {
			t.Errorf("%s: extracted %q, want %q", relative, extracted, original)
		}
	}
}

func TestExtractTarball_RejectsEscape(t *testing.T) {
	t.Parallel()

	if _, err := securePath(t.TempDir(), "../outside.html"); err == nil {
		t.Error("securePath(../outside.html): want error")
	}
	if _, err := securePath(t.TempDir(), "/etc/passwd"); err == nil {
		t.Error("securePath(/etc/passwd): want error")
	}
	if _, err := securePath(t.TempDir(), "nested/ok.html"); err != nil {
		t.Errorf("securePath(nested/ok.html): %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
