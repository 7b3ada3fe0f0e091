// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// CreateTarball compresses the contents of sourceDir (not the
// directory itself) into a tar.gz file at destPath, creating parent
// directories as needed. Entry names are relative to sourceDir.
func CreateTarball(sourceDir, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating archive file: %w", err)
	}
	defer out.Close()

	gzipWriter := gzip.NewWriter(out)
	tarWriter := tar.NewWriter(gzipWriter)

	walkErr := filepath.WalkDir(sourceDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if relative == "." {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relative)
		if entry.IsDir() {
			header.Name += "/"
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tarWriter, file)
		return err
	})
	if walkErr != nil {
		return fmt.Errorf("archiving %s: %w", sourceDir, walkErr)
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("finalizing tar stream: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("finalizing gzip stream: %w", err)
	}
	return out.Close()
}

// ExtractTarball unpacks a tar.gz file into destDir, which must
// already exist. Entries that would escape destDir are rejected.
func ExtractTarball(archivePath, destDir string) error {
	in, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer in.Close()

	gzipReader, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("reading gzip stream from %s: %w", archivePath, err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar stream from %s: %w", archivePath, err)
		}

		target, err := securePath(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("extracting directory %s: %w", header.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("extracting %s: %w", header.Name, err)
			}
			file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fs.FileMode(header.Mode).Perm())
			if err != nil {
				return fmt.Errorf("extracting %s: %w", header.Name, err)
			}
			if _, err := io.Copy(file, tarReader); err != nil {
				file.Close()
				return fmt.Errorf("extracting %s: %w", header.Name, err)
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("extracting %s: %w", header.Name, err)
			}
		default:
			// Symlinks and specials never appear in static build
			// output; refuse rather than silently skip.
			return fmt.Errorf("unsupported tar entry type %d for %s", header.Typeflag, header.Name)
		}
	}
}

// securePath joins an archive entry name onto destDir, rejecting
// entries that would resolve outside it.
func securePath(destDir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("tar entry %q escapes extraction directory", name)
	}
	return filepath.Join(destDir, cleaned), nil
}
