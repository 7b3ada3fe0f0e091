// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package archive

import (
	"errors"
	"testing"
	"time"
)

func TestNameFormat(t *testing.T) {
	t.Parallel()

	name := Name{
		Time:          time.UnixMilli(1591323754842).UTC(),
		RevisionShort: "3a9319f",
		Dirty:         false,
		Kind:          KindArchive,
	}
	formatted, err := name.Format()
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := "archive-8638408676245158-20200605-022234-842-3a9319f-clean.tar.gz"
	if formatted != want {
		t.Errorf("Format = %q, want %q", formatted, want)
	}
}

func TestNameFormat_RollbackExtension(t *testing.T) {
	t.Parallel()

	name := Name{
		Time:          time.UnixMilli(1591303664409).UTC(),
		RevisionShort: "bf41536",
		Dirty:         true,
		Kind:          KindRollback,
	}
	formatted, err := name.Format()
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if got, want := formatted[len(formatted)-5:], ".json"; got != want {
		t.Errorf("rollback extension = %q, want %q", got, want)
	}
	if got := name.State(); got != StateDirty {
		t.Errorf("State = %q, want %q", got, StateDirty)
	}
}

func TestNameFormat_InvalidRevision(t *testing.T) {
	t.Parallel()

	for _, revision := range []string{"", "3a9319", "3a9319f0", "3A9319F", "zzzzzzz"} {
		name := Name{Time: time.UnixMilli(0), RevisionShort: revision}
		var invalid *InvalidRevisionError
		if _, err := name.Format(); !errors.As(err, &invalid) {
			t.Errorf("Format with revision %q: error = %v, want InvalidRevisionError", revision, err)
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	names := []Name{
		{Time: time.UnixMilli(1591323754842).UTC(), RevisionShort: "3a9319f", Dirty: false, Kind: KindArchive},
		{Time: time.UnixMilli(1591303664409).UTC(), RevisionShort: "bf41536", Dirty: true, Kind: KindRollback},
		{Time: time.UnixMilli(0).UTC(), RevisionShort: "0000000", Dirty: false, Kind: KindArchive},
	}
	for _, name := range names {
		formatted, err := name.Format()
		if err != nil {
			t.Fatalf("Format(%+v): %v", name, err)
		}
		parsed, err := Parse(formatted)
		if err != nil {
			t.Fatalf("Parse(%q): %v", formatted, err)
		}
		if parsed != name {
			t.Errorf("Parse(Format(x)) = %+v, want %+v", parsed, name)
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	malformed := []string{
		"archive-123-bad-name.tar.gz",
		"archive-8638408676245158-20200605-022234-842-3a9319f-clean.zip",
		"archive-8638408676245158-20200605-022234-842-3a9319-clean.tar.gz",
		"archive-8638408676245158-20200605-022234-842-3a9319f-messy.tar.gz",
		"archive-863840867624515-20200605-022234-842-3a9319f-clean.tar.gz",
		"archive-8638408676245158-20200605-022234-3a9319f-clean.tar.gz",
		"backup-8638408676245158-20200605-022234-842-3a9319f-clean.tar.gz",
		"archive-8638408676245158-20200605-022234-842-3a9319f-clean.tar.gz.bak",
		"",
	}
	for _, raw := range malformed {
		var parseError *ParseError
		if _, err := Parse(raw); !errors.As(err, &parseError) {
			t.Errorf("Parse(%q): error = %v, want ParseError", raw, err)
		}
	}
}

func TestParse_DatePathMustAgreeWithSortKey(t *testing.T) {
	t.Parallel()

	// Sort key decodes to 2020-06-05T02:22:34.842Z, but the embedded
	// date path claims a different instant.
	raw := "archive-8638408676245158-20200605-022234-843-3a9319f-clean.tar.gz"
	var parseError *ParseError
	if _, err := Parse(raw); !errors.As(err, &parseError) {
		t.Fatalf("Parse(%q): error = %v, want ParseError", raw, err)
	}
	if parseError.Raw != raw {
		t.Errorf("ParseError.Raw = %q, want %q", parseError.Raw, raw)
	}
}
