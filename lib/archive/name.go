// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

// Package archive implements the archive-addressing core: structured
// naming of deployment artifacts, typed object metadata with its wire
// normalization, and the remote catalog used for listing, rollback
// resolution, and payload download.
//
// An archive object key embeds a reverse-chronological sort key (see
// lib/timekey) so that the object store's native ascending key order
// lists the most recent deployment first. The full canonical name
// grammar is:
//
//	archive-{sortKey:16}-{YYYYMMDD-HHMMSS-mmm}-{sha:7}-{clean|dirty}.{tar.gz|json}
//
// The .tar.gz extension marks a full archive payload; .json marks a
// rollback pointer referencing a prior archive.
package archive

import (
	"fmt"
	"regexp"
	"time"

	"github.com/FormidableLabs/formideploy/lib/timekey"
)

// Kind distinguishes the two artifact types stored in the archive
// bucket.
type Kind int

const (
	// KindArchive is a full tar.gz snapshot of a deployed build.
	KindArchive Kind = iota

	// KindRollback is a small JSON pointer record referencing a prior
	// full archive.
	KindRollback
)

// Extension returns the file extension for this kind.
func (k Kind) Extension() string {
	if k == KindRollback {
		return "json"
	}
	return "tar.gz"
}

// DeployType returns the metadata deploy-type value for this kind.
func (k Kind) DeployType() string {
	if k == KindRollback {
		return "rollback"
	}
	return "deploy"
}

func (k Kind) String() string { return k.DeployType() }

// State values for the working-tree dirty flag, as they appear in
// names and metadata.
const (
	StateClean = "clean"
	StateDirty = "dirty"
)

// Name identifies one stored deployment artifact. Immutable once
// built: constructed fresh at publish time or parsed back from a
// stored key, never mutated.
type Name struct {
	// Time is the deployment instant, millisecond precision, UTC.
	Time time.Time

	// RevisionShort is the 7-character lowercase hex short revision id.
	RevisionShort string

	// Dirty records whether the working tree had uncommitted changes
	// when the archive was created.
	Dirty bool

	// Kind is the artifact type (full archive or rollback pointer).
	Kind Kind
}

var revisionShortRE = regexp.MustCompile(`^[a-f0-9]{7}$`)

// nameRE matches the canonical grammar exactly. Digit counts are
// fixed; the dirty-state and extension tokens are enumerated. Nothing
// else parses.
var nameRE = regexp.MustCompile(
	`^archive-([0-9]{16})-([0-9]{8}-[0-9]{6}-[0-9]{3})-([a-f0-9]{7})-(clean|dirty)\.(tar\.gz|json)$`)

// State returns "clean" or "dirty".
func (n Name) State() string {
	if n.Dirty {
		return StateDirty
	}
	return StateClean
}

// Format builds the canonical name string. Fails with
// *InvalidRevisionError if the short revision is malformed and with a
// timekey range error if the instant is not sortable.
func (n Name) Format() (string, error) {
	if !revisionShortRE.MatchString(n.RevisionShort) {
		return "", &InvalidRevisionError{Revision: n.RevisionShort}
	}
	sortKey, err := timekey.ToSortKey(n.Time)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("archive-%s-%s-%s-%s.%s",
		sortKey, timekey.ToPathFragment(n.Time), n.RevisionShort, n.State(), n.Kind.Extension()), nil
}

// Parse matches raw against the canonical grammar and recovers every
// attribute exactly. Any deviation (wrong digit count, unexpected
// character, unknown extension, a date path that disagrees with the
// sort key) is a *ParseError. Partial matches are never accepted.
func Parse(raw string) (Name, error) {
	match := nameRE.FindStringSubmatch(raw)
	if match == nil {
		return Name{}, &ParseError{Raw: raw, Reason: "does not match archive-{sortKey}-{date}-{sha}-{state}.{ext}"}
	}

	sortKey, datePath, revision, state, extension := match[1], match[2], match[3], match[4], match[5]

	instant, err := timekey.FromSortKey(sortKey)
	if err != nil {
		return Name{}, &ParseError{Raw: raw, Reason: err.Error()}
	}
	if got := timekey.ToPathFragment(instant); got != datePath {
		return Name{}, &ParseError{
			Raw:    raw,
			Reason: fmt.Sprintf("date path %s does not match sort key instant %s", datePath, got),
		}
	}

	kind := KindArchive
	if extension == "json" {
		kind = KindRollback
	}

	return Name{
		Time:          instant,
		RevisionShort: revision,
		Dirty:         state == StateDirty,
		Kind:          kind,
	}, nil
}
