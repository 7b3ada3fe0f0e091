// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package archive

import (
	"sort"
	"strings"
)

// Empty is the sentinel stored for a semantically absent metadata
// value. The storage layer disallows empty metadata values, so absence
// is always serialized as this literal and never as an omitted key.
const Empty = "EMPTY"

// Wire keys for the typed metadata fields, in display order.
const (
	wireDeployDate    = "deploy-date"
	wireDeployType    = "deploy-type"
	wireBuildJobID    = "build-job-id"
	wireBuildJobURL   = "build-job-url"
	wireGitUserName   = "git-user-name"
	wireGitUserEmail  = "git-user-email"
	wireGitSHA        = "git-sha"
	wireGitSHAShort   = "git-sha-short"
	wireGitBranch     = "git-branch"
	wireGitCommitDate = "git-commit-date"
	wireGitState      = "git-state"
	wireOriginalName  = "original-name"

	// originalPrefix namespaces the referenced archive's metadata
	// inside a rollback record.
	originalPrefix = "original-"
)

// Metadata is the typed key-value metadata attached out-of-band to a
// stored archive. In memory field names are camel-cased; on the wire
// (object-store metadata headers) they are dash-cased. Unknown wire
// keys survive a round trip through Extra so that future fields pass
// through unrecognized but intact.
type Metadata struct {
	DeployDate    string // ISO-8601 deploy instant
	DeployType    string // "deploy" or "rollback"
	BuildJobID    string
	BuildJobURL   string
	GitUserName   string
	GitUserEmail  string
	GitSHA        string
	GitSHAShort   string
	GitBranch     string
	GitCommitDate string
	GitState      string // "clean" or "dirty"

	// Extra holds unrecognized fields under their camel-cased names.
	Extra map[string]string
}

// wireOrder is the canonical field ordering for normalized output and
// display.
var wireOrder = []string{
	wireDeployDate, wireDeployType, wireBuildJobID, wireBuildJobURL,
	wireGitUserName, wireGitUserEmail, wireGitSHA, wireGitSHAShort,
	wireGitBranch, wireGitCommitDate, wireGitState,
}

// fieldPointers maps each wire key to its struct field. The same
// table drives both normalization directions, which keeps the two a
// guaranteed inverse pair.
func (m *Metadata) fieldPointers() map[string]*string {
	return map[string]*string{
		wireDeployDate:    &m.DeployDate,
		wireDeployType:    &m.DeployType,
		wireBuildJobID:    &m.BuildJobID,
		wireBuildJobURL:   &m.BuildJobURL,
		wireGitUserName:   &m.GitUserName,
		wireGitUserEmail:  &m.GitUserEmail,
		wireGitSHA:        &m.GitSHA,
		wireGitSHAShort:   &m.GitSHAShort,
		wireGitBranch:     &m.GitBranch,
		wireGitCommitDate: &m.GitCommitDate,
		wireGitState:      &m.GitState,
	}
}

// Normalize converts the metadata to its wire form: dash-cased keys
// with the Empty sentinel substituted for absent values.
func (m Metadata) Normalize() map[string]string {
	wire := make(map[string]string, len(wireOrder)+len(m.Extra))
	pointers := m.fieldPointers()
	for _, key := range wireOrder {
		wire[key] = orEmpty(*pointers[key])
	}
	for key, value := range m.Extra {
		wire[ToDash(key)] = orEmpty(value)
	}
	return wire
}

// Denormalize converts a wire map back to typed metadata. Known keys
// populate their fields verbatim; unknown keys are preserved in Extra
// under their camel-cased names rather than dropped.
func Denormalize(wire map[string]string) Metadata {
	var m Metadata
	pointers := m.fieldPointers()
	for key, value := range wire {
		if pointer, known := pointers[key]; known {
			*pointer = value
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]string)
		}
		m.Extra[ToCamel(key)] = value
	}
	return m
}

// Fields returns the metadata as a camel-keyed map (typed fields plus
// Extra) without the Empty substitution. Used for the rollback pointer
// record body and for display.
func (m Metadata) Fields() map[string]string {
	fields := make(map[string]string, len(wireOrder)+len(m.Extra))
	pointers := m.fieldPointers()
	for _, key := range wireOrder {
		fields[ToCamel(key)] = *pointers[key]
	}
	for key, value := range m.Extra {
		fields[key] = value
	}
	return fields
}

// RollbackMetadata describes a rollback event: the fields of the new
// rollback deployment plus the referenced archive's full metadata,
// nested on the wire under the original- prefix.
type RollbackMetadata struct {
	DeployDate  string
	DeployType  string // always "rollback"
	BuildJobID  string
	BuildJobURL string

	// OriginalName is the referenced archive's full storage key.
	OriginalName string

	// Original is the referenced archive's complete metadata.
	Original Metadata
}

// Normalize converts the rollback metadata to its wire form: the
// rollback event's own fields dash-cased, plus an original- prefixed
// mirror of every field of the referenced archive.
func (m RollbackMetadata) Normalize() map[string]string {
	wire := map[string]string{
		wireDeployDate:   orEmpty(m.DeployDate),
		wireDeployType:   orEmpty(m.DeployType),
		wireBuildJobID:   orEmpty(m.BuildJobID),
		wireBuildJobURL:  orEmpty(m.BuildJobURL),
		wireOriginalName: orEmpty(m.OriginalName),
	}
	for key, value := range m.Original.Normalize() {
		wire[originalPrefix+key] = value
	}
	return wire
}

// Fields returns the rollback event's own fields as a camel-keyed map,
// without the nested original metadata. Used for the rollback pointer
// record body.
func (m RollbackMetadata) Fields() map[string]string {
	return map[string]string{
		ToCamel(wireDeployDate):   m.DeployDate,
		ToCamel(wireDeployType):   m.DeployType,
		ToCamel(wireBuildJobID):   m.BuildJobID,
		ToCamel(wireBuildJobURL):  m.BuildJobURL,
		ToCamel(wireOriginalName): m.OriginalName,
	}
}

// SortedKeys returns the keys of a wire map in sorted order. Listing
// metadata deterministically matters for logs and tests.
func SortedKeys(wire map[string]string) []string {
	keys := make([]string, 0, len(wire))
	for key := range wire {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func orEmpty(value string) string {
	if value == "" {
		return Empty
	}
	return value
}

// ToDash converts a camel-cased field name to its dash-cased wire
// form: each uppercase letter becomes a dash plus its lowercase form.
// Together with ToCamel this is a bijection over names made of letters
// and digits.
func ToDash(name string) string {
	var builder strings.Builder
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			builder.WriteByte('-')
			builder.WriteRune(r - 'A' + 'a')
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// ToCamel converts a dash-cased wire name back to camel case: each
// dash is dropped and the following letter uppercased.
func ToCamel(name string) string {
	var builder strings.Builder
	upperNext := false
	for _, r := range name {
		if r == '-' {
			upperNext = true
			continue
		}
		if upperNext && r >= 'a' && r <= 'z' {
			builder.WriteRune(r - 'a' + 'A')
			upperNext = false
			continue
		}
		upperNext = false
		builder.WriteRune(r)
	}
	return builder.String()
}
