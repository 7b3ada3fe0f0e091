// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package archive

import (
	"errors"
	"fmt"
)

// ParseError reports an archive name that does not match the canonical
// grammar. A name that fails to parse indicates external corruption or
// a programming defect, never something to guess around, so parse
// failures are fatal and carry the offending raw name.
type ParseError struct {
	// Raw is the name as received.
	Raw string

	// Reason describes which part of the grammar was violated.
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse archive name %q: %s", e.Raw, e.Reason)
}

// InvalidRevisionError reports a revision identifier that is not
// exactly seven lowercase hex characters.
type InvalidRevisionError struct {
	Revision string
}

func (e *InvalidRevisionError) Error() string {
	return fmt.Sprintf("invalid short revision %q: want exactly 7 lowercase hex characters", e.Revision)
}

// CorruptEntryError reports an unparseable key encountered during a
// catalog listing. One corrupt key fails the whole listing; a
// partial catalog is worse than a failed call.
type CorruptEntryError struct {
	Key string
	Err error
}

func (e *CorruptEntryError) Error() string {
	return fmt.Sprintf("corrupt catalog entry %q: %v", e.Key, e.Err)
}

func (e *CorruptEntryError) Unwrap() error { return e.Err }

// NotFoundError reports a direct lookup of a key that does not exist
// in the archive bucket.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("archive not found: %s", e.Key)
}

// ChainedRollbackError reports an attempt to roll back to a rollback
// pointer whose target is itself a rollback. Only one level of
// indirection is supported; a chain is rejected explicitly rather
// than followed.
type ChainedRollbackError struct {
	// Reference is the rollback name the caller asked for.
	Reference string

	// Original is the non-archive name the pointer resolved to.
	Original string
}

func (e *ChainedRollbackError) Error() string {
	return fmt.Sprintf("rollback %q points at %q, which is not a full archive: chained rollbacks are not supported", e.Reference, e.Original)
}

// IsNotFound reports whether err is a missing-archive lookup failure.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsParseError reports whether err is (or wraps) an archive name parse
// failure.
func IsParseError(err error) bool {
	var parseError *ParseError
	return errors.As(err, &parseError)
}
