// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

// Package timekey converts timestamps into the two string forms used
// in archive object keys: a fixed-width reverse-chronological sort key
// and a human-readable path fragment.
//
// The sort key is the distance from the maximum representable instant,
// zero-padded to 16 digits. Later deploys therefore produce smaller
// numbers, so an ascending key listing from the object store returns
// the most recent archive first. Taking the first result in a bucket
// is cheap, taking the last is not.
package timekey

import (
	"fmt"
	"strconv"
	"time"
)

// MaxSortable is the maximum representable instant in epoch
// milliseconds. Sort keys are computed as MaxSortable minus the
// instant, so any timestamp past this point cannot be encoded.
const MaxSortable = 8_640_000_000_000_000

// SortKeyLength is the fixed digit width of every sort key: the number
// of digits in MaxSortable.
const SortKeyLength = 16

// ErrTimestampRange reports a timestamp outside the encodable range
// (before the Unix epoch or after MaxSortable milliseconds).
type ErrTimestampRange struct {
	Millis int64
}

func (e *ErrTimestampRange) Error() string {
	return fmt.Sprintf("timestamp out of sortable range: %d epoch milliseconds", e.Millis)
}

// ToSortKey returns the 16-digit reverse-chronological sort key for t.
// For any t1 before t2, ToSortKey(t1) is lexicographically greater
// than ToSortKey(t2).
func ToSortKey(t time.Time) (string, error) {
	millis := t.UnixMilli()
	if millis < 0 || millis > MaxSortable {
		return "", &ErrTimestampRange{Millis: millis}
	}
	return fmt.Sprintf("%0*d", SortKeyLength, MaxSortable-millis), nil
}

// FromSortKey recovers the exact instant encoded by a sort key. The
// input must be all decimal digits with a value no greater than
// MaxSortable; shorter inputs are accepted (leading zeros are not
// significant), anything else is rejected.
func FromSortKey(key string) (time.Time, error) {
	if key == "" || len(key) > SortKeyLength {
		return time.Time{}, fmt.Errorf("sort key %q: want 1..%d decimal digits", key, SortKeyLength)
	}
	// ParseInt accepts a leading sign, which the grammar does not.
	for _, r := range key {
		if r < '0' || r > '9' {
			return time.Time{}, fmt.Errorf("sort key %q: want 1..%d decimal digits", key, SortKeyLength)
		}
	}
	value, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("sort key %q: %w", key, err)
	}
	if value > MaxSortable {
		return time.Time{}, &ErrTimestampRange{Millis: MaxSortable - value}
	}
	return time.UnixMilli(MaxSortable - value).UTC(), nil
}

// ToPathFragment returns the human-readable UTC form of t used in
// archive names: YYYYMMDD-HHMMSS-mmm.
//
//	2016-10-19T23:08:04.000Z -> 20161019-230804-000
func ToPathFragment(t time.Time) string {
	utc := t.UTC()
	return utc.Format("20060102-150405") + fmt.Sprintf("-%03d", utc.Nanosecond()/int(time.Millisecond))
}
