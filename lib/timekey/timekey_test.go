// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package timekey

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestToSortKey_Epoch(t *testing.T) {
	t.Parallel()

	key, err := ToSortKey(time.UnixMilli(0))
	if err != nil {
		t.Fatalf("ToSortKey(epoch): %v", err)
	}
	if key != "8640000000000000" {
		t.Errorf("ToSortKey(epoch) = %q, want %q", key, "8640000000000000")
	}
}

func TestToSortKey_EndOfTime(t *testing.T) {
	t.Parallel()

	key, err := ToSortKey(time.UnixMilli(MaxSortable))
	if err != nil {
		t.Fatalf("ToSortKey(end of time): %v", err)
	}
	if key != strings.Repeat("0", SortKeyLength) {
		t.Errorf("ToSortKey(end of time) = %q, want all zeros", key)
	}
}

func TestToSortKey_OrderReverses(t *testing.T) {
	t.Parallel()

	// Increasing instants must produce strictly decreasing keys of
	// equal length so that lexicographic order is reverse-chronological.
	instants := []int64{0, 1, 123, 9876543, 1591323754842}
	previous := ""
	for i, millis := range instants {
		key, err := ToSortKey(time.UnixMilli(millis))
		if err != nil {
			t.Fatalf("ToSortKey(%d): %v", millis, err)
		}
		if len(key) != SortKeyLength {
			t.Errorf("len(ToSortKey(%d)) = %d, want %d", millis, len(key), SortKeyLength)
		}
		if i > 0 && key >= previous {
			t.Errorf("ToSortKey(%d) = %q, want lexicographically below %q", millis, key, previous)
		}
		previous = key
	}
}

func TestToSortKey_OutOfRange(t *testing.T) {
	t.Parallel()

	var rangeErr *ErrTimestampRange
	if _, err := ToSortKey(time.UnixMilli(-1)); !errors.As(err, &rangeErr) {
		t.Errorf("ToSortKey(-1ms) error = %v, want ErrTimestampRange", err)
	}
	if _, err := ToSortKey(time.UnixMilli(MaxSortable + 1)); !errors.As(err, &rangeErr) {
		t.Errorf("ToSortKey(max+1) error = %v, want ErrTimestampRange", err)
	}
}

func TestFromSortKey_RoundTrip(t *testing.T) {
	t.Parallel()

	instants := []int64{0, 1, 842, 1591323754842, MaxSortable}
	for _, millis := range instants {
		key, err := ToSortKey(time.UnixMilli(millis))
		if err != nil {
			t.Fatalf("ToSortKey(%d): %v", millis, err)
		}
		recovered, err := FromSortKey(key)
		if err != nil {
			t.Fatalf("FromSortKey(%q): %v", key, err)
		}
		if recovered.UnixMilli() != millis {
			t.Errorf("round trip %d -> %q -> %d", millis, key, recovered.UnixMilli())
		}
	}
}

func TestFromSortKey_Invalid(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"", "abc", "-1", "12345678901234567", "99999999999999999"} {
		if _, err := FromSortKey(key); err == nil {
			t.Errorf("FromSortKey(%q): want error", key)
		}
	}
}

func TestFromSortKey_RejectsSignedInput(t *testing.T) {
	t.Parallel()

	// A sign prefix parses as an integer but is outside the digit
	// grammar; a negative value would also sail past the MaxSortable
	// guard and decode to an instant beyond the encodable range.
	for _, key := range []string{"-1", "+1", "-0000000000000001", "+0000000000000001"} {
		if _, err := FromSortKey(key); err == nil {
			t.Errorf("FromSortKey(%q): want error", key)
		}
	}
}

func TestToPathFragment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		instant string
		want    string
	}{
		{"1970-01-01T00:00:00.000Z", "19700101-000000-000"},
		{"2011-10-05T14:48:00.000Z", "20111005-144800-000"},
		{"2016-10-19T23:08:04.000Z", "20161019-230804-000"},
		{"2016-10-20T00:00:00.120Z", "20161020-000000-120"},
	}
	for _, test := range tests {
		instant, err := time.Parse(time.RFC3339Nano, test.instant)
		if err != nil {
			t.Fatalf("parse %q: %v", test.instant, err)
		}
		if got := ToPathFragment(instant); got != test.want {
			t.Errorf("ToPathFragment(%s) = %q, want %q", test.instant, got, test.want)
		}
	}
}
