// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

import (
	"fmt"
	"io"
	"math"
)

// EntryReader is a bounded stream over one entry payload.
// Every Read seeks the shared source first, so readers opened from the same
// archive may be consumed in any interleaving.
type EntryReader struct {
	archive *Archive
	entry   Entry
	// base is the absolute payload offset in bytes.
	base uint64
	// size is the payload extent in bytes.
	size uint64
	// pos is the read cursor relative to base.
	pos uint64
}

// Read reads up to len(p) bytes of the entry payload.
// It returns io.EOF once the declared entry length is consumed, on every call.
// A source that ends before that point yields ErrTruncatedEntry.
func (r *EntryReader) Read(p []byte) (int, error) {
	if r.pos >= r.size {
		return 0, io.EOF
	}

	if len(p) == 0 {
		return 0, nil
	}

	n := min(r.size-r.pos, uint64(len(p)))
	got, err := r.archive.readAt(p[:n], r.base+r.pos)
	r.pos += uint64(got) //nolint:gosec // read count is never negative

	switch {
	case err == nil:
		return got, nil
	case err == io.EOF && got > 0:
		return got, nil
	case err == io.EOF:
		return 0, fmt.Errorf("%w: %s at byte %d of %d: %w", ErrTruncatedEntry, r.entry.Name, r.pos, r.size, io.ErrUnexpectedEOF)
	default:
		return got, fmt.Errorf("read entry %s: %w", r.entry.Name, err)
	}
}

// Entry returns the entry metadata.
func (r *EntryReader) Entry() Entry {
	return r.entry
}

// Size returns the payload extent in bytes.
func (r *EntryReader) Size() int64 {
	return clampInt64(r.size)
}

// Remaining returns the number of bytes left before end of entry.
func (r *EntryReader) Remaining() int64 {
	if r.pos >= r.size {
		return 0
	}

	return clampInt64(r.size - r.pos)
}

// clampInt64 converts v to int64, saturating at math.MaxInt64.
func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(v)
}
