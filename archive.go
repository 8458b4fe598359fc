// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math"
	"strings"
	"sync"
)

// Archive provides read access to parsed entries and their payload.
// Entries are immutable; payload reads from any number of EntryReaders are
// serialized on the shared data source.
type Archive struct {
	// src is the caller-owned data source shared by all entry readers.
	src io.ReadSeeker
	// logger receives debug events.
	logger *slog.Logger
	// entries stores parsed entries in on-disk index order.
	entries []Entry
	// mu guards the src cursor across seek+read pairs.
	mu sync.Mutex
}

// newArchive takes ownership of entries.
func newArchive(src io.ReadSeeker, entries []Entry, opts ReaderOptions) *Archive {
	return &Archive{
		src:     src,
		entries: entries,
		logger:  opts.Logger,
	}
}

// log returns the archive logger or a discarding one.
func (a *Archive) log() *slog.Logger {
	return discardLogger(a.logger)
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	if a == nil {
		return 0
	}

	return len(a.entries)
}

// IsEmpty reports whether the archive has no entries.
func (a *Archive) IsEmpty() bool {
	return a.Len() == 0
}

// Get returns the entry at index; ok is false when index is out of range.
func (a *Archive) Get(index int) (Entry, bool) {
	if a == nil || index < 0 || index >= len(a.entries) {
		return Entry{}, false
	}

	return a.entries[index], true
}

// Entries returns a copy of the entries in index order.
func (a *Archive) Entries() []Entry {
	if a == nil {
		return nil
	}

	entries := make([]Entry, len(a.entries))
	copy(entries, a.entries)
	return entries
}

// All returns a restartable sequence of index and entry pairs in index order.
func (a *Archive) All() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		if a == nil {
			return
		}

		for i, e := range a.entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// IndexOf returns the index of the first entry whose name matches case-insensitively.
func (a *Archive) IndexOf(name string) (int, bool) {
	if a == nil {
		return 0, false
	}

	for i := range a.entries {
		if strings.EqualFold(a.entries[i].Name, name) {
			return i, true
		}
	}

	return 0, false
}

// Open returns a reader over the payload of the entry at index.
// No I/O happens until the first Read.
func (a *Archive) Open(index int) (*EntryReader, bool) {
	entry, ok := a.Get(index)
	if !ok {
		return nil, false
	}

	return &EntryReader{
		archive: a,
		entry:   entry,
		base:    entry.ByteOffset(),
		size:    entry.ByteLength(),
	}, true
}

// OpenEntry opens the first entry whose name matches case-insensitively.
func (a *Archive) OpenEntry(name string) (*EntryReader, error) {
	index, ok := a.IndexOf(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	r, _ := a.Open(index)
	return r, nil
}

// ReadEntry reads the full payload of the entry at index, sector padding included.
func (a *Archive) ReadEntry(index int) ([]byte, error) {
	r, ok := a.Open(index)
	if !ok {
		return nil, fmt.Errorf("%w: index %d", ErrEntryNotFound, index)
	}

	return io.ReadAll(r)
}

// readAt seeks the shared source to off and performs one read under the source lock.
func (a *Archive) readAt(p []byte, off uint64) (int, error) {
	if off > math.MaxInt64 {
		return 0, fmt.Errorf("%w: offset %d", ErrSizeOverflow, off)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.src.Seek(int64(off), io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek to %d: %w", off, err)
	}

	return a.src.Read(p)
}
