// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

import "errors"

// Sentinel errors for IMG operations. Use errors.Is in callers.
var (
	// ErrInvalidHeader means the V2 archive does not start with the VER2 magic.
	ErrInvalidHeader = errors.New("invalid IMG archive: missing or bad VER2 header")
	// ErrTruncatedDirectory means a V1 directory stream ended in the middle of a record.
	ErrTruncatedDirectory = errors.New("directory ends mid-record")
	// ErrTruncatedEntry means the data source ended before the declared end of an entry.
	ErrTruncatedEntry = errors.New("entry data truncated")
	// ErrInsufficientCapacity means the V2 header has no free slot for another entry.
	ErrInsufficientCapacity = errors.New("insufficient header capacity for entry")
	// ErrInvalidNameLength means the entry name does not fit the 23-byte name field.
	ErrInvalidNameLength = errors.New("entry name exceeds 23 bytes")
	// ErrInvalidName means the entry name contains characters outside Latin-1.
	ErrInvalidName = errors.New("entry name contains characters outside Latin-1")
	// ErrEntryTooLarge means the entry length in sectors does not fit the 16-bit V2 field.
	ErrEntryTooLarge = errors.New("entry exceeds 65535 sectors")
	// ErrSizeOverflow means an offset, length, or count does not fit its uint32 field.
	ErrSizeOverflow = errors.New("size exceeds uint32 field")
	// ErrPartialRecord means a directory stream accepted part of a record and cannot be appended to.
	ErrPartialRecord = errors.New("directory stream holds a partial record")
	// ErrEntryNotFound means the entry is not found.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrDuplicateEntryName means an added entry collides with an existing name (case-insensitive).
	ErrDuplicateEntryName = errors.New("duplicate entry name")
	// ErrEmptyInputs means no inputs provided for pack.
	ErrEmptyInputs = errors.New("no inputs provided for pack")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrUnknownVersion means the archive version is neither V1 nor V2.
	ErrUnknownVersion = errors.New("unknown archive version")
	// ErrInvalidRules means one or more selection rules are invalid.
	ErrInvalidRules = errors.New("invalid selection rules")
	// ErrInvalidExtractPath means entry name is invalid for extraction destination.
	ErrInvalidExtractPath = errors.New("invalid extract path")
)
