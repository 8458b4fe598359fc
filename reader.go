// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

import (
	"fmt"
	"io"
	"log/slog"
)

// OpenV1 parses a V1 directory stream and returns an archive reading payload from img.
func OpenV1(dir io.Reader, img io.ReadSeeker) (*Archive, error) {
	return OpenV1WithOptions(dir, img, ReaderOptions{})
}

// OpenV1WithOptions parses a V1 directory stream using explicit reader options.
// The directory is read to its end; img is not touched until an entry is read.
func OpenV1WithOptions(dir io.Reader, img io.ReadSeeker, opts ReaderOptions) (*Archive, error) {
	if img == nil {
		return nil, ErrNilReader
	}

	entries, err := ReadDirectory(dir)
	if err != nil {
		return nil, fmt.Errorf("parse directory: %w", err)
	}

	a := newArchive(img, entries, opts)
	a.log().Debug("parsed directory", slog.String("version", VersionV1.String()), slog.Int("entries", len(entries)))

	return a, nil
}

// OpenV2 parses the header of a combined V2 archive.
func OpenV2(img io.ReadSeeker) (*Archive, error) {
	return OpenV2WithOptions(img, ReaderOptions{})
}

// OpenV2WithOptions parses the header of a combined V2 archive using explicit reader options.
// Parsing always starts at the beginning of img.
func OpenV2WithOptions(img io.ReadSeeker, opts ReaderOptions) (*Archive, error) {
	if img == nil {
		return nil, ErrNilReader
	}

	if _, err := img.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek header: %w", err)
	}

	entries, err := ReadHeader(img)
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	a := newArchive(img, entries, opts)
	a.log().Debug("parsed header", slog.String("version", VersionV2.String()), slog.Int("entries", len(entries)))

	return a, nil
}

// Open parses an archive of the given version. dir is required for VersionV1
// and ignored for VersionV2.
func Open(version Version, img io.ReadSeeker, dir io.Reader, opts ReaderOptions) (*Archive, error) {
	switch version {
	case VersionV1:
		return OpenV1WithOptions(dir, img, opts)
	case VersionV2:
		return OpenV2WithOptions(img, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}
}

// NewArchive wraps an already known entry list and its data source.
// Entries are copied.
func NewArchive(img io.ReadSeeker, entries []Entry, opts ReaderOptions) (*Archive, error) {
	if img == nil {
		return nil, ErrNilReader
	}

	owned := make([]Entry, len(entries))
	copy(owned, entries)

	return newArchive(img, owned, opts), nil
}
