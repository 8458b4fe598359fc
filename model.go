// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/woozymasta/pathrules"
)

// Binary layout and format limits.
const (
	// SectorSize is the alignment unit for every offset and length in both layouts.
	SectorSize = 2048
	// NameFieldSize is the on-disk width of an entry name including its terminator.
	NameFieldSize = 24
	// MaxNameLen is the maximum encoded name length excluding the terminator.
	MaxNameLen = NameFieldSize - 1
	// MaxV2EntrySectors is the largest entry length representable in a V2 table slot.
	MaxV2EntrySectors = 0xffff

	recordSize   = 32 // V1 directory record and V2 table slot size
	v2HeaderSize = 8  // magic + entry count
	maxUint32    = 0xffffffff
)

// v2Magic is the literal "VER2" prefix of combined archives.
var v2Magic = [4]byte{0x56, 0x45, 0x52, 0x32}

// Version identifies one of the two supported archive layouts.
type Version uint8

const (
	// VersionV1 stores the directory in a separate .dir stream and payload in .img.
	VersionV1 Version = iota + 1
	// VersionV2 stores a VER2 header, entry table, and payload in a single .img stream.
	VersionV2
)

// String returns the short version label.
func (v Version) String() string {
	switch v {
	case VersionV1:
		return "v1"
	case VersionV2:
		return "v2"
	default:
		return fmt.Sprintf("version(%d)", uint8(v))
	}
}

// ParseVersion parses "v1"/"v2" (case-insensitive, optional "v" prefix).
func ParseVersion(raw string) (Version, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "v") {
	case "1":
		return VersionV1, nil
	case "2":
		return VersionV2, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownVersion, raw)
	}
}

// Entry describes one archived item. Offset and Length are always in sectors.
type Entry struct {
	// Name is the entry name as stored in the name field, case preserved.
	Name string `json:"name" yaml:"name"`
	// Offset is the first sector of the payload.
	Offset uint64 `json:"offset" yaml:"offset"`
	// Length is the number of sectors occupied by the payload.
	Length uint64 `json:"length" yaml:"length"`
}

// ByteOffset returns the absolute payload offset in bytes.
func (e Entry) ByteOffset() uint64 {
	return SectorsToBytes(e.Offset)
}

// ByteLength returns the payload extent in bytes, including sector padding.
func (e Entry) ByteLength() uint64 {
	return SectorsToBytes(e.Length)
}

// NamePolicy controls how names that do not fit the name field are encoded.
type NamePolicy uint8

const (
	// NamePolicyLossy drops non-Latin-1 runes and truncates to MaxNameLen bytes.
	NamePolicyLossy NamePolicy = iota
	// NamePolicyStrict rejects names that the lossy policy would alter.
	NamePolicyStrict
)

// ReaderOptions configures archive parsing.
type ReaderOptions struct {
	// Logger receives debug events; nil disables logging.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// WriterOptions configures V1 and V2 writers.
type WriterOptions struct {
	// Logger receives debug events; nil disables logging.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// NamePolicy selects lossy (default) or strict name encoding.
	NamePolicy NamePolicy `json:"name_policy,omitempty" yaml:"name_policy,omitempty"`
	// CopyBufferSize is the payload copy buffer size in bytes.
	CopyBufferSize int `json:"copy_buffer_size,omitempty" yaml:"copy_buffer_size,omitempty"`
}

// Input describes one source stream to be packed into an entry.
type Input struct {
	// Open returns raw source stream for this entry.
	Open func() (io.ReadCloser, error) `json:"-" yaml:"-"`
	// Name is the destination entry name.
	Name string `json:"name" yaml:"name"`
}

// PackEntryProgress contains one completed entry write event from pack flow.
type PackEntryProgress struct {
	// Entry is the written directory record.
	Entry Entry `json:"entry" yaml:"entry"`
	// Bytes is the unpadded payload size copied from the input.
	Bytes int64 `json:"bytes" yaml:"bytes"`
	// Index is the entry position in the written archive.
	Index int `json:"index" yaml:"index"`
}

// PackOptions configures pack behavior.
type PackOptions struct {
	// OnEntryDone is called after one entry is fully written to the archive.
	OnEntryDone func(progress PackEntryProgress) `json:"-" yaml:"-"`
	// Writer configures the underlying archive writer.
	Writer WriterOptions `json:"writer,omitzero" yaml:"writer,omitzero"`
}

// PackResult contains pack output statistics.
type PackResult struct {
	// WrittenEntries is number of entries written to archive.
	WrittenEntries int `json:"written_entries" yaml:"written_entries"`
	// DataSectors is total number of payload sectors written.
	DataSectors uint64 `json:"data_sectors" yaml:"data_sectors"`
	// PayloadBytes is total unpadded payload bytes copied from inputs.
	PayloadBytes int64 `json:"payload_bytes" yaml:"payload_bytes"`
	// PaddingBytes is total zero bytes written to complete final sectors.
	PaddingBytes int64 `json:"padding_bytes,omitempty" yaml:"padding_bytes,omitempty"`
	// Duration is end-to-end pack duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// EditOptions configures archive rebuild flow.
type EditOptions struct {
	// Pack options are applied to the rebuild write pass.
	Pack PackOptions `json:"pack,omitzero" yaml:"pack,omitzero"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(entry Entry, written int64, outputPath string) `json:"-" yaml:"-"`
	// Logger receives debug events; nil falls back to the archive logger.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// FileMode controls output file creation policy.
	FileMode ExtractFileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// Rules selects entries by name; empty means all entries.
	Rules []pathrules.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
	// MatcherOptions control rule matching.
	MatcherOptions pathrules.MatcherOptions `json:"matcher_options,omitzero" yaml:"matcher_options,omitzero"`
	// Indices limits extraction to selected entry indices; nil means all entries.
	// Rules are applied on top of the selected indices.
	Indices []int `json:"-" yaml:"-"`
	// MaxWorkers is number of extraction workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	// RawNames disables default name sanitization during extract.
	RawNames bool `json:"raw_names,omitempty" yaml:"raw_names,omitempty"`
}

// ExtractFileMode controls output file open behavior during extraction.
type ExtractFileMode string

// Output file creation policies for extraction.
const (
	// ExtractFileModeAuto first tries create-only, then falls back to truncate for existing files.
	ExtractFileModeAuto ExtractFileMode = "auto"
	// ExtractFileModeTruncate opens existing files with truncate and creates missing files.
	ExtractFileModeTruncate ExtractFileMode = "truncate"
	// ExtractFileModeCreateOnly creates files only when absent and fails on existing files.
	ExtractFileModeCreateOnly ExtractFileMode = "create_only"
)

// defaultCopyBufferSize is the payload copy buffer used by writers.
const defaultCopyBufferSize = 64 * 1024

// applyDefaults fills zero-valued writer options with defaults.
func (opts *WriterOptions) applyDefaults() {
	if opts.CopyBufferSize < SectorSize {
		opts.CopyBufferSize = defaultCopyBufferSize
	}
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	if opts.FileMode == "" {
		opts.FileMode = ExtractFileModeAuto
	}

	opts.MatcherOptions = selectMatcherOptions(opts.Rules, opts.MatcherOptions)
}

// discardLogger returns logger or a logger that drops every record.
func discardLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return logger
}
