// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
)

var (
	// defaultCopyBufferPool reuses default-sized payload copy buffers between writes.
	defaultCopyBufferPool = sync.Pool{
		New: func() any {
			return new([defaultCopyBufferSize]byte)
		},
	}

	// zeroSector is the source of sector padding and reserved table bytes.
	zeroSector [SectorSize]byte

	// errPayloadLimit means a source produced more bytes than the entry fields can describe.
	errPayloadLimit = errors.New("payload exceeds limit")
)

const (
	// maxV1PayloadBytes is the largest payload whose sector length fits a uint32 field.
	maxV1PayloadBytes = maxUint32 * SectorSize
	// maxV2PayloadBytes is the largest payload whose sector length fits a uint16 field.
	maxV2PayloadBytes = MaxV2EntrySectors * SectorSize
)

// Writer appends entries to an archive.
// Implementations are not safe for concurrent use.
type Writer interface {
	// Write copies src until EOF into the next free sectors and records the entry.
	Write(name string, src io.Reader) (Entry, error)
}

// NewWriter creates a writer for version. dir is required for VersionV1 and
// ignored for VersionV2; count is the V2 header capacity and ignored for VersionV1.
func NewWriter(version Version, img io.WriteSeeker, dir io.Writer, count int, opts WriterOptions) (Writer, error) {
	switch version {
	case VersionV1:
		return NewV1Writer(dir, img, opts)
	case VersionV2:
		return NewV2Writer(img, count, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}
}

// payloadWrite is the outcome of one sector-aligned payload copy.
type payloadWrite struct {
	sectors uint64
	copied  uint64
	padding uint64
}

// V1Writer appends payload to a data stream and records to a separate directory stream.
type V1Writer struct {
	dir     io.Writer
	img     io.WriteSeeker
	logger  *slog.Logger
	entries []Entry
	opts    WriterOptions
	// err is set once the directory stream holds a partial record.
	err error
	// next is the first free data sector.
	next uint64
}

// NewV1Writer creates a V1 writer. Payload starts at sector zero of img.
func NewV1Writer(dir io.Writer, img io.WriteSeeker, opts WriterOptions) (*V1Writer, error) {
	if dir == nil || img == nil {
		return nil, ErrNilWriter
	}

	opts.applyDefaults()

	return &V1Writer{
		dir:    dir,
		img:    img,
		logger: discardLogger(opts.Logger),
		opts:   opts,
	}, nil
}

// Write copies src into the data stream at the next free sector, pads the
// final sector with zeros, and appends one directory record.
// On failure the sector cursor is unchanged. A directory write that accepts
// part of a record leaves the stream unusable, and every later Write returns
// the same ErrPartialRecord error.
func (w *V1Writer) Write(name string, src io.Reader) (Entry, error) {
	if w.err != nil {
		return Entry{}, w.err
	}

	field, err := EncodeNameWithPolicy(name, w.opts.NamePolicy)
	if err != nil {
		return Entry{}, err
	}

	if w.next > maxUint32 {
		return Entry{}, fmt.Errorf("%w: entry %s offset %d", ErrSizeOverflow, name, w.next)
	}

	res, err := writeSectorPayload(w.img, w.next, src, maxV1PayloadBytes, w.opts.CopyBufferSize)
	if errors.Is(err, errPayloadLimit) {
		return Entry{}, fmt.Errorf("%w: entry %s length", ErrSizeOverflow, name)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("write entry %s: %w", name, err)
	}

	var rec [recordSize]byte
	encodeV1Record(&rec, w.next, res.sectors, field)
	n, err := w.dir.Write(rec[:])
	if err == nil && n != recordSize {
		err = io.ErrShortWrite
	}
	if err != nil {
		if n > 0 {
			w.err = fmt.Errorf("%w: %d of %d bytes of record %d: %w", ErrPartialRecord, n, recordSize, len(w.entries), err)
			return Entry{}, w.err
		}

		return Entry{}, fmt.Errorf("write directory record %s: %w", name, err)
	}

	entry := Entry{Name: DecodeName(field), Offset: w.next, Length: res.sectors}
	w.entries = append(w.entries, entry)
	w.next += res.sectors

	w.logger.Debug("wrote entry",
		slog.String("name", entry.Name),
		slog.Uint64("offset", entry.Offset),
		slog.Uint64("length", entry.Length),
		slog.Uint64("padding", res.padding),
	)

	return entry, nil
}

// Entries returns a copy of entries written so far.
func (w *V1Writer) Entries() []Entry {
	return cloneEntries(w.entries)
}

// V2Writer writes a combined archive whose entry table capacity is fixed at creation.
type V2Writer struct {
	img     io.WriteSeeker
	logger  *slog.Logger
	entries []Entry
	opts    WriterOptions
	// capacity is the declared table size.
	capacity uint64
	// next is the first free data sector.
	next uint64
}

// NewV2Writer writes the VER2 header for count entries, zeroed table slots,
// and padding up to the first data sector.
func NewV2Writer(img io.WriteSeeker, count int, opts WriterOptions) (*V2Writer, error) {
	if img == nil {
		return nil, ErrNilWriter
	}
	if count < 0 || uint64(count) > maxUint32 {
		return nil, fmt.Errorf("%w: entry count %d", ErrSizeOverflow, count)
	}

	opts.applyDefaults()
	capacity := uint64(count)
	dataStart := v2DataStart(capacity)

	if _, err := img.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek header: %w", err)
	}

	var header [v2HeaderSize]byte
	copy(header[:4], v2Magic[:])
	binary.LittleEndian.PutUint32(header[4:8], uint32(capacity))
	if _, err := img.Write(header[:]); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	if err := writeZeros(img, SectorsToBytes(dataStart)-v2HeaderSize); err != nil {
		return nil, fmt.Errorf("reserve entry table: %w", err)
	}

	logger := discardLogger(opts.Logger)
	logger.Debug("reserved header", slog.Uint64("capacity", capacity), slog.Uint64("data_start", dataStart))

	return &V2Writer{
		img:      img,
		logger:   logger,
		entries:  make([]Entry, 0, min(capacity, maxPreallocEntries)),
		opts:     opts,
		capacity: capacity,
		next:     dataStart,
	}, nil
}

// Write copies src at the next free sector, pads the final sector, and fills
// the next table slot. It fails with ErrInsufficientCapacity before any I/O
// once every declared slot is used.
// On failure the sector cursor and slot counter are unchanged. An oversize
// source fails with ErrEntryTooLarge only after MaxV2EntrySectors sectors were
// copied; those bytes stay unreferenced in the data region until the next
// Write overwrites them.
func (w *V2Writer) Write(name string, src io.Reader) (Entry, error) {
	written := uint64(len(w.entries))
	if written >= w.capacity {
		return Entry{}, fmt.Errorf("%w: %d of %d slots used", ErrInsufficientCapacity, written, w.capacity)
	}

	field, err := EncodeNameWithPolicy(name, w.opts.NamePolicy)
	if err != nil {
		return Entry{}, err
	}

	if w.next > maxUint32 {
		return Entry{}, fmt.Errorf("%w: entry %s offset %d", ErrSizeOverflow, name, w.next)
	}

	res, err := writeSectorPayload(w.img, w.next, src, maxV2PayloadBytes, w.opts.CopyBufferSize)
	if errors.Is(err, errPayloadLimit) {
		return Entry{}, fmt.Errorf("%w: entry %s", ErrEntryTooLarge, name)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("write entry %s: %w", name, err)
	}

	slot := int64(v2HeaderSize + recordSize*written) //nolint:gosec // written < capacity <= maxUint32
	if _, err := w.img.Seek(slot, io.SeekStart); err != nil {
		return Entry{}, fmt.Errorf("seek table slot %d: %w", written, err)
	}

	var rec [recordSize]byte
	encodeV2Record(&rec, w.next, res.sectors, field)
	if _, err := w.img.Write(rec[:]); err != nil {
		return Entry{}, fmt.Errorf("write table slot %d: %w", written, err)
	}

	entry := Entry{Name: DecodeName(field), Offset: w.next, Length: res.sectors}
	w.entries = append(w.entries, entry)
	w.next += res.sectors

	w.logger.Debug("wrote entry",
		slog.String("name", entry.Name),
		slog.Uint64("slot", written),
		slog.Uint64("offset", entry.Offset),
		slog.Uint64("length", entry.Length),
		slog.Uint64("padding", res.padding),
	)

	return entry, nil
}

// Entries returns a copy of entries written so far.
func (w *V2Writer) Entries() []Entry {
	return cloneEntries(w.entries)
}

// Capacity returns the number of table slots declared at creation.
func (w *V2Writer) Capacity() int {
	return int(w.capacity) //nolint:gosec // bounded by NewV2Writer
}

// Remaining returns the number of unused table slots.
func (w *V2Writer) Remaining() int {
	return w.Capacity() - len(w.entries)
}

// writeSectorPayload seeks img to sector start, copies src, and pads to a sector boundary.
func writeSectorPayload(img io.WriteSeeker, start uint64, src io.Reader, limit uint64, bufSize int) (payloadWrite, error) {
	if src == nil {
		return payloadWrite{}, ErrNilReader
	}

	pos := SectorsToBytes(start)
	if pos > math.MaxInt64 {
		return payloadWrite{}, fmt.Errorf("%w: sector %d", ErrSizeOverflow, start)
	}

	if _, err := img.Seek(int64(pos), io.SeekStart); err != nil {
		return payloadWrite{}, fmt.Errorf("seek to sector %d: %w", start, err)
	}

	buf, release := acquireCopyBuffer(bufSize)
	defer release()

	copied, err := copyPayloadBounded(img, src, limit, buf)
	if err != nil {
		return payloadWrite{}, err
	}

	res := payloadWrite{copied: copied, sectors: BytesToSectors(copied)}
	res.padding = PaddingLen(res.sectors, copied)
	if _, err := img.Write(zeroSector[:res.padding]); err != nil {
		return payloadWrite{}, fmt.Errorf("write padding: %w", err)
	}

	return res, nil
}

// acquireCopyBuffer returns a payload copy buffer and release callback.
func acquireCopyBuffer(size int) ([]byte, func()) {
	if size != defaultCopyBufferSize {
		return make([]byte, size), func() {}
	}

	arr := defaultCopyBufferPool.Get().(*[defaultCopyBufferSize]byte) //nolint:forcetypeassert // pool contains only fixed-size buffers
	return arr[:], func() {
		defaultCopyBufferPool.Put(arr)
	}
}

// copyPayloadBounded streams payload from src to dst and enforces a strict size limit.
func copyPayloadBounded(dst io.Writer, src io.Reader, limit uint64, buf []byte) (uint64, error) {
	if len(buf) == 0 {
		buf = make([]byte, defaultCopyBufferSize)
	}

	var written uint64
	emptyReads := 0
	for written < limit {
		chunk := min(uint64(len(buf)), limit-written)

		n, readErr := src.Read(buf[:chunk])
		if n > 0 {
			emptyReads = 0
			nw, writeErr := dst.Write(buf[:n])
			written += uint64(nw) //nolint:gosec // write count is never negative

			if writeErr != nil {
				return written, writeErr
			}
			if nw != n {
				return written, io.ErrShortWrite
			}
		}
		if n == 0 && readErr == nil {
			emptyReads++
			if emptyReads > 100 {
				return written, io.ErrNoProgress
			}

			continue
		}

		if readErr != nil {
			if readErr == io.EOF {
				return written, nil
			}

			return written, readErr
		}
	}

	// Consumed exactly the limit: probe one extra byte to ensure source is not longer.
	var probe [1]byte
	n, err := src.Read(probe[:])
	if n > 0 {
		return written, errPayloadLimit
	}
	if err != nil && err != io.EOF {
		return written, err
	}

	return written, nil
}

// writeZeros writes n zero bytes in sector-sized chunks.
func writeZeros(w io.Writer, n uint64) error {
	for n > 0 {
		chunk := min(n, SectorSize)
		if _, err := w.Write(zeroSector[:chunk]); err != nil {
			return err
		}

		n -= chunk
	}

	return nil
}

// cloneEntries returns an independent copy of entries.
func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
