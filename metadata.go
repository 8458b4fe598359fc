// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

const (
	// tableReaderBufferSize is a sequential read buffer for directory and table parsing.
	tableReaderBufferSize = 64 * 1024
	// maxPreallocEntries caps entry slice preallocation driven by an untrusted count.
	maxPreallocEntries = 8192
)

var (
	// tableReaderPool reuses buffered readers for sequential table parsing.
	tableReaderPool = sync.Pool{
		New: func() any {
			return bufio.NewReaderSize(bytes.NewReader(nil), tableReaderBufferSize)
		},
	}
)

// ReadDirectory parses a V1 directory stream until it ends.
// The stream must end exactly on a record boundary.
func ReadDirectory(dir io.Reader) ([]Entry, error) {
	if dir == nil {
		return nil, ErrNilReader
	}

	br := tableReaderPool.Get().(*bufio.Reader) //nolint:forcetypeassert // pool contains only *bufio.Reader
	br.Reset(dir)
	defer tableReaderPool.Put(br)

	entries := make([]Entry, 0, 64)
	var rec [recordSize]byte
	for index := 0; ; index++ {
		_, err := io.ReadFull(br, rec[:])
		if err == io.EOF {
			return entries, nil
		}
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: record %d: %w", ErrTruncatedDirectory, index, err)
		}
		if err != nil {
			return nil, fmt.Errorf("read directory record %d: %w", index, err)
		}

		entries = append(entries, decodeV1Record(&rec))
	}
}

// ReadHeader parses the VER2 magic, entry count, and entry table of a V2 stream.
// The stream is consumed up to the end of the table (and possibly beyond, buffered).
func ReadHeader(img io.Reader) ([]Entry, error) {
	if img == nil {
		return nil, ErrNilReader
	}

	br := tableReaderPool.Get().(*bufio.Reader) //nolint:forcetypeassert // pool contains only *bufio.Reader
	br.Reset(img)
	defer tableReaderPool.Put(br)

	var header [v2HeaderSize]byte
	if _, err := io.ReadFull(br, header[:4]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: short header", ErrInvalidHeader)
		}

		return nil, fmt.Errorf("read header: %w", err)
	}

	if [4]byte(header[:4]) != v2Magic {
		return nil, fmt.Errorf("%w: magic % x", ErrInvalidHeader, header[:4])
	}

	if _, err := io.ReadFull(br, header[4:]); err != nil {
		return nil, fmt.Errorf("read entry count: %w", unexpectedEOF(err))
	}

	count := binary.LittleEndian.Uint32(header[4:8])
	entries := make([]Entry, 0, int(min(count, maxPreallocEntries)))

	var rec [recordSize]byte
	for i := range count {
		if _, err := io.ReadFull(br, rec[:]); err != nil {
			return nil, fmt.Errorf("read entry %d of %d: %w", i, count, unexpectedEOF(err))
		}

		entries = append(entries, decodeV2Record(&rec))
	}

	return entries, nil
}

// DetectVersion reports VersionV2 when img starts with the VER2 magic and VersionV1 otherwise.
// The stream position is restored before returning.
func DetectVersion(img io.ReadSeeker) (Version, error) {
	if img == nil {
		return 0, ErrNilReader
	}

	pos, err := img.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("seek current: %w", err)
	}

	if _, err := img.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek start: %w", err)
	}

	var magic [4]byte
	n, readErr := io.ReadFull(img, magic[:])

	if _, err := img.Seek(pos, io.SeekStart); err != nil {
		return 0, fmt.Errorf("restore position: %w", err)
	}

	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("read magic: %w", readErr)
	}

	if n == len(magic) && magic == v2Magic {
		return VersionV2, nil
	}

	return VersionV1, nil
}

// decodeV1Record decodes offset:u32, length:u32, name:[24]byte.
func decodeV1Record(rec *[recordSize]byte) Entry {
	return Entry{
		Offset: uint64(binary.LittleEndian.Uint32(rec[0:4])),
		Length: uint64(binary.LittleEndian.Uint32(rec[4:8])),
		Name:   DecodeName([NameFieldSize]byte(rec[8:32])),
	}
}

// decodeV2Record decodes offset:u32, length:u16, reserved:u16, name:[24]byte.
// The reserved field is ignored.
func decodeV2Record(rec *[recordSize]byte) Entry {
	return Entry{
		Offset: uint64(binary.LittleEndian.Uint32(rec[0:4])),
		Length: uint64(binary.LittleEndian.Uint16(rec[4:6])),
		Name:   DecodeName([NameFieldSize]byte(rec[8:32])),
	}
}

// encodeV1Record encodes one directory record; callers validate field ranges.
func encodeV1Record(rec *[recordSize]byte, offset, length uint64, name [NameFieldSize]byte) {
	binary.LittleEndian.PutUint32(rec[0:4], uint32(offset)) //nolint:gosec // range checked by writer
	binary.LittleEndian.PutUint32(rec[4:8], uint32(length)) //nolint:gosec // range checked by writer
	copy(rec[8:32], name[:])
}

// encodeV2Record encodes one table slot with a zero reserved field; callers validate field ranges.
func encodeV2Record(rec *[recordSize]byte, offset, length uint64, name [NameFieldSize]byte) {
	binary.LittleEndian.PutUint32(rec[0:4], uint32(offset)) //nolint:gosec // range checked by writer
	binary.LittleEndian.PutUint16(rec[4:6], uint16(length)) //nolint:gosec // range checked by writer
	binary.LittleEndian.PutUint16(rec[6:8], 0)
	copy(rec[8:32], name[:])
}

// unexpectedEOF maps a clean EOF inside a fixed-size structure to io.ErrUnexpectedEOF.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}

	return err
}
