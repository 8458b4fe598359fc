// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// rewriteEntry describes one payload source for the shared write core.
type rewriteEntry struct {
	// input is set for caller-provided payloads.
	input *Input
	// source is set for payloads copied from an existing archive.
	source *Archive
	name   string
	// index addresses the entry in source.
	index int
}

// open returns the payload stream for one rewrite item.
func (item rewriteEntry) open() (io.ReadCloser, error) {
	if item.source != nil {
		r, ok := item.source.Open(item.index)
		if !ok {
			return nil, fmt.Errorf("%w: source index %d", ErrEntryNotFound, item.index)
		}

		return io.NopCloser(r), nil
	}

	if item.input == nil || item.input.Open == nil {
		return nil, fmt.Errorf("input %s: Open is nil", item.name)
	}

	rc, err := item.input.Open()
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", item.name, err)
	}

	return rc, nil
}

// countingReader counts bytes read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Pack writes inputs in the given order into a new archive of version.
// dir is required for VersionV1 and ignored for VersionV2.
func Pack(ctx context.Context, version Version, img io.WriteSeeker, dir io.Writer, inputs []Input, opts PackOptions) (*PackResult, error) {
	switch version {
	case VersionV1:
		return PackV1(ctx, dir, img, inputs, opts)
	case VersionV2:
		return PackV2(ctx, img, inputs, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}
}

// PackV1 writes inputs in the given order as a V1 directory and data stream pair.
func PackV1(ctx context.Context, dir io.Writer, img io.WriteSeeker, inputs []Input, opts PackOptions) (*PackResult, error) {
	plan, err := preparePackPlan(inputs, opts.Writer.NamePolicy)
	if err != nil {
		return nil, err
	}

	w, err := NewV1Writer(dir, img, opts.Writer)
	if err != nil {
		return nil, err
	}

	return rewriteArchive(ctx, w, plan, opts)
}

// PackV2 writes inputs in the given order as a combined V2 archive.
// The header capacity equals the number of inputs.
func PackV2(ctx context.Context, img io.WriteSeeker, inputs []Input, opts PackOptions) (*PackResult, error) {
	plan, err := preparePackPlan(inputs, opts.Writer.NamePolicy)
	if err != nil {
		return nil, err
	}

	w, err := NewV2Writer(img, len(plan), opts.Writer)
	if err != nil {
		return nil, err
	}

	return rewriteArchive(ctx, w, plan, opts)
}

// preparePackPlan validates names and converts inputs into a rewrite plan.
// Order is preserved: index order is the addressing key of the archive.
func preparePackPlan(inputs []Input, policy NamePolicy) ([]rewriteEntry, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyInputs
	}

	plan := make([]rewriteEntry, len(inputs))
	for i := range inputs {
		plan[i] = rewriteEntry{
			name:  inputs[i].Name,
			input: &inputs[i],
		}
	}

	if err := validateUniqueEntryNames(plan, policy); err != nil {
		return nil, err
	}

	return plan, nil
}

// validateUniqueEntryNames ensures encoded names are valid and unique case-insensitively.
func validateUniqueEntryNames(plan []rewriteEntry, policy NamePolicy) error {
	seen := make(map[string]string, len(plan))
	for _, item := range plan {
		field, err := EncodeNameWithPolicy(item.name, policy)
		if err != nil {
			return err
		}

		stored := DecodeName(field)
		key := strings.ToLower(stored)
		if existing, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q conflicts with %q", ErrDuplicateEntryName, item.name, existing)
		}

		seen[key] = item.name
	}

	return nil
}

// rewriteArchive is the shared write core for Pack and Editor commit flows.
func rewriteArchive(ctx context.Context, w Writer, plan []rewriteEntry, opts PackOptions) (*PackResult, error) {
	startedAt := time.Now()

	if w == nil {
		return nil, ErrNilWriter
	}

	if ctx == nil {
		ctx = context.Background()
	}

	res := &PackResult{}
	for i, item := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, copied, err := writeRewriteItem(w, item)
		if err != nil {
			return nil, err
		}

		res.WrittenEntries++
		res.DataSectors += entry.Length
		res.PayloadBytes += copied
		res.PaddingBytes += clampInt64(entry.ByteLength()) - copied

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(PackEntryProgress{
				Entry: entry,
				Bytes: copied,
				Index: i,
			})
		}
	}

	res.Duration = time.Since(startedAt)
	return res, nil
}

// writeRewriteItem opens one plan item, writes it, and closes the source.
func writeRewriteItem(w Writer, item rewriteEntry) (Entry, int64, error) {
	rc, err := item.open()
	if err != nil {
		return Entry{}, 0, err
	}

	src := &countingReader{r: rc}
	entry, writeErr := w.Write(item.name, src)
	closeErr := rc.Close()
	if writeErr != nil {
		return Entry{}, 0, writeErr
	}
	if closeErr != nil {
		return Entry{}, 0, fmt.Errorf("close input %s: %w", item.name, closeErr)
	}

	return entry, src.n, nil
}
