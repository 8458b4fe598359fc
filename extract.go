// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// extractWorkItem stores one selected entry with its output file name.
type extractWorkItem struct {
	fileName string
	entry    Entry
	index    int
}

// Extract writes selected entries to dstDir, one file per entry holding the
// full sector-aligned payload. Extraction is parallelized by MaxWorkers; on
// failure it returns the first encountered error.
func (a *Archive) Extract(ctx context.Context, dstDir string, opts ExtractOptions) error {
	if a == nil || a.src == nil {
		return ErrNilReader
	}

	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = a.log()
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	workItems, err := a.prepareExtractWorkItems(opts)
	if err != nil {
		return err
	}

	if len(workItems) == 0 {
		return nil
	}

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	logger.Debug("extracting entries",
		slog.Int("entries", len(workItems)),
		slog.Int("workers", workers),
		slog.String("dir", dstRootAbs),
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, task := range workItems {
		if egCtx.Err() != nil {
			break
		}

		eg.Go(func() error {
			return a.extractPreparedEntry(egCtx, dstRootAbs, task, opts)
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	return ctx.Err()
}

// prepareExtractWorkItems applies index and rule selection and resolves output names.
func (a *Archive) prepareExtractWorkItems(opts ExtractOptions) ([]extractWorkItem, error) {
	indices := opts.Indices
	if indices == nil {
		indices = make([]int, a.Len())
		for i := range indices {
			indices[i] = i
		}
	}

	matcher, err := newEntryMatcher(opts.Rules, opts.MatcherOptions)
	if err != nil {
		return nil, err
	}

	workItems := make([]extractWorkItem, 0, len(indices))
	names := make([]string, 0, len(indices))
	for _, index := range indices {
		entry, ok := a.Get(index)
		if !ok {
			return nil, fmt.Errorf("%w: index %d", ErrEntryNotFound, index)
		}

		if !matcher.Match(entry.Name) {
			continue
		}

		workItems = append(workItems, extractWorkItem{entry: entry, index: index})
		names = append(names, entry.Name)
	}

	if opts.RawNames {
		if err := validateRawNames(names); err != nil {
			return nil, err
		}
	} else {
		names, err = sanitizeEntryNames(names)
		if err != nil {
			return nil, err
		}
	}

	for i := range workItems {
		workItems[i].fileName = names[i]
	}

	return workItems, nil
}

// extractPreparedEntry writes one prepared work item to destination root.
func (a *Archive) extractPreparedEntry(ctx context.Context, dstRootAbs string, task extractWorkItem, opts ExtractOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	outPath := filepath.Join(dstRootAbs, task.fileName)

	rc, ok := a.Open(task.index)
	if !ok {
		return fmt.Errorf("%w: index %d", ErrEntryNotFound, task.index)
	}

	file, err := openExtractFile(outPath, opts.FileMode)
	if err != nil {
		return fmt.Errorf("open %s: %w", task.entry.Name, err)
	}

	buf, release := acquireCopyBuffer(defaultCopyBufferSize)
	written, copyErr := io.CopyBuffer(writerOnly{file}, rc, buf)
	release()

	closeErr := file.Close()
	if copyErr != nil {
		return fmt.Errorf("write %s: %w", task.entry.Name, copyErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", task.entry.Name, closeErr)
	}

	if opts.OnEntryDone != nil {
		opts.OnEntryDone(task.entry, written, outPath)
	}

	return nil
}

// writerOnly hides io.ReaderFrom so io.CopyBuffer uses the supplied buffer.
type writerOnly struct {
	io.Writer
}

// openExtractFile opens output path according to selected extract file mode.
func openExtractFile(path string, mode ExtractFileMode) (*os.File, error) {
	switch mode {
	case ExtractFileModeAuto:
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return file, nil
		}

		if !os.IsExist(err) {
			return nil, err
		}

		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	case ExtractFileModeTruncate:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	case ExtractFileModeCreateOnly:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	default:
		return nil, fmt.Errorf("unknown extract file mode %q", mode)
	}
}
