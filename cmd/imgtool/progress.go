// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package main

import (
	"io"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// progressBar is an entry counter bar; a nil bar is a no-op.
type progressBar struct {
	progress *mpb.Progress
	bar      *mpb.Bar
}

// newProgressBar returns nil when quiet or when there is nothing to count.
func newProgressBar(w io.Writer, quiet bool, label string, total int) *progressBar {
	if quiet || total == 0 {
		return nil
	}

	progress := mpb.New(
		mpb.WithOutput(w),
		mpb.WithWidth(60),
		mpb.WithRefreshRate(100*time.Millisecond),
	)

	bar := progress.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(label, decor.WC{C: decor.DindentRight | decor.DextraSpace}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
		),
	)

	return &progressBar{progress: progress, bar: bar}
}

// Increment counts one finished entry; safe for concurrent use.
func (p *progressBar) Increment() {
	if p == nil {
		return
	}

	p.bar.Increment()
}

// Wait stops rendering; an unfinished bar is aborted so Wait never blocks.
func (p *progressBar) Wait() {
	if p == nil {
		return
	}

	if !p.bar.Completed() {
		p.bar.Abort(false)
	}

	p.progress.Wait()
}
