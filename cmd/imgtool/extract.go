// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package main

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	img "github.com/connorhaigh/gta-img"
	"github.com/spf13/cobra"
	"github.com/woozymasta/pathrules"
)

func extractCmd(g *globalOptions) *cobra.Command {
	var af archiveFlags
	var output string
	var includes, excludes []string
	var workers int
	var mode string
	var rawNames bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "extract <img>",
		Short: "Extract archive entries to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := g.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			fileMode, err := parseExtractFileMode(mode)
			if err != nil {
				return err
			}

			o, err := openArchive(args[0], af, logger)
			if err != nil {
				return err
			}
			defer func() { _ = o.Close() }()

			rules := buildRules(includes, excludes)
			selected, err := img.Select(o.archive.Entries(), rules, pathrules.MatcherOptions{})
			if err != nil {
				return err
			}

			bar := newProgressBar(cmd.ErrOrStderr(), quiet, "Extract", len(selected))
			var extracted atomic.Int64
			err = o.archive.Extract(cmd.Context(), output, img.ExtractOptions{
				Logger:     logger,
				FileMode:   fileMode,
				Indices:    selected,
				MaxWorkers: workers,
				RawNames:   rawNames,
				OnEntryDone: func(img.Entry, int64, string) {
					extracted.Add(1)
					bar.Increment()
				},
			})
			bar.Wait()
			if err != nil {
				return err
			}

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d of %d entries to %s\n", extracted.Load(), o.archive.Len(), output)
			}

			return nil
		},
	}

	af.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (required)")
	cmd.Flags().StringArrayVar(&includes, "include", nil, "Extract only entries matching pattern (repeatable)")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil, "Skip entries matching pattern (repeatable)")
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "Max concurrent extraction workers")
	cmd.Flags().StringVar(&mode, "mode", string(img.ExtractFileModeAuto), "Existing file policy: auto, truncate, or create_only")
	cmd.Flags().BoolVar(&rawNames, "raw-names", false, "Use entry names as-is instead of sanitizing them")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress progress and summary output")

	_ = cmd.MarkFlagRequired("output")

	return cmd
}

// buildRules turns include and exclude patterns into ordered rules; excludes win.
func buildRules(includes, excludes []string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(includes)+len(excludes))
	for _, p := range includes {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: p})
	}
	for _, p := range excludes {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionExclude, Pattern: p})
	}

	return rules
}

var errUnknownFileMode = errors.New("unknown extract mode")

// parseExtractFileMode validates a --mode value.
func parseExtractFileMode(raw string) (img.ExtractFileMode, error) {
	switch mode := img.ExtractFileMode(raw); mode {
	case img.ExtractFileModeAuto, img.ExtractFileModeTruncate, img.ExtractFileModeCreateOnly:
		return mode, nil
	default:
		return "", fmt.Errorf("%w %q (want auto, truncate, or create_only)", errUnknownFileMode, raw)
	}
}
