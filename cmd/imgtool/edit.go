// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	img "github.com/connorhaigh/gta-img"
	"github.com/spf13/cobra"
)

var errSameOutput = errors.New("output must differ from the source archive")

func editCmd(g *globalOptions) *cobra.Command {
	var af archiveFlags
	var output, outDir, outFormat string
	var adds, replaces, deletes []string
	var strictNames, quiet bool

	cmd := &cobra.Command{
		Use:   "edit <img>",
		Short: "Rebuild an archive with entries added, replaced, or deleted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := g.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if err := checkDistinctOutput(args[0], output); err != nil {
				return err
			}

			o, err := openArchive(args[0], af, logger)
			if err != nil {
				return err
			}
			defer func() { _ = o.Close() }()

			version := o.version
			if outFormat != "" {
				if version, err = img.ParseVersion(outFormat); err != nil {
					return err
				}
			}

			var bar *progressBar
			opts := img.EditOptions{Pack: img.PackOptions{
				Writer:      img.WriterOptions{Logger: logger},
				OnEntryDone: func(img.PackEntryProgress) { bar.Increment() },
			}}
			if strictNames {
				opts.Pack.Writer.NamePolicy = img.NamePolicyStrict
			}

			editor, err := img.NewEditor(o.archive, opts)
			if err != nil {
				return err
			}
			if err := stageEdits(editor, adds, replaces, deletes); err != nil {
				return err
			}

			count, err := editor.Count()
			if err != nil {
				return err
			}

			out, err := createOutput(version, output, outDir)
			if err != nil {
				return err
			}

			bar = newProgressBar(cmd.ErrOrStderr(), quiet, "Edit", count)
			result, err := editor.CommitVersion(cmd.Context(), version, out.data, out.dirWriter())
			bar.Wait()
			closeErr := out.Close()
			if err != nil {
				return err
			}
			if closeErr != nil {
				return closeErr
			}

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s (%s): %d sectors\n",
					result.WrittenEntries, output, version, result.DataSectors)
			}

			return nil
		},
	}

	af.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output archive path (required)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "V1 directory output (default: sibling .dir of the output)")
	cmd.Flags().StringVar(&outFormat, "out-format", "", "Output format: v1 or v2 (default: same as source)")
	cmd.Flags().StringArrayVar(&adds, "add", nil, "Append file as a new entry named by its base name (repeatable)")
	cmd.Flags().StringArrayVar(&replaces, "replace", nil, "Replace the entry named by the file's base name (repeatable)")
	cmd.Flags().StringArrayVar(&deletes, "delete", nil, "Delete entries with this name (repeatable)")
	cmd.Flags().BoolVar(&strictNames, "strict-names", false, "Fail on names that would be truncated or lose characters")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress progress and summary output")

	_ = cmd.MarkFlagRequired("output")

	return cmd
}

// stageEdits applies deletes, replaces, and adds to editor in that order.
func stageEdits(editor *img.Editor, adds, replaces, deletes []string) error {
	if len(deletes) > 0 {
		if err := editor.Delete(deletes...); err != nil {
			return err
		}
	}

	if len(replaces) > 0 {
		if err := editor.Replace(filesToInputs(replaces)...); err != nil {
			return err
		}
	}

	if len(adds) > 0 {
		if err := editor.Add(filesToInputs(adds)...); err != nil {
			return err
		}
	}

	return nil
}

func filesToInputs(paths []string) []img.Input {
	inputs := make([]img.Input, len(paths))
	for i, p := range paths {
		inputs[i] = fileInput(p)
	}

	return inputs
}

// checkDistinctOutput rejects rebuilding an archive onto itself.
func checkDistinctOutput(src, dst string) error {
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return err
	}
	if srcAbs == dstAbs {
		return fmt.Errorf("%w: %s", errSameOutput, dst)
	}

	srcInfo, srcErr := os.Stat(srcAbs)
	dstInfo, dstErr := os.Stat(dstAbs)
	if srcErr == nil && dstErr == nil && os.SameFile(srcInfo, dstInfo) {
		return fmt.Errorf("%w: %s", errSameOutput, dst)
	}

	return nil
}
