// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package main

import (
	"fmt"
	"path/filepath"
	"time"

	img "github.com/connorhaigh/gta-img"
	"github.com/spf13/cobra"
)

func packCmd(g *globalOptions) *cobra.Command {
	var output, dirPath, format, ignoreFile string
	var includes, excludes []string
	var strictNames, quiet bool

	cmd := &cobra.Command{
		Use:   "pack <srcdir>",
		Short: "Pack the files of a directory into a new archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := g.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			version, err := img.ParseVersion(format)
			if err != nil {
				return err
			}

			srcDir := filepath.Clean(args[0])
			ignored, err := loadIgnoreFile(srcDir, ignoreFile)
			if err != nil {
				return err
			}

			inputs, err := collectInputs(srcDir, ignored, buildRules(includes, excludes))
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return fmt.Errorf("%s: %w", srcDir, img.ErrEmptyInputs)
			}

			out, err := createOutput(version, output, dirPath)
			if err != nil {
				return err
			}

			opts := img.PackOptions{
				Writer: img.WriterOptions{Logger: logger},
			}
			if strictNames {
				opts.Writer.NamePolicy = img.NamePolicyStrict
			}

			bar := newProgressBar(cmd.ErrOrStderr(), quiet, "Pack", len(inputs))
			opts.OnEntryDone = func(img.PackEntryProgress) { bar.Increment() }

			result, packErr := img.Pack(cmd.Context(), version, out.data, out.dirWriter(), inputs, opts)
			bar.Wait()
			closeErr := out.Close()
			if packErr != nil {
				return packErr
			}
			if closeErr != nil {
				return closeErr
			}

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(),
					"Packed %d entries into %s (%s): %d sectors, %d payload bytes, %d padding bytes in %s\n",
					result.WrittenEntries, output, version, result.DataSectors,
					result.PayloadBytes, result.PaddingBytes, result.Duration.Round(time.Millisecond))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output archive path (required)")
	cmd.Flags().StringVar(&format, "format", "v2", "Archive format: v1 or v2")
	cmd.Flags().StringVar(&dirPath, "dir", "", "V1 directory output (default: sibling .dir of the archive)")
	cmd.Flags().StringVar(&ignoreFile, "ignore-file", "", "Gitignore-style file of paths to skip (default: <srcdir>/"+defaultIgnoreFile+")")
	cmd.Flags().StringArrayVar(&includes, "include", nil, "Pack only files whose name matches pattern (repeatable)")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil, "Skip files whose name matches pattern (repeatable)")
	cmd.Flags().BoolVar(&strictNames, "strict-names", false, "Fail on names that would be truncated or lose characters")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress progress and summary output")

	_ = cmd.MarkFlagRequired("output")

	return cmd
}
