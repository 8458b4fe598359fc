// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	img "github.com/connorhaigh/gta-img"
	"github.com/spf13/cobra"
)

// archiveFlags selects the input archive layout and its directory file.
type archiveFlags struct {
	dir    string
	format string
}

func (f *archiveFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dir, "dir", "", "V1 directory file (default: sibling .dir of the archive)")
	cmd.Flags().StringVar(&f.format, "format", "auto", "Archive format: auto, v1, or v2")
}

// openedArchive owns the files behind a parsed archive.
type openedArchive struct {
	archive *img.Archive
	files   []*os.File
	version img.Version
}

// Close closes every file opened for the archive.
func (o *openedArchive) Close() error {
	var errs []error
	for _, f := range o.files {
		errs = append(errs, f.Close())
	}

	return errors.Join(errs...)
}

// openArchive opens and parses the archive at path.
func openArchive(path string, flags archiveFlags, logger *slog.Logger) (*openedArchive, error) {
	data, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	o := &openedArchive{files: []*os.File{data}}

	o.version, err = resolveVersion(flags.format, data)
	if err != nil {
		_ = o.Close()
		return nil, err
	}

	opts := img.ReaderOptions{Logger: logger}
	switch o.version {
	case img.VersionV1:
		dirPath := flags.dir
		if dirPath == "" {
			dirPath = siblingDirPath(path)
		}

		dir, err := os.Open(dirPath)
		if err != nil {
			_ = o.Close()
			return nil, fmt.Errorf("open directory: %w", err)
		}
		o.files = append(o.files, dir)

		o.archive, err = img.OpenV1WithOptions(dir, data, opts)
	default:
		o.archive, err = img.OpenV2WithOptions(data, opts)
	}
	if err != nil {
		_ = o.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return o, nil
}

// resolveVersion parses a --format value, detecting the layout for "auto".
func resolveVersion(format string, data *os.File) (img.Version, error) {
	if format == "" || strings.EqualFold(format, "auto") {
		return img.DetectVersion(data)
	}

	return img.ParseVersion(format)
}

// siblingDirPath returns the .dir path next to an archive, matching extension case.
func siblingDirPath(imgPath string) string {
	ext := filepath.Ext(imgPath)
	dirExt := ".dir"
	if ext != "" && ext == strings.ToUpper(ext) {
		dirExt = ".DIR"
	}

	return strings.TrimSuffix(imgPath, ext) + dirExt
}
