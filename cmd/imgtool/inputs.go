// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	img "github.com/connorhaigh/gta-img"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/woozymasta/pathrules"
)

// defaultIgnoreFile is picked up from the source root when --ignore-file is not set.
const defaultIgnoreFile = ".imgignore"

// fileInput returns a pack input that opens path lazily; the entry name is its base name.
func fileInput(path string) img.Input {
	return img.Input{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path) //nolint:gosec // path comes from the command line or a directory walk
		},
	}
}

// loadIgnoreFile compiles the ignore file for srcDir; missing default files yield nil.
func loadIgnoreFile(srcDir, path string) (*ignore.GitIgnore, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(srcDir, defaultIgnoreFile)
	}

	matcher, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("load ignore file: %w", err)
	}

	return matcher, nil
}

// collectInputs walks srcDir and returns inputs for every regular file that
// survives the ignore file and the selection rules, sorted by relative path.
// Entries are named by base name; the archive has no directory hierarchy.
func collectInputs(srcDir string, ignored *ignore.GitIgnore, rules []pathrules.Rule) ([]img.Input, error) {
	var paths []string
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if ignored != nil && ignored.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() || rel == defaultIgnoreFile {
			return nil
		}

		if ignored != nil && ignored.MatchesPath(rel) {
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", srcDir, err)
	}

	slices.SortFunc(paths, func(a, b string) int {
		return strings.Compare(filepath.ToSlash(a), filepath.ToSlash(b))
	})

	candidates := make([]img.Entry, len(paths))
	for i, p := range paths {
		candidates[i] = img.Entry{Name: filepath.Base(p)}
	}

	selected, err := img.Select(candidates, rules, pathrules.MatcherOptions{})
	if err != nil {
		return nil, err
	}

	inputs := make([]img.Input, 0, len(selected))
	for _, i := range selected {
		inputs = append(inputs, fileInput(paths[i]))
	}

	return inputs, nil
}

// outputFiles holds the freshly created archive files of a pack or edit run.
type outputFiles struct {
	data   *os.File
	dir    *os.File
	dirBuf *bufio.Writer
}

// createOutput creates imgPath and, for V1, the directory file next to it.
func createOutput(version img.Version, imgPath, dirPath string) (*outputFiles, error) {
	data, err := os.OpenFile(imgPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // user-selected output
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	out := &outputFiles{data: data}
	if version != img.VersionV1 {
		return out, nil
	}

	if dirPath == "" {
		dirPath = siblingDirPath(imgPath)
	}

	dir, err := os.OpenFile(dirPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // user-selected output
	if err != nil {
		_ = data.Close()
		return nil, fmt.Errorf("create directory: %w", err)
	}

	out.dir = dir
	out.dirBuf = bufio.NewWriterSize(dir, 64*1024)
	return out, nil
}

// dirWriter returns the directory stream or nil for V2.
func (o *outputFiles) dirWriter() io.Writer {
	if o.dirBuf == nil {
		return nil
	}

	return o.dirBuf
}

// Close flushes the directory buffer and closes both files.
func (o *outputFiles) Close() error {
	var errs []error
	if o.dirBuf != nil {
		if err := o.dirBuf.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush directory: %w", err))
		}
	}
	if o.dir != nil {
		if err := o.dir.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := o.data.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
