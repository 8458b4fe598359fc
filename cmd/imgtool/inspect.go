// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	img "github.com/connorhaigh/gta-img"
	"github.com/spf13/cobra"
	"github.com/zeebo/blake3"
)

// inspectRow is one listed entry; Offset and Length are sectors.
type inspectRow struct {
	Name   string `json:"name"`
	Digest string `json:"blake3,omitempty"`
	Index  int    `json:"index"`
	Offset uint64 `json:"offset"`
	Length uint64 `json:"length"`
}

func inspectCmd(g *globalOptions) *cobra.Command {
	var af archiveFlags
	var digest bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "inspect <img>",
		Short: "List the entries of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := g.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			o, err := openArchive(args[0], af, logger)
			if err != nil {
				return err
			}
			defer func() { _ = o.Close() }()

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			if !jsonOut {
				fmt.Fprintf(out, "Archive %s (%s), %d entries\n", args[0], o.version, o.archive.Len())
			}

			for i, e := range o.archive.All() {
				row := inspectRow{Index: i, Name: e.Name, Offset: e.Offset, Length: e.Length}
				if digest {
					row.Digest, err = entryDigest(o.archive, i)
					if err != nil {
						return err
					}
				}

				if jsonOut {
					if err := enc.Encode(row); err != nil {
						return fmt.Errorf("encode entry %d: %w", i, err)
					}
					continue
				}

				fmt.Fprintf(out, "%5d  %-24s offset: %d, length: %d", row.Index, row.Name, row.Offset, row.Length)
				if row.Digest != "" {
					fmt.Fprintf(out, "  blake3: %s", row.Digest)
				}
				fmt.Fprintln(out)
			}

			if !jsonOut {
				fmt.Fprintf(out, "Inspected %d entries.\n", o.archive.Len())
			}

			return nil
		},
	}

	af.bind(cmd)
	cmd.Flags().BoolVar(&digest, "digest", false, "Add a BLAKE3-256 digest of each entry payload")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print one JSON object per entry")

	return cmd
}

// entryDigest hashes the full sector-aligned payload of entry index.
func entryDigest(a *img.Archive, index int) (string, error) {
	r, ok := a.Open(index)
	if !ok {
		return "", fmt.Errorf("%w: index %d", img.ErrEntryNotFound, index)
	}

	h := blake3.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("digest %s: %w", r.Entry().Name, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
