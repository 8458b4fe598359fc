// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

// Command imgtool inspects, extracts, packs, and edits IMG archives.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalOptions holds persistent flags shared by every subcommand.
type globalOptions struct {
	logFormat string
	verbose   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "imgtool",
		Short:         "imgtool - read and write GTA IMG archives",
		Long:          "imgtool inspects, extracts, packs, and edits V1 (.img + .dir) and V2 (VER2) IMG archives.",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log format: text or json")

	cmd.AddCommand(
		versionCmd(),
		inspectCmd(g),
		extractCmd(g),
		packCmd(g),
		editCmd(g),
	)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "imgtool %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		},
	}
}

// logger builds the command logger writing to w.
func (g *globalOptions) logger(w io.Writer) (*slog.Logger, error) {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	switch g.logFormat {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", g.logFormat)
	}
}
