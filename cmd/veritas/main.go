// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log/slog"
	"os"

	"github.com/AleutianAI/veritas/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "veritas",
	Short: "A CLI for scoring RAG answers against their sources",
	Long: `Veritas scores how well a generated answer is grounded in the
source passages it was generated from, producing a 0-100 trust score,
per-factor breakdowns, and a list of unsupported claims.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show log output on stderr")

	// Logs go to a file so the rendered report stays clean; --verbose
	// additionally mirrors them to stderr.
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = logging.New(logging.Config{
			Level:   level,
			LogDir:  "~/.veritas/logs",
			Service: "veritas",
			Quiet:   !verbose,
		})
		slog.SetDefault(logger.Slog())
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Close()
		}
	}
}

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
