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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AleutianAI/veritas/pkg/ux"
	"github.com/AleutianAI/veritas/services/embedding"
	"github.com/AleutianAI/veritas/services/scoring"
	"github.com/AleutianAI/veritas/services/verifier/config"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	analyzeInputPath  string        // JSON fixture with answer + chunks
	analyzeJSONOutput bool          // Output the raw report as JSON
	analyzePlain      bool          // Force plain (non-styled) output
	analyzeTimeout    time.Duration // Budget for the scoring run
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// analyzeCmd scores an answer fixture locally, without the HTTP service.
//
// # Description
//
// Loads a JSON file with the answer and its source chunks, runs the
// scoring engine against the configured embedding backend, and renders
// the trust report to the terminal.
//
// # Examples
//
//	veritas analyze --input report.json
//	veritas analyze --input report.json --json
//	EMBEDDING_BACKEND=ollama veritas analyze --input report.json
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a generated answer against its source passages",
	Long: `Runs the hallucination scoring engine locally against a JSON fixture.

The input file carries the answer and the retrieved source chunks:

  {
    "answer": "The policy covers flood damage up to $250,000.",
    "query": "does my policy cover floods",
    "chunks": [
      {"text": "...", "source": "policy.pdf", "page": 3, "similarity": 0.91}
    ]
  }

The embedding backend is selected from the environment (EMBEDDING_BACKEND,
EMBEDDING_MODEL_NAME, EMBEDDING_SERVICE_URL) or a YAML config pointed at
by VERITAS_CONFIG.

Examples:
  veritas analyze --input report.json          # Styled terminal report
  veritas analyze --input report.json --json   # Raw report JSON
  veritas analyze --input report.json --plain  # Machine-readable lines`,
	RunE: runAnalyzeCommand,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInputPath, "input", "i", "",
		"JSON file with the answer and source chunks (required)")
	analyzeCmd.Flags().BoolVar(&analyzeJSONOutput, "json", false,
		"Output the raw report as JSON for scripting")
	analyzeCmd.Flags().BoolVar(&analyzePlain, "plain", false,
		"Force plain output without terminal styling")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute,
		"Budget for the scoring run")
	_ = analyzeCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(analyzeCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// analyzeInput is the JSON fixture format for the analyze command.
type analyzeInput struct {
	Answer string                `json:"answer"`
	Query  string                `json:"query"`
	Chunks []scoring.SourceChunk `json:"chunks"`
}

// loadAnalyzeInput reads and validates the fixture file.
func loadAnalyzeInput(path string) (*analyzeInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the input file: %w", err)
	}

	var input analyzeInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse the input file: %w", err)
	}
	if input.Answer == "" {
		return nil, errors.New("the input file must contain a non-empty \"answer\"")
	}
	return &input, nil
}

func runAnalyzeCommand(cmd *cobra.Command, args []string) error {
	if analyzePlain {
		ux.SetPlain(true)
	}

	input, err := loadAnalyzeInput(analyzeInputPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load(os.Getenv("VERITAS_CONFIG"))
	if err != nil {
		return err
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("could not initialize the embedding provider: %w", err)
	}
	engine := scoring.NewEngine(embedder, cfg.Scoring)

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	report, err := engine.Analyze(ctx, input.Answer, input.Chunks, input.Query)
	if err != nil {
		return fmt.Errorf("scoring failed: %w", err)
	}

	if analyzeJSONOutput {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Print(ux.RenderReport(report))
	return nil
}
