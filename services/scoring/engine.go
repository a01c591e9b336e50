// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// maxFlaggedClaims caps the flagged claim list in a report.
const maxFlaggedClaims = 10

// Engine is the hallucination scoring engine.
//
// # Description
//
// Engine runs the four grounding factors against an answer and its source
// chunks and assembles a HallucinationReport. The embedding provider is
// injected at construction (no global singleton), so tests can substitute a
// deterministic fake and callers can pick OpenAI, Ollama, or a local
// embedding service at process start.
//
// # Thread Safety
//
// Engine holds no mutable state; a single Engine may serve concurrent
// Analyze calls as long as the injected Embedder is reentrant.
type Engine struct {
	embedder Embedder
	cfg      Config
}

// NewEngine creates an Engine with the given embedding provider and
// configuration. A zero MaxGroundingChunks, EmbeddingBatchSize, or
// VolumeThreshold falls back to the corresponding default; a zero
// GroundingThreshold falls back to the default threshold.
func NewEngine(embedder Embedder, cfg Config) *Engine {
	defaults := DefaultConfig()
	if cfg.GroundingThreshold == 0 {
		cfg.GroundingThreshold = defaults.GroundingThreshold
	}
	if cfg.MaxGroundingChunks <= 0 {
		cfg.MaxGroundingChunks = defaults.MaxGroundingChunks
	}
	if cfg.EmbeddingBatchSize <= 0 {
		cfg.EmbeddingBatchSize = defaults.EmbeddingBatchSize
	}
	if cfg.VolumeThreshold <= 0 {
		cfg.VolumeThreshold = defaults.VolumeThreshold
	}
	return &Engine{embedder: embedder, cfg: cfg}
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Analyze runs the full scoring pipeline for one answer.
//
// # Description
//
// Computes the four factor scores, selects a weight profile from the corpus
// size, composes the overall score, and packages per-sentence detail and
// flagged claims into a report. Empty answers and empty chunk lists are not
// errors; they produce a zero grounding factor with no embedding calls. An
// embedding provider failure aborts the whole call; there are no retries
// inside the engine, so callers should treat Analyze as all-or-nothing.
//
// # Inputs
//
//   - ctx: Cancellation boundary for the embedding calls, the engine's only
//     suspend point.
//   - answer: The generated answer text under scrutiny.
//   - chunks: Retrieved source passages in retrieval rank order.
//   - query: The original user question. Accepted for interface symmetry and
//     a planned query-relevance factor; no current factor consumes it.
//
// # Outputs
//
//   - *HallucinationReport: The completed report. Never nil on success.
//   - error: Non-nil only on embedding failure.
func (e *Engine) Analyze(ctx context.Context, answer string, chunks []SourceChunk, query string) (*HallucinationReport, error) {
	_ = query // reserved, see doc comment

	ctx, span := tracer.Start(ctx, "scoring.Analyze")
	defer span.End()

	if err := initMetrics(); err != nil {
		slog.Warn("scoring metrics unavailable", "error", err)
	}
	start := time.Now()

	sourceText := buildSourceText(chunks)

	retrieval := computeRetrievalConfidence(chunks)

	grounding, details, err := computeResponseGrounding(ctx, e.embedder, answer, chunks, e.cfg)
	if err != nil {
		recordAnalysis(ctx, time.Since(start), "error", nil)
		return nil, fmt.Errorf("response grounding: %w", err)
	}
	grounding = clamp(grounding, 0, 100)

	numerical := computeNumericalFidelity(answer, sourceText)
	entity := computeEntityConsistency(answer, sourceText)

	weights := selectWeights(len(chunks), e.cfg.VolumeThreshold)
	overall := compose(retrieval, grounding, numerical, entity, weights)

	var flagged []string
	for _, d := range details {
		if d.IsGrounded {
			continue
		}
		flagged = append(flagged, d.Sentence)
		if len(flagged) == maxFlaggedClaims {
			break
		}
	}

	report := &HallucinationReport{
		OverallScore:        overall,
		RetrievalConfidence: round1(retrieval),
		ResponseGrounding:   round1(grounding),
		NumericalFidelity:   round1(numerical),
		EntityConsistency:   round1(entity),
		SentenceDetails:     details,
		FlaggedClaims:       flagged,
		Rating:              rateScore(overall),
	}

	recordAnalysis(ctx, time.Since(start), "success", report)

	slog.Debug("hallucination analysis complete",
		"overall_score", report.OverallScore,
		"rating", report.Rating,
		"sentences", len(details),
		"flagged", len(flagged),
		"chunks", len(chunks),
	)

	return report, nil
}

// recordAnalysis emits the per-call metrics. A nil report records only the
// outcome and duration.
func recordAnalysis(ctx context.Context, elapsed time.Duration, outcome string, report *HallucinationReport) {
	// A partway initMetrics failure leaves later instruments nil, so the
	// error gates recording as a whole.
	if metricsErr != nil || analysesTotal == nil {
		return
	}

	analysesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	analysisDuration.Record(ctx, elapsed.Seconds())

	if report == nil {
		return
	}
	overallScoreHistogram.Record(ctx, report.OverallScore)
	ratingsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("rating", string(report.Rating))))
	flaggedClaimsTotal.Add(ctx, int64(len(report.FlaggedClaims)))
}
