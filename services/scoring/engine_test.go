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
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns a fixed vector per input text. Texts without an entry
// in vectors get the fallback vector, so a test can make every sentence and
// chunk collide or diverge without enumerating them all.
type fakeEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	batches  [][]string
	calls    int
	err      error
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			out[i] = v
			continue
		}
		out[i] = f.fallback
	}
	return out, nil
}

func TestNewEngineDefaults(t *testing.T) {
	engine := NewEngine(&fakeEmbedder{}, Config{})
	assert.Equal(t, DefaultConfig(), engine.Config())
}

func TestNewEngineKeepsExplicitConfig(t *testing.T) {
	cfg := Config{
		GroundingThreshold: 0.5,
		MaxGroundingChunks: 5,
		EmbeddingBatchSize: 10,
		VolumeThreshold:    100,
	}
	engine := NewEngine(&fakeEmbedder{}, cfg)
	assert.Equal(t, cfg, engine.Config())
}

func TestAnalyzeEmptyAnswer(t *testing.T) {
	embedder := &fakeEmbedder{}
	engine := NewEngine(embedder, Config{})

	chunks := []SourceChunk{{Text: "some source text", Source: "doc.pdf", Similarity: 0.9}}
	report, err := engine.Analyze(context.Background(), "", chunks, "")
	require.NoError(t, err)

	assert.Zero(t, report.ResponseGrounding)
	assert.Empty(t, report.SentenceDetails)
	assert.Empty(t, report.FlaggedClaims)
	assert.Zero(t, embedder.calls, "empty answer must not reach the provider")
}

func TestAnalyzeEmptyChunks(t *testing.T) {
	embedder := &fakeEmbedder{}
	engine := NewEngine(embedder, Config{})

	report, err := engine.Analyze(context.Background(), "This answer cites nothing at all.", nil, "")
	require.NoError(t, err)

	assert.Zero(t, report.RetrievalConfidence)
	assert.Zero(t, report.ResponseGrounding)
	assert.Empty(t, report.SentenceDetails)
	assert.Zero(t, embedder.calls, "empty chunk list must not reach the provider")
}

func TestAnalyzeWellGroundedAnswer(t *testing.T) {
	embedder := &fakeEmbedder{fallback: []float32{1, 0, 0}}
	engine := NewEngine(embedder, Config{})

	answer := "The policy covers flood damage."
	chunks := []SourceChunk{
		{Text: "flood damage is covered", Source: "policy.pdf", Page: 3, Similarity: 0.9},
	}

	report, err := engine.Analyze(context.Background(), answer, chunks, "does the policy cover floods")
	require.NoError(t, err)

	assert.Equal(t, 100.0, report.ResponseGrounding)
	assert.Equal(t, 90.0, report.RetrievalConfidence)
	assert.Equal(t, 100.0, report.NumericalFidelity)
	assert.Equal(t, 100.0, report.EntityConsistency)
	assert.Equal(t, RatingLow, report.Rating)
	assert.Empty(t, report.FlaggedClaims)

	require.Len(t, report.SentenceDetails, 1)
	assert.True(t, report.SentenceDetails[0].IsGrounded)
	assert.Equal(t, "policy.pdf, p3", report.SentenceDetails[0].BestSource)
}

func TestAnalyzeUngroundedAnswer(t *testing.T) {
	// Sentences embed to the fallback vector, chunks to an orthogonal one,
	// so every sentence scores zero similarity.
	chunkText := "the declarations page lists coverage limits"
	embedder := &fakeEmbedder{
		vectors:  map[string][]float32{chunkText: {0, 1}},
		fallback: []float32{1, 0},
	}
	engine := NewEngine(embedder, Config{})

	answer := "The policy refunds every premium automatically. All claims are approved without review."
	chunks := []SourceChunk{{Text: chunkText, Source: "decl.pdf", Page: 1, Similarity: 0.3}}

	report, err := engine.Analyze(context.Background(), answer, chunks, "")
	require.NoError(t, err)

	assert.Zero(t, report.ResponseGrounding)
	assert.Equal(t, RatingHigh, report.Rating)
	require.Len(t, report.SentenceDetails, 2)
	for _, d := range report.SentenceDetails {
		assert.False(t, d.IsGrounded)
	}
	assert.Len(t, report.FlaggedClaims, 2)
}

func TestAnalyzeFlaggedClaimsCap(t *testing.T) {
	chunkText := "an unrelated passage about something else entirely"
	embedder := &fakeEmbedder{
		vectors:  map[string][]float32{chunkText: {0, 1}},
		fallback: []float32{1, 0},
	}
	engine := NewEngine(embedder, Config{})

	var sb strings.Builder
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&sb, "Fabricated statement number %d appears right here. ", i)
	}
	chunks := []SourceChunk{{Text: chunkText, Source: "doc.pdf", Similarity: 0.2}}

	report, err := engine.Analyze(context.Background(), sb.String(), chunks, "")
	require.NoError(t, err)

	require.Len(t, report.SentenceDetails, 15, "all sentences keep their detail rows")
	assert.Len(t, report.FlaggedClaims, maxFlaggedClaims, "flagged claims are capped")
}

func TestAnalyzeChunkCapReachesProvider(t *testing.T) {
	embedder := &fakeEmbedder{fallback: []float32{1, 0}}
	engine := NewEngine(embedder, Config{})

	answer := "This answer mentions filler content body material."
	report, err := engine.Analyze(context.Background(), answer, makeChunks(200), "")
	require.NoError(t, err)
	require.NotNil(t, report)

	// First batch carries the sentences, second the capped chunk texts.
	require.Len(t, embedder.batches, 2)
	assert.Len(t, embedder.batches[0], 1)
	assert.Len(t, embedder.batches[1], DefaultConfig().MaxGroundingChunks)
}

func TestAnalyzeEmbedderErrorAborts(t *testing.T) {
	sentinel := errors.New("provider down")
	embedder := &fakeEmbedder{err: sentinel}
	engine := NewEngine(embedder, Config{})

	chunks := []SourceChunk{{Text: "source", Source: "doc.pdf", Similarity: 0.5}}
	report, err := engine.Analyze(context.Background(), "An answer with enough words here.", chunks, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Nil(t, report)
}

func TestAnalyzeScoreBoundsAndRounding(t *testing.T) {
	embedder := &fakeEmbedder{fallback: []float32{1, 0, 0}}
	engine := NewEngine(embedder, Config{})

	answer := "The premium is $25,000 per year. Coverage starts on renewal."
	chunks := []SourceChunk{
		{Text: "annual premium: $25,000, effective at renewal", Source: "decl.pdf", Page: 2, Similarity: 2.0 / 3.0},
	}

	report, err := engine.Analyze(context.Background(), answer, chunks, "")
	require.NoError(t, err)

	scores := map[string]float64{
		"overall":   report.OverallScore,
		"retrieval": report.RetrievalConfidence,
		"grounding": report.ResponseGrounding,
		"numerical": report.NumericalFidelity,
		"entity":    report.EntityConsistency,
	}
	for name, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0, name)
		assert.LessOrEqual(t, s, 100.0, name)
		assert.Equal(t, round1(s), s, "%s must carry one decimal", name)
	}
	assert.Equal(t, 66.7, report.RetrievalConfidence)
}

func TestRecordAnalysisSkipsAfterPartialMetricsInit(t *testing.T) {
	savedErr := metricsErr
	savedDuration := analysisDuration
	defer func() {
		metricsErr = savedErr
		analysisDuration = savedDuration
	}()

	// Simulate initMetrics failing after the first instrument: the error
	// is set and a later instrument is nil.
	metricsErr = errors.New("meter unavailable")
	analysisDuration = nil

	assert.NotPanics(t, func() {
		recordAnalysis(context.Background(), 0, "success", &HallucinationReport{Rating: RatingLow})
	})
}

func TestAnalyzeVolumeWeightSwitch(t *testing.T) {
	// 50 chunks trips the high-volume profile, which weighs retrieval
	// confidence more heavily. With retrieval at 100 and grounding at 0 the
	// high-volume score must come out strictly higher.
	score := func(n int) float64 {
		embedder := &fakeEmbedder{
			vectors:  map[string][]float32{"The answer drifts away from sources.": {1, 0}},
			fallback: []float32{0, 1},
		}
		engine := NewEngine(embedder, Config{})

		chunks := make([]SourceChunk, n)
		for i := range chunks {
			chunks[i] = SourceChunk{Text: fmt.Sprintf("chunk body %d", i), Source: "doc.pdf", Similarity: 1.0}
		}
		report, err := engine.Analyze(context.Background(), "The answer drifts away from sources.", chunks, "")
		require.NoError(t, err)
		return report.OverallScore
	}

	assert.Greater(t, score(50), score(49))
}
