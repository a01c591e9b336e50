// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scoring implements the multi-factor hallucination scoring engine.
//
// The engine evaluates how well a generated answer is grounded in a set of
// retrieved source passages and produces a HallucinationReport with a 0-100
// trust score, four factor scores, per-sentence grounding detail, and a
// coarse risk rating.
//
// Factors:
//   - Retrieval confidence: how relevant was the retrieved chunk set overall
//   - Response grounding: per-sentence embedding similarity to sources
//   - Numerical fidelity: do numbers in the answer appear in the sources
//   - Entity consistency: do named entities in the answer appear in the sources
//
// The engine does not retrieve passages, generate answers, or verify factual
// truth beyond the supplied passages. It is a pure function of its inputs plus
// fixed configuration; concurrent Analyze calls are safe as long as the
// injected Embedder is reentrant.
package scoring

import "context"

// Embedder produces one embedding vector per input text, order-preserving.
//
// This is the engine's only external capability. Implementations live in
// services/embedding and are injected at construction time; the engine never
// constructs or mutates vectors itself.
//
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedBatch embeds a batch of passage texts. The returned slice has
	// exactly one vector per input text, in input order, all with the same
	// dimensionality.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// SourceChunk is a retrieved passage with its retrieval-time relevance score.
//
// Chunks are produced by the retrieval collaborator and are treated as
// immutable for the duration of one scoring call. Similarity is typically a
// cosine similarity in [-1,1] but is clamped defensively rather than trusted.
type SourceChunk struct {
	// Text is the passage content.
	Text string `json:"text"`

	// Source is the originating document identifier or filename.
	Source string `json:"source"`

	// Page is the 1-based page number within the source document.
	Page int `json:"page"`

	// Section is an optional section label within the document.
	Section string `json:"section,omitempty"`

	// Similarity is the retrieval-time relevance score. A missing value
	// decodes to 0.0, which is treated as "no signal", not an error.
	Similarity float64 `json:"similarity"`

	// DocumentID identifies the indexed document this chunk belongs to.
	DocumentID string `json:"document_id,omitempty"`
}

// SentenceGrounding is the grounding verdict for one qualifying answer sentence.
//
// Created once per scoring call and never mutated afterward.
type SentenceGrounding struct {
	// Sentence is the sentence text, truncated to 200 chars for display.
	Sentence string `json:"sentence"`

	// GroundingScore is the per-sentence score in [0,100].
	GroundingScore float64 `json:"grounding_score"`

	// BestSource is a human-readable "source, p<page>" label for the chunk
	// with the highest similarity to this sentence.
	BestSource string `json:"best_source"`

	// IsGrounded is true iff the best raw similarity exceeds the grounding
	// threshold (exclusive-above).
	IsGrounded bool `json:"is_grounded"`
}

// Rating is the coarse risk tier of a report.
//
// Note the intentionally inverted naming: "low" risk means high trust.
type Rating string

const (
	// RatingLow indicates a well grounded answer (overall score >= 80).
	RatingLow Rating = "low"

	// RatingMedium indicates a partially grounded answer (50-79).
	RatingMedium Rating = "medium"

	// RatingHigh indicates a likely hallucinated answer (< 50).
	RatingHigh Rating = "high"
)

// HallucinationReport is the engine's sole output. It is a value object with
// no lifecycle beyond the call that produced it.
type HallucinationReport struct {
	// OverallScore is the weighted combination of the four factor scores,
	// clamped to [0,100] and rounded to 1 decimal.
	OverallScore float64 `json:"overall_score"`

	// RetrievalConfidence scores the retrieved chunk set, 0-100.
	RetrievalConfidence float64 `json:"retrieval_confidence"`

	// ResponseGrounding scores per-sentence embedding support, 0-100.
	ResponseGrounding float64 `json:"response_grounding"`

	// NumericalFidelity scores number agreement with sources, 0-100.
	NumericalFidelity float64 `json:"numerical_fidelity"`

	// EntityConsistency scores entity agreement with sources, 0-100.
	EntityConsistency float64 `json:"entity_consistency"`

	// SentenceDetails holds one entry per qualifying answer sentence, in
	// order of appearance in the answer.
	SentenceDetails []SentenceGrounding `json:"sentence_details"`

	// FlaggedClaims lists at most 10 ungrounded sentences, in original order,
	// for human review.
	FlaggedClaims []string `json:"flagged_claims"`

	// Rating is the coarse risk tier derived from OverallScore.
	Rating Rating `json:"rating"`
}

// Config holds the fixed scoring configuration. Weights are not learned or
// calibrated at runtime.
type Config struct {
	// GroundingThreshold is the raw similarity above which a sentence counts
	// as grounded. The boundary is exclusive: bestSim > threshold.
	GroundingThreshold float64 `json:"grounding_threshold" yaml:"grounding_threshold"`

	// MaxGroundingChunks caps how many chunks the grounding factor embeds.
	// Above the cap the TF-IDF pre-filter selects the most relevant subset.
	MaxGroundingChunks int `json:"max_grounding_chunks" yaml:"max_grounding_chunks"`

	// EmbeddingBatchSize is the per-call batch size for the embedding
	// provider.
	EmbeddingBatchSize int `json:"embedding_batch_size" yaml:"embedding_batch_size"`

	// VolumeThreshold is the chunk count at or above which the high-volume
	// weight profile applies.
	VolumeThreshold int `json:"volume_threshold" yaml:"volume_threshold"`
}

// DefaultConfig returns the production defaults. These mirror the tuned
// values the trust pipeline ships with; change them only with fixture
// updates, since the thresholds encode specific grounded/ungrounded
// boundaries.
func DefaultConfig() Config {
	return Config{
		GroundingThreshold: 0.65,
		MaxGroundingChunks: 20,
		EmbeddingBatchSize: 50,
		VolumeThreshold:    50,
	}
}
