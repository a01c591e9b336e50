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
	"math"
	"unicode/utf8"
)

// perfectSimilarity is the raw similarity that maps to a per-sentence score
// of 100. Anything above it is clamped; cosine similarity rarely exceeds 0.8
// for paraphrased text even when the claim is fully supported.
const perfectSimilarity = 0.8

// sentenceDisplayLimit caps sentence length in report detail entries.
const sentenceDisplayLimit = 200

// computeResponseGrounding runs the per-sentence grounding analysis, the
// algorithmic core of the engine.
//
// Pipeline:
//  1. Split the answer into qualifying sentences. An empty sentence list or
//     empty chunk list short-circuits to (0, nil) with zero embedding calls.
//  2. TF-IDF pre-filter the chunks to at most cfg.MaxGroundingChunks.
//  3. Batch-embed the sentences and the filtered chunk texts.
//  4. L2-normalize both embedding matrices row-wise and take their matrix
//     product, yielding the full m x n cosine similarity matrix in one pass
//     instead of an O(m*n) nested loop of per-pair cosine computations.
//  5. Per sentence, argmax over its row picks the best chunk (first index
//     wins ties). isGrounded iff bestSim > threshold, exclusive-above.
//     Per-sentence score is min(1, bestSim/0.8)*100.
//
// The factor score is the arithmetic mean of the per-sentence scores; the
// detail list preserves answer order.
func computeResponseGrounding(ctx context.Context, embedder Embedder, answer string, chunks []SourceChunk, cfg Config) (float64, []SentenceGrounding, error) {
	sentences := splitSentences(answer)
	if len(sentences) == 0 || len(chunks) == 0 {
		return 0, nil, nil
	}

	filtered := tfidfPrefilter(answer, chunks, cfg.MaxGroundingChunks)

	sentenceVectors, err := batchedEmbed(ctx, embedder, sentences, cfg.EmbeddingBatchSize)
	if err != nil {
		return 0, nil, fmt.Errorf("embed answer sentences: %w", err)
	}

	chunkTexts := make([]string, len(filtered))
	for i, c := range filtered {
		chunkTexts[i] = c.Text
	}
	chunkVectors, err := batchedEmbed(ctx, embedder, chunkTexts, cfg.EmbeddingBatchSize)
	if err != nil {
		return 0, nil, fmt.Errorf("embed source chunks: %w", err)
	}

	similarity := similarityMatrix(sentenceVectors, chunkVectors)

	details := make([]SentenceGrounding, 0, len(sentences))
	var total float64
	for i, sentence := range sentences {
		bestIdx, bestSim := argmax(similarity[i])
		best := filtered[bestIdx]

		// Linear rescale mapping raw similarity 0.8 to a perfect 100,
		// clamped to keep the factor inside [0,100] even for the negative
		// similarities an adversarial corpus can produce.
		score := clamp(bestSim/perfectSimilarity, 0, 1) * 100

		total += score
		details = append(details, SentenceGrounding{
			Sentence:       truncate(sentence, sentenceDisplayLimit),
			GroundingScore: round1(score),
			BestSource:     fmt.Sprintf("%s, p%d", best.Source, best.Page),
			IsGrounded:     bestSim > cfg.GroundingThreshold,
		})
	}

	return total / float64(len(sentences)), details, nil
}

// similarityMatrix computes the m x n cosine similarity matrix between two
// sets of row vectors by normalizing each row and multiplying.
//
// Rows with zero norm are given norm 1 instead of raising a division error;
// their similarity then degenerates to a plain dot product, effectively 0
// against any normalized partner.
func similarityMatrix(rows, cols [][]float32) [][]float64 {
	normedRows := l2NormalizeRows(rows)
	normedCols := l2NormalizeRows(cols)

	matrix := make([][]float64, len(normedRows))
	for i, row := range normedRows {
		matrix[i] = make([]float64, len(normedCols))
		for j, col := range normedCols {
			matrix[i][j] = dot(row, col)
		}
	}
	return matrix
}

// l2NormalizeRows returns a copy of the matrix with every row scaled to unit
// L2 norm. Zero-norm rows are left unscaled (treated as norm 1).
func l2NormalizeRows(rows [][]float32) [][]float64 {
	normed := make([][]float64, len(rows))
	for i, row := range rows {
		var sumSquares float64
		for _, v := range row {
			sumSquares += float64(v) * float64(v)
		}
		norm := math.Sqrt(sumSquares)
		if norm == 0 {
			norm = 1
		}

		out := make([]float64, len(row))
		for j, v := range row {
			out[j] = float64(v) / norm
		}
		normed[i] = out
	}
	return normed
}

// dot computes the dot product over the shared prefix of two vectors.
// Mismatched lengths indicate a misbehaving provider; the shorter length
// wins rather than panicking mid-analysis.
func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// argmax returns the index and value of the maximum element. The first
// occurrence wins ties, which keeps best-source attribution deterministic in
// pre-filter rank order.
func argmax(values []float64) (int, float64) {
	bestIdx := 0
	bestVal := math.Inf(-1)
	for i, v := range values {
		if v > bestVal {
			bestIdx = i
			bestVal = v
		}
	}
	return bestIdx, bestVal
}

// truncate shortens s to at most limit runes, never splitting a
// multi-byte character.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
