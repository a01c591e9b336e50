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
	"math"
	"sort"
)

// tfidfPrefilter narrows a large chunk set to the maxChunks most lexically
// relevant chunks before the expensive embedding-based comparison. This is
// what keeps grounding latency flat as corpora grow from tens to hundreds of
// passages: TF-IDF costs string scans, embeddings cost network calls.
//
// At or below the cap the input is returned unchanged with no scoring cost.
// If the answer tokenizes to nothing, the first maxChunks chunks are returned
// unchanged so the result stays deterministic. Ties are broken by original
// input order (stable sort). Selected chunks keep their full original
// structure, including retrieval similarity.
func tfidfPrefilter(answer string, chunks []SourceChunk, maxChunks int) []SourceChunk {
	if len(chunks) <= maxChunks {
		return chunks
	}

	answerTokens := tokenize(answer)
	if len(answerTokens) == 0 {
		return chunks[:maxChunks]
	}

	// Document frequency of every chunk token across the corpus.
	numDocs := len(chunks)
	docFreq := make(map[string]int)
	for _, chunk := range chunks {
		seen := make(map[string]struct{})
		for _, token := range tokenize(chunk.Text) {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			docFreq[token]++
		}
	}

	answerCounts := make(map[string]int)
	for _, token := range answerTokens {
		answerCounts[token]++
	}

	scores := make([]float64, len(chunks))
	for i, chunk := range chunks {
		chunkTokens := tokenize(chunk.Text)
		chunkCounts := make(map[string]int, len(chunkTokens))
		for _, token := range chunkTokens {
			chunkCounts[token]++
		}
		chunkLen := len(chunkTokens)
		if chunkLen == 0 {
			chunkLen = 1
		}

		var score float64
		for token, answerCount := range answerCounts {
			count, ok := chunkCounts[token]
			if !ok {
				continue
			}
			tf := float64(count) / float64(chunkLen)
			idf := math.Log(float64(numDocs+1) / float64(docFreq[token]+1))
			score += tf * idf * float64(answerCount)
		}
		scores[i] = score
	}

	order := make([]int, len(chunks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	selected := make([]SourceChunk, maxChunks)
	for i := 0; i < maxChunks; i++ {
		selected[i] = chunks[order[i]]
	}
	return selected
}
