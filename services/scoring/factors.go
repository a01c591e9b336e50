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

import "strings"

// computeRetrievalConfidence scores how relevant the retrieved chunk set was,
// independent of what the answer actually says.
//
// Chunk i (in retrieval rank order) gets weight 1/(i+1), a harmonic decay
// that privileges top-ranked chunks without discarding the tail. The weighted
// average similarity is scaled by 100 and clamped to [0,100]. An empty chunk
// list scores 0; a chunk without a similarity contributes 0.0, not an error.
func computeRetrievalConfidence(chunks []SourceChunk) float64 {
	if len(chunks) == 0 {
		return 0
	}

	var weightedSum, totalWeight float64
	for i, chunk := range chunks {
		w := 1.0 / float64(i+1)
		weightedSum += chunk.Similarity * w
		totalWeight += w
	}

	return clamp(weightedSum/totalWeight*100, 0, 100)
}

// computeNumericalFidelity checks whether the numbers an answer asserts
// actually appear in the source documents.
//
// An answer with no numbers scores 100: the absence of quantitative claims
// cannot be penalized. Otherwise each answer number is normalized (commas and
// dollar signs stripped) and matched by substring containment against the
// similarly normalized source numbers, with raw containment in the full
// source text as a fallback for formats the regex normalization misses.
func computeNumericalFidelity(answer, sourceText string) float64 {
	answerNumbers := extractNumbers(answer)
	if len(answerNumbers) == 0 {
		return 100
	}

	sourceNumbers := extractNumbers(sourceText)
	normalizedSource := make([]string, len(sourceNumbers))
	for i, n := range sourceNumbers {
		normalizedSource[i] = normalizeNumber(n)
	}

	matched := 0
	for _, num := range answerNumbers {
		clean := normalizeNumber(num)
		found := false
		for _, sn := range normalizedSource {
			if strings.Contains(sn, clean) {
				found = true
				break
			}
		}
		if found || strings.Contains(sourceText, num) {
			matched++
		}
	}

	return float64(matched) / float64(len(answerNumbers)) * 100
}

// normalizeNumber strips grouping commas and currency symbols so "$25,000"
// and "25000" compare equal.
func normalizeNumber(n string) string {
	n = strings.ReplaceAll(n, ",", "")
	n = strings.ReplaceAll(n, "$", "")
	return strings.TrimSpace(n)
}

// computeEntityConsistency checks whether the named entities an answer
// mentions appear anywhere in the source documents.
//
// An answer with no detectable entities scores 100. Matching is
// case-insensitive substring containment against the concatenated source
// text.
func computeEntityConsistency(answer, sourceText string) float64 {
	entities := extractEntities(answer)
	if len(entities) == 0 {
		return 100
	}

	sourceLower := strings.ToLower(sourceText)
	matched := 0
	for _, entity := range entities {
		if strings.Contains(sourceLower, strings.ToLower(entity)) {
			matched++
		}
	}

	return float64(matched) / float64(len(entities)) * 100
}
