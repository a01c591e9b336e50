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

// WeightProfile maps the four factors to weights summing to 1.0.
//
// Two fixed profiles exist. They differ only in how much weight shifts from
// response grounding toward retrieval confidence at scale: with hundreds of
// chunks the aggregate retrieval signal becomes statistically more
// informative, while per-sentence grounding is computed against a pre-filtered
// subset and carries commensurately less of the verdict.
type WeightProfile struct {
	RetrievalConfidence float64 `json:"retrieval_confidence"`
	ResponseGrounding   float64 `json:"response_grounding"`
	NumericalFidelity   float64 `json:"numerical_fidelity"`
	EntityConsistency   float64 `json:"entity_consistency"`
}

// Sum returns the total of the four weights. Both shipped profiles sum to
// 1.0; the invariant is test-verified.
func (w WeightProfile) Sum() float64 {
	return w.RetrievalConfidence + w.ResponseGrounding + w.NumericalFidelity + w.EntityConsistency
}

// standardWeights applies below the volume threshold.
var standardWeights = WeightProfile{
	RetrievalConfidence: 0.25,
	ResponseGrounding:   0.35,
	NumericalFidelity:   0.20,
	EntityConsistency:   0.20,
}

// highVolumeWeights applies at or above the volume threshold.
var highVolumeWeights = WeightProfile{
	RetrievalConfidence: 0.30,
	ResponseGrounding:   0.30,
	NumericalFidelity:   0.20,
	EntityConsistency:   0.20,
}

// selectWeights picks the weight profile for a corpus of chunkCount passages.
// The boundary is inclusive: chunkCount >= volumeThreshold selects the
// high-volume profile.
func selectWeights(chunkCount, volumeThreshold int) WeightProfile {
	if chunkCount >= volumeThreshold {
		return highVolumeWeights
	}
	return standardWeights
}

// compose combines the four factor scores under the given weights, clamps to
// [0,100], and rounds to one decimal.
func compose(retrieval, grounding, numerical, entity float64, w WeightProfile) float64 {
	overall := retrieval*w.RetrievalConfidence +
		grounding*w.ResponseGrounding +
		numerical*w.NumericalFidelity +
		entity*w.EntityConsistency
	return round1(clamp(overall, 0, 100))
}

// rateScore classifies the overall score into a risk tier. The naming is
// inverted on purpose: "low" risk means high trust.
func rateScore(overall float64) Rating {
	switch {
	case overall >= 80:
		return RatingLow
	case overall >= 50:
		return RatingMedium
	default:
		return RatingHigh
	}
}
