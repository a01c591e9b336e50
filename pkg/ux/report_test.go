// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"strings"
	"testing"

	"github.com/AleutianAI/veritas/services/scoring"
)

func sampleReport() *scoring.HallucinationReport {
	return &scoring.HallucinationReport{
		OverallScore:        72.5,
		RetrievalConfidence: 80.0,
		ResponseGrounding:   65.0,
		NumericalFidelity:   100.0,
		EntityConsistency:   50.0,
		Rating:              scoring.RatingMedium,
		FlaggedClaims:       []string{"The policy refunds every premium automatically."},
		SentenceDetails: []scoring.SentenceGrounding{
			{Sentence: "The premium is $25,000.", GroundingScore: 92.1, BestSource: "decl.pdf, p2", IsGrounded: true},
			{Sentence: "The policy refunds every premium automatically.", GroundingScore: 12.4, BestSource: "decl.pdf, p2", IsGrounded: false},
		},
	}
}

func TestRenderReport_Plain(t *testing.T) {
	prev := Plain()
	SetPlain(true)
	defer SetPlain(prev)

	out := RenderReport(sampleReport())

	for _, want := range []string{
		"overall\t72.5",
		"rating\tmedium",
		"retrieval_confidence\t80.0",
		"response_grounding\t65.0",
		"numerical_fidelity\t100.0",
		"entity_consistency\t50.0",
		"flagged\tThe policy refunds every premium automatically.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("plain report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderReport_Styled(t *testing.T) {
	prev := Plain()
	SetPlain(false)
	defer SetPlain(prev)

	out := RenderReport(sampleReport())

	for _, want := range []string{
		"Trust Score",
		"Retrieval Confidence",
		"Response Grounding",
		"Numerical Fidelity",
		"Entity Consistency",
		"Unsupported claims",
		"MEDIUM RISK",
		"decl.pdf, p2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("styled report missing %q", want)
		}
	}
}

func TestRenderReport_Nil(t *testing.T) {
	if out := RenderReport(nil); out != "" {
		t.Errorf("nil report should render empty, got %q", out)
	}
}

func TestScoreBar_Plain(t *testing.T) {
	prev := Plain()
	SetPlain(true)
	defer SetPlain(prev)

	if got := ScoreBar(42.5, 20); got != "42.5/100" {
		t.Errorf("ScoreBar plain = %q", got)
	}
}

func TestScoreBar_ClampsRange(t *testing.T) {
	prev := Plain()
	SetPlain(false)
	defer SetPlain(prev)

	// Out-of-range scores must not panic or produce negative repeats.
	_ = ScoreBar(-10, 20)
	_ = ScoreBar(150, 20)
}
