// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/veritas/services/scoring"
)

const scoreBarWidth = 24

// RenderReport formats a hallucination report for the terminal.
//
// In plain mode the output is tab-separated key-value lines suitable for
// scripting; otherwise it is a styled summary with per-factor score bars,
// flagged claims, and sentence-level detail.
func RenderReport(report *scoring.HallucinationReport) string {
	if report == nil {
		return ""
	}
	if plain {
		return renderPlainReport(report)
	}

	var b strings.Builder

	b.WriteString(Styles.Title.Render("Trust Score"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "  %s  %s\n\n",
		ScoreBar(report.OverallScore, scoreBarWidth),
		ratingBadge(report.Rating),
	)

	factors := []struct {
		name  string
		score float64
	}{
		{"Retrieval Confidence", report.RetrievalConfidence},
		{"Response Grounding", report.ResponseGrounding},
		{"Numerical Fidelity", report.NumericalFidelity},
		{"Entity Consistency", report.EntityConsistency},
	}
	for _, f := range factors {
		fmt.Fprintf(&b, "  %-22s %s\n", Styles.Subtitle.Render(f.name), ScoreBar(f.score, scoreBarWidth))
	}

	if len(report.FlaggedClaims) > 0 {
		b.WriteString("\n")
		b.WriteString(Styles.Warning.Bold(true).Render("Unsupported claims"))
		b.WriteString("\n")
		for _, claim := range report.FlaggedClaims {
			fmt.Fprintf(&b, "  %s %s\n", IconWarning.Render(), claim)
		}
	}

	if len(report.SentenceDetails) > 0 {
		b.WriteString("\n")
		b.WriteString(Styles.Muted.Render("Sentence grounding"))
		b.WriteString("\n")
		for _, d := range report.SentenceDetails {
			icon := IconSuccess
			if !d.IsGrounded {
				icon = IconError
			}
			fmt.Fprintf(&b, "  %s %5.1f  %s %s\n",
				icon.Render(),
				d.GroundingScore,
				d.Sentence,
				Styles.Muted.Render("("+d.BestSource+")"),
			)
		}
	}

	return b.String()
}

func renderPlainReport(report *scoring.HallucinationReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "overall\t%.1f\n", report.OverallScore)
	fmt.Fprintf(&b, "rating\t%s\n", report.Rating)
	fmt.Fprintf(&b, "retrieval_confidence\t%.1f\n", report.RetrievalConfidence)
	fmt.Fprintf(&b, "response_grounding\t%.1f\n", report.ResponseGrounding)
	fmt.Fprintf(&b, "numerical_fidelity\t%.1f\n", report.NumericalFidelity)
	fmt.Fprintf(&b, "entity_consistency\t%.1f\n", report.EntityConsistency)
	for _, claim := range report.FlaggedClaims {
		fmt.Fprintf(&b, "flagged\t%s\n", claim)
	}
	return b.String()
}

func ratingBadge(rating scoring.Rating) string {
	label := strings.ToUpper(string(rating)) + " RISK"
	switch rating {
	case scoring.RatingLow:
		return Styles.Success.Bold(true).Render(label)
	case scoring.RatingMedium:
		return Styles.Warning.Bold(true).Render(label)
	default:
		return Styles.Error.Bold(true).Render(label)
	}
}
