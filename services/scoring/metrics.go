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
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for scoring operations.
var (
	tracer = otel.Tracer("veritas.scoring")
	meter  = otel.Meter("veritas.scoring")
)

// Metrics for scoring operations.
var (
	analysesTotal         metric.Int64Counter
	analysisDuration      metric.Float64Histogram
	overallScoreHistogram metric.Float64Histogram
	ratingsTotal          metric.Int64Counter
	flaggedClaimsTotal    metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		analysesTotal, err = meter.Int64Counter(
			"scoring_analyses_total",
			metric.WithDescription("Total hallucination analyses by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		analysisDuration, err = meter.Float64Histogram(
			"scoring_analysis_duration_seconds",
			metric.WithDescription("End-to-end analysis duration including embedding calls"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		overallScoreHistogram, err = meter.Float64Histogram(
			"scoring_overall_score",
			metric.WithDescription("Distribution of overall trust scores"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		ratingsTotal, err = meter.Int64Counter(
			"scoring_ratings_total",
			metric.WithDescription("Total reports by risk rating"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		flaggedClaimsTotal, err = meter.Int64Counter(
			"scoring_flagged_claims_total",
			metric.WithDescription("Total sentences flagged for human review"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}
