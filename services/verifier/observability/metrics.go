// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the verifier service.
//
// # Description
//
// Metrics cover the analyze endpoints: request counters by endpoint and
// status, analysis latency histograms, trust score distribution, risk
// rating counters, and flagged claim totals.
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/AleutianAI/veritas/services/scoring"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "veritas"

// Subsystem for verifier metrics
const verifierSubsystem = "verifier"

// VerifierMetrics holds all Prometheus metrics for analyze operations.
//
// # Fields
//
//   - RequestsTotal: Counter of analyze requests by endpoint and status
//   - AnalysisDurationSeconds: Histogram of end-to-end analysis latency
//   - TrustScore: Histogram of overall trust scores (0-100)
//   - RatingsTotal: Counter of reports by risk rating
//   - FlaggedClaimsTotal: Counter of flagged (ungrounded) claims
//   - RetrievedChunks: Histogram of chunk counts on the query path
//   - ErrorsTotal: Counter of errors by endpoint and error type
//
// # Thread Safety
//
// All operations are thread-safe.
type VerifierMetrics struct {
	// RequestsTotal counts analyze requests by endpoint and status.
	// Labels: endpoint (analyze, analyze_query), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// AnalysisDurationSeconds measures end-to-end analysis latency.
	// Labels: endpoint
	AnalysisDurationSeconds *prometheus.HistogramVec

	// TrustScore observes the overall trust score of each report.
	TrustScore prometheus.Histogram

	// RatingsTotal counts reports by risk rating.
	// Labels: rating (low, medium, high)
	RatingsTotal *prometheus.CounterVec

	// FlaggedClaimsTotal counts flagged claims across all reports.
	FlaggedClaimsTotal prometheus.Counter

	// RetrievedChunks observes how many chunks the query path retrieved.
	RetrievedChunks prometheus.Histogram

	// ErrorsTotal counts errors by endpoint and error type.
	// Labels: endpoint, error_code (validation, retrieval_error, ...)
	ErrorsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of VerifierMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *VerifierMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once
// at application startup.
//
// # Outputs
//
//   - *VerifierMetrics: The initialized metrics instance.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *VerifierMetrics {
	DefaultMetrics = &VerifierMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: verifierSubsystem,
				Name:      "requests_total",
				Help:      "Total analyze requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		AnalysisDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: verifierSubsystem,
				Name:      "analysis_duration_seconds",
				Help:      "End-to-end analysis latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"endpoint"},
		),

		TrustScore: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: verifierSubsystem,
				Name:      "trust_score",
				Help:      "Distribution of overall trust scores",
				Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),

		RatingsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: verifierSubsystem,
				Name:      "ratings_total",
				Help:      "Total reports by risk rating",
			},
			[]string{"rating"},
		),

		FlaggedClaimsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: verifierSubsystem,
				Name:      "flagged_claims_total",
				Help:      "Total flagged claims across all reports",
			},
		),

		RetrievedChunks: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: verifierSubsystem,
				Name:      "retrieved_chunks",
				Help:      "Chunk counts retrieved on the analyze_query path",
				Buckets:   []float64{1, 2, 5, 10, 20, 50},
			},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: verifierSubsystem,
				Name:      "errors_total",
				Help:      "Total errors by endpoint and error type",
			},
			[]string{"endpoint", "error_code"},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Error Codes
// =============================================================================

// ErrorCode represents a categorized error type for metrics.
type ErrorCode string

const (
	// ErrorCodeValidation indicates request validation failure.
	ErrorCodeValidation ErrorCode = "validation"

	// ErrorCodeRetrieval indicates vector store retrieval failure.
	ErrorCodeRetrieval ErrorCode = "retrieval_error"

	// ErrorCodeScoring indicates engine or embedding provider failure.
	ErrorCodeScoring ErrorCode = "scoring_error"

	// ErrorCodeHistory indicates a report history write failure.
	ErrorCodeHistory ErrorCode = "history_error"
)

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint represents an analyze endpoint for metrics labeling.
type Endpoint string

const (
	// EndpointAnalyze is the inline-chunks analyze endpoint.
	EndpointAnalyze Endpoint = "analyze"

	// EndpointAnalyzeQuery is the retrieval-backed analyze endpoint.
	EndpointAnalyzeQuery Endpoint = "analyze_query"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed analyze request.
func (m *VerifierMetrics) RecordRequest(endpoint Endpoint, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordError records an analyze error.
func (m *VerifierMetrics) RecordError(endpoint Endpoint, code ErrorCode) {
	m.ErrorsTotal.WithLabelValues(string(endpoint), string(code)).Inc()
}

// RecordDuration records end-to-end analysis latency.
func (m *VerifierMetrics) RecordDuration(endpoint Endpoint, seconds float64) {
	m.AnalysisDurationSeconds.WithLabelValues(string(endpoint)).Observe(seconds)
}

// RecordReport records the score, rating, and flagged claim count of a
// completed report. Nil reports are ignored.
func (m *VerifierMetrics) RecordReport(report *scoring.HallucinationReport) {
	if report == nil {
		return
	}
	m.TrustScore.Observe(report.OverallScore)
	m.RatingsTotal.WithLabelValues(string(report.Rating)).Inc()
	m.FlaggedClaimsTotal.Add(float64(len(report.FlaggedClaims)))
}

// RecordRetrievedChunks records the retrieval depth of a query-path request.
func (m *VerifierMetrics) RecordRetrievedChunks(count int) {
	m.RetrievedChunks.Observe(float64(count))
}
