// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/veritas/pkg/validation"
	"github.com/AleutianAI/veritas/services/scoring"
	"github.com/AleutianAI/veritas/services/verifier/datatypes"
	"github.com/AleutianAI/veritas/services/verifier/history"
	"github.com/AleutianAI/veritas/services/verifier/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// =============================================================================
// Interfaces
// =============================================================================

// Analyzer scores an answer against retrieved source passages.
//
// Implemented by *scoring.Engine. Abstracted here so handler tests can
// inject fakes without an embedding backend.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Analyzer interface {
	Analyze(ctx context.Context, answer string, chunks []scoring.SourceChunk, query string) (*scoring.HallucinationReport, error)
}

// ChunkRetriever fetches the top passages for a query.
//
// Implemented by *retrieval.Searcher.
type ChunkRetriever interface {
	TopChunks(ctx context.Context, query, sessionID string, limit int) ([]scoring.SourceChunk, error)
}

// ReportStore persists and serves per-session report history.
//
// Implemented by *history.Store.
type ReportStore interface {
	Save(ctx context.Context, sessionID, answer string, report *scoring.HallucinationReport) (*history.Record, error)
	List(ctx context.Context, sessionID string) ([]history.Record, error)
	DeleteSession(ctx context.Context, sessionID string) (int, error)
}

// =============================================================================
// Handler Functions
// =============================================================================

// AnalyzeHallucination creates a gin handler for POST /api/hallucination/analyze.
//
// # Description
//
// Scores a generated answer against the source chunks supplied inline in
// the request body and returns the full hallucination report. When a
// history store is configured the report is persisted under the request's
// session; history failures are logged but do not fail the request.
//
// # Inputs
//
//   - engine: Scoring engine. Must not be nil.
//   - store: Optional report history store. Nil disables history.
//
// # Outputs
//
//   - gin.HandlerFunc: HTTP handler function
func AnalyzeHallucination(engine Analyzer, store ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "AnalyzeHallucination.handler")
		defer span.End()
		start := time.Now()

		var req datatypes.AnalyzeRequest
		if err := c.BindJSON(&req); err != nil {
			recordError(observability.EndpointAnalyze, observability.ErrorCodeValidation)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			recordError(observability.EndpointAnalyze, observability.ErrorCodeValidation)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.EnsureDefaults()

		sessionID, err := validation.SanitizeSessionID(req.SessionID)
		if err != nil {
			recordError(observability.EndpointAnalyze, observability.ErrorCodeValidation)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		span.SetAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("request.chunks", len(req.Chunks)),
		)
		slog.Info("Received analyze request",
			"sessionId", sessionID, "chunks", len(req.Chunks))

		report, err := engine.Analyze(ctx, req.Answer, req.Chunks, req.Query)
		if err != nil {
			slog.Error("Failed to score answer", "sessionId", sessionID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "scoring failed")
			recordError(observability.EndpointAnalyze, observability.ErrorCodeScoring)
			recordRequest(observability.EndpointAnalyze, false)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to score answer"})
			return
		}

		resp := datatypes.AnalyzeResponse{
			SessionID:           sessionID,
			HallucinationReport: *report,
		}
		if store != nil {
			record, err := store.Save(ctx, sessionID, req.Answer, report)
			if err != nil {
				// History is best-effort; the report still goes back to the caller.
				slog.Warn("Failed to persist report", "sessionId", sessionID, "error", err)
				recordError(observability.EndpointAnalyze, observability.ErrorCodeHistory)
			} else {
				resp.ReportID = record.ID
			}
		}

		span.SetAttributes(
			attribute.Float64("report.overall_score", report.OverallScore),
			attribute.String("report.rating", string(report.Rating)),
		)
		recordSuccess(observability.EndpointAnalyze, report, time.Since(start))

		c.JSON(http.StatusOK, resp)
	}
}

// AnalyzeQuery creates a gin handler for POST /api/hallucination/analyze_query.
//
// # Description
//
// The retrieval-backed variant: fetches the top-K chunks for the request
// query from the vector store, then scores the answer against them.
// Responds 400 when retrieval returns no chunks, and 503 when the service
// runs without a vector store.
//
// # Inputs
//
//   - engine: Scoring engine. Must not be nil.
//   - retriever: Chunk retriever. Nil means lightweight mode (no vector store).
//   - store: Optional report history store.
//
// # Outputs
//
//   - gin.HandlerFunc: HTTP handler function
func AnalyzeQuery(engine Analyzer, retriever ChunkRetriever, store ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "AnalyzeQuery.handler")
		defer span.End()
		start := time.Now()

		if retriever == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vector store is not configured"})
			return
		}

		var req datatypes.AnalyzeQueryRequest
		if err := c.BindJSON(&req); err != nil {
			recordError(observability.EndpointAnalyzeQuery, observability.ErrorCodeValidation)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			recordError(observability.EndpointAnalyzeQuery, observability.ErrorCodeValidation)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// A generated session ID must not scope retrieval; only filter by
		// session when the caller supplied one.
		callerSession := req.SessionID
		req.EnsureDefaults()

		sessionID, err := validation.SanitizeSessionID(req.SessionID)
		if err != nil {
			recordError(observability.EndpointAnalyzeQuery, observability.ErrorCodeValidation)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		retrievalSession := ""
		if callerSession != "" {
			retrievalSession = sessionID
		}

		span.SetAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("request.top_k", req.TopK),
		)

		chunks, err := retriever.TopChunks(ctx, req.Query, retrievalSession, req.TopK)
		if err != nil {
			slog.Error("Failed to retrieve chunks", "sessionId", sessionID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "retrieval failed")
			recordError(observability.EndpointAnalyzeQuery, observability.ErrorCodeRetrieval)
			recordRequest(observability.EndpointAnalyzeQuery, false)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve source chunks"})
			return
		}
		if len(chunks) == 0 {
			recordError(observability.EndpointAnalyzeQuery, observability.ErrorCodeRetrieval)
			c.JSON(http.StatusBadRequest, gin.H{"error": "no documents indexed for this query"})
			return
		}
		if m := observability.DefaultMetrics; m != nil {
			m.RecordRetrievedChunks(len(chunks))
		}

		report, err := engine.Analyze(ctx, req.Answer, chunks, req.Query)
		if err != nil {
			slog.Error("Failed to score answer", "sessionId", sessionID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "scoring failed")
			recordError(observability.EndpointAnalyzeQuery, observability.ErrorCodeScoring)
			recordRequest(observability.EndpointAnalyzeQuery, false)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to score answer"})
			return
		}

		resp := datatypes.AnalyzeResponse{
			SessionID:           sessionID,
			HallucinationReport: *report,
		}
		if store != nil {
			record, err := store.Save(ctx, sessionID, req.Answer, report)
			if err != nil {
				slog.Warn("Failed to persist report", "sessionId", sessionID, "error", err)
				recordError(observability.EndpointAnalyzeQuery, observability.ErrorCodeHistory)
			} else {
				resp.ReportID = record.ID
			}
		}

		span.SetAttributes(
			attribute.Float64("report.overall_score", report.OverallScore),
			attribute.String("report.rating", string(report.Rating)),
		)
		recordSuccess(observability.EndpointAnalyzeQuery, report, time.Since(start))

		c.JSON(http.StatusOK, resp)
	}
}

// =============================================================================
// Metrics Helpers
// =============================================================================

// The metrics singleton is nil in tests that never call InitMetrics.

func recordRequest(endpoint observability.Endpoint, success bool) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordRequest(endpoint, success)
	}
}

func recordError(endpoint observability.Endpoint, code observability.ErrorCode) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordError(endpoint, code)
	}
}

func recordSuccess(endpoint observability.Endpoint, report *scoring.HallucinationReport, elapsed time.Duration) {
	m := observability.DefaultMetrics
	if m == nil {
		return
	}
	m.RecordRequest(endpoint, true)
	m.RecordDuration(endpoint, elapsed.Seconds())
	m.RecordReport(report)
}
