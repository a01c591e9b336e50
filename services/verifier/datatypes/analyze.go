// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the request and response types for the verifier
// service HTTP API.
package datatypes

import (
	"github.com/AleutianAI/veritas/services/scoring"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxAnswerBytes is the maximum size of the answer field.
	// Checks byte length, not rune count, to bound memory per request.
	MaxAnswerBytes = 32 * 1024 // 32KB

	// MaxChunksPerRequest is the maximum number of source chunks a caller
	// may send inline with an analyze request.
	MaxChunksPerRequest = 500

	// MaxTopK is the maximum number of chunks the query variant will
	// retrieve from the vector store.
	MaxTopK = 50

	// DefaultTopK is the retrieval depth when the caller does not specify one.
	DefaultTopK = 5
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// analyzeValidate is the validator instance for analyze datatypes.
// Initialized in init() with custom validators.
var analyzeValidate *validator.Validate

func init() {
	analyzeValidate = validator.New()

	_ = analyzeValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes validates that a string field does not exceed MaxAnswerBytes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	content := fl.Field().String()
	return len(content) <= MaxAnswerBytes
}

// =============================================================================
// Request Types
// =============================================================================

// AnalyzeRequest is the request body for POST /api/hallucination/analyze.
//
// # Description
//
// Carries a generated answer together with the source chunks it was
// generated from. The engine scores the answer against exactly these
// chunks; no retrieval happens on this path.
//
// # Fields
//
//   - Answer: Required. The generated answer to score. Max 32KB.
//   - Chunks: The retrieved passages the answer should be grounded in.
//     May be empty, in which case the report scores zero grounding.
//   - Query: Optional. The user query that produced the answer. Carried
//     through for context; currently unused by the scoring factors.
//   - SessionID: Optional. Groups reports in the history store. A UUID is
//     generated when absent.
type AnalyzeRequest struct {
	Answer    string                `json:"answer" validate:"required,maxbytes"`
	Chunks    []scoring.SourceChunk `json:"chunks" validate:"max=500,dive"`
	Query     string                `json:"query" validate:"maxbytes"`
	SessionID string                `json:"session_id"`
}

// Validate validates the AnalyzeRequest fields.
func (r *AnalyzeRequest) Validate() error {
	return analyzeValidate.Struct(r)
}

// EnsureDefaults populates default values for optional fields.
//
// # Description
//
// Generates a SessionID if not provided by the client so every report
// has a stable history key.
func (r *AnalyzeRequest) EnsureDefaults() {
	if r.SessionID == "" {
		r.SessionID = uuid.New().String()
	}
}

// AnalyzeQueryRequest is the request body for POST /api/hallucination/analyze_query.
//
// # Description
//
// The retrieval-backed variant: the caller sends the answer and the query
// only, and the service fetches the top-K chunks from the vector store
// before scoring.
//
// # Fields
//
//   - Answer: Required. The generated answer to score. Max 32KB.
//   - Query: Required. The query used to retrieve source chunks.
//   - SessionID: Optional. Groups reports in the history store, and scopes
//     retrieval to documents indexed under the same session when set.
//   - TopK: Optional. Retrieval depth, 1-50. Defaults to 5.
type AnalyzeQueryRequest struct {
	Answer    string `json:"answer" validate:"required,maxbytes"`
	Query     string `json:"query" validate:"required,maxbytes"`
	SessionID string `json:"session_id"`
	TopK      int    `json:"top_k" validate:"gte=0,lte=50"`
}

// Validate validates the AnalyzeQueryRequest fields.
func (r *AnalyzeQueryRequest) Validate() error {
	return analyzeValidate.Struct(r)
}

// EnsureDefaults populates default values for optional fields.
func (r *AnalyzeQueryRequest) EnsureDefaults() {
	if r.SessionID == "" {
		r.SessionID = uuid.New().String()
	}
	if r.TopK == 0 {
		r.TopK = DefaultTopK
	}
}

// =============================================================================
// Response Types
// =============================================================================

// AnalyzeResponse is the response body for both analyze endpoints.
//
// The full HallucinationReport is embedded at the top level so clients
// that only care about the report can decode it directly.
type AnalyzeResponse struct {
	SessionID string `json:"session_id"`
	ReportID  string `json:"report_id,omitempty"`
	scoring.HallucinationReport
}
