// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval fetches source chunks from Weaviate for the
// analyze_query path.
//
// The adapter embeds the query with the same provider the scoring engine
// uses, runs a nearVector search over the DocumentChunk class, and maps
// the hits into scoring.SourceChunk values with their certainty scores.
package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AleutianAI/veritas/services/scoring"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("veritas.verifier.retrieval")

// DefaultClass is the Weaviate class holding indexed document chunks.
const DefaultClass = "DocumentChunk"

// Searcher retrieves the most relevant chunks for a query.
//
// # Thread Safety
//
// Thread-safe. The Weaviate client handles connection pooling and the
// embedder is required to be reentrant.
type Searcher struct {
	client   *weaviate.Client
	embedder scoring.Embedder
	class    string
}

// NewSearcher creates a Searcher backed by Weaviate.
//
// Panics if client or embedder is nil (fail-fast for programming errors).
func NewSearcher(client *weaviate.Client, embedder scoring.Embedder) *Searcher {
	if client == nil {
		panic("NewSearcher: client must not be nil")
	}
	if embedder == nil {
		panic("NewSearcher: embedder must not be nil")
	}
	return &Searcher{
		client:   client,
		embedder: embedder,
		class:    DefaultClass,
	}
}

// documentChunk mirrors the Weaviate DocumentChunk fields we query.
type documentChunk struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	Page       float64 `json:"page"`
	Section    string  `json:"section"`
	DocumentID string  `json:"document_id"`
	Additional struct {
		Certainty float64 `json:"certainty"`
	} `json:"_additional"`
}

// chunkQueryResponse is the expected structure from Weaviate.
// Structure: {"Get": {"DocumentChunk": [...]}}
type chunkQueryResponse struct {
	Get struct {
		DocumentChunk []documentChunk `json:"DocumentChunk"`
	} `json:"Get"`
}

// TopChunks retrieves the limit most relevant chunks for a query.
//
// # Description
//
// Embeds the query, runs a nearVector search, and returns the hits as
// SourceChunks ordered by certainty. When sessionID is non-empty the
// search is filtered to documents indexed under that session.
//
// # Inputs
//
//   - ctx: Context for cancellation and tracing.
//   - query: The user query. Must be non-empty.
//   - sessionID: Optional session scope for the search.
//   - limit: Maximum number of chunks to return. Must be positive.
//
// # Outputs
//
//   - []scoring.SourceChunk: Retrieved chunks, may be empty.
//   - error: Non-nil if embedding or the Weaviate query failed.
func (s *Searcher) TopChunks(ctx context.Context, query, sessionID string, limit int) ([]scoring.SourceChunk, error) {
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	ctx, span := tracer.Start(ctx, "retrieval.TopChunks")
	defer span.End()
	span.SetAttributes(
		attribute.String("retrieval.class", s.class),
		attribute.Int("retrieval.limit", limit),
	)

	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query embedding failed")
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for the query", len(vectors))
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vectors[0])

	fields := []graphql.Field{
		{Name: "text"},
		{Name: "source"},
		{Name: "page"},
		{Name: "section"},
		{Name: "document_id"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "certainty"},
		}},
	}

	builder := s.client.GraphQL().Get().
		WithClassName(s.class).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(fields...)

	if sessionID != "" {
		whereFilter := filters.Where().
			WithPath([]string{"session_id"}).
			WithOperator(filters.Equal).
			WithValueString(sessionID)
		builder = builder.WithWhere(whereFilter)
	}

	result, err := builder.Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "weaviate query failed")
		return nil, fmt.Errorf("weaviate query failed: %w", err)
	}

	chunks, err := parseChunkResult(result.Data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("retrieval.hits", len(chunks)))
	return chunks, nil
}

// parseChunkResult turns the raw GraphQL response into SourceChunks.
// Uses the marshal/unmarshal pattern to handle type conversion.
func parseChunkResult(data interface{}) ([]scoring.SourceChunk, error) {
	rawBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %w", err)
	}

	var parsed chunkQueryResponse
	if err := json.Unmarshal(rawBytes, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	chunks := make([]scoring.SourceChunk, 0, len(parsed.Get.DocumentChunk))
	for _, hit := range parsed.Get.DocumentChunk {
		chunks = append(chunks, scoring.SourceChunk{
			Text:       hit.Text,
			Source:     hit.Source,
			Page:       int(hit.Page),
			Section:    hit.Section,
			DocumentID: hit.DocumentID,
			Similarity: hit.Additional.Certainty,
		})
	}
	return chunks, nil
}
