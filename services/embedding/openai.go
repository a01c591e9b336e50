// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// defaultOpenAIModel matches the dimensionality the rest of the pipeline is
// tuned for (3072-dim vectors).
const defaultOpenAIModel = string(openai.LargeEmbedding3)

// OpenAIEmbedder embeds text through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// NewOpenAIEmbedder creates an embedder backed by the OpenAI API.
//
// The API key comes from cfg.APIKey, then the OPENAI_API_KEY environment
// variable, then the Podman secrets file, in that order.
func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err == nil {
			apiKey = strings.TrimSpace(string(apiKeyBytes))
			slog.Info("Read the OpenAI API Key from Podman Secrets")
		} else {
			slog.Error("OPENAI_API_KEY not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
		slog.Warn("embedding model not set, defaulting", "model", model)
	}
	slog.Info("Initializing OpenAI embedder", "model", model, "dimensions", cfg.Dimensions)

	return &OpenAIEmbedder{
		client:     openai.NewClient(apiKey),
		model:      openai.EmbeddingModel(model),
		dimensions: cfg.Dimensions,
	}, nil
}

// EmbedBatch implements the scoring engine's embedder contract.
//
// The API does not guarantee response ordering, so vectors are reassembled
// by the per-item Index field before returning.
func (o *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if ctx == nil {
		return nil, ErrInvalidInput
	}
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequestStrings{
		Input: texts,
		Model: o.model,
	}
	if o.dimensions > 0 {
		req.Dimensions = o.dimensions
	}

	resp, err := o.client.CreateEmbeddings(ctx, req)
	if err != nil {
		slog.Error("OpenAI embeddings call failed", "error", err, "texts", len(texts))
		return nil, fmt.Errorf("OpenAI embeddings call failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("OpenAI returned %d vectors for %d texts", len(resp.Data), len(texts))
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	vectors := make([][]float32, len(texts))
	for i, item := range resp.Data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}
