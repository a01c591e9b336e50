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

	"github.com/tmc/langchaingo/llms/ollama"
)

const defaultOllamaModel = "nomic-embed-text"

// OllamaEmbedder embeds text through a local Ollama daemon.
type OllamaEmbedder struct {
	llm *ollama.LLM
}

// NewOllamaEmbedder creates an embedder backed by Ollama. An empty BaseURL
// uses the daemon default (http://localhost:11434).
func NewOllamaEmbedder(cfg Config) (*OllamaEmbedder, error) {
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
		slog.Warn("embedding model not set, defaulting", "model", model)
	}

	opts := []ollama.Option{ollama.WithModel(model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}

	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	slog.Info("Initializing Ollama embedder", "model", model, "url", cfg.BaseURL)
	return &OllamaEmbedder{llm: llm}, nil
}

// EmbedBatch implements the scoring engine's embedder contract.
func (o *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if ctx == nil {
		return nil, ErrInvalidInput
	}
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := o.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		slog.Error("Ollama embedding call failed", "error", err, "texts", len(texts))
		return nil, fmt.Errorf("ollama embedding call failed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}
