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
	"fmt"

	"github.com/AleutianAI/veritas/services/scoring"
)

// New creates the embedding provider named by cfg.Provider.
//
// Inputs:
//
//	cfg - Provider selection and parameters.
//
// Outputs:
//
//	scoring.Embedder - A ready provider.
//	error - Non-nil for an unknown provider or failed construction.
//
// Example:
//
//	embedder, err := embedding.New(embedding.Config{Provider: "ollama"})
//	if err != nil {
//	    return err
//	}
//	engine := scoring.NewEngine(embedder, scoring.DefaultConfig())
func New(cfg Config) (scoring.Embedder, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIEmbedder(cfg)
	case ProviderOllama:
		return NewOllamaEmbedder(cfg)
	case ProviderLocal:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("local embedding provider requires base_url")
		}
		return NewLocalEmbedder(cfg), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
