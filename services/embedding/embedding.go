// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package embedding provides the concrete embedding providers the scoring
// engine runs against: OpenAI, a local Ollama daemon, or a self-hosted
// embedding service speaking the batch_embed HTTP protocol.
package embedding

import (
	"errors"
	"time"
)

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderLocal  = "local"
)

// DefaultTimeout bounds a single provider round trip.
const DefaultTimeout = 30 * time.Second

// ErrInvalidInput indicates a nil context or empty input.
var ErrInvalidInput = errors.New("invalid input")

// Config selects and parameterizes an embedding provider.
type Config struct {
	// Provider is one of "openai", "ollama", or "local".
	Provider string `yaml:"provider" validate:"required,oneof=openai ollama local"`

	// Model names the embedding model. Defaults depend on the provider.
	Model string `yaml:"model"`

	// APIKey authenticates against OpenAI. Ignored by the other providers.
	APIKey string `yaml:"api_key"`

	// BaseURL points at the Ollama daemon or the local embedding service.
	BaseURL string `yaml:"base_url"`

	// Dimensions requests a specific vector width where the provider
	// supports it. Zero leaves the model default in place.
	Dimensions int `yaml:"dimensions"`

	// Timeout bounds each provider round trip. Zero uses DefaultTimeout.
	Timeout time.Duration `yaml:"timeout"`
}
