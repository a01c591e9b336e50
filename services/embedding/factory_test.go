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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(Config{Provider: "bedrock"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bedrock")
	})

	t.Run("local requires base url", func(t *testing.T) {
		_, err := New(Config{Provider: ProviderLocal})
		require.Error(t, err)
	})

	t.Run("local", func(t *testing.T) {
		embedder, err := New(Config{Provider: ProviderLocal, BaseURL: "http://localhost:8000"})
		require.NoError(t, err)
		local, ok := embedder.(*LocalEmbedder)
		require.True(t, ok)
		assert.Equal(t, "http://localhost:8000", local.BaseURL())
	})

	t.Run("openai with explicit key", func(t *testing.T) {
		embedder, err := New(Config{Provider: ProviderOpenAI, APIKey: "sk-test"})
		require.NoError(t, err)
		assert.IsType(t, &OpenAIEmbedder{}, embedder)
	})
}
