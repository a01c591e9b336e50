// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeRequestValidate(t *testing.T) {
	t.Run("valid minimal request", func(t *testing.T) {
		req := AnalyzeRequest{Answer: "The policy covers flood damage."}
		assert.NoError(t, req.Validate())
	})

	t.Run("missing answer fails", func(t *testing.T) {
		req := AnalyzeRequest{}
		assert.Error(t, req.Validate())
	})

	t.Run("oversized answer fails", func(t *testing.T) {
		req := AnalyzeRequest{Answer: strings.Repeat("a", MaxAnswerBytes+1)}
		assert.Error(t, req.Validate())
	})

	t.Run("answer at limit passes", func(t *testing.T) {
		req := AnalyzeRequest{Answer: strings.Repeat("a", MaxAnswerBytes)}
		assert.NoError(t, req.Validate())
	})
}

func TestAnalyzeRequestEnsureDefaults(t *testing.T) {
	t.Run("generates session id", func(t *testing.T) {
		req := AnalyzeRequest{Answer: "hello"}
		req.EnsureDefaults()
		_, err := uuid.Parse(req.SessionID)
		require.NoError(t, err)
	})

	t.Run("keeps explicit session id", func(t *testing.T) {
		req := AnalyzeRequest{Answer: "hello", SessionID: "sess-1"}
		req.EnsureDefaults()
		assert.Equal(t, "sess-1", req.SessionID)
	})
}

func TestAnalyzeQueryRequestValidate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		req := AnalyzeQueryRequest{Answer: "a", Query: "q", TopK: 10}
		assert.NoError(t, req.Validate())
	})

	t.Run("missing query fails", func(t *testing.T) {
		req := AnalyzeQueryRequest{Answer: "a"}
		assert.Error(t, req.Validate())
	})

	t.Run("top_k above limit fails", func(t *testing.T) {
		req := AnalyzeQueryRequest{Answer: "a", Query: "q", TopK: MaxTopK + 1}
		assert.Error(t, req.Validate())
	})
}

func TestAnalyzeQueryRequestEnsureDefaults(t *testing.T) {
	req := AnalyzeQueryRequest{Answer: "a", Query: "q"}
	req.EnsureDefaults()
	assert.Equal(t, DefaultTopK, req.TopK)
	assert.NotEmpty(t, req.SessionID)
}
