// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scoring

import (
	"context"
	"fmt"
)

// batchedEmbed is the gateway between the engine and the embedding provider's
// batching limits. It splits texts into batches of batchSize, calls the
// provider per batch, and concatenates the results in order.
//
// Empty input returns an empty result without touching the provider; this is
// the only suspend point in the whole engine, so callers that need deadlines
// cancel here via ctx. A provider error aborts the call with no retries.
func batchedEmbed(ctx context.Context, embedder Embedder, texts []string, batchSize int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		batchVectors, err := embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		if len(batchVectors) != len(batch) {
			return nil, fmt.Errorf("embed batch [%d:%d]: provider returned %d vectors for %d texts", start, end, len(batchVectors), len(batch))
		}
		vectors = append(vectors, batchVectors...)
	}
	return vectors, nil
}
