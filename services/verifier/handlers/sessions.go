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
	"log/slog"
	"net/http"

	"github.com/AleutianAI/veritas/pkg/validation"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetSessionReports creates a gin handler for GET /api/sessions/:sessionId/reports.
//
// Returns all persisted reports for the session in chronological order.
func GetSessionReports(store ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "GetSessionReports.handler")
		defer span.End()

		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report history is not configured"})
			return
		}

		sessionID, err := validation.SanitizeSessionID(c.Param("sessionId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		span.SetAttributes(attribute.String("session.id", sessionID))
		slog.Info("Received request to list session reports", "sessionId", sessionID)

		records, err := store.List(ctx, sessionID)
		if err != nil {
			slog.Error("Failed to list session reports", "sessionId", sessionID, "error", err)
			span.RecordError(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list session reports"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id": sessionID,
			"count":      len(records),
			"reports":    records,
		})
	}
}

// DeleteSession creates a gin handler for DELETE /api/sessions/:sessionId.
//
// Removes all persisted reports for the session.
func DeleteSession(store ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "DeleteSession.handler")
		defer span.End()

		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report history is not configured"})
			return
		}

		sessionID, err := validation.SanitizeSessionID(c.Param("sessionId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		span.SetAttributes(attribute.String("session.id", sessionID))
		slog.Info("Received a request to delete a session", "sessionId", sessionID)

		deleted, err := store.DeleteSession(ctx, sessionID)
		if err != nil {
			slog.Error("Failed to delete session reports", "sessionId", sessionID, "error", err)
			span.RecordError(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fully delete session"})
			return
		}

		slog.Info("Successfully deleted all reports for session",
			"sessionId", sessionID, "deleted", deleted)
		c.JSON(http.StatusOK, gin.H{
			"status":             "success",
			"deleted_session_id": sessionID,
			"deleted_reports":    deleted,
		})
	}
}
