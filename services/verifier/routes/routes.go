// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/AleutianAI/veritas/services/verifier/handlers"
	"github.com/AleutianAI/veritas/services/verifier/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers all verifier routes.
//
// retriever and store may be nil; the affected endpoints then respond
// with 503. limiter may be nil to disable rate limiting.
func SetupRoutes(router *gin.Engine, engine handlers.Analyzer, retriever handlers.ChunkRetriever,
	store handlers.ReportStore, limiter *middleware.IPRateLimiter) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		hallucination := api.Group("/hallucination")
		hallucination.Use(middleware.RateLimit(limiter))
		{
			hallucination.POST("/analyze", handlers.AnalyzeHallucination(engine, store))
			hallucination.POST("/analyze_query", handlers.AnalyzeQuery(engine, retriever, store))
		}
		// Session administration routes
		sessions := api.Group("/sessions")
		{
			sessions.GET("/:sessionId/reports", handlers.GetSessionReports(store))
			sessions.DELETE("/:sessionId", handlers.DeleteSession(store))
		}
	}
}
