// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/veritas/services/embedding"
	"github.com/AleutianAI/veritas/services/scoring"
	"github.com/AleutianAI/veritas/services/verifier/config"
	"github.com/AleutianAI/veritas/services/verifier/handlers"
	"github.com/AleutianAI/veritas/services/verifier/history"
	"github.com/AleutianAI/veritas/services/verifier/middleware"
	"github.com/AleutianAI/veritas/services/verifier/observability"
	"github.com/AleutianAI/veritas/services/verifier/retrieval"
	"github.com/AleutianAI/veritas/services/verifier/routes"
	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc/credentials/insecure"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "veritas-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("verifier-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// initMeter installs a MeterProvider backed by the Prometheus exporter.
// The exporter registers as a collector with the default prometheus
// registry, so the promhttp handler on /metrics includes the engine's
// instruments alongside the verifier's native counters.
func initMeter() error {
	exporter, err := promexporter.New()
	if err != nil {
		return err
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String("verifier-service")))
	if err != nil {
		return err
	}
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter)))
	return nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("VERITAS_CONFIG"))
	if err != nil {
		log.Fatalf("FATAL: invalid configuration: %v", err)
	}

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	if err := initMeter(); err != nil {
		log.Fatalf("failed to setup the metric provider: %v", err)
	}

	observability.InitMetrics()

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		log.Fatalf("FATAL: could not initialize the embedding provider: %v", err)
	}
	slog.Info("Configured the embedding provider", "provider", cfg.Embedding.Provider)

	engine := scoring.NewEngine(embedder, cfg.Scoring)

	// Sanitize: Trim quotes and whitespace just in case Podman passes them literally
	weaviateURL := strings.Trim(cfg.WeaviateURL, "\"' ")

	var retriever handlers.ChunkRetriever

	// URL must exist AND have a scheme (http/https)
	if weaviateURL != "" && strings.Contains(weaviateURL, "http") {
		parsedURL, err := url.Parse(weaviateURL)
		if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
			slog.Warn("weaviate_url is invalid. Running in lightweight mode.",
				"url", weaviateURL, "error", err)
		} else {
			clientConf := weaviate.Config{
				Host:   parsedURL.Host,
				Scheme: parsedURL.Scheme,
			}
			weaviateClient, err := weaviate.NewClient(clientConf)
			if err != nil {
				slog.Error("Failed to create Weaviate client", "error", err)
			} else {
				retriever = retrieval.NewSearcher(weaviateClient, embedder)
			}
		}
	} else {
		slog.Info("weaviate_url not set. Running in lightweight mode (inline chunks only).")
	}

	var store handlers.ReportStore
	if cfg.HistoryPath != "" {
		historyCfg := history.DefaultConfig()
		historyCfg.Path = cfg.HistoryPath
		historyCfg.Logger = logger
		historyStore, err := history.Open(historyCfg)
		if err != nil {
			slog.Warn("Failed to open the report history store; history is disabled",
				"path", cfg.HistoryPath, "error", err)
		} else {
			defer historyStore.Close()
			store = historyStore
		}
	} else {
		slog.Info("history_path not set. Report history is disabled.")
	}

	var limiter *middleware.IPRateLimiter
	if cfg.RateRPS > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.RateRPS, cfg.RateBurst)
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("verifier-service"))

	routes.SetupRoutes(router, engine, retriever, store, limiter)

	log.Println("Starting the verifier server on port ", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
