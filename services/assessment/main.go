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
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/AleutianAssess/pkg/logging"
	"github.com/AleutianAI/AleutianAssess/services/assessment/config"
	"github.com/AleutianAI/AleutianAssess/services/assessment/observability"
	"github.com/AleutianAI/AleutianAssess/services/assessment/routes"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "aleutian-otel-collector:4317"
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
		resource.WithAttributes(semconv.ServiceNameKey.String("assessment-service")))
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

func main() {
	port := os.Getenv("ASSESS_PORT")
	if port == "" {
		port = "12230"
	}
	configDir := os.Getenv("ASSESS_CONFIG_DIR")
	if configDir == "" {
		configDir = "/app/configs"
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		Service: "assessment",
		LogDir:  os.Getenv("ASSESS_LOG_DIR"),
	})
	defer logger.Close()

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	metrics := observability.InitMetrics()

	store, err := config.NewStore(configDir, logger)
	if err != nil {
		log.Fatalf("FATAL: could not load assessment configuration from %s: %v", configDir, err)
	}
	slog.Info("assessment configuration loaded",
		"dir", configDir, "version", store.Version())

	// Hot reload: debounced watcher over the config tree. A failed reload
	// keeps the last good configuration serving.
	watcher, err := config.NewWatcher(configDir, func(changed []string) {
		slog.Info("config change detected", "files", changed)
		err := store.Reload()
		metrics.RecordConfigReload(observability.TriggerWatcher, err == nil)
	}, nil)
	if err != nil {
		log.Fatalf("failed to create config watcher: %v", err)
	}
	defer watcher.Stop()
	if err := watcher.Start(context.Background()); err != nil {
		log.Fatalf("failed to start config watcher: %v", err)
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("assessment-service"))

	routes.SetupRoutes(router, store)

	log.Println("Starting the assessment server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
