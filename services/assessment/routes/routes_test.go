// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianAssess/pkg/logging"
	"github.com/AleutianAI/AleutianAssess/services/assessment/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const routesScoring = `
dimensions:
  - id: autonomy
    aggregation: max
    questions:
      - id: autonomy
        scores:
          suggests: 1
          autonomous: 4
risk_thresholds:
  - min_score: 1
    max_score: 2
    level: low
  - min_score: 3
    max_score: 4
    level: high
`

func testStore(t *testing.T) *config.Store {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ScoringFileName), []byte(routesScoring), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.RecommendationsFileName), []byte("by_risk_level: {}\n"), 0o644))

	logger := logging.New(logging.Config{Level: logging.LevelError, Quiet: true})
	t.Cleanup(func() { logger.Close() })

	store, err := config.NewStore(dir, logger)
	require.NoError(t, err)
	return store
}

func TestSetupRoutes(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, testStore(t))

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"questions", http.MethodGet, "/v1/questions", http.StatusOK},
		{"admin reload", http.MethodPost, "/v1/admin/config/reload", http.StatusOK},
		{"assessments requires body", http.MethodPost, "/v1/assessments", http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/v1/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}
