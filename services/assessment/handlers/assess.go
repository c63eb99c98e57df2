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
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianAssess/services/assessment/engine"
	"github.com/AleutianAI/AleutianAssess/services/assessment/observability"
)

// AssessmentRequest is the POST /v1/assessments body.
type AssessmentRequest struct {
	// WorkflowName optionally identifies the deployment being assessed.
	WorkflowName string `json:"workflow_name"`

	// Assessor optionally identifies who filled in the assessment.
	Assessor string `json:"assessor"`

	// Answers maps dimension id -> question id -> selected option key.
	Answers engine.AnswerSet `json:"answers" binding:"required"`
}

// AssessmentResponse is the successful evaluation envelope.
type AssessmentResponse struct {
	AssessmentID  string    `json:"assessment_id"`
	WorkflowName  string    `json:"workflow_name,omitempty"`
	Assessor      string    `json:"assessor,omitempty"`
	ConfigVersion string    `json:"config_version"`
	EvaluatedAt   time.Time `json:"evaluated_at"`

	engine.Result
}

// PostAssessment evaluates one assessment against the active configuration.
//
// # Description
//
// Binds the request, snapshots the active engine and config version once
// (so a concurrent reload cannot split one request across two
// configurations), evaluates, and maps the engine's error taxonomy onto
// HTTP statuses:
//
//   - 400: malformed body, or an answer key not in the option set
//   - 422: required answers missing (body lists every missing field)
//   - 500: total score outside every threshold range (config defect)
func PostAssessment(store ConfigStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req AssessmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			recordValidationFailure(observability.ReasonMalformed)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}

		eng, version := store.Snapshot()

		result, err := eng.Evaluate(req.Answers)
		if err != nil {
			writeEvaluationError(c, err, time.Since(start))
			return
		}

		recordAssessment(string(result.RiskLevel), true, time.Since(start))
		recordTotalScore(result.TotalScore)

		resp := AssessmentResponse{
			AssessmentID:  uuid.NewString(),
			WorkflowName:  req.WorkflowName,
			Assessor:      req.Assessor,
			ConfigVersion: version,
			EvaluatedAt:   time.Now().UTC(),
			Result:        *result,
		}
		slog.Info("assessment evaluated",
			"assessment_id", resp.AssessmentID,
			"workflow_name", req.WorkflowName,
			"risk_level", result.RiskLevel,
			"total_score", result.TotalScore,
			"config_version", version)
		c.JSON(http.StatusOK, resp)
	}
}

// writeEvaluationError maps engine errors onto HTTP responses.
func writeEvaluationError(c *gin.Context, err error, elapsed time.Duration) {
	var incomplete *engine.IncompleteAssessmentError
	var unknownOption *engine.UnknownOptionError
	var unclassifiable *engine.UnclassifiableScoreError

	switch {
	case errors.As(err, &incomplete):
		recordValidationFailure(observability.ReasonIncomplete)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "assessment incomplete",
			"missing": incomplete.Missing,
		})
	case errors.As(err, &unknownOption):
		recordValidationFailure(observability.ReasonUnknownOption)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"dimension": unknownOption.Dimension,
			"question":  unknownOption.Question,
			"option":    unknownOption.Option,
		})
	case errors.As(err, &unclassifiable):
		// A score no threshold covers means the loader's coverage check was
		// bypassed or the config is stale; surface it loudly.
		recordValidationFailure(observability.ReasonUnclassifiable)
		slog.Error("total score outside configured thresholds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		slog.Error("assessment evaluation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed"})
	}
	recordAssessment("", false, elapsed)
}

// =============================================================================
// Metrics guards
// =============================================================================

// The handlers run in tests without InitMetrics; every metrics touch goes
// through these nil-safe helpers.

func recordAssessment(riskLevel string, success bool, elapsed time.Duration) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordAssessment(riskLevel, success, elapsed.Seconds())
	}
}

func recordTotalScore(score float64) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordTotalScore(score)
	}
}

func recordValidationFailure(reason observability.FailureReason) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordValidationFailure(reason)
	}
}

func recordConfigReload(trigger observability.ReloadTrigger, success bool) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordConfigReload(trigger, success)
	}
}
