// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for the
// assessment service.
//
// # Description
//
// This package implements Prometheus metrics for monitoring assessment
// operations. Metrics include:
//   - Assessment counters (by risk level and status)
//   - Total-score distribution histograms
//   - Evaluation latency histograms
//   - Validation failure counters (by reason)
//   - Configuration reload counters (by status)
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "aleutian"

// Subsystem for assessment metrics
const assessmentSubsystem = "assessment"

// AssessmentMetrics holds all Prometheus metrics for assessment operations.
//
// # Description
//
// Provides counters and histograms for monitoring evaluation outcomes,
// score distribution, and configuration reloads. Initialize once at
// startup via InitMetrics().
//
// # Thread Safety
//
// All operations are thread-safe.
type AssessmentMetrics struct {
	// AssessmentsTotal counts completed evaluations.
	// Labels: risk_level (low, medium, high, critical, none for failures),
	// status (success, error)
	AssessmentsTotal *prometheus.CounterVec

	// AssessmentDurationSeconds measures end-to-end evaluation latency.
	// Labels: status (success, error)
	AssessmentDurationSeconds *prometheus.HistogramVec

	// TotalScore tracks the distribution of computed total scores.
	TotalScore prometheus.Histogram

	// ValidationFailuresTotal counts rejected assessments by reason.
	// Labels: reason (incomplete, unknown_option, unclassifiable, malformed)
	ValidationFailuresTotal *prometheus.CounterVec

	// ConfigReloadsTotal counts configuration reload attempts.
	// Labels: status (success, error), trigger (watcher, admin)
	ConfigReloadsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of AssessmentMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *AssessmentMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics on the default registry.
// Should be called once at application startup.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *AssessmentMetrics {
	DefaultMetrics = NewAssessmentMetrics(nil)
	return DefaultMetrics
}

// NewAssessmentMetrics creates the metric set on the given registerer.
// A nil registerer uses the Prometheus default registry; tests pass their
// own registry to avoid duplicate-registration panics.
func NewAssessmentMetrics(reg prometheus.Registerer) *AssessmentMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &AssessmentMetrics{
		AssessmentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: assessmentSubsystem,
				Name:      "assessments_total",
				Help:      "Total number of assessments by risk level and status",
			},
			[]string{"risk_level", "status"},
		),

		AssessmentDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: assessmentSubsystem,
				Name:      "assessment_duration_seconds",
				Help:      "End-to-end evaluation latency in seconds",
				Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"status"},
		),

		TotalScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: assessmentSubsystem,
				Name:      "total_score",
				Help:      "Distribution of computed total scores",
				Buckets:   []float64{4, 6, 8, 10, 12, 14, 16, 18, 20},
			},
		),

		ValidationFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: assessmentSubsystem,
				Name:      "validation_failures_total",
				Help:      "Total rejected assessments by reason",
			},
			[]string{"reason"},
		),

		ConfigReloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: assessmentSubsystem,
				Name:      "config_reloads_total",
				Help:      "Total configuration reload attempts by status and trigger",
			},
			[]string{"status", "trigger"},
		),
	}
}

// =============================================================================
// Failure Reasons
// =============================================================================

// FailureReason categorizes a rejected assessment for metrics labeling.
type FailureReason string

const (
	// ReasonIncomplete indicates required answers were missing.
	ReasonIncomplete FailureReason = "incomplete"

	// ReasonUnknownOption indicates an answer key not in the option set.
	ReasonUnknownOption FailureReason = "unknown_option"

	// ReasonUnclassifiable indicates a total score outside every threshold.
	ReasonUnclassifiable FailureReason = "unclassifiable"

	// ReasonMalformed indicates a request body that failed binding.
	ReasonMalformed FailureReason = "malformed"
)

// ReloadTrigger categorizes what initiated a configuration reload.
type ReloadTrigger string

const (
	// TriggerWatcher is a reload initiated by the file watcher.
	TriggerWatcher ReloadTrigger = "watcher"

	// TriggerAdmin is a reload initiated via the admin endpoint.
	TriggerAdmin ReloadTrigger = "admin"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordAssessment records a completed evaluation.
//
// # Inputs
//
//   - riskLevel: The classified level, or "none" when evaluation failed.
//   - success: Whether the evaluation completed.
//   - seconds: End-to-end latency.
func (m *AssessmentMetrics) RecordAssessment(riskLevel string, success bool, seconds float64) {
	status := "success"
	if !success {
		status = "error"
	}
	if riskLevel == "" {
		riskLevel = "none"
	}
	m.AssessmentsTotal.WithLabelValues(riskLevel, status).Inc()
	m.AssessmentDurationSeconds.WithLabelValues(status).Observe(seconds)
}

// RecordTotalScore records a computed total score.
func (m *AssessmentMetrics) RecordTotalScore(score float64) {
	m.TotalScore.Observe(score)
}

// RecordValidationFailure records a rejected assessment.
func (m *AssessmentMetrics) RecordValidationFailure(reason FailureReason) {
	m.ValidationFailuresTotal.WithLabelValues(string(reason)).Inc()
}

// RecordConfigReload records a configuration reload attempt.
func (m *AssessmentMetrics) RecordConfigReload(trigger ReloadTrigger, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ConfigReloadsTotal.WithLabelValues(status, string(trigger)).Inc()
}
