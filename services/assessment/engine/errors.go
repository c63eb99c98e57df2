// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"fmt"
	"strings"
)

// Every error below is fatal to the single Evaluate call that produced it.
// Nothing is retried or recovered internally; callers decide presentation.

// MissingAnswer identifies one required question without an answer.
type MissingAnswer struct {
	Dimension string `json:"dimension"`
	Question  string `json:"question"`
}

func (m MissingAnswer) String() string {
	return m.Dimension + "." + m.Question
}

// IncompleteAssessmentError reports every required question missing an
// answer, not just the first, so a caller can present one combined error.
type IncompleteAssessmentError struct {
	Missing []MissingAnswer
}

func (e *IncompleteAssessmentError) Error() string {
	fields := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		fields[i] = m.String()
	}
	return fmt.Sprintf("assessment incomplete: missing answers for %s", strings.Join(fields, ", "))
}

// UnknownOptionError reports an answer whose option key is not registered
// for its question. Indicates a stale client or a configuration/answer
// mismatch; never silently defaulted.
type UnknownOptionError struct {
	Dimension string
	Question  string
	Option    string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("unknown option %q for question %s.%s", e.Option, e.Dimension, e.Question)
}

// NoAnswersError reports a dimension scored with zero present answers.
// The orchestrator's completeness validation prevents this for required
// questions, but the scorer guards against being invoked directly.
type NoAnswersError struct {
	Dimension string
	Strategy  AggregationStrategy
}

func (e *NoAnswersError) Error() string {
	return fmt.Sprintf("dimension %q has no answers to aggregate with %s", e.Dimension, e.Strategy)
}

// UnclassifiableScoreError reports a total score no threshold range covers.
// The classifier never clamps silently; clamping would hide a threshold
// table misconfiguration from the operator.
type UnclassifiableScoreError struct {
	Total   float64
	Rounded int
}

func (e *UnclassifiableScoreError) Error() string {
	return fmt.Sprintf("total score %.2f (rounded %d) is outside every configured threshold range", e.Total, e.Rounded)
}
