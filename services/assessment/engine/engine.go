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

import "fmt"

// Engine evaluates assessments against an immutable configuration Model.
//
// # Thread Safety
//
// Engine is safe for concurrent use; Evaluate mutates nothing shared.
type Engine struct {
	model *Model
}

// New creates an Engine for the given Model.
//
// The Model must have passed the config loader's structural validation;
// New only guards against the obviously unusable.
func New(model *Model) (*Engine, error) {
	if model == nil {
		return nil, fmt.Errorf("model must not be nil")
	}
	if len(model.Dimensions) == 0 {
		return nil, fmt.Errorf("model has no dimensions")
	}
	if len(model.Thresholds) == 0 {
		return nil, fmt.Errorf("model has no risk thresholds")
	}
	return &Engine{model: model}, nil
}

// Model returns the configuration model this engine evaluates against.
func (e *Engine) Model() *Model {
	return e.model
}

// Evaluate performs one complete assessment.
//
// # Description
//
// Validates that every required question has an answer (reporting all
// missing fields in one IncompleteAssessmentError), scores each dimension,
// classifies the total, and selects recommendations. There is no
// partial-success mode: either a fully valid Result is returned or the call
// fails with no partial result observable by the caller.
//
// Answers naming (dimension, question) pairs absent from the configuration
// are ignored; answers for configured questions with unregistered option
// keys fail with *UnknownOptionError.
//
// # Inputs
//
//   - answers: Dimension id -> question id -> option key.
//
// # Outputs
//
//   - *Result: Total score, risk level, per-dimension scores, and the
//     ordered recommendation list.
//   - error: *IncompleteAssessmentError, *UnknownOptionError,
//     *NoAnswersError, or *UnclassifiableScoreError.
func (e *Engine) Evaluate(answers AnswerSet) (*Result, error) {
	if err := e.validateComplete(answers); err != nil {
		return nil, err
	}

	dimensionScores := make(map[string]float64, len(e.model.Dimensions))
	for i := range e.model.Dimensions {
		dim := &e.model.Dimensions[i]
		present := presentAnswers(dim, answers[dim.ID])
		if len(present) == 0 {
			// Every question in this dimension is optional and unanswered;
			// the dimension contributes nothing to the total.
			continue
		}
		score, err := ScoreDimension(dim, present)
		if err != nil {
			return nil, err
		}
		dimensionScores[dim.ID] = score
	}

	total := TotalScore(dimensionScores)
	level, err := Classify(e.model.Thresholds, total)
	if err != nil {
		return nil, err
	}

	return &Result{
		APIVersion:       APIVersion,
		AlgorithmVersion: AlgorithmVersion,
		TotalScore:       total,
		RiskLevel:        level,
		DimensionScores:  dimensionScores,
		Recommendations:  SelectRecommendations(e.model, level, answers),
	}, nil
}

// validateComplete checks every required question for an answer and reports
// all missing (dimension, question) pairs at once.
func (e *Engine) validateComplete(answers AnswerSet) error {
	var missing []MissingAnswer
	for i := range e.model.Dimensions {
		dim := &e.model.Dimensions[i]
		supplied := answers[dim.ID]
		for j := range dim.Questions {
			q := &dim.Questions[j]
			if !q.Required {
				continue
			}
			if _, ok := supplied[q.ID]; !ok {
				missing = append(missing, MissingAnswer{Dimension: dim.ID, Question: q.ID})
			}
		}
	}
	if len(missing) > 0 {
		return &IncompleteAssessmentError{Missing: missing}
	}
	return nil
}

// presentAnswers filters the supplied answers for a dimension down to its
// configured questions. Unconfigured keys are dropped, matching the
// behavior of ignoring stray form fields.
func presentAnswers(dim *Dimension, supplied map[string]string) map[string]string {
	if len(supplied) == 0 {
		return nil
	}
	present := make(map[string]string, len(supplied))
	for questionID, option := range supplied {
		if dim.Question(questionID) != nil {
			present[questionID] = option
		}
	}
	return present
}
