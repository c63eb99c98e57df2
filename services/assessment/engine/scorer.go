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

// ScoreDimension computes a dimension's score from the answers supplied for
// it.
//
// # Description
//
// Each present answer is resolved to a raw integer score through its
// question's score map, then the dimension's aggregation strategy combines
// the (score, weight) pairs. No rounding is applied here; rounding policy
// belongs to the classifier so successive additions do not accumulate
// independent rounding error.
//
// # Inputs
//
//   - dim: The dimension to score. Must not be nil.
//   - answers: Question id -> option key, containing only answers actually
//     present. A subset of the dimension's questions is legitimate when the
//     remainder are optional; keys not configured for the dimension are the
//     caller's bug and fail with UnknownOptionError.
//
// # Outputs
//
//   - float64: The aggregated dimension score.
//   - error: *UnknownOptionError for an unregistered option key,
//     *NoAnswersError when answers is empty.
//
// # Thread Safety
//
// Pure function of (dim, answers); safe for concurrent use.
func ScoreDimension(dim *Dimension, answers map[string]string) (float64, error) {
	if len(answers) == 0 {
		return 0, &NoAnswersError{Dimension: dim.ID, Strategy: dim.Aggregation}
	}

	type scored struct {
		value  int
		weight float64
	}

	// Resolve answers in declared question order so min/max ties and
	// floating point accumulation are deterministic across calls.
	entries := make([]scored, 0, len(answers))
	for i := range dim.Questions {
		q := &dim.Questions[i]
		option, ok := answers[q.ID]
		if !ok {
			continue
		}
		value, ok := q.Scores[option]
		if !ok {
			return 0, &UnknownOptionError{Dimension: dim.ID, Question: q.ID, Option: option}
		}
		entries = append(entries, scored{value: value, weight: q.Weight})
	}

	// Answers that name no configured question for this dimension.
	if len(entries) != len(answers) {
		for questionID, option := range answers {
			if dim.Question(questionID) == nil {
				return 0, &UnknownOptionError{Dimension: dim.ID, Question: questionID, Option: option}
			}
		}
	}

	switch dim.Aggregation {
	case AggWeightedAverage:
		var weightedSum, totalWeight float64
		for _, e := range entries {
			weightedSum += float64(e.value) * e.weight
			totalWeight += e.weight
		}
		// Loader rejects non-positive weights, so totalWeight > 0 here.
		return weightedSum / totalWeight, nil

	case AggAverage:
		var sum float64
		for _, e := range entries {
			sum += float64(e.value)
		}
		return sum / float64(len(entries)), nil

	case AggSum:
		var sum float64
		for _, e := range entries {
			sum += float64(e.value)
		}
		return sum, nil

	case AggMax:
		max := entries[0].value
		for _, e := range entries[1:] {
			if e.value > max {
				max = e.value
			}
		}
		return float64(max), nil

	case AggMin:
		min := entries[0].value
		for _, e := range entries[1:] {
			if e.value < min {
				min = e.value
			}
		}
		return float64(min), nil

	default:
		// Unreachable with a loader-validated Model.
		return 0, &NoAnswersError{Dimension: dim.ID, Strategy: dim.Aggregation}
	}
}
