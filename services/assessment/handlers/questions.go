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
	"net/http"

	"github.com/gin-gonic/gin"
)

// QuestionnaireResponse describes the active questionnaire so clients can
// render the form without hardcoding dimensions or options.
type QuestionnaireResponse struct {
	ConfigVersion string          `json:"config_version"`
	Dimensions    []DimensionInfo `json:"dimensions"`
}

// DimensionInfo is one dimension's public metadata.
type DimensionInfo struct {
	ID          string         `json:"id"`
	Label       string         `json:"label,omitempty"`
	Aggregation string         `json:"aggregation"`
	Questions   []QuestionInfo `json:"questions"`
}

// QuestionInfo is one question's public metadata. Weights and score maps
// stay server-side; clients only need what to render.
type QuestionInfo struct {
	ID       string       `json:"id"`
	Label    string       `json:"label,omitempty"`
	Required bool         `json:"required"`
	Options  []OptionInfo `json:"options"`
}

// OptionInfo is one selectable answer.
type OptionInfo struct {
	Key         string `json:"key"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
}

// GetQuestions returns the active questionnaire in declared order.
func GetQuestions(store ConfigStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		eng, version := store.Snapshot()
		model := eng.Model()

		resp := QuestionnaireResponse{
			ConfigVersion: version,
			Dimensions:    make([]DimensionInfo, 0, len(model.Dimensions)),
		}
		for i := range model.Dimensions {
			dim := &model.Dimensions[i]
			info := DimensionInfo{
				ID:          dim.ID,
				Label:       dim.Label,
				Aggregation: string(dim.Aggregation),
				Questions:   make([]QuestionInfo, 0, len(dim.Questions)),
			}
			for j := range dim.Questions {
				q := &dim.Questions[j]
				qi := QuestionInfo{
					ID:       q.ID,
					Label:    q.Label,
					Required: q.Required,
					Options:  make([]OptionInfo, 0, len(q.Options)),
				}
				for _, opt := range q.Options {
					qi.Options = append(qi.Options, OptionInfo{
						Key:         opt.Key,
						Label:       opt.Label,
						Description: opt.Description,
					})
				}
				info.Questions = append(info.Questions, qi)
			}
			resp.Dimensions = append(resp.Dimensions, info)
		}

		c.JSON(http.StatusOK, resp)
	}
}
