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
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianAssess/services/assessment/handlers"
)

func SetupRoutes(router *gin.Engine, store handlers.ConfigStore) {
	router.GET("/health", handlers.Health(store))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/assessments", handlers.PostAssessment(store))
		v1.GET("/questions", handlers.GetQuestions(store))
		// Configuration administration routes
		admin := v1.Group("/admin")
		{
			admin.POST("/config/reload", handlers.ReloadConfig(store))
		}
	}
}
