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

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianAssess/services/assessment/config"
	"github.com/AleutianAI/AleutianAssess/services/assessment/observability"
)

// ReloadConfig forces a configuration reload.
//
// On failure the last good configuration stays active; the response
// carries the full problem list when the failure was structural, and the
// version still being served either way.
func ReloadConfig(store ConfigStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := store.Reload()
		recordConfigReload(observability.TriggerAdmin, err == nil)
		if err != nil {
			slog.Error("admin-triggered config reload failed", "error", err)
			body := gin.H{
				"error":          "config reload failed, previous configuration still active",
				"active_version": store.Version(),
			}
			var cfgErr *config.ConfigurationError
			if errors.As(err, &cfgErr) {
				body["problems"] = cfgErr.Problems
			}
			c.JSON(http.StatusInternalServerError, body)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":         "reloaded",
			"config_version": store.Version(),
		})
	}
}
