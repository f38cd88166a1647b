package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qws941/safetywallet-sub003/config"
	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/models/reports"
	"github.com/qws941/safetywallet-sub003/utils"
)

func siteSafetySummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if requireAdminRole(c) == 0 {
			return
		}
		siteId, err := strconv.Atoi(c.Query("siteId"))
		if err != nil || siteId <= 0 {
			respondValidation(c, "siteId must be a positive integer")
			return
		}

		ctx := c.Request.Context()
		policy, err := models.GetEffectiveAccessPolicy(ctx, config.GetDB(), siteId)
		if err != nil {
			respondError(c, err)
			return
		}
		dayStart, dayEnd := utils.DayRange(time.Now(), policy.DayCutoffHour)

		summary, err := reports.GetSiteSafetySummary(ctx, siteId, dayStart, dayEnd)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, summary)
	}
}
