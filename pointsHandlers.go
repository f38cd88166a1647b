package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qws941/safetywallet-sub003/config"
	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/utils"
	"github.com/qws941/safetywallet-sub003/workflow"
)

func getPointsBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := utils.GetUserIdFromContext(c.Request.Context())
		if !ok {
			respondError(c, utils.NewUnauthenticatedError("authentication required"))
			return
		}

		siteId := 0
		if raw := c.Query("siteId"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				respondValidation(c, "siteId must be a positive integer")
				return
			}
			siteId = parsed
		}

		balance, err := models.GetBalance(c.Request.Context(), config.GetDB(), userId, siteId)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, gin.H{"userId": userId, "siteId": siteId, "balance": balance})
	}
}

func snapshotSettlementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if requireAdminRole(c) == 0 {
			return
		}
		siteId, err := strconv.Atoi(c.Param("siteId"))
		if err != nil || siteId <= 0 {
			respondValidation(c, "siteId must be a positive integer")
			return
		}
		month := c.Query("month")
		if month == "" {
			respondValidation(c, "month (YYYY-MM) is required")
			return
		}

		snapshot, err := workflow.SnapshotMonthlySettlement(c.Request.Context(), config.GetDB(), siteId, month)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, snapshot)
	}
}

func getSettlementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if requireAdminRole(c) == 0 {
			return
		}
		siteId, err := strconv.Atoi(c.Param("siteId"))
		if err != nil || siteId <= 0 {
			respondValidation(c, "siteId must be a positive integer")
			return
		}
		month := c.Query("month")
		if month == "" {
			respondValidation(c, "month (YYYY-MM) is required")
			return
		}

		snapshot, err := workflow.GetSettlementSnapshot(siteId, month)
		if err != nil {
			respondError(c, err)
			return
		}
		if snapshot == nil {
			respondError(c, utils.NewNotFoundError("no settlement snapshot for that month"))
			return
		}
		respond(c, http.StatusOK, snapshot)
	}
}
