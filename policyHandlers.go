package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qws941/safetywallet-sub003/config"
	"github.com/qws941/safetywallet-sub003/models"
)

type accessPolicyRequest struct {
	RequireCheckin *bool `json:"requireCheckin"`
	DayCutoffHour  *int  `json:"dayCutoffHour" binding:"omitempty,min=0,max=23"`
}

func upsertAccessPolicyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminId := requireAdminRole(c)
		if adminId == 0 {
			return
		}
		siteId, err := strconv.Atoi(c.Param("siteId"))
		if err != nil || siteId <= 0 {
			respondValidation(c, "siteId must be a positive integer")
			return
		}
		var input accessPolicyRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			respondValidation(c, bindErrorMessage(err, "dayCutoffHour must be between 0 and 23"))
			return
		}

		ctx := c.Request.Context()
		db := config.GetDB()
		policy, err := models.UpsertAccessPolicy(ctx, db, siteId, input.RequireCheckin, input.DayCutoffHour)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := models.WriteAudit(ctx, db, "ACCESS_POLICY_UPDATED", adminId, "site", siteId, ""); err != nil {
			config.LogError(config.GetLogger(), "policyHandlers.go", "upsertAccessPolicyHandler", "WriteAudit", siteId, err)
		}
		respond(c, http.StatusOK, gin.H{"policy": policy})
	}
}

func getAccessPolicyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if requireAdminRole(c) == 0 {
			return
		}
		siteId, err := strconv.Atoi(c.Param("siteId"))
		if err != nil || siteId <= 0 {
			respondValidation(c, "siteId must be a positive integer")
			return
		}
		policy, err := models.GetEffectiveAccessPolicy(c.Request.Context(), config.GetDB(), siteId)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, gin.H{"policy": policy})
	}
}
