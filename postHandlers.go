package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qws941/safetywallet-sub003/config"
	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/utils"
	"github.com/qws941/safetywallet-sub003/workflow"
)

func newAttendanceGate() *workflow.AttendanceGate {
	db := config.GetDB()
	return workflow.NewAttendanceGate(
		workflow.NewStore(db),
		workflow.NewAttendanceSource(db),
		workflow.NewRedisFlagSource(),
	)
}

// createPostHandler gates submission on physical presence and the author's
// false-report restriction before anything is written.
func createPostHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userId, ok := utils.GetUserIdFromContext(ctx)
		if !ok {
			respondError(c, utils.NewUnauthenticatedError("authentication required"))
			return
		}

		var input models.NewReport
		if err := c.ShouldBindJSON(&input); err != nil {
			respondValidation(c, bindErrorMessage(err, "site_id, category, title and content are required"))
			return
		}
		if input.RiskLevel != nil && !input.RiskLevel.Valid() {
			respondValidation(c, "risk_level must be HIGH, MEDIUM or LOW")
			return
		}

		db := config.GetDB()
		author, err := models.GetUser(ctx, db, userId)
		if err != nil {
			respondError(c, err)
			return
		}
		if author.RestrictedUntil != nil && author.RestrictedUntil.After(time.Now()) {
			respondError(c, utils.NewForbiddenError("submissions restricted until "+author.RestrictedUntil.Format(time.RFC3339)))
			return
		}

		if err := newAttendanceGate().Check(ctx, userId, input.SiteId); err != nil {
			respondError(c, err)
			return
		}

		report, err := models.CreateReport(ctx, db, userId, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := models.WriteAudit(ctx, db, "REPORT_CREATED", userId, "report", report.ID, ""); err != nil {
			config.LogError(config.GetLogger(), "postHandlers.go", "createPostHandler", "WriteAudit", report.ID, err)
		}
		respond(c, http.StatusCreated, gin.H{"report": report})
	}
}

type resubmitRequest struct {
	SupplementaryContent string `json:"supplementaryContent" binding:"required"`
}

func resubmitPostHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userId, ok := utils.GetUserIdFromContext(ctx)
		if !ok {
			respondError(c, utils.NewUnauthenticatedError("authentication required"))
			return
		}
		postId, err := strconv.Atoi(c.Param("id"))
		if err != nil || postId <= 0 {
			respondValidation(c, "post id must be a positive integer")
			return
		}
		var input resubmitRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			respondValidation(c, bindErrorMessage(err, "supplementaryContent is required"))
			return
		}

		db := config.GetDB()
		report, err := models.GetReport(ctx, db, postId)
		if err != nil {
			if err == utils.ErrorRecordNotFound {
				respondError(c, utils.NewNotFoundError("report not found"))
				return
			}
			respondError(c, err)
			return
		}

		// Resubmission is a worker action and re-passes the gate.
		if err := newAttendanceGate().Check(ctx, userId, report.SiteId); err != nil {
			respondError(c, err)
			return
		}

		w := workflow.NewReviewWorkflow(workflow.NewStore(db))
		result, err := w.Resubmit(ctx, userId, postId, input.SupplementaryContent)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, gin.H{
			"report":        result.Report,
			"pointsAwarded": result.PointsAwarded,
			"reviewEventId": result.ReviewEventId,
		})
	}
}
