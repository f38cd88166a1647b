package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qws941/safetywallet-sub003/config"
	"github.com/qws941/safetywallet-sub003/middlewares"
	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/utils"
	"github.com/qws941/safetywallet-sub003/workflow"
)

func createReviewHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := utils.GetUserIdFromContext(c.Request.Context())
		if !ok {
			respondError(c, utils.NewUnauthenticatedError("authentication required"))
			return
		}

		var input workflow.ReviewInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondValidation(c, bindErrorMessage(err, "postId and a valid action are required"))
			return
		}

		w := workflow.NewReviewWorkflow(workflow.NewStore(config.GetDB()))
		result, err := w.ApplyReview(c.Request.Context(), userId, input)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusCreated, gin.H{
			"review":        result.Report,
			"pointsAwarded": result.PointsAwarded,
			"reviewEventId": result.ReviewEventId,
			"pointsBlocked": result.PointsBlocked,
			"blockReason":   result.BlockReason,
		})
	}
}

// reviewEventView joins each trail entry with the acting user's name,
// resolved through the request-scoped batch loader.
type reviewEventView struct {
	*models.ReviewEvent
	AdminName string `json:"admin_name"`
}

func listReviewEventsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := utils.GetUserIdFromContext(c.Request.Context())
		if !ok {
			respondError(c, utils.NewUnauthenticatedError("authentication required"))
			return
		}
		postId, err := strconv.Atoi(c.Param("postId"))
		if err != nil || postId <= 0 {
			respondValidation(c, "postId must be a positive integer")
			return
		}

		w := workflow.NewReviewWorkflow(workflow.NewStore(config.GetDB()))
		events, err := w.ListEvents(c.Request.Context(), userId, postId)
		if err != nil {
			respondError(c, err)
			return
		}

		views := make([]*reviewEventView, 0, len(events))
		for _, e := range events {
			view := &reviewEventView{ReviewEvent: e}
			if admin, err := middlewares.GetUser(c.Request.Context(), e.AdminId); err == nil {
				view.AdminName = admin.Name
			} else {
				config.LogError(config.GetLogger(), "reviewHandlers.go", "listReviewEventsHandler", "GetUser", e.AdminId, err)
			}
			views = append(views, view)
		}
		respond(c, http.StatusOK, gin.H{"events": views})
	}
}
