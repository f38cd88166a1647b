package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qws941/safetywallet-sub003/config"
	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/utils"
	"github.com/qws941/safetywallet-sub003/workflow"
)

// requireAdminRole authorizes on the token claim. Returns the acting user id,
// or 0 with a written response when the caller is not an admin.
func requireAdminRole(c *gin.Context) int {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok {
		respondError(c, utils.NewUnauthenticatedError("authentication required"))
		return 0
	}
	role, _ := utils.GetUserRoleFromContext(c.Request.Context())
	if !models.UserRole(role).IsAdmin() {
		respondError(c, utils.NewForbiddenError("admin role required"))
		return 0
	}
	return userId
}

type attendanceSyncRequest struct {
	SiteId int `json:"siteId" binding:"required"`
}

func attendanceSyncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminId := requireAdminRole(c)
		if adminId == 0 {
			return
		}
		var input attendanceSyncRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			respondValidation(c, bindErrorMessage(err, "siteId is required"))
			return
		}

		db := config.GetDB()
		var site models.Site
		if err := db.WithContext(c.Request.Context()).First(&site, "id = ?", input.SiteId).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				respondError(c, utils.NewNotFoundError("site not found"))
				return
			}
			respondError(c, err)
			return
		}

		result, err := workflow.SyncAttendance(c.Request.Context(), db, &site, time.Now())
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, result)
	}
}

type manualApprovalRequest struct {
	UserId    int    `json:"userId" binding:"required"`
	SiteId    int    `json:"siteId" binding:"required"`
	ValidDate string `json:"validDate" binding:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" binding:"required"`
}

func createManualApprovalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminId := requireAdminRole(c)
		if adminId == 0 {
			return
		}
		var input manualApprovalRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			respondValidation(c, bindErrorMessage(err, "userId, siteId, validDate (YYYY-MM-DD) and reason are required"))
			return
		}

		ctx := c.Request.Context()
		db := config.GetDB()
		approval := &models.ManualApproval{
			UserId:       input.UserId,
			SiteId:       input.SiteId,
			ValidDate:    input.ValidDate,
			ApprovedById: adminId,
			Reason:       input.Reason,
			ApprovedAt:   time.Now(),
		}
		if err := db.WithContext(ctx).Create(approval).Error; err != nil {
			respondError(c, err)
			return
		}
		if err := models.WriteAudit(ctx, db, "MANUAL_APPROVAL_GRANTED", adminId, "user", input.UserId, input.Reason); err != nil {
			config.LogError(config.GetLogger(), "attendanceHandlers.go", "createManualApprovalHandler", "WriteAudit", approval.ID, err)
		}
		respond(c, http.StatusCreated, gin.H{"manualApproval": approval})
	}
}

// listAttendanceLogsHandler reads the FAS source directly: the vendor's rows
// are the ground truth admins compare against when a worker disputes a denial.
func listAttendanceLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if requireAdminRole(c) == 0 {
			return
		}
		fas := config.GetFasDB()
		if fas == nil {
			respondError(c, utils.NewServiceUnavailableError("FAS source is not configured"))
			return
		}

		siteCode := c.Query("siteCode")
		if siteCode == "" {
			respondValidation(c, "siteCode is required")
			return
		}
		accsDay := c.Query("day")
		if accsDay == "" {
			accsDay = utils.AccsDay(time.Now(), models.DefaultDayCutoffHour)
		} else if _, err := time.Parse("20060102", accsDay); err != nil {
			respondValidation(c, "day must be YYYYMMDD")
			return
		}

		records, err := workflow.ListFasAccessRecords(c.Request.Context(), fas, siteCode, accsDay)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, gin.H{"day": accsDay, "records": records})
	}
}
