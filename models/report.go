package models

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qws941/safetywallet-sub003/utils"
)

type Report struct {
	ID                   int            `gorm:"primary_key" json:"id"`
	SiteId               int            `gorm:"index;not null" json:"site_id"`
	AuthorId             int            `gorm:"index;not null" json:"author_id"`
	Category             ReportCategory `gorm:"size:32;not null" json:"category"`
	RiskLevel            *RiskLevel     `gorm:"size:16" json:"risk_level"`
	Title                string         `gorm:"size:255" json:"title"`
	Content              string         `gorm:"type:text" json:"content"`
	SupplementaryContent string         `gorm:"type:text" json:"supplementary_content"`
	ReviewStatus         ReviewStatus   `gorm:"size:32;not null;default:PENDING;index" json:"review_status"`
	ActionStatus         ActionStatus   `gorm:"size:32;not null;default:NONE" json:"action_status"`
	IsUrgent             *bool          `gorm:"default:false" json:"is_urgent"`
	IsPotentialDuplicate *bool          `gorm:"default:false" json:"is_potential_duplicate"`
	LocationFloor        string         `gorm:"size:64" json:"location_floor"`
	LocationZone         string         `gorm:"size:64" json:"location_zone"`
	CreatedAt            time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewReport struct {
	SiteId        int            `json:"site_id" binding:"required"`
	Category      ReportCategory `json:"category" binding:"required"`
	RiskLevel     *RiskLevel     `json:"risk_level"`
	Title         string         `json:"title" binding:"required"`
	Content       string         `json:"content" binding:"required"`
	LocationFloor string         `json:"location_floor"`
	LocationZone  string         `json:"location_zone"`
}

func CreateReport(ctx context.Context, db *gorm.DB, authorId int, input *NewReport) (*Report, error) {
	report := &Report{
		SiteId:        input.SiteId,
		AuthorId:      authorId,
		Category:      input.Category,
		RiskLevel:     input.RiskLevel,
		Title:         input.Title,
		Content:       input.Content,
		ReviewStatus:  ReviewStatusPending,
		ActionStatus:  ActionStatusNone,
		IsUrgent:      utils.NewFalse(),
		LocationFloor: input.LocationFloor,
		LocationZone:  input.LocationZone,
	}
	if err := db.WithContext(ctx).Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

// GetReport reads a fresh snapshot. Review decisions must never run on a
// cached copy; the conditional update below depends on the snapshot status.
func GetReport(ctx context.Context, db *gorm.DB, id int) (*Report, error) {
	var report Report
	if err := db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &report, nil
}

// ReviewUpdate carries the column changes a validated transition produces.
// Nil fields are left untouched.
type ReviewUpdate struct {
	ReviewStatus *ReviewStatus
	ActionStatus *ActionStatus
	IsUrgent     *bool
	AppendSupplementary string
}

// CompareAndSwapReview applies upd only if the row still holds the expected
// statuses. Zero rows affected means another writer got there first; the
// caller maps that to a 409.
func CompareAndSwapReview(ctx context.Context, tx *gorm.DB, reportId int, expectedReview ReviewStatus, expectedAction ActionStatus, upd ReviewUpdate) (bool, error) {
	changes := map[string]interface{}{}
	if upd.ReviewStatus != nil {
		changes["review_status"] = *upd.ReviewStatus
	}
	if upd.ActionStatus != nil {
		changes["action_status"] = *upd.ActionStatus
	}
	if upd.IsUrgent != nil {
		changes["is_urgent"] = *upd.IsUrgent
	}
	if upd.AppendSupplementary != "" {
		changes["supplementary_content"] = gorm.Expr(
			"CONCAT(COALESCE(supplementary_content, ''), ?)", upd.AppendSupplementary)
	}
	if len(changes) == 0 {
		return true, nil
	}

	res := tx.WithContext(ctx).Model(&Report{}).
		Where("id = ? AND review_status = ? AND action_status = ?", reportId, expectedReview, expectedAction).
		Updates(changes)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasApprovedDuplicate reports whether the author already had a report of
// the same category at the same floor/zone of this site approved within the
// 24 hours before now. Used by the points engine's anti-gaming check.
func HasApprovedDuplicate(ctx context.Context, db *gorm.DB, userId, siteId int, category ReportCategory, floor, zone string, now time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&Report{}).
		Where("author_id = ? AND site_id = ? AND category = ?", userId, siteId, category).
		Where("location_floor = ? AND location_zone = ?", floor, zone).
		Where("review_status = ?", ReviewStatusApproved).
		Where("created_at >= ?", now.Add(-24*time.Hour)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
