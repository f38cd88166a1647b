package models

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qws941/safetywallet-sub003/utils"
)

// AttendanceRecord is our local copy of a check-in, either punched in-app or
// cross-matched from the FAS batch sync. The FAS database itself stays
// external and read-only.
type AttendanceRecord struct {
	ID               int                    `gorm:"primary_key" json:"id"`
	UserId           int                    `gorm:"index:idx_attendance_user_site;not null" json:"user_id"`
	SiteId           int                    `gorm:"index:idx_attendance_user_site;not null" json:"site_id"`
	CheckinAt        time.Time              `gorm:"not null;index" json:"checkin_at"`
	Source           AttendanceRecordSource `gorm:"size:32;not null;default:INTERNAL" json:"source"`
	ExternalWorkerId string                 `gorm:"size:64;index" json:"external_worker_id"`
	CreatedAt        time.Time              `gorm:"autoCreateTime" json:"created_at"`
}

// ManualApproval is an admin-granted, date-scoped bypass for a worker whose
// biometric check-in failed or was unavailable.
type ManualApproval struct {
	ID           int       `gorm:"primary_key" json:"id"`
	UserId       int       `gorm:"index:idx_manual_user_site_date;not null" json:"user_id"`
	SiteId       int       `gorm:"index:idx_manual_user_site_date;not null" json:"site_id"`
	ValidDate    string    `gorm:"index:idx_manual_user_site_date;size:10;not null" json:"valid_date"` // YYYY-MM-DD
	ApprovedById int       `gorm:"not null" json:"approved_by_id"`
	Reason       string    `gorm:"size:255;not null" json:"reason"`
	ApprovedAt   time.Time `gorm:"not null" json:"approved_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// AccessPolicy is the per-site attendance-gating policy. Defaults:
// check-in required, attendance day rolls over at 05:00.
type AccessPolicy struct {
	ID             int       `gorm:"primary_key" json:"id"`
	SiteId         int       `gorm:"uniqueIndex;not null" json:"site_id"`
	RequireCheckin *bool     `gorm:"default:true" json:"require_checkin"`
	DayCutoffHour  int       `gorm:"default:5" json:"day_cutoff_hour"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const DefaultDayCutoffHour = 5

// GetEffectiveAccessPolicy returns the stored policy or the defaults when
// none exists; absence of a row is not an error.
func GetEffectiveAccessPolicy(ctx context.Context, db *gorm.DB, siteId int) (*AccessPolicy, error) {
	var policy AccessPolicy
	err := db.WithContext(ctx).Where("site_id = ?", siteId).First(&policy).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &AccessPolicy{
				SiteId:         siteId,
				RequireCheckin: utils.NewTrue(),
				DayCutoffHour:  DefaultDayCutoffHour,
			}, nil
		}
		return nil, err
	}
	if policy.RequireCheckin == nil {
		policy.RequireCheckin = utils.NewTrue()
	}
	return &policy, nil
}

// UpsertAccessPolicy creates or updates the site policy and returns the
// effective row.
func UpsertAccessPolicy(ctx context.Context, db *gorm.DB, siteId int, requireCheckin *bool, dayCutoffHour *int) (*AccessPolicy, error) {
	var policy AccessPolicy
	err := db.WithContext(ctx).Where("site_id = ?", siteId).First(&policy).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if err == gorm.ErrRecordNotFound {
		policy = AccessPolicy{
			SiteId:         siteId,
			RequireCheckin: utils.NewTrue(),
			DayCutoffHour:  DefaultDayCutoffHour,
		}
	}
	if requireCheckin != nil {
		policy.RequireCheckin = requireCheckin
	}
	if dayCutoffHour != nil {
		policy.DayCutoffHour = *dayCutoffHour
	}

	if err := db.WithContext(ctx).Save(&policy).Error; err != nil {
		return nil, err
	}
	return &policy, nil
}

// HasSameDayAttendance checks for a check-in inside the site's current
// attendance day. siteId 0 checks across all sites (no-site-context calls).
func HasSameDayAttendance(ctx context.Context, db *gorm.DB, userId, siteId int, dayStart, dayEnd time.Time) (bool, error) {
	q := db.WithContext(ctx).Model(&AttendanceRecord{}).
		Where("user_id = ?", userId).
		Where("checkin_at >= ? AND checkin_at < ?", dayStart, dayEnd)
	if siteId > 0 {
		q = q.Where("site_id = ?", siteId)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasManualApproval checks for an admin bypass valid on the given date.
func HasManualApproval(ctx context.Context, db *gorm.DB, userId, siteId int, validDate string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&ManualApproval{}).
		Where("user_id = ? AND site_id = ? AND valid_date = ?", userId, siteId, validDate).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AttendanceExists dedupes sync batches on (worker, site, checkinAt).
func AttendanceExists(ctx context.Context, db *gorm.DB, externalWorkerId string, siteId int, checkinAt time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&AttendanceRecord{}).
		Where("external_worker_id = ? AND site_id = ? AND checkin_at = ?", externalWorkerId, siteId, checkinAt).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
