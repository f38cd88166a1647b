package models

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qws941/safetywallet-sub003/utils"
)

// PointsLedgerEntry rows are append-only: a user's balance is the sum of all
// entries, penalties are separate negative entries referencing the same
// report. Nothing here is ever updated or deleted.
type PointsLedgerEntry struct {
	ID          int        `gorm:"primary_key" json:"id"`
	UserId      int        `gorm:"index:idx_ledger_user_site;not null" json:"user_id"`
	SiteId      int        `gorm:"index:idx_ledger_user_site;not null" json:"site_id"`
	ReportId    *int       `gorm:"index" json:"report_id"`
	AdminId     int        `json:"admin_id"`
	Amount      int        `gorm:"not null" json:"amount"`
	ReasonCode  ReasonCode `gorm:"size:64;not null" json:"reason_code"`
	ReasonText  string     `gorm:"size:255" json:"reason_text"`
	SettleMonth string     `gorm:"size:7;index;not null" json:"settle_month"`
	OccurredAt  time.Time  `gorm:"not null;index" json:"occurred_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func AppendLedgerEntry(ctx context.Context, tx *gorm.DB, entry *PointsLedgerEntry) error {
	if entry.SettleMonth == "" {
		entry.SettleMonth = utils.SettleMonth(entry.OccurredAt)
	}
	return tx.WithContext(ctx).Create(entry).Error
}

// DailyStats is the aggregate the points engine reads before awarding.
type DailyStats struct {
	PostCount   int
	TotalPoints int
}

// GetDailyStats sums today's approval-award count and total points for the
// user at the site, windowed by the site's attendance day.
func GetDailyStats(ctx context.Context, db *gorm.DB, userId, siteId int, dayStart, dayEnd time.Time) (DailyStats, error) {
	var stats DailyStats

	var postCount int64
	err := db.WithContext(ctx).Model(&PointsLedgerEntry{}).
		Where("user_id = ? AND site_id = ? AND reason_code = ?", userId, siteId, ReasonReportApproved).
		Where("occurred_at >= ? AND occurred_at < ?", dayStart, dayEnd).
		Count(&postCount).Error
	if err != nil {
		return stats, err
	}
	stats.PostCount = int(postCount)

	var total *int
	err = db.WithContext(ctx).Model(&PointsLedgerEntry{}).
		Select("SUM(amount)").
		Where("user_id = ? AND site_id = ?", userId, siteId).
		Where("occurred_at >= ? AND occurred_at < ?", dayStart, dayEnd).
		Scan(&total).Error
	if err != nil {
		return stats, err
	}
	if total != nil {
		stats.TotalPoints = *total
	}
	return stats, nil
}

// GetApprovalAward returns the original REPORT_APPROVED entry for the report,
// or nil if none was ever recorded (blocked award, pre-gamification report).
func GetApprovalAward(ctx context.Context, db *gorm.DB, userId, siteId, reportId int) (*PointsLedgerEntry, error) {
	var entry PointsLedgerEntry
	err := db.WithContext(ctx).
		Where("user_id = ? AND site_id = ? AND report_id = ? AND reason_code = ?",
			userId, siteId, reportId, ReasonReportApproved).
		Order("id ASC").
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// HasLedgerEntry reports whether an entry with the reason already exists for
// the report. Guards the at-most-once award/penalty invariant.
func HasLedgerEntry(ctx context.Context, db *gorm.DB, reportId int, reason ReasonCode) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&PointsLedgerEntry{}).
		Where("report_id = ? AND reason_code = ?", reportId, reason).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetBalance is the running sum of every entry for the user (all sites when
// siteId is 0).
func GetBalance(ctx context.Context, db *gorm.DB, userId, siteId int) (int, error) {
	q := db.WithContext(ctx).Model(&PointsLedgerEntry{}).
		Select("SUM(amount)").
		Where("user_id = ?", userId)
	if siteId > 0 {
		q = q.Where("site_id = ?", siteId)
	}
	var total *int
	if err := q.Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// MonthlyTotal sums a user's entries for one settle month at one site.
type MonthlyTotal struct {
	UserId int    `json:"user_id"`
	SiteId int    `json:"site_id"`
	Total  int    `json:"total"`
	Month  string `json:"month"`
}

func GetMonthlyTotals(ctx context.Context, db *gorm.DB, siteId int, settleMonth string) ([]*MonthlyTotal, error) {
	var totals []*MonthlyTotal
	err := db.WithContext(ctx).Model(&PointsLedgerEntry{}).
		Select("user_id, site_id, SUM(amount) AS total, settle_month AS month").
		Where("site_id = ? AND settle_month = ?", siteId, settleMonth).
		Group("user_id, site_id, settle_month").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}
