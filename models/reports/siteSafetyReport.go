package reports

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/qws941/safetywallet-sub003/config"
	"github.com/qws941/safetywallet-sub003/models"
)

type SiteSafetySummaryResponse struct {
	SiteId             int                   `json:"siteId"`
	PendingCount       int                   `json:"pendingCount"`
	NeedInfoCount      int                   `json:"needInfoCount"`
	UrgentCount        int                   `json:"urgentCount"`
	ApprovedToday      int                   `json:"approvedToday"`
	RejectedToday      int                   `json:"rejectedToday"`
	PointsAwardedToday int                   `json:"pointsAwardedToday"`
	MonthlyTrend       []MonthlySafetyDetail `json:"monthlyTrend"`
}

type MonthlySafetyDetail struct {
	Month         string `json:"month"`
	ReportCount   int    `json:"reportCount"`
	PointsAwarded int    `json:"pointsAwarded"`
}

// GetSiteSafetySummary aggregates the admin dashboard counters for one site.
// The "today" window follows the site's attendance day, not the calendar day.
func GetSiteSafetySummary(ctx context.Context, siteId int, dayStart, dayEnd time.Time) (*SiteSafetySummaryResponse, error) {
	started := time.Now()
	cacheKey := fmt.Sprintf("report:siteSafetySummary:%d:%s", siteId, dayStart.Format("20060102"))
	if reportCacheEnabled() {
		var cached SiteSafetySummaryResponse
		if ok, err := cacheGet(cacheKey, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	db := config.GetDB()

	response := &SiteSafetySummaryResponse{
		SiteId:       siteId,
		MonthlyTrend: []MonthlySafetyDetail{},
	}

	queueQuery := `
    SELECT
        COALESCE(SUM(CASE WHEN review_status IN (?, ?) THEN 1 ELSE 0 END), 0) AS pending_count,
        COALESCE(SUM(CASE WHEN review_status = ? THEN 1 ELSE 0 END), 0) AS need_info_count,
        COALESCE(SUM(CASE WHEN review_status = ? THEN 1 ELSE 0 END), 0) AS urgent_count
    FROM
        reports
    WHERE
        site_id = ?;`

	var queue struct {
		PendingCount  int
		NeedInfoCount int
		UrgentCount   int
	}
	if err := db.WithContext(ctx).Raw(queueQuery,
		models.ReviewStatusPending, models.ReviewStatusInReview,
		models.ReviewStatusNeedInfo, models.ReviewStatusUrgent, siteId).
		Scan(&queue).Error; err != nil {
		return nil, err
	}
	response.PendingCount = queue.PendingCount
	response.NeedInfoCount = queue.NeedInfoCount
	response.UrgentCount = queue.UrgentCount

	todayQuery := `
    SELECT
        COALESCE(SUM(CASE WHEN review_status = ? THEN 1 ELSE 0 END), 0) AS approved_today,
        COALESCE(SUM(CASE WHEN review_status = ? THEN 1 ELSE 0 END), 0) AS rejected_today
    FROM
        reports
    WHERE
        site_id = ?
        AND updated_at >= ?
        AND updated_at < ?;`

	var today struct {
		ApprovedToday int
		RejectedToday int
	}
	if err := db.WithContext(ctx).Raw(todayQuery,
		models.ReviewStatusApproved, models.ReviewStatusRejected,
		siteId, dayStart, dayEnd).
		Scan(&today).Error; err != nil {
		return nil, err
	}
	response.ApprovedToday = today.ApprovedToday
	response.RejectedToday = today.RejectedToday

	var pointsToday *int
	if err := db.WithContext(ctx).
		Model(&models.PointsLedgerEntry{}).
		Select("SUM(amount)").
		Where("site_id = ? AND amount > 0", siteId).
		Where("occurred_at >= ? AND occurred_at < ?", dayStart, dayEnd).
		Scan(&pointsToday).Error; err != nil {
		return nil, err
	}
	if pointsToday != nil {
		response.PointsAwardedToday = *pointsToday
	}

	trendStart := dayStart.AddDate(0, -5, 0)
	trendQuery := `
    WITH RECURSIVE MonthList AS (
        SELECT DATE_FORMAT(?, '%Y-%m-01') AS month_date
        UNION ALL
        SELECT DATE_ADD(month_date, INTERVAL 1 MONTH)
        FROM MonthList
        WHERE DATE_ADD(month_date, INTERVAL 1 MONTH) <= ?
    ),
    MonthlyReports AS (
        SELECT
            DATE_FORMAT(created_at, '%Y-%m') AS month,
            COUNT(id) AS report_count
        FROM reports
        WHERE site_id = ? AND created_at >= ?
        GROUP BY DATE_FORMAT(created_at, '%Y-%m')
    ),
    MonthlyPoints AS (
        SELECT
            settle_month AS month,
            SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END) AS points_awarded
        FROM points_ledger_entries
        WHERE site_id = ? AND occurred_at >= ?
        GROUP BY settle_month
    )
    SELECT
        DATE_FORMAT(ml.month_date, '%Y-%m') AS month,
        COALESCE(mr.report_count, 0) AS report_count,
        COALESCE(mp.points_awarded, 0) AS points_awarded
    FROM
        MonthList ml
    LEFT JOIN
        MonthlyReports mr ON DATE_FORMAT(ml.month_date, '%Y-%m') = mr.month
    LEFT JOIN
        MonthlyPoints mp ON DATE_FORMAT(ml.month_date, '%Y-%m') = mp.month
    ORDER BY
        ml.month_date;`

	rows, err := db.WithContext(ctx).Raw(trendQuery,
		trendStart, dayStart,
		siteId, trendStart,
		siteId, trendStart).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var detail MonthlySafetyDetail
		if err := rows.Scan(&detail.Month, &detail.ReportCount, &detail.PointsAwarded); err != nil {
			return nil, err
		}
		response.MonthlyTrend = append(response.MonthlyTrend, detail)
	}

	if reportCacheEnabled() {
		_ = cacheSet(cacheKey, response, reportCacheTTL())
	}
	logSlowReport(ctx, "siteSafetySummary", started, map[string]any{"site_id": siteId})

	return response, nil
}
