package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/utils"
)

// Anti-gaming limits. Per user, per site, per attendance day.
const (
	DailyPostLimit = 3
	DailyPointCap  = 30

	// Base award for categories without a hard-coded amount, unless a
	// PointPolicy overrides it.
	DefaultBasePoints = 3

	// Flat award for answering a REQUEST_MORE with a resubmission.
	ResubmitBonusPoints = 2
)

// AwardCalculation is what the engine hands back for an approval. When
// Blocked is set the award is zero and BlockReason says which limit fired;
// the approval itself still goes through, only the points are withheld.
type AwardCalculation struct {
	Blocked     bool               `json:"blocked"`
	BlockReason models.BlockReason `json:"block_reason,omitempty"`
	BasePoints  int                `json:"base_points"`
	RiskBonus   int                `json:"risk_bonus"`
	TotalPoints int                `json:"total_points"`
	Breakdown   string             `json:"breakdown"`
}

// PenaltyCalculation is the claw-back for a FALSE rejection.
type PenaltyCalculation struct {
	PenaltyAmount int    `json:"penalty_amount"`
	Breakdown     string `json:"breakdown"`
}

func baseAmount(category models.ReportCategory) int {
	switch category {
	case models.CategoryHazard:
		return 10
	case models.CategorySuggestion:
		return 7
	case models.CategoryInconvenience:
		return 5
	default:
		return DefaultBasePoints
	}
}

// CalculateApprovalPoints runs the anti-gaming checks and prices an approval
// of the given report. It only reads; persisting the award is the review
// workflow's job.
//
// The daily aggregate is read outside any serializing transaction, so two
// approvals landing in the same instant can both pass the cap check. That
// window is accepted; the cap is a soft anti-gaming measure, not an
// accounting invariant.
func CalculateApprovalPoints(ctx context.Context, store Store, report *models.Report, now time.Time, cutoffHour int) (AwardCalculation, error) {
	var calc AwardCalculation

	dup, err := store.HasApprovedDuplicate(ctx, report.AuthorId, report.SiteId,
		report.Category, report.LocationFloor, report.LocationZone, now)
	if err != nil {
		return calc, err
	}
	if dup {
		calc.Blocked = true
		calc.BlockReason = models.BlockDuplicateWithin24h
		return calc, nil
	}

	dayStart, dayEnd := utils.DayRange(now, cutoffHour)
	stats, err := store.GetDailyStats(ctx, report.AuthorId, report.SiteId, dayStart, dayEnd)
	if err != nil {
		return calc, err
	}
	if stats.PostCount >= DailyPostLimit {
		calc.Blocked = true
		calc.BlockReason = models.BlockDailyPostLimit
		return calc, nil
	}
	if stats.TotalPoints >= DailyPointCap {
		calc.Blocked = true
		calc.BlockReason = models.BlockDailyPointLimit
		return calc, nil
	}

	base := baseAmount(report.Category)
	if override, ok, err := store.GetActivePolicyAmount(ctx, report.SiteId, models.ReasonReportApproved); err != nil {
		return calc, err
	} else if ok {
		base = override
	}
	bonus := report.RiskLevel.Bonus()

	total := base + bonus
	if remaining := DailyPointCap - stats.TotalPoints; total > remaining {
		total = remaining
	}

	calc.BasePoints = base
	calc.RiskBonus = bonus
	calc.TotalPoints = total
	calc.Breakdown = fmt.Sprintf("기본 %d점", base)
	if bonus > 0 {
		calc.Breakdown = fmt.Sprintf("기본 %d점 + 위험도 보너스 %d점", base, bonus)
	}
	return calc, nil
}

// CalculateFalseReportPenalty prices the claw-back for a report rejected as
// FALSE: twice the originally awarded amount, negated. When the report never
// earned an award (blocked at approval time, or predates the ledger) the
// penalty is zero, which callers treat as "nothing to persist", not an error.
func CalculateFalseReportPenalty(ctx context.Context, store Store, userId, siteId, reportId int) (PenaltyCalculation, error) {
	original, err := store.GetApprovalAward(ctx, userId, siteId, reportId)
	if err != nil {
		return PenaltyCalculation{}, err
	}
	if original == nil {
		return PenaltyCalculation{
			PenaltyAmount: 0,
			Breakdown:     "환수 대상 지급 내역 없음",
		}, nil
	}
	return PenaltyCalculation{
		PenaltyAmount: -2 * original.Amount,
		Breakdown:     fmt.Sprintf("허위 신고 환수: 지급 %d점의 2배", original.Amount),
	}, nil
}
