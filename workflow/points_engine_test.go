package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/qws941/safetywallet-sub003/models"
)

func riskPtr(r models.RiskLevel) *models.RiskLevel { return &r }

func testReport(category models.ReportCategory, risk *models.RiskLevel) *models.Report {
	return &models.Report{
		ID:            1,
		SiteId:        10,
		AuthorId:      100,
		Category:      category,
		RiskLevel:     risk,
		LocationFloor: "3F",
		LocationZone:  "A",
	}
}

func TestCalculateApprovalPoints(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

	t.Run("hazard with high risk earns base plus bonus", func(t *testing.T) {
		store := newFakeStore()
		calc, err := CalculateApprovalPoints(ctx, store, testReport(models.CategoryHazard, riskPtr(models.RiskLevelHigh)), now, 5)
		if err != nil {
			t.Fatal(err)
		}
		if calc.Blocked {
			t.Fatalf("unexpected block: %s", calc.BlockReason)
		}
		if calc.BasePoints != 10 || calc.RiskBonus != 5 || calc.TotalPoints != 15 {
			t.Fatalf("expected 10+5=15, got base=%d bonus=%d total=%d", calc.BasePoints, calc.RiskBonus, calc.TotalPoints)
		}
		if calc.Breakdown != "기본 10점 + 위험도 보너스 5점" {
			t.Fatalf("unexpected breakdown %q", calc.Breakdown)
		}
	})

	t.Run("suggestion without risk has no bonus line", func(t *testing.T) {
		store := newFakeStore()
		calc, err := CalculateApprovalPoints(ctx, store, testReport(models.CategorySuggestion, nil), now, 5)
		if err != nil {
			t.Fatal(err)
		}
		if calc.TotalPoints != 7 {
			t.Fatalf("expected 7, got %d", calc.TotalPoints)
		}
		if calc.Breakdown != "기본 7점" {
			t.Fatalf("unexpected breakdown %q", calc.Breakdown)
		}
	})

	t.Run("award is capped by what remains of the daily limit", func(t *testing.T) {
		store := newFakeStore()
		store.dailyStats[100] = models.DailyStats{PostCount: 2, TotalPoints: 28}
		calc, err := CalculateApprovalPoints(ctx, store, testReport(models.CategoryHazard, riskPtr(models.RiskLevelHigh)), now, 5)
		if err != nil {
			t.Fatal(err)
		}
		if calc.Blocked {
			t.Fatalf("unexpected block: %s", calc.BlockReason)
		}
		if calc.TotalPoints != 2 {
			t.Fatalf("expected cap to 2, got %d", calc.TotalPoints)
		}
	})

	t.Run("daily point limit blocks at 30", func(t *testing.T) {
		store := newFakeStore()
		store.dailyStats[100] = models.DailyStats{PostCount: 2, TotalPoints: 30}
		calc, err := CalculateApprovalPoints(ctx, store, testReport(models.CategoryHazard, nil), now, 5)
		if err != nil {
			t.Fatal(err)
		}
		if !calc.Blocked || calc.BlockReason != models.BlockDailyPointLimit {
			t.Fatalf("expected DAILY_POINT_LIMIT, got blocked=%v reason=%s", calc.Blocked, calc.BlockReason)
		}
		if calc.TotalPoints != 0 {
			t.Fatalf("blocked award must be zero, got %d", calc.TotalPoints)
		}
	})

	t.Run("daily post limit blocks the fourth approval", func(t *testing.T) {
		store := newFakeStore()
		store.dailyStats[100] = models.DailyStats{PostCount: 3, TotalPoints: 12}
		calc, err := CalculateApprovalPoints(ctx, store, testReport(models.CategoryInconvenience, nil), now, 5)
		if err != nil {
			t.Fatal(err)
		}
		if !calc.Blocked || calc.BlockReason != models.BlockDailyPostLimit {
			t.Fatalf("expected DAILY_POST_LIMIT, got blocked=%v reason=%s", calc.Blocked, calc.BlockReason)
		}
	})

	t.Run("approved duplicate within 24h blocks before anything else", func(t *testing.T) {
		store := newFakeStore()
		store.duplicates[100] = true
		store.dailyStats[100] = models.DailyStats{PostCount: 3, TotalPoints: 30}
		calc, err := CalculateApprovalPoints(ctx, store, testReport(models.CategoryHazard, nil), now, 5)
		if err != nil {
			t.Fatal(err)
		}
		if !calc.Blocked || calc.BlockReason != models.BlockDuplicateWithin24h {
			t.Fatalf("expected DUPLICATE_WITHIN_24H, got blocked=%v reason=%s", calc.Blocked, calc.BlockReason)
		}
	})

	t.Run("active point policy overrides the category base", func(t *testing.T) {
		store := newFakeStore()
		store.policyAmount[models.ReasonReportApproved] = 12
		calc, err := CalculateApprovalPoints(ctx, store, testReport(models.CategoryBestPractice, riskPtr(models.RiskLevelMedium)), now, 5)
		if err != nil {
			t.Fatal(err)
		}
		if calc.BasePoints != 12 || calc.TotalPoints != 15 {
			t.Fatalf("expected base 12 total 15, got base=%d total=%d", calc.BasePoints, calc.TotalPoints)
		}
	})

	t.Run("unsafe behavior falls back to the site default base", func(t *testing.T) {
		store := newFakeStore()
		calc, err := CalculateApprovalPoints(ctx, store, testReport(models.CategoryUnsafeBehavior, nil), now, 5)
		if err != nil {
			t.Fatal(err)
		}
		if calc.BasePoints != DefaultBasePoints {
			t.Fatalf("expected default base %d, got %d", DefaultBasePoints, calc.BasePoints)
		}
	})
}

func TestCalculateFalseReportPenalty(t *testing.T) {
	ctx := context.Background()

	t.Run("penalty is twice the original award, negated", func(t *testing.T) {
		store := newFakeStore()
		reportId := 1
		store.ledger = append(store.ledger, &models.PointsLedgerEntry{
			UserId:     100,
			SiteId:     10,
			ReportId:   &reportId,
			Amount:     15,
			ReasonCode: models.ReasonReportApproved,
		})
		pen, err := CalculateFalseReportPenalty(ctx, store, 100, 10, 1)
		if err != nil {
			t.Fatal(err)
		}
		if pen.PenaltyAmount != -30 {
			t.Fatalf("expected -30, got %d", pen.PenaltyAmount)
		}
	})

	t.Run("no original award means a zero penalty, not an error", func(t *testing.T) {
		store := newFakeStore()
		pen, err := CalculateFalseReportPenalty(ctx, store, 100, 10, 1)
		if err != nil {
			t.Fatal(err)
		}
		if pen.PenaltyAmount != 0 {
			t.Fatalf("expected 0, got %d", pen.PenaltyAmount)
		}
	})
}
