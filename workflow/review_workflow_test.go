package workflow

import (
	"context"
	"testing"

	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/utils"
)

func setupReviewFixture() (*fakeStore, *ReviewWorkflow) {
	store := newFakeStore()
	store.users[1] = &models.User{ID: 1, Role: models.RoleSiteAdmin}
	store.users[2] = &models.User{ID: 2, Role: models.RoleSuperAdmin}
	store.users[3] = &models.User{ID: 3, Role: models.RoleWorker}
	store.users[100] = &models.User{ID: 100, Role: models.RoleWorker}
	store.members[[2]int{1, 10}] = true
	store.reports[1] = &models.Report{
		ID:           1,
		SiteId:       10,
		AuthorId:     100,
		Category:     models.CategoryHazard,
		RiskLevel:    riskPtr(models.RiskLevelHigh),
		ReviewStatus: models.ReviewStatusPending,
		ActionStatus: models.ActionStatusNone,
	}
	return store, NewReviewWorkflow(store)
}

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	appErr, ok := utils.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	return appErr.Code
}

func TestApplyReviewApprove(t *testing.T) {
	ctx := context.Background()
	store, w := setupReviewFixture()

	res, err := w.ApplyReview(ctx, 1, ReviewInput{PostId: 1, Action: models.ReviewActionApprove})
	if err != nil {
		t.Fatal(err)
	}
	if res.Report.ReviewStatus != models.ReviewStatusApproved {
		t.Fatalf("expected APPROVED, got %s", res.Report.ReviewStatus)
	}
	if res.Report.ActionStatus != models.ActionStatusCompleted {
		t.Fatalf("expected action COMPLETED, got %s", res.Report.ActionStatus)
	}
	if res.PointsAwarded != 15 {
		t.Fatalf("expected 15 points, got %d", res.PointsAwarded)
	}
	if len(store.ledger) != 1 || store.ledger[0].Amount != 15 ||
		store.ledger[0].ReasonCode != models.ReasonReportApproved {
		t.Fatalf("unexpected ledger %+v", store.ledger)
	}
	if len(store.events) != 1 || store.events[0].Action != models.ReviewActionApprove {
		t.Fatalf("unexpected events %+v", store.events)
	}
	if res.ReviewEventId != store.events[0].ID {
		t.Fatalf("event id mismatch: %d vs %d", res.ReviewEventId, store.events[0].ID)
	}
}

func TestApplyReviewApproveBlockedAwardStillApproves(t *testing.T) {
	ctx := context.Background()
	store, w := setupReviewFixture()
	store.dailyStats[100] = models.DailyStats{PostCount: 1, TotalPoints: 30}

	res, err := w.ApplyReview(ctx, 1, ReviewInput{PostId: 1, Action: models.ReviewActionApprove})
	if err != nil {
		t.Fatal(err)
	}
	if res.Report.ReviewStatus != models.ReviewStatusApproved {
		t.Fatalf("blocked points must not block the approval, got %s", res.Report.ReviewStatus)
	}
	if res.PointsAwarded != 0 || !res.PointsBlocked || res.BlockReason != models.BlockDailyPointLimit {
		t.Fatalf("expected zero blocked award, got %+v", res)
	}
	if len(store.ledger) != 0 {
		t.Fatalf("no ledger entry expected, got %+v", store.ledger)
	}
}

func TestApplyReviewConcurrentDoubleApprove(t *testing.T) {
	ctx := context.Background()
	store, w := setupReviewFixture()

	// Both reviewers read the same PENDING snapshot before either commits.
	stale := *store.reports[1]
	staleCopy := stale
	store.staleSnapshots = []*models.Report{&stale, &staleCopy}

	if _, err := w.ApplyReview(ctx, 1, ReviewInput{PostId: 1, Action: models.ReviewActionApprove}); err != nil {
		t.Fatalf("first approve should win: %v", err)
	}
	_, err := w.ApplyReview(ctx, 2, ReviewInput{PostId: 1, Action: models.ReviewActionApprove})
	if code := appErrCode(t, err); code != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %s", code)
	}
	if len(store.ledger) != 1 {
		t.Fatalf("exactly one award expected, got %d", len(store.ledger))
	}
	if len(store.events) != 1 {
		t.Fatalf("the losing transition must not leave an event, got %d", len(store.events))
	}
}

func TestApplyReviewInvalidTransitionWritesNothing(t *testing.T) {
	ctx := context.Background()
	store, w := setupReviewFixture()
	store.reports[1].ReviewStatus = models.ReviewStatusRejected

	_, err := w.ApplyReview(ctx, 1, ReviewInput{PostId: 1, Action: models.ReviewActionApprove})
	if code := appErrCode(t, err); code != "INVALID_TRANSITION" {
		t.Fatalf("expected INVALID_TRANSITION, got %s", code)
	}
	if len(store.events) != 0 || len(store.ledger) != 0 {
		t.Fatalf("no writes expected, got events=%d ledger=%d", len(store.events), len(store.ledger))
	}
}

func TestApplyReviewValidation(t *testing.T) {
	ctx := context.Background()
	_, w := setupReviewFixture()

	t.Run("reject requires a reason", func(t *testing.T) {
		_, err := w.ApplyReview(ctx, 1, ReviewInput{PostId: 1, Action: models.ReviewActionReject})
		if code := appErrCode(t, err); code != "VALIDATION_ERROR" {
			t.Fatalf("expected VALIDATION_ERROR, got %s", code)
		}
	})

	t.Run("resubmit is not an admin action", func(t *testing.T) {
		_, err := w.ApplyReview(ctx, 1, ReviewInput{PostId: 1, Action: models.ReviewActionResubmit})
		if code := appErrCode(t, err); code != "VALIDATION_ERROR" {
			t.Fatalf("expected VALIDATION_ERROR, got %s", code)
		}
	})

	t.Run("unknown report is 404", func(t *testing.T) {
		_, err := w.ApplyReview(ctx, 1, ReviewInput{PostId: 99, Action: models.ReviewActionApprove})
		if code := appErrCode(t, err); code != "NOT_FOUND" {
			t.Fatalf("expected NOT_FOUND, got %s", code)
		}
	})
}

func TestApplyReviewAuthorization(t *testing.T) {
	ctx := context.Background()

	t.Run("worker role is forbidden", func(t *testing.T) {
		_, w := setupReviewFixture()
		_, err := w.ApplyReview(ctx, 3, ReviewInput{PostId: 1, Action: models.ReviewActionApprove})
		if code := appErrCode(t, err); code != "FORBIDDEN" {
			t.Fatalf("expected FORBIDDEN, got %s", code)
		}
	})

	t.Run("site admin without membership is forbidden", func(t *testing.T) {
		store, w := setupReviewFixture()
		delete(store.members, [2]int{1, 10})
		_, err := w.ApplyReview(ctx, 1, ReviewInput{PostId: 1, Action: models.ReviewActionApprove})
		if code := appErrCode(t, err); code != "FORBIDDEN" {
			t.Fatalf("expected FORBIDDEN, got %s", code)
		}
	})

	t.Run("super admin needs no membership", func(t *testing.T) {
		_, w := setupReviewFixture()
		if _, err := w.ApplyReview(ctx, 2, ReviewInput{PostId: 1, Action: models.ReviewActionApprove}); err != nil {
			t.Fatal(err)
		}
	})
}

func TestApplyReviewFalseRejection(t *testing.T) {
	ctx := context.Background()

	t.Run("claws back twice the original award and records a strike", func(t *testing.T) {
		store, w := setupReviewFixture()
		reportId := 1
		store.ledger = append(store.ledger, &models.PointsLedgerEntry{
			UserId: 100, SiteId: 10, ReportId: &reportId,
			Amount: 15, ReasonCode: models.ReasonReportApproved,
		})

		res, err := w.ApplyReview(ctx, 1, ReviewInput{
			PostId: 1, Action: models.ReviewActionReject, Reason: models.RejectReasonFalse,
		})
		if err != nil {
			t.Fatal(err)
		}
		if res.PointsAwarded != -30 {
			t.Fatalf("expected -30, got %d", res.PointsAwarded)
		}
		last := store.ledger[len(store.ledger)-1]
		if last.ReasonCode != models.ReasonFalseReportPenalty || last.Amount != -30 {
			t.Fatalf("unexpected penalty entry %+v", last)
		}
		if len(store.strikes) != 1 || store.strikes[0] != 100 {
			t.Fatalf("expected one strike for the author, got %+v", store.strikes)
		}
	})

	t.Run("zero penalty when no award exists, strike still lands", func(t *testing.T) {
		store, w := setupReviewFixture()
		res, err := w.ApplyReview(ctx, 1, ReviewInput{
			PostId: 1, Action: models.ReviewActionReject, Reason: models.RejectReasonFalse,
		})
		if err != nil {
			t.Fatal(err)
		}
		if res.PointsAwarded != 0 {
			t.Fatalf("expected 0, got %d", res.PointsAwarded)
		}
		if len(store.ledger) != 0 {
			t.Fatalf("no penalty entry expected, got %+v", store.ledger)
		}
		if len(store.strikes) != 1 {
			t.Fatalf("expected a strike, got %+v", store.strikes)
		}
	})

	t.Run("ordinary rejection never penalizes", func(t *testing.T) {
		store, w := setupReviewFixture()
		if _, err := w.ApplyReview(ctx, 1, ReviewInput{
			PostId: 1, Action: models.ReviewActionReject, Reason: "NOT_ACTIONABLE",
		}); err != nil {
			t.Fatal(err)
		}
		if len(store.ledger) != 0 || len(store.strikes) != 0 {
			t.Fatalf("no penalty or strike expected, got ledger=%d strikes=%d", len(store.ledger), len(store.strikes))
		}
	})
}

func TestResubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("author resubmits from NEED_INFO and earns the bonus", func(t *testing.T) {
		store, w := setupReviewFixture()
		store.reports[1].ReviewStatus = models.ReviewStatusNeedInfo

		res, err := w.Resubmit(ctx, 100, 1, "측정 사진 첨부")
		if err != nil {
			t.Fatal(err)
		}
		if res.Report.ReviewStatus != models.ReviewStatusPending {
			t.Fatalf("expected PENDING, got %s", res.Report.ReviewStatus)
		}
		if res.PointsAwarded != ResubmitBonusPoints {
			t.Fatalf("expected +%d, got %d", ResubmitBonusPoints, res.PointsAwarded)
		}
		if store.reports[1].SupplementaryContent != "측정 사진 첨부" {
			t.Fatalf("supplementary content not appended: %q", store.reports[1].SupplementaryContent)
		}
		if len(store.events) != 1 || store.events[0].Action != models.ReviewActionResubmit {
			t.Fatalf("unexpected events %+v", store.events)
		}
	})

	t.Run("only the author may resubmit", func(t *testing.T) {
		store, w := setupReviewFixture()
		store.reports[1].ReviewStatus = models.ReviewStatusNeedInfo
		_, err := w.Resubmit(ctx, 3, 1, "x")
		if code := appErrCode(t, err); code != "FORBIDDEN" {
			t.Fatalf("expected FORBIDDEN, got %s", code)
		}
	})

	t.Run("resubmit outside NEED_INFO is rejected", func(t *testing.T) {
		store, w := setupReviewFixture()
		store.reports[1].ReviewStatus = models.ReviewStatusPending
		_, err := w.Resubmit(ctx, 100, 1, "x")
		if code := appErrCode(t, err); code != "INVALID_TRANSITION" {
			t.Fatalf("expected INVALID_TRANSITION, got %s", code)
		}
		if len(store.ledger) != 0 {
			t.Fatalf("no bonus expected, got %+v", store.ledger)
		}
	})
}
