package workflow

import (
	"fmt"
	"testing"

	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/utils"
)

var allReviewStatuses = []models.ReviewStatus{
	models.ReviewStatusPending, models.ReviewStatusInReview, models.ReviewStatusNeedInfo,
	models.ReviewStatusApproved, models.ReviewStatusRejected, models.ReviewStatusUrgent,
}

var allActionStatuses = []models.ActionStatus{
	models.ActionStatusNone, models.ActionStatusAssigned, models.ActionStatusInProgress,
	models.ActionStatusCompleted, models.ActionStatusVerified, models.ActionStatusOverdue,
}

var allActions = []models.ReviewAction{
	models.ReviewActionApprove, models.ReviewActionReject, models.ReviewActionRequestMore,
	models.ReviewActionMarkUrgent, models.ReviewActionAssign, models.ReviewActionClose,
	models.ReviewActionResubmit,
}

// allowed re-states the transition table independently so the exhaustive
// sweep below catches a drifted implementation.
func allowed(action models.ReviewAction, review models.ReviewStatus, actionStatus models.ActionStatus) bool {
	reviewable := review == models.ReviewStatusPending || review == models.ReviewStatusInReview ||
		review == models.ReviewStatusNeedInfo || review == models.ReviewStatusUrgent
	switch action {
	case models.ReviewActionApprove, models.ReviewActionReject:
		return reviewable
	case models.ReviewActionRequestMore:
		return review == models.ReviewStatusPending || review == models.ReviewStatusInReview
	case models.ReviewActionMarkUrgent:
		return review == models.ReviewStatusPending || review == models.ReviewStatusInReview ||
			review == models.ReviewStatusNeedInfo
	case models.ReviewActionResubmit:
		return review == models.ReviewStatusNeedInfo
	case models.ReviewActionAssign:
		return review == models.ReviewStatusApproved &&
			(actionStatus == models.ActionStatusNone || actionStatus == models.ActionStatusOverdue)
	case models.ReviewActionClose:
		return review == models.ReviewStatusApproved &&
			(actionStatus == models.ActionStatusAssigned || actionStatus == models.ActionStatusInProgress ||
				actionStatus == models.ActionStatusCompleted)
	}
	return false
}

func TestValidateTransitionExhaustive(t *testing.T) {
	for _, action := range allActions {
		for _, review := range allReviewStatuses {
			for _, actionStatus := range allActionStatuses {
				name := fmt.Sprintf("%s_from_%s_%s", action, review, actionStatus)
				t.Run(name, func(t *testing.T) {
					_, err := ValidateTransition(action, review, actionStatus)
					if allowed(action, review, actionStatus) {
						if err != nil {
							t.Fatalf("expected transition to be allowed, got %v", err)
						}
						return
					}
					if err == nil {
						t.Fatal("expected transition to be rejected")
					}
					appErr, ok := utils.AsAppError(err)
					if !ok || appErr.Code != "INVALID_TRANSITION" {
						t.Fatalf("expected INVALID_TRANSITION, got %v", err)
					}
				})
			}
		}
	}
}

func TestValidateTransitionResults(t *testing.T) {
	t.Run("approve from pending completes an untouched action track", func(t *testing.T) {
		tr, err := ValidateTransition(models.ReviewActionApprove, models.ReviewStatusPending, models.ActionStatusNone)
		if err != nil {
			t.Fatal(err)
		}
		if tr.ReviewStatus == nil || *tr.ReviewStatus != models.ReviewStatusApproved {
			t.Fatalf("expected APPROVED, got %v", tr.ReviewStatus)
		}
		if tr.ActionStatus == nil || *tr.ActionStatus != models.ActionStatusCompleted {
			t.Fatalf("expected action COMPLETED, got %v", tr.ActionStatus)
		}
	})

	t.Run("approve leaves a started action track alone", func(t *testing.T) {
		tr, err := ValidateTransition(models.ReviewActionApprove, models.ReviewStatusUrgent, models.ActionStatusAssigned)
		if err != nil {
			t.Fatal(err)
		}
		if tr.ActionStatus != nil {
			t.Fatalf("expected no action change, got %v", *tr.ActionStatus)
		}
	})

	t.Run("mark urgent sets the flag", func(t *testing.T) {
		tr, err := ValidateTransition(models.ReviewActionMarkUrgent, models.ReviewStatusInReview, models.ActionStatusNone)
		if err != nil {
			t.Fatal(err)
		}
		if !tr.SetUrgent {
			t.Fatal("expected SetUrgent")
		}
		if tr.ReviewStatus == nil || *tr.ReviewStatus != models.ReviewStatusUrgent {
			t.Fatalf("expected URGENT, got %v", tr.ReviewStatus)
		}
	})

	t.Run("resubmit resets to pending", func(t *testing.T) {
		tr, err := ValidateTransition(models.ReviewActionResubmit, models.ReviewStatusNeedInfo, models.ActionStatusNone)
		if err != nil {
			t.Fatal(err)
		}
		if tr.ReviewStatus == nil || *tr.ReviewStatus != models.ReviewStatusPending {
			t.Fatalf("expected PENDING, got %v", tr.ReviewStatus)
		}
	})

	t.Run("close verifies the action track", func(t *testing.T) {
		tr, err := ValidateTransition(models.ReviewActionClose, models.ReviewStatusApproved, models.ActionStatusInProgress)
		if err != nil {
			t.Fatal(err)
		}
		if tr.ReviewStatus != nil {
			t.Fatalf("expected review status untouched, got %v", *tr.ReviewStatus)
		}
		if tr.ActionStatus == nil || *tr.ActionStatus != models.ActionStatusVerified {
			t.Fatalf("expected VERIFIED, got %v", tr.ActionStatus)
		}
	})
}
