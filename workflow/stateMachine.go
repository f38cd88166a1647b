package workflow

import (
	"fmt"

	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/utils"
)

// Transition is the column delta a validated review action produces.
// Nil fields stay as they are.
type Transition struct {
	ReviewStatus *models.ReviewStatus
	ActionStatus *models.ActionStatus
	SetUrgent    bool
}

func reviewStatusIn(s models.ReviewStatus, set ...models.ReviewStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func actionStatusIn(s models.ActionStatus, set ...models.ActionStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func reviewStatusPtr(s models.ReviewStatus) *models.ReviewStatus { return &s }
func actionStatusPtr(s models.ActionStatus) *models.ActionStatus { return &s }

// ValidateTransition checks a review action against the report's current
// (reviewStatus, actionStatus) pair and returns the resulting delta. It is a
// pure function: callers read a fresh snapshot, validate here, then apply the
// delta with a conditional update keyed on the same snapshot.
//
// APPROVE on a report with no action yet also closes the action track as
// COMPLETED, so low-severity reports don't dangle in NONE forever.
func ValidateTransition(action models.ReviewAction, review models.ReviewStatus, actionStatus models.ActionStatus) (Transition, error) {
	switch action {
	case models.ReviewActionApprove:
		if !reviewStatusIn(review,
			models.ReviewStatusPending, models.ReviewStatusInReview,
			models.ReviewStatusNeedInfo, models.ReviewStatusUrgent) {
			return Transition{}, invalidTransition(action, review, actionStatus)
		}
		t := Transition{ReviewStatus: reviewStatusPtr(models.ReviewStatusApproved)}
		if actionStatus == models.ActionStatusNone {
			t.ActionStatus = actionStatusPtr(models.ActionStatusCompleted)
		}
		return t, nil

	case models.ReviewActionReject:
		if !reviewStatusIn(review,
			models.ReviewStatusPending, models.ReviewStatusInReview,
			models.ReviewStatusNeedInfo, models.ReviewStatusUrgent) {
			return Transition{}, invalidTransition(action, review, actionStatus)
		}
		return Transition{ReviewStatus: reviewStatusPtr(models.ReviewStatusRejected)}, nil

	case models.ReviewActionRequestMore:
		if !reviewStatusIn(review, models.ReviewStatusPending, models.ReviewStatusInReview) {
			return Transition{}, invalidTransition(action, review, actionStatus)
		}
		return Transition{ReviewStatus: reviewStatusPtr(models.ReviewStatusNeedInfo)}, nil

	case models.ReviewActionMarkUrgent:
		if !reviewStatusIn(review,
			models.ReviewStatusPending, models.ReviewStatusInReview, models.ReviewStatusNeedInfo) {
			return Transition{}, invalidTransition(action, review, actionStatus)
		}
		return Transition{
			ReviewStatus: reviewStatusPtr(models.ReviewStatusUrgent),
			SetUrgent:    true,
		}, nil

	case models.ReviewActionResubmit:
		if review != models.ReviewStatusNeedInfo {
			return Transition{}, invalidTransition(action, review, actionStatus)
		}
		return Transition{ReviewStatus: reviewStatusPtr(models.ReviewStatusPending)}, nil

	case models.ReviewActionAssign:
		if review != models.ReviewStatusApproved ||
			!actionStatusIn(actionStatus, models.ActionStatusNone, models.ActionStatusOverdue) {
			return Transition{}, invalidTransition(action, review, actionStatus)
		}
		return Transition{ActionStatus: actionStatusPtr(models.ActionStatusAssigned)}, nil

	case models.ReviewActionClose:
		if review != models.ReviewStatusApproved ||
			!actionStatusIn(actionStatus,
				models.ActionStatusAssigned, models.ActionStatusInProgress, models.ActionStatusCompleted) {
			return Transition{}, invalidTransition(action, review, actionStatus)
		}
		return Transition{ActionStatus: actionStatusPtr(models.ActionStatusVerified)}, nil
	}

	return Transition{}, utils.NewValidationError(fmt.Sprintf("unknown review action %q", action))
}

func invalidTransition(action models.ReviewAction, review models.ReviewStatus, actionStatus models.ActionStatus) error {
	return utils.NewInvalidTransitionError(fmt.Sprintf(
		"action %s not allowed from reviewStatus=%s actionStatus=%s", action, review, actionStatus))
}
