package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "PENDING"
	ReviewStatusInReview ReviewStatus = "IN_REVIEW"
	ReviewStatusNeedInfo ReviewStatus = "NEED_INFO"
	ReviewStatusApproved ReviewStatus = "APPROVED"
	ReviewStatusRejected ReviewStatus = "REJECTED"
	ReviewStatusUrgent   ReviewStatus = "URGENT"
)

func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewStatusApproved || s == ReviewStatusRejected
}

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusInReview, ReviewStatusNeedInfo,
		ReviewStatusApproved, ReviewStatusRejected, ReviewStatusUrgent:
		return true
	}
	return false
}

func (s ReviewStatus) Value() (driver.Value, error) { return string(s), nil }

func (s *ReviewStatus) Scan(v interface{}) error {
	str, err := scanString(v)
	if err != nil {
		return fmt.Errorf("review status: %w", err)
	}
	*s = ReviewStatus(str)
	return nil
}

type ActionStatus string

const (
	ActionStatusNone       ActionStatus = "NONE"
	ActionStatusAssigned   ActionStatus = "ASSIGNED"
	ActionStatusInProgress ActionStatus = "IN_PROGRESS"
	ActionStatusCompleted  ActionStatus = "COMPLETED"
	ActionStatusVerified   ActionStatus = "VERIFIED"
	ActionStatusOverdue    ActionStatus = "OVERDUE"
)

func (s ActionStatus) Value() (driver.Value, error) { return string(s), nil }

func (s *ActionStatus) Scan(v interface{}) error {
	str, err := scanString(v)
	if err != nil {
		return fmt.Errorf("action status: %w", err)
	}
	*s = ActionStatus(str)
	return nil
}

type ReviewAction string

const (
	ReviewActionApprove     ReviewAction = "APPROVE"
	ReviewActionReject      ReviewAction = "REJECT"
	ReviewActionRequestMore ReviewAction = "REQUEST_MORE"
	ReviewActionMarkUrgent  ReviewAction = "MARK_URGENT"
	ReviewActionAssign      ReviewAction = "ASSIGN"
	ReviewActionClose       ReviewAction = "CLOSE"

	// Worker-initiated; not accepted on the admin review endpoint.
	ReviewActionResubmit ReviewAction = "RESUBMIT"
)

func (a ReviewAction) Valid() bool {
	switch a {
	case ReviewActionApprove, ReviewActionReject, ReviewActionRequestMore,
		ReviewActionMarkUrgent, ReviewActionAssign, ReviewActionClose, ReviewActionResubmit:
		return true
	}
	return false
}

func (a *ReviewAction) UnmarshalJSON(b []byte) error {
	str, err := unquote(b)
	if err != nil {
		return errors.New("review action must be string")
	}
	v := ReviewAction(str)
	if !v.Valid() {
		return errors.New("invalid review action")
	}
	*a = v
	return nil
}

type ReportCategory string

const (
	CategoryHazard         ReportCategory = "HAZARD"
	CategoryUnsafeBehavior ReportCategory = "UNSAFE_BEHAVIOR"
	CategoryInconvenience  ReportCategory = "INCONVENIENCE"
	CategorySuggestion     ReportCategory = "SUGGESTION"
	CategoryBestPractice   ReportCategory = "BEST_PRACTICE"
)

func (c ReportCategory) Valid() bool {
	switch c {
	case CategoryHazard, CategoryUnsafeBehavior, CategoryInconvenience,
		CategorySuggestion, CategoryBestPractice:
		return true
	}
	return false
}

func (c *ReportCategory) UnmarshalJSON(b []byte) error {
	str, err := unquote(b)
	if err != nil {
		return errors.New("category must be string")
	}
	v := ReportCategory(str)
	if !v.Valid() {
		return errors.New("invalid category")
	}
	*c = v
	return nil
}

func (c ReportCategory) Value() (driver.Value, error) { return string(c), nil }

func (c *ReportCategory) Scan(v interface{}) error {
	str, err := scanString(v)
	if err != nil {
		return fmt.Errorf("category: %w", err)
	}
	*c = ReportCategory(str)
	return nil
}

type RiskLevel string

const (
	RiskLevelHigh   RiskLevel = "HIGH"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelLow    RiskLevel = "LOW"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLevelHigh, RiskLevelMedium, RiskLevelLow:
		return true
	}
	return false
}

// Bonus returns the risk bonus points for an approved report.
// A nil pointer (riskLevel unset) is worth nothing, same as LOW.
func (r *RiskLevel) Bonus() int {
	if r == nil {
		return 0
	}
	switch *r {
	case RiskLevelHigh:
		return 5
	case RiskLevelMedium:
		return 3
	default:
		return 0
	}
}

type UserRole string

const (
	RoleWorker     UserRole = "WORKER"
	RoleManager    UserRole = "MANAGER"
	RoleSiteAdmin  UserRole = "SITE_ADMIN"
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
	RoleSystem     UserRole = "SYSTEM"
)

func (r UserRole) IsAdmin() bool {
	return r == RoleSiteAdmin || r == RoleSuperAdmin || r == RoleManager
}

type ReasonCode string

const (
	ReasonReportApproved     ReasonCode = "REPORT_APPROVED"
	ReasonFalseReportPenalty ReasonCode = "FALSE_REPORT_PENALTY"
	ReasonResubmitBonus      ReasonCode = "RESUBMIT_BONUS"
)

// RejectReasonFalse marks a rejection as a false report; it triggers the
// penalty claw-back and the strike counter.
const RejectReasonFalse = "FALSE"

type BlockReason string

const (
	BlockDuplicateWithin24h BlockReason = "DUPLICATE_WITHIN_24H"
	BlockDailyPostLimit     BlockReason = "DAILY_POST_LIMIT"
	BlockDailyPointLimit    BlockReason = "DAILY_POINT_LIMIT"
)

type AttendanceRecordSource string

const (
	AttendanceSourceInternal    AttendanceRecordSource = "INTERNAL"
	AttendanceSourceFasSync     AttendanceRecordSource = "FAS_SYNC"
	AttendanceSourceFasRealtime AttendanceRecordSource = "FAS_REALTIME"
)

func scanString(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", fmt.Errorf("unsupported scan type %T", v)
	}
}

func unquote(b []byte) (string, error) {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return "", errors.New("not a JSON string")
	}
	return string(b[1 : len(b)-1]), nil
}
