package workflow

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/qws941/safetywallet-sub003/config"
	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/utils"
)

// ReviewWorkflow applies admin review actions and worker resubmissions to a
// report, with the points engine invoked as a side effect of APPROVE/REJECT
// outcomes. The report row's conditional update is the authority on every
// transition; losing that update means another reviewer got there first.
type ReviewWorkflow struct {
	store  Store
	now    func() time.Time
	tracer trace.Tracer
}

func NewReviewWorkflow(store Store) *ReviewWorkflow {
	return &ReviewWorkflow{
		store:  store,
		now:    time.Now,
		tracer: otel.Tracer("workflow"),
	}
}

type ReviewInput struct {
	PostId  int                 `json:"postId" binding:"required"`
	Action  models.ReviewAction `json:"action" binding:"required"`
	Reason  string              `json:"reason"`
	Comment string              `json:"comment"`
}

type ReviewResult struct {
	Report        *models.Report     `json:"report"`
	PointsAwarded int                `json:"pointsAwarded"`
	ReviewEventId int                `json:"reviewEventId"`
	PointsBlocked bool               `json:"pointsBlocked,omitempty"`
	BlockReason   models.BlockReason `json:"blockReason,omitempty"`
}

// ApplyReview validates and applies one admin action. On APPROVE the award is
// computed first (reads only) and persisted together with the status change
// and the review event in one transaction. A blocked award never blocks the
// approval itself.
func (w *ReviewWorkflow) ApplyReview(ctx context.Context, adminId int, input ReviewInput) (*ReviewResult, error) {
	ctx, span := w.tracer.Start(ctx, "ReviewWorkflow.ApplyReview")
	defer span.End()

	if input.Action == models.ReviewActionResubmit {
		return nil, utils.NewValidationError("RESUBMIT is worker-initiated; use the resubmission endpoint")
	}
	if input.Action == models.ReviewActionReject && input.Reason == "" {
		return nil, utils.NewValidationError("REJECT requires a reason code")
	}

	report, err := w.store.GetReport(ctx, input.PostId)
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return nil, utils.NewNotFoundError(fmt.Sprintf("report %d not found", input.PostId))
		}
		return nil, err
	}

	if err := w.authorizeAdmin(ctx, adminId, report.SiteId); err != nil {
		return nil, err
	}

	transition, err := ValidateTransition(input.Action, report.ReviewStatus, report.ActionStatus)
	if err != nil {
		return nil, err
	}

	now := w.now()
	result := &ReviewResult{}

	var award AwardCalculation
	if input.Action == models.ReviewActionApprove {
		policy, err := w.store.GetEffectiveAccessPolicy(ctx, report.SiteId)
		if err != nil {
			return nil, err
		}
		award, err = CalculateApprovalPoints(ctx, w.store, report, now, policy.DayCutoffHour)
		if err != nil {
			return nil, err
		}
		result.PointsBlocked = award.Blocked
		result.BlockReason = award.BlockReason
	}

	var penalty PenaltyCalculation
	falseReport := input.Action == models.ReviewActionReject && input.Reason == models.RejectReasonFalse
	if falseReport {
		penalty, err = CalculateFalseReportPenalty(ctx, w.store, report.AuthorId, report.SiteId, report.ID)
		if err != nil {
			return nil, err
		}
	}

	event := &models.ReviewEvent{
		ReportId:   report.ID,
		AdminId:    adminId,
		Action:     input.Action,
		ReasonCode: input.Reason,
		Comment:    input.Comment,
	}

	err = w.store.InTx(ctx, func(tx Store) error {
		upd := models.ReviewUpdate{
			ReviewStatus: transition.ReviewStatus,
			ActionStatus: transition.ActionStatus,
		}
		if transition.SetUrgent {
			upd.IsUrgent = utils.NewTrue()
		}
		ok, err := tx.CompareAndSwapReview(ctx, report.ID, report.ReviewStatus, report.ActionStatus, upd)
		if err != nil {
			return err
		}
		if !ok {
			return utils.NewConflictError(fmt.Sprintf("report %d was modified by another reviewer", report.ID))
		}

		if err := tx.AppendReviewEvent(ctx, event); err != nil {
			return err
		}

		if input.Action == models.ReviewActionApprove && !award.Blocked && award.TotalPoints > 0 {
			exists, err := tx.HasLedgerEntry(ctx, report.ID, models.ReasonReportApproved)
			if err != nil {
				return err
			}
			if !exists {
				reportId := report.ID
				if err := tx.AppendLedgerEntry(ctx, &models.PointsLedgerEntry{
					UserId:     report.AuthorId,
					SiteId:     report.SiteId,
					ReportId:   &reportId,
					AdminId:    adminId,
					Amount:     award.TotalPoints,
					ReasonCode: models.ReasonReportApproved,
					ReasonText: award.Breakdown,
					OccurredAt: now,
				}); err != nil {
					return err
				}
				result.PointsAwarded = award.TotalPoints
			}
		}

		if falseReport {
			if penalty.PenaltyAmount != 0 {
				exists, err := tx.HasLedgerEntry(ctx, report.ID, models.ReasonFalseReportPenalty)
				if err != nil {
					return err
				}
				if !exists {
					reportId := report.ID
					if err := tx.AppendLedgerEntry(ctx, &models.PointsLedgerEntry{
						UserId:     report.AuthorId,
						SiteId:     report.SiteId,
						ReportId:   &reportId,
						AdminId:    adminId,
						Amount:     penalty.PenaltyAmount,
						ReasonCode: models.ReasonFalseReportPenalty,
						ReasonText: penalty.Breakdown,
						OccurredAt: now,
					}); err != nil {
						return err
					}
					result.PointsAwarded = penalty.PenaltyAmount
				}
			}
			if err := tx.RecordFalseReportStrike(ctx, report.AuthorId, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated := *report
	if transition.ReviewStatus != nil {
		updated.ReviewStatus = *transition.ReviewStatus
	}
	if transition.ActionStatus != nil {
		updated.ActionStatus = *transition.ActionStatus
	}
	if transition.SetUrgent {
		updated.IsUrgent = utils.NewTrue()
	}
	result.Report = &updated
	result.ReviewEventId = event.ID

	if err := w.store.WriteAudit(ctx, "REVIEW_"+string(input.Action), adminId, "report", report.ID, input.Reason); err != nil {
		config.LogError(config.GetLogger(), "reviewWorkflow.go", "ApplyReview", "WriteAudit", input, err)
	}
	return result, nil
}

// Resubmit is the worker-side answer to REQUEST_MORE: only the author may
// resubmit, only from NEED_INFO, and the supplementary content earns a fixed
// small bonus independent of the approval path.
func (w *ReviewWorkflow) Resubmit(ctx context.Context, userId, reportId int, supplementaryContent string) (*ReviewResult, error) {
	ctx, span := w.tracer.Start(ctx, "ReviewWorkflow.Resubmit")
	defer span.End()

	if supplementaryContent == "" {
		return nil, utils.NewValidationError("supplementaryContent is required")
	}

	report, err := w.store.GetReport(ctx, reportId)
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return nil, utils.NewNotFoundError(fmt.Sprintf("report %d not found", reportId))
		}
		return nil, err
	}
	if report.AuthorId != userId {
		return nil, utils.NewForbiddenError("only the author can resubmit a report")
	}

	transition, err := ValidateTransition(models.ReviewActionResubmit, report.ReviewStatus, report.ActionStatus)
	if err != nil {
		return nil, err
	}

	now := w.now()
	result := &ReviewResult{}
	event := &models.ReviewEvent{
		ReportId: report.ID,
		AdminId:  userId,
		Action:   models.ReviewActionResubmit,
		Comment:  supplementaryContent,
	}

	err = w.store.InTx(ctx, func(tx Store) error {
		ok, err := tx.CompareAndSwapReview(ctx, report.ID, report.ReviewStatus, report.ActionStatus, models.ReviewUpdate{
			ReviewStatus:        transition.ReviewStatus,
			AppendSupplementary: supplementaryContent,
		})
		if err != nil {
			return err
		}
		if !ok {
			return utils.NewConflictError(fmt.Sprintf("report %d was modified concurrently", report.ID))
		}
		if err := tx.AppendReviewEvent(ctx, event); err != nil {
			return err
		}
		rid := report.ID
		if err := tx.AppendLedgerEntry(ctx, &models.PointsLedgerEntry{
			UserId:     userId,
			SiteId:     report.SiteId,
			ReportId:   &rid,
			Amount:     ResubmitBonusPoints,
			ReasonCode: models.ReasonResubmitBonus,
			ReasonText: "보완 제출 보너스",
			OccurredAt: now,
		}); err != nil {
			return err
		}
		result.PointsAwarded = ResubmitBonusPoints
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated := *report
	updated.ReviewStatus = *transition.ReviewStatus
	updated.SupplementaryContent += supplementaryContent
	result.Report = &updated
	result.ReviewEventId = event.ID

	if err := w.store.WriteAudit(ctx, "REPORT_RESUBMIT", userId, "report", report.ID, ""); err != nil {
		config.LogError(config.GetLogger(), "reviewWorkflow.go", "Resubmit", "WriteAudit", reportId, err)
	}
	return result, nil
}

// ListEvents returns the review trail for a report, gated on site membership
// (the author may always read their own trail).
func (w *ReviewWorkflow) ListEvents(ctx context.Context, userId, reportId int) ([]*models.ReviewEvent, error) {
	report, err := w.store.GetReport(ctx, reportId)
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return nil, utils.NewNotFoundError(fmt.Sprintf("report %d not found", reportId))
		}
		return nil, err
	}
	if report.AuthorId != userId {
		user, err := w.store.GetUser(ctx, userId)
		if err != nil {
			if err == utils.ErrorRecordNotFound {
				return nil, utils.NewForbiddenError("unknown actor")
			}
			return nil, err
		}
		if user.Role != models.RoleSuperAdmin {
			member, err := w.store.IsActiveMember(ctx, userId, report.SiteId)
			if err != nil {
				return nil, err
			}
			if !member {
				return nil, utils.NewForbiddenError("no active membership on the report's site")
			}
		}
	}
	return w.store.ListReviewEvents(ctx, reportId)
}

func (w *ReviewWorkflow) authorizeAdmin(ctx context.Context, adminId, siteId int) error {
	actor, err := w.store.GetUser(ctx, adminId)
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return utils.NewForbiddenError("unknown actor")
		}
		return err
	}
	if actor.Role == models.RoleSuperAdmin {
		return nil
	}
	if actor.Role != models.RoleSiteAdmin && actor.Role != models.RoleManager {
		return utils.NewForbiddenError("role not permitted to review reports")
	}
	member, err := w.store.IsActiveMember(ctx, adminId, siteId)
	if err != nil {
		return err
	}
	if !member {
		return utils.NewForbiddenError("no active membership on the report's site")
	}
	return nil
}
