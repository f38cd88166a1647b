package workflow

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qws941/safetywallet-sub003/models"
)

// Store is the persistence port of the review and points workflows. The gorm
// implementation below is the production one; tests substitute an in-memory
// fake so the workflow logic runs without a database.
type Store interface {
	GetReport(ctx context.Context, id int) (*models.Report, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	IsActiveMember(ctx context.Context, userId, siteId int) (bool, error)
	IsActiveMemberAnywhere(ctx context.Context, userId int) (bool, error)
	GetEffectiveAccessPolicy(ctx context.Context, siteId int) (*models.AccessPolicy, error)

	GetDailyStats(ctx context.Context, userId, siteId int, dayStart, dayEnd time.Time) (models.DailyStats, error)
	HasApprovedDuplicate(ctx context.Context, userId, siteId int, category models.ReportCategory, floor, zone string, now time.Time) (bool, error)
	GetActivePolicyAmount(ctx context.Context, siteId int, reason models.ReasonCode) (int, bool, error)
	GetApprovalAward(ctx context.Context, userId, siteId, reportId int) (*models.PointsLedgerEntry, error)
	HasLedgerEntry(ctx context.Context, reportId int, reason models.ReasonCode) (bool, error)

	CompareAndSwapReview(ctx context.Context, reportId int, expectedReview models.ReviewStatus, expectedAction models.ActionStatus, upd models.ReviewUpdate) (bool, error)
	ListReviewEvents(ctx context.Context, reportId int) ([]*models.ReviewEvent, error)
	AppendReviewEvent(ctx context.Context, event *models.ReviewEvent) error
	AppendLedgerEntry(ctx context.Context, entry *models.PointsLedgerEntry) error
	RecordFalseReportStrike(ctx context.Context, userId int, now time.Time) error
	WriteAudit(ctx context.Context, action string, actorId int, targetType string, targetId int, reason string) error

	// InTx runs fn against a transaction-scoped Store; fn returning an error
	// rolls everything back.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) GetReport(ctx context.Context, id int) (*models.Report, error) {
	return models.GetReport(ctx, s.db, id)
}

func (s *gormStore) GetUser(ctx context.Context, id int) (*models.User, error) {
	return models.GetUser(ctx, s.db, id)
}

func (s *gormStore) IsActiveMember(ctx context.Context, userId, siteId int) (bool, error) {
	return models.IsActiveMember(ctx, s.db, userId, siteId)
}

func (s *gormStore) IsActiveMemberAnywhere(ctx context.Context, userId int) (bool, error) {
	return models.IsActiveMemberAnywhere(ctx, s.db, userId)
}

func (s *gormStore) GetEffectiveAccessPolicy(ctx context.Context, siteId int) (*models.AccessPolicy, error) {
	return models.GetEffectiveAccessPolicy(ctx, s.db, siteId)
}

func (s *gormStore) GetDailyStats(ctx context.Context, userId, siteId int, dayStart, dayEnd time.Time) (models.DailyStats, error) {
	return models.GetDailyStats(ctx, s.db, userId, siteId, dayStart, dayEnd)
}

func (s *gormStore) HasApprovedDuplicate(ctx context.Context, userId, siteId int, category models.ReportCategory, floor, zone string, now time.Time) (bool, error) {
	return models.HasApprovedDuplicate(ctx, s.db, userId, siteId, category, floor, zone, now)
}

func (s *gormStore) GetActivePolicyAmount(ctx context.Context, siteId int, reason models.ReasonCode) (int, bool, error) {
	return models.GetActivePolicyAmount(ctx, s.db, siteId, reason)
}

func (s *gormStore) GetApprovalAward(ctx context.Context, userId, siteId, reportId int) (*models.PointsLedgerEntry, error) {
	return models.GetApprovalAward(ctx, s.db, userId, siteId, reportId)
}

func (s *gormStore) HasLedgerEntry(ctx context.Context, reportId int, reason models.ReasonCode) (bool, error) {
	return models.HasLedgerEntry(ctx, s.db, reportId, reason)
}

func (s *gormStore) CompareAndSwapReview(ctx context.Context, reportId int, expectedReview models.ReviewStatus, expectedAction models.ActionStatus, upd models.ReviewUpdate) (bool, error) {
	return models.CompareAndSwapReview(ctx, s.db, reportId, expectedReview, expectedAction, upd)
}

func (s *gormStore) ListReviewEvents(ctx context.Context, reportId int) ([]*models.ReviewEvent, error) {
	return models.ListReviewEvents(ctx, s.db, reportId)
}

func (s *gormStore) AppendReviewEvent(ctx context.Context, event *models.ReviewEvent) error {
	return models.AppendReviewEvent(ctx, s.db, event)
}

func (s *gormStore) AppendLedgerEntry(ctx context.Context, entry *models.PointsLedgerEntry) error {
	return models.AppendLedgerEntry(ctx, s.db, entry)
}

func (s *gormStore) RecordFalseReportStrike(ctx context.Context, userId int, now time.Time) error {
	return models.RecordFalseReportStrike(ctx, s.db, userId, now)
}

func (s *gormStore) WriteAudit(ctx context.Context, action string, actorId int, targetType string, targetId int, reason string) error {
	return models.WriteAudit(ctx, s.db, action, actorId, targetType, targetId, reason)
}

func (s *gormStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
