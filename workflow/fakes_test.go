package workflow

import (
	"context"
	"time"

	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/utils"
)

// fakeStore is the in-memory Store used by the workflow tests. GetReport
// serves queued stale snapshots first so races between two reviewers working
// from the same old read can be replayed deterministically.
type fakeStore struct {
	reports      map[int]*models.Report
	users        map[int]*models.User
	members      map[[2]int]bool
	membersAny   map[int]bool
	policies     map[int]*models.AccessPolicy
	dailyStats   map[int]models.DailyStats
	duplicates   map[int]bool
	policyAmount map[models.ReasonCode]int

	ledger  []*models.PointsLedgerEntry
	events  []*models.ReviewEvent
	strikes []int
	audits  []string

	staleSnapshots []*models.Report

	nextEventId int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reports:      map[int]*models.Report{},
		users:        map[int]*models.User{},
		members:      map[[2]int]bool{},
		membersAny:   map[int]bool{},
		policies:     map[int]*models.AccessPolicy{},
		dailyStats:   map[int]models.DailyStats{},
		duplicates:   map[int]bool{},
		policyAmount: map[models.ReasonCode]int{},
	}
}

func (f *fakeStore) GetReport(ctx context.Context, id int) (*models.Report, error) {
	if len(f.staleSnapshots) > 0 {
		snap := f.staleSnapshots[0]
		f.staleSnapshots = f.staleSnapshots[1:]
		cp := *snap
		return &cp, nil
	}
	r, ok := f.reports[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) GetUser(ctx context.Context, id int) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) IsActiveMember(ctx context.Context, userId, siteId int) (bool, error) {
	return f.members[[2]int{userId, siteId}], nil
}

func (f *fakeStore) IsActiveMemberAnywhere(ctx context.Context, userId int) (bool, error) {
	return f.membersAny[userId], nil
}

func (f *fakeStore) GetEffectiveAccessPolicy(ctx context.Context, siteId int) (*models.AccessPolicy, error) {
	if p, ok := f.policies[siteId]; ok {
		return p, nil
	}
	return &models.AccessPolicy{
		SiteId:         siteId,
		RequireCheckin: utils.NewTrue(),
		DayCutoffHour:  models.DefaultDayCutoffHour,
	}, nil
}

func (f *fakeStore) GetDailyStats(ctx context.Context, userId, siteId int, dayStart, dayEnd time.Time) (models.DailyStats, error) {
	return f.dailyStats[userId], nil
}

func (f *fakeStore) HasApprovedDuplicate(ctx context.Context, userId, siteId int, category models.ReportCategory, floor, zone string, now time.Time) (bool, error) {
	return f.duplicates[userId], nil
}

func (f *fakeStore) GetActivePolicyAmount(ctx context.Context, siteId int, reason models.ReasonCode) (int, bool, error) {
	amount, ok := f.policyAmount[reason]
	return amount, ok, nil
}

func (f *fakeStore) GetApprovalAward(ctx context.Context, userId, siteId, reportId int) (*models.PointsLedgerEntry, error) {
	for _, e := range f.ledger {
		if e.UserId == userId && e.SiteId == siteId &&
			e.ReportId != nil && *e.ReportId == reportId &&
			e.ReasonCode == models.ReasonReportApproved {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) HasLedgerEntry(ctx context.Context, reportId int, reason models.ReasonCode) (bool, error) {
	for _, e := range f.ledger {
		if e.ReportId != nil && *e.ReportId == reportId && e.ReasonCode == reason {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CompareAndSwapReview(ctx context.Context, reportId int, expectedReview models.ReviewStatus, expectedAction models.ActionStatus, upd models.ReviewUpdate) (bool, error) {
	r, ok := f.reports[reportId]
	if !ok || r.ReviewStatus != expectedReview || r.ActionStatus != expectedAction {
		return false, nil
	}
	if upd.ReviewStatus != nil {
		r.ReviewStatus = *upd.ReviewStatus
	}
	if upd.ActionStatus != nil {
		r.ActionStatus = *upd.ActionStatus
	}
	if upd.IsUrgent != nil {
		r.IsUrgent = upd.IsUrgent
	}
	if upd.AppendSupplementary != "" {
		r.SupplementaryContent += upd.AppendSupplementary
	}
	return true, nil
}

func (f *fakeStore) ListReviewEvents(ctx context.Context, reportId int) ([]*models.ReviewEvent, error) {
	var out []*models.ReviewEvent
	for _, e := range f.events {
		if e.ReportId == reportId {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendReviewEvent(ctx context.Context, event *models.ReviewEvent) error {
	f.nextEventId++
	event.ID = f.nextEventId
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) AppendLedgerEntry(ctx context.Context, entry *models.PointsLedgerEntry) error {
	if entry.SettleMonth == "" {
		entry.SettleMonth = utils.SettleMonth(entry.OccurredAt)
	}
	f.ledger = append(f.ledger, entry)
	return nil
}

func (f *fakeStore) RecordFalseReportStrike(ctx context.Context, userId int, now time.Time) error {
	f.strikes = append(f.strikes, userId)
	return nil
}

func (f *fakeStore) WriteAudit(ctx context.Context, action string, actorId int, targetType string, targetId int, reason string) error {
	f.audits = append(f.audits, action)
	return nil
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(f)
}

// fakeAttendance backs the gate tests.
type fakeAttendance struct {
	present  bool
	approved bool
}

func (f fakeAttendance) HasSameDayAttendance(ctx context.Context, userId, siteId int, dayStart, dayEnd time.Time) (bool, error) {
	return f.present, nil
}

func (f fakeAttendance) HasManualApproval(ctx context.Context, userId, siteId int, validDate string) (bool, error) {
	return f.approved, nil
}

type fakeFlags struct {
	value string
	found bool
	err   error
}

func (f fakeFlags) GetFlag(ctx context.Context, key string) (string, bool, error) {
	return f.value, f.found, f.err
}
