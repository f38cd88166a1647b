package workflow

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qws941/safetywallet-sub003/config"
	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/utils"
)

// Redis key maintained by the FAS health watcher. Value "down" means the
// biometric source is unhealthy and the gate fails open.
const FasStatusFlagKey = "fas:status"

const FasStatusDown = "down"

// AttendanceSource answers "was this worker physically present today". The
// gorm implementation reads the local attendance table; tests swap in a fake.
type AttendanceSource interface {
	HasSameDayAttendance(ctx context.Context, userId, siteId int, dayStart, dayEnd time.Time) (bool, error)
	HasManualApproval(ctx context.Context, userId, siteId int, validDate string) (bool, error)
}

// FlagSource reads shared, eventually-consistent operational flags (the FAS
// circuit breaker). Read errors must be survivable.
type FlagSource interface {
	GetFlag(ctx context.Context, key string) (string, bool, error)
}

type gormAttendanceSource struct {
	db *gorm.DB
}

func NewAttendanceSource(db *gorm.DB) AttendanceSource {
	return &gormAttendanceSource{db: db}
}

func (s *gormAttendanceSource) HasSameDayAttendance(ctx context.Context, userId, siteId int, dayStart, dayEnd time.Time) (bool, error) {
	return models.HasSameDayAttendance(ctx, s.db, userId, siteId, dayStart, dayEnd)
}

func (s *gormAttendanceSource) HasManualApproval(ctx context.Context, userId, siteId int, validDate string) (bool, error) {
	return models.HasManualApproval(ctx, s.db, userId, siteId, validDate)
}

type redisFlagSource struct{}

func NewRedisFlagSource() FlagSource {
	return redisFlagSource{}
}

func (redisFlagSource) GetFlag(ctx context.Context, key string) (string, bool, error) {
	return config.GetRedisValue(key)
}

// AttendanceGate decides whether a worker may submit or resubmit a report
// right now. Availability wins over the gating invariant: when the FAS
// breaker flag reads "down" the gate allows unconditionally, and a flag read
// error counts as healthy.
type AttendanceGate struct {
	store             Store
	attendance        AttendanceSource
	flags             FlagSource
	requireAttendance func() bool
	now               func() time.Time
}

func NewAttendanceGate(store Store, attendance AttendanceSource, flags FlagSource) *AttendanceGate {
	return &AttendanceGate{
		store:             store,
		attendance:        attendance,
		flags:             flags,
		requireAttendance: config.RequireAttendanceForPost,
		now:               time.Now,
	}
}

// Check returns nil when the worker may proceed. siteId 0 means the call has
// no site context.
func (g *AttendanceGate) Check(ctx context.Context, userId, siteId int) error {
	if siteId == 0 && !g.requireAttendance() {
		return nil
	}
	if userId == 0 {
		return utils.NewUnauthenticatedError("authentication required")
	}

	var member bool
	var err error
	if siteId > 0 {
		member, err = g.store.IsActiveMember(ctx, userId, siteId)
	} else {
		member, err = g.store.IsActiveMemberAnywhere(ctx, userId)
	}
	if err != nil {
		return err
	}
	if !member {
		return utils.NewForbiddenError("no active site membership")
	}

	policy, err := g.store.GetEffectiveAccessPolicy(ctx, siteId)
	if err != nil {
		return err
	}
	requireCheckin := policy.RequireCheckin == nil || *policy.RequireCheckin
	if !requireCheckin && !g.requireAttendance() {
		return nil
	}

	if flag, ok, err := g.flags.GetFlag(ctx, FasStatusFlagKey); err != nil {
		// Flag reads fail open on the breaker, the gate itself still runs.
		config.LogError(config.GetLogger(), "attendanceGate.go", "Check", "GetFlag", FasStatusFlagKey, err)
	} else if ok && flag == FasStatusDown {
		return nil
	}

	now := g.now()
	dayStart, dayEnd := utils.DayRange(now, policy.DayCutoffHour)
	present, err := g.attendance.HasSameDayAttendance(ctx, userId, siteId, dayStart, dayEnd)
	if err != nil {
		return err
	}
	if present {
		return nil
	}

	// Manual approval is the fallback, consulted only after the primary
	// check misses.
	approved, err := g.attendance.HasManualApproval(ctx, userId, siteId, dayStart.Format("2006-01-02"))
	if err != nil {
		return err
	}
	if approved {
		return nil
	}
	return utils.NewForbiddenError("attendance check-in required before posting")
}
