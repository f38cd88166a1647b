package workflow

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/qws941/safetywallet-sub003/config"
	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/utils"
)

var settleMonthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// SettlementSnapshot freezes one site's per-user monthly totals so the
// payroll export reads a stable picture even while new entries land.
type SettlementSnapshot struct {
	SiteId      int                    `json:"site_id"`
	SettleMonth string                 `json:"settle_month"`
	Totals      []*models.MonthlyTotal `json:"totals"`
	TakenAt     time.Time              `json:"taken_at"`
}

// SnapshotMonthlySettlement aggregates the ledger for (site, month) and
// stores the snapshot under a stable key. Re-running replaces the snapshot;
// the ledger itself stays untouched.
func SnapshotMonthlySettlement(ctx context.Context, db *gorm.DB, siteId int, settleMonth string) (*SettlementSnapshot, error) {
	if !settleMonthPattern.MatchString(settleMonth) {
		return nil, utils.NewValidationError("settleMonth must be YYYY-MM")
	}

	totals, err := models.GetMonthlyTotals(ctx, db, siteId, settleMonth)
	if err != nil {
		return nil, err
	}
	snapshot := &SettlementSnapshot{
		SiteId:      siteId,
		SettleMonth: settleMonth,
		Totals:      totals,
		TakenAt:     time.Now(),
	}

	key := fmt.Sprintf("settlement:%d:%s", siteId, settleMonth)
	if err := config.SetRedisObject(key, snapshot, 0); err != nil {
		config.LogError(config.GetLogger(), "settlement.go", "SnapshotMonthlySettlement", "SetRedisObject", key, err)
	}
	return snapshot, nil
}

// GetSettlementSnapshot returns a previously taken snapshot, or nil when none
// exists for the pair.
func GetSettlementSnapshot(siteId int, settleMonth string) (*SettlementSnapshot, error) {
	key := fmt.Sprintf("settlement:%d:%s", siteId, settleMonth)
	var snapshot SettlementSnapshot
	found, err := config.GetRedisObject(key, &snapshot)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &snapshot, nil
}
