package models

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/qws941/safetywallet-sub003/config"
)

// PointPolicy overrides the engine's hard-coded base amount for one
// (site, reason) pair. At most one active policy per pair.
type PointPolicy struct {
	ID            int        `gorm:"primary_key" json:"id"`
	SiteId        int        `gorm:"index:idx_policy_site_reason;not null" json:"site_id"`
	ReasonCode    ReasonCode `gorm:"index:idx_policy_site_reason;size:64;not null" json:"reason_code"`
	DefaultAmount int        `gorm:"not null" json:"default_amount"`
	IsActive      *bool      `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetActivePolicyAmount returns the active override for (siteId, reason), or
// (0, false) when the hard-coded default applies. Cached in redis briefly;
// policies change rarely and the engine reads one per approval.
func GetActivePolicyAmount(ctx context.Context, db *gorm.DB, siteId int, reason ReasonCode) (int, bool, error) {
	redisKey := fmt.Sprintf("pointPolicy:%d:%s", siteId, reason)
	var cached int
	exists, err := config.GetRedisObject(redisKey, &cached)
	if err == nil && exists {
		return cached, cached != 0, nil
	}

	var policy PointPolicy
	err = db.WithContext(ctx).
		Where("site_id = ? AND reason_code = ? AND is_active = ?", siteId, reason, true).
		First(&policy).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			_ = config.SetRedisObject(redisKey, 0, 5*time.Minute)
			return 0, false, nil
		}
		return 0, false, err
	}
	_ = config.SetRedisObject(redisKey, policy.DefaultAmount, 5*time.Minute)
	return policy.DefaultAmount, true, nil
}
