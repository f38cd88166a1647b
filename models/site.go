package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Site struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Code      string    `gorm:"size:64;index" json:"code"`
	IsActive  *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type SiteMembership struct {
	ID        int       `gorm:"primary_key" json:"id"`
	UserId    int       `gorm:"index:idx_membership_user_site,unique;not null" json:"user_id"`
	SiteId    int       `gorm:"index:idx_membership_user_site,unique;not null" json:"site_id"`
	IsActive  *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActiveMember reports whether the user holds an active membership on the
// site. SUPER_ADMIN bypasses membership checks at the workflow layer, not
// here.
func IsActiveMember(ctx context.Context, db *gorm.DB, userId, siteId int) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&SiteMembership{}).
		Where("user_id = ? AND site_id = ? AND is_active = ?", userId, siteId, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsActiveMemberAnywhere is the no-site-context variant used when a check
// arrives without a site filter.
func IsActiveMemberAnywhere(ctx context.Context, db *gorm.DB, userId int) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&SiteMembership{}).
		Where("user_id = ? AND is_active = ?", userId, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
