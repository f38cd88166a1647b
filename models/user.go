package models

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qws941/safetywallet-sub003/utils"
)

type User struct {
	ID               int        `gorm:"primary_key" json:"id"`
	Phone            string     `gorm:"size:32;uniqueIndex" json:"phone"`
	Name             string     `gorm:"size:255;not null" json:"name"`
	Role             UserRole   `gorm:"size:32;not null;default:WORKER" json:"role"`
	ExternalWorkerId string     `gorm:"size:64;index" json:"external_worker_id"`
	FalseReportCount int        `gorm:"default:0" json:"false_report_count"`
	RestrictedUntil  *time.Time `json:"restricted_until"`
	IsActive         *bool      `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetId implements the dataloader key interface.
func (u User) GetId() int {
	return u.ID
}

func (u User) GetDefault(id int) Data {
	return User{
		ID:        id,
		Role:      RoleWorker,
		IsActive:  utils.NewFalse(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func GetUser(ctx context.Context, db *gorm.DB, id int) (*User, error) {
	var user User
	if err := db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListUsersByIds feeds the batch loader.
func ListUsersByIds(ctx context.Context, db *gorm.DB, ids []int) ([]User, error) {
	var users []User
	if len(ids) == 0 {
		return users, nil
	}
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// GetUsersByExternalWorkerIds resolves FAS worker codes to local users.
// Missing codes are simply absent from the map (unmatched workers are
// expected during sync).
func GetUsersByExternalWorkerIds(ctx context.Context, db *gorm.DB, workerIds []string) (map[string]*User, error) {
	out := make(map[string]*User, len(workerIds))
	if len(workerIds) == 0 {
		return out, nil
	}
	var users []*User
	if err := db.WithContext(ctx).
		Where("external_worker_id IN ?", workerIds).
		Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ExternalWorkerId != "" {
			out[u.ExternalWorkerId] = u
		}
	}
	return out, nil
}

// GetUserByPhone looks a user up by their normalized (E.164) phone number.
func GetUserByPhone(ctx context.Context, db *gorm.DB, phone string) (*User, error) {
	var user User
	if err := db.WithContext(ctx).First(&user, "phone = ?", phone).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// RecordFalseReportStrike increments the user's false-report counter; the
// third strike restricts submissions for seven days unless an active
// restriction is already running.
func RecordFalseReportStrike(ctx context.Context, tx *gorm.DB, userId int, now time.Time) error {
	var user User
	if err := tx.WithContext(ctx).First(&user, "id = ?", userId).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorRecordNotFound
		}
		return err
	}

	nextCount := user.FalseReportCount + 1
	restrictedUntil := user.RestrictedUntil
	if nextCount >= 3 && (restrictedUntil == nil || !restrictedUntil.After(now)) {
		until := now.Add(7 * 24 * time.Hour)
		restrictedUntil = &until
	}

	return tx.WithContext(ctx).Model(&User{}).
		Where("id = ?", userId).
		Updates(map[string]interface{}{
			"false_report_count": nextCount,
			"restricted_until":   restrictedUntil,
		}).Error
}
