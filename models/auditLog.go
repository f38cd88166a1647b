package models

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/qws941/safetywallet-sub003/config"
	"github.com/qws941/safetywallet-sub003/utils"
)

type AuditLog struct {
	ID         int       `gorm:"primary_key" json:"id"`
	Action     string    `gorm:"size:64;not null;index" json:"action"`
	ActorId    int       `gorm:"index" json:"actor_id"`
	TargetType string    `gorm:"size:32;not null" json:"target_type"`
	TargetId   string    `gorm:"size:64;not null" json:"target_id"`
	Reason     string    `gorm:"size:512" json:"reason"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// WriteAudit appends the durable audit row and fans the event out to
// Pub/Sub. The fan-out is best effort: a publish failure is logged and
// swallowed, never returned to the request.
func WriteAudit(ctx context.Context, db *gorm.DB, action string, actorId int, targetType string, targetId int, reason string) error {
	entry := AuditLog{
		Action:     action,
		ActorId:    actorId,
		TargetType: targetType,
		TargetId:   fmt.Sprint(targetId),
		Reason:     reason,
	}
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}

	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	go func() {
		msg := config.AuditMessage{
			Action:        action,
			ActorId:       actorId,
			TargetType:    targetType,
			TargetId:      entry.TargetId,
			Reason:        reason,
			OccurredAt:    entry.CreatedAt,
			CorrelationId: cid,
		}
		if err := config.PublishAudit(context.Background(), msg); err != nil {
			config.LogError(config.GetLogger(), "auditLog.go", "WriteAudit", "PublishAudit", msg, err)
		}
	}()
	return nil
}
