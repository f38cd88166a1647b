package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// ReviewEvent rows are the append-only review trail (one per accepted
// transition). They are informational: the conditional update on the report
// row is the source of truth for the current status.
type ReviewEvent struct {
	ID         int          `gorm:"primary_key" json:"id"`
	ReportId   int          `gorm:"index;not null" json:"report_id"`
	AdminId    int          `gorm:"index;not null" json:"admin_id"`
	Action     ReviewAction `gorm:"size:32;not null" json:"action"`
	ReasonCode string       `gorm:"size:64" json:"reason_code"`
	Comment    string       `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time    `gorm:"autoCreateTime;index" json:"created_at"`
}

func (e ReviewEvent) GetId() int {
	return e.ID
}

func AppendReviewEvent(ctx context.Context, tx *gorm.DB, event *ReviewEvent) error {
	return tx.WithContext(ctx).Create(event).Error
}

func ListReviewEvents(ctx context.Context, db *gorm.DB, reportId int) ([]*ReviewEvent, error) {
	var events []*ReviewEvent
	err := db.WithContext(ctx).
		Where("report_id = ?", reportId).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
