package models

import (
	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Site{},
		&SiteMembership{},
		&Report{},
		&ReviewEvent{},
		&PointsLedgerEntry{},
		&PointPolicy{},
		&AccessPolicy{},
		&AttendanceRecord{},
		&ManualApproval{},
		&AuditLog{},
	)
}
