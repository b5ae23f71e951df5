package models

import (
	"time"
)

// UserWarning accumulated warnings of one user for one rule
type UserWarning struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64      `gorm:"index:idx_warning_lookup,priority:1;not null" json:"user_id"`
	RuleID       int64      `gorm:"index:idx_warning_lookup,priority:2;not null" json:"rule_id"`
	RuleName     string     `gorm:"type:varchar(100)" json:"rule_name"` // copied at warning time
	Severity     Severity   `gorm:"type:varchar(10);not null" json:"severity"`
	WarningCount int        `gorm:"not null;default:1" json:"warning_count"`
	WarnedBy     int64      `gorm:"not null" json:"warned_by"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	ExpiresAt    *time.Time `gorm:"index:idx_warning_lookup,priority:3" json:"expires_at"`
}

// TableName table name
func (UserWarning) TableName() string {
	return "user_warnings"
}

// IsActiveAt whether the warning still counts at the given time
func (w *UserWarning) IsActiveAt(now time.Time) bool {
	return w.ExpiresAt == nil || w.ExpiresAt.After(now)
}
