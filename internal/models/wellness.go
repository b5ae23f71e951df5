package models

import (
	"time"
)

// CheckStatus wellness check status
type CheckStatus string

const (
	CheckPending      CheckStatus = "pending"
	CheckReminderSent CheckStatus = "reminder_sent"
	CheckDMsDisabled  CheckStatus = "dms_disabled"
	CheckDone         CheckStatus = "done"
)

// Resolution reasons
const (
	ResolveManual   = "manual"
	ResolveTimeout  = "timeout"
	ResolveResponse = "response"
)

// SystemActor resolvedBy value used by automatic resolutions
const SystemActor = "system"

// WellnessCheck wellness check table
type WellnessCheck struct {
	ID               int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	CheckID          string      `gorm:"type:varchar(36);uniqueIndex;not null" json:"check_id"`
	UserID           int64       `gorm:"index;not null" json:"user_id"`
	ChatID           int64       `json:"chat_id"` // chat of the originating message, 0 if none
	FlaggedBy        int64       `gorm:"not null" json:"flagged_by"`
	MessageID        *int        `json:"message_id"`
	Note             string      `gorm:"type:text" json:"note"`
	AutoDM           bool        `gorm:"not null;default:false" json:"auto_dm"`
	ReminderTime     time.Time   `gorm:"index:idx_check_sweep,priority:2" json:"reminder_time"`
	CreatedAt        time.Time   `json:"created_at"`
	ResolvedAt       *time.Time  `json:"resolved_at"`
	ResolvedBy       string      `gorm:"type:varchar(32)" json:"resolved_by"`
	ResolutionReason string      `gorm:"type:varchar(16)" json:"resolution_reason"`
	UserResponded    bool        `gorm:"not null;default:false" json:"user_responded"`
	ResponseText     string      `gorm:"type:text" json:"response_text"`
	DMsDisabled      bool        `gorm:"column:dms_disabled;not null;default:false" json:"dms_disabled"`
	Status           CheckStatus `gorm:"type:varchar(16);index:idx_check_sweep,priority:1;not null" json:"status"`
}

// TableName table name
func (WellnessCheck) TableName() string {
	return "wellness_checks"
}

// IsDone whether the check reached its terminal state
func (c *WellnessCheck) IsDone() bool {
	return c.Status == CheckDone
}
