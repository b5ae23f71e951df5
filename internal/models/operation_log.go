package models

import (
	"time"
)

// OperationLog audit log table
type OperationLog struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OperationType string    `gorm:"type:varchar(32);index;not null" json:"operation_type"`
	TargetUserID  int64     `gorm:"index;not null" json:"target_user_id"`
	OperatorID    int64     `gorm:"not null" json:"operator_id"`
	Detail        string    `gorm:"type:text" json:"detail"`
	Success       bool      `gorm:"not null" json:"success"`
	ErrorMsg      string    `gorm:"type:text" json:"error_msg"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName table name
func (OperationLog) TableName() string {
	return "operation_logs"
}

// Operation types
const (
	OpAddRule      = "add_rule"
	OpWarn         = "warn"
	OpClearAll     = "clear_all_warnings"
	OpClearOne     = "clear_warning"
	OpCheckCreate  = "check_create"
	OpCheckResolve = "check_resolve"
	OpUwuLock      = "uwu_lock"
	OpUwuUnlock    = "uwu_unlock"
	OpStaffAdd     = "staff_add"
	OpStaffRemove  = "staff_remove"
)
