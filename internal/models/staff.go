package models

import (
	"time"
)

// Staff roles
const (
	RoleMod   = "mod"
	RoleAdmin = "admin"
)

// StaffMember moderator/admin table
type StaffMember struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Role     string    `gorm:"type:varchar(10);not null" json:"role"`
	Username string    `gorm:"type:varchar(255)" json:"username"`
	FullName string    `gorm:"type:varchar(255)" json:"full_name"`
	AddedAt  time.Time `gorm:"autoCreateTime" json:"added_at"`
	AddedBy  int64     `json:"added_by"`
}

// TableName table name
func (StaffMember) TableName() string {
	return "staff_members"
}
