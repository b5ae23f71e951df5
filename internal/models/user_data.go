package models

import "time"

// UserData free-form per-user JSON document
type UserData struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Data      string    `gorm:"type:text" json:"data"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName table name
func (UserData) TableName() string {
	return "user_data"
}

// User data keys
const (
	KeyNoContactStart      = "noContactStartDate"
	KeyAnnouncedMilestones = "announcedMilestones"
	KeyUwuLocked           = "uwuLocked"
	KeyGifStats            = "gifStats"
)
