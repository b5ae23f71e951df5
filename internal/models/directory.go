package models

import "time"

// DirectoryEntry known user (username and display name by user id)
type DirectoryEntry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Username  string    `gorm:"type:varchar(255);index" json:"username"` // without @
	FirstName string    `gorm:"type:varchar(255)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(255)" json:"last_name"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName table name
func (DirectoryEntry) TableName() string {
	return "member_directory"
}

// DisplayName first + last name, falls back to username
func (d *DirectoryEntry) DisplayName() string {
	name := d.FirstName
	if d.LastName != "" {
		name += " " + d.LastName
	}
	if name == "" {
		name = d.Username
	}
	return name
}
