package models

import "time"

// MoodEntry mood log table
type MoodEntry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	Feeling   string    `gorm:"type:varchar(20);not null" json:"feeling"`
	Note      string    `gorm:"type:text" json:"note"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName table name
func (MoodEntry) TableName() string {
	return "mood_entries"
}

// Affirmation affirmation log table
type Affirmation struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName table name
func (Affirmation) TableName() string {
	return "affirmations"
}
