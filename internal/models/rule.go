package models

import (
	"time"
)

// Severity rule severity level
type Severity string

const (
	SeverityGreen  Severity = "green"
	SeverityYellow Severity = "yellow"
	SeverityRed    Severity = "red"
)

// Severities in descending rank order (red first)
var Severities = []Severity{SeverityRed, SeverityYellow, SeverityGreen}

// ParseSeverity converts user input into a Severity
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case SeverityGreen, SeverityYellow, SeverityRed:
		return Severity(s), true
	}
	return "", false
}

// Rank red=0, yellow=1, green=2; unknown sorts last
func (s Severity) Rank() int {
	switch s {
	case SeverityRed:
		return 0
	case SeverityYellow:
		return 1
	case SeverityGreen:
		return 2
	}
	return 3
}

// Emoji colored circle used in chat output
func (s Severity) Emoji() string {
	switch s {
	case SeverityRed:
		return "🔴"
	case SeverityYellow:
		return "🟡"
	case SeverityGreen:
		return "🟢"
	}
	return "⚪"
}

// ExpiresAt warning expiry window for this severity, starting at now
func (s Severity) ExpiresAt(now time.Time) time.Time {
	switch s {
	case SeverityGreen:
		return now.AddDate(0, 0, 7)
	case SeverityYellow:
		return now.AddDate(0, 0, 30)
	default:
		return now.AddDate(0, 6, 0)
	}
}

// SeverityRankOrder SQL ordering expression, red first
const SeverityRankOrder = "CASE severity WHEN 'red' THEN 0 WHEN 'yellow' THEN 1 ELSE 2 END"

// ModerationRule moderation rule table
type ModerationRule struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"column:rule_name;type:varchar(100);uniqueIndex;not null" json:"rule_name"`
	Description string    `gorm:"type:text" json:"description"`
	Severity    Severity  `gorm:"type:varchar(10);index;not null" json:"severity"`
	CreatedBy   int64     `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName table name
func (ModerationRule) TableName() string {
	return "moderation_rules"
}
