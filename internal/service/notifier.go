package service

import (
	"context"
	"time"
)

// Button inline button attached to a notice
type Button struct {
	Label string
	Data  string
}

// Notice outgoing message
type Notice struct {
	Text    string
	Buttons []Button
	// Animation optional local file sent instead of a plain text message
	Animation string
}

// Notifier outward notification sink
type Notifier interface {
	// NotifyModerators posts to the moderator chat
	NotifyModerators(ctx context.Context, n Notice) error
	// NotifyUser sends a direct message; fails when the user cannot be reached
	NotifyUser(ctx context.Context, userID int64, n Notice) error
	// Post sends to an arbitrary chat (milestone, mood and affirmation channels)
	Post(ctx context.Context, chatID int64, n Notice) error
}

// NameResolver resolves a display name for formatting only
type NameResolver interface {
	DisplayName(ctx context.Context, userID int64) string
}

// Clock returns the current time
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}
