package utils

import (
	"strings"
	"testing"
	"time"

	"wellness-bot/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `a\_b\*c\[d\`+"`", EscapeMarkdown("a_b*c[d`"))
	assert.Equal(t, "[12](tg://user?id=12)", FormatUserMention(12, ""))
	assert.Equal(t, `[snake\_case](tg://user?id=3)`, FormatUserMention(3, "snake_case"))
}

func TestFormatRules(t *testing.T) {
	assert.Contains(t, FormatRules(nil), "No rules")

	out := FormatRules([]models.ModerationRule{
		{Name: "doxxing", Severity: models.SeverityRed},
		{Name: "spam", Description: "no ads", Severity: models.SeverityYellow},
		{Name: "off_topic", Severity: models.SeverityGreen},
	})
	assert.Less(t, strings.Index(out, "Major"), strings.Index(out, "Medium"))
	assert.Less(t, strings.Index(out, "Medium"), strings.Index(out, "Minor"))
	assert.Contains(t, out, "*spam*: no ads")
	assert.Contains(t, out, `off\_topic`)
}

func TestFormatWarningNotice(t *testing.T) {
	expires := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	rule := &models.ModerationRule{Name: "spam", Severity: models.SeverityGreen}
	warning := &models.UserWarning{UserID: 5, WarnedBy: 9, WarningCount: 3, ExpiresAt: &expires}

	out := FormatWarningNotice(rule, warning, "Eve", "Mod", "mute")
	assert.Contains(t, out, "*Warning Count*: 3")
	assert.Contains(t, out, "*Next Action*: mute")
	assert.Contains(t, out, "2025-01-08 00:00 UTC")

	out = FormatWarningNotice(rule, warning, "Eve", "Mod", "")
	assert.Contains(t, out, "*Next Action*: none")
}

func TestFormatCheckMessages(t *testing.T) {
	msgID := 77
	check := &models.WellnessCheck{
		CheckID:      "abc",
		UserID:       5,
		FlaggedBy:    9,
		MessageID:    &msgID,
		Note:         "seems_down",
		AutoDM:       true,
		DMsDisabled:  true,
		ReminderTime: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	flagged := FormatCheckFlagged(check, "Eve", "Mod")
	assert.Contains(t, flagged, "Wellness Check Flagged")
	assert.Contains(t, flagged, "Auto-DM Check")
	assert.Contains(t, flagged, `seems\_down`)
	assert.Contains(t, flagged, "`77`")
	assert.Contains(t, flagged, "DMs disabled")

	assert.Contains(t, FormatCheckReminder(check, "Eve", "Mod"), "DMs disabled")
	assert.Contains(t, FormatCheckTimeout(check, "Eve", "Mod", 24*time.Hour), "24 hours")
	assert.Contains(t, FormatCheckResponse(check, "Eve", "i'm ok"), "i'm ok")
	assert.Contains(t, FormatCheckResolved(check, "Eve", "Mod"), "Wellness Check Resolved")
}
