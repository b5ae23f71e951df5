package utils

import (
	"fmt"
	"strings"
	"time"

	"wellness-bot/internal/models"
)

// FormatUserMention user mention link
func FormatUserMention(userID int64, fullName string) string {
	if fullName == "" {
		fullName = fmt.Sprintf("%d", userID)
	}
	return fmt.Sprintf("[%s](tg://user?id=%d)", EscapeMarkdown(fullName), userID)
}

// EscapeMarkdown escapes the characters that are special in Telegram Markdown
func EscapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}

// FormatRules rule list grouped by severity, red first
func FormatRules(rules []models.ModerationRule) string {
	if len(rules) == 0 {
		return "📋 No rules have been configured yet."
	}

	headings := map[models.Severity]string{
		models.SeverityRed:    "🔴 *Major Violations*",
		models.SeverityYellow: "🟡 *Medium Violations*",
		models.SeverityGreen:  "🟢 *Minor Violations*",
	}

	var sb strings.Builder
	sb.WriteString("📋 *Server Moderation Rules*\n")
	sb.WriteString("Please review and follow all server rules.\n")

	var current models.Severity
	for _, rule := range rules {
		if rule.Severity != current {
			current = rule.Severity
			sb.WriteString("\n" + headings[current] + "\n")
		}
		sb.WriteString(fmt.Sprintf("• *%s*", EscapeMarkdown(rule.Name)))
		if rule.Description != "" {
			sb.WriteString(": " + EscapeMarkdown(rule.Description))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatWarningNotice announcement of a recorded warning
func FormatWarningNotice(rule *models.ModerationRule, warning *models.UserWarning, userName, warnedByName, nextAction string) string {
	if nextAction == "" {
		nextAction = "none"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s *User Warned*\n\n", rule.Severity.Emoji()))
	sb.WriteString(fmt.Sprintf("*User*: %s\n", FormatUserMention(warning.UserID, userName)))
	sb.WriteString(fmt.Sprintf("*Rule*: %s\n", EscapeMarkdown(rule.Name)))
	if rule.Description != "" {
		sb.WriteString(fmt.Sprintf("*Description*: %s\n", EscapeMarkdown(rule.Description)))
	}
	sb.WriteString(fmt.Sprintf("*Severity*: %s\n", strings.ToUpper(string(rule.Severity))))
	sb.WriteString(fmt.Sprintf("*Warning Count*: %d\n", warning.WarningCount))
	sb.WriteString(fmt.Sprintf("*Next Action*: %s\n", nextAction))
	sb.WriteString(fmt.Sprintf("*Warned By*: %s\n", FormatUserMention(warning.WarnedBy, warnedByName)))
	if warning.ExpiresAt != nil {
		sb.WriteString(fmt.Sprintf("*Expires*: `%s`\n", FormatTimestamp(*warning.ExpiresAt)))
	}
	sb.WriteString(fmt.Sprintf("*User ID*: `%d`", warning.UserID))
	return sb.String()
}

// FormatWarningDM message sent to the warned user
func FormatWarningDM(rule *models.ModerationRule, count, sequenceLen int, chatTitle string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s *You've been warned*", rule.Severity.Emoji()))
	if chatTitle != "" {
		sb.WriteString(fmt.Sprintf(" in *%s*", EscapeMarkdown(chatTitle)))
	}
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("*Rule*: %s\n", EscapeMarkdown(rule.Name)))
	if rule.Description != "" {
		sb.WriteString(fmt.Sprintf("*Description*: %s\n", EscapeMarkdown(rule.Description)))
	}
	sb.WriteString(fmt.Sprintf("*Severity*: %s\n", strings.ToUpper(string(rule.Severity))))
	sb.WriteString(fmt.Sprintf("*Warning Count*: %d/%d", count, sequenceLen))
	return sb.String()
}

// FormatCheckFlagged moderator notice for a new wellness check
func FormatCheckFlagged(check *models.WellnessCheck, userName, flaggedByName string) string {
	kind := "Reminder"
	if check.AutoDM {
		kind = "Auto-DM Check"
	}

	var sb strings.Builder
	sb.WriteString("🐻 *Wellness Check Flagged*\n\n")
	sb.WriteString(fmt.Sprintf("*User*: %s\n", FormatUserMention(check.UserID, userName)))
	sb.WriteString(fmt.Sprintf("*Flagged By*: %s\n", FormatUserMention(check.FlaggedBy, flaggedByName)))
	sb.WriteString(fmt.Sprintf("*Type*: %s\n", kind))
	sb.WriteString(fmt.Sprintf("*Reminder Time*: `%s`\n", FormatTimestamp(check.ReminderTime)))
	sb.WriteString("*Status*: Pending\n")
	if check.DMsDisabled {
		sb.WriteString("⚠️ User has DMs disabled\n")
	}
	if check.Note != "" {
		sb.WriteString(fmt.Sprintf("*Note*: %s\n", EscapeMarkdown(check.Note)))
	}
	if check.MessageID != nil {
		sb.WriteString(fmt.Sprintf("*Message ID*: `%d`\n", *check.MessageID))
	}
	sb.WriteString(fmt.Sprintf("\nCheck ID: `%s`", check.CheckID))
	return sb.String()
}

// FormatCheckDM wellness check-in sent to the user
func FormatCheckDM(check *models.WellnessCheck) string {
	return "🐻 *Wellness Check-In*\n\n" +
		"Hi there! We just wanted to check in and see how you're doing. " +
		"Reply to this message to let us know you're okay!\n\n" +
		fmt.Sprintf("Check ID: `%s`", check.CheckID)
}

// FormatCheckReminder moderator reminder once the reminder time is reached
func FormatCheckReminder(check *models.WellnessCheck, userName, flaggedByName string) string {
	var sb strings.Builder
	sb.WriteString("🔔 *Wellness Check Reminder*\n\n")
	sb.WriteString(fmt.Sprintf("*User*: %s\n", FormatUserMention(check.UserID, userName)))
	sb.WriteString(fmt.Sprintf("*Flagged By*: %s\n", FormatUserMention(check.FlaggedBy, flaggedByName)))
	sb.WriteString("*Time Elapsed*: Reminder time reached\n")
	if check.DMsDisabled {
		sb.WriteString("⚠️ User has DMs disabled\n")
	}
	if check.Note != "" {
		sb.WriteString(fmt.Sprintf("*Note*: %s\n", EscapeMarkdown(check.Note)))
	}
	sb.WriteString(fmt.Sprintf("\nCheck ID: `%s`", check.CheckID))
	return sb.String()
}

// FormatCheckResponse moderator notice that the user answered
func FormatCheckResponse(check *models.WellnessCheck, userName, responseText string) string {
	if responseText == "" {
		responseText = "User responded to check"
	}

	var sb strings.Builder
	sb.WriteString("✅ *Wellness Check - User Responded*\n\n")
	sb.WriteString(fmt.Sprintf("*User*: %s\n", FormatUserMention(check.UserID, userName)))
	sb.WriteString(fmt.Sprintf("*Response*: %s\n", EscapeMarkdown(TruncateString(responseText, 1000))))
	if check.Note != "" {
		sb.WriteString(fmt.Sprintf("*Original Note*: %s\n", EscapeMarkdown(check.Note)))
	}
	sb.WriteString(fmt.Sprintf("\nCheck ID: `%s`", check.CheckID))
	return sb.String()
}

// FormatCheckResolved moderator notice for a manual resolution
func FormatCheckResolved(check *models.WellnessCheck, userName, resolvedByName string) string {
	var sb strings.Builder
	sb.WriteString("☑️ *Wellness Check Resolved*\n\n")
	sb.WriteString(fmt.Sprintf("*User*: %s\n", FormatUserMention(check.UserID, userName)))
	sb.WriteString(fmt.Sprintf("*Resolved By*: %s\n", EscapeMarkdown(resolvedByName)))
	if check.ResolvedAt != nil {
		sb.WriteString(fmt.Sprintf("*Resolved At*: `%s`\n", FormatTimestamp(*check.ResolvedAt)))
	}
	sb.WriteString(fmt.Sprintf("\nCheck ID: `%s`", check.CheckID))
	return sb.String()
}

// FormatCheckTimeout moderator notice for an auto-DM check nobody answered
func FormatCheckTimeout(check *models.WellnessCheck, userName, flaggedByName string, timeout time.Duration) string {
	var sb strings.Builder
	sb.WriteString("⏱️ *Wellness Check Timed Out*\n\n")
	sb.WriteString(fmt.Sprintf("%s did not respond within %s.\n", FormatUserMention(check.UserID, userName), HumanizeDuration(timeout)))
	sb.WriteString(fmt.Sprintf("*Flagged By*: %s\n", FormatUserMention(check.FlaggedBy, flaggedByName)))
	sb.WriteString("*Status*: Timed Out\n")
	if check.Note != "" {
		sb.WriteString(fmt.Sprintf("*Note*: %s\n", EscapeMarkdown(check.Note)))
	}
	if check.DMsDisabled {
		sb.WriteString("⚠️ User has DMs disabled\n")
	}
	sb.WriteString(fmt.Sprintf("\nCheck ID: `%s`", check.CheckID))
	return sb.String()
}

// FormatMilestone public milestone celebration
func FormatMilestone(userID int64, userName, emoji, message string) string {
	return fmt.Sprintf("%s *MILESTONE CELEBRATION!* %s\n\n%s %s\n\nLet's celebrate this amazing achievement! 👏",
		emoji, emoji, FormatUserMention(userID, userName), message)
}
