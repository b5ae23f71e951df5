package bot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"wellness-bot/internal/models"
	"wellness-bot/internal/service"
	"wellness-bot/internal/utils"
)

// formatUserStatus active warnings, next actions and open checks of a user
func formatUserStatus(userID int64, name string, summary *service.WarningSummary, openChecks []models.WellnessCheck) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *User Status*: %s\n\n", utils.FormatUserMention(userID, name)))

	if summary.Total == 0 {
		sb.WriteString("✅ No active warnings.\n")
	} else {
		sb.WriteString(fmt.Sprintf("*Active warnings*: %d\n", summary.Total))
		for _, r := range summary.ByRule {
			line := fmt.Sprintf("%s %s ×%d", r.Severity.Emoji(), utils.EscapeMarkdown(r.RuleName), r.Count)
			if r.ExpiresAt != nil {
				line += fmt.Sprintf(" (expires `%s`)", utils.FormatTimestamp(*r.ExpiresAt))
			}
			sb.WriteString(line + "\n")
		}

		sb.WriteString("\n*Next action*\n")
		for _, sev := range models.Severities {
			if action, ok := summary.NextActions[sev]; ok {
				sb.WriteString(fmt.Sprintf("%s %s: %s\n", sev.Emoji(), strings.ToUpper(string(sev)), orNone(action)))
			}
		}
	}

	if len(openChecks) > 0 {
		sb.WriteString(fmt.Sprintf("\n🐻 *Open wellness checks*: %d\n", len(openChecks)))
		for _, c := range openChecks {
			sb.WriteString(fmt.Sprintf("• `%s` %s, reminder `%s`\n", c.CheckID, utils.EscapeMarkdown(string(c.Status)), utils.FormatTimestamp(c.ReminderTime)))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatNoContact(status *service.NoContactStatus) string {
	var sb strings.Builder
	sb.WriteString("🌱 *No-Contact Progress*\n\n")
	sb.WriteString(fmt.Sprintf("*Started*: %s\n", utils.FormatDate(status.StartDate)))
	sb.WriteString(fmt.Sprintf("*Days*: %d\n", status.Days))

	if status.Milestone != nil {
		sb.WriteString(fmt.Sprintf("\n%s You reached *%s* today!", status.Milestone.Emoji, status.Milestone.Name))
		return sb.String()
	}
	for _, m := range service.Milestones {
		if m.Days > status.Days {
			sb.WriteString(fmt.Sprintf("\n*Next milestone*: %s %s in %d day(s)", m.Emoji, m.Name, m.Days-status.Days))
			break
		}
	}
	return sb.String()
}

func formatMoodStats(stats *service.MoodStats) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📈 *Mood Stats* (last %d entries)\n\n", stats.Total))
	for _, f := range service.Feelings {
		if n := stats.Counts[f.Name]; n > 0 {
			sb.WriteString(fmt.Sprintf("%s %s: %d\n", f.Emoji, f.Name, n))
		}
	}
	sb.WriteString(fmt.Sprintf("\n*Most common*: %s\n", stats.MostCommon))
	sb.WriteString(fmt.Sprintf("*Average*: %.1f (%s)\n", stats.Average, stats.AverageLabel))
	sb.WriteString(fmt.Sprintf("*Trend*: %s\n", stats.Trend))
	sb.WriteString(fmt.Sprintf("*Streak*: %d day(s)", stats.StreakDays))
	return sb.String()
}

func formatAffirmationStats(stats *service.AffirmationStats) string {
	var sb strings.Builder
	sb.WriteString("✨ *Affirmation Stats*\n\n")
	sb.WriteString(fmt.Sprintf("*Total*: %d\n", stats.Total))
	sb.WriteString(fmt.Sprintf("*Streak*: %d day(s)\n", stats.StreakDays))
	if len(stats.Recent) > 0 {
		sb.WriteString("\n*Recent*\n")
		for _, a := range stats.Recent {
			sb.WriteString(fmt.Sprintf("• %s\n", utils.EscapeMarkdown(utils.TruncateString(a.Text, 100))))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatGifStats(userID int64, name string, stats service.GifStats) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💞 *Interaction Stats*: %s\n\n", utils.FormatUserMention(userID, name)))
	for _, a := range service.GifActions {
		sb.WriteString(fmt.Sprintf("%s %s: %d given, %d received\n", a.Emoji, a.Label, stats.Given(a), stats.Received(a)))
	}
	given, received := stats.Totals()
	sb.WriteString(fmt.Sprintf("\n*Total*: %d given, %d received", given, received))
	return sb.String()
}

func formatUserDocument(userID int64, name string, doc service.Document) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📂 *User data*: %s `%d`\n\n", utils.EscapeMarkdown(name), userID))
	if len(doc) == 0 {
		sb.WriteString("No data stored.")
		return sb.String()
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		value := string(doc[k])
		var compact bytes.Buffer
		if err := json.Compact(&compact, doc[k]); err == nil {
			value = compact.String()
		}
		sb.WriteString(fmt.Sprintf("• *%s*: `%s`\n", utils.EscapeMarkdown(k), utils.TruncateString(value, 200)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatAdminStats(users int64, checks map[models.CheckStatus]int64, ops map[string]int64, cacheStatus map[string]interface{}) string {
	var sb strings.Builder
	sb.WriteString("🛠️ *Bot Stats*\n\n")
	sb.WriteString(fmt.Sprintf("*Users with data*: %d\n", users))

	sb.WriteString("\n*Wellness checks*\n")
	for _, st := range []models.CheckStatus{models.CheckPending, models.CheckReminderSent, models.CheckDMsDisabled, models.CheckDone} {
		sb.WriteString(fmt.Sprintf("• %s: %d\n", utils.EscapeMarkdown(string(st)), checks[st]))
	}

	if len(ops) > 0 {
		sb.WriteString("\n*Operations*\n")
		types := make([]string, 0, len(ops))
		for t := range ops {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			sb.WriteString(fmt.Sprintf("• %s: %d\n", utils.EscapeMarkdown(t), ops[t]))
		}
	}

	sb.WriteString(fmt.Sprintf("\n*Auth cache*: %v roles, %v chat admins", cacheStatus["roles"], cacheStatus["chat_admins"]))
	return sb.String()
}

func formatStaff(members []models.StaffMember) string {
	if len(members) == 0 {
		return "👥 No staff configured."
	}
	var sb strings.Builder
	sb.WriteString("👥 *Staff*\n\n")
	for _, m := range members {
		name := m.FullName
		if name == "" {
			name = m.Username
		}
		sb.WriteString(fmt.Sprintf("• %s (%s) `%d`\n", utils.EscapeMarkdown(name), m.Role, m.UserID))
	}
	return strings.TrimRight(sb.String(), "\n")
}
