package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"wellness-bot/internal/models"
	"wellness-bot/internal/service"
	"wellness-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Callback data prefixes
const (
	uwuUnlockPrefix          = "uwu:unlock:"
	affirmationSupportPrefix = "affirmation:support:"
)

func (h *Handler) handleNoContact(ctx context.Context, message *tgbotapi.Message) {
	args := CommandArgs(message)
	userID := message.From.ID
	sub := "check"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}

	switch sub {
	case "set":
		var err error
		var start = h.clock()
		if len(args) > 1 {
			start, err = utils.ParseUSDate(args[1], h.svc.Milestones.Location())
			if err != nil {
				h.reply(message, "❌ "+err.Error())
				return
			}
			if utils.CalendarDaysBetween(start, h.clock(), h.svc.Milestones.Location()) < 0 {
				h.reply(message, "❌ The start date cannot be in the future.")
				return
			}
		}
		day, err := h.svc.Milestones.SetStartDate(ctx, userID, start)
		if err != nil {
			h.replyError(message, err)
			return
		}
		h.reply(message, fmt.Sprintf("✅ No-contact start date set to *%s*. You've got this! 💪", utils.FormatDate(day)))

	case "check":
		status, err := h.svc.Milestones.Status(ctx, userID)
		if err != nil {
			h.replyError(message, err)
			return
		}
		if status == nil {
			h.reply(message, "ℹ️ You haven't set a no-contact start date yet. Use /nocontact set [MM-DD-YYYY].")
			return
		}
		h.reply(message, formatNoContact(status))

	case "reset":
		existed, err := h.svc.Milestones.Reset(ctx, userID)
		if err != nil {
			h.replyError(message, err)
			return
		}
		if !existed {
			h.reply(message, "ℹ️ Nothing to reset.")
			return
		}
		h.reply(message, "🔄 Your no-contact tracking has been reset. Every new start counts. 💚")

	default:
		h.reply(message, "❌ Usage: /nocontact set [MM-DD-YYYY] | check | reset")
	}
}

func (h *Handler) handleMood(ctx context.Context, message *tgbotapi.Message) {
	args := CommandArgs(message)
	if len(args) == 0 {
		h.reply(message, "❌ Usage: /mood <feeling> [note]\nFeelings: "+feelingList())
		return
	}

	entry, err := h.svc.Journal.LogMood(ctx, message.From.ID, args[0], strings.Join(args[1:], " "))
	if err != nil {
		h.reply(message, "❌ Unknown feeling. Choose one of: "+feelingList())
		return
	}
	feeling, _ := service.ParseFeeling(entry.Feeling)
	text := fmt.Sprintf("%s %s is feeling *%s*", feeling.Emoji,
		utils.FormatUserMention(message.From.ID, GetFullName(message.From)), feeling.Name)
	if entry.Note != "" {
		text += "\n\n_" + utils.EscapeMarkdown(entry.Note) + "_"
	}

	if chatID := h.cfg.Telegram.MoodChatID; chatID != 0 && chatID != message.Chat.ID {
		if err := h.notifier.Post(ctx, chatID, service.Notice{Text: text}); err != nil {
			logrus.WithField("error", err.Error()).Warn("⚠️ failed to post mood")
		}
	}
	h.reply(message, fmt.Sprintf("%s Mood logged: *%s*", feeling.Emoji, feeling.Name))
}

func (h *Handler) handleMoodStats(ctx context.Context, message *tgbotapi.Message) {
	stats, err := h.svc.Journal.MoodStats(ctx, message.From.ID, 30)
	if err != nil {
		h.replyError(message, err)
		return
	}
	if stats == nil {
		h.reply(message, "ℹ️ No moods logged yet. Try /mood <feeling>.")
		return
	}
	h.reply(message, formatMoodStats(stats))
}

func (h *Handler) handleAffirmation(ctx context.Context, message *tgbotapi.Message) {
	text := strings.TrimSpace(message.CommandArguments())
	if text == "" {
		h.reply(message, "❌ Usage: /affirmation <text>")
		return
	}

	entry, err := h.svc.Journal.LogAffirmation(ctx, message.From.ID, text)
	if err != nil {
		h.replyError(message, err)
		return
	}

	chatID := h.cfg.Telegram.AffirmationChatID
	if chatID == 0 {
		chatID = message.Chat.ID
	}
	notice := service.Notice{
		Text: fmt.Sprintf("✨ *Affirmation from* %s\n\n%s",
			utils.FormatUserMention(message.From.ID, GetFullName(message.From)), utils.EscapeMarkdown(entry.Text)),
		Buttons: []service.Button{{
			Label: "💚 Support",
			Data:  affirmationSupportPrefix + strconv.FormatInt(message.From.ID, 10),
		}},
	}
	if err := h.notifier.Post(ctx, chatID, notice); err != nil {
		h.replyError(message, err)
		return
	}
	if chatID != message.Chat.ID {
		h.reply(message, "✨ Affirmation shared.")
	}
}

func (h *Handler) handleAffirmationStats(ctx context.Context, message *tgbotapi.Message) {
	stats, err := h.svc.Journal.AffirmationStats(ctx, message.From.ID, 30)
	if err != nil {
		h.replyError(message, err)
		return
	}
	if stats == nil {
		h.reply(message, "ℹ️ No affirmations yet. Try /affirmation <text>.")
		return
	}
	h.reply(message, formatAffirmationStats(stats))
}

func (h *Handler) handleUwuLock(ctx context.Context, message *tgbotapi.Message) {
	if !h.require(ctx, message, LevelMod) {
		return
	}

	target, _, err := ParseTarget(ctx, message, CommandArgs(message), h.svc.Directory.GetUserIDByUsername)
	if err != nil {
		h.reply(message, "❌ "+err.Error())
		return
	}

	locked, err := h.svc.Community.IsUwuLocked(ctx, target.UserID)
	if err != nil {
		h.replyError(message, err)
		return
	}
	if _, err := h.svc.Community.SetUwuLocked(ctx, target.UserID, !locked); err != nil {
		h.replyError(message, err)
		return
	}

	op := models.OpUwuLock
	if locked {
		op = models.OpUwuUnlock
	}
	h.svc.Audit.LogOperation(ctx, op, target.UserID, message.From.ID, "", nil)

	mention := utils.FormatUserMention(target.UserID, h.nameOf(ctx, target))
	if locked {
		h.reply(message, fmt.Sprintf("🔓 %s has been released from uwu lock.", mention))
		return
	}

	notice := service.Notice{
		Text: fmt.Sprintf("🔒 %s is now uwu locked! Their messages will be uwuified. OwO", mention),
		Buttons: []service.Button{{
			Label: "🔓 Unlock",
			Data:  uwuUnlockPrefix + strconv.FormatInt(target.UserID, 10),
		}},
	}
	if err := h.notifier.Post(ctx, message.Chat.ID, notice); err != nil {
		h.replyError(message, err)
	}
}

// uwuifyIfLocked deletes a locked user's group message and reposts it uwuified
func (h *Handler) uwuifyIfLocked(ctx context.Context, message *tgbotapi.Message) {
	locked, err := h.svc.Community.IsUwuLocked(ctx, message.From.ID)
	if err != nil || !locked {
		return
	}

	if err := h.notifier.DeleteMessage(message.Chat.ID, message.MessageID); err != nil {
		logrus.WithFields(logrus.Fields{
			"chat_id": message.Chat.ID,
			"error":   err.Error(),
		}).Warn("⚠️ failed to delete uwu locked message")
		return
	}

	text := fmt.Sprintf("*%s*: %s", utils.EscapeMarkdown(GetFullName(message.From)),
		utils.EscapeMarkdown(h.svc.Community.Uwuify(message.Text)))
	if err := h.notifier.Post(ctx, message.Chat.ID, service.Notice{Text: text}); err != nil {
		logrus.WithField("error", err.Error()).Warn("⚠️ failed to repost uwuified message")
	}
}

func (h *Handler) handleGifAction(ctx context.Context, message *tgbotapi.Message, action service.GifAction) {
	target, _, err := ParseTarget(ctx, message, CommandArgs(message), h.svc.Directory.GetUserIDByUsername)
	if err != nil {
		h.reply(message, fmt.Sprintf("❌ Reply to someone to %s them!", action.Command))
		return
	}
	if target.UserID == message.From.ID {
		h.reply(message, fmt.Sprintf("%s You can't %s yourself, silly!", action.Emoji, action.Command))
		return
	}

	if err := h.svc.Community.RecordInteraction(ctx, message.From.ID, target.UserID, action); err != nil {
		logrus.WithField("error", err.Error()).Warn("⚠️ failed to record interaction")
	}

	caption := fmt.Sprintf("%s %s %s %s!", action.Emoji,
		utils.FormatUserMention(message.From.ID, GetFullName(message.From)), action.Verb,
		utils.FormatUserMention(target.UserID, h.nameOf(ctx, target)))
	notice := service.Notice{Text: caption, Animation: h.svc.Community.RandomGif(action)}
	if err := h.notifier.Post(ctx, message.Chat.ID, notice); err != nil {
		logrus.WithField("error", err.Error()).Warn("⚠️ failed to send interaction")
	}
}

func (h *Handler) handleGifStats(ctx context.Context, message *tgbotapi.Message) {
	target := Target{UserID: message.From.ID, Name: GetFullName(message.From)}
	if t, _, err := ParseTarget(ctx, message, CommandArgs(message), h.svc.Directory.GetUserIDByUsername); err == nil {
		target = t
	}

	stats, err := h.svc.Community.GetGifStats(ctx, target.UserID)
	if err != nil {
		h.replyError(message, err)
		return
	}
	h.reply(message, formatGifStats(target.UserID, h.nameOf(ctx, target), stats))
}

func (h *Handler) handleAdminData(ctx context.Context, message *tgbotapi.Message) {
	if !h.require(ctx, message, LevelAdmin) {
		return
	}

	args := CommandArgs(message)
	sub := "stats"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}

	switch sub {
	case "list":
		ids, err := h.svc.UserData.ListUserIDs(ctx, 50)
		if err != nil {
			h.replyError(message, err)
			return
		}
		if len(ids) == 0 {
			h.reply(message, "ℹ️ No user data stored.")
			return
		}
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("📂 *Users with data* (%d shown)\n\n", len(ids)))
		for _, id := range ids {
			sb.WriteString(fmt.Sprintf("• %s `%d`\n", utils.EscapeMarkdown(h.svc.Directory.DisplayName(ctx, id)), id))
		}
		h.reply(message, sb.String())

	case "user":
		target, _, err := ParseTarget(ctx, message, args[1:], h.svc.Directory.GetUserIDByUsername)
		if err != nil {
			h.reply(message, "❌ "+err.Error())
			return
		}
		doc, err := h.svc.UserData.GetDocument(ctx, target.UserID)
		if err != nil {
			h.replyError(message, err)
			return
		}
		h.reply(message, formatUserDocument(target.UserID, h.nameOf(ctx, target), doc))

	case "stats":
		users, err := h.svc.UserData.Count(ctx)
		if err != nil {
			h.replyError(message, err)
			return
		}
		checks, err := h.svc.Wellness.CountByStatus(ctx)
		if err != nil {
			h.replyError(message, err)
			return
		}
		ops, err := h.svc.Audit.CountByType(ctx)
		if err != nil {
			h.replyError(message, err)
			return
		}
		h.reply(message, formatAdminStats(users, checks, ops, h.auth.Status()))

	default:
		h.reply(message, "❌ Usage: /admindata list | user <user> | stats")
	}
}

func (h *Handler) handleStaff(ctx context.Context, message *tgbotapi.Message) {
	if !h.require(ctx, message, LevelAuthor) {
		return
	}

	args := CommandArgs(message)
	if len(args) == 0 {
		h.reply(message, "❌ Usage: /staff add <user> <mod|admin> | remove <user> | list")
		return
	}

	switch strings.ToLower(args[0]) {
	case "list":
		members, err := h.svc.Staff.ListMembers(ctx)
		if err != nil {
			h.replyError(message, err)
			return
		}
		h.reply(message, formatStaff(members))

	case "add":
		target, rest, err := ParseTarget(ctx, message, args[1:], h.svc.Directory.GetUserIDByUsername)
		if err != nil {
			h.reply(message, "❌ "+err.Error())
			return
		}
		role := models.RoleMod
		if len(rest) > 0 {
			role = strings.ToLower(rest[0])
		}
		name := h.nameOf(ctx, target)
		var username string
		if entry, _ := h.svc.Directory.GetUser(ctx, target.UserID); entry != nil {
			username = entry.Username
		}
		err = h.svc.Staff.SetMember(ctx, target.UserID, role, username, name, message.From.ID)
		h.svc.Audit.LogOperation(ctx, models.OpStaffAdd, target.UserID, message.From.ID, role, err)
		if err != nil {
			h.reply(message, "❌ "+utils.EscapeMarkdown(err.Error()))
			return
		}
		h.auth.InvalidateRole(target.UserID)
		h.reply(message, fmt.Sprintf("✅ %s is now *%s*.", utils.FormatUserMention(target.UserID, name), role))

	case "remove":
		target, _, err := ParseTarget(ctx, message, args[1:], h.svc.Directory.GetUserIDByUsername)
		if err != nil {
			h.reply(message, "❌ "+err.Error())
			return
		}
		removed, err := h.svc.Staff.RemoveMember(ctx, target.UserID)
		h.svc.Audit.LogOperation(ctx, models.OpStaffRemove, target.UserID, message.From.ID, "", err)
		if err != nil {
			h.replyError(message, err)
			return
		}
		h.auth.InvalidateRole(target.UserID)
		if !removed {
			h.reply(message, "ℹ️ That user is not staff.")
			return
		}
		h.reply(message, fmt.Sprintf("🗑️ %s removed from staff.", utils.FormatUserMention(target.UserID, h.nameOf(ctx, target))))

	default:
		h.reply(message, "❌ Usage: /staff add <user> <mod|admin> | remove <user> | list")
	}
}

func feelingList() string {
	names := make([]string, 0, len(service.Feelings))
	for _, f := range service.Feelings {
		names = append(names, f.Emoji+" "+f.Name)
	}
	return strings.Join(names, ", ")
}
