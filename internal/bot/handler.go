package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wellness-bot/internal/cache"
	"wellness-bot/internal/config"
	"wellness-bot/internal/metrics"
	"wellness-bot/internal/models"
	"wellness-bot/internal/service"
	"wellness-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Services everything the handlers call into
type Services struct {
	Moderation *service.ModerationService
	Wellness   *service.WellnessService
	Milestones *service.MilestoneService
	Journal    *service.JournalService
	Community  *service.CommunityService
	UserData   *service.UserDataService
	Staff      *service.StaffService
	Directory  *service.DirectoryService
	Audit      *service.AuditService
}

// Handler bot command handler
type Handler struct {
	api      API
	cfg      *config.Config
	perms    *PermissionChecker
	auth     *cache.AuthCache
	notifier *service.TelegramNotifier
	svc      Services
	loc      *time.Location
	clock    func() time.Time
}

// NewHandler creates the handler
func NewHandler(api API, cfg *config.Config, auth *cache.AuthCache, notifier *service.TelegramNotifier, svc Services) *Handler {
	return &Handler{
		api:      api,
		cfg:      cfg,
		perms:    NewPermissionChecker(&cfg.Telegram, auth, api),
		auth:     auth,
		notifier: notifier,
		svc:      svc,
		loc:      cfg.System.Location(),
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// RememberUser stores the sender in the member directory
func (h *Handler) RememberUser(ctx context.Context, user *tgbotapi.User) {
	if user == nil || user.IsBot {
		return
	}
	if err := h.svc.Directory.SaveUser(ctx, user.ID, user.UserName, user.FirstName, user.LastName); err != nil {
		logrus.WithField("user_id", user.ID).Debug("directory update skipped")
	}
}

// HandleMessage dispatches a command
func (h *Handler) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message == nil || message.From == nil || message.From.IsBot || !message.IsCommand() {
		return
	}

	command := strings.ToLower(message.Command())
	logrus.WithFields(logrus.Fields{
		"command": command,
		"user":    GetFullName(message.From),
		"user_id": message.From.ID,
		"chat":    GetChatTitle(message.Chat),
		"chat_id": message.Chat.ID,
	}).Info("📨 command received")

	switch command {
	case "start", "help":
		h.handleHelp(ctx, message)
	case "addrule":
		h.handleAddRule(ctx, message)
	case "rules":
		h.handleRules(ctx, message)
	case "warn":
		h.handleWarn(ctx, message)
	case "clearwarning", "clearwarnings":
		h.handleClearWarning(ctx, message)
	case "userstatus":
		h.handleUserStatus(ctx, message)
	case "check":
		h.handleCheck(ctx, message)
	case "resolve":
		h.handleResolve(ctx, message)
	case "nocontact":
		h.handleNoContact(ctx, message)
	case "mood":
		h.handleMood(ctx, message)
	case "moodstats":
		h.handleMoodStats(ctx, message)
	case "affirmation":
		h.handleAffirmation(ctx, message)
	case "affirmationstats":
		h.handleAffirmationStats(ctx, message)
	case "uwulock":
		h.handleUwuLock(ctx, message)
	case "stats":
		h.handleGifStats(ctx, message)
	case "admindata":
		h.handleAdminData(ctx, message)
	case "staff":
		h.handleStaff(ctx, message)
	default:
		if action, ok := service.GifActionFor(command); ok {
			h.handleGifAction(ctx, message, action)
			return
		}
		logrus.WithField("command", command).Debug("unknown command")
		return
	}
	metrics.CommandsHandled.WithLabelValues(command).Inc()
}

// HandleText non-command messages: check-in replies in private chats and
// uwu-locked users in groups
func (h *Handler) HandleText(ctx context.Context, message *tgbotapi.Message) {
	if message == nil || message.From == nil || message.From.IsBot || message.Text == "" {
		return
	}

	if message.Chat.IsPrivate() {
		h.recordCheckResponse(ctx, message)
		return
	}
	h.uwuifyIfLocked(ctx, message)
}

func (h *Handler) handleHelp(ctx context.Context, message *tgbotapi.Message) {
	text := "🐻 *Wellness Bot*\n\n" +
		"*Everyone*\n" +
		"/rules \\[green|yellow|red] - list server rules\n" +
		"/nocontact set \\[MM-DD-YYYY] | check | reset\n" +
		"/mood <feeling> \\[note] - log how you feel\n" +
		"/moodstats - your mood trends\n" +
		"/affirmation <text> - share an affirmation\n" +
		"/affirmationstats - your affirmation streak\n" +
		"/hug /pet /bonk /bite /uppies - reply to someone\n" +
		"/stats - your interaction counters\n\n" +
		"*Moderators*\n" +
		"/warn <user> <rule> - warn a user\n" +
		"/userstatus <user> - active warnings\n" +
		"/check <user> <1h|3h|6h|24h|YYYY-MM-DD \\[HH:mm]> \\[dm] \\[note]\n" +
		"/resolve <check id> - close a wellness check\n" +
		"/uwulock <user> - toggle uwu lock\n\n" +
		"*Admins*\n" +
		"/addrule <name> <green|yellow|red> \\[description]\n" +
		"/clearwarning <user> <all|warning id>\n" +
		"/admindata list|user <user>|stats\n" +
		"/staff add <user> <mod|admin> | remove <user> | list"
	h.reply(message, text)
}

func (h *Handler) handleAddRule(ctx context.Context, message *tgbotapi.Message) {
	if !h.require(ctx, message, LevelAdmin) {
		return
	}

	args := CommandArgs(message)
	if len(args) < 2 {
		h.reply(message, "❌ Usage: /addrule <name> <green|yellow|red> [description]")
		return
	}
	name, severity := args[0], strings.ToLower(args[1])
	description := strings.Join(args[2:], " ")

	rule, err := h.svc.Moderation.AddRule(ctx, name, description, severity, message.From.ID)
	h.svc.Audit.LogOperation(ctx, models.OpAddRule, 0, message.From.ID, name, err)
	switch {
	case errors.Is(err, service.ErrDuplicateRule):
		h.reply(message, fmt.Sprintf("❌ A rule named *%s* already exists.", utils.EscapeMarkdown(name)))
		return
	case errors.Is(err, service.ErrInvalidSeverity), errors.Is(err, service.ErrInvalidInput):
		h.reply(message, "❌ "+utils.EscapeMarkdown(err.Error()))
		return
	case err != nil:
		h.replyError(message, err)
		return
	}

	h.reply(message, fmt.Sprintf("✅ Rule *%s* added (%s %s).",
		utils.EscapeMarkdown(rule.Name), rule.Severity.Emoji(), strings.ToUpper(string(rule.Severity))))
}

func (h *Handler) handleRules(ctx context.Context, message *tgbotapi.Message) {
	var filter models.Severity
	if args := CommandArgs(message); len(args) > 0 {
		filter = models.Severity(strings.ToLower(args[0]))
	}

	rules, err := h.svc.Moderation.GetAllRules(ctx, filter)
	if errors.Is(err, service.ErrInvalidSeverity) {
		h.reply(message, "❌ "+err.Error())
		return
	}
	if err != nil {
		h.replyError(message, err)
		return
	}
	h.reply(message, utils.FormatRules(rules))
}

func (h *Handler) handleWarn(ctx context.Context, message *tgbotapi.Message) {
	if !h.require(ctx, message, LevelMod) {
		return
	}

	target, rest, err := ParseTarget(ctx, message, CommandArgs(message), h.svc.Directory.GetUserIDByUsername)
	if err != nil {
		h.reply(message, "❌ "+err.Error())
		return
	}
	if len(rest) == 0 {
		h.reply(message, "❌ Usage: /warn <user> <rule name>")
		return
	}

	rule, err := h.svc.Moderation.GetRule(ctx, rest[0])
	if err != nil {
		h.replyError(message, err)
		return
	}
	if rule == nil {
		h.reply(message, fmt.Sprintf("❌ Unknown rule *%s*. See /rules.", utils.EscapeMarkdown(rest[0])))
		return
	}

	warning, err := h.svc.Moderation.WarnUser(ctx, target.UserID, rule.ID, message.From.ID)
	h.svc.Audit.LogOperation(ctx, models.OpWarn, target.UserID, message.From.ID, "rule="+rule.Name, err)
	if err != nil {
		h.replyError(message, err)
		return
	}

	userName := h.nameOf(ctx, target)
	nextAction := h.svc.Moderation.GetNextAction(rule.Severity, warning.WarningCount)
	notice := utils.FormatWarningNotice(rule, warning, userName, GetFullName(message.From), nextAction)

	if err := h.notifier.NotifyModerators(ctx, service.Notice{Text: notice}); err != nil {
		logrus.WithField("error", err.Error()).Warn("⚠️ failed to post warning to moderator chat")
	}

	dm := utils.FormatWarningDM(rule, warning.WarningCount, len(h.svc.Moderation.EscalationSequence(rule.Severity)), GetChatTitle(message.Chat))
	if err := h.notifier.NotifyUser(ctx, target.UserID, service.Notice{Text: dm}); err != nil {
		metrics.DMsFailed.Inc()
		logrus.WithFields(logrus.Fields{
			"user_id": target.UserID,
			"error":   err.Error(),
		}).Warn("⚠️ could not DM warned user")
	}

	h.reply(message, fmt.Sprintf("%s %s was warned for *%s* (warning %d). Next action: %s",
		rule.Severity.Emoji(), utils.FormatUserMention(target.UserID, userName),
		utils.EscapeMarkdown(rule.Name), warning.WarningCount, orNone(nextAction)))
}

func (h *Handler) handleClearWarning(ctx context.Context, message *tgbotapi.Message) {
	if !h.require(ctx, message, LevelAdmin) {
		return
	}

	target, rest, err := ParseTarget(ctx, message, CommandArgs(message), h.svc.Directory.GetUserIDByUsername)
	if err != nil {
		h.reply(message, "❌ "+err.Error())
		return
	}
	userName := h.nameOf(ctx, target)

	if len(rest) == 0 || strings.EqualFold(rest[0], "all") {
		cleared, err := h.svc.Moderation.ClearAllWarnings(ctx, target.UserID)
		h.svc.Audit.LogOperation(ctx, models.OpClearAll, target.UserID, message.From.ID, fmt.Sprintf("cleared=%d", len(cleared)), err)
		if err != nil {
			h.replyError(message, err)
			return
		}
		if len(cleared) == 0 {
			h.reply(message, fmt.Sprintf("ℹ️ %s has no active warnings.", utils.FormatUserMention(target.UserID, userName)))
			return
		}
		h.reply(message, fmt.Sprintf("🧹 Cleared %d warning(s) for %s.", len(cleared), utils.FormatUserMention(target.UserID, userName)))
		return
	}

	warningID, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil {
		h.reply(message, "❌ Usage: /clearwarning <user> <all|warning id>")
		return
	}
	existing, err := h.svc.Moderation.GetWarning(ctx, warningID)
	if err != nil {
		h.replyError(message, err)
		return
	}
	if existing == nil || existing.UserID != target.UserID {
		h.reply(message, "❌ Warning not found for that user.")
		return
	}

	_, err = h.svc.Moderation.ClearSpecificWarning(ctx, warningID)
	h.svc.Audit.LogOperation(ctx, models.OpClearOne, target.UserID, message.From.ID, "warning="+rest[0], err)
	if errors.Is(err, service.ErrNotFound) {
		h.reply(message, "❌ Warning not found.")
		return
	}
	if err != nil {
		h.replyError(message, err)
		return
	}
	h.reply(message, fmt.Sprintf("🧹 Cleared warning `%d` (%s) for %s.", warningID,
		utils.EscapeMarkdown(existing.RuleName), utils.FormatUserMention(target.UserID, userName)))
}

func (h *Handler) handleUserStatus(ctx context.Context, message *tgbotapi.Message) {
	if !h.require(ctx, message, LevelMod) {
		return
	}

	target, _, err := ParseTarget(ctx, message, CommandArgs(message), h.svc.Directory.GetUserIDByUsername)
	if err != nil {
		h.reply(message, "❌ "+err.Error())
		return
	}

	summary, err := h.svc.Moderation.GetWarningSummary(ctx, target.UserID)
	if err != nil {
		h.replyError(message, err)
		return
	}
	openChecks, err := h.svc.Wellness.GetOpenChecks(ctx, target.UserID)
	if err != nil {
		h.replyError(message, err)
		return
	}
	h.reply(message, formatUserStatus(target.UserID, h.nameOf(ctx, target), summary, openChecks))
}

func (h *Handler) handleCheck(ctx context.Context, message *tgbotapi.Message) {
	if !h.require(ctx, message, LevelMod) {
		return
	}

	target, rest, err := ParseTarget(ctx, message, CommandArgs(message), h.svc.Directory.GetUserIDByUsername)
	if err != nil {
		h.reply(message, "❌ "+err.Error())
		return
	}
	args, err := ParseCheckArgs(rest, h.clock(), h.loc)
	if err != nil {
		h.reply(message, "❌ "+utils.EscapeMarkdown(err.Error()))
		return
	}

	req := service.CheckRequest{
		UserID:       target.UserID,
		ChatID:       message.Chat.ID,
		FlaggedBy:    message.From.ID,
		Note:         args.Note,
		AutoDM:       args.AutoDM,
		ReminderTime: args.ReminderTime,
	}
	if message.ReplyToMessage != nil {
		id := message.ReplyToMessage.MessageID
		req.MessageID = &id
	}

	check, err := h.svc.Wellness.FlagCheck(ctx, req)
	h.svc.Audit.LogOperation(ctx, models.OpCheckCreate, target.UserID, message.From.ID, args.Note, err)
	if err != nil {
		h.replyError(message, err)
		return
	}

	text := fmt.Sprintf("🐻 Wellness check created for %s. Reminder at `%s`.",
		utils.FormatUserMention(target.UserID, h.nameOf(ctx, target)), utils.FormatTimestamp(check.ReminderTime))
	if check.AutoDM && check.DMsDisabled {
		text += "\n⚠️ Could not DM the user, their DMs look disabled."
	}
	h.reply(message, text)
}

func (h *Handler) handleResolve(ctx context.Context, message *tgbotapi.Message) {
	if !h.require(ctx, message, LevelMod) {
		return
	}

	args := CommandArgs(message)
	if len(args) == 0 {
		h.reply(message, "❌ Usage: /resolve <check id>")
		return
	}

	check, transitioned, err := h.svc.Wellness.ResolveAndAnnounce(ctx, args[0], message.From.ID)
	if errors.Is(err, service.ErrNotFound) {
		h.reply(message, "❌ Wellness check not found.")
		return
	}
	if err != nil {
		h.replyError(message, err)
		return
	}
	h.svc.Audit.LogOperation(ctx, models.OpCheckResolve, check.UserID, message.From.ID, check.CheckID, nil)

	if !transitioned {
		h.reply(message, "ℹ️ That wellness check was already resolved.")
		return
	}
	h.reply(message, fmt.Sprintf("☑️ Wellness check `%s` resolved.", check.CheckID))
}

func (h *Handler) recordCheckResponse(ctx context.Context, message *tgbotapi.Message) {
	resolved, err := h.svc.Wellness.RecordUserResponse(ctx, message.From.ID, message.Text)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": message.From.ID,
			"error":   err.Error(),
		}).Error("❌ failed to record wellness response")
		return
	}
	if len(resolved) == 0 {
		return
	}
	h.reply(message, "💚 Thank you for letting us know how you're doing. The moderators have been told.")
}

// require replies with a denial and returns false below min
func (h *Handler) require(ctx context.Context, message *tgbotapi.Message, min Level) bool {
	if _, ok := h.perms.Require(ctx, message.Chat, message.From.ID, min); !ok {
		h.reply(message, "❌ You don't have permission to use this command.")
		return false
	}
	return true
}

func (h *Handler) nameOf(ctx context.Context, target Target) string {
	if target.Name != "" {
		return target.Name
	}
	return h.svc.Directory.DisplayName(ctx, target.UserID)
}

// reply sends Markdown, falling back to plain text when Telegram rejects it
func (h *Handler) reply(message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := h.api.Send(msg); err != nil {
		msg.ParseMode = ""
		if _, err := h.api.Send(msg); err != nil {
			logrus.WithFields(logrus.Fields{
				"chat_id": message.Chat.ID,
				"error":   err.Error(),
			}).Error("❌ failed to send reply")
		}
	}
}

func (h *Handler) replyError(message *tgbotapi.Message, err error) {
	logrus.WithFields(logrus.Fields{
		"command": message.Command(),
		"user_id": message.From.ID,
		"error":   err.Error(),
	}).Error("❌ command failed")
	h.reply(message, "❌ Something went wrong, please try again later.")
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
