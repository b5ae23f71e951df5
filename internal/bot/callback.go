package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"wellness-bot/internal/models"
	"wellness-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// HandleCallback handles inline button presses
func (h *Handler) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback == nil || callback.From == nil {
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id": callback.From.ID,
		"data":    callback.Data,
	}).Debug("🔘 callback received")

	switch {
	case strings.HasPrefix(callback.Data, service.ResolveButtonPrefix):
		h.handleResolveCallback(ctx, callback, strings.TrimPrefix(callback.Data, service.ResolveButtonPrefix))
	case strings.HasPrefix(callback.Data, uwuUnlockPrefix):
		h.handleUwuUnlockCallback(ctx, callback, strings.TrimPrefix(callback.Data, uwuUnlockPrefix))
	case strings.HasPrefix(callback.Data, affirmationSupportPrefix):
		h.handleSupportCallback(ctx, callback, strings.TrimPrefix(callback.Data, affirmationSupportPrefix))
	default:
		h.answer(callback, "❓ Unknown action", false)
	}
}

func (h *Handler) handleResolveCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, checkID string) {
	var chat *tgbotapi.Chat
	if callback.Message != nil {
		chat = callback.Message.Chat
	}
	if _, ok := h.perms.Require(ctx, chat, callback.From.ID, LevelMod); !ok {
		h.answer(callback, "⛔ Only moderators can resolve wellness checks", true)
		return
	}

	check, transitioned, err := h.svc.Wellness.ResolveAndAnnounce(ctx, checkID, callback.From.ID)
	if errors.Is(err, service.ErrNotFound) {
		h.answer(callback, "❌ Wellness check not found", true)
		return
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"check_id": checkID,
			"error":    err.Error(),
		}).Error("❌ failed to resolve wellness check")
		h.answer(callback, "❌ Something went wrong, please try again", true)
		return
	}
	h.svc.Audit.LogOperation(ctx, models.OpCheckResolve, check.UserID, callback.From.ID, check.CheckID, nil)
	h.removeKeyboard(callback)

	if !transitioned {
		h.answer(callback, "ℹ️ Already resolved", false)
		return
	}
	h.answer(callback, "☑️ Resolved", false)
}

func (h *Handler) handleUwuUnlockCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, raw string) {
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.answer(callback, "❓ Unknown action", false)
		return
	}

	// the locked user may free themselves, anyone else needs mod
	if callback.From.ID != userID {
		var chat *tgbotapi.Chat
		if callback.Message != nil {
			chat = callback.Message.Chat
		}
		if _, ok := h.perms.Require(ctx, chat, callback.From.ID, LevelMod); !ok {
			h.answer(callback, "⛔ Only moderators or the locked user can unlock", true)
			return
		}
	}

	changed, err := h.svc.Community.SetUwuLocked(ctx, userID, false)
	h.svc.Audit.LogOperation(ctx, models.OpUwuUnlock, userID, callback.From.ID, "button", err)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("❌ failed to unlock uwu mode")
		h.answer(callback, "❌ Something went wrong, please try again", true)
		return
	}
	h.removeKeyboard(callback)

	if !changed {
		h.answer(callback, "ℹ️ Not locked", false)
		return
	}
	h.answer(callback, "🔓 Unlocked", false)
}

func (h *Handler) handleSupportCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, raw string) {
	authorID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.answer(callback, "❓ Unknown action", false)
		return
	}
	h.answer(callback, "💚 Support sent!", false)

	if authorID == callback.From.ID {
		return
	}
	text := fmt.Sprintf("💚 %s sent you support for your affirmation!", GetFullName(callback.From))
	if err := h.notifier.NotifyUser(ctx, authorID, service.Notice{Text: text}); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": authorID,
			"error":   err.Error(),
		}).Debug("📭 support DM not delivered")
	}
}

func (h *Handler) answer(callback *tgbotapi.CallbackQuery, text string, alert bool) {
	if err := h.notifier.AnswerCallbackQuery(callback.ID, text, alert); err != nil {
		logrus.WithError(err).Warn("⚠️ failed to answer callback")
	}
}

func (h *Handler) removeKeyboard(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil || callback.Message.Chat == nil {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(callback.Message.Chat.ID, callback.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := h.api.Request(edit); err != nil {
		logrus.WithError(err).Warn("⚠️ failed to remove keyboard")
	}
}
