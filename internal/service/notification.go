package service

import (
	"context"
	"fmt"

	"wellness-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Sender subset of *tgbotapi.BotAPI used for outgoing messages
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TelegramNotifier Notifier backed by the Telegram Bot API
type TelegramNotifier struct {
	bot       Sender
	modChatID int64
	authorIDs []int64
	limiter   *utils.RateLimiter
}

// NewTelegramNotifier creates the notifier; limiter may be nil
func NewTelegramNotifier(bot Sender, modChatID int64, authorIDs []int64, limiter *utils.RateLimiter) *TelegramNotifier {
	return &TelegramNotifier{
		bot:       bot,
		modChatID: modChatID,
		authorIDs: authorIDs,
		limiter:   limiter,
	}
}

// ModChatID moderator chat
func (s *TelegramNotifier) ModChatID() int64 {
	return s.modChatID
}

// NotifyModerators posts to the moderator chat. Without a moderator chat
// the authors are warned instead.
func (s *TelegramNotifier) NotifyModerators(ctx context.Context, n Notice) error {
	if s.modChatID == 0 {
		warning := "⚠️ *Moderator chat is not configured*\n\nSet `telegram.mod_chat_id` to receive moderation notices."
		for _, authorID := range s.authorIDs {
			if err := s.Post(ctx, authorID, Notice{Text: warning}); err != nil {
				logrus.WithFields(logrus.Fields{
					"author_id": authorID,
					"error":     err.Error(),
				}).Error("❌ failed to warn author about missing moderator chat")
			}
		}
		return &DeliveryError{ChatID: 0, Err: fmt.Errorf("moderator chat not configured")}
	}
	return s.Post(ctx, s.modChatID, n)
}

// NotifyUser direct message; private chat ids equal user ids
func (s *TelegramNotifier) NotifyUser(ctx context.Context, userID int64, n Notice) error {
	return s.Post(ctx, userID, n)
}

// Post sends the notice to chatID
func (s *TelegramNotifier) Post(ctx context.Context, chatID int64, n Notice) error {
	_, err := s.Send(ctx, chatID, n)
	return err
}

// Send sends the notice and returns the sent message
func (s *TelegramNotifier) Send(ctx context.Context, chatID int64, n Notice) (tgbotapi.Message, error) {
	if chatID == 0 {
		return tgbotapi.Message{}, &DeliveryError{ChatID: chatID, Err: fmt.Errorf("chat not configured")}
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, chatID); err != nil {
			return tgbotapi.Message{}, &DeliveryError{ChatID: chatID, Err: err}
		}
	}

	msg, err := s.bot.Send(s.build(chatID, n, tgbotapi.ModeMarkdown))
	if err != nil && n.Animation == "" {
		// broken Markdown is the usual cause; retry as plain text
		logrus.WithFields(logrus.Fields{
			"chat_id": chatID,
			"error":   err.Error(),
		}).Warn("⚠️ Markdown send failed, retrying without parse mode")
		msg, err = s.bot.Send(s.build(chatID, n, ""))
	}
	if err != nil {
		return tgbotapi.Message{}, &DeliveryError{ChatID: chatID, Err: err}
	}
	return msg, nil
}

// EditMessage replaces the text of a sent message; nil buttons removes the keyboard
func (s *TelegramNotifier) EditMessage(chatID int64, messageID int, text string, buttons []Button) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.DisableWebPagePreview = true
	if kb := keyboard(buttons); kb != nil {
		edit.ReplyMarkup = kb
	}
	if _, err := s.bot.Send(edit); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// DeleteMessage removes a message
func (s *TelegramNotifier) DeleteMessage(chatID int64, messageID int) error {
	_, err := s.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// AnswerCallbackQuery acknowledges a button press
func (s *TelegramNotifier) AnswerCallbackQuery(callbackQueryID, text string, showAlert bool) error {
	callback := tgbotapi.NewCallback(callbackQueryID, text)
	callback.ShowAlert = showAlert
	_, err := s.bot.Request(callback)
	return err
}

func (s *TelegramNotifier) build(chatID int64, n Notice, parseMode string) tgbotapi.Chattable {
	kb := keyboard(n.Buttons)

	if n.Animation != "" {
		anim := tgbotapi.NewAnimation(chatID, tgbotapi.FilePath(n.Animation))
		anim.Caption = n.Text
		anim.ParseMode = parseMode
		if kb != nil {
			anim.ReplyMarkup = kb
		}
		return anim
	}

	msg := tgbotapi.NewMessage(chatID, n.Text)
	msg.ParseMode = parseMode
	msg.DisableWebPagePreview = true
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	return msg
}

func keyboard(buttons []Button) *tgbotapi.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(row)
	return &kb
}
