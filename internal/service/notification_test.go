package service

import (
	"context"
	"errors"
	"testing"

	"wellness-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender records chattables; sends with a parse mode fail when failMarkdown is set
type fakeSender struct {
	sent         []tgbotapi.Chattable
	requests     []tgbotapi.Chattable
	failMarkdown bool
	failAll      bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	if f.failAll {
		return tgbotapi.Message{}, errors.New("Forbidden: bot was blocked by the user")
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok && f.failMarkdown && msg.ParseMode != "" {
		return tgbotapi.Message{}, errors.New("Bad Request: can't parse entities")
	}
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestSendWithKeyboard(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, -1, []int64{9}, utils.NewRateLimiter(100))

	err := n.NotifyModerators(context.Background(), Notice{
		Text:    "*hello*",
		Buttons: []Button{{Label: "✅ Resolve", Data: "check:resolve:abc"}},
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(-1), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
	kb, ok := msg.ReplyMarkup.(*tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "check:resolve:abc", *kb.InlineKeyboard[0][0].CallbackData)
}

func TestSendFallsBackToPlainText(t *testing.T) {
	sender := &fakeSender{failMarkdown: true}
	n := NewTelegramNotifier(sender, -1, nil, nil)

	msg, err := n.Send(context.Background(), 5, Notice{Text: "broken_markdown"})
	require.NoError(t, err)
	assert.Equal(t, 2, msg.MessageID)
	require.Len(t, sender.sent, 2)
	assert.Empty(t, sender.sent[1].(tgbotapi.MessageConfig).ParseMode)
}

func TestSendFailureIsDeliveryError(t *testing.T) {
	sender := &fakeSender{failAll: true}
	n := NewTelegramNotifier(sender, -1, nil, nil)

	err := n.NotifyUser(context.Background(), 42, Notice{Text: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotificationDelivery)
	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, int64(42), de.ChatID)
}

func TestNotifyModeratorsWithoutChatWarnsAuthors(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, 0, []int64{9, 10}, nil)

	err := n.NotifyModerators(context.Background(), Notice{Text: "hello"})
	assert.ErrorIs(t, err, ErrNotificationDelivery)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, int64(9), sender.sent[0].(tgbotapi.MessageConfig).ChatID)
	assert.Contains(t, sender.sent[0].(tgbotapi.MessageConfig).Text, "Moderator chat is not configured")
}

func TestSendAnimation(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, -1, nil, nil)

	require.NoError(t, n.Post(context.Background(), 3, Notice{Text: "hug", Animation: "gifs/hug/a.gif"}))
	anim, ok := sender.sent[0].(tgbotapi.AnimationConfig)
	require.True(t, ok)
	assert.Equal(t, "hug", anim.Caption)
}

func TestDeleteAndAnswer(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, -1, nil, nil)

	require.NoError(t, n.DeleteMessage(3, 10))
	require.NoError(t, n.AnswerCallbackQuery("q1", "done", false))
	assert.Len(t, sender.requests, 2)
}
