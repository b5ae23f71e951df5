package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandMessage(text string, from int64) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.Index(text, " "); i >= 0 {
		cmdLen = i
	}
	return &tgbotapi.Message{
		MessageID: 10,
		Text:      text,
		From:      &tgbotapi.User{ID: from, FirstName: "Mod"},
		Chat:      &tgbotapi.Chat{ID: -100, Type: "supergroup", Title: "Community"},
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func lookupFrom(known map[string]int64) UsernameLookup {
	return func(_ context.Context, username string) (int64, error) {
		if id, ok := known[strings.ToLower(username)]; ok {
			return id, nil
		}
		return 0, errors.New("not found")
	}
}

func TestParseTargetFromReply(t *testing.T) {
	msg := commandMessage("/warn spam", 1)
	msg.ReplyToMessage = &tgbotapi.Message{From: &tgbotapi.User{ID: 42, FirstName: "Ada", LastName: "L"}}

	target, rest, err := ParseTarget(context.Background(), msg, CommandArgs(msg), nil)
	require.NoError(t, err)
	assert.Equal(t, Target{UserID: 42, Name: "Ada L"}, target)
	assert.Equal(t, []string{"spam"}, rest)
}

func TestParseTargetIgnoresBotReply(t *testing.T) {
	msg := commandMessage("/warn 42 spam", 1)
	msg.ReplyToMessage = &tgbotapi.Message{From: &tgbotapi.User{ID: 7, IsBot: true}}

	target, rest, err := ParseTarget(context.Background(), msg, CommandArgs(msg), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), target.UserID)
	assert.Equal(t, []string{"spam"}, rest)
}

func TestParseTargetFromTextMention(t *testing.T) {
	msg := commandMessage("/warn Ada Lovelace spam", 1)
	msg.Entities = append(msg.Entities, tgbotapi.MessageEntity{
		Type: "text_mention", Offset: 6, Length: 12,
		User: &tgbotapi.User{ID: 42, FirstName: "Ada", LastName: "Lovelace"},
	})

	target, rest, err := ParseTarget(context.Background(), msg, CommandArgs(msg), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), target.UserID)
	assert.Equal(t, []string{"spam"}, rest)
}

func TestParseTargetFromUsername(t *testing.T) {
	msg := commandMessage("/warn @Ada spam", 1)
	lookup := lookupFrom(map[string]int64{"ada": 42})

	target, rest, err := ParseTarget(context.Background(), msg, CommandArgs(msg), lookup)
	require.NoError(t, err)
	assert.Equal(t, Target{UserID: 42, Name: "Ada"}, target)
	assert.Equal(t, []string{"spam"}, rest)

	msg = commandMessage("/warn @nobody spam", 1)
	_, _, err = ParseTarget(context.Background(), msg, CommandArgs(msg), lookup)
	assert.ErrorContains(t, err, "@nobody")
}

func TestParseTargetFromID(t *testing.T) {
	msg := commandMessage("/userstatus 12345", 1)
	target, rest, err := ParseTarget(context.Background(), msg, CommandArgs(msg), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), target.UserID)
	assert.Empty(t, rest)
}

func TestParseTargetMissing(t *testing.T) {
	for _, text := range []string{"/warn", "/warn spam", "/warn -5"} {
		msg := commandMessage(text, 1)
		_, _, err := ParseTarget(context.Background(), msg, CommandArgs(msg), nil)
		assert.ErrorIs(t, err, errNoTarget, text)
	}
}

func TestParseCheckArgs(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	t.Run("preset", func(t *testing.T) {
		args, err := ParseCheckArgs([]string{"3h", "seemed", "down"}, now, ny)
		require.NoError(t, err)
		assert.Equal(t, now.Add(3*time.Hour), args.ReminderTime)
		assert.False(t, args.AutoDM)
		assert.Equal(t, "seemed down", args.Note)
	})

	t.Run("date with clock and dm flag", func(t *testing.T) {
		args, err := ParseCheckArgs([]string{"2026-10-20", "09:30", "dm", "follow", "up"}, now, ny)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 10, 20, 13, 30, 0, 0, time.UTC), args.ReminderTime)
		assert.True(t, args.AutoDM)
		assert.Equal(t, "follow up", args.Note)
	})

	t.Run("date only", func(t *testing.T) {
		args, err := ParseCheckArgs([]string{"2026-10-20", "AutoDM"}, now, ny)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 10, 20, 4, 0, 0, 0, time.UTC), args.ReminderTime)
		assert.True(t, args.AutoDM)
		assert.Empty(t, args.Note)
	})

	t.Run("past time rejected", func(t *testing.T) {
		_, err := ParseCheckArgs([]string{"2026-10-01"}, now, ny)
		assert.ErrorContains(t, err, "future")
	})

	t.Run("missing and invalid", func(t *testing.T) {
		_, err := ParseCheckArgs(nil, now, ny)
		assert.Error(t, err)
		_, err = ParseCheckArgs([]string{"tomorrow"}, now, ny)
		assert.Error(t, err)
	})
}

func TestGetFullNameAndChatTitle(t *testing.T) {
	assert.Equal(t, "Ada", GetFullName(&tgbotapi.User{FirstName: "Ada"}))
	assert.Equal(t, "Ada L", GetFullName(&tgbotapi.User{FirstName: "Ada", LastName: "L"}))
	assert.Empty(t, GetFullName(nil))

	assert.Equal(t, "Community", GetChatTitle(&tgbotapi.Chat{Title: "Community"}))
	assert.Equal(t, "Ada", GetChatTitle(&tgbotapi.Chat{FirstName: "Ada"}))
	assert.Equal(t, "Private Chat", GetChatTitle(&tgbotapi.Chat{}))
}
