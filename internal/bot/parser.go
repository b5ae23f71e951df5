package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wellness-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var errNoTarget = errors.New("please reply to the user's message or name them with @username or their user id")

// UsernameLookup resolves @username to a user id
type UsernameLookup func(ctx context.Context, username string) (int64, error)

// Target user a command acts on
type Target struct {
	UserID int64
	Name   string
}

// CommandArgs splits the command arguments on whitespace
func CommandArgs(message *tgbotapi.Message) []string {
	return strings.Fields(message.CommandArguments())
}

// ParseTarget resolves the target user from a reply, a text mention,
// @username or a numeric id in the first argument. The remaining arguments
// are returned.
func ParseTarget(ctx context.Context, message *tgbotapi.Message, args []string, lookup UsernameLookup) (Target, []string, error) {
	// a reply wins; all arguments stay available
	if message.ReplyToMessage != nil && message.ReplyToMessage.From != nil && !message.ReplyToMessage.From.IsBot {
		user := message.ReplyToMessage.From
		return Target{UserID: user.ID, Name: GetFullName(user)}, args, nil
	}

	for _, entity := range message.Entities {
		if entity.Type == "text_mention" && entity.User != nil {
			name := GetFullName(entity.User)
			return Target{UserID: entity.User.ID, Name: name}, dropMentionWords(args, name), nil
		}
	}

	if len(args) == 0 {
		return Target{}, args, errNoTarget
	}

	first := args[0]
	if strings.HasPrefix(first, "@") {
		username := strings.TrimPrefix(first, "@")
		if lookup == nil {
			return Target{}, args, fmt.Errorf("I don't know @%s yet, reply to one of their messages instead", username)
		}
		userID, err := lookup(ctx, username)
		if err != nil {
			return Target{}, args, fmt.Errorf("I don't know @%s yet, reply to one of their messages instead", username)
		}
		return Target{UserID: userID, Name: username}, args[1:], nil
	}

	if id, err := strconv.ParseInt(first, 10, 64); err == nil && id > 0 {
		return Target{UserID: id}, args[1:], nil
	}
	return Target{}, args, errNoTarget
}

// dropMentionWords removes the leading words that spell a text mention
func dropMentionWords(args []string, name string) []string {
	words := strings.Fields(name)
	if len(words) == 0 || len(args) < len(words) {
		return args
	}
	for i, w := range words {
		if args[i] != w {
			return args
		}
	}
	return args[len(words):]
}

var clockPattern = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// CheckArgs parsed /check arguments after the target
type CheckArgs struct {
	ReminderTime time.Time
	AutoDM       bool
	Note         string
}

// ParseCheckArgs parses "<1h|3h|6h|24h|YYYY-MM-DD [HH:mm]> [dm] [note...]"
func ParseCheckArgs(args []string, now time.Time, loc *time.Location) (CheckArgs, error) {
	if len(args) == 0 {
		return CheckArgs{}, errors.New("missing reminder time, use 1h, 3h, 6h, 24h or YYYY-MM-DD [HH:mm]")
	}

	input := args[0]
	rest := args[1:]
	if len(rest) > 0 && clockPattern.MatchString(rest[0]) {
		input += " " + rest[0]
		rest = rest[1:]
	}

	reminder, err := utils.ParseReminderTime(input, now, loc)
	if err != nil {
		return CheckArgs{}, err
	}
	if !reminder.After(now) {
		return CheckArgs{}, errors.New("reminder time must be in the future")
	}

	parsed := CheckArgs{ReminderTime: reminder}
	if len(rest) > 0 && (strings.EqualFold(rest[0], "dm") || strings.EqualFold(rest[0], "autodm")) {
		parsed.AutoDM = true
		rest = rest[1:]
	}
	parsed.Note = strings.Join(rest, " ")
	return parsed, nil
}

// GetFullName first + last name of a user
func GetFullName(user *tgbotapi.User) string {
	if user == nil {
		return ""
	}
	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	return name
}

// GetChatTitle readable chat name
func GetChatTitle(chat *tgbotapi.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	if chat.FirstName != "" {
		return chat.FirstName
	}
	return "Private Chat"
}
