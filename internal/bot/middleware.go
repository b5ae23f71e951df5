package bot

import (
	"context"

	"wellness-bot/internal/cache"
	"wellness-bot/internal/config"
	"wellness-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Level permission level, higher includes lower
type Level int

const (
	LevelMember Level = iota
	LevelMod
	LevelAdmin
	LevelAuthor
)

func (l Level) String() string {
	switch l {
	case LevelAuthor:
		return "author"
	case LevelAdmin:
		return "admin"
	case LevelMod:
		return "mod"
	}
	return "member"
}

// API subset of *tgbotapi.BotAPI used by the handlers
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// PermissionChecker resolves permission levels: authors from config, staff
// roles from the database, chat creators and administrators from Telegram
type PermissionChecker struct {
	cfg  *config.TelegramConfig
	auth *cache.AuthCache
	api  API
}

// NewPermissionChecker creates the permission checker
func NewPermissionChecker(cfg *config.TelegramConfig, auth *cache.AuthCache, api API) *PermissionChecker {
	return &PermissionChecker{cfg: cfg, auth: auth, api: api}
}

// Level permission level of userID in chat
func (p *PermissionChecker) Level(ctx context.Context, chat *tgbotapi.Chat, userID int64) Level {
	if p.cfg.IsAuthor(userID) {
		return LevelAuthor
	}

	role, err := p.auth.Role(ctx, userID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("❌ failed to check staff role")
	}
	if role == models.RoleAdmin {
		return LevelAdmin
	}

	if chat != nil && (chat.IsGroup() || chat.IsSuperGroup()) && p.isChatAdmin(chat.ID, userID) {
		return LevelAdmin
	}

	if role == models.RoleMod {
		return LevelMod
	}
	return LevelMember
}

// Require checks userID has at least min
func (p *PermissionChecker) Require(ctx context.Context, chat *tgbotapi.Chat, userID int64, min Level) (Level, bool) {
	level := p.Level(ctx, chat, userID)
	if level < min {
		logrus.WithFields(logrus.Fields{
			"user_id":  userID,
			"level":    level.String(),
			"required": min.String(),
		}).Warn("⛔ permission denied")
		return level, false
	}
	return level, true
}

// IsAuthor whether userID is a bot author
func (p *PermissionChecker) IsAuthor(userID int64) bool {
	return p.cfg.IsAuthor(userID)
}

func (p *PermissionChecker) isChatAdmin(chatID, userID int64) bool {
	if admin, cached := p.auth.ChatAdmin(chatID, userID); cached {
		return admin
	}

	member, err := p.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"chat_id": chatID,
			"user_id": userID,
			"error":   err.Error(),
		}).Error("❌ failed to get chat member")
		return false
	}

	admin := member.Status == "creator" || member.Status == "administrator"
	p.auth.SetChatAdmin(chatID, userID, admin)
	return admin
}
