package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

// RoleSource looks up a user's staff role; "" means not staff
type RoleSource interface {
	GetRole(ctx context.Context, userID int64) (string, error)
}

type chatMember struct {
	chatID int64
	userID int64
}

// AuthCache caches permission lookups: staff roles from the database and
// chat administrator status from Telegram
type AuthCache struct {
	source     RoleSource
	roles      *expirable.LRU[int64, string]
	chatAdmins *expirable.LRU[chatMember, bool]
	ttl        time.Duration
}

// NewAuthCache creates the cache; entries expire after ttl
func NewAuthCache(source RoleSource, size int, ttl time.Duration) *AuthCache {
	if size <= 0 {
		size = 1024
	}
	c := &AuthCache{
		source:     source,
		roles:      expirable.NewLRU[int64, string](size, nil, ttl),
		chatAdmins: expirable.NewLRU[chatMember, bool](size, nil, ttl),
		ttl:        ttl,
	}
	logrus.WithFields(logrus.Fields{
		"size": size,
		"ttl":  ttl.String(),
	}).Info("✅ auth cache initialized")
	return c
}

// Role staff role of the user, loaded from the source on a miss
func (c *AuthCache) Role(ctx context.Context, userID int64) (string, error) {
	if role, ok := c.roles.Get(userID); ok {
		return role, nil
	}

	role, err := c.source.GetRole(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load role of %d: %w", userID, err)
	}
	c.roles.Add(userID, role)
	return role, nil
}

// InvalidateRole forgets the cached role, called after staff changes
func (c *AuthCache) InvalidateRole(userID int64) {
	c.roles.Remove(userID)
	logrus.WithField("user_id", userID).Debug("♻️ cached role invalidated")
}

// ChatAdmin cached chat administrator status; cached is false on a miss
func (c *AuthCache) ChatAdmin(chatID, userID int64) (admin bool, cached bool) {
	return c.chatAdmins.Get(chatMember{chatID: chatID, userID: userID})
}

// SetChatAdmin stores chat administrator status
func (c *AuthCache) SetChatAdmin(chatID, userID int64, admin bool) {
	c.chatAdmins.Add(chatMember{chatID: chatID, userID: userID}, admin)
}

// Purge drops every entry
func (c *AuthCache) Purge() {
	c.roles.Purge()
	c.chatAdmins.Purge()
	logrus.Info("♻️ auth cache purged")
}

// Status cache sizes for /admindata
func (c *AuthCache) Status() map[string]interface{} {
	return map[string]interface{}{
		"roles":       c.roles.Len(),
		"chat_admins": c.chatAdmins.Len(),
		"ttl":         c.ttl.String(),
	}
}
