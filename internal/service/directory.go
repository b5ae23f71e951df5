package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"wellness-bot/internal/models"
	"wellness-bot/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DirectoryService remembers users seen in chats so @username and display
// names can be resolved to ids
type DirectoryService struct {
	db *gorm.DB
}

// NewDirectoryService creates the directory service
func NewDirectoryService(db *gorm.DB) *DirectoryService {
	return &DirectoryService{db: db}
}

// SaveUser inserts or refreshes a directory entry
func (s *DirectoryService) SaveUser(ctx context.Context, userID int64, username, firstName, lastName string) error {
	if userID == 0 {
		return nil
	}

	entry := models.DirectoryEntry{
		UserID:    userID,
		Username:  utils.SafeUsername(username),
		FirstName: utils.SafeFullName(firstName),
		LastName:  utils.SafeFullName(lastName),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("❌ failed to save directory entry")
		return storageErr("save user", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"username": entry.Username,
	}).Debug("✓ directory entry updated")
	return nil
}

// GetUserIDByUsername id for @username (case-insensitive); ErrNotFound when unknown
func (s *DirectoryService) GetUserIDByUsername(ctx context.Context, username string) (int64, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return 0, ErrNotFound
	}

	var entry models.DirectoryEntry
	err := s.db.WithContext(ctx).Where("LOWER(username) = ?", strings.ToLower(username)).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, storageErr("lookup username", err)
	}
	return entry.UserID, nil
}

// GetUser directory entry by id; nil when unknown
func (s *DirectoryService) GetUser(ctx context.Context, userID int64) (*models.DirectoryEntry, error) {
	var entry models.DirectoryEntry
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("get user", err)
	}
	return &entry, nil
}

// DisplayName name for formatting; falls back to the numeric id
func (s *DirectoryService) DisplayName(ctx context.Context, userID int64) string {
	entry, err := s.GetUser(ctx, userID)
	if err != nil || entry == nil {
		return strconv.FormatInt(userID, 10)
	}
	if name := entry.DisplayName(); name != "" {
		return name
	}
	return strconv.FormatInt(userID, 10)
}
