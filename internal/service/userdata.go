package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"wellness-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document decoded per-user blob, one raw JSON value per key
type Document map[string]json.RawMessage

// Get decodes key into out; false when the key is absent
func (d Document) Get(key string, out interface{}) (bool, error) {
	raw, ok := d[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// UserDataService per-user key/value storage, one JSON document per user
type UserDataService struct {
	db    *gorm.DB
	clock Clock
}

// NewUserDataService creates the user data service
func NewUserDataService(db *gorm.DB) *UserDataService {
	return &UserDataService{db: db, clock: utcNow}
}

// WithClock replaces the wall clock, used by tests
func (s *UserDataService) WithClock(clock Clock) *UserDataService {
	s.clock = clock
	return s
}

// GetDocument returns the user's document, empty when none is stored
func (s *UserDataService) GetDocument(ctx context.Context, userID int64) (Document, error) {
	return loadDocument(s.db.WithContext(ctx), userID)
}

// GetProperty decodes one key into out; false when the key is absent
func (s *UserDataService) GetProperty(ctx context.Context, userID int64, key string, out interface{}) (bool, error) {
	doc, err := s.GetDocument(ctx, userID)
	if err != nil {
		return false, err
	}
	found, err := doc.Get(key, out)
	if err != nil {
		return false, storageErr("decode "+key, err)
	}
	return found, nil
}

// SetProperty stores value under key, keeping the other keys
func (s *UserDataService) SetProperty(ctx context.Context, userID int64, key string, value interface{}) error {
	return s.Update(ctx, userID, func(doc Document) (bool, error) {
		raw, err := json.Marshal(value)
		if err != nil {
			return false, err
		}
		doc[key] = raw
		return true, nil
	})
}

// DeleteProperties removes the keys; reports whether the first key existed
func (s *UserDataService) DeleteProperties(ctx context.Context, userID int64, keys ...string) (bool, error) {
	existed := false
	err := s.Update(ctx, userID, func(doc Document) (bool, error) {
		changed := false
		for i, key := range keys {
			if _, ok := doc[key]; ok {
				if i == 0 {
					existed = true
				}
				delete(doc, key)
				changed = true
			}
		}
		return changed, nil
	})
	return existed, err
}

// Update runs a read-modify-write on the user's document in one transaction.
// fn returns false to skip the write.
func (s *UserDataService) Update(ctx context.Context, userID int64, fn func(doc Document) (bool, error)) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := loadDocument(tx, userID)
		if err != nil {
			return err
		}
		changed, err := fn(doc)
		if err != nil || !changed {
			return err
		}
		return saveDocument(tx, userID, doc, s.clock())
	})
	if err != nil {
		var se *StorageError
		if errors.As(err, &se) {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("❌ failed to update user data")
		return storageErr("update user data", err)
	}
	return nil
}

// UsersWithKey documents of every user holding key
func (s *UserDataService) UsersWithKey(ctx context.Context, key string) (map[int64]Document, error) {
	var rows []models.UserData
	if err := s.db.WithContext(ctx).Order("user_id ASC").Find(&rows).Error; err != nil {
		return nil, storageErr("list user data", err)
	}

	result := make(map[int64]Document)
	for _, row := range rows {
		doc, err := decodeDocument(row.Data)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": row.UserID,
				"error":   err.Error(),
			}).Warn("⚠️ skipping unreadable user data")
			continue
		}
		if _, ok := doc[key]; ok {
			result[row.UserID] = doc
		}
	}
	return result, nil
}

// Count number of users with a stored document
func (s *UserDataService) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.UserData{}).Count(&n).Error; err != nil {
		return 0, storageErr("count user data", err)
	}
	return n, nil
}

// ListUserIDs user ids with a stored document, at most limit when limit > 0
func (s *UserDataService) ListUserIDs(ctx context.Context, limit int) ([]int64, error) {
	var ids []int64
	query := s.db.WithContext(ctx).Model(&models.UserData{}).Order("updated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("user_id", &ids).Error; err != nil {
		return nil, storageErr("list user ids", err)
	}
	return ids, nil
}

func loadDocument(db *gorm.DB, userID int64) (Document, error) {
	var row models.UserData
	err := db.Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Document{}, nil
		}
		return nil, storageErr("get user data", err)
	}
	doc, err := decodeDocument(row.Data)
	if err != nil {
		return nil, storageErr("decode user data", err)
	}
	return doc, nil
}

func decodeDocument(data string) (Document, error) {
	doc := Document{}
	if data == "" {
		return doc, nil
	}
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func saveDocument(db *gorm.DB, userID int64, doc Document, now time.Time) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	row := map[string]interface{}{
		"user_id":    userID,
		"data":       string(raw),
		"updated_at": now,
	}
	return db.Model(&models.UserData{}).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(row).Error
}
