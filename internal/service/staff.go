package service

import (
	"context"
	"errors"

	"wellness-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StaffService moderator and admin registry
type StaffService struct {
	db *gorm.DB
}

// NewStaffService creates the staff service
func NewStaffService(db *gorm.DB) *StaffService {
	return &StaffService{db: db}
}

// GetRole staff role of the user, "" when not staff
func (s *StaffService) GetRole(ctx context.Context, userID int64) (string, error) {
	member, err := s.GetMember(ctx, userID)
	if err != nil || member == nil {
		return "", err
	}
	return member.Role, nil
}

// GetMember staff entry of the user; nil when not staff
func (s *StaffService) GetMember(ctx context.Context, userID int64) (*models.StaffMember, error) {
	var member models.StaffMember
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("get staff", err)
	}
	return &member, nil
}

// SetMember adds the user as staff or changes their role
func (s *StaffService) SetMember(ctx context.Context, userID int64, role, username, fullName string, addedBy int64) error {
	if role != models.RoleMod && role != models.RoleAdmin {
		return &InvalidInputError{Field: "role", Reason: "must be mod or admin"}
	}

	member := &models.StaffMember{
		UserID:   userID,
		Role:     role,
		Username: username,
		FullName: fullName,
		AddedBy:  addedBy,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "username", "full_name", "added_by"}),
		}).
		Create(member).Error
	if err != nil {
		return storageErr("set staff", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"role":     role,
		"added_by": addedBy,
	}).Info("✅ staff member saved")
	return nil
}

// RemoveMember drops the user from staff; false when they were not staff
func (s *StaffService) RemoveMember(ctx context.Context, userID int64) (bool, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.StaffMember{})
	if res.Error != nil {
		return false, storageErr("remove staff", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListMembers all staff, admins first
func (s *StaffService) ListMembers(ctx context.Context) ([]models.StaffMember, error) {
	var members []models.StaffMember
	err := s.db.WithContext(ctx).
		Order("CASE role WHEN 'admin' THEN 0 ELSE 1 END").
		Order("added_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, storageErr("list staff", err)
	}
	return members, nil
}
