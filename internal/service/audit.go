package service

import (
	"context"

	"wellness-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService operation log
type AuditService struct {
	db *gorm.DB
}

// NewAuditService creates the audit service
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// LogOperation records one operation; failures are only logged
func (s *AuditService) LogOperation(ctx context.Context, opType string, targetUserID, operatorID int64, detail string, opErr error) {
	entry := &models.OperationLog{
		OperationType: opType,
		TargetUserID:  targetUserID,
		OperatorID:    operatorID,
		Detail:        detail,
		Success:       opErr == nil,
	}
	if opErr != nil {
		entry.ErrorMsg = opErr.Error()
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"operation": opType,
			"error":     err.Error(),
		}).Warn("⚠️ failed to write operation log")
	}
}

// GetUserLogs operations targeting a user, newest first
func (s *AuditService) GetUserLogs(ctx context.Context, userID int64, limit int) ([]models.OperationLog, error) {
	var logs []models.OperationLog
	query := s.db.WithContext(ctx).Where("target_user_id = ?", userID).
		Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, storageErr("user logs", err)
	}
	return logs, nil
}

// GetFailedLogs failed operations, newest first
func (s *AuditService) GetFailedLogs(ctx context.Context, limit int) ([]models.OperationLog, error) {
	var logs []models.OperationLog
	query := s.db.WithContext(ctx).Where("success = ?", false).
		Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, storageErr("failed logs", err)
	}
	return logs, nil
}

// CountByType number of logged operations per type
func (s *AuditService) CountByType(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		OperationType string
		N             int64
	}
	err := s.db.WithContext(ctx).Model(&models.OperationLog{}).
		Select("operation_type, COUNT(*) AS n").
		Group("operation_type").
		Scan(&rows).Error
	if err != nil {
		return nil, storageErr("count operations", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.OperationType] = r.N
	}
	return counts, nil
}
