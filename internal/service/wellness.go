package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"wellness-bot/internal/metrics"
	"wellness-bot/internal/models"
	"wellness-bot/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultCheckTimeout how long an auto-DM check waits for an answer
const DefaultCheckTimeout = 24 * time.Hour

// ResolveButtonPrefix callback data prefix of the "Mark Resolved" button
const ResolveButtonPrefix = "check:resolve:"

// CheckRequest input of CreateCheck
type CheckRequest struct {
	UserID       int64
	ChatID       int64
	FlaggedBy    int64
	MessageID    *int
	Note         string
	AutoDM       bool
	ReminderTime time.Time
}

// WellnessService wellness check lifecycle
type WellnessService struct {
	db           *gorm.DB
	notifier     Notifier
	names        NameResolver
	clock        Clock
	checkTimeout time.Duration
}

// NewWellnessService creates the wellness check service
func NewWellnessService(db *gorm.DB, notifier Notifier, names NameResolver) *WellnessService {
	return &WellnessService{
		db:           db,
		notifier:     notifier,
		names:        names,
		clock:        utcNow,
		checkTimeout: DefaultCheckTimeout,
	}
}

// WithClock replaces the wall clock, used by tests
func (s *WellnessService) WithClock(clock Clock) *WellnessService {
	s.clock = clock
	return s
}

// WithCheckTimeout overrides the auto-DM response window
func (s *WellnessService) WithCheckTimeout(d time.Duration) *WellnessService {
	if d > 0 {
		s.checkTimeout = d
	}
	return s
}

// CreateCheck stores a new pending check
func (s *WellnessService) CreateCheck(ctx context.Context, req CheckRequest) (*models.WellnessCheck, error) {
	if req.UserID == 0 {
		return nil, &InvalidInputError{Field: "user", Reason: "required"}
	}
	if req.ReminderTime.IsZero() {
		return nil, &InvalidInputError{Field: "reminder_time", Reason: "required"}
	}

	check := &models.WellnessCheck{
		CheckID:      uuid.NewString(),
		UserID:       req.UserID,
		ChatID:       req.ChatID,
		FlaggedBy:    req.FlaggedBy,
		MessageID:    req.MessageID,
		Note:         utils.SafeNote(req.Note),
		AutoDM:       req.AutoDM,
		ReminderTime: req.ReminderTime.UTC(),
		CreatedAt:    s.clock(),
		Status:       models.CheckPending,
	}
	if err := s.db.WithContext(ctx).Create(check).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": req.UserID,
			"error":   err.Error(),
		}).Error("❌ failed to create wellness check")
		return nil, storageErr("create check", err)
	}

	metrics.ChecksCreated.WithLabelValues(strconv.FormatBool(req.AutoDM)).Inc()
	logrus.WithFields(logrus.Fields{
		"check_id":   check.CheckID,
		"user_id":    check.UserID,
		"flagged_by": check.FlaggedBy,
		"auto_dm":    check.AutoDM,
	}).Info("🐻 wellness check created")
	return check, nil
}

// FlagCheck creates a check, sends the auto DM when requested and tells the
// moderators. Delivery failures never fail the call.
func (s *WellnessService) FlagCheck(ctx context.Context, req CheckRequest) (*models.WellnessCheck, error) {
	check, err := s.CreateCheck(ctx, req)
	if err != nil {
		return nil, err
	}

	if check.AutoDM {
		s.AttemptAutoDM(ctx, check)
	}

	notice := Notice{
		Text:    utils.FormatCheckFlagged(check, s.names.DisplayName(ctx, check.UserID), s.names.DisplayName(ctx, check.FlaggedBy)),
		Buttons: []Button{resolveButton(check)},
	}
	if err := s.notifier.NotifyModerators(ctx, notice); err != nil {
		logrus.WithFields(logrus.Fields{
			"check_id": check.CheckID,
			"error":    err.Error(),
		}).Warn("⚠️ failed to notify moderators about wellness check")
	}
	return check, nil
}

// AttemptAutoDM sends the check-in DM; a failed send marks the check's DMs as disabled
func (s *WellnessService) AttemptAutoDM(ctx context.Context, check *models.WellnessCheck) bool {
	err := s.notifier.NotifyUser(ctx, check.UserID, Notice{Text: utils.FormatCheckDM(check)})
	if err == nil {
		return true
	}

	metrics.DMsFailed.Inc()
	logrus.WithFields(logrus.Fields{
		"check_id": check.CheckID,
		"user_id":  check.UserID,
		"error":    err.Error(),
	}).Warn("⚠️ wellness DM failed, marking DMs disabled")

	updated, markErr := s.MarkDMsDisabled(ctx, check.CheckID)
	if markErr != nil {
		logrus.WithFields(logrus.Fields{
			"check_id": check.CheckID,
			"error":    markErr.Error(),
		}).Error("❌ failed to mark DMs disabled")
		return false
	}
	if updated != nil {
		*check = *updated
	}
	return false
}

// MarkDMsDisabled flags the check; a pending check also moves to dms_disabled.
// A check past its reminder keeps reminder_sent so it is not reminded twice.
func (s *WellnessService) MarkDMsDisabled(ctx context.Context, checkID string) (*models.WellnessCheck, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.WellnessCheck{}).
			Where("check_id = ?", checkID).
			Update("dms_disabled", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&models.WellnessCheck{}).
			Where("check_id = ? AND status = ?", checkID, models.CheckPending).
			Update("status", models.CheckDMsDisabled).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, storageErr("mark dms disabled", err)
	}
	return s.GetCheck(ctx, checkID)
}

// GetCheck loads a check by its external id; nil when absent
func (s *WellnessService) GetCheck(ctx context.Context, checkID string) (*models.WellnessCheck, error) {
	var check models.WellnessCheck
	err := s.db.WithContext(ctx).Where("check_id = ?", checkID).First(&check).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("get check", err)
	}
	return &check, nil
}

// GetOpenChecks not-yet-done checks of a user, newest first
func (s *WellnessService) GetOpenChecks(ctx context.Context, userID int64) ([]models.WellnessCheck, error) {
	var checks []models.WellnessCheck
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, models.CheckDone).
		Order("created_at DESC").Order("id DESC").
		Find(&checks).Error
	if err != nil {
		return nil, storageErr("list open checks", err)
	}
	return checks, nil
}

// HasOpenCheck whether the user has any check that is not done
func (s *WellnessService) HasOpenCheck(ctx context.Context, userID int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.WellnessCheck{}).
		Where("user_id = ? AND status <> ?", userID, models.CheckDone).
		Count(&n).Error
	if err != nil {
		return false, storageErr("count open checks", err)
	}
	return n > 0, nil
}

// RecordUserResponse resolves every open check of the user with the
// response text and tells the moderators. Returns the resolved checks.
func (s *WellnessService) RecordUserResponse(ctx context.Context, userID int64, text string) ([]models.WellnessCheck, error) {
	open, err := s.GetOpenChecks(ctx, userID)
	if err != nil {
		return nil, err
	}

	text = utils.SafeText(text)
	userRef := strconv.FormatInt(userID, 10)
	resolved := make([]models.WellnessCheck, 0, len(open))

	for _, check := range open {
		now := s.clock()
		res := s.db.WithContext(ctx).Model(&models.WellnessCheck{}).
			Where("id = ? AND status <> ?", check.ID, models.CheckDone).
			Updates(map[string]interface{}{
				"user_responded":    true,
				"response_text":     text,
				"resolved_at":       now,
				"resolved_by":       userRef,
				"resolution_reason": models.ResolveResponse,
				"status":            models.CheckDone,
			})
		if res.Error != nil {
			return resolved, storageErr("record response", res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}

		check.UserResponded = true
		check.ResponseText = text
		check.ResolvedAt = &now
		check.ResolvedBy = userRef
		check.ResolutionReason = models.ResolveResponse
		check.Status = models.CheckDone
		resolved = append(resolved, check)
		metrics.ChecksResolved.WithLabelValues(models.ResolveResponse).Inc()
	}

	for i := range resolved {
		check := &resolved[i]
		notice := Notice{Text: utils.FormatCheckResponse(check, s.names.DisplayName(ctx, check.UserID), text)}
		if err := s.notifier.NotifyModerators(ctx, notice); err != nil {
			logrus.WithFields(logrus.Fields{
				"check_id": check.CheckID,
				"error":    err.Error(),
			}).Warn("⚠️ failed to notify moderators about response")
		}
	}

	if len(resolved) > 0 {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"checks":  len(resolved),
		}).Info("✅ wellness check response recorded")
	}
	return resolved, nil
}

// Resolve closes a check. A check that is already done is left untouched and
// returned with transitioned=false.
func (s *WellnessService) Resolve(ctx context.Context, checkID, resolvedBy, reason string) (*models.WellnessCheck, bool, error) {
	if reason == "" {
		reason = models.ResolveManual
	}

	now := s.clock()
	res := s.db.WithContext(ctx).Model(&models.WellnessCheck{}).
		Where("check_id = ? AND status <> ?", checkID, models.CheckDone).
		Updates(map[string]interface{}{
			"status":            models.CheckDone,
			"resolved_at":       now,
			"resolved_by":       resolvedBy,
			"resolution_reason": reason,
		})
	if res.Error != nil {
		return nil, false, storageErr("resolve check", res.Error)
	}

	check, err := s.GetCheck(ctx, checkID)
	if err != nil {
		return nil, false, err
	}
	if check == nil {
		return nil, false, ErrNotFound
	}

	transitioned := res.RowsAffected == 1
	if transitioned {
		metrics.ChecksResolved.WithLabelValues(reason).Inc()
		logrus.WithFields(logrus.Fields{
			"check_id":    checkID,
			"resolved_by": resolvedBy,
			"reason":      reason,
		}).Info("✅ wellness check resolved")
	}
	return check, transitioned, nil
}

// ResolveAndAnnounce resolves manually and posts the result to the moderators
func (s *WellnessService) ResolveAndAnnounce(ctx context.Context, checkID string, resolvedBy int64) (*models.WellnessCheck, bool, error) {
	check, transitioned, err := s.Resolve(ctx, checkID, strconv.FormatInt(resolvedBy, 10), models.ResolveManual)
	if err != nil || !transitioned {
		return check, transitioned, err
	}

	notice := Notice{Text: utils.FormatCheckResolved(check, s.names.DisplayName(ctx, check.UserID), s.names.DisplayName(ctx, resolvedBy))}
	if err := s.notifier.NotifyModerators(ctx, notice); err != nil {
		logrus.WithFields(logrus.Fields{
			"check_id": checkID,
			"error":    err.Error(),
		}).Warn("⚠️ failed to announce resolution")
	}
	return check, true, nil
}

// RunReminderSweep posts one reminder for each pending check whose reminder
// time has passed and moves it to reminder_sent. dms_disabled checks were
// already reported to moderators when the DM failed and are not reminded. Only the caller whose
// status update wins notifies, so overlapping runs never double-send.
func (s *WellnessService) RunReminderSweep(ctx context.Context) (int, error) {
	now := s.clock()

	var due []models.WellnessCheck
	err := s.db.WithContext(ctx).
		Where("status = ? AND reminder_time <= ?", models.CheckPending, now).
		Order("reminder_time ASC").
		Find(&due).Error
	if err != nil {
		return 0, storageErr("select due reminders", err)
	}

	sent := 0
	for i := range due {
		check := &due[i]
		res := s.db.WithContext(ctx).Model(&models.WellnessCheck{}).
			Where("id = ? AND status = ?", check.ID, models.CheckPending).
			Update("status", models.CheckReminderSent)
		if res.Error != nil {
			return sent, storageErr("mark reminder sent", res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}
		check.Status = models.CheckReminderSent

		notice := Notice{
			Text:    utils.FormatCheckReminder(check, s.names.DisplayName(ctx, check.UserID), s.names.DisplayName(ctx, check.FlaggedBy)),
			Buttons: []Button{resolveButton(check)},
		}
		if err := s.notifier.NotifyModerators(ctx, notice); err != nil {
			logrus.WithFields(logrus.Fields{
				"check_id": check.CheckID,
				"error":    err.Error(),
			}).Warn("⚠️ failed to send wellness reminder")
			continue
		}
		sent++
		metrics.RemindersSent.Inc()
	}

	if sent > 0 {
		logrus.WithField("count", sent).Info("🔔 wellness reminders sent")
	}
	return sent, nil
}

// RunTimeoutSweep resolves auto-DM checks nobody answered within the
// response window and posts a timeout notice for each.
func (s *WellnessService) RunTimeoutSweep(ctx context.Context) (int, error) {
	now := s.clock()
	cutoff := now.Add(-s.checkTimeout)

	var expired []models.WellnessCheck
	err := s.db.WithContext(ctx).
		Where("auto_dm = ? AND status <> ? AND created_at < ?", true, models.CheckDone, cutoff).
		Order("created_at ASC").
		Find(&expired).Error
	if err != nil {
		return 0, storageErr("select timed out checks", err)
	}

	timedOut := 0
	for i := range expired {
		check, transitioned, err := s.Resolve(ctx, expired[i].CheckID, models.SystemActor, models.ResolveTimeout)
		if err != nil {
			return timedOut, err
		}
		if !transitioned {
			continue
		}
		timedOut++

		notice := Notice{Text: utils.FormatCheckTimeout(check, s.names.DisplayName(ctx, check.UserID), s.names.DisplayName(ctx, check.FlaggedBy), s.checkTimeout)}
		if err := s.notifier.NotifyModerators(ctx, notice); err != nil {
			logrus.WithFields(logrus.Fields{
				"check_id": check.CheckID,
				"error":    err.Error(),
			}).Warn("⚠️ failed to send timeout notice")
		}
	}

	if timedOut > 0 {
		logrus.WithField("count", timedOut).Info("⏱️ wellness checks timed out")
	}
	return timedOut, nil
}

// CountByStatus number of checks per status
func (s *WellnessService) CountByStatus(ctx context.Context) (map[models.CheckStatus]int64, error) {
	var rows []struct {
		Status models.CheckStatus
		N      int64
	}
	err := s.db.WithContext(ctx).Model(&models.WellnessCheck{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, storageErr("count checks", err)
	}

	counts := make(map[models.CheckStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

func resolveButton(check *models.WellnessCheck) Button {
	return Button{Label: "Mark Resolved", Data: ResolveButtonPrefix + check.CheckID}
}
