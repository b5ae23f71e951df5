package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"wellness-bot/internal/metrics"
	"wellness-bot/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Escalation actions
const (
	ActionWarning = "warning"
	ActionMute    = "mute"
	ActionKick    = "kick"
	ActionBan     = "ban"
)

// DefaultEscalation escalation sequence per severity, indexed by warning count - 1
var DefaultEscalation = map[models.Severity][]string{
	models.SeverityGreen:  {ActionWarning, ActionWarning, ActionMute, ActionKick},
	models.SeverityYellow: {ActionWarning, ActionWarning, ActionKick, ActionBan},
	models.SeverityRed:    {ActionWarning, ActionWarning, ActionBan},
}

const activeWarning = "(expires_at IS NULL OR expires_at > ?)"

type ruleInput struct {
	Name        string `validate:"required,max=100"`
	Description string `validate:"max=500"`
}

// RuleSummary active warning totals for one rule
type RuleSummary struct {
	RuleName  string
	Severity  models.Severity
	Count     int
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// WarningSummary aggregated view of a user's active warnings
type WarningSummary struct {
	Total int
	// ByRule ordered like GetUserWarnings, one entry per rule
	ByRule []RuleSummary
	// NextActions escalation for the summed count of each severity present
	NextActions map[models.Severity]string
}

// ModerationService rule registry and warning lifecycle
type ModerationService struct {
	db         *gorm.DB
	clock      Clock
	escalation map[models.Severity][]string
	validate   *validator.Validate
}

// NewModerationService creates the moderation service
func NewModerationService(db *gorm.DB) *ModerationService {
	return &ModerationService{
		db:         db,
		clock:      utcNow,
		escalation: DefaultEscalation,
		validate:   validator.New(),
	}
}

// WithClock replaces the wall clock, used by tests
func (s *ModerationService) WithClock(clock Clock) *ModerationService {
	s.clock = clock
	return s
}

// AddRule creates a rule; the unique name is enforced by the insert itself
func (s *ModerationService) AddRule(ctx context.Context, name, description, severity string, createdBy int64) (*models.ModerationRule, error) {
	sev, ok := models.ParseSeverity(severity)
	if !ok {
		return nil, ErrInvalidSeverity
	}

	in := ruleInput{Name: strings.TrimSpace(name), Description: strings.TrimSpace(description)}
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &InvalidInputError{Field: strings.ToLower(verrs[0].Field()), Reason: verrs[0].Tag() + " " + verrs[0].Param()}
		}
		return nil, &InvalidInputError{Field: "rule", Reason: err.Error()}
	}

	rule := &models.ModerationRule{
		Name:        in.Name,
		Description: in.Description,
		Severity:    sev,
		CreatedBy:   createdBy,
		CreatedAt:   s.clock(),
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "rule_name"}}, DoNothing: true}).
		Create(rule)
	if res.Error != nil {
		logrus.WithFields(logrus.Fields{
			"rule":  in.Name,
			"error": res.Error.Error(),
		}).Error("❌ failed to save rule")
		return nil, storageErr("add rule", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &DuplicateRuleError{Name: in.Name}
	}

	metrics.RulesCreated.Inc()
	return rule, nil
}

// GetRule looks a rule up by its exact name; nil when absent
func (s *ModerationService) GetRule(ctx context.Context, name string) (*models.ModerationRule, error) {
	var rule models.ModerationRule
	err := s.db.WithContext(ctx).Where("rule_name = ?", name).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("get rule", err)
	}
	return &rule, nil
}

// GetRuleByID looks a rule up by id; nil when absent
func (s *ModerationService) GetRuleByID(ctx context.Context, id int64) (*models.ModerationRule, error) {
	var rule models.ModerationRule
	err := s.db.WithContext(ctx).First(&rule, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("get rule", err)
	}
	return &rule, nil
}

// GetAllRules lists rules red → yellow → green, then by name.
// An empty filter returns every severity.
func (s *ModerationService) GetAllRules(ctx context.Context, filter models.Severity) ([]models.ModerationRule, error) {
	query := s.db.WithContext(ctx).Model(&models.ModerationRule{})
	if filter != "" {
		if _, ok := models.ParseSeverity(string(filter)); !ok {
			return nil, ErrInvalidSeverity
		}
		query = query.Where("severity = ?", filter)
	}

	var rules []models.ModerationRule
	err := query.Order(models.SeverityRankOrder).Order("rule_name ASC").Find(&rules).Error
	if err != nil {
		return nil, storageErr("list rules", err)
	}
	return rules, nil
}

// WarnUser records a violation. An active warning for the same rule is
// incremented in place; otherwise a fresh row starts at count 1.
func (s *ModerationService) WarnUser(ctx context.Context, userID, ruleID, warnedBy int64) (*models.UserWarning, error) {
	rule, err := s.GetRuleByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrNotFound
	}

	now := s.clock()
	expiresAt := rule.Severity.ExpiresAt(now)
	var warning models.UserWarning

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active models.UserWarning
		err := tx.Where("user_id = ? AND rule_id = ? AND "+activeWarning, userID, ruleID, now).
			Order("created_at DESC").Order("id DESC").
			First(&active).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err == nil {
			// guarded increment: only applies while the row is still active
			res := tx.Model(&models.UserWarning{}).
				Where("id = ? AND "+activeWarning, active.ID, now).
				Updates(map[string]interface{}{
					"warning_count": gorm.Expr("warning_count + 1"),
					"expires_at":    expiresAt,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				return tx.First(&warning, active.ID).Error
			}
		}

		warning = models.UserWarning{
			UserID:       userID,
			RuleID:       rule.ID,
			RuleName:     rule.Name,
			Severity:     rule.Severity,
			WarningCount: 1,
			WarnedBy:     warnedBy,
			CreatedAt:    now,
			ExpiresAt:    &expiresAt,
		}
		return tx.Create(&warning).Error
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"rule_id": ruleID,
			"error":   err.Error(),
		}).Error("❌ failed to record warning")
		return nil, storageErr("warn user", err)
	}

	metrics.WarningsIssued.WithLabelValues(string(rule.Severity)).Inc()
	return &warning, nil
}

// GetActiveWarning most recent active warning for the pair; nil when none
func (s *ModerationService) GetActiveWarning(ctx context.Context, userID, ruleID int64) (*models.UserWarning, error) {
	var warning models.UserWarning
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND rule_id = ? AND "+activeWarning, userID, ruleID, s.clock()).
		Order("created_at DESC").Order("id DESC").
		First(&warning).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("get active warning", err)
	}
	return &warning, nil
}

// GetWarning loads any warning row by id, active or not; nil when absent
func (s *ModerationService) GetWarning(ctx context.Context, id int64) (*models.UserWarning, error) {
	var warning models.UserWarning
	err := s.db.WithContext(ctx).First(&warning, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("get warning", err)
	}
	return &warning, nil
}

// GetUserWarnings active warnings, most severe first, then newest first
func (s *ModerationService) GetUserWarnings(ctx context.Context, userID int64) ([]models.UserWarning, error) {
	var warnings []models.UserWarning
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND "+activeWarning, userID, s.clock()).
		Order(models.SeverityRankOrder).
		Order("created_at DESC").Order("id DESC").
		Find(&warnings).Error
	if err != nil {
		return nil, storageErr("list user warnings", err)
	}
	return warnings, nil
}

// GetWarningHistory every warning row of a user, including expired ones
func (s *ModerationService) GetWarningHistory(ctx context.Context, userID int64) ([]models.UserWarning, error) {
	var warnings []models.UserWarning
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&warnings).Error
	if err != nil {
		return nil, storageErr("list warning history", err)
	}
	return warnings, nil
}

// EscalationSequence configured actions for a severity
func (s *ModerationService) EscalationSequence(severity models.Severity) []string {
	return s.escalation[severity]
}

// GetNextAction action for the given count; counts past the end repeat the
// last action. Returns "" for an unknown severity or a count below 1.
func (s *ModerationService) GetNextAction(severity models.Severity, warningCount int) string {
	sequence := s.escalation[severity]
	if len(sequence) == 0 || warningCount < 1 {
		return ""
	}
	if warningCount > len(sequence) {
		return sequence[len(sequence)-1]
	}
	return sequence[warningCount-1]
}

// ClearAllWarnings expires every active warning of the user now and returns them
func (s *ModerationService) ClearAllWarnings(ctx context.Context, userID int64) ([]models.UserWarning, error) {
	now := s.clock()
	var cleared []models.UserWarning

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND "+activeWarning, userID, now).Find(&cleared).Error; err != nil {
			return err
		}
		if len(cleared) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(cleared))
		for _, w := range cleared {
			ids = append(ids, w.ID)
		}
		return tx.Model(&models.UserWarning{}).
			Where("id IN ?", ids).
			Update("expires_at", now).Error
	})
	if err != nil {
		return nil, storageErr("clear all warnings", err)
	}

	for i := range cleared {
		cleared[i].ExpiresAt = &now
	}
	metrics.WarningsCleared.Add(float64(len(cleared)))
	return cleared, nil
}

// ClearSpecificWarning expires exactly one row, whatever its current state
func (s *ModerationService) ClearSpecificWarning(ctx context.Context, warningID int64) (*models.UserWarning, error) {
	now := s.clock()
	res := s.db.WithContext(ctx).Model(&models.UserWarning{}).
		Where("id = ?", warningID).
		Update("expires_at", now)
	if res.Error != nil {
		return nil, storageErr("clear warning", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	metrics.WarningsCleared.Inc()
	warning, err := s.GetWarning(ctx, warningID)
	if err != nil {
		return nil, err
	}
	if warning == nil {
		return nil, ErrNotFound
	}
	return warning, nil
}

// GetWarningSummary aggregates the active warnings of a user. Next actions
// sum counts across all rules of the same severity.
func (s *ModerationService) GetWarningSummary(ctx context.Context, userID int64) (*WarningSummary, error) {
	warnings, err := s.GetUserWarnings(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &WarningSummary{
		Total:       len(warnings),
		ByRule:      make([]RuleSummary, 0, len(warnings)),
		NextActions: make(map[models.Severity]string),
	}

	totals := make(map[models.Severity]int)
	seen := make(map[string]bool)
	for _, w := range warnings {
		totals[w.Severity] += w.WarningCount
		if seen[w.RuleName] {
			continue
		}
		seen[w.RuleName] = true
		summary.ByRule = append(summary.ByRule, RuleSummary{
			RuleName:  w.RuleName,
			Severity:  w.Severity,
			Count:     w.WarningCount,
			CreatedAt: w.CreatedAt,
			ExpiresAt: w.ExpiresAt,
		})
	}

	for _, sev := range models.Severities {
		if total, ok := totals[sev]; ok {
			summary.NextActions[sev] = s.GetNextAction(sev, total)
		}
	}
	return summary, nil
}
