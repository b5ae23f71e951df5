package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"wellness-bot/internal/metrics"
	"wellness-bot/internal/models"
	"wellness-bot/internal/utils"

	"github.com/sirupsen/logrus"
)

// Milestone announced no-contact streak threshold
type Milestone struct {
	Days    int
	Emoji   string
	Name    string
	Message string
}

// Milestones ascending by day threshold
var Milestones = []Milestone{
	{Days: 1, Emoji: "🎉", Name: "1 full day", Message: "has completed *1 full day* of no-contact! First milestone reached!"},
	{Days: 7, Emoji: "🌟", Name: "1 week", Message: "has completed *1 week* of no-contact! A full week strong!"},
	{Days: 30, Emoji: "🏆", Name: "1 month", Message: "has completed *1 month* of no-contact! Incredible dedication!"},
	{Days: 90, Emoji: "💎", Name: "3 months", Message: "has completed *3 months* of no-contact! Diamond strength!"},
	{Days: 180, Emoji: "🔥", Name: "6 months", Message: "has completed *6 months* of no-contact! Half a year of growth!"},
	{Days: 365, Emoji: "👑", Name: "1 full year", Message: "has completed *1 FULL YEAR* of no-contact! Absolute legend!"},
}

// MilestoneFor milestone whose threshold equals days
func MilestoneFor(days int) (Milestone, bool) {
	for _, m := range Milestones {
		if m.Days == days {
			return m, true
		}
	}
	return Milestone{}, false
}

// MilestoneName readable streak length
func MilestoneName(days int) string {
	if m, ok := MilestoneFor(days); ok {
		return m.Name
	}
	return fmt.Sprintf("%d days", days)
}

const startDateLayout = "2006-01-02"

// NoContactStatus streak state of one user
type NoContactStatus struct {
	StartDate time.Time
	Days      int
	Milestone *Milestone
	Announced bool
}

// MilestoneService no-contact streak tracking and the daily announcer
type MilestoneService struct {
	userData *UserDataService
	notifier Notifier
	names    NameResolver
	chatID   int64
	loc      *time.Location
	clock    Clock
}

// NewMilestoneService creates the milestone service; chatID receives announcements
func NewMilestoneService(userData *UserDataService, notifier Notifier, names NameResolver, chatID int64, loc *time.Location) *MilestoneService {
	if loc == nil {
		loc = time.UTC
	}
	return &MilestoneService{
		userData: userData,
		notifier: notifier,
		names:    names,
		chatID:   chatID,
		loc:      loc,
		clock:    utcNow,
	}
}

// WithClock replaces the wall clock, used by tests
func (s *MilestoneService) WithClock(clock Clock) *MilestoneService {
	s.clock = clock
	return s
}

// Location reference timezone for day counting
func (s *MilestoneService) Location() *time.Location {
	return s.loc
}

// SetStartDate records the start day, taken in the reference timezone
func (s *MilestoneService) SetStartDate(ctx context.Context, userID int64, start time.Time) (time.Time, error) {
	day := start.In(s.loc)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	if err := s.userData.SetProperty(ctx, userID, models.KeyNoContactStart, day.Format(startDateLayout)); err != nil {
		return time.Time{}, err
	}
	return day, nil
}

// SetStartToday records today as the start day
func (s *MilestoneService) SetStartToday(ctx context.Context, userID int64) (time.Time, error) {
	return s.SetStartDate(ctx, userID, s.clock())
}

// Status streak state; nil when no start date is recorded
func (s *MilestoneService) Status(ctx context.Context, userID int64) (*NoContactStatus, error) {
	doc, err := s.userData.GetDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	start, ok, err := s.startDate(doc)
	if err != nil || !ok {
		return nil, err
	}

	status := &NoContactStatus{
		StartDate: start,
		Days:      utils.CalendarDaysBetween(start, s.clock(), s.loc),
	}
	if m, ok := MilestoneFor(status.Days); ok {
		status.Milestone = &m
		status.Announced = containsDay(announcedDays(doc), status.Days)
	}
	return status, nil
}

// Reset clears the start date and announced milestones; false when nothing was recorded
func (s *MilestoneService) Reset(ctx context.Context, userID int64) (bool, error) {
	return s.userData.DeleteProperties(ctx, userID, models.KeyNoContactStart, models.KeyAnnouncedMilestones)
}

// Run announces every milestone reached today that was not announced before.
// It re-derives everything from stored state, so running it twice is harmless.
func (s *MilestoneService) Run(ctx context.Context) (int, error) {
	users, err := s.userData.UsersWithKey(ctx, models.KeyNoContactStart)
	if err != nil {
		return 0, err
	}

	ids := make([]int64, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	now := s.clock()
	announced := 0
	for _, userID := range ids {
		ok, err := s.checkUser(ctx, userID, users[userID], now)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"error":   err.Error(),
			}).Error("❌ milestone check failed")
			continue
		}
		if ok {
			announced++
		}
	}
	return announced, nil
}

func (s *MilestoneService) checkUser(ctx context.Context, userID int64, doc Document, now time.Time) (bool, error) {
	start, ok, err := s.startDate(doc)
	if err != nil || !ok {
		return false, err
	}

	days := utils.CalendarDaysBetween(start, now, s.loc)
	if days < 0 {
		return false, nil
	}
	milestone, ok := MilestoneFor(days)
	if !ok || containsDay(announcedDays(doc), days) {
		return false, nil
	}

	text := utils.FormatMilestone(userID, s.names.DisplayName(ctx, userID), milestone.Emoji, milestone.Message)
	// not recorded on failure, so the next run on the same day retries
	if err := s.notifier.Post(ctx, s.chatID, Notice{Text: text}); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"days":    days,
			"error":   err.Error(),
		}).Warn("⚠️ milestone announcement failed, retrying next run")
		return false, nil
	}

	// re-read inside the update so a concurrent run cannot drop an entry
	err = s.userData.Update(ctx, userID, func(d Document) (bool, error) {
		list := announcedDays(d)
		if containsDay(list, days) {
			return false, nil
		}
		list = append(list, days)
		raw, err := json.Marshal(list)
		if err != nil {
			return false, err
		}
		d[models.KeyAnnouncedMilestones] = raw
		return true, nil
	})
	if err != nil {
		return false, err
	}

	metrics.MilestonesAnnounced.WithLabelValues(strconv.Itoa(days)).Inc()
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"days":    days,
	}).Info("🎉 milestone announced")
	return true, nil
}

func (s *MilestoneService) startDate(doc Document) (time.Time, bool, error) {
	var raw string
	ok, err := doc.Get(models.KeyNoContactStart, &raw)
	if err != nil || !ok || raw == "" {
		return time.Time{}, false, err
	}
	// older records may carry a full timestamp
	if len(raw) > len(startDateLayout) {
		raw = raw[:len(startDateLayout)]
	}
	start, err := time.ParseInLocation(startDateLayout, raw, s.loc)
	if err != nil {
		return time.Time{}, false, &InvalidInputError{Field: models.KeyNoContactStart, Reason: err.Error()}
	}
	return start, true, nil
}

func announcedDays(doc Document) []int {
	var days []int
	if _, err := doc.Get(models.KeyAnnouncedMilestones, &days); err != nil {
		return nil
	}
	return days
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
