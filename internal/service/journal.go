package service

import (
	"context"
	"math"
	"strings"
	"time"

	"wellness-bot/internal/models"
	"wellness-bot/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Feeling mood option, Value orders feelings for averages and trends
type Feeling struct {
	Name  string
	Emoji string
	Value int
}

// Feelings accepted by /mood, in scale order
var Feelings = []Feeling{
	{Name: "struggling", Emoji: "😞", Value: 1},
	{Name: "difficult", Emoji: "😔", Value: 2},
	{Name: "managing", Emoji: "😐", Value: 3},
	{Name: "okay", Emoji: "🙂", Value: 4},
	{Name: "good", Emoji: "😊", Value: 5},
	{Name: "great", Emoji: "😄", Value: 6},
	{Name: "healing", Emoji: "💚", Value: 7},
	{Name: "peaceful", Emoji: "😌", Value: 8},
}

// ParseFeeling case-insensitive lookup
func ParseFeeling(s string) (Feeling, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, f := range Feelings {
		if f.Name == s {
			return f, true
		}
	}
	return Feeling{}, false
}

// Trend labels
const (
	TrendNotEnoughData = "Not enough data"
	TrendTracking      = "Tracking..."
	TrendImproving     = "📈 Improving"
	TrendDeclining     = "📉 Declining"
	TrendStable        = "➡️ Stable"
)

// MoodStats aggregate of a user's recent mood entries
type MoodStats struct {
	Total        int
	Counts       map[string]int
	MostCommon   string
	Average      float64
	AverageLabel string
	Trend        string
	StreakDays   int
}

// AffirmationStats aggregate of a user's affirmations
type AffirmationStats struct {
	Total      int
	StreakDays int
	Recent     []models.Affirmation
}

// JournalService mood and affirmation logs
type JournalService struct {
	db    *gorm.DB
	loc   *time.Location
	clock Clock
}

// NewJournalService creates the journal service; loc decides day boundaries for streaks
func NewJournalService(db *gorm.DB, loc *time.Location) *JournalService {
	if loc == nil {
		loc = time.UTC
	}
	return &JournalService{db: db, loc: loc, clock: utcNow}
}

// WithClock replaces the wall clock, used by tests
func (s *JournalService) WithClock(clock Clock) *JournalService {
	s.clock = clock
	return s
}

// LogMood stores one mood entry
func (s *JournalService) LogMood(ctx context.Context, userID int64, feeling, note string) (*models.MoodEntry, error) {
	f, ok := ParseFeeling(feeling)
	if !ok {
		return nil, &InvalidInputError{Field: "feeling", Reason: "unknown feeling " + feeling}
	}

	entry := &models.MoodEntry{
		UserID:    userID,
		Feeling:   f.Name,
		Note:      utils.SafeNote(note),
		CreatedAt: s.clock(),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("❌ failed to save mood")
		return nil, storageErr("log mood", err)
	}
	return entry, nil
}

// MoodHistory newest first, at most limit entries
func (s *JournalService) MoodHistory(ctx context.Context, userID int64, limit int) ([]models.MoodEntry, error) {
	var entries []models.MoodEntry
	query := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, storageErr("mood history", err)
	}
	return entries, nil
}

// MoodStats aggregates the last limit entries; nil when there are none
func (s *JournalService) MoodStats(ctx context.Context, userID int64, limit int) (*MoodStats, error) {
	history, err := s.MoodHistory(ctx, userID, limit)
	if err != nil || len(history) == 0 {
		return nil, err
	}

	stats := &MoodStats{
		Total:  len(history),
		Counts: make(map[string]int),
	}
	sum := 0
	for _, e := range history {
		stats.Counts[e.Feeling]++
		sum += feelingValue(e.Feeling)
	}
	stats.Average = float64(sum) / float64(len(history))

	best := 0
	for _, f := range Feelings {
		if c := stats.Counts[f.Name]; c > best {
			best = c
			stats.MostCommon = f.Name
		}
	}

	closest := Feelings[0]
	for _, f := range Feelings[1:] {
		if math.Abs(float64(f.Value)-stats.Average) < math.Abs(float64(closest.Value)-stats.Average) {
			closest = f
		}
	}
	stats.AverageLabel = closest.Name
	stats.Trend = moodTrend(history)

	times := make([]time.Time, len(history))
	for i, e := range history {
		times[i] = e.CreatedAt
	}
	stats.StreakDays = dayStreak(times, s.clock(), s.loc)
	return stats, nil
}

// LogAffirmation stores one affirmation
func (s *JournalService) LogAffirmation(ctx context.Context, userID int64, text string) (*models.Affirmation, error) {
	text = utils.SafeText(text)
	if text == "" {
		return nil, &InvalidInputError{Field: "affirmation", Reason: "required"}
	}

	a := &models.Affirmation{UserID: userID, Text: text, CreatedAt: s.clock()}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, storageErr("log affirmation", err)
	}
	return a, nil
}

// AffirmationStats aggregates the last limit affirmations; nil when there are none
func (s *JournalService) AffirmationStats(ctx context.Context, userID int64, limit int) (*AffirmationStats, error) {
	var list []models.Affirmation
	query := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&list).Error; err != nil {
		return nil, storageErr("affirmation history", err)
	}
	if len(list) == 0 {
		return nil, nil
	}

	times := make([]time.Time, len(list))
	for i, a := range list {
		times[i] = a.CreatedAt
	}
	stats := &AffirmationStats{
		Total:      len(list),
		StreakDays: dayStreak(times, s.clock(), s.loc),
		Recent:     list,
	}
	if len(stats.Recent) > 3 {
		stats.Recent = stats.Recent[:3]
	}
	return stats, nil
}

func feelingValue(name string) int {
	if f, ok := ParseFeeling(name); ok {
		return f.Value
	}
	return 0
}

// moodTrend compares the newest 7 entries with the 7 before them
func moodTrend(history []models.MoodEntry) string {
	if len(history) < 2 {
		return TrendNotEnoughData
	}
	recent := history
	if len(recent) > 7 {
		recent = recent[:7]
	}
	if len(history) <= 7 {
		return TrendTracking
	}
	previous := history[7:]
	if len(previous) > 7 {
		previous = previous[:7]
	}

	diff := averageMood(recent) - averageMood(previous)
	switch {
	case diff > 0.5:
		return TrendImproving
	case diff < -0.5:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func averageMood(entries []models.MoodEntry) float64 {
	sum := 0
	for _, e := range entries {
		sum += feelingValue(e.Feeling)
	}
	return float64(sum) / float64(len(entries))
}

// dayStreak consecutive days ending today with at least one entry; times newest first
func dayStreak(times []time.Time, now time.Time, loc *time.Location) int {
	streak := 0
	expected := 0
	for _, t := range times {
		ago := utils.CalendarDaysBetween(t, now, loc)
		if ago == expected {
			streak++
			expected++
		} else if ago > expected {
			break
		}
	}
	return streak
}
