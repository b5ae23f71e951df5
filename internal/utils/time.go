package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Reminder presets accepted by /check
var reminderPresets = map[string]time.Duration{
	"1h":  time.Hour,
	"3h":  3 * time.Hour,
	"6h":  6 * time.Hour,
	"24h": 24 * time.Hour,
}

var customDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}( \d{1,2}:\d{2})?$`)

var usDatePattern = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)

// ParseReminderTime resolves a preset (1h, 3h, 6h, 24h) or a custom
// YYYY-MM-DD / YYYY-MM-DD HH:mm date in loc. The result is in UTC.
func ParseReminderTime(input string, now time.Time, loc *time.Location) (time.Time, error) {
	input = strings.TrimSpace(input)
	if d, ok := reminderPresets[strings.ToLower(input)]; ok {
		return now.Add(d).UTC(), nil
	}

	if !customDatePattern.MatchString(input) {
		return time.Time{}, fmt.Errorf("invalid reminder time %q, use 1h, 3h, 6h, 24h, YYYY-MM-DD or YYYY-MM-DD HH:mm", input)
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := dateparse.ParseIn(input, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reminder date %q: %w", input, err)
	}
	return t.UTC(), nil
}

// ParseUSDate parses MM-DD-YYYY into midnight of that day in loc
func ParseUSDate(input string, loc *time.Location) (time.Time, error) {
	m := usDatePattern.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid date format %q, use MM-DD-YYYY", input)
	}

	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if loc == nil {
		loc = time.UTC
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// time.Date normalizes 02-30 into March; reject instead
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date %q", input)
	}
	return t, nil
}

// CalendarDaysBetween whole calendar days from start to end, both taken in loc
func CalendarDaysBetween(start, end time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	s := start.In(loc)
	e := end.In(loc)
	sd := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	ed := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)
	return int(ed.Sub(sd).Hours() / 24)
}

// HumanizeDuration short readable duration such as "24 hours"
func HumanizeDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return plural(int(d.Seconds()), "second")
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 72*time.Hour:
		return plural(int(d.Hours()), "hour")
	default:
		return plural(int(d.Hours()/24), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatTimestamp timestamp in UTC
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 MST")
}

// FormatDate long date such as "March 05, 2025"
func FormatDate(t time.Time) string {
	return t.Format("January 02, 2006")
}
