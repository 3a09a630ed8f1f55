package contract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Day is one calendar day as a duration.
const Day = 24 * time.Hour

// windowDurationRe captures "N [units]" and the short "Nd" / "Nw" forms.
var windowDurationRe = regexp.MustCompile(`^(\d+)\s*(year|month|week|day|hour|y|mo|w|d|h)s?$`)

// ParseWindowDuration converts strings like "30d", "2 weeks" or "720h" into a time.Duration.
// It first tries time.ParseDuration, then falls back to day-based units.
func ParseWindowDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, errors.New("window must be positive")
		}
		return d, nil
	}

	matches := windowDurationRe.FindStringSubmatch(strings.ToLower(s))
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid window duration format: %s", s)
	}
	value, _ := strconv.Atoi(matches[1])

	var total time.Duration
	switch matches[2] {
	case "year", "y":
		total = time.Duration(value) * 365 * Day
	case "month", "mo":
		total = time.Duration(value) * 30 * Day
	case "week", "w":
		total = time.Duration(value) * 7 * Day
	case "day", "d":
		total = time.Duration(value) * Day
	case "hour", "h":
		total = time.Duration(value) * time.Hour
	}
	if total == 0 {
		return 0, errors.New("zero duration is not useful")
	}
	return total, nil
}

// ParseEvaluationTime parses the reference time of a ranking run.
// RFC3339 and YYYY-MM-DD are preferred; other common layouts are accepted via dateparse.
// Results are always in UTC.
func ParseEvaluationTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.UTC(), nil
}
