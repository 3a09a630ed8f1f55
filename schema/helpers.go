package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodLayout is the time layout of a ranking period, e.g. "2025-11".
const PeriodLayout = "2006-01"

// RoundScore rounds half away from zero to the given number of decimal places.
// It is only used for presentation and persistence, never mid-computation.
func RoundScore(v float64, places int) float64 {
	f, _ := decimal.NewFromFloat(v).Round(int32(places)).Float64()
	return f
}

// FormatScore renders a score with exactly the given number of decimal places.
func FormatScore(v float64, places int) string {
	return decimal.NewFromFloat(v).StringFixed(int32(places))
}

// NormalizeKey lowercases free text and folds spaces and hyphens into underscores,
// so "Enterprise High-ACV" becomes "enterprise_high_acv".
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// ParsePeriod validates a "YYYY-MM" period and returns the first instant of it in UTC.
func ParsePeriod(period string) (time.Time, error) {
	t, err := time.Parse(PeriodLayout, period)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period %q, expected YYYY-MM: %w", period, err)
	}
	return t, nil
}

// PeriodOf returns the period that contains t.
func PeriodOf(t time.Time) string {
	return t.UTC().Format(PeriodLayout)
}
