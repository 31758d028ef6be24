package utils

import (
	"math"
	"strings"
	"time"
)

// MonthLabels are the month keys used by the portfolio-size provider.
var MonthLabels = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthLabel returns the three letter month key for t ("Jan".."Dec").
func MonthLabel(t time.Time) string {
	return MonthLabels[t.Month()-1]
}

// ParseMonthLabel resolves a month key back to a time.Month. Matching is
// case-insensitive on the first three letters.
func ParseMonthLabel(label string) (time.Month, bool) {
	if len(label) < 3 {
		return 0, false
	}
	key := strings.ToUpper(label[:1]) + strings.ToLower(label[1:3])
	for i, m := range MonthLabels {
		if m == key {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

// HoldingDays returns ceil(to - from) in days, never less than one.
// Missing dates return 0.
func HoldingDays(from, to time.Time) int {
	if from.IsZero() || to.IsZero() {
		return 0
	}
	days := math.Ceil(to.Sub(from).Hours() / 24)
	if days < 1 {
		return 1
	}
	return int(days)
}

