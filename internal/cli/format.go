package cli

import (
	"fmt"
	"strings"
	"time"

	"trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/pkg/utils"
)

// FormatPrice formats a price, blank when absent.
func FormatPrice(price float64) string {
	if price <= 0 {
		return "-"
	}
	if price < 10 {
		return fmt.Sprintf("%.4f", price)
	}
	return fmt.Sprintf("%.2f", price)
}

// FormatDate formats a date with the configured layout, blank when absent.
func FormatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(layout)
}

// FormatRewardRisk shows the weighted ratio, or the effective one when every
// lot is risk-free.
func FormatRewardRisk(rr models.RewardRisk) string {
	if rr.RiskFree {
		return utils.FormatRatio(float64(rr.Effective))
	}
	if len(rr.Lots) == 0 {
		return "-"
	}
	return utils.FormatRatio(float64(rr.Weighted))
}

// FormatDirection abbreviates a direction for tables.
func FormatDirection(d models.Direction) string {
	if d == models.Short {
		return "S"
	}
	return "L"
}

// ParseDirection accepts long/short in any case, plus L and S.
func ParseDirection(s string) (models.Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "L", "BUY":
		return models.Long, nil
	case "SHORT", "S", "SELL":
		return models.Short, nil
	}
	return "", errors.NewValidationError("direction", s, "must be long or short")
}

// ParseStatus accepts open/partial/closed in any case.
func ParseStatus(s string) (models.PositionStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return models.StatusOpen, nil
	case "partial":
		return models.StatusPartial, nil
	case "closed":
		return models.StatusClosed, nil
	}
	return "", errors.NewValidationError("status", s, "must be open, partial or closed")
}

// ParseDate parses a date in the given layout, falling back to ISO dates.
func ParseDate(s, layout string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, l := range []string{layout, "2006-01-02"} {
		if l == "" {
			continue
		}
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.NewValidationError("date", s, fmt.Sprintf("expected layout %s", layout))
}
