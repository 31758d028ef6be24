package accounting

import "trade-journal/internal/models"

// LotStop returns the stop protecting an entry lot. The initial entry is
// always measured against the fixed stop; pyramids use the trailing stop
// when one is set.
func LotStop(entryIndex int, stopLoss, trailingStop float64) float64 {
	if entryIndex == models.EntryInitial {
		return stopLoss
	}
	if trailingStop > 0 {
		return trailingStop
	}
	return stopLoss
}

// HeatStop returns the stop used for open heat: the trailing stop when set,
// whether or not it is tighter than the fixed stop, else the fixed stop.
func HeatStop(stopLoss, trailingStop float64) float64 {
	if trailingStop > 0 {
		return trailingStop
	}
	return stopLoss
}

// IsRiskyPosition reports whether the position still carries risk. A position
// is risk-free only when a trailing stop sits strictly on the protective side
// of the fixed stop: above it for longs, below it for shorts.
func IsRiskyPosition(direction models.Direction, stopLoss, trailingStop float64) bool {
	if trailingStop <= 0 || stopLoss <= 0 {
		return true
	}
	if direction == models.Short {
		return trailingStop >= stopLoss
	}
	return trailingStop <= stopLoss
}

// RiskPerUnit is the distance from entry to stop when the stop is on the
// losing side of entry, 0 otherwise.
func RiskPerUnit(direction models.Direction, entry, stop float64) float64 {
	if entry <= 0 || stop <= 0 {
		return 0
	}
	risk := (entry - stop) * direction.Sign()
	if risk <= 0 {
		return 0
	}
	return risk
}
