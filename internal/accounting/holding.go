package accounting

import (
	"math"
	"time"

	"trade-journal/internal/models"
	"trade-journal/pkg/utils"
)

// HoldingPeriod is the quantity-weighted holding time of a trade, in days.
type HoldingPeriod struct {
	// Closed covers matched (entry, exit) slices.
	Closed int
	// Open covers entry quantity still held as of the computation date.
	Open int
	// Display is the single value shown for the trade's status.
	Display int
}

// ComputeHoldingDays weights each FIFO slice by its quantity. A matched slice
// counts ceil(exitDate - entryDate) days and an unexited remainder counts
// ceil(asOf - entryDate) days, each at least one. Slices with a missing date
// are left out.
func ComputeHoldingDays(match MatchResult, status models.PositionStatus, asOf time.Time) HoldingPeriod {
	var closedDays, closedQty []float64
	for _, s := range match.Slices {
		d := utils.HoldingDays(s.EntryDate, s.ExitDate)
		if d == 0 {
			continue
		}
		closedDays = append(closedDays, float64(d))
		closedQty = append(closedQty, s.Quantity)
	}

	var openDays, openQty []float64
	for _, rem := range match.Open {
		d := utils.HoldingDays(rem.EntryDate, asOf)
		if d == 0 {
			continue
		}
		openDays = append(openDays, float64(d))
		openQty = append(openQty, rem.Quantity)
	}

	hp := HoldingPeriod{
		Closed: roundDays(utils.WeightedMean(closedDays, closedQty)),
		Open:   roundDays(utils.WeightedMean(openDays, openQty)),
	}

	switch status {
	case models.StatusOpen:
		hp.Display = hp.Open
	case models.StatusClosed:
		hp.Display = hp.Closed
	default:
		hp.Display = roundDays(utils.WeightedMean(
			append(closedDays, openDays...),
			append(closedQty, openQty...),
		))
	}
	return hp
}

// CashHoldingDays measures from the trade date through its latest exit.
func CashHoldingDays(t *models.Trade) int {
	return utils.HoldingDays(t.Date, t.LatestExitDate())
}

func roundDays(v float64) int {
	return int(math.Round(v))
}
