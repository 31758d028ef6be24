package accounting

import (
	"math"
	"time"

	"trade-journal/internal/models"
	"trade-journal/pkg/utils"
)

// ComputeMetrics derives every per-trade metric from the trade's lots.
//
// The status used is ResolveStatus(t). portfolioSize is the size the
// allocation and portfolio impact are measured against; a non-positive size
// yields zero for both. Derived fields the user pinned by hand keep their
// previous values.
func ComputeMetrics(t *models.Trade, portfolioSize float64, asOf time.Time) models.Metrics {
	entries := t.EntryLots()
	exits := t.ExitLots()
	status := ResolveStatus(t)
	match := MatchFIFO(entries, exits, t.Direction)

	m := models.Metrics{
		AverageEntryPrice: models.AveragePrice(entries),
		AverageExitPrice:  models.AveragePrice(exits),
		TotalQuantity:     match.EnteredQuantity,
		ExitedQuantity:    match.MatchedQuantity,
		RealizedAmount:    realizedAmount(exits),
		RealizedPL:        match.RealizedPL,
		UnrealizedPL:      match.UnrealizedPL(t.CurrentPrice, t.Direction),
		IsRiskyPosition:   IsRiskyPosition(t.Direction, t.StopLoss, t.TrailingStop),
	}
	m.OpenQuantity = math.Max(0, m.TotalQuantity-m.ExitedQuantity)
	m.PositionSize = math.Round(m.AverageEntryPrice * m.TotalQuantity)
	m.AllocationPercent = utils.PercentOf(m.PositionSize, portfolioSize)

	m.StopLossPercent = StopLossPercent(m.AverageEntryPrice, t.StopLoss)
	m.StockMovePercent = StockMove(status, t.Direction, m.AverageEntryPrice, m.AverageExitPrice,
		t.CurrentPrice, m.ExitedQuantity, m.OpenQuantity)

	hp := ComputeHoldingDays(match, status, asOf)
	m.HoldingDays = hp.Display
	m.OpenHoldingDays = hp.Open
	m.ClosedHoldingDays = hp.Closed

	m.RewardRisk = ComputeRewardRisk(entries, match, RewardRiskInput{
		Direction:    t.Direction,
		Status:       status,
		StopLoss:     t.StopLoss,
		TrailingStop: t.TrailingStop,
		CurrentPrice: t.CurrentPrice,
		AverageExit:  m.AverageExitPrice,
	})

	m.PortfolioImpact = utils.PercentOf(AccountingPL(status, m), portfolioSize)

	keepPinned(t, &m)
	return m
}

// AccountingPL is the P&L that moves the portfolio for a trade in the given
// status: realized P&L once any exit exists, unrealized P&L while fully open.
func AccountingPL(status models.PositionStatus, m models.Metrics) float64 {
	if status == models.StatusOpen {
		return m.UnrealizedPL
	}
	return m.RealizedPL
}

// StopLossPercent is the absolute percentage distance from average entry to
// the stop, 0 when either is missing.
func StopLossPercent(averageEntry, stop float64) float64 {
	return math.Abs(utils.PercentChange(averageEntry, stop))
}

// StockMove returns the direction-adjusted percentage move of the position.
// Closed positions use the average exit, open ones the current price, and
// partial positions blend both by exited and open quantity.
func StockMove(status models.PositionStatus, direction models.Direction, averageEntry, averageExit, currentPrice, exitedQty, openQty float64) float64 {
	sign := direction.Sign()
	realized := utils.PercentChange(averageEntry, averageExit) * sign
	unrealized := utils.PercentChange(averageEntry, currentPrice) * sign

	switch status {
	case models.StatusClosed:
		return realized
	case models.StatusOpen:
		return unrealized
	case models.StatusPartial:
		if currentPrice <= 0 {
			openQty = 0
		}
		return utils.WeightedMean([]float64{realized, unrealized}, []float64{exitedQty, openQty})
	}
	return 0
}

func realizedAmount(exits []models.Lot) float64 {
	var total float64
	for _, l := range exits {
		if l.Valid() {
			total += l.Value()
		}
	}
	return total
}

func keepPinned(t *models.Trade, m *models.Metrics) {
	if t.Edited.Has(models.FieldStopLossPercent) {
		m.StopLossPercent = t.Metrics.StopLossPercent
	}
	if t.Edited.Has(models.FieldHoldingDays) {
		m.HoldingDays = t.Metrics.HoldingDays
	}
	if t.Edited.Has(models.FieldStockMove) {
		m.StockMovePercent = t.Metrics.StockMovePercent
	}
}
