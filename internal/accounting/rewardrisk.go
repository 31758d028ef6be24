package accounting

import (
	"math"

	"trade-journal/internal/models"
	"trade-journal/pkg/utils"
)

// RewardRiskInput carries what the per-lot reward:risk needs besides the lots.
type RewardRiskInput struct {
	Direction    models.Direction
	Status       models.PositionStatus
	StopLoss     float64
	TrailingStop float64
	CurrentPrice float64
	AverageExit  float64
}

// ComputeRewardRisk derives the per-lot and trade-level reward:risk.
//
// Risk per lot is |entry - stop| with the lot's own stop (see LotStop); a lot
// whose risk is zero is risk-free and reports an infinite ratio. Lots without
// any stop carry no defined risk and are left out. Reward follows the same
// status rules as the stock move, using the lot's own FIFO split for partial
// positions.
func ComputeRewardRisk(entries []models.Lot, match MatchResult, in RewardRiskInput) models.RewardRisk {
	sign := in.Direction.Sign()

	var rr models.RewardRisk
	var ratioSum, ratioQty float64
	var rewardSum, riskSum float64
	var riskFreeLots int

	for i, lot := range entries {
		if !lot.Valid() {
			continue
		}
		stop := LotStop(i, in.StopLoss, in.TrailingStop)
		if stop <= 0 {
			continue
		}

		risk := math.Abs(lot.Price - stop)
		reward := lotReward(i, lot, match, in, sign)

		lr := models.LotRewardRisk{
			Ordinal:  i,
			Quantity: lot.Quantity,
			Stop:     stop,
			Risk:     risk,
			Reward:   reward,
		}
		rewardSum += reward * lot.Quantity

		if risk <= utils.Epsilon {
			lr.Ratio = models.RiskFreeRatio
			lr.RiskFree = true
			riskFreeLots++
		} else {
			lr.Ratio = models.Ratio(reward / risk)
			ratioSum += reward / risk * lot.Quantity
			ratioQty += lot.Quantity
			riskSum += risk * lot.Quantity
		}
		rr.Lots = append(rr.Lots, lr)
	}

	switch {
	case ratioQty > 0:
		rr.Weighted = models.Ratio(ratioSum / ratioQty)
		rr.Effective = models.Ratio(rewardSum / riskSum)
	case riskFreeLots > 0:
		rr.Weighted = models.RiskFreeRatio
		rr.Effective = models.RiskFreeRatio
		rr.RiskFree = true
	}
	return rr
}

// lotReward is the per-unit, direction-adjusted reward of one entry lot.
func lotReward(index int, lot models.Lot, match MatchResult, in RewardRiskInput, sign float64) float64 {
	switch in.Status {
	case models.StatusClosed:
		if in.AverageExit <= 0 {
			return 0
		}
		return (in.AverageExit - lot.Price) * sign
	case models.StatusOpen:
		if in.CurrentPrice <= 0 {
			return 0
		}
		return (in.CurrentPrice - lot.Price) * sign
	case models.StatusPartial:
		var total, qty float64
		for _, s := range match.SlicesForEntry(index) {
			total += (s.ExitPrice - lot.Price) * sign * s.Quantity
			qty += s.Quantity
		}
		if in.CurrentPrice > 0 {
			open := match.RemainderForEntry(index)
			total += (in.CurrentPrice - lot.Price) * sign * open
			qty += open
		}
		return utils.SafeDiv(total, qty)
	}
	return 0
}
