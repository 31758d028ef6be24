package accounting

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"trade-journal/internal/errors"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
	"trade-journal/pkg/utils"
)

// Guard runs fn and converts a panic into a ComputeError, returning fallback
// instead. Failures are logged with the trade ID and stage.
func Guard[T any](logger zerolog.Logger, tradeID, stage string, fallback T, fn func() T) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			err = errors.NewComputeError(tradeID, stage, cause)
			logging.LogComputeFailure(logger, tradeID, stage, cause)
			out = fallback
		}
	}()
	return fn(), nil
}

// SafeMetrics computes a trade's metrics behind the compute-or-fallback
// boundary. On failure the trade gets zero-valued metrics.
func SafeMetrics(logger zerolog.Logger, t *models.Trade, portfolioSize float64, asOf time.Time) (models.Metrics, error) {
	m, err := Guard(logger, t.ID, "metrics", models.Metrics{}, func() models.Metrics {
		return ComputeMetrics(t, portfolioSize, asOf)
	})
	if err != nil {
		return m, err
	}
	return Sanitize(m), nil
}

// Sanitize replaces NaN and infinite values with zero. Reward:risk ratios keep
// the +Inf risk-free sentinel.
func Sanitize(m models.Metrics) models.Metrics {
	fields := []*float64{
		&m.AverageEntryPrice, &m.AverageExitPrice, &m.TotalQuantity, &m.OpenQuantity,
		&m.ExitedQuantity, &m.PositionSize, &m.AllocationPercent, &m.StopLossPercent,
		&m.StockMovePercent, &m.RealizedAmount, &m.RealizedPL, &m.UnrealizedPL,
		&m.PortfolioImpact, &m.CumulativeImpact,
	}
	for _, f := range fields {
		*f = utils.Finite(*f)
	}
	m.RewardRisk.Weighted = sanitizeRatio(m.RewardRisk.Weighted)
	m.RewardRisk.Effective = sanitizeRatio(m.RewardRisk.Effective)
	for i := range m.RewardRisk.Lots {
		m.RewardRisk.Lots[i].Ratio = sanitizeRatio(m.RewardRisk.Lots[i].Ratio)
	}
	return m
}

func sanitizeRatio(r models.Ratio) models.Ratio {
	if r.IsRiskFree() {
		return r
	}
	if math.IsNaN(float64(r)) || math.IsInf(float64(r), -1) {
		return 0
	}
	return r
}
