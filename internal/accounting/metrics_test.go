package accounting

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	journalerrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

func TestComputeMetrics_TwoExitScenario(t *testing.T) {
	tr := &models.Trade{
		ID:            "T1",
		Date:          day(1),
		Direction:     models.Long,
		EntryPrice:    100,
		EntryQuantity: 10,
		StopLoss:      95,
		Exit1:         models.Lot{Price: 110, Quantity: 5, Date: day(5)},
		Exit2:         models.Lot{Price: 120, Quantity: 5, Date: day(8)},
	}

	m := ComputeMetrics(tr, 10000, day(20))

	assert.InDelta(t, 100, m.AverageEntryPrice, 1e-9)
	assert.InDelta(t, 10, m.ExitedQuantity, 1e-9)
	assert.Zero(t, m.OpenQuantity)
	assert.InDelta(t, 115, m.AverageExitPrice, 1e-9)
	assert.InDelta(t, 1150, m.RealizedAmount, 1e-9)
	assert.InDelta(t, 150, m.RealizedPL, 1e-9)
	assert.InDelta(t, 1000, m.PositionSize, 1e-9)
	assert.InDelta(t, 10, m.AllocationPercent, 1e-9)
	assert.InDelta(t, 5, m.StopLossPercent, 1e-9)
	assert.InDelta(t, 15, m.StockMovePercent, 1e-9)
	assert.InDelta(t, 1.5, m.PortfolioImpact, 1e-9)
	// slices of 4 and 7 days, 5 units each
	assert.Equal(t, 6, m.HoldingDays)
	assert.InDelta(t, 3, float64(m.RewardRisk.Weighted), 1e-9)
}

func TestComputeMetrics_ZeroPortfolioSize(t *testing.T) {
	tr := &models.Trade{Direction: models.Long, EntryPrice: 100, EntryQuantity: 10}
	m := ComputeMetrics(tr, 0, day(20))
	assert.Zero(t, m.AllocationPercent)
	assert.Zero(t, m.PortfolioImpact)
}

func TestComputeMetrics_PartialStockMoveBlends(t *testing.T) {
	tr := &models.Trade{
		Date:          day(1),
		Direction:     models.Long,
		EntryPrice:    100,
		EntryQuantity: 10,
		CurrentPrice:  90,
		Exit1:         models.Lot{Price: 120, Quantity: 5, Date: day(3)},
	}
	m := ComputeMetrics(tr, 10000, day(11))

	// half at +20%, half at -10%
	assert.InDelta(t, 5, m.StockMovePercent, 1e-9)
	assert.InDelta(t, 100, m.RealizedPL, 1e-9)
	assert.InDelta(t, -50, m.UnrealizedPL, 1e-9)
	// partial positions move the portfolio by what they realized
	assert.InDelta(t, 1, m.PortfolioImpact, 1e-9)
	assert.Equal(t, 2, m.ClosedHoldingDays)
	assert.Equal(t, 10, m.OpenHoldingDays)
	assert.Equal(t, 6, m.HoldingDays)
}

func TestComputeMetrics_ShortStockMove(t *testing.T) {
	tr := &models.Trade{
		Direction:     models.Short,
		EntryPrice:    100,
		EntryQuantity: 10,
		CurrentPrice:  90,
	}
	m := ComputeMetrics(tr, 10000, day(11))
	assert.InDelta(t, 10, m.StockMovePercent, 1e-9)
	assert.InDelta(t, 100, m.UnrealizedPL, 1e-9)
	assert.InDelta(t, 1, m.PortfolioImpact, 1e-9)
}

func TestComputeMetrics_KeepsPinnedFields(t *testing.T) {
	tr := &models.Trade{
		Direction:     models.Long,
		EntryPrice:    100,
		EntryQuantity: 10,
		StopLoss:      90,
		Edited:        models.NewFieldSet(models.FieldStopLossPercent),
		Metrics:       models.Metrics{StopLossPercent: 7.5},
	}
	m := ComputeMetrics(tr, 10000, day(11))
	assert.Equal(t, 7.5, m.StopLossPercent)
}

func TestIsRiskyPosition(t *testing.T) {
	tests := []struct {
		name      string
		direction models.Direction
		stop      float64
		trailing  float64
		want      bool
	}{
		{"long trailing above stop", models.Long, 95, 98, false},
		{"long trailing below stop", models.Long, 95, 90, true},
		{"long trailing equal to stop", models.Long, 95, 95, true},
		{"no trailing stop", models.Long, 95, 0, true},
		{"no stops", models.Long, 0, 0, true},
		{"short trailing below stop", models.Short, 105, 102, false},
		{"short trailing above stop", models.Short, 105, 108, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRiskyPosition(tt.direction, tt.stop, tt.trailing))
		})
	}
}

func TestComputeRewardRisk_RiskFreeLot(t *testing.T) {
	tr := &models.Trade{
		Direction:     models.Long,
		EntryPrice:    100,
		EntryQuantity: 10,
		Pyramid1:      models.Lot{Price: 105, Quantity: 10},
		StopLoss:      95,
		TrailingStop:  105,
		Exit1:         models.Lot{Price: 110, Quantity: 20},
	}
	rr := ComputeMetrics(tr, 10000, day(11)).RewardRisk

	require.Len(t, rr.Lots, 2)
	assert.InDelta(t, 2, float64(rr.Lots[0].Ratio), 1e-9)
	assert.True(t, rr.Lots[1].RiskFree)
	assert.True(t, rr.Lots[1].Ratio.IsRiskFree())

	// risk-free lot left out of the weighted mean
	assert.InDelta(t, 2, float64(rr.Weighted), 1e-9)
	// but its reward counts toward the effective ratio: (10*10 + 5*10) / (5*10)
	assert.InDelta(t, 3, float64(rr.Effective), 1e-9)
	assert.False(t, rr.RiskFree)
}

func TestComputeRewardRisk_AllLotsRiskFree(t *testing.T) {
	tr := &models.Trade{
		Direction:     models.Long,
		EntryPrice:    100,
		EntryQuantity: 10,
		StopLoss:      100,
		CurrentPrice:  110,
	}
	rr := ComputeMetrics(tr, 10000, day(11)).RewardRisk
	assert.True(t, rr.RiskFree)
	assert.True(t, math.IsInf(float64(rr.Weighted), 1))
	assert.True(t, math.IsInf(float64(rr.Effective), 1))
}

func TestComputeRewardRisk_NoStopNoRatio(t *testing.T) {
	tr := &models.Trade{Direction: models.Long, EntryPrice: 100, EntryQuantity: 10, CurrentPrice: 110}
	rr := ComputeMetrics(tr, 10000, day(11)).RewardRisk
	assert.Empty(t, rr.Lots)
	assert.Zero(t, float64(rr.Weighted))
}

func TestComputeRewardRisk_PyramidUsesTrailingStop(t *testing.T) {
	tr := &models.Trade{
		Direction:     models.Long,
		EntryPrice:    100,
		EntryQuantity: 10,
		Pyramid1:      models.Lot{Price: 110, Quantity: 10},
		StopLoss:      90,
		TrailingStop:  100,
		CurrentPrice:  130,
	}
	rr := ComputeMetrics(tr, 10000, day(11)).RewardRisk
	require.Len(t, rr.Lots, 2)
	assert.Equal(t, 90.0, rr.Lots[0].Stop)
	assert.Equal(t, 100.0, rr.Lots[1].Stop)
	assert.InDelta(t, 3, float64(rr.Lots[0].Ratio), 1e-9)
	assert.InDelta(t, 2, float64(rr.Lots[1].Ratio), 1e-9)
	assert.InDelta(t, 2.5, float64(rr.Weighted), 1e-9)
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, models.StatusOpen, DeriveStatus(10, 0))
	assert.Equal(t, models.StatusPartial, DeriveStatus(10, 4))
	assert.Equal(t, models.StatusClosed, DeriveStatus(10, 10))
	assert.Equal(t, models.StatusClosed, DeriveStatus(10, 12))
}

func TestResolveStatus_PinnedStatusWins(t *testing.T) {
	tr := &models.Trade{
		EntryPrice:    100,
		EntryQuantity: 10,
		Exit1:         models.Lot{Price: 110, Quantity: 10},
		Status:        models.StatusPartial,
		Edited:        models.NewFieldSet(models.FieldPositionStatus),
	}
	assert.Equal(t, models.StatusPartial, ResolveStatus(tr))

	tr.Edited = nil
	assert.Equal(t, models.StatusClosed, ResolveStatus(tr))
}

func TestGuard_RecoversPanic(t *testing.T) {
	out, err := Guard(zerolog.Nop(), "T9", "metrics", 42, func() int {
		panic("boom")
	})
	assert.Equal(t, 42, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, journalerrors.ErrComputeFailure))

	var ce *journalerrors.ComputeError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "T9", ce.TradeID)
	assert.Equal(t, "metrics", ce.Stage)
}

func TestSanitize_KeepsRiskFreeSentinel(t *testing.T) {
	m := Sanitize(models.Metrics{
		StockMovePercent: math.NaN(),
		RealizedPL:       math.Inf(1),
		RewardRisk:       models.RewardRisk{Weighted: models.RiskFreeRatio, Effective: models.Ratio(math.NaN())},
	})
	assert.Zero(t, m.StockMovePercent)
	assert.Zero(t, m.RealizedPL)
	assert.True(t, m.RewardRisk.Weighted.IsRiskFree())
	assert.Zero(t, float64(m.RewardRisk.Effective))
}
