package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal/internal/basis"
	"trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/sizing"
)

func date(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedNow() time.Time { return date(time.June, 30) }

func testOptions(b basis.Basis) Options {
	return Options{Basis: b, PortfolioSize: 10000, Now: fixedNow}
}

func TestRun_TwoExitScenario(t *testing.T) {
	trades := []models.Trade{{
		ID: "T1", TradeNo: 1, Symbol: "ACME", Date: date(time.January, 2), Direction: models.Long,
		EntryPrice: 100, EntryQuantity: 10, StopLoss: 95,
		Exit1: models.Lot{Price: 110, Quantity: 5, Date: date(time.January, 10)},
		Exit2: models.Lot{Price: 120, Quantity: 5, Date: date(time.January, 20)},
	}}

	res := Compute(trades, testOptions(basis.Accrual))
	require.Empty(t, res.Failures)
	require.Len(t, res.Trades, 1)

	got := res.Trades[0]
	assert.Equal(t, models.StatusClosed, got.Status)
	assert.InDelta(t, 100, got.Metrics.AverageEntryPrice, 1e-9)
	assert.InDelta(t, 10, got.Metrics.ExitedQuantity, 1e-9)
	assert.InDelta(t, 115, got.Metrics.AverageExitPrice, 1e-9)
	assert.InDelta(t, 1150, got.Metrics.RealizedAmount, 1e-9)
	assert.InDelta(t, 150, got.Metrics.RealizedPL, 1e-9)
	assert.InDelta(t, 10, got.Metrics.AllocationPercent, 1e-9)
	assert.InDelta(t, 1.5, got.Metrics.CumulativeImpact, 1e-9)

	assert.Empty(t, trades[0].Status, "input is not mutated")
	assert.Zero(t, trades[0].Metrics.RealizedPL)
}

func cumulativeTrades() []models.Trade {
	return []models.Trade{
		{
			ID: "open", TradeNo: 3, Date: date(time.March, 1), Direction: models.Long,
			EntryPrice: 100, EntryQuantity: 10, CurrentPrice: 150,
		},
		{
			ID: "win", TradeNo: 1, Date: date(time.January, 1), Direction: models.Long,
			EntryPrice: 100, EntryQuantity: 10,
			Exit1: models.Lot{Price: 120, Quantity: 10, Date: date(time.January, 15)},
		},
		{
			ID: "loss", TradeNo: 2, Date: date(time.February, 1), Direction: models.Long,
			EntryPrice: 100, EntryQuantity: 10,
			Exit1: models.Lot{Price: 90, Quantity: 10, Date: date(time.February, 15)},
		},
	}
}

func TestRun_CumulativeSkipsOpenTrades(t *testing.T) {
	res := Compute(cumulativeTrades(), testOptions(basis.Accrual))
	require.Empty(t, res.Failures)

	byID := make(map[string]models.Metrics)
	for _, tr := range res.Trades {
		byID[tr.ID] = tr.Metrics
	}
	assert.InDelta(t, 2, byID["win"].PortfolioImpact, 1e-9)
	assert.InDelta(t, -1, byID["loss"].PortfolioImpact, 1e-9)
	assert.InDelta(t, 5, byID["open"].PortfolioImpact, 1e-9)

	visited := []float64{
		byID["win"].CumulativeImpact,
		byID["loss"].CumulativeImpact,
		byID["open"].CumulativeImpact,
	}
	assert.InDeltaSlice(t, []float64{2, 1, 1}, visited, 1e-9)

	assert.Equal(t, "open", res.Trades[0].ID, "results keep input order")
	assert.InDelta(t, 6, res.Summary.NetPortfolioImpact, 1e-9)
}

func TestRun_CashBasisSumsExitImpacts(t *testing.T) {
	trades := []models.Trade{{
		ID: "A", TradeNo: 1, Date: date(time.January, 5), Direction: models.Long,
		EntryPrice: 100, EntryQuantity: 10,
		Exit1: models.Lot{Price: 110, Quantity: 5, Date: date(time.February, 5)},
		Exit2: models.Lot{Price: 120, Quantity: 5, Date: date(time.March, 5)},
	}}
	sizes := sizing.FromMap(map[sizing.MonthKey]float64{
		{Month: "Feb", Year: 2024}: 5000,
		{Month: "Mar", Year: 2024}: 20000,
	})

	opts := testOptions(basis.Cash)
	opts.Sizes = sizes
	res := Compute(trades, opts)
	require.Len(t, res.Records, 2)

	// 50/5000 + 100/20000
	assert.InDelta(t, 1.5, res.Trades[0].Metrics.PortfolioImpact, 1e-9)
	assert.InDelta(t, 1.5, res.Trades[0].Metrics.CumulativeImpact, 1e-9)
	assert.InDelta(t, 1, res.Records[0].CumulativeImpact, 1e-9)
	assert.Equal(t, 1, res.Summary.Wins)

	opts.UseLatestExitSize = true
	res = Compute(trades, opts)
	// 150/20000
	assert.InDelta(t, 0.75, res.Trades[0].Metrics.PortfolioImpact, 1e-9)
}

func TestRun_IsDeterministic(t *testing.T) {
	trades := cumulativeTrades()
	e := New(testOptions(basis.Cash))
	assert.Equal(t, e.Run(trades), e.Run(trades))
}

func TestRun_MalformedLotsAreDropped(t *testing.T) {
	trades := append(cumulativeTrades(), models.Trade{
		ID: "bad", TradeNo: 9, Direction: models.Long, EntryPrice: -5, EntryQuantity: 0,
		Exit1: models.Lot{Price: 10, Quantity: 3},
	})
	res := Compute(trades, testOptions(basis.Accrual))
	require.Len(t, res.Trades, 4)
	assert.Zero(t, res.Trades[3].Metrics.RealizedPL)
	assert.Zero(t, res.Trades[3].Metrics.AverageEntryPrice)
	assert.InDelta(t, 2, res.Trades[1].Metrics.PortfolioImpact, 1e-9)
}

// panickingTrade fails inside metric derivation: decimal conversion of an
// infinite price panics.
func panickingTrade() models.Trade {
	return models.Trade{
		ID: "bad", TradeNo: 9, Date: date(time.April, 1), Direction: models.Long,
		EntryPrice: 100, EntryQuantity: 10, CurrentPrice: math.Inf(1),
	}
}

func TestRun_FailingTradeDoesNotAbortBatch(t *testing.T) {
	res := Compute(append(cumulativeTrades(), panickingTrade()), testOptions(basis.Accrual))
	require.Len(t, res.Failures, 1)
	require.Len(t, res.Trades, 4)

	var ce *errors.ComputeError
	require.True(t, errors.As(res.Failures[0], &ce))
	assert.Equal(t, "bad", ce.TradeID)
	assert.True(t, errors.Is(res.Failures[0], errors.ErrComputeFailure))

	bad := res.Trades[3].Metrics
	assert.Zero(t, bad.PositionSize)
	assert.Zero(t, bad.AverageEntryPrice)
	assert.Zero(t, bad.UnrealizedPL)
	assert.Zero(t, bad.PortfolioImpact)

	byID := make(map[string]models.Metrics)
	for _, tr := range res.Trades {
		byID[tr.ID] = tr.Metrics
	}
	assert.InDelta(t, 2, byID["win"].PortfolioImpact, 1e-9)
	assert.InDelta(t, -1, byID["loss"].PortfolioImpact, 1e-9)
	assert.InDeltaSlice(t, []float64{2, 1, 1},
		[]float64{byID["win"].CumulativeImpact, byID["loss"].CumulativeImpact, byID["open"].CumulativeImpact}, 1e-9)
	assert.InDelta(t, 6, res.Summary.NetPortfolioImpact, 1e-9)
}

func TestRun_FailingTradeCountedOncePerBasis(t *testing.T) {
	for _, b := range []basis.Basis{basis.Accrual, basis.Cash} {
		res := Compute(append(cumulativeTrades(), panickingTrade()), testOptions(b))
		assert.Len(t, res.Failures, 1, "basis %s", b)

		for _, tr := range res.Trades {
			if tr.ID == "win" {
				assert.InDelta(t, 2, tr.Metrics.PortfolioImpact, 1e-9, "basis %s", b)
			}
		}
	}
}

func TestApplyEdits(t *testing.T) {
	tr := models.Trade{ID: "T1", Direction: models.Long, EntryPrice: 100, EntryQuantity: 10}

	err := ApplyEdits(&tr,
		NumberEdit(models.FieldExit1Price, 110),
		NumberEdit(models.FieldExit1Qty, 10),
		DateEdit(models.FieldExit1Date, date(time.April, 1)),
		StatusEdit(models.StatusPartial),
	)
	require.NoError(t, err)
	assert.Equal(t, 110.0, tr.Exit1.Price)
	assert.Equal(t, date(time.April, 1), tr.Exit1.Date)
	assert.True(t, tr.Edited.Has(models.FieldExit1Qty))
	assert.True(t, tr.Edited.Has(models.FieldPositionStatus))

	// the pinned status survives recomputation
	res := Compute([]models.Trade{tr}, testOptions(basis.Accrual))
	assert.Equal(t, models.StatusPartial, res.Trades[0].Status)

	UnpinStatus(&tr)
	res = Compute([]models.Trade{tr}, testOptions(basis.Accrual))
	assert.Equal(t, models.StatusClosed, res.Trades[0].Status)
}

func TestApplyEdits_FailureLeavesTradeUntouched(t *testing.T) {
	tr := models.Trade{ID: "T1", EntryPrice: 100}

	err := ApplyEdits(&tr, NumberEdit(models.FieldEntryPrice, 200), Edit{Field: "nope"})
	assert.True(t, errors.Is(err, errors.ErrUnknownField))
	assert.Equal(t, 100.0, tr.EntryPrice)
	assert.Empty(t, tr.Edited)

	err = ApplyEdits(&tr, StatusEdit("Sold"))
	assert.True(t, errors.Is(err, errors.ErrInvalidTrade))
}

func TestApplyEdits_PinnedDerivedField(t *testing.T) {
	tr := models.Trade{ID: "T1", Date: date(time.January, 1), Direction: models.Long, EntryPrice: 100, EntryQuantity: 10}
	require.NoError(t, ApplyEdits(&tr, NumberEdit(models.FieldHoldingDays, 3)))

	res := Compute([]models.Trade{tr}, testOptions(basis.Accrual))
	assert.Equal(t, 3, res.Trades[0].Metrics.HoldingDays)
}

func TestValidate(t *testing.T) {
	valid := models.Trade{
		Symbol: "ACME", Date: date(time.January, 1), Direction: models.Long,
		EntryPrice: 100, EntryQuantity: 10,
		Exit1: models.Lot{Price: 110, Quantity: 10},
	}
	assert.NoError(t, Validate(&valid))

	over := valid
	over.Exit2 = models.Lot{Price: 110, Quantity: 1}
	assert.True(t, errors.Is(Validate(&over), errors.ErrOverExit))

	bad := valid
	bad.Direction = "SIDEWAYS"
	bad.StopLoss = -1
	err := Validate(&bad)
	assert.True(t, errors.Is(err, errors.ErrInvalidTrade))
	assert.Contains(t, err.Error(), "direction")
	assert.Contains(t, err.Error(), "stopLoss")
}

func TestFingerprint(t *testing.T) {
	opts := testOptions(basis.Accrual)
	fingerprint := func(trades []models.Trade, opts Options) string {
		t.Helper()
		fp, err := Fingerprint(trades, opts)
		require.NoError(t, err)
		return fp
	}

	fp := fingerprint(cumulativeTrades(), opts)
	assert.Len(t, fp, 64)
	assert.Equal(t, fp, fingerprint(cumulativeTrades(), opts))

	// unpinned metrics are not inputs
	withMetrics := cumulativeTrades()
	withMetrics[0].Metrics.RealizedPL = 999
	assert.Equal(t, fp, fingerprint(withMetrics, opts))

	changed := cumulativeTrades()
	changed[0].CurrentPrice = 151
	assert.NotEqual(t, fp, fingerprint(changed, opts))
	assert.NotEqual(t, fp, fingerprint(cumulativeTrades(), testOptions(basis.Cash)))

	opts.Sizes = sizing.Constant(20000)
	assert.NotEqual(t, fp, fingerprint(cumulativeTrades(), opts))
}

func TestFingerprint_CoversCurrentMonthSize(t *testing.T) {
	open := []models.Trade{{
		ID: "A", TradeNo: 1, Date: date(time.January, 2), Direction: models.Long,
		EntryPrice: 100, EntryQuantity: 10, StopLoss: 90, CurrentPrice: 100,
	}}
	small := testOptions(basis.Accrual)
	small.Sizes = sizing.FromMap(map[sizing.MonthKey]float64{{Month: "Jun", Year: 2024}: 10000})
	large := testOptions(basis.Accrual)
	large.Sizes = sizing.FromMap(map[sizing.MonthKey]float64{{Month: "Jun", Year: 2024}: 40000})

	// No trade touches June, yet the summary is measured against it.
	require.NotEqual(t, Compute(open, small).Summary.TotalOpenHeat, Compute(open, large).Summary.TotalOpenHeat)

	a, err := Fingerprint(open, small)
	require.NoError(t, err)
	b, err := Fingerprint(open, large)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestFingerprint_RejectsNonFiniteInput(t *testing.T) {
	x := cumulativeTrades()
	x[0].CurrentPrice = math.NaN()
	y := cumulativeTrades()
	y[1].EntryPrice = math.NaN()

	for _, trades := range [][]models.Trade{x, y} {
		fp, err := Fingerprint(trades, testOptions(basis.Accrual))
		assert.True(t, errors.Is(err, errors.ErrInvalidTrade))
		assert.Empty(t, fp)
	}
}
