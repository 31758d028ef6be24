package basis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal/internal/accounting"
	"trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/sizing"
)

func date(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func computed(t models.Trade) models.Trade {
	t.Status = accounting.ResolveStatus(&t)
	t.Metrics = accounting.ComputeMetrics(&t, 10000, date(time.June, 30))
	return t
}

func sampleTrades() []models.Trade {
	return []models.Trade{
		computed(models.Trade{
			ID: "A", TradeNo: 1, Date: date(time.January, 10), Direction: models.Long,
			EntryPrice: 100, EntryQuantity: 10,
			Exit1: models.Lot{Price: 110, Quantity: 4, Date: date(time.February, 5)},
			Exit2: models.Lot{Price: 120, Quantity: 6, Date: date(time.March, 5)},
		}),
		computed(models.Trade{
			ID: "B", TradeNo: 2, Date: date(time.February, 1), Direction: models.Long,
			EntryPrice: 50, EntryQuantity: 20, CurrentPrice: 55,
		}),
		computed(models.Trade{
			ID: "C", TradeNo: 3, Date: date(time.March, 1), Direction: models.Short,
			EntryPrice: 200, EntryQuantity: 10,
			Exit1: models.Lot{Price: 190, Quantity: 5, Date: date(time.March, 20)},
		}),
	}
}

func TestParseBasis(t *testing.T) {
	b, err := ParseBasis(" CASH ")
	require.NoError(t, err)
	assert.Equal(t, Cash, b)

	b, err = ParseBasis("")
	require.NoError(t, err)
	assert.Equal(t, Accrual, b)

	_, err = ParseBasis("mark-to-market")
	assert.True(t, errors.Is(err, errors.ErrInvalidBasis))
}

func TestAccrualView_SkipsOpenTrades(t *testing.T) {
	view := AccrualView(sampleTrades())
	require.Len(t, view, 2)
	assert.Equal(t, RecordKey{OriginalID: "A"}, view[0].Key)
	assert.Equal(t, date(time.January, 10), view[0].Date)
	assert.InDelta(t, 160, view[0].PL, 1e-9)
	assert.Nil(t, view[0].Split)
}

func TestCashView_OneRecordPerExit(t *testing.T) {
	view := CashView(sampleTrades(), Options{})
	require.Len(t, view, 3)

	assert.Equal(t, RecordKey{OriginalID: "A", ExitOrdinal: 1}, view[0].Key)
	assert.Equal(t, "A/exit1", view[0].Key.String())
	assert.Equal(t, date(time.February, 5), view[0].Date)
	assert.Equal(t, date(time.February, 5), view[0].SizeDate)
	assert.InDelta(t, 40, view[0].PL, 1e-9)

	assert.Equal(t, RecordKey{OriginalID: "A", ExitOrdinal: 2}, view[1].Key)
	assert.InDelta(t, 120, view[1].PL, 1e-9)

	// partial trades contribute their exits
	assert.Equal(t, "C", view[2].Key.OriginalID)
	assert.InDelta(t, 50, view[2].PL, 1e-9)

	// holding days run from entry through the latest exit
	assert.Equal(t, 55, view[0].HoldingDays)
	assert.Equal(t, 55, view[1].HoldingDays)
}

func TestCashView_LatestExitSize(t *testing.T) {
	view := CashView(sampleTrades()[:1], Options{UseLatestExitSize: true})
	require.Len(t, view, 2)
	assert.Equal(t, date(time.March, 5), view[0].SizeDate)
	assert.Equal(t, date(time.February, 5), view[0].Date)

	sizes := sizing.NewResolver(sizing.FromMap(map[sizing.MonthKey]float64{
		{Month: "Feb", Year: 2024}: 1000,
		{Month: "Mar", Year: 2024}: 2000,
	}), 10000)
	ApplyImpact(view, sizes)
	assert.InDelta(t, 2, view[0].PortfolioImpact, 1e-9)
	assert.InDelta(t, 6, view[1].PortfolioImpact, 1e-9)
}

func TestCashView_SplitsClampToMatchedQuantity(t *testing.T) {
	tr := computed(models.Trade{
		ID: "X", Date: date(time.January, 1), Direction: models.Long,
		EntryPrice: 100, EntryQuantity: 5,
		Exit1: models.Lot{Price: 110, Quantity: 3, Date: date(time.January, 5)},
		Exit2: models.Lot{Price: 120, Quantity: 4, Date: date(time.January, 9)},
		Exit3: models.Lot{Price: 130, Quantity: 2, Date: date(time.January, 12)},
	})
	recs := ExpandCash(&tr, Options{})
	require.Len(t, recs, 2, "exit 3 has nothing left to match")
	assert.InDelta(t, tr.Metrics.ExitedQuantity, SplitQuantity(recs), 1e-9)
	assert.InDelta(t, 2, recs[1].Split.Quantity, 1e-9)
}

func TestExpand_IncludeOpen(t *testing.T) {
	trades := sampleTrades()
	assert.Empty(t, Expand(&trades[1], Cash, Options{}, false))

	recs := Expand(&trades[1], Cash, Options{}, true)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Realized())
	assert.InDelta(t, 100, recs[0].PL, 1e-9)

	assert.Len(t, View(trades, Accrual, Options{}, true), 3)
	assert.Len(t, View(trades, Cash, Options{}, true), 4)
}

func TestDeduplicateAndGroup(t *testing.T) {
	view := CashView(sampleTrades(), Options{})

	unique := UniqueTrades(view)
	require.Len(t, unique, 2)
	assert.Equal(t, "A", unique[0].ID)
	assert.Equal(t, "C", unique[1].ID)

	groups := GroupByTrade(view)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Records, 2)
	assert.InDelta(t, 160, groups[0].PL, 1e-9)
}

func TestApplyImpact_FallbackSize(t *testing.T) {
	view := AccrualView(sampleTrades())
	ApplyImpact(view, sizing.NewResolver(nil, 10000))
	assert.InDelta(t, 1.6, view[0].PortfolioImpact, 1e-9)
}
