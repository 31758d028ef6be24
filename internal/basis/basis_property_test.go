package basis

import (
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"trade-journal/internal/models"
)

func genTrade(n int, entry, q1, q2, x1, x2, x3 float64) models.Trade {
	start := date(time.January, 1).AddDate(0, 0, n)
	return computed(models.Trade{
		ID:            fmt.Sprintf("T%d", n),
		TradeNo:       n,
		Date:          start,
		Direction:     models.Long,
		EntryPrice:    entry,
		EntryQuantity: q1,
		Pyramid1:      models.Lot{Price: entry * 1.02, Quantity: q2, Date: start.AddDate(0, 0, 1)},
		Exit1:         models.Lot{Price: entry * 1.05, Quantity: x1, Date: start.AddDate(0, 0, 3)},
		Exit2:         models.Lot{Price: entry * 0.97, Quantity: x2, Date: start.AddDate(0, 0, 7)},
		Exit3:         models.Lot{Price: entry * 1.10, Quantity: x3, Date: start.AddDate(0, 1, 0)},
	})
}

// Property: the split quantities of a trade sum to its exited quantity.
func TestProperty_CashSplitsSumToExitedQuantity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("sum(split.quantity) == exitedQuantity", prop.ForAll(
		func(entry, q1, q2, x1, x2, x3 float64) bool {
			tr := genTrade(1, entry, q1, q2, x1, x2, x3)
			recs := ExpandCash(&tr, Options{})
			if tr.Status == models.StatusOpen {
				return len(recs) == 0
			}
			return math.Abs(SplitQuantity(recs)-tr.Metrics.ExitedQuantity) < 1e-6
		},
		gen.Float64Range(10, 500),
		gen.Float64Range(1, 50), gen.Float64Range(0, 50),
		gen.Float64Range(0, 40), gen.Float64Range(0, 40), gen.Float64Range(0, 40),
	))

	properties.TestingRun(t)
}

// Property: deduplicating the cash expansion yields exactly one record per
// original trade that had exits, equal to the original trade.
func TestProperty_DeduplicateRecoversOriginals(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("dedup(expand(trades)) recovers originals", prop.ForAll(
		func(count int, x1, x2, x3 float64) bool {
			var trades []models.Trade
			for i := 0; i < count; i++ {
				trades = append(trades, genTrade(i, 100+float64(i), 30, 10, x1, x2, x3))
			}

			unique := UniqueTrades(CashView(trades, Options{}))

			var want []models.Trade
			for _, tr := range trades {
				if tr.Status != models.StatusOpen {
					want = append(want, tr)
				}
			}
			if len(unique) != len(want) {
				return false
			}
			for i := range want {
				if !reflect.DeepEqual(unique[i], want[i]) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 8),
		gen.Float64Range(0, 20), gen.Float64Range(0, 20), gen.Float64Range(0, 20),
	))

	properties.TestingRun(t)
}
