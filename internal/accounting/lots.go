// Package accounting derives per-trade figures from entry and exit lots:
// FIFO lot matching, averages, sizing, stock move, holding days and reward:risk.
package accounting

import (
	"time"

	"github.com/shopspring/decimal"

	"trade-journal/internal/models"
)

// Slice is the part of one exit lot matched against one entry lot.
type Slice struct {
	EntryIndex int
	ExitIndex  int
	Quantity   float64
	EntryPrice float64
	ExitPrice  float64
	EntryDate  time.Time
	ExitDate   time.Time
	PL         float64
}

// Remainder is the unexited quantity left on an entry lot.
type Remainder struct {
	EntryIndex int
	Quantity   float64
	EntryPrice float64
	EntryDate  time.Time
}

// MatchResult is the outcome of FIFO matching for one trade.
type MatchResult struct {
	RealizedPL float64
	Slices     []Slice
	Open       []Remainder

	EnteredQuantity float64
	MatchedQuantity float64
	// UnmatchedExitQuantity is exit quantity left over once every entry lot is consumed.
	UnmatchedExitQuantity float64
}

// MatchFIFO consumes exit lots against entry lots, oldest entry first.
//
// Entry lots are queued in the order given (initial entry, then pyramids) and
// are never re-sorted by date. Lots without a positive price and quantity are
// dropped before matching. Slice indices refer to positions in the input slices.
func MatchFIFO(entries, exits []models.Lot, direction models.Direction) MatchResult {
	type queued struct {
		index     int
		lot       models.Lot
		remaining decimal.Decimal
	}

	queue := make([]queued, 0, len(entries))
	entered := decimal.Zero
	for i, l := range entries {
		if !l.Valid() {
			continue
		}
		q := decimal.NewFromFloat(l.Quantity)
		queue = append(queue, queued{index: i, lot: l, remaining: q})
		entered = entered.Add(q)
	}

	sign := decimal.NewFromFloat(direction.Sign())
	realized := decimal.Zero
	matched := decimal.Zero
	unmatched := decimal.Zero

	var result MatchResult
	head := 0
	for j, exit := range exits {
		if !exit.Valid() {
			continue
		}
		want := decimal.NewFromFloat(exit.Quantity)
		exitPrice := decimal.NewFromFloat(exit.Price)

		for want.IsPositive() && head < len(queue) {
			q := &queue[head]
			take := decimal.Min(want, q.remaining)
			pl := exitPrice.Sub(decimal.NewFromFloat(q.lot.Price)).Mul(sign).Mul(take)

			realized = realized.Add(pl)
			matched = matched.Add(take)
			result.Slices = append(result.Slices, Slice{
				EntryIndex: q.index,
				ExitIndex:  j,
				Quantity:   take.InexactFloat64(),
				EntryPrice: q.lot.Price,
				ExitPrice:  exit.Price,
				EntryDate:  q.lot.Date,
				ExitDate:   exit.Date,
				PL:         pl.InexactFloat64(),
			})

			q.remaining = q.remaining.Sub(take)
			want = want.Sub(take)
			if !q.remaining.IsPositive() {
				head++
			}
		}
		if want.IsPositive() {
			unmatched = unmatched.Add(want)
		}
	}

	for _, q := range queue[head:] {
		if q.remaining.IsPositive() {
			result.Open = append(result.Open, Remainder{
				EntryIndex: q.index,
				Quantity:   q.remaining.InexactFloat64(),
				EntryPrice: q.lot.Price,
				EntryDate:  q.lot.Date,
			})
		}
	}

	result.RealizedPL = realized.InexactFloat64()
	result.EnteredQuantity = entered.InexactFloat64()
	result.MatchedQuantity = matched.InexactFloat64()
	result.UnmatchedExitQuantity = unmatched.InexactFloat64()
	return result
}

// OpenQuantity is the entered quantity not yet consumed by exits.
func (r MatchResult) OpenQuantity() float64 {
	total := decimal.Zero
	for _, rem := range r.Open {
		total = total.Add(decimal.NewFromFloat(rem.Quantity))
	}
	return total.InexactFloat64()
}

// RealizedByExit returns the realized P&L attributed to each exit index.
func (r MatchResult) RealizedByExit() map[int]float64 {
	sums := make(map[int]decimal.Decimal)
	for _, s := range r.Slices {
		sums[s.ExitIndex] = sums[s.ExitIndex].Add(decimal.NewFromFloat(s.PL))
	}
	out := make(map[int]float64, len(sums))
	for idx, v := range sums {
		out[idx] = v.InexactFloat64()
	}
	return out
}

// MatchedByExit returns the quantity of each exit index that found an entry.
func (r MatchResult) MatchedByExit() map[int]float64 {
	sums := make(map[int]decimal.Decimal)
	for _, s := range r.Slices {
		sums[s.ExitIndex] = sums[s.ExitIndex].Add(decimal.NewFromFloat(s.Quantity))
	}
	out := make(map[int]float64, len(sums))
	for idx, v := range sums {
		out[idx] = v.InexactFloat64()
	}
	return out
}

// SlicesForEntry returns the slices consuming the given entry index.
func (r MatchResult) SlicesForEntry(entryIndex int) []Slice {
	var out []Slice
	for _, s := range r.Slices {
		if s.EntryIndex == entryIndex {
			out = append(out, s)
		}
	}
	return out
}

// RemainderForEntry returns the open quantity left on the given entry index.
func (r MatchResult) RemainderForEntry(entryIndex int) float64 {
	for _, rem := range r.Open {
		if rem.EntryIndex == entryIndex {
			return rem.Quantity
		}
	}
	return 0
}

// UnrealizedPL marks the open remainders to the current price.
// Returns 0 when there is no current price.
func (r MatchResult) UnrealizedPL(currentPrice float64, direction models.Direction) float64 {
	if currentPrice <= 0 {
		return 0
	}
	sign := decimal.NewFromFloat(direction.Sign())
	price := decimal.NewFromFloat(currentPrice)
	total := decimal.Zero
	for _, rem := range r.Open {
		move := price.Sub(decimal.NewFromFloat(rem.EntryPrice)).Mul(sign)
		total = total.Add(move.Mul(decimal.NewFromFloat(rem.Quantity)))
	}
	return total.InexactFloat64()
}
