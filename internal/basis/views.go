package basis

import (
	"trade-journal/internal/accounting"
	"trade-journal/internal/models"
	"trade-journal/internal/sizing"
)

// AccrualRecord wraps a computed trade as a single accrual record.
func AccrualRecord(t *models.Trade) Record {
	return Record{
		Key:         RecordKey{OriginalID: t.ID},
		Trade:       t,
		Date:        t.Date,
		SizeDate:    t.Date,
		PL:          accounting.AccountingPL(t.Status, t.Metrics),
		HoldingDays: t.Metrics.HoldingDays,
	}
}

// ExpandCash returns one record per exit of a Closed or Partial trade. Open
// trades produce nothing. Split quantities are the matched quantities, so
// they always sum to the trade's exited quantity.
func ExpandCash(t *models.Trade, opts Options) []Record {
	if t.Status == models.StatusOpen {
		return nil
	}

	exits := t.ExitLots()
	match := accounting.MatchFIFO(t.EntryLots(), exits, t.Direction)
	matched := match.MatchedByExit()
	realized := match.RealizedByExit()
	latest := t.LatestExitDate()
	holding := accounting.CashHoldingDays(t)

	var out []Record
	for i, exit := range exits {
		qty := matched[i]
		if !exit.Valid() || qty <= 0 {
			continue
		}
		split := &CashSplit{
			Date:       exit.Date,
			Quantity:   qty,
			Price:      exit.Price,
			RealizedPL: realized[i],
		}
		sizeDate := exit.Date
		if opts.UseLatestExitSize || sizeDate.IsZero() {
			sizeDate = latest
		}
		out = append(out, Record{
			Key:         RecordKey{OriginalID: t.ID, ExitOrdinal: i + 1},
			Trade:       t,
			Split:       split,
			Date:        exit.Date,
			SizeDate:    sizeDate,
			PL:          split.RealizedPL,
			HoldingDays: holding,
		})
	}
	return out
}

// Expand returns the records a trade contributes under basis b. With
// includeOpen, a trade that produces no cash record is kept as a single
// unexpanded record so it can still carry a cumulative figure.
func Expand(t *models.Trade, b Basis, opts Options, includeOpen bool) []Record {
	if b == Cash {
		recs := ExpandCash(t, opts)
		if len(recs) == 0 && includeOpen {
			return []Record{AccrualRecord(t)}
		}
		return recs
	}
	if t.Status == models.StatusOpen && !includeOpen {
		return nil
	}
	return []Record{AccrualRecord(t)}
}

// AccrualView returns one record per non-open trade.
func AccrualView(trades []models.Trade) []Record {
	return View(trades, Accrual, Options{}, false)
}

// CashView returns one record per exit of every Closed or Partial trade.
func CashView(trades []models.Trade, opts Options) []Record {
	return View(trades, Cash, opts, false)
}

// View materializes the records of trades under basis b.
func View(trades []models.Trade, b Basis, opts Options, includeOpen bool) []Record {
	var out []Record
	for i := range trades {
		out = append(out, Expand(&trades[i], b, opts, includeOpen)...)
	}
	return out
}

// ApplyImpact sets each record's portfolio impact: its P&L as a percentage
// of the portfolio size for its SizeDate month.
func ApplyImpact(records []Record, sizes *sizing.Resolver) {
	for i := range records {
		size := sizes.SizeAt(records[i].SizeDate)
		if size <= 0 {
			records[i].PortfolioImpact = 0
			continue
		}
		records[i].PortfolioImpact = records[i].PL / size * 100
	}
}

// SplitQuantity sums the split quantities of a trade's cash records.
func SplitQuantity(records []Record) float64 {
	var total float64
	for _, r := range records {
		if r.Split != nil {
			total += r.Split.Quantity
		}
	}
	return total
}
