package portfolio

import "trade-journal/internal/basis"

// ApplyCumulative walks records in chronological order and assigns each the
// running total of portfolio impact. Only realization events add to the
// total; an open trade receives the running figure without moving it.
// records keeps its original order.
func ApplyCumulative(records []basis.Record) {
	order := make([]basis.Record, len(records))
	copy(order, records)
	SortRecords(order)

	running := 0.0
	byKey := make(map[basis.RecordKey]float64, len(order))
	for _, r := range order {
		if r.Realized() {
			running += r.PortfolioImpact
		}
		byKey[r.Key] = running
	}

	for i := range records {
		records[i].CumulativeImpact = byKey[records[i].Key]
	}
}
