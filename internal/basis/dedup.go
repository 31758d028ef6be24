package basis

import "trade-journal/internal/models"

// Deduplicate collapses records to one representative per original trade,
// the first one seen, preserving first-seen order.
func Deduplicate(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if seen[r.Key.OriginalID] {
			continue
		}
		seen[r.Key.OriginalID] = true
		out = append(out, r)
	}
	return out
}

// UniqueTrades returns the original trades behind a set of records, once each.
func UniqueTrades(records []Record) []models.Trade {
	dedup := Deduplicate(records)
	out := make([]models.Trade, 0, len(dedup))
	for _, r := range dedup {
		out = append(out, *r.Trade)
	}
	return out
}

// Group is every record of one original trade within a view.
type Group struct {
	OriginalID string
	Trade      *models.Trade
	Records    []Record
	// PL sums the P&L of the group's records.
	PL float64
}

// GroupByTrade groups records by original trade in first-seen order.
func GroupByTrade(records []Record) []Group {
	index := make(map[string]int, len(records))
	var groups []Group
	for _, r := range records {
		i, ok := index[r.Key.OriginalID]
		if !ok {
			i = len(groups)
			index[r.Key.OriginalID] = i
			groups = append(groups, Group{OriginalID: r.Key.OriginalID, Trade: r.Trade})
		}
		groups[i].Records = append(groups[i].Records, r)
		groups[i].PL += r.PL
	}
	return groups
}
