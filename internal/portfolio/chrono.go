// Package portfolio rolls computed trades into portfolio-level figures and
// the running cumulative portfolio impact.
package portfolio

import (
	"sort"
	"time"

	"trade-journal/internal/basis"
	"trade-journal/internal/models"
)

// Chronological orders by trade sequence number first, then by date. It
// returns a negative number when a sorts before b, positive when after and
// 0 when they are tied.
func Chronological(aNo int, aDate time.Time, bNo int, bDate time.Time) int {
	if aNo != bNo {
		if aNo < bNo {
			return -1
		}
		return 1
	}
	switch {
	case aDate.Before(bDate):
		return -1
	case aDate.After(bDate):
		return 1
	}
	return 0
}

// SortTrades sorts trades chronologically in place. Ties keep input order.
func SortTrades(trades []models.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		return Chronological(trades[i].TradeNo, trades[i].Date, trades[j].TradeNo, trades[j].Date) < 0
	})
}

// SortRecords sorts records chronologically in place by their trade's
// sequence number and their attributed date. Exits of one trade stay in
// ordinal order when dates tie.
func SortRecords(records []basis.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if c := Chronological(a.Trade.TradeNo, a.Date, b.Trade.TradeNo, b.Date); c != 0 {
			return c < 0
		}
		return a.Key.ExitOrdinal < b.Key.ExitOrdinal
	})
}
