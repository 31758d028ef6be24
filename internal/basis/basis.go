// Package basis reshapes computed trades into accrual or cash accounting views.
//
// Under accrual a trade's P&L belongs to its initiation date. Under cash each
// exit is a separate dated realization event, so a trade with N exits becomes
// N records keyed by {originalID, exitOrdinal}.
package basis

import (
	"fmt"
	"strings"
	"time"

	"trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// Basis selects the accounting convention.
type Basis string

const (
	Accrual Basis = "accrual"
	Cash    Basis = "cash"
)

// ParseBasis parses a basis name, case-insensitively.
func ParseBasis(s string) (Basis, error) {
	switch Basis(strings.ToLower(strings.TrimSpace(s))) {
	case Accrual, "":
		return Accrual, nil
	case Cash:
		return Cash, nil
	}
	return "", errors.Wrapf(errors.ErrInvalidBasis, "%q", s)
}

// Options tune the views.
type Options struct {
	// UseLatestExitSize measures every exit of a trade against the portfolio
	// size of its latest exit month instead of each exit's own month.
	UseLatestExitSize bool
}

// RecordKey identifies a record. ExitOrdinal is 0 for a whole trade and
// 1..3 for the cash-basis record of that exit.
type RecordKey struct {
	OriginalID  string
	ExitOrdinal int
}

// String renders the key for display, e.g. "T42" or "T42/exit2".
func (k RecordKey) String() string {
	if k.ExitOrdinal == 0 {
		return k.OriginalID
	}
	return fmt.Sprintf("%s/exit%d", k.OriginalID, k.ExitOrdinal)
}

// CashSplit is one exit event of an original trade.
type CashSplit struct {
	Date       time.Time `json:"date"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	RealizedPL float64   `json:"realized_pl"`
}

// Record is one row of an accounting view.
type Record struct {
	Key   RecordKey
	Trade *models.Trade
	// Split is set for cash-basis exit records only.
	Split *CashSplit

	// Date is the attributed date: initiation date for accrual, exit date for cash.
	Date time.Time
	// SizeDate selects the month whose portfolio size the impact is measured against.
	SizeDate time.Time
	// PL is the P&L attributed to this record.
	PL          float64
	HoldingDays int

	PortfolioImpact  float64
	CumulativeImpact float64
}

// Realized reports whether the record is a realization event. Only those
// move the cumulative portfolio impact.
func (r Record) Realized() bool {
	if r.Split != nil {
		return true
	}
	return r.Trade.Status != models.StatusOpen
}

// Status is the status a record contributes under: Closed for a cash exit
// record, the trade's status otherwise.
func (r Record) Status() models.PositionStatus {
	if r.Split != nil {
		return models.StatusClosed
	}
	return r.Trade.Status
}
