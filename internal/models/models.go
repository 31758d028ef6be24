// Package models provides domain models for the trade journal.
package models

import "time"

// Direction represents the side of a trade.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Sign returns +1 for long trades and -1 for short trades.
func (d Direction) Sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Long || d == Short
}

// PositionStatus represents the lifecycle state of a trade.
type PositionStatus string

const (
	StatusOpen    PositionStatus = "Open"
	StatusPartial PositionStatus = "Partial"
	StatusClosed  PositionStatus = "Closed"
)

// Valid reports whether s is a known status.
func (s PositionStatus) Valid() bool {
	return s == StatusOpen || s == StatusPartial || s == StatusClosed
}

// Lot is a single entry or exit fill.
type Lot struct {
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
	Date     time.Time `json:"date"`
}

// Valid reports whether the lot carries a positive price and quantity.
func (l Lot) Valid() bool {
	return l.Price > 0 && l.Quantity > 0
}

// Value returns price times quantity.
func (l Lot) Value() float64 {
	return l.Price * l.Quantity
}

// ValidLots keeps only lots with positive price and quantity, preserving order.
func ValidLots(lots []Lot) []Lot {
	out := make([]Lot, 0, len(lots))
	for _, l := range lots {
		if l.Valid() {
			out = append(out, l)
		}
	}
	return out
}

// TotalQuantity sums the quantity of valid lots.
func TotalQuantity(lots []Lot) float64 {
	var total float64
	for _, l := range lots {
		if l.Valid() {
			total += l.Quantity
		}
	}
	return total
}

// AveragePrice returns the quantity-weighted mean price of valid lots, 0 when empty.
func AveragePrice(lots []Lot) float64 {
	var value, qty float64
	for _, l := range lots {
		if l.Valid() {
			value += l.Value()
			qty += l.Quantity
		}
	}
	if qty == 0 {
		return 0
	}
	return value / qty
}
