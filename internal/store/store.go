// Package store persists journal trades and monthly portfolio sizes.
//
// The store only keeps what it is given: callers compute metrics with the
// engine and save the trade, including the metrics, afterwards.
package store

import (
	"context"
	"time"

	"trade-journal/internal/models"
	"trade-journal/internal/sizing"
)

// TradeStore defines the interface for journal persistence.
type TradeStore interface {
	// Trades
	SaveTrade(ctx context.Context, trade *models.Trade) error
	GetTrade(ctx context.Context, id string) (*models.Trade, error)
	ListTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	DeleteTrade(ctx context.Context, id string) error

	// Portfolio sizes
	SavePortfolioSize(ctx context.Context, month string, year int, size float64) error
	PortfolioSizes(ctx context.Context) (map[sizing.MonthKey]float64, error)

	// Lifecycle
	Close() error
}

// TradeFilter represents filters for querying trades.
type TradeFilter struct {
	Symbol    string
	Status    models.PositionStatus
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}
