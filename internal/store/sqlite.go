package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/sizing"
	"trade-journal/pkg/utils"
)

// SQLiteStore implements TradeStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based trade store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w: %w", errors.ErrDatabaseError, err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w: %w", errors.ErrDatabaseError, err)
	}

	return store, nil
}

// execWrite runs a write statement, retrying while another connection holds
// the database lock.
func (s *SQLiteStore) execWrite(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	var res sql.Result
	cfg := utils.DefaultRetryConfig()
	cfg.Retryable = isBusy
	err := utils.Retry(ctx, cfg, func() error {
		var err error
		res, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// isBusy reports whether err is SQLite's busy or locked error.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Journal trades: source fields as columns, derived metrics as JSON
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		trade_no INTEGER NOT NULL,
		date DATETIME NOT NULL,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		entry_price REAL NOT NULL,
		entry_quantity REAL NOT NULL,
		pyramid1_price REAL DEFAULT 0,
		pyramid1_quantity REAL DEFAULT 0,
		pyramid1_date DATETIME,
		pyramid2_price REAL DEFAULT 0,
		pyramid2_quantity REAL DEFAULT 0,
		pyramid2_date DATETIME,
		exit1_price REAL DEFAULT 0,
		exit1_quantity REAL DEFAULT 0,
		exit1_date DATETIME,
		exit2_price REAL DEFAULT 0,
		exit2_quantity REAL DEFAULT 0,
		exit2_date DATETIME,
		exit3_price REAL DEFAULT 0,
		exit3_quantity REAL DEFAULT 0,
		exit3_date DATETIME,
		stop_loss REAL DEFAULT 0,
		trailing_stop REAL DEFAULT 0,
		current_price REAL DEFAULT 0,
		status TEXT NOT NULL,
		edited_fields TEXT,
		notes TEXT,
		metrics TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Portfolio size in force for each month
	CREATE TABLE IF NOT EXISTS portfolio_sizes (
		month TEXT NOT NULL,
		year INTEGER NOT NULL,
		size REAL NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (month, year)
	);

	CREATE INDEX IF NOT EXISTS idx_trades_order ON trades(trade_no, date);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const tradeColumns = `id, trade_no, date, symbol, direction, entry_price, entry_quantity,
	pyramid1_price, pyramid1_quantity, pyramid1_date, pyramid2_price, pyramid2_quantity, pyramid2_date,
	exit1_price, exit1_quantity, exit1_date, exit2_price, exit2_quantity, exit2_date,
	exit3_price, exit3_quantity, exit3_date,
	stop_loss, trailing_stop, current_price, status, edited_fields, notes, metrics`

// SaveTrade inserts or replaces a trade. A trade without an ID gets one, and
// a trade without a sequence number is numbered after the last one stored.
func (s *SQLiteStore) SaveTrade(ctx context.Context, trade *models.Trade) error {
	if trade.ID == "" {
		trade.ID = fmt.Sprintf("TRD-%d", time.Now().UnixNano())
	}
	if trade.TradeNo == 0 {
		var last sql.NullInt64
		if err := s.db.QueryRowContext(ctx, "SELECT MAX(trade_no) FROM trades").Scan(&last); err != nil {
			return fmt.Errorf("failed to number trade: %w: %w", errors.ErrDatabaseError, err)
		}
		trade.TradeNo = int(last.Int64) + 1
	}

	trade.Symbol = strings.ToUpper(strings.TrimSpace(trade.Symbol))

	edited, err := json.Marshal(trade.Edited)
	if err != nil {
		return fmt.Errorf("failed to encode edited fields: %w", err)
	}
	metrics, err := json.Marshal(trade.Metrics)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}

	_, err = s.execWrite(ctx, `
		INSERT OR REPLACE INTO trades (`+tradeColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`,
		trade.ID, trade.TradeNo, trade.Date, trade.Symbol, string(trade.Direction),
		trade.EntryPrice, trade.EntryQuantity,
		trade.Pyramid1.Price, trade.Pyramid1.Quantity, nullTime(trade.Pyramid1.Date),
		trade.Pyramid2.Price, trade.Pyramid2.Quantity, nullTime(trade.Pyramid2.Date),
		trade.Exit1.Price, trade.Exit1.Quantity, nullTime(trade.Exit1.Date),
		trade.Exit2.Price, trade.Exit2.Quantity, nullTime(trade.Exit2.Date),
		trade.Exit3.Price, trade.Exit3.Quantity, nullTime(trade.Exit3.Date),
		trade.StopLoss, trade.TrailingStop, trade.CurrentPrice,
		string(trade.Status), string(edited), trade.Notes, string(metrics),
	)
	if err != nil {
		return fmt.Errorf("failed to save trade: %w: %w", errors.ErrDatabaseError, err)
	}
	return nil
}

// GetTrade returns one trade by ID.
func (s *SQLiteStore) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+tradeColumns+" FROM trades WHERE id = ?", id)
	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrTradeNotFound, "trade %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w: %w", errors.ErrDatabaseError, err)
	}
	return t, nil
}

// ListTrades returns trades in chronological order: sequence number, then date.
func (s *SQLiteStore) ListTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := "SELECT " + tradeColumns + " FROM trades WHERE 1=1"
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, strings.ToUpper(filter.Symbol))
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if !filter.StartDate.IsZero() {
		query += " AND date >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND date <= ?"
		args = append(args, filter.EndDate)
	}

	query += " ORDER BY trade_no ASC, date ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w: %w", errors.ErrDatabaseError, err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, *t)
	}

	return trades, rows.Err()
}

// DeleteTrade removes a trade.
func (s *SQLiteStore) DeleteTrade(ctx context.Context, id string) error {
	res, err := s.execWrite(ctx, "DELETE FROM trades WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w: %w", errors.ErrDatabaseError, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(errors.ErrTradeNotFound, "trade %s", id)
	}
	return nil
}

// SavePortfolioSize records the portfolio size for a month.
func (s *SQLiteStore) SavePortfolioSize(ctx context.Context, month string, year int, size float64) error {
	m, ok := utils.ParseMonthLabel(month)
	if !ok {
		return errors.NewValidationError("month", month, "expected a month name such as Jan")
	}
	if size <= 0 {
		return errors.NewValidationError("size", size, "must be positive")
	}

	_, err := s.execWrite(ctx, `
		INSERT OR REPLACE INTO portfolio_sizes (month, year, size, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, utils.MonthLabels[m-1], year, size)
	if err != nil {
		return fmt.Errorf("failed to save portfolio size: %w: %w", errors.ErrDatabaseError, err)
	}
	return nil
}

// PortfolioSizes returns every stored monthly size, ready for sizing.FromMap.
func (s *SQLiteStore) PortfolioSizes(ctx context.Context) (map[sizing.MonthKey]float64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT month, year, size FROM portfolio_sizes")
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio sizes: %w: %w", errors.ErrDatabaseError, err)
	}
	defer rows.Close()

	sizes := make(map[sizing.MonthKey]float64)
	for rows.Next() {
		var key sizing.MonthKey
		var size float64
		if err := rows.Scan(&key.Month, &key.Year, &size); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio size: %w", err)
		}
		sizes[key] = size
	}
	return sizes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(row rowScanner) (*models.Trade, error) {
	var t models.Trade
	var direction, status string
	var p1Date, p2Date, x1Date, x2Date, x3Date sql.NullTime
	var edited, notes, metrics sql.NullString

	err := row.Scan(
		&t.ID, &t.TradeNo, &t.Date, &t.Symbol, &direction, &t.EntryPrice, &t.EntryQuantity,
		&t.Pyramid1.Price, &t.Pyramid1.Quantity, &p1Date,
		&t.Pyramid2.Price, &t.Pyramid2.Quantity, &p2Date,
		&t.Exit1.Price, &t.Exit1.Quantity, &x1Date,
		&t.Exit2.Price, &t.Exit2.Quantity, &x2Date,
		&t.Exit3.Price, &t.Exit3.Quantity, &x3Date,
		&t.StopLoss, &t.TrailingStop, &t.CurrentPrice,
		&status, &edited, &notes, &metrics,
	)
	if err != nil {
		return nil, err
	}

	t.Direction = models.Direction(direction)
	t.Status = models.PositionStatus(status)
	t.Notes = notes.String
	t.Pyramid1.Date = p1Date.Time
	t.Pyramid2.Date = p2Date.Time
	t.Exit1.Date = x1Date.Time
	t.Exit2.Date = x2Date.Time
	t.Exit3.Date = x3Date.Time

	if edited.Valid && edited.String != "" {
		if err := json.Unmarshal([]byte(edited.String), &t.Edited); err != nil {
			return nil, errors.NewDataError("trade", t.ID, "corrupt edited fields", err)
		}
	}
	if metrics.Valid && metrics.String != "" {
		if err := json.Unmarshal([]byte(metrics.String), &t.Metrics); err != nil {
			return nil, errors.NewDataError("trade", t.ID, "corrupt metrics", err)
		}
	}
	return &t, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
