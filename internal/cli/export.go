package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"trade-journal/internal/basis"
	"trade-journal/internal/engine"
	"trade-journal/internal/models"
	"trade-journal/internal/portfolio"
	"trade-journal/internal/store"
)

// TradeRow is one trade in the CSV export.
type TradeRow struct {
	TradeNo          int     `csv:"trade_no"`
	ID               string  `csv:"id"`
	Date             string  `csv:"date"`
	Symbol           string  `csv:"symbol"`
	Direction        string  `csv:"direction"`
	Status           string  `csv:"status"`
	AvgEntry         float64 `csv:"avg_entry"`
	AvgExit          float64 `csv:"avg_exit"`
	Quantity         float64 `csv:"quantity"`
	OpenQuantity     float64 `csv:"open_quantity"`
	PositionSize     float64 `csv:"position_size"`
	Allocation       float64 `csv:"allocation_pct"`
	StopLossPercent  float64 `csv:"stop_loss_pct"`
	RealizedPL       float64 `csv:"realized_pl"`
	UnrealizedPL     float64 `csv:"unrealized_pl"`
	StockMove        float64 `csv:"stock_move_pct"`
	PortfolioImpact  float64 `csv:"pf_impact_pct"`
	CumulativeImpact float64 `csv:"cum_pf_impact_pct"`
	RewardRisk       float64 `csv:"reward_risk"`
	HoldingDays      int     `csv:"holding_days"`
	RiskFree         bool    `csv:"risk_free"`
}

// RecordRow is one accounting record in the CSV export.
type RecordRow struct {
	Record           string  `csv:"record"`
	Symbol           string  `csv:"symbol"`
	Date             string  `csv:"date"`
	Quantity         float64 `csv:"quantity"`
	Price            float64 `csv:"price"`
	PL               float64 `csv:"pl"`
	PortfolioImpact  float64 `csv:"pf_impact_pct"`
	CumulativeImpact float64 `csv:"cum_pf_impact_pct"`
	HoldingDays      int     `csv:"holding_days"`
}

// addExportCommands adds the CSV export command.
func addExportCommands(rootCmd *cobra.Command, app *App) {
	var outPath string
	var records bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export computed trades as CSV",
		Example: `  journal export --out trades.csv
  journal export --basis cash --records`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			b, err := app.basisFlag(cmd)
			if err != nil {
				return err
			}
			res, err := app.compute(ctx, nil, b, store.TradeFilter{})
			if err != nil {
				return err
			}

			write := func(w io.Writer) error {
				if records {
					return writeRecordsCSV(w, app.dateLayout(), res)
				}
				return writeTradesCSV(w, app.dateLayout(), res.Trades)
			}

			if outPath == "" {
				return write(cmd.OutOrStdout())
			}
			if err := writeFile(outPath, write); err != nil {
				return err
			}
			app.output(cmd).Success("✓ Exported to %s", outPath)
			return nil
		},
	}

	cmd.Flags().String("basis", "", "accounting basis: accrual or cash (default from config)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&records, "records", false, "export accounting records instead of trades")
	rootCmd.AddCommand(cmd)
}

// writeFile creates path and runs write on it. The close error is returned
// so a short write to disk is not reported as success.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func writeTradesCSV(w io.Writer, layout string, trades []models.Trade) error {
	sorted := append([]models.Trade(nil), trades...)
	portfolio.SortTrades(sorted)

	rows := make([]*TradeRow, 0, len(sorted))
	for _, t := range sorted {
		m := t.Metrics
		rr := m.RewardRisk.Weighted
		if m.RewardRisk.RiskFree {
			rr = m.RewardRisk.Effective
		}
		rows = append(rows, &TradeRow{
			TradeNo:          t.TradeNo,
			ID:               t.ID,
			Date:             exportDate(t.Date, layout),
			Symbol:           t.Symbol,
			Direction:        string(t.Direction),
			Status:           string(t.Status),
			AvgEntry:         m.AverageEntryPrice,
			AvgExit:          m.AverageExitPrice,
			Quantity:         m.TotalQuantity,
			OpenQuantity:     m.OpenQuantity,
			PositionSize:     m.PositionSize,
			Allocation:       m.AllocationPercent,
			StopLossPercent:  m.StopLossPercent,
			RealizedPL:       m.RealizedPL,
			UnrealizedPL:     m.UnrealizedPL,
			StockMove:        m.StockMovePercent,
			PortfolioImpact:  m.PortfolioImpact,
			CumulativeImpact: m.CumulativeImpact,
			RewardRisk:       float64(rr),
			HoldingDays:      m.HoldingDays,
			RiskFree:         !m.IsRiskyPosition,
		})
	}
	return gocsv.Marshal(&rows, w)
}

func writeRecordsCSV(w io.Writer, layout string, res engine.Result) error {
	records := append([]basis.Record(nil), res.Records...)
	portfolio.SortRecords(records)

	rows := make([]*RecordRow, 0, len(records))
	for _, r := range records {
		row := &RecordRow{
			Record:           r.Key.String(),
			Symbol:           r.Trade.Symbol,
			Date:             exportDate(r.Date, layout),
			Quantity:         r.Trade.Metrics.ExitedQuantity,
			Price:            r.Trade.Metrics.AverageExitPrice,
			PL:               r.PL,
			PortfolioImpact:  r.PortfolioImpact,
			CumulativeImpact: r.CumulativeImpact,
			HoldingDays:      r.HoldingDays,
		}
		if r.Split != nil {
			row.Quantity, row.Price = r.Split.Quantity, r.Split.Price
		}
		rows = append(rows, row)
	}
	return gocsv.Marshal(&rows, w)
}

func exportDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}
