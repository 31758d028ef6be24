package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"trade-journal/internal/basis"
	"trade-journal/internal/engine"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
	"trade-journal/pkg/utils"
)

// addTradeCommands adds trade management commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:     "trades",
		Aliases: []string{"trade", "t"},
		Short:   "Record and review trades",
	}

	cmd.AddCommand(newTradesListCmd(app))
	cmd.AddCommand(newTradesShowCmd(app))
	cmd.AddCommand(newTradesAddCmd(app))
	cmd.AddCommand(newTradesEditCmd(app))
	cmd.AddCommand(newTradesDeleteCmd(app))

	rootCmd.AddCommand(cmd)
}

func newTradesListCmd(app *App) *cobra.Command {
	var symbol, status string
	var records bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades with computed metrics",
		Example: `  journal trades list
  journal trades list --basis cash --records
  journal trades list --symbol AAPL --status open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			b, err := app.basisFlag(cmd)
			if err != nil {
				return err
			}
			var want models.PositionStatus
			if status != "" {
				if want, err = ParseStatus(status); err != nil {
					return err
				}
			}

			// Cumulative impact runs over the whole journal, so filter after computing.
			res, err := app.compute(ctx, output, b, store.TradeFilter{})
			if err != nil {
				return err
			}
			res = filterResult(res, strings.ToUpper(symbol), want)

			if records {
				return renderRecords(output, app.dateLayout(), res.Records)
			}
			if output.IsJSON() {
				return output.JSON(res.Trades)
			}
			if len(res.Trades) == 0 {
				output.Info("No trades recorded yet.")
				output.Dim("Tip: add one with 'journal trades add --symbol AAPL --entry 100 --qty 10 --stop 95'")
				return nil
			}

			output.Bold("Trades (%s basis)", b)
			table := NewTable(output, "#", "Date", "Symbol", "Dir", "Status", "Qty", "Open", "Avg In", "Avg Out", "P&L", "Move", "PF", "Cum PF", "R:R", "Days")
			for _, t := range res.Trades {
				m := t.Metrics
				pl := m.RealizedPL
				if t.Status == models.StatusOpen {
					pl = m.UnrealizedPL
				}
				table.AddRow(
					fmt.Sprintf("%d", t.TradeNo),
					FormatDate(t.Date, app.dateLayout()),
					t.Symbol,
					FormatDirection(t.Direction),
					string(t.Status),
					utils.FormatQuantity(m.TotalQuantity),
					utils.FormatQuantity(m.OpenQuantity),
					FormatPrice(m.AverageEntryPrice),
					FormatPrice(m.AverageExitPrice),
					output.FormatPnL(pl),
					output.FormatPercent(m.StockMovePercent),
					output.FormatPercent(m.PortfolioImpact),
					output.FormatPercent(m.CumulativeImpact),
					FormatRewardRisk(m.RewardRisk),
					fmt.Sprintf("%d", m.HoldingDays),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("basis", "", "accounting basis: accrual or cash (default from config)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "only trades in this symbol")
	cmd.Flags().StringVar(&status, "status", "", "only trades with this status: open, partial, closed")
	cmd.Flags().BoolVar(&records, "records", false, "list the accounting records (one per exit under cash basis)")
	return cmd
}

// filterResult keeps trades and records matching symbol and status; empty
// values match everything.
func filterResult(res engine.Result, symbol string, status models.PositionStatus) engine.Result {
	keep := func(t *models.Trade) bool {
		return (symbol == "" || t.Symbol == symbol) && (status == "" || t.Status == status)
	}
	trades := res.Trades[:0:0]
	for i := range res.Trades {
		if keep(&res.Trades[i]) {
			trades = append(trades, res.Trades[i])
		}
	}
	records := res.Records[:0:0]
	for _, r := range res.Records {
		if keep(r.Trade) {
			records = append(records, r)
		}
	}
	res.Trades, res.Records = trades, records
	return res
}

func renderRecords(output *Output, layout string, records []basis.Record) error {
	if output.IsJSON() {
		type recordJSON struct {
			Key              string                `json:"key"`
			TradeID          string                `json:"trade_id"`
			ExitOrdinal      int                   `json:"exit_ordinal,omitempty"`
			Date             time.Time             `json:"date"`
			Split            *basis.CashSplit      `json:"split,omitempty"`
			PL               float64               `json:"pl"`
			HoldingDays      int                   `json:"holding_days"`
			PortfolioImpact  float64               `json:"portfolio_impact"`
			CumulativeImpact float64               `json:"cumulative_impact"`
			Status           models.PositionStatus `json:"status"`
		}
		out := make([]recordJSON, 0, len(records))
		for _, r := range records {
			out = append(out, recordJSON{
				Key:              r.Key.String(),
				TradeID:          r.Key.OriginalID,
				ExitOrdinal:      r.Key.ExitOrdinal,
				Date:             r.Date,
				Split:            r.Split,
				PL:               r.PL,
				HoldingDays:      r.HoldingDays,
				PortfolioImpact:  r.PortfolioImpact,
				CumulativeImpact: r.CumulativeImpact,
				Status:           r.Status(),
			})
		}
		return output.JSON(out)
	}

	table := NewTable(output, "Record", "Symbol", "Date", "Qty", "Price", "P&L", "PF", "Cum PF", "Days")
	for _, r := range records {
		qty, price := r.Trade.Metrics.ExitedQuantity, r.Trade.Metrics.AverageExitPrice
		if r.Split != nil {
			qty, price = r.Split.Quantity, r.Split.Price
		}
		table.AddRow(
			r.Key.String(),
			r.Trade.Symbol,
			FormatDate(r.Date, layout),
			utils.FormatQuantity(qty),
			FormatPrice(price),
			output.FormatPnL(r.PL),
			output.FormatPercent(r.PortfolioImpact),
			output.FormatPercent(r.CumulativeImpact),
			fmt.Sprintf("%d", r.HoldingDays),
		)
	}
	table.Render()

	footer := fmt.Sprintf("%d record(s) across %d trade(s)", len(records), len(basis.UniqueTrades(records)))
	if qty := basis.SplitQuantity(records); qty > 0 {
		footer += fmt.Sprintf(", %s units realized by exits", utils.FormatQuantity(qty))
	}
	output.Dim("%s", footer)
	return nil
}

func newTradesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <trade-id>",
		Short: "Show one trade in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			res, err := app.compute(ctx, output, app.Config.Basis(), store.TradeFilter{})
			if err != nil {
				return err
			}
			var trade *models.Trade
			for i := range res.Trades {
				if res.Trades[i].ID == args[0] {
					trade = &res.Trades[i]
				}
			}
			if trade == nil {
				_, err := app.Store.GetTrade(ctx, args[0])
				return err
			}

			if output.IsJSON() {
				return output.JSON(trade)
			}
			showTrade(output, app.dateLayout(), trade)
			return nil
		},
	}
}

func showTrade(output *Output, layout string, t *models.Trade) {
	m := t.Metrics
	output.Bold("%s  #%d  %s %s  (%s)", t.ID, t.TradeNo, t.Direction, t.Symbol, t.Status)
	output.Printf("  Date:          %s\n", FormatDate(t.Date, layout))
	output.Println()

	table := NewTable(output, "Lot", "Price", "Qty", "Date")
	for i, l := range t.EntryLots() {
		if l.Valid() {
			table.AddRow(fmt.Sprintf("Entry %d", i+1), FormatPrice(l.Price), utils.FormatQuantity(l.Quantity), FormatDate(l.Date, layout))
		}
	}
	for i, l := range t.ExitLots() {
		if l.Valid() {
			table.AddRow(fmt.Sprintf("Exit %d", i+1), FormatPrice(l.Price), utils.FormatQuantity(l.Quantity), FormatDate(l.Date, layout))
		}
	}
	table.Render()
	output.Println()

	output.Printf("  Stop / Trail:  %s / %s\n", FormatPrice(t.StopLoss), FormatPrice(t.TrailingStop))
	output.Printf("  Current:       %s\n", FormatPrice(t.CurrentPrice))
	output.Printf("  Position:      %s (%s of portfolio)\n", output.Money(m.PositionSize), utils.FormatPercent(m.AllocationPercent))
	output.Printf("  Stop Loss:     %.2f%%\n", m.StopLossPercent)
	output.Printf("  Realized:      %s on %s exited\n", output.FormatPnL(m.RealizedPL), output.Money(m.RealizedAmount))
	output.Printf("  Unrealized:    %s\n", output.FormatPnL(m.UnrealizedPL))
	output.Printf("  Stock Move:    %s\n", output.FormatPercent(m.StockMovePercent))
	output.Printf("  PF Impact:     %s (cumulative %s)\n", output.FormatPercent(m.PortfolioImpact), output.FormatPercent(m.CumulativeImpact))
	output.Printf("  Holding Days:  %d (closed %d, open %d)\n", m.HoldingDays, m.ClosedHoldingDays, m.OpenHoldingDays)
	output.Printf("  Reward:Risk:   %s weighted, %s effective\n",
		utils.FormatRatio(float64(m.RewardRisk.Weighted)), utils.FormatRatio(float64(m.RewardRisk.Effective)))
	if !m.IsRiskyPosition {
		output.Success("  Risk-free: trailing stop protects the entry")
	}
	if len(t.Edited) > 0 {
		output.Dim("  Edited by hand: %v", t.Edited.Sorted())
	}
	if t.Notes != "" {
		output.Printf("  Notes:         %s\n", t.Notes)
	}
}

func newTradesAddCmd(app *App) *cobra.Command {
	var symbol, direction, date, notes string
	var tradeNo int
	var entry, qty, stop, trailing, current float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new trade",
		Example: `  journal trades add --symbol AAPL --entry 100 --qty 10 --stop 95
  journal trades add --symbol TSLA --direction short --entry 250 --qty 4 --stop 265 --date 2024-03-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			dir, err := ParseDirection(direction)
			if err != nil {
				return err
			}
			tradeDate := time.Now().UTC().Truncate(24 * time.Hour)
			if date != "" {
				if tradeDate, err = ParseDate(date, app.dateLayout()); err != nil {
					return err
				}
			}

			trade := &models.Trade{
				TradeNo:       tradeNo,
				Date:          tradeDate,
				Symbol:        symbol,
				Direction:     dir,
				EntryPrice:    entry,
				EntryQuantity: qty,
				StopLoss:      stop,
				TrailingStop:  trailing,
				CurrentPrice:  current,
				Status:        models.StatusOpen,
				Notes:         notes,
			}
			if err := engine.Validate(trade); err != nil {
				return err
			}

			saved, err := app.saveComputed(ctx, trade)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(saved)
			}
			output.Success("✓ Recorded %s #%d %s %s", saved.ID, saved.TradeNo, saved.Direction, saved.Symbol)
			output.Printf("  Position %s, %s of portfolio, stop %.2f%% away\n",
				output.Money(saved.Metrics.PositionSize),
				utils.FormatPercent(saved.Metrics.AllocationPercent),
				saved.Metrics.StopLossPercent)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "ticker symbol (required)")
	cmd.Flags().StringVar(&direction, "direction", "long", "long or short")
	cmd.Flags().StringVar(&date, "date", "", "trade date (default today)")
	cmd.Flags().IntVar(&tradeNo, "trade-no", 0, "sequence number (default next)")
	cmd.Flags().Float64Var(&entry, "entry", 0, "initial entry price (required)")
	cmd.Flags().Float64Var(&qty, "qty", 0, "initial entry quantity (required)")
	cmd.Flags().Float64Var(&stop, "stop", 0, "fixed stop price")
	cmd.Flags().Float64Var(&trailing, "trailing", 0, "trailing stop price")
	cmd.Flags().Float64Var(&current, "current", 0, "current market price")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("entry")
	cmd.MarkFlagRequired("qty")
	return cmd
}

// editFlag maps an edit command flag to the trade field it sets.
type editFlag struct {
	name  string
	field models.Field
	usage string
	kind  byte // n number, d date, s text
}

var editFlags = []editFlag{
	{"entry", models.FieldEntryPrice, "initial entry price", 'n'},
	{"qty", models.FieldEntryQuantity, "initial entry quantity", 'n'},
	{"date", models.FieldDate, "trade date", 'd'},
	{"symbol", models.FieldSymbol, "ticker symbol", 's'},
	{"pyramid1-price", models.FieldPyramid1Price, "first pyramid price", 'n'},
	{"pyramid1-qty", models.FieldPyramid1Qty, "first pyramid quantity", 'n'},
	{"pyramid1-date", models.FieldPyramid1Date, "first pyramid date", 'd'},
	{"pyramid2-price", models.FieldPyramid2Price, "second pyramid price", 'n'},
	{"pyramid2-qty", models.FieldPyramid2Qty, "second pyramid quantity", 'n'},
	{"pyramid2-date", models.FieldPyramid2Date, "second pyramid date", 'd'},
	{"exit1-price", models.FieldExit1Price, "first exit price", 'n'},
	{"exit1-qty", models.FieldExit1Qty, "first exit quantity", 'n'},
	{"exit1-date", models.FieldExit1Date, "first exit date", 'd'},
	{"exit2-price", models.FieldExit2Price, "second exit price", 'n'},
	{"exit2-qty", models.FieldExit2Qty, "second exit quantity", 'n'},
	{"exit2-date", models.FieldExit2Date, "second exit date", 'd'},
	{"exit3-price", models.FieldExit3Price, "third exit price", 'n'},
	{"exit3-qty", models.FieldExit3Qty, "third exit quantity", 'n'},
	{"exit3-date", models.FieldExit3Date, "third exit date", 'd'},
	{"stop", models.FieldStopLoss, "fixed stop price", 'n'},
	{"trailing", models.FieldTrailingStop, "trailing stop price", 'n'},
	{"current", models.FieldCurrentPrice, "current market price", 'n'},
	{"stop-loss-pct", models.FieldStopLossPercent, "pin the stop-loss percent", 'n'},
	{"holding-days", models.FieldHoldingDays, "pin the holding days", 'n'},
	{"stock-move", models.FieldStockMove, "pin the stock move percent", 'n'},
}

func newTradesEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <trade-id>",
		Short: "Edit a trade's fields",
		Long: `Edit source fields of a trade. Every edited field is remembered and
never overwritten by recalculation. --status pins the position status;
--status auto derives it from quantities again.`,
		Example: `  journal trades edit TRD-1 --exit1-price 110 --exit1-qty 5 --exit1-date 2024-03-10
  journal trades edit TRD-1 --trailing 104 --current 112
  journal trades edit TRD-1 --status auto`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			trade, err := app.Store.GetTrade(ctx, args[0])
			if err != nil {
				return err
			}

			edits, err := collectEdits(cmd.Flags(), app.dateLayout())
			if err != nil {
				return err
			}
			if err := engine.ApplyEdits(trade, edits...); err != nil {
				return err
			}
			if s, _ := cmd.Flags().GetString("status"); s == "auto" {
				engine.UnpinStatus(trade)
			}
			if err := engine.Validate(trade); err != nil {
				return err
			}

			saved, err := app.saveComputed(ctx, trade)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(saved)
			}
			output.Success("✓ Updated %s (%d field(s)), now %s", saved.ID, len(edits), saved.Status)
			return nil
		},
	}

	for _, f := range editFlags {
		switch f.kind {
		case 'n':
			cmd.Flags().Float64(f.name, 0, f.usage)
		default:
			cmd.Flags().String(f.name, "", f.usage)
		}
	}
	cmd.Flags().String("direction", "", "long or short")
	cmd.Flags().String("status", "", "pin status: open, partial, closed; auto to derive")
	return cmd
}

// collectEdits turns the changed edit flags into engine edits.
func collectEdits(flags *pflag.FlagSet, layout string) ([]engine.Edit, error) {
	var edits []engine.Edit
	for _, f := range editFlags {
		if !flags.Changed(f.name) {
			continue
		}
		switch f.kind {
		case 'n':
			v, _ := flags.GetFloat64(f.name)
			edits = append(edits, engine.NumberEdit(f.field, v))
		case 'd':
			raw, _ := flags.GetString(f.name)
			d, err := ParseDate(raw, layout)
			if err != nil {
				return nil, err
			}
			edits = append(edits, engine.DateEdit(f.field, d))
		case 's':
			v, _ := flags.GetString(f.name)
			edits = append(edits, engine.Edit{Field: f.field, Text: v})
		}
	}

	if flags.Changed("direction") {
		raw, _ := flags.GetString("direction")
		d, err := ParseDirection(raw)
		if err != nil {
			return nil, err
		}
		edits = append(edits, engine.Edit{Field: models.FieldDirection, Direction: d})
	}
	if raw, _ := flags.GetString("status"); raw != "" && raw != "auto" {
		s, err := ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		edits = append(edits, engine.StatusEdit(s))
	}
	return edits, nil
}

func newTradesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trade-id>",
		Short: "Delete a trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			if err := app.Store.DeleteTrade(ctx, args[0]); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": args[0]})
			}
			output.Success("✓ Deleted %s", args[0])
			return nil
		},
	}
}
