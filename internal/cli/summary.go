package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"trade-journal/internal/portfolio"
	"trade-journal/internal/store"
	"trade-journal/pkg/utils"
)

// addSummaryCommands adds the portfolio summary command.
func addSummaryCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:     "summary",
		Aliases: []string{"portfolio", "stats"},
		Short:   "Portfolio heat, exposure, P&L and win rate",
		Example: `  journal summary
  journal summary --basis cash --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			b, err := app.basisFlag(cmd)
			if err != nil {
				return err
			}
			res, err := app.compute(ctx, output, b, store.TradeFilter{})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(res.Summary)
			}
			showSummary(output, res.Summary)
			return nil
		},
	}
	cmd.Flags().String("basis", "", "accounting basis: accrual or cash (default from config)")

	rootCmd.AddCommand(cmd)
}

func showSummary(output *Output, s portfolio.Summary) {
	output.Bold("Portfolio Summary (%s basis)", s.Basis)
	output.Printf("  Portfolio Size:  %s\n", output.Money(s.PortfolioSize))
	output.Printf("  Trades:          %d (%d open, %d partial, %d closed)\n",
		s.TradeCount, s.OpenCount, s.PartialCount, s.ClosedCount)
	output.Println()

	output.Bold("P&L")
	output.Printf("  Realized:        %s\n", output.FormatPnL(s.RealizedPL))
	output.Printf("  Unrealized:      %s\n", output.FormatPnL(s.UnrealizedPL))
	output.Printf("  Net:             %s (%s of portfolio)\n", output.FormatPnL(s.NetPL), output.FormatPercent(s.NetPortfolioImpact))
	output.Printf("  Win Rate:        %s (%d W / %d L)\n", utils.FormatPercent(s.WinRate), s.Wins, s.Losses)
	output.Println()

	output.Bold("Exposure")
	output.Printf("  Invested:        %s (%s)\n", output.Money(s.TotalInvested), utils.FormatPercent(s.PercentInvested))
	output.Printf("  Open Heat:       %s\n", utils.FormatPercent(s.TotalOpenHeat))
	if s.RiskFreeOpen > 0 {
		output.Success("  Risk-free open:  %d position(s)", s.RiskFreeOpen)
	}

	if len(s.HeatByTrade) == 0 {
		return
	}
	output.Println()
	table := NewTable(output, "Trade", "Symbol", "Heat", "% Portfolio", "Share")
	for _, h := range s.HeatByTrade {
		table.AddRow(h.TradeID, h.Symbol, output.Money(h.Amount), utils.FormatPercent(h.Percent), fmt.Sprintf("%.0f%%", h.Share*100))
	}
	table.Render()
	if s.MaxHeatShare > 0.5 {
		output.Warning("One position carries %.0f%% of open heat", s.MaxHeatShare*100)
	}
}
