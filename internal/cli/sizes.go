package cli

import (
	"context"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"trade-journal/internal/errors"
	"trade-journal/internal/sizing"
	"trade-journal/pkg/utils"
)

// addSizeCommands adds monthly portfolio size commands.
func addSizeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Monthly portfolio sizes",
		Long: `Impact and allocation are measured against the portfolio size of the
month a trade opened (or exited, under cash basis). Months without a size
use portfolio.default_size.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "set <month> <year> <size>",
		Short:   "Set the portfolio size for a month",
		Example: "  journal size set Mar 2024 100000",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			year, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.NewValidationError("year", args[1], "must be a number")
			}
			size, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return errors.NewValidationError("size", args[2], "must be a number")
			}
			month := args[0]
			if m, ok := utils.ParseMonthLabel(month); ok {
				month = utils.MonthLabels[m-1]
			}

			if err := app.Store.SavePortfolioSize(ctx, month, year, size); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"month": month, "year": year, "size": size})
			}
			output.Success("✓ %s %d portfolio size set to %s", month, year, output.Money(size))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List monthly portfolio sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			sizes, err := app.Store.PortfolioSizes(ctx)
			if err != nil {
				return err
			}
			keys := sortedMonths(sizes)

			if output.IsJSON() {
				type row struct {
					Month string  `json:"month"`
					Year  int     `json:"year"`
					Size  float64 `json:"size"`
				}
				rows := make([]row, 0, len(keys))
				for _, k := range keys {
					rows = append(rows, row{k.Month, k.Year, sizes[k]})
				}
				return output.JSON(rows)
			}
			if len(keys) == 0 {
				output.Info("No monthly sizes set; using default %s", output.Money(app.Config.Portfolio.DefaultSize))
				return nil
			}
			table := NewTable(output, "Month", "Year", "Size")
			for _, k := range keys {
				table.AddRow(k.Month, strconv.Itoa(k.Year), output.Money(sizes[k]))
			}
			table.Render()
			return nil
		},
	})

	rootCmd.AddCommand(cmd)
}

// sortedMonths orders month keys chronologically.
func sortedMonths(sizes map[sizing.MonthKey]float64) []sizing.MonthKey {
	keys := make([]sizing.MonthKey, 0, len(sizes))
	for k := range sizes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Year != keys[j].Year {
			return keys[i].Year < keys[j].Year
		}
		mi, _ := utils.ParseMonthLabel(keys[i].Month)
		mj, _ := utils.ParseMonthLabel(keys[j].Month)
		return mi < mj
	})
	return keys
}
