// Package cli provides the command-line interface for the trade journal.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trade-journal/internal/basis"
	"trade-journal/internal/config"
	"trade-journal/internal/engine"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
	"trade-journal/internal/sizing"
	"trade-journal/internal/store"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2024-06-01"
)

// commandTimeout bounds store access for a single command.
const commandTimeout = 30 * time.Second

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.TradeStore
}

// NewRootCmd creates the root command for the CLI. A nil cfg is loaded from
// the --config directory before the first command runs.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "journal",
		Short: "Trade journal - P&L, risk and portfolio impact for your trades",
		Long: `Trade journal records multi-lot trades and derives their P&L, position
sizing, reward:risk, open heat and portfolio impact.

Figures are reported on an accrual basis (P&L on the trade date) or a cash
basis (P&L on each exit date).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.close()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/trade-journal)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addTradeCommands(rootCmd, app)
	addSummaryCommands(rootCmd, app)
	addSizeCommands(rootCmd, app)
	addExportCommands(rootCmd, app)

	return rootCmd
}

func (a *App) init(cmd *cobra.Command) error {
	if a.Config == nil {
		dir, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		a.Config = cfg
		a.Logger = logging.NewLoggerWithConfig(cfg.LogConfig())
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		a.Logger = a.Logger.Level(zerolog.DebugLevel)
	}
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.Logger))

	if a.Store == nil && needsStore(cmd) {
		s, err := store.NewSQLiteStore(a.Config.Storage.DBPath)
		if err != nil {
			return fmt.Errorf("opening journal database: %w", err)
		}
		a.Store = s
		a.Logger.Debug().Str("path", a.Config.Storage.DBPath).Msg("SQLite store initialized")
	}
	return nil
}

func (a *App) close() error {
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store = nil
	return err
}

// needsStore reports whether a command touches the database.
func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "version" || c.Name() == "config" {
			return false
		}
	}
	return true
}

// output creates an Output honoring the configured colors and currency.
func (a *App) output(cmd *cobra.Command) *Output {
	out := NewOutput(cmd)
	if a.Config != nil {
		out.colorEnabled = out.colorEnabled && a.Config.UI.ColorEnabled
		out.currency = a.Config.CurrencyCode()
	}
	return out
}

func (a *App) dateLayout() string {
	if a.Config == nil || a.Config.UI.DateFormat == "" {
		return "2006-01-02"
	}
	return a.Config.UI.DateFormat
}

// basisFlag reads --basis, defaulting to the configured basis.
func (a *App) basisFlag(cmd *cobra.Command) (basis.Basis, error) {
	if f := cmd.Flags().Lookup("basis"); f != nil && f.Changed {
		return basis.ParseBasis(f.Value.String())
	}
	return a.Config.Basis(), nil
}

// compute loads trades matching filter plus the monthly portfolio sizes and
// runs one engine pass over them.
func (a *App) compute(ctx context.Context, out *Output, b basis.Basis, filter store.TradeFilter) (engine.Result, error) {
	trades, err := a.Store.ListTrades(ctx, filter)
	if err != nil {
		return engine.Result{}, err
	}
	sizes, err := a.Store.PortfolioSizes(ctx)
	if err != nil {
		return engine.Result{}, err
	}

	res := engine.Compute(trades, engine.Options{
		Basis:             b,
		PortfolioSize:     a.Config.Portfolio.DefaultSize,
		Sizes:             sizing.FromMap(sizes),
		UseLatestExitSize: a.Config.Portfolio.UseLatestExitSize,
		Logger:            logging.WithOperation(logging.FromContext(ctx), "compute"),
	})
	if n := len(res.Failures); n > 0 && out != nil && !out.IsJSON() {
		out.Warning("%d trade(s) failed to compute and show zeroed metrics", n)
	}
	return res, nil
}

// saveComputed recomputes the whole journal and persists the computed copy
// of trade, so stored metrics reflect the edit.
func (a *App) saveComputed(ctx context.Context, trade *models.Trade) (*models.Trade, error) {
	logger := logging.FromContext(ctx)
	if err := a.Store.SaveTrade(ctx, trade); err != nil {
		return nil, err
	}
	res, err := a.compute(ctx, nil, a.Config.Basis(), store.TradeFilter{})
	if err != nil {
		return nil, err
	}
	for i := range res.Trades {
		if res.Trades[i].ID != trade.ID {
			continue
		}
		computed := res.Trades[i]
		if err := a.Store.SaveTrade(ctx, &computed); err != nil {
			return nil, err
		}
		logging.LogTradeSaved(logger, computed.ID, computed.Symbol, string(computed.Status))
		return &computed, nil
	}
	logging.LogTradeMissing(logger, trade.ID)
	return trade, nil
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Trade Journal v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := app.output(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.Config.ConfigPath()})
			} else {
				output.Println(app.Config.ConfigPath())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Portfolio")
	output.Printf("  Default Size:     %s\n", output.Money(cfg.Portfolio.DefaultSize))
	output.Printf("  Accounting Basis: %s\n", cfg.Basis())
	output.Printf("  Latest Exit Size: %v\n", cfg.Portfolio.UseLatestExitSize)
	output.Printf("  Currency:         %s\n", cfg.CurrencyCode())
	output.Println()

	output.Bold("Storage")
	output.Printf("  Database:         %s\n", cfg.Storage.DBPath)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:            %s\n", cfg.Logging.Level)
	output.Printf("  File:             %s\n", cfg.Logging.FilePath)
}
