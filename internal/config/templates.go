package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Trade Journal Configuration

[portfolio]
# Portfolio size used for months without a recorded size
default_size = 100000.0
# Accounting basis: "accrual" (P&L on the trade date) or "cash" (P&L on each exit date)
accounting_basis = "accrual"
# Cash basis: measure every exit against the portfolio size of the latest exit month
use_latest_exit_size = false
# ISO 4217 currency code used for display
currency = "USD"

[storage]
# SQLite database file (defaults to journal.db in this directory)
# db_path = "~/.config/trade-journal/journal.db"

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true
# file_path = "~/.config/trade-journal/logs/journal.log"
max_size = 20
max_backups = 5
max_age = 30

[ui]
# Enable colored output
color_enabled = true
# Date format for input and display
date_format = "2006-01-02"
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
