// Package config provides configuration management for the trade journal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"trade-journal/internal/basis"
	"trade-journal/internal/errors"
	"trade-journal/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	UI        UIConfig        `mapstructure:"ui"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-"`
}

// PortfolioConfig holds accounting configuration.
type PortfolioConfig struct {
	DefaultSize       float64 `mapstructure:"default_size"`
	AccountingBasis   string  `mapstructure:"accounting_basis"` // accrual, cash
	UseLatestExitSize bool    `mapstructure:"use_latest_exit_size"`
	Currency          string  `mapstructure:"currency"`
}

// StorageConfig holds database configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/trade-journal"
	}
	return filepath.Join(home, ".config", "trade-journal")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is created from the template and then read.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{Dir: configDir}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	// .env in the config dir, then the working directory; real env wins.
	_ = godotenv.Load(filepath.Join(configDir, ".env"))
	_ = godotenv.Load()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("portfolio.default_size", 100000.0)
	v.SetDefault("portfolio.accounting_basis", string(basis.Accrual))
	v.SetDefault("portfolio.use_latest_exit_size", false)
	v.SetDefault("portfolio.currency", "USD")
	v.SetDefault("storage.db_path", filepath.Join(configDir, "journal.db"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "journal.log"))
	v.SetDefault("logging.max_size", 20)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "2006-01-02")
}

func loadConfigFile(configDir, name string, target *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := createTemplateConfig(configDir); err != nil {
			return err
		}
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("JOURNAL_PORTFOLIO_SIZE"); v != "" {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(errors.ErrConfigInvalid, "JOURNAL_PORTFOLIO_SIZE %q is not a number", v)
		}
		cfg.Portfolio.DefaultSize = size
	}
	if v := os.Getenv("JOURNAL_ACCOUNTING_BASIS"); v != "" {
		cfg.Portfolio.AccountingBasis = v
	}
	if v := os.Getenv("JOURNAL_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("JOURNAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

func (c *Config) resolvePaths() {
	c.Storage.DBPath = expandHome(c.Storage.DBPath)
	c.Logging.FilePath = expandHome(c.Logging.FilePath)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := basis.ParseBasis(c.Portfolio.AccountingBasis); err != nil {
		return errors.Wrapf(errors.ErrConfigInvalid, "accounting_basis %q (must be 'accrual' or 'cash')", c.Portfolio.AccountingBasis)
	}
	if c.Portfolio.DefaultSize <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "default_size must be positive, got %v", c.Portfolio.DefaultSize)
	}
	if money.GetCurrency(strings.ToUpper(c.Portfolio.Currency)) == nil {
		return errors.Wrapf(errors.ErrConfigInvalid, "unknown currency %q", c.Portfolio.Currency)
	}
	if c.Storage.DBPath == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "db_path must be set")
	}
	return nil
}

// Basis returns the configured accounting basis.
func (c *Config) Basis() basis.Basis {
	b, err := basis.ParseBasis(c.Portfolio.AccountingBasis)
	if err != nil {
		return basis.Accrual
	}
	return b
}

// CurrencyCode returns the upper-cased ISO currency code.
func (c *Config) CurrencyCode() string {
	return strings.ToUpper(c.Portfolio.Currency)
}

// LogConfig converts the logging section for logging.NewLoggerWithConfig.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}

// ConfigPath returns the path of config.toml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, "config.toml")
}
