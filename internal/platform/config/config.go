package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LedgerConfig holds the bookkeeping limits threaded into the domain
// validators. It is passed explicitly, never read as ambient global state.
type LedgerConfig struct {
	MaxAccountDepth      int
	MaxPositionsPerEntry int
	AllowBackdated       bool
	MaxBackdateDays      int
	DefaultCurrency      string
}

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool
	RateLimit    string // ulule/limiter format, e.g. "100-M"
	Ledger       LedgerConfig
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("MAX_ACCOUNT_DEPTH", 6)
	viper.SetDefault("MAX_POSITIONS_PER_ENTRY", 50)
	viper.SetDefault("ALLOW_BACKDATED", true)
	viper.SetDefault("MAX_BACKDATE_DAYS", 365)
	viper.SetDefault("DEFAULT_CURRENCY", "EUR")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cfg.Ledger = LedgerConfig{
		MaxAccountDepth:      viper.GetInt("MAX_ACCOUNT_DEPTH"),
		MaxPositionsPerEntry: viper.GetInt("MAX_POSITIONS_PER_ENTRY"),
		AllowBackdated:       viper.GetBool("ALLOW_BACKDATED"),
		MaxBackdateDays:      viper.GetInt("MAX_BACKDATE_DAYS"),
		DefaultCurrency:      viper.GetString("DEFAULT_CURRENCY"),
	}

	if cfg.Ledger.MaxAccountDepth <= 0 {
		log.Printf("Warning: invalid MAX_ACCOUNT_DEPTH %d, defaulting to 6\n", cfg.Ledger.MaxAccountDepth)
		cfg.Ledger.MaxAccountDepth = 6
	}
	if cfg.Ledger.MaxPositionsPerEntry < 2 {
		log.Printf("Warning: invalid MAX_POSITIONS_PER_ENTRY %d, defaulting to 50\n", cfg.Ledger.MaxPositionsPerEntry)
		cfg.Ledger.MaxPositionsPerEntry = 50
	}
	if cfg.Ledger.DefaultCurrency == "" {
		cfg.Ledger.DefaultCurrency = "EUR"
	}

	return cfg, nil
}
