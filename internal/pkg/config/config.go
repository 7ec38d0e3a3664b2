package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is populated once in main
// and passed explicitly into every component; there is no global path state.
type Config struct {
	LogLevel         string   `env:"LOG_LEVEL" envDefault:"info"`
	StorePath        string   `env:"BANDICOOT_DB_PATH"`
	UserReportDir    string   `env:"BANDICOOT_USER_REPORT_DIR"`
	SystemReportDir  string   `env:"BANDICOOT_SYSTEM_REPORT_DIR" envDefault:"/Library/Logs/DiagnosticReports"`
	RulesPath        string   `env:"BANDICOOT_RULES_PATH"`
	ReportExtensions []string `env:"BANDICOOT_REPORT_EXTENSIONS" envDefault:".crash,.ips,.panic,.hang,.spin"`

	// Flag-driven settings, merged in by main after pflag parsing.
	Verbose   bool
	Wipe      bool
	AssumeYes bool
	NoBackup  bool

	// StorePathExplicit records that the store path came from the --db flag
	// or BANDICOOT_DB_PATH rather than the home-directory default. Explicit
	// paths skip the first-run directory-creation prompt.
	StorePathExplicit bool
}

// Load reads configuration from environment variables and fills in the
// home-directory-derived defaults for paths left unset.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.StorePath != "" {
		cfg.StorePathExplicit = true
	}

	home, err := os.UserHomeDir()
	if err != nil && (cfg.StorePath == "" || cfg.UserReportDir == "") {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	if cfg.StorePath == "" {
		cfg.StorePath = filepath.Join(home, ".bandicoot", "crash_logs.db")
	}
	if cfg.UserReportDir == "" {
		cfg.UserReportDir = filepath.Join(home, "Library", "Logs", "DiagnosticReports")
	}

	return cfg, nil
}
