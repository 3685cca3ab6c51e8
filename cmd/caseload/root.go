package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ymatsuda/caseload/internal/config"
	"github.com/ymatsuda/caseload/internal/exitcode"
)

var cfg config.Config
var configPath string

var rootCmd = &cobra.Command{
	Use:   "caseload",
	Short: "Surgical-case CSV → Postgres reconciliation service",
	Long:  "Imports surgical-case CSV exports (CP932/UTF-8) into Postgres, extracting consumable-usage line items from the nursing-remarks field, and serves the case registry over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			return cfg.LoadFromFile(configPath)
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&configPath, "config", "", "Path to YAML config file (header aliases, listen address)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitcode.UsageError)
	}
}
