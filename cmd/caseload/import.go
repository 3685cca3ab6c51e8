package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ymatsuda/caseload/internal/csvread"
	"github.com/ymatsuda/caseload/internal/db"
	"github.com/ymatsuda/caseload/internal/exitcode"
	"github.com/ymatsuda/caseload/internal/ingest"
	"github.com/ymatsuda/caseload/internal/logging"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a surgical-case CSV file into the database",
	RunE:  runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to CSV file (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("read csv file failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	summary, err := ingest.Run(ctx, pool, log, cfg.HeaderMap(), filepath.Base(cfg.FilePath), data)
	if err != nil {
		var pe *ingest.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("import failed")
		} else {
			log.Error().Err(err).Msg("import failed")
		}

		var decodeErr *csvread.DecodeError
		var emptyErr *csvread.EmptyInputError
		var validErr *csvread.ValidationError
		switch {
		case errors.As(err, &decodeErr), errors.As(err, &emptyErr):
			os.Exit(exitcode.DecodeError)
		case errors.As(err, &validErr):
			os.Exit(exitcode.ValidationError)
		default:
			os.Exit(exitcode.ImportError)
		}
	}

	fmt.Printf("Import complete: %d cases (%d new, %d updated), %d usage rows (%.1fs)\n",
		summary.CasesInserted+summary.CasesUpdated,
		summary.CasesInserted, summary.CasesUpdated,
		summary.UsageRows, summary.DurationTotal.Seconds())
	return nil
}
