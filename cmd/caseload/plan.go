package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ymatsuda/caseload/internal/csvread"
	"github.com/ymatsuda/caseload/internal/exitcode"
	"github.com/ymatsuda/caseload/internal/ingest"
	"github.com/ymatsuda/caseload/internal/logging"
	"github.com/ymatsuda/caseload/internal/normalize"
	"github.com/ymatsuda/caseload/internal/remarks"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run decode/validate/build and print stats (no writes)",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&cfg.FilePath, "file", "", "Path to CSV file (required)")
	_ = planCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("read csv file failed")
		os.Exit(exitcode.UsageError)
	}

	table, err := csvread.Read(data)
	if err != nil {
		log.Error().Err(err).Msg("decode failed")
		os.Exit(exitcode.DecodeError)
	}

	table.MapHeaders(cfg.HeaderMap())
	if err := table.ValidateRequired(); err != nil {
		log.Error().Err(err).Msg("header validation failed")
		os.Exit(exitcode.ValidationError)
	}

	build, err := ingest.BuildCases(table)
	if err != nil {
		log.Error().Err(err).Msg("row validation failed")
		os.Exit(exitcode.ValidationError)
	}

	var usageCount, withRemarks int
	for _, c := range build.Cases {
		items := remarks.Tokenize(c.Remarks)
		usageCount += len(items)
		if len(items) > 0 {
			withRemarks++
		}
	}

	fmt.Println("=== caseload plan ===")
	fmt.Printf("File:               %s\n", filepath.Base(cfg.FilePath))
	fmt.Printf("SHA-256:            %s\n", normalize.DataHash(data))
	fmt.Printf("Rows read:          %d\n", build.RowsRead)
	fmt.Printf("Cases to import:    %d\n", len(build.Cases))
	fmt.Printf("Duplicates dropped: %d\n", build.DuplicatesDropped)
	fmt.Printf("Rows without id:    %d\n", build.SkippedNoID)
	fmt.Printf("Usage line items:   %d (from %d cases with ★ entries)\n", usageCount, withRemarks)
	fmt.Println("Validation: OK")

	return nil
}
