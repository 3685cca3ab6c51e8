package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ymatsuda/caseload/internal/db"
	"github.com/ymatsuda/caseload/internal/exitcode"
	"github.com/ymatsuda/caseload/internal/logging"
	"github.com/ymatsuda/caseload/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the import API and case registry over HTTP",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&cfg.ListenAddr, "listen", "", "HTTP listen address (default :8080)")
	f.StringVar(&cfg.StaticDir, "static-dir", "", "Directory of front-end files to serve at / (optional)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if cfg.DSN == "" {
		log.Error().Msg("--dsn or DATABASE_URL is required")
		os.Exit(exitcode.UsageError)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	srv := server.New(pool, log, cfg.HeaderMap(), cfg.StaticDir)
	if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
		log.Error().Err(err).Msg("http server failed")
		os.Exit(exitcode.ServerError)
	}
	return nil
}
