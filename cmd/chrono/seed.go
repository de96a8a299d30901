package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinoosan/chrono/internal/config"
	"github.com/tinoosan/chrono/internal/dataset"
	pgstore "github.com/tinoosan/chrono/internal/storage/postgres"
)

var seedDSN string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Copy the participants file into the Postgres participants table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(applySeedDSN)
		if err != nil {
			return err
		}
		dsn := cfg.DatabaseURL
		if dsn == "" {
			return errors.New("no database: pass --dsn or set DATABASE_URL")
		}
		logger := buildLogger(cfg.Log)

		opts := dataset.Options{Logger: logger}
		if cfg.Dataset.Strict {
			opts.Policy = dataset.Strict
		}
		ds, err := dataset.Load(cfg.Dataset.Path, opts)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		pg, err := pgstore.Open(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pg.Close()

		n, err := pg.Seed(ctx, ds)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "seeded %d participants into %s (%d skipped)\n", n, pgstore.Table, ds.Stats().Skipped)
		return nil
	},
}

// applySeedDSN lets --dsn stand in for DATABASE_URL before validation.
func applySeedDSN(cfg *config.Config) {
	if dsn := strings.TrimSpace(seedDSN); dsn != "" {
		cfg.DatabaseURL = dsn
	}
}

func init() {
	seedCmd.Flags().StringVar(&seedDSN, "dsn", "", "Postgres connection string (defaults to DATABASE_URL)")
	seedCmd.Flags().StringVar(&serveData, "data", "", "Participants file (overrides config and DATA_PATH)")
	rootCmd.AddCommand(seedCmd)
}
