package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinoosan/chrono/internal/config"
	"github.com/tinoosan/chrono/internal/dataset"
	"github.com/tinoosan/chrono/internal/errs"
	httpapi "github.com/tinoosan/chrono/internal/httpapi"
	"github.com/tinoosan/chrono/internal/service/participants"
	pgstore "github.com/tinoosan/chrono/internal/storage/postgres"
)

var (
	configPath string
	servePort  int
	serveData  string
)

var rootCmd = &cobra.Command{
	Use:           "chrono",
	Short:         "Chrono course demo API",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the participant dataset and start the HTTP API (default command)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML configuration file")
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides config and PORT)")
		c.Flags().StringVar(&serveData, "data", "", "Participants file (overrides config and DATA_PATH)")
	}
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "chrono:", err)
		os.Exit(1)
	}
}

// loadConfig applies command-line overrides on top of file and environment,
// then validates. extra runs after the shared flags.
func loadConfig(extra ...func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveData != "" {
		cfg.Dataset.Path = serveData
	}
	for _, fn := range extra {
		fn(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := buildLogger(cfg.Log)
	slog.SetDefault(logger)

	ds, ready, closeFn, err := loadDataset(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to load participants", "source", cfg.Dataset.Source, "err", err)
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpapi.New(participants.New(ds), cfg, ready, logger).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chrono api listening", "addr", srv.Addr, "prefix", "/"+cfg.URLPrefix)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
		return nil
	case err := <-errCh:
		logger.Error("server error", "err", err)
		return err
	}
}

// loadDataset reads the participants once, from the CSV file or Postgres.
// The returned ReadyChecker is nil for the file source.
func loadDataset(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dataset.Dataset, httpapi.ReadyChecker, func(), error) {
	opts := dataset.Options{Logger: logger}
	if cfg.Dataset.Strict {
		opts.Policy = dataset.Strict
	}
	start := time.Now()
	switch cfg.Dataset.Source {
	case config.SourceCSV:
		ds, err := dataset.Load(cfg.Dataset.Path, opts)
		if err != nil {
			return nil, nil, nil, err
		}
		logDataset(logger, cfg.Dataset.Path, ds, start)
		return ds, nil, nil, nil
	case config.SourcePostgres:
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		ds, err := pg.LoadDataset(ctx, cfg.Dataset.Query, opts)
		if err != nil {
			pg.Close()
			return nil, nil, nil, err
		}
		logDataset(logger, "postgres", ds, start)
		return ds, pg, pg.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("%w: %q", errs.ErrUnsupportedSource, cfg.Dataset.Source)
	}
}

func logDataset(l *slog.Logger, from string, ds *dataset.Dataset, start time.Time) {
	st := ds.Stats()
	l.Info("participants loaded",
		"from", from,
		"records", ds.Len(),
		"skipped", st.Skipped,
		"fields", ds.Schema().Fields(),
		"duration", time.Since(start).String(),
	)
}

// parseLogLevel maps config values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(c config.LogConfig) *slog.Logger {
	level := parseLogLevel(c.Level)
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
