package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/ritmm/config"
	"github.com/alejandrodnm/ritmm/internal/adapters/capture"
	"github.com/alejandrodnm/ritmm/internal/adapters/metrics"
	"github.com/alejandrodnm/ritmm/internal/adapters/notify"
	"github.com/alejandrodnm/ritmm/internal/adapters/rit"
	"github.com/alejandrodnm/ritmm/internal/adapters/storage"
	"github.com/alejandrodnm/ritmm/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print a full table per cycle (default: compact 1-line)")
	report := flag.Bool("report", false, "print the journal summary of recent sessions and exit")
	sessions := flag.Int("sessions", 5, "number of sessions shown by -report")
	captureDir := flag.String("capture", "", "dump OHLC/TAS CSVs to DIR at session end (overrides config)")
	noJournal := flag.Bool("no-journal", false, "do not persist cycles to SQLite")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *captureDir != "" {
		cfg.Capture.Dir = *captureDir
	}
	setupLogger(cfg.Log)

	if *report {
		if err := runReport(cfg.Storage.DSN, *sessions); err != nil {
			slog.Error("report failed", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		return
	}

	if cfg.API.APIKey == "" {
		slog.Warn("no API key configured (set RIT_API_KEY)")
	}

	slog.Info("ritmm starting",
		"config", *configPath,
		"ticker", cfg.Strategy.Ticker,
		"base_url", cfg.API.BaseURL,
		"poll", cfg.PollInterval(),
		"journal", !*noJournal,
		"metrics", cfg.Metrics.Addr,
		"capture", cfg.Capture.Dir,
	)

	client := rit.NewClient(cfg.API.BaseURL, cfg.API.APIKey, cfg.Strategy.Ticker, cfg.API.RequestsPerSec)

	var journal ports.Journal
	if !*noJournal {
		store, err := storage.NewSQLiteJournal(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open journal", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
		journal = store
	}

	notifiers := []ports.Notifier{notify.NewConsole(*table)}
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		notifiers = append(notifiers, metrics.NewRecorder(reg))
		srv := metrics.Serve(cfg.Metrics.Addr, reg)
		defer srv.Close()
		slog.Info("metrics listening", "addr", cfg.Metrics.Addr)
	}

	eng, err := buildEngine(cfg, client, journal, notifiers...)
	if err != nil {
		slog.Error("failed to build engine", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runErr := eng.Run(ctx)
	cancelResting(client)

	if runErr != nil {
		slog.Error("engine exited with error", "err", runErr)
		os.Exit(1)
	}

	if cfg.Capture.Dir != "" {
		dumpCapture(cfg.Capture.Dir, client, eng.Session().ID)
	}

	slog.Info("ritmm stopped cleanly", "session", eng.Session().ID, "cycles", eng.Session().Cycles)
}

func runReport(dsn string, n int) error {
	store, err := storage.NewSQLiteJournal(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.RecentSessions(context.Background(), n)
	if err != nil && !errors.Is(err, storage.ErrNoSessions) {
		return err
	}
	notify.PrintSessionReport(os.Stdout, summaries)
	return nil
}

// cancelResting deja el libro limpio al salir; usa un contexto propio
// porque el de la sesión ya puede estar cancelado.
func cancelResting(ex ports.Exchange) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ex.CancelAll(ctx); err != nil {
		slog.Warn("final cancel all failed", "err", err)
	}
}

func dumpCapture(dir string, src capture.MarketData, sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tag := sessionID
	if len(tag) > 8 {
		tag = tag[:8]
	}
	files, err := capture.NewWriter(dir).Dump(ctx, src, tag)
	if err != nil {
		slog.Warn("market data capture failed", "err", err, "dir", dir)
		return
	}
	slog.Info("market data captured", "ohlc", files.OHLC, "tas", files.TAS, "tasagg", files.TASAggr)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
