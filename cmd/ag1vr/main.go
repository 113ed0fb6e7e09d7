package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/pcgujuancarlos/AG1VR/config"
	"github.com/pcgujuancarlos/AG1VR/internal/adapters/notify"
	"github.com/pcgujuancarlos/AG1VR/internal/adapters/polygon"
	"github.com/pcgujuancarlos/AG1VR/internal/adapters/storage"
	"github.com/pcgujuancarlos/AG1VR/internal/application/evaluator"
)

const dateLayout = "2006-01-02"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	dateStr := flag.String("date", "", "analysis date YYYY-MM-DD (default: today)")
	tickersFlag := flag.String("tickers", "", "comma-separated tickers (overrides config)")
	table := flag.Bool("table", false, "print full table (default: compact 1-line)")
	validate := flag.Bool("validate", false, "print step-by-step calculation for fired signals")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	backfillDays := flag.Int("backfill", 0, "walk N days of history per ticker and persist outcomes")
	dryRun := flag.Bool("dry-run", false, "use in-memory storage, persist nothing")
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
	setupLogger(cfg.Log)

	date, err := parseDate(*dateStr)
	if err != nil {
		slog.Error("invalid -date", "err", err, "value", *dateStr)
		os.Exit(1)
	}

	tickers := resolveTickers(*tickersFlag, cfg)
	if len(tickers) == 0 {
		slog.Error("no tickers to evaluate: config has no tickers section and -tickers is empty")
		os.Exit(1)
	}

	slog.Info("ag1vr starting",
		"config", *configPath,
		"date", date.Format(dateLayout),
		"tickers", len(tickers),
		"policy", cfg.Analysis.SignalPolicy,
		"selection", cfg.Analysis.SelectionPolicy,
		"dry_run", *dryRun,
	)

	client := polygon.NewClient(cfg.API.PolygonBase, cfg.API.PolygonKey, cfg.Analysis.IntradayMinutes)

	dsn := cfg.Storage.DSN
	if *dryRun {
		dsn = ":memory:"
	}
	store, err := storage.NewSQLiteStore(dsn, cfg.Analysis.GainCapPct)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", dsn)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewConsole(*table, *validate)

	eval := evaluator.New(cfg, client, client, store)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *backfillDays > 0 {
		runBackfill(ctx, eval, tickers, *backfillDays, date)
		return
	}

	evals := eval.EvaluateAll(ctx, tickers, date)
	if err := notifier.Notify(ctx, evals); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	if ctx.Err() != nil {
		slog.Warn("interrupted before completing all tickers")
		os.Exit(1)
	}
	slog.Info("ag1vr done")
}

func runBackfill(ctx context.Context, eval *evaluator.Evaluator, tickers []string, days int, end time.Time) {
	slog.Info("backfill starting", "days", days, "end", end.Format(dateLayout), "tickers", len(tickers))

	stats, err := eval.Backfill(ctx, tickers, days, end)
	if err != nil {
		slog.Error("backfill aborted", "err", err,
			"days_walked", stats.DaysWalked, "signals", stats.Signals, "persisted", stats.Persisted)
		os.Exit(1)
	}

	slog.Info("ag1vr backfill done",
		"days_walked", stats.DaysWalked,
		"signals", stats.Signals,
		"persisted", stats.Persisted,
	)
}

// parseDate interpreta -date, o devuelve el día de hoy en UTC si está vacío.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(dateLayout, s)
}

// resolveTickers usa -tickers si se pasó; si no, todos los del config en orden
// alfabético para que las ejecuciones sean reproducibles.
func resolveTickers(flagValue string, cfg *config.Config) []string {
	if flagValue != "" {
		parts := strings.Split(flagValue, ",")
		tickers := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.ToUpper(strings.TrimSpace(p)); t != "" {
				tickers = append(tickers, t)
			}
		}
		return tickers
	}

	tickers := make([]string, 0, len(cfg.Tickers))
	for name := range cfg.Tickers {
		tickers = append(tickers, name)
	}
	sort.Strings(tickers)
	return tickers
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
