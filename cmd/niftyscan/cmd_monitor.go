package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"niftyscan/internal/artifacts"
	"niftyscan/internal/cache"
	"niftyscan/internal/config"
	"niftyscan/internal/httpapi"
	"niftyscan/internal/metrics"
	"niftyscan/internal/notify"
	"niftyscan/internal/nse"
	"niftyscan/internal/persistence/postgres"
	"niftyscan/internal/scanner"
	"niftyscan/internal/universe"
)

// monitorCmd runs the intraday momentum analysis loop.
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the intraday momentum analysis loop",
	Long: `Poll NIFTY 50 prices on an interval, detect momentum shifts (last
traded price crossing its moving average) and print a ranked report of the
strongest movers when the analysis window elapses.

Example usage:
  niftyscan monitor
  niftyscan monitor --duration 30m --interval 30s --ma-period 5
  niftyscan monitor --dry-run --duration 2m --interval 2s
  niftyscan monitor --serve`,
	RunE: runMonitor,
}

var (
	monitorDuration time.Duration
	monitorInterval time.Duration
	monitorMAPeriod int
	monitorTopN     int
	monitorDryRun   bool
	monitorServe    bool
)

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().DurationVar(&monitorDuration, "duration", 0, "Analysis duration (default from config)")
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 0, "Fetch interval (default from config)")
	monitorCmd.Flags().IntVar(&monitorMAPeriod, "ma-period", 0, "Moving average period (default from config)")
	monitorCmd.Flags().IntVar(&monitorTopN, "top-n", 0, "Ranked shifts to report per direction (default from config)")
	monitorCmd.Flags().BoolVar(&monitorDryRun, "dry-run", false, "Use synthetic quotes instead of live NSE data")
	monitorCmd.Flags().BoolVar(&monitorServe, "serve", false, "Expose the HTTP API while the scan runs")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyMonitorFlags(&cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.New().String()[:8]

	opts := scanner.Options{
		RunID:          runID,
		MAPeriod:       cfg.Analysis.MAPeriod,
		HistorySize:    cfg.Analysis.HistorySize,
		TopN:           cfg.Analysis.TopN,
		RecentShifts:   cfg.Analysis.RecentShifts,
		Interval:       cfg.Analysis.Interval(),
		Duration:       cfg.Analysis.Duration(),
		MomentumWindow: cfg.Analysis.MomentumWindow(),
		ResultsJSON:    cfg.Paths.ResultsJSON,
		ResultsCSV:     cfg.Paths.ResultsCSV,
	}

	deps := scanner.Deps{
		Metrics:  metrics.NewRegistry(),
		Writer:   artifacts.NewWriter(cfg.Paths.ArtifactsDir),
		Notifier: notify.NewNotifier(cfg.Alerts, log.Logger),
		Logger:   log.Logger,
	}

	if deps.Source, err = buildSource(ctx, cfg); err != nil {
		return err
	}

	var snapshots *cache.SnapshotCache
	if cfg.Redis.Enabled() {
		sc := cache.NewSnapshotCache(cache.NewClient(cfg.Redis), cfg.Redis.TTL())
		if err := sc.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Redis unreachable, snapshot caching disabled")
		} else {
			snapshots = sc
			deps.Snapshots = sc
			defer sc.Close()
		}
	}

	if cfg.Postgres.Enabled() {
		db, err := postgres.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		timeout := cfg.Postgres.QueryTimeout()
		deps.Ticks = postgres.NewTicksRepo(db, timeout)
		deps.Shifts = postgres.NewShiftsRepo(db, timeout)
		deps.Reports = postgres.NewReportsRepo(db, timeout)
		log.Info().Msg("Postgres persistence enabled")
	}

	scan, err := scanner.New(opts, deps)
	if err != nil {
		return fmt.Errorf("create scanner: %w", err)
	}

	if monitorServe {
		apiDeps := httpapi.Deps{
			State:    scan,
			Gatherer: deps.Metrics.Gatherer(),
			History:  deps.Shifts,
		}
		if snapshots != nil {
			apiDeps.Snapshots = snapshots
		}
		api := httpapi.NewServer(cfg.Server, apiDeps, log.Logger)
		go func() {
			if err := api.Start(); err != nil {
				log.Error().Err(err).Msg("HTTP API stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			api.Shutdown(shutdownCtx)
		}()
	}

	report, err := scan.Run(ctx)
	if err != nil {
		return fmt.Errorf("momentum scan failed: %w", err)
	}

	scanner.PrintReport(os.Stdout, report)

	log.Info().
		Str("run_id", runID).
		Int("total_shifts", report.TotalShifts).
		Str("results", cfg.Paths.ResultsJSON).
		Msg("Momentum analysis completed")
	return nil
}

// applyMonitorFlags overrides config values with explicitly set flags.
func applyMonitorFlags(cfg *config.Config) {
	if monitorDuration > 0 {
		cfg.Analysis.DurationMinutes = int(monitorDuration.Minutes())
		if cfg.Analysis.DurationMinutes < 1 {
			cfg.Analysis.DurationMinutes = 1
		}
	}
	if monitorInterval > 0 {
		cfg.Analysis.IntervalSeconds = int(monitorInterval.Seconds())
		if cfg.Analysis.IntervalSeconds < 1 {
			cfg.Analysis.IntervalSeconds = 1
		}
	}
	if monitorMAPeriod > 0 {
		cfg.Analysis.MAPeriod = monitorMAPeriod
	}
	if monitorTopN > 0 {
		cfg.Analysis.TopN = monitorTopN
	}
}

// buildSource returns the synthetic walk for dry runs and the live NSE
// client otherwise. Live runs require a stored universe, matching the
// original workflow where the constituent list is fetched first.
func buildSource(ctx context.Context, cfg config.Config) (scanner.QuoteSource, error) {
	if monitorDryRun {
		prices := scanner.DefaultSyntheticPrices()
		if stocks, err := universe.LoadJSON(cfg.Paths.UniverseJSON); err == nil {
			prices = make(map[string]float64, len(stocks))
			for _, s := range stocks {
				prices[s.Symbol] = s.LastPrice
			}
		}
		log.Info().Int("symbols", len(prices)).Msg("Dry run: using synthetic quotes")
		return scanner.NewSyntheticSource(prices, time.Now().UnixNano()), nil
	}

	stocks, err := universe.LoadJSON(cfg.Paths.UniverseJSON)
	if err != nil {
		return nil, err
	}
	log.Info().Int("stocks", len(stocks)).Msg("Loaded NIFTY 50 universe")

	client, err := nse.NewClient(cfg.NSE, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("create NSE client: %w", err)
	}
	if err := client.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap NSE session: %w", err)
	}
	return client, nil
}
