// Package scanner runs the intraday momentum analysis loop: poll NSE on an
// interval, feed prices into the crossover detector, surface shifts as they
// happen and produce a ranked report at the end of the run.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"niftyscan/internal/artifacts"
	"niftyscan/internal/cache"
	"niftyscan/internal/metrics"
	"niftyscan/internal/momentum"
	"niftyscan/internal/notify"
	"niftyscan/internal/nse"
	"niftyscan/internal/persistence"
)

// QuoteSource supplies live index quotes. Implemented by the NSE client and
// by the synthetic source used for dry runs.
type QuoteSource interface {
	FetchIndex(ctx context.Context) ([]nse.IndexQuote, error)
}

// Options holds the per-run analysis parameters.
type Options struct {
	RunID          string
	MAPeriod       int
	HistorySize    int
	TopN           int
	RecentShifts   int
	Interval       time.Duration
	Duration       time.Duration
	MomentumWindow time.Duration
	ResultsJSON    string
	ResultsCSV     string
}

// Deps wires the scanner's collaborators. Notifier, Snapshots and the
// repositories may be nil; the loop treats them as disabled.
type Deps struct {
	Source    QuoteSource
	Metrics   *metrics.Registry
	Writer    *artifacts.Writer
	Notifier  *notify.Notifier
	Snapshots *cache.SnapshotCache
	Ticks     persistence.TicksRepo
	Shifts    persistence.ShiftsRepo
	Reports   persistence.ReportsRepo
	Logger    zerolog.Logger
}

// Scanner drives the polling loop and owns the in-memory scan state.
type Scanner struct {
	opts Options
	deps Deps
	det  *momentum.Detector
	log  zerolog.Logger

	clock func() time.Time

	mu         sync.RWMutex
	latest     map[string]float64
	quotes     []nse.IndexQuote
	updatedAt  time.Time
	iterations int
}

// New creates a scanner. Source is required; everything else in Deps is
// optional except Metrics and Writer, which New fills in when absent.
func New(opts Options, deps Deps) (*Scanner, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("scanner requires a quote source")
	}
	if opts.MAPeriod < 2 {
		return nil, fmt.Errorf("ma period must be at least 2, got %d", opts.MAPeriod)
	}
	if opts.Interval <= 0 || opts.Duration <= 0 {
		return nil, fmt.Errorf("interval and duration must be positive")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewRegistry()
	}
	if deps.Writer == nil {
		deps.Writer = artifacts.NewWriter("artifacts")
	}

	return &Scanner{
		opts:   opts,
		deps:   deps,
		det:    momentum.NewDetector(opts.MAPeriod, opts.HistorySize),
		log:    deps.Logger,
		clock:  time.Now,
		latest: make(map[string]float64),
	}, nil
}

// Run executes the polling loop until the configured duration elapses or
// ctx is cancelled, then produces the final report. Cancellation is not an
// error: the report covers whatever was observed.
func (s *Scanner) Run(ctx context.Context) (*Report, error) {
	s.log.Info().
		Str("run_id", s.opts.RunID).
		Int("ma_period", s.opts.MAPeriod).
		Dur("interval", s.opts.Interval).
		Dur("duration", s.opts.Duration).
		Msg("Starting momentum analysis")

	deadline := s.clock().Add(s.opts.Duration)
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.iterate(ctx)

loop:
	for s.clock().Before(deadline) {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Scan cancelled, generating report from observed data")
			break loop
		case <-ticker.C:
			if !s.clock().Before(deadline) {
				break loop
			}
			s.iterate(ctx)
		}
	}

	s.log.Info().Int("iterations", s.Iterations()).Msg("Analysis window elapsed")
	return s.FinalReport(ctx)
}

// iterate performs one fetch-observe-publish cycle.
func (s *Scanner) iterate(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.deps.Metrics.ScanIterations.Inc()

	start := s.clock()
	quotes, err := s.deps.Source.FetchIndex(ctx)
	s.deps.Metrics.FetchLatency.Observe(s.clock().Sub(start).Seconds())
	if err != nil {
		s.deps.Metrics.FetchErrors.Inc()
		s.log.Error().Err(err).Msg("Index fetch failed, skipping iteration")
		return
	}
	s.deps.Metrics.QuotesFetched.Add(float64(len(quotes)))

	var newShifts []momentum.Shift
	for _, q := range quotes {
		if shift, ok := s.det.Observe(q.Symbol, q.LastPrice, q.At); ok {
			newShifts = append(newShifts, shift)
			s.deps.Metrics.ShiftsDetected.WithLabelValues(string(shift.Direction)).Inc()
			s.log.Info().
				Str("symbol", shift.Symbol).
				Str("direction", string(shift.Direction)).
				Float64("price", shift.PriceAtCross).
				Float64("ma", shift.MAAtCross).
				Msg("Momentum shift detected")
		}
	}

	s.mu.Lock()
	s.quotes = quotes
	for _, q := range quotes {
		s.latest[q.Symbol] = q.LastPrice
	}
	s.updatedAt = s.clock()
	s.iterations++
	iteration := s.iterations
	s.mu.Unlock()

	s.deps.Metrics.TrackedSymbols.Set(float64(s.det.Symbols()))

	s.publish(ctx, quotes, newShifts)

	s.log.Info().
		Int("iteration", iteration).
		Int("quotes", len(quotes)).
		Int("new_shifts", len(newShifts)).
		Int("total_shifts", s.det.TotalShifts()).
		Msg("Iteration complete")

	for _, shift := range s.det.RecentShifts(s.opts.RecentShifts) {
		s.log.Debug().
			Str("symbol", shift.Symbol).
			Str("direction", string(shift.Direction)).
			Time("at", shift.At).
			Msg("Recent shift")
	}
}

// publish fans the iteration's output to the optional sinks. Sink failures
// are logged, never fatal: the in-memory analysis is the source of truth.
func (s *Scanner) publish(ctx context.Context, quotes []nse.IndexQuote, shifts []momentum.Shift) {
	if s.deps.Snapshots != nil {
		if err := s.deps.Snapshots.SetSnapshot(ctx, quotes); err != nil {
			s.log.Warn().Err(err).Msg("Snapshot cache update failed")
		}
	}

	if s.deps.Ticks != nil {
		ticks := make([]persistence.Tick, len(quotes))
		for i, q := range quotes {
			ticks[i] = persistence.Tick{Symbol: q.Symbol, Price: q.LastPrice, Volume: q.Volume, At: q.At}
		}
		if err := s.deps.Ticks.InsertBatch(ctx, ticks); err != nil {
			s.log.Warn().Err(err).Msg("Tick persistence failed")
		}
	}

	if s.deps.Shifts != nil {
		for _, shift := range shifts {
			row := persistence.Shift{
				RunID:        s.opts.RunID,
				Symbol:       shift.Symbol,
				Direction:    string(shift.Direction),
				PriceAtCross: shift.PriceAtCross,
				MAAtCross:    shift.MAAtCross,
				At:           shift.At,
			}
			if err := s.deps.Shifts.Insert(ctx, row); err != nil {
				s.log.Warn().Err(err).Str("symbol", shift.Symbol).Msg("Shift persistence failed")
			}
		}
	}

	if err := s.deps.Notifier.NotifyShifts(shifts); err != nil {
		s.log.Warn().Err(err).Msg("Shift notification failed")
	}
}

// Iterations returns the number of completed fetch cycles.
func (s *Scanner) Iterations() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.iterations
}

// Snapshot is the scanner's current state as served by the HTTP API.
type Snapshot struct {
	RunID        string            `json:"run_id"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Iterations   int               `json:"iterations"`
	TotalShifts  int               `json:"total_shifts"`
	Quotes       []nse.IndexQuote  `json:"quotes"`
	RecentShifts []momentum.Shift  `json:"recent_shifts"`
	Rankings     []momentum.Ranked `json:"rankings"`
}

// Snapshot returns a copy of the current scan state with rankings computed
// against the latest prices.
func (s *Scanner) Snapshot() Snapshot {
	s.mu.RLock()
	quotes := make([]nse.IndexQuote, len(s.quotes))
	copy(quotes, s.quotes)
	latest := make(map[string]float64, len(s.latest))
	for k, v := range s.latest {
		latest[k] = v
	}
	updatedAt := s.updatedAt
	iterations := s.iterations
	s.mu.RUnlock()

	return Snapshot{
		RunID:        s.opts.RunID,
		UpdatedAt:    updatedAt,
		Iterations:   iterations,
		TotalShifts:  s.det.TotalShifts(),
		Quotes:       quotes,
		RecentShifts: s.det.RecentShifts(s.opts.RecentShifts),
		Rankings:     momentum.Rank(s.det.AllShifts(), latest, s.clock(), s.opts.MomentumWindow),
	}
}

// latestPrices returns a copy of the newest price per symbol.
func (s *Scanner) latestPrices() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.latest))
	for k, v := range s.latest {
		out[k] = v
	}
	return out
}
