package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niftyscan/internal/momentum"
	"niftyscan/internal/nse"
	"niftyscan/internal/persistence"
)

// scriptedSource replays price slices call by call, repeating the last one
// once the script is exhausted.
type scriptedSource struct {
	mu     sync.Mutex
	script [][]float64
	syms   []string
	call   int
	errAt  map[int]error
}

func newScripted(syms []string, script [][]float64) *scriptedSource {
	return &scriptedSource{syms: syms, script: script, errAt: map[int]error{}}
}

func (f *scriptedSource) FetchIndex(context.Context) ([]nse.IndexQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := f.call
	f.call++
	if err, ok := f.errAt[call]; ok {
		return nil, err
	}

	idx := call
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	prices := f.script[idx]

	at := time.Now()
	quotes := make([]nse.IndexQuote, len(f.syms))
	for i, sym := range f.syms {
		quotes[i] = nse.IndexQuote{Symbol: sym, LastPrice: prices[i], At: at}
	}
	return quotes, nil
}

type fakeStore struct {
	mu      sync.Mutex
	ticks   []persistence.Tick
	shifts  []persistence.Shift
	reports []persistence.Report
}

func (f *fakeStore) InsertBatch(_ context.Context, ticks []persistence.Tick) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks = append(f.ticks, ticks...)
	return nil
}

func (f *fakeStore) Insert(_ context.Context, shift persistence.Shift) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shifts = append(f.shifts, shift)
	return nil
}

func (f *fakeStore) ListBySymbol(context.Context, string, persistence.TimeRange, int) ([]persistence.Shift, error) {
	return nil, nil
}

type fakeReports struct {
	mu      sync.Mutex
	reports []persistence.Report
}

func (f *fakeReports) Insert(_ context.Context, r persistence.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, r)
	return nil
}

func testOptions(t *testing.T) Options {
	dir := t.TempDir()
	return Options{
		RunID:          "test-run",
		MAPeriod:       3,
		HistorySize:    10,
		TopN:           5,
		RecentShifts:   5,
		Interval:       10 * time.Millisecond,
		Duration:       time.Minute,
		MomentumWindow: time.Hour,
		ResultsJSON:    filepath.Join(dir, "results.json"),
		ResultsCSV:     filepath.Join(dir, "results.csv"),
	}
}

func TestNewRequiresSource(t *testing.T) {
	_, err := New(testOptions(t), Deps{Logger: zerolog.Nop()})
	assert.Error(t, err)
}

func TestIterateDetectsShiftAndUpdatesState(t *testing.T) {
	src := newScripted([]string{"TCS"}, [][]float64{{100}, {100}, {94}, {120}})
	store := &fakeStore{}

	s, err := New(testOptions(t), Deps{
		Source: src,
		Ticks:  store,
		Shifts: store,
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		s.iterate(ctx)
	}

	snap := s.Snapshot()
	assert.Equal(t, 4, snap.Iterations)
	assert.Equal(t, 1, snap.TotalShifts)
	require.Len(t, snap.RecentShifts, 1)
	assert.Equal(t, momentum.DirectionUp, snap.RecentShifts[0].Direction)
	assert.Equal(t, 120.0, snap.Quotes[0].LastPrice)

	// Persistence saw every tick and the one shift.
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.ticks, 4)
	require.Len(t, store.shifts, 1)
	assert.Equal(t, "test-run", store.shifts[0].RunID)
	assert.Equal(t, "upward", store.shifts[0].Direction)
}

func TestIterateSkipsFailedFetch(t *testing.T) {
	src := newScripted([]string{"TCS"}, [][]float64{{100}})
	src.errAt[0] = errors.New("nse down")

	s, err := New(testOptions(t), Deps{Source: src, Logger: zerolog.Nop()})
	require.NoError(t, err)

	s.iterate(context.Background())

	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Iterations)
	assert.Empty(t, snap.Quotes)
}

func TestFinalReportRanksAndSaves(t *testing.T) {
	opts := testOptions(t)
	src := newScripted([]string{"TCS"}, [][]float64{{100}, {100}, {94}, {120}, {126}})
	reports := &fakeReports{}

	s, err := New(opts, Deps{Source: src, Reports: reports, Logger: zerolog.Nop()})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		s.iterate(ctx)
	}

	// FinalReport performs one more fetch (126) before ranking.
	report, err := s.FinalReport(ctx)
	require.NoError(t, err)

	assert.Equal(t, "test-run", report.RunID)
	assert.Equal(t, 1, report.TotalShifts)
	require.Len(t, report.TopUpward, 1)
	assert.Empty(t, report.TopDownward)
	assert.Equal(t, "TCS", report.TopUpward[0].Symbol)
	assert.Equal(t, 126.0, report.TopUpward[0].CurrentPrice)
	assert.InDelta(t, 5.0, report.TopUpward[0].PctChange, 1e-9)

	// Fixed result files were written and load back.
	loaded, err := LoadReport(opts.ResultsJSON)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, loaded.RunID)
	require.Len(t, loaded.TopUpward, 1)

	reports.mu.Lock()
	defer reports.mu.Unlock()
	require.Len(t, reports.reports, 1)
	assert.Equal(t, 1, reports.reports[0].TotalShifts)
}

func TestRunStopsOnCancel(t *testing.T) {
	opts := testOptions(t)
	opts.Duration = time.Hour

	src := newScripted([]string{"TCS"}, [][]float64{{100}, {101}, {102}})
	s, err := New(opts, Deps{Source: src, Logger: zerolog.Nop()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	var report *Report
	go func() {
		report, err = s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancellation")
	}

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.GreaterOrEqual(t, s.Iterations(), 1)
}

func TestRunStopsAtDeadline(t *testing.T) {
	opts := testOptions(t)
	opts.Duration = 60 * time.Millisecond
	opts.Interval = 10 * time.Millisecond

	src := newScripted([]string{"TCS"}, [][]float64{{100}})
	s, err := New(opts, Deps{Source: src, Logger: zerolog.Nop()})
	require.NoError(t, err)

	start := time.Now()
	report, err := s.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.GreaterOrEqual(t, s.Iterations(), 2)
}

func TestSyntheticSourceDeterministic(t *testing.T) {
	a := NewSyntheticSource(DefaultSyntheticPrices(), 42)
	b := NewSyntheticSource(DefaultSyntheticPrices(), 42)

	qa, err := a.FetchIndex(context.Background())
	require.NoError(t, err)
	qb, err := b.FetchIndex(context.Background())
	require.NoError(t, err)

	require.Equal(t, len(qa), len(qb))
	for i := range qa {
		assert.Equal(t, qa[i].Symbol, qb[i].Symbol)
		assert.Equal(t, qa[i].LastPrice, qb[i].LastPrice)
	}
}

func TestSyntheticSourceWalks(t *testing.T) {
	src := NewSyntheticSource(map[string]float64{"TCS": 100}, 1)

	first, err := src.FetchIndex(context.Background())
	require.NoError(t, err)
	second, err := src.FetchIndex(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first[0].LastPrice, second[0].LastPrice)
}
