package scanner

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"niftyscan/internal/nse"
)

// SyntheticSource produces a deterministic random walk over a fixed symbol
// set. It backs dry runs so the loop, detector and reporting can be
// exercised without touching NSE.
type SyntheticSource struct {
	mu     sync.Mutex
	rng    *rand.Rand
	prices map[string]float64
	order  []string
	now    func() time.Time
}

// NewSyntheticSource seeds a walk starting at the given prices.
func NewSyntheticSource(start map[string]float64, seed int64) *SyntheticSource {
	prices := make(map[string]float64, len(start))
	order := make([]string, 0, len(start))
	for sym, p := range start {
		prices[sym] = p
		order = append(order, sym)
	}
	// Stable iteration order for reproducible walks.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && order[j] < order[j-1]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	return &SyntheticSource{
		rng:    rand.New(rand.NewSource(seed)),
		prices: prices,
		order:  order,
		now:    time.Now,
	}
}

// FetchIndex advances the walk one step and returns quotes for all symbols.
func (s *SyntheticSource) FetchIndex(_ context.Context) ([]nse.IndexQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	quotes := make([]nse.IndexQuote, 0, len(s.order))
	for _, sym := range s.order {
		// Steps of up to ±0.75% per tick keep crossovers frequent enough
		// for a short demo run.
		step := (s.rng.Float64() - 0.5) * 0.015
		s.prices[sym] *= 1 + step
		quotes = append(quotes, nse.IndexQuote{
			Symbol:      sym,
			CompanyName: sym,
			ISIN:        "NA",
			LastPrice:   s.prices[sym],
			PctChange:   step * 100,
			Volume:      int64(100000 + s.rng.Intn(900000)),
			At:          at,
		})
	}
	return quotes, nil
}

// DefaultSyntheticPrices is a small demo universe for dry runs without a
// saved constituent file.
func DefaultSyntheticPrices() map[string]float64 {
	return map[string]float64{
		"RELIANCE":  2945.0,
		"TCS":       3855.5,
		"HDFCBANK":  1640.0,
		"INFY":      1815.0,
		"ICICIBANK": 1195.0,
		"SBIN":      815.0,
		"ITC":       505.0,
		"LT":        3620.0,
	}
}
