package momentum

import (
	"math"
	"sort"
	"time"
)

// Ranked is a momentum shift scored against the current price.
type Ranked struct {
	Symbol       string        `json:"symbol"`
	Direction    Direction     `json:"direction"`
	ShiftAt      time.Time     `json:"shift_at"`
	PriceAtCross float64       `json:"price_at_cross"`
	CurrentPrice float64       `json:"current_price"`
	PctChange    float64       `json:"pct_change"`
	AbsPctChange float64       `json:"abs_pct_change"`
	SinceShift   time.Duration `json:"since_shift"`
}

// Rank scores every shift younger than window against the current price of
// its symbol and returns the results sorted by absolute percent change,
// largest first. Shifts for symbols without a current price are skipped.
func Rank(shifts map[string][]Shift, current map[string]float64, now time.Time, window time.Duration) []Ranked {
	var out []Ranked

	for symbol, list := range shifts {
		price, ok := current[symbol]
		if !ok {
			continue
		}
		for _, s := range list {
			age := now.Sub(s.At)
			if age > window || s.PriceAtCross == 0 {
				continue
			}
			pct := (price - s.PriceAtCross) / s.PriceAtCross * 100
			out = append(out, Ranked{
				Symbol:       symbol,
				Direction:    s.Direction,
				ShiftAt:      s.At,
				PriceAtCross: s.PriceAtCross,
				CurrentPrice: price,
				PctChange:    pct,
				AbsPctChange: math.Abs(pct),
				SinceShift:   age,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AbsPctChange != out[j].AbsPctChange {
			return out[i].AbsPctChange > out[j].AbsPctChange
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// TopMovers splits ranked shifts by direction and truncates each side to n.
func TopMovers(ranked []Ranked, n int) (upward, downward []Ranked) {
	for _, r := range ranked {
		switch r.Direction {
		case DirectionUp:
			if len(upward) < n {
				upward = append(upward, r)
			}
		case DirectionDown:
			if len(downward) < n {
				downward = append(downward, r)
			}
		}
	}
	return upward, downward
}
