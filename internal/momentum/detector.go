package momentum

import (
	"sort"
	"sync"
	"time"
)

// Direction is the side of a moving-average cross.
type Direction string

const (
	DirectionUp   Direction = "upward"
	DirectionDown Direction = "downward"
)

// Shift records a price crossing its moving average.
type Shift struct {
	Symbol       string    `json:"symbol"`
	At           time.Time `json:"at"`
	Direction    Direction `json:"direction"`
	PriceAtCross float64   `json:"price_at_cross"`
	MAAtCross    float64   `json:"ma_at_cross"`
}

// Detector tracks per-symbol price windows and emits a Shift whenever the
// last traded price crosses its simple moving average. The first
// observation with a valid MA only seeds the above/below state; a shift is
// emitted strictly on a state transition.
type Detector struct {
	maPeriod int
	capacity int

	mu      sync.RWMutex
	windows map[string]*Window
	aboveMA map[string]bool
	shifts  map[string][]Shift
}

// NewDetector creates a detector with the given MA period and per-symbol
// window capacity.
func NewDetector(maPeriod, capacity int) *Detector {
	if capacity < maPeriod {
		capacity = maPeriod
	}
	return &Detector{
		maPeriod: maPeriod,
		capacity: capacity,
		windows:  make(map[string]*Window),
		aboveMA:  make(map[string]bool),
		shifts:   make(map[string][]Shift),
	}
}

// MAPeriod returns the configured moving-average period.
func (d *Detector) MAPeriod() int { return d.maPeriod }

// Observe records a price point and returns the resulting shift, if any.
// A price exactly equal to the MA counts as below it.
func (d *Detector) Observe(symbol string, price float64, at time.Time) (Shift, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, ok := d.windows[symbol]
	if !ok {
		w = NewWindow(d.capacity)
		d.windows[symbol] = w
	}
	w.Push(Point{At: at, Price: price})

	ma, ok := w.SMA(d.maPeriod)
	if !ok {
		return Shift{}, false
	}

	above := price > ma
	prev, seeded := d.aboveMA[symbol]
	d.aboveMA[symbol] = above

	if !seeded || above == prev {
		return Shift{}, false
	}

	shift := Shift{
		Symbol:       symbol,
		At:           at,
		Direction:    DirectionDown,
		PriceAtCross: price,
		MAAtCross:    ma,
	}
	if above {
		shift.Direction = DirectionUp
	}
	d.shifts[symbol] = append(d.shifts[symbol], shift)
	return shift, true
}

// Shifts returns all recorded shifts for a symbol, oldest first.
func (d *Detector) Shifts(symbol string) []Shift {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Shift, len(d.shifts[symbol]))
	copy(out, d.shifts[symbol])
	return out
}

// AllShifts returns every recorded shift keyed by symbol.
func (d *Detector) AllShifts() map[string][]Shift {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string][]Shift, len(d.shifts))
	for sym, shifts := range d.shifts {
		cp := make([]Shift, len(shifts))
		copy(cp, shifts)
		out[sym] = cp
	}
	return out
}

// TotalShifts returns the number of shifts recorded across all symbols.
func (d *Detector) TotalShifts() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	total := 0
	for _, shifts := range d.shifts {
		total += len(shifts)
	}
	return total
}

// RecentShifts returns the n most recent shifts across all symbols,
// newest last.
func (d *Detector) RecentShifts(n int) []Shift {
	d.mu.RLock()
	all := make([]Shift, 0, 16)
	for _, shifts := range d.shifts {
		all = append(all, shifts...)
	}
	d.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].At.Before(all[j].At) })
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

// Symbols returns the number of symbols with at least one observation.
func (d *Detector) Symbols() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.windows)
}
