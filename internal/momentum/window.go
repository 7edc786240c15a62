// Package momentum implements the rolling price window, moving-average
// crossover detection and shift ranking for the intraday scanner.
package momentum

import "time"

// Point is a single price observation.
type Point struct {
	At    time.Time
	Price float64
}

// Window is a fixed-capacity ring buffer of price points. Once full, each
// push evicts the oldest point.
type Window struct {
	buf   []Point
	start int
	size  int
}

// NewWindow creates a window holding at most capacity points.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]Point, capacity)}
}

// Push appends a point, evicting the oldest when full.
func (w *Window) Push(p Point) {
	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = p
		w.size++
		return
	}
	w.buf[w.start] = p
	w.start = (w.start + 1) % len(w.buf)
}

// Len returns the number of points currently held.
func (w *Window) Len() int { return w.size }

// At returns the i-th oldest point.
func (w *Window) At(i int) Point {
	return w.buf[(w.start+i)%len(w.buf)]
}

// Last returns the newest point and whether one exists.
func (w *Window) Last() (Point, bool) {
	if w.size == 0 {
		return Point{}, false
	}
	return w.At(w.size - 1), true
}

// SMA returns the simple moving average over the newest n points. It
// reports false until at least n points have been observed.
func (w *Window) SMA(n int) (float64, bool) {
	if n <= 0 || w.size < n {
		return 0, false
	}
	var sum float64
	for i := w.size - n; i < w.size; i++ {
		sum += w.At(i).Price
	}
	return sum / float64(n), true
}
