package momentum

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(price float64) Point {
	return Point{At: time.Now(), Price: price}
}

func TestWindowPushAndEvict(t *testing.T) {
	w := NewWindow(3)
	assert.Equal(t, 0, w.Len())

	w.Push(pt(1))
	w.Push(pt(2))
	w.Push(pt(3))
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 1.0, w.At(0).Price)

	// Fourth push evicts the oldest.
	w.Push(pt(4))
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 2.0, w.At(0).Price)
	assert.Equal(t, 4.0, w.At(2).Price)

	last, ok := w.Last()
	require.True(t, ok)
	assert.Equal(t, 4.0, last.Price)
}

func TestWindowLastEmpty(t *testing.T) {
	w := NewWindow(2)
	_, ok := w.Last()
	assert.False(t, ok)
}

func TestSMAInsufficientPoints(t *testing.T) {
	w := NewWindow(10)
	w.Push(pt(100))
	w.Push(pt(102))

	_, ok := w.SMA(3)
	assert.False(t, ok)
}

func TestSMAOverNewestPoints(t *testing.T) {
	w := NewWindow(10)
	for _, p := range []float64{1, 2, 3, 4, 5} {
		w.Push(pt(p))
	}

	ma, ok := w.SMA(3)
	require.True(t, ok)
	assert.InDelta(t, 4.0, ma, 1e-9) // mean of 3,4,5

	ma, ok = w.SMA(5)
	require.True(t, ok)
	assert.InDelta(t, 3.0, ma, 1e-9)
}

func TestSMAAfterWrap(t *testing.T) {
	w := NewWindow(4)
	for _, p := range []float64{10, 20, 30, 40, 50, 60} {
		w.Push(pt(p))
	}

	// Window now holds 30,40,50,60.
	ma, ok := w.SMA(4)
	require.True(t, ok)
	assert.InDelta(t, 45.0, ma, 1e-9)
}
