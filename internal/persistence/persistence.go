// Package persistence defines the storage model and repository interfaces
// for scan history. Persistence is optional; the scanner runs fully
// in-memory when no database is configured.
package persistence

import (
	"context"
	"time"
)

// Tick is one observed price point for a symbol.
type Tick struct {
	ID     int64     `db:"id" json:"id"`
	Symbol string    `db:"symbol" json:"symbol"`
	Price  float64   `db:"price" json:"price"`
	Volume int64     `db:"volume" json:"volume"`
	At     time.Time `db:"ts" json:"at"`
}

// Shift is a persisted momentum shift.
type Shift struct {
	ID           int64     `db:"id" json:"id"`
	RunID        string    `db:"run_id" json:"run_id"`
	Symbol       string    `db:"symbol" json:"symbol"`
	Direction    string    `db:"direction" json:"direction"`
	PriceAtCross float64   `db:"price_at_cross" json:"price_at_cross"`
	MAAtCross    float64   `db:"ma_at_cross" json:"ma_at_cross"`
	At           time.Time `db:"ts" json:"at"`
}

// Report is the summary row written at the end of a scan run.
type Report struct {
	ID          int64     `db:"id"`
	RunID       string    `db:"run_id"`
	MAPeriod    int       `db:"ma_period"`
	TotalShifts int       `db:"total_shifts"`
	Payload     []byte    `db:"payload"`
	GeneratedAt time.Time `db:"generated_at"`
}

// TimeRange bounds a history query.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// TicksRepo stores observed price ticks.
type TicksRepo interface {
	InsertBatch(ctx context.Context, ticks []Tick) error
}

// ShiftsRepo stores detected momentum shifts.
type ShiftsRepo interface {
	Insert(ctx context.Context, shift Shift) error
	ListBySymbol(ctx context.Context, symbol string, tr TimeRange, limit int) ([]Shift, error)
}

// ReportsRepo stores end-of-run reports.
type ReportsRepo interface {
	Insert(ctx context.Context, report Report) error
}
