// Package postgres implements the persistence repositories on PostgreSQL
// via sqlx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"niftyscan/internal/persistence"
)

const schema = `
CREATE TABLE IF NOT EXISTS ticks (
	id      BIGSERIAL PRIMARY KEY,
	symbol  TEXT NOT NULL,
	price   DOUBLE PRECISION NOT NULL,
	volume  BIGINT NOT NULL DEFAULT 0,
	ts      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ticks_symbol_ts ON ticks (symbol, ts DESC);

CREATE TABLE IF NOT EXISTS shifts (
	id             BIGSERIAL PRIMARY KEY,
	run_id         TEXT NOT NULL,
	symbol         TEXT NOT NULL,
	direction      TEXT NOT NULL,
	price_at_cross DOUBLE PRECISION NOT NULL,
	ma_at_cross    DOUBLE PRECISION NOT NULL,
	ts             TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_shifts_symbol_ts ON shifts (symbol, ts DESC);

CREATE TABLE IF NOT EXISTS reports (
	id           BIGSERIAL PRIMARY KEY,
	run_id       TEXT NOT NULL,
	ma_period    INT NOT NULL,
	total_shifts INT NOT NULL,
	payload      JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
);
`

// Connect opens a PostgreSQL connection pool and verifies it.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the scan history tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

type ticksRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewTicksRepo creates a PostgreSQL ticks repository.
func NewTicksRepo(db *sqlx.DB, timeout time.Duration) persistence.TicksRepo {
	return &ticksRepo{db: db, timeout: timeout}
}

// InsertBatch writes all ticks in a single transaction.
func (r *ticksRepo) InsertBatch(ctx context.Context, ticks []persistence.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ticks (symbol, price, volume, ts) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, tick := range ticks {
		if _, err := stmt.ExecContext(ctx, tick.Symbol, tick.Price, tick.Volume, tick.At); err != nil {
			return fmt.Errorf("insert tick %s: %w", tick.Symbol, err)
		}
	}
	return tx.Commit()
}

type shiftsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewShiftsRepo creates a PostgreSQL shifts repository.
func NewShiftsRepo(db *sqlx.DB, timeout time.Duration) persistence.ShiftsRepo {
	return &shiftsRepo{db: db, timeout: timeout}
}

func (r *shiftsRepo) Insert(ctx context.Context, shift persistence.Shift) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shifts (run_id, symbol, direction, price_at_cross, ma_at_cross, ts)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		shift.RunID, shift.Symbol, shift.Direction, shift.PriceAtCross, shift.MAAtCross, shift.At)
	if err != nil {
		return fmt.Errorf("insert shift %s: %w", shift.Symbol, err)
	}
	return nil
}

func (r *shiftsRepo) ListBySymbol(ctx context.Context, symbol string, tr persistence.TimeRange, limit int) ([]persistence.Shift, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var shifts []persistence.Shift
	err := r.db.SelectContext(ctx, &shifts,
		`SELECT id, run_id, symbol, direction, price_at_cross, ma_at_cross, ts
		 FROM shifts
		 WHERE symbol = $1 AND ts >= $2 AND ts <= $3
		 ORDER BY ts DESC
		 LIMIT $4`,
		symbol, tr.From, tr.To, limit)
	if err != nil {
		return nil, fmt.Errorf("list shifts for %s: %w", symbol, err)
	}
	return shifts, nil
}

type reportsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewReportsRepo creates a PostgreSQL reports repository.
func NewReportsRepo(db *sqlx.DB, timeout time.Duration) persistence.ReportsRepo {
	return &reportsRepo{db: db, timeout: timeout}
}

func (r *reportsRepo) Insert(ctx context.Context, report persistence.Report) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (run_id, ma_period, total_shifts, payload, generated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		report.RunID, report.MAPeriod, report.TotalShifts, report.Payload, report.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", report.RunID, err)
	}
	return nil
}
