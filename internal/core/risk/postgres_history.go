package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// PoolInterface is the slice of pgxpool.Pool that PostgresHistory needs,
// grounded on the teacher's risk.Calculator PoolInterface so a test double
// never has to implement the full pool surface.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgx.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PostgresHistory is the durable History implementation: every recorded
// outcome is appended to an execution_outcomes table, and DailyPnL sums
// today's rows instead of tracking a running total in memory, so the ledger
// survives a process restart mid-session.
type PostgresHistory struct {
	pool PoolInterface
}

// NewPostgresHistory builds a PostgresHistory over any PoolInterface,
// typically a *pgxpool.Pool but swappable with a fake in tests.
func NewPostgresHistory(pool PoolInterface) *PostgresHistory {
	return &PostgresHistory{pool: pool}
}

// NewPostgresHistoryWithPool is a convenience constructor for the common
// case of a real pgxpool.Pool.
func NewPostgresHistoryWithPool(pool *pgxpool.Pool) *PostgresHistory {
	return &PostgresHistory{pool: pool}
}

// EnsureSchema creates the execution_outcomes table if it does not already
// exist. Callers run this once at startup when a durable pool is
// configured; it is a no-op against an already-migrated database.
func (h *PostgresHistory) EnsureSchema(ctx context.Context) error {
	_, err := h.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS execution_outcomes (
	id              TEXT PRIMARY KEY,
	recorded_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	realized_profit NUMERIC NOT NULL,
	fees_paid       NUMERIC NOT NULL,
	success         BOOLEAN NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("risk: ensure execution_outcomes schema: %w", err)
	}
	return nil
}

// RecordOutcome appends one execution outcome to the ledger.
func (h *PostgresHistory) RecordOutcome(ctx context.Context, outcome types.ExecutionOutcome) error {
	_, err := h.pool.Exec(ctx, `
INSERT INTO execution_outcomes (id, realized_profit, fees_paid, success)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`,
		outcome.OpportunityID, outcome.RealizedProfit.String(), outcome.FeesPaid.String(), outcome.Success)
	if err != nil {
		return fmt.Errorf("risk: record outcome: %w", err)
	}
	return nil
}

// DailyPnL sums realized profit minus fees for every row recorded since UTC
// midnight.
func (h *PostgresHistory) DailyPnL(ctx context.Context) (decimal.Decimal, error) {
	midnight := time.Now().UTC().Truncate(24 * time.Hour)

	var net decimal.NullDecimal
	row := h.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(realized_profit - fees_paid), 0)
FROM execution_outcomes
WHERE recorded_at >= $1`, midnight)
	if err := row.Scan(&net); err != nil {
		return decimal.Zero, fmt.Errorf("risk: query daily pnl: %w", err)
	}
	if !net.Valid {
		return decimal.Zero, nil
	}
	return net.Decimal, nil
}
