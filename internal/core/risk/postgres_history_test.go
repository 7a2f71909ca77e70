package risk_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arbcore/internal/core/risk"
	"github.com/ajitpratap0/arbcore/internal/core/types"
	"github.com/shopspring/decimal"
)

// fakeRow stands in for a pgx.Row, scanning a single fixed value the way
// sources_test.go's fake adapters stand in for live network calls.
type fakeRow struct {
	value string
}

func (r fakeRow) Scan(dest ...interface{}) error {
	nd := dest[0].(*decimal.NullDecimal)
	return nd.Scan(r.value)
}

type fakePool struct {
	execCalls  []string
	queryValue string
}

func (f *fakePool) Exec(ctx context.Context, sql string, args ...interface{}) (pgx.CommandTag, error) {
	f.execCalls = append(f.execCalls, sql)
	return pgx.CommandTag{}, nil
}

func (f *fakePool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return fakeRow{value: f.queryValue}
}

func TestPostgresHistoryRecordOutcomeIssuesInsert(t *testing.T) {
	pool := &fakePool{queryValue: "0"}
	h := risk.NewPostgresHistory(pool)

	err := h.RecordOutcome(context.Background(), types.ExecutionOutcome{
		OpportunityID:  "opp-1",
		Success:        true,
		RealizedProfit: decimal.NewFromInt(50),
		FeesPaid:       decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	require.Len(t, pool.execCalls, 1)
}

func TestPostgresHistoryDailyPnLParsesSum(t *testing.T) {
	pool := &fakePool{queryValue: "123.45"}
	h := risk.NewPostgresHistory(pool)

	pnl, err := h.DailyPnL(context.Background())
	require.NoError(t, err)
	assert.True(t, pnl.Equal(decimal.NewFromFloat(123.45)))
}

func TestPostgresHistoryEnsureSchemaIssuesCreateTable(t *testing.T) {
	pool := &fakePool{}
	h := risk.NewPostgresHistory(pool)

	require.NoError(t, h.EnsureSchema(context.Background()))
	require.Len(t, pool.execCalls, 1)
}
