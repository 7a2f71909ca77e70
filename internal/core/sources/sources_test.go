package sources_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arbcore/internal/core/sources"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

type stubQuoteProvider struct {
	out decimal.Decimal
	err error
}

func (s stubQuoteProvider) Quote(ctx context.Context, mintIn, mintOut types.Mint, in decimal.Decimal) (decimal.Decimal, error) {
	return s.out, s.err
}

func TestAggregatorQuoteAdapterSuccess(t *testing.T) {
	pair := types.NewPairKey(types.Mint{1}, types.Mint{2})
	adapter := sources.NewAggregatorQuoteAdapter("agg1", stubQuoteProvider{out: decimal.NewFromInt(200)}, 30*time.Second, zerolog.Nop())

	sample, err := adapter.FetchPair(context.Background(), sources.PairRequest{
		Pair: pair, MintA: types.Mint{1}, MintB: types.Mint{2}, InAmount: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	assert.True(t, sample.Price.Equal(decimal.NewFromInt(100)))
	assert.True(t, sample.Confidence.GreaterThanOrEqual(decimal.NewFromFloat(0.9)))
}

func TestAggregatorQuoteAdapterFailureIsNonRetryableClassified(t *testing.T) {
	pair := types.NewPairKey(types.Mint{1}, types.Mint{2})
	adapter := sources.NewAggregatorQuoteAdapter("agg1", stubQuoteProvider{err: errors.New("bad request")}, 30*time.Second, zerolog.Nop())

	_, err := adapter.FetchPair(context.Background(), sources.PairRequest{
		Pair: pair, MintA: types.Mint{1}, MintB: types.Mint{2}, InAmount: decimal.NewFromInt(2),
	})
	require.Error(t, err)
	assert.Equal(t, 1, adapter.Health().ConsecutiveErrors)
}

func TestAdapterGoesPermanentAfterMaxConsecutiveFailures(t *testing.T) {
	pair := types.NewPairKey(types.Mint{1}, types.Mint{2})
	adapter := sources.NewAggregatorQuoteAdapter("agg1", stubQuoteProvider{err: errors.New("bad request")}, 30*time.Second, zerolog.Nop())

	for i := 0; i < sources.MaxConsecutiveFailures; i++ {
		_, _ = adapter.FetchPair(context.Background(), sources.PairRequest{
			Pair: pair, MintA: types.Mint{1}, MintB: types.Mint{2}, InAmount: decimal.NewFromInt(2),
		})
	}
	assert.False(t, adapter.Health().Healthy)
}

type stubPoolProvider struct {
	pool types.LiquidityPool
	ok   bool
}

func (s stubPoolProvider) BestPool(pair types.PairKey) (types.LiquidityPool, bool) {
	return s.pool, s.ok
}

func TestAmmReserveAdapterRejectsZeroReserve(t *testing.T) {
	pair := types.NewPairKey(types.Mint{1}, types.Mint{2})
	adapter := sources.NewAmmReserveAdapter("amm1", stubPoolProvider{
		pool: types.LiquidityPool{ReserveA: decimal.Zero, ReserveB: decimal.NewFromInt(1000), FeeBps: 30},
		ok:   true,
	}, 30*time.Second, zerolog.Nop())

	_, err := adapter.FetchPair(context.Background(), sources.PairRequest{Pair: pair})
	require.Error(t, err)
}

func TestAmmReserveAdapterSuccess(t *testing.T) {
	pair := types.NewPairKey(types.Mint{1}, types.Mint{2})
	adapter := sources.NewAmmReserveAdapter("amm1", stubPoolProvider{
		pool: types.LiquidityPool{ReserveA: decimal.NewFromInt(1_000_000), ReserveB: decimal.NewFromInt(2_000_000), FeeBps: 30},
		ok:   true,
	}, 30*time.Second, zerolog.Nop())

	sample, err := adapter.FetchPair(context.Background(), sources.PairRequest{Pair: pair})
	require.NoError(t, err)
	assert.True(t, sample.Price.Equal(decimal.NewFromInt(2)))
}

type stubOrderBookProvider struct {
	bid, ask decimal.Decimal
	err      error
}

func (s stubOrderBookProvider) TopOfBook(ctx context.Context, pair types.PairKey) (decimal.Decimal, decimal.Decimal, error) {
	return s.bid, s.ask, s.err
}

func TestOrderBookAdapterRejectsMissingSide(t *testing.T) {
	pair := types.NewPairKey(types.Mint{1}, types.Mint{2})
	adapter := sources.NewOrderBookTopAdapter("ob1", stubOrderBookProvider{bid: decimal.Zero, ask: decimal.NewFromInt(100)}, 30*time.Second, zerolog.Nop())

	_, err := adapter.FetchPair(context.Background(), sources.PairRequest{Pair: pair})
	require.Error(t, err)
}

func TestOrderBookAdapterMidPrice(t *testing.T) {
	pair := types.NewPairKey(types.Mint{1}, types.Mint{2})
	adapter := sources.NewOrderBookTopAdapter("ob1", stubOrderBookProvider{bid: decimal.NewFromInt(99), ask: decimal.NewFromInt(101)}, 30*time.Second, zerolog.Nop())

	sample, err := adapter.FetchPair(context.Background(), sources.PairRequest{Pair: pair})
	require.NoError(t, err)
	assert.True(t, sample.Price.Equal(decimal.NewFromInt(100)))
}
