package aggregator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arbcore/internal/core/aggregator"
	"github.com/ajitpratap0/arbcore/internal/core/sources"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

type alwaysFailQuoteProvider struct{}

func (alwaysFailQuoteProvider) Quote(ctx context.Context, mintIn, mintOut types.Mint, in decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("connection refused")
}

type alwaysFailPoolProvider struct{}

func (alwaysFailPoolProvider) BestPool(pair types.PairKey) (types.LiquidityPool, bool) {
	return types.LiquidityPool{}, false
}

func TestStalePriceFallbackScenario(t *testing.T) {
	// Scenario 4: AggregatorQuote and AmmReserveDerived both fail; cache
	// contains an AggregatorQuote sample aged 45s with TTL 30s. Expected: the
	// sample is returned with confidence <= 0.3.
	rdb := newTestRedis(t)
	log := zerolog.Nop()
	agg := aggregator.New(rdb, log)

	aggAdapter := sources.NewAggregatorQuoteAdapter("jupiter", alwaysFailQuoteProvider{}, 30*time.Second, log)
	ammAdapter := sources.NewAmmReserveAdapter("raydium", alwaysFailPoolProvider{}, 30*time.Second, log)
	agg.RegisterAdapter(aggAdapter)
	agg.RegisterAdapter(ammAdapter)

	pair := types.NewPairKey(types.Mint{1}, types.Mint{2})

	stale := types.PriceSample{
		Pair:       pair,
		SourceID:   "jupiter",
		Kind:       types.SourceAggregatorQuote,
		Price:      decimal.NewFromInt(100),
		Confidence: decimal.NewFromFloat(0.94),
		ObtainedAt: time.Now().Add(-45 * time.Second),
		TTL:        30 * time.Second,
	}

	// Seed the cache directly via the redis client the way the aggregator
	// would have written it.
	data := `{"sample":{"Pair":{"A":"` + pair.A.String() + `","B":"` + pair.B.String() + `"},"SourceID":"jupiter","Kind":"aggregator_quote","Price":"100","Confidence":"0.94","ObtainedAt":"` + stale.ObtainedAt.Format(time.RFC3339Nano) + `","TTL":30000000000}}`
	require.NoError(t, rdb.Set(context.Background(), "arbcore:sample:jupiter:"+pair.A.String()+":"+pair.B.String(), data, 0).Err())

	samples := agg.SamplePair(context.Background(), sources.PairRequest{
		Pair: pair, MintA: types.Mint{1}, MintB: types.Mint{2}, InAmount: decimal.NewFromInt(1),
	})

	require.Len(t, samples, 1)
	assert.True(t, samples[0].Confidence.LessThanOrEqual(decimal.NewFromFloat(0.3)))
}

func TestSuccessRateDefaultsToOneWithNoObservations(t *testing.T) {
	agg := aggregator.New(nil, zerolog.Nop())
	assert.Equal(t, 1.0, agg.SuccessRate("unknown"))
}

func TestRecordOutcomeTracksSuccessRate(t *testing.T) {
	agg := aggregator.New(nil, zerolog.Nop())
	agg.RecordOutcome("jupiter", true)
	agg.RecordOutcome("jupiter", true)
	agg.RecordOutcome("jupiter", false)
	assert.InDelta(t, 2.0/3.0, agg.SuccessRate("jupiter"), 0.001)
}
