package sources

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/rs/zerolog"

	"github.com/ajitpratap0/arbcore/internal/core/simulate"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// AmmReserveAdapter derives price as reserve_out / reserve_in from a
// decoded LiquidityPool. Rejects if either reserve is zero. Confidence
// base 0.80-0.90.
type AmmReserveAdapter struct {
	baseAdapter
	provider PoolProvider
	ttl      time.Duration
	log      zerolog.Logger
}

// NewAmmReserveAdapter builds the adapter over a PoolProvider (the
// aggregator's seam into the pluggable pool-decoder capability).
func NewAmmReserveAdapter(sourceID string, provider PoolProvider, ttl time.Duration, log zerolog.Logger) *AmmReserveAdapter {
	return &AmmReserveAdapter{
		baseAdapter: baseAdapter{sourceID: sourceID, kind: types.SourceAmmReserve},
		provider:    provider,
		ttl:         ttl,
		log:         log.With().Str("adapter", sourceID).Logger(),
	}
}

func (a *AmmReserveAdapter) SourceID() string       { return a.sourceID }
func (a *AmmReserveAdapter) Kind() types.SourceKind { return a.kind }
func (a *AmmReserveAdapter) Health() HealthSnapshot  { return a.health() }

func (a *AmmReserveAdapter) FetchPair(ctx context.Context, req PairRequest) (types.PriceSample, error) {
	pool, ok := a.provider.BestPool(req.Pair)
	if !ok {
		return types.PriceSample{}, a.recordFailure("EmptyResult")
	}
	if !pool.Quotable() {
		return types.PriceSample{}, a.recordFailure("ParseError")
	}

	a.recordSuccess()
	price := simulate.MarginalPrice(pool, simulate.AToB)

	minReserve := pool.ReserveA
	if pool.ReserveB.LessThan(minReserve) {
		minReserve = pool.ReserveB
	}
	confidence := decimal.NewFromFloat(0.85)

	return types.PriceSample{
		Pair:       req.Pair,
		SourceID:   a.sourceID,
		Kind:       types.SourceAmmReserve,
		Price:      price,
		Confidence: confidence,
		ObtainedAt: time.Now(),
		TTL:        a.ttl,
		VenueID:    pool.VenueID,
	}, nil
}
