package sources

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/rs/zerolog"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// OrderBookTopAdapter derives price as the mid of top-of-book bid/ask.
// Rejects if there is no bid or no ask. Confidence base 0.88-0.95.
type OrderBookTopAdapter struct {
	baseAdapter
	provider OrderBookProvider
	ttl      time.Duration
	log      zerolog.Logger
}

func NewOrderBookTopAdapter(sourceID string, provider OrderBookProvider, ttl time.Duration, log zerolog.Logger) *OrderBookTopAdapter {
	return &OrderBookTopAdapter{
		baseAdapter: baseAdapter{sourceID: sourceID, kind: types.SourceOrderBookTop},
		provider:    provider,
		ttl:         ttl,
		log:         log.With().Str("adapter", sourceID).Logger(),
	}
}

func (a *OrderBookTopAdapter) SourceID() string       { return a.sourceID }
func (a *OrderBookTopAdapter) Kind() types.SourceKind { return a.kind }
func (a *OrderBookTopAdapter) Health() HealthSnapshot  { return a.health() }

func (a *OrderBookTopAdapter) FetchPair(ctx context.Context, req PairRequest) (types.PriceSample, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	var bid, ask decimal.Decimal
	err := WithRetry(ctx, DefaultRetryConfig(), a.log, func(ctx context.Context) error {
		b, a2, oerr := a.provider.TopOfBook(ctx, req.Pair)
		if oerr != nil {
			return oerr
		}
		bid, ask = b, a2
		return nil
	})
	if err != nil {
		return types.PriceSample{}, a.recordFailure(classifyErr(err))
	}
	if !bid.IsPositive() || !ask.IsPositive() {
		return types.PriceSample{}, a.recordFailure("EmptyResult")
	}

	a.recordSuccess()
	mid := bid.Add(ask).Div(decimal.NewFromInt(2))
	spreadBps := ask.Sub(bid).Div(mid).Mul(types.FeeDen).IntPart()

	return types.PriceSample{
		Pair:       req.Pair,
		SourceID:   a.sourceID,
		Kind:       types.SourceOrderBookTop,
		Price:      mid,
		Confidence: decimal.NewFromFloat(0.91),
		SpreadBps:  int32(spreadBps),
		ObtainedAt: time.Now(),
		TTL:        a.ttl,
	}, nil
}
