package sources

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/rs/zerolog"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// ReferenceFeedAdapter queries a tiered off-chain feed directly. Used for
// cross-checks, not for direct routing; confidence base 0.60-0.80. Like
// every adapter's cached sample, its output may surface as last-resort
// stale fallback with confidence capped at 0.3 (applied by the
// aggregator's cache, not here).
type ReferenceFeedAdapter struct {
	baseAdapter
	provider ReferenceFeedProvider
	ttl      time.Duration
	log      zerolog.Logger
}

func NewReferenceFeedAdapter(sourceID string, provider ReferenceFeedProvider, ttl time.Duration, log zerolog.Logger) *ReferenceFeedAdapter {
	return &ReferenceFeedAdapter{
		baseAdapter: baseAdapter{sourceID: sourceID, kind: types.SourceReferenceFeed},
		provider:    provider,
		ttl:         ttl,
		log:         log.With().Str("adapter", sourceID).Logger(),
	}
}

func (a *ReferenceFeedAdapter) SourceID() string       { return a.sourceID }
func (a *ReferenceFeedAdapter) Kind() types.SourceKind { return a.kind }
func (a *ReferenceFeedAdapter) Health() HealthSnapshot  { return a.health() }

func (a *ReferenceFeedAdapter) FetchPair(ctx context.Context, req PairRequest) (types.PriceSample, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	var price, confHint decimal.Decimal
	err := WithRetry(ctx, DefaultRetryConfig(), a.log, func(ctx context.Context) error {
		p, c, ferr := a.provider.Price(ctx, req.MintA)
		if ferr != nil {
			return ferr
		}
		price, confHint = p, c
		return nil
	})
	if err != nil {
		return types.PriceSample{}, a.recordFailure(classifyErr(err))
	}
	if !price.IsPositive() {
		return types.PriceSample{}, a.recordFailure("EmptyResult")
	}

	a.recordSuccess()

	confidence := decimal.NewFromFloat(0.70)
	if confHint.IsPositive() {
		confidence = clampUnit(confHint)
	}

	return types.PriceSample{
		Pair:       req.Pair,
		SourceID:   a.sourceID,
		Kind:       types.SourceReferenceFeed,
		Price:      price,
		Confidence: confidence,
		ObtainedAt: time.Now(),
		TTL:        a.ttl,
	}, nil
}

func clampUnit(d decimal.Decimal) decimal.Decimal {
	if d.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return d
}
