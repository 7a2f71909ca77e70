package sources

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/rs/zerolog"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// AggregatorQuoteAdapter derives price from a round-trip quote against a
// standard in-amount: price = out_amount / in_amount, with no adjustment
// for token decimals. Preferred for routed markets; confidence base
// 0.90-0.98.
type AggregatorQuoteAdapter struct {
	baseAdapter
	provider QuoteProvider
	ttl      time.Duration
	log      zerolog.Logger
}

// NewAggregatorQuoteAdapter builds the adapter with its source id derived
// from the backing quote provider's venue label.
func NewAggregatorQuoteAdapter(sourceID string, provider QuoteProvider, ttl time.Duration, log zerolog.Logger) *AggregatorQuoteAdapter {
	return &AggregatorQuoteAdapter{
		baseAdapter: baseAdapter{sourceID: sourceID, kind: types.SourceAggregatorQuote},
		provider:    provider,
		ttl:         ttl,
		log:         log.With().Str("adapter", sourceID).Logger(),
	}
}

func (a *AggregatorQuoteAdapter) SourceID() string       { return a.sourceID }
func (a *AggregatorQuoteAdapter) Kind() types.SourceKind { return a.kind }
func (a *AggregatorQuoteAdapter) Health() HealthSnapshot  { return a.health() }

func (a *AggregatorQuoteAdapter) FetchPair(ctx context.Context, req PairRequest) (types.PriceSample, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	var out decimal.Decimal
	err := WithRetry(ctx, DefaultRetryConfig(), a.log, func(ctx context.Context) error {
		o, qerr := a.provider.Quote(ctx, req.MintA, req.MintB, req.InAmount)
		if qerr != nil {
			return qerr
		}
		out = o
		return nil
	})
	if err != nil {
		return types.PriceSample{}, a.recordFailure(classifyErr(err))
	}

	if req.InAmount.IsZero() || out.IsZero() {
		return types.PriceSample{}, a.recordFailure("EmptyResult")
	}

	a.recordSuccess()
	price := out.Div(req.InAmount)
	confidence := decimal.NewFromFloat(0.94)

	return types.PriceSample{
		Pair:       req.Pair,
		SourceID:   a.sourceID,
		Kind:       types.SourceAggregatorQuote,
		Price:      price,
		Confidence: confidence,
		ObtainedAt: time.Now(),
		TTL:        a.ttl,
	}, nil
}

func classifyErr(err error) string {
	if IsRetryable(err) {
		return "Timeout"
	}
	return "HttpError"
}
