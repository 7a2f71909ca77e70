// Package sources implements the Price Source Adapters (C2): a uniform
// capability set over {aggregator-quote, AMM-reserve-derived, order-book-top,
// reference-feed}, each producing a PriceSample with a confidence range and
// its own failure modes. Grounded on the teacher's typed-client-with-Health
// shape (internal/market/coingecko.go) and the retry helper above.
package sources

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arbcore/internal/core/errkind"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// DefaultTimeout is the per-adapter fetch deadline (spec default 3s).
const DefaultTimeout = 3 * time.Second

// HealthSnapshot reports an adapter's rolling health.
type HealthSnapshot struct {
	SourceID          string
	Healthy           bool
	ConsecutiveErrors int
	LastErrorCategory string
	LastSuccess       time.Time
}

// Adapter is the polymorphic capability every price source implements.
type Adapter interface {
	SourceID() string
	Kind() types.SourceKind
	FetchPair(ctx context.Context, pair PairRequest) (types.PriceSample, error)
	Health() HealthSnapshot
}

// PairRequest carries what an adapter needs to quote a pair: the mints, an
// optional venue hint, and a reference in-amount for round-trip quoting.
type PairRequest struct {
	Pair      types.PairKey
	MintA     types.Mint
	MintB     types.Mint
	InAmount  decimal.Decimal
	VenueHint string
}

// PoolProvider is injected into AmmReserveAdapter: it resolves a pair to the
// best-liquidity decoded pool known for it. The decoder itself is a
// pluggable capability registered at startup (spec.md §6); this interface
// is the aggregator-facing seam.
type PoolProvider interface {
	BestPool(pair types.PairKey) (types.LiquidityPool, bool)
}

// QuoteProvider is injected into AggregatorQuoteAdapter: a routed-quote
// service abstraction (the "aggregator quote service" external contract).
type QuoteProvider interface {
	Quote(ctx context.Context, mintIn, mintOut types.Mint, inAmount decimal.Decimal) (outAmount decimal.Decimal, err error)
}

// OrderBookProvider is injected into OrderBookTopAdapter.
type OrderBookProvider interface {
	TopOfBook(ctx context.Context, pair types.PairKey) (bid, ask decimal.Decimal, err error)
}

// ReferenceFeedProvider is injected into ReferenceFeedAdapter.
type ReferenceFeedProvider interface {
	Price(ctx context.Context, mint types.Mint) (price decimal.Decimal, confidenceHint decimal.Decimal, err error)
}

// baseAdapter tracks consecutive-failure health bookkeeping shared by all
// four concrete adapters.
type baseAdapter struct {
	sourceID string
	kind     types.SourceKind

	consecutiveErrors int
	lastErrorCategory string
	lastSuccess       time.Time
	permanentlyDown   bool
}

func (b *baseAdapter) recordSuccess() {
	b.consecutiveErrors = 0
	b.lastErrorCategory = ""
	b.lastSuccess = time.Now()
}

// MaxConsecutiveFailures disables an adapter for the rest of the session
// (AdapterPermanent) after this many back-to-back failures.
const MaxConsecutiveFailures = 5

func (b *baseAdapter) recordFailure(category string) *errkind.Error {
	b.consecutiveErrors++
	b.lastErrorCategory = category
	if b.consecutiveErrors >= MaxConsecutiveFailures {
		b.permanentlyDown = true
		return errkind.New(errkind.AdapterPermanent, "adapter."+b.sourceID, category)
	}
	return errkind.New(errkind.AdapterTransient, "adapter."+b.sourceID, category)
}

func (b *baseAdapter) health() HealthSnapshot {
	return HealthSnapshot{
		SourceID:          b.sourceID,
		Healthy:           !b.permanentlyDown,
		ConsecutiveErrors: b.consecutiveErrors,
		LastErrorCategory: b.lastErrorCategory,
		LastSuccess:       b.lastSuccess,
	}
}
