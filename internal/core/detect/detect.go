package detect

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arbcore/internal/core/simulate"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// PoolLookup resolves AMM pools for a pair, the seam the detector uses to
// run real C4 swap simulations for every hop instead of placeholder price
// arithmetic (spec.md Design Notes §9 Q1/Q2).
type PoolLookup interface {
	// Pool resolves the pool backing a pair on a specific venue.
	Pool(pair types.PairKey, venueID string) (types.LiquidityPool, bool)
	// BestPool resolves the deepest-liquidity pool known for a pair,
	// regardless of venue.
	BestPool(pair types.PairKey) (types.LiquidityPool, types.VenueRef, bool)
}

// Detector runs all three detection strategies against one cycle's
// sampled prices and active pairs.
type Detector struct {
	pools    PoolLookup
	circular *CircularTradeDetector

	// ReferenceTradeSize is the fixed input amount used to probe pairwise
	// and triangular candidates when a pair doesn't otherwise specify one.
	ReferenceTradeSize decimal.Decimal
}

// New builds a Detector over a PoolLookup capability.
func New(pools PoolLookup, circular *CircularTradeDetector) *Detector {
	return &Detector{
		pools:              pools,
		circular:           circular,
		ReferenceTradeSize: decimal.NewFromInt(1),
	}
}

func newOpportunityID() string {
	return uuid.NewString()
}

func pathSignature(mints []types.Mint, venues []string) string {
	h := sha256.New()
	for i, m := range mints {
		h.Write(m[:])
		if i < len(venues) {
			h.Write([]byte(venues[i]))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// quoteHop resolves the best pool for (pair, preferred venue) and runs a
// real C4 simulation; if no pool is registered for that venue it falls
// back to the pair's best-known pool so every hop still carries a concrete
// swap quote rather than a marginal-price placeholder. The returned decimal
// is the pool's shallow-side reserve, the actual liquidity depth backing
// the hop, as opposed to the trade's own input/output magnitude.
func (d *Detector) quoteHop(pair types.PairKey, preferredVenue string, mintIn types.Mint, inAmount decimal.Decimal) (types.SwapQuote, string, decimal.Decimal, bool) {
	pool, ok := d.pools.Pool(pair, preferredVenue)
	venue := preferredVenue
	if !ok {
		var vref types.VenueRef
		pool, vref, ok = d.pools.BestPool(pair)
		venue = vref.VenueID
	}
	if !ok || !pool.Quotable() {
		return types.SwapQuote{}, "", decimal.Zero, false
	}

	dir := simulate.AToB
	if mintIn != pool.MintA {
		dir = simulate.BToA
	}
	depth := pool.ReserveA
	if pool.ReserveB.LessThan(depth) {
		depth = pool.ReserveB
	}
	return simulate.Quote(pool, inAmount, dir), venue, depth, true
}

func min3(a, b, c decimal.Decimal) decimal.Decimal {
	m := a
	if b.LessThan(m) {
		m = b
	}
	if c.LessThan(m) {
		m = c
	}
	return m
}
