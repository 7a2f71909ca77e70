// Package poolbook implements the injected, pluggable pool-state capability
// that detect.PoolLookup and sources.PoolProvider both depend on: an
// in-memory, concurrency-safe store of the latest known LiquidityPool per
// (pair, venue), updated by whatever chain-specific decoder a deployment
// wires in. Grounded on the registry package's single-RWMutex,
// many-readers/exclusive-writer shape.
package poolbook

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// Book is the process-wide pool-state store.
type Book struct {
	mu     sync.RWMutex
	byPair map[types.PairKey]map[string]types.LiquidityPool
}

// New builds an empty Book.
func New() *Book {
	return &Book{byPair: make(map[types.PairKey]map[string]types.LiquidityPool)}
}

// Update records or replaces the latest known state for pool.VenueID on
// this pair. Callers are expected to call this on every decoded account
// update from their chain source.
func (b *Book) Update(pool types.LiquidityPool) {
	pair := types.NewPairKey(pool.MintA, pool.MintB)

	b.mu.Lock()
	defer b.mu.Unlock()

	venues, ok := b.byPair[pair]
	if !ok {
		venues = make(map[string]types.LiquidityPool)
		b.byPair[pair] = venues
	}
	venues[pool.VenueID] = pool
}

// Remove drops a venue's pool from a pair, e.g. when a venue delists it.
func (b *Book) Remove(pair types.PairKey, venueID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.byPair[pair], venueID)
}

// Pool resolves the pool backing a pair on a specific venue.
func (b *Book) Pool(pair types.PairKey, venueID string) (types.LiquidityPool, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.byPair[pair][venueID]
	return p, ok
}

// depth is the pool's true swap capacity: the smaller of its two reserve
// sides, consistent with detect.quoteHop's MinReserve derivation.
func depth(p types.LiquidityPool) decimal.Decimal {
	if p.ReserveB.LessThan(p.ReserveA) {
		return p.ReserveB
	}
	return p.ReserveA
}

// BestPool resolves the deepest-liquidity pool known for a pair across all
// venues, ranked by shallow-side reserve depth.
func (b *Book) BestPool(pair types.PairKey) (types.LiquidityPool, types.VenueRef, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	venues, ok := b.byPair[pair]
	if !ok || len(venues) == 0 {
		return types.LiquidityPool{}, types.VenueRef{}, false
	}

	var best types.LiquidityPool
	found := false
	for _, p := range venues {
		if !p.Quotable() {
			continue
		}
		if !found || depth(p).GreaterThan(depth(best)) {
			best = p
			found = true
		}
	}
	if !found {
		return types.LiquidityPool{}, types.VenueRef{}, false
	}
	return best, types.VenueRef{VenueID: best.VenueID, PoolID: best.PoolID}, true
}

// AsPoolProvider narrows Book to sources.PoolProvider's two-return BestPool
// shape, so one Book backs both the C2 AmmReserveAdapter and C5 detect.
func (b *Book) AsPoolProvider() *PoolProviderView {
	return &PoolProviderView{b: b}
}

// PoolProviderView adapts Book to sources.PoolProvider.
type PoolProviderView struct{ b *Book }

// BestPool implements sources.PoolProvider.
func (v *PoolProviderView) BestPool(pair types.PairKey) (types.LiquidityPool, bool) {
	p, _, ok := v.b.BestPool(pair)
	return p, ok
}
