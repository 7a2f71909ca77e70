package poolbook_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arbcore/internal/core/poolbook"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

func mint(b byte) types.Mint {
	var m types.Mint
	m[31] = b
	return m
}

func TestBookPoolResolvesExactVenue(t *testing.T) {
	b := poolbook.New()
	a, c := mint(1), mint(2)
	pair := types.NewPairKey(a, c)

	b.Update(types.LiquidityPool{
		PoolID: "p1", VenueID: "venueX", MintA: a, MintB: c,
		ReserveA: decimal.NewFromInt(1000), ReserveB: decimal.NewFromInt(1000), FeeBps: 30,
	})

	p, ok := b.Pool(pair, "venueX")
	require.True(t, ok)
	assert.Equal(t, "p1", p.PoolID)

	_, ok = b.Pool(pair, "venueY")
	assert.False(t, ok)
}

func TestBookBestPoolPicksDeepestShallowSide(t *testing.T) {
	b := poolbook.New()
	a, c := mint(1), mint(2)
	pair := types.NewPairKey(a, c)

	b.Update(types.LiquidityPool{
		PoolID: "shallow", VenueID: "venueX", MintA: a, MintB: c,
		ReserveA: decimal.NewFromInt(100), ReserveB: decimal.NewFromInt(1_000_000), FeeBps: 30,
	})
	b.Update(types.LiquidityPool{
		PoolID: "deep", VenueID: "venueY", MintA: a, MintB: c,
		ReserveA: decimal.NewFromInt(500_000), ReserveB: decimal.NewFromInt(500_000), FeeBps: 30,
	})

	pool, vref, ok := b.BestPool(pair)
	require.True(t, ok)
	assert.Equal(t, "deep", pool.PoolID)
	assert.Equal(t, "venueY", vref.VenueID)
}

func TestBookBestPoolSkipsUnquotablePools(t *testing.T) {
	b := poolbook.New()
	a, c := mint(1), mint(2)
	pair := types.NewPairKey(a, c)

	b.Update(types.LiquidityPool{
		PoolID: "drained", VenueID: "venueX", MintA: a, MintB: c,
		ReserveA: decimal.Zero, ReserveB: decimal.NewFromInt(1_000_000), FeeBps: 30,
	})

	_, _, ok := b.BestPool(pair)
	assert.False(t, ok)
}

func TestBookRemoveDropsVenue(t *testing.T) {
	b := poolbook.New()
	a, c := mint(1), mint(2)
	pair := types.NewPairKey(a, c)

	b.Update(types.LiquidityPool{PoolID: "p1", VenueID: "venueX", MintA: a, MintB: c, ReserveA: decimal.NewFromInt(1), ReserveB: decimal.NewFromInt(1)})
	b.Remove(pair, "venueX")

	_, ok := b.Pool(pair, "venueX")
	assert.False(t, ok)
}

func TestBookImplementsPoolProviderSeam(t *testing.T) {
	b := poolbook.New()
	a, c := mint(1), mint(2)
	pair := types.NewPairKey(a, c)
	b.Update(types.LiquidityPool{
		PoolID: "p1", VenueID: "venueX", MintA: a, MintB: c,
		ReserveA: decimal.NewFromInt(1000), ReserveB: decimal.NewFromInt(1000), FeeBps: 30,
	})

	provider := b.AsPoolProvider()

	p, ok := provider.BestPool(pair)
	require.True(t, ok)
	assert.Equal(t, "p1", p.PoolID)
}
