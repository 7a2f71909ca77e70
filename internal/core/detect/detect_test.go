package detect_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arbcore/internal/core/detect"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

type fakePools struct {
	byPair map[types.PairKey]types.LiquidityPool
}

func (f fakePools) Pool(pair types.PairKey, venueID string) (types.LiquidityPool, bool) {
	p, ok := f.byPair[pair]
	return p, ok
}

func (f fakePools) BestPool(pair types.PairKey) (types.LiquidityPool, types.VenueRef, bool) {
	p, ok := f.byPair[pair]
	return p, types.VenueRef{VenueID: p.VenueID}, ok
}

func mint(b byte) types.Mint {
	var m types.Mint
	m[31] = b
	return m
}

func TestPairwiseEmitsCandidateAboveThreshold(t *testing.T) {
	a, b := mint(1), mint(2)
	pair := types.NewPairKey(a, b)

	pools := fakePools{byPair: map[types.PairKey]types.LiquidityPool{
		pair: {MintA: a, MintB: b, ReserveA: decimal.NewFromInt(1_000_000), ReserveB: decimal.NewFromInt(1_050_000), FeeBps: 30, VenueID: "venueX"},
	}}
	d := detect.New(pools, detect.NewCircularTradeDetector())
	d.ReferenceTradeSize = decimal.NewFromInt(10_000)

	cfg := types.PairConfig{MintA: a, MintB: b, MinProfitBps: 25}

	samples := []types.PriceSample{
		{Pair: pair, SourceID: "venueX", VenueID: "venueX", Price: decimal.NewFromFloat(1.05), Confidence: decimal.NewFromFloat(0.9)},
		{Pair: pair, SourceID: "venueY", VenueID: "venueY", Price: decimal.NewFromFloat(1.0), Confidence: decimal.NewFromFloat(0.9)},
	}

	opps := d.Pairwise(cfg, samples)
	require.Len(t, opps, 1)
	assert.Equal(t, types.KindPairwiseAcrossVenue, opps[0].Kind)
}

func TestPairwiseSameSourceIDSkipped(t *testing.T) {
	a, b := mint(1), mint(2)
	pair := types.NewPairKey(a, b)
	d := detect.New(fakePools{byPair: map[types.PairKey]types.LiquidityPool{}}, detect.NewCircularTradeDetector())
	cfg := types.PairConfig{MintA: a, MintB: b, MinProfitBps: 25}

	samples := []types.PriceSample{
		{Pair: pair, SourceID: "venueX", Price: decimal.NewFromFloat(1.05)},
		{Pair: pair, SourceID: "venueX", Price: decimal.NewFromFloat(1.0)},
	}
	assert.Empty(t, d.Pairwise(cfg, samples))
}

func TestTriangularProfitableCycleScenario(t *testing.T) {
	sol, usdc, ray := mint(1), mint(2), mint(3)
	pairSolUsdc := types.NewPairKey(sol, usdc)
	pairUsdcRay := types.NewPairKey(usdc, ray)
	pairRaySol := types.NewPairKey(ray, sol)

	// Marginal prices: SOL->USDC = 100, USDC->RAY = 0.5, RAY->SOL = 0.021
	// sized so reserves are deep relative to the reference trade size.
	pools := fakePools{byPair: map[types.PairKey]types.LiquidityPool{
		pairSolUsdc: {MintA: sol, MintB: usdc, ReserveA: decimal.NewFromInt(10_000), ReserveB: decimal.NewFromInt(1_000_000), FeeBps: 25, VenueID: "v1"},
		pairUsdcRay: {MintA: usdc, MintB: ray, ReserveA: decimal.NewFromInt(1_000_000), ReserveB: decimal.NewFromInt(500_000), FeeBps: 25, VenueID: "v2"},
		pairRaySol:  {MintA: ray, MintB: sol, ReserveA: decimal.NewFromInt(500_000), ReserveB: decimal.NewFromInt(10_500), FeeBps: 25, VenueID: "v3"},
	}}

	d := detect.New(pools, detect.NewCircularTradeDetector())
	d.ReferenceTradeSize = decimal.NewFromFloat(1.0)

	graph := detect.Graph{
		sol:  {{Other: usdc, Pair: types.PairConfig{MintA: sol, MintB: usdc}}},
		usdc: {{Other: ray, Pair: types.PairConfig{MintA: usdc, MintB: ray}}},
		ray:  {{Other: sol, Pair: types.PairConfig{MintA: ray, MintB: sol}}},
	}

	opps := d.Triangular(graph, []types.Mint{sol})
	require.NotEmpty(t, opps)
	opp := opps[0]
	assert.Equal(t, types.KindTriangular, opp.Kind)
	require.Len(t, opp.Path, 3)
	assert.Equal(t, sol, opp.Path[2].Mint, "triangular path must close back to the starting mint")
	assert.True(t, opp.ExpectedOutput.GreaterThan(opp.InputAmount))
}

func TestAntiCircularRejectsRepeatSignatureWithinHistory(t *testing.T) {
	sol, usdc, ray := mint(1), mint(2), mint(3)
	pairSolUsdc := types.NewPairKey(sol, usdc)
	pairUsdcRay := types.NewPairKey(usdc, ray)
	pairRaySol := types.NewPairKey(ray, sol)

	pools := fakePools{byPair: map[types.PairKey]types.LiquidityPool{
		pairSolUsdc: {MintA: sol, MintB: usdc, ReserveA: decimal.NewFromInt(10_000), ReserveB: decimal.NewFromInt(1_000_000), FeeBps: 25, VenueID: "v1"},
		pairUsdcRay: {MintA: usdc, MintB: ray, ReserveA: decimal.NewFromInt(1_000_000), ReserveB: decimal.NewFromInt(500_000), FeeBps: 25, VenueID: "v2"},
		pairRaySol:  {MintA: ray, MintB: sol, ReserveA: decimal.NewFromInt(500_000), ReserveB: decimal.NewFromInt(10_500), FeeBps: 25, VenueID: "v3"},
	}}

	circular := detect.NewCircularTradeDetector()
	d := detect.New(pools, circular)
	d.ReferenceTradeSize = decimal.NewFromFloat(1.0)

	graph := detect.Graph{
		sol:  {{Other: usdc, Pair: types.PairConfig{MintA: sol, MintB: usdc}}},
		usdc: {{Other: ray, Pair: types.PairConfig{MintA: usdc, MintB: ray}}},
		ray:  {{Other: sol, Pair: types.PairConfig{MintA: ray, MintB: sol}}},
	}

	first := d.Triangular(graph, []types.Mint{sol})
	require.NotEmpty(t, first)

	second := d.Triangular(graph, []types.Mint{sol})
	assert.Empty(t, second, "identical signature must not re-emit within the history window")
}

func TestCircularTradeDetectorRejectsTokenOnThirdUseWithinScan(t *testing.T) {
	circular := detect.NewCircularTradeDetector()
	circular.BeginScan()

	assert.True(t, circular.Allow("sig-1", []string{"SOL", "USDC"}), "1st use of SOL must be allowed")
	assert.True(t, circular.Allow("sig-2", []string{"SOL", "RAY"}), "2nd use of SOL must be allowed")
	assert.False(t, circular.Allow("sig-3", []string{"SOL", "JUP"}), "3rd use of SOL within one scan must be rejected")
}
