package simulate_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/arbcore/internal/core/simulate"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

func pool(reserveA, reserveB int64, feeBps int32) types.LiquidityPool {
	return types.LiquidityPool{
		ReserveA: decimal.NewFromInt(reserveA),
		ReserveB: decimal.NewFromInt(reserveB),
		FeeBps:   feeBps,
	}
}

func TestSimulateZeroReserveReturnsZero(t *testing.T) {
	p := pool(0, 1_000_000, 30)
	out := simulate.Simulate(p, decimal.NewFromInt(1000), simulate.AToB)
	assert.True(t, out.IsZero())
}

func TestSimulateZeroInputReturnsZero(t *testing.T) {
	p := pool(1_000_000, 1_000_000, 30)
	out := simulate.Simulate(p, decimal.Zero, simulate.AToB)
	assert.True(t, out.IsZero())
}

func TestSimulateNeverDrainsPool(t *testing.T) {
	p := pool(1_000, 1_000, 30)
	out := simulate.Simulate(p, decimal.NewFromInt(1_000_000_000), simulate.AToB)
	assert.True(t, out.LessThan(p.ReserveB))
}

func TestSimulateMonotoneNonDecreasing(t *testing.T) {
	p := pool(1_000_000, 1_000_000, 30)
	prev := decimal.Zero
	for _, in := range []int64{0, 100, 1_000, 10_000, 100_000} {
		out := simulate.Simulate(p, decimal.NewFromInt(in), simulate.AToB)
		assert.True(t, out.GreaterThanOrEqual(prev), "out must be non-decreasing in in_amount")
		assert.True(t, out.LessThan(p.ReserveB))
		prev = out
	}
}

func TestMarginalPriceBothDirections(t *testing.T) {
	p := pool(1_000_000, 2_000_000, 30)
	assert.True(t, simulate.MarginalPrice(p, simulate.AToB).Equal(decimal.NewFromInt(2)))
	assert.True(t, simulate.MarginalPrice(p, simulate.BToA).Equal(decimal.NewFromFloat(0.5)))
}

func TestPriceImpactIsPositiveForNonTrivialTrade(t *testing.T) {
	p := pool(1_000_000, 1_000_000, 30)
	impact := simulate.PriceImpact(p, decimal.NewFromInt(100_000), simulate.AToB)
	assert.True(t, impact.IsPositive(), "a sizeable trade must move the executed price worse than marginal")
}

func TestPairwiseSpreadScenario(t *testing.T) {
	// Scenario 1 from the testable-properties scenario seeds: pool X with
	// reserves (1_000_000, 1_050_000), pool Y with (1_000_000, 1_000_000),
	// both fee 30bps, in_amount 10_000 base tokens.
	x := pool(1_000_000, 1_050_000, 30)
	y := pool(1_000_000, 1_000_000, 30)

	in := decimal.NewFromInt(10_000)
	outFromY := simulate.Simulate(y, in, simulate.AToB)
	// Sell into Y (cheap), then the proceeds are worth more sold back via X's
	// marginal price; the pairwise detector captures this as a spread, not a
	// direct two-hop sequence, so here we just confirm the two pools quote
	// differently enough to produce a nonzero spread candidate.
	px := simulate.MarginalPrice(x, simulate.AToB)
	py := simulate.MarginalPrice(y, simulate.AToB)
	assert.True(t, px.GreaterThan(py))
	assert.True(t, outFromY.IsPositive())
}
