// Package simulate implements the Swap Simulator (C4): pure constant-product
// AMM math over decimal.Decimal. No I/O, no suspension points — every
// function here is safe to call from C5/C6 without a context.
package simulate

import (
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// Direction selects which side of the pool is being sold in.
type Direction int

const (
	// AToB sells mint_a, buys mint_b.
	AToB Direction = iota
	// BToA sells mint_b, buys mint_a.
	BToA
)

func reservesFor(pool types.LiquidityPool, dir Direction) (reserveIn, reserveOut decimal.Decimal) {
	if dir == AToB {
		return pool.ReserveA, pool.ReserveB
	}
	return pool.ReserveB, pool.ReserveA
}

// Simulate computes the constant-product swap output:
//
//	out = floor((in * (FEE_DEN - fee_bps) * reserve_out) / (reserve_in * FEE_DEN + in * (FEE_DEN - fee_bps)))
//
// It returns 0 on any zero reserve or non-positive input, and saturates at
// reserve_out - 1 so the pool is never fully drained.
func Simulate(pool types.LiquidityPool, inAmount decimal.Decimal, dir Direction) decimal.Decimal {
	reserveIn, reserveOut := reservesFor(pool, dir)

	if reserveIn.IsZero() || reserveOut.IsZero() || !inAmount.IsPositive() {
		return decimal.Zero
	}

	feeMult := types.FeeDen.Sub(decimal.NewFromInt32(pool.FeeBps))
	numerator := inAmount.Mul(feeMult).Mul(reserveOut)
	denominator := reserveIn.Mul(types.FeeDen).Add(inAmount.Mul(feeMult))
	if denominator.IsZero() {
		return decimal.Zero
	}

	out := numerator.Div(denominator).Truncate(0)

	cap := reserveOut.Sub(decimal.NewFromInt(1))
	if out.GreaterThan(cap) {
		return cap
	}
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// MarginalPrice returns the instantaneous pool price for the given
// direction, i.e. reserve_out / reserve_in.
func MarginalPrice(pool types.LiquidityPool, dir Direction) decimal.Decimal {
	reserveIn, reserveOut := reservesFor(pool, dir)
	if reserveIn.IsZero() {
		return decimal.Zero
	}
	return reserveOut.Div(reserveIn)
}

// PriceImpact returns 1 - (executed_price / marginal_price) for a swap of
// the given size. executed_price = out / in.
func PriceImpact(pool types.LiquidityPool, inAmount decimal.Decimal, dir Direction) decimal.Decimal {
	if !inAmount.IsPositive() {
		return decimal.Zero
	}
	marginal := MarginalPrice(pool, dir)
	if marginal.IsZero() {
		return decimal.Zero
	}
	out := Simulate(pool, inAmount, dir)
	executed := out.Div(inAmount)
	return decimal.NewFromInt(1).Sub(executed.Div(marginal))
}

// Quote wraps Simulate's result in a types.SwapQuote.
func Quote(pool types.LiquidityPool, inAmount decimal.Decimal, dir Direction) types.SwapQuote {
	return types.SwapQuote{
		InAmount:  inAmount,
		OutAmount: Simulate(pool, inAmount, dir),
		FeeBps:    pool.FeeBps,
	}
}
