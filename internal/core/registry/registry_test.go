package registry_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arbcore/internal/core/registry"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

func mustMint(t *testing.T, s string) types.Mint {
	t.Helper()
	m, err := types.MintFromHex(s)
	require.NoError(t, err)
	return m
}

func TestAddTokenDuplicate(t *testing.T) {
	r := registry.New()
	sol := mustMint(t, "01")
	require.NoError(t, r.AddToken(types.Token{Mint: sol, Symbol: "SOL", Tier: types.TierMajor, Tradeable: true}))

	err := r.AddToken(types.Token{Mint: sol, Symbol: "SOL2", Tier: types.TierMajor, Tradeable: true})
	require.Error(t, err)
}

func TestAddPairUnknownMint(t *testing.T) {
	r := registry.New()
	sol := mustMint(t, "01")
	require.NoError(t, r.AddToken(types.Token{Mint: sol, Symbol: "SOL", Tier: types.TierMajor, Tradeable: true}))

	usdc := mustMint(t, "02")
	err := r.AddPair(sol, usdc, types.PairConfig{MinProfitBps: 25, MaxSlippageBps: 15, Enabled: true})
	require.Error(t, err)
}

func TestActivePairsOrderingAndFiltering(t *testing.T) {
	r := registry.New()
	sol := mustMint(t, "01")
	usdc := mustMint(t, "02")
	ray := mustMint(t, "03")
	dead := mustMint(t, "04")

	require.NoError(t, r.AddToken(types.Token{Mint: sol, Symbol: "SOL", Tier: types.TierMajor, Tradeable: true}))
	require.NoError(t, r.AddToken(types.Token{Mint: usdc, Symbol: "USDC", Tier: types.TierStable, Tradeable: true}))
	require.NoError(t, r.AddToken(types.Token{Mint: ray, Symbol: "RAY", Tier: types.TierEcosystem, Tradeable: true}))
	require.NoError(t, r.AddToken(types.Token{Mint: dead, Symbol: "DEAD", Tier: types.TierExperimental, Tradeable: false}))

	r.EnableTier(types.TierMajor)
	r.EnableTier(types.TierStable)
	r.EnableTier(types.TierEcosystem)

	require.NoError(t, r.AddPair(sol, ray, types.PairConfig{MinProfitBps: 25, MaxSlippageBps: 15, Priority: 2, Enabled: true, VolatilityMult: decimal.NewFromInt(1)}))
	require.NoError(t, r.AddPair(sol, usdc, types.PairConfig{MinProfitBps: 25, MaxSlippageBps: 15, Priority: 1, Enabled: true, VolatilityMult: decimal.NewFromInt(1)}))
	require.NoError(t, r.AddPair(sol, dead, types.PairConfig{MinProfitBps: 25, MaxSlippageBps: 15, Priority: 0, Enabled: true}))

	pairs := r.ActivePairs()
	require.Len(t, pairs, 2, "untradeable-token pair must be excluded")
	assert.Equal(t, usdc, pairs[0].MintB, "priority 1 pair sorts before priority 2")
	assert.Equal(t, ray, pairs[1].MintB)
}

func TestActivePairsEmptyWithNoTiersEnabled(t *testing.T) {
	r := registry.New()
	sol := mustMint(t, "01")
	usdc := mustMint(t, "02")
	require.NoError(t, r.AddToken(types.Token{Mint: sol, Symbol: "SOL", Tier: types.TierMajor, Tradeable: true}))
	require.NoError(t, r.AddToken(types.Token{Mint: usdc, Symbol: "USDC", Tier: types.TierStable, Tradeable: true}))
	require.NoError(t, r.AddPair(sol, usdc, types.PairConfig{MinProfitBps: 25, MaxSlippageBps: 15, Enabled: true}))

	assert.Empty(t, r.ActivePairs())
}

func TestIsPairTradeableUnordered(t *testing.T) {
	r := registry.New()
	sol := mustMint(t, "01")
	usdc := mustMint(t, "02")
	require.NoError(t, r.AddToken(types.Token{Mint: sol, Symbol: "SOL", Tier: types.TierMajor, Tradeable: true}))
	require.NoError(t, r.AddToken(types.Token{Mint: usdc, Symbol: "USDC", Tier: types.TierStable, Tradeable: true}))
	require.NoError(t, r.AddPair(sol, usdc, types.PairConfig{MinProfitBps: 25, MaxSlippageBps: 15, Enabled: true}))

	assert.True(t, r.IsPairTradeable(sol, usdc))
	assert.True(t, r.IsPairTradeable(usdc, sol))
}
