package schedule_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/arbcore/internal/core/schedule"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

func TestModeForThresholds(t *testing.T) {
	cases := []struct {
		vol  float64
		mode types.MarketMode
	}{
		{0, types.ModeStable},
		{2, types.ModeStable},
		{2.1, types.ModeActive},
		{4, types.ModeActive},
		{4.1, types.ModeVolatile},
		{8, types.ModeVolatile},
		{8.1, types.ModeExplosive},
	}
	for _, c := range cases {
		got := schedule.ModeFor(decimal.NewFromFloat(c.vol))
		assert.Equal(t, c.mode, got, "vol=%v", c.vol)
	}
}

func TestExplosiveModeScenario(t *testing.T) {
	s := schedule.New(10 * time.Second)
	params := s.Recompute(decimal.NewFromInt(9))
	assert.Equal(t, types.ModeExplosive, params.Mode)
	assert.Equal(t, 5, params.MaxConcurrentExecutions)
	assert.Equal(t, int32(300), params.SlippageToleranceBps)
	assert.Contains(t, params.Tiers, types.TierExperimental)
}

func TestStableModeIsTier1Only(t *testing.T) {
	s := schedule.New(10 * time.Second)
	params := s.Recompute(decimal.Zero)
	assert.Equal(t, types.ModeStable, params.Mode)
	assert.NotContains(t, params.Tiers, types.TierExperimental)
	assert.NotContains(t, params.Tiers, types.TierEcosystem)
}
