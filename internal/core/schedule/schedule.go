// Package schedule implements the Adaptive Scheduler (C8): mapping a
// volatility score to a MarketMode and a table of cycle parameters. The
// cadence is fully dynamic — recomputed every cycle from the latest
// volatility reading — so there is no cron-style expression parser here,
// just a plain table lookup and a fresh timer wait per cycle at the call
// site.
package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// Params are the per-cycle parameters derived from the current market mode.
type Params struct {
	Mode                     types.MarketMode
	ScanInterval             time.Duration
	ProfitThresholdMultiplier decimal.Decimal
	MaxConcurrentExecutions  int
	SlippageToleranceBps     int32
	Tiers                    []types.Tier
}

var (
	thresholdExplosive = decimal.NewFromInt(8)
	thresholdVolatile  = decimal.NewFromInt(4)
	thresholdActive    = decimal.NewFromInt(2)
)

// ModeFor classifies a volatility score into a MarketMode per spec
// thresholds: >8 Explosive, >4 Volatile, >2 Active, else Stable.
func ModeFor(vol decimal.Decimal) types.MarketMode {
	switch {
	case vol.GreaterThan(thresholdExplosive):
		return types.ModeExplosive
	case vol.GreaterThan(thresholdVolatile):
		return types.ModeVolatile
	case vol.GreaterThan(thresholdActive):
		return types.ModeActive
	default:
		return types.ModeStable
	}
}

// Scheduler holds the configured base interval and produces Params for a
// given market mode.
type Scheduler struct {
	BaseInterval time.Duration
}

// New builds a Scheduler with the given base scan interval.
func New(baseInterval time.Duration) *Scheduler {
	return &Scheduler{BaseInterval: baseInterval}
}

// ParamsFor returns the mode-driven parameter row for the given mode.
func (s *Scheduler) ParamsFor(mode types.MarketMode) Params {
	base := s.BaseInterval

	switch mode {
	case types.ModeStable:
		return Params{
			Mode:                      mode,
			ScanInterval:              time.Duration(float64(base) * 1.5),
			ProfitThresholdMultiplier: decimal.NewFromFloat(1.0),
			MaxConcurrentExecutions:   1,
			SlippageToleranceBps:      100,
			Tiers:                     []types.Tier{types.TierMajor, types.TierStable},
		}
	case types.ModeActive:
		return Params{
			Mode:                      mode,
			ScanInterval:              base,
			ProfitThresholdMultiplier: decimal.NewFromFloat(0.7),
			MaxConcurrentExecutions:   2,
			SlippageToleranceBps:      150,
			Tiers:                     []types.Tier{types.TierMajor, types.TierStable, types.TierEcosystem},
		}
	case types.ModeVolatile:
		return Params{
			Mode:                      mode,
			ScanInterval:              time.Duration(float64(base) * 0.33),
			ProfitThresholdMultiplier: decimal.NewFromFloat(0.4),
			MaxConcurrentExecutions:   3,
			SlippageToleranceBps:      200,
			Tiers:                     []types.Tier{types.TierMajor, types.TierStable, types.TierEcosystem},
		}
	case types.ModeExplosive:
		return Params{
			Mode:                      mode,
			ScanInterval:              time.Duration(float64(base) * 0.17),
			ProfitThresholdMultiplier: decimal.NewFromFloat(0.3),
			MaxConcurrentExecutions:   5,
			SlippageToleranceBps:      300,
			Tiers:                     []types.Tier{types.TierMajor, types.TierStable, types.TierEcosystem, types.TierExperimental},
		}
	default:
		return s.ParamsFor(types.ModeStable)
	}
}

// Recompute is the per-cycle entry point: classify the volatility score
// and return the resulting Params.
func (s *Scheduler) Recompute(vol decimal.Decimal) Params {
	return s.ParamsFor(ModeFor(vol))
}
