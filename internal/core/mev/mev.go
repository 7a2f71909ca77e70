// Package mev implements the MEV Risk Analyzer (C10): a heuristic
// classifier over sandwich/front-run exposure, fixed-mapped to a
// recommendation per spec.md §4.10 and the Design Notes §9 Q4 resolution
// (Critical always aborts; High always requests protected submission;
// Medium requests it only when the global config enables it; Low always
// proceeds).
package mev

import (
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// Config tunes the classifier's thresholds.
type Config struct {
	// SensitiveVenues are venue IDs known to have thin order books or
	// public mempools where sandwich attacks are common.
	SensitiveVenues map[string]bool
	// LiquidityImpactHighBps / CriticalBps bound in-amount as a fraction
	// of path liquidity (in bps) before the size itself is the risk driver.
	LiquidityImpactHighBps     int32
	LiquidityImpactCriticalBps int32
	// VolatilityHigh / Critical bound the pair's recent volatility score
	// (from C7) before it escalates the classification.
	VolatilityHigh     decimal.Decimal
	VolatilityCritical decimal.Decimal
	// ImbalanceRatio flags a suspicious same-side skew across venues (the
	// ratio of the larger same-direction quote to the smaller).
	ImbalanceRatio decimal.Decimal
	// RequireProtectedSend gates whether Medium findings are tagged
	// requires_protected_send, vs. left for the executor to decide. High
	// findings are always tagged.
	RequireProtectedSend bool
}

// DefaultConfig mirrors conservative defaults; callers override via
// config.Config.
func DefaultConfig() Config {
	return Config{
		SensitiveVenues:            map[string]bool{},
		LiquidityImpactHighBps:     300,  // 3% of pool
		LiquidityImpactCriticalBps: 1000, // 10% of pool
		VolatilityHigh:             decimal.NewFromInt(4),
		VolatilityCritical:         decimal.NewFromInt(8),
		ImbalanceRatio:             decimal.NewFromFloat(3.0),
		RequireProtectedSend:       true,
	}
}

// Analyzer classifies candidates for MEV exposure.
type Analyzer struct {
	cfg Config
}

// New builds an Analyzer.
func New(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// VenueSideVolume is one venue's directional quote depth for the imbalance
// heuristic (the larger the skew between venues quoting the same side, the
// more likely a bot is already positioning against the pair).
type VenueSideVolume struct {
	VenueID string
	Volume  decimal.Decimal
}

// Input bundles the signals the classifier needs beyond the opportunity
// itself.
type Input struct {
	VolatilityScore decimal.Decimal
	SameSideVolumes []VenueSideVolume
}

// Classify runs the heuristic and returns a fixed-mapped recommendation.
func (a *Analyzer) Classify(opp types.Opportunity, in Input) types.MevAssessment {
	level := types.MevLow

	if raised := a.liquidityImpactLevel(opp); severityRank(raised) > severityRank(level) {
		level = raised
	}
	if raised := a.venueLevel(opp); severityRank(raised) > severityRank(level) {
		level = raised
	}
	if raised := a.volatilityLevel(in.VolatilityScore); severityRank(raised) > severityRank(level) {
		level = raised
	}
	if raised := a.imbalanceLevel(in.SameSideVolumes); severityRank(raised) > severityRank(level) {
		level = raised
	}

	return types.MevAssessment{
		Level:          level,
		Recommendation: a.recommendationFor(level),
	}
}

func (a *Analyzer) liquidityImpactLevel(opp types.Opportunity) types.MevRiskLevel {
	if opp.MinReserve.IsZero() || opp.MinReserve.IsNegative() {
		return types.MevLow
	}
	impactBps := opp.InputAmount.Mul(types.FeeDen).Div(opp.MinReserve)
	switch {
	case impactBps.GreaterThanOrEqual(decimal.NewFromInt32(a.cfg.LiquidityImpactCriticalBps)):
		return types.MevCritical
	case impactBps.GreaterThanOrEqual(decimal.NewFromInt32(a.cfg.LiquidityImpactHighBps)):
		return types.MevHigh
	default:
		return types.MevLow
	}
}

func (a *Analyzer) venueLevel(opp types.Opportunity) types.MevRiskLevel {
	for _, hop := range opp.Path {
		if a.cfg.SensitiveVenues[hop.VenueID] {
			return types.MevMedium
		}
	}
	return types.MevLow
}

func (a *Analyzer) volatilityLevel(vol decimal.Decimal) types.MevRiskLevel {
	switch {
	case vol.GreaterThanOrEqual(a.cfg.VolatilityCritical):
		return types.MevHigh
	case vol.GreaterThanOrEqual(a.cfg.VolatilityHigh):
		return types.MevMedium
	default:
		return types.MevLow
	}
}

func (a *Analyzer) imbalanceLevel(volumes []VenueSideVolume) types.MevRiskLevel {
	if len(volumes) < 2 {
		return types.MevLow
	}
	min, max := volumes[0].Volume, volumes[0].Volume
	for _, v := range volumes[1:] {
		if v.Volume.LessThan(min) {
			min = v.Volume
		}
		if v.Volume.GreaterThan(max) {
			max = v.Volume
		}
	}
	if min.IsZero() {
		if max.IsPositive() {
			return types.MevMedium
		}
		return types.MevLow
	}
	ratio := max.Div(min)
	if ratio.GreaterThanOrEqual(a.cfg.ImbalanceRatio) {
		return types.MevMedium
	}
	return types.MevLow
}

func severityRank(l types.MevRiskLevel) int {
	switch l {
	case types.MevCritical:
		return 3
	case types.MevHigh:
		return 2
	case types.MevMedium:
		return 1
	default:
		return 0
	}
}

func (a *Analyzer) recommendationFor(level types.MevRiskLevel) types.MevRecommendation {
	switch level {
	case types.MevCritical:
		return types.MevAbort
	case types.MevHigh:
		return types.MevDelayExecution
	case types.MevMedium:
		if a.cfg.RequireProtectedSend {
			return types.MevIncreaseSlippage
		}
		return types.MevProceed
	default:
		return types.MevProceed
	}
}

// RequiresProtectedSend reports whether the executor should route this
// assessment through a private-submission channel, per spec.md §4.10's
// requires_protected_send tag. High always requires it; Medium only when
// the global config opts in; Critical is moot since it's aborted outright.
func RequiresProtectedSend(a types.MevAssessment, cfg Config) bool {
	switch a.Level {
	case types.MevHigh:
		return true
	case types.MevMedium:
		return cfg.RequireProtectedSend
	default:
		return false
	}
}
