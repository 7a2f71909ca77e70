// Package score implements the Scorer & Ranker (C6): fee/gas deduction,
// net profit, profit percentage, confidence scoring and priority
// classification, sorted and truncated deterministically. Generalizes the
// teacher's calculateOpportunityScore/calculateOpportunityConfidence
// clamp-to-[0,1] weighted-combination idiom into the fee/gas/slippage net
// profit model spec.md §4.6 mandates.
package score

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// GasCost is the fixed per-kind gas unit cost in the quote currency of the
// input token (converted by the caller via the registry if needed).
var GasCost = map[types.OpportunityKind]decimal.Decimal{
	types.KindPairwiseAcrossVenue: decimal.NewFromInt(1),
	types.KindTriangular:          decimal.NewFromInt(3),
	types.KindAggregatorVsDirect:  decimal.NewFromInt(2),
}

// Thresholds configures the confidence and priority tuning knobs.
type Thresholds struct {
	HighVolume24h      decimal.Decimal
	DeepLiquidity      decimal.Decimal
	TrustedVenues      map[string]bool
}

// DefaultThresholds mirrors conservative defaults; callers override via
// config.Config.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighVolume24h: decimal.NewFromInt(100_000),
		DeepLiquidity: decimal.NewFromInt(500_000),
		TrustedVenues: map[string]bool{},
	}
}

// Scorer computes net-profit-bearing fields on a candidate Opportunity and
// ranks a batch.
type Scorer struct {
	Thresholds Thresholds
}

// New builds a Scorer with the given thresholds.
func New(t Thresholds) *Scorer {
	return &Scorer{Thresholds: t}
}

// feeTotal sums per-hop fee = in_hop * fee_bps_hop / 10_000.
func feeTotal(opp types.Opportunity) decimal.Decimal {
	total := decimal.Zero
	in := opp.InputAmount
	for _, hop := range opp.Path {
		fee := in.Mul(decimal.NewFromInt32(hop.Quote.FeeBps)).Div(types.FeeDen)
		total = total.Add(fee)
		in = hop.Quote.OutAmount
	}
	return total
}

// Score computes gross/net profit, profit %, confidence and priority for
// one candidate in place, returning the same value with those fields set.
// thresholdMultiplier is C8's current Params.ProfitThresholdMultiplier
// (itself driven by C7's volatility reading): it scales the priority
// thresholds down in more volatile/active market modes, so the same
// profit_pct classifies at a higher priority when conditions favor acting
// on it quickly. A non-positive multiplier is treated as 1 (no scaling).
func (s *Scorer) Score(opp types.Opportunity, maxSlippageBps int32, thresholdMultiplier decimal.Decimal) types.Opportunity {
	gross := opp.ExpectedOutput.Sub(opp.InputAmount)
	fees := feeTotal(opp)
	gas := GasCost[opp.Kind]
	slippageReserve := opp.InputAmount.Mul(decimal.NewFromInt32(maxSlippageBps)).Div(types.FeeDen)

	net := gross.Sub(fees).Sub(gas).Sub(slippageReserve)

	var profitPct decimal.Decimal
	if opp.InputAmount.IsPositive() {
		profitPct = net.Div(opp.InputAmount)
	}

	opp.EstimatedFees = fees
	opp.EstimatedGas = gas
	opp.NetProfit = net
	opp.ProfitPct = profitPct
	opp.Confidence = s.confidence(opp, profitPct)
	opp.Priority = priorityFor(profitPct, thresholdMultiplier)

	return opp
}

func (s *Scorer) confidence(opp types.Opportunity, profitPct decimal.Decimal) decimal.Decimal {
	c := opp.Confidence // base: min of contributing sample confidences, set by the detector

	if opp.MinVolume24h != nil && opp.MinVolume24h.GreaterThan(s.Thresholds.HighVolume24h) {
		c = c.Add(decimal.NewFromFloat(0.20))
	}
	if opp.MinReserve.GreaterThan(s.Thresholds.DeepLiquidity) {
		c = c.Add(decimal.NewFromFloat(0.15))
	}
	if profitPct.GreaterThan(decimal.NewFromFloat(0.05)) {
		c = c.Sub(decimal.NewFromFloat(0.20))
	}
	if opp.TrustedVenues {
		c = c.Add(decimal.NewFromFloat(0.15))
	}

	return clampUnit(c)
}

func clampUnit(d decimal.Decimal) decimal.Decimal {
	if d.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return d
}

var (
	critThreshold   = decimal.NewFromFloat(0.02)
	highThreshold   = decimal.NewFromFloat(0.01)
	mediumThreshold = decimal.NewFromFloat(0.005)
	lowThreshold    = decimal.NewFromFloat(0.002)
)

func priorityFor(profitPct, thresholdMultiplier decimal.Decimal) types.Priority {
	if thresholdMultiplier.LessThanOrEqual(decimal.Zero) {
		thresholdMultiplier = decimal.NewFromInt(1)
	}

	switch {
	case profitPct.GreaterThanOrEqual(critThreshold.Mul(thresholdMultiplier)):
		return types.PriorityCritical
	case profitPct.GreaterThanOrEqual(highThreshold.Mul(thresholdMultiplier)):
		return types.PriorityHigh
	case profitPct.GreaterThanOrEqual(mediumThreshold.Mul(thresholdMultiplier)):
		return types.PriorityMedium
	case profitPct.GreaterThanOrEqual(lowThreshold.Mul(thresholdMultiplier)):
		return types.PriorityLow
	default:
		return types.PriorityMonitor
	}
}

// RankAndTruncate sorts candidates descending by net_profit * confidence,
// breaking ties by higher confidence, then lower execution complexity,
// then earlier created_at, and truncates to maxPerCycle.
func (s *Scorer) RankAndTruncate(opps []types.Opportunity, maxPerCycle int) []types.Opportunity {
	sort.SliceStable(opps, func(i, j int) bool {
		scoreI := opps[i].NetProfit.Mul(opps[i].Confidence)
		scoreJ := opps[j].NetProfit.Mul(opps[j].Confidence)
		if !scoreI.Equal(scoreJ) {
			return scoreI.GreaterThan(scoreJ)
		}
		if !opps[i].Confidence.Equal(opps[j].Confidence) {
			return opps[i].Confidence.GreaterThan(opps[j].Confidence)
		}
		if opps[i].ExecutionComplexity != opps[j].ExecutionComplexity {
			return opps[i].ExecutionComplexity < opps[j].ExecutionComplexity
		}
		return opps[i].CreatedAt.Before(opps[j].CreatedAt)
	})

	if maxPerCycle > 0 && len(opps) > maxPerCycle {
		opps = opps[:maxPerCycle]
	}
	return opps
}
