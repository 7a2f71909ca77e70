// Package types holds the shared data model for the arbitrage core:
// tokens, pairs, price samples, liquidity pools, swap quotes, opportunities,
// risk assessments, market modes and execution outcomes. These are value
// objects moved between components; none of them are mutated after
// construction except where explicitly noted.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeDen is the basis-point denominator used throughout the core.
var FeeDen = decimal.NewFromInt(10_000)

// Tier classifies a token's systemic role.
type Tier string

const (
	TierMajor        Tier = "major"
	TierEcosystem    Tier = "ecosystem"
	TierStable       Tier = "stable"
	TierExperimental Tier = "experimental"
)

// IsHub reports whether a tier is eligible to seed a triangular cycle.
func (t Tier) IsHub() bool {
	return t == TierMajor || t == TierStable
}

// RiskLevel classifies a token's intrinsic risk.
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "very_low"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// Token is a registry entry identified by a platform-agnostic Mint.
type Token struct {
	Mint       Mint
	Symbol     string
	Decimals   int32
	Tier       Tier
	Risk       RiskLevel
	Tradeable  bool
	Verified   bool
}

// PairKey is the canonical unordered identity of a two-token pair, used as
// a map key. Construct with NewPairKey so ordering is deterministic.
type PairKey struct {
	A Mint
	B Mint
}

// NewPairKey orders the two mints lexicographically so (x,y) and (y,x)
// produce the same key.
func NewPairKey(a, b Mint) PairKey {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return PairKey{A: a, B: b}
			}
			return PairKey{A: b, B: a}
		}
	}
	return PairKey{A: a, B: b}
}

// PairConfig is a directed-agnostic configuration for an enabled pair.
type PairConfig struct {
	MintA             Mint
	MintB             Mint
	MinProfitBps      int32
	MaxSlippageBps    int32
	MaxPositionSize   decimal.Decimal
	Priority          int32
	Enabled           bool
	VolatilityMult    decimal.Decimal
}

// Key returns the pair's canonical unordered identity.
func (p PairConfig) Key() PairKey {
	return NewPairKey(p.MintA, p.MintB)
}

// SourceKind identifies the capability family a price sample came from.
type SourceKind string

const (
	SourceAggregatorQuote SourceKind = "aggregator_quote"
	SourceAmmReserve      SourceKind = "amm_reserve_derived"
	SourceOrderBookTop    SourceKind = "order_book_top"
	SourceReferenceFeed   SourceKind = "reference_feed"
)

// PriceSample is one reading from one adapter for one pair. It is never
// mutated after creation; Fresh computes staleness against a wall clock.
type PriceSample struct {
	Pair         PairKey
	SourceID     string
	Kind         SourceKind
	Price        decimal.Decimal // marginal price, quote-per-base
	Volume24h    *decimal.Decimal
	Confidence   decimal.Decimal
	SpreadBps    int32
	ObtainedAt   time.Time
	TTL          time.Duration
	VenueID      string
}

// Fresh reports whether the sample is still within its TTL at the given
// instant. Strict inequality: a sample aged exactly TTL is stale.
func (s PriceSample) Fresh(now time.Time) bool {
	return now.Sub(s.ObtainedAt) < s.TTL
}

// TickMeta carries concentrated-liquidity metadata for CLMM pools.
type TickMeta struct {
	SqrtPrice       decimal.Decimal
	Tick            int32
	ActiveLiquidity decimal.Decimal
	FeeTierBps      int32
}

// LiquidityPool is a decoded AMM pool (constant-product or CLMM).
type LiquidityPool struct {
	PoolID     string
	VenueID    string
	MintA      Mint
	MintB      Mint
	ReserveA   decimal.Decimal
	ReserveB   decimal.Decimal
	FeeBps     int32
	LastUpdate time.Time
	Tick       *TickMeta
}

// Quotable reports whether the pool has positive reserves on both sides
// and a sane fee.
func (p LiquidityPool) Quotable() bool {
	return p.ReserveA.IsPositive() && p.ReserveB.IsPositive() && p.FeeBps <= 10_000
}

// MarginalPrice returns reserve_b / reserve_a, quote-per-base.
func (p LiquidityPool) MarginalPrice() decimal.Decimal {
	if p.ReserveA.IsZero() {
		return decimal.Zero
	}
	return p.ReserveB.Div(p.ReserveA)
}

// VenueRef identifies a specific venue a pool-lookup resolved to.
type VenueRef struct {
	VenueID string
	PoolID  string
}

// SwapQuote is derived, never stored.
type SwapQuote struct {
	InAmount  decimal.Decimal
	OutAmount decimal.Decimal
	FeeBps    int32
}

// OpportunityKind enumerates the three detection strategies.
type OpportunityKind string

const (
	KindPairwiseAcrossVenue OpportunityKind = "pairwise_across_venue"
	KindTriangular          OpportunityKind = "triangular"
	KindAggregatorVsDirect  OpportunityKind = "aggregator_vs_direct"
)

// Hop is one leg of an opportunity's path: trade into Mint via Venue.
type Hop struct {
	Mint    Mint
	VenueID string
	Quote   SwapQuote
}

// Priority buckets net profit for downstream ordering. It is not a
// probability.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
	PriorityMonitor  Priority = "monitor"
)

// priorityRank gives a strict ordering for comparisons; lower is better.
var priorityRank = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:      1,
	PriorityMedium:    2,
	PriorityLow:       3,
	PriorityMonitor:   4,
}

// Rank returns the strict ordering rank of a priority; lower is better.
func (p Priority) Rank() int {
	return priorityRank[p]
}

// Opportunity is a candidate arbitrage trade, born in C5, scored in C6,
// gated in C9/C10.
type Opportunity struct {
	ID              string
	Kind            OpportunityKind
	Path            []Hop
	InputAmount     decimal.Decimal
	ExpectedOutput  decimal.Decimal
	EstimatedFees   decimal.Decimal
	EstimatedGas    decimal.Decimal
	NetProfit       decimal.Decimal
	ProfitPct       decimal.Decimal
	Confidence      decimal.Decimal
	Priority        Priority
	CreatedAt       time.Time
	PathSignature   string
	RequiresProtectedSend bool
	MinReserve      decimal.Decimal
	MinVolume24h    *decimal.Decimal
	TrustedVenues   bool
	ExecutionComplexity int
}

// FactorSeverity classifies an individual risk factor's severity.
type FactorSeverity string

const (
	SeverityLow      FactorSeverity = "low"
	SeverityMedium   FactorSeverity = "medium"
	SeverityHigh     FactorSeverity = "high"
	SeverityCritical FactorSeverity = "critical"
)

// RiskFactor is one contributing input to an aggregate risk score.
type RiskFactor struct {
	Type     string
	Severity FactorSeverity
	Impact   decimal.Decimal // [0,1]
}

// RecommendationKind enumerates the outcomes a risk assessment can produce.
type RecommendationKind string

const (
	RecProceed      RecommendationKind = "proceed"
	RecReduceSize   RecommendationKind = "reduce_size"
	RecDelay        RecommendationKind = "delay"
	RecReject       RecommendationKind = "reject"
	RecCircuitBreak RecommendationKind = "circuit_break"
)

// Recommendation carries the kind plus any parameter it requires.
type Recommendation struct {
	Kind        RecommendationKind
	NewAmount   decimal.Decimal // set for ReduceSize
	DelaySeconds int            // set for Delay
}

// RiskAssessment is the immutable outcome of one assess() call.
type RiskAssessment struct {
	Approved       bool
	Score          decimal.Decimal // [0,1]
	Factors        []RiskFactor
	Recommendation Recommendation
}

// MarketMode classifies the current volatility regime.
type MarketMode string

const (
	ModeStable    MarketMode = "stable"
	ModeActive    MarketMode = "active"
	ModeVolatile  MarketMode = "volatile"
	ModeExplosive MarketMode = "explosive"
)

// ExecutionOutcome is inbound feedback from the external executor.
type ExecutionOutcome struct {
	OpportunityID    string
	Success          bool
	RealizedProfit   decimal.Decimal
	FeesPaid         decimal.Decimal
	SlippageExperienced decimal.Decimal
	Duration         time.Duration
	ErrorCategory    string
}

// MevRiskLevel classifies sandwich/front-run exposure for a candidate.
type MevRiskLevel string

const (
	MevLow      MevRiskLevel = "low"
	MevMedium   MevRiskLevel = "medium"
	MevHigh     MevRiskLevel = "high"
	MevCritical MevRiskLevel = "critical"
)

// MevRecommendation enumerates C10's outbound decision.
type MevRecommendation string

const (
	MevProceed         MevRecommendation = "proceed"
	MevIncreaseSlippage MevRecommendation = "increase_slippage"
	MevDelayExecution   MevRecommendation = "delay_execution"
	MevAbort            MevRecommendation = "abort"
)

// MevAssessment is the outcome of a C10 classification.
type MevAssessment struct {
	Level          MevRiskLevel
	Recommendation MevRecommendation
}
