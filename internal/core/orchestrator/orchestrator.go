// Package orchestrator implements the Core Orchestrator (C13): the state
// machine and per-cycle pipeline tying every other component together —
// tick volatility, recompute schedule parameters, sample active pairs,
// detect and score candidates, assess risk and MEV exposure, dispatch
// survivors through the gateway, and drain execution outcomes back into
// risk and stats. Grounded on the teacher's Orchestrator
// (internal/orchestrator/orchestrator.go): a single run loop owning a
// pause flag and a health-check side channel, generalized here into a
// four-state machine and a single-threaded cooperative cycle instead of
// a NATS-signal-driven consensus loop.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/ajitpratap0/arbcore/internal/core/aggregator"
	"github.com/ajitpratap0/arbcore/internal/core/detect"
	"github.com/ajitpratap0/arbcore/internal/core/events"
	"github.com/ajitpratap0/arbcore/internal/core/gateway"
	"github.com/ajitpratap0/arbcore/internal/core/mev"
	"github.com/ajitpratap0/arbcore/internal/core/registry"
	"github.com/ajitpratap0/arbcore/internal/core/risk"
	"github.com/ajitpratap0/arbcore/internal/core/schedule"
	"github.com/ajitpratap0/arbcore/internal/core/score"
	"github.com/ajitpratap0/arbcore/internal/core/sources"
	"github.com/ajitpratap0/arbcore/internal/core/stats"
	"github.com/ajitpratap0/arbcore/internal/core/types"
	"github.com/ajitpratap0/arbcore/internal/core/volatility"
)

// State is one of the four cycle-loop states spec.md §4.13 names.
type State string

const (
	StateActive           State = "active"
	StateCoolingDown      State = "cooling_down"
	StatePaused           State = "paused"
	StateEmergencyStopped State = "emergency_stopped"
)

// Config bundles the orchestrator's own tunables (distinct from the
// per-component configs passed to New for each wired dependency).
type Config struct {
	MaxOpportunitiesPerCycle int
	ReferenceTradeSize       decimal.Decimal
	PortfolioEstimate        decimal.Decimal
	OutcomeDrainLimit        int
}

// DefaultConfig mirrors conservative defaults; callers override via
// config.Config.
func DefaultConfig() Config {
	return Config{
		MaxOpportunitiesPerCycle: 10,
		ReferenceTradeSize:       decimal.NewFromInt(1000),
		PortfolioEstimate:        decimal.NewFromInt(100_000),
		OutcomeDrainLimit:        64,
	}
}

// Deps wires every component the cycle pipeline drives. None of these are
// owned by the Orchestrator; construction and lifecycle (e.g. closing the
// gateway's NATS connection) remain the caller's responsibility.
type Deps struct {
	Registry   *registry.Registry
	Aggregator *aggregator.Aggregator
	Detector   *detect.Detector
	Scorer     *score.Scorer
	Volatility *volatility.Tracker
	Scheduler  *schedule.Scheduler
	Risk       *risk.Manager
	MEV        *mev.Analyzer
	MEVConfig  mev.Config
	Gateway    *gateway.Gateway
	Stats      *stats.Tracker
	Events     *events.Bus
}

// Orchestrator is the process-wide singleton implementing C13.
type Orchestrator struct {
	cfg  Config
	deps Deps
	log  zerolog.Logger

	mu           sync.Mutex
	state        State
	coolingUntil time.Time

	wake chan struct{}
}

// New builds an Orchestrator in the Active state.
func New(cfg Config, deps Deps, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:   cfg,
		deps:  deps,
		log:   log.With().Str("component", "orchestrator").Logger(),
		state: StateActive,
		wake:  make(chan struct{}, 1),
	}
}

// State reports the current machine state and, for CoolingDown, the time
// it resumes.
func (o *Orchestrator) State() (State, time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state, o.coolingUntil
}

// Pause transitions to Paused: while paused, RunCycle only drains pending
// execution outcomes; it does not sample, detect, or count a cycle.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StatePaused
	o.log.Info().Msg("orchestrator paused")
}

// Resume clears Paused or an expired CoolingDown back to Active. It does
// not clear EmergencyStopped — that requires ResumeFromEmergency, mirroring
// risk.Manager's separate manual circuit-break/resume pair.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateEmergencyStopped {
		return
	}
	o.state = StateActive
	o.coolingUntil = time.Time{}
	o.log.Info().Msg("orchestrator resumed")
}

// CoolDown transitions to CoolingDown(until): detection is skipped but
// sampling and stats continue, matching spec.md's description of the state.
func (o *Orchestrator) CoolDown(d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateCoolingDown
	o.coolingUntil = time.Now().Add(d)
	o.log.Info().Dur("duration", d).Msg("orchestrator cooling down")
}

// EmergencyStop transitions to EmergencyStopped: no further cycles run
// until ResumeFromEmergency is called explicitly by an operator.
func (o *Orchestrator) EmergencyStop(reason string) {
	o.mu.Lock()
	o.state = StateEmergencyStopped
	o.mu.Unlock()
	o.log.Warn().Str("reason", reason).Msg("orchestrator emergency stopped")
	o.deps.Events.Publish(events.TopicCircuitBreakerFired, events.CircuitBreakerFired{Reason: reason, At: time.Now()})
}

// ResumeFromEmergency clears EmergencyStopped back to Active.
func (o *Orchestrator) ResumeFromEmergency() {
	o.mu.Lock()
	o.state = StateActive
	o.mu.Unlock()
	o.deps.Risk.Resume()
	o.deps.Events.Publish(events.TopicCircuitBreakerReset, events.CircuitBreakerReset{At: time.Now()})
	o.log.Info().Msg("orchestrator resumed from emergency stop")
}

// Wake requests an early tick, for a caller that observes a "market event"
// signal out of band (spec.md §4.13 step 8). Non-blocking: a pending wake
// is coalesced if Run hasn't consumed it yet.
func (o *Orchestrator) Wake() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) currentState() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateCoolingDown && time.Now().After(o.coolingUntil) {
		o.state = StateActive
	}
	return o.state
}

// Run drives the cycle loop until ctx is cancelled, sleeping between
// cycles for the interval schedule.Params.ScanInterval reports, or waking
// early on Wake().
func (o *Orchestrator) Run(ctx context.Context) error {
	interval := o.deps.Scheduler.BaseInterval

	for {
		params, err := o.RunCycle(ctx)
		if err != nil {
			o.log.Error().Err(err).Msg("cycle failed")
		}
		if params.ScanInterval > 0 {
			interval = params.ScanInterval
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.wake:
		case <-time.After(interval):
		}
	}
}

// RunCycle executes exactly one pass of the 8-step pipeline and returns the
// schedule.Params computed in step 2, for Run's sleep decision. Safe to
// call directly (e.g. from tests or a manual trigger) without Run.
func (o *Orchestrator) RunCycle(ctx context.Context) (schedule.Params, error) {
	state := o.currentState()
	if state == StatePaused || state == StateEmergencyStopped {
		o.drainOutcomes(ctx)
		return schedule.Params{}, nil
	}

	// 1. Tick volatility (C7).
	vol := o.deps.Volatility.Score()

	// 2. Recompute parameters (C8); log and publish mode changes.
	params := o.deps.Scheduler.Recompute(vol)
	prevMode := o.deps.Stats.Mode()
	if prevMode != params.Mode {
		o.log.Info().Str("old_mode", string(prevMode)).Str("new_mode", string(params.Mode)).Msg("market mode changed")
		o.deps.Events.Publish(events.TopicModeChanged, events.ModeChanged{Old: prevMode, New: params.Mode, Vol: vol})
	}
	o.deps.Stats.SetMode(params.Mode)
	o.deps.Stats.SetParams(params)

	for _, tier := range []types.Tier{types.TierMajor, types.TierStable, types.TierEcosystem, types.TierExperimental} {
		enable := false
		for _, t := range params.Tiers {
			if t == tier {
				enable = true
				break
			}
		}
		if enable {
			o.deps.Registry.EnableTier(tier)
		} else {
			o.deps.Registry.DisableTier(tier)
		}
	}

	pairs := o.deps.Registry.ActivePairs()

	// 3. Sample all active pairs (C3) with bounded parallelism.
	samplesByPair := o.deps.Aggregator.SampleAll(ctx, pairs, o.pairRequest)
	for _, snap := range o.deps.Aggregator.HealthSnapshots() {
		rate := o.deps.Aggregator.SuccessRate(snap.SourceID)
		o.deps.Stats.RecordAdapterHealth(snap.SourceID, rate)
	}
	o.observeVolatility(pairs, samplesByPair)

	if state == StateCoolingDown {
		// CoolingDown skips detection entirely but has already sampled and
		// recorded adapter/volatility telemetry above.
		o.drainOutcomes(ctx)
		o.deps.Stats.RecordCycle(true)
		return params, nil
	}

	// 4. Detect (C5). Score & rank (C6).
	var candidates []types.Opportunity
	for _, pc := range pairs {
		samples := samplesByPair[pc.Key()]
		if len(samples) == 0 {
			continue
		}
		candidates = append(candidates, o.deps.Detector.Pairwise(pc, samples)...)
		candidates = append(candidates, o.deps.Detector.AggregatorVsDirect(pc, samples)...)
	}
	candidates = append(candidates, o.deps.Detector.Triangular(o.buildGraph(pairs), hubMints(o.deps.Registry.HubTokens()))...)

	byKind := map[types.OpportunityKind]int{}
	scored := make([]types.Opportunity, 0, len(candidates))
	for _, c := range candidates {
		byKind[c.Kind]++
		scored = append(scored, o.deps.Scorer.Score(c, params.SlippageToleranceBps, params.ProfitThresholdMultiplier))
	}
	o.deps.Stats.RecordOpportunities(byKind)

	ranked := o.deps.Scorer.RankAndTruncate(scored, o.cfg.MaxOpportunitiesPerCycle)

	// 5. For each top-K, assess risk (C9) then MEV (C10).
	o.deps.Risk.SetOpenPositions(o.deps.Gateway.Outstanding())
	for _, opp := range ranked {
		assessment := o.deps.Risk.Assess(ctx, opp, risk.MarketContext{
			PortfolioEstimate: o.cfg.PortfolioEstimate,
			VolatilityScore:   vol,
		})
		if !assessment.Approved {
			o.handleRiskRejection(opp, assessment)
			continue
		}
		if assessment.Recommendation.Kind == types.RecReduceSize {
			opp.InputAmount = assessment.Recommendation.NewAmount
		}

		mevAssessment := o.deps.MEV.Classify(opp, mev.Input{VolatilityScore: vol})
		if mevAssessment.Recommendation == types.MevAbort {
			o.reject(opp, "mev_abort")
			continue
		}
		// MevDelayExecution (High) is not a drop: it is forwarded with
		// protected submission required, never silently discarded.
		opp.RequiresProtectedSend = mev.RequiresProtectedSend(mevAssessment, o.deps.MEVConfig)

		// 6. Publish survivors through the gateway (C11).
		o.deps.Gateway.Offer(opp)
		o.deps.Stats.RecordExecutionAttempt()
		o.deps.Events.Publish(events.TopicOpportunityAccepted, events.OpportunityAccepted{
			ID: opp.ID, Kind: opp.Kind, NetProfit: opp.NetProfit, Priority: opp.Priority,
			RequiresProtectedSend: opp.RequiresProtectedSend,
		})
	}

	if _, err := o.deps.Gateway.Dispatch(ctx); err != nil {
		o.log.Error().Err(err).Msg("gateway dispatch failed")
	}

	// 7. Drain any pending outcomes and feed them back to C9/C12.
	o.drainOutcomes(ctx)

	o.deps.Stats.RecordCycle(true)
	return params, nil
}

func (o *Orchestrator) handleRiskRejection(opp types.Opportunity, assessment types.RiskAssessment) {
	reason := string(assessment.Recommendation.Kind)
	o.reject(opp, reason)
	if assessment.Recommendation.Kind == types.RecCircuitBreak {
		o.EmergencyStop("risk manager circuit break: " + reason)
	}
}

func (o *Orchestrator) reject(opp types.Opportunity, reason string) {
	o.deps.Events.Publish(events.TopicOpportunityRejected, events.OpportunityRejected{ID: opp.ID, Reason: reason})
}

// drainOutcomes empties whatever the gateway has collected from the
// executor without blocking, feeding each into risk accounting, stats, and
// the event bus — step 7 of the cycle, also run during CoolingDown/Paused
// so feedback isn't lost while detection is suspended.
func (o *Orchestrator) drainOutcomes(ctx context.Context) {
	limit := o.cfg.OutcomeDrainLimit
	if limit <= 0 {
		limit = 64
	}
	for i := 0; i < limit; i++ {
		select {
		case outcome := <-o.deps.Gateway.Outcomes():
			if err := o.deps.Risk.RecordOutcome(ctx, outcome); err != nil {
				o.log.Error().Err(err).Msg("failed to record outcome with risk manager")
			}
			o.deps.Stats.RecordExecutionOutcome(outcome)
			o.deps.Events.Publish(events.TopicExecutionOutcome, events.ExecutionOutcomeEvent{
				ID: outcome.OpportunityID, Success: outcome.Success, Realized: outcome.RealizedProfit,
			})
			if bstate, manual := o.deps.Risk.State(); bstate == gobreaker.StateOpen || manual {
				o.EmergencyStop("risk manager circuit breaker tripped")
			}
		default:
			return
		}
	}
}

// observeVolatility feeds the designated reference pair's freshest sample
// into C7 so next cycle's Score() reflects it; the first active pair each
// cycle is the designation (ActivePairs() is priority-sorted, so this
// tracks whichever pair currently ranks highest).
func (o *Orchestrator) observeVolatility(pairs []types.PairConfig, samplesByPair map[types.PairKey][]types.PriceSample) {
	if len(pairs) == 0 {
		return
	}
	samples := samplesByPair[pairs[0].Key()]
	if len(samples) == 0 {
		return
	}
	o.deps.Volatility.Observe(samples[0].Price)
}

// pairRequest builds the per-pair sampling request the aggregator needs,
// sized to the pair's configured max position (falling back to the
// orchestrator's reference trade size when unset).
func (o *Orchestrator) pairRequest(pc types.PairConfig) sources.PairRequest {
	amount := pc.MaxPositionSize
	if amount.IsZero() {
		amount = o.cfg.ReferenceTradeSize
	}
	return sources.PairRequest{
		Pair:     pc.Key(),
		MintA:    pc.MintA,
		MintB:    pc.MintB,
		InAmount: amount,
	}
}

// buildGraph turns the registry's active pairs into the adjacency list
// detect.Triangular walks.
func (o *Orchestrator) buildGraph(pairs []types.PairConfig) detect.Graph {
	graph := make(detect.Graph)
	for _, pc := range pairs {
		graph[pc.MintA] = append(graph[pc.MintA], detect.Edge{Other: pc.MintB, Pair: pc})
		graph[pc.MintB] = append(graph[pc.MintB], detect.Edge{Other: pc.MintA, Pair: pc})
	}
	return graph
}

func hubMints(tokens []types.Token) []types.Mint {
	out := make([]types.Mint, len(tokens))
	for i, t := range tokens {
		out[i] = t.Mint
	}
	return out
}
