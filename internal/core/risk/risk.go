// Package risk implements the Risk Manager & Circuit Breaker (C9): a
// per-opportunity weighted risk assessment plus a single global
// opportunity-acceptance kill switch. Generalizes the teacher's
// CircuitBreakerManager (internal/risk/circuit_breaker.go), which keeps one
// sony/gobreaker breaker per downstream service (exchange/llm/database),
// into one breaker wrapping outcome recording, with consecutive-loss
// tripping handled by gobreaker's own counts, the concurrency and
// external-health conditions folded into the same ReadyToTrip closure, and
// the daily-loss cap enforced by a manual CircuitBreak in RecordOutcome.
package risk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// Config holds the tunable thresholds spec.md §4.9 describes.
type Config struct {
	MaxRiskScore            decimal.Decimal
	MaxPositionSizePct      decimal.Decimal
	MaxConcurrentExecutions int
	MaxDailyLoss            decimal.Decimal // positive magnitude of the allowed loss
	MaxConsecutiveLosses    int
	MaxVolatility           decimal.Decimal
	MinLiquidity            decimal.Decimal
	CircuitBreakerCooldown  time.Duration
}

// DefaultConfig mirrors conservative defaults; callers override via
// config.Config.
func DefaultConfig() Config {
	return Config{
		MaxRiskScore:            decimal.NewFromFloat(0.7),
		MaxPositionSizePct:      decimal.NewFromFloat(0.05),
		MaxConcurrentExecutions: 5,
		MaxDailyLoss:            decimal.NewFromInt(1_000),
		MaxConsecutiveLosses:    3,
		MaxVolatility:           decimal.NewFromInt(8),
		MinLiquidity:            decimal.NewFromInt(10_000),
		CircuitBreakerCooldown:  60 * time.Second,
	}
}

// factorWeight is the weighted contribution of each risk factor to the
// aggregate score (spec.md §4.9 leaves exact weights unspecified; chosen
// here as a documented Open Question decision, see DESIGN.md).
var factorWeight = map[string]decimal.Decimal{
	"position_size": decimal.NewFromFloat(0.20),
	"concurrency":   decimal.NewFromFloat(0.15),
	"daily_loss":    decimal.NewFromFloat(0.25),
	"volatility":    decimal.NewFromFloat(0.15),
	"liquidity":     decimal.NewFromFloat(0.15),
	"confidence":    decimal.NewFromFloat(0.10),
}

// MarketContext carries the per-cycle inputs assess() needs beyond the
// candidate opportunity itself.
type MarketContext struct {
	PortfolioEstimate decimal.Decimal
	VolatilityScore   decimal.Decimal
}

// History is the optional durable ledger behind daily P&L and win-rate
// lookups (risk.Calculator-style in the teacher). An in-memory
// implementation is the default; a pgxpool-backed one can be swapped in via
// WithHistory.
type History interface {
	RecordOutcome(ctx context.Context, outcome types.ExecutionOutcome) error
	DailyPnL(ctx context.Context) (decimal.Decimal, error)
}

// inMemoryHistory is the zero-config default: a running P&L total kept
// since the Manager was built. It has no day boundary of its own; only
// Reset clears it, and nothing in this repository calls Reset, so DailyPnL
// reports the total since startup.
type inMemoryHistory struct {
	mu     sync.Mutex
	dayPnL decimal.Decimal
}

func newInMemoryHistory() *inMemoryHistory {
	return &inMemoryHistory{}
}

func (h *inMemoryHistory) RecordOutcome(_ context.Context, outcome types.ExecutionOutcome) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dayPnL = h.dayPnL.Add(outcome.RealizedProfit).Sub(outcome.FeesPaid)
	return nil
}

func (h *inMemoryHistory) DailyPnL(_ context.Context) (decimal.Decimal, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dayPnL, nil
}

func (h *inMemoryHistory) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dayPnL = decimal.Zero
}

// Metrics exposes the circuit breaker's state and the manager's outcome
// counters over Prometheus, matching the teacher's CircuitBreakerMetrics
// shape (state gauge 0/1/2 closed/open/half-open).
type Metrics struct {
	state        prometheus.Gauge
	assessments  *prometheus.CounterVec
	outcomes     *prometheus.CounterVec
	score        prometheus.Histogram
}

// NewMetrics registers the risk manager's Prometheus collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		state: factory.NewGauge(prometheus.GaugeOpts{
			Name: "arbcore_risk_circuit_breaker_state",
			Help: "opportunity-acceptance circuit breaker state (0=closed, 1=open, 2=half_open)",
		}),
		assessments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arbcore_risk_assessments_total",
			Help: "risk assessments by recommendation",
		}, []string{"recommendation"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arbcore_risk_outcomes_total",
			Help: "recorded execution outcomes by result",
		}, []string{"result"}),
		score: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbcore_risk_score",
			Help:    "aggregate risk score distribution",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
}

func (m *Metrics) setState(s gobreaker.State) {
	if m == nil {
		return
	}
	switch s {
	case gobreaker.StateClosed:
		m.state.Set(0)
	case gobreaker.StateOpen:
		m.state.Set(1)
	case gobreaker.StateHalfOpen:
		m.state.Set(2)
	}
}

// Manager is the process-wide singleton implementing C9.
type Manager struct {
	cfg     Config
	metrics *Metrics
	history History

	breaker *gobreaker.CircuitBreaker

	mu                sync.Mutex
	openPositions     int
	externalHealthy   bool
	manualTrip        bool
	manualTripReason  string
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithMetrics attaches a Prometheus-backed Metrics instance.
func WithMetrics(m *Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithHistory swaps the default in-memory ledger for a durable one (e.g. a
// pgxpool-backed implementation).
func WithHistory(h History) Option {
	return func(mgr *Manager) { mgr.history = h }
}

// New builds a Manager with the given config, defaulting to an in-memory
// history ledger and healthy external state.
func New(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:             cfg,
		history:         newInMemoryHistory(),
		externalHealthy: true,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "opportunity-acceptance",
		MaxRequests: 1,
		Timeout:     cfg.CircuitBreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= cfg.MaxConsecutiveLosses || m.concurrencyExceeded() || !m.isExternalHealthy()
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			m.metrics.setState(to)
		},
	})

	return m
}

func (m *Manager) concurrencyExceeded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openPositions > m.cfg.MaxConcurrentExecutions
}

func (m *Manager) isExternalHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.externalHealthy
}

// SetExternalHealth records the external health signal the circuit breaker
// trip condition depends on (e.g. an executor heartbeat).
func (m *Manager) SetExternalHealth(healthy bool) {
	m.mu.Lock()
	m.externalHealthy = healthy
	m.mu.Unlock()
}

// SetOpenPositions updates the current concurrent-execution count, sampled
// by the orchestrator once per cycle from the gateway's outstanding count.
func (m *Manager) SetOpenPositions(n int) {
	m.mu.Lock()
	m.openPositions = n
	m.mu.Unlock()
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

func severityFor(ratio decimal.Decimal, criticalAt bool) types.FactorSeverity {
	switch {
	case criticalAt && ratio.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return types.SeverityCritical
	case ratio.GreaterThanOrEqual(decimal.NewFromFloat(0.8)):
		return types.SeverityHigh
	case ratio.GreaterThanOrEqual(decimal.NewFromFloat(0.5)):
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

// Assess computes a RiskAssessment for one candidate opportunity against
// the current market context and manager state.
func (m *Manager) Assess(ctx context.Context, opp types.Opportunity, market MarketContext) types.RiskAssessment {
	if m.breaker.State() == gobreaker.StateOpen || m.manualTripped() {
		m.recordAssessment(types.RecCircuitBreak)
		return types.RiskAssessment{
			Approved:       false,
			Score:          decimal.NewFromInt(1),
			Recommendation: types.Recommendation{Kind: types.RecCircuitBreak},
		}
	}

	var factors []types.RiskFactor
	score := decimal.Zero

	if market.PortfolioEstimate.IsPositive() {
		positionPct := opp.InputAmount.Div(market.PortfolioEstimate)
		ratio := clampUnit(positionPct.Div(m.cfg.MaxPositionSizePct))
		if ratio.IsPositive() {
			factors = append(factors, types.RiskFactor{Type: "position_size", Severity: severityFor(ratio, false), Impact: ratio})
			score = score.Add(factorWeight["position_size"].Mul(ratio))
		}
	}

	m.mu.Lock()
	open := m.openPositions
	m.mu.Unlock()
	concurrencyRatio := clampUnit(decimal.NewFromInt(int64(open + 1)).Div(decimal.NewFromInt(int64(m.cfg.MaxConcurrentExecutions))))
	factors = append(factors, types.RiskFactor{Type: "concurrency", Severity: severityFor(concurrencyRatio, false), Impact: concurrencyRatio})
	score = score.Add(factorWeight["concurrency"].Mul(concurrencyRatio))

	dailyPnL, _ := m.history.DailyPnL(ctx)
	if dailyPnL.IsNegative() && m.cfg.MaxDailyLoss.IsPositive() {
		usedFrac := clampUnit(dailyPnL.Neg().Div(m.cfg.MaxDailyLoss))
		factors = append(factors, types.RiskFactor{Type: "daily_loss", Severity: severityFor(usedFrac, true), Impact: usedFrac})
		score = score.Add(factorWeight["daily_loss"].Mul(usedFrac))
	}

	if m.cfg.MaxVolatility.IsPositive() {
		volRatio := clampUnit(market.VolatilityScore.Div(m.cfg.MaxVolatility))
		if volRatio.IsPositive() {
			factors = append(factors, types.RiskFactor{Type: "volatility", Severity: severityFor(volRatio, false), Impact: volRatio})
			score = score.Add(factorWeight["volatility"].Mul(volRatio))
		}
	}

	if opp.MinReserve.IsPositive() && m.cfg.MinLiquidity.IsPositive() && opp.MinReserve.LessThan(m.cfg.MinLiquidity) {
		deficit := clampUnit(decimal.NewFromInt(1).Sub(opp.MinReserve.Div(m.cfg.MinLiquidity)))
		factors = append(factors, types.RiskFactor{Type: "liquidity", Severity: severityFor(deficit, false), Impact: deficit})
		score = score.Add(factorWeight["liquidity"].Mul(deficit))
	}

	switch {
	case opp.Confidence.LessThan(decimal.NewFromFloat(0.6)):
		impact := decimal.NewFromFloat(0.5)
		factors = append(factors, types.RiskFactor{Type: "confidence", Severity: types.SeverityMedium, Impact: impact})
		score = score.Add(factorWeight["confidence"].Mul(impact))
	case opp.Confidence.LessThan(decimal.NewFromFloat(0.8)):
		impact := decimal.NewFromFloat(0.25)
		factors = append(factors, types.RiskFactor{Type: "confidence", Severity: types.SeverityLow, Impact: impact})
		score = score.Add(factorWeight["confidence"].Mul(impact))
	}

	score = clampUnit(score)
	if m.metrics != nil {
		m.metrics.score.Observe(score.InexactFloat64())
	}

	rec := m.recommendationFor(score, opp)
	m.recordAssessment(rec.Kind)

	return types.RiskAssessment{
		Approved:       rec.Kind == types.RecProceed || rec.Kind == types.RecReduceSize || rec.Kind == types.RecDelay,
		Score:          score,
		Factors:        factors,
		Recommendation: rec,
	}
}

func (m *Manager) recommendationFor(score decimal.Decimal, opp types.Opportunity) types.Recommendation {
	max := m.cfg.MaxRiskScore
	switch {
	case score.GreaterThan(max):
		return types.Recommendation{Kind: types.RecReject}
	case score.GreaterThan(max.Mul(decimal.NewFromFloat(0.8))):
		reduction := decimal.NewFromInt(1).Sub(decimal.NewFromInt(2).Mul(score.Sub(max.Mul(decimal.NewFromFloat(0.8)))))
		floor := decimal.NewFromFloat(0.5)
		if reduction.LessThan(floor) {
			reduction = floor
		}
		return types.Recommendation{Kind: types.RecReduceSize, NewAmount: opp.InputAmount.Mul(reduction)}
	case score.GreaterThan(max.Mul(decimal.NewFromFloat(0.6))):
		return types.Recommendation{Kind: types.RecDelay, DelaySeconds: 30}
	default:
		return types.Recommendation{Kind: types.RecProceed}
	}
}

func (m *Manager) recordAssessment(kind types.RecommendationKind) {
	if m.metrics == nil {
		return
	}
	m.metrics.assessments.WithLabelValues(string(kind)).Inc()
}

// RecordOutcome updates the consecutive-loss counter (via the breaker's own
// Execute-tracked counts) and daily P&L ledger.
func (m *Manager) RecordOutcome(ctx context.Context, outcome types.ExecutionOutcome) error {
	if err := m.history.RecordOutcome(ctx, outcome); err != nil {
		return fmt.Errorf("risk: record outcome: %w", err)
	}

	result := "success"
	if !outcome.Success {
		result = "failure"
	}
	if m.metrics != nil {
		m.metrics.outcomes.WithLabelValues(result).Inc()
	}

	_, _ = m.breaker.Execute(func() (interface{}, error) {
		if !outcome.Success {
			return nil, fmt.Errorf("execution failed: %s", outcome.ErrorCategory)
		}
		return nil, nil
	})

	dailyPnL, _ := m.history.DailyPnL(ctx)
	if m.cfg.MaxDailyLoss.IsPositive() && dailyPnL.IsNegative() && dailyPnL.Neg().GreaterThanOrEqual(m.cfg.MaxDailyLoss) {
		m.CircuitBreak("daily loss cap exceeded")
	}

	return nil
}

// CircuitBreak forces the kill switch on until Resume() is called.
func (m *Manager) CircuitBreak(reason string) {
	m.mu.Lock()
	m.manualTrip = true
	m.manualTripReason = reason
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.state.Set(1)
	}
}

// Resume clears a manually-forced trip. It does not reset the breaker's own
// internal failure counts; those clear naturally once the cooldown timeout
// elapses and a subsequent Execute succeeds in the half-open probe.
func (m *Manager) Resume() {
	m.mu.Lock()
	m.manualTrip = false
	m.manualTripReason = ""
	m.mu.Unlock()
}

func (m *Manager) manualTripped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.manualTrip
}

// TripReason returns the reason passed to the most recent CircuitBreak
// call, or "" if not manually tripped.
func (m *Manager) TripReason() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.manualTripReason
}

// State reports the breaker's current gobreaker state plus whether a
// manual trip is in effect, for C12 stats reporting.
func (m *Manager) State() (gobreaker.State, bool) {
	return m.breaker.State(), m.manualTripped()
}
