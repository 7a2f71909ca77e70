// Package stats implements Stats & Health (C12): a read-only snapshot
// updated under one mutex per cycle, paired with Prometheus gauges for
// external scraping, following the teacher's AgentMetrics/TradingMetrics
// style of one promauto-registered collector set per concern
// (internal/metrics/metrics.go).
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arbcore/internal/core/schedule"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

type pnlEntry struct {
	at     time.Time
	amount decimal.Decimal
}

// Snapshot is the immutable, read-only view returned by Tracker.Snapshot.
type Snapshot struct {
	TotalCycles         int64                           `json:"total_cycles"`
	SuccessfulCycles     int64                           `json:"successful_cycles"`
	OpportunitiesByKind  map[types.OpportunityKind]int64 `json:"opportunities_by_kind"`
	ExecutionsAttempted  int64                           `json:"executions_attempted"`
	ExecutionsSucceeded  int64                           `json:"executions_succeeded"`
	RealizedPnLSession   decimal.Decimal                 `json:"realized_pnl_session"`
	RealizedPnLHour      decimal.Decimal                 `json:"realized_pnl_hour"`
	RealizedPnLDay       decimal.Decimal                 `json:"realized_pnl_day"`
	AdapterSuccessRate   map[string]float64              `json:"adapter_success_rate"`
	Mode                 types.MarketMode                `json:"mode"`
	Params               schedule.Params                 `json:"params"`
	UpdatedAt            time.Time                        `json:"updated_at"`
}

// Metrics mirrors the snapshot over Prometheus.
type Metrics struct {
	cycles            *prometheus.CounterVec
	opportunities     *prometheus.CounterVec
	executions        *prometheus.CounterVec
	realizedPnL       *prometheus.GaugeVec
	adapterSuccess    *prometheus.GaugeVec
	mode              *prometheus.GaugeVec
}

// NewMetrics registers the stats collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arbcore_cycles_total",
			Help: "orchestrator cycles by outcome",
		}, []string{"outcome"}),
		opportunities: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arbcore_opportunities_total",
			Help: "detected opportunities by kind",
		}, []string{"kind"}),
		executions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arbcore_executions_total",
			Help: "executions by outcome",
		}, []string{"outcome"}),
		realizedPnL: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arbcore_realized_pnl",
			Help: "realized P&L by rolling window",
		}, []string{"window"}),
		adapterSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arbcore_adapter_success_rate",
			Help: "per-adapter success rate",
		}, []string{"source_id"}),
		mode: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arbcore_market_mode",
			Help: "current market mode (one-hot)",
		}, []string{"mode"}),
	}
}

// Tracker is the process-wide singleton implementing C12.
type Tracker struct {
	metrics      *Metrics
	sessionStart time.Time

	mu                  sync.Mutex
	totalCycles         int64
	successfulCycles    int64
	opportunitiesByKind map[types.OpportunityKind]int64
	executionsAttempted int64
	executionsSucceeded int64
	pnlHistory          []pnlEntry
	sessionPnL          decimal.Decimal
	adapterSuccessRate  map[string]float64
	mode                types.MarketMode
	params              schedule.Params
}

// New builds a Tracker. metrics may be nil to skip Prometheus export (e.g.
// in unit tests that don't stand up a registry).
func New(metrics *Metrics) *Tracker {
	return &Tracker{
		metrics:             metrics,
		sessionStart:        time.Now(),
		opportunitiesByKind: make(map[types.OpportunityKind]int64),
		adapterSuccessRate:  make(map[string]float64),
	}
}

// RecordCycle accounts one orchestrator cycle.
func (t *Tracker) RecordCycle(successful bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalCycles++
	outcome := "failed"
	if successful {
		t.successfulCycles++
		outcome = "successful"
	}
	if t.metrics != nil {
		t.metrics.cycles.WithLabelValues(outcome).Inc()
	}
}

// RecordOpportunities tallies detections from one cycle by kind.
func (t *Tracker) RecordOpportunities(byKind map[types.OpportunityKind]int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for kind, n := range byKind {
		t.opportunitiesByKind[kind] += int64(n)
		if t.metrics != nil {
			t.metrics.opportunities.WithLabelValues(string(kind)).Add(float64(n))
		}
	}
}

// RecordExecutionAttempt marks one opportunity handed to the gateway.
func (t *Tracker) RecordExecutionAttempt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.executionsAttempted++
	if t.metrics != nil {
		t.metrics.executions.WithLabelValues("attempted").Inc()
	}
}

// RecordExecutionOutcome folds a submit_outcome result into P&L history and
// the success counter.
func (t *Tracker) RecordExecutionOutcome(outcome types.ExecutionOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := "failed"
	if outcome.Success {
		t.executionsSucceeded++
		result = "succeeded"
	}
	if t.metrics != nil {
		t.metrics.executions.WithLabelValues(result).Inc()
	}

	net := outcome.RealizedProfit.Sub(outcome.FeesPaid)
	t.pnlHistory = append(t.pnlHistory, pnlEntry{at: time.Now(), amount: net})
	t.sessionPnL = t.sessionPnL.Add(net)
}

// RecordAdapterHealth records one adapter's current success rate, from C2's
// HealthSnapshot.
func (t *Tracker) RecordAdapterHealth(sourceID string, successRate float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.adapterSuccessRate[sourceID] = successRate
	if t.metrics != nil {
		t.metrics.adapterSuccess.WithLabelValues(sourceID).Set(successRate)
	}
}

// SetMode records the current market mode.
func (t *Tracker) SetMode(mode types.MarketMode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode == mode {
		return
	}
	if t.metrics != nil && t.mode != "" {
		t.metrics.mode.WithLabelValues(string(t.mode)).Set(0)
	}
	t.mode = mode
	if t.metrics != nil {
		t.metrics.mode.WithLabelValues(string(mode)).Set(1)
	}
}

// Mode returns the currently recorded market mode, for the orchestrator's
// mode-change detection ahead of the next SetMode call.
func (t *Tracker) Mode() types.MarketMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// SetParams records the current cycle parameters.
func (t *Tracker) SetParams(params schedule.Params) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.params = params
}

// pruneAndSumLocked drops entries older than the day window (the widest
// rolling window tracked) and returns the sum of whatever remains that
// falls within the given window. Call with the widest window last if
// summing multiple windows in one pass would otherwise double-prune.
func (t *Tracker) pruneAndSumLocked(window time.Duration) decimal.Decimal {
	now := time.Now()
	dayCutoff := now.Add(-24 * time.Hour)
	kept := t.pnlHistory[:0:0]
	for _, e := range t.pnlHistory {
		if e.at.After(dayCutoff) {
			kept = append(kept, e)
		}
	}
	t.pnlHistory = kept

	windowCutoff := now.Add(-window)
	sum := decimal.Zero
	for _, e := range t.pnlHistory {
		if e.at.After(windowCutoff) {
			sum = sum.Add(e.amount)
		}
	}
	return sum
}

// Snapshot returns a point-in-time copy of the tracked state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	hourPnL := t.pruneAndSumLocked(time.Hour)
	dayPnL := t.pruneAndSumLocked(24 * time.Hour)
	sessionPnL := t.sessionPnL

	if t.metrics != nil {
		t.metrics.realizedPnL.WithLabelValues("session").Set(sessionPnL.InexactFloat64())
		t.metrics.realizedPnL.WithLabelValues("hour").Set(hourPnL.InexactFloat64())
		t.metrics.realizedPnL.WithLabelValues("day").Set(dayPnL.InexactFloat64())
	}

	byKind := make(map[types.OpportunityKind]int64, len(t.opportunitiesByKind))
	for k, v := range t.opportunitiesByKind {
		byKind[k] = v
	}
	rates := make(map[string]float64, len(t.adapterSuccessRate))
	for k, v := range t.adapterSuccessRate {
		rates[k] = v
	}

	return Snapshot{
		TotalCycles:         t.totalCycles,
		SuccessfulCycles:    t.successfulCycles,
		OpportunitiesByKind: byKind,
		ExecutionsAttempted: t.executionsAttempted,
		ExecutionsSucceeded: t.executionsSucceeded,
		RealizedPnLSession:  sessionPnL,
		RealizedPnLHour:     hourPnL,
		RealizedPnLDay:      dayPnL,
		AdapterSuccessRate:  rates,
		Mode:                t.mode,
		Params:              t.params,
		UpdatedAt:           time.Now(),
	}
}

// WriteSnapshot marshals the current snapshot to path as JSON, never read
// back by the core itself — an operational aid for dashboards/debugging,
// matching the teacher's strategy/import_export.go one-shot JSON dump.
func (t *Tracker) WriteSnapshot(path string) error {
	data, err := json.MarshalIndent(t.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("stats: marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("stats: write snapshot: %w", err)
	}
	return nil
}
