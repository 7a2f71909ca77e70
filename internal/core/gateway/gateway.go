// Package gateway implements the Execution Gateway (C11): outbound
// dispatch of accepted opportunities to an external executor over NATS,
// and the inbound submit_outcome stream. Generalizes the teacher's
// MessageBus (internal/orchestrator/messagebus.go) from agent-to-agent
// notifications to opportunity-to-executor dispatch: same subject-prefix
// convention and JSON envelope, one fixed topic pair instead of a
// general pub/sub fabric.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// Config configures the gateway's NATS wiring and concurrency budget.
type Config struct {
	NATSURL                 string
	SubjectPrefix           string // default "arbcore."
	MaxConcurrentExecutions int
}

// DefaultConfig mirrors conservative defaults; callers override via
// config.Config.
func DefaultConfig() Config {
	return Config{
		NATSURL:                 "nats://localhost:4222",
		SubjectPrefix:           "arbcore.",
		MaxConcurrentExecutions: 3,
	}
}

// Envelope is the wire message published to the executor, carrying enough
// of the opportunity for it to assemble a transaction without the core
// ever constructing one itself.
type Envelope struct {
	ID        uuid.UUID         `json:"id"`
	Opp       types.Opportunity `json:"opportunity"`
	Timestamp time.Time         `json:"timestamp"`
}

type pairKindKey struct {
	Pair types.PairKey
	Kind types.OpportunityKind
}

// Gateway is the process-wide singleton implementing C11.
type Gateway struct {
	nc     *nats.Conn
	cfg    Config
	logger zerolog.Logger

	mu          sync.Mutex
	slots       map[pairKindKey]types.Opportunity // LRU-of-1 per (pair,kind) backpressure buffer
	outstanding int

	outcomes chan types.ExecutionOutcome
	sub      *nats.Subscription
}

// New connects to NATS and returns a Gateway ready to accept opportunities.
func New(cfg Config, logger zerolog.Logger) (*Gateway, error) {
	nc, err := nats.Connect(
		cfg.NATSURL,
		nats.Name("arbcore"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("gateway: NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("gateway: NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("gateway: connect NATS: %w", err)
	}

	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "arbcore."
	}

	g := &Gateway{
		nc:       nc,
		cfg:      cfg,
		logger:   logger.With().Str("component", "gateway").Logger(),
		slots:    make(map[pairKindKey]types.Opportunity),
		outcomes: make(chan types.ExecutionOutcome, 64),
	}

	sub, err := nc.Subscribe(g.outcomeSubject(), g.handleOutcome)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("gateway: subscribe outcomes: %w", err)
	}
	g.sub = sub

	return g, nil
}

func (g *Gateway) opportunitySubject() string {
	return g.cfg.SubjectPrefix + "opportunities"
}

func (g *Gateway) outcomeSubject() string {
	return g.cfg.SubjectPrefix + "outcomes"
}

// Offer stages a candidate into its (pair,kind) backpressure slot. A newer
// offer for the same pair and kind replaces whatever sits there,
// unpublished — the gateway never accumulates an unbounded backlog for one
// pair while it waits for dispatch capacity.
func (g *Gateway) Offer(opp types.Opportunity) {
	if len(opp.Path) == 0 {
		return
	}
	key := pairKindKey{Pair: types.NewPairKey(opp.Path[0].Mint, opp.Path[len(opp.Path)-1].Mint), Kind: opp.Kind}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.slots[key] = opp
}

// Dispatch drains the current staged slots, orders them by priority then
// net_profit*confidence, publishes as many as the remaining concurrency
// budget allows, and returns the ones actually dispatched. Opportunities
// that don't fit this cycle are dropped; the next detection cycle
// re-derives fresher candidates for the same pairs.
func (g *Gateway) Dispatch(ctx context.Context) ([]types.Opportunity, error) {
	g.mu.Lock()
	candidates := make([]types.Opportunity, 0, len(g.slots))
	for _, opp := range g.slots {
		candidates = append(candidates, opp)
	}
	g.slots = make(map[pairKindKey]types.Opportunity)
	budget := g.cfg.MaxConcurrentExecutions - g.outstanding
	g.mu.Unlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i].Priority.Rank(), candidates[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		scoreI := candidates[i].NetProfit.Mul(candidates[i].Confidence)
		scoreJ := candidates[j].NetProfit.Mul(candidates[j].Confidence)
		return scoreI.GreaterThan(scoreJ)
	})

	if budget < 0 {
		budget = 0
	}
	if budget < len(candidates) {
		dropped := len(candidates) - budget
		g.logger.Debug().Int("dropped", dropped).Msg("gateway: dropping opportunities past concurrency budget")
		candidates = candidates[:budget]
	}

	dispatched := make([]types.Opportunity, 0, len(candidates))
	for _, opp := range candidates {
		if err := g.publish(ctx, opp); err != nil {
			g.logger.Error().Err(err).Str("opportunity_id", opp.ID).Msg("gateway: publish failed")
			continue
		}
		dispatched = append(dispatched, opp)
	}

	g.mu.Lock()
	g.outstanding += len(dispatched)
	g.mu.Unlock()

	return dispatched, nil
}

func (g *Gateway) publish(ctx context.Context, opp types.Opportunity) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	env := Envelope{ID: uuid.New(), Opp: opp, Timestamp: time.Now()}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("gateway: marshal envelope: %w", err)
	}
	if err := g.nc.Publish(g.opportunitySubject(), data); err != nil {
		return fmt.Errorf("gateway: publish: %w", err)
	}
	return nil
}

func (g *Gateway) handleOutcome(msg *nats.Msg) {
	var outcome types.ExecutionOutcome
	if err := json.Unmarshal(msg.Data, &outcome); err != nil {
		g.logger.Warn().Err(err).Msg("gateway: malformed submit_outcome payload")
		return
	}

	g.mu.Lock()
	if g.outstanding > 0 {
		g.outstanding--
	}
	g.mu.Unlock()

	select {
	case g.outcomes <- outcome:
	default:
		g.logger.Warn().Str("opportunity_id", outcome.OpportunityID).Msg("gateway: outcome channel full, dropping")
	}
}

// Outcomes returns the channel the orchestrator drains each cycle (step 7:
// "drain any pending outcomes and feed them back to C9/C12").
func (g *Gateway) Outcomes() <-chan types.ExecutionOutcome {
	return g.outcomes
}

// Outstanding reports the current in-flight execution count, for C9's
// concurrency-cap risk factor.
func (g *Gateway) Outstanding() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outstanding
}

// Close tears down the NATS subscription and connection.
func (g *Gateway) Close() error {
	if g.sub != nil {
		_ = g.sub.Unsubscribe()
	}
	if g.nc != nil {
		g.nc.Close()
	}
	return nil
}
