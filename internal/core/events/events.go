// Package events implements the core's in-process event bus: the
// lossy, latest-wins-per-topic pub/sub spec.md §6 "Event outputs" calls
// for, kept deliberately distinct from the NATS-backed execution channel
// in internal/core/gateway. Grounded on the teacher's MessageBus
// (internal/orchestrator/messagebus.go) API shape — Publish/Subscribe verbs,
// one struct per message — but backed by buffered channels with
// drop-oldest instead of a broker, since there is no cross-process
// delivery requirement here.
package events

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// Topic identifies one of the fixed event kinds spec.md §6 enumerates.
type Topic string

const (
	TopicModeChanged          Topic = "mode_changed"
	TopicOpportunityAccepted  Topic = "opportunity_accepted"
	TopicOpportunityRejected  Topic = "opportunity_rejected"
	TopicExecutionOutcome     Topic = "execution_outcome"
	TopicCircuitBreakerFired  Topic = "circuit_breaker_fired"
	TopicCircuitBreakerReset  Topic = "circuit_breaker_reset"
)

// ModeChanged fires when the scheduler's mode classification flips.
type ModeChanged struct {
	Old types.MarketMode
	New types.MarketMode
	Vol decimal.Decimal
}

// OpportunityAccepted fires when a candidate clears C6/C9/C10 and is
// handed to the gateway.
type OpportunityAccepted struct {
	ID        string
	Kind      types.OpportunityKind
	NetProfit decimal.Decimal
	Priority  types.Priority
	// RequiresProtectedSend is set when C10's MEV assessment requires the
	// gateway to submit via a protected (non-public-mempool) path.
	RequiresProtectedSend bool
}

// OpportunityRejected fires when a candidate is dropped post-scoring.
type OpportunityRejected struct {
	ID     string
	Reason string
}

// ExecutionOutcomeEvent mirrors a drained submit_outcome call.
type ExecutionOutcomeEvent struct {
	ID       string
	Success  bool
	Realized decimal.Decimal
}

// CircuitBreakerFired fires when C9's kill switch trips.
type CircuitBreakerFired struct {
	Reason string
	At     time.Time
}

// CircuitBreakerReset fires on an explicit resume().
type CircuitBreakerReset struct {
	At time.Time
}

// Event envelopes a topic with its typed payload.
type Event struct {
	Topic   Topic
	Payload interface{}
}

// Bus is the process-wide singleton. Each subscriber gets a buffer of
// depth 1 per topic; a publish that finds the buffer already occupied
// drops the stale event and installs the new one, so a slow subscriber
// only ever sees the most recent state per topic, never an unbounded
// backlog.
type Bus struct {
	mu   sync.Mutex
	subs map[Topic][]chan Event
}

// New builds an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic][]chan Event)}
}

// Subscribe registers a new listener for topic and returns its channel
// plus a cancel function that unregisters it.
func (b *Bus) Subscribe(topic Topic) (<-chan Event, func()) {
	ch := make(chan Event, 1)

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[topic]
		for i, c := range subs {
			if c == ch {
				b.subs[topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}
	return ch, cancel
}

// Publish delivers payload to every current subscriber of topic,
// dropping the oldest unread event per subscriber if its buffer is full.
func (b *Bus) Publish(topic Topic, payload interface{}) {
	ev := Event{Topic: topic, Payload: payload}

	b.mu.Lock()
	subs := make([]chan Event, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
