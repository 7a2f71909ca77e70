package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arbcore/internal/core/events"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

func TestSubscribeReceivesPublishedEvent(t *testing.T) {
	bus := events.New()
	ch, cancel := bus.Subscribe(events.TopicCircuitBreakerFired)
	defer cancel()

	bus.Publish(events.TopicCircuitBreakerFired, events.CircuitBreakerFired{Reason: "daily loss cap"})

	select {
	case ev := <-ch:
		payload, ok := ev.Payload.(events.CircuitBreakerFired)
		require.True(t, ok)
		assert.Equal(t, "daily loss cap", payload.Reason)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSlowSubscriberSeesOnlyLatestEventPerTopic(t *testing.T) {
	bus := events.New()
	ch, cancel := bus.Subscribe(events.TopicOpportunityAccepted)
	defer cancel()

	bus.Publish(events.TopicOpportunityAccepted, events.OpportunityAccepted{ID: "stale", Priority: types.PriorityLow})
	bus.Publish(events.TopicOpportunityAccepted, events.OpportunityAccepted{ID: "fresh", Priority: types.PriorityCritical})

	select {
	case ev := <-ch:
		payload := ev.Payload.(events.OpportunityAccepted)
		assert.Equal(t, "fresh", payload.ID, "slow subscriber must see the latest event, not the stale one")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case <-ch:
		t.Fatal("no second event expected — the stale one must have been dropped, not queued")
	default:
	}
}

func TestUnrelatedTopicsDoNotInterfere(t *testing.T) {
	bus := events.New()
	modeCh, cancelMode := bus.Subscribe(events.TopicModeChanged)
	defer cancelMode()
	rejectCh, cancelReject := bus.Subscribe(events.TopicOpportunityRejected)
	defer cancelReject()

	bus.Publish(events.TopicOpportunityRejected, events.OpportunityRejected{ID: "x", Reason: "risk"})

	select {
	case <-modeCh:
		t.Fatal("mode topic should not receive an opportunity_rejected publish")
	default:
	}

	select {
	case ev := <-rejectCh:
		assert.Equal(t, "x", ev.Payload.(events.OpportunityRejected).ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestCancelStopsFurtherDelivery(t *testing.T) {
	bus := events.New()
	ch, cancel := bus.Subscribe(events.TopicCircuitBreakerReset)
	cancel()

	bus.Publish(events.TopicCircuitBreakerReset, events.CircuitBreakerReset{})

	_, open := <-ch
	assert.False(t, open, "channel must be closed after cancel")
}
