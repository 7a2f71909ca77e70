package gateway_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arbcore/internal/core/gateway"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

func startTestNATSServer(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)

	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}
	return ns
}

func mint(b byte) types.Mint {
	var m types.Mint
	m[31] = b
	return m
}

func testOpp(kind types.OpportunityKind, priority types.Priority, netProfit int64) types.Opportunity {
	a, b := mint(1), mint(2)
	return types.Opportunity{
		ID:         "opp",
		Kind:       kind,
		Priority:   priority,
		NetProfit:  decimal.NewFromInt(netProfit),
		Confidence: decimal.NewFromInt(1),
		Path: []types.Hop{
			{Mint: b},
			{Mint: a},
		},
	}
}

func TestDispatchOrdersByPriorityThenScoreAndRespectsBudget(t *testing.T) {
	ns := startTestNATSServer(t)
	defer ns.Shutdown()

	cfg := gateway.DefaultConfig()
	cfg.NATSURL = ns.ClientURL()
	cfg.MaxConcurrentExecutions = 1

	g, err := gateway.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer g.Close()

	low := testOpp(types.KindPairwiseAcrossVenue, types.PriorityLow, 10)
	low.Path[0].Mint = mint(3) // distinct pair so it doesn't collide in the backpressure slot
	critical := testOpp(types.KindTriangular, types.PriorityCritical, 5)

	g.Offer(low)
	g.Offer(critical)

	dispatched, err := g.Dispatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dispatched, 1, "budget of 1 must cap dispatch regardless of 2 staged candidates")
	assert.Equal(t, types.PriorityCritical, dispatched[0].Priority, "higher priority must dispatch first")
}

func TestOfferReplacesStaleSlotForSamePairAndKind(t *testing.T) {
	ns := startTestNATSServer(t)
	defer ns.Shutdown()

	cfg := gateway.DefaultConfig()
	cfg.NATSURL = ns.ClientURL()
	cfg.MaxConcurrentExecutions = 5

	g, err := gateway.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer g.Close()

	stale := testOpp(types.KindPairwiseAcrossVenue, types.PriorityLow, 1)
	stale.ID = "stale"
	fresh := testOpp(types.KindPairwiseAcrossVenue, types.PriorityLow, 1)
	fresh.ID = "fresh"

	g.Offer(stale)
	g.Offer(fresh)

	dispatched, err := g.Dispatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dispatched, 1)
	assert.Equal(t, "fresh", dispatched[0].ID)
}

func TestSubmitOutcomeDecrementsOutstandingAndDrains(t *testing.T) {
	ns := startTestNATSServer(t)
	defer ns.Shutdown()

	cfg := gateway.DefaultConfig()
	cfg.NATSURL = ns.ClientURL()
	cfg.MaxConcurrentExecutions = 2

	g, err := gateway.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer g.Close()

	g.Offer(testOpp(types.KindPairwiseAcrossVenue, types.PriorityHigh, 100))
	dispatched, err := g.Dispatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dispatched, 1)
	assert.Equal(t, 1, g.Outstanding())

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	outcome := types.ExecutionOutcome{OpportunityID: dispatched[0].ID, Success: true, RealizedProfit: decimal.NewFromInt(50)}
	data, err := json.Marshal(outcome)
	require.NoError(t, err)
	require.NoError(t, nc.Publish(cfg.SubjectPrefix+"outcomes", data))
	require.NoError(t, nc.Flush())

	select {
	case got := <-g.Outcomes():
		assert.Equal(t, outcome.OpportunityID, got.OpportunityID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome to drain")
	}

	assert.Eventually(t, func() bool { return g.Outstanding() == 0 }, time.Second, 10*time.Millisecond)
}
