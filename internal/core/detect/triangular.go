package detect

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// Edge is one adjacency in the token graph the triangular detector walks:
// an enabled pair, carrying enough config to bound trade size.
type Edge struct {
	Other types.Mint
	Pair  types.PairConfig
}

// Graph is an adjacency list over enabled pairs, built by the caller (the
// orchestrator, from registry.ActivePairs()) each cycle.
type Graph map[types.Mint][]Edge

// Triangular enumerates exact-length-3 cycles starting from hub tokens
// (Major/Stable tier), simulating three sequential real swaps per cycle
// via C4, and emits a candidate if the final amount exceeds the input.
func (d *Detector) Triangular(graph Graph, hubs []types.Mint) []types.Opportunity {
	var out []types.Opportunity

	d.circular.BeginScan()

	for _, a := range hubs {
		for _, eAB := range graph[a] {
			b := eAB.Other
			if b == a {
				continue
			}
			for _, eBC := range graph[b] {
				c := eBC.Other
				if c == a || c == b {
					continue
				}
				for _, eCA := range graph[c] {
					if eCA.Other != a {
						continue
					}

					opp, ok := d.buildTriangular(a, b, c, eAB.Pair, eBC.Pair, eCA.Pair)
					if !ok {
						continue
					}
					out = append(out, opp)
				}
			}
		}
	}

	return out
}

func (d *Detector) buildTriangular(a, b, c types.Mint, pairAB, pairBC, pairCA types.PairConfig) (types.Opportunity, bool) {
	inAmount := d.ReferenceTradeSize

	q1, v1, depth1, ok1 := d.quoteHop(pairAB.Key(), "", a, inAmount)
	if !ok1 || q1.OutAmount.IsZero() {
		return types.Opportunity{}, false
	}
	q2, v2, depth2, ok2 := d.quoteHop(pairBC.Key(), "", b, q1.OutAmount)
	if !ok2 || q2.OutAmount.IsZero() {
		return types.Opportunity{}, false
	}
	q3, v3, depth3, ok3 := d.quoteHop(pairCA.Key(), "", c, q2.OutAmount)
	if !ok3 {
		return types.Opportunity{}, false
	}

	if !q3.OutAmount.GreaterThan(inAmount) {
		return types.Opportunity{}, false
	}

	mints := []types.Mint{a, b, c, a}
	venues := []string{v1, v2, v3}
	sig := pathSignature(mints, venues)

	tokenKeys := []string{a.String(), b.String(), c.String()}
	if !d.circular.Allow(sig, tokenKeys) {
		return types.Opportunity{}, false
	}

	minReserve := min3(depth1, depth2, depth3)

	return types.Opportunity{
		ID:   newOpportunityID(),
		Kind: types.KindTriangular,
		Path: []types.Hop{
			{Mint: b, VenueID: v1, Quote: q1},
			{Mint: c, VenueID: v2, Quote: q2},
			{Mint: a, VenueID: v3, Quote: q3},
		},
		InputAmount:         inAmount,
		ExpectedOutput:      q3.OutAmount,
		CreatedAt:           time.Now(),
		PathSignature:       sig,
		Confidence:          decimal.NewFromFloat(0.75),
		MinReserve:          minReserve,
		ExecutionComplexity: 3,
	}, true
}
