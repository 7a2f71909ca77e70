package detect

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// AggregatorVsDirect compares, for a pair where both an AggregatorQuote and
// an AmmReserveDerived sample exist, the price divergence between the
// routed quote and the direct pool simulation. If one would deliver
// strictly more than the other beyond min_profit_bps, emit a candidate.
func (d *Detector) AggregatorVsDirect(pair types.PairConfig, samples []types.PriceSample) []types.Opportunity {
	var aggSample, directSample *types.PriceSample
	for i := range samples {
		switch samples[i].Kind {
		case types.SourceAggregatorQuote:
			aggSample = &samples[i]
		case types.SourceAmmReserve:
			directSample = &samples[i]
		}
	}
	if aggSample == nil || directSample == nil {
		return nil
	}

	threshold := decimal.NewFromInt32(pair.MinProfitBps).Div(types.FeeDen)
	if directSample.Price.IsZero() {
		return nil
	}
	divergence := aggSample.Price.Sub(directSample.Price).Div(directSample.Price).Abs()
	if !divergence.GreaterThan(threshold) {
		return nil
	}

	inAmount := d.ReferenceTradeSize
	directQuote, directVenue, directDepth, ok := d.quoteHop(pair.Key(), directSample.VenueID, pair.MintA, inAmount)
	if !ok {
		return nil
	}

	aggOut := inAmount.Mul(aggSample.Price)
	aggQuote := types.SwapQuote{InAmount: inAmount, OutAmount: aggOut}

	betterVenue := directVenue
	betterQuote := directQuote
	if aggOut.GreaterThan(directQuote.OutAmount) {
		betterVenue = aggSample.SourceID
		betterQuote = aggQuote
	}

	mints := []types.Mint{pair.MintA, pair.MintB}
	venues := []string{betterVenue}

	opp := types.Opportunity{
		ID:   newOpportunityID(),
		Kind: types.KindAggregatorVsDirect,
		Path: []types.Hop{
			{Mint: pair.MintB, VenueID: betterVenue, Quote: betterQuote},
		},
		InputAmount:         inAmount,
		ExpectedOutput:      betterQuote.OutAmount,
		CreatedAt:           time.Now(),
		PathSignature:       pathSignature(mints, venues),
		Confidence:          min3(aggSample.Confidence, directSample.Confidence, decimal.NewFromInt(1)),
		MinReserve:          directDepth,
		ExecutionComplexity: 1,
	}

	return []types.Opportunity{opp}
}
