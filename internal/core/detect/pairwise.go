package detect

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// Pairwise generates PairwiseAcrossVenue candidates: for every unordered
// pair of samples with different source_id, if the spread exceeds the
// pair's min_profit_bps threshold, emit a candidate buying on the cheaper
// venue and selling on the dearer one.
func (d *Detector) Pairwise(pair types.PairConfig, samples []types.PriceSample) []types.Opportunity {
	var out []types.Opportunity

	threshold := decimal.NewFromInt32(pair.MinProfitBps).Div(types.FeeDen)

	for i := 0; i < len(samples); i++ {
		for j := i + 1; j < len(samples); j++ {
			si, sj := samples[i], samples[j]
			if si.SourceID == sj.SourceID {
				continue
			}

			cheap, dear := si, sj
			if dear.Price.LessThan(cheap.Price) {
				cheap, dear = dear, cheap
			}
			if cheap.Price.IsZero() {
				continue
			}

			spread := dear.Price.Sub(cheap.Price).Div(cheap.Price)
			if !spread.GreaterThan(threshold) {
				continue
			}

			opp, ok := d.buildPairwise(pair, cheap, dear)
			if ok {
				out = append(out, opp)
			}
		}
	}

	return out
}

func (d *Detector) buildPairwise(pair types.PairConfig, buy, sell types.PriceSample) (types.Opportunity, bool) {
	inAmount := d.ReferenceTradeSize

	buyQuote, buyVenue, buyDepth, ok1 := d.quoteHop(pair.Key(), buy.VenueID, pair.MintA, inAmount)
	if !ok1 {
		return types.Opportunity{}, false
	}

	sellQuote, sellVenue, sellDepth, ok2 := d.quoteHop(pair.Key(), sell.VenueID, pair.MintB, buyQuote.OutAmount)
	if !ok2 {
		return types.Opportunity{}, false
	}

	mints := []types.Mint{pair.MintA, pair.MintB}
	venues := []string{buyVenue, sellVenue}

	minReserve := buyDepth
	if sellDepth.LessThan(minReserve) {
		minReserve = sellDepth
	}

	return types.Opportunity{
		ID:   newOpportunityID(),
		Kind: types.KindPairwiseAcrossVenue,
		Path: []types.Hop{
			{Mint: pair.MintB, VenueID: buyVenue, Quote: buyQuote},
			{Mint: pair.MintA, VenueID: sellVenue, Quote: sellQuote},
		},
		InputAmount:         inAmount,
		ExpectedOutput:      sellQuote.OutAmount,
		CreatedAt:           time.Now(),
		PathSignature:       pathSignature(mints, venues),
		Confidence:          min3(buy.Confidence, sell.Confidence, decimal.NewFromInt(1)),
		MinReserve:          minReserve,
		MinVolume24h:        minVolume(buy, sell),
		ExecutionComplexity: 2,
	}, true
}

func minVolume(a, b types.PriceSample) *decimal.Decimal {
	if a.Volume24h == nil || b.Volume24h == nil {
		return nil
	}
	v := *a.Volume24h
	if b.Volume24h.LessThan(v) {
		v = *b.Volume24h
	}
	return &v
}
