// Package registry implements the Token & Pair Registry (C1): a read-mostly
// tiered token catalogue and enabled-pair configuration, guarded by a single
// RWMutex in the style of the belief-base pattern used for shared agent
// state — many concurrent readers, a writer-exclusive section per mutation.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ajitpratap0/arbcore/internal/core/errkind"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// Registry is the process-wide singleton Token & Pair catalogue.
type Registry struct {
	mu sync.RWMutex

	tokens map[types.Mint]*types.Token

	pairs    map[types.PairKey]*entry
	pairSeq  []types.PairKey // insertion order, stable tie-break
	seqCount uint64

	enabledTiers map[types.Tier]bool
}

type entry struct {
	cfg types.PairConfig
	seq uint64
}

// New builds an empty Registry with every tier disabled until enable_tier
// is called explicitly.
func New() *Registry {
	return &Registry{
		tokens:       make(map[types.Mint]*types.Token),
		pairs:        make(map[types.PairKey]*entry),
		enabledTiers: make(map[types.Tier]bool),
	}
}

// AddToken registers a new token. Fails with a ConfigInvalid error
// ("duplicate mint") if the mint is already present.
func (r *Registry) AddToken(t types.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[t.Mint]; ok {
		return errkind.New(errkind.ConfigInvalid, "registry.AddToken", fmt.Sprintf("duplicate mint %s", t.Mint))
	}
	cp := t
	r.tokens[t.Mint] = &cp
	return nil
}

// AddPair registers a new pair. Fails with a ConfigInvalid error ("unknown
// mint") if either side is absent, or ("duplicate pair") if the unordered
// pair already exists.
func (r *Registry) AddPair(mintA, mintB types.Mint, cfg types.PairConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[mintA]; !ok {
		return errkind.New(errkind.ConfigInvalid, "registry.AddPair", fmt.Sprintf("unknown mint %s", mintA))
	}
	if _, ok := r.tokens[mintB]; !ok {
		return errkind.New(errkind.ConfigInvalid, "registry.AddPair", fmt.Sprintf("unknown mint %s", mintB))
	}

	key := types.NewPairKey(mintA, mintB)
	if _, ok := r.pairs[key]; ok {
		return errkind.New(errkind.ConfigInvalid, "registry.AddPair", "duplicate pair")
	}

	cfg.MintA, cfg.MintB = mintA, mintB
	r.seqCount++
	r.pairs[key] = &entry{cfg: cfg, seq: r.seqCount}
	r.pairSeq = append(r.pairSeq, key)
	return nil
}

// EnableTier toggles a tier on; all pairs whose both sides now fall in an
// enabled tier become eligible for active_pairs().
func (r *Registry) EnableTier(tier types.Tier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabledTiers[tier] = true
}

// DisableTier toggles a tier off.
func (r *Registry) DisableTier(tier types.Tier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabledTiers[tier] = false
}

// ActivePairs returns pairs ordered by priority ascending, then insertion
// order, restricted to pairs whose both tokens are tradeable and whose
// both tiers are enabled and whose enabled flag is set.
func (r *Registry) ActivePairs() []types.PairConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entry, 0, len(r.pairSeq))
	for _, key := range r.pairSeq {
		e, ok := r.pairs[key]
		if !ok || !e.cfg.Enabled {
			continue
		}
		ta, okA := r.tokens[e.cfg.MintA]
		tb, okB := r.tokens[e.cfg.MintB]
		if !okA || !okB || !ta.Tradeable || !tb.Tradeable {
			continue
		}
		if !r.enabledTiers[ta.Tier] || !r.enabledTiers[tb.Tier] {
			continue
		}
		out = append(out, *e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].cfg.Priority != out[j].cfg.Priority {
			return out[i].cfg.Priority < out[j].cfg.Priority
		}
		return out[i].seq < out[j].seq
	})

	cfgs := make([]types.PairConfig, len(out))
	for i, e := range out {
		cfgs[i] = e.cfg
	}
	return cfgs
}

// IsPairTradeable reports whether both mints exist, are tradeable, and the
// unordered pair is enabled.
func (r *Registry) IsPairTradeable(a, b types.Mint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.pairs[types.NewPairKey(a, b)]
	if !ok || !e.cfg.Enabled {
		return false
	}
	ta, okA := r.tokens[a]
	tb, okB := r.tokens[b]
	return okA && okB && ta.Tradeable && tb.Tradeable
}

// Token returns a copy of the token registered under mint, if any.
func (r *Registry) Token(mint types.Mint) (types.Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[mint]
	if !ok {
		return types.Token{}, false
	}
	return *t, true
}

// Tokens returns a snapshot copy of all registered tokens.
func (r *Registry) Tokens() []types.Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Token, 0, len(r.tokens))
	for _, t := range r.tokens {
		out = append(out, *t)
	}
	return out
}

// HubTokens returns all tradeable tokens whose tier is a hub tier
// (Major/Stable), used by the triangular detector to seed cycles.
func (r *Registry) HubTokens() []types.Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Token, 0)
	for _, t := range r.tokens {
		if t.Tradeable && t.Tier.IsHub() && r.enabledTiers[t.Tier] {
			out = append(out, *t)
		}
	}
	return out
}
