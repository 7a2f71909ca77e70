// Package aggregator implements the Pool/Quote Aggregator (C3): it
// multiplexes the C2 adapters in a fixed fallback order, maintains a
// per-(source_id, pair) TTL cache backed by Redis (mirroring the teacher's
// cache-aside CachedCoinGeckoClient / RedisPriceCache), refreshes
// single-flight on miss, and tracks per-adapter success rate for C6's
// confidence weighting.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/ajitpratap0/arbcore/internal/core/sources"
	"github.com/ajitpratap0/arbcore/internal/core/types"
)

// DefaultFallbackOrder is the spec's configurable fallback sequence.
var DefaultFallbackOrder = []types.SourceKind{
	types.SourceAggregatorQuote,
	types.SourceAmmReserve,
	types.SourceOrderBookTop,
	types.SourceReferenceFeed,
}

// DefaultSampleParallelism bounds concurrent per-pair sampling fan-out.
const DefaultSampleParallelism = 8

// DefaultCacheTTL is the per-(source_id,pair) retention window.
const DefaultCacheTTL = 30 * time.Second

// StaleFallbackConfidenceCap is the confidence ceiling applied to a stale
// sample returned only because every adapter failed this cycle.
var StaleFallbackConfidenceCap = 0.3

type cacheEntry struct {
	Sample types.PriceSample `json:"sample"`
}

// Aggregator is the C3 singleton.
type Aggregator struct {
	redis    *redis.Client
	sf       singleflight.Group
	sem      *semaphore.Weighted
	fallback []types.SourceKind
	log      zerolog.Logger

	mu      sync.RWMutex
	adapter map[types.SourceKind]sources.Adapter

	outcomeMu sync.Mutex
	outcomes  map[string]*adapterOutcome
}

type adapterOutcome struct {
	successes int64
	failures  int64
}

// Option configures the Aggregator at construction time.
type Option func(*Aggregator)

// WithFallbackOrder overrides DefaultFallbackOrder.
func WithFallbackOrder(order []types.SourceKind) Option {
	return func(a *Aggregator) { a.fallback = order }
}

// WithParallelism overrides DefaultSampleParallelism.
func WithParallelism(n int64) Option {
	return func(a *Aggregator) { a.sem = semaphore.NewWeighted(n) }
}

// New builds an Aggregator over a Redis client (may be nil, in which case
// the cache degenerates to always-miss) and a zerolog logger.
func New(redisClient *redis.Client, log zerolog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		redis:    redisClient,
		sem:      semaphore.NewWeighted(DefaultSampleParallelism),
		fallback: DefaultFallbackOrder,
		log:      log.With().Str("component", "aggregator").Logger(),
		adapter:  make(map[types.SourceKind]sources.Adapter),
		outcomes: make(map[string]*adapterOutcome),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RegisterAdapter wires a concrete C2 adapter under its SourceKind.
func (a *Aggregator) RegisterAdapter(adapter sources.Adapter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.adapter[adapter.Kind()] = adapter
}

func (a *Aggregator) cacheKey(sourceID string, pair types.PairKey) string {
	return fmt.Sprintf("arbcore:sample:%s:%s:%s", sourceID, pair.A, pair.B)
}

func (a *Aggregator) getCached(ctx context.Context, sourceID string, pair types.PairKey) (types.PriceSample, bool) {
	if a.redis == nil {
		return types.PriceSample{}, false
	}
	cctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	raw, err := a.redis.Get(cctx, a.cacheKey(sourceID, pair)).Result()
	if err != nil {
		return types.PriceSample{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		a.log.Warn().Err(err).Msg("failed to unmarshal cached sample")
		return types.PriceSample{}, false
	}
	return entry.Sample, true
}

func (a *Aggregator) setCached(ctx context.Context, sample types.PriceSample) {
	if a.redis == nil {
		return
	}
	data, err := json.Marshal(cacheEntry{Sample: sample})
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to marshal sample for cache")
		return
	}
	cctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := a.redis.Set(cctx, a.cacheKey(sample.SourceID, sample.Pair), data, sample.TTL).Err(); err != nil {
		a.log.Warn().Err(err).Msg("failed to cache sample")
	}
}

// SamplePair queries adapters in fallback order, returning every fresh
// sample obtained. Cached values are used when fresh; on a cache miss
// (or stale entry) the adapter is refreshed single-flight. If every
// adapter fails this cycle, a stale cached sample is still returned as a
// last resort with confidence capped per spec, and only if one exists.
func (a *Aggregator) SamplePair(ctx context.Context, req sources.PairRequest) []types.PriceSample {
	var fresh []types.PriceSample
	var staleFallback *types.PriceSample

	a.mu.RLock()
	snapshot := make(map[types.SourceKind]sources.Adapter, len(a.adapter))
	for k, v := range a.adapter {
		snapshot[k] = v
	}
	a.mu.RUnlock()

	now := time.Now()

	for _, kind := range a.fallback {
		adapter, ok := snapshot[kind]
		if !ok {
			continue
		}

		if cached, ok := a.getCached(ctx, adapter.SourceID(), req.Pair); ok {
			if cached.Fresh(now) {
				fresh = append(fresh, cached)
				continue
			}
			if staleFallback == nil {
				staleFallback = &cached
			}
		}

		sample, err, _ := a.sf.Do(a.cacheKey(adapter.SourceID(), req.Pair), func() (interface{}, error) {
			return adapter.FetchPair(ctx, req)
		})
		if err != nil {
			a.recordOutcome(adapter.SourceID(), false)
			continue
		}
		s := sample.(types.PriceSample)
		a.recordOutcome(adapter.SourceID(), true)
		a.setCached(ctx, s)
		fresh = append(fresh, s)
	}

	if len(fresh) == 0 && staleFallback != nil {
		capped := *staleFallback
		cap := decimal.NewFromFloat(StaleFallbackConfidenceCap)
		if capped.Confidence.GreaterThan(cap) {
			capped.Confidence = cap
		}
		return []types.PriceSample{capped}
	}

	return fresh
}

// SampleAll issues SamplePair for every active pair with bounded
// parallelism (default 8), returning a mapping pair -> samples.
func (a *Aggregator) SampleAll(ctx context.Context, pairs []types.PairConfig, inAmount func(types.PairConfig) sources.PairRequest) map[types.PairKey][]types.PriceSample {
	results := make(map[types.PairKey][]types.PriceSample, len(pairs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, pc := range pairs {
		pc := pc
		if err := a.sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer a.sem.Release(1)
			req := inAmount(pc)
			samples := a.SamplePair(gctx, req)
			mu.Lock()
			results[pc.Key()] = samples
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // adapter failures are absorbed locally; errgroup here only bounds fan-out

	return results
}

// recordOutcome updates the rolling success rate for a source id.
func (a *Aggregator) recordOutcome(sourceID string, success bool) {
	a.outcomeMu.Lock()
	defer a.outcomeMu.Unlock()
	o, ok := a.outcomes[sourceID]
	if !ok {
		o = &adapterOutcome{}
		a.outcomes[sourceID] = o
	}
	if success {
		o.successes++
	} else {
		o.failures++
	}
}

// RecordOutcome is the public entry point mirrored from spec.md's
// record_outcome(source_id, success) operation.
func (a *Aggregator) RecordOutcome(sourceID string, success bool) {
	a.recordOutcome(sourceID, success)
}

// SuccessRate returns the rolling success rate for a source id, or 1.0 if
// no observations exist yet.
func (a *Aggregator) SuccessRate(sourceID string) float64 {
	a.outcomeMu.Lock()
	defer a.outcomeMu.Unlock()
	o, ok := a.outcomes[sourceID]
	if !ok || (o.successes+o.failures) == 0 {
		return 1.0
	}
	return float64(o.successes) / float64(o.successes+o.failures)
}

// HealthSnapshots returns the health of every registered adapter.
func (a *Aggregator) HealthSnapshots() []sources.HealthSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]sources.HealthSnapshot, 0, len(a.adapter))
	for _, adapter := range a.adapter {
		out = append(out, adapter.Health())
	}
	return out
}
