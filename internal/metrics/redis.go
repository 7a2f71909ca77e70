package metrics

import (
	"github.com/redis/go-redis/v9"
)

// RedisPoolReporter samples a go-redis client's connection pool stats into
// the Redis pool gauges. Grounded on the teacher's RedisMetrics wrapper,
// but reporting the pool's own counters instead of a Get/Set hit-rate
// tracked alongside the client: the C3 aggregator already owns its cache's
// Get/Set path, so this only observes the pool underneath it.
type RedisPoolReporter struct {
	client *redis.Client
}

// NewRedisPoolReporter builds a reporter over client.
func NewRedisPoolReporter(client *redis.Client) *RedisPoolReporter {
	return &RedisPoolReporter{client: client}
}

// Report samples the current pool stats into the package-level gauges.
func (r *RedisPoolReporter) Report() {
	if r.client == nil {
		return
	}
	stats := r.client.PoolStats()
	RedisPoolHits.Set(float64(stats.Hits))
	RedisPoolMisses.Set(float64(stats.Misses))
	RedisPoolTimeouts.Set(float64(stats.Timeouts))
	RedisPoolTotalConns.Set(float64(stats.TotalConns))
	RedisPoolIdleConns.Set(float64(stats.IdleConns))
	RedisPoolStaleConns.Set(float64(stats.StaleConns))
}
