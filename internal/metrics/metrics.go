// Package metrics provides process-wide Prometheus collectors that sit
// outside any single core component: Redis connection-pool health and
// bounded-cardinality label normalizers that map free-form error/reason
// strings onto a fixed set before they reach a label, so an unbounded
// upstream error message never explodes label cardinality. No core
// component in this repository calls the Record* helpers below. Per-cycle business metrics (cycles, opportunities,
// executions, P&L) live on stats.Metrics instead, scoped to one registerer
// per process the way the teacher scopes AgentMetrics per agent instance.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bounded cardinality constants for metric labels. These ensure metrics
// don't have unbounded label values which can cause memory issues.
const (
	// Circuit breaker reasons (bounded set), for RecordCircuitBreakerTrip.
	ReasonMaxDailyLoss    = "max_daily_loss"
	ReasonHighVolatility  = "high_volatility"
	ReasonConsecutiveLoss = "consecutive_loss"
	ReasonManualHalt      = "manual_halt"
	ReasonExternalHealth  = "external_health"
	ReasonOther           = "other"

	// Configuration/opportunity validation failure reasons (bounded set).
	ValidationReasonFieldMissing    = "field_missing"
	ValidationReasonValueOutOfRange = "value_out_of_range"
	ValidationReasonDuplicate       = "duplicate"
	ValidationReasonIncompatible    = "incompatible"
	ValidationReasonOther           = "other"

	// Source adapter error categories (bounded set), for RecordSourceError.
	SourceErrorTimeout     = "timeout"
	SourceErrorRateLimit   = "rate_limit"
	SourceErrorAuth        = "authentication"
	SourceErrorNetwork     = "network"
	SourceErrorInvalidResp = "invalid_response"
	SourceErrorServerError = "server_error"
	SourceErrorOther       = "other"
)

// NormalizeCircuitBreakerReason maps an arbitrary risk.Manager trip reason
// to the bounded set above.
func NormalizeCircuitBreakerReason(reason string) string {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "daily loss") || strings.Contains(lower, "daily_loss"):
		return ReasonMaxDailyLoss
	case strings.Contains(lower, "volatility"):
		return ReasonHighVolatility
	case strings.Contains(lower, "consecutive"):
		return ReasonConsecutiveLoss
	case strings.Contains(lower, "manual") || strings.Contains(lower, "forced"):
		return ReasonManualHalt
	case strings.Contains(lower, "external") || strings.Contains(lower, "unhealthy"):
		return ReasonExternalHealth
	default:
		return ReasonOther
	}
}

// NormalizeValidationReason maps an arbitrary registry/config validation
// failure to the bounded set above.
func NormalizeValidationReason(reason string) string {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "missing") || strings.Contains(lower, "required"):
		return ValidationReasonFieldMissing
	case strings.Contains(lower, "range") || strings.Contains(lower, "invalid") || strings.Contains(lower, "value"):
		return ValidationReasonValueOutOfRange
	case strings.Contains(lower, "duplicate") || strings.Contains(lower, "already"):
		return ValidationReasonDuplicate
	case strings.Contains(lower, "compatible") || strings.Contains(lower, "unknown"):
		return ValidationReasonIncompatible
	default:
		return ValidationReasonOther
	}
}

// NormalizeSourceError maps an arbitrary adapter/transport error to the
// bounded set above.
func NormalizeSourceError(err error) string {
	if err == nil {
		return ""
	}
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return SourceErrorTimeout
	case strings.Contains(errStr, "rate") || strings.Contains(errStr, "429"):
		return SourceErrorRateLimit
	case strings.Contains(errStr, "auth") || strings.Contains(errStr, "401") || strings.Contains(errStr, "403"):
		return SourceErrorAuth
	case strings.Contains(errStr, "network") || strings.Contains(errStr, "connection") || strings.Contains(errStr, "dial"):
		return SourceErrorNetwork
	case strings.Contains(errStr, "decode") || strings.Contains(errStr, "unmarshal") || strings.Contains(errStr, "invalid"):
		return SourceErrorInvalidResp
	case strings.Contains(errStr, "500") || strings.Contains(errStr, "502") || strings.Contains(errStr, "503"):
		return SourceErrorServerError
	default:
		return SourceErrorOther
	}
}

// Redis connection-pool health, reported by RedisPoolReporter.
var (
	RedisPoolHits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arbcore_redis_pool_hits_total",
		Help: "Cumulative number of times a free connection was found in the Redis pool",
	})
	RedisPoolMisses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arbcore_redis_pool_misses_total",
		Help: "Cumulative number of times a free connection was NOT found in the Redis pool",
	})
	RedisPoolTimeouts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arbcore_redis_pool_timeouts_total",
		Help: "Cumulative number of times a wait timeout occurred acquiring a Redis connection",
	})
	RedisPoolTotalConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arbcore_redis_pool_total_conns",
		Help: "Number of total connections in the Redis pool",
	})
	RedisPoolIdleConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arbcore_redis_pool_idle_conns",
		Help: "Number of idle connections in the Redis pool",
	})
	RedisPoolStaleConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arbcore_redis_pool_stale_conns",
		Help: "Cumulative number of stale connections removed from the Redis pool",
	})
)

// CircuitBreakerTrips counts risk.Manager/orchestrator trips by normalized
// reason, independent of the per-process stats.Tracker snapshot.
var CircuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "arbcore_circuit_breaker_trips_total",
	Help: "Total number of circuit breaker trips by normalized reason",
}, []string{"reason"})

// RecordCircuitBreakerTrip records a trip with its reason normalized to the
// bounded set.
func RecordCircuitBreakerTrip(reason string) {
	CircuitBreakerTrips.WithLabelValues(NormalizeCircuitBreakerReason(reason)).Inc()
}

// ConfigValidationFailures counts config/registry validation failures by
// normalized reason.
var ConfigValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "arbcore_config_validation_failures_total",
	Help: "Total number of configuration validation failures by normalized reason",
}, []string{"reason"})

// RecordConfigValidationFailure records a validation failure with its
// reason normalized to the bounded set.
func RecordConfigValidationFailure(reason string) {
	ConfigValidationFailures.WithLabelValues(NormalizeValidationReason(reason)).Inc()
}

// SourceErrors counts C2 adapter / gateway transport errors by source and
// normalized category.
var SourceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "arbcore_source_errors_total",
	Help: "Total source adapter/transport errors by source_id and normalized category",
}, []string{"source_id", "category"})

// RecordSourceError records an adapter/transport error with its category
// normalized to the bounded set.
func RecordSourceError(sourceID string, err error) {
	if err == nil {
		return
	}
	SourceErrors.WithLabelValues(sourceID, NormalizeSourceError(err)).Inc()
}
