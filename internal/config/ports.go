// Package config provides configuration management for arbcore.
// This file centralizes all port constants to avoid duplication and ensure consistency.
package config

// Port Allocation Strategy:
//   4222: NATS
//   5432: Postgres
//   6379: Redis
//   9100-9199: Prometheus metrics endpoints

// Infrastructure Service Ports
const (
	// PostgresPort is the default port for PostgreSQL.
	PostgresPort = 5432

	// RedisPort is the default port for Redis.
	RedisPort = 6379

	// NATSPort is the default port for NATS messaging.
	NATSPort = 4222
)

// Monitoring Service Ports
const (
	// MetricsPort is the default port for the core's own /metrics and
	// /health endpoints.
	MetricsPort = 9100

	// PrometheusPort is the default port for a scraping Prometheus instance.
	PrometheusPort = 9090

	// NATSExporterPort is the port for the NATS Prometheus exporter.
	NATSExporterPort = 7777
)
