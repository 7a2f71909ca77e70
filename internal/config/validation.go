package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n\n", len(ve)))
	for i, err := range ve {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	sb.WriteString("\nPlease fix the above errors and try again.\n")
	return sb.String()
}

// Validate performs comprehensive configuration validation
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateApp()...)
	errors = append(errors, c.validateDatabase()...)
	errors = append(errors, c.validateRedis()...)
	errors = append(errors, c.validateNATS()...)
	errors = append(errors, c.validateRegistry()...)
	errors = append(errors, c.validateSchedule()...)
	errors = append(errors, c.validateRisk()...)
	errors = append(errors, c.validateMEV()...)
	errors = append(errors, c.validateGateway()...)
	errors = append(errors, c.validateMonitoring()...)
	errors = append(errors, c.validateEnvironmentRequirements()...)

	if len(errors) > 0 {
		return errors
	}

	return nil
}

func (c *Config) validateApp() ValidationErrors {
	var errors ValidationErrors

	if c.App.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "app.name",
			Message: "Application name is required",
		})
	}

	if c.App.Environment == "" {
		errors = append(errors, ValidationError{
			Field:   "app.environment",
			Message: "Environment is required (development, staging, or production)",
		})
	} else {
		validEnvs := []string{"development", "staging", "production"}
		valid := false
		for _, env := range validEnvs {
			if c.App.Environment == env {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, ValidationError{
				Field:   "app.environment",
				Message: fmt.Sprintf("Invalid environment '%s'. Must be one of: %v", c.App.Environment, validEnvs),
			})
		}
	}

	if c.App.LogLevel == "" {
		errors = append(errors, ValidationError{
			Field:   "app.log_level",
			Message: "Log level is required (debug, info, warn, error)",
		})
	}

	return errors
}

// validateDatabase only runs the full connection-detail checks when a host
// is configured: Database is optional, since risk.PostgresHistory is an
// opt-in extension of risk.Manager rather than a required component.
func (c *Config) validateDatabase() ValidationErrors {
	var errors ValidationErrors

	if !c.Database.Enabled() {
		return errors
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "database.port",
			Message: fmt.Sprintf("Invalid port %d. Must be between 1-65535", c.Database.Port),
		})
	}

	if c.Database.User == "" {
		errors = append(errors, ValidationError{
			Field:   "database.user",
			Message: "Database user is required when database.host is set",
		})
	}

	if c.Database.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "database.database",
			Message: "Database name is required when database.host is set",
		})
	}

	if c.Database.Password == "" && c.App.Environment != "development" {
		errors = append(errors, ValidationError{
			Field:   "database.password",
			Message: "Database password is required in non-development environments",
		})
	}

	if c.Database.PoolSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.pool_size",
			Message: "Database pool size must be at least 1",
		})
	}

	return errors
}

func (c *Config) validateRedis() ValidationErrors {
	var errors ValidationErrors

	if c.Redis.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "redis.host",
			Message: "Redis host is required",
		})
	}

	if c.Redis.Port == 0 {
		errors = append(errors, ValidationError{
			Field:   "redis.port",
			Message: "Redis port is required",
		})
	} else if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "redis.port",
			Message: fmt.Sprintf("Invalid port %d. Must be between 1-65535", c.Redis.Port),
		})
	}

	return errors
}

func (c *Config) validateNATS() ValidationErrors {
	var errors ValidationErrors

	if c.NATS.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "nats.url",
			Message: "NATS URL is required",
		})
	} else if !strings.HasPrefix(c.NATS.URL, "nats://") {
		errors = append(errors, ValidationError{
			Field:   "nats.url",
			Message: "NATS URL must start with 'nats://'",
		})
	}

	if c.NATS.SubjectPrefix == "" {
		errors = append(errors, ValidationError{
			Field:   "nats.subject_prefix",
			Message: "NATS subject prefix is required",
		})
	}

	return errors
}

func (c *Config) validateRegistry() ValidationErrors {
	var errors ValidationErrors

	seen := make(map[string]bool, len(c.Registry.Tokens))
	for i, tok := range c.Registry.Tokens {
		if tok.Mint == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("registry.tokens[%d].mint", i),
				Message: "Token mint is required",
			})
			continue
		}
		if seen[tok.Mint] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("registry.tokens[%d].mint", i),
				Message: fmt.Sprintf("Duplicate token mint %q", tok.Mint),
			})
		}
		seen[tok.Mint] = true

		if tok.Symbol == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("registry.tokens[%d].symbol", i),
				Message: "Token symbol is required",
			})
		}

		validTiers := []string{"major", "ecosystem", "stable", "experimental"}
		valid := false
		for _, t := range validTiers {
			if tok.Tier == t {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("registry.tokens[%d].tier", i),
				Message: fmt.Sprintf("Invalid tier %q. Must be one of: %v", tok.Tier, validTiers),
			})
		}
	}

	for i, pair := range c.Registry.Pairs {
		if pair.MintA == "" || pair.MintB == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("registry.pairs[%d]", i),
				Message: "Both mint_a and mint_b are required",
			})
			continue
		}
		if pair.MintA == pair.MintB {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("registry.pairs[%d]", i),
				Message: "mint_a and mint_b must differ",
			})
		}
		if pair.MinProfitBps < 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("registry.pairs[%d].min_profit_bps", i),
				Message: "min_profit_bps must be non-negative",
			})
		}
		if pair.MaxSlippageBps < 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("registry.pairs[%d].max_slippage_bps", i),
				Message: "max_slippage_bps must be non-negative",
			})
		}
	}

	return errors
}

func (c *Config) validateSchedule() ValidationErrors {
	var errors ValidationErrors

	if c.Schedule.BaseIntervalMS < 1 {
		errors = append(errors, ValidationError{
			Field:   "schedule.base_interval_ms",
			Message: "base_interval_ms must be at least 1",
		})
	}

	return errors
}

func (c *Config) validateRisk() ValidationErrors {
	var errors ValidationErrors

	if c.Risk.MaxRiskScore <= 0 || c.Risk.MaxRiskScore > 1 {
		errors = append(errors, ValidationError{
			Field:   "risk.max_risk_score",
			Message: fmt.Sprintf("Invalid max_risk_score %.2f. Must be between 0-1", c.Risk.MaxRiskScore),
		})
	}

	if c.Risk.MaxPositionSizePct <= 0 || c.Risk.MaxPositionSizePct > 1 {
		errors = append(errors, ValidationError{
			Field:   "risk.max_position_size_pct",
			Message: fmt.Sprintf("Invalid max_position_size_pct %.2f. Must be between 0-1", c.Risk.MaxPositionSizePct),
		})
	}

	if c.Risk.MaxConcurrentExecutions < 1 {
		errors = append(errors, ValidationError{
			Field:   "risk.max_concurrent_executions",
			Message: "max_concurrent_executions must be at least 1",
		})
	}

	if c.Risk.MaxDailyLoss <= 0 {
		errors = append(errors, ValidationError{
			Field:   "risk.max_daily_loss",
			Message: "max_daily_loss must be a positive magnitude",
		})
	}

	if c.Risk.MaxConsecutiveLosses < 1 {
		errors = append(errors, ValidationError{
			Field:   "risk.max_consecutive_losses",
			Message: "max_consecutive_losses must be at least 1",
		})
	}

	if c.Risk.CircuitBreakerCooldownS < 1 {
		errors = append(errors, ValidationError{
			Field:   "risk.circuit_breaker_cooldown_s",
			Message: "circuit_breaker_cooldown_s must be at least 1",
		})
	}

	return errors
}

func (c *Config) validateMEV() ValidationErrors {
	var errors ValidationErrors

	if c.MEV.LiquidityImpactHighBps <= 0 {
		errors = append(errors, ValidationError{
			Field:   "mev.liquidity_impact_high_bps",
			Message: "liquidity_impact_high_bps must be positive",
		})
	}

	if c.MEV.LiquidityImpactCriticalBps <= c.MEV.LiquidityImpactHighBps {
		errors = append(errors, ValidationError{
			Field:   "mev.liquidity_impact_critical_bps",
			Message: "liquidity_impact_critical_bps must exceed liquidity_impact_high_bps",
		})
	}

	if c.MEV.VolatilityCritical <= c.MEV.VolatilityHigh {
		errors = append(errors, ValidationError{
			Field:   "mev.volatility_critical",
			Message: "volatility_critical must exceed volatility_high",
		})
	}

	if c.MEV.ImbalanceRatio <= 1 {
		errors = append(errors, ValidationError{
			Field:   "mev.imbalance_ratio",
			Message: "imbalance_ratio must exceed 1",
		})
	}

	return errors
}

func (c *Config) validateGateway() ValidationErrors {
	var errors ValidationErrors

	if c.Gateway.MaxConcurrentExecutions < 1 {
		errors = append(errors, ValidationError{
			Field:   "gateway.max_concurrent_executions",
			Message: "max_concurrent_executions must be at least 1",
		})
	}

	return errors
}

func (c *Config) validateMonitoring() ValidationErrors {
	var errors ValidationErrors

	if c.Monitoring.EnableMetrics {
		if c.Monitoring.PrometheusPort < 1 || c.Monitoring.PrometheusPort > 65535 {
			errors = append(errors, ValidationError{
				Field:   "monitoring.prometheus_port",
				Message: fmt.Sprintf("Invalid port %d. Must be between 1-65535", c.Monitoring.PrometheusPort),
			})
		}
	}

	return errors
}

func (c *Config) validateEnvironmentRequirements() ValidationErrors {
	var errors ValidationErrors

	if c.App.Environment == "production" {
		secretErrors := ValidateProductionSecrets(c)
		errors = append(errors, secretErrors...)

		if c.Database.Enabled() && c.Database.SSLMode == "disable" {
			errors = append(errors, ValidationError{
				Field:   "database.ssl_mode",
				Message: "SSL must be enabled for database in production",
			})
		}
	}

	return errors
}

// ValidateAndLoad loads and validates configuration
// Returns the loaded config and any validation errors
// configPath can be empty to use default config locations
func ValidateAndLoad(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
