package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration for the arbitrage core.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	NATS         NATSConfig         `mapstructure:"nats"`
	Registry     RegistryConfig     `mapstructure:"registry"`
	Detector     DetectorConfig     `mapstructure:"detector"`
	Schedule     ScheduleConfig     `mapstructure:"schedule"`
	Score        ScoreConfig        `mapstructure:"score"`
	Risk         RiskConfig         `mapstructure:"risk"`
	MEV          MEVConfig          `mapstructure:"mev"`
	Gateway      GatewayConfig      `mapstructure:"gateway"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	LogLevel    string `mapstructure:"log_level"`
}

// DatabaseConfig contains the optional PostgreSQL settings backing
// risk.PostgresHistory. Host is left empty by default; callers that want
// durable P&L history set it and wire risk.NewPostgresHistoryWithPool
// themselves, since the pool's lifecycle is the caller's responsibility.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	PoolSize int    `mapstructure:"pool_size"`
}

// RedisConfig contains Redis settings for the aggregator's quote cache.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NATSConfig contains NATS settings for the execution gateway.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// TokenSeed describes one token to register with the registry at startup.
type TokenSeed struct {
	Mint      string `mapstructure:"mint"` // hex (32-byte) or 0x-EVM (20-byte)
	Symbol    string `mapstructure:"symbol"`
	Decimals  int32  `mapstructure:"decimals"`
	Tier      string `mapstructure:"tier"` // major, ecosystem, stable, experimental
	Risk      string `mapstructure:"risk"`
	Tradeable bool   `mapstructure:"tradeable"`
	Verified  bool   `mapstructure:"verified"`
}

// PairSeed describes one tradeable pair to register at startup.
type PairSeed struct {
	MintA           string  `mapstructure:"mint_a"`
	MintB           string  `mapstructure:"mint_b"`
	MinProfitBps    int32   `mapstructure:"min_profit_bps"`
	MaxSlippageBps  int32   `mapstructure:"max_slippage_bps"`
	MaxPositionSize float64 `mapstructure:"max_position_size"`
	Priority        int32   `mapstructure:"priority"`
	Enabled         bool    `mapstructure:"enabled"`
	VolatilityMult  float64 `mapstructure:"volatility_mult"`
}

// RegistryConfig seeds the token/pair registry at startup.
type RegistryConfig struct {
	Tokens []TokenSeed `mapstructure:"tokens"`
	Pairs  []PairSeed  `mapstructure:"pairs"`
}

// DetectorConfig configures C5's reference trade sizing.
type DetectorConfig struct {
	ReferenceTradeSize float64 `mapstructure:"reference_trade_size"`
}

// ScheduleConfig configures C8's base scan cadence.
type ScheduleConfig struct {
	BaseIntervalMS int `mapstructure:"base_interval_ms"`
}

// ScoreConfig mirrors score.Thresholds.
type ScoreConfig struct {
	HighVolume24h  float64  `mapstructure:"high_volume_24h"`
	DeepLiquidity  float64  `mapstructure:"deep_liquidity"`
	TrustedVenues  []string `mapstructure:"trusted_venues"`
}

// RiskConfig mirrors risk.Config.
type RiskConfig struct {
	MaxRiskScore            float64 `mapstructure:"max_risk_score"`
	MaxPositionSizePct      float64 `mapstructure:"max_position_size_pct"`
	MaxConcurrentExecutions int     `mapstructure:"max_concurrent_executions"`
	MaxDailyLoss            float64 `mapstructure:"max_daily_loss"`
	MaxConsecutiveLosses    int     `mapstructure:"max_consecutive_losses"`
	MaxVolatility           float64 `mapstructure:"max_volatility"`
	MinLiquidity            float64 `mapstructure:"min_liquidity"`
	CircuitBreakerCooldownS int     `mapstructure:"circuit_breaker_cooldown_s"`
}

// MEVConfig mirrors mev.Config.
type MEVConfig struct {
	SensitiveVenues            []string `mapstructure:"sensitive_venues"`
	LiquidityImpactHighBps     int32    `mapstructure:"liquidity_impact_high_bps"`
	LiquidityImpactCriticalBps int32    `mapstructure:"liquidity_impact_critical_bps"`
	VolatilityHigh             float64  `mapstructure:"volatility_high"`
	VolatilityCritical         float64  `mapstructure:"volatility_critical"`
	ImbalanceRatio             float64  `mapstructure:"imbalance_ratio"`
	RequireProtectedSend       bool     `mapstructure:"require_protected_send"`
}

// GatewayConfig mirrors gateway.Config.
type GatewayConfig struct {
	MaxConcurrentExecutions int `mapstructure:"max_concurrent_executions"`
}

// OrchestratorConfig mirrors orchestrator.Config.
type OrchestratorConfig struct {
	MaxOpportunitiesPerCycle int     `mapstructure:"max_opportunities_per_cycle"`
	ReferenceTradeSize       float64 `mapstructure:"reference_trade_size"`
	PortfolioEstimate        float64 `mapstructure:"portfolio_estimate"`
	OutcomeDrainLimit        int     `mapstructure:"outcome_drain_limit"`
}

// MonitoringConfig contains monitoring settings.
type MonitoringConfig struct {
	PrometheusPort int  `mapstructure:"prometheus_port"`
	EnableMetrics  bool `mapstructure:"enable_metrics"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("ARBCORE")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults and environment variables.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "arbcore")
	v.SetDefault("app.version", Version)
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "arbcore")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.pool_size", 10)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "arbcore.")

	v.SetDefault("detector.reference_trade_size", 1000.0)

	v.SetDefault("schedule.base_interval_ms", 500)

	v.SetDefault("score.high_volume_24h", 1_000_000.0)
	v.SetDefault("score.deep_liquidity", 50_000.0)
	v.SetDefault("score.trusted_venues", []string{})

	v.SetDefault("risk.max_risk_score", 0.7)
	v.SetDefault("risk.max_position_size_pct", 0.05)
	v.SetDefault("risk.max_concurrent_executions", 5)
	v.SetDefault("risk.max_daily_loss", 1_000.0)
	v.SetDefault("risk.max_consecutive_losses", 3)
	v.SetDefault("risk.max_volatility", 8.0)
	v.SetDefault("risk.min_liquidity", 10_000.0)
	v.SetDefault("risk.circuit_breaker_cooldown_s", 60)

	v.SetDefault("mev.sensitive_venues", []string{})
	v.SetDefault("mev.liquidity_impact_high_bps", 300)
	v.SetDefault("mev.liquidity_impact_critical_bps", 1000)
	v.SetDefault("mev.volatility_high", 4.0)
	v.SetDefault("mev.volatility_critical", 8.0)
	v.SetDefault("mev.imbalance_ratio", 3.0)
	v.SetDefault("mev.require_protected_send", true)

	v.SetDefault("gateway.max_concurrent_executions", 3)

	v.SetDefault("orchestrator.max_opportunities_per_cycle", 10)
	v.SetDefault("orchestrator.reference_trade_size", 1000.0)
	v.SetDefault("orchestrator.portfolio_estimate", 100_000.0)
	v.SetDefault("orchestrator.outcome_drain_limit", 64)

	v.SetDefault("monitoring.prometheus_port", 9100)
	v.SetDefault("monitoring.enable_metrics", true)
}

// GetDSN returns the PostgreSQL connection string. Empty Host means no
// durable history backend is configured.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Enabled reports whether a durable history backend was configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// GetRedisAddr returns the Redis address.
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CircuitBreakerCooldown returns the configured cooldown as a duration.
func (c *RiskConfig) CircuitBreakerCooldown() time.Duration {
	return time.Duration(c.CircuitBreakerCooldownS) * time.Second
}

// BaseInterval returns the configured scan cadence as a duration.
func (c *ScheduleConfig) BaseInterval() time.Duration {
	return time.Duration(c.BaseIntervalMS) * time.Millisecond
}

// Decimal helpers: every C-component field is a decimal.Decimal while the
// mapstructure-friendly config field is a float64, so each numeric field
// used to build a component Config gets one of these at wiring time rather
// than a decimal-tagged mapstructure field (viper has no decimal.Decimal
// hook registered, matching the rest of this config package).

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// ToDecimals returns the RiskConfig's decimal-valued fields, as plain
// values so this package never imports internal/core/risk (config stays a leaf
// package the way the teacher's config package never imports a trading
// component).
func (c *RiskConfig) ToDecimals() (maxRiskScore, maxPositionSizePct, maxDailyLoss, maxVolatility, minLiquidity decimal.Decimal) {
	return dec(c.MaxRiskScore), dec(c.MaxPositionSizePct), dec(c.MaxDailyLoss), dec(c.MaxVolatility), dec(c.MinLiquidity)
}

// ToDecimals returns the MEVConfig's decimal-valued fields.
func (c *MEVConfig) ToDecimals() (volatilityHigh, volatilityCritical, imbalanceRatio decimal.Decimal) {
	return dec(c.VolatilityHigh), dec(c.VolatilityCritical), dec(c.ImbalanceRatio)
}

// ToDecimals returns the ScoreConfig's decimal-valued fields.
func (c *ScoreConfig) ToDecimals() (highVolume24h, deepLiquidity decimal.Decimal) {
	return dec(c.HighVolume24h), dec(c.DeepLiquidity)
}

// ToDecimals returns the OrchestratorConfig's decimal-valued fields.
func (c *OrchestratorConfig) ToDecimals() (referenceTradeSize, portfolioEstimate decimal.Decimal) {
	return dec(c.ReferenceTradeSize), dec(c.PortfolioEstimate)
}

// ToDecimal returns the DetectorConfig's reference trade size.
func (c *DetectorConfig) ToDecimal() decimal.Decimal {
	return dec(c.ReferenceTradeSize)
}
