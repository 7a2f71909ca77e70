// Command arbitrage-core is the arbitrage detection and risk-assessment
// process: it loads configuration, seeds the token/pair registry, wires
// every C1-C13 component together, and runs the orchestrator's cycle loop
// until a shutdown signal arrives.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/arbcore/internal/config"
	"github.com/ajitpratap0/arbcore/internal/core/aggregator"
	"github.com/ajitpratap0/arbcore/internal/core/detect"
	"github.com/ajitpratap0/arbcore/internal/core/events"
	"github.com/ajitpratap0/arbcore/internal/core/gateway"
	"github.com/ajitpratap0/arbcore/internal/core/mev"
	"github.com/ajitpratap0/arbcore/internal/core/orchestrator"
	"github.com/ajitpratap0/arbcore/internal/core/poolbook"
	"github.com/ajitpratap0/arbcore/internal/core/registry"
	"github.com/ajitpratap0/arbcore/internal/core/risk"
	"github.com/ajitpratap0/arbcore/internal/core/schedule"
	"github.com/ajitpratap0/arbcore/internal/core/score"
	"github.com/ajitpratap0/arbcore/internal/core/sources"
	"github.com/ajitpratap0/arbcore/internal/core/stats"
	"github.com/ajitpratap0/arbcore/internal/core/types"
	"github.com/ajitpratap0/arbcore/internal/core/volatility"
	"github.com/ajitpratap0/arbcore/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (overrides the default search path)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	config.InitLogger(cfg.App.LogLevel, "console")
	log.Info().Str("environment", cfg.App.Environment).Str("version", cfg.App.Version).Msg("starting arbcore")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	validator := config.NewValidator(cfg, config.DefaultValidatorOptions())
	if err := validator.ValidateStartup(ctx); err != nil {
		log.Fatal().Err(err).Msg("startup validation failed")
	}

	reg, err := buildRegistry(cfg.Registry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed registry")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	book := poolbook.New()
	ammAdapter := sources.NewAmmReserveAdapter("amm-reserve", book.AsPoolProvider(), 2*time.Second, config.NewSourceLogger("amm-reserve", "amm_reserve"))

	agg := aggregator.New(redisClient, config.NewLogger("aggregator"))
	agg.RegisterAdapter(ammAdapter)
	// QuoteProvider, OrderBookProvider and ReferenceFeedProvider are
	// injected capabilities with no in-tree implementation: a deployment
	// wires NewAggregatorQuoteAdapter/NewOrderBookTopAdapter/
	// NewReferenceFeedAdapter here once it has a concrete aggregator-quote
	// API, CEX order book feed, or price-reference feed to back them.

	circular := detect.NewCircularTradeDetector()
	detector := detect.New(book, circular)
	detector.ReferenceTradeSize = cfg.Detector.ToDecimal()

	referenceTradeSize, portfolioEstimate := cfg.Orchestrator.ToDecimals()
	highVolume24h, deepLiquidity := cfg.Score.ToDecimals()
	scorer := score.New(score.Thresholds{
		HighVolume24h: highVolume24h,
		DeepLiquidity: deepLiquidity,
		TrustedVenues: stringSet(cfg.Score.TrustedVenues),
	})

	volTracker := volatility.New(256)
	scheduler := schedule.New(cfg.Schedule.BaseInterval())

	maxRiskScore, maxPositionSizePct, maxDailyLoss, maxVolatility, minLiquidity := cfg.Risk.ToDecimals()
	riskOpts := []risk.Option{risk.WithMetrics(risk.NewMetrics(prometheus.DefaultRegisterer))}
	if cfg.Database.Enabled() {
		pgPool, err := pgxpool.New(ctx, cfg.Database.GetDSN())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pgPool.Close()
		history := risk.NewPostgresHistoryWithPool(pgPool)
		if err := history.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure risk history schema")
		}
		riskOpts = append(riskOpts, risk.WithHistory(history))
	}
	riskManager := risk.New(risk.Config{
		MaxRiskScore:            maxRiskScore,
		MaxPositionSizePct:      maxPositionSizePct,
		MaxConcurrentExecutions: cfg.Risk.MaxConcurrentExecutions,
		MaxDailyLoss:            maxDailyLoss,
		MaxConsecutiveLosses:    cfg.Risk.MaxConsecutiveLosses,
		MaxVolatility:           maxVolatility,
		MinLiquidity:            minLiquidity,
		CircuitBreakerCooldown:  cfg.Risk.CircuitBreakerCooldown(),
	}, riskOpts...)

	volHigh, volCritical, imbalanceRatio := cfg.MEV.ToDecimals()
	mevConfig := mev.Config{
		SensitiveVenues:            stringSet(cfg.MEV.SensitiveVenues),
		LiquidityImpactHighBps:     cfg.MEV.LiquidityImpactHighBps,
		LiquidityImpactCriticalBps: cfg.MEV.LiquidityImpactCriticalBps,
		VolatilityHigh:             volHigh,
		VolatilityCritical:         volCritical,
		ImbalanceRatio:             imbalanceRatio,
		RequireProtectedSend:       cfg.MEV.RequireProtectedSend,
	}
	mevAnalyzer := mev.New(mevConfig)

	gw, err := gateway.New(gateway.Config{
		NATSURL:                 cfg.NATS.URL,
		SubjectPrefix:           cfg.NATS.SubjectPrefix,
		MaxConcurrentExecutions: cfg.Gateway.MaxConcurrentExecutions,
	}, config.NewLogger("gateway"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start gateway")
	}
	defer gw.Close()

	statsMetrics := stats.NewMetrics(prometheus.DefaultRegisterer)
	statsTracker := stats.New(statsMetrics)

	bus := events.New()

	orch := orchestrator.New(orchestrator.Config{
		MaxOpportunitiesPerCycle: cfg.Orchestrator.MaxOpportunitiesPerCycle,
		ReferenceTradeSize:       referenceTradeSize,
		PortfolioEstimate:        portfolioEstimate,
		OutcomeDrainLimit:        cfg.Orchestrator.OutcomeDrainLimit,
	}, orchestrator.Deps{
		Registry:   reg,
		Aggregator: agg,
		Detector:   detector,
		Scorer:     scorer,
		Volatility: volTracker,
		Scheduler:  scheduler,
		Risk:       riskManager,
		MEV:        mevAnalyzer,
		MEVConfig:  mevConfig,
		Gateway:    gw,
		Stats:      statsTracker,
		Events:     bus,
	}, config.NewLogger("orchestrator"))

	var metricsSrv *metrics.Server
	if cfg.Monitoring.EnableMetrics {
		metricsSrv = metrics.NewServer(cfg.Monitoring.PrometheusPort, config.NewLogger("metrics"), func() interface{} {
			return statsTracker.Snapshot()
		})
		if err := metricsSrv.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start metrics server")
		}

		reporter := metrics.NewRedisPoolReporter(redisClient)
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					reporter.Report()
				}
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- orch.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-errChan:
		if err != nil {
			log.Error().Err(err).Msg("orchestrator stopped with error")
		}
	}

	cancel()

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error shutting down metrics server")
		}
	}

	log.Info().Msg("arbcore shutdown complete")
}

func stringSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func buildRegistry(cfg config.RegistryConfig) (*registry.Registry, error) {
	reg := registry.New()
	for _, t := range cfg.Tokens {
		mint, err := parseMint(t.Mint)
		if err != nil {
			return nil, err
		}
		if err := reg.AddToken(types.Token{
			Mint:      mint,
			Symbol:    t.Symbol,
			Decimals:  t.Decimals,
			Tier:      types.Tier(t.Tier),
			Risk:      types.RiskLevel(t.Risk),
			Tradeable: t.Tradeable,
			Verified:  t.Verified,
		}); err != nil {
			return nil, err
		}
	}
	for _, p := range cfg.Pairs {
		mintA, err := parseMint(p.MintA)
		if err != nil {
			return nil, err
		}
		mintB, err := parseMint(p.MintB)
		if err != nil {
			return nil, err
		}
		if err := reg.AddPair(mintA, mintB, types.PairConfig{
			MintA:           mintA,
			MintB:           mintB,
			MinProfitBps:    p.MinProfitBps,
			MaxSlippageBps:  p.MaxSlippageBps,
			MaxPositionSize: decimalFromFloat(p.MaxPositionSize),
			Priority:        p.Priority,
			Enabled:         p.Enabled,
			VolatilityMult:  decimalFromFloat(p.VolatilityMult),
		}); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// parseMint accepts either a checksummed EVM address or a bare hex string
// (e.g. an already-decoded 32-byte SVM pubkey), matching the two seed
// formats config.TokenSeed.Mint can carry. Base58-encoded SVM pubkeys are
// a chain-decoder concern left to the injected pluggable capability; seed
// them here pre-decoded to hex.
func parseMint(s string) (types.Mint, error) {
	if common.IsHexAddress(s) {
		return types.MintFromEVMAddress(s)
	}
	return types.MintFromHex(s)
}

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
