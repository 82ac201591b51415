package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/crypto-risk-engine/internal/config"
	"github.com/ducminhle1904/crypto-risk-engine/internal/logger"
	"github.com/ducminhle1904/crypto-risk-engine/internal/marketdata"
	"github.com/ducminhle1904/crypto-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/crypto-risk-engine/internal/risk"
	"github.com/ducminhle1904/crypto-risk-engine/internal/store"
	"github.com/ducminhle1904/crypto-risk-engine/internal/strategy"
	"github.com/ducminhle1904/crypto-risk-engine/pkg/reporting"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New("main", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := buildStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize store", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}

	analyzer := buildAnalyzer(cfg, log)

	framework := strategy.NewFramework(analyzer, log.WithModule("strategy"), strategy.WithStore(kv))

	riskManager := risk.NewManager(
		risk.TradingLimits{
			MaxDailyTrades:       cfg.Limits.MaxDailyTrades,
			MaxDailyInvestment:   cfg.Limits.MaxDailyInvestment,
			MaxSingleTradeAmount: cfg.Limits.MaxSingleTradeAmount,
			MinSingleTradeAmount: cfg.Limits.MinSingleTradeAmount,
			MaxOpenPositions:     cfg.Limits.MaxOpenPositions,
			MaxTotalExposure:     cfg.Limits.MaxTotalExposure,
			MaxExposurePerToken:  cfg.Limits.MaxExposurePerToken,
			EmergencyStopLoss:    cfg.Limits.EmergencyStopLoss,
		},
		log.WithModule("risk"),
		risk.WithStore(kv),
		risk.WithVolatilitySource(framework.LatestVolatility),
	)

	health := monitoring.NewHealthChecker()
	startMonitoringServers(cfg, health, log)

	console := reporting.NewConsoleReporter()
	console.PrintLimits(riskManager.TradingLimits())
	console.PrintStrategies(framework.AllStrategies())

	log.Info("risk engine started", logger.Fields{
		"environment":      cfg.Environment,
		"store":            cfg.Store.Backend,
		"market_provider":  cfg.MarketData.Provider,
		"analyze_interval": cfg.AnalyzeInterval.String(),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.AnalyzeInterval)
	defer ticker.Stop()

	runCycle(framework, riskManager, health, console, log)

	for {
		select {
		case <-sigChan:
			log.Info("shutting down")
			writeShutdownReport(cfg, riskManager, framework, log)
			return
		case <-ctx.Done():
			writeShutdownReport(cfg, riskManager, framework, log)
			return
		case <-ticker.C:
			runCycle(framework, riskManager, health, console, log)
		}
	}
}

// writeShutdownReport exports the session's daily stats and performance
// records when a report path is configured.
func writeShutdownReport(cfg *config.Config, riskManager *risk.Manager, framework *strategy.Framework, log *logger.Logger) {
	if cfg.ReportPath == "" {
		return
	}
	excel := reporting.NewExcelReporter()
	if err := excel.WriteReport(cfg.ReportPath, riskManager.AllStats(), framework.AllPerformance()); err != nil {
		log.Error("failed to write report", logger.Fields{"error": err.Error()})
		return
	}
	log.Info("report written", logger.Fields{"path": cfg.ReportPath})
}

// runCycle performs one analyze -> recommend -> apply pass and refreshes
// the operator views.
func runCycle(
	framework *strategy.Framework,
	riskManager *risk.Manager,
	health *monitoring.HealthChecker,
	console *reporting.ConsoleReporter,
	log *logger.Logger,
) {
	analysis := framework.AnalyzeMarketState()
	monitoring.SetMarketVolatility(analysis.Volatility)

	rec := framework.RecommendStrategy()
	framework.ApplyRecommendedStrategy(rec)
	active := rec.RecommendedStrategy

	monitoring.SetActiveStrategy(active.ID)
	monitoring.SetStrategyConfidence(rec.Confidence)
	health.RecordAnalysis(active.ID)
	health.SetEmergencyStopped(riskManager.IsEmergencyStopped())

	console.PrintRecommendation(rec)
	console.PrintTodayStats(riskManager.TodayStats())

	log.Info("analysis cycle complete", logger.Fields{
		"market_state":    analysis.CurrentState.String(),
		"active_strategy": active.ID,
	})
}

func buildStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	if cfg.Store.Backend == "redis" {
		redisStore, err := store.NewRedisStore(ctx, cfg.Store.RedisURL)
		if err != nil {
			return nil, err
		}
		log.Info("using redis store", logger.Fields{"url": cfg.Store.RedisURL})
		return redisStore, nil
	}
	log.Info("using in-memory store")
	return store.NewMemoryStore(), nil
}

func buildAnalyzer(cfg *config.Config, log *logger.Logger) strategy.MarketAnalyzer {
	if cfg.MarketData.Provider == "bybit" {
		return marketdata.NewBybitAnalyzer(marketdata.BybitConfig{
			APIKey:   cfg.MarketData.APIKey,
			Secret:   cfg.MarketData.Secret,
			Testnet:  cfg.MarketData.Testnet,
			Symbol:   cfg.MarketData.Symbol,
			Interval: cfg.MarketData.Interval,
			Lookback: cfg.MarketData.Lookback,
		}, log.WithModule("marketdata"))
	}
	return marketdata.NewStaticAnalyzer()
}

func startMonitoringServers(cfg *config.Config, health *monitoring.HealthChecker, log *logger.Logger) {
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
		if err := http.ListenAndServe(addr, monitoring.NewMetricsHandler()); err != nil {
			log.Error("metrics server stopped", logger.Fields{"error": err.Error()})
		}
	}()
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.HealthPort)
		if err := http.ListenAndServe(addr, health); err != nil {
			log.Error("health server stopped", logger.Fields{"error": err.Error()})
		}
	}()
}
