package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the full runtime configuration, populated from the
// environment. Call godotenv.Load before Load when a .env file is used.
type Config struct {
	Environment string
	LogLevel    string

	Limits struct {
		MaxDailyTrades       int
		MaxDailyInvestment   float64
		MaxSingleTradeAmount float64
		MinSingleTradeAmount float64
		MaxOpenPositions     int
		MaxTotalExposure     float64
		MaxExposurePerToken  float64
		EmergencyStopLoss    float64 // percent
	}

	Store struct {
		Backend  string // "memory" or "redis"
		RedisURL string
	}

	MarketData struct {
		Provider string // "static" or "bybit"
		Symbol   string
		Interval string
		Lookback int
		APIKey   string
		Secret   string
		Testnet  bool
	}

	Monitoring struct {
		PrometheusPort int
		HealthPort     int
	}

	AnalyzeInterval time.Duration
	ReportPath      string // Excel report written on shutdown; empty disables
}

// Load reads configuration from the environment with sensible defaults.
func Load() *Config {
	cfg := &Config{
		Environment:     getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		AnalyzeInterval: getEnvDuration("ANALYZE_INTERVAL", 5*time.Minute),
		ReportPath:      getEnv("REPORT_PATH", ""),
	}

	cfg.Limits.MaxDailyTrades = getEnvInt("MAX_DAILY_TRADES", 20)
	cfg.Limits.MaxDailyInvestment = getEnvFloat("MAX_DAILY_INVESTMENT", 1000.0)
	cfg.Limits.MaxSingleTradeAmount = getEnvFloat("MAX_SINGLE_TRADE_AMOUNT", 100.0)
	cfg.Limits.MinSingleTradeAmount = getEnvFloat("MIN_SINGLE_TRADE_AMOUNT", 10.0)
	cfg.Limits.MaxOpenPositions = getEnvInt("MAX_OPEN_POSITIONS", 5)
	cfg.Limits.MaxTotalExposure = getEnvFloat("MAX_TOTAL_EXPOSURE", 2000.0)
	cfg.Limits.MaxExposurePerToken = getEnvFloat("MAX_EXPOSURE_PER_TOKEN", 500.0)
	cfg.Limits.EmergencyStopLoss = getEnvFloat("EMERGENCY_STOP_LOSS", 10.0)

	cfg.Store.Backend = getEnv("STORE_BACKEND", "memory")
	cfg.Store.RedisURL = getEnv("REDIS_URL", "redis://localhost:6379/0")

	cfg.MarketData.Provider = getEnv("MARKET_DATA_PROVIDER", "static")
	cfg.MarketData.Symbol = getEnv("MARKET_DATA_SYMBOL", "SOLUSDT")
	cfg.MarketData.Interval = getEnv("MARKET_DATA_INTERVAL", "60")
	cfg.MarketData.Lookback = getEnvInt("MARKET_DATA_LOOKBACK", 100)
	cfg.MarketData.APIKey = getEnv("BYBIT_API_KEY", "")
	cfg.MarketData.Secret = getEnv("BYBIT_API_SECRET", "")
	cfg.MarketData.Testnet = getEnvBool("BYBIT_TESTNET", true)

	cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 8080)
	cfg.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", 8081)

	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
