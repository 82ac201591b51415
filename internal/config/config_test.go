package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 20, cfg.Limits.MaxDailyTrades)
	assert.Equal(t, 1000.0, cfg.Limits.MaxDailyInvestment)
	assert.Equal(t, 10.0, cfg.Limits.EmergencyStopLoss)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "static", cfg.MarketData.Provider)
	assert.Equal(t, 5*time.Minute, cfg.AnalyzeInterval)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("MAX_DAILY_TRADES", "7")
	t.Setenv("MAX_SINGLE_TRADE_AMOUNT", "250.5")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("BYBIT_TESTNET", "false")
	t.Setenv("ANALYZE_INTERVAL", "30s")

	cfg := Load()

	assert.Equal(t, 7, cfg.Limits.MaxDailyTrades)
	assert.Equal(t, 250.5, cfg.Limits.MaxSingleTradeAmount)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.False(t, cfg.MarketData.Testnet)
	assert.Equal(t, 30*time.Second, cfg.AnalyzeInterval)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MAX_DAILY_TRADES", "not-a-number")
	t.Setenv("ANALYZE_INTERVAL", "soon")

	cfg := Load()

	assert.Equal(t, 20, cfg.Limits.MaxDailyTrades)
	assert.Equal(t, 5*time.Minute, cfg.AnalyzeInterval)
}
