// Package marketdata provides MarketAnalyzer implementations for the
// strategy framework: a fixed snapshot for hosts without a feed, and a
// Bybit kline-backed analyzer.
package marketdata

import (
	"time"

	"github.com/ducminhle1904/crypto-risk-engine/internal/strategy"
)

// StaticAnalyzer returns the same snapshot on every call. It is the
// default provider when no market-data feed is configured.
type StaticAnalyzer struct {
	State      strategy.MarketState
	Volatility float64
	Trend      float64
	Sentiment  float64
}

// NewStaticAnalyzer creates an analyzer reporting a neutral stable market.
func NewStaticAnalyzer() *StaticAnalyzer {
	return &StaticAnalyzer{
		State:      strategy.MarketStable,
		Volatility: 0.3,
		Trend:      0,
		Sentiment:  0.5,
	}
}

// Analyze returns the configured snapshot stamped with the current time.
func (a *StaticAnalyzer) Analyze() (strategy.MarketAnalysis, error) {
	return strategy.MarketAnalysis{
		CurrentState: a.State,
		Volatility:   a.Volatility,
		Trend:        a.Trend,
		Sentiment:    a.Sentiment,
		Timestamp:    time.Now(),
	}, nil
}
