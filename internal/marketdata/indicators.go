package marketdata

import (
	"math"

	"github.com/ducminhle1904/crypto-risk-engine/internal/strategy"
	"github.com/ducminhle1904/crypto-risk-engine/pkg/types"
)

// Classification thresholds. Volatility above volatileThreshold dominates
// trend; drift beyond trendThreshold separates bull/bear from stable.
const (
	volatileThreshold = 0.6
	trendThreshold    = 0.03
)

// Volatility returns the average true range normalized by the last close,
// scaled into [0, 1]. An ATR of 5% of price or more reads as 1.
func Volatility(candles []types.OHLCV) float64 {
	if len(candles) < 2 {
		return 0
	}

	var trSum float64
	for i := 1; i < len(candles); i++ {
		highLow := candles[i].High - candles[i].Low
		highClose := math.Abs(candles[i].High - candles[i-1].Close)
		lowClose := math.Abs(candles[i].Low - candles[i-1].Close)
		trSum += math.Max(highLow, math.Max(highClose, lowClose))
	}
	atr := trSum / float64(len(candles)-1)

	lastClose := candles[len(candles)-1].Close
	if lastClose <= 0 {
		return 0
	}

	normalized := (atr / lastClose) / 0.05
	return math.Min(1, normalized)
}

// Trend returns the close-to-close drift over the window as a fraction,
// positive for rising prices.
func Trend(candles []types.OHLCV) float64 {
	if len(candles) < 2 {
		return 0
	}
	first := candles[0].Close
	last := candles[len(candles)-1].Close
	if first <= 0 {
		return 0
	}
	return (last - first) / first
}

// Sentiment returns the share of candles that closed above the previous
// close, in [0, 1].
func Sentiment(candles []types.OHLCV) float64 {
	if len(candles) < 2 {
		return 0.5
	}
	up := 0
	for i := 1; i < len(candles); i++ {
		if candles[i].Close > candles[i-1].Close {
			up++
		}
	}
	return float64(up) / float64(len(candles)-1)
}

// Classify maps volatility and trend onto a market state.
func Classify(volatility, trend float64) strategy.MarketState {
	switch {
	case volatility > volatileThreshold:
		return strategy.MarketVolatile
	case trend > trendThreshold:
		return strategy.MarketBull
	case trend < -trendThreshold:
		return strategy.MarketBear
	default:
		return strategy.MarketStable
	}
}
