package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ducminhle1904/crypto-risk-engine/internal/strategy"
	"github.com/ducminhle1904/crypto-risk-engine/pkg/types"
)

// candles builds a series of flat-range candles around the given closes.
func candles(closes ...float64) []types.OHLCV {
	out := make([]types.OHLCV, len(closes))
	for i, c := range closes {
		out[i] = types.OHLCV{
			Open:      c,
			High:      c * 1.001,
			Low:       c * 0.999,
			Close:     c,
			Volume:    1000,
			Timestamp: time.Now().Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func TestVolatility_QuietMarketReadsLow(t *testing.T) {
	vol := Volatility(candles(100, 100.1, 100, 99.9, 100))
	assert.Less(t, vol, 0.2)
}

func TestVolatility_WideRangesReadHigh(t *testing.T) {
	data := candles(100, 100, 100, 100)
	for i := range data {
		data[i].High = 110
		data[i].Low = 90
	}
	vol := Volatility(data)
	assert.Equal(t, 1.0, vol)
}

func TestVolatility_InsufficientData(t *testing.T) {
	assert.Equal(t, 0.0, Volatility(nil))
	assert.Equal(t, 0.0, Volatility(candles(100)))
}

func TestTrend_Direction(t *testing.T) {
	assert.Greater(t, Trend(candles(100, 105, 110)), 0.0)
	assert.Less(t, Trend(candles(110, 105, 100)), 0.0)
	assert.Equal(t, 0.0, Trend(candles(100, 101, 100)))
}

func TestSentiment_ShareOfUpCloses(t *testing.T) {
	// 3 of 4 transitions close higher.
	s := Sentiment(candles(100, 101, 102, 101, 103))
	assert.InDelta(t, 0.75, s, 1e-9)

	assert.Equal(t, 0.5, Sentiment(candles(100)))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name       string
		volatility float64
		trend      float64
		want       strategy.MarketState
	}{
		{"high volatility dominates", 0.8, 0.10, strategy.MarketVolatile},
		{"rising prices", 0.3, 0.05, strategy.MarketBull},
		{"falling prices", 0.3, -0.05, strategy.MarketBear},
		{"flat and quiet", 0.3, 0.01, strategy.MarketStable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.volatility, tc.trend))
		})
	}
}
