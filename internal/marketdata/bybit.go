package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/ducminhle1904/crypto-risk-engine/internal/errors"
	"github.com/ducminhle1904/crypto-risk-engine/internal/logger"
	"github.com/ducminhle1904/crypto-risk-engine/internal/strategy"
	"github.com/ducminhle1904/crypto-risk-engine/pkg/types"
)

// BybitConfig holds the configuration for the Bybit analyzer.
type BybitConfig struct {
	APIKey   string
	Secret   string
	Testnet  bool
	Symbol   string // e.g. "SOLUSDT"
	Interval string // Bybit kline interval, e.g. "60"
	Lookback int    // number of candles per analysis
	Timeout  time.Duration
}

// BybitAnalyzer derives market state from Bybit spot klines: volatility
// from normalized average true range, trend from close-to-close drift,
// sentiment from the share of up-closes.
type BybitAnalyzer struct {
	client *bybit_api.Client
	config BybitConfig
	log    *logger.Logger
}

// NewBybitAnalyzer creates an analyzer for the configured symbol.
func NewBybitAnalyzer(config BybitConfig, log *logger.Logger) *BybitAnalyzer {
	if config.Lookback <= 0 {
		config.Lookback = 100
	}
	if config.Interval == "" {
		config.Interval = "60"
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	baseURL := bybit_api.MAINNET
	if config.Testnet {
		baseURL = bybit_api.TESTNET
	}
	client := bybit_api.NewBybitHttpClient(config.APIKey, config.Secret, bybit_api.WithBaseURL(baseURL))

	return &BybitAnalyzer{
		client: client,
		config: config,
		log:    log,
	}
}

// Analyze fetches recent klines and classifies the market.
func (a *BybitAnalyzer) Analyze() (strategy.MarketAnalysis, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.Timeout)
	defer cancel()

	candles, err := a.fetchKlines(ctx)
	if err != nil {
		return strategy.MarketAnalysis{}, err
	}
	if len(candles) < 2 {
		return strategy.MarketAnalysis{}, errors.New(errors.ErrorCategoryMarketData, "bybit", "analyze", "insufficient kline data")
	}

	volatility := Volatility(candles)
	trend := Trend(candles)
	sentiment := Sentiment(candles)

	analysis := strategy.MarketAnalysis{
		CurrentState: Classify(volatility, trend),
		Volatility:   volatility,
		Trend:        trend,
		Sentiment:    sentiment,
		Timestamp:    time.Now(),
	}

	a.log.Debug("bybit market analysis", logger.Fields{
		"symbol":     a.config.Symbol,
		"state":      analysis.CurrentState.String(),
		"volatility": volatility,
		"trend":      trend,
	})
	return analysis, nil
}

func (a *BybitAnalyzer) fetchKlines(ctx context.Context) ([]types.OHLCV, error) {
	params := map[string]interface{}{
		"category": "spot",
		"symbol":   a.config.Symbol,
		"interval": a.config.Interval,
		"limit":    a.config.Lookback,
	}

	result, err := a.client.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCategoryMarketData, "bybit", "get_klines")
	}

	candles, err := parseKlineResponse(result)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCategoryMarketData, "bybit", "parse_klines")
	}
	return candles, nil
}

// parseKlineResponse converts the Bybit v5 kline payload into OHLCV
// candles, oldest first. Bybit returns newest first.
func parseKlineResponse(response interface{}) ([]types.OHLCV, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("invalid response type")
	}
	if serverResp.RetCode != 0 {
		return nil, fmt.Errorf("API error: %s (code: %d)", serverResp.RetMsg, serverResp.RetCode)
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	var klineResult struct {
		Symbol string     `json:"symbol"`
		List   [][]string `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &klineResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kline result: %w", err)
	}

	candles := make([]types.OHLCV, 0, len(klineResult.List))
	for i := len(klineResult.List) - 1; i >= 0; i-- {
		item := klineResult.List[i]
		if len(item) < 6 {
			continue
		}
		candles = append(candles, types.OHLCV{
			Timestamp: time.UnixMilli(parseInt64(item[0])),
			Open:      parseFloat64(item[1]),
			High:      parseFloat64(item[2]),
			Low:       parseFloat64(item[3]),
			Close:     parseFloat64(item[4]),
			Volume:    parseFloat64(item[5]),
		})
	}
	return candles, nil
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseFloat64(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
