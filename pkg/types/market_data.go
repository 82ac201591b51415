package types

import "time"

type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// TokenInfo describes a tradeable token as supplied by the discovery feed.
type TokenInfo struct {
	Mint          string
	Symbol        string
	Decimals      int
	CreatedAt     time.Time
	IsVerified    bool
	IsBlacklisted bool
	Metadata      map[string]string
}

// Age returns how long the token has existed at the given instant.
func (t TokenInfo) Age(now time.Time) time.Duration {
	if t.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(t.CreatedAt)
}

// TradingOpportunity is a candidate trade produced by the opportunity feed.
type TradingOpportunity struct {
	Pool              string
	LiquidityUSD      float64
	EstimatedSlippage float64 // percent
	Confidence        float64 // 0.0 to 1.0
	PriorityScore     float64 // 0.0 to 1.0
}

// Position represents an open holding priced by the market-data feed.
type Position struct {
	Token        TokenInfo
	Amount       float64
	AvgBuyPrice  float64
	CurrentPrice float64
	LastUpdated  time.Time
}

// Value returns the current market value of the position.
func (p Position) Value() float64 {
	return p.Amount * p.CurrentPrice
}

// TradeResult is the execution engine's report for a completed trade.
// Profit is the realized PnL in quote currency, negative for losses.
type TradeResult struct {
	Success bool
	Price   float64
	Profit  float64
}
