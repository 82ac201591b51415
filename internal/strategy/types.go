package strategy

import "time"

// MarketState is the coarse market regime classification used to bias
// strategy selection.
type MarketState int

const (
	MarketUnknown MarketState = iota
	MarketBull
	MarketBear
	MarketVolatile
	MarketStable
)

func (s MarketState) String() string {
	switch s {
	case MarketBull:
		return "BULL"
	case MarketBear:
		return "BEAR"
	case MarketVolatile:
		return "VOLATILE"
	case MarketStable:
		return "STABLE"
	default:
		return "UNKNOWN"
	}
}

// SellConditionType identifies an exit rule.
type SellConditionType int

const (
	SellTakeProfit SellConditionType = iota
	SellStopLoss
	SellTrailingStop
	SellTimeLimit
)

func (t SellConditionType) String() string {
	switch t {
	case SellTakeProfit:
		return "TAKE_PROFIT"
	case SellStopLoss:
		return "STOP_LOSS"
	case SellTrailingStop:
		return "TRAILING_STOP"
	case SellTimeLimit:
		return "TIME_LIMIT"
	default:
		return "UNKNOWN"
	}
}

// SellCondition is one exit rule of a profile. Threshold is a percent for
// TAKE_PROFIT, STOP_LOSS and TRAILING_STOP, and minutes for TIME_LIMIT.
type SellCondition struct {
	Type      SellConditionType
	Enabled   bool
	Threshold float64
}

// BuyConditions are the entry gates of a profile.
type BuyConditions struct {
	MinConfidence     float64 // 0.0 to 1.0
	MaxSlippage       float64 // percent
	PriorityThreshold float64 // 0.0 to 1.0
}

// StrategyProfile is a named bundle of buy gates and exit rules. Exactly
// one profile in the catalog is active at any time; the framework enforces
// this procedurally on every apply.
type StrategyProfile struct {
	ID                    string
	Name                  string
	Description           string
	MarketStatePreference []MarketState
	RiskLevel             int // 1 to 5
	BuyConditions         BuyConditions
	SellConditions        []SellCondition
	Active                bool
}

// MarketAnalysis is one snapshot of market conditions.
type MarketAnalysis struct {
	CurrentState MarketState
	Volatility   float64 // 0.0 to 1.0
	Trend        float64 // negative bearish, positive bullish
	Sentiment    float64 // 0.0 to 1.0
	Timestamp    time.Time
}

// StrategyPerformance is the historical record for one profile, upserted
// by strategy id.
type StrategyPerformance struct {
	StrategyID       string        `json:"strategy_id"`
	SuccessRate      float64       `json:"success_rate"`
	AvgROI           float64       `json:"avg_roi"`
	AvgHoldingTime   time.Duration `json:"avg_holding_time"`
	WinLossRatio     float64       `json:"win_loss_ratio"`
	TotalTrades      int           `json:"total_trades"`
	ProfitableTrades int           `json:"profitable_trades"`
	Timestamp        time.Time     `json:"timestamp"`
}

// PerformancePatch updates a subset of a performance record. Nil fields
// keep their previous value (or zero on first insert).
type PerformancePatch struct {
	SuccessRate      *float64
	AvgROI           *float64
	AvgHoldingTime   *time.Duration
	WinLossRatio     *float64
	TotalTrades      *int
	ProfitableTrades *int
}

// StrategyRecommendation is the scored outcome of RecommendStrategy.
type StrategyRecommendation struct {
	RecommendedStrategy   StrategyProfile
	Confidence            float64
	Reasons               []string
	AlternativeStrategies []StrategyProfile
	Timestamp             time.Time
}

// SellDecision is the outcome of the exit-rule scan.
type SellDecision struct {
	ShouldSell bool
	Reason     string
}

// MarketAnalyzer is the pluggable market-analysis boundary. The framework
// never derives market state itself; it consumes whatever the injected
// provider produces.
type MarketAnalyzer interface {
	Analyze() (MarketAnalysis, error)
}
