package risk

import "time"

// RiskLevel is the ordered 1-5 severity scale used for scoring and gating.
type RiskLevel int

const (
	RiskVeryLow  RiskLevel = 1
	RiskLow      RiskLevel = 2
	RiskMedium   RiskLevel = 3
	RiskHigh     RiskLevel = 4
	RiskVeryHigh RiskLevel = 5
)

func (r RiskLevel) String() string {
	switch r {
	case RiskVeryLow:
		return "VERY_LOW"
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	case RiskVeryHigh:
		return "VERY_HIGH"
	default:
		return "UNKNOWN"
	}
}

// maxRiskLevel returns the worst of the given levels. Aggregation is
// intentionally pessimistic: the worst single dimension dominates.
func maxRiskLevel(levels ...RiskLevel) RiskLevel {
	worst := RiskVeryLow
	for _, l := range levels {
		if l > worst {
			worst = l
		}
	}
	return worst
}

// TradingLimits is the manager's configuration. Relations between fields
// (min <= max) are the caller's responsibility and are not validated here.
type TradingLimits struct {
	MaxDailyTrades       int     `json:"max_daily_trades"`
	MaxDailyInvestment   float64 `json:"max_daily_investment"`
	MaxSingleTradeAmount float64 `json:"max_single_trade_amount"`
	MinSingleTradeAmount float64 `json:"min_single_trade_amount"`
	MaxOpenPositions     int     `json:"max_open_positions"`
	MaxTotalExposure     float64 `json:"max_total_exposure"`
	MaxExposurePerToken  float64 `json:"max_exposure_per_token"`
	EmergencyStopLoss    float64 `json:"emergency_stop_loss"` // percent
}

// TradingLimitsPatch updates a subset of TradingLimits. Nil fields are
// left untouched by UpdateTradingLimits.
type TradingLimitsPatch struct {
	MaxDailyTrades       *int
	MaxDailyInvestment   *float64
	MaxSingleTradeAmount *float64
	MinSingleTradeAmount *float64
	MaxOpenPositions     *int
	MaxTotalExposure     *float64
	MaxExposurePerToken  *float64
	EmergencyStopLoss    *float64
}

// RiskReport is the per-opportunity risk assessment.
type RiskReport struct {
	OverallRisk    RiskLevel
	TokenRisk      RiskLevel
	MarketRisk     RiskLevel
	LiquidityRisk  RiskLevel
	ExposureRisk   RiskLevel
	Details        map[string]string
	Timestamp      time.Time
	Recommendation string
}

// AllocationResult is the capital decision for a specific opportunity.
// AllocatedAmount is zero exactly when Approved is false; the remaining
// budgets are populated even on rejection.
type AllocationResult struct {
	Approved             bool
	AllocatedAmount      float64
	MaxAmount            float64
	RemainingDailyBudget float64
	RemainingTotalBudget float64
	Reason               string
}

// DailyStats accumulates activity for one calendar date. Records are
// created lazily and only ever grow within the day.
type DailyStats struct {
	Date             string  `json:"date"`
	TradeCount       int     `json:"trade_count"`
	TotalInvested    float64 `json:"total_invested"`
	SuccessfulTrades int     `json:"successful_trades"`
	FailedTrades     int     `json:"failed_trades"`
	Profit           float64 `json:"profit"`
}
