package strategy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-risk-engine/internal/logger"
	"github.com/ducminhle1904/crypto-risk-engine/pkg/types"
)

// stubAnalyzer returns a scripted sequence of analyses.
type stubAnalyzer struct {
	analysis MarketAnalysis
	err      error
}

func (s *stubAnalyzer) Analyze() (MarketAnalysis, error) {
	return s.analysis, s.err
}

func newTestFramework(analyzer MarketAnalyzer, opts ...Option) *Framework {
	if analyzer == nil {
		analyzer = &stubAnalyzer{analysis: MarketAnalysis{CurrentState: MarketStable, Volatility: 0.3}}
	}
	return NewFramework(analyzer, logger.NewNop("strategy"), opts...)
}

func TestNewFramework_SeedsThreeProfilesBalancedActive(t *testing.T) {
	f := newTestFramework(nil)

	profiles := f.AllStrategies()
	require.Len(t, profiles, 3)

	activeCount := 0
	for _, p := range profiles {
		if p.Active {
			activeCount++
			assert.Equal(t, "balanced", p.ID)
		}
	}
	assert.Equal(t, 1, activeCount)

	active := f.ActiveStrategy()
	require.NotNil(t, active)
	assert.Equal(t, "balanced", active.ID)
}

func TestAnalyzeMarketState_AppendsBoundedHistory(t *testing.T) {
	f := newTestFramework(nil)

	for i := 0; i < 105; i++ {
		f.AnalyzeMarketState()
	}

	history := f.MarketHistory()
	assert.Len(t, history, 100)
}

func TestAnalyzeMarketState_DegradesToUnknownOnError(t *testing.T) {
	f := newTestFramework(&stubAnalyzer{err: errors.New("feed down")})

	analysis := f.AnalyzeMarketState()
	assert.Equal(t, MarketUnknown, analysis.CurrentState)
	assert.False(t, analysis.Timestamp.IsZero())

	// The degraded snapshot still lands in history.
	assert.Len(t, f.MarketHistory(), 1)
}

func TestRecommendStrategy_NonNilWithoutPerformanceData(t *testing.T) {
	f := newTestFramework(nil)

	rec := f.RecommendStrategy()
	assert.NotEmpty(t, rec.RecommendedStrategy.ID)
	assert.NotEmpty(t, rec.Reasons)
}

func TestRecommendStrategy_MarketPreferenceWins(t *testing.T) {
	analyzer := &stubAnalyzer{analysis: MarketAnalysis{CurrentState: MarketBull, Volatility: 0.2}}
	f := newTestFramework(analyzer)
	f.AnalyzeMarketState()

	rec := f.RecommendStrategy()

	// Balanced and aggressive both prefer BULL; balanced is first-seen.
	assert.Equal(t, "balanced", rec.RecommendedStrategy.ID)
	assert.InDelta(t, 0.2, rec.Confidence, 1e-9)
}

func TestRecommendStrategy_PerformanceDataShiftsWinner(t *testing.T) {
	analyzer := &stubAnalyzer{analysis: MarketAnalysis{CurrentState: MarketBull, Volatility: 0.2}}
	f := newTestFramework(analyzer)
	f.AnalyzeMarketState()

	rate := 0.9
	ratio := 2.0
	trades := 40
	f.UpdatePerformanceData("aggressive", PerformancePatch{
		SuccessRate:  &rate,
		WinLossRatio: &ratio,
		TotalTrades:  &trades,
	})

	rec := f.RecommendStrategy()

	// aggressive: 2 (BULL) + 0.9*3 + 2.0 = 6.7 beats balanced's 2.
	assert.Equal(t, "aggressive", rec.RecommendedStrategy.ID)
	assert.InDelta(t, 0.67, rec.Confidence, 1e-9)

	// The displaced leaders become the alternatives.
	require.NotEmpty(t, rec.AlternativeStrategies)
	assert.Equal(t, "balanced", rec.AlternativeStrategies[len(rec.AlternativeStrategies)-1].ID)
}

func TestRecommendStrategy_HighVolatilityFavorsLowRisk(t *testing.T) {
	analyzer := &stubAnalyzer{analysis: MarketAnalysis{CurrentState: MarketVolatile, Volatility: 0.8}}
	f := newTestFramework(analyzer)
	f.AnalyzeMarketState()

	rec := f.RecommendStrategy()

	// conservative: 2 (VOLATILE preference) + 1 (low risk in high vol).
	assert.Equal(t, "conservative", rec.RecommendedStrategy.ID)
	assert.InDelta(t, 0.3, rec.Confidence, 1e-9)
}

func TestApplyRecommendedStrategy_ExactlyOneActive(t *testing.T) {
	f := newTestFramework(nil)

	rec := f.RecommendStrategy()
	assert.True(t, f.ApplyRecommendedStrategy(rec))

	activeCount := 0
	for _, p := range f.AllStrategies() {
		if p.Active {
			activeCount++
			assert.Equal(t, rec.RecommendedStrategy.ID, p.ID)
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestAutoSelectStrategy_RecommendsAndApplies(t *testing.T) {
	analyzer := &stubAnalyzer{analysis: MarketAnalysis{CurrentState: MarketBear, Volatility: 0.7}}
	f := newTestFramework(analyzer)
	f.AnalyzeMarketState()

	applied := f.AutoSelectStrategy()

	assert.Equal(t, "conservative", applied.ID)
	active := f.ActiveStrategy()
	require.NotNil(t, active)
	assert.Equal(t, "conservative", active.ID)
}

func TestAddCustomStrategy_RejectsDuplicateID(t *testing.T) {
	f := newTestFramework(nil)

	custom := StrategyProfile{ID: "scalper", Name: "Scalper", RiskLevel: 5}
	assert.True(t, f.AddCustomStrategy(custom))
	assert.False(t, f.AddCustomStrategy(custom))
	assert.False(t, f.AddCustomStrategy(StrategyProfile{ID: "balanced"}))

	require.NotNil(t, f.StrategyByID("scalper"))
	assert.Len(t, f.AllStrategies(), 4)
}

func TestUpdatePerformanceData_UpsertsWithZeroDefaults(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	f := newTestFramework(nil, WithClock(func() time.Time { return now }))

	rate := 0.6
	f.UpdatePerformanceData("balanced", PerformancePatch{SuccessRate: &rate})

	records := f.AllPerformance()
	require.Len(t, records, 1)
	assert.Equal(t, "balanced", records[0].StrategyID)
	assert.Equal(t, 0.6, records[0].SuccessRate)
	assert.Equal(t, 0, records[0].TotalTrades)
	assert.Equal(t, now, records[0].Timestamp)

	// Merging preserves previously set fields.
	trades := 12
	f.UpdatePerformanceData("balanced", PerformancePatch{TotalTrades: &trades})

	records = f.AllPerformance()
	require.Len(t, records, 1)
	assert.Equal(t, 0.6, records[0].SuccessRate)
	assert.Equal(t, 12, records[0].TotalTrades)
}

func TestShouldBuy_AllGatesRequired(t *testing.T) {
	f := newTestFramework(nil) // balanced active: 0.6 / 5% / 0.5

	cases := []struct {
		name string
		opp  types.TradingOpportunity
		want bool
	}{
		{"all gates pass", types.TradingOpportunity{Confidence: 0.8, EstimatedSlippage: 1, PriorityScore: 0.8}, true},
		{"confidence below minimum", types.TradingOpportunity{Confidence: 0.55, EstimatedSlippage: 1, PriorityScore: 0.8}, false},
		{"slippage above maximum", types.TradingOpportunity{Confidence: 0.8, EstimatedSlippage: 7, PriorityScore: 0.8}, false},
		{"priority below threshold", types.TradingOpportunity{Confidence: 0.8, EstimatedSlippage: 1, PriorityScore: 0.2}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.ShouldBuy(tc.opp))
		})
	}
}

func TestShouldSell_TakeProfit(t *testing.T) {
	f := newTestFramework(nil) // balanced: take profit at 20%

	position := types.Position{
		Token:       types.TokenInfo{Mint: "mint-1"},
		Amount:      10,
		AvgBuyPrice: 100,
		LastUpdated: time.Now(),
	}

	decision := f.ShouldSell(position, 121)
	assert.True(t, decision.ShouldSell)
	assert.Contains(t, decision.Reason, "take profit")
	assert.Contains(t, decision.Reason, "20.00%")
}

func TestShouldSell_StopLoss(t *testing.T) {
	f := newTestFramework(nil) // balanced: stop loss at 10%

	position := types.Position{AvgBuyPrice: 100, LastUpdated: time.Now()}

	decision := f.ShouldSell(position, 85)
	assert.True(t, decision.ShouldSell)
	assert.Contains(t, decision.Reason, "stop loss")
}

func TestShouldSell_TimeLimit(t *testing.T) {
	f := newTestFramework(nil) // balanced: time limit 60 minutes

	position := types.Position{
		AvgBuyPrice: 100,
		LastUpdated: time.Now().Add(-2 * time.Hour),
	}

	// Flat price: only the time limit can fire.
	decision := f.ShouldSell(position, 100)
	assert.True(t, decision.ShouldSell)
	assert.Contains(t, decision.Reason, "time limit")
}

func TestShouldSell_TrailingStopNeverFires(t *testing.T) {
	f := newTestFramework(nil)

	// A 6% gain is above the balanced trailing threshold of 5% but below
	// take profit; the trailing rule is declared yet not evaluated.
	position := types.Position{AvgBuyPrice: 100, LastUpdated: time.Now()}

	decision := f.ShouldSell(position, 106)
	assert.False(t, decision.ShouldSell)
}

func TestShouldSell_InvalidAvgBuyPrice(t *testing.T) {
	f := newTestFramework(nil)

	decision := f.ShouldSell(types.Position{AvgBuyPrice: 0}, 100)
	assert.False(t, decision.ShouldSell)
	assert.Contains(t, decision.Reason, "invalid average buy price")
}

func TestShouldSell_NoConditionSatisfied(t *testing.T) {
	f := newTestFramework(nil)

	position := types.Position{AvgBuyPrice: 100, LastUpdated: time.Now()}
	decision := f.ShouldSell(position, 105)
	assert.False(t, decision.ShouldSell)
	assert.Empty(t, decision.Reason)
}
