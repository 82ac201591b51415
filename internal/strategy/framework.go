// Package strategy implements the adaptive strategy selector: a catalog
// of strategy profiles, market-state driven recommendation scoring, and
// the buy/sell gates evaluated against the active profile.
package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ducminhle1904/crypto-risk-engine/internal/logger"
	"github.com/ducminhle1904/crypto-risk-engine/internal/store"
	"github.com/ducminhle1904/crypto-risk-engine/pkg/types"
)

const (
	// Market analysis history is a bounded ring; the oldest entry is
	// evicted beyond this many snapshots.
	maxHistorySize = 100

	performanceKeyPrefix = "strategy:perf:"
)

// Framework owns the strategy catalog, the active-profile pointer, the
// performance records, and the market analysis history.
type Framework struct {
	log      *logger.Logger
	analyzer MarketAnalyzer
	store    store.Store
	now      func() time.Time

	mu           sync.RWMutex
	catalog      []*StrategyProfile
	active       *StrategyProfile
	performance  map[string]*StrategyPerformance
	history      []MarketAnalysis
	lastAnalysis *MarketAnalysis
}

// Option configures a Framework.
type Option func(*Framework)

// WithStore sets the write-through persistence backend for performance
// records.
func WithStore(s store.Store) Option {
	return func(f *Framework) { f.store = s }
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(f *Framework) { f.now = now }
}

// NewFramework creates a framework seeded with the three built-in
// profiles; only the balanced profile starts active.
func NewFramework(analyzer MarketAnalyzer, log *logger.Logger, opts ...Option) *Framework {
	f := &Framework{
		log:         log,
		analyzer:    analyzer,
		now:         time.Now,
		performance: make(map[string]*StrategyPerformance),
	}
	for _, opt := range opts {
		opt(f)
	}

	for _, p := range builtinProfiles() {
		f.catalog = append(f.catalog, p)
		if p.Active {
			f.active = p
		}
	}
	return f
}

// AnalyzeMarketState produces a market snapshot via the injected analyzer
// and appends it to the bounded history. Analyzer failures degrade to an
// UNKNOWN snapshot rather than surfacing an error.
func (f *Framework) AnalyzeMarketState() MarketAnalysis {
	analysis, err := f.analyzer.Analyze()
	if err != nil {
		f.log.Warn("market analysis failed", logger.Fields{"error": err.Error()})
		analysis = MarketAnalysis{CurrentState: MarketUnknown, Timestamp: f.now()}
	}
	if analysis.Timestamp.IsZero() {
		analysis.Timestamp = f.now()
	}

	f.mu.Lock()
	f.history = append(f.history, analysis)
	if len(f.history) > maxHistorySize {
		f.history = f.history[len(f.history)-maxHistorySize:]
	}
	f.lastAnalysis = &analysis
	f.mu.Unlock()

	f.log.Debug("market state analyzed", logger.Fields{
		"state":      analysis.CurrentState.String(),
		"volatility": analysis.Volatility,
	})
	return analysis
}

// MarketHistory returns a copy of the analysis history, oldest first.
func (f *Framework) MarketHistory() []MarketAnalysis {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]MarketAnalysis, len(f.history))
	copy(out, f.history)
	return out
}

// LatestVolatility exposes the most recent volatility reading, for use as
// the risk manager's external market signal. The second return is false
// until the first analysis has run.
func (f *Framework) LatestVolatility() (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.lastAnalysis == nil {
		return 0, false
	}
	return f.lastAnalysis.Volatility, true
}

// RecommendStrategy scores every profile in the catalog against the
// latest market analysis and historical performance. Ties keep the
// first-seen winner; displaced leaders become the alternatives.
func (f *Framework) RecommendStrategy() StrategyRecommendation {
	f.mu.RLock()
	defer f.mu.RUnlock()

	state := MarketUnknown
	volatility := 0.0
	if f.lastAnalysis != nil {
		state = f.lastAnalysis.CurrentState
		volatility = f.lastAnalysis.Volatility
	}

	if len(f.catalog) == 0 {
		fallback := defaultBalancedProfile()
		f.log.Warn("strategy catalog empty, falling back to balanced profile")
		return StrategyRecommendation{
			RecommendedStrategy: *fallback,
			Confidence:          0,
			Reasons:             []string{"catalog empty, using balanced fallback"},
			Timestamp:           f.now(),
		}
	}

	var best *StrategyProfile
	bestScore := -1.0
	var bestReasons []string
	var alternatives []*StrategyProfile

	for _, p := range f.catalog {
		score := 0.0
		var reasons []string

		if containsState(p.MarketStatePreference, state) {
			score += 2
			reasons = append(reasons, fmt.Sprintf("prefers current %s market", state))
		}
		if perf, ok := f.performance[p.ID]; ok {
			contribution := perf.SuccessRate*3 + perf.WinLossRatio
			score += contribution
			reasons = append(reasons, fmt.Sprintf("historical success rate %.0f%% over %d trades", perf.SuccessRate*100, perf.TotalTrades))
		}
		if volatility > 0.5 && p.RiskLevel < 3 {
			score += 1
			reasons = append(reasons, fmt.Sprintf("low risk level %d suits volatility %.2f", p.RiskLevel, volatility))
		}

		if score > bestScore {
			if best != nil {
				alternatives = append(alternatives, best)
				if len(alternatives) > 2 {
					alternatives = alternatives[1:]
				}
			}
			best = p
			bestScore = score
			bestReasons = reasons
		}
	}

	if len(bestReasons) == 0 {
		bestReasons = []string{"no profile scored above baseline"}
	}

	rec := StrategyRecommendation{
		RecommendedStrategy: *best,
		Confidence:          bestScore / 10,
		Reasons:             bestReasons,
		Timestamp:           f.now(),
	}
	for _, alt := range alternatives {
		rec.AlternativeStrategies = append(rec.AlternativeStrategies, *alt)
	}
	return rec
}

// ApplyRecommendedStrategy activates exactly the recommended profile and
// deactivates every other one, restoring the single-active invariant.
func (f *Framework) ApplyRecommendedStrategy(rec StrategyRecommendation) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := rec.RecommendedStrategy.ID
	var target *StrategyProfile
	for _, p := range f.catalog {
		if p.ID == id {
			target = p
			break
		}
	}
	if target == nil {
		// The fallback recommendation for an empty catalog is not in the
		// catalog yet; insert it so the invariant holds afterwards.
		inserted := rec.RecommendedStrategy
		target = &inserted
		f.catalog = append(f.catalog, target)
	}

	for _, p := range f.catalog {
		p.Active = p == target
	}
	target.Active = true
	f.active = target

	f.log.Info("strategy activated", logger.Fields{
		"strategy":   target.ID,
		"confidence": rec.Confidence,
	})
	return true
}

// AutoSelectStrategy recommends and immediately applies a profile,
// returning the one now active.
func (f *Framework) AutoSelectStrategy() StrategyProfile {
	rec := f.RecommendStrategy()
	f.ApplyRecommendedStrategy(rec)

	f.mu.RLock()
	defer f.mu.RUnlock()
	return *f.active
}

// ActiveStrategy returns a copy of the active profile, or nil when the
// catalog has been emptied without a new apply.
func (f *Framework) ActiveStrategy() *StrategyProfile {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.active == nil {
		return nil
	}
	active := *f.active
	return &active
}

// AllStrategies returns copies of every profile in catalog order.
func (f *Framework) AllStrategies() []StrategyProfile {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]StrategyProfile, 0, len(f.catalog))
	for _, p := range f.catalog {
		out = append(out, *p)
	}
	return out
}

// StrategyByID returns a copy of the profile with the given id, or nil.
func (f *Framework) StrategyByID(id string) *StrategyProfile {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, p := range f.catalog {
		if p.ID == id {
			found := *p
			return &found
		}
	}
	return nil
}

// AddCustomStrategy inserts a caller-defined profile. Duplicate ids are
// rejected. The caller owns the single-active invariant for the Active
// value it supplies.
func (f *Framework) AddCustomStrategy(profile StrategyProfile) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.catalog {
		if p.ID == profile.ID {
			f.log.Warn("strategy id already exists", logger.Fields{"strategy": profile.ID})
			return false
		}
	}

	inserted := profile
	f.catalog = append(f.catalog, &inserted)
	if inserted.Active {
		f.active = &inserted
	}
	f.log.Info("custom strategy added", logger.Fields{"strategy": profile.ID})
	return true
}

// UpdatePerformanceData upserts the performance record for a strategy id,
// merging only the fields the patch sets and stamping the record.
func (f *Framework) UpdatePerformanceData(id string, patch PerformancePatch) {
	f.mu.Lock()
	record, ok := f.performance[id]
	if !ok {
		record = &StrategyPerformance{StrategyID: id}
		f.performance[id] = record
	}
	if patch.SuccessRate != nil {
		record.SuccessRate = *patch.SuccessRate
	}
	if patch.AvgROI != nil {
		record.AvgROI = *patch.AvgROI
	}
	if patch.AvgHoldingTime != nil {
		record.AvgHoldingTime = *patch.AvgHoldingTime
	}
	if patch.WinLossRatio != nil {
		record.WinLossRatio = *patch.WinLossRatio
	}
	if patch.TotalTrades != nil {
		record.TotalTrades = *patch.TotalTrades
	}
	if patch.ProfitableTrades != nil {
		record.ProfitableTrades = *patch.ProfitableTrades
	}
	record.Timestamp = f.now()
	snapshot := *record
	f.mu.Unlock()

	f.persistPerformance(snapshot)
}

// AllPerformance returns copies of every performance record.
func (f *Framework) AllPerformance() []StrategyPerformance {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]StrategyPerformance, 0, len(f.performance))
	for _, record := range f.performance {
		out = append(out, *record)
	}
	return out
}

// ShouldBuy evaluates the entry gates of the active profile. All three
// gates must pass.
func (f *Framework) ShouldBuy(opp types.TradingOpportunity) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.active == nil {
		f.log.Warn("no active strategy, rejecting buy")
		return false
	}

	bc := f.active.BuyConditions
	if opp.Confidence < bc.MinConfidence {
		f.log.Debug("buy rejected: confidence below minimum", logger.Fields{
			"confidence": opp.Confidence,
			"minimum":    bc.MinConfidence,
		})
		return false
	}
	if opp.EstimatedSlippage > bc.MaxSlippage {
		f.log.Debug("buy rejected: slippage above maximum", logger.Fields{
			"slippage": opp.EstimatedSlippage,
			"maximum":  bc.MaxSlippage,
		})
		return false
	}
	if opp.PriorityScore < bc.PriorityThreshold {
		f.log.Debug("buy rejected: priority below threshold", logger.Fields{
			"priority":  opp.PriorityScore,
			"threshold": bc.PriorityThreshold,
		})
		return false
	}
	return true
}

// ShouldSell scans the active profile's enabled exit rules in declared
// order and returns on the first satisfied one.
func (f *Framework) ShouldSell(position types.Position, currentPrice float64) SellDecision {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if position.AvgBuyPrice <= 0 {
		return SellDecision{ShouldSell: false, Reason: "invalid average buy price"}
	}
	if f.active == nil {
		return SellDecision{ShouldSell: false, Reason: "no active strategy"}
	}

	profitPct := (currentPrice - position.AvgBuyPrice) / position.AvgBuyPrice * 100

	for _, cond := range f.active.SellConditions {
		if !cond.Enabled {
			continue
		}
		switch cond.Type {
		case SellTakeProfit:
			if profitPct >= cond.Threshold {
				return SellDecision{
					ShouldSell: true,
					Reason:     fmt.Sprintf("take profit: %.2f%% gain reached %.2f%% threshold", profitPct, cond.Threshold),
				}
			}
		case SellStopLoss:
			if profitPct <= -cond.Threshold {
				return SellDecision{
					ShouldSell: true,
					Reason:     fmt.Sprintf("stop loss: %.2f%% loss breached %.2f%% threshold", -profitPct, cond.Threshold),
				}
			}
		case SellTrailingStop:
			// Declared in every built-in profile but evaluation is not
			// implemented; the rule never fires.
			f.log.Warn("trailing stop condition not implemented, skipping", logger.Fields{
				"strategy": f.active.ID,
			})
		case SellTimeLimit:
			held := f.now().Sub(position.LastUpdated)
			limit := time.Duration(cond.Threshold) * time.Minute
			if held >= limit {
				return SellDecision{
					ShouldSell: true,
					Reason:     fmt.Sprintf("time limit: held %s, limit %s", held.Round(time.Second), limit),
				}
			}
		}
	}

	return SellDecision{ShouldSell: false}
}

func (f *Framework) persistPerformance(record StrategyPerformance) {
	if f.store == nil {
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := f.store.Set(context.Background(), performanceKeyPrefix+record.StrategyID, data, 0); err != nil {
		f.log.Warn("failed to persist strategy performance", logger.Fields{"error": err.Error()})
	}
}

func containsState(states []MarketState, state MarketState) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}
