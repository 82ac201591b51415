// Package risk implements the risk and capital allocation engine: trading
// limits, token blacklist, per-day statistics, risk reports, fund
// allocation, and the global emergency stop.
package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ducminhle1904/crypto-risk-engine/internal/logger"
	"github.com/ducminhle1904/crypto-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/crypto-risk-engine/internal/store"
	"github.com/ducminhle1904/crypto-risk-engine/pkg/types"
)

const (
	// Risk reports are cached per mint and recomputed after this window.
	reportCacheTTL = 5 * time.Minute

	dailyStatsKeyPrefix = "risk:stats:"
	blacklistKey        = "risk:blacklist"
	limitsKey           = "risk:limits"
)

// recommendation text is fixed per overall risk level.
var recommendations = map[RiskLevel]string{
	RiskVeryLow:  "Minimal risk. Full allocation approved.",
	RiskLow:      "Low risk. Standard allocation approved.",
	RiskMedium:   "Moderate risk. Reduced allocation recommended.",
	RiskHigh:     "High risk. Minimal allocation only.",
	RiskVeryHigh: "Very high risk. Do not trade this opportunity.",
}

// VolatilitySource supplies the external market volatility signal used to
// bucket market risk. The second return is false when no signal is
// available, in which case market risk defaults to MEDIUM.
type VolatilitySource func() (float64, bool)

type cachedReport struct {
	report   *RiskReport
	storedAt time.Time
}

// Manager owns trading limits, the token blacklist, daily statistics, the
// risk report cache, and the emergency stop flag. All state is in-memory
// and mutex-guarded; the injected store is a best-effort write-through.
type Manager struct {
	log        *logger.Logger
	store      store.Store
	volatility VolatilitySource
	now        func() time.Time

	mu          sync.RWMutex
	limits      TradingLimits
	blacklist   map[string]string // normalized mint -> reason
	dailyStats  map[string]*DailyStats
	reportCache map[string]cachedReport

	emergencyStopped bool
	stopReason       string
	stoppedAt        time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets the write-through persistence backend.
func WithStore(s store.Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithVolatilitySource sets the external market volatility signal.
func WithVolatilitySource(src VolatilitySource) Option {
	return func(m *Manager) { m.volatility = src }
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a risk manager with the given limits. Previously
// persisted blacklist entries and today's stats are restored from the
// store when one is configured.
func NewManager(limits TradingLimits, log *logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		log:         log,
		now:         time.Now,
		limits:      limits,
		blacklist:   make(map[string]string),
		dailyStats:  make(map[string]*DailyStats),
		reportCache: make(map[string]cachedReport),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.restoreFromStore()
	return m
}

// IsEmergencyStopped reports whether the global safety gate is tripped.
func (m *Manager) IsEmergencyStopped() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.emergencyStopped
}

// TriggerEmergencyStop halts all trade approval until ClearEmergencyStop
// is called.
func (m *Manager) TriggerEmergencyStop(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tripEmergencyStop(reason)
}

// ClearEmergencyStop resumes normal operation. Automatic breaches never
// self-clear; this is the only way back to the Normal state.
func (m *Manager) ClearEmergencyStop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.emergencyStopped {
		return
	}
	m.emergencyStopped = false
	m.stopReason = ""
	m.log.Info("emergency stop cleared")
}

// tripEmergencyStop must be called with the write lock held.
func (m *Manager) tripEmergencyStop(reason string) {
	if m.emergencyStopped {
		return
	}
	m.emergencyStopped = true
	m.stopReason = reason
	m.stoppedAt = m.now()
	monitoring.RecordEmergencyStop()
	m.log.Warn("emergency stop triggered", logger.Fields{"reason": reason})
}

// CanTrade runs the ordered fail-fast safety gate. All checks must pass;
// the first failing check determines the logged reason.
func (m *Manager) CanTrade(positions []types.Position) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.emergencyStopped {
		m.log.Warn("trading blocked: emergency stop active", logger.Fields{"reason": m.stopReason})
		return false
	}

	stats := m.todayStatsReadLocked()
	if stats.TradeCount >= m.limits.MaxDailyTrades {
		m.log.Info("trading blocked: daily trade limit reached", logger.Fields{
			"trade_count": stats.TradeCount,
			"limit":       m.limits.MaxDailyTrades,
		})
		return false
	}
	if stats.TotalInvested >= m.limits.MaxDailyInvestment {
		m.log.Info("trading blocked: daily investment limit reached", logger.Fields{
			"invested": stats.TotalInvested,
			"limit":    m.limits.MaxDailyInvestment,
		})
		return false
	}
	if len(positions) >= m.limits.MaxOpenPositions {
		m.log.Info("trading blocked: open position limit reached", logger.Fields{
			"open_positions": len(positions),
			"limit":          m.limits.MaxOpenPositions,
		})
		return false
	}
	if exposure := totalExposure(positions); exposure >= m.limits.MaxTotalExposure {
		m.log.Info("trading blocked: total exposure limit reached", logger.Fields{
			"exposure": exposure,
			"limit":    m.limits.MaxTotalExposure,
		})
		return false
	}

	return true
}

// CalculateTokenRisk scores a token between VERY_LOW and VERY_HIGH.
// Blacklist membership short-circuits to VERY_HIGH.
func (m *Manager) CalculateTokenRisk(token types.TokenInfo, opp types.TradingOpportunity) RiskLevel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calculateTokenRiskLocked(token, opp)
}

func (m *Manager) calculateTokenRiskLocked(token types.TokenInfo, opp types.TradingOpportunity) RiskLevel {
	if _, listed := m.blacklist[normalizeMint(token.Mint)]; listed {
		return RiskVeryHigh
	}

	score := 3.0

	if opp.LiquidityUSD > 100000 {
		score -= 0.5
	} else if opp.LiquidityUSD < 10000 {
		score += 1
	}

	if !token.CreatedAt.IsZero() {
		age := token.Age(m.now())
		if age < 24*time.Hour {
			score += 1
		} else if age > 48*time.Hour {
			score -= 0.5
		}
	}

	if opp.EstimatedSlippage > 5 {
		score += 0.5
	}
	if token.IsVerified {
		score -= 1
	}
	if token.IsBlacklisted {
		score += 2
	}

	score = math.Round(math.Min(5, math.Max(1, score)))
	return RiskLevel(score)
}

// GenerateRiskReport assesses an opportunity across the four risk
// dimensions. Reports are cached per mint for five minutes.
func (m *Manager) GenerateRiskReport(token types.TokenInfo, opp types.TradingOpportunity, positions []types.Position) *RiskReport {
	mint := normalizeMint(token.Mint)

	m.mu.RLock()
	if cached, ok := m.reportCache[mint]; ok && m.now().Sub(cached.storedAt) < reportCacheTTL {
		m.mu.RUnlock()
		return cached.report
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	tokenRisk := m.calculateTokenRiskLocked(token, opp)
	marketRisk := m.marketRiskLocked()
	liquidityRisk := liquidityRisk(opp.LiquidityUSD)
	exposureRisk := m.exposureRiskLocked(mint, positions)

	overall := maxRiskLevel(tokenRisk, marketRisk, liquidityRisk, exposureRisk)

	report := &RiskReport{
		OverallRisk:   overall,
		TokenRisk:     tokenRisk,
		MarketRisk:    marketRisk,
		LiquidityRisk: liquidityRisk,
		ExposureRisk:  exposureRisk,
		Details: map[string]string{
			"mint":          mint,
			"liquidity_usd": fmt.Sprintf("%.2f", opp.LiquidityUSD),
			"slippage_pct":  fmt.Sprintf("%.2f", opp.EstimatedSlippage),
		},
		Timestamp:      m.now(),
		Recommendation: recommendations[overall],
	}

	m.reportCache[mint] = cachedReport{report: report, storedAt: m.now()}

	m.log.Debug("risk report generated", logger.Fields{
		"mint":    mint,
		"overall": overall.String(),
	})
	return report
}

// AllocateFunds decides how much capital to commit to an opportunity.
// The remaining budgets are populated even when the request is rejected.
func (m *Manager) AllocateFunds(token types.TokenInfo, opp types.TradingOpportunity, positions []types.Position) AllocationResult {
	m.mu.RLock()
	limits := m.limits
	stopped := m.emergencyStopped
	invested := m.todayStatsReadLocked().TotalInvested
	m.mu.RUnlock()

	result := AllocationResult{
		MaxAmount:            limits.MaxSingleTradeAmount,
		RemainingDailyBudget: math.Max(0, limits.MaxDailyInvestment-invested),
		RemainingTotalBudget: math.Max(0, limits.MaxTotalExposure-totalExposure(positions)),
	}

	if stopped {
		result.Reason = "emergency stop active"
		monitoring.RecordAllocation(false)
		return result
	}
	if len(positions) >= limits.MaxOpenPositions {
		result.Reason = fmt.Sprintf("open position limit reached (%d/%d)", len(positions), limits.MaxOpenPositions)
		monitoring.RecordAllocation(false)
		return result
	}

	report := m.GenerateRiskReport(token, opp, positions)

	var fraction float64
	switch report.OverallRisk {
	case RiskVeryLow:
		fraction = 1.0
	case RiskLow:
		fraction = 0.75
	case RiskMedium:
		fraction = 0.5
	case RiskHigh:
		fraction = 0.25
	default:
		result.Reason = "overall risk too high"
		monitoring.RecordAllocation(false)
		return result
	}

	amount := limits.MaxSingleTradeAmount * fraction
	amount = math.Min(amount, result.RemainingDailyBudget)
	amount = math.Min(amount, result.RemainingTotalBudget)

	if amount < limits.MinSingleTradeAmount {
		result.Reason = fmt.Sprintf("allocatable amount %.2f below minimum trade size %.2f", amount, limits.MinSingleTradeAmount)
		monitoring.RecordAllocation(false)
		return result
	}

	result.Approved = true
	result.AllocatedAmount = amount
	result.Reason = fmt.Sprintf("approved at %s risk (%.0f%% of max trade size)", report.OverallRisk, fraction*100)
	monitoring.RecordAllocation(true)

	m.log.Info("funds allocated", logger.Fields{
		"mint":   normalizeMint(token.Mint),
		"amount": amount,
		"risk":   report.OverallRisk.String(),
	})
	return result
}

// RecordTradeResult folds a completed trade into today's statistics and
// re-evaluates the automatic emergency conditions.
func (m *Manager) RecordTradeResult(result types.TradeResult, amount float64) {
	m.mu.Lock()
	stats := m.todayStatsLocked()
	stats.TradeCount++
	stats.TotalInvested += amount
	if result.Success {
		stats.SuccessfulTrades++
	} else {
		stats.FailedTrades++
	}
	stats.Profit += result.Profit
	snapshot := *stats
	m.checkEmergencyConditionsLocked(stats)
	m.mu.Unlock()

	monitoring.RecordTrade(result.Success, amount)
	m.persistStats(snapshot)
}

// checkEmergencyConditionsLocked is the only automatic safety breaker:
// it trips on a failure-rate breach or a daily-loss breach. Must be
// called with the write lock held.
func (m *Manager) checkEmergencyConditionsLocked(stats *DailyStats) {
	if stats.TradeCount > 5 {
		failureRate := float64(stats.FailedTrades) / float64(stats.TradeCount)
		if failureRate > 0.5 {
			m.tripEmergencyStop(fmt.Sprintf("failure rate %.0f%% over %d trades", failureRate*100, stats.TradeCount))
			return
		}
	}
	if stats.Profit < 0 && stats.TotalInvested > 0 {
		lossRate := math.Abs(stats.Profit) / stats.TotalInvested
		if lossRate > m.limits.EmergencyStopLoss/100 {
			m.tripEmergencyStop(fmt.Sprintf("daily loss %.1f%% exceeds stop-loss %.1f%%", lossRate*100, m.limits.EmergencyStopLoss))
		}
	}
}

// IsBlacklisted reports whether the mint is on the blacklist.
func (m *Manager) IsBlacklisted(mint string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, listed := m.blacklist[normalizeMint(mint)]
	return listed
}

// AddToBlacklist bars a mint from trading.
func (m *Manager) AddToBlacklist(mint, reason string) {
	key := normalizeMint(mint)

	m.mu.Lock()
	m.blacklist[key] = reason
	snapshot := m.blacklistCopyLocked()
	m.mu.Unlock()

	m.log.Warn("token blacklisted", logger.Fields{"mint": key, "reason": reason})
	m.persistBlacklist(snapshot)
}

// RemoveFromBlacklist lifts the bar on a mint.
func (m *Manager) RemoveFromBlacklist(mint string) {
	key := normalizeMint(mint)

	m.mu.Lock()
	delete(m.blacklist, key)
	snapshot := m.blacklistCopyLocked()
	m.mu.Unlock()

	m.log.Info("token removed from blacklist", logger.Fields{"mint": key})
	m.persistBlacklist(snapshot)
}

// TradingLimits returns a copy of the current limits.
func (m *Manager) TradingLimits() TradingLimits {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.limits
}

// UpdateTradingLimits merges the set fields of the patch into the current
// limits. Unset fields are untouched.
func (m *Manager) UpdateTradingLimits(patch TradingLimitsPatch) {
	m.mu.Lock()
	if patch.MaxDailyTrades != nil {
		m.limits.MaxDailyTrades = *patch.MaxDailyTrades
	}
	if patch.MaxDailyInvestment != nil {
		m.limits.MaxDailyInvestment = *patch.MaxDailyInvestment
	}
	if patch.MaxSingleTradeAmount != nil {
		m.limits.MaxSingleTradeAmount = *patch.MaxSingleTradeAmount
	}
	if patch.MinSingleTradeAmount != nil {
		m.limits.MinSingleTradeAmount = *patch.MinSingleTradeAmount
	}
	if patch.MaxOpenPositions != nil {
		m.limits.MaxOpenPositions = *patch.MaxOpenPositions
	}
	if patch.MaxTotalExposure != nil {
		m.limits.MaxTotalExposure = *patch.MaxTotalExposure
	}
	if patch.MaxExposurePerToken != nil {
		m.limits.MaxExposurePerToken = *patch.MaxExposurePerToken
	}
	if patch.EmergencyStopLoss != nil {
		m.limits.EmergencyStopLoss = *patch.EmergencyStopLoss
	}
	snapshot := m.limits
	m.mu.Unlock()

	m.log.Info("trading limits updated")
	m.persistLimits(snapshot)
}

// TodayStats returns a copy of today's statistics, creating the record
// if this is the first touch of the day.
func (m *Manager) TodayStats() DailyStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.todayStatsLocked()
}

// AllStats returns copies of every daily record, oldest first by date key.
func (m *Manager) AllStats() []DailyStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]DailyStats, 0, len(m.dailyStats))
	for _, stats := range m.dailyStats {
		out = append(out, *stats)
	}
	sortStatsByDate(out)
	return out
}

// todayStatsLocked lazily initializes and returns today's record. Must be
// called with the write lock held.
func (m *Manager) todayStatsLocked() *DailyStats {
	date := m.now().Format("2006-01-02")
	stats, ok := m.dailyStats[date]
	if !ok {
		stats = &DailyStats{Date: date}
		m.dailyStats[date] = stats
	}
	return stats
}

// todayStatsReadLocked returns a copy of today's record without mutating
// the map, so it is safe under the read lock. A day with no activity yet
// reads as all zeroes.
func (m *Manager) todayStatsReadLocked() DailyStats {
	date := m.now().Format("2006-01-02")
	if stats, ok := m.dailyStats[date]; ok {
		return *stats
	}
	return DailyStats{Date: date}
}

func (m *Manager) marketRiskLocked() RiskLevel {
	if m.volatility == nil {
		return RiskMedium
	}
	vol, ok := m.volatility()
	if !ok {
		return RiskMedium
	}
	switch {
	case vol > 0.8:
		return RiskVeryHigh
	case vol > 0.6:
		return RiskHigh
	case vol > 0.4:
		return RiskMedium
	case vol > 0.2:
		return RiskLow
	default:
		return RiskVeryLow
	}
}

func (m *Manager) exposureRiskLocked(mint string, positions []types.Position) RiskLevel {
	if m.limits.MaxExposurePerToken <= 0 {
		return RiskMedium
	}

	var exposure float64
	for _, p := range positions {
		if normalizeMint(p.Token.Mint) == mint {
			exposure += p.Value()
		}
	}

	ratio := exposure / m.limits.MaxExposurePerToken
	switch {
	case ratio > 0.9:
		return RiskVeryHigh
	case ratio > 0.7:
		return RiskHigh
	case ratio > 0.5:
		return RiskMedium
	case ratio > 0.3:
		return RiskLow
	default:
		return RiskVeryLow
	}
}

func liquidityRisk(liquidityUSD float64) RiskLevel {
	switch {
	case liquidityUSD >= 10000:
		return RiskVeryLow
	case liquidityUSD >= 5000:
		return RiskLow
	case liquidityUSD >= 2500:
		return RiskMedium
	case liquidityUSD >= 1000:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

func totalExposure(positions []types.Position) float64 {
	var total float64
	for _, p := range positions {
		total += p.Value()
	}
	return total
}

func normalizeMint(mint string) string {
	return strings.TrimSpace(mint)
}

func sortStatsByDate(stats []DailyStats) {
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Date < stats[j].Date
	})
}

func (m *Manager) blacklistCopyLocked() map[string]string {
	out := make(map[string]string, len(m.blacklist))
	for k, v := range m.blacklist {
		out[k] = v
	}
	return out
}

// Store write-throughs are best-effort: failures are logged and never
// affect decisions, because in-memory state is authoritative.

func (m *Manager) persistStats(stats DailyStats) {
	if m.store == nil {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := m.store.Set(context.Background(), dailyStatsKeyPrefix+stats.Date, data, 0); err != nil {
		m.log.Warn("failed to persist daily stats", logger.Fields{"error": err.Error()})
	}
}

func (m *Manager) persistBlacklist(blacklist map[string]string) {
	if m.store == nil {
		return
	}
	data, err := json.Marshal(blacklist)
	if err != nil {
		return
	}
	if err := m.store.Set(context.Background(), blacklistKey, data, 0); err != nil {
		m.log.Warn("failed to persist blacklist", logger.Fields{"error": err.Error()})
	}
}

func (m *Manager) persistLimits(limits TradingLimits) {
	if m.store == nil {
		return
	}
	data, err := json.Marshal(limits)
	if err != nil {
		return
	}
	if err := m.store.Set(context.Background(), limitsKey, data, 0); err != nil {
		m.log.Warn("failed to persist trading limits", logger.Fields{"error": err.Error()})
	}
}

func (m *Manager) restoreFromStore() {
	if m.store == nil {
		return
	}
	ctx := context.Background()

	if data, err := m.store.Get(ctx, blacklistKey); err == nil {
		var blacklist map[string]string
		if json.Unmarshal(data, &blacklist) == nil {
			m.blacklist = blacklist
		}
	}

	date := m.now().Format("2006-01-02")
	if data, err := m.store.Get(ctx, dailyStatsKeyPrefix+date); err == nil {
		var stats DailyStats
		if json.Unmarshal(data, &stats) == nil && stats.Date == date {
			m.dailyStats[date] = &stats
		}
	}
}
