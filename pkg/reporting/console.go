// Package reporting renders engine state for operators: console tables
// for the host loop and an Excel workbook export.
package reporting

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/crypto-risk-engine/internal/risk"
	"github.com/ducminhle1904/crypto-risk-engine/internal/strategy"
)

// ConsoleReporter renders engine state as rounded tables on stdout.
type ConsoleReporter struct{}

// NewConsoleReporter creates a console reporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// PrintLimits renders the current trading limits.
func (r *ConsoleReporter) PrintLimits(limits risk.TradingLimits) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("TRADING LIMITS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Max Daily Trades", limits.MaxDailyTrades},
		{"Max Daily Investment", fmt.Sprintf("$%.2f", limits.MaxDailyInvestment)},
		{"Max Single Trade", fmt.Sprintf("$%.2f", limits.MaxSingleTradeAmount)},
		{"Min Single Trade", fmt.Sprintf("$%.2f", limits.MinSingleTradeAmount)},
		{"Max Open Positions", limits.MaxOpenPositions},
		{"Max Total Exposure", fmt.Sprintf("$%.2f", limits.MaxTotalExposure)},
		{"Max Exposure Per Token", fmt.Sprintf("$%.2f", limits.MaxExposurePerToken)},
		{"Emergency Stop Loss", fmt.Sprintf("%.1f%%", limits.EmergencyStopLoss)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 24, Align: text.AlignLeft},
		{Number: 2, WidthMin: 14, Align: text.AlignRight},
	})

	t.Render()
	fmt.Println()
}

// PrintTodayStats renders today's activity record.
func (r *ConsoleReporter) PrintTodayStats(stats risk.DailyStats) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("DAILY STATS %s", stats.Date))
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Trades", stats.TradeCount},
		{"Invested", fmt.Sprintf("$%.2f", stats.TotalInvested)},
		{"Successful", stats.SuccessfulTrades},
		{"Failed", stats.FailedTrades},
		{"Profit", fmt.Sprintf("$%.2f", stats.Profit)},
	})

	t.Render()
	fmt.Println()
}

// PrintStrategies renders the strategy catalog with the active marker.
func (r *ConsoleReporter) PrintStrategies(profiles []strategy.StrategyProfile) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("STRATEGY CATALOG")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Risk", "Preferred Markets", "Min Conf", "Max Slip", "Active"})

	for _, p := range profiles {
		states := make([]string, 0, len(p.MarketStatePreference))
		for _, s := range p.MarketStatePreference {
			states = append(states, s.String())
		}
		active := ""
		if p.Active {
			active = "✓"
		}
		t.AppendRow(table.Row{
			p.ID,
			p.RiskLevel,
			strings.Join(states, ", "),
			fmt.Sprintf("%.2f", p.BuyConditions.MinConfidence),
			fmt.Sprintf("%.1f%%", p.BuyConditions.MaxSlippage),
			active,
		})
	}

	t.Render()
	fmt.Println()
}

// PrintRecommendation renders the latest strategy recommendation.
func (r *ConsoleReporter) PrintRecommendation(rec strategy.StrategyRecommendation) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("STRATEGY RECOMMENDATION")
	t.SetStyle(table.StyleRounded)

	alts := make([]string, 0, len(rec.AlternativeStrategies))
	for _, alt := range rec.AlternativeStrategies {
		alts = append(alts, alt.ID)
	}

	t.AppendRows([]table.Row{
		{"Recommended", rec.RecommendedStrategy.ID},
		{"Confidence", fmt.Sprintf("%.2f", rec.Confidence)},
		{"Reasons", strings.Join(rec.Reasons, "; ")},
		{"Alternatives", strings.Join(alts, ", ")},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 60},
	})

	t.Render()
	fmt.Println()
}
