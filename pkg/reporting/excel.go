package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/crypto-risk-engine/internal/errors"
	"github.com/ducminhle1904/crypto-risk-engine/internal/risk"
	"github.com/ducminhle1904/crypto-risk-engine/internal/strategy"
)

// ExcelReporter writes engine history to an Excel workbook.
type ExcelReporter struct{}

// NewExcelReporter creates an Excel reporter.
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// WriteReport writes a workbook with a daily-stats sheet and a strategy
// performance sheet.
func (r *ExcelReporter) WriteReport(path string, stats []risk.DailyStats, performance []strategy.StrategyPerformance) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, errors.ErrorCategoryReporting, "excel", "mkdir")
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const statsSheet = "Daily Stats"
	const perfSheet = "Strategy Performance"

	fx.SetSheetName(fx.GetSheetName(0), statsSheet)
	if _, err := fx.NewSheet(perfSheet); err != nil {
		return errors.Wrap(err, errors.ErrorCategoryReporting, "excel", "new_sheet")
	}

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorCategoryReporting, "excel", "new_style")
	}

	if err := r.writeStatsSheet(fx, statsSheet, stats, headerStyle); err != nil {
		return err
	}
	if err := r.writePerformanceSheet(fx, perfSheet, performance, headerStyle); err != nil {
		return err
	}

	if err := fx.SaveAs(path); err != nil {
		return errors.Wrap(err, errors.ErrorCategoryReporting, "excel", "save")
	}
	return nil
}

func (r *ExcelReporter) writeStatsSheet(fx *excelize.File, sheet string, stats []risk.DailyStats, headerStyle int) error {
	headers := []string{"Date", "Trades", "Invested", "Successful", "Failed", "Profit"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, s := range stats {
		values := []interface{}{s.Date, s.TradeCount, s.TotalInvested, s.SuccessfulTrades, s.FailedTrades, s.Profit}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return errors.Wrap(err, errors.ErrorCategoryReporting, "excel", "cell_name")
			}
			fx.SetCellValue(sheet, cell, v)
		}
	}
	return nil
}

func (r *ExcelReporter) writePerformanceSheet(fx *excelize.File, sheet string, performance []strategy.StrategyPerformance, headerStyle int) error {
	headers := []string{"Strategy", "Success Rate", "Avg ROI", "Avg Holding", "Win/Loss", "Trades", "Profitable", "Updated"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, p := range performance {
		values := []interface{}{
			p.StrategyID,
			fmt.Sprintf("%.1f%%", p.SuccessRate*100),
			fmt.Sprintf("%.2f%%", p.AvgROI*100),
			p.AvgHoldingTime.String(),
			p.WinLossRatio,
			p.TotalTrades,
			p.ProfitableTrades,
			p.Timestamp.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return errors.Wrap(err, errors.ErrorCategoryReporting, "excel", "cell_name")
			}
			fx.SetCellValue(sheet, cell, v)
		}
	}
	return nil
}
