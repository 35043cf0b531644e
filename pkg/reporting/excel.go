package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/portfolio-backtest/internal/analytics"
	"github.com/ducminhle1904/portfolio-backtest/internal/backtest"
)

const (
	summarySheet  = "Summary"
	navSheet      = "NAV"
	holdingsSheet = "Holdings"
	pnlSheet      = "PnL Attribution"
)

// ExcelStyles holds the workbook's cell styles.
type ExcelStyles struct {
	HeaderStyle  int
	DateStyle    int
	NumberStyle  int
	PercentStyle int
}

// DefaultExcelReporter writes a full result workbook.
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates an Excel reporter.
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteWorkbook writes summary, NAV, holdings and attribution sheets to one
// workbook at path.
func (r *DefaultExcelReporter) WriteWorkbook(result *backtest.Result, overview analytics.Overview, path string) error {
	fx := excelize.NewFile()
	defer fx.Close()

	styles, err := r.createStyles(fx)
	if err != nil {
		return fmt.Errorf("failed to create styles: %w", err)
	}

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	if _, err := fx.NewSheet(navSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(holdingsSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(pnlSheet); err != nil {
		return err
	}

	if err := r.writeSummary(fx, overview, styles); err != nil {
		return err
	}
	if err := r.writeNAV(fx, result, styles); err != nil {
		return err
	}
	if err := r.writePanel(fx, holdingsSheet, result.Holdings, styles); err != nil {
		return err
	}
	if err := r.writePanel(fx, pnlSheet, result.PnLAttribution, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) createStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.DateStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 22, // m/d/yy h:mm
	})
	if err != nil {
		return styles, err
	}

	styles.NumberStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 4, // #,##0.00
	})
	if err != nil {
		return styles, err
	}

	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 10, // 0.00%
	})
	return styles, err
}

func (r *DefaultExcelReporter) writeSummary(fx *excelize.File, overview analytics.Overview, styles ExcelStyles) error {
	rows := []struct {
		key     string
		value   interface{}
		percent bool
	}{
		{"Strategy", overview.Name, false},
		{"Mean Ann. Return", overview.MeanAnnReturn, true},
		{"Ann. Volatility", overview.AnnVol, true},
		{"Sharpe Ratio", overview.Sharpe, false},
		{"Avg Daily Turnover", overview.AvgDailyTurnover, false},
		{"Max Drawdown", overview.MaxDrawdown, true},
		{"Max Drawdown Date", overview.MaxDrawdownDate, false},
		{"Max Time Under Water", overview.MaxTimeUnderWater.String(), false},
		{"Avg Gross Exposure", overview.AvgGrossExposure, false},
		{"Avg Net Exposure", overview.AvgNetExposure, false},
	}

	if err := fx.SetCellValue(summarySheet, "A1", "Metric"); err != nil {
		return err
	}
	if err := fx.SetCellValue(summarySheet, "B1", "Value"); err != nil {
		return err
	}
	if err := fx.SetCellStyle(summarySheet, "A1", "B1", styles.HeaderStyle); err != nil {
		return err
	}

	for i, row := range rows {
		keyCell := fmt.Sprintf("A%d", i+2)
		valueCell := fmt.Sprintf("B%d", i+2)
		if err := fx.SetCellValue(summarySheet, keyCell, row.key); err != nil {
			return err
		}
		if err := fx.SetCellValue(summarySheet, valueCell, row.value); err != nil {
			return err
		}
		if row.percent {
			if err := fx.SetCellStyle(summarySheet, valueCell, valueCell, styles.PercentStyle); err != nil {
				return err
			}
		}
	}
	return fx.SetColWidth(summarySheet, "A", "B", 24)
}

func (r *DefaultExcelReporter) writeNAV(fx *excelize.File, result *backtest.Result, styles ExcelStyles) error {
	if err := fx.SetCellValue(navSheet, "A1", "Date"); err != nil {
		return err
	}
	if err := fx.SetCellValue(navSheet, "B1", "NAV"); err != nil {
		return err
	}
	if err := fx.SetCellStyle(navSheet, "A1", "B1", styles.HeaderStyle); err != nil {
		return err
	}

	nav := result.NAV
	for i := 0; i < nav.Len(); i++ {
		dt, v := nav.At(i)
		rowNum := i + 2
		dateCell := fmt.Sprintf("A%d", rowNum)
		valueCell := fmt.Sprintf("B%d", rowNum)
		if err := fx.SetCellValue(navSheet, dateCell, dt); err != nil {
			return err
		}
		if err := fx.SetCellStyle(navSheet, dateCell, dateCell, styles.DateStyle); err != nil {
			return err
		}
		if err := fx.SetCellValue(navSheet, valueCell, v); err != nil {
			return err
		}
		if err := fx.SetCellStyle(navSheet, valueCell, valueCell, styles.NumberStyle); err != nil {
			return err
		}
	}
	return fx.SetColWidth(navSheet, "A", "B", 20)
}

func (r *DefaultExcelReporter) writePanel(fx *excelize.File, sheet string, panel *backtest.Panel, styles ExcelStyles) error {
	if err := fx.SetCellValue(sheet, "A1", "Date"); err != nil {
		return err
	}
	for j, name := range panel.Instruments() {
		cell, err := excelize.CoordinatesToCellName(j+2, 1)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}
	endHeader, err := excelize.CoordinatesToCellName(len(panel.Instruments())+1, 1)
	if err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", endHeader, styles.HeaderStyle); err != nil {
		return err
	}

	for i := 0; i < panel.Len(); i++ {
		rowNum := i + 2
		dateCell := fmt.Sprintf("A%d", rowNum)
		if err := fx.SetCellValue(sheet, dateCell, panel.DateAt(i)); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, dateCell, dateCell, styles.DateStyle); err != nil {
			return err
		}
		for j, v := range panel.RowAt(i) {
			cell, err := excelize.CoordinatesToCellName(j+2, rowNum)
			if err != nil {
				return err
			}
			if err := fx.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			if err := fx.SetCellStyle(sheet, cell, cell, styles.NumberStyle); err != nil {
				return err
			}
		}
	}
	return fx.SetColWidth(sheet, "A", "A", 20)
}
