package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	DetailSheet  = "明细"
	SummarySheet = "汇总"

	// Placeholder for values that could not be resolved, such as a fabric
	// code missing from the catalog.
	missingValue = "—"
)

var detailHeaders = []string{
	"订单", "商品", "款式", "数量", "帘头", "衬布", "孔环颜色", "房间",
	"宽(cm)", "高(cm)", "片数", "窗数", "褶皱倍数", "墙宽(cm)", "采购米数",
	"面料编码", "面料单价", "面料成本", "衬布单价", "衬布成本", "生产",
}

var summaryHeaders = []string{"帘头", "片数", "采购米数", "面料成本", "衬布成本"}

var accessoryHeaders = []string{"配件", "款式", "数量"}

// NewWorkbook lays out the detail and summary sheets.
func NewWorkbook(rows []Row, totals StockTotals) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", DetailSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename detail sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeDetail(f, rows, boldStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummary(f, totals, boldStyle); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteWorkbook renders the stock list as xlsx into w.
func WriteWorkbook(w io.Writer, rows []Row, totals StockTotals) error {
	f, err := NewWorkbook(rows, totals)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeDetail(f *excelize.File, rows []Row, headerStyle int) error {
	if err := writeHeaderRow(f, DetailSheet, 1, detailHeaders, headerStyle); err != nil {
		return err
	}

	for i, r := range rows {
		values := []any{
			r.OrderName,
			r.Title,
			r.VariantTitle,
			r.Quantity,
			r.Header,
			r.LiningType,
			r.GrommetColor,
			r.Room,
			floatCell(r.WidthCM),
			floatCell(r.HeightCM),
			r.PanelCount,
			r.WindowCount,
			r.FullnessMultiplier,
			r.WallWidthCM,
			r.PurchaseMeters,
			r.FabricCode,
			decimalCell(r.FabricUnitPrice),
			decimalCell(r.FabricCost),
			decimalCell(r.LiningUnitPrice),
			decimalCell(r.LiningCost),
			yesNo(r.Manufactured),
		}
		if err := setRow(f, DetailSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, totals StockTotals, headerStyle int) error {
	if err := writeHeaderRow(f, SummarySheet, 1, summaryHeaders, headerStyle); err != nil {
		return err
	}

	row := 2
	for _, h := range totals.Headers {
		values := []any{h.Header, h.Panels, h.PurchaseMeters, h.FabricCost.InexactFloat64(), h.LiningCost.InexactFloat64()}
		if err := setRow(f, SummarySheet, row, values); err != nil {
			return err
		}
		row++
	}

	totalRow := []any{"合计", totals.TotalPanels, totals.TotalPurchaseMeters, totals.TotalFabricCost.InexactFloat64(), totals.TotalLiningCost.InexactFloat64()}
	if err := setRow(f, SummarySheet, row, totalRow); err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create total style: %w", err)
	}
	if err := f.SetCellStyle(SummarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row), totalStyle); err != nil {
		return fmt.Errorf("style total row: %w", err)
	}

	if len(totals.Accessories) == 0 {
		return nil
	}
	row += 2
	if err := writeHeaderRow(f, SummarySheet, row, accessoryHeaders, headerStyle); err != nil {
		return err
	}
	for _, a := range totals.Accessories {
		row++
		if err := setRow(f, SummarySheet, row, []any{a.Title, a.VariantTitle, a.Quantity}); err != nil {
			return err
		}
	}
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, row int, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("style header %s: %w", cell, err)
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row cell: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("set %s row %d: %w", sheet, row, err)
	}
	return nil
}

func floatCell(v *float64) any {
	if v == nil {
		return missingValue
	}
	return *v
}

func decimalCell(v *decimal.Decimal) any {
	if v == nil {
		return missingValue
	}
	return v.InexactFloat64()
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}
