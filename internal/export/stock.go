// Package export renders ledger views as spreadsheets.
package export

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"retail-ops/internal/core"

	"github.com/xuri/excelize/v2"
)

// StockSheetHeader is the first row of a stock export.
var StockSheetHeader = []interface{}{"warehouse_id", "warehouse_name", "product_name", "qty", "unit"}

// StockWorkbook writes a warehouse's stock as an xlsx file, one product per row sorted by name.
func StockWorkbook(stock *core.WarehouseStock) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := StockSheetHeader
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	names := make([]string, 0, len(stock.Stock))
	for name := range stock.Stock {
		names = append(names, name)
	}
	sort.Strings(names)

	row := 2
	for _, name := range names {
		level := stock.Stock[name]
		excelRow := []interface{}{
			stock.WarehouseID,
			stock.WarehouseName,
			name,
			level.Qty,
			string(level.Unit),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, fmt.Errorf("failed to address row %d: %w", row, err)
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		row++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// StockFileName names an export file for a warehouse at time t.
func StockFileName(stock *core.WarehouseStock, t time.Time) string {
	return fmt.Sprintf("stock_%d_%s.xlsx", stock.WarehouseID, t.Format("20060102_150405"))
}
