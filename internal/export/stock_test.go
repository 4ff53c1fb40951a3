package export

import (
	"bytes"
	"testing"
	"time"

	"retail-ops/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestStockWorkbook_RowsSortedByProduct(t *testing.T) {
	stock := &core.WarehouseStock{
		WarehouseID:   3,
		WarehouseName: "North",
		Stock: map[string]core.StockLevel{
			"Milk 1L": {Qty: 10, Unit: core.UnitLitre},
			"Apples":  {Qty: 4, Unit: core.UnitKg},
		},
	}

	data, err := StockWorkbook(stock)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"warehouse_id", "warehouse_name", "product_name", "qty", "unit"}, rows[0])
	assert.Equal(t, []string{"3", "North", "Apples", "4", "kg"}, rows[1])
	assert.Equal(t, []string{"3", "North", "Milk 1L", "10", "litre"}, rows[2])
}

func TestStockWorkbook_EmptyWarehouse(t *testing.T) {
	data, err := StockWorkbook(&core.WarehouseStock{WarehouseID: 1, Stock: map[string]core.StockLevel{}})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStockFileName(t *testing.T) {
	ts := time.Date(2026, 3, 9, 14, 5, 0, 0, time.UTC)
	name := StockFileName(&core.WarehouseStock{WarehouseID: 7}, ts)
	assert.Equal(t, "stock_7_20260309_140500.xlsx", name)
}
