package app

import "retail-ops/internal/core"

// WarehouseListResult is returned by ListWarehouses.
type WarehouseListResult struct {
	Warehouses []core.Warehouse
}

// ExportResult is returned by ExportStock.
type ExportResult struct {
	FileName string
	Data     []byte
}

// AdjustStockResult is returned by AdjustStock.
type AdjustStockResult struct {
	Product     string
	Unit        core.Unit
	PreviousQty int64
	NewQty      int64
	Adjustment  core.StockAdjustment
}

// AdjustmentListResult is returned by ListAdjustments.
type AdjustmentListResult struct {
	WarehouseID int64
	Adjustments []core.StockAdjustment
}

// OrderResult is returned by order operations.
type OrderResult struct {
	Order *core.Order
}

// OrderListResult is returned by ListOrders.
type OrderListResult struct {
	Orders []core.Order
}

// DashboardResult holds every metric that could be computed and the errors of those that could not.
type DashboardResult struct {
	Values map[string]any
	Errors map[string]string
}
