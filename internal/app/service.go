package app

import (
	"context"

	"retail-ops/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations contain no
// display logic of any kind.
type ApplicationService interface {
	// Health reports whether the backing store is reachable.
	Health(ctx context.Context) error

	// ListWarehouses returns the warehouse directory.
	ListWarehouses(ctx context.Context) (*WarehouseListResult, error)

	// GetStock returns product → {qty, unit} for one warehouse.
	GetStock(ctx context.Context, warehouseID int64) (*core.WarehouseStock, error)

	// ExportStock renders a warehouse's stock as an xlsx workbook.
	ExportStock(ctx context.Context, warehouseID int64) (*ExportResult, error)

	// AdjustStock applies a signed quantity change and returns the before/after quantities.
	AdjustStock(ctx context.Context, req AdjustStockRequest) (*AdjustStockResult, error)

	// ListAdjustments returns a warehouse's stock log, newest first.
	ListAdjustments(ctx context.Context, warehouseID int64, limit int) (*AdjustmentListResult, error)

	// PlaceOrder validates and stores a pending order. Validation failures are
	// returned as core.ValidationErrors.
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderResult, error)

	// GetOrder returns one order by ID.
	GetOrder(ctx context.Context, orderID int64) (*OrderResult, error)

	// ListOrders returns orders, optionally filtered by status (empty means all).
	ListOrders(ctx context.Context, status string) (*OrderListResult, error)

	// SetOrderStatus applies a lifecycle transition.
	SetOrderStatus(ctx context.Context, req SetOrderStatusRequest) (*OrderResult, error)

	// GetMetric computes one dashboard statistic by name.
	GetMetric(ctx context.Context, name string) (any, error)

	// GetDashboard computes every statistic; failures are reported per metric.
	GetDashboard(ctx context.Context) *DashboardResult
}
