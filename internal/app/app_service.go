package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail-ops/internal/core"
	"retail-ops/internal/export"
	"retail-ops/internal/metrics"

	"go.uber.org/zap"
)

type appService struct {
	repo      core.Repository
	ledger    core.LedgerService
	orders    core.OrderService
	reporting core.ReportingService
	log       *zap.Logger
	metrics   *metrics.Recorder
}

// NewAppService constructs an appService that satisfies ApplicationService.
// log and rec may be nil.
func NewAppService(
	repo core.Repository,
	ledger core.LedgerService,
	orders core.OrderService,
	reporting core.ReportingService,
	log *zap.Logger,
	rec *metrics.Recorder,
) ApplicationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &appService{
		repo:      repo,
		ledger:    ledger,
		orders:    orders,
		reporting: reporting,
		log:       log,
		metrics:   rec,
	}
}

func (s *appService) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *appService) ListWarehouses(ctx context.Context) (*WarehouseListResult, error) {
	warehouses, err := s.repo.ListWarehouses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	return &WarehouseListResult{Warehouses: warehouses}, nil
}

func (s *appService) GetStock(ctx context.Context, warehouseID int64) (*core.WarehouseStock, error) {
	return s.ledger.GetStock(ctx, warehouseID)
}

func (s *appService) ExportStock(ctx context.Context, warehouseID int64) (*ExportResult, error) {
	stock, err := s.ledger.GetStock(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	data, err := export.StockWorkbook(stock)
	if err != nil {
		return nil, err
	}
	return &ExportResult{FileName: export.StockFileName(stock, time.Now()), Data: data}, nil
}

func (s *appService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*AdjustStockResult, error) {
	res, err := s.ledger.ApplyAdjustment(ctx, core.AdjustmentInput{
		WarehouseID: req.WarehouseID,
		ProductName: req.ProductName,
		Delta:       req.QtyAdded,
		Unit:        req.Unit,
		Note:        req.Notes,
		Actor:       req.Actor,
	})
	s.metrics.ObserveAdjustment(req.QtyAdded, err)
	if err != nil {
		s.log.Info("stock adjustment rejected",
			zap.Int64("warehouse_id", req.WarehouseID),
			zap.String("product", req.ProductName),
			zap.Int64("delta", req.QtyAdded),
			zap.Error(err))
		return nil, err
	}

	s.log.Info("stock adjusted",
		zap.Int64("warehouse_id", req.WarehouseID),
		zap.String("product", res.Record.ProductName),
		zap.Int64("previous_qty", res.PreviousQty),
		zap.Int64("new_qty", res.Record.Quantity),
		zap.String("actor", req.Actor))

	return &AdjustStockResult{
		Product:     res.Record.ProductName,
		Unit:        res.Record.Unit,
		PreviousQty: res.PreviousQty,
		NewQty:      res.Record.Quantity,
		Adjustment:  res.Adjustment,
	}, nil
}

func (s *appService) ListAdjustments(ctx context.Context, warehouseID int64, limit int) (*AdjustmentListResult, error) {
	adjustments, err := s.ledger.ListAdjustments(ctx, warehouseID, limit)
	if err != nil {
		return nil, err
	}
	return &AdjustmentListResult{WarehouseID: warehouseID, Adjustments: adjustments}, nil
}

func (s *appService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderResult, error) {
	items := make([]core.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, core.OrderItemInput{ProductName: it.ProductName, RequestedQty: it.RequestedQty})
	}

	order, err := s.orders.ValidateOrder(ctx, core.OrderInput{
		StoreID:    req.StoreID,
		SupplierID: req.SupplierID,
		Priority:   req.Priority,
		Notes:      req.Notes,
		Items:      items,
		Actor:      req.Actor,
	})
	s.metrics.ObserveOrder(err)
	if err != nil {
		s.log.Info("order rejected", zap.Int64("store_id", req.StoreID), zap.Error(err))
		return nil, err
	}

	s.log.Info("order placed",
		zap.String("order_code", order.Code),
		zap.Int64("store_id", order.StoreID),
		zap.Int64("warehouse_id", order.WarehouseID),
		zap.Int("items", len(order.Items)),
		zap.Bool("reserved", order.Reserved))
	return &OrderResult{Order: order}, nil
}

func (s *appService) GetOrder(ctx context.Context, orderID int64) (*OrderResult, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) ListOrders(ctx context.Context, status string) (*OrderListResult, error) {
	var filter *core.OrderStatus
	if strings.TrimSpace(status) != "" {
		st, err := core.ParseOrderStatus(status)
		if err != nil {
			return nil, err
		}
		filter = &st
	}
	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders}, nil
}

func (s *appService) SetOrderStatus(ctx context.Context, req SetOrderStatusRequest) (*OrderResult, error) {
	status, err := core.ParseOrderStatus(req.Status)
	if err != nil {
		s.metrics.ObserveTransition("invalid", err)
		return nil, err
	}

	order, err := s.orders.SetStatus(ctx, req.OrderID, status, req.Actor)
	s.metrics.ObserveTransition(string(status), err)
	if err != nil {
		s.log.Info("status change rejected",
			zap.Int64("order_id", req.OrderID),
			zap.String("status", string(status)),
			zap.Error(err))
		return nil, err
	}

	s.log.Info("order status changed",
		zap.String("order_code", order.Code),
		zap.String("status", string(order.Status)),
		zap.String("actor", req.Actor))
	return &OrderResult{Order: order}, nil
}

func (s *appService) GetMetric(ctx context.Context, name string) (any, error) {
	return s.reporting.Metric(ctx, name)
}

func (s *appService) GetDashboard(ctx context.Context) *DashboardResult {
	out := &DashboardResult{Values: make(map[string]any), Errors: make(map[string]string)}
	for _, r := range s.reporting.Dashboard(ctx) {
		if r.Err != nil {
			s.log.Warn("dashboard metric failed", zap.String("metric", r.Name), zap.Error(r.Err))
			out.Errors[r.Name] = r.Err.Error()
			continue
		}
		out.Values[r.Name] = r.Value
	}
	return out
}
