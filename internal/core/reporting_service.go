package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultLowStockThreshold is the highest quantity still counted as low stock.
// It matches the dashboard's "under 10" rule for stocked items.
const DefaultLowStockThreshold int64 = 9

// Metric names, as served under /api/stats/{metric}.
const (
	MetricTotalInventory      = "totalInventory"
	MetricWarehouseInventory  = "warehouseInventory"
	MetricStoreInventory      = "storeInventory"
	MetricCapacityUtilization = "capacityUtilization"
	MetricLowStock            = "lowStock"
	MetricOutOfStock          = "outOfStock"
	MetricUniqueProducts      = "stock/unique"
	MetricTopProduct          = "stock/top"
	MetricSuppliersCount      = "suppliersCount"
	MetricWarehousesCount     = "warehousesCount"
)

// Metrics lists every dashboard metric in display order.
var Metrics = []string{
	MetricTotalInventory,
	MetricWarehouseInventory,
	MetricStoreInventory,
	MetricCapacityUtilization,
	MetricLowStock,
	MetricOutOfStock,
	MetricUniqueProducts,
	MetricTopProduct,
	MetricSuppliersCount,
	MetricWarehousesCount,
}

// Utilization is stock held as a share of rated capacity.
// Percent is rounded half away from zero; Precise keeps two decimals.
type Utilization struct {
	Percent       int64           `json:"percent"`
	Precise       decimal.Decimal `json:"precise"`
	TotalStock    int64           `json:"total_stock"`
	TotalCapacity int64           `json:"total_capacity"`
}

// TopProduct is the single StockRecord holding the largest quantity.
type TopProduct struct {
	ProductName  string `json:"product_name"`
	AvailableQty int64  `json:"available_qty"`
	Unit         Unit   `json:"unit"`
	WarehouseID  int64  `json:"warehouse_id"`
}

// MetricResult is one dashboard entry: a value or the error that prevented it.
type MetricResult struct {
	Name  string
	Value any
	Err   error
}

// ReportingService derives dashboard statistics from the current stock and directory.
// Nothing is cached; every call reads the repository.
type ReportingService interface {
	TotalInventory(ctx context.Context) (int64, error)
	WarehouseInventory(ctx context.Context) (int64, error)
	StoreInventory(ctx context.Context) (int64, error)
	CapacityUtilization(ctx context.Context) (*Utilization, error)
	LowStockCount(ctx context.Context) (int64, error)
	OutOfStockCount(ctx context.Context) (int64, error)
	UniqueProducts(ctx context.Context) (int64, error)
	// TopProduct returns nil when no stock records exist.
	TopProduct(ctx context.Context) (*TopProduct, error)
	SuppliersCount(ctx context.Context) (int64, error)
	WarehousesCount(ctx context.Context) (int64, error)

	// Metric computes one metric by name. Unknown names wrap ErrNotFound.
	Metric(ctx context.Context, name string) (any, error)
	// Dashboard computes every metric independently; a failing metric carries
	// its error and does not affect the others.
	Dashboard(ctx context.Context) []MetricResult
}

type reportingService struct {
	repo              Repository
	lowStockThreshold int64
	parallelism       int
}

// NewReportingService returns a ReportingService. A negative threshold falls back to the default.
func NewReportingService(repo Repository, lowStockThreshold int64) ReportingService {
	if lowStockThreshold < 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &reportingService{repo: repo, lowStockThreshold: lowStockThreshold, parallelism: 4}
}

func (s *reportingService) TotalInventory(ctx context.Context) (int64, error) {
	wh, err := s.WarehouseInventory(ctx)
	if err != nil {
		return 0, err
	}
	st, err := s.StoreInventory(ctx)
	if err != nil {
		return 0, err
	}
	return wh + st, nil
}

func (s *reportingService) WarehouseInventory(ctx context.Context) (int64, error) {
	records, err := s.allStock(ctx)
	if err != nil {
		return 0, err
	}
	return sumQuantities(records), nil
}

// StoreInventory is always 0: stock is only ledgered per warehouse.
func (s *reportingService) StoreInventory(ctx context.Context) (int64, error) {
	return 0, nil
}

func (s *reportingService) CapacityUtilization(ctx context.Context) (*Utilization, error) {
	records, err := s.allStock(ctx)
	if err != nil {
		return nil, err
	}
	warehouses, err := s.repo.ListWarehouses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}

	var capacity int64
	for _, w := range warehouses {
		capacity += w.Capacity
	}
	return computeUtilization(sumQuantities(records), capacity), nil
}

func computeUtilization(stock, capacity int64) *Utilization {
	u := &Utilization{TotalStock: stock, TotalCapacity: capacity, Precise: decimal.Zero}
	if capacity <= 0 {
		return u
	}
	ratio := decimal.NewFromInt(stock).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(capacity))
	u.Percent = ratio.Round(0).IntPart()
	u.Precise = ratio.Round(2)
	return u
}

func (s *reportingService) LowStockCount(ctx context.Context) (int64, error) {
	records, err := s.allStock(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, r := range records {
		if r.Quantity > 0 && r.Quantity <= s.lowStockThreshold {
			n++
		}
	}
	return n, nil
}

func (s *reportingService) OutOfStockCount(ctx context.Context) (int64, error) {
	records, err := s.allStock(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, r := range records {
		if r.Quantity == 0 {
			n++
		}
	}
	return n, nil
}

func (s *reportingService) UniqueProducts(ctx context.Context) (int64, error) {
	records, err := s.allStock(ctx)
	if err != nil {
		return 0, err
	}
	names := make(map[string]struct{}, len(records))
	for _, r := range records {
		names[r.ProductName] = struct{}{}
	}
	return int64(len(names)), nil
}

func (s *reportingService) TopProduct(ctx context.Context) (*TopProduct, error) {
	records, err := s.allStock(ctx)
	if err != nil {
		return nil, err
	}
	return pickTopProduct(records), nil
}

// pickTopProduct orders by quantity descending, then product name, then warehouse id.
func pickTopProduct(records []StockRecord) *TopProduct {
	if len(records) == 0 {
		return nil
	}
	sorted := make([]StockRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		return a.WarehouseID < b.WarehouseID
	})
	top := sorted[0]
	return &TopProduct{
		ProductName:  top.ProductName,
		AvailableQty: top.Quantity,
		Unit:         top.Unit,
		WarehouseID:  top.WarehouseID,
	}
}

func (s *reportingService) SuppliersCount(ctx context.Context) (int64, error) {
	n, err := s.repo.CountSuppliers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count suppliers: %w", err)
	}
	return n, nil
}

func (s *reportingService) WarehousesCount(ctx context.Context) (int64, error) {
	n, err := s.repo.CountWarehouses(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count warehouses: %w", err)
	}
	return n, nil
}

func (s *reportingService) Metric(ctx context.Context, name string) (any, error) {
	switch name {
	case MetricTotalInventory:
		return s.TotalInventory(ctx)
	case MetricWarehouseInventory:
		return s.WarehouseInventory(ctx)
	case MetricStoreInventory:
		return s.StoreInventory(ctx)
	case MetricCapacityUtilization:
		return s.CapacityUtilization(ctx)
	case MetricLowStock:
		return s.LowStockCount(ctx)
	case MetricOutOfStock:
		return s.OutOfStockCount(ctx)
	case MetricUniqueProducts:
		return s.UniqueProducts(ctx)
	case MetricTopProduct:
		return s.TopProduct(ctx)
	case MetricSuppliersCount:
		return s.SuppliersCount(ctx)
	case MetricWarehousesCount:
		return s.WarehousesCount(ctx)
	default:
		return nil, fmt.Errorf("%w: metric %q", ErrNotFound, name)
	}
}

func (s *reportingService) Dashboard(ctx context.Context) []MetricResult {
	results := make([]MetricResult, len(Metrics))

	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for i, name := range Metrics {
		i, name := i, name
		g.Go(func() error {
			defer func() {
				if rv := recover(); rv != nil {
					results[i] = MetricResult{Name: name, Err: fmt.Errorf("metric %s panicked: %v", name, rv)}
				}
			}()
			v, err := s.Metric(ctx, name)
			results[i] = MetricResult{Name: name, Value: v, Err: err}
			// Never fail the group: each metric reports its own error.
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *reportingService) allStock(ctx context.Context) ([]StockRecord, error) {
	records, err := s.repo.AllStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock records: %w", err)
	}
	return records, nil
}

func sumQuantities(records []StockRecord) int64 {
	var total int64
	for _, r := range records {
		total += r.Quantity
	}
	return total
}
