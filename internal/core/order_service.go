package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// OrderService validates new replenishment orders and moves them through their lifecycle.
type OrderService interface {
	// ValidateOrder checks an order against the store's warehouse stock and, if every
	// check passes, stores it as pending. All failures are returned together as
	// ValidationErrors. When reservation is enabled the requested quantities are
	// taken out of stock in the same unit of work.
	ValidateOrder(ctx context.Context, in OrderInput) (*Order, error)
	// SetStatus applies a lifecycle transition. Cancelling a reserved order puts
	// its quantities back into stock.
	SetStatus(ctx context.Context, orderID int64, status OrderStatus, actor string) (*Order, error)

	GetOrder(ctx context.Context, orderID int64) (*Order, error)
	ListOrders(ctx context.Context, status *OrderStatus) ([]Order, error)
}

// OrderOptions tunes order placement.
type OrderOptions struct {
	// ReserveStock decrements stock when an order is placed and releases it on cancellation.
	ReserveStock bool
}

type orderService struct {
	repo   Repository
	ledger LedgerService
	opts   OrderOptions
	now    func() time.Time
}

func NewOrderService(repo Repository, ledger LedgerService, opts OrderOptions) OrderService {
	return &orderService{
		repo:   repo,
		ledger: ledger,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ── Validation ───────────────────────────────────────────────────────────────

func (s *orderService) ValidateOrder(ctx context.Context, in OrderInput) (*Order, error) {
	var verrs ValidationErrors

	priority, err := ParsePriority(in.Priority)
	if err != nil {
		verrs.Add("priority", ErrInvalidInput, "priority must be one of low, medium, high, urgent")
	}
	if len(in.Items) == 0 {
		verrs.Add("items", ErrInvalidInput, "at least one item is required")
	}

	var order *Order
	err = s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		warehouseID, err := s.resolveWarehouse(ctx, tx, in.StoreID, &verrs)
		if err != nil {
			return err
		}

		if _, err := tx.GetSupplier(ctx, in.SupplierID); err != nil {
			if !notFound(err) {
				return fmt.Errorf("failed to resolve supplier %d: %w", in.SupplierID, err)
			}
			verrs.Add("supplier_id", ErrNotFound, "supplier %d not found", in.SupplierID)
		}

		items, err := s.checkItems(ctx, tx, warehouseID, in.Items, &verrs)
		if err != nil {
			return err
		}
		if err := verrs.OrNil(); err != nil {
			return err
		}

		seq, err := tx.NextOrderNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to allocate order number: %w", err)
		}
		now := s.now()
		o := &Order{
			Code:        FormatOrderCode(seq),
			StoreID:     in.StoreID,
			WarehouseID: warehouseID,
			SupplierID:  in.SupplierID,
			Priority:    priority,
			Notes:       strings.TrimSpace(in.Notes),
			Status:      StatusPending,
			Items:       items,
			Reserved:    s.opts.ReserveStock,
			RequestedBy: in.Actor,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		if s.opts.ReserveStock {
			for _, item := range o.Items {
				_, err := s.ledger.ApplyAdjustmentTx(ctx, tx, AdjustmentInput{
					WarehouseID: warehouseID,
					ProductName: item.ProductName,
					Delta:       -item.RequestedQty,
					Unit:        string(item.Unit),
					Note:        "reserved for " + o.Code,
					Actor:       in.Actor,
					OrderID:     &o.ID,
				})
				if err != nil {
					return fmt.Errorf("failed to reserve %q for %s: %w", item.ProductName, o.Code, err)
				}
			}
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// resolveWarehouse returns the warehouse linked to the store, or 0 after recording
// a field error when the store is missing or unlinked.
func (s *orderService) resolveWarehouse(ctx context.Context, tx Tx, storeID int64, verrs *ValidationErrors) (int64, error) {
	store, err := tx.GetStore(ctx, storeID)
	if err != nil {
		if !notFound(err) {
			return 0, fmt.Errorf("failed to resolve store %d: %w", storeID, err)
		}
		verrs.Add("store_id", ErrNotFound, "store %d not found", storeID)
		return 0, nil
	}
	if store.WarehouseID == nil {
		verrs.Add("store_id", ErrMissingWarehouseLink, "store %q has no linked warehouse", store.Name)
		return 0, nil
	}
	return *store.WarehouseID, nil
}

// checkItems validates lines in input order. Repeated products draw down the
// same record, so two lines of 6 against 10 in stock fail on the second line.
func (s *orderService) checkItems(ctx context.Context, tx Tx, warehouseID int64, lines []OrderItemInput, verrs *ValidationErrors) ([]OrderItem, error) {
	var records map[string]*StockRecord
	if warehouseID != 0 {
		names := uniqueProductNames(lines)
		if len(names) > 0 {
			var err error
			records, err = tx.LockStock(ctx, warehouseID, names)
			if err != nil {
				return nil, fmt.Errorf("failed to lock stock records: %w", err)
			}
		}
	}

	remaining := make(map[string]int64, len(records))
	for name, rec := range records {
		remaining[name] = rec.Quantity
	}

	items := make([]OrderItem, 0, len(lines))
	for i, line := range lines {
		nameField := fmt.Sprintf("items[%d].product_name", i)
		qtyField := fmt.Sprintf("items[%d].requested_qty", i)
		name := strings.TrimSpace(line.ProductName)

		if name == "" {
			verrs.Add(nameField, ErrInvalidInput, "product name is required")
		}
		if line.RequestedQty <= 0 {
			verrs.Add(qtyField, ErrInvalidQuantity, "requested quantity must be a positive integer")
		}
		if name == "" || warehouseID == 0 {
			continue
		}

		rec, ok := records[name]
		if !ok {
			verrs.Add(nameField, ErrUnknownProduct, "%q is not stocked in warehouse %d", name, warehouseID)
			continue
		}
		if line.RequestedQty <= 0 {
			continue
		}
		if line.RequestedQty > remaining[name] {
			verrs.Add(qtyField, ErrExceedsAvailable, "Only %d %s available", remaining[name], rec.Unit)
			continue
		}
		remaining[name] -= line.RequestedQty
		items = append(items, OrderItem{ProductName: name, RequestedQty: line.RequestedQty, Unit: rec.Unit})
	}
	return items, nil
}

func uniqueProductNames(lines []OrderItemInput) []string {
	seen := make(map[string]bool, len(lines))
	var names []string
	for _, l := range lines {
		name := strings.TrimSpace(l.ProductName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

func (s *orderService) SetStatus(ctx context.Context, orderID int64, status OrderStatus, actor string) (*Order, error) {
	if _, err := ParseOrderStatus(string(status)); err != nil {
		return nil, err
	}

	var order *Order
	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.CanTransition(status) {
			return fmt.Errorf("%w: order %s cannot move from %s to %s", ErrIllegalTransition, o.Code, o.Status, status)
		}

		now := s.now()
		switch status {
		case StatusApproved:
			o.ApprovedAt = &now
			o.ApprovedBy = actor
		case StatusDelivered:
			o.DeliveredAt = &now
		case StatusCancelled:
			o.CancelledAt = &now
			if o.Reserved {
				if err := s.release(ctx, tx, o, actor); err != nil {
					return err
				}
				o.Reserved = false
			}
		}
		o.Status = status
		o.UpdatedAt = now

		if err := tx.UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("failed to update order %s: %w", o.Code, err)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// release returns the reserved quantities of a cancelled order to stock. The
// order's records are locked up front in name order, the same order placement
// takes them in.
func (s *orderService) release(ctx context.Context, tx Tx, o *Order, actor string) error {
	lines := make([]OrderItemInput, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, OrderItemInput{ProductName: item.ProductName})
	}
	if names := uniqueProductNames(lines); len(names) > 0 {
		if _, err := tx.LockStock(ctx, o.WarehouseID, names); err != nil {
			return fmt.Errorf("failed to lock stock records: %w", err)
		}
	}

	for _, item := range o.Items {
		_, err := s.ledger.ApplyAdjustmentTx(ctx, tx, AdjustmentInput{
			WarehouseID: o.WarehouseID,
			ProductName: item.ProductName,
			Delta:       item.RequestedQty,
			Unit:        string(item.Unit),
			Note:        "released: " + o.Code + " cancelled",
			Actor:       actor,
			OrderID:     &o.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to release %q for %s: %w", item.ProductName, o.Code, err)
		}
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *orderService) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

func (s *orderService) ListOrders(ctx context.Context, status *OrderStatus) ([]Order, error) {
	if status != nil {
		if _, err := ParseOrderStatus(string(*status)); err != nil {
			return nil, err
		}
	}
	orders, err := s.repo.ListOrders(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
