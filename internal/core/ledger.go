package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// LedgerService owns every change to warehouse stock.
// A StockRecord's quantity moves only through ApplyAdjustment or ApplyAdjustmentTx,
// and each successful change is logged as a StockAdjustment in the same unit of work.
type LedgerService interface {
	// GetStock returns product → {qty, unit} for a warehouse. The map is empty when
	// the warehouse holds nothing; an unknown warehouse is ErrNotFound.
	GetStock(ctx context.Context, warehouseID int64) (*WarehouseStock, error)
	// ApplyAdjustment applies a signed delta in its own unit of work.
	ApplyAdjustment(ctx context.Context, in AdjustmentInput) (*AdjustmentResult, error)
	// ListAdjustments returns the audit log of a warehouse, newest first.
	ListAdjustments(ctx context.Context, warehouseID int64, limit int) ([]StockAdjustment, error)

	// ApplyAdjustmentTx applies a signed delta inside a caller-provided unit of work.
	// Used by OrderService to keep reservations atomic with order writes.
	ApplyAdjustmentTx(ctx context.Context, tx Tx, in AdjustmentInput) (*AdjustmentResult, error)
}

type ledgerService struct {
	repo Repository
	now  func() time.Time
}

func NewLedgerService(repo Repository) LedgerService {
	return &ledgerService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ledgerService) GetStock(ctx context.Context, warehouseID int64) (*WarehouseStock, error) {
	wh, err := s.repo.GetWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.StockByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock for warehouse %d: %w", warehouseID, err)
	}

	stock := make(map[string]StockLevel, len(records))
	for _, r := range records {
		stock[r.ProductName] = StockLevel{Qty: r.Quantity, Unit: r.Unit}
	}
	return &WarehouseStock{WarehouseID: wh.ID, WarehouseName: wh.Name, Stock: stock}, nil
}

func (s *ledgerService) ApplyAdjustment(ctx context.Context, in AdjustmentInput) (*AdjustmentResult, error) {
	if _, err := validateAdjustment(in); err != nil {
		return nil, err
	}

	var result *AdjustmentResult
	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		result, err = s.ApplyAdjustmentTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ledgerService) ListAdjustments(ctx context.Context, warehouseID int64, limit int) ([]StockAdjustment, error) {
	if _, err := s.repo.GetWarehouse(ctx, warehouseID); err != nil {
		return nil, err
	}
	adjustments, err := s.repo.ListAdjustments(ctx, warehouseID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments for warehouse %d: %w", warehouseID, err)
	}
	return adjustments, nil
}

func (s *ledgerService) ApplyAdjustmentTx(ctx context.Context, tx Tx, in AdjustmentInput) (*AdjustmentResult, error) {
	unit, err := validateAdjustment(in)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.ProductName)

	if _, err := tx.GetWarehouse(ctx, in.WarehouseID); err != nil {
		return nil, err
	}

	rec, err := lockOne(ctx, tx, in.WarehouseID, name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		if in.Delta < 0 {
			return nil, fmt.Errorf("%w: no stock of %q in warehouse %d", ErrNotFound, name, in.WarehouseID)
		}
		if err := tx.CreateStock(ctx, in.WarehouseID, name, unit); err != nil {
			return nil, fmt.Errorf("failed to create stock record: %w", err)
		}
		// Another writer may have created it first with a different unit; re-read under lock.
		if rec, err = lockOne(ctx, tx, in.WarehouseID, name); err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, fmt.Errorf("stock record for %q vanished after insert", name)
		}
	}

	if rec.Unit != unit {
		return nil, fmt.Errorf("%w: %q is stocked in %s, not %s", ErrUnitMismatch, name, rec.Unit, unit)
	}
	if in.Delta > 0 && rec.Quantity > math.MaxInt64-in.Delta {
		return nil, fmt.Errorf("%w: adding %d to %q would overflow", ErrInvalidQuantity, in.Delta, name)
	}
	newQty := rec.Quantity + in.Delta
	if newQty < 0 {
		return nil, fmt.Errorf("%w: cannot remove %d, only %d %s of %q available",
			ErrInsufficientStock, -in.Delta, rec.Quantity, rec.Unit, name)
	}

	now := s.now()
	adj := StockAdjustment{
		WarehouseID: in.WarehouseID,
		ProductName: name,
		Delta:       in.Delta,
		Unit:        unit,
		PreviousQty: rec.Quantity,
		NewQty:      newQty,
		Note:        strings.TrimSpace(in.Note),
		OrderID:     in.OrderID,
		Actor:       in.Actor,
		CreatedAt:   now,
	}
	if err := tx.AppendAdjustment(ctx, &adj); err != nil {
		return nil, fmt.Errorf("failed to log stock adjustment: %w", err)
	}

	previous := rec.Quantity
	rec.Quantity = newQty
	rec.UpdatedAt = now
	if err := tx.SaveStock(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to update stock record: %w", err)
	}

	return &AdjustmentResult{Record: *rec, PreviousQty: previous, Adjustment: adj}, nil
}

// validateAdjustment checks the request shape and returns the parsed unit.
func validateAdjustment(in AdjustmentInput) (Unit, error) {
	var verrs ValidationErrors
	if in.WarehouseID <= 0 {
		verrs.Add("warehouse_id", ErrInvalidInput, "warehouse_id is required")
	}
	if strings.TrimSpace(in.ProductName) == "" {
		verrs.Add("product_name", ErrInvalidInput, "product name is required")
	}
	if in.Delta == 0 {
		verrs.Add("qty_added", ErrInvalidQuantity, "quantity change must be a non-zero integer")
	}
	unit, err := ParseUnit(in.Unit)
	if err != nil {
		verrs.Add("unit", ErrInvalidInput, "unit must be one of pcs, kg, litre, trays")
	}
	if err := verrs.OrNil(); err != nil {
		return "", err
	}
	return unit, nil
}

func lockOne(ctx context.Context, tx Tx, warehouseID int64, product string) (*StockRecord, error) {
	recs, err := tx.LockStock(ctx, warehouseID, []string{product})
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock record: %w", err)
	}
	return recs[product], nil
}

// notFound reports whether err is a not-found lookup, as opposed to an infrastructure failure.
func notFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
