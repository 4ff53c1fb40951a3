// Package seed holds the demo directory and opening stock used by the memory
// driver and the restore-seed tool.
package seed

import (
	"context"
	"fmt"

	"retail-ops/internal/core"
	"retail-ops/internal/store/memory"
)

// OpeningStock is one initial quantity booked through the ledger.
type OpeningStock struct {
	WarehouseID int64
	ProductName string
	Qty         int64
	Unit        core.Unit
}

func ptr(v int64) *int64 { return &v }

var (
	Warehouses = []core.Warehouse{
		{ID: 1, Code: "WH-CEN", Name: "Central Warehouse", Address: "12 Dock Road", Capacity: 1000, Manager: "central-ops@example.com"},
		{ID: 2, Code: "WH-NTH", Name: "North Depot", Address: "4 Ridge Lane", Capacity: 500, Manager: "north-ops@example.com"},
	}

	Stores = []core.Store{
		{ID: 1, Code: "ST-DT", Name: "Downtown Store", Address: "1 Main Street", WarehouseID: ptr(1)},
		{ID: 2, Code: "ST-ML", Name: "Mall Outlet", Address: "Level 2, City Mall", WarehouseID: ptr(2)},
		{ID: 3, Code: "ST-AP", Name: "Airport Kiosk", Address: "Terminal B"},
	}

	Suppliers = []core.Supplier{
		{ID: 1, Name: "Fresh Farms", Contact: "orders@freshfarms.example.com"},
		{ID: 2, Name: "Dairy Co", Contact: "+1-555-0102"},
	}

	Stock = []OpeningStock{
		{WarehouseID: 1, ProductName: "Milk 1L", Qty: 10, Unit: core.UnitLitre},
		{WarehouseID: 1, ProductName: "Eggs", Qty: 40, Unit: core.UnitTrays},
		{WarehouseID: 1, ProductName: "Rice", Qty: 250, Unit: core.UnitKg},
		{WarehouseID: 1, ProductName: "Paper Bags", Qty: 6, Unit: core.UnitPieces},
		{WarehouseID: 2, ProductName: "Milk 1L", Qty: 60, Unit: core.UnitLitre},
		{WarehouseID: 2, ProductName: "Apples", Qty: 8, Unit: core.UnitKg},
	}
)

// BookOpeningStock records every opening quantity as a ledger adjustment.
func BookOpeningStock(ctx context.Context, ledger core.LedgerService, actor string) error {
	for _, s := range Stock {
		_, err := ledger.ApplyAdjustment(ctx, core.AdjustmentInput{
			WarehouseID: s.WarehouseID,
			ProductName: s.ProductName,
			Delta:       s.Qty,
			Unit:        string(s.Unit),
			Note:        "opening stock",
			Actor:       actor,
		})
		if err != nil {
			return fmt.Errorf("failed to book opening stock for %q: %w", s.ProductName, err)
		}
	}
	return nil
}

// Memory loads the demo directory and opening stock into an in-memory repository.
func Memory(ctx context.Context, repo *memory.Repository) error {
	for _, w := range Warehouses {
		repo.PutWarehouse(w)
	}
	for _, s := range Stores {
		repo.PutStore(s)
	}
	for _, s := range Suppliers {
		repo.PutSupplier(s)
	}
	return BookOpeningStock(ctx, core.NewLedgerService(repo), "seed")
}
