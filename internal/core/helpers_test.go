package core_test

import (
	"context"
	"testing"

	"retail-ops/internal/core"
	"retail-ops/internal/store/memory"

	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

// newTestRepo returns a memory repository with two warehouses (capacity 100 and 50),
// a linked store, an unlinked store and one supplier. No stock is booked.
func newTestRepo(t *testing.T) *memory.Repository {
	t.Helper()
	repo := memory.New()
	repo.PutWarehouse(core.Warehouse{ID: 1, Code: "WH-A", Name: "Warehouse A", Capacity: 100})
	repo.PutWarehouse(core.Warehouse{ID: 2, Code: "WH-B", Name: "Warehouse B", Capacity: 50})
	repo.PutStore(core.Store{ID: 1, Code: "ST-A", Name: "Store A", WarehouseID: ptr(1)})
	repo.PutStore(core.Store{ID: 2, Code: "ST-K", Name: "Kiosk"})
	repo.PutSupplier(core.Supplier{ID: 1, Name: "Fresh Farms"})
	return repo
}

// book adds qty of product to a warehouse through the ledger.
func book(t *testing.T, ledger core.LedgerService, warehouseID int64, product string, qty int64, unit core.Unit) {
	t.Helper()
	_, err := ledger.ApplyAdjustment(context.Background(), core.AdjustmentInput{
		WarehouseID: warehouseID,
		ProductName: product,
		Delta:       qty,
		Unit:        string(unit),
		Actor:       "test",
	})
	require.NoError(t, err)
}

func qtyOf(t *testing.T, ledger core.LedgerService, warehouseID int64, product string) int64 {
	t.Helper()
	stock, err := ledger.GetStock(context.Background(), warehouseID)
	require.NoError(t, err)
	return stock.Stock[product].Qty
}

func fieldErrors(t *testing.T, err error) core.ValidationErrors {
	t.Helper()
	var verrs core.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	return verrs
}
