package core

import "time"

// Warehouse is a storage location that owns StockRecords.
// Capacity is the rated number of units it can hold.
type Warehouse struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Capacity  int64     `json:"capacity"`
	Manager   string    `json:"manager"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a retail outlet replenished from at most one warehouse.
type Store struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	WarehouseID *int64 `json:"warehouse_id,omitempty"`
}

// Supplier is a directory entry referenced by orders.
type Supplier struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// StockRecord holds the current quantity of one product in one warehouse.
// The pair (WarehouseID, ProductName) is unique and Quantity is never negative.
type StockRecord struct {
	WarehouseID int64     `json:"warehouse_id"`
	ProductName string    `json:"product_name"`
	Quantity    int64     `json:"qty"`
	Unit        Unit      `json:"unit"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StockAdjustment is one append-only entry in the stock log.
// OrderID is set when the change reserves or releases stock for an order.
type StockAdjustment struct {
	ID          int64     `json:"id"`
	WarehouseID int64     `json:"warehouse_id"`
	ProductName string    `json:"product_name"`
	Delta       int64     `json:"delta"`
	Unit        Unit      `json:"unit"`
	PreviousQty int64     `json:"previous_qty"`
	NewQty      int64     `json:"new_qty"`
	Note        string    `json:"note"`
	OrderID     *int64    `json:"order_id,omitempty"`
	Actor       string    `json:"actor,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// StockLevel is the quantity and unit of a product as reported by GetStock.
type StockLevel struct {
	Qty  int64 `json:"qty"`
	Unit Unit  `json:"unit"`
}

// WarehouseStock is the read view returned by GetStock.
type WarehouseStock struct {
	WarehouseID   int64                 `json:"warehouse_id"`
	WarehouseName string                `json:"warehouse_name"`
	Stock         map[string]StockLevel `json:"stock"`
}

// AdjustmentInput describes a signed change to a StockRecord.
type AdjustmentInput struct {
	WarehouseID int64
	ProductName string
	Delta       int64
	Unit        string
	Note        string
	Actor       string
	OrderID     *int64
}

// AdjustmentResult is returned by a successful adjustment.
type AdjustmentResult struct {
	Record      StockRecord
	PreviousQty int64
	Adjustment  StockAdjustment
}
