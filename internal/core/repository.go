package core

import "context"

// Directory is read access to warehouses, stores and suppliers.
// Lookups of missing ids return an error wrapping ErrNotFound.
type Directory interface {
	GetWarehouse(ctx context.Context, id int64) (*Warehouse, error)
	GetStore(ctx context.Context, id int64) (*Store, error)
	GetSupplier(ctx context.Context, id int64) (*Supplier, error)
}

// Repository is the persistence contract behind the services.
// Reads outside InTx see only committed state.
type Repository interface {
	Directory

	ListWarehouses(ctx context.Context) ([]Warehouse, error)
	CountWarehouses(ctx context.Context) (int64, error)
	CountSuppliers(ctx context.Context) (int64, error)

	// StockByWarehouse returns the records of one warehouse ordered by product name.
	StockByWarehouse(ctx context.Context, warehouseID int64) ([]StockRecord, error)
	// AllStock returns every record ordered by warehouse id, then product name.
	AllStock(ctx context.Context) ([]StockRecord, error)
	// ListAdjustments returns the newest adjustments first. limit <= 0 means no limit.
	ListAdjustments(ctx context.Context, warehouseID int64, limit int) ([]StockAdjustment, error)

	GetOrder(ctx context.Context, id int64) (*Order, error)
	// ListOrders returns orders newest first, optionally filtered by status.
	ListOrders(ctx context.Context, status *OrderStatus) ([]Order, error)

	Ping(ctx context.Context) error

	// InTx runs fn in one serialized unit of work. If fn returns an error
	// nothing it wrote is kept.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the write side of the repository, valid only inside InTx.
type Tx interface {
	Directory

	// LockStock returns the existing records for the given products, keyed by
	// product name, and holds them against concurrent writers until the unit
	// of work ends. Missing products are absent from the map.
	LockStock(ctx context.Context, warehouseID int64, products []string) (map[string]*StockRecord, error)
	// CreateStock inserts an empty record if none exists for the key.
	CreateStock(ctx context.Context, warehouseID int64, product string, unit Unit) error
	// SaveStock writes back a record obtained from LockStock.
	SaveStock(ctx context.Context, rec *StockRecord) error
	// AppendAdjustment stores the entry and assigns its ID.
	AppendAdjustment(ctx context.Context, adj *StockAdjustment) error

	// NextOrderNumber draws from the order code sequence.
	NextOrderNumber(ctx context.Context) (int64, error)
	// InsertOrder stores a new order and assigns its ID.
	InsertOrder(ctx context.Context, o *Order) error
	// LockOrder loads an order and holds it until the unit of work ends.
	LockOrder(ctx context.Context, id int64) (*Order, error)
	// UpdateOrder writes back status, audit fields and timestamps.
	UpdateOrder(ctx context.Context, o *Order) error
}
