package app

// AdjustStockRequest is the input for AdjustStock. QtyAdded is signed.
type AdjustStockRequest struct {
	WarehouseID int64
	ProductName string
	QtyAdded    int64
	Unit        string
	Notes       string
	Actor       string
}

// OrderItemRequest is one requested line of a new order.
type OrderItemRequest struct {
	ProductName  string
	RequestedQty int64
}

// PlaceOrderRequest is the input for PlaceOrder.
type PlaceOrderRequest struct {
	StoreID    int64
	SupplierID int64
	Priority   string
	Notes      string
	Items      []OrderItemRequest
	Actor      string
}

// SetOrderStatusRequest is the input for SetOrderStatus.
type SetOrderStatusRequest struct {
	OrderID int64
	Status  string
	Actor   string
}
