package core

import (
	"fmt"
	"time"
)

// Order is a store's replenishment request against its linked warehouse.
// Status follows the machine in OrderStatus. Items never change after creation.
type Order struct {
	ID          int64       `json:"id"`
	Code        string      `json:"order_code"` // ORD-001, ORD-002, ...
	StoreID     int64       `json:"store_id"`
	WarehouseID int64       `json:"warehouse_id"`
	SupplierID  int64       `json:"supplier_id"`
	Priority    Priority    `json:"priority"`
	Notes       string      `json:"notes"`
	Status      OrderStatus `json:"status"`
	Items       []OrderItem `json:"items"`
	Reserved    bool        `json:"reserved"` // stock was decremented when the order was placed
	RequestedBy string      `json:"requested_by,omitempty"`
	ApprovedBy  string      `json:"approved_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	ApprovedAt  *time.Time  `json:"approved_at,omitempty"`
	DeliveredAt *time.Time  `json:"delivered_at,omitempty"`
	CancelledAt *time.Time  `json:"cancelled_at,omitempty"`
}

// OrderItem is one line of an Order. Unit is copied from the StockRecord at validation.
type OrderItem struct {
	ProductName  string `json:"product_name"`
	RequestedQty int64  `json:"requested_qty"`
	Unit         Unit   `json:"unit"`
}

// OrderItemInput is one requested line before validation.
type OrderItemInput struct {
	ProductName  string
	RequestedQty int64
}

// OrderInput is the request to place a new order.
type OrderInput struct {
	StoreID    int64
	SupplierID int64
	Priority   string
	Notes      string
	Items      []OrderItemInput
	Actor      string
}

// FormatOrderCode renders a sequence number as an order code.
func FormatOrderCode(n int64) string {
	return fmt.Sprintf("ORD-%03d", n)
}
