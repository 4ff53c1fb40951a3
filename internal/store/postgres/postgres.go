// Package postgres implements core.Repository on PostgreSQL through pgx.
// Units of work are database transactions; stock and order rows are held with
// SELECT ... FOR UPDATE until commit.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"retail-ops/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ core.Repository = (*Repository)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ── Directory ────────────────────────────────────────────────────────────────

func (r *Repository) GetWarehouse(ctx context.Context, id int64) (*core.Warehouse, error) {
	return getWarehouse(ctx, r.pool, id)
}

func (r *Repository) GetStore(ctx context.Context, id int64) (*core.Store, error) {
	return getStore(ctx, r.pool, id)
}

func (r *Repository) GetSupplier(ctx context.Context, id int64) (*core.Supplier, error) {
	return getSupplier(ctx, r.pool, id)
}

func getWarehouse(ctx context.Context, q querier, id int64) (*core.Warehouse, error) {
	var w core.Warehouse
	err := q.QueryRow(ctx, `
		SELECT id, code, name, address, capacity, manager, created_at
		FROM warehouses WHERE id = $1
	`, id).Scan(&w.ID, &w.Code, &w.Name, &w.Address, &w.Capacity, &w.Manager, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: warehouse %d", core.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch warehouse %d: %w", id, err)
	}
	return &w, nil
}

func getStore(ctx context.Context, q querier, id int64) (*core.Store, error) {
	var s core.Store
	err := q.QueryRow(ctx, `
		SELECT id, code, name, address, warehouse_id
		FROM stores WHERE id = $1
	`, id).Scan(&s.ID, &s.Code, &s.Name, &s.Address, &s.WarehouseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: store %d", core.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch store %d: %w", id, err)
	}
	return &s, nil
}

func getSupplier(ctx context.Context, q querier, id int64) (*core.Supplier, error) {
	var s core.Supplier
	err := q.QueryRow(ctx, "SELECT id, name, contact FROM suppliers WHERE id = $1", id).
		Scan(&s.ID, &s.Name, &s.Contact)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: supplier %d", core.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch supplier %d: %w", id, err)
	}
	return &s, nil
}

func (r *Repository) ListWarehouses(ctx context.Context) ([]core.Warehouse, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, name, address, capacity, manager, created_at
		FROM warehouses ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []core.Warehouse
	for rows.Next() {
		var w core.Warehouse
		if err := rows.Scan(&w.ID, &w.Code, &w.Name, &w.Address, &w.Capacity, &w.Manager, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func (r *Repository) CountWarehouses(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM warehouses").Scan(&n)
	return n, err
}

func (r *Repository) CountSuppliers(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM suppliers").Scan(&n)
	return n, err
}

// ── Stock ────────────────────────────────────────────────────────────────────

const stockColumns = "warehouse_id, product_name, quantity, unit, updated_at"

func (r *Repository) StockByWarehouse(ctx context.Context, warehouseID int64) ([]core.StockRecord, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+stockColumns+" FROM stock_records WHERE warehouse_id = $1 ORDER BY product_name",
		warehouseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock: %w", err)
	}
	return collectStock(rows)
}

func (r *Repository) AllStock(ctx context.Context) ([]core.StockRecord, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+stockColumns+" FROM stock_records ORDER BY warehouse_id, product_name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock: %w", err)
	}
	return collectStock(rows)
}

func collectStock(rows pgx.Rows) ([]core.StockRecord, error) {
	defer rows.Close()
	var out []core.StockRecord
	for rows.Next() {
		var rec core.StockRecord
		var unit string
		if err := rows.Scan(&rec.WarehouseID, &rec.ProductName, &rec.Quantity, &unit, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock record: %w", err)
		}
		rec.Unit = core.Unit(unit)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) ListAdjustments(ctx context.Context, warehouseID int64, limit int) ([]core.StockAdjustment, error) {
	query := `
		SELECT id, warehouse_id, product_name, delta, unit, previous_qty, new_qty,
		       note, order_id, actor, created_at
		FROM stock_adjustments
		WHERE warehouse_id = $1
		ORDER BY id DESC
	`
	args := []any{warehouseID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustments: %w", err)
	}
	defer rows.Close()

	var out []core.StockAdjustment
	for rows.Next() {
		var a core.StockAdjustment
		var unit string
		if err := rows.Scan(&a.ID, &a.WarehouseID, &a.ProductName, &a.Delta, &unit,
			&a.PreviousQty, &a.NewQty, &a.Note, &a.OrderID, &a.Actor, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		a.Unit = core.Unit(unit)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ── Orders ───────────────────────────────────────────────────────────────────

const orderColumns = `
	id, order_code, store_id, warehouse_id, supplier_id, priority, notes, status,
	items, reserved, requested_by, approved_by,
	created_at, updated_at, approved_at, delivered_at, cancelled_at`

func scanOrder(row pgx.Row) (*core.Order, error) {
	var o core.Order
	var priority, status string
	var items []byte
	if err := row.Scan(
		&o.ID, &o.Code, &o.StoreID, &o.WarehouseID, &o.SupplierID, &priority, &o.Notes, &status,
		&items, &o.Reserved, &o.RequestedBy, &o.ApprovedBy,
		&o.CreatedAt, &o.UpdatedAt, &o.ApprovedAt, &o.DeliveredAt, &o.CancelledAt,
	); err != nil {
		return nil, err
	}
	o.Priority = core.Priority(priority)
	o.Status = core.OrderStatus(status)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items of order %d: %w", o.ID, err)
	}
	return &o, nil
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*core.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", core.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", id, err)
	}
	return o, nil
}

func (r *Repository) ListOrders(ctx context.Context, status *core.OrderStatus) ([]core.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders"
	var args []any
	if status != nil {
		query += " WHERE status = $1"
		args = append(args, string(*status))
	}
	query += " ORDER BY id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []core.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// ── Unit of work ─────────────────────────────────────────────────────────────

func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, tx core.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) GetWarehouse(ctx context.Context, id int64) (*core.Warehouse, error) {
	return getWarehouse(ctx, t.tx, id)
}

func (t *pgTx) GetStore(ctx context.Context, id int64) (*core.Store, error) {
	return getStore(ctx, t.tx, id)
}

func (t *pgTx) GetSupplier(ctx context.Context, id int64) (*core.Supplier, error) {
	return getSupplier(ctx, t.tx, id)
}

// LockStock locks rows in product-name order so concurrent multi-item orders
// cannot deadlock on each other.
func (t *pgTx) LockStock(ctx context.Context, warehouseID int64, products []string) (map[string]*core.StockRecord, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+stockColumns+`
		FROM stock_records
		WHERE warehouse_id = $1 AND product_name = ANY($2)
		ORDER BY product_name
		FOR UPDATE
	`, warehouseID, products)
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock rows: %w", err)
	}
	records, err := collectStock(rows)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*core.StockRecord, len(records))
	for i := range records {
		out[records[i].ProductName] = &records[i]
	}
	return out, nil
}

func (t *pgTx) CreateStock(ctx context.Context, warehouseID int64, product string, unit core.Unit) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO stock_records (warehouse_id, product_name, quantity, unit)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (warehouse_id, product_name) DO NOTHING
	`, warehouseID, product, string(unit))
	return err
}

func (t *pgTx) SaveStock(ctx context.Context, rec *core.StockRecord) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE stock_records SET quantity = $3, updated_at = $4
		WHERE warehouse_id = $1 AND product_name = $2
	`, rec.WarehouseID, rec.ProductName, rec.Quantity, rec.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: stock record %q in warehouse %d", core.ErrNotFound, rec.ProductName, rec.WarehouseID)
	}
	return nil
}

func (t *pgTx) AppendAdjustment(ctx context.Context, adj *core.StockAdjustment) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO stock_adjustments
			(warehouse_id, product_name, delta, unit, previous_qty, new_qty, note, order_id, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, adj.WarehouseID, adj.ProductName, adj.Delta, string(adj.Unit), adj.PreviousQty, adj.NewQty,
		adj.Note, adj.OrderID, adj.Actor, adj.CreatedAt,
	).Scan(&adj.ID)
}

// NextOrderNumber uses a sequence, so a rolled-back order leaves a gap in codes.
func (t *pgTx) NextOrderNumber(ctx context.Context) (int64, error) {
	var n int64
	err := t.tx.QueryRow(ctx, "SELECT nextval('order_code_seq')").Scan(&n)
	return n, err
}

func (t *pgTx) InsertOrder(ctx context.Context, o *core.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}
	return t.tx.QueryRow(ctx, `
		INSERT INTO orders
			(order_code, store_id, warehouse_id, supplier_id, priority, notes, status,
			 items, reserved, requested_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, o.Code, o.StoreID, o.WarehouseID, o.SupplierID, string(o.Priority), o.Notes, string(o.Status),
		items, o.Reserved, o.RequestedBy, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
}

func (t *pgTx) LockOrder(ctx context.Context, id int64) (*core.Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", core.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to lock order %d: %w", id, err)
	}
	return o, nil
}

func (t *pgTx) UpdateOrder(ctx context.Context, o *core.Order) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, reserved = $3, approved_by = $4, updated_at = $5,
		    approved_at = $6, delivered_at = $7, cancelled_at = $8
		WHERE id = $1
	`, o.ID, string(o.Status), o.Reserved, o.ApprovedBy, o.UpdatedAt,
		o.ApprovedAt, o.DeliveredAt, o.CancelledAt,
	)
	return err
}
