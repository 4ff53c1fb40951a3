// Package memory is an in-process core.Repository.
//
// A unit of work holds the write lock for its whole duration. Its writes are
// staged beside the live state and merged into it only when the callback
// succeeds.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"retail-ops/internal/core"
)

type stockKey struct {
	warehouseID int64
	product     string
}

// state is everything a unit of work may change.
type state struct {
	stock       map[stockKey]core.StockRecord
	adjustments []core.StockAdjustment
	orders      map[int64]core.Order
	nextAdjID   int64
	nextOrderID int64
	orderSeq    int64
}

// Repository keeps the directory and ledger in memory. The zero value is not usable; call New.
type Repository struct {
	mu         sync.RWMutex
	warehouses map[int64]core.Warehouse
	stores     map[int64]core.Store
	suppliers  map[int64]core.Supplier
	st         *state
}

func New() *Repository {
	return &Repository{
		warehouses: make(map[int64]core.Warehouse),
		stores:     make(map[int64]core.Store),
		suppliers:  make(map[int64]core.Supplier),
		st: &state{
			stock:  make(map[stockKey]core.StockRecord),
			orders: make(map[int64]core.Order),
		},
	}
}

var _ core.Repository = (*Repository)(nil)

// ── Directory seeding ────────────────────────────────────────────────────────

// PutWarehouse adds or replaces a warehouse.
func (r *Repository) PutWarehouse(w core.Warehouse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	r.warehouses[w.ID] = w
}

// PutStore adds or replaces a store.
func (r *Repository) PutStore(s core.Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[s.ID] = s
}

// PutSupplier adds or replaces a supplier.
func (r *Repository) PutSupplier(s core.Supplier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suppliers[s.ID] = s
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (r *Repository) GetWarehouse(ctx context.Context, id int64) (*core.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.warehouse(id)
}

func (r *Repository) GetStore(ctx context.Context, id int64) (*core.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store(id)
}

func (r *Repository) GetSupplier(ctx context.Context, id int64) (*core.Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.supplier(id)
}

func (r *Repository) ListWarehouses(ctx context.Context) ([]core.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Warehouse, 0, len(r.warehouses))
	for _, w := range r.warehouses {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repository) CountWarehouses(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.warehouses)), nil
}

func (r *Repository) CountSuppliers(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.suppliers)), nil
}

func (r *Repository) StockByWarehouse(ctx context.Context, warehouseID int64) ([]core.StockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.StockRecord
	for k, v := range r.st.stock {
		if k.warehouseID == warehouseID {
			out = append(out, v)
		}
	}
	sortStock(out)
	return out, nil
}

func (r *Repository) AllStock(ctx context.Context) ([]core.StockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.StockRecord, 0, len(r.st.stock))
	for _, v := range r.st.stock {
		out = append(out, v)
	}
	sortStock(out)
	return out, nil
}

func (r *Repository) ListAdjustments(ctx context.Context, warehouseID int64, limit int) ([]core.StockAdjustment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.StockAdjustment
	for i := len(r.st.adjustments) - 1; i >= 0; i-- {
		a := r.st.adjustments[i]
		if a.WarehouseID != warehouseID {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*core.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.st.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", core.ErrNotFound, id)
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r *Repository) ListOrders(ctx context.Context, status *core.OrderStatus) ([]core.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.Order
	for _, o := range r.st.orders {
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return nil
}

// InTx serializes units of work behind the write lock.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, tx core.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t := &tx{
		repo:        r,
		stock:       make(map[stockKey]core.StockRecord),
		orders:      make(map[int64]core.Order),
		nextAdjID:   r.st.nextAdjID,
		nextOrderID: r.st.nextOrderID,
		orderSeq:    r.st.orderSeq,
	}
	if err := fn(ctx, t); err != nil {
		return err
	}
	t.commit()
	return nil
}

// lookups shared by reads and transactions; callers hold r.mu.

func (r *Repository) warehouse(id int64) (*core.Warehouse, error) {
	w, ok := r.warehouses[id]
	if !ok {
		return nil, fmt.Errorf("%w: warehouse %d", core.ErrNotFound, id)
	}
	return &w, nil
}

func (r *Repository) store(id int64) (*core.Store, error) {
	s, ok := r.stores[id]
	if !ok {
		return nil, fmt.Errorf("%w: store %d", core.ErrNotFound, id)
	}
	if s.WarehouseID != nil {
		wid := *s.WarehouseID
		s.WarehouseID = &wid
	}
	return &s, nil
}

func (r *Repository) supplier(id int64) (*core.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, fmt.Errorf("%w: supplier %d", core.ErrNotFound, id)
	}
	return &s, nil
}

// ── Unit of work ─────────────────────────────────────────────────────────────

// tx stages writes over the live state. Reads check the staged maps first.
type tx struct {
	repo        *Repository
	stock       map[stockKey]core.StockRecord
	adjustments []core.StockAdjustment
	orders      map[int64]core.Order
	nextAdjID   int64
	nextOrderID int64
	orderSeq    int64
}

// commit merges the staged writes into the live state. The caller holds the write lock.
func (t *tx) commit() {
	st := t.repo.st
	for k, v := range t.stock {
		st.stock[k] = v
	}
	st.adjustments = append(st.adjustments, t.adjustments...)
	for id, o := range t.orders {
		st.orders[id] = o
	}
	st.nextAdjID = t.nextAdjID
	st.nextOrderID = t.nextOrderID
	st.orderSeq = t.orderSeq
}

func (t *tx) stockRecord(k stockKey) (core.StockRecord, bool) {
	if rec, ok := t.stock[k]; ok {
		return rec, true
	}
	rec, ok := t.repo.st.stock[k]
	return rec, ok
}

func (t *tx) order(id int64) (core.Order, bool) {
	if o, ok := t.orders[id]; ok {
		return o, true
	}
	o, ok := t.repo.st.orders[id]
	return o, ok
}

func (t *tx) GetWarehouse(ctx context.Context, id int64) (*core.Warehouse, error) {
	return t.repo.warehouse(id)
}

func (t *tx) GetStore(ctx context.Context, id int64) (*core.Store, error) {
	return t.repo.store(id)
}

func (t *tx) GetSupplier(ctx context.Context, id int64) (*core.Supplier, error) {
	return t.repo.supplier(id)
}

func (t *tx) LockStock(ctx context.Context, warehouseID int64, products []string) (map[string]*core.StockRecord, error) {
	out := make(map[string]*core.StockRecord, len(products))
	for _, p := range products {
		if rec, ok := t.stockRecord(stockKey{warehouseID, p}); ok {
			out[p] = &rec
		}
	}
	return out, nil
}

func (t *tx) CreateStock(ctx context.Context, warehouseID int64, product string, unit core.Unit) error {
	k := stockKey{warehouseID, product}
	if _, ok := t.stockRecord(k); ok {
		return nil
	}
	t.stock[k] = core.StockRecord{
		WarehouseID: warehouseID,
		ProductName: product,
		Unit:        unit,
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}

func (t *tx) SaveStock(ctx context.Context, rec *core.StockRecord) error {
	k := stockKey{rec.WarehouseID, rec.ProductName}
	if _, ok := t.stockRecord(k); !ok {
		return fmt.Errorf("%w: stock record %q in warehouse %d", core.ErrNotFound, rec.ProductName, rec.WarehouseID)
	}
	if rec.Quantity < 0 {
		return fmt.Errorf("stock record %q would become negative", rec.ProductName)
	}
	t.stock[k] = *rec
	return nil
}

func (t *tx) AppendAdjustment(ctx context.Context, adj *core.StockAdjustment) error {
	t.nextAdjID++
	adj.ID = t.nextAdjID
	t.adjustments = append(t.adjustments, *adj)
	return nil
}

func (t *tx) NextOrderNumber(ctx context.Context) (int64, error) {
	t.orderSeq++
	return t.orderSeq, nil
}

func (t *tx) InsertOrder(ctx context.Context, o *core.Order) error {
	t.nextOrderID++
	o.ID = t.nextOrderID
	t.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (t *tx) LockOrder(ctx context.Context, id int64) (*core.Order, error) {
	o, ok := t.order(id)
	if !ok {
		return nil, fmt.Errorf("%w: order %d", core.ErrNotFound, id)
	}
	o = cloneOrder(o)
	return &o, nil
}

func (t *tx) UpdateOrder(ctx context.Context, o *core.Order) error {
	if _, ok := t.order(o.ID); !ok {
		return fmt.Errorf("%w: order %d", core.ErrNotFound, o.ID)
	}
	t.orders[o.ID] = cloneOrder(*o)
	return nil
}

func cloneOrder(o core.Order) core.Order {
	items := make([]core.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

func sortStock(recs []core.StockRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].WarehouseID != recs[j].WarehouseID {
			return recs[i].WarehouseID < recs[j].WarehouseID
		}
		return recs[i].ProductName < recs[j].ProductName
	})
}
