package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"retail-ops/internal/core"
	"retail-ops/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	repo   *memory.Repository
	ledger core.LedgerService
	orders core.OrderService
}

func newOrderFixture(t *testing.T, reserve bool) orderFixture {
	t.Helper()
	repo := newTestRepo(t)
	ledger := core.NewLedgerService(repo)
	book(t, ledger, 1, "Milk 1L", 10, core.UnitLitre)
	book(t, ledger, 1, "Eggs", 40, core.UnitTrays)
	return orderFixture{
		repo:   repo,
		ledger: ledger,
		orders: core.NewOrderService(repo, ledger, core.OrderOptions{ReserveStock: reserve}),
	}
}

func orderFor(items ...core.OrderItemInput) core.OrderInput {
	return core.OrderInput{StoreID: 1, SupplierID: 1, Priority: "high", Items: items, Actor: "clerk"}
}

func TestValidateOrder_ExceedsAvailable(t *testing.T) {
	f := newOrderFixture(t, true)

	_, err := f.orders.ValidateOrder(context.Background(), orderFor(
		core.OrderItemInput{ProductName: "Milk 1L", RequestedQty: 12},
	))
	require.ErrorIs(t, err, core.ErrExceedsAvailable)
	verrs := fieldErrors(t, err)
	assert.Equal(t, "Only 10 litre available", verrs.Fields()["items[0].requested_qty"])

	orders, err := f.orders.ListOrders(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, int64(10), qtyOf(t, f.ledger, 1, "Milk 1L"))
}

func TestValidateOrder_AcceptsFullQuantityAndReserves(t *testing.T) {
	f := newOrderFixture(t, true)
	ctx := context.Background()

	o, err := f.orders.ValidateOrder(ctx, orderFor(
		core.OrderItemInput{ProductName: "Milk 1L", RequestedQty: 10},
	))
	require.NoError(t, err)
	assert.Equal(t, "ORD-001", o.Code)
	assert.Equal(t, core.StatusPending, o.Status)
	assert.Equal(t, core.PriorityHigh, o.Priority)
	assert.Equal(t, int64(1), o.WarehouseID)
	assert.True(t, o.Reserved)
	require.Len(t, o.Items, 1)
	assert.Equal(t, core.UnitLitre, o.Items[0].Unit)

	assert.Equal(t, int64(0), qtyOf(t, f.ledger, 1, "Milk 1L"))

	log, err := f.ledger.ListAdjustments(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, int64(-10), log[0].Delta)
	assert.Equal(t, "reserved for ORD-001", log[0].Note)
	require.NotNil(t, log[0].OrderID)
	assert.Equal(t, o.ID, *log[0].OrderID)
}

func TestValidateOrder_WithoutReservationLeavesStock(t *testing.T) {
	f := newOrderFixture(t, false)

	o, err := f.orders.ValidateOrder(context.Background(), orderFor(
		core.OrderItemInput{ProductName: "Eggs", RequestedQty: 5},
	))
	require.NoError(t, err)
	assert.False(t, o.Reserved)
	assert.Equal(t, int64(40), qtyOf(t, f.ledger, 1, "Eggs"))
}

func TestValidateOrder_CodesAreSequential(t *testing.T) {
	f := newOrderFixture(t, false)
	ctx := context.Background()

	first, err := f.orders.ValidateOrder(ctx, orderFor(core.OrderItemInput{ProductName: "Eggs", RequestedQty: 1}))
	require.NoError(t, err)
	_, err = f.orders.ValidateOrder(ctx, orderFor(core.OrderItemInput{ProductName: "Eggs", RequestedQty: 999}))
	require.Error(t, err)
	second, err := f.orders.ValidateOrder(ctx, orderFor(core.OrderItemInput{ProductName: "Eggs", RequestedQty: 1}))
	require.NoError(t, err)

	assert.Equal(t, "ORD-001", first.Code)
	assert.Equal(t, "ORD-002", second.Code)
}

func TestValidateOrder_CollectsAllFailures(t *testing.T) {
	f := newOrderFixture(t, true)

	_, err := f.orders.ValidateOrder(context.Background(), core.OrderInput{
		StoreID:    1,
		SupplierID: 9,
		Priority:   "asap",
		Items: []core.OrderItemInput{
			{ProductName: "Milk 1L", RequestedQty: 2},
			{ProductName: "Butter", RequestedQty: 1},
			{ProductName: "Eggs", RequestedQty: 0},
			{ProductName: "", RequestedQty: 3},
		},
	})
	verrs := fieldErrors(t, err)

	var fields []string
	for _, fe := range verrs {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{
		"priority",
		"supplier_id",
		"items[1].product_name",
		"items[2].requested_qty",
		"items[3].product_name",
	}, fields)

	assert.ErrorIs(t, err, core.ErrUnknownProduct)
	assert.ErrorIs(t, err, core.ErrInvalidQuantity)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, int64(10), qtyOf(t, f.ledger, 1, "Milk 1L"), "nothing reserved on failure")
}

func TestValidateOrder_EmptyItems(t *testing.T) {
	f := newOrderFixture(t, true)
	_, err := f.orders.ValidateOrder(context.Background(), orderFor())
	verrs := fieldErrors(t, err)
	assert.Contains(t, verrs.Fields(), "items")
}

func TestValidateOrder_StoreChecks(t *testing.T) {
	f := newOrderFixture(t, true)
	ctx := context.Background()

	in := orderFor(core.OrderItemInput{ProductName: "Milk 1L", RequestedQty: 1})
	in.StoreID = 2
	_, err := f.orders.ValidateOrder(ctx, in)
	require.ErrorIs(t, err, core.ErrMissingWarehouseLink)
	assert.Contains(t, fieldErrors(t, err).Fields(), "store_id")

	in.StoreID = 50
	_, err = f.orders.ValidateOrder(ctx, in)
	require.ErrorIs(t, err, core.ErrNotFound)
	assert.NotErrorIs(t, err, core.ErrUnknownProduct, "items are not checked without a warehouse")
}

func TestValidateOrder_RepeatedProductDrawsDownOnce(t *testing.T) {
	f := newOrderFixture(t, true)

	_, err := f.orders.ValidateOrder(context.Background(), orderFor(
		core.OrderItemInput{ProductName: "Milk 1L", RequestedQty: 6},
		core.OrderItemInput{ProductName: "Milk 1L", RequestedQty: 6},
	))
	verrs := fieldErrors(t, err)
	require.Len(t, verrs, 1)
	assert.Equal(t, "items[1].requested_qty", verrs[0].Field)
	assert.Equal(t, "Only 4 litre available", verrs[0].Message)
}

func TestValidateOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := newOrderFixture(t, true)
	ctx := context.Background()

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.orders.ValidateOrder(ctx, orderFor(
				core.OrderItemInput{ProductName: "Milk 1L", RequestedQty: 6},
			))
		}()
	}
	wg.Wait()

	var placed, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			placed++
		case errors.Is(err, core.ErrExceedsAvailable):
			rejected++
			assert.Equal(t, "Only 4 litre available", fieldErrors(t, err).Fields()["items[0].requested_qty"])
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, placed)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, int64(4), qtyOf(t, f.ledger, 1, "Milk 1L"))

	all, err := f.orders.ListOrders(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSetStatus_Lifecycle(t *testing.T) {
	f := newOrderFixture(t, true)
	ctx := context.Background()

	o, err := f.orders.ValidateOrder(ctx, orderFor(core.OrderItemInput{ProductName: "Eggs", RequestedQty: 5}))
	require.NoError(t, err)

	o, err = f.orders.SetStatus(ctx, o.ID, core.StatusApproved, "manager")
	require.NoError(t, err)
	assert.Equal(t, core.StatusApproved, o.Status)
	assert.Equal(t, "manager", o.ApprovedBy)
	require.NotNil(t, o.ApprovedAt)

	o, err = f.orders.SetStatus(ctx, o.ID, core.StatusDelivered, "driver")
	require.NoError(t, err)
	assert.Equal(t, core.StatusDelivered, o.Status)
	require.NotNil(t, o.DeliveredAt)

	_, err = f.orders.SetStatus(ctx, o.ID, core.StatusCancelled, "manager")
	require.ErrorIs(t, err, core.ErrIllegalTransition)

	got, err := f.orders.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusDelivered, got.Status)
	assert.Equal(t, int64(35), qtyOf(t, f.ledger, 1, "Eggs"), "delivery does not move reserved stock again")
}

func TestSetStatus_CancelReleasesReservation(t *testing.T) {
	f := newOrderFixture(t, true)
	ctx := context.Background()

	o, err := f.orders.ValidateOrder(ctx, orderFor(
		core.OrderItemInput{ProductName: "Milk 1L", RequestedQty: 4},
		core.OrderItemInput{ProductName: "Eggs", RequestedQty: 10},
	))
	require.NoError(t, err)
	assert.Equal(t, int64(6), qtyOf(t, f.ledger, 1, "Milk 1L"))

	o, err = f.orders.SetStatus(ctx, o.ID, core.StatusCancelled, "clerk")
	require.NoError(t, err)
	assert.Equal(t, core.StatusCancelled, o.Status)
	assert.False(t, o.Reserved)
	require.NotNil(t, o.CancelledAt)

	assert.Equal(t, int64(10), qtyOf(t, f.ledger, 1, "Milk 1L"))
	assert.Equal(t, int64(40), qtyOf(t, f.ledger, 1, "Eggs"))

	log, err := f.ledger.ListAdjustments(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "released: ORD-001 cancelled", log[0].Note)

	_, err = f.orders.SetStatus(ctx, o.ID, core.StatusApproved, "clerk")
	assert.ErrorIs(t, err, core.ErrIllegalTransition)
}

// lockRecordingRepo records the product lists passed to LockStock.
type lockRecordingRepo struct {
	core.Repository
	mu    sync.Mutex
	locks [][]string
}

type lockRecordingTx struct {
	core.Tx
	repo *lockRecordingRepo
}

func (r *lockRecordingRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx core.Tx) error) error {
	return r.Repository.InTx(ctx, func(ctx context.Context, tx core.Tx) error {
		return fn(ctx, &lockRecordingTx{Tx: tx, repo: r})
	})
}

func (r *lockRecordingRepo) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks = nil
}

func (r *lockRecordingRepo) recorded() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.locks...)
}

func (tx *lockRecordingTx) LockStock(ctx context.Context, warehouseID int64, products []string) (map[string]*core.StockRecord, error) {
	tx.repo.mu.Lock()
	tx.repo.locks = append(tx.repo.locks, append([]string(nil), products...))
	tx.repo.mu.Unlock()
	return tx.Tx.LockStock(ctx, warehouseID, products)
}

func TestSetStatus_CancelLocksRecordsInNameOrder(t *testing.T) {
	base := newOrderFixture(t, true)
	repo := &lockRecordingRepo{Repository: base.repo}
	ledger := core.NewLedgerService(repo)
	orders := core.NewOrderService(repo, ledger, core.OrderOptions{ReserveStock: true})
	ctx := context.Background()

	o, err := orders.ValidateOrder(ctx, orderFor(
		core.OrderItemInput{ProductName: "Milk 1L", RequestedQty: 2},
		core.OrderItemInput{ProductName: "Eggs", RequestedQty: 5},
		core.OrderItemInput{ProductName: "Milk 1L", RequestedQty: 1},
	))
	require.NoError(t, err)
	locks := repo.recorded()
	require.NotEmpty(t, locks)
	assert.Equal(t, []string{"Eggs", "Milk 1L"}, locks[0])

	repo.reset()
	_, err = orders.SetStatus(ctx, o.ID, core.StatusCancelled, "clerk")
	require.NoError(t, err)
	locks = repo.recorded()
	require.NotEmpty(t, locks)
	assert.Equal(t, []string{"Eggs", "Milk 1L"}, locks[0])

	assert.Equal(t, int64(10), qtyOf(t, ledger, 1, "Milk 1L"))
	assert.Equal(t, int64(40), qtyOf(t, ledger, 1, "Eggs"))
}

func TestSetStatus_Errors(t *testing.T) {
	f := newOrderFixture(t, false)
	ctx := context.Background()

	_, err := f.orders.SetStatus(ctx, 404, core.StatusApproved, "x")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.orders.SetStatus(ctx, 1, core.OrderStatus("shipped"), "x")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	o, err := f.orders.ValidateOrder(ctx, orderFor(core.OrderItemInput{ProductName: "Eggs", RequestedQty: 1}))
	require.NoError(t, err)
	_, err = f.orders.SetStatus(ctx, o.ID, core.StatusDelivered, "x")
	assert.ErrorIs(t, err, core.ErrIllegalTransition, "pending orders must be approved first")
	_, err = f.orders.SetStatus(ctx, o.ID, core.StatusPending, "x")
	assert.ErrorIs(t, err, core.ErrIllegalTransition)
}

func TestListOrders_FiltersByStatus(t *testing.T) {
	f := newOrderFixture(t, false)
	ctx := context.Background()

	a, err := f.orders.ValidateOrder(ctx, orderFor(core.OrderItemInput{ProductName: "Eggs", RequestedQty: 1}))
	require.NoError(t, err)
	b, err := f.orders.ValidateOrder(ctx, orderFor(core.OrderItemInput{ProductName: "Eggs", RequestedQty: 2}))
	require.NoError(t, err)
	_, err = f.orders.SetStatus(ctx, a.ID, core.StatusApproved, "m")
	require.NoError(t, err)

	all, err := f.orders.ListOrders(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID, "newest first")

	pending := core.StatusPending
	only, err := f.orders.ListOrders(ctx, &pending)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, b.ID, only[0].ID)

	bogus := core.OrderStatus("lost")
	_, err = f.orders.ListOrders(ctx, &bogus)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
