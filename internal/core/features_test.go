package core_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"retail-ops/internal/core"
	"retail-ops/internal/store/memory"

	"github.com/cucumber/godog"
)

var errorKindsByName = map[string]error{
	"not found":              core.ErrNotFound,
	"invalid input":          core.ErrInvalidInput,
	"invalid quantity":       core.ErrInvalidQuantity,
	"insufficient stock":     core.ErrInsufficientStock,
	"exceeds available":      core.ErrExceedsAvailable,
	"unit mismatch":          core.ErrUnitMismatch,
	"unknown product":        core.ErrUnknownProduct,
	"missing warehouse link": core.ErrMissingWarehouseLink,
	"illegal transition":     core.ErrIllegalTransition,
}

type retailTestContext struct {
	repo      *memory.Repository
	ledger    core.LedgerService
	orders    core.OrderService
	reporting core.ReportingService
	lastOrder *core.Order
	err       error
}

func (c *retailTestContext) reset() {
	c.repo = memory.New()
	c.ledger = core.NewLedgerService(c.repo)
	c.orders = core.NewOrderService(c.repo, c.ledger, core.OrderOptions{ReserveStock: true})
	c.reporting = core.NewReportingService(c.repo, core.DefaultLowStockThreshold)
	c.lastOrder = nil
	c.err = nil
}

// ── Given ────────────────────────────────────────────────────────────────────

func (c *retailTestContext) aWarehouseNamedWithCapacity(id int, name string, capacity int) error {
	c.repo.PutWarehouse(core.Warehouse{ID: int64(id), Code: fmt.Sprintf("WH-%d", id), Name: name, Capacity: int64(capacity)})
	return nil
}

func (c *retailTestContext) aStoreLinkedToWarehouse(id, warehouseID int) error {
	wid := int64(warehouseID)
	c.repo.PutStore(core.Store{ID: int64(id), Name: fmt.Sprintf("Store %d", id), WarehouseID: &wid})
	return nil
}

func (c *retailTestContext) aStoreWithNoWarehouse(id int) error {
	c.repo.PutStore(core.Store{ID: int64(id), Name: fmt.Sprintf("Store %d", id)})
	return nil
}

func (c *retailTestContext) aSupplier(id int) error {
	c.repo.PutSupplier(core.Supplier{ID: int64(id), Name: fmt.Sprintf("Supplier %d", id)})
	return nil
}

func (c *retailTestContext) warehouseHolds(warehouseID, qty int, unit, product string) error {
	_, err := c.ledger.ApplyAdjustment(context.Background(), core.AdjustmentInput{
		WarehouseID: int64(warehouseID),
		ProductName: product,
		Delta:       int64(qty),
		Unit:        unit,
		Note:        "opening stock",
	})
	return err
}

func (c *retailTestContext) stockReservationIs(state string) error {
	c.orders = core.NewOrderService(c.repo, c.ledger, core.OrderOptions{ReserveStock: state == "enabled"})
	return nil
}

// ── When ─────────────────────────────────────────────────────────────────────

func (c *retailTestContext) iAdjustInWarehouseBy(product string, warehouseID, delta int, unit string) error {
	_, c.err = c.ledger.ApplyAdjustment(context.Background(), core.AdjustmentInput{
		WarehouseID: int64(warehouseID),
		ProductName: product,
		Delta:       int64(delta),
		Unit:        unit,
	})
	return nil
}

func (c *retailTestContext) placeOrder(storeID, supplierID int, items []core.OrderItemInput) {
	o, err := c.orders.ValidateOrder(context.Background(), core.OrderInput{
		StoreID:    int64(storeID),
		SupplierID: int64(supplierID),
		Items:      items,
	})
	c.err = err
	if err == nil {
		c.lastOrder = o
	}
}

func (c *retailTestContext) storeOrdersOfFromSupplier(storeID, qty int, product string, supplierID int) error {
	c.placeOrder(storeID, supplierID, []core.OrderItemInput{{ProductName: product, RequestedQty: int64(qty)}})
	return nil
}

func (c *retailTestContext) storeOrdersFromSupplier(storeID, supplierID int, table *godog.Table) error {
	var items []core.OrderItemInput
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		qty, err := strconv.ParseInt(strings.TrimSpace(row.Cells[1].Value), 10, 64)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		items = append(items, core.OrderItemInput{ProductName: row.Cells[0].Value, RequestedQty: qty})
	}
	c.placeOrder(storeID, supplierID, items)
	return nil
}

func (c *retailTestContext) iMoveTheLastOrderTo(status string) error {
	if c.lastOrder == nil {
		return errors.New("no order has been placed")
	}
	o, err := c.orders.SetStatus(context.Background(), c.lastOrder.ID, core.OrderStatus(status), "tester")
	c.err = err
	if err == nil {
		c.lastOrder = o
	}
	return nil
}

// ── Then ─────────────────────────────────────────────────────────────────────

func (c *retailTestContext) theRequestSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("expected success but got error: %v", c.err)
	}
	return nil
}

func (c *retailTestContext) theRequestFailsWith(kind string) error {
	target, ok := errorKindsByName[kind]
	if !ok {
		return fmt.Errorf("unknown error kind %q", kind)
	}
	if c.err == nil {
		return errors.New("expected request to fail but it succeeded")
	}
	if !errors.Is(c.err, target) {
		return fmt.Errorf("expected %s, got: %v", kind, c.err)
	}
	return nil
}

func (c *retailTestContext) fieldMessage(field string) (string, error) {
	var verrs core.ValidationErrors
	if !errors.As(c.err, &verrs) {
		return "", fmt.Errorf("expected validation errors, got: %v", c.err)
	}
	msg, ok := verrs.Fields()[field]
	if !ok {
		return "", fmt.Errorf("no error for %q in %v", field, verrs.Fields())
	}
	return msg, nil
}

func (c *retailTestContext) theErrorForIs(field, want string) error {
	msg, err := c.fieldMessage(field)
	if err != nil {
		return err
	}
	if msg != want {
		return fmt.Errorf("expected %q for %s, got %q", want, field, msg)
	}
	return nil
}

func (c *retailTestContext) theErrorForMentions(field, want string) error {
	msg, err := c.fieldMessage(field)
	if err != nil {
		return err
	}
	if !strings.Contains(msg, want) {
		return fmt.Errorf("expected %s error to mention %q, got %q", field, want, msg)
	}
	return nil
}

func (c *retailTestContext) warehouseShouldHold(warehouseID, qty int, product string) error {
	stock, err := c.ledger.GetStock(context.Background(), int64(warehouseID))
	if err != nil {
		return err
	}
	level, ok := stock.Stock[product]
	if !ok {
		return fmt.Errorf("warehouse %d has no record for %q", warehouseID, product)
	}
	if level.Qty != int64(qty) {
		return fmt.Errorf("expected %d of %q, got %d", qty, product, level.Qty)
	}
	return nil
}

func (c *retailTestContext) theOrderIsWithCode(status, code string) error {
	if c.lastOrder == nil {
		return errors.New("no order has been placed")
	}
	if string(c.lastOrder.Status) != status {
		return fmt.Errorf("expected status %s, got %s", status, c.lastOrder.Status)
	}
	if c.lastOrder.Code != code {
		return fmt.Errorf("expected code %s, got %s", code, c.lastOrder.Code)
	}
	return nil
}

func (c *retailTestContext) theMetricIs(name string, want int) error {
	v, err := c.reporting.Metric(context.Background(), name)
	if err != nil {
		return err
	}
	var got int64
	switch x := v.(type) {
	case int64:
		got = x
	case *core.Utilization:
		got = x.Percent
	default:
		return fmt.Errorf("metric %s has non-numeric value %T", name, v)
	}
	if got != int64(want) {
		return fmt.Errorf("expected %s = %d, got %d", name, want, got)
	}
	return nil
}

func (c *retailTestContext) theTopProductIs(name string) error {
	top, err := c.reporting.TopProduct(context.Background())
	if err != nil {
		return err
	}
	if top == nil {
		return errors.New("expected a top product, got none")
	}
	if top.ProductName != name {
		return fmt.Errorf("expected top product %q, got %q", name, top.ProductName)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &retailTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a warehouse (\d+) named "([^"]*)" with capacity (\d+)$`, tc.aWarehouseNamedWithCapacity)
	ctx.Step(`^a store (\d+) linked to warehouse (\d+)$`, tc.aStoreLinkedToWarehouse)
	ctx.Step(`^a store (\d+) with no warehouse$`, tc.aStoreWithNoWarehouse)
	ctx.Step(`^a supplier (\d+)$`, tc.aSupplier)
	ctx.Step(`^warehouse (\d+) holds (\d+) (\w+) of "([^"]*)"$`, tc.warehouseHolds)
	ctx.Step(`^stock reservation is (enabled|disabled)$`, tc.stockReservationIs)

	// When steps
	ctx.Step(`^I adjust "([^"]*)" in warehouse (\d+) by (-?\d+) (\w+)$`, tc.iAdjustInWarehouseBy)
	ctx.Step(`^store (\d+) orders (\d+) of "([^"]*)" from supplier (\d+)$`, tc.storeOrdersOfFromSupplier)
	ctx.Step(`^store (\d+) orders from supplier (\d+):$`, tc.storeOrdersFromSupplier)
	ctx.Step(`^I move the last order to "([^"]*)"$`, tc.iMoveTheLastOrderTo)

	// Then steps
	ctx.Step(`^the request succeeds$`, tc.theRequestSucceeds)
	ctx.Step(`^the request fails with "([^"]*)"$`, tc.theRequestFailsWith)
	ctx.Step(`^the error for "([^"]*)" is "([^"]*)"$`, tc.theErrorForIs)
	ctx.Step(`^the error for "([^"]*)" mentions "([^"]*)"$`, tc.theErrorForMentions)
	ctx.Step(`^warehouse (\d+) should hold (\d+) of "([^"]*)"$`, tc.warehouseShouldHold)
	ctx.Step(`^the order is "([^"]*)" with code "([^"]*)"$`, tc.theOrderIsWithCode)
	ctx.Step(`^the metric "([^"]*)" is (\d+)$`, tc.theMetricIs)
	ctx.Step(`^the top product is "([^"]*)"$`, tc.theTopProductIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
