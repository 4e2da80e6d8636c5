package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bakerypos/internal/model"

	"github.com/google/uuid"
)

const testDay = "2024-05-01"

type stockFixture struct {
	svc       *stockService
	inventory *fakeInventoryRepo
	movements *fakeMovementRepo
	events    *recordingPublisher
}

func newStockFixture(t *testing.T) stockFixture {
	t.Helper()
	inventory := newFakeInventoryRepo()
	movements := &fakeMovementRepo{}
	events := &recordingPublisher{}
	tx := &fakeTx{stores: []snapshotter{inventory, movements}}
	svc := NewStockService(inventory, movements, newFakeProductRepo(), &fakeAuditRepo{}, tx, nil, events).(*stockService)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local) }
	return stockFixture{svc: svc, inventory: inventory, movements: movements, events: events}
}

func TestCanAddToCartBlocksBeyondSellable(t *testing.T) {
	f := newStockFixture(t)
	product := uuid.New()
	f.inventory.put(model.DailyInventory{DateKey: testDay, ProductID: product, NewProductionQty: 20, SoldQty: 18})

	check, err := f.svc.CanAddToCart(context.Background(), product, 3, 0)
	if err != nil {
		t.Fatalf("CanAddToCart: %v", err)
	}
	if check.Allowed || check.Sellable != 2 || check.Remaining != 2 {
		t.Fatalf("expected 3 units blocked with 2 sellable, got %+v", check)
	}

	check, err = f.svc.CanAddToCart(context.Background(), product, 1, 1)
	if err != nil {
		t.Fatalf("CanAddToCart: %v", err)
	}
	if !check.Allowed {
		t.Fatalf("expected 1 more unit next to 1 in cart to fit, got %+v", check)
	}

	check, err = f.svc.CanAddToCart(context.Background(), uuid.New(), 1, 0)
	if err != nil {
		t.Fatalf("CanAddToCart: %v", err)
	}
	if check.Allowed || check.Sellable != 0 {
		t.Fatalf("expected product without inventory to be blocked, got %+v", check)
	}

	if _, err := f.svc.CanAddToCart(context.Background(), product, 0, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero request, got %v", err)
	}
}

func TestDeductForSaleIsIdempotent(t *testing.T) {
	f := newStockFixture(t)
	bread, cake := uuid.New(), uuid.New()
	f.inventory.put(model.DailyInventory{DateKey: testDay, ProductID: bread, NewProductionQty: 30})
	f.inventory.put(model.DailyInventory{DateKey: testDay, ProductID: cake, CarryoverQty: 2, NewProductionQty: 3})

	sale := &model.Sale{
		ID:      uuid.New(),
		SaleNo:  "S-20240501-0001",
		DateKey: testDay,
		Items: []model.SaleItem{
			{ProductID: bread, Quantity: 4},
			{ProductID: cake, Quantity: 1},
			{ProductID: bread, Quantity: 2},
		},
	}

	res := f.svc.DeductForSale(context.Background(), sale)
	if res.Err() != nil || res.Applied != 2 {
		t.Fatalf("expected 2 products applied, got %+v", res)
	}
	if got := f.inventory.get(testDay, bread); got.SoldQty != 6 || got.SellableQty != 24 {
		t.Fatalf("unexpected bread record %+v", got)
	}

	res = f.svc.DeductForSale(context.Background(), sale)
	if res.Applied != 0 || res.Skipped != 2 {
		t.Fatalf("expected replay to skip both products, got %+v", res)
	}
	if got := f.inventory.get(testDay, bread); got.SoldQty != 6 {
		t.Fatalf("replay changed sold quantity to %d", got.SoldQty)
	}
}

func TestDeductForSaleReportsMissingInventoryPerProduct(t *testing.T) {
	f := newStockFixture(t)
	stocked, missing := uuid.New(), uuid.New()
	f.inventory.put(model.DailyInventory{DateKey: testDay, ProductID: stocked, NewProductionQty: 5})

	sale := &model.Sale{ID: uuid.New(), DateKey: testDay, Items: []model.SaleItem{
		{ProductID: stocked, Quantity: 1},
		{ProductID: missing, Quantity: 1},
	}}
	res := f.svc.DeductForSale(context.Background(), sale)
	if res.Applied != 1 || len(res.Failures) != 1 || res.Failures[0].ProductID != missing.String() {
		t.Fatalf("expected one applied and one failure, got %+v", res)
	}
	if res.Err() == nil {
		t.Fatalf("expected summarized error")
	}
}

func TestSoldOutTimestampAndSellableFloor(t *testing.T) {
	f := newStockFixture(t)
	product := uuid.New()
	f.inventory.put(model.DailyInventory{DateKey: testDay, ProductID: product, NewProductionQty: 2})

	sale := &model.Sale{ID: uuid.New(), DateKey: testDay, Items: []model.SaleItem{{ProductID: product, Quantity: 3}}}
	if res := f.svc.DeductForSale(context.Background(), sale); res.Err() != nil {
		t.Fatalf("DeductForSale: %v", res.Err())
	}
	got := f.inventory.get(testDay, product)
	if got.SellableQty != 0 || got.SoldOutAt == nil {
		t.Fatalf("expected sold out record with sellable 0, got %+v", got)
	}
}

func TestRestoreForCancellationOnlyRestoresDeducted(t *testing.T) {
	f := newStockFixture(t)
	deducted, pending := uuid.New(), uuid.New()
	f.inventory.put(model.DailyInventory{DateKey: testDay, ProductID: deducted, NewProductionQty: 10})
	f.inventory.put(model.DailyInventory{DateKey: testDay, ProductID: pending, NewProductionQty: 10})

	sale := &model.Sale{ID: uuid.New(), DateKey: testDay, Items: []model.SaleItem{{ProductID: deducted, Quantity: 4}}}
	if res := f.svc.DeductForSale(context.Background(), sale); res.Err() != nil {
		t.Fatalf("DeductForSale: %v", res.Err())
	}

	removed := []model.SaleItem{{ProductID: deducted, Quantity: 1}, {ProductID: pending, Quantity: 2}}
	res := f.svc.RestoreForCancellation(context.Background(), sale, removed, nil)
	if res.Applied != 1 || res.Skipped != 1 {
		t.Fatalf("expected one restore and one skip, got %+v", res)
	}
	if got := f.inventory.get(testDay, deducted); got.CancelledQty != 1 || got.SellableQty != 7 {
		t.Fatalf("unexpected restored record %+v", got)
	}
	if got := f.inventory.get(testDay, pending); got.CancelledQty != 0 {
		t.Fatalf("undeducted product should not be restored: %+v", got)
	}
}

func TestReserveIsAllOrNothing(t *testing.T) {
	f := newStockFixture(t)
	a, b := uuid.New(), uuid.New()
	f.inventory.put(model.DailyInventory{DateKey: testDay, ProductID: a, NewProductionQty: 10})
	f.inventory.put(model.DailyInventory{DateKey: testDay, ProductID: b, ProductName: "Ube Cake", NewProductionQty: 1})

	order := uuid.New()
	err := f.svc.Reserve(context.Background(), testDay, order, []StockLine{{ProductID: a, Quantity: 3}, {ProductID: b, Quantity: 2}})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := f.inventory.get(testDay, a); got.ReservedQty != 0 {
		t.Fatalf("failed reservation left %d reserved", got.ReservedQty)
	}
	if len(f.movements.movements) != 0 {
		t.Fatalf("failed reservation left %d movements", len(f.movements.movements))
	}
}

func TestReserveFulfilRelease(t *testing.T) {
	f := newStockFixture(t)
	product := uuid.New()
	f.inventory.put(model.DailyInventory{DateKey: testDay, ProductID: product, NewProductionQty: 10})
	lines := []StockLine{{ProductID: product, Quantity: 4}}
	ctx := context.Background()

	if err := f.svc.Reserve(ctx, testDay, uuid.New(), lines); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if got := f.inventory.get(testDay, product); got.ReservedQty != 4 || got.SellableQty != 6 {
		t.Fatalf("unexpected record after reserve %+v", got)
	}

	if err := f.svc.Fulfil(ctx, testDay, uuid.New(), lines); err != nil {
		t.Fatalf("Fulfil: %v", err)
	}
	if got := f.inventory.get(testDay, product); got.ReservedQty != 0 || got.SoldQty != 4 || got.SellableQty != 6 {
		t.Fatalf("fulfil should keep sellable unchanged, got %+v", got)
	}

	if err := f.svc.Reserve(ctx, testDay, uuid.New(), lines); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := f.svc.Release(ctx, testDay, uuid.New(), lines); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got := f.inventory.get(testDay, product); got.ReservedQty != 0 || got.SellableQty != 6 {
		t.Fatalf("unexpected record after release %+v", got)
	}
	if len(f.events.events) == 0 {
		t.Fatalf("expected stock events to be published")
	}
}

func TestCarryOverMovesRemainingSellable(t *testing.T) {
	f := newStockFixture(t)
	product := uuid.New()
	f.inventory.put(model.DailyInventory{DateKey: "2024-04-30", ProductID: product, ProductName: "Pandesal", NewProductionQty: 20, SoldQty: 15})

	updated, err := f.svc.CarryOver(context.Background(), Actor{StaffID: uuid.New()}, CarryOverRequest{FromDate: "2024-04-30", ToDate: testDay})
	if err != nil {
		t.Fatalf("CarryOver: %v", err)
	}
	if len(updated) != 1 || updated[0].CarryoverQty != 5 || updated[0].SellableQty != 5 {
		t.Fatalf("unexpected carried record %+v", updated)
	}

	// Running it again does not double the carryover.
	if _, err := f.svc.CarryOver(context.Background(), Actor{}, CarryOverRequest{FromDate: "2024-04-30", ToDate: testDay}); err != nil {
		t.Fatalf("CarryOver: %v", err)
	}
	if got := f.inventory.get(testDay, product); got.CarryoverQty != 5 {
		t.Fatalf("expected carryover to stay 5, got %d", got.CarryoverQty)
	}

	if _, err := f.svc.CarryOver(context.Background(), Actor{}, CarryOverRequest{FromDate: testDay, ToDate: "2024-04-30"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for backwards carry, got %v", err)
	}
}
