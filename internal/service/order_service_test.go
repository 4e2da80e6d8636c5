package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bakerypos/internal/model"
	"bakerypos/internal/repository"
	"bakerypos/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]model.CustomerOrder
}

func (r *fakeOrderRepo) snapshot() func() {
	r.mu.Lock()
	saved := make(map[uuid.UUID]model.CustomerOrder, len(r.orders))
	for k, v := range r.orders {
		saved[k] = v
	}
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.orders = saved
		r.mu.Unlock()
	}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.CustomerOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNo == order.OrderNo {
			return gorm.ErrDuplicatedKey
		}
	}
	order.ID = uuid.New()
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CustomerOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r *fakeOrderRepo) Update(_ context.Context, order *model.CustomerOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeOrderRepo) LastOrderNo(_ context.Context, prefix string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	last := ""
	for _, o := range r.orders {
		if strings.HasPrefix(o.OrderNo, prefix) && o.OrderNo > last {
			last = o.OrderNo
		}
	}
	return last, nil
}

func (r *fakeOrderRepo) List(_ context.Context, status, sessionID string, page, limit int) ([]model.CustomerOrder, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CustomerOrder
	for _, o := range r.orders {
		if (status == "" || o.Status == status) && (sessionID == "" || o.SessionID == sessionID) {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

type orderFixture struct {
	svc       OrderService
	orders    *fakeOrderRepo
	inventory *fakeInventoryRepo
	product   model.Product
	audit     *fakeAuditRepo
}

func newOrderFixture(t *testing.T) orderFixture {
	t.Helper()
	now := func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local) }
	product := model.Product{ID: uuid.New(), Name: "Ube Cake", Price: dec("450"), IsActive: true}

	inventory := newFakeInventoryRepo()
	movements := &fakeMovementRepo{}
	orders := &fakeOrderRepo{orders: make(map[uuid.UUID]model.CustomerOrder)}
	audit := &fakeAuditRepo{}
	tx := &fakeTx{stores: []snapshotter{inventory, movements, orders}}
	products := newFakeProductRepo(product)

	stock := NewStockService(inventory, movements, products, audit, tx, nil, nil).(*stockService)
	stock.now = now
	svc := NewOrderService(orders, products, audit, tx, stock, storage.NewDisabledProofStore(), nil).(*orderService)
	svc.now = now
	return orderFixture{svc: svc, orders: orders, inventory: inventory, product: product, audit: audit}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		expected bool
	}{
		{model.OrderStatusPending, model.OrderStatusConfirmed, true},
		{model.OrderStatusPending, model.OrderStatusReady, false},
		{model.OrderStatusConfirmed, model.OrderStatusReady, true},
		{model.OrderStatusReady, model.OrderStatusCompleted, true},
		{model.OrderStatusReady, model.OrderStatusCancelled, true},
		{model.OrderStatusCompleted, model.OrderStatusCancelled, false},
		{model.OrderStatusCancelled, model.OrderStatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.expected {
			t.Errorf("CanTransition(%s, %s) = %v, expected %v", tc.from, tc.to, got, tc.expected)
		}
	}
}

func TestPlaceOrderReservesPickupDayStock(t *testing.T) {
	f := newOrderFixture(t)
	f.inventory.put(model.DailyInventory{DateKey: "2024-05-03", ProductID: f.product.ID, NewProductionQty: 5})

	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerName: "  Liza ",
		SessionID:    "sess-1",
		PickupDate:   "5/3/24",
		Items:        []OrderLineRequest{{ProductID: f.product.ID.String(), Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.OrderNo != "ORD-20240501-0001" || order.PickupDate != "2024-05-03" || order.CustomerName != "Liza" {
		t.Fatalf("unexpected order %+v", order)
	}
	if !order.Total.Equal(dec("900")) {
		t.Fatalf("expected total 900, got %s", order.Total)
	}
	if got := f.inventory.get("2024-05-03", f.product.ID); got.ReservedQty != 2 || got.SellableQty != 3 {
		t.Fatalf("unexpected reservation %+v", got)
	}
}

func TestPlaceOrderRollsBackWhenStockIsShort(t *testing.T) {
	f := newOrderFixture(t)
	f.inventory.put(model.DailyInventory{DateKey: "2024-05-01", ProductID: f.product.ID, NewProductionQty: 1})

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerName: "Liza",
		SessionID:    "sess-1",
		PickupDate:   "2024-05-01",
		Items:        []OrderLineRequest{{ProductID: f.product.ID.String(), Quantity: 2}},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if len(f.orders.orders) != 0 {
		t.Fatalf("order was stored despite failed reservation")
	}
}

func TestPlaceOrderRejectsPastPickup(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerName: "Liza",
		PickupDate:   "2024-04-30",
		Items:        []OrderLineRequest{{ProductID: f.product.ID.String(), Quantity: 1}},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestOrderLifecycle(t *testing.T) {
	f := newOrderFixture(t)
	f.inventory.put(model.DailyInventory{DateKey: "2024-05-01", ProductID: f.product.ID, NewProductionQty: 5})
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerName: "Liza",
		SessionID:    "sess-1",
		PickupDate:   "2024-05-01",
		Items:        []OrderLineRequest{{ProductID: f.product.ID.String(), Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if _, err := f.svc.AttachPayment(ctx, order.ID.String(), OrderPaymentRequest{SessionID: "someone-else"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign session, got %v", err)
	}
	if _, err := f.svc.AttachPayment(ctx, order.ID.String(), OrderPaymentRequest{SessionID: "sess-1", PaymentRefNo: " 1234 "}); err != nil {
		t.Fatalf("AttachPayment: %v", err)
	}

	actor := Actor{StaffID: uuid.New()}
	if _, err := f.svc.UpdateStatus(ctx, actor, order.ID.String(), OrderStatusRequest{Status: model.OrderStatusCompleted}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition skipping steps, got %v", err)
	}
	for _, status := range []string{model.OrderStatusConfirmed, model.OrderStatusReady, model.OrderStatusCompleted} {
		if _, err := f.svc.UpdateStatus(ctx, actor, order.ID.String(), OrderStatusRequest{Status: status}); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
	}

	got := f.inventory.get("2024-05-01", f.product.ID)
	if got.ReservedQty != 0 || got.SoldQty != 2 || got.SellableQty != 3 {
		t.Fatalf("unexpected inventory after pickup %+v", got)
	}
	stored, _ := f.svc.GetOrder(ctx, order.ID.String())
	if stored.Status != model.OrderStatusCompleted || stored.PaymentRefNo != "1234" {
		t.Fatalf("unexpected stored order %+v", stored)
	}
	if n := len(f.audit.actions()); n != 3 {
		t.Fatalf("expected 3 status audit entries, got %d", n)
	}
}

func TestCancelOrderReleasesReservation(t *testing.T) {
	f := newOrderFixture(t)
	f.inventory.put(model.DailyInventory{DateKey: "2024-05-01", ProductID: f.product.ID, NewProductionQty: 5})
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerName: "Liza",
		PickupDate:   "2024-05-01",
		Items:        []OrderLineRequest{{ProductID: f.product.ID.String(), Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, Actor{}, order.ID.String(), OrderStatusRequest{Status: model.OrderStatusCancelled}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got := f.inventory.get("2024-05-01", f.product.ID); got.ReservedQty != 0 || got.SellableQty != 5 {
		t.Fatalf("expected reservation released, got %+v", got)
	}
}
