package service

import (
	"context"
	"errors"
	"testing"

	"bakerypos/internal/model"

	"github.com/google/uuid"
)

func TestLineVariance(t *testing.T) {
	short := &model.ShiftInventoryLine{Expected: 10, Counted: 7, UnitPrice: dec("12.50")}
	LineVariance(short)
	if short.Variance != -3 || !short.ShortageValue.Equal(dec("37.5")) {
		t.Fatalf("unexpected shortage line %+v", short)
	}

	over := &model.ShiftInventoryLine{Expected: 4, Counted: 6, UnitPrice: dec("10")}
	LineVariance(over)
	if over.Variance != 2 || !over.ShortageValue.IsZero() {
		t.Fatalf("surplus should carry no shortage value, got %+v", over)
	}
}

func TestEndExpected(t *testing.T) {
	if got := EndExpected(20, 18); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := EndExpected(5, 9); got != 0 {
		t.Fatalf("expected floor at 0, got %d", got)
	}
}

type endorsementFixture struct {
	svc     EndorsementService
	sales   *fakeSaleRepo
	audit   *fakeAuditRepo
	cashier Actor
	shiftID uuid.UUID
	bread   model.Product
	pie     model.Product
	cookie  model.Product
	cake    model.Product
}

func newEndorsementFixture() endorsementFixture {
	f := endorsementFixture{
		sales:   newFakeSaleRepo(),
		audit:   &fakeAuditRepo{},
		cashier: cashier("Ana"),
		shiftID: uuid.New(),
		bread:   model.Product{ID: uuid.New(), Name: "Pandesal", Price: dec("100"), IsActive: true},
		pie:     model.Product{ID: uuid.New(), Name: "Buko Pie", Price: dec("50"), IsActive: true},
		cookie:  model.Product{ID: uuid.New(), Name: "Polvoron", Price: dec("20"), IsActive: true},
		cake:    model.Product{ID: uuid.New(), Name: "Ube Cake", Price: dec("400"), IsActive: true},
	}
	inventory := newFakeInventoryRepo()
	inventory.put(model.DailyInventory{DateKey: testDay, ProductID: f.bread.ID, ProductName: f.bread.Name, NewProductionQty: 10})
	inventory.put(model.DailyInventory{DateKey: testDay, ProductID: f.pie.ID, ProductName: f.pie.Name, CarryoverQty: 4})
	inventory.put(model.DailyInventory{DateKey: testDay, ProductID: f.cake.ID, ProductName: f.cake.Name, NewProductionQty: 2, SoldQty: 2})
	shifts := newFakeShiftRepo(model.Shift{
		ID: f.shiftID, StaffID: f.cashier.StaffID, DateKey: testDay, ShiftNumber: 1, Status: model.ShiftStatusActive,
	})
	endorsements := newFakeEndorsementRepo()
	tx := &fakeTx{}
	shiftSvc := NewShiftService(shifts, newFakePurchaseRepo(), f.sales, f.audit, tx, nil)
	products := newFakeProductRepo(f.bread, f.pie, f.cookie, f.cake)
	f.svc = NewEndorsementService(shiftSvc, inventory, endorsements, products, f.sales, f.audit, tx)
	return f
}

func lineFor(e *model.ShiftInventory, productID uuid.UUID) (model.ShiftInventoryLine, bool) {
	for _, l := range e.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return model.ShiftInventoryLine{}, false
}

func (f endorsementFixture) count(pairs map[uuid.UUID]int) SubmitCountRequest {
	var req SubmitCountRequest
	for id, n := range pairs {
		req.Lines = append(req.Lines, CountLine{ProductID: id.String(), Counted: n})
	}
	return req
}

func TestSubmitStartCount(t *testing.T) {
	f := newEndorsementFixture()
	ctx := context.Background()

	sheet, err := f.svc.PrepareStartCount(ctx, f.cashier)
	if err != nil {
		t.Fatalf("PrepareStartCount: %v", err)
	}
	if len(sheet.Lines) != 2 {
		t.Fatalf("expected only sellable products on the sheet, got %+v", sheet.Lines)
	}

	start, err := f.svc.SubmitStartCount(ctx, f.cashier, f.count(map[uuid.UUID]int{
		f.bread.ID: 10, f.pie.ID: 3, f.cookie.ID: 2,
	}))
	if err != nil {
		t.Fatalf("SubmitStartCount: %v", err)
	}
	if len(start.Lines) != 3 || start.TotalVariance != 1 || !start.TotalShortageValue.IsZero() {
		t.Fatalf("unexpected endorsement %+v", start)
	}
	if l, _ := lineFor(start, f.pie.ID); l.Expected != 4 || l.Variance != -1 || !l.ShortageValue.IsZero() {
		t.Fatalf("start counts carry no shortage value, got %+v", l)
	}
	if l, ok := lineFor(start, f.cookie.ID); !ok || l.Expected != 0 || l.Variance != 2 || l.ProductName != "Polvoron" {
		t.Fatalf("unexpected extra product line %+v", l)
	}
	if _, ok := lineFor(start, f.cake.ID); ok {
		t.Fatalf("sold-out product must not be on the start sheet")
	}

	if _, err := f.svc.SubmitStartCount(ctx, f.cashier, f.count(nil)); !errors.Is(err, ErrAlreadyEndorsed) {
		t.Fatalf("expected ErrAlreadyEndorsed, got %v", err)
	}
	if _, err := f.svc.PrepareStartCount(ctx, f.cashier); !errors.Is(err, ErrAlreadyEndorsed) {
		t.Fatalf("expected ErrAlreadyEndorsed, got %v", err)
	}
}

func TestSubmitEndCountExpectsStartMinusSold(t *testing.T) {
	f := newEndorsementFixture()
	ctx := context.Background()

	if _, err := f.svc.SubmitEndCount(ctx, f.cashier, f.count(nil)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected end count before start to fail, got %v", err)
	}
	if _, err := f.svc.SubmitStartCount(ctx, f.cashier, f.count(map[uuid.UUID]int{
		f.bread.ID: 10, f.pie.ID: 3, f.cookie.ID: 2,
	})); err != nil {
		t.Fatalf("SubmitStartCount: %v", err)
	}

	sale := model.Sale{
		ShiftID: &f.shiftID,
		Status:  model.SaleStatusCompleted,
		Items: []model.SaleItem{
			{ProductID: f.bread.ID, Quantity: 3},
			{ProductID: f.pie.ID, Quantity: 5},
		},
	}
	if err := f.sales.Create(ctx, &sale); err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	other := uuid.New()
	if err := f.sales.Create(ctx, &model.Sale{ShiftID: &other, Items: []model.SaleItem{{ProductID: f.bread.ID, Quantity: 9}}}); err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	bread2 := model.Sale{ShiftID: &f.shiftID, Items: []model.SaleItem{{ProductID: f.bread.ID, Quantity: 1}}}
	if err := f.sales.Create(ctx, &bread2); err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	end, err := f.svc.SubmitEndCount(ctx, f.cashier, f.count(map[uuid.UUID]int{
		f.bread.ID: 5, f.pie.ID: 0,
	}))
	if err != nil {
		t.Fatalf("SubmitEndCount: %v", err)
	}
	if l, _ := lineFor(end, f.bread.ID); l.StartQty != 10 || l.SoldQty != 4 || l.Expected != 6 || l.Variance != -1 || !l.ShortageValue.Equal(dec("100")) {
		t.Fatalf("unexpected bread line %+v", l)
	}
	if l, _ := lineFor(end, f.pie.ID); l.Expected != 0 || l.Variance != 0 {
		t.Fatalf("expected pie floored at zero, got %+v", l)
	}
	if l, _ := lineFor(end, f.cookie.ID); l.StartQty != 2 || l.Expected != 2 || l.Counted != 0 || !l.ShortageValue.Equal(dec("40")) {
		t.Fatalf("uncounted product should be short, got %+v", l)
	}
	if end.TotalVariance != -3 || !end.TotalShortageValue.Equal(dec("140")) {
		t.Fatalf("unexpected totals variance=%d shortage=%s", end.TotalVariance, end.TotalShortageValue)
	}
	if _, err := f.svc.SubmitEndCount(ctx, f.cashier, f.count(nil)); !errors.Is(err, ErrAlreadyEndorsed) {
		t.Fatalf("expected ErrAlreadyEndorsed, got %v", err)
	}
	if got := f.audit.actions(); len(got) != 2 || got[0] != model.ActionEndorseStart || got[1] != model.ActionEndorseEnd {
		t.Fatalf("unexpected audit %v", got)
	}

	viewer := f.cashier
	viewer.ViewOnly = true
	if _, err := f.svc.PrepareEndCount(ctx, viewer); !errors.Is(err, ErrViewOnly) {
		t.Fatalf("expected ErrViewOnly, got %v", err)
	}
}
