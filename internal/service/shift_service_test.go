package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bakerypos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestShiftCloseBalanced(t *testing.T) {
	sales := []model.Sale{
		{PaymentMethod: model.PaymentCash, Total: dec("120"), Status: model.SaleStatusCompleted},
		{PaymentMethod: model.PaymentGCash, Total: dec("300"), Status: model.SaleStatusCompleted},
		{PaymentMethod: model.PaymentCash, Total: dec("999"), Status: model.SaleStatusVoided},
	}
	totals := TotalsFromSales(sales)
	if !totals.CashSales.Equal(dec("120")) || !totals.GCashSales.Equal(dec("300")) || totals.TransactionCount != 2 {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if !totals.TotalSales.Equal(dec("420")) {
		t.Fatalf("expected total sales 420, got %s", totals.TotalSales)
	}

	res := ComputeShiftClose(dec("500"), totals.CashSales, dec("620"), nil)
	if !res.ExpectedCash.Equal(dec("620")) || !res.Variance.IsZero() {
		t.Fatalf("unexpected close %+v", res)
	}
	if res.BalanceStatus != model.BalanceBalanced {
		t.Fatalf("expected balanced, got %s", res.BalanceStatus)
	}
}

func TestShiftCloseSubtractsApprovedExpenses(t *testing.T) {
	res := ComputeShiftClose(dec("500"), dec("120"), dec("540"), []decimal.Decimal{dec("50"), dec("25")})
	if !res.TotalExpenses.Equal(dec("75")) || !res.AdjustedExpected.Equal(dec("545")) {
		t.Fatalf("unexpected expense handling %+v", res)
	}
	if !res.Variance.Equal(dec("-5")) || res.BalanceStatus != model.BalanceShort {
		t.Fatalf("expected short by 5, got %s %s", res.Variance, res.BalanceStatus)
	}
}

func TestClassifyVariance(t *testing.T) {
	cases := []struct {
		variance string
		expected string
	}{
		{"0", model.BalanceBalanced},
		{"0.99", model.BalanceBalanced},
		{"-0.99", model.BalanceBalanced},
		{"1", model.BalanceOver},
		{"-1", model.BalanceShort},
		{"250.50", model.BalanceOver},
	}
	for _, tc := range cases {
		if got := ClassifyVariance(dec(tc.variance)); got != tc.expected {
			t.Errorf("ClassifyVariance(%s) = %s, expected %s", tc.variance, got, tc.expected)
		}
	}
}

func TestOtherSalesCombineCardAndCharge(t *testing.T) {
	totals := TotalsFromSales([]model.Sale{
		{PaymentMethod: model.PaymentCard, Total: dec("80")},
		{PaymentMethod: model.PaymentCharge, Total: dec("20")},
	})
	if !totals.OtherSales.Equal(dec("100")) || !totals.CashSales.IsZero() {
		t.Fatalf("unexpected totals %+v", totals)
	}
}

type shiftFixture struct {
	svc       *shiftService
	shifts    *fakeShiftRepo
	purchases *fakePurchaseRepo
	sales     *fakeSaleRepo
	audit     *fakeAuditRepo
	events    *recordingPublisher
}

func newShiftFixture(failPurchases ...string) shiftFixture {
	f := shiftFixture{
		shifts:    newFakeShiftRepo(),
		purchases: newFakePurchaseRepo(failPurchases...),
		sales:     newFakeSaleRepo(),
		audit:     &fakeAuditRepo{},
		events:    &recordingPublisher{},
	}
	tx := &fakeTx{stores: []snapshotter{f.shifts, f.sales}}
	f.svc = NewShiftService(f.shifts, f.purchases, f.sales, f.audit, tx, f.events).(*shiftService)
	f.svc.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local) }
	return f
}

func cashier(name string) Actor {
	return Actor{StaffID: uuid.New(), Name: name, Role: model.RoleCashier}
}

func TestStartShiftNumbersAfterDeletedShift(t *testing.T) {
	f := newShiftFixture()
	ctx := context.Background()
	admin := Actor{StaffID: uuid.New(), Name: "Admin", Role: model.RoleAdmin}

	first, err := f.svc.StartShift(ctx, cashier("Ana"), StartShiftRequest{StartingCash: dec("500")})
	if err != nil {
		t.Fatalf("StartShift: %v", err)
	}
	second, err := f.svc.StartShift(ctx, cashier("Ben"), StartShiftRequest{StartingCash: dec("500")})
	if err != nil {
		t.Fatalf("StartShift: %v", err)
	}
	if first.ShiftNumber != 1 || second.ShiftNumber != 2 {
		t.Fatalf("expected shifts #1 and #2, got #%d and #%d", first.ShiftNumber, second.ShiftNumber)
	}

	if err := f.svc.DeleteShift(ctx, admin, first.ID.String()); err != nil {
		t.Fatalf("DeleteShift: %v", err)
	}
	third, err := f.svc.StartShift(ctx, cashier("Cora"), StartShiftRequest{StartingCash: dec("500")})
	if err != nil {
		t.Fatalf("StartShift after delete: %v", err)
	}
	if third.ShiftNumber != 3 || third.DateKey != testDay {
		t.Fatalf("expected %s #3, got %s #%d", testDay, third.DateKey, third.ShiftNumber)
	}
}

func TestStartShiftGuards(t *testing.T) {
	f := newShiftFixture()
	ctx := context.Background()
	ana := cashier("Ana")

	if _, err := f.svc.StartShift(ctx, ana, StartShiftRequest{StartingCash: dec("-1")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative cash, got %v", err)
	}
	viewer := ana
	viewer.ViewOnly = true
	if _, err := f.svc.StartShift(ctx, viewer, StartShiftRequest{}); !errors.Is(err, ErrViewOnly) {
		t.Fatalf("expected ErrViewOnly, got %v", err)
	}
	if _, err := f.svc.StartShift(ctx, ana, StartShiftRequest{StartingCash: dec("500")}); err != nil {
		t.Fatalf("StartShift: %v", err)
	}
	if _, err := f.svc.StartShift(ctx, ana, StartShiftRequest{StartingCash: dec("500")}); !errors.Is(err, ErrShiftAlreadyActive) {
		t.Fatalf("expected ErrShiftAlreadyActive, got %v", err)
	}
	if _, err := f.svc.GetActiveShift(ctx, cashier("Ben")); !errors.Is(err, ErrShiftNotActive) {
		t.Fatalf("expected ErrShiftNotActive, got %v", err)
	}
}

func TestEndShiftReconcilesDrawer(t *testing.T) {
	f := newShiftFixture()
	ctx := context.Background()
	ana := cashier("Ana")

	shift, err := f.svc.StartShift(ctx, ana, StartShiftRequest{StartingCash: dec("500")})
	if err != nil {
		t.Fatalf("StartShift: %v", err)
	}
	for _, s := range []model.Sale{
		{PaymentMethod: model.PaymentCash, Total: dec("120"), Status: model.SaleStatusCompleted},
		{PaymentMethod: model.PaymentGCash, Total: dec("300"), Status: model.SaleStatusCompleted},
		{PaymentMethod: model.PaymentCash, Total: dec("999"), Status: model.SaleStatusVoided},
	} {
		s.ShiftID = &shift.ID
		if err := f.sales.Create(ctx, &s); err != nil {
			t.Fatalf("seed sale: %v", err)
		}
	}

	res, err := f.svc.EndShift(ctx, ana, EndShiftRequest{ActualCash: dec("620")})
	if err != nil {
		t.Fatalf("EndShift: %v", err)
	}
	if !res.Close.ExpectedCash.Equal(dec("620")) || res.Close.BalanceStatus != model.BalanceBalanced {
		t.Fatalf("unexpected close %+v", res.Close)
	}
	if len(res.Warnings) != 0 || len(res.Purchases) != 0 {
		t.Fatalf("expected no expenses, got %+v", res)
	}

	stored, _ := f.shifts.FindByID(ctx, shift.ID)
	if stored.Status != model.ShiftStatusCompleted || stored.EndTime == nil || stored.TransactionCount != 2 {
		t.Fatalf("unexpected stored shift %+v", stored)
	}
	if !stored.CashSales.Equal(dec("120")) || !stored.GCashSales.Equal(dec("300")) || !stored.Variance.IsZero() {
		t.Fatalf("unexpected stored totals %+v", stored)
	}
	if got := f.audit.actions(); len(got) != 2 || got[0] != model.ActionStartShift || got[1] != model.ActionEndShift {
		t.Fatalf("unexpected audit %v", got)
	}
	if got := f.events.events; len(got) != 2 || got[1] != "shifts:shift_ended" {
		t.Fatalf("unexpected events %v", got)
	}
	if _, err := f.svc.EndShift(ctx, ana, EndShiftRequest{ActualCash: dec("620")}); !errors.Is(err, ErrShiftNotActive) {
		t.Fatalf("expected ErrShiftNotActive on second end, got %v", err)
	}
}

func TestEndShiftReportsFailedExpenseWithoutRollback(t *testing.T) {
	f := newShiftFixture("Gas")
	ctx := context.Background()
	ana := cashier("Ana")

	shift, err := f.svc.StartShift(ctx, ana, StartShiftRequest{StartingCash: dec("500")})
	if err != nil {
		t.Fatalf("StartShift: %v", err)
	}
	req := EndShiftRequest{
		ActualCash: dec("420"),
		Expenses: []ExpenseRequest{
			{Description: "Flour", Amount: dec("50")},
			{Description: "Gas", Amount: dec("25")},
		},
	}
	res, err := f.svc.EndShift(ctx, ana, req)
	if err != nil {
		t.Fatalf("EndShift: %v", err)
	}
	// 420 - (500 - 75)
	if !res.Close.Variance.Equal(dec("-5")) || res.Close.BalanceStatus != model.BalanceShort {
		t.Fatalf("unexpected close %+v", res.Close)
	}
	if len(res.Purchases) != 1 || res.Purchases[0].Description != "Flour" || res.Purchases[0].Status != model.PurchasePending {
		t.Fatalf("unexpected purchases %+v", res.Purchases)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", res.Warnings)
	}
	stored, _ := f.shifts.FindByID(ctx, shift.ID)
	if stored.Status != model.ShiftStatusCompleted || !stored.TotalExpenses.Equal(dec("75")) {
		t.Fatalf("shift should stay completed with both expenses counted, got %+v", stored)
	}
}

func TestReviewPurchase(t *testing.T) {
	f := newShiftFixture()
	ctx := context.Background()
	ana := cashier("Ana")
	manager := Actor{StaffID: uuid.New(), Name: "Mara", Role: model.RoleManager}

	if _, err := f.svc.StartShift(ctx, ana, StartShiftRequest{StartingCash: dec("500")}); err != nil {
		t.Fatalf("StartShift: %v", err)
	}
	res, err := f.svc.EndShift(ctx, ana, EndShiftRequest{ActualCash: dec("450"), Expenses: []ExpenseRequest{{Description: "Flour", Amount: dec("50")}}})
	if err != nil {
		t.Fatalf("EndShift: %v", err)
	}
	id := res.Purchases[0].ID.String()

	if _, err := f.svc.RejectPurchase(ctx, manager, id, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected a reason to be required, got %v", err)
	}
	approved, err := f.svc.ApprovePurchase(ctx, manager, id)
	if err != nil {
		t.Fatalf("ApprovePurchase: %v", err)
	}
	if approved.Status != model.PurchaseApproved || approved.ApprovedBy == nil || *approved.ApprovedBy != manager.StaffID {
		t.Fatalf("unexpected purchase %+v", approved)
	}
	if _, err := f.svc.RejectPurchase(ctx, manager, id, "duplicate"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
