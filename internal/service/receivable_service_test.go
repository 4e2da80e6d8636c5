package service

import (
	"context"
	"errors"
	"testing"

	"bakerypos/internal/model"

	"github.com/google/uuid"
)

func newReceivableFixture(sales ...model.Sale) (ReceivableService, *fakeReceivableRepo, *fakeAuditRepo, *fakeCustomerRepo) {
	receivables := newFakeReceivableRepo()
	audit := &fakeAuditRepo{}
	customers := &fakeCustomerRepo{customers: make(map[uuid.UUID]model.ChargeCustomer)}
	tx := &fakeTx{stores: []snapshotter{receivables}}
	svc := NewReceivableService(receivables, customers, newFakeSaleRepo(sales...), audit, tx)
	return svc, receivables, audit, customers
}

func chargeSale(customerID uuid.UUID, total string) model.Sale {
	return model.Sale{
		ID:               uuid.New(),
		SaleNo:           "S-20240501-0007",
		PaymentMethod:    model.PaymentCharge,
		ChargeCustomerID: &customerID,
		Total:            dec(total),
		Status:           model.SaleStatusCompleted,
	}
}

func TestEnsureReceivableIsIdempotent(t *testing.T) {
	customerID := uuid.New()
	sale := chargeSale(customerID, "350")
	svc, receivables, _, customers := newReceivableFixture(sale)
	customers.customers[customerID] = model.ChargeCustomer{ID: customerID, Name: "Aling Nena"}

	first, err := svc.EnsureReceivable(context.Background(), sale.ID.String())
	if err != nil {
		t.Fatalf("EnsureReceivable: %v", err)
	}
	if first.Status != model.ReceivableUnpaid || !first.Balance.Equal(dec("350")) || first.CustomerName != "Aling Nena" {
		t.Fatalf("unexpected receivable %+v", first)
	}
	second, err := svc.EnsureReceivable(context.Background(), sale.ID.String())
	if err != nil {
		t.Fatalf("EnsureReceivable: %v", err)
	}
	if second.ID != first.ID || len(receivables.receivables) != 1 {
		t.Fatalf("expected the same receivable, got %d stored", len(receivables.receivables))
	}
}

func TestEnsureReceivableRejectsCashSale(t *testing.T) {
	sale := model.Sale{ID: uuid.New(), PaymentMethod: model.PaymentCash}
	svc, _, _, _ := newReceivableFixture(sale)
	if _, err := svc.EnsureReceivable(context.Background(), sale.ID.String()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRecordPaymentPartialThenPaid(t *testing.T) {
	sale := chargeSale(uuid.New(), "500")
	svc, receivables, audit, _ := newReceivableFixture(sale)
	ctx := context.Background()
	rec, err := svc.EnsureReceivable(ctx, sale.ID.String())
	if err != nil {
		t.Fatalf("EnsureReceivable: %v", err)
	}
	actor := Actor{StaffID: uuid.New(), Name: "Ana"}

	rec, err = svc.RecordPayment(ctx, actor, rec.ID.String(), RecordPaymentRequest{Amount: dec("200"), Method: model.PaymentCash})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if rec.Status != model.ReceivablePartial || !rec.Balance.Equal(dec("300")) {
		t.Fatalf("expected partial with 300 left, got %+v", rec)
	}

	if _, err := svc.RecordPayment(ctx, actor, rec.ID.String(), RecordPaymentRequest{Amount: dec("300.01"), Method: model.PaymentCash}); !errors.Is(err, ErrOverpayment) {
		t.Fatalf("expected ErrOverpayment, got %v", err)
	}
	if len(receivables.payments) != 1 {
		t.Fatalf("rejected payment was recorded")
	}

	rec, err = svc.RecordPayment(ctx, actor, rec.ID.String(), RecordPaymentRequest{Amount: dec("300"), Method: model.PaymentGCash})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if rec.Status != model.ReceivablePaid || !rec.Balance.IsZero() {
		t.Fatalf("expected paid, got %+v", rec)
	}
	if n := len(audit.actions()); n != 2 {
		t.Fatalf("expected 2 audit entries, got %d", n)
	}

	if _, err := svc.RecordPayment(ctx, actor, rec.ID.String(), RecordPaymentRequest{Amount: dec("0"), Method: model.PaymentCash}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero payment, got %v", err)
	}
}

func TestSyncReceivablesBackfills(t *testing.T) {
	a := chargeSale(uuid.New(), "100")
	b := chargeSale(uuid.New(), "80")
	svc, receivables, _, _ := newReceivableFixture(a, b)

	res, err := svc.SyncReceivables(context.Background())
	if err != nil {
		t.Fatalf("SyncReceivables: %v", err)
	}
	if res.Checked != 2 || res.Created != 2 || len(res.Failed) != 0 {
		t.Fatalf("unexpected sync result %+v", res)
	}
	if len(receivables.receivables) != 2 {
		t.Fatalf("expected 2 receivables, got %d", len(receivables.receivables))
	}
}
