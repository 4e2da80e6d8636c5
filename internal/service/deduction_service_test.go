package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bakerypos/internal/model"

	"github.com/google/uuid"
)

type fakeReplayer struct {
	calls [][2]uuid.UUID
	err   error
}

func (r *fakeReplayer) Replay(saleID, failureID uuid.UUID) error {
	r.calls = append(r.calls, [2]uuid.UUID{saleID, failureID})
	return r.err
}

func TestReplayRequeuesFailedSale(t *testing.T) {
	sale := model.Sale{ID: uuid.New(), DeductionStatus: model.DeductionFailed}
	failure := model.DeductionFailure{ID: uuid.New(), SaleID: sale.ID, Stage: "stock", Attempts: 3}
	failures := &fakeFailureRepo{failures: map[uuid.UUID]model.DeductionFailure{failure.ID: failure}}
	sales := newFakeSaleRepo(sale)
	audit := &fakeAuditRepo{}
	queue := &fakeReplayer{}
	svc := NewDeductionService(failures, sales, audit, queue)

	if err := svc.Replay(context.Background(), Actor{StaffID: uuid.New()}, failure.ID.String()); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(queue.calls) != 1 || queue.calls[0][0] != sale.ID || queue.calls[0][1] != failure.ID {
		t.Fatalf("unexpected replay calls %v", queue.calls)
	}
	stored, _ := sales.FindByID(context.Background(), sale.ID)
	if stored.DeductionStatus != model.DeductionPending {
		t.Fatalf("expected sale reset to pending, got %s", stored.DeductionStatus)
	}
	if actions := audit.actions(); len(actions) != 1 || actions[0] != model.ActionReplayDeduction {
		t.Fatalf("unexpected audit trail %v", actions)
	}
}

func TestReplayRejectsResolvedFailure(t *testing.T) {
	resolved := time.Now()
	failure := model.DeductionFailure{ID: uuid.New(), SaleID: uuid.New(), ResolvedAt: &resolved}
	failures := &fakeFailureRepo{failures: map[uuid.UUID]model.DeductionFailure{failure.ID: failure}}
	svc := NewDeductionService(failures, newFakeSaleRepo(), &fakeAuditRepo{}, &fakeReplayer{})

	if err := svc.Replay(context.Background(), Actor{}, failure.ID.String()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := svc.Replay(context.Background(), Actor{}, uuid.New().String()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
