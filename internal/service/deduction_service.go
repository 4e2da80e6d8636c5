package service

import (
	"context"
	"fmt"

	"bakerypos/internal/model"
	"bakerypos/internal/repository"

	"github.com/google/uuid"
)

// DeductionReplayer re-queues a dead-lettered deduction job.
type DeductionReplayer interface {
	Replay(saleID, failureID uuid.UUID) error
}

type DeductionService interface {
	ListFailures(ctx context.Context) ([]model.DeductionFailure, error)
	Replay(ctx context.Context, actor Actor, failureID string) error
}

type deductionService struct {
	failureRepo repository.DeductionFailureRepository
	saleRepo    repository.SaleRepository
	auditRepo   repository.AuditRepository
	queue       DeductionReplayer
}

func NewDeductionService(failureRepo repository.DeductionFailureRepository, saleRepo repository.SaleRepository, auditRepo repository.AuditRepository, queue DeductionReplayer) DeductionService {
	return &deductionService{failureRepo: failureRepo, saleRepo: saleRepo, auditRepo: auditRepo, queue: queue}
}

func (s *deductionService) ListFailures(ctx context.Context) ([]model.DeductionFailure, error) {
	return s.failureRepo.ListUnresolved(ctx)
}

// Replay puts the failed sale back on the queue. The failure is marked resolved
// by the worker once the deduction succeeds.
func (s *deductionService) Replay(ctx context.Context, actor Actor, failureID string) error {
	id, err := parseID(failureID, "deduction failure")
	if err != nil {
		return err
	}
	failure, err := s.failureRepo.FindByID(ctx, id)
	if err != nil {
		return wrapNotFound(err, "deduction failure")
	}
	if failure.ResolvedAt != nil {
		return fmt.Errorf("%w: failure already resolved", ErrInvalidTransition)
	}
	if err := s.saleRepo.UpdateDeductionStatus(ctx, failure.SaleID, model.DeductionPending); err != nil {
		return fmt.Errorf("failed to reset deduction status: %w", err)
	}
	if err := s.queue.Replay(failure.SaleID, failure.ID); err != nil {
		return fmt.Errorf("failed to queue replay: %w", err)
	}
	return writeAudit(ctx, s.auditRepo, actor.ref(), model.ActionReplayDeduction, failure.SaleID.String(), failure.Stage,
		map[string]string{"failure_id": failure.ID.String()})
}
