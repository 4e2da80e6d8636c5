package service

import (
	"context"
	"errors"
	"fmt"

	"bakerypos/internal/logger"
	"bakerypos/internal/model"
	"bakerypos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" binding:"required,oneof=cash gcash card"`
}

type CreateChargeCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// SyncResult reports a receivable backfill run.
type SyncResult struct {
	Checked int      `json:"checked"`
	Created int      `json:"created"`
	Failed  []string `json:"failed,omitempty"`
}

type ReceivableService interface {
	EnsureReceivable(ctx context.Context, saleID string) (*model.Receivable, error)
	SyncReceivables(ctx context.Context) (SyncResult, error)
	RecordPayment(ctx context.Context, actor Actor, receivableID string, req RecordPaymentRequest) (*model.Receivable, error)
	GetReceivable(ctx context.Context, id string) (*model.Receivable, error)
	ListReceivables(ctx context.Context, status, customerID string, page, limit int) ([]model.Receivable, int64, error)
	CreateCustomer(ctx context.Context, req CreateChargeCustomerRequest) (*model.ChargeCustomer, error)
	ListCustomers(ctx context.Context) ([]model.ChargeCustomer, error)
}

type receivableService struct {
	receivableRepo repository.ReceivableRepository
	customerRepo   repository.ChargeCustomerRepository
	saleRepo       repository.SaleRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
}

func NewReceivableService(
	receivableRepo repository.ReceivableRepository,
	customerRepo repository.ChargeCustomerRepository,
	saleRepo repository.SaleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ReceivableService {
	return &receivableService{
		receivableRepo: receivableRepo,
		customerRepo:   customerRepo,
		saleRepo:       saleRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
	}
}

// newReceivable derives the unpaid receivable of a charge sale.
func newReceivable(sale *model.Sale, customerName string) *model.Receivable {
	return &model.Receivable{
		SaleID:           sale.ID,
		SaleNo:           sale.SaleNo,
		ChargeCustomerID: *sale.ChargeCustomerID,
		CustomerName:     customerName,
		Amount:           sale.Total,
		Balance:          sale.Total,
		Status:           model.ReceivableUnpaid,
	}
}

// EnsureReceivable returns the sale's receivable, creating it when missing.
func (s *receivableService) EnsureReceivable(ctx context.Context, saleID string) (*model.Receivable, error) {
	id, err := parseID(saleID, "sale")
	if err != nil {
		return nil, err
	}
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "sale")
	}
	return s.ensure(ctx, sale)
}

func (s *receivableService) ensure(ctx context.Context, sale *model.Sale) (*model.Receivable, error) {
	if sale.PaymentMethod != model.PaymentCharge || sale.ChargeCustomerID == nil {
		return nil, invalid("sale %s is not a charge sale", sale.SaleNo)
	}
	existing, err := s.receivableRepo.FindBySale(ctx, sale.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load receivable: %w", err)
	}

	name := ""
	if customer, err := s.customerRepo.FindByID(ctx, *sale.ChargeCustomerID); err == nil {
		name = customer.Name
	}
	receivable := newReceivable(sale, name)
	if err := s.receivableRepo.Create(ctx, receivable); err != nil {
		if repository.IsUniqueViolation(err) {
			return s.receivableRepo.FindBySale(ctx, sale.ID)
		}
		return nil, fmt.Errorf("failed to create receivable: %w", err)
	}
	return receivable, nil
}

// SyncReceivables backfills receivables for charge sales that have none.
func (s *receivableService) SyncReceivables(ctx context.Context) (SyncResult, error) {
	sales, err := s.saleRepo.ListChargeWithoutReceivable(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to list charge sales: %w", err)
	}
	result := SyncResult{Checked: len(sales)}
	for i := range sales {
		if _, err := s.ensure(ctx, &sales[i]); err != nil {
			logger.LogError("receivable", "SyncReceivables", "derive receivable", sales[i].SaleNo, err)
			result.Failed = append(result.Failed, sales[i].SaleNo)
			continue
		}
		result.Created++
	}
	return result, nil
}

func (s *receivableService) RecordPayment(ctx context.Context, actor Actor, receivableID string, req RecordPaymentRequest) (*model.Receivable, error) {
	id, err := parseID(receivableID, "receivable")
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, invalid("payment amount must be positive")
	}

	var receivable *model.Receivable
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		receivable, err = s.receivableRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return wrapNotFound(err, "receivable")
		}
		if req.Amount.GreaterThan(receivable.Balance) {
			return fmt.Errorf("%w: balance is %s", ErrOverpayment, receivable.Balance.StringFixed(2))
		}

		receivable.ApplyPayment(req.Amount)
		if err := s.receivableRepo.Update(txCtx, receivable); err != nil {
			return fmt.Errorf("failed to update receivable: %w", err)
		}
		payment := &model.ReceivablePayment{
			ReceivableID: receivable.ID,
			Amount:       req.Amount,
			Method:       req.Method,
			ReceivedBy:   actor.ref(),
		}
		if err := s.receivableRepo.AddPayment(txCtx, payment); err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionRecordPayment, receivable.ID.String(), receivable.SaleNo,
			map[string]string{"amount": req.Amount.StringFixed(2), "method": req.Method, "balance": receivable.Balance.StringFixed(2)})
	})
	if err != nil {
		return nil, err
	}
	return s.receivableRepo.FindByID(ctx, id)
}

func (s *receivableService) GetReceivable(ctx context.Context, id string) (*model.Receivable, error) {
	rid, err := parseID(id, "receivable")
	if err != nil {
		return nil, err
	}
	receivable, err := s.receivableRepo.FindByID(ctx, rid)
	if err != nil {
		return nil, wrapNotFound(err, "receivable")
	}
	return receivable, nil
}

func (s *receivableService) ListReceivables(ctx context.Context, status, customerID string, page, limit int) ([]model.Receivable, int64, error) {
	var customer *uuid.UUID
	if customerID != "" {
		id, err := parseID(customerID, "customer")
		if err != nil {
			return nil, 0, err
		}
		customer = &id
	}
	return s.receivableRepo.List(ctx, status, customer, page, limit)
}

func (s *receivableService) CreateCustomer(ctx context.Context, req CreateChargeCustomerRequest) (*model.ChargeCustomer, error) {
	customer := &model.ChargeCustomer{Name: req.Name, Phone: req.Phone, IsActive: true}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create charge customer: %w", err)
	}
	return customer, nil
}

func (s *receivableService) ListCustomers(ctx context.Context) ([]model.ChargeCustomer, error) {
	return s.customerRepo.List(ctx)
}
