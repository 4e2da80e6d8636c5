package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bakerypos/internal/logger"
	"bakerypos/internal/model"
	"bakerypos/internal/repository"
	ws "bakerypos/internal/websocket"
	"bakerypos/pkg/daykey"

	"github.com/shopspring/decimal"
)

const shiftNumberAttempts = 3

type StartShiftRequest struct {
	StartingCash decimal.Decimal `json:"starting_cash"`
}

type ExpenseRequest struct {
	Description string          `json:"description" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
}

type EndShiftRequest struct {
	ActualCash decimal.Decimal  `json:"actual_cash"`
	Expenses   []ExpenseRequest `json:"expenses" binding:"dive"`
	Notes      string           `json:"notes"`
}

type UpdateShiftRequest struct {
	ActualCash *decimal.Decimal `json:"actual_cash"`
	Notes      *string          `json:"notes"`
}

type ListShiftsQuery struct {
	DateFrom string
	DateTo   string
	Status   string
	StaffID  string
}

// ShiftTotals are the sales of one shift partitioned by payment method.
type ShiftTotals struct {
	CashSales        decimal.Decimal `json:"cash_sales"`
	GCashSales       decimal.Decimal `json:"gcash_sales"`
	CardSales        decimal.Decimal `json:"card_sales"`
	ChargeSales      decimal.Decimal `json:"charge_sales"`
	OtherSales       decimal.Decimal `json:"other_sales"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TransactionCount int             `json:"transaction_count"`
}

// ShiftClose is the drawer reconciliation of a shift.
type ShiftClose struct {
	ExpectedCash     decimal.Decimal `json:"expected_cash"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	AdjustedExpected decimal.Decimal `json:"adjusted_expected"`
	Variance         decimal.Decimal `json:"variance"`
	BalanceStatus    string          `json:"balance_status"`
}

type ShiftSummary struct {
	Shift        *model.Shift    `json:"shift"`
	Totals       ShiftTotals     `json:"totals"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
}

type EndShiftResult struct {
	Shift     *model.Shift            `json:"shift"`
	Close     ShiftClose              `json:"close"`
	Purchases []model.PendingPurchase `json:"purchases"`
	Warnings  []string                `json:"warnings,omitempty"`
}

// TotalsFromSales sums completed sales. Card and charge sales count as other.
func TotalsFromSales(sales []model.Sale) ShiftTotals {
	t := ShiftTotals{
		CashSales:   decimal.Zero,
		GCashSales:  decimal.Zero,
		CardSales:   decimal.Zero,
		ChargeSales: decimal.Zero,
		OtherSales:  decimal.Zero,
		TotalSales:  decimal.Zero,
	}
	for _, s := range sales {
		if s.Status != "" && s.Status != model.SaleStatusCompleted {
			continue
		}
		switch s.PaymentMethod {
		case model.PaymentCash:
			t.CashSales = t.CashSales.Add(s.Total)
		case model.PaymentGCash:
			t.GCashSales = t.GCashSales.Add(s.Total)
		case model.PaymentCard:
			t.CardSales = t.CardSales.Add(s.Total)
		case model.PaymentCharge:
			t.ChargeSales = t.ChargeSales.Add(s.Total)
		}
		t.TotalSales = t.TotalSales.Add(s.Total)
		t.TransactionCount++
	}
	t.OtherSales = t.CardSales.Add(t.ChargeSales)
	return t
}

// ClassifyVariance is balanced when |variance| < 1, over when positive, short otherwise.
func ClassifyVariance(variance decimal.Decimal) string {
	switch {
	case variance.Abs().LessThan(decimal.NewFromInt(1)):
		return model.BalanceBalanced
	case variance.IsPositive():
		return model.BalanceOver
	default:
		return model.BalanceShort
	}
}

// ComputeShiftClose applies expected = starting + cash sales and
// variance = actual - (expected - expenses).
func ComputeShiftClose(startingCash, cashSales, actualCash decimal.Decimal, expenses []decimal.Decimal) ShiftClose {
	expected := startingCash.Add(cashSales)
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e)
	}
	adjusted := expected.Sub(total)
	variance := actualCash.Sub(adjusted)
	return ShiftClose{
		ExpectedCash:     expected,
		TotalExpenses:    total,
		AdjustedExpected: adjusted,
		Variance:         variance,
		BalanceStatus:    ClassifyVariance(variance),
	}
}

type ShiftService interface {
	StartShift(ctx context.Context, actor Actor, req StartShiftRequest) (*model.Shift, error)
	GetActiveShift(ctx context.Context, actor Actor) (*model.Shift, error)
	GetShiftSummary(ctx context.Context, shiftID string) (ShiftSummary, error)
	EndShift(ctx context.Context, actor Actor, req EndShiftRequest) (EndShiftResult, error)
	UpdateShift(ctx context.Context, actor Actor, shiftID string, req UpdateShiftRequest) (*model.Shift, error)
	DeleteShift(ctx context.Context, actor Actor, shiftID string) error
	ListShifts(ctx context.Context, q ListShiftsQuery, page, limit int) ([]model.Shift, int64, error)
	ListPurchases(ctx context.Context, status string, page, limit int) ([]model.PendingPurchase, int64, error)
	ApprovePurchase(ctx context.Context, actor Actor, purchaseID string) (*model.PendingPurchase, error)
	RejectPurchase(ctx context.Context, actor Actor, purchaseID, reason string) (*model.PendingPurchase, error)
}

type shiftService struct {
	shiftRepo    repository.ShiftRepository
	purchaseRepo repository.PurchaseRepository
	saleRepo     repository.SaleRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	events       EventPublisher
	now          func() time.Time
}

func NewShiftService(
	shiftRepo repository.ShiftRepository,
	purchaseRepo repository.PurchaseRepository,
	saleRepo repository.SaleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
) ShiftService {
	return &shiftService{
		shiftRepo:    shiftRepo,
		purchaseRepo: purchaseRepo,
		saleRepo:     saleRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		events:       publisherOrNoop(events),
		now:          time.Now,
	}
}

func (s *shiftService) StartShift(ctx context.Context, actor Actor, req StartShiftRequest) (*model.Shift, error) {
	if actor.ViewOnly {
		return nil, ErrViewOnly
	}
	if req.StartingCash.IsNegative() {
		return nil, invalid("starting cash cannot be negative")
	}
	if _, err := s.shiftRepo.FindActiveByStaff(ctx, actor.StaffID); err == nil {
		return nil, ErrShiftAlreadyActive
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check active shift: %w", err)
	}

	now := s.now()
	dateKey := daykey.From(now)

	var shift *model.Shift
	var err error
	for attempt := 0; attempt < shiftNumberAttempts; attempt++ {
		shift, err = s.createNumberedShift(ctx, actor, dateKey, now, req.StartingCash)
		if err == nil || !repository.IsUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		logger.LogError("shift", "StartShift", "create shift", dateKey, err)
		return nil, err
	}

	s.events.Publish(ws.TopicShifts, "shift_started", shift)
	return shift, nil
}

// createNumberedShift numbers the shift after the day's highest number; the
// unique (date_key, shift_number) index rejects concurrent duplicates.
func (s *shiftService) createNumberedShift(ctx context.Context, actor Actor, dateKey string, now time.Time, startingCash decimal.Decimal) (*model.Shift, error) {
	var shift *model.Shift
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		last, err := s.shiftRepo.MaxShiftNumber(txCtx, dateKey)
		if err != nil {
			return fmt.Errorf("failed to read last shift number: %w", err)
		}
		shift = &model.Shift{
			StaffID:      actor.StaffID,
			StaffName:    actor.Name,
			Role:         actor.Role,
			DateKey:      dateKey,
			ShiftNumber:  last + 1,
			StartTime:    now,
			StartingCash: startingCash,
			CashSales:    decimal.Zero,
			GCashSales:   decimal.Zero,
			OtherSales:   decimal.Zero,
			TotalSales:   decimal.Zero,
			Status:       model.ShiftStatusActive,
		}
		if err := s.shiftRepo.Create(txCtx, shift); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionStartShift, shift.ID.String(),
			fmt.Sprintf("%s #%d", dateKey, shift.ShiftNumber), map[string]string{"starting_cash": startingCash.StringFixed(2)})
	})
	return shift, err
}

func (s *shiftService) GetActiveShift(ctx context.Context, actor Actor) (*model.Shift, error) {
	shift, err := s.shiftRepo.FindActiveByStaff(ctx, actor.StaffID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShiftNotActive
		}
		return nil, fmt.Errorf("failed to load active shift: %w", err)
	}
	return shift, nil
}

func (s *shiftService) GetShiftSummary(ctx context.Context, shiftID string) (ShiftSummary, error) {
	id, err := parseID(shiftID, "shift")
	if err != nil {
		return ShiftSummary{}, err
	}
	shift, err := s.shiftRepo.FindByID(ctx, id)
	if err != nil {
		return ShiftSummary{}, wrapNotFound(err, "shift")
	}
	sales, err := s.saleRepo.ListByShift(ctx, id)
	if err != nil {
		return ShiftSummary{}, fmt.Errorf("failed to load shift sales: %w", err)
	}
	totals := TotalsFromSales(sales)
	return ShiftSummary{
		Shift:        shift,
		Totals:       totals,
		ExpectedCash: shift.StartingCash.Add(totals.CashSales),
	}, nil
}

func (s *shiftService) EndShift(ctx context.Context, actor Actor, req EndShiftRequest) (EndShiftResult, error) {
	if actor.ViewOnly {
		return EndShiftResult{}, ErrViewOnly
	}
	if req.ActualCash.IsNegative() {
		return EndShiftResult{}, invalid("actual cash cannot be negative")
	}
	amounts := make([]decimal.Decimal, 0, len(req.Expenses))
	for _, e := range req.Expenses {
		if !e.Amount.IsPositive() {
			return EndShiftResult{}, invalid("expense %q must have a positive amount", e.Description)
		}
		amounts = append(amounts, e.Amount)
	}

	shift, err := s.GetActiveShift(ctx, actor)
	if err != nil {
		return EndShiftResult{}, err
	}
	sales, err := s.saleRepo.ListByShift(ctx, shift.ID)
	if err != nil {
		return EndShiftResult{}, fmt.Errorf("failed to load shift sales: %w", err)
	}
	totals := TotalsFromSales(sales)
	closing := ComputeShiftClose(shift.StartingCash, totals.CashSales, req.ActualCash, amounts)

	end := s.now()
	actual := req.ActualCash
	shift.EndTime = &end
	shift.CashSales = totals.CashSales
	shift.GCashSales = totals.GCashSales
	shift.OtherSales = totals.OtherSales
	shift.TotalSales = totals.TotalSales
	shift.TransactionCount = totals.TransactionCount
	shift.ExpectedCash = &closing.ExpectedCash
	shift.TotalExpenses = closing.TotalExpenses
	shift.ActualCash = &actual
	shift.Variance = &closing.Variance
	shift.BalanceStatus = closing.BalanceStatus
	shift.Status = model.ShiftStatusCompleted
	shift.Notes = req.Notes

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.shiftRepo.Update(txCtx, shift); err != nil {
			return fmt.Errorf("failed to complete shift: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionEndShift, shift.ID.String(),
			fmt.Sprintf("%s #%d", shift.DateKey, shift.ShiftNumber), closing)
	})
	if err != nil {
		return EndShiftResult{}, err
	}

	// Expense records are written after the shift commits; a failed one is
	// reported back but never rolls the shift back.
	result := EndShiftResult{Shift: shift, Close: closing}
	for _, e := range req.Expenses {
		purchase := model.PendingPurchase{
			ShiftID:     shift.ID,
			StaffID:     actor.StaffID,
			StaffName:   actor.Name,
			DateKey:     shift.DateKey,
			Description: e.Description,
			Amount:      e.Amount,
			Status:      model.PurchasePending,
		}
		if err := s.purchaseRepo.Create(ctx, &purchase); err != nil {
			logger.LogError("shift", "EndShift", "create pending purchase", purchase, err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to record expense %q: %v", e.Description, err))
			continue
		}
		result.Purchases = append(result.Purchases, purchase)
	}

	s.events.Publish(ws.TopicShifts, "shift_ended", shift)
	return result, nil
}

func (s *shiftService) UpdateShift(ctx context.Context, actor Actor, shiftID string, req UpdateShiftRequest) (*model.Shift, error) {
	id, err := parseID(shiftID, "shift")
	if err != nil {
		return nil, err
	}
	shift, err := s.shiftRepo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "shift")
	}
	if shift.Status != model.ShiftStatusCompleted {
		return nil, fmt.Errorf("%w: only completed shifts can be edited", ErrInvalidTransition)
	}

	before := map[string]interface{}{"actual_cash": shift.ActualCash, "notes": shift.Notes}
	if req.ActualCash != nil {
		if req.ActualCash.IsNegative() {
			return nil, invalid("actual cash cannot be negative")
		}
		actual := *req.ActualCash
		expected := shift.StartingCash.Add(shift.CashSales)
		if shift.ExpectedCash != nil {
			expected = *shift.ExpectedCash
		}
		variance := actual.Sub(expected.Sub(shift.TotalExpenses))
		shift.ActualCash = &actual
		shift.Variance = &variance
		shift.BalanceStatus = ClassifyVariance(variance)
	}
	if req.Notes != nil {
		shift.Notes = *req.Notes
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.shiftRepo.Update(txCtx, shift); err != nil {
			return fmt.Errorf("failed to update shift: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionUpdateShift, shift.ID.String(),
			fmt.Sprintf("%s #%d", shift.DateKey, shift.ShiftNumber),
			map[string]interface{}{"before": before, "after": req})
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *shiftService) DeleteShift(ctx context.Context, actor Actor, shiftID string) error {
	id, err := parseID(shiftID, "shift")
	if err != nil {
		return err
	}
	shift, err := s.shiftRepo.FindByID(ctx, id)
	if err != nil {
		return wrapNotFound(err, "shift")
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.shiftRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete shift: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionDeleteShift, shift.ID.String(),
			fmt.Sprintf("%s #%d", shift.DateKey, shift.ShiftNumber), shift)
	})
}

func (s *shiftService) ListShifts(ctx context.Context, q ListShiftsQuery, page, limit int) ([]model.Shift, int64, error) {
	filter := repository.ShiftFilter{DateFrom: q.DateFrom, DateTo: q.DateTo, Status: q.Status}
	if q.StaffID != "" {
		id, err := parseID(q.StaffID, "staff")
		if err != nil {
			return nil, 0, err
		}
		filter.StaffID = &id
	}
	return s.shiftRepo.List(ctx, filter, page, limit)
}

func (s *shiftService) ListPurchases(ctx context.Context, status string, page, limit int) ([]model.PendingPurchase, int64, error) {
	return s.purchaseRepo.List(ctx, status, page, limit)
}

func (s *shiftService) ApprovePurchase(ctx context.Context, actor Actor, purchaseID string) (*model.PendingPurchase, error) {
	return s.reviewPurchase(ctx, actor, purchaseID, model.PurchaseApproved, "")
}

func (s *shiftService) RejectPurchase(ctx context.Context, actor Actor, purchaseID, reason string) (*model.PendingPurchase, error) {
	if reason == "" {
		return nil, invalid("rejection reason is required")
	}
	return s.reviewPurchase(ctx, actor, purchaseID, model.PurchaseRejected, reason)
}

func (s *shiftService) reviewPurchase(ctx context.Context, actor Actor, purchaseID, status, reason string) (*model.PendingPurchase, error) {
	id, err := parseID(purchaseID, "purchase")
	if err != nil {
		return nil, err
	}

	var purchase *model.PendingPurchase
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		purchase, err = s.purchaseRepo.FindByID(txCtx, id)
		if err != nil {
			return wrapNotFound(err, "purchase")
		}
		if purchase.Status != model.PurchasePending {
			return fmt.Errorf("%w: purchase is already %s", ErrInvalidTransition, purchase.Status)
		}

		now := s.now()
		purchase.Status = status
		purchase.ApprovedBy = actor.ref()
		purchase.ApprovedAt = &now
		purchase.RejectionReason = reason
		if err := s.purchaseRepo.Update(txCtx, purchase); err != nil {
			return fmt.Errorf("failed to update purchase: %w", err)
		}

		action := model.ActionApprovePurchase
		if status == model.PurchaseRejected {
			action = model.ActionRejectPurchase
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), action, purchase.ID.String(), purchase.Description,
			map[string]string{"amount": purchase.Amount.StringFixed(2), "reason": reason})
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}
