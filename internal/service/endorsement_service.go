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

type CountLine struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Counted   int    `json:"counted" binding:"min=0"`
}

type SubmitCountRequest struct {
	Lines []CountLine `json:"lines" binding:"required,dive"`
}

// CountSheet is what the cashier sees before counting.
type CountSheet struct {
	ShiftID string                     `json:"shift_id"`
	Phase   string                     `json:"phase"`
	DateKey string                     `json:"date_key"`
	Lines   []model.ShiftInventoryLine `json:"lines"`
}

// LineVariance fills Variance and ShortageValue from Expected, Counted and UnitPrice.
func LineVariance(line *model.ShiftInventoryLine) {
	line.Variance = line.Counted - line.Expected
	line.ShortageValue = decimal.Zero
	if short := line.Expected - line.Counted; short > 0 {
		line.ShortageValue = line.UnitPrice.Mul(decimal.NewFromInt(int64(short)))
	}
}

// EndExpected is the start count minus units sold during the shift, never below zero.
func EndExpected(startQty, soldQty int) int {
	if e := startQty - soldQty; e > 0 {
		return e
	}
	return 0
}

type EndorsementService interface {
	PrepareStartCount(ctx context.Context, actor Actor) (CountSheet, error)
	SubmitStartCount(ctx context.Context, actor Actor, req SubmitCountRequest) (*model.ShiftInventory, error)
	PrepareEndCount(ctx context.Context, actor Actor) (CountSheet, error)
	SubmitEndCount(ctx context.Context, actor Actor, req SubmitCountRequest) (*model.ShiftInventory, error)
	GetEndorsement(ctx context.Context, shiftID, phase string) (*model.ShiftInventory, error)
}

type endorsementService struct {
	shifts        ShiftService
	inventoryRepo repository.InventoryRepository
	endorseRepo   repository.ShiftInventoryRepository
	productRepo   repository.ProductRepository
	saleRepo      repository.SaleRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
}

func NewEndorsementService(
	shifts ShiftService,
	inventoryRepo repository.InventoryRepository,
	endorseRepo repository.ShiftInventoryRepository,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) EndorsementService {
	return &endorsementService{
		shifts:        shifts,
		inventoryRepo: inventoryRepo,
		endorseRepo:   endorseRepo,
		productRepo:   productRepo,
		saleRepo:      saleRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
	}
}

func (s *endorsementService) activeShift(ctx context.Context, actor Actor) (*model.Shift, error) {
	if actor.ViewOnly {
		return nil, ErrViewOnly
	}
	return s.shifts.GetActiveShift(ctx, actor)
}

func (s *endorsementService) ensureNotEndorsed(ctx context.Context, shiftID uuid.UUID, phase string) error {
	_, err := s.endorseRepo.FindByShiftPhase(ctx, shiftID, phase)
	switch {
	case err == nil:
		return ErrAlreadyEndorsed
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to check endorsement: %w", err)
	}
}

func (s *endorsementService) prices(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	prices := make(map[uuid.UUID]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}
	return prices, nil
}

// startSheet lists every product with positive sellable stock on the shift's day.
func (s *endorsementService) startSheet(ctx context.Context, shift *model.Shift) (CountSheet, error) {
	records, err := s.inventoryRepo.ListByDate(ctx, shift.DateKey)
	if err != nil {
		return CountSheet{}, fmt.Errorf("failed to load inventory: %w", err)
	}
	var ids []uuid.UUID
	for _, r := range records {
		if r.Sellable() > 0 {
			ids = append(ids, r.ProductID)
		}
	}
	prices, err := s.prices(ctx, ids)
	if err != nil {
		return CountSheet{}, err
	}

	sheet := CountSheet{ShiftID: shift.ID.String(), Phase: model.EndorsementStart, DateKey: shift.DateKey}
	for _, r := range records {
		if r.Sellable() <= 0 {
			continue
		}
		sheet.Lines = append(sheet.Lines, model.ShiftInventoryLine{
			ProductID:   r.ProductID,
			ProductName: r.ProductName,
			UnitPrice:   prices[r.ProductID],
			StartQty:    r.Sellable(),
			Expected:    r.Sellable(),
		})
	}
	return sheet, nil
}

// endSheet expects each start-counted product to be down by this shift's sales.
func (s *endorsementService) endSheet(ctx context.Context, shift *model.Shift) (CountSheet, error) {
	start, err := s.endorseRepo.FindByShiftPhase(ctx, shift.ID, model.EndorsementStart)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return CountSheet{}, fmt.Errorf("start endorsement %w", ErrNotFound)
		}
		return CountSheet{}, fmt.Errorf("failed to load start endorsement: %w", err)
	}
	sales, err := s.saleRepo.ListByShift(ctx, shift.ID)
	if err != nil {
		return CountSheet{}, fmt.Errorf("failed to load shift sales: %w", err)
	}
	sold := make(map[uuid.UUID]int)
	for _, sale := range sales {
		for _, item := range sale.Items {
			sold[item.ProductID] += item.Quantity
		}
	}

	sheet := CountSheet{ShiftID: shift.ID.String(), Phase: model.EndorsementEnd, DateKey: shift.DateKey}
	for _, l := range start.Lines {
		sheet.Lines = append(sheet.Lines, model.ShiftInventoryLine{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			StartQty:    l.Counted,
			SoldQty:     sold[l.ProductID],
			Expected:    EndExpected(l.Counted, sold[l.ProductID]),
		})
	}
	return sheet, nil
}

func (s *endorsementService) PrepareStartCount(ctx context.Context, actor Actor) (CountSheet, error) {
	shift, err := s.activeShift(ctx, actor)
	if err != nil {
		return CountSheet{}, err
	}
	if err := s.ensureNotEndorsed(ctx, shift.ID, model.EndorsementStart); err != nil {
		return CountSheet{}, err
	}
	return s.startSheet(ctx, shift)
}

func (s *endorsementService) PrepareEndCount(ctx context.Context, actor Actor) (CountSheet, error) {
	shift, err := s.activeShift(ctx, actor)
	if err != nil {
		return CountSheet{}, err
	}
	if err := s.ensureNotEndorsed(ctx, shift.ID, model.EndorsementEnd); err != nil {
		return CountSheet{}, err
	}
	return s.endSheet(ctx, shift)
}

func (s *endorsementService) SubmitStartCount(ctx context.Context, actor Actor, req SubmitCountRequest) (*model.ShiftInventory, error) {
	shift, err := s.activeShift(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotEndorsed(ctx, shift.ID, model.EndorsementStart); err != nil {
		return nil, err
	}
	sheet, err := s.startSheet(ctx, shift)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, actor, shift, sheet, req)
}

func (s *endorsementService) SubmitEndCount(ctx context.Context, actor Actor, req SubmitCountRequest) (*model.ShiftInventory, error) {
	shift, err := s.activeShift(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotEndorsed(ctx, shift.ID, model.EndorsementEnd); err != nil {
		return nil, err
	}
	sheet, err := s.endSheet(ctx, shift)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, actor, shift, sheet, req)
}

// submit merges the counted quantities into the sheet. Counted products missing
// from the sheet are expected at zero.
func (s *endorsementService) submit(ctx context.Context, actor Actor, shift *model.Shift, sheet CountSheet, req SubmitCountRequest) (*model.ShiftInventory, error) {
	counted := make(map[uuid.UUID]int, len(req.Lines))
	var extra []uuid.UUID
	index := make(map[uuid.UUID]int, len(sheet.Lines))
	for i, l := range sheet.Lines {
		index[l.ProductID] = i
	}
	for _, l := range req.Lines {
		id, err := parseID(l.ProductID, "product")
		if err != nil {
			return nil, err
		}
		if l.Counted < 0 {
			return nil, invalid("counted quantity cannot be negative")
		}
		counted[id] = l.Counted
		if _, ok := index[id]; !ok {
			extra = append(extra, id)
		}
	}

	lines := sheet.Lines
	if len(extra) > 0 {
		products, err := s.productRepo.FindByIDs(ctx, extra)
		if err != nil {
			return nil, fmt.Errorf("failed to load products: %w", err)
		}
		for _, p := range products {
			lines = append(lines, model.ShiftInventoryLine{ProductID: p.ID, ProductName: p.Name, UnitPrice: p.Price})
		}
	}

	endorsement := &model.ShiftInventory{
		ShiftID:            shift.ID,
		Phase:              sheet.Phase,
		StaffID:            actor.StaffID,
		StaffName:          actor.Name,
		DateKey:            shift.DateKey,
		TotalShortageValue: decimal.Zero,
	}
	for _, l := range lines {
		l.Counted = counted[l.ProductID]
		LineVariance(&l)
		endorsement.TotalVariance += l.Variance
		if sheet.Phase == model.EndorsementEnd {
			endorsement.TotalShortageValue = endorsement.TotalShortageValue.Add(l.ShortageValue)
		} else {
			l.ShortageValue = decimal.Zero
		}
		endorsement.Lines = append(endorsement.Lines, l)
	}

	action := model.ActionEndorseStart
	if sheet.Phase == model.EndorsementEnd {
		action = model.ActionEndorseEnd
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.endorseRepo.Create(txCtx, endorsement); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrAlreadyEndorsed
			}
			return fmt.Errorf("failed to save endorsement: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), action, endorsement.ID.String(),
			fmt.Sprintf("%s #%d", shift.DateKey, shift.ShiftNumber),
			map[string]interface{}{
				"total_variance":       endorsement.TotalVariance,
				"total_shortage_value": endorsement.TotalShortageValue.StringFixed(2),
				"lines":                len(endorsement.Lines),
			})
	})
	if err != nil {
		if !errors.Is(err, ErrAlreadyEndorsed) {
			logger.LogError("endorsement", "submit", "save endorsement", shift.ID.String(), err)
		}
		return nil, err
	}
	return endorsement, nil
}

func (s *endorsementService) GetEndorsement(ctx context.Context, shiftID, phase string) (*model.ShiftInventory, error) {
	id, err := parseID(shiftID, "shift")
	if err != nil {
		return nil, err
	}
	if phase != model.EndorsementStart && phase != model.EndorsementEnd {
		return nil, invalid("phase must be start or end")
	}
	endorsement, err := s.endorseRepo.FindByShiftPhase(ctx, id, phase)
	if err != nil {
		return nil, wrapNotFound(err, "endorsement")
	}
	return endorsement, nil
}
