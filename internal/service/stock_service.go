package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bakerypos/internal/cache"
	"bakerypos/internal/logger"
	"bakerypos/internal/model"
	"bakerypos/internal/repository"
	ws "bakerypos/internal/websocket"
	"bakerypos/pkg/daykey"

	"github.com/google/uuid"
)

// Movement reference types
const (
	RefSale  = "sale"
	RefOrder = "order"
	RefAdmin = "admin"
)

type SetDailyInventoryRequest struct {
	DateKey          string `json:"date_key" binding:"required,len=10"`
	ProductID        string `json:"product_id" binding:"required,uuid"`
	CarryoverQty     int    `json:"carryover_qty" binding:"min=0"`
	NewProductionQty int    `json:"new_production_qty" binding:"min=0"`
}

type CarryOverRequest struct {
	FromDate string `json:"from_date" binding:"required,len=10"`
	ToDate   string `json:"to_date" binding:"required,len=10"`
}

// StockLine is a product quantity inside a sale or order.
type StockLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// CartCheck answers whether requested more units fit next to those already in the cart.
type CartCheck struct {
	ProductID string `json:"product_id"`
	Sellable  int    `json:"sellable"`
	InCart    int    `json:"in_cart"`
	Requested int    `json:"requested"`
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
}

// StockEvent is published on the stock topic after every change.
type StockEvent struct {
	DateKey   string `json:"date_key"`
	ProductID string `json:"product_id"`
	Sellable  int    `json:"sellable"`
	SoldOut   bool   `json:"sold_out"`
}

// ProductFailure is one product whose stock change could not be applied.
type ProductFailure struct {
	ProductID string `json:"product_id"`
	Error     string `json:"error"`
}

// DeductionResult collects per-product failures; other products still apply.
type DeductionResult struct {
	Applied  int              `json:"applied"`
	Skipped  int              `json:"skipped"`
	Failures []ProductFailure `json:"failures,omitempty"`
}

// Err summarizes the failures, or nil when every product applied.
func (r DeductionResult) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return fmt.Errorf("%d product(s) failed, first: %s: %s", len(r.Failures), r.Failures[0].ProductID, r.Failures[0].Error)
}

type StockService interface {
	SetDailyInventory(ctx context.Context, actor Actor, req SetDailyInventoryRequest) (*model.DailyInventory, error)
	GetDailyInventory(ctx context.Context, dateKey string) ([]model.DailyInventory, error)
	CarryOver(ctx context.Context, actor Actor, req CarryOverRequest) ([]model.DailyInventory, error)
	CanAddToCart(ctx context.Context, productID uuid.UUID, requestedQty, inCartQty int) (CartCheck, error)
	DeductForSale(ctx context.Context, sale *model.Sale) DeductionResult
	RestoreForCancellation(ctx context.Context, sale *model.Sale, items []model.SaleItem, staffID *uuid.UUID) DeductionResult
	Reserve(ctx context.Context, dateKey string, orderID uuid.UUID, lines []StockLine) error
	Release(ctx context.Context, dateKey string, orderID uuid.UUID, lines []StockLine) error
	Fulfil(ctx context.Context, dateKey string, orderID uuid.UUID, lines []StockLine) error
	ListMovements(ctx context.Context, productID, dateKey string) ([]model.StockMovement, error)
}

type stockService struct {
	inventoryRepo repository.InventoryRepository
	movementRepo  repository.StockMovementRepository
	productRepo   repository.ProductRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	cache         cache.StockCache
	events        EventPublisher
	now           func() time.Time
}

func NewStockService(
	inventoryRepo repository.InventoryRepository,
	movementRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	stockCache cache.StockCache,
	events EventPublisher,
) StockService {
	if stockCache == nil {
		stockCache = cache.NewNoopStockCache()
	}
	return &stockService{
		inventoryRepo: inventoryRepo,
		movementRepo:  movementRepo,
		productRepo:   productRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		cache:         stockCache,
		events:        publisherOrNoop(events),
		now:           time.Now,
	}
}

// stockChange is one product's row-locked read-modify-write.
type stockChange struct {
	dateKey   string
	productID uuid.UUID
	movement  string
	quantity  int
	refType   string
	refID     *uuid.UUID
	staffID   *uuid.UUID
	apply     func(rec *model.DailyInventory) error
}

// applyLocked must run inside a transaction. It returns the updated record.
func (s *stockService) applyLocked(txCtx context.Context, ch stockChange) (*model.DailyInventory, error) {
	rec, err := s.inventoryRepo.FindByDateProductForUpdate(txCtx, ch.dateKey, ch.productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("no daily inventory for product %s on %s: %w", ch.productID, ch.dateKey, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock inventory: %w", err)
	}

	before := rec.Sellable()
	if err := ch.apply(rec); err != nil {
		return nil, err
	}
	rec.Recompute()
	if rec.SellableQty <= 0 && rec.SoldOutAt == nil {
		now := s.now()
		rec.SoldOutAt = &now
	}
	if err := s.inventoryRepo.Save(txCtx, rec); err != nil {
		return nil, fmt.Errorf("failed to save inventory: %w", err)
	}

	movement := &model.StockMovement{
		ProductID:      ch.productID,
		DateKey:        ch.dateKey,
		MovementType:   ch.movement,
		Quantity:       ch.quantity,
		SellableBefore: before,
		SellableAfter:  rec.SellableQty,
		ReferenceType:  ch.refType,
		ReferenceID:    ch.refID,
		StaffID:        ch.staffID,
	}
	if err := s.movementRepo.Create(txCtx, movement); err != nil {
		return nil, fmt.Errorf("failed to write stock movement: %w", err)
	}
	return rec, nil
}

// afterCommit refreshes the cache and notifies listeners.
func (s *stockService) afterCommit(ctx context.Context, records ...*model.DailyInventory) {
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if err := s.cache.SetSellable(ctx, rec.DateKey, rec.ProductID, rec.SellableQty); err != nil {
			logger.LogError("stock", "afterCommit", "update sellable cache", rec.ProductID.String(), err)
		}
		s.events.Publish(ws.TopicStock, "stock_changed", StockEvent{
			DateKey:   rec.DateKey,
			ProductID: rec.ProductID.String(),
			Sellable:  rec.SellableQty,
			SoldOut:   rec.SellableQty <= 0,
		})
	}
}

func (s *stockService) SetDailyInventory(ctx context.Context, actor Actor, req SetDailyInventoryRequest) (*model.DailyInventory, error) {
	dateKey, err := daykey.Normalize(req.DateKey)
	if err != nil {
		return nil, invalid("%v", err)
	}
	productID, err := parseID(req.ProductID, "product")
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, wrapNotFound(err, "product")
	}

	var rec *model.DailyInventory
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.inventoryRepo.FindByDateProductForUpdate(txCtx, dateKey, productID)
		switch {
		case err == nil:
			rec = existing
		case errors.Is(err, repository.ErrNotFound):
			rec = &model.DailyInventory{DateKey: dateKey, ProductID: productID}
		default:
			return fmt.Errorf("failed to load inventory: %w", err)
		}

		before := rec.Sellable()
		previousTotal := rec.TotalAvailable
		rec.ProductName = product.Name
		rec.CarryoverQty = req.CarryoverQty
		rec.NewProductionQty = req.NewProductionQty
		rec.Recompute()
		if rec.SellableQty > 0 {
			rec.SoldOutAt = nil
		}
		if err := s.inventoryRepo.Save(txCtx, rec); err != nil {
			return fmt.Errorf("failed to save inventory: %w", err)
		}

		if delta := rec.TotalAvailable - previousTotal; delta != 0 {
			movement := &model.StockMovement{
				ProductID:      productID,
				DateKey:        dateKey,
				MovementType:   model.MovementProduction,
				Quantity:       delta,
				SellableBefore: before,
				SellableAfter:  rec.SellableQty,
				ReferenceType:  RefAdmin,
				StaffID:        actor.ref(),
			}
			if err := s.movementRepo.Create(txCtx, movement); err != nil {
				return fmt.Errorf("failed to write stock movement: %w", err)
			}
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionSetInventory, rec.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, rec)
	return rec, nil
}

func (s *stockService) GetDailyInventory(ctx context.Context, dateKey string) ([]model.DailyInventory, error) {
	if dateKey == "" {
		dateKey = daykey.From(s.now())
	}
	key, err := daykey.Normalize(dateKey)
	if err != nil {
		return nil, invalid("%v", err)
	}
	return s.inventoryRepo.ListByDate(ctx, key)
}

// CarryOver moves each product's remaining sellable quantity on FromDate into
// the carryover quantity of ToDate.
func (s *stockService) CarryOver(ctx context.Context, actor Actor, req CarryOverRequest) ([]model.DailyInventory, error) {
	fromKey, err := daykey.Normalize(req.FromDate)
	if err != nil {
		return nil, invalid("%v", err)
	}
	toKey, err := daykey.Normalize(req.ToDate)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if toKey <= fromKey {
		return nil, invalid("target day must be after source day")
	}

	source, err := s.inventoryRepo.ListByDate(ctx, fromKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load source inventory: %w", err)
	}

	var updated []*model.DailyInventory
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, src := range source {
			remaining := src.Sellable()
			if remaining <= 0 {
				continue
			}
			rec, err := s.inventoryRepo.FindByDateProductForUpdate(txCtx, toKey, src.ProductID)
			switch {
			case err == nil:
			case errors.Is(err, repository.ErrNotFound):
				rec = &model.DailyInventory{DateKey: toKey, ProductID: src.ProductID, ProductName: src.ProductName}
			default:
				return fmt.Errorf("failed to load target inventory: %w", err)
			}

			before := rec.Sellable()
			delta := remaining - rec.CarryoverQty
			rec.CarryoverQty = remaining
			rec.Recompute()
			if rec.SellableQty > 0 {
				rec.SoldOutAt = nil
			}
			if err := s.inventoryRepo.Save(txCtx, rec); err != nil {
				return fmt.Errorf("failed to save inventory: %w", err)
			}
			if delta != 0 {
				if err := s.movementRepo.Create(txCtx, &model.StockMovement{
					ProductID:      rec.ProductID,
					DateKey:        toKey,
					MovementType:   model.MovementCarryover,
					Quantity:       delta,
					SellableBefore: before,
					SellableAfter:  rec.SellableQty,
					ReferenceType:  RefAdmin,
					StaffID:        actor.ref(),
				}); err != nil {
					return fmt.Errorf("failed to write stock movement: %w", err)
				}
			}
			updated = append(updated, rec)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionCarryOver, toKey, fromKey+" -> "+toKey,
			map[string]int{"products": len(updated)})
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, updated...)
	res := make([]model.DailyInventory, 0, len(updated))
	for _, rec := range updated {
		res = append(res, *rec)
	}
	return res, nil
}

// CanAddToCart checks today's sellable quantity, cache first. A product with no
// inventory record for today has nothing to sell.
func (s *stockService) CanAddToCart(ctx context.Context, productID uuid.UUID, requestedQty, inCartQty int) (CartCheck, error) {
	if requestedQty <= 0 {
		return CartCheck{}, invalid("requested quantity must be positive")
	}
	if inCartQty < 0 {
		return CartCheck{}, invalid("cart quantity cannot be negative")
	}

	dateKey := daykey.From(s.now())
	sellable, ok, err := s.cache.GetSellable(ctx, dateKey, productID)
	if err != nil {
		logger.LogError("stock", "CanAddToCart", "read sellable cache", productID.String(), err)
		ok = false
	}
	if !ok {
		rec, err := s.inventoryRepo.FindByDateProduct(ctx, dateKey, productID)
		switch {
		case err == nil:
			sellable = rec.Sellable()
			if cerr := s.cache.SetSellable(ctx, dateKey, productID, sellable); cerr != nil {
				logger.LogError("stock", "CanAddToCart", "fill sellable cache", productID.String(), cerr)
			}
		case errors.Is(err, repository.ErrNotFound):
			sellable = 0
		default:
			return CartCheck{}, fmt.Errorf("failed to load inventory: %w", err)
		}
	}

	check := CartCheck{
		ProductID: productID.String(),
		Sellable:  sellable,
		InCart:    inCartQty,
		Requested: requestedQty,
		Allowed:   inCartQty+requestedQty <= sellable,
		Remaining: sellable - inCartQty,
	}
	if check.Remaining < 0 {
		check.Remaining = 0
	}
	return check, nil
}

// aggregateLines sums quantities per product in a stable order so row locks
// are always taken in the same sequence.
func aggregateLines(items []model.SaleItem) []StockLine {
	totals := make(map[uuid.UUID]int)
	for _, it := range items {
		totals[it.ProductID] += it.Quantity
	}
	lines := make([]StockLine, 0, len(totals))
	for id, qty := range totals {
		if qty > 0 {
			lines = append(lines, StockLine{ProductID: id, Quantity: qty})
		}
	}
	sortLines(lines)
	return lines
}

func sortLines(lines []StockLine) {
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductID.String() < lines[j].ProductID.String()
	})
}

// DeductForSale increments soldQty per product in its own transaction. A product
// already deducted for this sale is skipped, so replays are safe.
func (s *stockService) DeductForSale(ctx context.Context, sale *model.Sale) DeductionResult {
	var result DeductionResult
	saleID := sale.ID
	cashier := sale.CashierID

	for _, line := range aggregateLines(sale.Items) {
		line := line
		var rec *model.DailyInventory
		skipped := false
		err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			exists, err := s.movementRepo.Exists(txCtx, saleID, line.ProductID, model.MovementSale)
			if err != nil {
				return fmt.Errorf("failed to check prior deduction: %w", err)
			}
			if exists {
				skipped = true
				return nil
			}
			rec, err = s.applyLocked(txCtx, stockChange{
				dateKey:   sale.DateKey,
				productID: line.ProductID,
				movement:  model.MovementSale,
				quantity:  -line.Quantity,
				refType:   RefSale,
				refID:     &saleID,
				staffID:   &cashier,
				apply: func(r *model.DailyInventory) error {
					r.SoldQty += line.Quantity
					return nil
				},
			})
			return err
		})
		switch {
		case err != nil:
			logger.LogError("stock", "DeductForSale", "deduct product", map[string]string{"sale": sale.SaleNo, "product": line.ProductID.String()}, err)
			result.Failures = append(result.Failures, ProductFailure{ProductID: line.ProductID.String(), Error: err.Error()})
		case skipped:
			result.Skipped++
		default:
			result.Applied++
			s.afterCommit(ctx, rec)
		}
	}
	return result
}

// RestoreForCancellation adds the given lines back as cancelled quantity. Only
// products the sale was already deducted for are restored; the rest are skipped
// because a later deduction run reads the corrected sale.
func (s *stockService) RestoreForCancellation(ctx context.Context, sale *model.Sale, items []model.SaleItem, staffID *uuid.UUID) DeductionResult {
	var result DeductionResult
	saleID := sale.ID

	for _, line := range aggregateLines(items) {
		line := line
		var rec *model.DailyInventory
		skipped := false
		err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			deducted, err := s.movementRepo.Exists(txCtx, saleID, line.ProductID, model.MovementSale)
			if err != nil {
				return fmt.Errorf("failed to check prior deduction: %w", err)
			}
			if !deducted {
				skipped = true
				return nil
			}
			rec, err = s.applyLocked(txCtx, stockChange{
				dateKey:   sale.DateKey,
				productID: line.ProductID,
				movement:  model.MovementCancel,
				quantity:  line.Quantity,
				refType:   RefSale,
				refID:     &saleID,
				staffID:   staffID,
				apply: func(r *model.DailyInventory) error {
					r.CancelledQty += line.Quantity
					return nil
				},
			})
			return err
		})
		if err != nil {
			logger.LogError("stock", "RestoreForCancellation", "restore product", map[string]string{"sale": sale.SaleNo, "product": line.ProductID.String()}, err)
			result.Failures = append(result.Failures, ProductFailure{ProductID: line.ProductID.String(), Error: err.Error()})
			continue
		}
		if skipped {
			result.Skipped++
			continue
		}
		result.Applied++
		s.afterCommit(ctx, rec)
	}
	return result
}

// orderChange applies one change per line inside a single transaction, so an
// order reserves all of its lines or none of them.
func (s *stockService) orderChange(ctx context.Context, dateKey string, orderID uuid.UUID, lines []StockLine, movement string, sign int, apply func(r *model.DailyInventory, qty int) error) error {
	key, err := daykey.Normalize(dateKey)
	if err != nil {
		return invalid("%v", err)
	}
	sorted := append([]StockLine(nil), lines...)
	sortLines(sorted)

	var updated []*model.DailyInventory
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, line := range sorted {
			line := line
			if line.Quantity <= 0 {
				return invalid("quantity must be positive")
			}
			rec, err := s.applyLocked(txCtx, stockChange{
				dateKey:   key,
				productID: line.ProductID,
				movement:  movement,
				quantity:  sign * line.Quantity,
				refType:   RefOrder,
				refID:     &orderID,
				apply: func(r *model.DailyInventory) error {
					return apply(r, line.Quantity)
				},
			})
			if err != nil {
				return err
			}
			updated = append(updated, rec)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.afterCommit(ctx, updated...)
	return nil
}

func (s *stockService) Reserve(ctx context.Context, dateKey string, orderID uuid.UUID, lines []StockLine) error {
	return s.orderChange(ctx, dateKey, orderID, lines, model.MovementReserve, -1, func(r *model.DailyInventory, qty int) error {
		if r.Sellable() < qty {
			return fmt.Errorf("%w: %s has %d sellable, %d requested", ErrInsufficientStock, r.ProductName, r.Sellable(), qty)
		}
		r.ReservedQty += qty
		return nil
	})
}

func (s *stockService) Release(ctx context.Context, dateKey string, orderID uuid.UUID, lines []StockLine) error {
	return s.orderChange(ctx, dateKey, orderID, lines, model.MovementRelease, 1, func(r *model.DailyInventory, qty int) error {
		r.ReservedQty -= qty
		if r.ReservedQty < 0 {
			r.ReservedQty = 0
		}
		return nil
	})
}

// Fulfil turns a reservation into a sale; sellable stays the same.
func (s *stockService) Fulfil(ctx context.Context, dateKey string, orderID uuid.UUID, lines []StockLine) error {
	return s.orderChange(ctx, dateKey, orderID, lines, model.MovementFulfil, -1, func(r *model.DailyInventory, qty int) error {
		released := qty
		if r.ReservedQty < released {
			released = r.ReservedQty
		}
		r.ReservedQty -= released
		r.SoldQty += qty
		return nil
	})
}

func (s *stockService) ListMovements(ctx context.Context, productID, dateKey string) ([]model.StockMovement, error) {
	id, err := parseID(productID, "product")
	if err != nil {
		return nil, err
	}
	if dateKey != "" {
		if dateKey, err = daykey.Normalize(dateKey); err != nil {
			return nil, invalid("%v", err)
		}
	}
	return s.movementRepo.ListByProduct(ctx, id, dateKey)
}
