package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bakerypos/internal/logger"
	"bakerypos/internal/model"
	"bakerypos/internal/repository"
	"bakerypos/internal/storage"
	ws "bakerypos/internal/websocket"
	"bakerypos/pkg/daykey"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	saleNumberAttempts = 3
	// Stage recorded when a sale never reached the deduction workers.
	deductionStageEnqueue = "enqueue"
)

// DeductionQueue hands committed sales to the background deduction workers.
type DeductionQueue interface {
	Enqueue(saleID uuid.UUID) error
}

type CheckoutLine struct {
	ProductID  string `json:"product_id" binding:"required,uuid"`
	VariantID  string `json:"variant_id" binding:"omitempty,uuid"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
	DiscountID string `json:"discount_id" binding:"omitempty,uuid"`
}

// Register edits replayed by Quote, in order, on the cart built from Lines.
const (
	CartOpToggleDiscount = "toggle_discount"
	CartOpSetQuantity    = "set_quantity"
	CartOpRemove         = "remove"
)

// CartOp edits the line at index Line. Quantity is read by set_quantity only.
type CartOp struct {
	Op       string `json:"op" binding:"required,oneof=toggle_discount set_quantity remove"`
	Line     int    `json:"line" binding:"min=0"`
	Quantity int    `json:"quantity" binding:"min=0"`
}

type QuoteRequest struct {
	Lines            []CheckoutLine `json:"lines" binding:"required,min=1,dive"`
	ActiveDiscountID string         `json:"active_discount_id" binding:"omitempty,uuid"`
	Ops              []CartOp       `json:"ops" binding:"dive"`
}

type CheckoutRequest struct {
	Lines            []CheckoutLine   `json:"lines" binding:"required,min=1,dive"`
	PaymentMethod    string           `json:"payment_method" binding:"required,oneof=cash gcash card charge"`
	CashReceived     *decimal.Decimal `json:"cash_received"`
	GCashRefNo       string           `json:"gcash_ref_no"`
	GCashPhotoURL    string           `json:"gcash_photo_url"`
	ChargeCustomerID string           `json:"charge_customer_id" binding:"omitempty,uuid"`
	DiscountIDPhoto  string           `json:"discount_id_photo"`
}

type AdjustSaleRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ListSalesQuery struct {
	ShiftID  string
	DateFrom string
	DateTo   string
}

type QuoteLine struct {
	ProductID      string          `json:"product_id"`
	VariantID      string          `json:"variant_id,omitempty"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	OriginalPrice  decimal.Decimal `json:"original_price"`
	DiscountID     string          `json:"discount_id,omitempty"`
	DiscountName   string          `json:"discount_name,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// CartQuote prices a cart and reports stock per product without writing anything.
type CartQuote struct {
	Lines             []QuoteLine `json:"lines"`
	Totals            CartTotals  `json:"totals"`
	Stock             []CartCheck `json:"stock"`
	RequiresIDCapture bool        `json:"requires_id_capture"`
}

type CheckoutService interface {
	Quote(ctx context.Context, req QuoteRequest) (CartQuote, error)
	Checkout(ctx context.Context, actor Actor, req CheckoutRequest) (*model.Sale, error)
	UploadProof(ctx context.Context, kind string, data []byte) (string, error)
	GetSale(ctx context.Context, id string) (*model.Sale, error)
	ListSales(ctx context.Context, q ListSalesQuery) ([]model.Sale, error)
	RemoveSaleItem(ctx context.Context, actor Actor, saleID, itemID string, req AdjustSaleRequest) (*model.Sale, error)
	DeleteSale(ctx context.Context, actor Actor, saleID string, req AdjustSaleRequest) error
}

type checkoutService struct {
	saleRepo       repository.SaleRepository
	productRepo    repository.ProductRepository
	discountRepo   repository.DiscountRepository
	customerRepo   repository.ChargeCustomerRepository
	receivableRepo repository.ReceivableRepository
	failureRepo    repository.DeductionFailureRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	shifts         ShiftService
	stock          StockService
	settings       SettingsReader
	proofs         storage.ProofStore
	queue          DeductionQueue
	events         EventPublisher
	now            func() time.Time
}

// CheckoutDeps groups the collaborators of the checkout service.
type CheckoutDeps struct {
	SaleRepo       repository.SaleRepository
	ProductRepo    repository.ProductRepository
	DiscountRepo   repository.DiscountRepository
	CustomerRepo   repository.ChargeCustomerRepository
	ReceivableRepo repository.ReceivableRepository
	FailureRepo    repository.DeductionFailureRepository
	AuditRepo      repository.AuditRepository
	TxManager      repository.TransactionManager
	Shifts         ShiftService
	Stock          StockService
	Settings       SettingsReader
	Proofs         storage.ProofStore
	Queue          DeductionQueue
	Events         EventPublisher
}

func NewCheckoutService(d CheckoutDeps) CheckoutService {
	proofs := d.Proofs
	if proofs == nil {
		proofs = storage.NewDisabledProofStore()
	}
	return &checkoutService{
		saleRepo:       d.SaleRepo,
		productRepo:    d.ProductRepo,
		discountRepo:   d.DiscountRepo,
		customerRepo:   d.CustomerRepo,
		receivableRepo: d.ReceivableRepo,
		failureRepo:    d.FailureRepo,
		auditRepo:      d.AuditRepo,
		txManager:      d.TxManager,
		shifts:         d.Shifts,
		stock:          d.Stock,
		settings:       d.Settings,
		proofs:         proofs,
		queue:          d.Queue,
		events:         publisherOrNoop(d.Events),
		now:            time.Now,
	}
}

// buildCart prices the requested lines from the catalog. Client prices are never trusted.
func (s *checkoutService) buildCart(ctx context.Context, lines []CheckoutLine) (*Cart, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		id, err := parseID(l.ProductID, "product")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	catalog := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	discounts := make(map[string]*model.Discount)
	cart := &Cart{}
	for i, l := range lines {
		if l.Quantity <= 0 {
			return nil, invalid("quantity must be positive")
		}
		product, ok := catalog[ids[i]]
		if !ok || !product.IsActive {
			return nil, fmt.Errorf("product %s %w", l.ProductID, ErrNotFound)
		}

		line := CartLine{
			ProductID:     product.ID,
			Name:          product.Name,
			Category:      product.Category,
			Quantity:      l.Quantity,
			OriginalPrice: product.Price,
		}
		if l.VariantID != "" {
			variant, err := findVariant(product, l.VariantID)
			if err != nil {
				return nil, err
			}
			line.VariantID = &variant.ID
			line.Name = product.Name + " (" + variant.Name + ")"
			line.OriginalPrice = variant.Price
		}

		var active *model.Discount
		if l.DiscountID != "" {
			active, err = s.loadDiscount(ctx, discounts, l.DiscountID)
			if err != nil {
				return nil, err
			}
		}
		cart.SetActiveDiscount(active)
		cart.Add(line)
	}
	cart.SetActiveDiscount(nil)
	return cart, nil
}

func findVariant(product model.Product, raw string) (*model.ProductVariant, error) {
	id, err := parseID(raw, "variant")
	if err != nil {
		return nil, err
	}
	for i := range product.Variants {
		if product.Variants[i].ID == id {
			return &product.Variants[i], nil
		}
	}
	return nil, fmt.Errorf("variant %s %w", raw, ErrNotFound)
}

func (s *checkoutService) loadDiscount(ctx context.Context, seen map[string]*model.Discount, raw string) (*model.Discount, error) {
	if d, ok := seen[raw]; ok {
		return d, nil
	}
	id, err := parseID(raw, "discount")
	if err != nil {
		return nil, err
	}
	d, err := s.discountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "discount")
	}
	if !d.IsActive {
		return nil, invalid("discount %s is inactive", d.Name)
	}
	seen[raw] = d
	return d, nil
}

// checkStock verifies the whole cart quantity of each product against sellable stock.
func (s *checkoutService) checkStock(ctx context.Context, cart *Cart) ([]CartCheck, error) {
	var checks []CartCheck
	seen := make(map[uuid.UUID]bool)
	for _, l := range cart.Lines {
		if seen[l.ProductID] {
			continue
		}
		seen[l.ProductID] = true
		check, err := s.stock.CanAddToCart(ctx, l.ProductID, cart.QuantityOf(l.ProductID), 0)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}
	return checks, nil
}

// applyCartOps selects the active discount and replays the register edits.
func (s *checkoutService) applyCartOps(ctx context.Context, cart *Cart, activeID string, ops []CartOp) error {
	if activeID != "" {
		active, err := s.loadDiscount(ctx, make(map[string]*model.Discount), activeID)
		if err != nil {
			return err
		}
		cart.SetActiveDiscount(active)
		defer cart.SetActiveDiscount(nil)
	}
	for _, op := range ops {
		var err error
		switch op.Op {
		case CartOpToggleDiscount:
			err = cart.ToggleDiscount(op.Line)
		case CartOpSetQuantity:
			err = cart.SetQuantity(op.Line, op.Quantity)
		case CartOpRemove:
			err = cart.Remove(op.Line)
		default:
			return invalid("unknown cart op %q", op.Op)
		}
		if errors.Is(err, errLineIndex) || errors.Is(err, errNoActiveDiscount) {
			return invalid("%s on line %d: %v", op.Op, op.Line, err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *checkoutService) Quote(ctx context.Context, req QuoteRequest) (CartQuote, error) {
	cart, err := s.buildCart(ctx, req.Lines)
	if err != nil {
		return CartQuote{}, err
	}
	if err := s.applyCartOps(ctx, cart, req.ActiveDiscountID, req.Ops); err != nil {
		return CartQuote{}, err
	}
	checks, err := s.checkStock(ctx, cart)
	if err != nil {
		return CartQuote{}, err
	}

	quote := CartQuote{Totals: cart.Totals(), Stock: checks, RequiresIDCapture: cart.RequiresIDCapture()}
	for _, l := range cart.Lines {
		ql := QuoteLine{
			ProductID:      l.ProductID.String(),
			Name:           l.Name,
			Quantity:       l.Quantity,
			OriginalPrice:  l.OriginalPrice,
			DiscountAmount: l.DiscountAmount(),
			UnitPrice:      l.UnitPrice(),
			LineTotal:      l.LineTotal(),
		}
		if l.VariantID != nil {
			ql.VariantID = l.VariantID.String()
		}
		if l.Discount != nil {
			ql.DiscountID = l.Discount.ID.String()
			ql.DiscountName = l.Discount.Name
		}
		quote.Lines = append(quote.Lines, ql)
	}
	return quote, nil
}

// applyPayment validates the payment against the cart and fills the sale's payment fields.
func (s *checkoutService) applyPayment(ctx context.Context, cart *Cart, req CheckoutRequest, sale *model.Sale) error {
	total := sale.Total
	switch req.PaymentMethod {
	case model.PaymentCash:
		if req.CashReceived == nil {
			return fmt.Errorf("%w: cash received is required", ErrInvalidPayment)
		}
		if req.CashReceived.LessThan(total) {
			return fmt.Errorf("%w: cash received %s is less than total %s", ErrInvalidPayment,
				req.CashReceived.StringFixed(2), total.StringFixed(2))
		}
		received := *req.CashReceived
		change := received.Sub(total)
		sale.CashReceived = &received
		sale.Change = &change
	case model.PaymentGCash:
		ref := strings.TrimSpace(req.GCashRefNo)
		if s.settings.Bool(ctx, model.SettingGCashCaptureRequired) && (ref == "" || req.GCashPhotoURL == "") {
			return fmt.Errorf("%w: gcash payment needs a reference number and a photo", ErrCaptureRequired)
		}
		sale.GCashRefNo = ref
		sale.GCashPhotoURL = req.GCashPhotoURL
	case model.PaymentCard:
	case model.PaymentCharge:
		if req.ChargeCustomerID == "" {
			return fmt.Errorf("%w: charge sale needs a customer", ErrInvalidPayment)
		}
		id, err := parseID(req.ChargeCustomerID, "charge customer")
		if err != nil {
			return err
		}
		customer, err := s.customerRepo.FindByID(ctx, id)
		if err != nil {
			return wrapNotFound(err, "charge customer")
		}
		if !customer.IsActive {
			return fmt.Errorf("%w: charge customer is inactive", ErrInvalidPayment)
		}
		sale.ChargeCustomerID = &customer.ID
	default:
		return fmt.Errorf("%w: unknown method %q", ErrInvalidPayment, req.PaymentMethod)
	}

	if cart.RequiresIDCapture() && s.settings.Bool(ctx, model.SettingDiscountIDRequired) && req.DiscountIDPhoto == "" {
		return fmt.Errorf("%w: discount requires an ID photo", ErrCaptureRequired)
	}
	sale.DiscountIDPhoto = req.DiscountIDPhoto
	for _, l := range cart.Lines {
		if l.Discount != nil {
			id := l.Discount.ID
			sale.DiscountID = &id
			break
		}
	}
	return nil
}

func (s *checkoutService) Checkout(ctx context.Context, actor Actor, req CheckoutRequest) (*model.Sale, error) {
	if actor.ViewOnly {
		return nil, ErrViewOnly
	}
	shift, err := s.shifts.GetActiveShift(ctx, actor)
	if err != nil {
		return nil, err
	}

	cart, err := s.buildCart(ctx, req.Lines)
	if err != nil {
		return nil, err
	}
	checks, err := s.checkStock(ctx, cart)
	if err != nil {
		return nil, err
	}
	for _, c := range checks {
		if !c.Allowed {
			return nil, fmt.Errorf("%w: product %s has %d sellable, %d requested", ErrInsufficientStock, c.ProductID, c.Sellable, c.InCart+c.Requested)
		}
	}

	now := s.now()
	totals := cart.Totals()
	template := model.Sale{
		DateKey:         daykey.From(now),
		Timestamp:       now,
		ShiftID:         &shift.ID,
		CashierID:       actor.StaffID,
		CashierName:     actor.Name,
		Subtotal:        totals.Subtotal,
		TotalDiscount:   totals.TotalDiscount,
		Total:           totals.Total,
		PaymentMethod:   req.PaymentMethod,
		Status:          model.SaleStatusCompleted,
		DeductionStatus: model.DeductionPending,
	}
	if err := s.applyPayment(ctx, cart, req, &template); err != nil {
		return nil, err
	}

	var sale *model.Sale
	for attempt := 0; attempt < saleNumberAttempts; attempt++ {
		candidate := template
		candidate.Items = cart.SaleItems()
		err = s.createNumberedSale(ctx, actor, &candidate)
		if err == nil {
			sale = &candidate
			break
		}
		if !repository.IsUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		logger.LogError("checkout", "Checkout", "create sale", template.DateKey, err)
		return nil, err
	}

	s.enqueueDeduction(ctx, sale)
	s.events.Publish(ws.TopicShifts, "sale_recorded", map[string]interface{}{
		"shift_id": shift.ID.String(),
		"sale_no":  sale.SaleNo,
		"method":   sale.PaymentMethod,
		"total":    sale.Total,
	})
	return sale, nil
}

// createNumberedSale numbers the sale YYYYMMDD-NNNN after the day's highest
// number, so deleted sales never free a number. It writes the sale together
// with its receivable and audit entry.
func (s *checkoutService) createNumberedSale(ctx context.Context, actor Actor, sale *model.Sale) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		last, err := s.saleRepo.LastSaleNo(txCtx, sale.DateKey)
		if err != nil {
			return fmt.Errorf("failed to read last sale number: %w", err)
		}
		seq, err := nextSequence(last)
		if err != nil {
			return err
		}
		sale.SaleNo = fmt.Sprintf("%s-%04d", daykey.Compact(sale.DateKey), seq)
		if err := s.saleRepo.Create(txCtx, sale); err != nil {
			return err
		}

		if sale.PaymentMethod == model.PaymentCharge {
			name := ""
			if customer, err := s.customerRepo.FindByID(txCtx, *sale.ChargeCustomerID); err == nil {
				name = customer.Name
			}
			if err := s.receivableRepo.Create(txCtx, newReceivable(sale, name)); err != nil {
				return fmt.Errorf("failed to create receivable: %w", err)
			}
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionCreateSale, sale.ID.String(), sale.SaleNo,
			map[string]string{"total": sale.Total.StringFixed(2), "method": sale.PaymentMethod})
	})
}

// enqueueDeduction never fails the checkout. A sale the workers cannot take is
// dead-lettered so it can be replayed.
func (s *checkoutService) enqueueDeduction(ctx context.Context, sale *model.Sale) {
	err := s.queue.Enqueue(sale.ID)
	if err == nil {
		return
	}
	logger.LogError("checkout", "enqueueDeduction", "enqueue deduction", sale.SaleNo, err)
	failure := &model.DeductionFailure{SaleID: sale.ID, Stage: deductionStageEnqueue, LastError: err.Error()}
	if err := s.failureRepo.Create(ctx, failure); err != nil {
		logger.LogError("checkout", "enqueueDeduction", "write dead letter", sale.SaleNo, err)
	}
	if err := s.saleRepo.UpdateDeductionStatus(ctx, sale.ID, model.DeductionFailed); err != nil {
		logger.LogError("checkout", "enqueueDeduction", "mark sale failed", sale.SaleNo, err)
	}
	sale.DeductionStatus = model.DeductionFailed
}

func (s *checkoutService) UploadProof(ctx context.Context, kind string, data []byte) (string, error) {
	url, err := s.proofs.Save(ctx, kind, data)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUnknownKind), errors.Is(err, storage.ErrUnsupportedType):
			return "", invalid("%v", err)
		case errors.Is(err, storage.ErrDisabled):
			return "", err
		}
		return "", fmt.Errorf("failed to store proof: %w", err)
	}
	return url, nil
}

func (s *checkoutService) GetSale(ctx context.Context, id string) (*model.Sale, error) {
	sid, err := parseID(id, "sale")
	if err != nil {
		return nil, err
	}
	sale, err := s.saleRepo.FindByID(ctx, sid)
	if err != nil {
		return nil, wrapNotFound(err, "sale")
	}
	return sale, nil
}

func (s *checkoutService) ListSales(ctx context.Context, q ListSalesQuery) ([]model.Sale, error) {
	if q.ShiftID != "" {
		id, err := parseID(q.ShiftID, "shift")
		if err != nil {
			return nil, err
		}
		return s.saleRepo.ListByShift(ctx, id)
	}
	from, to, err := dateRange(q.DateFrom, q.DateTo, s.now())
	if err != nil {
		return nil, err
	}
	return s.saleRepo.ListByDateRange(ctx, from, to)
}

// dateRange normalizes an inclusive day-key range, defaulting to today.
func dateRange(fromRaw, toRaw string, now time.Time) (string, string, error) {
	today := daykey.From(now)
	from, to := today, today
	var err error
	if fromRaw != "" {
		if from, err = daykey.Normalize(fromRaw); err != nil {
			return "", "", invalid("%v", err)
		}
	}
	if toRaw != "" {
		if to, err = daykey.Normalize(toRaw); err != nil {
			return "", "", invalid("%v", err)
		}
	} else if fromRaw != "" {
		to = from
	}
	if to < from {
		return "", "", invalid("date range is reversed")
	}
	return from, to, nil
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}

// RemoveSaleItem deletes one line, recomputes the totals and restores its stock.
func (s *checkoutService) RemoveSaleItem(ctx context.Context, actor Actor, saleID, itemID string, req AdjustSaleRequest) (*model.Sale, error) {
	sid, err := parseID(saleID, "sale")
	if err != nil {
		return nil, err
	}
	iid, err := parseID(itemID, "sale item")
	if err != nil {
		return nil, err
	}

	var sale *model.Sale
	var removed model.SaleItem
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		sale, err = s.saleRepo.FindByID(txCtx, sid)
		if err != nil {
			return wrapNotFound(err, "sale")
		}

		var remaining []model.SaleItem
		found := false
		for _, it := range sale.Items {
			if it.ID == iid {
				removed = it
				found = true
				continue
			}
			remaining = append(remaining, it)
		}
		if !found {
			return fmt.Errorf("sale item %w", ErrNotFound)
		}
		if len(remaining) == 0 {
			return invalid("cannot remove the last line of a sale; delete the sale instead")
		}
		if err := s.saleRepo.DeleteItem(txCtx, iid); err != nil {
			return fmt.Errorf("failed to delete sale item: %w", err)
		}

		totals := TotalsFromItems(remaining)
		sale.Items = remaining
		sale.Subtotal = totals.Subtotal
		sale.TotalDiscount = totals.TotalDiscount
		sale.Total = totals.Total
		if sale.CashReceived != nil {
			change := sale.CashReceived.Sub(sale.Total)
			sale.Change = &change
		}
		sale.AuditNote = appendNote(sale.AuditNote, fmt.Sprintf("%s removed %dx %s: %s",
			actor.Name, removed.Quantity, removed.ProductName, req.Reason))
		if err := s.saleRepo.Update(txCtx, sale); err != nil {
			return fmt.Errorf("failed to update sale: %w", err)
		}

		if sale.PaymentMethod == model.PaymentCharge {
			if err := s.shrinkReceivable(txCtx, sale, removed.LineTotal); err != nil {
				return err
			}
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionRemoveSaleItem, sale.ID.String(), sale.SaleNo,
			map[string]interface{}{"item": removed.ProductName, "quantity": removed.Quantity, "line_total": removed.LineTotal, "reason": req.Reason})
	})
	if err != nil {
		return nil, err
	}

	if res := s.stock.RestoreForCancellation(ctx, sale, []model.SaleItem{removed}, actor.ref()); res.Err() != nil {
		logger.LogError("checkout", "RemoveSaleItem", "restore stock", sale.SaleNo, res.Err())
	}
	return sale, nil
}

// shrinkReceivable lowers a charge sale's receivable after a line removal,
// keeping what was already paid.
func (s *checkoutService) shrinkReceivable(txCtx context.Context, sale *model.Sale, by decimal.Decimal) error {
	receivable, err := s.receivableRepo.FindBySale(txCtx, sale.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load receivable: %w", err)
	}
	paid := receivable.Amount.Sub(receivable.Balance)
	receivable.Amount = sale.Total
	receivable.Balance = decimal.Max(decimal.Zero, sale.Total.Sub(paid))
	receivable.ApplyPayment(decimal.Zero)
	if err := s.receivableRepo.Update(txCtx, receivable); err != nil {
		return fmt.Errorf("failed to update receivable: %w", err)
	}
	return nil
}

func (s *checkoutService) DeleteSale(ctx context.Context, actor Actor, saleID string, req AdjustSaleRequest) error {
	sid, err := parseID(saleID, "sale")
	if err != nil {
		return err
	}

	var sale *model.Sale
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		sale, err = s.saleRepo.FindByID(txCtx, sid)
		if err != nil {
			return wrapNotFound(err, "sale")
		}
		if sale.PaymentMethod == model.PaymentCharge {
			receivable, err := s.receivableRepo.FindBySale(txCtx, sale.ID)
			switch {
			case err == nil:
				if len(receivable.Payments) > 0 {
					return invalid("sale %s has receivable payments and cannot be deleted", sale.SaleNo)
				}
				if err := s.receivableRepo.DeleteBySale(txCtx, sale.ID); err != nil {
					return fmt.Errorf("failed to delete receivable: %w", err)
				}
			case !errors.Is(err, repository.ErrNotFound):
				return fmt.Errorf("failed to load receivable: %w", err)
			}
		}
		if err := s.saleRepo.Delete(txCtx, sale.ID); err != nil {
			return fmt.Errorf("failed to delete sale: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionDeleteSale, sale.ID.String(), sale.SaleNo,
			map[string]string{"total": sale.Total.StringFixed(2), "reason": req.Reason})
	})
	if err != nil {
		return err
	}

	if res := s.stock.RestoreForCancellation(ctx, sale, sale.Items, actor.ref()); res.Err() != nil {
		logger.LogError("checkout", "DeleteSale", "restore stock", sale.SaleNo, res.Err())
	}
	return nil
}
