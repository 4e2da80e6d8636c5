package service

import (
	"context"
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

const orderNumberAttempts = 3

type OrderLineRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type PlaceOrderRequest struct {
	CustomerName string             `json:"customer_name" binding:"required"`
	Phone        string             `json:"phone"`
	SessionID    string             `json:"session_id" binding:"required"`
	PickupDate   string             `json:"pickup_date" binding:"required"`
	Items        []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
	Note         string             `json:"note"`
}

type OrderPaymentRequest struct {
	SessionID    string `json:"session_id" binding:"required"`
	PaymentRefNo string `json:"payment_ref_no" binding:"required"`
	ProofURL     string `json:"proof_url" binding:"required"`
}

type OrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=confirmed ready completed cancelled"`
}

// orderTransitions lists the statuses each status may move to.
var orderTransitions = map[string][]string{
	model.OrderStatusPending:   {model.OrderStatusConfirmed, model.OrderStatusCancelled},
	model.OrderStatusConfirmed: {model.OrderStatusReady, model.OrderStatusCancelled},
	model.OrderStatusReady:     {model.OrderStatusCompleted, model.OrderStatusCancelled},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type OrderService interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*model.CustomerOrder, error)
	UploadProof(ctx context.Context, data []byte) (string, error)
	AttachPayment(ctx context.Context, orderID string, req OrderPaymentRequest) (*model.CustomerOrder, error)
	UpdateStatus(ctx context.Context, actor Actor, orderID string, req OrderStatusRequest) (*model.CustomerOrder, error)
	GetOrder(ctx context.Context, orderID string) (*model.CustomerOrder, error)
	ListOrders(ctx context.Context, status, sessionID string, page, limit int) ([]model.CustomerOrder, int64, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	stock       StockService
	proofs      storage.ProofStore
	events      EventPublisher
	now         func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	stock StockService,
	proofs storage.ProofStore,
	events EventPublisher,
) OrderService {
	if proofs == nil {
		proofs = storage.NewDisabledProofStore()
	}
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		stock:       stock,
		proofs:      proofs,
		events:      publisherOrNoop(events),
		now:         time.Now,
	}
}

func orderLines(order *model.CustomerOrder) []StockLine {
	totals := make(map[uuid.UUID]int)
	for _, it := range order.Items {
		totals[it.ProductID] += it.Quantity
	}
	lines := make([]StockLine, 0, len(totals))
	for id, qty := range totals {
		lines = append(lines, StockLine{ProductID: id, Quantity: qty})
	}
	sortLines(lines)
	return lines
}

// PlaceOrder prices the order from the catalog and reserves its stock on the
// pickup day in the same transaction. The pickup day's inventory must exist.
func (s *orderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*model.CustomerOrder, error) {
	pickup, err := daykey.Normalize(req.PickupDate)
	if err != nil {
		return nil, invalid("%v", err)
	}
	now := s.now()
	today := daykey.From(now)
	if pickup < today {
		return nil, invalid("pickup date is in the past")
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, it := range req.Items {
		id, err := parseID(it.ProductID, "product")
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

	template := model.CustomerOrder{
		CustomerName: strings.TrimSpace(req.CustomerName),
		Phone:        req.Phone,
		SessionID:    req.SessionID,
		PickupDate:   pickup,
		Status:       model.OrderStatusPending,
		Total:        decimal.Zero,
		Note:         req.Note,
	}
	for i, it := range req.Items {
		product, ok := catalog[ids[i]]
		if !ok || !product.IsActive {
			return nil, fmt.Errorf("product %s %w", it.ProductID, ErrNotFound)
		}
		template.Items = append(template.Items, model.CustomerOrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    it.Quantity,
			UnitPrice:   product.Price,
		})
		template.Total = template.Total.Add(product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	var order *model.CustomerOrder
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		candidate := template
		candidate.Items = append([]model.CustomerOrderItem(nil), template.Items...)
		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			prefix := fmt.Sprintf("ORD-%s-", daykey.Compact(today))
			last, err := s.orderRepo.LastOrderNo(txCtx, prefix)
			if err != nil {
				return fmt.Errorf("failed to read last order number: %w", err)
			}
			seq, err := nextSequence(last)
			if err != nil {
				return err
			}
			candidate.OrderNo = fmt.Sprintf("%s%04d", prefix, seq)
			if err := s.orderRepo.Create(txCtx, &candidate); err != nil {
				return err
			}
			return s.stock.Reserve(txCtx, pickup, candidate.ID, orderLines(&candidate))
		})
		if err == nil {
			order = &candidate
			break
		}
		if !repository.IsUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		logger.LogError("order", "PlaceOrder", "create order", req.SessionID, err)
		return nil, err
	}

	s.events.Publish(ws.TopicOrders, "order_placed", order)
	return order, nil
}

func (s *orderService) UploadProof(ctx context.Context, data []byte) (string, error) {
	url, err := s.proofs.Save(ctx, storage.KindOrder, data)
	if err != nil {
		return "", fmt.Errorf("failed to store payment proof: %w", err)
	}
	return url, nil
}

// AttachPayment records the customer's payment proof. Only the session that
// placed the order may attach it, and only while the order is pending.
func (s *orderService) AttachPayment(ctx context.Context, orderID string, req OrderPaymentRequest) (*model.CustomerOrder, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SessionID != req.SessionID {
		return nil, ErrForbidden
	}
	if order.Status != model.OrderStatusPending {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.Status)
	}
	order.PaymentRefNo = strings.TrimSpace(req.PaymentRefNo)
	order.PaymentProofURL = req.ProofURL
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	s.events.Publish(ws.TopicOrders, "order_paid", order)
	return order, nil
}

// UpdateStatus moves an order along pending → confirmed → ready → completed.
// Completing fulfils the reservation; cancelling releases it.
func (s *orderService) UpdateStatus(ctx context.Context, actor Actor, orderID string, req OrderStatusRequest) (*model.CustomerOrder, error) {
	id, err := parseID(orderID, "order")
	if err != nil {
		return nil, err
	}

	var order *model.CustomerOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByID(txCtx, id)
		if err != nil {
			return wrapNotFound(err, "order")
		}
		from := order.Status
		if !CanTransition(from, req.Status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, req.Status)
		}
		order.Status = req.Status
		if err := s.orderRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		switch req.Status {
		case model.OrderStatusCompleted:
			err = s.stock.Fulfil(txCtx, order.PickupDate, order.ID, orderLines(order))
		case model.OrderStatusCancelled:
			err = s.stock.Release(txCtx, order.PickupDate, order.ID, orderLines(order))
		}
		if err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionUpdateOrder, order.ID.String(), order.OrderNo,
			map[string]string{"from": from, "to": req.Status})
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ws.TopicOrders, "order_updated", order)
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*model.CustomerOrder, error) {
	id, err := parseID(orderID, "order")
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "order")
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, status, sessionID string, page, limit int) ([]model.CustomerOrder, int64, error) {
	return s.orderRepo.List(ctx, status, sessionID, page, limit)
}
