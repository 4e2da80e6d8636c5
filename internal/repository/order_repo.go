package repository

import (
	"context"

	"bakerypos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.CustomerOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CustomerOrder, error)
	Update(ctx context.Context, order *model.CustomerOrder) error
	LastOrderNo(ctx context.Context, prefix string) (string, error)
	List(ctx context.Context, status, sessionID string, page, limit int) ([]model.CustomerOrder, int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.CustomerOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CustomerOrder, error) {
	var order model.CustomerOrder
	if err := GetDB(ctx, r.db).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Update(ctx context.Context, order *model.CustomerOrder) error {
	return GetDB(ctx, r.db).Omit("Items").Save(order).Error
}

// LastOrderNo returns the highest order number starting with prefix, or "".
func (r *orderRepository) LastOrderNo(ctx context.Context, prefix string) (string, error) {
	var last string
	err := GetDB(ctx, r.db).Model(&model.CustomerOrder{}).
		Where("order_no LIKE ?", prefix+"%").
		Select("COALESCE(MAX(order_no), '')").
		Scan(&last).Error
	return last, err
}

func (r *orderRepository) List(ctx context.Context, status, sessionID string, page, limit int) ([]model.CustomerOrder, int64, error) {
	var orders []model.CustomerOrder
	var total int64

	query := GetDB(ctx, r.db).Model(&model.CustomerOrder{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Items").Order("created_at DESC").Scopes(paginate(page, limit)).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
