package repository

import (
	"context"

	"bakerypos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository interface {
	FindByDateProduct(ctx context.Context, dateKey string, productID uuid.UUID) (*model.DailyInventory, error)
	FindByDateProductForUpdate(ctx context.Context, dateKey string, productID uuid.UUID) (*model.DailyInventory, error)
	ListByDate(ctx context.Context, dateKey string) ([]model.DailyInventory, error)
	Save(ctx context.Context, record *model.DailyInventory) error
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) FindByDateProduct(ctx context.Context, dateKey string, productID uuid.UUID) (*model.DailyInventory, error) {
	var record model.DailyInventory
	if err := GetDB(ctx, r.db).Where("date_key = ? AND product_id = ?", dateKey, productID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *inventoryRepository) FindByDateProductForUpdate(ctx context.Context, dateKey string, productID uuid.UUID) (*model.DailyInventory, error) {
	var record model.DailyInventory
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("date_key = ? AND product_id = ?", dateKey, productID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *inventoryRepository) ListByDate(ctx context.Context, dateKey string) ([]model.DailyInventory, error) {
	var records []model.DailyInventory
	if err := GetDB(ctx, r.db).Where("date_key = ?", dateKey).Order("product_name asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *inventoryRepository) Save(ctx context.Context, record *model.DailyInventory) error {
	return GetDB(ctx, r.db).Save(record).Error
}

type StockMovementRepository interface {
	Create(ctx context.Context, movement *model.StockMovement) error
	Exists(ctx context.Context, referenceID, productID uuid.UUID, movementType string) (bool, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, dateKey string) ([]model.StockMovement, error)
}

type stockMovementRepository struct {
	db *gorm.DB
}

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) Create(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *stockMovementRepository) Exists(ctx context.Context, referenceID, productID uuid.UUID, movementType string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.StockMovement{}).
		Where("reference_id = ? AND product_id = ? AND movement_type = ?", referenceID, productID, movementType).
		Count(&count).Error
	return count > 0, err
}

func (r *stockMovementRepository) ListByProduct(ctx context.Context, productID uuid.UUID, dateKey string) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	query := GetDB(ctx, r.db).Where("product_id = ?", productID)
	if dateKey != "" {
		query = query.Where("date_key = ?", dateKey)
	}
	if err := query.Order("created_at asc").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

type ShiftInventoryRepository interface {
	Create(ctx context.Context, record *model.ShiftInventory) error
	FindByShiftPhase(ctx context.Context, shiftID uuid.UUID, phase string) (*model.ShiftInventory, error)
}

type shiftInventoryRepository struct {
	db *gorm.DB
}

func NewShiftInventoryRepository(db *gorm.DB) ShiftInventoryRepository {
	return &shiftInventoryRepository{db: db}
}

func (r *shiftInventoryRepository) Create(ctx context.Context, record *model.ShiftInventory) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *shiftInventoryRepository) FindByShiftPhase(ctx context.Context, shiftID uuid.UUID, phase string) (*model.ShiftInventory, error) {
	var record model.ShiftInventory
	if err := GetDB(ctx, r.db).Preload("Lines").
		Where("shift_id = ? AND phase = ?", shiftID, phase).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}
