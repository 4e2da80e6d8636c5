package repository

import (
	"context"

	"bakerypos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	Update(ctx context.Context, sale *model.Sale) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	ListByShift(ctx context.Context, shiftID uuid.UUID) ([]model.Sale, error)
	ListByDateRange(ctx context.Context, fromKey, toKey string) ([]model.Sale, error)
	LastSaleNo(ctx context.Context, dateKey string) (string, error)
	ListChargeWithoutReceivable(ctx context.Context) ([]model.Sale, error)
	UpdateDeductionStatus(ctx context.Context, id uuid.UUID, status string) error
	ListByDeductionStatus(ctx context.Context, status string, limit int) ([]model.Sale, error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Create(sale).Error
}

func (r *saleRepository) Update(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Omit("Items").Save(sale).Error
}

func (r *saleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("sale_id = ?", id).Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Sale{}).Error
}

func (r *saleRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", itemID).Delete(&model.SaleItem{}).Error
}

func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).Preload("Items").First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) ListByShift(ctx context.Context, shiftID uuid.UUID) ([]model.Sale, error) {
	var sales []model.Sale
	if err := GetDB(ctx, r.db).Preload("Items").
		Where("shift_id = ? AND status = ?", shiftID, model.SaleStatusCompleted).
		Order("timestamp asc").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *saleRepository) ListByDateRange(ctx context.Context, fromKey, toKey string) ([]model.Sale, error) {
	var sales []model.Sale
	if err := GetDB(ctx, r.db).Preload("Items").
		Where("date_key >= ? AND date_key <= ? AND status = ?", fromKey, toKey, model.SaleStatusCompleted).
		Order("timestamp asc").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// LastSaleNo returns the highest sale number of the day, or "" when there is none.
func (r *saleRepository) LastSaleNo(ctx context.Context, dateKey string) (string, error) {
	var last string
	err := GetDB(ctx, r.db).Model(&model.Sale{}).
		Where("date_key = ?", dateKey).
		Select("COALESCE(MAX(sale_no), '')").
		Scan(&last).Error
	return last, err
}

func (r *saleRepository) ListChargeWithoutReceivable(ctx context.Context) ([]model.Sale, error) {
	var sales []model.Sale
	if err := GetDB(ctx, r.db).
		Where("payment_method = ? AND status = ?", model.PaymentCharge, model.SaleStatusCompleted).
		Where("NOT EXISTS (SELECT 1 FROM receivables WHERE receivables.sale_id = sales.id)").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *saleRepository) UpdateDeductionStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Sale{}).Where("id = ?", id).Update("deduction_status", status).Error
}

func (r *saleRepository) ListByDeductionStatus(ctx context.Context, status string, limit int) ([]model.Sale, error) {
	var sales []model.Sale
	if err := GetDB(ctx, r.db).
		Where("deduction_status = ? AND status = ?", status, model.SaleStatusCompleted).
		Order("timestamp asc").
		Limit(limit).
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

type DiscountRepository interface {
	Create(ctx context.Context, discount *model.Discount) error
	Update(ctx context.Context, discount *model.Discount) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Discount, error)
	List(ctx context.Context, activeOnly bool) ([]model.Discount, error)
}

type discountRepository struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) DiscountRepository {
	return &discountRepository{db: db}
}

func (r *discountRepository) Create(ctx context.Context, discount *model.Discount) error {
	return GetDB(ctx, r.db).Create(discount).Error
}

func (r *discountRepository) Update(ctx context.Context, discount *model.Discount) error {
	return GetDB(ctx, r.db).Save(discount).Error
}

func (r *discountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Discount, error) {
	var discount model.Discount
	if err := GetDB(ctx, r.db).First(&discount, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *discountRepository) List(ctx context.Context, activeOnly bool) ([]model.Discount, error) {
	var discounts []model.Discount
	query := GetDB(ctx, r.db).Model(&model.Discount{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("name asc").Find(&discounts).Error; err != nil {
		return nil, err
	}
	return discounts, nil
}

type DeductionFailureRepository interface {
	Create(ctx context.Context, failure *model.DeductionFailure) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DeductionFailure, error)
	ListUnresolved(ctx context.Context) ([]model.DeductionFailure, error)
	RecordRetry(ctx context.Context, id uuid.UUID, stage string, attempts int, lastError string) error
	MarkResolved(ctx context.Context, id uuid.UUID) error
}

type deductionFailureRepository struct {
	db *gorm.DB
}

func NewDeductionFailureRepository(db *gorm.DB) DeductionFailureRepository {
	return &deductionFailureRepository{db: db}
}

func (r *deductionFailureRepository) Create(ctx context.Context, failure *model.DeductionFailure) error {
	return GetDB(ctx, r.db).Create(failure).Error
}

func (r *deductionFailureRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.DeductionFailure, error) {
	var failure model.DeductionFailure
	if err := GetDB(ctx, r.db).First(&failure, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &failure, nil
}

func (r *deductionFailureRepository) ListUnresolved(ctx context.Context) ([]model.DeductionFailure, error) {
	var failures []model.DeductionFailure
	if err := GetDB(ctx, r.db).Where("resolved_at IS NULL").Order("created_at asc").Find(&failures).Error; err != nil {
		return nil, err
	}
	return failures, nil
}

// RecordRetry folds another failed run into an unresolved failure. It returns
// ErrNotFound when the failure is gone or already resolved.
func (r *deductionFailureRepository) RecordRetry(ctx context.Context, id uuid.UUID, stage string, attempts int, lastError string) error {
	res := GetDB(ctx, r.db).Model(&model.DeductionFailure{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Updates(map[string]interface{}{
			"stage":      stage,
			"attempts":   gorm.Expr("attempts + ?", attempts),
			"last_error": lastError,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *deductionFailureRepository) MarkResolved(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.DeductionFailure{}).Where("id = ?", id).Update("resolved_at", gorm.Expr("NOW()")).Error
}
