package repository

import (
	"context"

	"bakerypos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShiftFilter narrows shift listings. Empty fields are ignored.
type ShiftFilter struct {
	DateFrom string
	DateTo   string
	Status   string
	StaffID  *uuid.UUID
}

type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	Update(ctx context.Context, shift *model.Shift) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Shift, error)
	FindActiveByStaff(ctx context.Context, staffID uuid.UUID) (*model.Shift, error)
	MaxShiftNumber(ctx context.Context, dateKey string) (int, error)
	List(ctx context.Context, filter ShiftFilter, page, limit int) ([]model.Shift, int64, error)
}

type shiftRepository struct {
	db *gorm.DB
}

func NewShiftRepository(db *gorm.DB) ShiftRepository {
	return &shiftRepository{db: db}
}

func (r *shiftRepository) Create(ctx context.Context, shift *model.Shift) error {
	return GetDB(ctx, r.db).Create(shift).Error
}

func (r *shiftRepository) Update(ctx context.Context, shift *model.Shift) error {
	return GetDB(ctx, r.db).Save(shift).Error
}

func (r *shiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Shift{}).Error
}

func (r *shiftRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	var shift model.Shift
	if err := GetDB(ctx, r.db).First(&shift, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepository) FindActiveByStaff(ctx context.Context, staffID uuid.UUID) (*model.Shift, error) {
	var shift model.Shift
	if err := GetDB(ctx, r.db).
		Where("staff_id = ? AND status = ?", staffID, model.ShiftStatusActive).
		Order("start_time desc").
		First(&shift).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

// MaxShiftNumber returns the highest shift number of the day, or 0.
func (r *shiftRepository) MaxShiftNumber(ctx context.Context, dateKey string) (int, error) {
	var max int
	err := GetDB(ctx, r.db).Model(&model.Shift{}).
		Where("date_key = ?", dateKey).
		Select("COALESCE(MAX(shift_number), 0)").
		Scan(&max).Error
	return max, err
}

func (r *shiftRepository) List(ctx context.Context, filter ShiftFilter, page, limit int) ([]model.Shift, int64, error) {
	var shifts []model.Shift
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Shift{})
	if filter.DateFrom != "" {
		query = query.Where("date_key >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("date_key <= ?", filter.DateTo)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StaffID != nil {
		query = query.Where("staff_id = ?", *filter.StaffID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("date_key desc, shift_number desc").Scopes(paginate(page, limit)).Find(&shifts).Error; err != nil {
		return nil, 0, err
	}
	return shifts, total, nil
}

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.PendingPurchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PendingPurchase, error)
	List(ctx context.Context, status string, page, limit int) ([]model.PendingPurchase, int64, error)
	Update(ctx context.Context, purchase *model.PendingPurchase) error
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *model.PendingPurchase) error {
	return GetDB(ctx, r.db).Create(purchase).Error
}

func (r *purchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PendingPurchase, error) {
	var purchase model.PendingPurchase
	if err := GetDB(ctx, r.db).First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) List(ctx context.Context, status string, page, limit int) ([]model.PendingPurchase, int64, error) {
	var purchases []model.PendingPurchase
	var total int64

	query := GetDB(ctx, r.db).Model(&model.PendingPurchase{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Scopes(paginate(page, limit)).Find(&purchases).Error; err != nil {
		return nil, 0, err
	}
	return purchases, total, nil
}

func (r *purchaseRepository) Update(ctx context.Context, purchase *model.PendingPurchase) error {
	return GetDB(ctx, r.db).Save(purchase).Error
}
