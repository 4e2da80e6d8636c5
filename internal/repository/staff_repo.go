package repository

import (
	"context"

	"bakerypos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StaffRepository interface {
	Create(ctx context.Context, staff *model.Staff) error
	Update(ctx context.Context, staff *model.Staff) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Staff, error)
	List(ctx context.Context, page, limit int) ([]model.Staff, int64, error)
}

type staffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) Create(ctx context.Context, staff *model.Staff) error {
	return GetDB(ctx, r.db).Create(staff).Error
}

func (r *staffRepository) Update(ctx context.Context, staff *model.Staff) error {
	return GetDB(ctx, r.db).Save(staff).Error
}

func (r *staffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Staff{}).Error
}

func (r *staffRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	var staff model.Staff
	if err := GetDB(ctx, r.db).First(&staff, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) List(ctx context.Context, page, limit int) ([]model.Staff, int64, error) {
	var staff []model.Staff
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Staff{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("name asc").Scopes(paginate(page, limit)).Find(&staff).Error; err != nil {
		return nil, 0, err
	}
	return staff, total, nil
}

type DeviceRepository interface {
	Create(ctx context.Context, device *model.AuthorizedDevice) error
	FindActive(ctx context.Context, deviceID string) (*model.AuthorizedDevice, error)
	List(ctx context.Context) ([]model.AuthorizedDevice, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

type deviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

func (r *deviceRepository) Create(ctx context.Context, device *model.AuthorizedDevice) error {
	return GetDB(ctx, r.db).Create(device).Error
}

func (r *deviceRepository) FindActive(ctx context.Context, deviceID string) (*model.AuthorizedDevice, error) {
	var device model.AuthorizedDevice
	if err := GetDB(ctx, r.db).Where("device_id = ? AND revoked_at IS NULL", deviceID).First(&device).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepository) List(ctx context.Context) ([]model.AuthorizedDevice, error) {
	var devices []model.AuthorizedDevice
	if err := GetDB(ctx, r.db).Order("created_at desc").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *deviceRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.AuthorizedDevice{}).Where("id = ?", id).Update("revoked_at", gorm.Expr("NOW()")).Error
}
