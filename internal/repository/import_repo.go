package repository

import (
	"context"

	"bakerypos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ImportRepository interface {
	ImportedDateKeys(ctx context.Context, keys []string) ([]string, error)
	Create(ctx context.Context, batch *model.SalesImport) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SalesImport, error)
	List(ctx context.Context, page, limit int) ([]model.SalesImport, int64, error)
}

type importRepository struct {
	db *gorm.DB
}

func NewImportRepository(db *gorm.DB) ImportRepository {
	return &importRepository{db: db}
}

func (r *importRepository) ImportedDateKeys(ctx context.Context, keys []string) ([]string, error) {
	var existing []string
	if len(keys) == 0 {
		return existing, nil
	}
	err := GetDB(ctx, r.db).Model(&model.SalesImportDay{}).Where("date_key IN ?", keys).Pluck("date_key", &existing).Error
	return existing, err
}

func (r *importRepository) Create(ctx context.Context, batch *model.SalesImport) error {
	return GetDB(ctx, r.db).Create(batch).Error
}

func (r *importRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SalesImport, error) {
	var batch model.SalesImport
	if err := GetDB(ctx, r.db).Preload("Days").Preload("Items").First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *importRepository) List(ctx context.Context, page, limit int) ([]model.SalesImport, int64, error) {
	var batches []model.SalesImport
	var total int64

	db := GetDB(ctx, r.db).Model(&model.SalesImport{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Days").Order("created_at DESC").Scopes(paginate(page, limit)).Find(&batches).Error; err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

type MappingRepository interface {
	FindByNames(ctx context.Context, names []string) ([]model.ProductMapping, error)
	Upsert(ctx context.Context, mappings []model.ProductMapping) error
	List(ctx context.Context) ([]model.ProductMapping, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type mappingRepository struct {
	db *gorm.DB
}

func NewMappingRepository(db *gorm.DB) MappingRepository {
	return &mappingRepository{db: db}
}

func (r *mappingRepository) FindByNames(ctx context.Context, names []string) ([]model.ProductMapping, error) {
	var mappings []model.ProductMapping
	if len(names) == 0 {
		return mappings, nil
	}
	if err := GetDB(ctx, r.db).Where("external_name IN ?", names).Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

func (r *mappingRepository) Upsert(ctx context.Context, mappings []model.ProductMapping) error {
	if len(mappings) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"product_id", "variant_id", "source", "score", "updated_at"}),
	}).Create(&mappings).Error
}

func (r *mappingRepository) List(ctx context.Context) ([]model.ProductMapping, error) {
	var mappings []model.ProductMapping
	if err := GetDB(ctx, r.db).Order("external_name asc").Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

func (r *mappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ProductMapping{}).Error
}
