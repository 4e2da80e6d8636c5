package repository

import (
	"context"

	"bakerypos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	ListCatalog(ctx context.Context) ([]model.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Session(&gorm.Session{FullSaveAssociations: true}).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Preload("Variants").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := GetDB(ctx, r.db).Preload("Variants").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{})
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Variants").Order("name asc").Scopes(paginate(page, limit)).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// ListCatalog returns active products in a stable order; fuzzy matching ties resolve by this order.
func (r *productRepository) ListCatalog(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := GetDB(ctx, r.db).Preload("Variants").
		Where("is_active = ?", true).
		Order("created_at asc, id asc").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
