package repository

import (
	"context"

	"bakerypos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RecipeRepository interface {
	CreateIngredient(ctx context.Context, ingredient *model.Ingredient) error
	ListIngredients(ctx context.Context) ([]model.Ingredient, error)
	CreatePackaging(ctx context.Context, packaging *model.PackagingMaterial) error
	ListPackaging(ctx context.Context) ([]model.PackagingMaterial, error)
	CreatePreparation(ctx context.Context, prep *model.Preparation) error
	ListPreparations(ctx context.Context, kind string) ([]model.Preparation, error)
	FindPreparations(ctx context.Context, ids []uuid.UUID) ([]model.Preparation, error)
	ReplaceRecipe(ctx context.Context, productID uuid.UUID, components []model.RecipeComponent) error
	ListComponents(ctx context.Context, productIDs []uuid.UUID) ([]model.RecipeComponent, error)
	DecrementIngredient(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error
	DecrementPackaging(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error
	DeductionLogExists(ctx context.Context, saleID uuid.UUID) (bool, error)
	CreateDeductionLog(ctx context.Context, entry *model.InventoryDeductionLog) error
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) CreateIngredient(ctx context.Context, ingredient *model.Ingredient) error {
	return GetDB(ctx, r.db).Create(ingredient).Error
}

func (r *recipeRepository) ListIngredients(ctx context.Context) ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	if err := GetDB(ctx, r.db).Order("name asc").Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *recipeRepository) CreatePackaging(ctx context.Context, packaging *model.PackagingMaterial) error {
	return GetDB(ctx, r.db).Create(packaging).Error
}

func (r *recipeRepository) ListPackaging(ctx context.Context) ([]model.PackagingMaterial, error) {
	var materials []model.PackagingMaterial
	if err := GetDB(ctx, r.db).Order("name asc").Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *recipeRepository) CreatePreparation(ctx context.Context, prep *model.Preparation) error {
	return GetDB(ctx, r.db).Create(prep).Error
}

func (r *recipeRepository) ListPreparations(ctx context.Context, kind string) ([]model.Preparation, error) {
	var preps []model.Preparation
	query := GetDB(ctx, r.db).Preload("Lines")
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if err := query.Order("name asc").Find(&preps).Error; err != nil {
		return nil, err
	}
	return preps, nil
}

func (r *recipeRepository) FindPreparations(ctx context.Context, ids []uuid.UUID) ([]model.Preparation, error) {
	var preps []model.Preparation
	if len(ids) == 0 {
		return preps, nil
	}
	if err := GetDB(ctx, r.db).Preload("Lines").Where("id IN ?", ids).Find(&preps).Error; err != nil {
		return nil, err
	}
	return preps, nil
}

func (r *recipeRepository) ReplaceRecipe(ctx context.Context, productID uuid.UUID, components []model.RecipeComponent) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("product_id = ?", productID).Delete(&model.RecipeComponent{}).Error; err != nil {
		return err
	}
	if len(components) == 0 {
		return nil
	}
	return db.Create(&components).Error
}

func (r *recipeRepository) ListComponents(ctx context.Context, productIDs []uuid.UUID) ([]model.RecipeComponent, error) {
	var components []model.RecipeComponent
	if len(productIDs) == 0 {
		return components, nil
	}
	if err := GetDB(ctx, r.db).Where("product_id IN ?", productIDs).Order("position asc").Find(&components).Error; err != nil {
		return nil, err
	}
	return components, nil
}

func (r *recipeRepository) DecrementIngredient(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.Ingredient{}).Where("id = ?", id).
		Update("stock", gorm.Expr("stock - ?", qty)).Error
}

func (r *recipeRepository) DecrementPackaging(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.PackagingMaterial{}).Where("id = ?", id).
		Update("stock", gorm.Expr("stock - ?", qty)).Error
}

func (r *recipeRepository) DeductionLogExists(ctx context.Context, saleID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.InventoryDeductionLog{}).Where("sale_id = ?", saleID).Count(&count).Error
	return count > 0, err
}

func (r *recipeRepository) CreateDeductionLog(ctx context.Context, entry *model.InventoryDeductionLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}
