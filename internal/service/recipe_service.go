package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"bakerypos/internal/model"
	"bakerypos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateIngredientRequest struct {
	Name     string          `json:"name" binding:"required"`
	Unit     string          `json:"unit" binding:"required"`
	Stock    decimal.Decimal `json:"stock"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

type CreatePackagingRequest struct {
	Name     string          `json:"name" binding:"required"`
	Stock    decimal.Decimal `json:"stock"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

type PreparationLineRequest struct {
	IngredientID string          `json:"ingredient_id" binding:"required,uuid"`
	Quantity     decimal.Decimal `json:"quantity"`
}

type CreatePreparationRequest struct {
	Kind        string                   `json:"kind" binding:"required,oneof=dough filling topping"`
	Name        string                   `json:"name" binding:"required"`
	BatchWeight decimal.Decimal          `json:"batch_weight"`
	Lines       []PreparationLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type RecipeComponentRequest struct {
	ComponentType string          `json:"component_type" binding:"required,oneof=preparation ingredient packaging"`
	ReferenceID   string          `json:"reference_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount"`
}

type SetRecipeRequest struct {
	Components []RecipeComponentRequest `json:"components" binding:"dive"`
}

// UsageStep is one recipe node's contribution, kept for the deduction log.
type UsageStep struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ComponentType string          `json:"component_type"`
	Via           string          `json:"via,omitempty"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// RecipeUsage is the summed consumption of one sale.
type RecipeUsage struct {
	Ingredients map[uuid.UUID]decimal.Decimal `json:"ingredients"`
	Packaging   map[uuid.UUID]decimal.Decimal `json:"packaging"`
	Steps       []UsageStep                   `json:"steps"`
}

var componentRank = map[string]int{
	model.PrepDough:            0,
	model.PrepFilling:          1,
	model.PrepTopping:          2,
	model.ComponentIngredient:  3,
	model.ComponentPackaging:   4,
	model.ComponentPreparation: 5,
}

func rankOf(c model.RecipeComponent, preps map[uuid.UUID]model.Preparation) int {
	if c.ComponentType == model.ComponentPreparation {
		if p, ok := preps[c.ReferenceID]; ok {
			if r, ok := componentRank[p.Kind]; ok {
				return r
			}
		}
	}
	return componentRank[c.ComponentType]
}

// ComputeRecipeUsage walks dough, filling, toppings, direct ingredients and then
// packaging for every sold line. A preparation contributes
// ingredientQty × (usedWeight / batchWeight) × soldQty per ingredient line.
func ComputeRecipeUsage(lines []StockLine, components []model.RecipeComponent, preps map[uuid.UUID]model.Preparation) (RecipeUsage, error) {
	usage := RecipeUsage{
		Ingredients: make(map[uuid.UUID]decimal.Decimal),
		Packaging:   make(map[uuid.UUID]decimal.Decimal),
	}
	byProduct := make(map[uuid.UUID][]model.RecipeComponent)
	for _, c := range components {
		byProduct[c.ProductID] = append(byProduct[c.ProductID], c)
	}

	for _, line := range lines {
		comps := byProduct[line.ProductID]
		sort.SliceStable(comps, func(i, j int) bool {
			ri, rj := rankOf(comps[i], preps), rankOf(comps[j], preps)
			if ri != rj {
				return ri < rj
			}
			return comps[i].Position < comps[j].Position
		})

		sold := decimal.NewFromInt(int64(line.Quantity))
		for _, c := range comps {
			switch c.ComponentType {
			case model.ComponentPreparation:
				prep, ok := preps[c.ReferenceID]
				if !ok {
					return RecipeUsage{}, fmt.Errorf("preparation %s %w", c.ReferenceID, ErrNotFound)
				}
				if !prep.BatchWeight.IsPositive() {
					return RecipeUsage{}, invalid("preparation %s has no batch weight", prep.Name)
				}
				ratio := c.Amount.Div(prep.BatchWeight)
				for _, pl := range prep.Lines {
					qty := pl.Quantity.Mul(ratio).Mul(sold)
					usage.Ingredients[pl.IngredientID] = usage.Ingredients[pl.IngredientID].Add(qty)
					usage.Steps = append(usage.Steps, UsageStep{
						ProductID: line.ProductID, ComponentType: model.ComponentIngredient,
						Via: prep.Kind + ":" + prep.Name, ReferenceID: pl.IngredientID, Quantity: qty,
					})
				}
			case model.ComponentIngredient:
				qty := c.Amount.Mul(sold)
				usage.Ingredients[c.ReferenceID] = usage.Ingredients[c.ReferenceID].Add(qty)
				usage.Steps = append(usage.Steps, UsageStep{
					ProductID: line.ProductID, ComponentType: model.ComponentIngredient, ReferenceID: c.ReferenceID, Quantity: qty,
				})
			case model.ComponentPackaging:
				qty := c.Amount.Mul(sold)
				usage.Packaging[c.ReferenceID] = usage.Packaging[c.ReferenceID].Add(qty)
				usage.Steps = append(usage.Steps, UsageStep{
					ProductID: line.ProductID, ComponentType: model.ComponentPackaging, ReferenceID: c.ReferenceID, Quantity: qty,
				})
			default:
				return RecipeUsage{}, invalid("unknown component type %q", c.ComponentType)
			}
		}
	}
	return usage, nil
}

func sortedIDs(m map[uuid.UUID]decimal.Decimal) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

type RecipeService interface {
	CreateIngredient(ctx context.Context, req CreateIngredientRequest) (*model.Ingredient, error)
	ListIngredients(ctx context.Context) ([]model.Ingredient, error)
	CreatePackaging(ctx context.Context, req CreatePackagingRequest) (*model.PackagingMaterial, error)
	ListPackaging(ctx context.Context) ([]model.PackagingMaterial, error)
	CreatePreparation(ctx context.Context, req CreatePreparationRequest) (*model.Preparation, error)
	ListPreparations(ctx context.Context, kind string) ([]model.Preparation, error)
	SetRecipe(ctx context.Context, productID string, req SetRecipeRequest) ([]model.RecipeComponent, error)
	GetRecipe(ctx context.Context, productID string) ([]model.RecipeComponent, error)
	DeductIngredients(ctx context.Context, sale *model.Sale) error
}

type recipeService struct {
	recipeRepo  repository.RecipeRepository
	productRepo repository.ProductRepository
	txManager   repository.TransactionManager
}

func NewRecipeService(recipeRepo repository.RecipeRepository, productRepo repository.ProductRepository, txManager repository.TransactionManager) RecipeService {
	return &recipeService{recipeRepo: recipeRepo, productRepo: productRepo, txManager: txManager}
}

func (s *recipeService) CreateIngredient(ctx context.Context, req CreateIngredientRequest) (*model.Ingredient, error) {
	if req.Stock.IsNegative() || req.UnitCost.IsNegative() {
		return nil, invalid("stock and unit cost cannot be negative")
	}
	ingredient := &model.Ingredient{Name: req.Name, Unit: req.Unit, Stock: req.Stock, UnitCost: req.UnitCost}
	if err := s.recipeRepo.CreateIngredient(ctx, ingredient); err != nil {
		return nil, fmt.Errorf("failed to create ingredient: %w", err)
	}
	return ingredient, nil
}

func (s *recipeService) ListIngredients(ctx context.Context) ([]model.Ingredient, error) {
	return s.recipeRepo.ListIngredients(ctx)
}

func (s *recipeService) CreatePackaging(ctx context.Context, req CreatePackagingRequest) (*model.PackagingMaterial, error) {
	if req.Stock.IsNegative() || req.UnitCost.IsNegative() {
		return nil, invalid("stock and unit cost cannot be negative")
	}
	material := &model.PackagingMaterial{Name: req.Name, Stock: req.Stock, UnitCost: req.UnitCost}
	if err := s.recipeRepo.CreatePackaging(ctx, material); err != nil {
		return nil, fmt.Errorf("failed to create packaging: %w", err)
	}
	return material, nil
}

func (s *recipeService) ListPackaging(ctx context.Context) ([]model.PackagingMaterial, error) {
	return s.recipeRepo.ListPackaging(ctx)
}

func (s *recipeService) CreatePreparation(ctx context.Context, req CreatePreparationRequest) (*model.Preparation, error) {
	if !req.BatchWeight.IsPositive() {
		return nil, invalid("batch weight must be positive")
	}
	prep := &model.Preparation{Kind: req.Kind, Name: req.Name, BatchWeight: req.BatchWeight}
	for _, l := range req.Lines {
		id, err := parseID(l.IngredientID, "ingredient")
		if err != nil {
			return nil, err
		}
		if !l.Quantity.IsPositive() {
			return nil, invalid("ingredient quantity must be positive")
		}
		prep.Lines = append(prep.Lines, model.PreparationLine{IngredientID: id, Quantity: l.Quantity})
	}
	if err := s.recipeRepo.CreatePreparation(ctx, prep); err != nil {
		return nil, fmt.Errorf("failed to create preparation: %w", err)
	}
	return prep, nil
}

func (s *recipeService) ListPreparations(ctx context.Context, kind string) ([]model.Preparation, error) {
	return s.recipeRepo.ListPreparations(ctx, kind)
}

func (s *recipeService) SetRecipe(ctx context.Context, productID string, req SetRecipeRequest) ([]model.RecipeComponent, error) {
	id, err := parseID(productID, "product")
	if err != nil {
		return nil, err
	}
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return nil, wrapNotFound(err, "product")
	}

	components := make([]model.RecipeComponent, 0, len(req.Components))
	for i, c := range req.Components {
		ref, err := parseID(c.ReferenceID, c.ComponentType)
		if err != nil {
			return nil, err
		}
		if !c.Amount.IsPositive() {
			return nil, invalid("component amount must be positive")
		}
		components = append(components, model.RecipeComponent{
			ProductID: id, ComponentType: c.ComponentType, ReferenceID: ref, Amount: c.Amount, Position: i,
		})
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.recipeRepo.ReplaceRecipe(txCtx, id, components)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save recipe: %w", err)
	}
	return components, nil
}

func (s *recipeService) GetRecipe(ctx context.Context, productID string) ([]model.RecipeComponent, error) {
	id, err := parseID(productID, "product")
	if err != nil {
		return nil, err
	}
	return s.recipeRepo.ListComponents(ctx, []uuid.UUID{id})
}

// DeductIngredients applies the sale's recipe usage as one batched transaction
// together with its deduction log. A sale already logged is a no-op.
func (s *recipeService) DeductIngredients(ctx context.Context, sale *model.Sale) error {
	done, err := s.recipeRepo.DeductionLogExists(ctx, sale.ID)
	if err != nil {
		return fmt.Errorf("failed to check deduction log: %w", err)
	}
	if done {
		return nil
	}

	lines := aggregateLines(sale.Items)
	productIDs := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		productIDs = append(productIDs, l.ProductID)
	}
	components, err := s.recipeRepo.ListComponents(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("failed to load recipes: %w", err)
	}

	var prepIDs []uuid.UUID
	for _, c := range components {
		if c.ComponentType == model.ComponentPreparation {
			prepIDs = append(prepIDs, c.ReferenceID)
		}
	}
	prepList, err := s.recipeRepo.FindPreparations(ctx, prepIDs)
	if err != nil {
		return fmt.Errorf("failed to load preparations: %w", err)
	}
	preps := make(map[uuid.UUID]model.Preparation, len(prepList))
	for _, p := range prepList {
		preps[p.ID] = p
	}

	usage, err := ComputeRecipeUsage(lines, components, preps)
	if err != nil {
		return err
	}
	details, err := json.Marshal(usage)
	if err != nil {
		return fmt.Errorf("failed to encode usage: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, id := range sortedIDs(usage.Ingredients) {
			if err := s.recipeRepo.DecrementIngredient(txCtx, id, usage.Ingredients[id]); err != nil {
				return fmt.Errorf("failed to decrement ingredient %s: %w", id, err)
			}
		}
		for _, id := range sortedIDs(usage.Packaging) {
			if err := s.recipeRepo.DecrementPackaging(txCtx, id, usage.Packaging[id]); err != nil {
				return fmt.Errorf("failed to decrement packaging %s: %w", id, err)
			}
		}
		return s.recipeRepo.CreateDeductionLog(txCtx, &model.InventoryDeductionLog{
			SaleID:  sale.ID,
			DateKey: sale.DateKey,
			Details: string(details),
		})
	})
	if repository.IsUniqueViolation(err) {
		// A concurrent replay committed first.
		return nil
	}
	if err != nil && !errors.Is(err, ErrInvalidInput) {
		return fmt.Errorf("ingredient deduction for sale %s: %w", sale.SaleNo, err)
	}
	return err
}
