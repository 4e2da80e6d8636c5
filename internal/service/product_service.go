package service

import (
	"context"
	"fmt"
	"strings"

	"bakerypos/internal/model"
	"bakerypos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs
type VariantRequest struct {
	ID    string          `json:"id"`
	Name  string          `json:"name" binding:"required"`
	Price decimal.Decimal `json:"price"`
	Cost  decimal.Decimal `json:"cost"`
}

type ProductRequest struct {
	SKU      string           `json:"sku" binding:"required"`
	Name     string           `json:"name" binding:"required"`
	Category string           `json:"category"`
	Price    decimal.Decimal  `json:"price"`
	Cost     decimal.Decimal  `json:"cost"`
	IsActive *bool            `json:"is_active"`
	Variants []VariantRequest `json:"variants" binding:"dive"`
}

type ProductService interface {
	ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, actor Actor, req ProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, actor Actor, id string, req ProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, actor Actor, id string) error
}

type productService struct {
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewProductService(productRepo repository.ProductRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) ProductService {
	return &productService{productRepo: productRepo, auditRepo: auditRepo, txManager: txManager}
}

func validatePrices(req ProductRequest) error {
	if req.Price.IsNegative() || req.Cost.IsNegative() {
		return invalid("price and cost must not be negative")
	}
	for _, v := range req.Variants {
		if v.Price.IsNegative() || v.Cost.IsNegative() {
			return invalid("variant %q has a negative price or cost", v.Name)
		}
	}
	return nil
}

func (s *productService) ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.productRepo.List(ctx, page, limit, strings.TrimSpace(search))
}

func (s *productService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	pid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, pid)
	if err != nil {
		return nil, wrapNotFound(err, "product")
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, actor Actor, req ProductRequest) (*model.Product, error) {
	if err := validatePrices(req); err != nil {
		return nil, err
	}
	product := &model.Product{
		SKU:      strings.TrimSpace(req.SKU),
		Name:     strings.TrimSpace(req.Name),
		Category: req.Category,
		Price:    req.Price,
		Cost:     req.Cost,
		IsActive: true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	for _, v := range req.Variants {
		product.Variants = append(product.Variants, model.ProductVariant{Name: v.Name, Price: v.Price, Cost: v.Cost})
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, product); err != nil {
			if repository.IsUniqueViolation(err) {
				return invalid("sku %q already exists", product.SKU)
			}
			return fmt.Errorf("failed to create product: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionCreateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct replaces the product fields. Variants with an id are updated in place,
// new ones are added; variants missing from the request are kept.
func (s *productService) UpdateProduct(ctx context.Context, actor Actor, id string, req ProductRequest) (*model.Product, error) {
	pid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	if err := validatePrices(req); err != nil {
		return nil, err
	}

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err = s.productRepo.FindByID(txCtx, pid)
		if err != nil {
			return wrapNotFound(err, "product")
		}
		product.SKU = strings.TrimSpace(req.SKU)
		product.Name = strings.TrimSpace(req.Name)
		product.Category = req.Category
		product.Price = req.Price
		product.Cost = req.Cost
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}

		for _, v := range req.Variants {
			if v.ID == "" {
				product.Variants = append(product.Variants, model.ProductVariant{ProductID: product.ID, Name: v.Name, Price: v.Price, Cost: v.Cost})
				continue
			}
			vid, err := uuid.Parse(v.ID)
			if err != nil {
				return invalid("invalid variant id")
			}
			found := false
			for i := range product.Variants {
				if product.Variants[i].ID == vid {
					product.Variants[i].Name = v.Name
					product.Variants[i].Price = v.Price
					product.Variants[i].Cost = v.Cost
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("variant %s %w", v.ID, ErrNotFound)
			}
		}

		if err := s.productRepo.Update(txCtx, product); err != nil {
			if repository.IsUniqueViolation(err) {
				return invalid("sku %q already exists", product.SKU)
			}
			return fmt.Errorf("failed to update product: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionUpdateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct soft-deletes the product; sales and inventory rows keep their snapshots.
func (s *productService) DeleteProduct(ctx context.Context, actor Actor, id string) error {
	pid, err := parseID(id, "product")
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByID(txCtx, pid)
		if err != nil {
			return wrapNotFound(err, "product")
		}
		if err := s.productRepo.Delete(txCtx, pid); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionDeleteProduct, product.ID.String(), product.Name,
			map[string]bool{"deleted": true})
	})
}
