package service

import (
	"context"
	"fmt"

	"bakerypos/internal/model"
	"bakerypos/internal/repository"

	"github.com/shopspring/decimal"
)

type DiscountRequest struct {
	Name       string          `json:"name" binding:"required"`
	Percent    decimal.Decimal `json:"percent"`
	RequiresID bool            `json:"requires_id"`
	IsActive   *bool           `json:"is_active"`
}

type DiscountService interface {
	CreateDiscount(ctx context.Context, req DiscountRequest) (*model.Discount, error)
	UpdateDiscount(ctx context.Context, id string, req DiscountRequest) (*model.Discount, error)
	ListDiscounts(ctx context.Context, activeOnly bool) ([]model.Discount, error)
}

type discountService struct {
	discountRepo repository.DiscountRepository
}

func NewDiscountService(discountRepo repository.DiscountRepository) DiscountService {
	return &discountService{discountRepo: discountRepo}
}

func validatePercent(p decimal.Decimal) error {
	if !p.IsPositive() || p.GreaterThan(hundred) {
		return invalid("discount percent must be in (0, 100]")
	}
	return nil
}

func (s *discountService) CreateDiscount(ctx context.Context, req DiscountRequest) (*model.Discount, error) {
	if err := validatePercent(req.Percent); err != nil {
		return nil, err
	}
	discount := &model.Discount{Name: req.Name, Percent: req.Percent, RequiresID: req.RequiresID, IsActive: true}
	if req.IsActive != nil {
		discount.IsActive = *req.IsActive
	}
	if err := s.discountRepo.Create(ctx, discount); err != nil {
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}
	return discount, nil
}

func (s *discountService) UpdateDiscount(ctx context.Context, id string, req DiscountRequest) (*model.Discount, error) {
	did, err := parseID(id, "discount")
	if err != nil {
		return nil, err
	}
	if err := validatePercent(req.Percent); err != nil {
		return nil, err
	}
	discount, err := s.discountRepo.FindByID(ctx, did)
	if err != nil {
		return nil, wrapNotFound(err, "discount")
	}
	discount.Name = req.Name
	discount.Percent = req.Percent
	discount.RequiresID = req.RequiresID
	if req.IsActive != nil {
		discount.IsActive = *req.IsActive
	}
	if err := s.discountRepo.Update(ctx, discount); err != nil {
		return nil, fmt.Errorf("failed to update discount: %w", err)
	}
	return discount, nil
}

func (s *discountService) ListDiscounts(ctx context.Context, activeOnly bool) ([]model.Discount, error) {
	return s.discountRepo.List(ctx, activeOnly)
}
