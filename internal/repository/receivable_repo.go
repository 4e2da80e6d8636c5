package repository

import (
	"context"

	"bakerypos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReceivableRepository interface {
	Create(ctx context.Context, receivable *model.Receivable) error
	Update(ctx context.Context, receivable *model.Receivable) error
	AddPayment(ctx context.Context, payment *model.ReceivablePayment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Receivable, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Receivable, error)
	FindBySale(ctx context.Context, saleID uuid.UUID) (*model.Receivable, error)
	DeleteBySale(ctx context.Context, saleID uuid.UUID) error
	List(ctx context.Context, status string, customerID *uuid.UUID, page, limit int) ([]model.Receivable, int64, error)
}

type receivableRepository struct {
	db *gorm.DB
}

func NewReceivableRepository(db *gorm.DB) ReceivableRepository {
	return &receivableRepository{db: db}
}

func (r *receivableRepository) Create(ctx context.Context, receivable *model.Receivable) error {
	return GetDB(ctx, r.db).Create(receivable).Error
}

func (r *receivableRepository) Update(ctx context.Context, receivable *model.Receivable) error {
	return GetDB(ctx, r.db).Omit("Payments").Save(receivable).Error
}

func (r *receivableRepository) AddPayment(ctx context.Context, payment *model.ReceivablePayment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *receivableRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Receivable, error) {
	var receivable model.Receivable
	if err := GetDB(ctx, r.db).Preload("Payments").First(&receivable, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &receivable, nil
}

func (r *receivableRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Receivable, error) {
	var receivable model.Receivable
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&receivable, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &receivable, nil
}

func (r *receivableRepository) FindBySale(ctx context.Context, saleID uuid.UUID) (*model.Receivable, error) {
	var receivable model.Receivable
	if err := GetDB(ctx, r.db).Preload("Payments").First(&receivable, "sale_id = ?", saleID).Error; err != nil {
		return nil, err
	}
	return &receivable, nil
}

func (r *receivableRepository) DeleteBySale(ctx context.Context, saleID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("sale_id = ?", saleID).Delete(&model.Receivable{}).Error
}

func (r *receivableRepository) List(ctx context.Context, status string, customerID *uuid.UUID, page, limit int) ([]model.Receivable, int64, error) {
	var receivables []model.Receivable
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Receivable{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID != nil {
		query = query.Where("charge_customer_id = ?", *customerID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Payments").Order("created_at DESC").Scopes(paginate(page, limit)).Find(&receivables).Error; err != nil {
		return nil, 0, err
	}
	return receivables, total, nil
}

type ChargeCustomerRepository interface {
	Create(ctx context.Context, customer *model.ChargeCustomer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ChargeCustomer, error)
	List(ctx context.Context) ([]model.ChargeCustomer, error)
}

type chargeCustomerRepository struct {
	db *gorm.DB
}

func NewChargeCustomerRepository(db *gorm.DB) ChargeCustomerRepository {
	return &chargeCustomerRepository{db: db}
}

func (r *chargeCustomerRepository) Create(ctx context.Context, customer *model.ChargeCustomer) error {
	return GetDB(ctx, r.db).Create(customer).Error
}

func (r *chargeCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ChargeCustomer, error) {
	var customer model.ChargeCustomer
	if err := GetDB(ctx, r.db).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *chargeCustomerRepository) List(ctx context.Context) ([]model.ChargeCustomer, error) {
	var customers []model.ChargeCustomer
	if err := GetDB(ctx, r.db).Where("is_active = ?", true).Order("name asc").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}
