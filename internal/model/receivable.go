package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ReceivableUnpaid  = "unpaid"
	ReceivablePartial = "partial"
	ReceivablePaid    = "paid"
)

// ChargeCustomer is allowed to buy on credit.
type ChargeCustomer struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Receivable is derived 1:1 from a charge sale.
type Receivable struct {
	ID               uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID           uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex" json:"sale_id"`
	SaleNo           string              `gorm:"type:varchar(30)" json:"sale_no"`
	ChargeCustomerID uuid.UUID           `gorm:"type:uuid;not null;index" json:"charge_customer_id"`
	CustomerName     string              `gorm:"type:varchar(255)" json:"customer_name"`
	Amount           decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"amount"`
	Balance          decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"balance"`
	Status           string              `gorm:"type:varchar(20);not null;default:'unpaid';index" json:"status"`
	Payments         []ReceivablePayment `gorm:"foreignKey:ReceivableID;constraint:OnDelete:CASCADE" json:"payments"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

type ReceivablePayment struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReceivableID uuid.UUID       `gorm:"type:uuid;not null;index" json:"receivable_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method       string          `gorm:"type:varchar(20);not null" json:"method"`
	ReceivedBy   *uuid.UUID      `gorm:"type:uuid" json:"received_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ApplyPayment reduces the balance and refreshes the status.
func (r *Receivable) ApplyPayment(amount decimal.Decimal) {
	r.Balance = r.Balance.Sub(amount)
	switch {
	case r.Balance.LessThanOrEqual(decimal.Zero):
		r.Balance = decimal.Zero
		r.Status = ReceivablePaid
	case r.Balance.LessThan(r.Amount):
		r.Status = ReceivablePartial
	default:
		r.Status = ReceivableUnpaid
	}
}
