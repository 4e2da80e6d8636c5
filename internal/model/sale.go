package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods
const (
	PaymentCash   = "cash"
	PaymentGCash  = "gcash"
	PaymentCard   = "card"
	PaymentCharge = "charge"
)

const (
	SaleStatusCompleted = "completed"
	SaleStatusVoided    = "voided"
)

// Deduction statuses for the background stock/ingredient job
const (
	DeductionPending = "pending"
	DeductionDone    = "done"
	DeductionFailed  = "failed"
)

// Sale is written atomically at checkout. Only admin line removal or deletion mutate it.
type Sale struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleNo           string           `gorm:"type:varchar(30);uniqueIndex;not null" json:"sale_no"`
	DateKey          string           `gorm:"type:varchar(10);not null;index" json:"date_key"`
	Timestamp        time.Time        `gorm:"not null;index" json:"timestamp"`
	ShiftID          *uuid.UUID       `gorm:"type:uuid;index" json:"shift_id"`
	CashierID        uuid.UUID        `gorm:"type:uuid;not null" json:"cashier_id"`
	CashierName      string           `gorm:"type:varchar(255)" json:"cashier_name"`
	Items            []SaleItem       `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal         decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TotalDiscount    decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"total_discount"`
	Total            decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"total"`
	PaymentMethod    string           `gorm:"type:varchar(20);not null;index" json:"payment_method"`
	CashReceived     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"cash_received,omitempty"`
	Change           *decimal.Decimal `gorm:"column:change_due;type:decimal(12,2)" json:"change,omitempty"`
	GCashRefNo       string           `gorm:"column:gcash_ref_no;type:varchar(100)" json:"gcash_ref_no,omitempty"`
	GCashPhotoURL    string           `gorm:"column:gcash_photo_url;type:text" json:"gcash_photo_url,omitempty"`
	ChargeCustomerID *uuid.UUID       `gorm:"type:uuid;index" json:"charge_customer_id,omitempty"`
	DiscountID       *uuid.UUID       `gorm:"type:uuid" json:"discount_id,omitempty"`
	DiscountIDPhoto  string           `gorm:"type:text" json:"discount_id_photo,omitempty"`
	Status           string           `gorm:"type:varchar(20);not null;default:'completed'" json:"status"`
	DeductionStatus  string           `gorm:"type:varchar(20);not null;default:'pending'" json:"deduction_status"`
	AuditNote        string           `gorm:"type:text" json:"audit_note,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// SaleItem is one line of a sale. DiscountAmount is per unit.
type SaleItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID       *uuid.UUID      `gorm:"type:uuid" json:"variant_id,omitempty"`
	ProductName     string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Category        string          `gorm:"type:varchar(100)" json:"category"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	OriginalPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"original_price"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	DiscountName    string          `gorm:"type:varchar(100)" json:"discount_name,omitempty"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
}

// Discount is a percent-off promotion selectable at the register.
type Discount struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name       string          `gorm:"type:varchar(100);not null" json:"name"`
	Percent    decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"percent"`
	RequiresID bool            `gorm:"not null;default:false" json:"requires_id"`
	IsActive   bool            `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// DeductionFailure is a dead-lettered background deduction job.
type DeductionFailure struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"sale_id"`
	Stage      string     `gorm:"type:varchar(20);not null" json:"stage"` // stock, ingredients
	Attempts   int        `gorm:"not null" json:"attempts"`
	LastError  string     `gorm:"type:text" json:"last_error"`
	ResolvedAt *time.Time `json:"resolved_at"`
	CreatedAt  time.Time  `json:"created_at"`
}
