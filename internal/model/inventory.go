package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog item. Cost is the internal cost basis used for margins.
type Product struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU       string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name      string           `gorm:"type:varchar(255);not null" json:"name"`
	Category  string           `gorm:"type:varchar(100);index" json:"category"`
	Price     decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	Cost      decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"cost"`
	IsActive  bool             `gorm:"default:true" json:"is_active"`
	Variants  []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`
}

// ProductVariant is a size/flavour of a product with its own price and cost.
type ProductVariant struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Cost      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost"`
}

// DailyInventory tracks one product's stock for one day.
type DailyInventory struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DateKey          string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_inventory_day_product" json:"date_key"`
	ProductID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_daily_inventory_day_product" json:"product_id"`
	ProductName      string     `gorm:"type:varchar(255)" json:"product_name"`
	CarryoverQty     int        `gorm:"not null;default:0" json:"carryover_qty"`
	NewProductionQty int        `gorm:"not null;default:0" json:"new_production_qty"`
	TotalAvailable   int        `gorm:"not null;default:0" json:"total_available"`
	ReservedQty      int        `gorm:"not null;default:0" json:"reserved_qty"`
	SoldQty          int        `gorm:"not null;default:0" json:"sold_qty"`
	CancelledQty     int        `gorm:"not null;default:0" json:"cancelled_qty"`
	SellableQty      int        `gorm:"not null;default:0" json:"sellable_qty"`
	SoldOutAt        *time.Time `json:"sold_out_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Sellable is total - reserved - sold + cancelled, never below zero.
func (d DailyInventory) Sellable() int {
	s := d.TotalAvailable - d.ReservedQty - d.SoldQty + d.CancelledQty
	if s < 0 {
		return 0
	}
	return s
}

// Recompute refreshes the stored totals from the component quantities.
func (d *DailyInventory) Recompute() {
	d.TotalAvailable = d.CarryoverQty + d.NewProductionQty
	d.SellableQty = d.Sellable()
}

// Stock movement types
const (
	MovementSale       = "SALE"
	MovementCancel     = "CANCEL"
	MovementReserve    = "RESERVE"
	MovementRelease    = "RELEASE"
	MovementFulfil     = "FULFIL"
	MovementProduction = "PRODUCTION"
	MovementCarryover  = "CARRYOVER"
)

// StockMovement is the append-only audit trail of stock changes.
type StockMovement struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	DateKey        string     `gorm:"type:varchar(10);not null;index" json:"date_key"`
	MovementType   string     `gorm:"type:varchar(20);not null" json:"movement_type"`
	Quantity       int        `gorm:"not null" json:"quantity"` // negative = out
	SellableBefore int        `gorm:"not null" json:"sellable_before"`
	SellableAfter  int        `gorm:"not null" json:"sellable_after"`
	ReferenceType  string     `gorm:"type:varchar(20)" json:"reference_type"`
	ReferenceID    *uuid.UUID `gorm:"type:uuid;index" json:"reference_id"`
	StaffID        *uuid.UUID `gorm:"type:uuid" json:"staff_id"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Endorsement phases
const (
	EndorsementStart = "start"
	EndorsementEnd   = "end"
)

// ShiftInventory is the start or end inventory endorsement of a shift. One per shift per phase.
type ShiftInventory struct {
	ID                 uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShiftID            uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_shift_inventory_phase" json:"shift_id"`
	Phase              string               `gorm:"type:varchar(10);not null;uniqueIndex:idx_shift_inventory_phase" json:"phase"`
	StaffID            uuid.UUID            `gorm:"type:uuid;not null" json:"staff_id"`
	StaffName          string               `gorm:"type:varchar(255)" json:"staff_name"`
	DateKey            string               `gorm:"type:varchar(10);not null;index" json:"date_key"`
	Lines              []ShiftInventoryLine `gorm:"foreignKey:ShiftInventoryID;constraint:OnDelete:CASCADE" json:"lines"`
	TotalVariance      int                  `gorm:"not null" json:"total_variance"`
	TotalShortageValue decimal.Decimal      `gorm:"type:decimal(12,2);not null;default:0" json:"total_shortage_value"`
	CreatedAt          time.Time            `json:"created_at"`
}

// ShiftInventoryLine compares expected against counted quantity for one product.
type ShiftInventoryLine struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShiftInventoryID uuid.UUID       `gorm:"type:uuid;not null;index" json:"shift_inventory_id"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	ProductName      string          `gorm:"type:varchar(255)" json:"product_name"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	StartQty         int             `gorm:"not null;default:0" json:"start_qty"`
	SoldQty          int             `gorm:"not null;default:0" json:"sold_qty"`
	Expected         int             `gorm:"not null" json:"expected"`
	Counted          int             `gorm:"not null" json:"counted"`
	Variance         int             `gorm:"not null" json:"variance"`
	ShortageValue    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"shortage_value"`
}

// Customer order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// CustomerOrder is a pickup order placed from the customer-facing site.
type CustomerOrder struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNo         string              `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_no"`
	CustomerName    string              `gorm:"type:varchar(255);not null" json:"customer_name"`
	Phone           string              `gorm:"type:varchar(50)" json:"phone"`
	SessionID       string              `gorm:"type:varchar(100);index" json:"session_id"`
	PickupDate      string              `gorm:"type:varchar(10);not null;index" json:"pickup_date"`
	Status          string              `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Items           []CustomerOrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Total           decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"total"`
	PaymentRefNo    string              `gorm:"type:varchar(100)" json:"payment_ref_no"`
	PaymentProofURL string              `gorm:"type:text" json:"payment_proof_url"`
	Note            string              `gorm:"type:text" json:"note"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type CustomerOrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255)" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
}
