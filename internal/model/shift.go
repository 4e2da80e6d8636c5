package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ShiftStatusActive    = "active"
	ShiftStatusCompleted = "completed"
)

const (
	BalanceBalanced = "balanced"
	BalanceOver     = "over"
	BalanceShort    = "short"
)

// Shift is one cashier drawer session. Immutable after completion except by admin edit/delete.
type Shift struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StaffID          uuid.UUID        `gorm:"type:uuid;not null;index" json:"staff_id"`
	StaffName        string           `gorm:"type:varchar(255);not null" json:"staff_name"`
	Role             string           `gorm:"type:varchar(20);not null" json:"role"`
	DateKey          string           `gorm:"type:varchar(10);not null;uniqueIndex:idx_shift_day_number" json:"date_key"`
	ShiftNumber      int              `gorm:"not null;uniqueIndex:idx_shift_day_number" json:"shift_number"`
	StartTime        time.Time        `gorm:"not null" json:"start_time"`
	StartingCash     decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"starting_cash"`
	EndTime          *time.Time       `json:"end_time"`
	CashSales        decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"cash_sales"`
	GCashSales       decimal.Decimal  `gorm:"column:gcash_sales;type:decimal(12,2);not null;default:0" json:"gcash_sales"`
	OtherSales       decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"other_sales"`
	TotalSales       decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"total_sales"`
	TransactionCount int              `gorm:"not null;default:0" json:"transaction_count"`
	ExpectedCash     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"expected_cash"`
	TotalExpenses    decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"total_expenses"`
	ActualCash       *decimal.Decimal `gorm:"type:decimal(12,2)" json:"actual_cash"`
	Variance         *decimal.Decimal `gorm:"type:decimal(12,2)" json:"variance"`
	BalanceStatus    string           `gorm:"type:varchar(20)" json:"balance_status"`
	Status           string           `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Notes            string           `gorm:"type:text" json:"notes"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Purchase approval statuses
const (
	PurchasePending  = "PENDING"
	PurchaseApproved = "APPROVED"
	PurchaseRejected = "REJECTED"
)

// PendingPurchase is an emergency purchase paid out of the drawer during a shift.
// It waits for manager approval before it is booked.
type PendingPurchase struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShiftID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"shift_id"`
	StaffID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"staff_id"`
	StaffName       string          `gorm:"type:varchar(255)" json:"staff_name"`
	DateKey         string          `gorm:"type:varchar(10);not null;index" json:"date_key"`
	Description     string          `gorm:"type:text;not null" json:"description"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status          string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ApprovedBy      *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt      *time.Time      `json:"approved_at"`
	RejectionReason string          `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
