package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesImport is one committed batch of externally exported sales.
type SalesImport struct {
	ID           uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ImportedBy   *uuid.UUID        `gorm:"type:uuid" json:"imported_by"`
	Source       string            `gorm:"type:varchar(50);not null" json:"source"`
	Days         []SalesImportDay  `gorm:"foreignKey:ImportID;constraint:OnDelete:CASCADE" json:"days"`
	Items        []SalesImportItem `gorm:"foreignKey:ImportID;constraint:OnDelete:CASCADE" json:"items"`
	NewDays      int               `gorm:"not null" json:"new_days"`
	SkippedDays  int               `gorm:"not null" json:"skipped_days"`
	ItemsSkipped bool              `gorm:"not null;default:false" json:"items_skipped"`
	GrossSales   decimal.Decimal   `gorm:"type:decimal(14,2);not null;default:0" json:"gross_sales"`
	NetSales     decimal.Decimal   `gorm:"type:decimal(14,2);not null;default:0" json:"net_sales"`
	TotalCost    decimal.Decimal   `gorm:"type:decimal(14,2);not null;default:0" json:"total_cost"`
	GrossProfit  decimal.Decimal   `gorm:"type:decimal(14,2);not null;default:0" json:"gross_profit"`
	CreatedAt    time.Time         `json:"created_at"`
}

// SalesImportDay is unique by day-key across all imports.
type SalesImportDay struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ImportID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"import_id"`
	DateKey           string          `gorm:"type:varchar(10);not null;uniqueIndex" json:"date_key"`
	GrossSales        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"gross_sales"`
	NetSales          decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"net_sales"`
	Discounts         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"discounts"`
	ExternalCostGoods decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"external_cost_goods"`
}

// SalesImportItem is one reconciled external item line, costed with the internal catalog.
type SalesImportItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ImportID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"import_id"`
	ExternalName string          `gorm:"type:varchar(255);not null" json:"external_name"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID    *uuid.UUID      `gorm:"type:uuid" json:"variant_id"`
	Category     string          `gorm:"type:varchar(100)" json:"category"`
	Quantity     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"quantity"`
	GrossSales   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"gross_sales"`
	Discounts    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"discounts"`
	NetSales     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"net_sales"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_cost"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_cost"`
	Profit       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"profit"`
	Margin       decimal.Decimal `gorm:"type:decimal(8,4);not null" json:"margin"`
}

// Mapping sources
const (
	MappingAuto   = "auto"
	MappingManual = "manual"
)

// ProductMapping memoizes an external item name to a catalog product.
type ProductMapping struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ExternalName string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"external_name"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID    *uuid.UUID      `gorm:"type:uuid" json:"variant_id"`
	Source       string          `gorm:"type:varchar(10);not null" json:"source"`
	Score        decimal.Decimal `gorm:"type:decimal(5,4);not null;default:0" json:"score"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
