package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ingredient is a raw material tracked by unit (grams, ml, pieces).
type Ingredient struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit      string          `gorm:"type:varchar(20);not null" json:"unit"`
	Stock     decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"stock"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0" json:"unit_cost"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PackagingMaterial is a box, bag or label consumed per sold unit.
type PackagingMaterial struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Stock     decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"stock"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0" json:"unit_cost"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Preparation kinds
const (
	PrepDough   = "dough"
	PrepFilling = "filling"
	PrepTopping = "topping"
)

// Preparation is an intermediate batch recipe (dough, filling or topping).
// BatchWeight is the yield of one batch made from Lines.
type Preparation struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Kind        string            `gorm:"type:varchar(20);not null;index" json:"kind"`
	Name        string            `gorm:"type:varchar(255);not null" json:"name"`
	BatchWeight decimal.Decimal   `gorm:"type:decimal(14,4);not null" json:"batch_weight"`
	Lines       []PreparationLine `gorm:"foreignKey:PreparationID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type PreparationLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PreparationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"preparation_id"`
	IngredientID  uuid.UUID       `gorm:"type:uuid;not null" json:"ingredient_id"`
	Quantity      decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"quantity"`
}

// Recipe component kinds for a product
const (
	ComponentPreparation = "preparation"
	ComponentIngredient  = "ingredient"
	ComponentPackaging   = "packaging"
)

// RecipeComponent links a product to what one sold unit consumes.
// For preparations Amount is the used weight; otherwise it is the quantity per unit.
type RecipeComponent struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ComponentType string          `gorm:"type:varchar(20);not null" json:"component_type"`
	ReferenceID   uuid.UUID       `gorm:"type:uuid;not null" json:"reference_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"amount"`
	Position      int             `gorm:"not null;default:0" json:"position"`
}

// InventoryDeductionLog records the ingredient and packaging usage of one sale.
type InventoryDeductionLog struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"sale_id"`
	DateKey   string    `gorm:"type:varchar(10);not null;index" json:"date_key"`
	Details   string    `gorm:"type:jsonb;not null" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
