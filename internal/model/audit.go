package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionStartShift      = "START_SHIFT"
	ActionEndShift        = "END_SHIFT"
	ActionUpdateShift     = "UPDATE_SHIFT"
	ActionDeleteShift     = "DELETE_SHIFT"
	ActionEndorseStart    = "ENDORSE_START"
	ActionEndorseEnd      = "ENDORSE_END"
	ActionCreateSale      = "CREATE_SALE"
	ActionRemoveSaleItem  = "REMOVE_SALE_ITEM"
	ActionDeleteSale      = "DELETE_SALE"
	ActionSetInventory    = "SET_DAILY_INVENTORY"
	ActionCarryOver       = "CARRY_OVER_INVENTORY"
	ActionApprovePurchase = "APPROVE_PURCHASE"
	ActionRejectPurchase  = "REJECT_PURCHASE"
	ActionCommitImport    = "COMMIT_SALES_IMPORT"
	ActionCreateStaff     = "CREATE_STAFF"
	ActionUpdateStaff     = "UPDATE_STAFF"
	ActionDeleteStaff     = "DELETE_STAFF"
	ActionRecordPayment   = "RECORD_RECEIVABLE_PAYMENT"
	ActionUpdateSetting   = "UPDATE_SETTING"
	ActionReplayDeduction = "REPLAY_DEDUCTION"
	ActionUpdateOrder     = "UPDATE_ORDER_STATUS"
	ActionCreateProduct   = "CREATE_PRODUCT"
	ActionUpdateProduct   = "UPDATE_PRODUCT"
	ActionDeleteProduct   = "DELETE_PRODUCT"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StaffID    *uuid.UUID `gorm:"type:uuid;index" json:"staff_id"` // nil for background jobs
	Staff      *Staff     `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
