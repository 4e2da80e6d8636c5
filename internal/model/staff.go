package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Staff roles
const (
	RoleCashier = "cashier"
	RoleManager = "manager"
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
)

// Staff is a POS operator who logs in with a PIN.
type Staff struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Role      string         `gorm:"type:varchar(20);not null;index" json:"role"`
	PINHash   string         `gorm:"type:varchar(255);not null" json:"-"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AuthorizedDevice is a terminal allowed to open POS sessions.
type AuthorizedDevice struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DeviceID  string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"device_id"`
	Label     string     `gorm:"type:varchar(255)" json:"label"`
	AddedBy   *uuid.UUID `gorm:"type:uuid" json:"added_by"`
	RevokedAt *time.Time `json:"revoked_at"`
	CreatedAt time.Time  `json:"created_at"`
}
