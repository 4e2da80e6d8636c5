package model

import "time"

// Setting keys
const (
	SettingGCashCaptureRequired = "capture.gcash_required"
	SettingDiscountIDRequired   = "capture.discount_id_required"
	SettingRequireDevice        = "auth.require_device"
)

// AppSetting is an admin-editable key/value switch.
type AppSetting struct {
	Key       string    `gorm:"type:varchar(100);primaryKey" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
