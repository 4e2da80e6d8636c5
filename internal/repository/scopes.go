package repository

import (
	"bakerypos/pkg/pagination"

	"gorm.io/gorm"
)

// paginate limits a list query to one page.
func paginate(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(pagination.Offset(page, limit)).Limit(limit)
	}
}
