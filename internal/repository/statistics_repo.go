package repository

import (
	"context"
	"fmt"

	"bakerypos/internal/model"

	"gorm.io/gorm"
)

type StatisticsRepository interface {
	GetTopProducts(ctx context.Context, fromKey, toKey string, limit int) ([]model.ProductRanking, error)
	GetShiftShortages(ctx context.Context, fromKey, toKey string) (map[string]string, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) GetTopProducts(ctx context.Context, fromKey, toKey string, limit int) ([]model.ProductRanking, error) {
	var rankings []model.ProductRanking
	if err := r.db.WithContext(ctx).Table("sale_items").
		Select("sale_items.product_id as product_id, MAX(sale_items.product_name) as product_name, SUM(sale_items.quantity) as total_quantity, CAST(SUM(sale_items.line_total) AS TEXT) as total_value").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.status = ? AND sales.date_key >= ? AND sales.date_key <= ?", model.SaleStatusCompleted, fromKey, toKey).
		Group("sale_items.product_id").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	return rankings, nil
}

// GetShiftShortages returns the end-of-shift shortage value per shift id.
func (r *statisticsRepository) GetShiftShortages(ctx context.Context, fromKey, toKey string) (map[string]string, error) {
	var rows []struct {
		ShiftID string
		Value   string
	}
	if err := r.db.WithContext(ctx).Table("shift_inventories").
		Select("CAST(shift_id AS TEXT) as shift_id, CAST(total_shortage_value AS TEXT) as value").
		Where("phase = ? AND date_key >= ? AND date_key <= ?", model.EndorsementEnd, fromKey, toKey).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query shift shortages: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.ShiftID] = row.Value
	}
	return out, nil
}
