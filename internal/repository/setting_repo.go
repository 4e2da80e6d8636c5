package repository

import (
	"context"

	"bakerypos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository interface {
	Get(ctx context.Context, key string) (*model.AppSetting, error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) ([]model.AppSetting, error)
}

type settingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Get(ctx context.Context, key string) (*model.AppSetting, error) {
	var setting model.AppSetting
	if err := GetDB(ctx, r.db).First(&setting, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingRepository) Set(ctx context.Context, key, value string) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.AppSetting{Key: key, Value: value}).Error
}

func (r *settingRepository) List(ctx context.Context) ([]model.AppSetting, error) {
	var settings []model.AppSetting
	if err := GetDB(ctx, r.db).Order("key asc").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}
