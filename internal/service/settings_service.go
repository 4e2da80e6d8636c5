package service

import (
	"context"
	"fmt"
	"strconv"

	"bakerypos/internal/model"
	"bakerypos/internal/repository"
)

var settingDefaults = map[string]bool{
	model.SettingGCashCaptureRequired: true,
	model.SettingDiscountIDRequired:   true,
	model.SettingRequireDevice:        false,
}

type UpdateSettingRequest struct {
	Value bool `json:"value"`
}

type SettingResponse struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}

// SettingsReader is the read side other services depend on.
type SettingsReader interface {
	Bool(ctx context.Context, key string) bool
}

type SettingsService interface {
	SettingsReader
	List(ctx context.Context) ([]SettingResponse, error)
	Set(ctx context.Context, actor Actor, key string, req UpdateSettingRequest) (SettingResponse, error)
}

type settingsService struct {
	settingRepo repository.SettingRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewSettingsService(settingRepo repository.SettingRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) SettingsService {
	return &settingsService{settingRepo: settingRepo, auditRepo: auditRepo, txManager: txManager}
}

// Bool returns the stored flag, or its default when missing or unreadable.
func (s *settingsService) Bool(ctx context.Context, key string) bool {
	def := settingDefaults[key]
	setting, err := s.settingRepo.Get(ctx, key)
	if err != nil {
		return def
	}
	v, err := strconv.ParseBool(setting.Value)
	if err != nil {
		return def
	}
	return v
}

func (s *settingsService) List(ctx context.Context) ([]SettingResponse, error) {
	stored, err := s.settingRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	values := make(map[string]bool, len(settingDefaults))
	for k, v := range settingDefaults {
		values[k] = v
	}
	for _, st := range stored {
		if _, known := settingDefaults[st.Key]; !known {
			continue
		}
		if v, err := strconv.ParseBool(st.Value); err == nil {
			values[st.Key] = v
		}
	}

	res := make([]SettingResponse, 0, len(values))
	for _, key := range []string{model.SettingGCashCaptureRequired, model.SettingDiscountIDRequired, model.SettingRequireDevice} {
		res = append(res, SettingResponse{Key: key, Value: values[key]})
	}
	return res, nil
}

func (s *settingsService) Set(ctx context.Context, actor Actor, key string, req UpdateSettingRequest) (SettingResponse, error) {
	if _, known := settingDefaults[key]; !known {
		return SettingResponse{}, fmt.Errorf("setting %q %w", key, ErrNotFound)
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.settingRepo.Set(txCtx, key, strconv.FormatBool(req.Value)); err != nil {
			return fmt.Errorf("failed to save setting: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionUpdateSetting, key, key, req)
	})
	if err != nil {
		return SettingResponse{}, err
	}
	return SettingResponse{Key: key, Value: req.Value}, nil
}
