package service

import (
	"context"

	"bakerypos/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	StaffID    string `json:"staff_id"`
	StaffName  string `json:"staff_name"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, action string, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

// GetAuditLogs returns a page of audit entries, newest first, with the acting staff resolved.
func (s *auditService) GetAuditLogs(ctx context.Context, action string, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.auditRepo.List(ctx, action, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		staffName := "System"
		staffID := ""
		if l.Staff != nil {
			staffName = l.Staff.Name
		}
		if l.StaffID != nil {
			staffID = l.StaffID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			StaffID:    staffID,
			StaffName:  staffName,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
