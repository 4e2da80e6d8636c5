package service

import (
	"context"
	"encoding/json"
	"fmt"

	"bakerypos/internal/model"
	"bakerypos/internal/repository"

	"github.com/google/uuid"
)

// Actor is the authenticated staff member performing an operation.
type Actor struct {
	StaffID  uuid.UUID
	Name     string
	Role     string
	ViewOnly bool
}

func (a Actor) ref() *uuid.UUID {
	if a.StaffID == uuid.Nil {
		return nil
	}
	id := a.StaffID
	return &id
}

// EventPublisher pushes live events to websocket subscribers.
type EventPublisher interface {
	Publish(topic, event string, data interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

func writeAudit(ctx context.Context, repo repository.AuditRepository, staffID *uuid.UUID, action, entityID, entityName string, details interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	entry := &model.AuditLog{
		StaffID:    staffID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalid("invalid %s id", what)
	}
	return id, nil
}
