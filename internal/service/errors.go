package service

import (
	"errors"
	"fmt"

	"bakerypos/internal/repository"
)

// Domain errors. Handlers map these to HTTP status codes.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid staff id or pin")
	ErrDeviceNotAuthorized = errors.New("device is not authorized")
	ErrViewOnly            = errors.New("view-only session cannot operate the drawer")
	ErrShiftAlreadyActive  = errors.New("staff already has an active shift")
	ErrShiftNotActive      = errors.New("no active shift")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrAlreadyEndorsed     = errors.New("inventory already endorsed for this shift")
	ErrInvalidPayment      = errors.New("invalid payment")
	ErrCaptureRequired     = errors.New("proof capture required")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrOverpayment         = errors.New("payment exceeds outstanding balance")
	ErrImportBusy          = errors.New("another import is being committed")
	ErrUnmappedItems       = errors.New("import has unmapped items")
)

// wrapNotFound converts a repository miss into ErrNotFound naming the entity.
func wrapNotFound(err error, entity string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s %w", entity, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", entity, err)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
