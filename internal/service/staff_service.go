package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bakerypos/internal/auth"
	"bakerypos/internal/model"
	"bakerypos/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Session states returned at login
const (
	SessionNoShift  = "no_shift"
	SessionActive   = "active"
	SessionViewOnly = "view_only"
)

type LoginRequest struct {
	StaffID string `json:"staff_id" binding:"required,uuid"`
	PIN     string `json:"pin" binding:"required,numeric,min=4,max=6"`
}

type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Staff     StaffResponse `json:"staff"`
	Session   string        `json:"session"`
	Shift     *model.Shift  `json:"shift,omitempty"`
}

type CreateStaffRequest struct {
	Name string `json:"name" binding:"required"`
	Role string `json:"role" binding:"required,oneof=cashier manager owner admin"`
	PIN  string `json:"pin" binding:"required,numeric,min=4,max=6"`
}

type UpdateStaffRequest struct {
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=cashier manager owner admin"`
	PIN      string `json:"pin" binding:"omitempty,numeric,min=4,max=6"`
	IsActive *bool  `json:"is_active"`
}

type StaffResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

type RegisterDeviceRequest struct {
	DeviceID string `json:"device_id" binding:"required,max=100"`
	Label    string `json:"label"`
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(staffID, name, role, mode, shiftID string) (string, time.Time, error)
}

type StaffService interface {
	Login(ctx context.Context, req LoginRequest, deviceID string) (LoginResponse, error)
	EnterViewOnly(ctx context.Context, actor Actor) (LoginResponse, error)
	ListStaff(ctx context.Context, page, limit int) ([]StaffResponse, int64, error)
	CreateStaff(ctx context.Context, actor Actor, req CreateStaffRequest) (StaffResponse, error)
	UpdateStaff(ctx context.Context, actor Actor, id string, req UpdateStaffRequest) (StaffResponse, error)
	DeleteStaff(ctx context.Context, actor Actor, id string) error
	RegisterDevice(ctx context.Context, actor Actor, req RegisterDeviceRequest) (*model.AuthorizedDevice, error)
	ListDevices(ctx context.Context) ([]model.AuthorizedDevice, error)
	RevokeDevice(ctx context.Context, id string) error
}

type staffService struct {
	staffRepo  repository.StaffRepository
	deviceRepo repository.DeviceRepository
	shiftRepo  repository.ShiftRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	settings   SettingsReader
	issuer     TokenIssuer
}

func NewStaffService(
	staffRepo repository.StaffRepository,
	deviceRepo repository.DeviceRepository,
	shiftRepo repository.ShiftRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	settings SettingsReader,
	issuer TokenIssuer,
) StaffService {
	return &staffService{
		staffRepo:  staffRepo,
		deviceRepo: deviceRepo,
		shiftRepo:  shiftRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		settings:   settings,
		issuer:     issuer,
	}
}

func toStaffResponse(s *model.Staff) StaffResponse {
	return StaffResponse{ID: s.ID.String(), Name: s.Name, Role: s.Role, IsActive: s.IsActive}
}

func (s *staffService) Login(ctx context.Context, req LoginRequest, deviceID string) (LoginResponse, error) {
	if s.settings.Bool(ctx, model.SettingRequireDevice) {
		if deviceID == "" {
			return LoginResponse{}, ErrDeviceNotAuthorized
		}
		if _, err := s.deviceRepo.FindActive(ctx, deviceID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return LoginResponse{}, ErrDeviceNotAuthorized
			}
			return LoginResponse{}, fmt.Errorf("failed to check device: %w", err)
		}
	}

	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		return LoginResponse{}, ErrInvalidCredentials
	}
	staff, err := s.staffRepo.FindByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResponse{}, ErrInvalidCredentials
		}
		return LoginResponse{}, fmt.Errorf("database error: %w", err)
	}
	if !staff.IsActive {
		return LoginResponse{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PINHash), []byte(req.PIN)); err != nil {
		return LoginResponse{}, ErrInvalidCredentials
	}

	session := SessionNoShift
	var shiftID string
	shift, err := s.shiftRepo.FindActiveByStaff(ctx, staff.ID)
	switch {
	case err == nil:
		session = SessionActive
		shiftID = shift.ID.String()
	case errors.Is(err, repository.ErrNotFound):
		shift = nil
	default:
		return LoginResponse{}, fmt.Errorf("failed to resolve shift: %w", err)
	}

	token, exp, err := s.issuer.Issue(staff.ID.String(), staff.Name, staff.Role, auth.ModeDrawer, shiftID)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{Token: token, ExpiresAt: exp, Staff: toStaffResponse(staff), Session: session, Shift: shift}, nil
}

// EnterViewOnly trades a drawer session for one that can browse without a shift.
func (s *staffService) EnterViewOnly(ctx context.Context, actor Actor) (LoginResponse, error) {
	if !auth.CanViewOnly(actor.Role) {
		return LoginResponse{}, fmt.Errorf("%w: role %s cannot enter view-only mode", ErrForbidden, actor.Role)
	}
	staff, err := s.staffRepo.FindByID(ctx, actor.StaffID)
	if err != nil {
		return LoginResponse{}, wrapNotFound(err, "staff")
	}
	token, exp, err := s.issuer.Issue(staff.ID.String(), staff.Name, staff.Role, auth.ModeViewOnly, "")
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{Token: token, ExpiresAt: exp, Staff: toStaffResponse(staff), Session: SessionViewOnly}, nil
}

func (s *staffService) ListStaff(ctx context.Context, page, limit int) ([]StaffResponse, int64, error) {
	staff, total, err := s.staffRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	res := make([]StaffResponse, 0, len(staff))
	for i := range staff {
		res = append(res, toStaffResponse(&staff[i]))
	}
	return res, total, nil
}

func hashPIN(pin string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hashed), nil
}

func (s *staffService) CreateStaff(ctx context.Context, actor Actor, req CreateStaffRequest) (StaffResponse, error) {
	hashed, err := hashPIN(req.PIN)
	if err != nil {
		return StaffResponse{}, err
	}
	staff := model.Staff{Name: req.Name, Role: req.Role, PINHash: hashed, IsActive: true}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.staffRepo.Create(txCtx, &staff); err != nil {
			return fmt.Errorf("failed to create staff: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionCreateStaff, staff.ID.String(), staff.Name,
			map[string]string{"name": req.Name, "role": req.Role})
	})
	if err != nil {
		return StaffResponse{}, err
	}
	return toStaffResponse(&staff), nil
}

func (s *staffService) UpdateStaff(ctx context.Context, actor Actor, id string, req UpdateStaffRequest) (StaffResponse, error) {
	staffID, err := parseID(id, "staff")
	if err != nil {
		return StaffResponse{}, err
	}
	staff, err := s.staffRepo.FindByID(ctx, staffID)
	if err != nil {
		return StaffResponse{}, wrapNotFound(err, "staff")
	}

	staff.Name = req.Name
	staff.Role = req.Role
	if req.IsActive != nil {
		staff.IsActive = *req.IsActive
	}
	if req.PIN != "" {
		if staff.PINHash, err = hashPIN(req.PIN); err != nil {
			return StaffResponse{}, err
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.staffRepo.Update(txCtx, staff); err != nil {
			return fmt.Errorf("failed to update staff: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionUpdateStaff, staff.ID.String(), staff.Name,
			map[string]interface{}{"name": req.Name, "role": req.Role, "is_active": staff.IsActive, "pin_changed": req.PIN != ""})
	})
	if err != nil {
		return StaffResponse{}, err
	}
	return toStaffResponse(staff), nil
}

func (s *staffService) DeleteStaff(ctx context.Context, actor Actor, id string) error {
	staffID, err := parseID(id, "staff")
	if err != nil {
		return err
	}
	if staffID == actor.StaffID {
		return invalid("cannot delete your own account")
	}
	staff, err := s.staffRepo.FindByID(ctx, staffID)
	if err != nil {
		return wrapNotFound(err, "staff")
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.staffRepo.Delete(txCtx, staffID); err != nil {
			return fmt.Errorf("failed to delete staff: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor.ref(), model.ActionDeleteStaff, staff.ID.String(), staff.Name, nil)
	})
}

func (s *staffService) RegisterDevice(ctx context.Context, actor Actor, req RegisterDeviceRequest) (*model.AuthorizedDevice, error) {
	device := &model.AuthorizedDevice{DeviceID: req.DeviceID, Label: req.Label, AddedBy: actor.ref()}
	if err := s.deviceRepo.Create(ctx, device); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, invalid("device %s is already registered", req.DeviceID)
		}
		return nil, fmt.Errorf("failed to register device: %w", err)
	}
	return device, nil
}

func (s *staffService) ListDevices(ctx context.Context) ([]model.AuthorizedDevice, error) {
	return s.deviceRepo.List(ctx)
}

func (s *staffService) RevokeDevice(ctx context.Context, id string) error {
	deviceID, err := parseID(id, "device")
	if err != nil {
		return err
	}
	if err := s.deviceRepo.Revoke(ctx, deviceID); err != nil {
		return wrapNotFound(err, "device")
	}
	return nil
}
