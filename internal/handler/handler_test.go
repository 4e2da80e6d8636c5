package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bakerypos/internal/auth"
	"bakerypos/internal/middleware"
	"bakerypos/internal/model"
	"bakerypos/internal/service"
	"bakerypos/internal/storage"
	"bakerypos/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err      error
		expected int
	}{
		{fmt.Errorf("order %w", service.ErrNotFound), http.StatusNotFound},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrViewOnly, http.StatusForbidden},
		{fmt.Errorf("%w: pending to completed", service.ErrInvalidTransition), http.StatusConflict},
		{fmt.Errorf("%w: 2 sellable", service.ErrInsufficientStock), http.StatusUnprocessableEntity},
		{service.ErrOverpayment, http.StatusBadRequest},
		{storage.ErrUnsupportedType, http.StatusBadRequest},
		{storage.ErrDisabled, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.expected {
			t.Errorf("statusFor(%v) = %d, expected %d", tc.err, got, tc.expected)
		}
	}
}

type stubOrderService struct {
	placeErr  error
	lastActor service.Actor
}

func (s *stubOrderService) PlaceOrder(_ context.Context, req service.PlaceOrderRequest) (*model.CustomerOrder, error) {
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return &model.CustomerOrder{ID: uuid.New(), OrderNo: "ORD-20240501-0001", CustomerName: req.CustomerName}, nil
}

func (s *stubOrderService) UploadProof(context.Context, []byte) (string, error) {
	return "", storage.ErrDisabled
}

func (s *stubOrderService) AttachPayment(context.Context, string, service.OrderPaymentRequest) (*model.CustomerOrder, error) {
	return nil, service.ErrForbidden
}

func (s *stubOrderService) UpdateStatus(_ context.Context, actor service.Actor, _ string, req service.OrderStatusRequest) (*model.CustomerOrder, error) {
	s.lastActor = actor
	return &model.CustomerOrder{Status: req.Status}, nil
}

func (s *stubOrderService) GetOrder(context.Context, string) (*model.CustomerOrder, error) {
	return nil, fmt.Errorf("order %w", service.ErrNotFound)
}

func (s *stubOrderService) ListOrders(context.Context, string, string, int, int) ([]model.CustomerOrder, int64, error) {
	return []model.CustomerOrder{{OrderNo: "ORD-1"}}, 1, nil
}

func setupOrderRouter(t *testing.T, svc service.OrderService) (*gin.Engine, *auth.TokenIssuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	issuer := auth.NewTokenIssuer([]byte("handler-test"))
	middleware.InitAuth(issuer)

	r := gin.New()
	noLimit := func(c *gin.Context) { c.Next() }
	NewOrderHandler(svc).RegisterRoutes(r.Group(""), noLimit)
	return r, issuer
}

func perform(r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestPlaceOrderEndpoint(t *testing.T) {
	svc := &stubOrderService{}
	r, _ := setupOrderRouter(t, svc)

	body := `{"customer_name":"Liza","session_id":"s1","pickup_date":"2024-05-01","items":[{"product_id":"` + uuid.New().String() + `","quantity":2}]}`
	w := perform(r, http.MethodPost, "/public/orders", body, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", w.Code, w.Body.String())
	}
	if resp := decode(t, w); resp.Status != "success" {
		t.Fatalf("unexpected response %+v", resp)
	}

	if w := perform(r, http.MethodPost, "/public/orders", `{"customer_name":"Liza"}`, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing items, got %d", w.Code)
	}

	svc.placeErr = fmt.Errorf("%w: Ube Cake has 1 sellable", service.ErrInsufficientStock)
	w = perform(r, http.MethodPost, "/public/orders", body, "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if resp := decode(t, w); !strings.Contains(resp.Error, "insufficient stock") {
		t.Fatalf("unexpected error message %q", resp.Error)
	}
}

func TestListMyOrdersRequiresSession(t *testing.T) {
	r, _ := setupOrderRouter(t, &stubOrderService{})
	if w := perform(r, http.MethodGet, "/public/orders", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without session_id, got %d", w.Code)
	}
	if w := perform(r, http.MethodGet, "/public/orders?session_id=s1", "", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestStaffOrderRoutesRequirePermission(t *testing.T) {
	svc := &stubOrderService{}
	r, issuer := setupOrderRouter(t, svc)
	path := "/api/orders/" + uuid.New().String() + "/status"

	if w := perform(r, http.MethodPut, path, `{"status":"confirmed"}`, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	staffID := uuid.New()
	token, _, err := issuer.Issue(staffID.String(), "Ana", model.RoleCashier, auth.ModeDrawer, "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if w := perform(r, http.MethodPut, path, `{"status":"shipped"}`, token); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}
	if w := perform(r, http.MethodPut, path, `{"status":"confirmed"}`, token); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	if svc.lastActor.StaffID != staffID || svc.lastActor.Name != "Ana" {
		t.Fatalf("actor not taken from session: %+v", svc.lastActor)
	}

	if w := perform(r, http.MethodGet, "/api/orders/"+uuid.New().String(), "", token); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
