package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bakerypos/internal/auth"
	"bakerypos/internal/model"

	"github.com/gin-gonic/gin"
)

func setupRouter(t *testing.T) (*gin.Engine, *auth.TokenIssuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	i := auth.NewTokenIssuer([]byte("middleware-test"))
	InitAuth(i)

	r := gin.New()
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxStaffID)) }
	r.GET("/sell", RequirePermission(auth.PermSell), RequireDrawer(), ok)
	r.GET("/admin", RequireRole(model.RoleAdmin), ok)
	return r, i
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequirePermission(t *testing.T) {
	r, i := setupRouter(t)

	if w := doGet(r, "/sell", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	cashier, _, _ := i.Issue("staff-1", "Ana", model.RoleCashier, auth.ModeDrawer, "")
	w := doGet(r, "/sell", cashier)
	if w.Code != http.StatusOK || w.Body.String() != "staff-1" {
		t.Fatalf("expected cashier to sell, got %d %s", w.Code, w.Body.String())
	}

	if w := doGet(r, "/admin", cashier); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier on admin route, got %d", w.Code)
	}
}

func TestRequireDrawerRejectsViewOnly(t *testing.T) {
	r, i := setupRouter(t)
	manager, _, _ := i.Issue("staff-2", "Ben", model.RoleManager, auth.ModeViewOnly, "")
	if w := doGet(r, "/sell", manager); w.Code != http.StatusForbidden {
		t.Fatalf("expected view-only session to be rejected, got %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limit, err := RateLimit("2-M")
	if err != nil {
		t.Fatalf("RateLimit: %v", err)
	}
	r := gin.New()
	r.POST("/login", limit, func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for n := 0; n < 3; n++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
	if _, err := RateLimit("bogus"); err == nil {
		t.Fatalf("expected error for malformed rate")
	}
}
