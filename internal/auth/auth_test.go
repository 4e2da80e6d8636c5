package auth

import (
	"testing"
	"time"

	"bakerypos/internal/model"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"))

	token, exp, err := issuer.Issue("staff-1", "Ana", model.RoleCashier, ModeDrawer, "shift-9")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expected expiry in the future, got %v", exp)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.StaffID() != "staff-1" || claims.Role != model.RoleCashier || claims.ShiftID != "shift-9" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ViewOnly() {
		t.Fatalf("drawer session reported as view-only")
	}
}

func TestParseRejectsForeignSecretAndExpiry(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret-a"))
	token, _, err := issuer.Issue("staff-1", "Ana", model.RoleManager, ModeViewOnly, "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := NewTokenIssuer([]byte("secret-b")).Parse(token); err == nil {
		t.Fatalf("expected signature failure with different secret")
	}

	later := NewTokenIssuer([]byte("secret-a"))
	later.now = func() time.Time { return time.Now().Add(13 * time.Hour) }
	if _, err := later.Parse(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestPermissions(t *testing.T) {
	cases := []struct {
		role     string
		perm     string
		expected bool
	}{
		{model.RoleCashier, PermSell, true},
		{model.RoleCashier, PermPurchaseReview, false},
		{model.RoleManager, PermPurchaseReview, true},
		{model.RoleManager, PermSaleAdmin, false},
		{model.RoleOwner, PermSaleAdmin, true},
		{model.RoleOwner, PermStaffAdmin, false},
		{model.RoleAdmin, PermStaffAdmin, true},
		{"guest", PermSell, false},
	}
	for _, tc := range cases {
		if got := HasPermission(tc.role, tc.perm); got != tc.expected {
			t.Errorf("HasPermission(%s, %s) = %v, expected %v", tc.role, tc.perm, got, tc.expected)
		}
	}
	if len(Permissions(model.RoleAdmin)) != len(allPermissions()) {
		t.Fatalf("admin should hold every permission")
	}
	if CanViewOnly(model.RoleCashier) || !CanViewOnly(model.RoleOwner) {
		t.Fatalf("unexpected view-only eligibility")
	}
}
