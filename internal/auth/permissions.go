package auth

import "bakerypos/internal/model"

// Permission codes
const (
	PermSell           = "pos.sell"
	PermShiftManage    = "shift.manage"
	PermShiftAdmin     = "shift.admin"
	PermPurchaseReview = "purchase.review"
	PermInventoryRead  = "inventory.read"
	PermInventoryWrite = "inventory.write"
	PermEndorse        = "inventory.endorse"
	PermSaleAdmin      = "sale.admin"
	PermDiscountWrite  = "discount.write"
	PermImport         = "import.manage"
	PermReceivables    = "receivable.manage"
	PermOrders         = "order.manage"
	PermReports        = "report.read"
	PermStaffAdmin     = "staff.admin"
	PermSettings       = "settings.write"
	PermAuditRead      = "audit.read"
)

var rolePermissions = map[string][]string{
	model.RoleCashier: {
		PermSell, PermShiftManage, PermInventoryRead, PermEndorse, PermReceivables, PermOrders,
	},
	model.RoleManager: {
		PermSell, PermShiftManage, PermInventoryRead, PermInventoryWrite, PermEndorse,
		PermPurchaseReview, PermDiscountWrite, PermReceivables, PermOrders, PermReports, PermImport,
	},
	model.RoleOwner: {
		PermSell, PermShiftManage, PermShiftAdmin, PermInventoryRead, PermInventoryWrite, PermEndorse,
		PermPurchaseReview, PermSaleAdmin, PermDiscountWrite, PermReceivables, PermOrders, PermReports,
		PermImport, PermAuditRead,
	},
}

// Permissions returns the permission codes granted to role. Admin holds all of them.
func Permissions(role string) []string {
	if role == model.RoleAdmin {
		return allPermissions()
	}
	return rolePermissions[role]
}

// HasPermission reports whether role holds every code in perms.
func HasPermission(role string, perms ...string) bool {
	if role == model.RoleAdmin {
		return true
	}
	granted := make(map[string]bool, len(rolePermissions[role]))
	for _, p := range rolePermissions[role] {
		granted[p] = true
	}
	for _, p := range perms {
		if !granted[p] {
			return false
		}
	}
	return true
}

// CanViewOnly reports whether role may open a session without a drawer.
func CanViewOnly(role string) bool {
	switch role {
	case model.RoleManager, model.RoleOwner, model.RoleAdmin:
		return true
	}
	return false
}

func allPermissions() []string {
	return []string{
		PermSell, PermShiftManage, PermShiftAdmin, PermPurchaseReview, PermInventoryRead,
		PermInventoryWrite, PermEndorse, PermSaleAdmin, PermDiscountWrite, PermImport,
		PermReceivables, PermOrders, PermReports, PermStaffAdmin, PermSettings, PermAuditRead,
	}
}
