package model

import "time"

// Report grouping keys
const (
	GroupByDay      = "day"
	GroupByMonth    = "month"
	GroupByProduct  = "product"
	GroupByCategory = "category"
)

// SalesReport aggregates completed sales over a date range.
type SalesReport struct {
	GroupBy          string            `json:"group_by"`
	StartDate        time.Time         `json:"start_date"`
	EndDate          time.Time         `json:"end_date"`
	Rows             []SalesReportRow  `json:"rows"`
	TotalSales       string            `json:"total_sales"`
	TotalDiscount    string            `json:"total_discount"`
	TransactionCount int               `json:"transaction_count"`
	ByPaymentMethod  map[string]string `json:"by_payment_method"`
}

// SalesReportRow is one group of the report.
type SalesReportRow struct {
	Key              string `json:"key"`
	Label            string `json:"label"`
	Quantity         int    `json:"quantity"`
	Gross            string `json:"gross"`
	Discount         string `json:"discount"`
	Net              string `json:"net"`
	TransactionCount int    `json:"transaction_count"`
}

// ProductRanking represents a ranked product based on accumulated quantities
type ProductRanking struct {
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	TotalQuantity int    `json:"total_quantity"`
	TotalValue    string `json:"total_value"`
}

// ShiftReportRow summarizes one shift's cash and stock reconciliation.
type ShiftReportRow struct {
	ShiftID       string `json:"shift_id"`
	DateKey       string `json:"date_key"`
	ShiftNumber   int    `json:"shift_number"`
	StaffName     string `json:"staff_name"`
	TotalSales    string `json:"total_sales"`
	Variance      string `json:"variance"`
	BalanceStatus string `json:"balance_status"`
	ShortageValue string `json:"shortage_value"`
}
