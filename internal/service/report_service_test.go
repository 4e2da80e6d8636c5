package service

import (
	"errors"
	"testing"

	"bakerypos/internal/model"

	"github.com/google/uuid"
)

func reportSales() []model.Sale {
	bread, cake := uuid.New(), uuid.New()
	return []model.Sale{
		{
			ID: uuid.New(), DateKey: "2024-05-01", PaymentMethod: model.PaymentCash,
			Total: dec("150"), TotalDiscount: dec("0"), Status: model.SaleStatusCompleted,
			Items: []model.SaleItem{
				{ProductID: bread, ProductName: "Pandesal", Category: "Bread", Quantity: 10, OriginalPrice: dec("5"), LineTotal: dec("50")},
				{ProductID: cake, ProductName: "Ube Cake", Category: "Cake", Quantity: 1, OriginalPrice: dec("100"), LineTotal: dec("100")},
			},
		},
		{
			ID: uuid.New(), DateKey: "2024-05-02", PaymentMethod: model.PaymentGCash,
			Total: dec("80"), TotalDiscount: dec("20"), Status: model.SaleStatusCompleted,
			Items: []model.SaleItem{
				{ProductID: cake, ProductName: "Ube Cake", Category: "Cake", Quantity: 1, OriginalPrice: dec("100"), DiscountAmount: dec("20"), LineTotal: dec("80")},
			},
		},
		{
			ID: uuid.New(), DateKey: "2024-05-02", PaymentMethod: model.PaymentCash,
			Total: dec("999"), Status: model.SaleStatusVoided,
			Items: []model.SaleItem{{ProductID: bread, Quantity: 99, OriginalPrice: dec("5"), LineTotal: dec("495")}},
		},
	}
}

func TestBuildSalesReportByDay(t *testing.T) {
	report, err := BuildSalesReport(reportSales(), "")
	if err != nil {
		t.Fatalf("BuildSalesReport: %v", err)
	}
	if report.GroupBy != model.GroupByDay || len(report.Rows) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Rows[0].Key != "2024-05-01" || report.Rows[0].Net != "150.00" || report.Rows[0].TransactionCount != 1 {
		t.Fatalf("unexpected first row %+v", report.Rows[0])
	}
	if report.TotalSales != "230.00" || report.TotalDiscount != "20.00" || report.TransactionCount != 2 {
		t.Fatalf("unexpected totals %s %s %d", report.TotalSales, report.TotalDiscount, report.TransactionCount)
	}
	if report.ByPaymentMethod[model.PaymentGCash] != "80.00" {
		t.Fatalf("unexpected payment split %v", report.ByPaymentMethod)
	}
}

func TestBuildSalesReportByProductRanksByNet(t *testing.T) {
	report, err := BuildSalesReport(reportSales(), model.GroupByProduct)
	if err != nil {
		t.Fatalf("BuildSalesReport: %v", err)
	}
	if len(report.Rows) != 2 || report.Rows[0].Label != "Ube Cake" {
		t.Fatalf("expected cake first, got %+v", report.Rows)
	}
	cake := report.Rows[0]
	if cake.Quantity != 2 || cake.Gross != "200.00" || cake.Discount != "20.00" || cake.Net != "180.00" || cake.TransactionCount != 2 {
		t.Fatalf("unexpected cake row %+v", cake)
	}
}

func TestBuildSalesReportRejectsUnknownGrouping(t *testing.T) {
	if _, err := BuildSalesReport(nil, "weekday"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestWriteReportWorkbook(t *testing.T) {
	report, err := BuildSalesReport(reportSales(), model.GroupByCategory)
	if err != nil {
		t.Fatalf("BuildSalesReport: %v", err)
	}
	f, err := WriteReportWorkbook(report)
	if err != nil {
		t.Fatalf("WriteReportWorkbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(reportSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) < 3 || rows[0][0] != "Key" {
		t.Fatalf("unexpected sheet contents %v", rows)
	}
	if rows[1][0] != "Cake" || rows[1][5] != "180" {
		t.Fatalf("unexpected first data row %v", rows[1])
	}
}
