package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"bakerypos/internal/model"
	"bakerypos/internal/repository"
	"bakerypos/pkg/daykey"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	reportSheet       = "Report"
	maxShiftsInReport = 1000
)

type ReportQuery struct {
	DateFrom string
	DateTo   string
	GroupBy  string
}

type ReportService interface {
	SalesReport(ctx context.Context, q ReportQuery) (model.SalesReport, error)
	ExportSalesReport(ctx context.Context, q ReportQuery, w io.Writer) error
	ShiftReport(ctx context.Context, q ReportQuery) ([]model.ShiftReportRow, error)
	TopProducts(ctx context.Context, q ReportQuery, limit int) ([]model.ProductRanking, error)
}

type reportService struct {
	saleRepo  repository.SaleRepository
	shiftRepo repository.ShiftRepository
	statsRepo repository.StatisticsRepository
	now       func() time.Time
}

func NewReportService(saleRepo repository.SaleRepository, shiftRepo repository.ShiftRepository, statsRepo repository.StatisticsRepository) ReportService {
	return &reportService{saleRepo: saleRepo, shiftRepo: shiftRepo, statsRepo: statsRepo, now: time.Now}
}

type reportBucket struct {
	label    string
	quantity int
	gross    decimal.Decimal
	discount decimal.Decimal
	net      decimal.Decimal
	sales    map[string]bool
}

// BuildSalesReport groups completed sales by day, month, product or category.
// Day and month rows count sales; product and category rows count the sales
// containing them.
func BuildSalesReport(sales []model.Sale, groupBy string) (model.SalesReport, error) {
	switch groupBy {
	case "":
		groupBy = model.GroupByDay
	case model.GroupByDay, model.GroupByMonth, model.GroupByProduct, model.GroupByCategory:
	default:
		return model.SalesReport{}, invalid("unknown grouping %q", groupBy)
	}

	buckets := make(map[string]*reportBucket)
	bucket := func(key, label string) *reportBucket {
		b, ok := buckets[key]
		if !ok {
			b = &reportBucket{label: label, gross: decimal.Zero, discount: decimal.Zero, net: decimal.Zero, sales: make(map[string]bool)}
			buckets[key] = b
		}
		return b
	}

	total, discount := decimal.Zero, decimal.Zero
	byMethod := make(map[string]decimal.Decimal)
	count := 0
	for _, s := range sales {
		if s.Status != "" && s.Status != model.SaleStatusCompleted {
			continue
		}
		count++
		total = total.Add(s.Total)
		discount = discount.Add(s.TotalDiscount)
		byMethod[s.PaymentMethod] = byMethod[s.PaymentMethod].Add(s.Total)

		for _, it := range s.Items {
			var key, label string
			switch groupBy {
			case model.GroupByDay:
				key, label = s.DateKey, s.DateKey
			case model.GroupByMonth:
				key = s.DateKey[:7]
				label = key
			case model.GroupByProduct:
				key, label = it.ProductID.String(), it.ProductName
			case model.GroupByCategory:
				key = it.Category
				if key == "" {
					key = "uncategorized"
				}
				label = key
			}
			b := bucket(key, label)
			qty := decimal.NewFromInt(int64(it.Quantity))
			b.quantity += it.Quantity
			b.gross = b.gross.Add(it.OriginalPrice.Mul(qty))
			b.discount = b.discount.Add(it.DiscountAmount.Mul(qty))
			b.net = b.net.Add(it.LineTotal)
			b.sales[s.ID.String()] = true
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	switch groupBy {
	case model.GroupByDay, model.GroupByMonth:
		sort.Strings(keys)
	default:
		sort.Slice(keys, func(i, j int) bool {
			a, b := buckets[keys[i]], buckets[keys[j]]
			if !a.net.Equal(b.net) {
				return a.net.GreaterThan(b.net)
			}
			return a.label < b.label
		})
	}

	report := model.SalesReport{
		GroupBy:          groupBy,
		TotalSales:       total.StringFixed(2),
		TotalDiscount:    discount.StringFixed(2),
		TransactionCount: count,
		ByPaymentMethod:  make(map[string]string, len(byMethod)),
	}
	for m, v := range byMethod {
		report.ByPaymentMethod[m] = v.StringFixed(2)
	}
	for _, k := range keys {
		b := buckets[k]
		report.Rows = append(report.Rows, model.SalesReportRow{
			Key:              k,
			Label:            b.label,
			Quantity:         b.quantity,
			Gross:            b.gross.StringFixed(2),
			Discount:         b.discount.StringFixed(2),
			Net:              b.net.StringFixed(2),
			TransactionCount: len(b.sales),
		})
	}
	return report, nil
}

func (s *reportService) SalesReport(ctx context.Context, q ReportQuery) (model.SalesReport, error) {
	from, to, err := dateRange(q.DateFrom, q.DateTo, s.now())
	if err != nil {
		return model.SalesReport{}, err
	}
	sales, err := s.saleRepo.ListByDateRange(ctx, from, to)
	if err != nil {
		return model.SalesReport{}, fmt.Errorf("failed to load sales: %w", err)
	}
	report, err := BuildSalesReport(sales, q.GroupBy)
	if err != nil {
		return model.SalesReport{}, err
	}
	report.StartDate, _ = daykey.Parse(from)
	report.EndDate, _ = daykey.Parse(to)
	return report, nil
}

// ExportSalesReport writes the grouped report as an XLSX workbook.
func (s *reportService) ExportSalesReport(ctx context.Context, q ReportQuery, w io.Writer) error {
	report, err := s.SalesReport(ctx, q)
	if err != nil {
		return err
	}
	f, err := WriteReportWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteReportWorkbook lays the report out on a single sheet followed by the payment split.
func WriteReportWorkbook(report model.SalesReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, fmt.Errorf("failed to prepare sheet: %w", err)
	}

	headings := []interface{}{"Key", "Label", "Quantity", "Gross", "Discount", "Net", "Transactions"}
	if err := f.SetSheetRow(reportSheet, "A1", &headings); err != nil {
		return nil, fmt.Errorf("failed to write headings: %w", err)
	}
	row := 2
	for _, r := range report.Rows {
		values := []interface{}{r.Key, r.Label, r.Quantity, money(r.Gross), money(r.Discount), money(r.Net), r.TransactionCount}
		if err := f.SetSheetRow(reportSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		row++
	}

	row++
	totals := []interface{}{"Total", "", "", "", money(report.TotalDiscount), money(report.TotalSales), report.TransactionCount}
	if err := f.SetSheetRow(reportSheet, fmt.Sprintf("A%d", row), &totals); err != nil {
		return nil, fmt.Errorf("failed to write totals: %w", err)
	}

	methods := make([]string, 0, len(report.ByPaymentMethod))
	for m := range report.ByPaymentMethod {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	for _, m := range methods {
		row++
		split := []interface{}{"Payment", m, "", "", "", money(report.ByPaymentMethod[m])}
		if err := f.SetSheetRow(reportSheet, fmt.Sprintf("A%d", row), &split); err != nil {
			return nil, fmt.Errorf("failed to write payment split: %w", err)
		}
	}
	return f, nil
}

func money(v string) float64 {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

func (s *reportService) ShiftReport(ctx context.Context, q ReportQuery) ([]model.ShiftReportRow, error) {
	from, to, err := dateRange(q.DateFrom, q.DateTo, s.now())
	if err != nil {
		return nil, err
	}
	shifts, _, err := s.shiftRepo.List(ctx, repository.ShiftFilter{DateFrom: from, DateTo: to}, 1, maxShiftsInReport)
	if err != nil {
		return nil, fmt.Errorf("failed to load shifts: %w", err)
	}
	shortages, err := s.statsRepo.GetShiftShortages(ctx, from, to)
	if err != nil {
		return nil, err
	}

	rows := make([]model.ShiftReportRow, 0, len(shifts))
	for _, sh := range shifts {
		row := model.ShiftReportRow{
			ShiftID:       sh.ID.String(),
			DateKey:       sh.DateKey,
			ShiftNumber:   sh.ShiftNumber,
			StaffName:     sh.StaffName,
			TotalSales:    sh.TotalSales.StringFixed(2),
			BalanceStatus: sh.BalanceStatus,
			ShortageValue: "0.00",
		}
		if sh.Variance != nil {
			row.Variance = sh.Variance.StringFixed(2)
		}
		if v, ok := shortages[row.ShiftID]; ok {
			if d, err := decimal.NewFromString(v); err == nil {
				row.ShortageValue = d.StringFixed(2)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *reportService) TopProducts(ctx context.Context, q ReportQuery, limit int) ([]model.ProductRanking, error) {
	from, to, err := dateRange(q.DateFrom, q.DateTo, s.now())
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.statsRepo.GetTopProducts(ctx, from, to, limit)
}
