// Package importer parses external POS sales exports and reconciles their
// free-text item names against the internal catalog.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"bakerypos/pkg/daykey"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// ItemRow is one line of the "item sales" export, merged by item name.
type ItemRow struct {
	Name      string `validate:"required"`
	SKU       string
	Category  string
	Quantity  decimal.Decimal
	Gross     decimal.Decimal
	Discounts decimal.Decimal
	Net       decimal.Decimal
}

// DayRow is one line of the "daily summary" export, merged by day key.
type DayRow struct {
	DateKey     string `validate:"required,len=10"`
	Gross       decimal.Decimal
	Net         decimal.Decimal
	Discounts   decimal.Decimal
	CostOfGoods decimal.Decimal
}

var itemColumns = []string{"item name", "sku", "category", "items sold", "gross sales", "discounts", "net sales"}
var dayColumns = []string{"date", "gross sales", "net sales", "discounts", "cost of goods"}

// ParseItemSales reads the item sales export. Rows sharing a name are summed.
func ParseItemSales(r io.Reader) ([]ItemRow, error) {
	records, idx, err := readTable(r, itemColumns, []string{"item name", "items sold"})
	if err != nil {
		return nil, err
	}

	var rows []ItemRow
	byName := make(map[string]int)
	for i, rec := range records {
		line := i + 2
		row := ItemRow{
			Name:     strings.TrimSpace(cell(rec, idx, "item name")),
			SKU:      strings.TrimSpace(cell(rec, idx, "sku")),
			Category: strings.TrimSpace(cell(rec, idx, "category")),
		}
		if row.Name == "" && isBlank(rec) {
			continue
		}
		if err := validate.Struct(row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if row.Quantity, err = ParseAmount(cell(rec, idx, "items sold")); err != nil {
			return nil, fmt.Errorf("line %d items sold: %w", line, err)
		}
		if row.Gross, err = ParseAmount(cell(rec, idx, "gross sales")); err != nil {
			return nil, fmt.Errorf("line %d gross sales: %w", line, err)
		}
		if row.Discounts, err = ParseAmount(cell(rec, idx, "discounts")); err != nil {
			return nil, fmt.Errorf("line %d discounts: %w", line, err)
		}
		if row.Net, err = ParseAmount(cell(rec, idx, "net sales")); err != nil {
			return nil, fmt.Errorf("line %d net sales: %w", line, err)
		}

		if pos, ok := byName[row.Name]; ok {
			existing := &rows[pos]
			existing.Quantity = existing.Quantity.Add(row.Quantity)
			existing.Gross = existing.Gross.Add(row.Gross)
			existing.Discounts = existing.Discounts.Add(row.Discounts)
			existing.Net = existing.Net.Add(row.Net)
			continue
		}
		byName[row.Name] = len(rows)
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseDailySummary reads the daily summary export. Dates become YYYY-MM-DD.
func ParseDailySummary(r io.Reader) ([]DayRow, error) {
	records, idx, err := readTable(r, dayColumns, []string{"date", "net sales"})
	if err != nil {
		return nil, err
	}

	var rows []DayRow
	byDay := make(map[string]int)
	for i, rec := range records {
		line := i + 2
		if isBlank(rec) {
			continue
		}
		key, err := daykey.Normalize(cell(rec, idx, "date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row := DayRow{DateKey: key}
		if err := validate.Struct(row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if row.Gross, err = ParseAmount(cell(rec, idx, "gross sales")); err != nil {
			return nil, fmt.Errorf("line %d gross sales: %w", line, err)
		}
		if row.Net, err = ParseAmount(cell(rec, idx, "net sales")); err != nil {
			return nil, fmt.Errorf("line %d net sales: %w", line, err)
		}
		if row.Discounts, err = ParseAmount(cell(rec, idx, "discounts")); err != nil {
			return nil, fmt.Errorf("line %d discounts: %w", line, err)
		}
		if row.CostOfGoods, err = ParseAmount(cell(rec, idx, "cost of goods")); err != nil {
			return nil, fmt.Errorf("line %d cost of goods: %w", line, err)
		}

		if pos, ok := byDay[key]; ok {
			existing := &rows[pos]
			existing.Gross = existing.Gross.Add(row.Gross)
			existing.Net = existing.Net.Add(row.Net)
			existing.Discounts = existing.Discounts.Add(row.Discounts)
			existing.CostOfGoods = existing.CostOfGoods.Add(row.CostOfGoods)
			continue
		}
		byDay[key] = len(rows)
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseAmount accepts "1,234.50", "₱1,234.50", "(12.00)" and blanks (zero).
// Besides digits and the decimal point only thousands separators, spaces,
// currency symbols and one leading minus sign are allowed.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	var b strings.Builder
	minus := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-':
			if minus || b.Len() > 0 {
				return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
			}
			minus = true
		case r == ',', unicode.IsSpace(r), unicode.Is(unicode.Sc, r):
		default:
			return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
		}
	}
	if minus {
		negative = !negative
	}
	if b.Len() == 0 {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

func readTable(r io.Reader, known, required []string) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("empty file")
		}
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, k := range known {
			if name == k {
				idx[k] = i
			}
		}
	}
	for _, req := range required {
		if _, ok := idx[req]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", req)
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return records, idx, nil
}

func cell(rec []string, idx map[string]int, column string) string {
	i, ok := idx[column]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
