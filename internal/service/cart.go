package service

import (
	"errors"

	"bakerypos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	errLineIndex        = errors.New("cart line does not exist")
	errNoActiveDiscount = errors.New("no active discount selected")
)

var hundred = decimal.NewFromInt(100)

// CartLine is one product in the register cart. A nil Discount means full price.
type CartLine struct {
	ProductID     uuid.UUID
	VariantID     *uuid.UUID
	Name          string
	Category      string
	Quantity      int
	OriginalPrice decimal.Decimal
	Discount      *model.Discount
}

// DiscountAmount is the per-unit discount: originalPrice × percent / 100.
func (l CartLine) DiscountAmount() decimal.Decimal {
	if l.Discount == nil {
		return decimal.Zero
	}
	return l.OriginalPrice.Mul(l.Discount.Percent).Div(hundred).Round(2)
}

func (l CartLine) UnitPrice() decimal.Decimal {
	return l.OriginalPrice.Sub(l.DiscountAmount())
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l CartLine) sameItem(o CartLine) bool {
	if l.ProductID != o.ProductID || discountKey(l.Discount) != discountKey(o.Discount) {
		return false
	}
	switch {
	case l.VariantID == nil && o.VariantID == nil:
		return true
	case l.VariantID != nil && o.VariantID != nil:
		return *l.VariantID == *o.VariantID
	}
	return false
}

func discountKey(d *model.Discount) uuid.UUID {
	if d == nil {
		return uuid.Nil
	}
	return d.ID
}

type CartTotals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count"`
}

// Cart holds the lines being rung up. Active is applied to lines added while it is set.
type Cart struct {
	Lines  []CartLine
	Active *model.Discount
}

func (c *Cart) SetActiveDiscount(d *model.Discount) {
	c.Active = d
}

// Add appends a line, or merges it into an identical one. New lines take the
// active discount.
func (c *Cart) Add(line CartLine) {
	line.Discount = c.Active
	for i := range c.Lines {
		if c.Lines[i].sameItem(line) {
			c.Lines[i].Quantity += line.Quantity
			return
		}
	}
	c.Lines = append(c.Lines, line)
}

// ToggleDiscount applies the active discount to line i, or removes whatever
// discount the line carries.
func (c *Cart) ToggleDiscount(i int) error {
	if i < 0 || i >= len(c.Lines) {
		return errLineIndex
	}
	if c.Lines[i].Discount != nil {
		c.Lines[i].Discount = nil
		return nil
	}
	if c.Active == nil {
		return errNoActiveDiscount
	}
	c.Lines[i].Discount = c.Active
	return nil
}

// SetQuantity changes line i; zero removes it.
func (c *Cart) SetQuantity(i, qty int) error {
	if i < 0 || i >= len(c.Lines) {
		return errLineIndex
	}
	if qty < 0 {
		return invalid("quantity cannot be negative")
	}
	if qty == 0 {
		return c.Remove(i)
	}
	c.Lines[i].Quantity = qty
	return nil
}

func (c *Cart) Remove(i int) error {
	if i < 0 || i >= len(c.Lines) {
		return errLineIndex
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return nil
}

// QuantityOf sums every line of productID, across variants and discounts.
func (c *Cart) QuantityOf(productID uuid.UUID) int {
	n := 0
	for _, l := range c.Lines {
		if l.ProductID == productID {
			n += l.Quantity
		}
	}
	return n
}

// Totals satisfies total = subtotal - totalDiscount = Σ lineTotal.
func (c *Cart) Totals() CartTotals {
	t := CartTotals{Subtotal: decimal.Zero, TotalDiscount: decimal.Zero, Total: decimal.Zero}
	for _, l := range c.Lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		t.Subtotal = t.Subtotal.Add(l.OriginalPrice.Mul(qty))
		t.TotalDiscount = t.TotalDiscount.Add(l.DiscountAmount().Mul(qty))
		t.Total = t.Total.Add(l.LineTotal())
		t.ItemCount += l.Quantity
	}
	return t
}

// RequiresIDCapture reports whether any line carries an ID-gated discount.
func (c *Cart) RequiresIDCapture() bool {
	for _, l := range c.Lines {
		if l.Discount != nil && l.Discount.RequiresID {
			return true
		}
	}
	return false
}

// SaleItems converts the cart into sale lines.
func (c *Cart) SaleItems() []model.SaleItem {
	items := make([]model.SaleItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		item := model.SaleItem{
			ProductID:       l.ProductID,
			VariantID:       l.VariantID,
			ProductName:     l.Name,
			Category:        l.Category,
			Quantity:        l.Quantity,
			OriginalPrice:   l.OriginalPrice,
			UnitPrice:       l.UnitPrice(),
			DiscountPercent: decimal.Zero,
			DiscountAmount:  l.DiscountAmount(),
			LineTotal:       l.LineTotal(),
		}
		if l.Discount != nil {
			item.DiscountName = l.Discount.Name
			item.DiscountPercent = l.Discount.Percent
		}
		items = append(items, item)
	}
	return items
}

// TotalsFromItems recomputes sale totals from stored lines.
func TotalsFromItems(items []model.SaleItem) CartTotals {
	t := CartTotals{Subtotal: decimal.Zero, TotalDiscount: decimal.Zero, Total: decimal.Zero}
	for _, it := range items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		t.Subtotal = t.Subtotal.Add(it.OriginalPrice.Mul(qty))
		t.TotalDiscount = t.TotalDiscount.Add(it.DiscountAmount.Mul(qty))
		t.Total = t.Total.Add(it.LineTotal)
		t.ItemCount += it.Quantity
	}
	return t
}
