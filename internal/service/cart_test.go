package service

import (
	"testing"

	"bakerypos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCartTotalsWithDiscount(t *testing.T) {
	senior := &model.Discount{ID: uuid.New(), Name: "Senior", Percent: dec("20"), RequiresID: true}
	bread := uuid.New()
	cake := uuid.New()

	var c Cart
	c.Add(CartLine{ProductID: bread, Name: "Pandesal", Quantity: 10, OriginalPrice: dec("5")})
	c.SetActiveDiscount(senior)
	c.Add(CartLine{ProductID: cake, Name: "Ube Cake", Quantity: 1, OriginalPrice: dec("450")})

	totals := c.Totals()
	if !totals.Subtotal.Equal(dec("500")) {
		t.Fatalf("expected subtotal 500, got %s", totals.Subtotal)
	}
	if !totals.TotalDiscount.Equal(dec("90")) {
		t.Fatalf("expected discount 90, got %s", totals.TotalDiscount)
	}
	if !totals.Total.Equal(dec("410")) || !totals.Total.Equal(totals.Subtotal.Sub(totals.TotalDiscount)) {
		t.Fatalf("expected total 410, got %s", totals.Total)
	}
	if totals.ItemCount != 11 {
		t.Fatalf("expected 11 items, got %d", totals.ItemCount)
	}
	if !c.RequiresIDCapture() {
		t.Fatalf("expected ID capture for senior discount")
	}
}

func TestCartMergesIdenticalLines(t *testing.T) {
	id := uuid.New()
	var c Cart
	c.Add(CartLine{ProductID: id, Quantity: 2, OriginalPrice: dec("10")})
	c.Add(CartLine{ProductID: id, Quantity: 3, OriginalPrice: dec("10")})
	if len(c.Lines) != 1 || c.Lines[0].Quantity != 5 {
		t.Fatalf("expected one merged line of 5, got %+v", c.Lines)
	}

	// Same product under a different discount stays separate.
	c.SetActiveDiscount(&model.Discount{ID: uuid.New(), Percent: dec("10")})
	c.Add(CartLine{ProductID: id, Quantity: 1, OriginalPrice: dec("10")})
	if len(c.Lines) != 2 {
		t.Fatalf("expected discounted line to stay separate, got %d lines", len(c.Lines))
	}
	if c.QuantityOf(id) != 6 {
		t.Fatalf("expected 6 units of product, got %d", c.QuantityOf(id))
	}
}

func TestCartToggleDiscount(t *testing.T) {
	var c Cart
	c.Add(CartLine{ProductID: uuid.New(), Quantity: 1, OriginalPrice: dec("100")})

	if err := c.ToggleDiscount(0); err == nil {
		t.Fatalf("expected error without an active discount")
	}
	c.SetActiveDiscount(&model.Discount{ID: uuid.New(), Name: "PWD", Percent: dec("20")})
	if err := c.ToggleDiscount(0); err != nil {
		t.Fatalf("ToggleDiscount: %v", err)
	}
	if !c.Totals().Total.Equal(dec("80")) {
		t.Fatalf("expected 80 after discount, got %s", c.Totals().Total)
	}
	if err := c.ToggleDiscount(0); err != nil {
		t.Fatalf("ToggleDiscount: %v", err)
	}
	if !c.Totals().Total.Equal(dec("100")) {
		t.Fatalf("expected discount removed, got %s", c.Totals().Total)
	}
	if err := c.ToggleDiscount(3); err == nil {
		t.Fatalf("expected error for missing line")
	}
}

func TestCartSetQuantity(t *testing.T) {
	var c Cart
	c.Add(CartLine{ProductID: uuid.New(), Quantity: 1, OriginalPrice: dec("10")})
	c.Add(CartLine{ProductID: uuid.New(), Quantity: 1, OriginalPrice: dec("20")})

	if err := c.SetQuantity(0, -1); err == nil {
		t.Fatalf("expected error for negative quantity")
	}
	if err := c.SetQuantity(1, 4); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if err := c.SetQuantity(0, 0); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if len(c.Lines) != 1 || !c.Totals().Total.Equal(dec("80")) {
		t.Fatalf("unexpected cart after edits: %+v", c.Lines)
	}
}

func TestSaleItemsRoundTripTotals(t *testing.T) {
	var c Cart
	c.SetActiveDiscount(&model.Discount{ID: uuid.New(), Name: "Promo", Percent: dec("15")})
	c.Add(CartLine{ProductID: uuid.New(), Name: "Ensaymada", Quantity: 3, OriginalPrice: dec("33.33")})

	items := c.SaleItems()
	if len(items) != 1 || items[0].DiscountName != "Promo" || !items[0].DiscountPercent.Equal(dec("15")) {
		t.Fatalf("unexpected sale items %+v", items)
	}
	// 33.33 × 15% = 4.9995, rounded to 5.00 per unit.
	if !items[0].DiscountAmount.Equal(dec("5")) || !items[0].UnitPrice.Equal(dec("28.33")) {
		t.Fatalf("unexpected unit pricing %s / %s", items[0].DiscountAmount, items[0].UnitPrice)
	}
	if got, want := TotalsFromItems(items), c.Totals(); !got.Total.Equal(want.Total) || !got.TotalDiscount.Equal(want.TotalDiscount) {
		t.Fatalf("stored totals %+v differ from cart totals %+v", got, want)
	}
}
