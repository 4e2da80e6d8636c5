package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSellable(t *testing.T) {
	cases := []struct {
		name     string
		rec      DailyInventory
		expected int
	}{
		{"fresh", DailyInventory{CarryoverQty: 5, NewProductionQty: 15}, 20},
		{"sold and reserved", DailyInventory{NewProductionQty: 20, ReservedQty: 3, SoldQty: 10}, 7},
		{"cancellation returns stock", DailyInventory{NewProductionQty: 10, SoldQty: 10, CancelledQty: 2}, 2},
		{"oversold floors at zero", DailyInventory{NewProductionQty: 2, SoldQty: 5}, 0},
	}
	for _, tc := range cases {
		rec := tc.rec
		rec.Recompute()
		if rec.SellableQty != tc.expected || rec.Sellable() != tc.expected {
			t.Errorf("%s: expected sellable %d, got %d", tc.name, tc.expected, rec.SellableQty)
		}
		if rec.TotalAvailable != rec.CarryoverQty+rec.NewProductionQty {
			t.Errorf("%s: total %d does not match carryover + production", tc.name, rec.TotalAvailable)
		}
	}
}

func TestReceivableApplyPayment(t *testing.T) {
	r := &Receivable{Amount: decimal.NewFromInt(500), Balance: decimal.NewFromInt(500), Status: ReceivableUnpaid}

	r.ApplyPayment(decimal.NewFromInt(120))
	if r.Status != ReceivablePartial || !r.Balance.Equal(decimal.NewFromInt(380)) {
		t.Fatalf("expected partial 380, got %s %s", r.Status, r.Balance)
	}

	r.ApplyPayment(decimal.NewFromInt(380))
	if r.Status != ReceivablePaid || !r.Balance.IsZero() {
		t.Fatalf("expected paid, got %s %s", r.Status, r.Balance)
	}
}
