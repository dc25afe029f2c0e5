package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func priceOf(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestProductRecord_Keys(t *testing.T) {
	rec := ProductRecord{
		Store: "Walmart",
		Title: "  Whole Milk 2L ",
		URL:   "https://www.walmart.ca/en/ip/whole-milk/123",
		SKU:   "123",
	}

	if got := rec.MergeKey(); got != "Walmart|whole milk 2l|https://www.walmart.ca/en/ip/whole-milk/123" {
		t.Errorf("MergeKey() = %q", got)
	}
	if got := rec.CatalogKey(); got != "Walmart|123" {
		t.Errorf("CatalogKey() = %q, want SKU-based key", got)
	}

	rec.SKU = ""
	if got := rec.CatalogKey(); got != "Walmart|https://www.walmart.ca/en/ip/whole-milk/123" {
		t.Errorf("CatalogKey() = %q, want URL fallback", got)
	}
}

func TestProductRecord_Completeness(t *testing.T) {
	tests := []struct {
		name string
		rec  ProductRecord
		want int
	}{
		{"empty", ProductRecord{}, 0},
		{"price only", ProductRecord{Price: priceOf("3.99")}, 4},
		{"price and image", ProductRecord{Price: priceOf("3.99"), Image: "http://x/i.jpg"}, 5},
		{
			"fully populated",
			ProductRecord{Price: priceOf("3.99"), Image: "http://x/i.jpg", Brand: "Dairyland", PriceUnitText: "$0.21/100mL"},
			7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Completeness(); got != tt.want {
				t.Errorf("Completeness() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBlockedError(t *testing.T) {
	var err error = &BlockedError{Retailer: "Walmart", Advice: "run headful once"}

	if !errors.Is(err, ErrBlocked) {
		t.Error("BlockedError should unwrap to ErrBlocked")
	}

	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatal("errors.As failed for *BlockedError")
	}
	if !blocked.Retryable() {
		t.Error("Retryable() = false, want true")
	}
	if blocked.Retailer != "Walmart" {
		t.Errorf("Retailer = %q, want Walmart", blocked.Retailer)
	}
}
