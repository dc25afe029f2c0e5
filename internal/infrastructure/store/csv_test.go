package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartsave/backend/internal/domain"
)

func TestWriteReadRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "milk_AB_walmart.csv")

	price := decimal.RequireFromString("4.27")
	observed := time.Date(2025, 11, 3, 15, 4, 5, 0, time.UTC)
	records := []domain.ProductRecord{
		{
			Store:         "Walmart",
			Title:         "Great Value 2% Milk, 4 L",
			Brand:         "Great Value",
			Price:         &price,
			PriceUnitText: "$0.11/100mL",
			Image:         "https://i5.walmartimages.ca/milk.jpg",
			URL:           "https://www.walmart.ca/en/ip/milk/6000191272702",
			SKU:           "6000191272702",
			Region:        "AB",
			ObservedAt:    observed,
		},
		{
			Store: "Walmart",
			Title: "Milk With Unconfirmed Price",
			URL:   "https://www.walmart.ca/en/ip/milk/999",
		},
	}

	if err := WriteRecords(path, records); err != nil {
		t.Fatalf("WriteRecords() error = %v", err)
	}

	got, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadRecords() returned %d records, want 2", len(got))
	}

	first := got[0]
	if first.Price == nil || !first.Price.Equal(price) {
		t.Errorf("Price = %v, want %v", first.Price, price)
	}
	if !first.ObservedAt.Equal(observed) {
		t.Errorf("ObservedAt = %v, want %v", first.ObservedAt, observed)
	}
	if first.SKU != "6000191272702" {
		t.Errorf("SKU = %q", first.SKU)
	}

	if got[1].Price != nil {
		t.Errorf("missing price should read back as nil, got %v", got[1].Price)
	}
}

func TestReadRecords_SkipsRowsMissingIdentity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.csv")

	csv := strings.Join([]string{
		"store,title,price,url",
		"Walmart,Whole Milk,3.99,https://www.walmart.ca/en/ip/1",
		"Walmart,,3.99,https://www.walmart.ca/en/ip/2",
		"Walmart,No URL Milk,3.99,",
		"Walmart,Bad Price Milk,not-a-price,https://www.walmart.ca/en/ip/3",
	}, "\n")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadRecords() returned %d records, want 2 (rows without title/url skipped)", len(got))
	}
	if got[1].Price != nil {
		t.Errorf("unparsable price should become nil, got %v", got[1].Price)
	}
}

func TestReadRecords_MissingRequiredColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.csv")
	if err := os.WriteFile(path, []byte("store,price\nWalmart,3.99\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadRecords(path); err == nil {
		t.Error("ReadRecords() error = nil, want missing-column error")
	}
}

func TestWriteRecords_ReplacesWholeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entry.csv")

	a := decimal.RequireFromString("1.00")
	b := decimal.RequireFromString("2.00")
	if err := WriteRecords(path, []domain.ProductRecord{
		{Store: "S", Title: "First", Price: &a, URL: "https://s/product/1"},
		{Store: "S", Title: "Second", Price: &a, URL: "https://s/product/2"},
	}); err != nil {
		t.Fatal(err)
	}

	if err := WriteRecords(path, []domain.ProductRecord{
		{Store: "S", Title: "Third", Price: &b, URL: "https://s/product/3"},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := ReadRecords(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "Third" {
		t.Errorf("second write should fully replace the entry, got %+v", got)
	}

	// No temp files left behind
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

func TestWriteCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog_latest.csv")

	price := decimal.RequireFromString("3.99")
	single := 1890.0
	net := 1890.0
	ppl := 2.1111
	rows := []domain.CatalogRow{{
		ProductRecord: domain.ProductRecord{
			Store: "Walmart",
			Title: "Lactose Free Milk 1.89L",
			Price: &price,
			URL:   "https://www.walmart.ca/en/ip/1",
		},
		PackCount:          1,
		SingleUnitVolumeMl: &single,
		NetVolumeMl:        &net,
		SizeLabel:          "1.89 L",
		PricePerLiter:      &ppl,
	}}

	if err := WriteCatalog(path, rows); err != nil {
		t.Fatalf("WriteCatalog() error = %v", err)
	}

	// The catalog stays readable through the plain record reader, which is
	// how the API serves it.
	got, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords() on catalog error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Lactose Free Milk 1.89L" {
		t.Errorf("catalog read back %+v", got)
	}
}
