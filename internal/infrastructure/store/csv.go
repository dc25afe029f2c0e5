// Package store reads and writes flat record files. Records are kept as CSV
// so cached search results and catalog builds stay inspectable with ordinary
// tools; writes go through a temp file and rename so readers never observe a
// partially written file.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartsave/backend/internal/domain"
)

var recordColumns = []string{
	"store", "title", "brand", "price", "price_per_unit",
	"image", "url", "sku", "category", "region", "observed_at",
}

var catalogColumns = append(append([]string{}, recordColumns...),
	"pack_count", "single_unit_ml", "net_ml", "size_label", "price_per_liter",
)

// ReadRecords loads product records from a CSV file. Rows missing the
// required title or url are skipped; an unparsable price becomes nil rather
// than failing the file.
func ReadRecords(path string) ([]domain.ProductRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := indexColumns(rows[0])
	if _, ok := col["title"]; !ok {
		return nil, fmt.Errorf("%s: missing title column", path)
	}
	if _, ok := col["url"]; !ok {
		return nil, fmt.Errorf("%s: missing url column", path)
	}

	var records []domain.ProductRecord
	for _, row := range rows[1:] {
		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := domain.ProductRecord{
			Store:         field("store"),
			Title:         field("title"),
			Brand:         field("brand"),
			PriceUnitText: field("price_per_unit"),
			Image:         field("image"),
			URL:           field("url"),
			SKU:           field("sku"),
			Category:      field("category"),
			Region:        strings.ToUpper(field("region")),
		}
		if rec.Title == "" || rec.URL == "" {
			continue
		}
		if p := field("price"); p != "" {
			if d, err := decimal.NewFromString(p); err == nil {
				rec.Price = &d
			}
		}
		if ts := field("observed_at"); ts != "" {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				rec.ObservedAt = t
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteRecords replaces path with the given records. The write is atomic:
// content lands in a temp file in the same directory first.
func WriteRecords(path string, records []domain.ProductRecord) error {
	rows := make([][]string, 0, len(records))
	for i := range records {
		rows = append(rows, recordRow(&records[i]))
	}
	return writeAtomic(path, recordColumns, rows)
}

// WriteCatalog replaces path with the given catalog rows.
func WriteCatalog(path string, rows []domain.CatalogRow) error {
	out := make([][]string, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		row := recordRow(&r.ProductRecord)
		row = append(row,
			strconv.Itoa(r.PackCount),
			formatFloat(r.SingleUnitVolumeMl),
			formatFloat(r.NetVolumeMl),
			r.SizeLabel,
			formatFloat(r.PricePerLiter),
		)
		out = append(out, row)
	}
	return writeAtomic(path, catalogColumns, out)
}

func recordRow(r *domain.ProductRecord) []string {
	price := ""
	if r.Price != nil {
		price = r.Price.String()
	}
	observed := ""
	if !r.ObservedAt.IsZero() {
		observed = r.ObservedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		r.Store, r.Title, r.Brand, price, r.PriceUnitText,
		r.Image, r.URL, r.SKU, r.Category, r.Region, observed,
	}
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func indexColumns(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return col
}

func writeAtomic(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
