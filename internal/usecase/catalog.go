package usecase

import (
	"fmt"
	"log"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/smartsave/backend/internal/domain"
	"github.com/smartsave/backend/internal/infrastructure/store"
)

// Package-level compiled patterns for pack/volume parsing
var (
	// Multipacks like "6 x 200 mL" or "3×1 L", tried before the
	// single-volume pattern so the pack count is not mistaken for a size.
	packRegex = regexp.MustCompile(`(?i)(\d+)\s*[x×]\s*(\d+(?:\.\d+)?)\s*(mL|L)\b`)

	// Single volumes like "1.89L" or "946 mL". When several appear, the
	// last one is usually the actual package size.
	volumeRegex = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mL|L)\b`)
)

// Common package sizes a net volume snaps to when within 3%.
var sizeBuckets = []struct {
	ml    float64
	label string
}{
	{600, "600 mL"},
	{750, "750 mL"},
	{946, "946 mL"},
	{1000, "1 L"},
	{1200, "6×200 mL"},
	{1890, "1.89 L"},
	{2000, "2 L"},
	{3780, "3.78 L"},
	{4000, "4 L"},
}

const sizeSnapTolerance = 0.03

// CatalogBuilder merges cleaned per-retailer record files into one canonical
// catalog with normalized size and price-per-liter fields. This is the
// offline batch path; it never touches the network.
type CatalogBuilder struct{}

// NewCatalogBuilder creates a catalog builder.
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{}
}

// Build reads every input file, derives volume fields, deduplicates across
// files and returns rows sorted for cheapest-per-liter scanning. An
// unreadable input file is skipped and reported; the rest still build. Rows
// with no derivable price-per-liter are dropped: that is the catalog's
// completeness gate, not an accident.
func (b *CatalogBuilder) Build(paths []string) []domain.CatalogRow {
	byKey := make(map[string]int)
	var rows []domain.CatalogRow
	dropped := 0

	for _, path := range paths {
		records, err := store.ReadRecords(path)
		if err != nil {
			log.Printf("[CATALOG] skipping %s: %v", path, err)
			continue
		}
		inferred := storeFromFilename(path)

		for _, rec := range records {
			if rec.Store == "" {
				rec.Store = inferred
			}
			row, ok := deriveRow(rec)
			if !ok {
				dropped++
				continue
			}

			key := row.CatalogKey()
			at, exists := byKey[key]
			if !exists {
				byKey[key] = len(rows)
				rows = append(rows, row)
				continue
			}
			// Price-competitive retention: across files the cheaper
			// observation of the same product wins. (The live aggregator
			// instead keeps the most complete record; the two policies are
			// intentionally different.)
			if row.Price.Cmp(*rows[at].Price) < 0 {
				rows[at] = row
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		if a.SizeLabel != b.SizeLabel {
			return a.SizeLabel < b.SizeLabel
		}
		if *a.PricePerLiter != *b.PricePerLiter {
			return *a.PricePerLiter < *b.PricePerLiter
		}
		return a.Price.Cmp(*b.Price) < 0
	})

	log.Printf("[CATALOG] built rows=%d dropped=%d inputs=%d", len(rows), dropped, len(paths))
	return rows
}

// deriveRow computes the volume-derived fields. ok is false when the row
// fails the price-per-liter gate.
func deriveRow(rec domain.ProductRecord) (domain.CatalogRow, bool) {
	row := domain.CatalogRow{ProductRecord: rec}

	pack, singleMl, netMl := parseVolume(rec.Title)
	if rec.Price == nil || netMl == nil || *netMl <= 0 {
		return row, false
	}

	row.PackCount = pack
	row.SingleUnitVolumeMl = singleMl
	row.NetVolumeMl = netMl
	row.SizeLabel = sizeLabel(*netMl)

	ppl := rec.Price.InexactFloat64() / (*netMl / 1000)
	row.PricePerLiter = &ppl
	return row, true
}

// parseVolume extracts pack count and unit volume from a title. The
// multipack pattern wins; otherwise the last single-volume match in the
// title is taken. No match yields (0, nil, nil).
func parseVolume(title string) (int, *float64, *float64) {
	if m := packRegex.FindStringSubmatch(title); m != nil {
		count, _ := strconv.Atoi(m[1])
		single := toMilliliters(m[2], m[3])
		net := float64(count) * single
		return count, &single, &net
	}

	matches := volumeRegex.FindAllStringSubmatch(title, -1)
	if len(matches) > 0 {
		m := matches[len(matches)-1]
		single := toMilliliters(m[1], m[2])
		net := single
		return 1, &single, &net
	}

	return 0, nil, nil
}

func toMilliliters(qty, unit string) float64 {
	v, _ := strconv.ParseFloat(qty, 64)
	if strings.EqualFold(unit, "l") {
		return v * 1000
	}
	return v
}

// sizeLabel snaps a net volume to the nearest common package size within
// tolerance, else formats the raw volume.
func sizeLabel(netMl float64) string {
	for _, bucket := range sizeBuckets {
		if math.Abs(netMl-bucket.ml)/bucket.ml <= sizeSnapTolerance {
			return bucket.label
		}
	}
	if netMl >= 1000 {
		return fmt.Sprintf("%.2f L", netMl/1000)
	}
	return fmt.Sprintf("%d mL", int(math.Round(netMl)))
}

// storeFromFilename infers the source retailer from the dataset's filename
// convention, e.g. "walmart_milk_clean.csv".
func storeFromFilename(path string) string {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(base, "walmart"):
		return "Walmart"
	case strings.Contains(base, "nofrills"), strings.Contains(base, "no-frills"):
		return "No Frills"
	case strings.Contains(base, "real-canadian"), strings.Contains(base, "superstore"):
		return "Real Canadian Superstore"
	case strings.Contains(base, "safeway"):
		return "Safeway"
	case strings.Contains(base, "saveon"), strings.Contains(base, "save-on"):
		return "Save-On-Foods"
	}
	return "Store"
}
