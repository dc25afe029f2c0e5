package domain

// CatalogRow is a ProductRecord enriched with pack/volume data derived from
// the title, produced by the offline catalog build.
type CatalogRow struct {
	ProductRecord
	PackCount          int      `json:"packCount"`
	SingleUnitVolumeMl *float64 `json:"singleUnitVolumeMl"`
	NetVolumeMl        *float64 `json:"netVolumeMl"`
	SizeLabel          string   `json:"sizeLabel"`
	PricePerLiter      *float64 `json:"pricePerLiter"`
}
