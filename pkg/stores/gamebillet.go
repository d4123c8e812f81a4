package stores

import (
	"encoding/json"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

type GamebilletPrice struct {
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	PercentDiscount int64   `json:"percent_discount"`
}

// ParseGamebillet reads a gamebillet snapshot: one JSON array per line.
// Gamebillet only publishes the discounted price.
func ParseGamebillet(raw []byte) (models.PriceData, error) {
	data := models.PriceData{}
	for _, line := range splitLines(raw) {
		var rows []GamebilletPrice
		if err := json.Unmarshal(line, &rows); err != nil {
			return nil, err
		}
		for _, row := range rows {
			cname := normalizers.CanonicalName(row.Name)
			if info, ok := data[cname]; ok {
				if row.Price < info.DiscountPrice {
					info.DiscountPrice = row.Price
				}
				continue
			}
			data[cname] = &models.PriceFields{
				OriginalName:    row.Name,
				DiscountPrice:   row.Price,
				DiscountPercent: row.PercentDiscount,
			}
		}
	}
	return data, nil
}
