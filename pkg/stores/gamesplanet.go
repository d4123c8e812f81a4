package stores

import (
	"encoding/json"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

type GamesplanetPrice struct {
	Name          string  `json:"name"`
	OriginalPrice float64 `json:"original_price"`
	Discount      int64   `json:"discount"`
	Price         float64 `json:"price"`
}

// ParseGamesplanet reads a gamesplanet snapshot: one JSON array per line.
func ParseGamesplanet(raw []byte) (models.PriceData, error) {
	data := models.PriceData{}
	for _, line := range splitLines(raw) {
		var rows []GamesplanetPrice
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
				OriginalPrice:   row.OriginalPrice,
				DiscountPrice:   row.Price,
				DiscountPercent: row.Discount,
			}
		}
	}
	return data, nil
}
