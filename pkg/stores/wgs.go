package stores

import (
	"encoding/json"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

type WgsPrice struct {
	Genre           string  `json:"genre"`
	Publisher       string  `json:"publisher"`
	Name            string  `json:"name"`
	IsDLC           bool    `json:"is_dlc"`
	IsSteamDRM      bool    `json:"is_steam_drm"`
	DiscountPercent int64   `json:"discount_percent"`
	DiscountPrice   float64 `json:"discount_price"`
}

// ParseWgs reads a wingamestore snapshot: a single JSON array. Non-steam
// keys are skipped.
func ParseWgs(raw []byte) (models.PriceData, error) {
	var rows []WgsPrice
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}

	data := models.PriceData{}
	for _, row := range rows {
		if !row.IsSteamDRM {
			continue
		}
		cname := normalizers.CanonicalName(row.Name)
		if info, ok := data[cname]; ok {
			if row.DiscountPrice < info.DiscountPrice {
				info.DiscountPrice = row.DiscountPrice
			}
			continue
		}
		data[cname] = &models.PriceFields{
			OriginalName:    row.Name,
			DiscountPrice:   row.DiscountPrice,
			DiscountPercent: row.DiscountPercent,
			IsDLC:           row.IsDLC,
			Publisher:       row.Publisher,
		}
	}
	return data, nil
}
