package stores

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

const DrmSteamKey = "SteamKey"

type IndiegalaPrice struct {
	Title         string   `json:"title"`
	Platforms     []string `json:"platforms"`
	Publisher     string   `json:"publisher"`
	Price         float64  `json:"price"`
	DiscountStart string   `json:"discount_start"`
	DiscountEnd   string   `json:"discount_end"`
	DiscountPrice float64  `json:"discount_price"`
	ReleaseDate   string   `json:"release_date"`
	DrmInfo       string   `json:"drm_info"`
}

// ParseIndiegala reads an indiegala snapshot: a single JSON array. Only
// steam-key items are kept; the store's own DRM-free builds are a different
// catalog.
func ParseIndiegala(raw []byte) (models.PriceData, error) {
	var rows []IndiegalaPrice
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}

	data := models.PriceData{}
	for _, row := range rows {
		if row.DrmInfo != DrmSteamKey {
			continue
		}
		cname := normalizers.CanonicalName(row.Title)

		// malformed timestamps are common in this feed; treat them as unset
		releaseDate := parseRFC3339(row.ReleaseDate)
		validFrom := parseRFC3339(row.DiscountStart)
		validUntil := parseRFC3339(row.DiscountEnd)

		if info, ok := data[cname]; ok {
			if row.DiscountPrice < info.DiscountPrice {
				info.DiscountPrice = row.DiscountPrice
			}
			continue
		}
		data[cname] = &models.PriceFields{
			OriginalName:  row.Title,
			OriginalPrice: row.Price,
			DiscountPrice: row.DiscountPrice,
			ValidFrom:     validFrom,
			ValidUntil:    validUntil,
			OS:            strings.Join(row.Platforms, ","),
			ReleaseDate:   releaseDate,
			Publisher:     row.Publisher,
		}
	}
	return data, nil
}

func parseRFC3339(s string) int64 {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0
	}
	return t.Unix()
}
