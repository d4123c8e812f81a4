package stores

import (
	"encoding/json"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// GmgHit is one algolia hit from a gmg snapshot. The outer fields keep the
// storefront's PascalCase names; the region block is already rewritten to
// lowercase by the fetcher.
type GmgHit struct {
	DisplayName   string     `json:"DisplayName"`
	IsDLC         bool       `json:"IsDlc"`
	Genre         []string   `json:"Genre"`
	Franchise     string     `json:"Franchise"`
	PublisherName string     `json:"PublisherName"`
	Regions       GmgRegions `json:"Regions"`
	SteamAppID    string     `json:"SteamAppId"`
}

type GmgRegions struct {
	US GmgUSInfo `json:"us"`
}

type GmgUSInfo struct {
	Price           float64 `json:"price"`
	DiscountPercent int64   `json:"discount_percent"`
	OriginalPrice   float64 `json:"original_price"`
}

// ParseGmg reads a gmg snapshot: one algolia multi-response per line.
func ParseGmg(raw []byte) (models.PriceData, error) {
	data := models.PriceData{}
	for _, line := range splitLines(raw) {
		var row AlgoliaMultiResponse[GmgHit]
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, err
		}
		for _, result := range row.Results {
			for _, hit := range result.Hits {
				cname := normalizers.CanonicalName(hit.DisplayName)
				if info, ok := data[cname]; ok {
					if hit.Regions.US.Price < info.DiscountPrice {
						info.DiscountPrice = hit.Regions.US.Price
					}
					continue
				}
				data[cname] = &models.PriceFields{
					SteamAppID:      hit.SteamAppID,
					OriginalName:    hit.DisplayName,
					OriginalPrice:   hit.Regions.US.OriginalPrice,
					DiscountPrice:   hit.Regions.US.Price,
					DiscountPercent: hit.Regions.US.DiscountPercent,
					IsDLC:           hit.IsDLC,
					Franchise:       hit.Franchise,
					Publisher:       hit.PublisherName,
				}
			}
		}
	}
	return data, nil
}
