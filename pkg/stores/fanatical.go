package stores

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// FanaticalHit is one algolia hit from a fanatical snapshot.
type FanaticalHit struct {
	Name                string          `json:"name"`
	Type                string          `json:"type"`
	DiscountPercent     int64           `json:"discount_percent"`
	BestEver            bool            `json:"best_ever"`
	FlashSale           bool            `json:"flash_sale"`
	Price               FanaticalPrices `json:"price"`
	FullPrice           FanaticalPrices `json:"fullPrice"`
	ReleaseDate         int64           `json:"release_date"`
	AvailableValidFrom  int64           `json:"available_valid_from"`
	AvailableValidUntil int64           `json:"available_valid_until"`
	OperatingSystems    []string        `json:"operating_systems"`
}

type FanaticalPrices struct {
	USD float64 `json:"USD"`
}

// ParseFanatical reads a fanatical snapshot: one algolia multi-response per
// line. Duplicate canonical names keep the lowest discount price.
func ParseFanatical(raw []byte) (models.PriceData, error) {
	data := models.PriceData{}
	for _, line := range splitLines(raw) {
		var row AlgoliaMultiResponse[FanaticalHit]
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, err
		}
		for _, result := range row.Results {
			for _, hit := range result.Hits {
				cname := normalizers.CanonicalName(hit.Name)
				if info, ok := data[cname]; ok {
					if hit.Price.USD < info.DiscountPrice {
						info.DiscountPrice = hit.Price.USD
					}
					continue
				}
				data[cname] = &models.PriceFields{
					OriginalName:    hit.Name,
					OriginalPrice:   hit.FullPrice.USD,
					DiscountPrice:   hit.Price.USD,
					DiscountPercent: hit.DiscountPercent,
					BestEver:        hit.BestEver,
					FlashSale:       hit.FlashSale,
					OS:              strings.Join(hit.OperatingSystems, ","),
					ReleaseDate:     hit.ReleaseDate,
					ValidFrom:       hit.AvailableValidFrom,
					ValidUntil:      hit.AvailableValidUntil,
				}
			}
		}
	}
	return data, nil
}

func splitLines(raw []byte) [][]byte {
	var lines [][]byte
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}
