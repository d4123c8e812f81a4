package stores

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

type GogResponse struct {
	Products []GogProduct `json:"products"`
}

type GogProduct struct {
	ReleaseDate *string  `json:"releaseDate"`
	ProductType string   `json:"productType"`
	Title       string   `json:"title"`
	Developers  []string `json:"developers"`
	Publishers  []string `json:"publishers"`
	Price       GogPrice `json:"price"`
}

// GogPrice carries display strings, not numbers: "$59.99", "-50%".
type GogPrice struct {
	Final    string `json:"final"`
	Base     string `json:"base"`
	Discount string `json:"discount"`
}

// ParseGog reads a gog snapshot: one catalog response per line. Prices are
// parsed out of the storefront's display strings.
func ParseGog(raw []byte) (models.PriceData, error) {
	data := models.PriceData{}
	for _, line := range splitLines(raw) {
		var row GogResponse
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, err
		}
		for _, product := range row.Products {
			cname := normalizers.CanonicalName(product.Title)

			originalPrice, err := parseDollars(product.Price.Base)
			if err != nil {
				return nil, fmt.Errorf("base price for %q: %w", product.Title, err)
			}
			discountPrice, err := parseDollars(product.Price.Final)
			if err != nil {
				return nil, fmt.Errorf("final price for %q: %w", product.Title, err)
			}
			discountPercent, err := parsePercent(product.Price.Discount)
			if err != nil {
				return nil, fmt.Errorf("discount for %q: %w", product.Title, err)
			}

			var releaseDate int64
			if product.ReleaseDate != nil {
				date, err := time.Parse("2006.01.02", *product.ReleaseDate)
				if err != nil {
					return nil, fmt.Errorf("release date for %q: %w", product.Title, err)
				}
				releaseDate = date.Unix()
			}

			if info, ok := data[cname]; ok {
				if discountPrice < info.DiscountPrice {
					info.DiscountPrice = discountPrice
				}
				continue
			}
			data[cname] = &models.PriceFields{
				OriginalName:    product.Title,
				OriginalPrice:   originalPrice,
				DiscountPrice:   discountPrice,
				DiscountPercent: discountPercent,
				ReleaseDate:     releaseDate,
				Developer:       strings.Join(product.Developers, ","),
				Publisher:       strings.Join(product.Publishers, ","),
				ProductType:     product.ProductType,
			}
		}
	}
	return data, nil
}

func parseDollars(s string) (float64, error) {
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}

func parsePercent(s string) (int64, error) {
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimSuffix(s, "%")
	return strconv.ParseInt(s, 10, 64)
}
