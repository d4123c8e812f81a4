package bundles

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
)

// indiegala bundle pages use a slash-separated local datetime
const indiegalaTimeLayout = "2006/01/02 15:04:05"

type indiegalaBundle struct {
	Price       float64                      `json:"price"`
	Name        string                       `json:"name"`
	Games       []models.IndiegalaBundleGame `json:"games"`
	ActiveUntil string                       `json:"active_until"`
}

// ParseIndiegalaBundles decodes one indiegala bundle feed into bundle rows.
func ParseIndiegalaBundles(raw []byte, ts int64) ([]*models.IndiegalaBundleRow, error) {
	var bundles []indiegalaBundle
	if err := json.Unmarshal(raw, &bundles); err != nil {
		return nil, fmt.Errorf("decode indiegala bundles: %w", err)
	}

	rows := make([]*models.IndiegalaBundleRow, 0, len(bundles))
	for _, bundle := range bundles {
		validUntil, err := time.Parse(indiegalaTimeLayout, bundle.ActiveUntil)
		if err != nil {
			return nil, fmt.Errorf("parse active_until for %q: %w", bundle.Name, err)
		}

		rows = append(rows, &models.IndiegalaBundleRow{
			TS:         ts,
			Name:       bundle.Name,
			Price:      bundle.Price,
			Products:   database.JSONB[[]models.IndiegalaBundleGame]{Data: bundle.Games},
			ValidUntil: validUntil.Unix(),
		})
	}
	return rows, nil
}
