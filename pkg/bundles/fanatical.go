// Package bundles imports bundle snapshots: fanatical pick-and-mix feeds,
// steam bundle catalogs via an intermediate priced artifact, and indiegala
// bundle pages.
package bundles

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
)

type fanaticalFeed struct {
	Pickandmix []fanaticalBundle `json:"pickandmix"`
}

type fanaticalBundle struct {
	Name       string                 `json:"name"`
	Products   []models.BundleProduct `json:"products"`
	Tiers      []models.BundleTier    `json:"tiers"`
	BundleType string                 `json:"bundle_type"`
	ValidFrom  string                 `json:"valid_from"`
	ValidUntil string                 `json:"valid_until"`
}

var fanaticalBundleTypes = map[string]bool{
	"bundle":           true,
	"book-bundle":      true,
	"elearning-bundle": true,
	"software-bundle":  true,
	"comic-bundle":     true,
}

// ParseFanaticalBundles decodes one pick-and-mix feed into bundle rows.
// Bundles can list the same product more than once; duplicates are dropped
// keeping the first occurrence.
func ParseFanaticalBundles(raw []byte, ts int64) ([]*models.FanaticalBundleRow, error) {
	var feed fanaticalFeed
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("decode fanatical bundles: %w", err)
	}

	rows := make([]*models.FanaticalBundleRow, 0, len(feed.Pickandmix))
	for _, bundle := range feed.Pickandmix {
		if !fanaticalBundleTypes[bundle.BundleType] {
			return nil, fmt.Errorf("unknown bundle type %q for %q", bundle.BundleType, bundle.Name)
		}

		seen := make(map[string]bool, len(bundle.Products))
		products := make([]models.BundleProduct, 0, len(bundle.Products))
		for _, product := range bundle.Products {
			if seen[product.Name] {
				continue
			}
			seen[product.Name] = true
			products = append(products, product)
		}

		validFrom, err := time.Parse(time.RFC3339, bundle.ValidFrom)
		if err != nil {
			return nil, fmt.Errorf("parse valid_from for %q: %w", bundle.Name, err)
		}
		validUntil, err := time.Parse(time.RFC3339, bundle.ValidUntil)
		if err != nil {
			return nil, fmt.Errorf("parse valid_until for %q: %w", bundle.Name, err)
		}

		rows = append(rows, &models.FanaticalBundleRow{
			TS:         ts,
			Name:       bundle.Name,
			BundleType: bundle.BundleType,
			Products:   database.JSONB[[]models.BundleProduct]{Data: products},
			Tiers:      database.JSONB[[]models.BundleTier]{Data: bundle.Tiers},
			ValidFrom:  validFrom.Unix(),
			ValidUntil: validUntil.Unix(),
		})
	}
	return rows, nil
}
