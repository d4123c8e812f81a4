package bundles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/stores"
)

// ParseSteamBundles turns a raw steam bundle catalog into priced bundle
// artifacts. Hidden items and repeated bundle ids are skipped; an included
// app without a purchase option is priced at zero, which is only expected
// for free items and logged otherwise. When the bundle itself carries no
// purchase option, the total of its items stands in for both prices.
func ParseSteamBundles(ctx context.Context, raw []byte, logger ectologger.Logger) ([]models.SteamBundleInfo, error) {
	seen := make(map[int64]bool)
	var bundles []models.SteamBundleInfo

	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var resp stores.SteamResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return nil, fmt.Errorf("decode steam bundle line: %w", err)
		}

		for _, item := range resp.StoreItems {
			if item.Visible == nil || !*item.Visible {
				continue
			}
			if item.ID == nil || seen[*item.ID] {
				continue
			}
			seen[*item.ID] = true

			if item.Name == nil || item.Type == nil {
				continue
			}
			if item.IncludedItems == nil {
				return nil, &models.MissingFieldError{Field: "included_items", Item: *item.Name}
			}

			info := models.SteamBundleInfo{
				BundleID:       *item.ID,
				Name:           *item.Name,
				Type:           *item.Type,
				IncludedTypes:  item.IncludedTypes,
				IncludedAppIDs: item.IncludedAppIDs,
			}

			var bundleCost float64
			for _, sub := range item.IncludedItems.IncludedApps {
				if sub.Visible == nil || !*sub.Visible {
					continue
				}
				bundleItem, err := bundleItemFrom(ctx, sub, logger)
				if err != nil {
					return nil, err
				}
				bundleCost += bundleItem.FinalPrice
				info.IncludedItems = append(info.IncludedItems, *bundleItem)
			}

			if purchase := item.BestPurchaseOption; purchase != nil {
				if purchase.PriceBeforeBundleDiscount == nil {
					return nil, &models.MissingFieldError{Field: "price_before_bundle_discount", Item: info.Name}
				}
				if purchase.FinalPriceInCents == nil {
					return nil, &models.MissingFieldError{Field: "final_price_in_cents", Item: info.Name}
				}
				info.OriginalPrice = float64(*purchase.PriceBeforeBundleDiscount) / 100
				info.DiscountPrice = float64(*purchase.FinalPriceInCents) / 100
			} else {
				info.OriginalPrice = bundleCost
				info.DiscountPrice = bundleCost
			}

			bundles = append(bundles, info)
		}
	}
	return bundles, nil
}

func bundleItemFrom(ctx context.Context, sub stores.SteamStoreItem, logger ectologger.Logger) (*models.SteamBundleItem, error) {
	if sub.ItemType == nil {
		return nil, &models.MissingFieldError{Field: "item_type", Item: deref(sub.Name)}
	}
	if sub.ID == nil {
		return nil, &models.MissingFieldError{Field: "id", Item: deref(sub.Name)}
	}
	if sub.Name == nil {
		return nil, &models.MissingFieldError{Field: "name", Item: ""}
	}
	if sub.AppID == nil {
		return nil, &models.MissingFieldError{Field: "appid", Item: *sub.Name}
	}
	if sub.Type == nil {
		return nil, &models.MissingFieldError{Field: "type", Item: *sub.Name}
	}

	item := &models.SteamBundleItem{
		ItemType: *sub.ItemType,
		ID:       *sub.ID,
		Name:     *sub.Name,
		AppID:    *sub.AppID,
		Type:     *sub.Type,
	}

	if purchase := sub.BestPurchaseOption; purchase != nil {
		if purchase.FinalPriceInCents == nil {
			return nil, &models.MissingFieldError{Field: "final_price_in_cents", Item: *sub.Name}
		}
		item.FinalPrice = float64(*purchase.FinalPriceInCents) / 100
		if purchase.OriginalPriceInCents != nil {
			item.OriginalPrice = float64(*purchase.OriginalPriceInCents) / 100
		} else {
			item.OriginalPrice = item.FinalPrice
		}
		return item, nil
	}

	if sub.IsFree == nil || !*sub.IsFree {
		logger.WithContext(ctx).WithFields(map[string]any{
			"name": *sub.Name,
			"url":  deref(sub.StoreURLPath),
		}).Error("Included item has no purchase option and is not free")
	}
	return item, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
