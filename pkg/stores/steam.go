package stores

import (
	"encoding/json"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// SteamResponse is one line of a steam snapshot or appinfo feed. Both the
// query and browse endpoints emit the same store_items envelope.
type SteamResponse struct {
	StoreItems []SteamStoreItem `json:"store_items"`
}

// SteamStoreItem is the superset of item fields the importer reads across
// price, metadata, and bundle passes. Everything is optional on the wire.
type SteamStoreItem struct {
	ID                 *int64                `json:"id"`
	AppID              *int64                `json:"appid"`
	Name               *string               `json:"name"`
	Type               *int32                `json:"type"`
	ItemType           *int32                `json:"item_type"`
	Visible            *bool                 `json:"visible"`
	IsFree             *bool                 `json:"is_free"`
	StoreURLPath       *string               `json:"store_url_path"`
	TagIDs             []int64               `json:"tagids"`
	Categories         *SteamCategories      `json:"categories"`
	Reviews            *SteamReviews         `json:"reviews"`
	BasicInfo          *SteamBasicInfo       `json:"basic_info"`
	Release            *SteamRelease         `json:"release"`
	Platforms          *SteamPlatforms       `json:"platforms"`
	PurchaseOptions    []SteamPurchaseOption `json:"purchase_options"`
	BestPurchaseOption *SteamPurchaseOption  `json:"best_purchase_option"`
	IncludedTypes      []int32               `json:"included_types"`
	IncludedAppIDs     []int64               `json:"included_appids"`
	IncludedItems      *SteamIncludedItems   `json:"included_items"`
}

type SteamPurchaseOption struct {
	PurchaseOptionName        *string               `json:"purchase_option_name"`
	PackageID                 *int64                `json:"packageid"`
	BundleID                  *int64                `json:"bundleid"`
	OriginalPriceInCents      *int64                `json:"original_price_in_cents"`
	FinalPriceInCents         *int64                `json:"final_price_in_cents"`
	DiscountPct               *int64                `json:"discount_pct"`
	PriceBeforeBundleDiscount *int64                `json:"price_before_bundle_discount"`
	ActiveDiscounts           []SteamActiveDiscount `json:"active_discounts"`
}

type SteamActiveDiscount struct {
	DiscountEndDate *int64 `json:"discount_end_date"`
}

type SteamCategories struct {
	SupportedPlayerCategoryIDs []int64 `json:"supported_player_categoryids"`
	FeatureCategoryIDs         []int64 `json:"feature_categoryids"`
	ControllerCategoryIDs      []int64 `json:"controller_categoryids"`
}

type SteamReviews struct {
	SummaryFiltered *SteamReviewSummary `json:"summary_filtered"`
}

type SteamReviewSummary struct {
	ReviewCount     *int64 `json:"review_count"`
	PercentPositive *int64 `json:"percent_positive"`
}

type SteamBasicInfo struct {
	ShortDescription *string       `json:"short_description"`
	Publishers       []SteamCredit `json:"publishers"`
	Developers       []SteamCredit `json:"developers"`
	Franchises       []SteamCredit `json:"franchises"`
}

type SteamCredit struct {
	Name *string `json:"name"`
}

type SteamRelease struct {
	SteamReleaseDate *int64 `json:"steam_release_date"`
}

type SteamPlatforms struct {
	Windows                 *bool  `json:"windows"`
	Mac                     *bool  `json:"mac"`
	Linux                   *bool  `json:"linux"`
	SteamDeckCompatCategory *int64 `json:"steam_deck_compat_category"`
}

type SteamIncludedItems struct {
	IncludedApps []SteamStoreItem `json:"included_apps"`
}

// SeenIDs tracks which package and bundle ids a pass has already taken a
// price from. Each input file gets its own instance; the sets are never
// shared across files.
type SeenIDs struct {
	Packages map[int64]bool
	Bundles  map[int64]bool
}

func NewSeenIDs() *SeenIDs {
	return &SeenIDs{
		Packages: make(map[int64]bool),
		Bundles:  make(map[int64]bool),
	}
}

// SeenPackage records a package id, reporting whether it was new.
func (s *SeenIDs) SeenPackage(id int64) bool {
	if s.Packages[id] {
		return true
	}
	s.Packages[id] = true
	return false
}

// SeenBundle records a bundle id, reporting whether it was new.
func (s *SeenIDs) SeenBundle(id int64) bool {
	if s.Bundles[id] {
		return true
	}
	s.Bundles[id] = true
	return false
}

// ParseSteam reads a steam snapshot: one query response per line. Discounted
// purchase options become rows keyed by the option's canonical name plus its
// package and bundle ids. A repeated package or bundle id skips the rest of
// that item's options.
func ParseSteam(raw []byte, seen *SeenIDs) (models.PriceData, error) {
	data := models.PriceData{}
	for _, line := range splitLines(raw) {
		var row SteamResponse
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, err
		}
	items:
		for _, item := range row.StoreItems {
			for _, opt := range item.PurchaseOptions {
				if opt.PurchaseOptionName == nil {
					continue
				}
				name := *opt.PurchaseOptionName
				cname := normalizers.CanonicalName(name)

				// options without an active discount are not price signals
				if len(opt.ActiveDiscounts) == 0 {
					continue
				}

				if opt.PackageID != nil && seen.SeenPackage(*opt.PackageID) {
					continue items
				}
				if opt.BundleID != nil && seen.SeenBundle(*opt.BundleID) {
					continue items
				}

				if opt.OriginalPriceInCents == nil {
					return nil, &models.MissingFieldError{Field: "original_price_in_cents", Item: name}
				}
				if opt.FinalPriceInCents == nil {
					return nil, &models.MissingFieldError{Field: "final_price_in_cents", Item: name}
				}
				if opt.ActiveDiscounts[0].DiscountEndDate == nil {
					return nil, &models.MissingFieldError{Field: "discount_end_date", Item: name}
				}

				var discountPercent int64
				if opt.DiscountPct != nil {
					discountPercent = *opt.DiscountPct
				}

				data[cname] = &models.PriceFields{
					PackageID:       opt.PackageID,
					BundleID:        opt.BundleID,
					OriginalName:    name,
					OriginalPrice:   float64(*opt.OriginalPriceInCents) / 100,
					DiscountPrice:   float64(*opt.FinalPriceInCents) / 100,
					DiscountPercent: discountPercent,
					ValidUntil:      *opt.ActiveDiscounts[0].DiscountEndDate,
				}
			}
		}
	}
	return data, nil
}
