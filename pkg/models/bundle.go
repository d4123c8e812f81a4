package models

import (
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/google/uuid"
)

// BundleProduct is a single named item inside a pick-and-mix bundle.
type BundleProduct struct {
	Name string `json:"name"`
}

// BundleTier is one quantity/price step of a pick-and-mix bundle.
type BundleTier struct {
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
}

type FanaticalBundleRow struct {
	ID         uuid.UUID                       `db:"id" json:"id"`
	TS         int64                           `db:"ts" json:"ts"`
	Name       string                          `db:"name" json:"name"`
	BundleType string                          `db:"bundle_type" json:"bundle_type"`
	Products   database.JSONB[[]BundleProduct] `db:"products" json:"products"`
	Tiers      database.JSONB[[]BundleTier]    `db:"tiers" json:"tiers"`
	ValidFrom  int64                           `db:"valid_from" json:"valid_from"`
	ValidUntil int64                           `db:"valid_until" json:"valid_until"`
}

// SteamBundleItem is one included app of a steam bundle, priced individually
// so a bundle total can be derived when the bundle itself has no purchase
// option.
type SteamBundleItem struct {
	ItemType      int32   `json:"item_type"`
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	AppID         int64   `json:"appid"`
	Type          int32   `json:"type"`
	OriginalPrice float64 `json:"original_price"`
	FinalPrice    float64 `json:"final_price"`
}

// SteamBundleInfo is the parsed artifact shape written between the two steam
// bundle passes and then imported as a row.
type SteamBundleInfo struct {
	BundleID       int64             `json:"bundleid"`
	Name           string            `json:"name"`
	Type           int32             `json:"type"`
	IncludedTypes  []int32           `json:"included_types"`
	IncludedAppIDs []int64           `json:"included_appids"`
	IncludedItems  []SteamBundleItem `json:"included_items"`
	OriginalPrice  float64           `json:"original_price"`
	DiscountPrice  float64           `json:"discount_price"`
}

type SteamBundleRow struct {
	ID             uuid.UUID                         `db:"id" json:"id"`
	BundleID       int64                             `db:"bundleid" json:"bundleid"`
	TS             int64                             `db:"ts" json:"ts"`
	Name           string                            `db:"name" json:"name"`
	Type           int32                             `db:"type" json:"type"`
	IncludedTypes  database.JSONB[[]int32]           `db:"included_types" json:"included_types"`
	IncludedAppIDs database.JSONB[[]int64]           `db:"included_appids" json:"included_appids"`
	IncludedItems  database.JSONB[[]SteamBundleItem] `db:"included_items" json:"included_items"`
	OriginalPrice  float64                           `db:"original_price" json:"original_price"`
	DiscountPrice  float64                           `db:"discount_price" json:"discount_price"`
}

type IndiegalaBundleGame struct {
	Name      string `json:"name"`
	Developer string `json:"developer"`
}

type IndiegalaBundleRow struct {
	ID         uuid.UUID                             `db:"id" json:"id"`
	TS         int64                                 `db:"ts" json:"ts"`
	Name       string                                `db:"name" json:"name"`
	Price      float64                               `db:"price" json:"price"`
	Products   database.JSONB[[]IndiegalaBundleGame] `db:"products" json:"products"`
	ValidUntil int64                                 `db:"valid_until" json:"valid_until"`
}
