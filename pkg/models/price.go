package models

import (
	"time"

	"github.com/google/uuid"
)

// PriceFields is the normalized shape every snapshot reader produces.
// Stores fill only the fields they carry; the rest stay zero.
type PriceFields struct {
	SteamAppID      string
	OriginalName    string
	OriginalPrice   float64
	DiscountPrice   float64
	DiscountPercent int64
	BestEver        bool
	FlashSale       bool
	OS              string
	ReleaseDate     int64
	ValidFrom       int64
	ValidUntil      int64
	IsDLC           bool
	Developer       string
	Franchise       string
	Publisher       string
	ProductType     string
	PackageID       *int64
	BundleID        *int64
}

// PriceData maps canonical name to the aggregated price fields for one file.
type PriceData map[string]*PriceFields

// PriceRow is one appended ledger entry.
type PriceRow struct {
	ID              int64         `db:"id" json:"id"`
	GameID          uuid.NullUUID `db:"game_id" json:"game_id"`
	TS              int64         `db:"ts" json:"ts"`
	Name            string        `db:"name" json:"name"`
	AppID           *int64        `db:"appid" json:"appid,omitempty"`
	PackageID       *int64        `db:"packageid" json:"packageid,omitempty"`
	BundleID        *int64        `db:"bundleid" json:"bundleid,omitempty"`
	Price           *float64      `db:"price" json:"price,omitempty"`
	DiscountPrice   float64       `db:"discount_price" json:"discount_price"`
	DiscountPercent *int64        `db:"discount_percent" json:"discount_percent,omitempty"`
	BestEver        *bool         `db:"best_ever" json:"best_ever,omitempty"`
	FlashSale       *bool         `db:"flash_sale" json:"flash_sale,omitempty"`
	OS              *string       `db:"os" json:"os,omitempty"`
	ReleaseDate     *int64        `db:"release_date" json:"release_date,omitempty"`
	AvailableFrom   *int64        `db:"available_from" json:"available_from,omitempty"`
	AvailableUntil  *int64        `db:"available_until" json:"available_until,omitempty"`
	IsDLC           *bool         `db:"is_dlc" json:"is_dlc,omitempty"`
	Developer       *string       `db:"developer" json:"developer,omitempty"`
	Franchise       *string       `db:"franchise" json:"franchise,omitempty"`
	Publisher       *string       `db:"publisher" json:"publisher,omitempty"`
	ProductType     *string       `db:"product_type" json:"product_type,omitempty"`
	DRM             int16         `db:"drm" json:"drm"`
}

// SearchRow is one entry in the denormalized prices view.
type SearchRow struct {
	GameID               uuid.NullUUID `db:"game_id" json:"game_id"`
	Name                 string        `db:"name" json:"name"`
	Store                string        `db:"store" json:"store"`
	TS                   int64         `db:"ts" json:"ts"`
	Price                *float64      `db:"price" json:"price,omitempty"`
	DiscountPrice        float64       `db:"discount_price" json:"discount_price"`
	DiscountPercent      *int64        `db:"discount_percent" json:"discount_percent,omitempty"`
	Tags                 *string       `db:"tags" json:"tags,omitempty"`
	CategoriesPlayer     *string       `db:"categories_player" json:"categories_player,omitempty"`
	CategoriesController *string       `db:"categories_controller" json:"categories_controller,omitempty"`
	CategoriesFeatures   *string       `db:"categories_features" json:"categories_features,omitempty"`
	UpdatedAt            time.Time     `db:"updated_at" json:"updated_at"`
}
