package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Game is a canonical catalog entry. One row exists per (name, cname) pair;
// every store ledger row points back at one of these.
type Game struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	CName string    `db:"cname" json:"cname"`
	AppID *int64    `db:"appid" json:"appid,omitempty"`

	IsDLC                *bool         `db:"is_dlc" json:"is_dlc,omitempty"`
	Tags                 pq.Int64Array `db:"tags" json:"tags,omitempty"`
	CategoriesPlayer     pq.Int64Array `db:"categories_player" json:"categories_player,omitempty"`
	CategoriesController pq.Int64Array `db:"categories_controller" json:"categories_controller,omitempty"`
	CategoriesFeatures   pq.Int64Array `db:"categories_features" json:"categories_features,omitempty"`
	ReviewCount          *int64        `db:"review_count" json:"review_count,omitempty"`
	ReviewPctPositive    *int64        `db:"review_pct_positive" json:"review_pct_positive,omitempty"`
	ShortDesc            *string       `db:"short_desc" json:"short_desc,omitempty"`
	Developers           *string       `db:"developers" json:"developers,omitempty"`
	Publishers           *string       `db:"publishers" json:"publishers,omitempty"`
	Franchises           *string       `db:"franchises" json:"franchises,omitempty"`
	ReleaseDate          *int64        `db:"release_date" json:"release_date,omitempty"`
	Windows              *bool         `db:"windows" json:"windows,omitempty"`
	Mac                  *bool         `db:"mac" json:"mac,omitempty"`
	Linux                *bool         `db:"linux" json:"linux,omitempty"`
	SteamDeckCompat      *int64        `db:"steam_deck_compat" json:"steam_deck_compat,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GameRef is the projection used during entity resolution.
type GameRef struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	CName string    `db:"cname" json:"cname"`
}

// AppInfoUpdate carries the attribute set merged onto a canonical entry,
// keyed by appid. Zero-value fields still overwrite; the feed is the source
// of truth for everything it covers.
type AppInfoUpdate struct {
	AppID                int64
	IsDLC                bool
	Tags                 []int64
	CategoriesPlayer     []int64
	CategoriesController []int64
	CategoriesFeatures   []int64
	ReviewCount          *int64
	ReviewPctPositive    *int64
	ShortDesc            string
	Developers           string
	Publishers           string
	Franchises           string
	ReleaseDate          *int64
	Windows              bool
	Mac                  bool
	Linux                bool
	SteamDeckCompat      *int64
}
