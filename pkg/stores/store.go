// Package stores parses raw snapshot files from each storefront into the
// normalized price shape the importer appends to the ledgers.
package stores

import (
	"fmt"

	"github.com/Ramsey-B/clover/pkg/models"
)

type Store string

const (
	Fanatical   Store = "fanatical"
	Gamebillet  Store = "gamebillet"
	Gamesplanet Store = "gamesplanet"
	Gmg         Store = "gmg"
	Gog         Store = "gog"
	Indiegala   Store = "indiegala"
	Steam       Store = "steam"
	Wgs         Store = "wgs"
)

// All lists every store in import order.
var All = []Store{Fanatical, Gamebillet, Gamesplanet, Gmg, Gog, Indiegala, Steam, Wgs}

// Parse returns the store for its wire name.
func Parse(s string) (Store, error) {
	for _, store := range All {
		if string(store) == s {
			return store, nil
		}
	}
	return "", fmt.Errorf("unknown store: %s", s)
}

func (s Store) String() string {
	return string(s)
}

// Table is the ledger table for this store.
func (s Store) Table() string {
	return "prices_" + string(s)
}

// Dir is the snapshot directory name, which predates the short store names.
func (s Store) Dir() string {
	if s == Wgs {
		return "wingamestore"
	}
	return string(s)
}

// ParsePrices decodes one snapshot file for this store. Each call gets fresh
// dedup state, so files never see each other's package or bundle ids.
func (s Store) ParsePrices(raw []byte) (models.PriceData, error) {
	switch s {
	case Fanatical:
		return ParseFanatical(raw)
	case Gamebillet:
		return ParseGamebillet(raw)
	case Gamesplanet:
		return ParseGamesplanet(raw)
	case Gmg:
		return ParseGmg(raw)
	case Gog:
		return ParseGog(raw)
	case Indiegala:
		return ParseIndiegala(raw)
	case Steam:
		return ParseSteam(raw, NewSeenIDs())
	case Wgs:
		return ParseWgs(raw)
	default:
		return nil, fmt.Errorf("unknown store: %s", s)
	}
}
