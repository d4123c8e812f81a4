// Package metadata maintains the canonical name directory and the attribute
// merge from the steam metadata feed.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/stores"
)

// SteamMap maps a canonical name to the sorted set of appids it was seen
// under, covering both app names and purchase option names.
type SteamMap map[string][]int64

// Add inserts an appid into a name's set, keeping it sorted and unique.
func (m SteamMap) Add(cname string, appID int64) {
	set := m[cname]
	idx := sort.Search(len(set), func(i int) bool { return set[i] >= appID })
	if idx < len(set) && set[idx] == appID {
		return
	}
	set = append(set, 0)
	copy(set[idx+1:], set[idx:])
	set[idx] = appID
	m[cname] = set
}

// Merge folds the items of one appinfo feed into the map. Items without a
// name or appid are skipped; purchase option names map to the parent appid.
func (m SteamMap) Merge(raw []byte) error {
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var resp stores.SteamResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return fmt.Errorf("decode appinfo line: %w", err)
		}

		for _, item := range resp.StoreItems {
			if item.Name == nil || item.AppID == nil {
				continue
			}
			m.Add(normalizers.CanonicalName(*item.Name), *item.AppID)

			for _, opt := range item.PurchaseOptions {
				if opt.PurchaseOptionName == nil {
					continue
				}
				m.Add(normalizers.CanonicalName(*opt.PurchaseOptionName), *item.AppID)
			}
		}
	}
	return nil
}

// LoadSteamMap reads a previously written map artifact.
func LoadSteamMap(path string) (SteamMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read steam map: %w", err)
	}
	var m SteamMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode steam map: %w", err)
	}
	return m, nil
}

// Save writes the map artifact, pretty-printed for operator inspection.
func (m SteamMap) Save(path string) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write steam map: %w", err)
	}
	return nil
}
