package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSteamMapAdd(t *testing.T) {
	m := SteamMap{}

	m.Add("portal", 400)
	m.Add("portal", 620)
	m.Add("portal", 400)
	m.Add("portal", 1)

	assert.Equal(t, []int64{1, 400, 620}, m["portal"])
}

func TestSteamMapMerge(t *testing.T) {
	raw := []byte(`{"store_items":[{"appid":400,"name":"Portal","purchase_options":[{"purchase_option_name":"Portal Bundle","packageid":79}]},{"appid":620,"name":"Portal 2"},{"name":"No AppID"},{"appid":999}]}` + "\n" +
		`{"store_items":[{"appid":400,"name":"PORTAL"}]}`)

	m := SteamMap{}
	require.NoError(t, m.Merge(raw))

	assert.Equal(t, []int64{400}, m["portal"])
	assert.Equal(t, []int64{620}, m["portal 2"])
	// purchase option names map to the parent appid
	assert.Equal(t, []int64{400}, m["portal bundle"])
	assert.Len(t, m, 3)
}

func TestSteamMapSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steam_map.json")

	m := SteamMap{"portal": {400, 620}}
	require.NoError(t, m.Save(path))

	loaded, err := LoadSteamMap(path)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)

	// artifact is pretty-printed
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  ")
}

func TestParseAppInfo(t *testing.T) {
	raw := []byte(`{"store_items":[{"appid":400,"name":"Portal","type":0,"tagids":[1664,1697],"categories":{"supported_player_categoryids":[2],"feature_categoryids":[22,23],"controller_categoryids":[28]},"reviews":{"summary_filtered":{"review_count":120000,"percent_positive":98}},"basic_info":{"short_description":"A puzzle game.","developers":[{"name":"Valve"}],"publishers":[{"name":"Valve"},{}],"franchises":[{"name":"Portal"},{"name":"Half-Life"}]},"release":{"steam_release_date":1191888000},"platforms":{"windows":true,"mac":true,"linux":false,"steam_deck_compat_category":3}}]}`)

	updates, err := parseAppInfo(raw)
	require.NoError(t, err)
	require.Len(t, updates, 1)

	u := updates[0]
	assert.Equal(t, int64(400), u.AppID)
	assert.False(t, u.IsDLC)
	assert.Equal(t, []int64{1664, 1697}, u.Tags)
	assert.Equal(t, []int64{2}, u.CategoriesPlayer)
	assert.Equal(t, []int64{22, 23}, u.CategoriesFeatures)
	assert.Equal(t, []int64{28}, u.CategoriesController)
	assert.Equal(t, int64(120000), *u.ReviewCount)
	assert.Equal(t, int64(98), *u.ReviewPctPositive)
	assert.Equal(t, "A puzzle game.", u.ShortDesc)
	assert.Equal(t, "Valve", u.Developers)
	// a credit without a name still holds its slot
	assert.Equal(t, "Valve,", u.Publishers)
	assert.Equal(t, "Portal,Half-Life", u.Franchises)
	assert.Equal(t, int64(1191888000), *u.ReleaseDate)
	assert.True(t, u.Windows)
	assert.True(t, u.Mac)
	assert.False(t, u.Linux)
}

func TestParseAppInfoDLC(t *testing.T) {
	raw := []byte(`{"store_items":[{"appid":323180,"name":"Some DLC","type":4}]}`)

	updates, err := parseAppInfo(raw)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.True(t, updates[0].IsDLC)
}

func TestParseAppInfoFirstOccurrenceWins(t *testing.T) {
	raw := []byte(`{"store_items":[{"appid":400,"name":"Portal","basic_info":{"short_description":"first"}},{"appid":400,"name":"Portal","basic_info":{"short_description":"second"}}]}`)

	updates, err := parseAppInfo(raw)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "first", updates[0].ShortDesc)
}

func TestParseAppInfoSkipsIncomplete(t *testing.T) {
	raw := []byte(`{"store_items":[{"name":"No AppID"},{"appid":500}]}`)

	updates, err := parseAppInfo(raw)
	require.NoError(t, err)
	assert.Empty(t, updates)
}
