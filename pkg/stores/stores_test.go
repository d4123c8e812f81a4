package stores

import (
	"errors"
	"testing"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFanatical(t *testing.T) {
	raw := []byte(`{"results":[{"hits":[` +
		`{"name":"Hollow Knight","discount_percent":50,"best_ever":true,"flash_sale":false,"price":{"USD":7.49},"fullPrice":{"USD":14.99},"available_valid_from":100,"available_valid_until":200,"operating_systems":["windows","linux"]},` +
		`{"name":"Hollow  Knight!","discount_percent":60,"best_ever":false,"flash_sale":false,"price":{"USD":5.99},"fullPrice":{"USD":14.99},"available_valid_from":100,"available_valid_until":200,"operating_systems":["windows"]}` +
		`],"nb_hits":2,"page":0,"nb_pages":1,"hits_per_page":36}]}`)

	data, err := ParseFanatical(raw)
	require.NoError(t, err)
	require.Len(t, data, 1)

	info := data["hollow knight"]
	require.NotNil(t, info)
	// duplicate canonical name keeps the lower discount price but the first
	// row's other fields
	assert.Equal(t, "Hollow Knight", info.OriginalName)
	assert.Equal(t, 5.99, info.DiscountPrice)
	assert.Equal(t, 14.99, info.OriginalPrice)
	assert.True(t, info.BestEver)
	assert.Equal(t, "windows,linux", info.OS)
}

func TestParseFanaticalMultipleLines(t *testing.T) {
	raw := []byte(`{"results":[{"hits":[{"name":"A","price":{"USD":1},"fullPrice":{"USD":2}}],"nb_hits":1,"page":0,"nb_pages":1,"hits_per_page":36}]}` + "\n" +
		`{"results":[{"hits":[{"name":"B","price":{"USD":3},"fullPrice":{"USD":4}}],"nb_hits":1,"page":1,"nb_pages":1,"hits_per_page":36}]}` + "\n")

	data, err := ParseFanatical(raw)
	require.NoError(t, err)
	assert.Len(t, data, 2)
}

func TestParseGamebillet(t *testing.T) {
	raw := []byte(`[{"name":"Celeste","price":4.99,"percent_discount":75},{"name":"Celeste","price":3.99,"percent_discount":80}]`)

	data, err := ParseGamebillet(raw)
	require.NoError(t, err)
	require.Len(t, data, 1)
	assert.Equal(t, 3.99, data["celeste"].DiscountPrice)
	assert.Equal(t, int64(75), data["celeste"].DiscountPercent)
}

func TestParseGamesplanet(t *testing.T) {
	raw := []byte(`[{"name":"Factorio","original_price":35,"discount":10,"price":31.5}]`)

	data, err := ParseGamesplanet(raw)
	require.NoError(t, err)
	require.Len(t, data, 1)
	assert.Equal(t, 35.0, data["factorio"].OriginalPrice)
	assert.Equal(t, 31.5, data["factorio"].DiscountPrice)
}

func TestParseGmg(t *testing.T) {
	raw := []byte(`{"results":[{"hits":[{"DisplayName":"DOOM Eternal","IsDlc":false,"Genre":["Shooter"],"Franchise":"DOOM","PublisherName":"Bethesda","Regions":{"us":{"price":9.99,"discount_percent":75,"original_price":39.99}},"SteamAppId":"782330"}],"nb_hits":1,"page":0,"nb_pages":1,"hits_per_page":36}]}`)

	data, err := ParseGmg(raw)
	require.NoError(t, err)
	info := data["doom eternal"]
	require.NotNil(t, info)
	assert.Equal(t, "782330", info.SteamAppID)
	assert.Equal(t, 9.99, info.DiscountPrice)
	assert.Equal(t, 39.99, info.OriginalPrice)
	assert.Equal(t, "DOOM", info.Franchise)
	assert.Equal(t, "Bethesda", info.Publisher)
}

func TestParseGog(t *testing.T) {
	raw := []byte(`{"products":[{"releaseDate":"2015.05.18","productType":"game","title":"The Witcher 3: Wild Hunt","developers":["CD PROJEKT RED"],"publishers":["CD PROJEKT RED"],"price":{"final":"$9.99","base":"$49.99","discount":"-80%"}}]}`)

	data, err := ParseGog(raw)
	require.NoError(t, err)
	info := data["the witcher 3 wild hunt"]
	require.NotNil(t, info)
	assert.Equal(t, 49.99, info.OriginalPrice)
	assert.Equal(t, 9.99, info.DiscountPrice)
	assert.Equal(t, int64(80), info.DiscountPercent)
	assert.Equal(t, "CD PROJEKT RED", info.Developer)
	assert.NotZero(t, info.ReleaseDate)
}

func TestParseGogThousandsSeparator(t *testing.T) {
	got, err := parseDollars("$1,049.99")
	require.NoError(t, err)
	assert.Equal(t, 1049.99, got)
}

func TestParseGogBadPrice(t *testing.T) {
	raw := []byte(`{"products":[{"productType":"game","title":"Broken","developers":[],"publishers":[],"price":{"final":"free","base":"$0.00","discount":"-0%"}}]}`)

	_, err := ParseGog(raw)
	assert.Error(t, err)
}

func TestParseIndiegala(t *testing.T) {
	raw := []byte(`[` +
		`{"title":"Syberia","platforms":["win"],"publisher":"Microids","price":12.99,"discount_price":1.99,"discount_start":"2024-01-01T00:00:00+00:00","discount_end":"2024-01-08T00:00:00+00:00","release_date":"2002-06-01T00:00:00+00:00","drm_info":"SteamKey"},` +
		`{"title":"DRM Free Game","platforms":["win"],"publisher":"Nobody","price":5,"discount_price":1,"discount_start":"","discount_end":"","release_date":"","drm_info":"DRMFree"}` +
		`]`)

	data, err := ParseIndiegala(raw)
	require.NoError(t, err)
	// non steam-key rows are filtered out
	require.Len(t, data, 1)
	info := data["syberia"]
	require.NotNil(t, info)
	assert.Equal(t, 1.99, info.DiscountPrice)
	assert.NotZero(t, info.ValidFrom)
	assert.NotZero(t, info.ValidUntil)
}

func TestParseWgs(t *testing.T) {
	raw := []byte(`[` +
		`{"genre":"RPG","publisher":"Larian","name":"Divinity","is_dlc":false,"is_steam_drm":true,"discount_percent":50,"discount_price":22.49},` +
		`{"genre":"RPG","publisher":"Other","name":"Not Steam","is_dlc":false,"is_steam_drm":false,"discount_percent":10,"discount_price":9}` +
		`]`)

	data, err := ParseWgs(raw)
	require.NoError(t, err)
	require.Len(t, data, 1)
	assert.Equal(t, "Larian", data["divinity"].Publisher)
}

func TestParseSteam(t *testing.T) {
	raw := []byte(`{"store_items":[{"appid":400,"name":"Portal","purchase_options":[` +
		`{"purchase_option_name":"Portal","packageid":10,"original_price_in_cents":999,"final_price_in_cents":99,"discount_pct":90,"active_discounts":[{"discount_end_date":1700000000}]},` +
		`{"purchase_option_name":"Portal Bundle","bundleid":20,"original_price_in_cents":1999,"final_price_in_cents":499,"discount_pct":75,"active_discounts":[{"discount_end_date":1700000000}]},` +
		`{"purchase_option_name":"No Discount Edition","packageid":11,"original_price_in_cents":2999,"final_price_in_cents":2999,"active_discounts":[]}` +
		`]}]}`)

	data, err := ParseSteam(raw, NewSeenIDs())
	require.NoError(t, err)
	require.Len(t, data, 2)

	portal := data["portal"]
	require.NotNil(t, portal)
	require.NotNil(t, portal.PackageID)
	assert.Equal(t, int64(10), *portal.PackageID)
	assert.Equal(t, 0.99, portal.DiscountPrice)
	assert.Equal(t, 9.99, portal.OriginalPrice)
	assert.Equal(t, int64(1700000000), portal.ValidUntil)

	bundle := data["portal bundle"]
	require.NotNil(t, bundle)
	require.NotNil(t, bundle.BundleID)
	assert.Equal(t, int64(20), *bundle.BundleID)
}

func TestParseSteamRepeatedPackageSkipsItem(t *testing.T) {
	line := `{"store_items":[` +
		`{"appid":1,"purchase_options":[{"purchase_option_name":"First","packageid":10,"original_price_in_cents":100,"final_price_in_cents":50,"active_discounts":[{"discount_end_date":1}]}]},` +
		`{"appid":2,"purchase_options":[` +
		`{"purchase_option_name":"Repeat","packageid":10,"original_price_in_cents":100,"final_price_in_cents":50,"active_discounts":[{"discount_end_date":1}]},` +
		`{"purchase_option_name":"Shadowed","packageid":11,"original_price_in_cents":100,"final_price_in_cents":50,"active_discounts":[{"discount_end_date":1}]}` +
		`]}]}`

	data, err := ParseSteam([]byte(line), NewSeenIDs())
	require.NoError(t, err)
	// the repeated packageid drops the rest of that item's options too
	require.Len(t, data, 1)
	assert.NotNil(t, data["first"])
}

func TestParseSteamSeenIDsAreScopedPerCall(t *testing.T) {
	line := []byte(`{"store_items":[{"appid":1,"purchase_options":[{"purchase_option_name":"Game","packageid":10,"original_price_in_cents":100,"final_price_in_cents":50,"active_discounts":[{"discount_end_date":1}]}]}]}`)

	first, err := ParseSteam(line, NewSeenIDs())
	require.NoError(t, err)
	second, err := ParseSteam(line, NewSeenIDs())
	require.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}

func TestParseSteamMissingPrice(t *testing.T) {
	raw := []byte(`{"store_items":[{"appid":1,"purchase_options":[{"purchase_option_name":"Broken","packageid":10,"final_price_in_cents":50,"active_discounts":[{"discount_end_date":1}]}]}]}`)

	_, err := ParseSteam(raw, NewSeenIDs())
	require.Error(t, err)
	var missing *models.MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "original_price_in_cents", missing.Field)
}

func TestStoreTableAndDir(t *testing.T) {
	assert.Equal(t, "prices_steam", Steam.Table())
	assert.Equal(t, "wingamestore", Wgs.Dir())
	assert.Equal(t, "gog", Gog.Dir())
}

func TestParseStore(t *testing.T) {
	store, err := Parse("fanatical")
	require.NoError(t, err)
	assert.Equal(t, Fanatical, store)

	_, err = Parse("humble")
	assert.Error(t, err)
}
