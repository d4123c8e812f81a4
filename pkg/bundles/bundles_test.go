package bundles

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestParseFanaticalBundles(t *testing.T) {
	raw := []byte(`{"pickandmix":[{
		"name":"Build Your Own Platformer",
		"bundle_type":"bundle",
		"products":[{"name":"Celeste"},{"name":"Fez"},{"name":"Celeste"}],
		"tiers":[{"quantity":3,"price":9.99},{"quantity":5,"price":14.99}],
		"valid_from":"2024-01-01T00:00:00Z",
		"valid_until":"2024-02-01T00:00:00Z"
	}]}`)

	rows, err := ParseFanaticalBundles(raw, 1700000000)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Build Your Own Platformer", row.Name)
	assert.Equal(t, "bundle", row.BundleType)
	assert.Equal(t, int64(1700000000), row.TS)

	// repeated product names collapse to the first occurrence
	require.Len(t, row.Products.Data, 2)
	assert.Equal(t, "Celeste", row.Products.Data[0].Name)
	assert.Equal(t, "Fez", row.Products.Data[1].Name)

	require.Len(t, row.Tiers.Data, 2)
	assert.Equal(t, int64(3), row.Tiers.Data[0].Quantity)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Unix(), row.ValidFrom)
	assert.Equal(t, until.Unix(), row.ValidUntil)
}

func TestParseFanaticalBundlesUnknownType(t *testing.T) {
	raw := []byte(`{"pickandmix":[{
		"name":"Mystery",
		"bundle_type":"mystery-bundle",
		"products":[],
		"tiers":[],
		"valid_from":"2024-01-01T00:00:00Z",
		"valid_until":"2024-02-01T00:00:00Z"
	}]}`)

	_, err := ParseFanaticalBundles(raw, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery-bundle")
}

func TestParseFanaticalBundlesBadTimestamp(t *testing.T) {
	raw := []byte(`{"pickandmix":[{
		"name":"Bad Dates",
		"bundle_type":"bundle",
		"products":[],
		"tiers":[],
		"valid_from":"01/01/2024",
		"valid_until":"2024-02-01T00:00:00Z"
	}]}`)

	_, err := ParseFanaticalBundles(raw, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid_from")
}

func TestParseIndiegalaBundles(t *testing.T) {
	raw := []byte(`[{
		"name":"Indie Picks",
		"price":4.99,
		"games":[{"name":"Short Hike","developer":"adamgryu"}],
		"active_until":"2024/03/15 23:59:59"
	}]`)

	rows, err := ParseIndiegalaBundles(raw, 42)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Indie Picks", row.Name)
	assert.Equal(t, 4.99, row.Price)
	assert.Equal(t, int64(42), row.TS)
	require.Len(t, row.Products.Data, 1)
	assert.Equal(t, "Short Hike", row.Products.Data[0].Name)

	until := time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, until.Unix(), row.ValidUntil)
}

func TestParseIndiegalaBundlesBadTimestamp(t *testing.T) {
	raw := []byte(`[{"name":"Broken","price":1,"games":[],"active_until":"2024-03-15T23:59:59Z"}]`)

	_, err := ParseIndiegalaBundles(raw, 0)
	require.Error(t, err)
}

func TestParseSteamBundles(t *testing.T) {
	raw := []byte(`{"store_items":[{"id":500,"name":"Valve Complete Pack","type":2,"visible":true,"included_types":[0],"included_appids":[70,220],"best_purchase_option":{"price_before_bundle_discount":4999,"final_price_in_cents":999},"included_items":{"included_apps":[{"id":1,"appid":70,"name":"Half-Life","type":0,"item_type":0,"visible":true,"best_purchase_option":{"original_price_in_cents":999,"final_price_in_cents":499}},{"id":2,"appid":220,"name":"Half-Life 2","type":0,"item_type":0,"visible":true,"best_purchase_option":{"final_price_in_cents":999}}]}}]}`)

	bundles, err := ParseSteamBundles(context.Background(), raw, testLogger())
	require.NoError(t, err)
	require.Len(t, bundles, 1)

	b := bundles[0]
	assert.Equal(t, int64(500), b.BundleID)
	assert.Equal(t, "Valve Complete Pack", b.Name)
	assert.Equal(t, 49.99, b.OriginalPrice)
	assert.Equal(t, 9.99, b.DiscountPrice)

	require.Len(t, b.IncludedItems, 2)
	assert.Equal(t, 9.99, b.IncludedItems[0].OriginalPrice)
	assert.Equal(t, 4.99, b.IncludedItems[0].FinalPrice)
	// original price falls back to the final price when absent
	assert.Equal(t, 9.99, b.IncludedItems[1].OriginalPrice)
}

func TestParseSteamBundlesNoPurchaseOption(t *testing.T) {
	raw := []byte(`{"store_items":[{"id":501,"name":"Pay What You Play","type":2,"visible":true,"included_items":{"included_apps":[{"id":1,"appid":10,"name":"Free Game","type":0,"item_type":0,"visible":true,"is_free":true},{"id":2,"appid":11,"name":"Cheap Game","type":0,"item_type":0,"visible":true,"best_purchase_option":{"original_price_in_cents":500,"final_price_in_cents":250}}]}}]}`)

	bundles, err := ParseSteamBundles(context.Background(), raw, testLogger())
	require.NoError(t, err)
	require.Len(t, bundles, 1)

	// bundle total is the sum of item prices when the bundle itself has
	// no purchase option; the free item contributes zero
	assert.Equal(t, 2.50, bundles[0].OriginalPrice)
	assert.Equal(t, 2.50, bundles[0].DiscountPrice)
}

func TestParseSteamBundlesSkipsHiddenAndRepeated(t *testing.T) {
	raw := []byte(`{"store_items":[{"id":600,"name":"Hidden","type":2,"visible":false,"included_items":{"included_apps":[]}},{"id":601,"name":"Shown","type":2,"visible":true,"included_items":{"included_apps":[]}}]}` + "\n" +
		`{"store_items":[{"id":601,"name":"Shown Again","type":2,"visible":true,"included_items":{"included_apps":[]}}]}`)

	bundles, err := ParseSteamBundles(context.Background(), raw, testLogger())
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	assert.Equal(t, "Shown", bundles[0].Name)
}

func TestParseSteamBundlesMissingIncludedItems(t *testing.T) {
	raw := []byte(`{"store_items":[{"id":700,"name":"No Items","type":2,"visible":true}]}`)

	_, err := ParseSteamBundles(context.Background(), raw, testLogger())
	require.Error(t, err)
}
