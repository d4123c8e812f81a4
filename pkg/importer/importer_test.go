package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	return path
}

func TestAllFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "on_sale_1700000200.json")
	writeFile(t, dir, "on_sale_1700000100.json")
	writeFile(t, dir, "appinfo_1700000100.jsonl")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "on_sale_dir"), 0o755))

	files, err := AllFiles(dir, SnapshotPrefix)
	require.NoError(t, err)
	require.Len(t, files, 2)

	// sorted ascending so older snapshots import first
	assert.Equal(t, "on_sale_1700000100.json", filepath.Base(files[0]))
	assert.Equal(t, "on_sale_1700000200.json", filepath.Base(files[1]))
}

func TestAllFilesMissingDir(t *testing.T) {
	files, err := AllFiles(filepath.Join(t.TempDir(), "missing"), SnapshotPrefix)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLatestFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "appinfo_1700000100.jsonl")
	writeFile(t, dir, "appinfo_1700000300.jsonl")

	latest, err := LatestFile(dir, "appinfo")
	require.NoError(t, err)
	assert.Equal(t, "appinfo_1700000300.jsonl", filepath.Base(latest))

	none, err := LatestFile(dir, "on_sale")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFileTS(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "on_sale_1.json")

	ts, err := FileTS(path)
	require.NoError(t, err)
	assert.Greater(t, ts, int64(0))

	_, err = FileTS(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestMoveToBackup(t *testing.T) {
	dir := t.TempDir()
	backup := filepath.Join(dir, "backup")
	path := writeFile(t, dir, "on_sale_1700000100.json")

	require.NoError(t, MoveToBackup(path, backup, "steam"))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(backup, "steam", "on_sale_1700000100.json"))
	assert.NoError(t, err)
}

func TestRowFromFields(t *testing.T) {
	gameID := uuid.New()
	packageID := int64(79)

	fields := &models.PriceFields{
		SteamAppID:      "400",
		OriginalName:    "Portal",
		OriginalPrice:   9.99,
		DiscountPrice:   4.99,
		DiscountPercent: 50,
		BestEver:        true,
		OS:              "windows,mac",
		PackageID:       &packageID,
	}

	row := rowFromFields(1700000100, "portal", gameID, fields)

	assert.Equal(t, gameID, row.GameID.UUID)
	assert.True(t, row.GameID.Valid)
	assert.Equal(t, int64(1700000100), row.TS)
	// the ledger name column carries the canonical name
	assert.Equal(t, "portal", row.Name)
	assert.Equal(t, 9.99, *row.Price)
	assert.Equal(t, 4.99, row.DiscountPrice)
	assert.Equal(t, int64(50), *row.DiscountPercent)
	assert.True(t, *row.BestEver)
	assert.Equal(t, "windows,mac", *row.OS)
	assert.Equal(t, int64(79), *row.PackageID)
	assert.Nil(t, row.BundleID)
	require.NotNil(t, row.AppID)
	assert.Equal(t, int64(400), *row.AppID)
}

func TestRowFromFieldsBadAppID(t *testing.T) {
	fields := &models.PriceFields{SteamAppID: "not-a-number"}

	row := rowFromFields(0, "x", uuid.New(), fields)
	assert.Nil(t, row.AppID)
}
