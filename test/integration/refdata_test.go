package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	refdatarepo "github.com/Ramsey-B/clover/internal/repositories/refdata"
	"github.com/Ramsey-B/clover/pkg/models"
)

func TestRefDataRoundTrip(t *testing.T) {
	sqlxDB, db := getTestDB(t)
	defer sqlxDB.Close()

	ctx := context.Background()
	logger := getTestLogger()
	repo := refdatarepo.NewRepository(db, logger)

	require.NoError(t, repo.SeedDRM(ctx))

	tags := []models.Tag{
		{TagID: 1664, Name: "Puzzle"},
		{TagID: 1697, Name: "First-Person"},
	}
	require.NoError(t, repo.ReplaceTags(ctx, tags))

	categories := []models.Category{
		{CategoryID: 2, CategoryType: 1, DisplayName: "Single-player"},
	}
	require.NoError(t, repo.ReplaceCategories(ctx, categories))

	gotTags, err := repo.GetTags(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, tags, gotTags)

	gotCategories, err := repo.GetCategories(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, categories, gotCategories)

	// re-running replaces rather than appends
	require.NoError(t, repo.ReplaceTags(ctx, tags[:1]))
	gotTags, err = repo.GetTags(ctx)
	require.NoError(t, err)
	assert.Len(t, gotTags, 1)
}

func TestRefDataReleasesTxOnFailure(t *testing.T) {
	sqlxDB, db := getTestDB(t)
	defer sqlxDB.Close()

	ctx := context.Background()
	logger := getTestLogger()
	repo := refdatarepo.NewRepository(db, logger)

	// one connection in the pool: a transaction left open on the error
	// path would wedge every later statement
	sqlxDB.SetMaxOpenConns(1)

	_, err := sqlxDB.ExecContext(ctx, "ALTER TABLE tags RENAME TO tags_moved")
	require.NoError(t, err)

	err = repo.ReplaceTags(ctx, []models.Tag{{TagID: 1, Name: "Broken"}})
	require.Error(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = sqlxDB.ExecContext(waitCtx, "ALTER TABLE tags_moved RENAME TO tags")
	require.NoError(t, err, "failed transaction still holds the connection")

	var n int
	require.NoError(t, sqlxDB.GetContext(ctx, &n, "SELECT count(*) FROM tags"))
}
