package search

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/stores"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
)

// Repository manages the denormalized prices search table.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// Truncate clears the search table ahead of a rebuild.
func (r *Repository) Truncate(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "search.Repository.Truncate")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}

	if _, err := tx.ExecContext(ctx, "TRUNCATE prices"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to truncate search table")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to truncate search table")
	}
	return nil
}

// InsertLatestFromLedger copies the newest ledger row per name from one
// store's ledger into the search table. Stores without a list price or a
// discount percent contribute NULL for those columns.
func (r *Repository) InsertLatestFromLedger(ctx context.Context, store stores.Store) error {
	ctx, span := tracing.StartSpan(ctx, "search.Repository.InsertLatestFromLedger")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}

	priceExpr := "price"
	switch store {
	case stores.Gamebillet, stores.Wgs:
		priceExpr = "NULL"
	}
	percentExpr := "discount_percent"
	if store == stores.Indiegala {
		percentExpr = "NULL"
	}

	query := fmt.Sprintf(`INSERT INTO prices (game_id, name, store, ts, price, discount_price, discount_percent)
SELECT DISTINCT ON (name) game_id, name, $1, ts, %s, discount_price, %s
FROM %s
ORDER BY name, ts DESC`, priceExpr, percentExpr, store.Table())

	if _, err := tx.ExecContext(ctx, query, string(store)); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"store": store,
		}).Error("Failed to insert latest ledger rows into search table")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to populate search table")
	}
	return nil
}

// UpdateGameFacets writes the resolved tag and category display strings onto
// every search row of one game.
func (r *Repository) UpdateGameFacets(ctx context.Context, gameID uuid.UUID, tags, player, controller, features string) error {
	ctx, span := tracing.StartSpan(ctx, "search.Repository.UpdateGameFacets")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("prices")
	sb.Set(
		sb.Assign("tags", tags),
		sb.Assign("categories_player", player),
		sb.Assign("categories_controller", controller),
		sb.Assign("categories_features", features),
		"updated_at = now()",
	)
	sb.Where(sb.Equal("game_id", gameID))

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"game_id": gameID,
		}).Error("Failed to update search facets")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update search facets")
	}
	return nil
}

// SearchParams narrows a search table query.
type SearchParams struct {
	Name        string   `query:"name"`
	Store       string   `query:"store"`
	MaxPrice    *float64 `query:"max_price"`
	MinDiscount *int64   `query:"min_discount"`
	Limit       int      `query:"limit"`
	Offset      int      `query:"offset"`
}

// Search queries the denormalized view. The name filter matches canonical
// names by prefix.
func (r *Repository) Search(ctx context.Context, params SearchParams) ([]*models.SearchRow, error) {
	ctx, span := tracing.StartSpan(ctx, "search.Repository.Search")
	defer span.End()

	if params.Limit <= 0 || params.Limit > 200 {
		params.Limit = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("game_id", "name", "store", "ts", "price", "discount_price", "discount_percent",
		"tags", "categories_player", "categories_controller", "categories_features", "updated_at")
	sb.From("prices")
	if params.Name != "" {
		sb.Where(sb.Like("name", params.Name+"%"))
	}
	if params.Store != "" {
		sb.Where(sb.Equal("store", params.Store))
	}
	if params.MaxPrice != nil {
		sb.Where(sb.LessEqualThan("discount_price", *params.MaxPrice))
	}
	if params.MinDiscount != nil {
		sb.Where(sb.GreaterEqualThan("discount_percent", *params.MinDiscount))
	}
	sb.OrderBy("name").Asc()
	sb.Limit(params.Limit).Offset(params.Offset)

	query, args := sb.Build()

	var rows []*models.SearchRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"name":  params.Name,
			"store": params.Store,
		}).Error("Failed to search prices")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to search prices")
	}
	return rows, nil
}

// ListAll pages through the whole view in name order.
func (r *Repository) ListAll(ctx context.Context, limit, offset int) ([]*models.SearchRow, error) {
	ctx, span := tracing.StartSpan(ctx, "search.Repository.ListAll")
	defer span.End()

	if limit <= 0 {
		limit = 1000
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("game_id", "name", "store", "ts", "price", "discount_price", "discount_percent",
		"tags", "categories_player", "categories_controller", "categories_features", "updated_at")
	sb.From("prices")
	sb.OrderBy("name", "store").Asc()
	sb.Limit(limit).Offset(offset)

	query, args := sb.Build()

	var rows []*models.SearchRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list prices")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list prices")
	}
	return rows, nil
}

// PricesForGame returns every store's current row for one game.
func (r *Repository) PricesForGame(ctx context.Context, gameID uuid.UUID) ([]*models.SearchRow, error) {
	ctx, span := tracing.StartSpan(ctx, "search.Repository.PricesForGame")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("game_id", "name", "store", "ts", "price", "discount_price", "discount_percent",
		"tags", "categories_player", "categories_controller", "categories_features", "updated_at")
	sb.From("prices")
	sb.Where(sb.Equal("game_id", gameID))
	sb.OrderBy("store").Asc()

	query, args := sb.Build()

	var rows []*models.SearchRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"game_id": gameID,
		}).Error("Failed to query game prices")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to query game prices")
	}
	return rows, nil
}
