package ledger

import (
	"context"
	"database/sql"
	"errors"
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

// Repository manages the per-store append-only price ledgers.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// LatestGameID returns the game id of the most recent ledger row for the
// given name in the store's ledger. For steam the package and bundle ids are
// part of the key, so two purchase options of the same game resolve
// independently. Returns an invalid NullUUID when no prior row exists.
func (r *Repository) LatestGameID(ctx context.Context, store stores.Store, name string, packageID, bundleID *int64) (uuid.NullUUID, error) {
	ctx, span := tracing.StartSpan(ctx, "ledger.Repository.LatestGameID")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return uuid.NullUUID{}, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("game_id")
	sb.From(store.Table())
	sb.Where(sb.Equal("name", name))
	if store == stores.Steam {
		sb.Where(
			"packageid IS NOT DISTINCT FROM "+sb.Var(packageID),
			"bundleid IS NOT DISTINCT FROM "+sb.Var(bundleID),
		)
	}
	sb.OrderBy("ts").Desc()
	sb.Limit(1)

	query, args := sb.Build()

	var gameID uuid.NullUUID
	if err := tx.GetContext(ctx, &gameID, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.NullUUID{}, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"store": store,
			"name":  name,
		}).Error("Failed to query latest ledger row")
		return uuid.NullUUID{}, httperror.NewHTTPError(http.StatusInternalServerError, "failed to query ledger")
	}
	return gameID, nil
}

// InsertBatch appends rows to the store's ledger. Rows are written in batches
// and join the ambient transaction when the context carries one.
func (r *Repository) InsertBatch(ctx context.Context, store stores.Store, rows []*models.PriceRow) error {
	ctx, span := tracing.StartSpan(ctx, "ledger.Repository.InsertBatch")
	defer span.End()

	if len(rows) == 0 {
		return nil
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}

	cols := storeColumns(store)

	const batchSize = 500
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}

		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto(store.Table())
		sb.Cols(cols...)
		for _, row := range rows[i:end] {
			sb.Values(storeValues(store, row)...)
		}

		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"store": store,
				"rows":  len(rows),
			}).Error("Failed to insert ledger rows")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert ledger rows")
		}
	}
	return nil
}

// History returns the ledger rows for one game in one store, newest first.
func (r *Repository) History(ctx context.Context, store stores.Store, gameID uuid.UUID, limit int) ([]*models.PriceRow, error) {
	ctx, span := tracing.StartSpan(ctx, "ledger.Repository.History")
	defer span.End()

	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(append([]string{"id", "game_id"}, storeColumns(store)[1:]...)...)
	sb.From(store.Table())
	sb.Where(sb.Equal("game_id", gameID))
	sb.OrderBy("ts").Desc()
	sb.Limit(limit)

	query, args := sb.Build()

	var out []*models.PriceRow
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"store":   store,
			"game_id": gameID,
		}).Error("Failed to query ledger history")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to query ledger history")
	}
	return out, nil
}

// storeColumns lists the insert columns for a store's ledger, matching its
// table definition. game_id is always first.
func storeColumns(store stores.Store) []string {
	switch store {
	case stores.Fanatical:
		return []string{"game_id", "ts", "name", "price", "discount_price", "discount_percent", "best_ever", "flash_sale", "os", "release_date", "available_from", "available_until"}
	case stores.Gamebillet:
		return []string{"game_id", "ts", "name", "discount_price", "discount_percent"}
	case stores.Gamesplanet:
		return []string{"game_id", "ts", "name", "price", "discount_price", "discount_percent"}
	case stores.Gmg:
		return []string{"game_id", "ts", "name", "appid", "price", "discount_price", "discount_percent", "is_dlc", "franchise", "publisher"}
	case stores.Gog:
		return []string{"game_id", "ts", "name", "price", "discount_price", "discount_percent", "release_date", "developer", "publisher", "product_type"}
	case stores.Indiegala:
		return []string{"game_id", "ts", "name", "price", "discount_price", "available_from", "available_until", "os", "release_date", "publisher"}
	case stores.Steam:
		return []string{"game_id", "ts", "name", "packageid", "bundleid", "price", "discount_price", "discount_percent", "available_until"}
	case stores.Wgs:
		return []string{"game_id", "ts", "name", "discount_price", "discount_percent", "is_dlc", "publisher"}
	}
	return nil
}

func storeValues(store stores.Store, row *models.PriceRow) []any {
	switch store {
	case stores.Fanatical:
		return []any{row.GameID, row.TS, row.Name, row.Price, row.DiscountPrice, row.DiscountPercent, row.BestEver, row.FlashSale, row.OS, row.ReleaseDate, row.AvailableFrom, row.AvailableUntil}
	case stores.Gamebillet:
		return []any{row.GameID, row.TS, row.Name, row.DiscountPrice, row.DiscountPercent}
	case stores.Gamesplanet:
		return []any{row.GameID, row.TS, row.Name, row.Price, row.DiscountPrice, row.DiscountPercent}
	case stores.Gmg:
		return []any{row.GameID, row.TS, row.Name, row.AppID, row.Price, row.DiscountPrice, row.DiscountPercent, row.IsDLC, row.Franchise, row.Publisher}
	case stores.Gog:
		return []any{row.GameID, row.TS, row.Name, row.Price, row.DiscountPrice, row.DiscountPercent, row.ReleaseDate, row.Developer, row.Publisher, row.ProductType}
	case stores.Indiegala:
		return []any{row.GameID, row.TS, row.Name, row.Price, row.DiscountPrice, row.AvailableFrom, row.AvailableUntil, row.OS, row.ReleaseDate, row.Publisher}
	case stores.Steam:
		return []any{row.GameID, row.TS, row.Name, row.PackageID, row.BundleID, row.Price, row.DiscountPrice, row.DiscountPercent, row.AvailableUntil}
	case stores.Wgs:
		return []any{row.GameID, row.TS, row.Name, row.DiscountPrice, row.DiscountPercent, row.IsDLC, row.Publisher}
	}
	return nil
}
