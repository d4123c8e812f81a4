package bundle

import (
	"context"
	"net/http"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
)

// Repository manages the per-store bundle tables.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) InsertFanatical(ctx context.Context, rows []*models.FanaticalBundleRow) error {
	ctx, span := tracing.StartSpan(ctx, "bundle.Repository.InsertFanatical")
	defer span.End()

	if len(rows) == 0 {
		return nil
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("bundles_fanatical")
	sb.Cols("ts", "name", "bundle_type", "products", "tiers", "valid_from", "valid_until")
	for _, row := range rows {
		sb.Values(row.TS, row.Name, row.BundleType, row.Products, row.Tiers, row.ValidFrom, row.ValidUntil)
	}

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"rows": len(rows),
		}).Error("Failed to insert fanatical bundles")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert fanatical bundles")
	}
	return nil
}

func (r *Repository) InsertSteam(ctx context.Context, rows []*models.SteamBundleRow) error {
	ctx, span := tracing.StartSpan(ctx, "bundle.Repository.InsertSteam")
	defer span.End()

	if len(rows) == 0 {
		return nil
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("bundles_steam")
	sb.Cols("bundleid", "ts", "name", "type", "included_types", "included_appids", "included_items", "original_price", "discount_price")
	for _, row := range rows {
		sb.Values(row.BundleID, row.TS, row.Name, row.Type, row.IncludedTypes, row.IncludedAppIDs, row.IncludedItems, row.OriginalPrice, row.DiscountPrice)
	}

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"rows": len(rows),
		}).Error("Failed to insert steam bundles")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert steam bundles")
	}
	return nil
}

func (r *Repository) InsertIndiegala(ctx context.Context, rows []*models.IndiegalaBundleRow) error {
	ctx, span := tracing.StartSpan(ctx, "bundle.Repository.InsertIndiegala")
	defer span.End()

	if len(rows) == 0 {
		return nil
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("bundles_indiegala")
	sb.Cols("ts", "name", "price", "products", "valid_until")
	for _, row := range rows {
		sb.Values(row.TS, row.Name, row.Price, row.Products, row.ValidUntil)
	}

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"rows": len(rows),
		}).Error("Failed to insert indiegala bundles")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert indiegala bundles")
	}
	return nil
}

// ListFanatical returns the most recent fanatical bundle rows, newest first.
func (r *Repository) ListFanatical(ctx context.Context, limit int) ([]*models.FanaticalBundleRow, error) {
	ctx, span := tracing.StartSpan(ctx, "bundle.Repository.ListFanatical")
	defer span.End()

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("*")
	sb.From("bundles_fanatical")
	sb.OrderBy("ts").Desc()
	sb.Limit(limit)

	query, args := sb.Build()

	var rows []*models.FanaticalBundleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list fanatical bundles")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list fanatical bundles")
	}
	return rows, nil
}

func (r *Repository) ListSteam(ctx context.Context, limit int) ([]*models.SteamBundleRow, error) {
	ctx, span := tracing.StartSpan(ctx, "bundle.Repository.ListSteam")
	defer span.End()

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("*")
	sb.From("bundles_steam")
	sb.OrderBy("ts").Desc()
	sb.Limit(limit)

	query, args := sb.Build()

	var rows []*models.SteamBundleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list steam bundles")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list steam bundles")
	}
	return rows, nil
}

func (r *Repository) ListIndiegala(ctx context.Context, limit int) ([]*models.IndiegalaBundleRow, error) {
	ctx, span := tracing.StartSpan(ctx, "bundle.Repository.ListIndiegala")
	defer span.End()

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("*")
	sb.From("bundles_indiegala")
	sb.OrderBy("ts").Desc()
	sb.Limit(limit)

	query, args := sb.Build()

	var rows []*models.IndiegalaBundleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list indiegala bundles")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list indiegala bundles")
	}
	return rows, nil
}
