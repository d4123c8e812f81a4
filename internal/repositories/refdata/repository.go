package refdata

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

// Repository manages the drm, tags and categories vocabulary tables.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// SeedDRM inserts the fixed drm vocabulary. Existing rows are cleared first
// so the ids stay stable across re-runs.
func (r *Repository) SeedDRM(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "refdata.Repository.SeedDRM")
	defer span.End()

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.ExecContext(txCtx, "TRUNCATE drm RESTART IDENTITY"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to truncate drm")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to truncate drm")
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("drm")
	sb.Cols("name")
	sb.Values("steam")
	sb.Values("gog")
	sb.Values("unknown")

	query, args := sb.Build()
	if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to seed drm")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to seed drm")
	}

	if err := tx.Commit(txCtx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}
	return nil
}

// ReplaceTags replaces the tag vocabulary with the given feed entries.
func (r *Repository) ReplaceTags(ctx context.Context, tags []models.Tag) error {
	ctx, span := tracing.StartSpan(ctx, "refdata.Repository.ReplaceTags")
	defer span.End()

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.ExecContext(txCtx, "TRUNCATE tags RESTART IDENTITY"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to truncate tags")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to truncate tags")
	}

	if len(tags) > 0 {
		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("tags")
		sb.Cols("tagid", "name")
		for _, tag := range tags {
			sb.Values(tag.TagID, tag.Name)
		}

		query, args := sb.Build()
		if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"tags": len(tags),
			}).Error("Failed to insert tags")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert tags")
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}
	return nil
}

// ReplaceCategories replaces the category vocabulary with the given feed
// entries.
func (r *Repository) ReplaceCategories(ctx context.Context, categories []models.Category) error {
	ctx, span := tracing.StartSpan(ctx, "refdata.Repository.ReplaceCategories")
	defer span.End()

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.ExecContext(txCtx, "TRUNCATE categories RESTART IDENTITY"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to truncate categories")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to truncate categories")
	}

	if len(categories) > 0 {
		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("categories")
		sb.Cols("catid", "catcat", "name")
		for _, category := range categories {
			sb.Values(category.CategoryID, category.CategoryType, category.DisplayName)
		}

		query, args := sb.Build()
		if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"categories": len(categories),
			}).Error("Failed to insert categories")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert categories")
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit")
	}
	return nil
}

// GetTags returns the full tag vocabulary.
func (r *Repository) GetTags(ctx context.Context) ([]models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "refdata.Repository.GetTags")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("tagid", "name")
	sb.From("tags")

	query, args := sb.Build()

	var tags []models.Tag
	if err := r.db.SelectContext(ctx, &tags, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to query tags")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to query tags")
	}
	return tags, nil
}

// GetCategories returns the full category vocabulary.
func (r *Repository) GetCategories(ctx context.Context) ([]models.Category, error) {
	ctx, span := tracing.StartSpan(ctx, "refdata.Repository.GetCategories")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("catid", "catcat", "name")
	sb.From("categories")

	query, args := sb.Build()

	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to query categories")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to query categories")
	}
	return categories, nil
}
