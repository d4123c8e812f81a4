package game

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"
)

// Repository manages the canonical games table.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// GetByCName returns every game whose canonical name matches cname.
func (r *Repository) GetByCName(ctx context.Context, cname string) ([]models.GameRef, error) {
	ctx, span := tracing.StartSpan(ctx, "game.Repository.GetByCName")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "cname")
	sb.From("games")
	sb.Where(sb.Equal("cname", cname))

	query, args := sb.Build()

	var refs []models.GameRef
	if err := tx.SelectContext(ctx, &refs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"cname": cname,
		}).Error("Failed to query games by cname")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to query games")
	}
	return refs, nil
}

// GetByID returns a single game with full metadata.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	ctx, span := tracing.StartSpan(ctx, "game.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("*")
	sb.From("games")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var game models.Game
	if err := r.db.GetContext(ctx, &game, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "game not found")
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"game_id": id,
		}).Error("Failed to get game")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get game")
	}
	return &game, nil
}

// Create inserts a new game row and returns its id.
func (r *Repository) Create(ctx context.Context, name, cname string) (uuid.UUID, error) {
	ctx, span := tracing.StartSpan(ctx, "game.Repository.Create")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return uuid.Nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("games")
	sb.Cols("name", "cname")
	sb.Values(name, cname)
	sb.SQL("RETURNING id")

	query, args := sb.Build()

	var id uuid.UUID
	if err := tx.GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"name":  name,
			"cname": cname,
		}).Error("Failed to create game")
		return uuid.Nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create game")
	}
	return id, nil
}

// UpsertName inserts a (name, cname) pair, ignoring duplicates. The appid is
// only written on insert; existing rows keep whatever they already have.
func (r *Repository) UpsertName(ctx context.Context, name, cname string, appID *int64) error {
	ctx, span := tracing.StartSpan(ctx, "game.Repository.UpsertName")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("games")
	sb.Cols("name", "cname", "appid")
	sb.Values(name, cname, appID)
	sb.SQL("ON CONFLICT (name, cname) DO NOTHING")

	query, args := sb.Build()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"name":  name,
			"cname": cname,
		}).Error("Failed to upsert game name")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert game name")
	}
	return nil
}

// UpdateAppInfo overwrites the metadata columns for every game carrying the
// update's appid. Zero values in the update still overwrite.
func (r *Repository) UpdateAppInfo(ctx context.Context, info *models.AppInfoUpdate) error {
	ctx, span := tracing.StartSpan(ctx, "game.Repository.UpdateAppInfo")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("games")
	sb.Set(
		sb.Assign("is_dlc", info.IsDLC),
		sb.Assign("tags", pq.Int64Array(info.Tags)),
		sb.Assign("categories_player", pq.Int64Array(info.CategoriesPlayer)),
		sb.Assign("categories_controller", pq.Int64Array(info.CategoriesController)),
		sb.Assign("categories_features", pq.Int64Array(info.CategoriesFeatures)),
		sb.Assign("review_count", info.ReviewCount),
		sb.Assign("review_pct_positive", info.ReviewPctPositive),
		sb.Assign("short_desc", info.ShortDesc),
		sb.Assign("developers", info.Developers),
		sb.Assign("publishers", info.Publishers),
		sb.Assign("franchises", info.Franchises),
		sb.Assign("release_date", info.ReleaseDate),
		sb.Assign("windows", info.Windows),
		sb.Assign("mac", info.Mac),
		sb.Assign("linux", info.Linux),
		sb.Assign("steam_deck_compat", info.SteamDeckCompat),
		"updated_at = now()",
	)
	sb.Where(sb.Equal("appid", info.AppID))

	query, args := sb.Build()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"appid": info.AppID,
		}).Error("Failed to update app info")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update app info")
	}
	return nil
}

// List returns games ordered by name, paginated.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*models.Game, error) {
	ctx, span := tracing.StartSpan(ctx, "game.Repository.List")
	defer span.End()

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("*")
	sb.From("games")
	sb.OrderBy("name").Asc()
	sb.Limit(limit).Offset(offset)

	query, args := sb.Build()

	var games []*models.Game
	if err := r.db.SelectContext(ctx, &games, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list games")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list games")
	}
	return games, nil
}

// ListWithFacets returns the id and facet id arrays of every game the
// metadata feed has touched, for the search view rebuild.
func (r *Repository) ListWithFacets(ctx context.Context) ([]*models.Game, error) {
	ctx, span := tracing.StartSpan(ctx, "game.Repository.ListWithFacets")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tags", "categories_player", "categories_controller", "categories_features")
	sb.From("games")
	sb.Where(sb.IsNotNull("tags"))

	query, args := sb.Build()

	var games []*models.Game
	if err := r.db.SelectContext(ctx, &games, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list games with facets")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list games with facets")
	}
	return games, nil
}

// ListUpdatedSince returns games whose metadata changed after the given unix
// timestamp, used by the graph mirror to sync incrementally.
func (r *Repository) ListUpdatedSince(ctx context.Context, since int64, limit int) ([]*models.Game, error) {
	ctx, span := tracing.StartSpan(ctx, "game.Repository.ListUpdatedSince")
	defer span.End()

	if limit <= 0 {
		limit = 500
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("*")
	sb.From("games")
	sb.Where("updated_at > to_timestamp(" + sb.Var(since) + ")")
	sb.OrderBy("updated_at").Asc()
	sb.Limit(limit)

	query, args := sb.Build()

	var games []*models.Game
	if err := r.db.SelectContext(ctx, &games, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list updated games")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list updated games")
	}
	return games, nil
}
