// Package search rebuilds the denormalized prices view and seeds the
// vocabulary tables it resolves facet names against.
package search

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/internal/repositories/game"
	"github.com/Ramsey-B/clover/internal/repositories/refdata"
	"github.com/Ramsey-B/clover/internal/repositories/search"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/stores"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Category types in the vocabulary feed.
const (
	categoryTypePlayer     = 1
	categoryTypeFeatures   = 2
	categoryTypeController = 3
)

// Facet placeholders: a game with an empty id set shows "None", an id the
// vocabulary does not know shows "Unknown".
const (
	facetNone    = "None"
	facetUnknown = "Unknown"
)

type Service struct {
	db                 database.DB
	searchRepo         *search.Repository
	refdataRepo        *refdata.Repository
	gameRepo           *game.Repository
	emitter            *events.Emitter
	logger             ectologger.Logger
	tagsFeedPath       string
	categoriesFeedPath string
}

func NewService(db database.DB, searchRepo *search.Repository, refdataRepo *refdata.Repository, gameRepo *game.Repository, emitter *events.Emitter, logger ectologger.Logger, tagsFeedPath, categoriesFeedPath string) *Service {
	return &Service{
		db:                 db,
		searchRepo:         searchRepo,
		refdataRepo:        refdataRepo,
		gameRepo:           gameRepo,
		emitter:            emitter,
		logger:             logger,
		tagsFeedPath:       tagsFeedPath,
		categoriesFeedPath: categoriesFeedPath,
	}
}

// InitRefData seeds the drm vocabulary and loads the tag and category feeds.
func (s *Service) InitRefData(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "search.Service.InitRefData")
	defer span.End()

	if err := s.refdataRepo.SeedDRM(ctx); err != nil {
		return err
	}

	tagsRaw, err := os.ReadFile(s.tagsFeedPath)
	if err != nil {
		return &models.StorageError{Op: "read tags feed", Err: err}
	}
	var tagsFeed models.TagsFeed
	if err := json.Unmarshal(tagsRaw, &tagsFeed); err != nil {
		return &models.ParseError{File: s.tagsFeedPath, Err: err}
	}
	if err := s.refdataRepo.ReplaceTags(ctx, tagsFeed.Response.Tags); err != nil {
		return err
	}

	categoriesRaw, err := os.ReadFile(s.categoriesFeedPath)
	if err != nil {
		return &models.StorageError{Op: "read categories feed", Err: err}
	}
	var categories []models.Category
	if err := json.Unmarshal(categoriesRaw, &categories); err != nil {
		return &models.ParseError{File: s.categoriesFeedPath, Err: err}
	}
	if err := s.refdataRepo.ReplaceCategories(ctx, categories); err != nil {
		return err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"tags":       len(tagsFeed.Response.Tags),
		"categories": len(categories),
	}).Info("Initialized reference data")
	return nil
}

// Rebuild regenerates the search table: the newest ledger row per name from
// every store, then the resolved facet strings per game. The whole rebuild
// is one transaction so readers never see a half-built view.
func (s *Service) Rebuild(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "search.Service.Rebuild")
	defer span.End()

	tags, err := s.refdataRepo.GetTags(ctx)
	if err != nil {
		return err
	}
	categories, err := s.refdataRepo.GetCategories(ctx)
	if err != nil {
		return err
	}

	tagNames := make(map[int64]string, len(tags))
	for _, tag := range tags {
		tagNames[tag.TagID] = tag.Name
	}
	categoryNames := make(map[int64]map[int64]string)
	for _, category := range categories {
		if categoryNames[category.CategoryType] == nil {
			categoryNames[category.CategoryType] = make(map[int64]string)
		}
		categoryNames[category.CategoryType][category.CategoryID] = category.DisplayName
	}

	games, err := s.gameRepo.ListWithFacets(ctx)
	if err != nil {
		return err
	}

	txCtx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	if err := s.searchRepo.Truncate(txCtx); err != nil {
		return err
	}
	for _, store := range stores.All {
		if err := s.searchRepo.InsertLatestFromLedger(txCtx, store); err != nil {
			return err
		}
	}

	for _, g := range games {
		err := s.searchRepo.UpdateGameFacets(txCtx, g.ID,
			facetString(g.Tags, tagNames),
			facetString(g.CategoriesPlayer, categoryNames[categoryTypePlayer]),
			facetString(g.CategoriesController, categoryNames[categoryTypeController]),
			facetString(g.CategoriesFeatures, categoryNames[categoryTypeFeatures]),
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return &models.StorageError{Op: "commit search rebuild", Err: err}
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"games": len(games),
	}).Info("Rebuilt search table")
	s.emitter.EmitSearchRebuilt(ctx, len(games))
	return nil
}

// facetString resolves a set of facet ids against a vocabulary.
func facetString(ids []int64, names map[int64]string) string {
	if len(ids) == 0 {
		return facetNone
	}
	resolved := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			resolved = append(resolved, name)
		} else {
			resolved = append(resolved, facetUnknown)
		}
	}
	return strings.Join(resolved, ", ")
}
