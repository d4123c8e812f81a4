package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/repositories/bundle"
	"github.com/Ramsey-B/clover/internal/repositories/game"
	"github.com/Ramsey-B/clover/internal/repositories/search"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/stores"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const syncPageSize = 1000

// Syncer mirrors the catalog into the graph database.
type Syncer struct {
	catalog *CatalogService
	games   *game.Repository
	prices  *search.Repository
	bundles *bundle.Repository
	logger  ectologger.Logger
}

func NewSyncer(catalog *CatalogService, games *game.Repository, prices *search.Repository, bundles *bundle.Repository, logger ectologger.Logger) *Syncer {
	return &Syncer{
		catalog: catalog,
		games:   games,
		prices:  prices,
		bundles: bundles,
		logger:  logger,
	}
}

// SyncAll pushes every game and every current price row into the graph.
func (s *Syncer) SyncAll(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Syncer.SyncAll")
	defer span.End()

	total := 0
	for offset := 0; ; offset += syncPageSize {
		games, err := s.games.List(ctx, syncPageSize, offset)
		if err != nil {
			return err
		}
		if len(games) == 0 {
			break
		}
		if err := s.catalog.SyncGames(ctx, games); err != nil {
			return err
		}
		total += len(games)
		if len(games) < syncPageSize {
			break
		}
	}
	s.logger.WithContext(ctx).WithField("games", total).Info("Synced games to graph")

	total = 0
	for offset := 0; ; offset += syncPageSize {
		rows, err := s.prices.ListAll(ctx, syncPageSize, offset)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			break
		}
		if err := s.catalog.SyncPrices(ctx, rows); err != nil {
			return err
		}
		total += len(rows)
		if len(rows) < syncPageSize {
			break
		}
	}
	s.logger.WithContext(ctx).WithField("prices", total).Info("Synced prices to graph")

	return s.syncBundles(ctx)
}

// syncBundles shapes the most recent bundle rows of every store into graph
// bundle refs, canonicalizing product names so CONTAINS edges land on Game
// nodes.
func (s *Syncer) syncBundles(ctx context.Context) error {
	var refs []BundleRef

	fanatical, err := s.bundles.ListFanatical(ctx, 200)
	if err != nil {
		return err
	}
	for _, row := range fanatical {
		ref := BundleRef{
			Key:   fmt.Sprintf("%s:%s:%d", stores.Fanatical, row.Name, row.TS),
			Store: string(stores.Fanatical),
			Name:  row.Name,
			TS:    row.TS,
		}
		for _, product := range row.Products.Data {
			ref.ProductCNames = append(ref.ProductCNames, normalizers.CanonicalName(product.Name))
		}
		refs = append(refs, ref)
	}

	steam, err := s.bundles.ListSteam(ctx, 200)
	if err != nil {
		return err
	}
	for _, row := range steam {
		ref := BundleRef{
			Key:           fmt.Sprintf("%s:%d", stores.Steam, row.BundleID),
			Store:         string(stores.Steam),
			Name:          row.Name,
			TS:            row.TS,
			DiscountPrice: row.DiscountPrice,
		}
		for _, item := range row.IncludedItems.Data {
			ref.ProductCNames = append(ref.ProductCNames, normalizers.CanonicalName(item.Name))
		}
		refs = append(refs, ref)
	}

	indiegala, err := s.bundles.ListIndiegala(ctx, 200)
	if err != nil {
		return err
	}
	for _, row := range indiegala {
		ref := BundleRef{
			Key:           fmt.Sprintf("%s:%s:%d", stores.Indiegala, row.Name, row.TS),
			Store:         string(stores.Indiegala),
			Name:          row.Name,
			TS:            row.TS,
			DiscountPrice: row.Price,
		}
		for _, product := range row.Products.Data {
			ref.ProductCNames = append(ref.ProductCNames, normalizers.CanonicalName(product.Name))
		}
		refs = append(refs, ref)
	}

	if len(refs) == 0 {
		return nil
	}
	return s.catalog.SyncBundles(ctx, refs)
}

// SyncSince pushes games updated after the given unix timestamp, then all
// current prices. Price rows carry no per-row cursor, so the price pass is
// always full.
func (s *Syncer) SyncSince(ctx context.Context, since int64) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Syncer.SyncSince")
	defer span.End()

	games, err := s.games.ListUpdatedSince(ctx, since, syncPageSize)
	if err != nil {
		return err
	}
	if len(games) > 0 {
		if err := s.catalog.SyncGames(ctx, games); err != nil {
			return err
		}
	}
	s.logger.WithContext(ctx).WithField("games", len(games)).Info("Synced updated games to graph")

	for offset := 0; ; offset += syncPageSize {
		rows, err := s.prices.ListAll(ctx, syncPageSize, offset)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			break
		}
		if err := s.catalog.SyncPrices(ctx, rows); err != nil {
			return err
		}
		if len(rows) < syncPageSize {
			break
		}
	}

	return nil
}
