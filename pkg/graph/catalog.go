package graph

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// CatalogService mirrors the canonical catalog into the graph: Game nodes,
// Store nodes, and LISTED_ON edges carrying the current price per store.
type CatalogService struct {
	client    *Client
	logger    ectologger.Logger
	batchSize int
}

func NewCatalogService(client *Client, logger ectologger.Logger, batchSize int) *CatalogService {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &CatalogService{
		client:    client,
		logger:    logger,
		batchSize: batchSize,
	}
}

// SyncGames upserts Game nodes in batches via UNWIND.
func (s *CatalogService) SyncGames(ctx context.Context, games []*models.Game) error {
	ctx, span := tracing.StartSpan(ctx, "graph.CatalogService.SyncGames")
	defer span.End()

	const cypher = `
		UNWIND $games AS game
		MERGE (g:Game {id: game.id})
		SET g.name = game.name,
		    g.cname = game.cname,
		    g.appid = game.appid,
		    g.is_dlc = game.is_dlc,
		    g.developers = game.developers,
		    g.publishers = game.publishers,
		    g.franchises = game.franchises`

	for i := 0; i < len(games); i += s.batchSize {
		end := i + s.batchSize
		if end > len(games) {
			end = len(games)
		}

		batch := make([]map[string]any, 0, end-i)
		for _, game := range games[i:end] {
			batch = append(batch, map[string]any{
				"id":         game.ID.String(),
				"name":       game.Name,
				"cname":      game.CName,
				"appid":      int64PtrValue(game.AppID),
				"is_dlc":     boolPtrValue(game.IsDLC),
				"developers": stringPtrValue(game.Developers),
				"publishers": stringPtrValue(game.Publishers),
				"franchises": stringPtrValue(game.Franchises),
			})
		}

		_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, cypher, map[string]any{"games": batch})
			return nil, err
		})
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"batch": len(batch),
			}).Error("Failed to sync game nodes")
			return err
		}
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"games": len(games),
	}).Info("Synced game nodes")
	return nil
}

// SyncPrices upserts LISTED_ON edges from the search view. Rows without a
// resolved game are skipped.
func (s *CatalogService) SyncPrices(ctx context.Context, rows []*models.SearchRow) error {
	ctx, span := tracing.StartSpan(ctx, "graph.CatalogService.SyncPrices")
	defer span.End()

	const cypher = `
		UNWIND $rows AS row
		MATCH (g:Game {id: row.game_id})
		MERGE (s:Store {name: row.store})
		MERGE (g)-[r:LISTED_ON]->(s)
		SET r.price = row.price,
		    r.discount_price = row.discount_price,
		    r.discount_percent = row.discount_percent,
		    r.ts = row.ts`

	synced := 0
	for i := 0; i < len(rows); i += s.batchSize {
		end := i + s.batchSize
		if end > len(rows) {
			end = len(rows)
		}

		batch := make([]map[string]any, 0, end-i)
		for _, row := range rows[i:end] {
			if !row.GameID.Valid {
				continue
			}
			batch = append(batch, map[string]any{
				"game_id":          row.GameID.UUID.String(),
				"store":            row.Store,
				"price":            float64PtrValue(row.Price),
				"discount_price":   row.DiscountPrice,
				"discount_percent": int64PtrValue(row.DiscountPercent),
				"ts":               row.TS,
			})
		}
		if len(batch) == 0 {
			continue
		}

		_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, cypher, map[string]any{"rows": batch})
			return nil, err
		})
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"batch": len(batch),
			}).Error("Failed to sync price edges")
			return err
		}
		synced += len(batch)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"edges": synced,
	}).Info("Synced price edges")
	return nil
}

// BundleRef is one bundle with the canonical names of its contents, shaped
// for graph sync regardless of which store the bundle came from.
type BundleRef struct {
	Key           string
	Store         string
	Name          string
	TS            int64
	DiscountPrice float64
	ProductCNames []string
}

// SyncBundles upserts Bundle nodes and CONTAINS edges. Contents are matched
// to Game nodes by canonical name; names with no catalog entry produce no
// edge.
func (s *CatalogService) SyncBundles(ctx context.Context, bundles []BundleRef) error {
	ctx, span := tracing.StartSpan(ctx, "graph.CatalogService.SyncBundles")
	defer span.End()

	const cypher = `
		UNWIND $bundles AS bundle
		MERGE (b:Bundle {key: bundle.key})
		SET b.store = bundle.store,
		    b.name = bundle.name,
		    b.ts = bundle.ts,
		    b.discount_price = bundle.discount_price
		WITH b, bundle
		UNWIND bundle.products AS cname
		MATCH (g:Game {cname: cname})
		MERGE (b)-[:CONTAINS]->(g)`

	for i := 0; i < len(bundles); i += s.batchSize {
		end := i + s.batchSize
		if end > len(bundles) {
			end = len(bundles)
		}

		batch := make([]map[string]any, 0, end-i)
		for _, bundle := range bundles[i:end] {
			products := make([]any, 0, len(bundle.ProductCNames))
			for _, cname := range bundle.ProductCNames {
				products = append(products, cname)
			}
			batch = append(batch, map[string]any{
				"key":            bundle.Key,
				"store":          bundle.Store,
				"name":           bundle.Name,
				"ts":             bundle.TS,
				"discount_price": bundle.DiscountPrice,
				"products":       products,
			})
		}

		_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, cypher, map[string]any{"bundles": batch})
			return nil, err
		})
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"batch": len(batch),
			}).Error("Failed to sync bundle nodes")
			return err
		}
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"bundles": len(bundles),
	}).Info("Synced bundle nodes")
	return nil
}

// StoresForGame returns the stores a game is currently listed on with the
// edge properties, cheapest first.
func (s *CatalogService) StoresForGame(ctx context.Context, gameID string) ([]map[string]any, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.CatalogService.StoresForGame")
	defer span.End()

	const cypher = `
		MATCH (g:Game {id: $id})-[r:LISTED_ON]->(s:Store)
		RETURN s.name AS store, r.price AS price, r.discount_price AS discount_price,
		       r.discount_percent AS discount_percent, r.ts AS ts
		ORDER BY r.discount_price ASC`

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"id": gameID})
		if err != nil {
			return nil, err
		}

		var listings []map[string]any
		for res.Next(ctx) {
			record := res.Record()
			listing := make(map[string]any, len(record.Keys))
			for _, key := range record.Keys {
				value, _ := record.Get(key)
				listing[key] = value
			}
			listings = append(listings, listing)
		}
		return listings, res.Err()
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"game_id": gameID,
		}).Error("Failed to query game listings")
		return nil, err
	}

	listings, _ := result.([]map[string]any)
	return listings, nil
}

func int64PtrValue(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolPtrValue(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringPtrValue(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func float64PtrValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
