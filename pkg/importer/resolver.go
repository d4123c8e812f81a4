package importer

import (
	"context"

	"github.com/Ramsey-B/clover/internal/repositories/game"
	"github.com/Ramsey-B/clover/internal/repositories/ledger"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/stores"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
)

// Resolver maps a canonical name to exactly one game id.
//
// The ledger fast path is tried first: if the store already recorded a row
// for this key, the prior game id is reused without touching the games
// table. Otherwise the games table is consulted by canonical name: zero
// matches creates the game, one match reuses it, and two or more is a
// CollisionError the caller must not write through.
type Resolver struct {
	games   *game.Repository
	ledgers *ledger.Repository
	emitter *events.Emitter
	logger  ectologger.Logger
}

func NewResolver(games *game.Repository, ledgers *ledger.Repository, emitter *events.Emitter, logger ectologger.Logger) *Resolver {
	return &Resolver{games: games, ledgers: ledgers, emitter: emitter, logger: logger}
}

// Resolve returns the game id for one (store, cname) observation. For steam
// the package and bundle ids extend the ledger key.
func (r *Resolver) Resolve(ctx context.Context, store stores.Store, name, cname string, packageID, bundleID *int64) (uuid.UUID, error) {
	ctx, span := tracing.StartSpan(ctx, "importer.Resolver.Resolve")
	defer span.End()

	prior, err := r.ledgers.LatestGameID(ctx, store, cname, packageID, bundleID)
	if err != nil {
		return uuid.Nil, err
	}
	if prior.Valid {
		return prior.UUID, nil
	}

	refs, err := r.games.GetByCName(ctx, cname)
	if err != nil {
		return uuid.Nil, err
	}

	switch len(refs) {
	case 0:
		id, err := r.games.Create(ctx, name, cname)
		if err != nil {
			return uuid.Nil, err
		}
		r.emitter.EmitGameCreated(ctx, string(store), id, name, cname)
		return id, nil
	case 1:
		return refs[0].ID, nil
	default:
		return uuid.Nil, &models.CollisionError{Store: string(store), Name: name, CName: cname}
	}
}
