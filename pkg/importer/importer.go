// Package importer drives the snapshot import pipeline: parse one file,
// resolve every observation to a canonical game, append ledger rows in a
// single transaction, and relocate the file to backup once it commits.
package importer

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/internal/repositories/ledger"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/stores"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/google/uuid"
)

type Importer struct {
	db        database.DB
	resolver  *Resolver
	ledgers   *ledger.Repository
	emitter   *events.Emitter
	logger    ectologger.Logger
	inputDir  string
	backupDir string
}

func NewImporter(db database.DB, resolver *Resolver, ledgers *ledger.Repository, emitter *events.Emitter, logger ectologger.Logger, inputDir, backupDir string) *Importer {
	return &Importer{
		db:        db,
		resolver:  resolver,
		ledgers:   ledgers,
		emitter:   emitter,
		logger:    logger,
		inputDir:  inputDir,
		backupDir: backupDir,
	}
}

// ImportAll runs the price import for every store in order. A failed file or
// store is logged and skipped; the rest of the run continues.
func (i *Importer) ImportAll(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "importer.Importer.ImportAll")
	defer span.End()

	for _, store := range stores.All {
		if err := i.ImportStore(ctx, store); err != nil {
			i.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"store": store,
			}).Error("Store import failed, continuing with next store")
		}
	}
	return nil
}

// ImportStore imports every pending snapshot file for one store, oldest
// first. Each file either commits fully and moves to backup, or stays in the
// input directory for the next run.
func (i *Importer) ImportStore(ctx context.Context, store stores.Store) error {
	ctx, span := tracing.StartSpan(ctx, "importer.Importer.ImportStore")
	defer span.End()

	dir := filepath.Join(i.inputDir, store.Dir())
	files, err := AllFiles(dir, SnapshotPrefix)
	if err != nil {
		return err
	}

	for _, file := range files {
		log := i.logger.WithContext(ctx).WithFields(map[string]any{
			"store": store,
			"file":  filepath.Base(file),
		})

		rows, err := i.ImportFile(ctx, store, file)
		if err != nil {
			log.WithError(err).Error("File import failed, leaving file in place")
			continue
		}

		if err := MoveToBackup(file, i.backupDir, store.Dir()); err != nil {
			log.WithError(err).Error("Failed to move imported file to backup")
			return err
		}
		log.WithFields(map[string]any{"rows": rows}).Info("Imported snapshot file")
	}
	return nil
}

// ImportFile parses one snapshot file and appends its observations to the
// store's ledger inside a single transaction. Returns the number of rows
// written. Collisions drop only the affected row; every other error aborts
// the whole file.
func (i *Importer) ImportFile(ctx context.Context, store stores.Store, path string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "importer.Importer.ImportFile")
	defer span.End()

	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, &models.StorageError{Op: "read snapshot", Err: err}
	}
	ts, err := FileTS(path)
	if err != nil {
		return 0, &models.StorageError{Op: "stat snapshot", Err: err}
	}

	data, err := store.ParsePrices(raw)
	if err != nil {
		return 0, &models.ParseError{File: path, Err: err}
	}

	txCtx, tx, err := i.db.GetTx(ctx, nil)
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	cnames := make([]string, 0, len(data))
	for cname := range data {
		cnames = append(cnames, cname)
	}
	sort.Strings(cnames)

	rows := make([]*models.PriceRow, 0, len(data))
	for _, cname := range cnames {
		fields := data[cname]

		gameID, err := i.resolver.Resolve(txCtx, store, fields.OriginalName, cname, fields.PackageID, fields.BundleID)
		if err != nil {
			var collision *models.CollisionError
			if errors.As(err, &collision) {
				i.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"store": store,
					"cname": cname,
				}).Error("Canonical name collision, dropping row")
				i.emitter.EmitCollision(ctx, string(store), fields.OriginalName, cname)
				continue
			}
			return 0, err
		}

		rows = append(rows, rowFromFields(ts, cname, gameID, fields))
	}

	if err := i.ledgers.InsertBatch(txCtx, store, rows); err != nil {
		return 0, err
	}
	if err := tx.Commit(txCtx); err != nil {
		return 0, &models.StorageError{Op: "commit snapshot import", Err: err}
	}

	i.emitter.EmitFileImported(ctx, string(store), filepath.Base(path), fingerprint.Bytes(raw), len(rows))
	return len(rows), nil
}

// rowFromFields maps the parsed price fields onto a ledger row. The ledger
// name column carries the canonical name; the display name lives on the
// games table.
func rowFromFields(ts int64, cname string, gameID uuid.UUID, f *models.PriceFields) *models.PriceRow {
	row := &models.PriceRow{
		GameID:          uuid.NullUUID{UUID: gameID, Valid: true},
		TS:              ts,
		Name:            cname,
		PackageID:       f.PackageID,
		BundleID:        f.BundleID,
		Price:           &f.OriginalPrice,
		DiscountPrice:   f.DiscountPrice,
		DiscountPercent: &f.DiscountPercent,
		BestEver:        &f.BestEver,
		FlashSale:       &f.FlashSale,
		OS:              &f.OS,
		ReleaseDate:     &f.ReleaseDate,
		AvailableFrom:   &f.ValidFrom,
		AvailableUntil:  &f.ValidUntil,
		IsDLC:           &f.IsDLC,
		Developer:       &f.Developer,
		Franchise:       &f.Franchise,
		Publisher:       &f.Publisher,
		ProductType:     &f.ProductType,
	}
	if f.SteamAppID != "" {
		if appID, err := strconv.ParseInt(f.SteamAppID, 10, 64); err == nil {
			row.AppID = &appID
		}
	}
	return row
}
