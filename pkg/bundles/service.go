package bundles

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/internal/repositories/bundle"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/importer"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/stores"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Bundle snapshot prefixes. Raw steam bundle catalogs are parsed into priced
// pbundles artifacts before import.
const (
	BundlePrefix  = "bundles"
	PBundlePrefix = "pbundles"
)

type Service struct {
	db        database.DB
	bundles   *bundle.Repository
	logger    ectologger.Logger
	inputDir  string
	backupDir string
}

func NewService(db database.DB, bundles *bundle.Repository, logger ectologger.Logger, inputDir, backupDir string) *Service {
	return &Service{
		db:        db,
		bundles:   bundles,
		logger:    logger,
		inputDir:  inputDir,
		backupDir: backupDir,
	}
}

// ImportAll runs the bundle import: raw steam catalogs are priced into
// artifacts first, then each store's pending bundle files import one
// transaction per file.
func (s *Service) ImportAll(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "bundles.Service.ImportAll")
	defer span.End()

	if err := s.parseSteamCatalogs(ctx); err != nil {
		return err
	}

	passes := []struct {
		store  stores.Store
		prefix string
		run    func(context.Context, string, int64) (int, error)
	}{
		{stores.Fanatical, BundlePrefix, s.importFanaticalFile},
		{stores.Steam, PBundlePrefix, s.importSteamFile},
		{stores.Indiegala, BundlePrefix, s.importIndiegalaFile},
	}

	for _, pass := range passes {
		dir := filepath.Join(s.inputDir, pass.store.Dir())
		files, err := importer.AllFiles(dir, pass.prefix)
		if err != nil {
			return err
		}

		for _, file := range files {
			log := s.logger.WithContext(ctx).WithFields(map[string]any{
				"store": pass.store,
				"file":  filepath.Base(file),
			})

			ts, err := importer.FileTS(file)
			if err != nil {
				return &models.StorageError{Op: "stat bundle file", Err: err}
			}

			rows, err := pass.run(ctx, file, ts)
			if err != nil {
				log.WithError(err).Error("Bundle import failed, leaving file in place")
				continue
			}

			if err := importer.MoveToBackup(file, s.backupDir, pass.store.Dir()); err != nil {
				return &models.StorageError{Op: "backup bundle file", Err: err}
			}
			log.WithFields(map[string]any{"rows": rows}).Info("Imported bundle file")
		}
	}
	return nil
}

// parseSteamCatalogs converts raw steam bundle catalogs into priced
// artifacts next to them, moving each catalog to backup once parsed.
func (s *Service) parseSteamCatalogs(ctx context.Context) error {
	dir := filepath.Join(s.inputDir, stores.Steam.Dir())
	files, err := importer.AllFiles(dir, BundlePrefix)
	if err != nil {
		return err
	}

	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return &models.StorageError{Op: "read steam bundle catalog", Err: err}
		}
		ts, err := importer.FileTS(file)
		if err != nil {
			return &models.StorageError{Op: "stat steam bundle catalog", Err: err}
		}

		bundles, err := ParseSteamBundles(ctx, raw, s.logger)
		if err != nil {
			return &models.ParseError{File: file, Err: err}
		}

		serialized, err := json.MarshalIndent(bundles, "", "  ")
		if err != nil {
			return err
		}
		artifact := filepath.Join(dir, fmt.Sprintf("%s_%d.json", PBundlePrefix, ts))
		if err := os.WriteFile(artifact, serialized, 0o644); err != nil {
			return &models.StorageError{Op: "write pbundles artifact", Err: err}
		}

		if err := importer.MoveToBackup(file, s.backupDir, stores.Steam.Dir()); err != nil {
			return &models.StorageError{Op: "backup steam bundle catalog", Err: err}
		}
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"file":    filepath.Base(file),
			"bundles": len(bundles),
		}).Info("Parsed steam bundle catalog")
	}
	return nil
}

func (s *Service) importFanaticalFile(ctx context.Context, path string, ts int64) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, &models.StorageError{Op: "read bundle file", Err: err}
	}
	rows, err := ParseFanaticalBundles(raw, ts)
	if err != nil {
		return 0, &models.ParseError{File: path, Err: err}
	}

	txCtx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	if err := s.bundles.InsertFanatical(txCtx, rows); err != nil {
		return 0, err
	}
	if err := tx.Commit(txCtx); err != nil {
		return 0, &models.StorageError{Op: "commit bundle import", Err: err}
	}
	return len(rows), nil
}

func (s *Service) importSteamFile(ctx context.Context, path string, ts int64) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, &models.StorageError{Op: "read pbundles artifact", Err: err}
	}
	var infos []models.SteamBundleInfo
	if err := json.Unmarshal(raw, &infos); err != nil {
		return 0, &models.ParseError{File: path, Err: err}
	}

	rows := make([]*models.SteamBundleRow, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, &models.SteamBundleRow{
			BundleID:       info.BundleID,
			TS:             ts,
			Name:           info.Name,
			Type:           info.Type,
			IncludedTypes:  database.JSONB[[]int32]{Data: info.IncludedTypes},
			IncludedAppIDs: database.JSONB[[]int64]{Data: info.IncludedAppIDs},
			IncludedItems:  database.JSONB[[]models.SteamBundleItem]{Data: info.IncludedItems},
			OriginalPrice:  info.OriginalPrice,
			DiscountPrice:  info.DiscountPrice,
		})
	}

	txCtx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	if err := s.bundles.InsertSteam(txCtx, rows); err != nil {
		return 0, err
	}
	if err := tx.Commit(txCtx); err != nil {
		return 0, &models.StorageError{Op: "commit bundle import", Err: err}
	}
	return len(rows), nil
}

func (s *Service) importIndiegalaFile(ctx context.Context, path string, ts int64) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, &models.StorageError{Op: "read bundle file", Err: err}
	}
	rows, err := ParseIndiegalaBundles(raw, ts)
	if err != nil {
		return 0, &models.ParseError{File: path, Err: err}
	}

	txCtx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	if err := s.bundles.InsertIndiegala(txCtx, rows); err != nil {
		return 0, err
	}
	if err := tx.Commit(txCtx); err != nil {
		return 0, &models.StorageError{Op: "commit bundle import", Err: err}
	}
	return len(rows), nil
}
