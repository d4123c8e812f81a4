package metadata

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/internal/repositories/game"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/importer"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/stores"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// AppInfoPrefix is the file name prefix of the steam metadata feed files.
const AppInfoPrefix = "appinfo"

type Service struct {
	db        database.DB
	games     *game.Repository
	logger    ectologger.Logger
	inputDir  string
	backupDir string
	mapPath   string
}

func NewService(db database.DB, games *game.Repository, logger ectologger.Logger, inputDir, backupDir, mapPath string) *Service {
	return &Service{
		db:        db,
		games:     games,
		logger:    logger,
		inputDir:  inputDir,
		backupDir: backupDir,
		mapPath:   mapPath,
	}
}

// InitSteamMap builds the name-to-appid map artifact from the full appinfo
// dump and moves the dump to backup once the artifact is written.
func (s *Service) InitSteamMap(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "metadata.Service.InitSteamMap")
	defer span.End()

	dumpPath := filepath.Join(s.inputDir, stores.Steam.Dir(), "appinfo.jsonl")
	raw, err := os.ReadFile(dumpPath)
	if err != nil {
		return &models.StorageError{Op: "read appinfo dump", Err: err}
	}

	m := make(SteamMap)
	if err := m.Merge(raw); err != nil {
		return &models.ParseError{File: dumpPath, Err: err}
	}
	if err := m.Save(s.mapPath); err != nil {
		return &models.StorageError{Op: "write steam map", Err: err}
	}

	if err := importer.MoveToBackup(dumpPath, s.backupDir, stores.Steam.Dir()); err != nil {
		return &models.StorageError{Op: "backup appinfo dump", Err: err}
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"names": len(m),
	}).Info("Initialized steam map")
	return nil
}

// UpdateSteamMap folds the newest appinfo feed file into the existing map
// artifact.
func (s *Service) UpdateSteamMap(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "metadata.Service.UpdateSteamMap")
	defer span.End()

	m, err := LoadSteamMap(s.mapPath)
	if err != nil {
		return &models.StorageError{Op: "load steam map", Err: err}
	}

	infoPath, err := importer.LatestFile(filepath.Join(s.inputDir, stores.Steam.Dir()), AppInfoPrefix)
	if err != nil {
		return err
	}
	if infoPath == "" {
		s.logger.WithContext(ctx).Warn("No appinfo file found, steam map unchanged")
		return nil
	}

	raw, err := os.ReadFile(infoPath)
	if err != nil {
		return &models.StorageError{Op: "read appinfo file", Err: err}
	}
	if err := m.Merge(raw); err != nil {
		return &models.ParseError{File: infoPath, Err: err}
	}
	if err := m.Save(s.mapPath); err != nil {
		return &models.StorageError{Op: "write steam map", Err: err}
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"file":  filepath.Base(infoPath),
		"names": len(m),
	}).Info("Updated steam map")
	return nil
}

// UpsertNames seeds the games table with (name, cname) pairs: first from the
// steam map with appids attached, then from every store's pending snapshot
// files. A canonical name is inserted once per run; the steam map wins the
// display name for keys it covers.
func (s *Service) UpsertNames(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "metadata.Service.UpsertNames")
	defer span.End()

	seen := make(map[string]bool)

	if err := s.upsertSteamNames(ctx, seen); err != nil {
		return err
	}

	for _, store := range stores.All {
		if store == stores.Steam {
			continue
		}
		if err := s.upsertStoreNames(ctx, store, seen); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) upsertSteamNames(ctx context.Context, seen map[string]bool) error {
	m, err := LoadSteamMap(s.mapPath)
	if err != nil {
		return &models.StorageError{Op: "load steam map", Err: err}
	}

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	txCtx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	for _, name := range names {
		cname := normalizers.CanonicalName(name)
		seen[cname] = true
		for _, appID := range m[name] {
			appID := appID
			if err := s.games.UpsertName(txCtx, name, cname, &appID); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(txCtx); err != nil {
		return &models.StorageError{Op: "commit steam names", Err: err}
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"names": len(names),
	}).Info("Upserted steam names")
	return nil
}

func (s *Service) upsertStoreNames(ctx context.Context, store stores.Store, seen map[string]bool) error {
	dir := filepath.Join(s.inputDir, store.Dir())
	files, err := importer.AllFiles(dir, importer.SnapshotPrefix)
	if err != nil {
		return err
	}

	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return &models.StorageError{Op: "read snapshot", Err: err}
		}
		data, err := store.ParsePrices(raw)
		if err != nil {
			return &models.ParseError{File: file, Err: err}
		}

		cnames := make([]string, 0, len(data))
		for cname := range data {
			cnames = append(cnames, cname)
		}
		sort.Strings(cnames)

		txCtx, tx, err := s.db.GetTx(ctx, nil)
		if err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
		}

		inserted := 0
		for _, cname := range cnames {
			if seen[cname] {
				continue
			}
			seen[cname] = true
			if err := s.games.UpsertName(txCtx, data[cname].OriginalName, cname, nil); err != nil {
				tx.Rollback(ctx)
				return err
			}
			inserted++
		}
		if err := tx.Commit(txCtx); err != nil {
			return &models.StorageError{Op: "commit store names", Err: err}
		}

		s.logger.WithContext(ctx).WithFields(map[string]any{
			"store": store,
			"file":  filepath.Base(file),
			"names": inserted,
		}).Info("Upserted store names")
	}
	return nil
}

// ImportAppInfo merges the steam metadata feed onto the games table, one
// transaction per feed file. The first occurrence of an appid within a file
// wins; the file moves to backup after its transaction commits.
func (s *Service) ImportAppInfo(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "metadata.Service.ImportAppInfo")
	defer span.End()

	dir := filepath.Join(s.inputDir, stores.Steam.Dir())
	files, err := importer.AllFiles(dir, AppInfoPrefix)
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := s.importAppInfoFile(ctx, file); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"file": filepath.Base(file),
			}).Error("Appinfo import failed, leaving file in place")
			continue
		}
		if err := importer.MoveToBackup(file, s.backupDir, stores.Steam.Dir()); err != nil {
			return &models.StorageError{Op: "backup appinfo file", Err: err}
		}
	}
	return nil
}

func (s *Service) importAppInfoFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &models.StorageError{Op: "read appinfo file", Err: err}
	}

	updates, err := parseAppInfo(raw)
	if err != nil {
		return &models.ParseError{File: path, Err: err}
	}

	txCtx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	for _, update := range updates {
		if err := s.games.UpdateAppInfo(txCtx, update); err != nil {
			return err
		}
	}
	if err := tx.Commit(txCtx); err != nil {
		return &models.StorageError{Op: "commit appinfo import", Err: err}
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"file":    filepath.Base(path),
		"updates": len(updates),
	}).Info("Imported appinfo file")
	return nil
}
