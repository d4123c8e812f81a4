package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	gamerepo "github.com/Ramsey-B/clover/internal/repositories/game"
	ledgerrepo "github.com/Ramsey-B/clover/internal/repositories/ledger"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/importer"
	"github.com/Ramsey-B/clover/pkg/stores"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) (*sqlx.DB, database.DB) {
	t.Helper()

	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS to run against a live database")
	}

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "postgres"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "postgres"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "clover_test"
	}

	dsn := fmt.Sprintf("host=%s port=5432 user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbUser, dbPass, dbName)
	sqlxDB, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)

	logger := getTestLogger()

	driver, err := pgmigrate.WithInstance(sqlxDB.DB, &pgmigrate.Config{})
	require.NoError(t, err)
	ms := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: "../../db/pg",
		AutoRollback:        true,
	})
	require.NoError(t, ms.Migrate(dbName, driver))

	return sqlxDB, database.NewDatabaseInstance(sqlxDB, logger)
}

func writeSnapshot(t *testing.T, dir, store, name, content string) {
	t.Helper()
	storeDir := filepath.Join(dir, store)
	require.NoError(t, os.MkdirAll(storeDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, name), []byte(content), 0o644))
}

func TestImportFlow(t *testing.T) {
	sqlxDB, db := getTestDB(t)
	defer sqlxDB.Close()

	ctx := context.Background()
	logger := getTestLogger()

	_, err := sqlxDB.ExecContext(ctx, "TRUNCATE games, prices_gamebillet CASCADE")
	require.NoError(t, err)

	inputDir := t.TempDir()
	backupDir := filepath.Join(inputDir, "backup")

	games := gamerepo.NewRepository(db, logger)
	ledgers := ledgerrepo.NewRepository(db, logger)
	emitter := events.NewEmitter(nil, logger)
	resolver := importer.NewResolver(games, ledgers, emitter, logger)
	imp := importer.NewImporter(db, resolver, ledgers, emitter, logger, inputDir, backupDir)

	writeSnapshot(t, inputDir, "gamebillet", "on_sale_1700000100.json",
		`[{"name":"Celeste","price":4.99,"percent_discount":75}]`)

	require.NoError(t, imp.ImportStore(ctx, stores.Gamebillet))

	// the file moved to backup after a successful commit
	_, err = os.Stat(filepath.Join(backupDir, "gamebillet", "on_sale_1700000100.json"))
	assert.NoError(t, err)

	var gameCount int
	require.NoError(t, sqlxDB.GetContext(ctx, &gameCount, "SELECT count(*) FROM games WHERE cname = 'celeste'"))
	assert.Equal(t, 1, gameCount)

	var rowCount int
	require.NoError(t, sqlxDB.GetContext(ctx, &rowCount, "SELECT count(*) FROM prices_gamebillet WHERE name = 'celeste'"))
	assert.Equal(t, 1, rowCount)

	// a second snapshot reuses the same game id
	writeSnapshot(t, inputDir, "gamebillet", "on_sale_1700000200.json",
		`[{"name":"Celeste","price":3.99,"percent_discount":80}]`)

	require.NoError(t, imp.ImportStore(ctx, stores.Gamebillet))

	require.NoError(t, sqlxDB.GetContext(ctx, &gameCount, "SELECT count(*) FROM games WHERE cname = 'celeste'"))
	assert.Equal(t, 1, gameCount)

	var distinctGames int
	require.NoError(t, sqlxDB.GetContext(ctx, &distinctGames,
		"SELECT count(DISTINCT game_id) FROM prices_gamebillet WHERE name = 'celeste'"))
	assert.Equal(t, 1, distinctGames)
}

func TestImportDropsCollidingRows(t *testing.T) {
	sqlxDB, db := getTestDB(t)
	defer sqlxDB.Close()

	ctx := context.Background()
	logger := getTestLogger()

	_, err := sqlxDB.ExecContext(ctx, "TRUNCATE games, prices_gamebillet CASCADE")
	require.NoError(t, err)

	// two catalog entries sharing a canonical name
	_, err = sqlxDB.ExecContext(ctx,
		"INSERT INTO games (name, cname) VALUES ('FEZ', 'fez'), ('Fez!', 'fez')")
	require.NoError(t, err)

	inputDir := t.TempDir()
	backupDir := filepath.Join(inputDir, "backup")

	games := gamerepo.NewRepository(db, logger)
	ledgers := ledgerrepo.NewRepository(db, logger)
	emitter := events.NewEmitter(nil, logger)
	resolver := importer.NewResolver(games, ledgers, emitter, logger)
	imp := importer.NewImporter(db, resolver, ledgers, emitter, logger, inputDir, backupDir)

	writeSnapshot(t, inputDir, "gamebillet", "on_sale_1700000100.json",
		`[{"name":"Fez","price":2.99,"percent_discount":70},{"name":"Celeste","price":4.99,"percent_discount":75}]`)

	require.NoError(t, imp.ImportStore(ctx, stores.Gamebillet))

	// the colliding row is dropped, the rest of the file imports
	var rowCount int
	require.NoError(t, sqlxDB.GetContext(ctx, &rowCount, "SELECT count(*) FROM prices_gamebillet WHERE name = 'fez'"))
	assert.Equal(t, 0, rowCount)
	require.NoError(t, sqlxDB.GetContext(ctx, &rowCount, "SELECT count(*) FROM prices_gamebillet WHERE name = 'celeste'"))
	assert.Equal(t, 1, rowCount)
}

func TestParseErrorLeavesFileInPlace(t *testing.T) {
	sqlxDB, db := getTestDB(t)
	defer sqlxDB.Close()

	ctx := context.Background()
	logger := getTestLogger()

	inputDir := t.TempDir()
	backupDir := filepath.Join(inputDir, "backup")

	games := gamerepo.NewRepository(db, logger)
	ledgers := ledgerrepo.NewRepository(db, logger)
	emitter := events.NewEmitter(nil, logger)
	resolver := importer.NewResolver(games, ledgers, emitter, logger)
	imp := importer.NewImporter(db, resolver, ledgers, emitter, logger, inputDir, backupDir)

	writeSnapshot(t, inputDir, "gamebillet", "on_sale_1700000100.json", "not json")

	// the store pass logs the failure and keeps going
	require.NoError(t, imp.ImportStore(ctx, stores.Gamebillet))

	_, err := os.Stat(filepath.Join(inputDir, "gamebillet", "on_sale_1700000100.json"))
	assert.NoError(t, err)
}
