package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/clover/config"
	bundlerepo "github.com/Ramsey-B/clover/internal/repositories/bundle"
	gamerepo "github.com/Ramsey-B/clover/internal/repositories/game"
	ledgerrepo "github.com/Ramsey-B/clover/internal/repositories/ledger"
	refdatarepo "github.com/Ramsey-B/clover/internal/repositories/refdata"
	searchrepo "github.com/Ramsey-B/clover/internal/repositories/search"
	"github.com/Ramsey-B/clover/pkg/bundles"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/importer"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/metadata"
	"github.com/Ramsey-B/clover/pkg/middleware"
	adminroutes "github.com/Ramsey-B/clover/pkg/routes/admin"
	bundleroutes "github.com/Ramsey-B/clover/pkg/routes/bundle"
	gameroutes "github.com/Ramsey-B/clover/pkg/routes/game"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	searchroutes "github.com/Ramsey-B/clover/pkg/routes/search"
	"github.com/Ramsey-B/clover/pkg/search"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

const version = "1.0.0"

const usage = `usage: clover <command>

commands:
  serve            run the catalog API server
  migrate-up       apply database migrations
  migrate-drop     drop every database object
  init-refdata     seed DRM rows and load tag/category feeds
  init-steam-map   build the steam name map from the appinfo dump
  update-steam-map merge the latest appinfo snapshot into the steam map
  update-names     upsert canonical names from the steam map and snapshots
  import-metadata  merge appinfo snapshots onto catalog entries
  import-prices    import price snapshots into the store ledgers
  import-bundles   parse and import bundle snapshots
  update-search    rebuild the denormalized search view
  update-graph     mirror the catalog into the graph database
  reset            drop, migrate, and replay every backup snapshot`

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Println(usage)
		return
	}

	cfg := config.Load()
	logger := newLogger(cfg)
	ctx := context.Background()

	if cfg.TracingEnabled {
		shutdown, err := initTracing(ctx, cfg)
		if err != nil {
			logger.WithError(err).Error("Failed to initialize tracing")
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to start")
		os.Exit(1)
	}
	defer app.close(ctx)

	switch cmd {
	case "serve":
		err = app.serve(ctx)
	case "migrate-up":
		err = app.migrateUp()
	case "migrate-drop":
		err = app.migrateDrop()
	case "init-refdata":
		err = app.search.InitRefData(ctx)
	case "init-steam-map":
		err = app.metadata.InitSteamMap(ctx)
	case "update-steam-map":
		err = app.metadata.UpdateSteamMap(ctx)
	case "update-names":
		err = app.metadata.UpsertNames(ctx)
	case "import-metadata":
		err = app.metadata.ImportAppInfo(ctx)
	case "import-prices":
		err = app.importer.ImportAll(ctx)
	case "import-bundles":
		err = app.bundles.ImportAll(ctx)
	case "update-search":
		err = app.search.Rebuild(ctx)
	case "update-graph":
		err = app.updateGraph(ctx)
	case "reset":
		err = app.reset(ctx)
	default:
		fmt.Println(usage)
		os.Exit(2)
	}

	if err != nil {
		logger.WithError(err).Errorf("Command %s failed", cmd)
		os.Exit(1)
	}
}

// app holds every wired component. Kafka and the graph mirror stay nil when
// disabled.
type app struct {
	cfg    *config.Config
	logger ectologger.Logger

	sqlxDB *sqlx.DB
	db     database.DB

	producer *kafka.Producer
	emitter  *events.Emitter

	graphClient *graph.Client
	catalog     *graph.CatalogService
	syncer      *graph.Syncer

	games   *gamerepo.Repository
	ledgers *ledgerrepo.Repository
	bundleR *bundlerepo.Repository
	refdata *refdatarepo.Repository
	searchR *searchrepo.Repository

	importer *importer.Importer
	metadata *metadata.Service
	bundles  *bundles.Service
	search   *search.Service
}

func newApp(cfg *config.Config, logger ectologger.Logger) (*app, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword,
		cfg.DatabaseName, cfg.DatabaseSSLMode)

	sqlxDB, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	a := &app{
		cfg:    cfg,
		logger: logger,
		sqlxDB: sqlxDB,
		db:     database.NewDatabaseInstance(sqlxDB, logger),
	}

	if cfg.KafkaEnabled {
		a.producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
	}
	a.emitter = events.NewEmitter(a.producer, logger)

	a.games = gamerepo.NewRepository(a.db, logger)
	a.ledgers = ledgerrepo.NewRepository(a.db, logger)
	a.bundleR = bundlerepo.NewRepository(a.db, logger)
	a.refdata = refdatarepo.NewRepository(a.db, logger)
	a.searchR = searchrepo.NewRepository(a.db, logger)

	if cfg.GraphEnabled {
		client, err := graph.NewClient(graph.Config{
			Host:     cfg.GraphDBHost,
			Port:     cfg.GraphDBPort,
			Username: cfg.GraphDBUser,
			Password: cfg.GraphDBPassword,
		}, logger)
		if err != nil {
			return nil, err
		}
		a.graphClient = client
		a.catalog = graph.NewCatalogService(client, logger, cfg.GraphBatchSize)
		a.syncer = graph.NewSyncer(a.catalog, a.games, a.searchR, a.bundleR, logger)
	}

	resolver := importer.NewResolver(a.games, a.ledgers, a.emitter, logger)
	a.importer = importer.NewImporter(a.db, resolver, a.ledgers, a.emitter, logger, cfg.InputDir, cfg.BackupDir)
	a.metadata = metadata.NewService(a.db, a.games, logger, cfg.InputDir, cfg.BackupDir, cfg.SteamMapPath)
	a.bundles = bundles.NewService(a.db, a.bundleR, logger, cfg.InputDir, cfg.BackupDir)
	a.search = search.NewService(a.db, a.searchR, a.refdata, a.games, a.emitter, logger, cfg.TagsFeedPath, cfg.CategoriesFeedPath)

	return a, nil
}

func (a *app) close(ctx context.Context) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close kafka producer")
		}
	}
	if a.graphClient != nil {
		if err := a.graphClient.Close(ctx); err != nil {
			a.logger.WithError(err).Warn("Failed to close graph client")
		}
	}
	if err := a.sqlxDB.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close database")
	}
}

func (a *app) migrationService() (*database.MigrationService, pgmigrate.Config) {
	ms := database.NewMigrationService(a.logger, &database.MigrationConfig{
		MigrationFolderPath: a.cfg.DatabaseMigrationFolderPath,
		Version:             uint(a.cfg.DatabaseMigrationVersion),
		Force:               a.cfg.DatabaseMigrationForce,
		AutoRollback:        a.cfg.DatabaseMigrationAutoRollback,
	})
	return ms, pgmigrate.Config{}
}

func (a *app) migrateUp() error {
	ms, driverCfg := a.migrationService()
	driver, err := pgmigrate.WithInstance(a.sqlxDB.DB, &driverCfg)
	if err != nil {
		return err
	}
	return ms.Migrate(a.cfg.DatabaseName, driver)
}

func (a *app) migrateDrop() error {
	ms, driverCfg := a.migrationService()
	driver, err := pgmigrate.WithInstance(a.sqlxDB.DB, &driverCfg)
	if err != nil {
		return err
	}
	return ms.Drop(a.cfg.DatabaseName, driver)
}

func (a *app) updateGraph(ctx context.Context) error {
	if a.syncer == nil {
		return fmt.Errorf("graph mirror is not enabled")
	}
	return a.syncer.SyncAll(ctx)
}

// reset wipes the database and replays every committed snapshot from the
// backup directory.
func (a *app) reset(ctx context.Context) error {
	if err := a.migrateDrop(); err != nil {
		return err
	}
	if err := a.migrateUp(); err != nil {
		return err
	}
	if err := a.search.InitRefData(ctx); err != nil {
		return err
	}

	// Replay services read from the backup tree, and their commits land
	// right back in it.
	resolver := importer.NewResolver(a.games, a.ledgers, a.emitter, a.logger)
	replayImporter := importer.NewImporter(a.db, resolver, a.ledgers, a.emitter, a.logger, a.cfg.BackupDir, a.cfg.BackupDir)
	replayMetadata := metadata.NewService(a.db, a.games, a.logger, a.cfg.BackupDir, a.cfg.BackupDir, a.cfg.SteamMapPath)
	replayBundles := bundles.NewService(a.db, a.bundleR, a.logger, a.cfg.BackupDir, a.cfg.BackupDir)

	if err := replayMetadata.UpsertNames(ctx); err != nil {
		return err
	}
	if err := replayMetadata.ImportAppInfo(ctx); err != nil {
		return err
	}
	if err := replayImporter.ImportAll(ctx); err != nil {
		return err
	}
	if err := replayBundles.ImportAll(ctx); err != nil {
		return err
	}
	if err := a.search.Rebuild(ctx); err != nil {
		return err
	}
	if a.syncer != nil {
		return a.syncer.SyncAll(ctx)
	}
	return nil
}

func (a *app) serve(ctx context.Context) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if a.cfg.TracingEnabled {
		e.Use(otelecho.Middleware(a.cfg.AppName))
	}
	e.Use(middleware.Context())
	e.Use(middleware.Logger(a.logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: a.cfg.AllowOrigins,
		AllowMethods: a.cfg.AllowMethods,
	}))
	e.HTTPErrorHandler = middleware.Error(a.logger)

	checker := health.NewChecker(a.sqlxDB, version)
	checker.RegisterRoutes(e)

	gameroutes.NewHandler(a.games, a.ledgers, a.searchR, a.catalog).Register(e.Group("/api/v1/games"))
	searchroutes.NewHandler(a.searchR).Register(e.Group("/api/v1/search"))
	bundleroutes.NewHandler(a.bundleR).Register(e.Group("/api/v1/bundles"))
	adminroutes.NewHandler(a.importer, a.metadata, a.bundles, a.search).Register(e.Group("/api/v1/admin"))

	e.Server.ReadTimeout = time.Duration(a.cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(a.cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(a.cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(a.cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = a.cfg.MaxHeaderBytes

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("Listening on port %d", a.cfg.Port)
		checker.SetReady(true)
		errCh <- e.Start(fmt.Sprintf(":%d", a.cfg.Port))
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case sig := <-stop:
		a.logger.Infof("Received signal %s, shutting down", sig)
		checker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}

func newLogger(cfg *config.Config) ectologger.Logger {
	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	zapLogger, err := zapCfg.Build()
	if err != nil {
		zapLogger, _ = zap.NewProduction()
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func initTracing(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	exporterCfg := exporters.DefaultOTLPConfig()
	exporterCfg.Endpoint = cfg.TracingOTLPEndpoint
	exporterCfg.Protocol = cfg.TracingOTLPProtocol

	exporter, err := exporters.NewOTLPExporter(ctx, exporterCfg)
	if err != nil {
		return nil, err
	}

	res := sdkresource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.AppName),
		semconv.ServiceVersion(version),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	return tp.Shutdown, nil
}
