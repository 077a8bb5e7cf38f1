package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/alexanderramin/greenpath/internal/casestatus"
	"github.com/alexanderramin/greenpath/internal/catalog"
	"github.com/alexanderramin/greenpath/internal/cli"
	"github.com/alexanderramin/greenpath/internal/config"
	"github.com/alexanderramin/greenpath/internal/db"
	"github.com/alexanderramin/greenpath/internal/httpapi"
	"github.com/alexanderramin/greenpath/internal/livedata"
	"github.com/alexanderramin/greenpath/internal/logger"
	"github.com/alexanderramin/greenpath/internal/metrics"
	"github.com/alexanderramin/greenpath/internal/processing"
	"github.com/alexanderramin/greenpath/internal/repository"
	"github.com/alexanderramin/greenpath/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("GREENPATH_CONFIG"))
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	profileRepo := repository.NewSQLiteProfileRepo(database)
	caseRepo := repository.NewSQLiteCaseRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	m := metrics.New(nil)
	observer := service.NewMultiUseCaseObserver(
		service.NewLogUseCaseObserver(log),
		service.NewMetricsUseCaseObserver(m),
	)

	cat := catalog.Default()
	provider := livedata.NewProvider(
		newFetcher(cfg, log),
		newSnapshotCache(ctx, cfg, database, log),
		processing.DefaultsFrom(cat),
		cfg.LiveData.CacheTTL,
		log,
	)

	// Wire services
	cases := service.NewCaseService(caseRepo, uow, observer)
	projections := service.NewProjectionService(profileRepo, caseRepo, provider,
		service.WithCatalog(cat),
		service.WithVelocityWindow(cfg.Velocity.Window),
		service.WithMetrics(m),
		service.WithLogger(log),
		service.WithObserver(observer),
	)
	snapshots := service.NewSnapshotService(provider, m, observer)
	caseStatus := service.NewCaseStatusService(
		casestatus.NewClient(cfg.CaseStatus.Endpoint, cfg.CaseStatus.Timeout, log),
		cases, observer)

	app := &cli.App{
		Profiles:    service.NewProfileService(profileRepo, observer),
		Cases:       cases,
		Projections: projections,
		Snapshots:   snapshots,
		CaseStatus:  caseStatus,
		DefaultAddr: cfg.HTTP.Addr,
	}

	app.Serve = func(ctx context.Context, addr string) error {
		var handler http.Handler = httpapi.New(projections, snapshots, caseStatus, log, m, nil).Routes()
		return httpapi.Serve(ctx, addr, handler, log)
	}

	// Forms and the path browser need a terminal on both ends.
	app.IsInteractive = func() bool {
		in := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		out := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		return in && out
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(ctx)
}

// newFetcher returns nil when no live endpoint is configured; the provider
// then serves cached data or catalog defaults.
func newFetcher(cfg *config.Config, log *zap.Logger) livedata.Fetcher {
	if cfg.LiveData.Endpoint == "" {
		return nil
	}
	return livedata.NewHTTPFetcher(livedata.Config{
		Endpoint:   cfg.LiveData.Endpoint,
		Timeout:    cfg.LiveData.Timeout,
		MaxRetries: cfg.LiveData.MaxRetries,
		CacheTTL:   cfg.LiveData.CacheTTL,
	}, livedata.NewZapObserver(log))
}

// newSnapshotCache prefers Redis when configured and reachable, falling back
// to the snapshot_cache table.
func newSnapshotCache(ctx context.Context, cfg *config.Config, database db.DBTX, log *zap.Logger) livedata.Cache {
	if cfg.Redis.URL != "" {
		client, err := livedata.NewRedisClient(ctx, cfg.Redis.URL)
		if err == nil {
			return livedata.NewRedisCache(client)
		}
		log.Warn("redis unavailable, using sqlite snapshot cache", zap.Error(err))
	}
	return livedata.NewSQLCache(repository.NewSQLiteSnapshotCacheRepo(database))
}
