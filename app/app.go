package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Solve-Wars/arena-bot/app/modules/judge"
	matchservice "github.com/Solve-Wars/arena-bot/app/modules/match/application"
	"github.com/Solve-Wars/arena-bot/app/modules/pool"
	ttrservice "github.com/Solve-Wars/arena-bot/app/modules/ttr/application"
	"github.com/Solve-Wars/arena-bot/config"
	"github.com/Solve-Wars/arena-bot/db/bundb"
	"github.com/Solve-Wars/arena-bot/internal/observability/metrics"
)

// App wires configuration, storage, the judge feed, and the match services.
type App struct {
	Cfg          *config.Config
	MatchService *matchservice.MatchService
	TTRService   *ttrservice.Service
	Registry     *prometheus.Registry

	db     *bundb.DBService
	logger *slog.Logger
	tracer trace.Tracer
}

// NewApp initializes the application with the necessary services and configuration.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("service", "arena-bot"),
		slog.String("environment", cfg.Observability.Environment),
	)
	tracer := otel.Tracer("arena-bot")

	dbService, err := bundb.NewBunDBService(cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database service: %w", err)
	}

	registry := prometheus.NewRegistry()
	matchMetrics := metrics.NewPrometheusMatchMetrics(registry)
	feedMetrics := metrics.NewPrometheusFeedMetrics(registry)

	client := judge.NewHTTPClient(judge.ClientOptions{
		BaseURL:        cfg.Judge.BaseURL,
		RequestSpacing: cfg.Judge.RequestSpacing,
		Timeout:        cfg.Judge.FetchTimeout,
	}, logger, feedMetrics)

	feed := judge.NewSubmissionFeed(client, judge.FeedOptions{
		CacheTTL:     cfg.Judge.FeedCacheTTL,
		FetchTimeout: cfg.Judge.FetchTimeout,
	}, logger, feedMetrics)

	selector := pool.NewSelector(client, logger)

	ttrSvc := ttrservice.NewService(
		dbService.MatchDB,
		dbService.TTRDB,
		selector,
		logger,
		matchMetrics,
		tracer,
		dbService.GetDB(),
	)

	matchSvc := matchservice.NewMatchService(
		dbService.MatchDB,
		feed,
		selector,
		ttrSvc,
		logger,
		matchMetrics,
		tracer,
		dbService.GetDB(),
		cfg.Poll.Cooldown,
	)

	return &App{
		Cfg:          cfg,
		MatchService: matchSvc,
		TTRService:   ttrSvc,
		Registry:     registry,
		db:           dbService,
		logger:       logger,
		tracer:       tracer,
	}, nil
}

// DB returns the database service.
func (a *App) DB() *bundb.DBService {
	return a.db
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Close releases application resources.
func (a *App) Close() error {
	return a.db.Close()
}
