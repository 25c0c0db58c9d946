package matchservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Solve-Wars/arena-bot/app/modules/judge"
	matchdomain "github.com/Solve-Wars/arena-bot/app/modules/match/domain"
	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
	ttrdomain "github.com/Solve-Wars/arena-bot/app/modules/ttr/domain"
	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
	"github.com/Solve-Wars/arena-bot/internal/observability/metrics"
)

// Feed serves recent submissions per handle; see the judge module for the
// caching and throttling semantics.
type Feed interface {
	Recent(ctx context.Context, handle string) []judge.Submission
}

// ProblemSource selects replacement problems; see the pool module.
type ProblemSource interface {
	Select(ctx context.Context, minRating, maxRating int, handles []string, count int, exclude map[string]struct{}) ([]judge.CatalogProblem, error)
}

// TTREngine is the ticket-to-ride engine the poll coordinator dispatches to.
type TTREngine interface {
	ApplySolves(ctx context.Context, match *matchdb.Match, teams []matchdb.Team, problems []matchdb.Problem, solves []matchdomain.NewSolve) error
	Snapshot(ctx context.Context, match *matchdb.Match, teams []matchdb.Team) ([]ttrdomain.TeamSnapshot, error)
}

// MatchService is the poll coordinator and home of the grid and tug engines.
type MatchService struct {
	repo      matchdb.Repository
	feed      Feed
	selector  ProblemSource
	ttrEngine TTREngine
	logger    *slog.Logger
	metrics   metrics.MatchMetrics
	tracer    trace.Tracer
	db        *bun.DB

	cooldown time.Duration
	now      func() time.Time
}

// NewMatchService creates a new MatchService.
func NewMatchService(
	repo matchdb.Repository,
	feed Feed,
	selector ProblemSource,
	ttrEngine TTREngine,
	logger *slog.Logger,
	m metrics.MatchMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	cooldown time.Duration,
) *MatchService {
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &MatchService{
		repo:      repo,
		feed:      feed,
		selector:  selector,
		ttrEngine: ttrEngine,
		logger:    logger,
		metrics:   m,
		tracer:    tracer,
		db:        db,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[T any] func(ctx context.Context) (T, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[T any](
	s *MatchService,
	ctx context.Context,
	operationName string,
	matchID uuid.UUID,
	op operationFunc[T],
) (result T, err error) {

	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("match_id", matchID.String()),
	))
	defer span.End()

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.MatchID("match_id", matchID),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName)
			span.RecordError(err)
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.MatchID("match_id", matchID),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	return result, nil
}
