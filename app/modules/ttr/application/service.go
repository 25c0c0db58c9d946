package ttrservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Solve-Wars/arena-bot/app/modules/judge"
	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
	ttrdb "github.com/Solve-Wars/arena-bot/app/modules/ttr/infrastructure/repositories"
	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
	"github.com/Solve-Wars/arena-bot/internal/observability/metrics"
)

// ProblemSource selects replacement problems for the market.
type ProblemSource interface {
	Select(ctx context.Context, minRating, maxRating int, handles []string, count int, exclude map[string]struct{}) ([]judge.CatalogProblem, error)
}

// Service owns the ticket-to-ride economy: market solves, track claims,
// station placement, and derived snapshots.
type Service struct {
	matchRepo matchdb.Repository
	repo      ttrdb.Repository
	selector  ProblemSource
	logger    *slog.Logger
	metrics   metrics.MatchMetrics
	tracer    trace.Tracer
	db        *bun.DB
}

// NewService creates a new ticket-to-ride Service.
func NewService(
	matchRepo matchdb.Repository,
	repo ttrdb.Repository,
	selector ProblemSource,
	logger *slog.Logger,
	m metrics.MatchMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *Service {
	return &Service{
		matchRepo: matchRepo,
		repo:      repo,
		selector:  selector,
		logger:    logger,
		metrics:   m,
		tracer:    tracer,
		db:        db,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[T any] func(ctx context.Context) (T, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[T any](
	s *Service,
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

// runInTx executes fn inside a transaction when a database handle is
// configured, and directly otherwise.
func (s *Service) runInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}
