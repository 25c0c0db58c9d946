// Package metrics defines the instrumentation surface for the match engine.
package metrics

import (
	"context"
	"time"
)

// MatchMetrics records poll-coordinator and mode-engine activity.
type MatchMetrics interface {
	RecordPollAttempt(ctx context.Context, mode string)
	RecordPollCooldownHit(ctx context.Context, mode string)
	RecordSolveRecorded(ctx context.Context, mode string)
	RecordSolveCorrected(ctx context.Context, mode string)
	RecordOperationDuration(ctx context.Context, operation string, d time.Duration)
	RecordOperationFailure(ctx context.Context, operation string)
}

// FeedMetrics records submission-feed adapter activity.
type FeedMetrics interface {
	RecordFeedRequest(ctx context.Context)
	RecordFeedCacheHit(ctx context.Context)
	RecordFeedCoalesced(ctx context.Context)
	RecordUpstreamError(ctx context.Context, endpoint string)
	RecordUpstreamDuration(ctx context.Context, endpoint string, d time.Duration)
}

// NoOpMatchMetrics is used by tests.
type NoOpMatchMetrics struct{}

func (NoOpMatchMetrics) RecordPollAttempt(context.Context, string)                      {}
func (NoOpMatchMetrics) RecordPollCooldownHit(context.Context, string)                  {}
func (NoOpMatchMetrics) RecordSolveRecorded(context.Context, string)                    {}
func (NoOpMatchMetrics) RecordSolveCorrected(context.Context, string)                   {}
func (NoOpMatchMetrics) RecordOperationDuration(context.Context, string, time.Duration) {}
func (NoOpMatchMetrics) RecordOperationFailure(context.Context, string)                 {}

// NoOpFeedMetrics is used by tests.
type NoOpFeedMetrics struct{}

func (NoOpFeedMetrics) RecordFeedRequest(context.Context)                             {}
func (NoOpFeedMetrics) RecordFeedCacheHit(context.Context)                            {}
func (NoOpFeedMetrics) RecordFeedCoalesced(context.Context)                           {}
func (NoOpFeedMetrics) RecordUpstreamError(context.Context, string)                   {}
func (NoOpFeedMetrics) RecordUpstreamDuration(context.Context, string, time.Duration) {}
