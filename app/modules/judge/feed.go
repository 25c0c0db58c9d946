package judge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
	"github.com/Solve-Wars/arena-bot/internal/observability/metrics"
)

// SubmissionFeed serves recent submissions per handle with a short TTL cache
// and request coalescing. Upstream failures degrade to an empty list so a
// slow or flaky judge never fails a poll outright.
type SubmissionFeed struct {
	client       Client
	ttl          time.Duration
	fetchTimeout time.Duration
	logger       *slog.Logger
	metrics      metrics.FeedMetrics

	mu    sync.Mutex
	cache map[string]feedEntry
	group singleflight.Group

	now func() time.Time
}

type feedEntry struct {
	subs      []Submission
	fetchedAt time.Time
}

// FeedOptions configures the submission feed.
type FeedOptions struct {
	CacheTTL     time.Duration
	FetchTimeout time.Duration
}

// NewSubmissionFeed builds the feed adapter. One instance is shared by all
// pollers in the process.
func NewSubmissionFeed(client Client, opts FeedOptions, logger *slog.Logger, m metrics.FeedMetrics) *SubmissionFeed {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 8 * time.Second
	}
	return &SubmissionFeed{
		client:       client,
		ttl:          ttl,
		fetchTimeout: fetchTimeout,
		logger:       logger,
		metrics:      m,
		cache:        make(map[string]feedEntry),
		now:          time.Now,
	}
}

// Recent returns the handle's recent submissions. Within the TTL window the
// cached result is returned unconditionally; concurrent callers for the same
// handle share a single upstream request. Never returns an error: upstream
// problems are logged and reported as an empty list.
func (f *SubmissionFeed) Recent(ctx context.Context, handle string) []Submission {
	f.metrics.RecordFeedRequest(ctx)

	f.mu.Lock()
	if entry, ok := f.cache[handle]; ok && f.now().Sub(entry.fetchedAt) < f.ttl {
		f.mu.Unlock()
		f.metrics.RecordFeedCacheHit(ctx)
		return entry.subs
	}
	f.mu.Unlock()

	v, err, shared := f.group.Do(handle, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, f.fetchTimeout)
		defer cancel()

		subs, err := f.client.Submissions(fetchCtx, handle)
		if err != nil {
			return nil, err
		}

		f.mu.Lock()
		f.cache[handle] = feedEntry{subs: subs, fetchedAt: f.now()}
		f.mu.Unlock()
		return subs, nil
	})
	if shared {
		f.metrics.RecordFeedCoalesced(ctx)
	}
	if err != nil {
		f.logger.WarnContext(ctx, "Submission fetch failed, treating as empty",
			attr.String("handle", handle),
			attr.Error(err),
		)
		return nil
	}
	return v.([]Submission)
}
