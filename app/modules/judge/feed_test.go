package judge

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Solve-Wars/arena-bot/internal/observability/metrics"
)

// fakeClient is a programmable stub for the judge Client interface.
type fakeClient struct {
	calls           atomic.Int64
	SubmissionsFunc func(ctx context.Context, handle string) ([]Submission, error)
}

func (f *fakeClient) Submissions(ctx context.Context, handle string) ([]Submission, error) {
	f.calls.Add(1)
	if f.SubmissionsFunc != nil {
		return f.SubmissionsFunc(ctx, handle)
	}
	return nil, nil
}

func (f *fakeClient) Problemset(ctx context.Context) ([]CatalogProblem, error) {
	return nil, nil
}

func (f *fakeClient) Solved(ctx context.Context, handle string) (map[string]struct{}, error) {
	return nil, nil
}

var _ Client = (*fakeClient)(nil)

func newTestFeed(client Client) *SubmissionFeed {
	return NewSubmissionFeed(client, FeedOptions{}, slog.New(slog.DiscardHandler), metrics.NoOpFeedMetrics{})
}

func TestSubmissionFeed_CacheWithinTTL(t *testing.T) {
	subs := []Submission{
		{ID: 42, CreationTimeSeconds: 100, Problem: ProblemRef{ContestID: 1700, Index: "A"}, Verdict: VerdictOK},
	}
	client := &fakeClient{
		SubmissionsFunc: func(ctx context.Context, handle string) ([]Submission, error) {
			return subs, nil
		},
	}
	feed := newTestFeed(client)

	ctx := context.Background()
	first := feed.Recent(ctx, "tourist")
	second := feed.Recent(ctx, "tourist")

	assert.Equal(t, subs, first)
	assert.Equal(t, subs, second)
	assert.Equal(t, int64(1), client.calls.Load(), "second call must be served from cache")
}

func TestSubmissionFeed_CacheExpires(t *testing.T) {
	client := &fakeClient{
		SubmissionsFunc: func(ctx context.Context, handle string) ([]Submission, error) {
			return []Submission{{ID: 1}}, nil
		},
	}
	feed := newTestFeed(client)

	current := time.Now()
	feed.now = func() time.Time { return current }

	ctx := context.Background()
	feed.Recent(ctx, "tourist")
	current = current.Add(11 * time.Second)
	feed.Recent(ctx, "tourist")

	assert.Equal(t, int64(2), client.calls.Load(), "expired cache entry must refetch")
}

func TestSubmissionFeed_CoalescesConcurrentFetches(t *testing.T) {
	release := make(chan struct{})
	client := &fakeClient{
		SubmissionsFunc: func(ctx context.Context, handle string) ([]Submission, error) {
			<-release
			return []Submission{{ID: 7}}, nil
		},
	}
	feed := newTestFeed(client)

	ctx := context.Background()
	const callers = 8

	var wg sync.WaitGroup
	results := make([][]Submission, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = feed.Recent(ctx, "tourist")
		}(i)
	}

	// Let all callers pile onto the in-flight fetch before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), client.calls.Load(), "concurrent callers must share one upstream call")
	for i := 0; i < callers; i++ {
		require.Len(t, results[i], 1)
		assert.Equal(t, int64(7), results[i][0].ID)
	}
}

func TestSubmissionFeed_FailsOpenToEmpty(t *testing.T) {
	client := &fakeClient{
		SubmissionsFunc: func(ctx context.Context, handle string) ([]Submission, error) {
			return nil, errors.New("upstream user.status returned 503")
		},
	}
	feed := newTestFeed(client)

	subs := feed.Recent(context.Background(), "tourist")

	assert.Empty(t, subs, "upstream errors must degrade to an empty list")
}

func TestSubmissionFeed_ErrorIsNotCached(t *testing.T) {
	fail := true
	client := &fakeClient{
		SubmissionsFunc: func(ctx context.Context, handle string) ([]Submission, error) {
			if fail {
				return nil, errors.New("boom")
			}
			return []Submission{{ID: 3}}, nil
		},
	}
	feed := newTestFeed(client)

	ctx := context.Background()
	assert.Empty(t, feed.Recent(ctx, "tourist"))

	fail = false
	subs := feed.Recent(ctx, "tourist")
	require.Len(t, subs, 1)
	assert.Equal(t, int64(3), subs[0].ID)
}

func TestProblemRef_Key(t *testing.T) {
	assert.Equal(t, "1700A", ProblemRef{ContestID: 1700, Index: "A"}.Key())
	assert.Equal(t, "0Z1", ProblemRef{ContestID: 0, Index: "Z1"}.Key())
}
