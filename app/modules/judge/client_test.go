package judge

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Solve-Wars/arena-bot/internal/observability/metrics"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, spacing time.Duration) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(ClientOptions{
		BaseURL:        srv.URL,
		RequestSpacing: spacing,
	}, slog.New(slog.DiscardHandler), metrics.NoOpFeedMetrics{})
}

func TestHTTPClient_Submissions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user.status", r.URL.Path)
		assert.Equal(t, "tourist", r.URL.Query().Get("handle"))
		w.Write([]byte(`{"status":"OK","result":[
			{"id":11,"creationTimeSeconds":1000,"problem":{"contestId":1700,"index":"A"},"verdict":"OK"},
			{"id":10,"creationTimeSeconds":900,"problem":{"contestId":1700,"index":"B"},"verdict":"WRONG_ANSWER"}
		]}`))
	}, time.Millisecond)

	subs, err := client.Submissions(context.Background(), "tourist")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, int64(11), subs[0].ID)
	assert.Equal(t, "1700A", subs[0].Problem.Key())
	assert.Equal(t, VerdictOK, subs[0].Verdict)
}

func TestHTTPClient_ProblemsetAndSolved(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/problemset.problems":
			w.Write([]byte(`{"status":"OK","result":{"problems":[
				{"contestId":1,"index":"A","name":"Theatre Square","rating":1000,"tags":["math"]}
			]}}`))
		case "/user.status":
			w.Write([]byte(`{"status":"OK","result":[
				{"id":1,"creationTimeSeconds":5,"problem":{"contestId":1,"index":"A"},"verdict":"OK"},
				{"id":2,"creationTimeSeconds":6,"problem":{"contestId":2,"index":"B"},"verdict":"TIME_LIMIT_EXCEEDED"}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, time.Millisecond)

	ctx := context.Background()

	catalog, err := client.Problemset(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, "1A", catalog[0].Ref().Key())

	solved, err := client.Solved(ctx, "tourist")
	require.NoError(t, err)
	assert.Contains(t, solved, "1A")
	assert.NotContains(t, solved, "2B")
}

func TestHTTPClient_FailedStatusIsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"FAILED","comment":"handle: User not found"}`))
	}, time.Millisecond)

	_, err := client.Submissions(context.Background(), "nobody")
	assert.Error(t, err)
}

func TestHTTPClient_SpacesUpstreamRequests(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"status":"OK","result":[]}`))
	}, 60*time.Millisecond)

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Submissions(ctx, "tourist")
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	assert.Equal(t, int64(3), hits.Load())
	// First request is immediate; the next two each wait out the spacing.
	assert.GreaterOrEqual(t, elapsed, 120*time.Millisecond)
}
