package matchservice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Solve-Wars/arena-bot/app/modules/judge"
	matchdomain "github.com/Solve-Wars/arena-bot/app/modules/match/domain"
	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
	"github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories/mocks"
	ttrdomain "github.com/Solve-Wars/arena-bot/app/modules/ttr/domain"
	"github.com/Solve-Wars/arena-bot/internal/observability/metrics"
)

// fakeFeed serves canned submission lists per handle and counts fetches.
type fakeFeed struct {
	mu    sync.Mutex
	subs  map[string][]judge.Submission
	calls int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{subs: make(map[string][]judge.Submission)}
}

func (f *fakeFeed) Recent(_ context.Context, handle string) []judge.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.subs[handle]
}

func (f *fakeFeed) add(handle string, sub judge.Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[handle] = append(f.subs[handle], sub)
}

func (f *fakeFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func accepted(id int64, contestID int, index string, at int64) judge.Submission {
	return judge.Submission{
		ID:                  id,
		CreationTimeSeconds: at,
		Problem:             judge.ProblemRef{ContestID: contestID, Index: index},
		Verdict:             judge.VerdictOK,
	}
}

// fakeSelector hands out catalog problems in rating order, skipping
// excluded keys.
type fakeSelector struct {
	mu       sync.Mutex
	problems []judge.CatalogProblem
	bands    [][2]int
}

func (f *fakeSelector) Select(_ context.Context, minRating, maxRating int, _ []string, count int, exclude map[string]struct{}) ([]judge.CatalogProblem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bands = append(f.bands, [2]int{minRating, maxRating})
	var out []judge.CatalogProblem
	for _, p := range f.problems {
		if p.Rating < minRating || p.Rating > maxRating {
			continue
		}
		if _, skip := exclude[p.Ref().Key()]; skip {
			continue
		}
		out = append(out, p)
		if len(out) == count {
			break
		}
	}
	return out, nil
}

// fakeTTREngine records dispatched solves and serves canned snapshots.
type fakeTTREngine struct {
	mu        sync.Mutex
	applied   [][]matchdomain.NewSolve
	snapshots []ttrdomain.TeamSnapshot
}

func (f *fakeTTREngine) ApplySolves(_ context.Context, _ *matchdb.Match, _ []matchdb.Team, _ []matchdb.Problem, solves []matchdomain.NewSolve) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, solves)
	return nil
}

func (f *fakeTTREngine) Snapshot(_ context.Context, _ *matchdb.Match, _ []matchdb.Team) ([]ttrdomain.TeamSnapshot, error) {
	return f.snapshots, nil
}

// harness bundles a service with its fakes and a controllable clock.
type harness struct {
	repo     *mocks.Repository
	feed     *fakeFeed
	selector *fakeSelector
	ttr      *fakeTTREngine
	service  *MatchService
	clock    time.Time
}

func newHarness() *harness {
	h := &harness{
		repo:     mocks.NewRepository(),
		feed:     newFakeFeed(),
		selector: &fakeSelector{},
		ttr:      &fakeTTREngine{},
		clock:    time.Unix(1_000_000, 0),
	}
	h.repo.Now = func() time.Time { return h.clock }
	h.service = NewMatchService(
		h.repo,
		h.feed,
		h.selector,
		h.ttr,
		slog.New(slog.DiscardHandler),
		metrics.NoOpMatchMetrics{},
		noop.NewTracerProvider().Tracer("test"),
		nil,
		30*time.Second,
	)
	h.service.now = func() time.Time { return h.clock }
	return h
}

func (h *harness) advance(d time.Duration) {
	h.clock = h.clock.Add(d)
}

// seedMatch stores a match starting an hour before the harness clock, two
// teams, and one handle per team.
func (h *harness) seedMatch(mode matchdomain.Mode) (*matchdb.Match, *matchdb.Team, *matchdb.Team) {
	match := &matchdb.Match{
		ID:              uuid.New(),
		Mode:            mode,
		StartTime:       h.clock.Add(-time.Hour),
		DurationSeconds: 7200,
		GridSize:        3,
		MinRating:       800,
		MaxRating:       1600,
	}
	h.repo.Matches[match.ID] = match

	teamA := &matchdb.Team{ID: uuid.New(), MatchID: match.ID, Name: "red", Color: "#f00", Position: 0}
	teamB := &matchdb.Team{ID: uuid.New(), MatchID: match.ID, Name: "blue", Color: "#00f", Position: 1}
	h.repo.Teams[teamA.ID] = teamA
	h.repo.Teams[teamB.ID] = teamB
	h.repo.Members = append(h.repo.Members,
		&matchdb.Member{ID: uuid.New(), TeamID: teamA.ID, Handle: "alice"},
		&matchdb.Member{ID: uuid.New(), TeamID: teamB.ID, Handle: "bob"},
	)
	return match, teamA, teamB
}

func (h *harness) seedProblem(match *matchdb.Match, contestID int, index string, rating, row, col int) *matchdb.Problem {
	p := &matchdb.Problem{
		ID:        uuid.New(),
		MatchID:   match.ID,
		ContestID: contestID,
		Index:     index,
		Rating:    rating,
		Row:       row,
		Col:       col,
		Active:    true,
	}
	h.repo.Problems[p.ID] = p
	return p
}

// solvedAt returns a submission timestamp n seconds into the match.
func solvedAt(match *matchdb.Match, n int64) int64 {
	return match.StartTime.Unix() + n
}
