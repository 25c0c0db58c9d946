package ttrservice

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Solve-Wars/arena-bot/app/modules/judge"
	matchdomain "github.com/Solve-Wars/arena-bot/app/modules/match/domain"
	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
	matchmocks "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories/mocks"
	ttrdb "github.com/Solve-Wars/arena-bot/app/modules/ttr/infrastructure/repositories"
	ttrmocks "github.com/Solve-Wars/arena-bot/app/modules/ttr/infrastructure/repositories/mocks"
	"github.com/Solve-Wars/arena-bot/internal/observability/metrics"

	"go.opentelemetry.io/otel/trace/noop"
)

// fakeSelector hands out catalog problems in order, skipping excluded keys.
type fakeSelector struct {
	problems []judge.CatalogProblem
	err      error
	calls    int
}

func (f *fakeSelector) Select(_ context.Context, minRating, maxRating int, _ []string, count int, exclude map[string]struct{}) ([]judge.CatalogProblem, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
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

func newTestService(matchRepo *matchmocks.Repository, repo *ttrmocks.Repository, sel ProblemSource) *Service {
	return NewService(
		matchRepo,
		repo,
		sel,
		slog.New(slog.DiscardHandler),
		metrics.NoOpMatchMetrics{},
		noop.NewTracerProvider().Tracer("test"),
		nil,
	)
}

// fixture is a two-team ttr match with a small map.
type fixture struct {
	matchRepo *matchmocks.Repository
	repo      *ttrmocks.Repository
	match     *matchdb.Match
	teamA     *matchdb.Team
	teamB     *matchdb.Team
}

func newFixture() *fixture {
	matchRepo := matchmocks.NewRepository()
	repo := ttrmocks.NewRepository()

	match := &matchdb.Match{
		ID:              uuid.New(),
		Mode:            matchdomain.ModeTTR,
		DurationSeconds: 7200,
		GridSize:        2,
		TTRLevels: []matchdb.TTRLevel{
			{Row: 0, MinRating: 800, MaxRating: 1200, Coins: 2},
			{Row: 1, MinRating: 1300, MaxRating: 1700, Coins: 4},
		},
	}
	matchRepo.Matches[match.ID] = match

	teamA := &matchdb.Team{ID: uuid.New(), MatchID: match.ID, Name: "red", Color: "#f00", Position: 0, Coins: 10}
	teamB := &matchdb.Team{ID: uuid.New(), MatchID: match.ID, Name: "blue", Color: "#00f", Position: 1, Coins: 10}
	matchRepo.Teams[teamA.ID] = teamA
	matchRepo.Teams[teamB.ID] = teamB

	return &fixture{matchRepo: matchRepo, repo: repo, match: match, teamA: teamA, teamB: teamB}
}

func (f *fixture) addTrack(cityA, cityB string, length int, claimedBy uuid.UUID) *ttrdb.Track {
	t := &ttrdb.Track{
		ID:      uuid.New(),
		MatchID: f.match.ID,
		CityA:   cityA,
		CityB:   cityB,
		Length:  length,
	}
	if claimedBy != uuid.Nil {
		owner := claimedBy
		t.ClaimedBy = &owner
	}
	f.repo.Tracks[t.ID] = t
	return t
}

func (f *fixture) addMarketProblem(contestID int, index string, rating, row, col int) *matchdb.Problem {
	p := &matchdb.Problem{
		ID:        uuid.New(),
		MatchID:   f.match.ID,
		ContestID: contestID,
		Index:     index,
		Rating:    rating,
		Row:       row,
		Col:       col,
		Level:     row,
		Active:    true,
	}
	f.matchRepo.Problems[p.ID] = p
	return p
}
