package matchservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Solve-Wars/arena-bot/app/modules/judge"
	matchdomain "github.com/Solve-Wars/arena-bot/app/modules/match/domain"
	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
)

func twoTeams() []TeamSetup {
	return []TeamSetup{
		{Name: "red", Color: "#f00", Handles: []string{"alice"}},
		{Name: "blue", Color: "#00f", Handles: []string{"bob", "carol"}},
	}
}

func TestCreateMatchSeedsGridRowMajor(t *testing.T) {
	h := newHarness()
	h.selector.problems = []judge.CatalogProblem{
		{ContestID: 1, Index: "A", Rating: 800},
		{ContestID: 2, Index: "B", Rating: 900},
		{ContestID: 3, Index: "C", Rating: 1000},
		{ContestID: 4, Index: "D", Rating: 1100},
	}

	view, err := h.service.CreateMatch(context.Background(), CreateMatchParams{
		Mode:            matchdomain.ModeClassic,
		StartTime:       h.clock,
		DurationSeconds: 3600,
		GridSize:        2,
		MinRating:       800,
		MaxRating:       1200,
		Teams:           twoTeams(),
	})
	require.NoError(t, err)
	require.NotNil(t, view.Grid)
	require.Len(t, view.Grid.Cells, 4)

	// Row-major fill in selection order.
	positions := make(map[string][2]int)
	for _, c := range view.Grid.Cells {
		positions[c.Index] = [2]int{c.Row, c.Col}
	}
	assert.Equal(t, [2]int{0, 0}, positions["A"])
	assert.Equal(t, [2]int{0, 1}, positions["B"])
	assert.Equal(t, [2]int{1, 0}, positions["C"])
	assert.Equal(t, [2]int{1, 1}, positions["D"])

	require.Len(t, view.Teams, 2)
	assert.Equal(t, "red", view.Teams[0].Name)

	members, err := h.repo.GetMembers(context.Background(), nil, view.ID)
	require.NoError(t, err)
	assert.Len(t, members, 3)
}

func TestCreateMatchSeedsMarketPerLevel(t *testing.T) {
	h := newHarness()
	h.selector.problems = []judge.CatalogProblem{
		{ContestID: 1, Index: "A", Rating: 900},
		{ContestID: 2, Index: "B", Rating: 1000},
		{ContestID: 3, Index: "C", Rating: 1500},
		{ContestID: 4, Index: "D", Rating: 1600},
	}

	view, err := h.service.CreateMatch(context.Background(), CreateMatchParams{
		Mode:            matchdomain.ModeTTR,
		StartTime:       h.clock,
		DurationSeconds: 3600,
		GridSize:        2,
		StartingCoins:   5,
		TTRLevels: []matchdb.TTRLevel{
			{Row: 0, MinRating: 800, MaxRating: 1200, Coins: 2},
			{Row: 1, MinRating: 1300, MaxRating: 1700, Coins: 4},
		},
		Teams: twoTeams(),
	})
	require.NoError(t, err)

	problems, err := h.repo.GetActiveProblems(context.Background(), nil, view.ID)
	require.NoError(t, err)
	require.Len(t, problems, 4)

	byLevel := make(map[int][]matchdb.Problem)
	for _, p := range problems {
		byLevel[p.Level] = append(byLevel[p.Level], p)
	}
	require.Len(t, byLevel[0], 2)
	require.Len(t, byLevel[1], 2)
	for _, p := range byLevel[0] {
		assert.LessOrEqual(t, p.Rating, 1200)
	}
	for _, p := range byLevel[1] {
		assert.GreaterOrEqual(t, p.Rating, 1300)
	}

	for _, team := range view.Teams {
		assert.Equal(t, 5, team.Coins)
	}
}

func TestCreateMatchSeedsSingleTugProblem(t *testing.T) {
	h := newHarness()
	h.selector.problems = []judge.CatalogProblem{
		{ContestID: 1, Index: "A", Rating: 1000},
	}

	view, err := h.service.CreateMatch(context.Background(), CreateMatchParams{
		Mode:            matchdomain.ModeTug,
		StartTime:       h.clock,
		DurationSeconds: 3600,
		MinRating:       800,
		MaxRating:       1200,
		TugThreshold:    500,
		TugKind:         matchdomain.TugSingle,
		Teams:           twoTeams(),
	})
	require.NoError(t, err)

	problems, err := h.repo.GetActiveProblems(context.Background(), nil, view.ID)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, "1A", problems[0].Key())
}

func TestCreateMatchRejectsEmptyPool(t *testing.T) {
	h := newHarness()

	_, err := h.service.CreateMatch(context.Background(), CreateMatchParams{
		Mode:            matchdomain.ModeTug,
		StartTime:       h.clock,
		DurationSeconds: 3600,
		MinRating:       800,
		MaxRating:       1200,
		TugThreshold:    500,
		TugKind:         matchdomain.TugSingle,
		Teams:           twoTeams(),
	})
	require.ErrorIs(t, err, ErrEmptyPool)
}

func TestCreateMatchRejectsUnderfilledGrid(t *testing.T) {
	h := newHarness()
	h.selector.problems = []judge.CatalogProblem{
		{ContestID: 1, Index: "A", Rating: 900},
		{ContestID: 2, Index: "B", Rating: 1000},
	}

	_, err := h.service.CreateMatch(context.Background(), CreateMatchParams{
		Mode:            matchdomain.ModeClassic,
		StartTime:       h.clock,
		DurationSeconds: 3600,
		GridSize:        2,
		MinRating:       800,
		MaxRating:       1200,
		Teams:           twoTeams(),
	})
	require.ErrorIs(t, err, ErrEmptyPool)

	// Nothing was persisted.
	assert.Empty(t, h.repo.Matches)
}

func TestCreateMatchValidation(t *testing.T) {
	h := newHarness()
	base := CreateMatchParams{
		Mode:            matchdomain.ModeClassic,
		DurationSeconds: 3600,
		GridSize:        3,
		Teams:           twoTeams(),
	}

	tests := []struct {
		name   string
		mutate func(*CreateMatchParams)
	}{
		{"unknown mode", func(p *CreateMatchParams) { p.Mode = "golf" }},
		{"zero duration", func(p *CreateMatchParams) { p.DurationSeconds = 0 }},
		{"one team", func(p *CreateMatchParams) { p.Teams = p.Teams[:1] }},
		{"empty roster", func(p *CreateMatchParams) { p.Teams[0].Handles = nil }},
		{"grid too small", func(p *CreateMatchParams) { p.GridSize = 1 }},
		{"tug needs two teams", func(p *CreateMatchParams) {
			p.Mode = matchdomain.ModeTug
			p.TugThreshold = 500
			p.TugKind = matchdomain.TugSingle
			p.Teams = append(p.Teams, TeamSetup{Name: "green", Color: "#0f0", Handles: []string{"dave"}})
		}},
		{"tug needs threshold", func(p *CreateMatchParams) {
			p.Mode = matchdomain.ModeTug
			p.TugKind = matchdomain.TugSingle
		}},
		{"ttr needs levels", func(p *CreateMatchParams) { p.Mode = matchdomain.ModeTTR }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := base
			params.Teams = twoTeams()
			tt.mutate(&params)
			_, err := h.service.CreateMatch(context.Background(), params)
			require.Error(t, err)
		})
	}
}

func TestCreateMatchDefaultsStartTime(t *testing.T) {
	h := newHarness()
	h.selector.problems = []judge.CatalogProblem{
		{ContestID: 1, Index: "A", Rating: 800},
		{ContestID: 2, Index: "B", Rating: 900},
		{ContestID: 3, Index: "C", Rating: 1000},
		{ContestID: 4, Index: "D", Rating: 1100},
	}

	view, err := h.service.CreateMatch(context.Background(), CreateMatchParams{
		Mode:            matchdomain.ModeClassic,
		DurationSeconds: 3600,
		GridSize:        2,
		MinRating:       800,
		MaxRating:       1200,
		Teams:           twoTeams(),
	})
	require.NoError(t, err)
	assert.True(t, view.StartTime.Equal(h.clock), "zero start time falls to now")
	assert.WithinDuration(t, h.clock, view.StartTime, time.Second)
}
