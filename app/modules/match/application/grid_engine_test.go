package matchservice

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Solve-Wars/arena-bot/app/modules/judge"
	matchdomain "github.com/Solve-Wars/arena-bot/app/modules/match/domain"
	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
)

func activeCellAt(t *testing.T, h *harness, match *matchdb.Match, row, col int) matchdb.Problem {
	t.Helper()
	problems, err := h.repo.GetActiveProblems(context.Background(), nil, match.ID)
	require.NoError(t, err)
	for _, p := range problems {
		if p.Row == row && p.Col == col {
			return p
		}
	}
	t.Fatalf("no active cell at (%d,%d)", row, col)
	return matchdb.Problem{}
}

func TestReplaceRetiresCellAndRefillsHarder(t *testing.T) {
	h := newHarness()
	match, teamA, _ := h.seedMatch(matchdomain.ModeReplace)
	match.ReplaceIncrement = 200
	solved := h.seedProblem(match, 100, "A", 1000, 1, 2)

	h.selector.problems = []judge.CatalogProblem{
		{ContestID: 500, Index: "D", Name: "Harder", Rating: 1200},
	}
	h.feed.add("alice", accepted(1, 100, "A", solvedAt(match, 10)))

	res, err := h.service.Poll(context.Background(), match.ID)
	require.NoError(t, err)
	require.True(t, res.Updated)

	// Exactly one replacement fetch, pinned to rating+increment.
	require.Len(t, h.selector.bands, 1)
	assert.Equal(t, [2]int{1200, 1200}, h.selector.bands[0])

	cell := activeCellAt(t, h, match, 1, 2)
	assert.Equal(t, "500D", cell.Key())
	assert.Equal(t, 1200, cell.Rating)

	stored := h.repo.Problems[solved.ID]
	assert.False(t, stored.Active, "the solved cell is retired, not mutated")

	// The position stays owned by the solver in the view.
	require.NotNil(t, res.Match.Grid)
	for _, c := range res.Match.Grid.Cells {
		if c.Row == 1 && c.Col == 2 {
			require.NotNil(t, c.OwnedBy)
			assert.Equal(t, teamA.ID, *c.OwnedBy)
		}
	}
}

func TestReplaceCapsTargetRating(t *testing.T) {
	h := newHarness()
	match, _, _ := h.seedMatch(matchdomain.ModeReplace)
	match.ReplaceIncrement = 300
	h.seedProblem(match, 100, "A", 3400, 0, 0)

	h.selector.problems = []judge.CatalogProblem{
		{ContestID: 500, Index: "E", Rating: matchdomain.MaxProblemRating},
	}
	h.feed.add("alice", accepted(1, 100, "A", solvedAt(match, 10)))

	_, err := h.service.Poll(context.Background(), match.ID)
	require.NoError(t, err)

	require.Len(t, h.selector.bands, 1)
	assert.Equal(t, [2]int{matchdomain.MaxProblemRating, matchdomain.MaxProblemRating}, h.selector.bands[0])
}

func TestReplaceFallsBackToPlaceholder(t *testing.T) {
	h := newHarness()
	match, _, _ := h.seedMatch(matchdomain.ModeReplace)
	match.ReplaceIncrement = 200
	h.seedProblem(match, 100, "A", 1000, 0, 0)

	// Empty pool: nothing to refill with.
	h.feed.add("alice", accepted(1, 100, "A", solvedAt(match, 10)))

	_, err := h.service.Poll(context.Background(), match.ID)
	require.NoError(t, err)

	cell := activeCellAt(t, h, match, 0, 0)
	assert.Equal(t, 0, cell.ContestID)
	assert.True(t, strings.HasPrefix(cell.Index, "Z"))
	assert.Equal(t, 1200, cell.Rating, "placeholder carries the target rating")
}

func TestReplaceSolvedCellCannotComeBack(t *testing.T) {
	h := newHarness()
	match, _, _ := h.seedMatch(matchdomain.ModeReplace)
	match.ReplaceIncrement = 0
	h.seedProblem(match, 100, "A", 1000, 0, 0)

	// The solved problem itself is the only pool candidate at its rating;
	// the exclude set must keep it from returning to the board.
	h.selector.problems = []judge.CatalogProblem{
		{ContestID: 100, Index: "A", Rating: 1000},
	}
	h.feed.add("alice", accepted(1, 100, "A", solvedAt(match, 10)))

	_, err := h.service.Poll(context.Background(), match.ID)
	require.NoError(t, err)

	cell := activeCellAt(t, h, match, 0, 0)
	assert.NotEqual(t, "100A", cell.Key())
}
