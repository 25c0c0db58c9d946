package pool

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Solve-Wars/arena-bot/app/modules/judge"
)

// fakeCatalogClient is a programmable stub for the judge Client interface.
type fakeCatalogClient struct {
	ProblemsetFunc func(ctx context.Context) ([]judge.CatalogProblem, error)
	SolvedFunc     func(ctx context.Context, handle string) (map[string]struct{}, error)
}

func (f *fakeCatalogClient) Submissions(ctx context.Context, handle string) ([]judge.Submission, error) {
	return nil, nil
}

func (f *fakeCatalogClient) Problemset(ctx context.Context) ([]judge.CatalogProblem, error) {
	if f.ProblemsetFunc != nil {
		return f.ProblemsetFunc(ctx)
	}
	return nil, nil
}

func (f *fakeCatalogClient) Solved(ctx context.Context, handle string) (map[string]struct{}, error) {
	if f.SolvedFunc != nil {
		return f.SolvedFunc(ctx, handle)
	}
	return nil, nil
}

var _ judge.Client = (*fakeCatalogClient)(nil)

func catalogProblem(contestID int, index string, rating int, tags ...string) judge.CatalogProblem {
	return judge.CatalogProblem{ContestID: contestID, Index: index, Rating: rating, Tags: tags}
}

func newTestSelector(client judge.Client) *Selector {
	s := NewSelector(client, slog.New(slog.DiscardHandler))
	// Identity shuffle keeps test expectations order-stable.
	s.shuffle = func(n int, swap func(i, j int)) {}
	return s
}

func TestSelector_FiltersBandSpecialAndExcluded(t *testing.T) {
	client := &fakeCatalogClient{
		ProblemsetFunc: func(ctx context.Context) ([]judge.CatalogProblem, error) {
			return []judge.CatalogProblem{
				catalogProblem(1, "A", 800),
				catalogProblem(2, "B", 1200),
				catalogProblem(3, "C", 1300, "*special"),
				catalogProblem(4, "D", 2400),
				catalogProblem(5, "E", 1100),
			}, nil
		},
	}
	selector := newTestSelector(client)

	got, err := selector.Select(context.Background(), 1000, 1500, nil, 2,
		map[string]struct{}{"5E": {}})
	require.NoError(t, err)

	require.Len(t, got, 2)
	keys := []string{got[0].Ref().Key(), got[1].Ref().Key()}
	assert.NotContains(t, keys, "1A", "below band")
	assert.NotContains(t, keys, "3C", "special tag")
	assert.NotContains(t, keys, "4D", "above band")
	assert.NotContains(t, keys, "5E", "excluded key")
}

func TestSelector_RemovesSolvedHistory(t *testing.T) {
	client := &fakeCatalogClient{
		ProblemsetFunc: func(ctx context.Context) ([]judge.CatalogProblem, error) {
			return []judge.CatalogProblem{
				catalogProblem(1, "A", 1200),
				catalogProblem(2, "B", 1200),
				catalogProblem(3, "C", 1200),
			}, nil
		},
		SolvedFunc: func(ctx context.Context, handle string) (map[string]struct{}, error) {
			if handle == "alice" {
				return map[string]struct{}{"1A": {}}, nil
			}
			return map[string]struct{}{"2B": {}}, nil
		},
	}
	selector := newTestSelector(client)

	got, err := selector.Select(context.Background(), 1000, 1500, []string{"alice", "bob"}, 1, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3C", got[0].Ref().Key())
}

func TestSelector_BackfillPadsFromFilteredPool(t *testing.T) {
	client := &fakeCatalogClient{
		ProblemsetFunc: func(ctx context.Context) ([]judge.CatalogProblem, error) {
			return []judge.CatalogProblem{
				catalogProblem(1, "A", 1200),
				catalogProblem(2, "B", 1200),
				catalogProblem(3, "C", 1200),
			}, nil
		},
		SolvedFunc: func(ctx context.Context, handle string) (map[string]struct{}, error) {
			return map[string]struct{}{"3C": {}}, nil
		},
	}
	selector := newTestSelector(client)

	got, err := selector.Select(context.Background(), 1000, 1500, []string{"alice"}, 5, nil)
	require.NoError(t, err)

	// 2 unsolved, padded back to 5 by cycling the rating-filtered pool from
	// index 0; padding does not re-exclude solved problems.
	require.Len(t, got, 5)
	assert.Equal(t, "1A", got[0].Ref().Key())
	assert.Equal(t, "2B", got[1].Ref().Key())
	assert.Equal(t, "1A", got[2].Ref().Key())
	assert.Equal(t, "2B", got[3].Ref().Key())
	assert.Equal(t, "3C", got[4].Ref().Key())
}

func TestSelector_EmptyBandReturnsNil(t *testing.T) {
	client := &fakeCatalogClient{
		ProblemsetFunc: func(ctx context.Context) ([]judge.CatalogProblem, error) {
			return []judge.CatalogProblem{catalogProblem(1, "A", 3000)}, nil
		},
	}
	selector := newTestSelector(client)

	got, err := selector.Select(context.Background(), 1000, 1500, nil, 3, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSelector_LargeCatalogInvariants(t *testing.T) {
	faker := gofakeit.New(42)
	catalog := make([]judge.CatalogProblem, 0, 500)
	for i := 0; i < 500; i++ {
		p := judge.CatalogProblem{
			ContestID: 1000 + i,
			Index:     string(rune('A' + i%6)),
			Name:      faker.Word(),
			Rating:    800 + 100*faker.Number(0, 27),
		}
		if faker.Number(0, 9) == 0 {
			p.Tags = []string{specialTag}
		}
		catalog = append(catalog, p)
	}
	client := &fakeCatalogClient{
		ProblemsetFunc: func(ctx context.Context) ([]judge.CatalogProblem, error) {
			return catalog, nil
		},
	}
	selector := newTestSelector(client)

	got, err := selector.Select(context.Background(), 1200, 1800, nil, 16, nil)
	require.NoError(t, err)
	require.Len(t, got, 16)

	seen := make(map[string]struct{}, len(got))
	for _, p := range got {
		assert.GreaterOrEqual(t, p.Rating, 1200)
		assert.LessOrEqual(t, p.Rating, 1800)
		assert.NotContains(t, p.Tags, specialTag)
		_, dup := seen[p.Ref().Key()]
		assert.False(t, dup, "no duplicates while the pool is plentiful")
		seen[p.Ref().Key()] = struct{}{}
	}
}

func TestSelector_SolvedFetchFailureIsNotFatal(t *testing.T) {
	client := &fakeCatalogClient{
		ProblemsetFunc: func(ctx context.Context) ([]judge.CatalogProblem, error) {
			return []judge.CatalogProblem{catalogProblem(1, "A", 1200)}, nil
		},
		SolvedFunc: func(ctx context.Context, handle string) (map[string]struct{}, error) {
			return nil, errors.New("upstream user.status returned 503")
		},
	}
	selector := newTestSelector(client)

	got, err := selector.Select(context.Background(), 1000, 1500, []string{"alice"}, 1, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
