// Package pool selects replacement problems from the judge catalog.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Solve-Wars/arena-bot/app/modules/judge"
	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
)

// specialTag marks non-standard problems (April fools, unrated gimmicks)
// that never enter a match.
const specialTag = "*special"

// Selector picks problems from the judge catalog filtered by rating band,
// exclusion set, and the roster's solved history.
type Selector struct {
	client  judge.Client
	logger  *slog.Logger
	shuffle func(n int, swap func(i, j int))
}

// NewSelector builds a Selector.
func NewSelector(client judge.Client, logger *slog.Logger) *Selector {
	return &Selector{
		client:  client,
		logger:  logger,
		shuffle: rand.Shuffle,
	}
}

// Select returns count problems with rating in [minRating, maxRating] whose
// keys are not in exclude and which none of the handles has already solved.
//
// When the unsolved pool falls short, the shortfall is padded by cycling
// through the rating-filtered pool from index 0, wrapping, without
// re-excluding solved problems. Padding may therefore hand back problems a
// player has solved before; this leniency is deliberate so a selection of
// exactly count problems is always available.
func (s *Selector) Select(ctx context.Context, minRating, maxRating int, handles []string, count int, exclude map[string]struct{}) ([]judge.CatalogProblem, error) {
	if count <= 0 {
		return nil, nil
	}

	catalog, err := s.client.Problemset(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch problemset: %w", err)
	}

	filtered := make([]judge.CatalogProblem, 0, 64)
	for _, p := range catalog {
		if p.Rating < minRating || p.Rating > maxRating {
			continue
		}
		if hasTag(p.Tags, specialTag) {
			continue
		}
		if _, excluded := exclude[p.Ref().Key()]; excluded {
			continue
		}
		filtered = append(filtered, p)
	}
	if len(filtered) == 0 {
		s.logger.WarnContext(ctx, "No catalog problems in rating band",
			attr.Int("min_rating", minRating),
			attr.Int("max_rating", maxRating),
		)
		return nil, nil
	}

	solved, err := s.solvedUnion(ctx, handles)
	if err != nil {
		return nil, err
	}

	candidates := make([]judge.CatalogProblem, 0, len(filtered))
	for _, p := range filtered {
		if _, done := solved[p.Ref().Key()]; done {
			continue
		}
		candidates = append(candidates, p)
	}

	for i := 0; len(candidates) < count; i++ {
		candidates = append(candidates, filtered[i%len(filtered)])
	}

	s.shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates, nil
}

// solvedUnion fetches each handle's accepted history concurrently and unions
// the keys.
func (s *Selector) solvedUnion(ctx context.Context, handles []string) (map[string]struct{}, error) {
	solved := make(map[string]struct{})
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, handle := range handles {
		g.Go(func() error {
			keys, err := s.client.Solved(ctx, handle)
			if err != nil {
				// Same fail-open stance as the feed adapter: an unreadable
				// history only weakens dedup, it never blocks selection.
				s.logger.WarnContext(ctx, "Solved history fetch failed, skipping handle",
					attr.String("handle", handle),
					attr.Error(err),
				)
				return nil
			}
			mu.Lock()
			for k := range keys {
				solved[k] = struct{}{}
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return solved, nil
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
