package matchservice

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Solve-Wars/arena-bot/app/modules/judge"
	matchdomain "github.com/Solve-Wars/arena-bot/app/modules/match/domain"
	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
)

// RosterEntry pairs a judge handle with the team it plays for.
type RosterEntry struct {
	Handle string
	TeamID uuid.UUID
}

// acceptWindow bounds which submission timestamps count toward the match.
type acceptWindow struct {
	from  int64
	until int64 // 0 means no upper bound
}

func (w acceptWindow) contains(t int64) bool {
	if t < w.from {
		return false
	}
	if w.until > 0 && t > w.until {
		return false
	}
	return true
}

// resolveClaims determines, for every tracked problem, which team's member
// first achieved an accepted verdict. Fetches fan out concurrently across
// the roster; the result carries at most one winning claim per problem,
// ordered by earliest accepted time with submission id breaking ties. The
// ordering is total, so the outcome is independent of fetch interleaving.
func (s *MatchService) resolveClaims(
	ctx context.Context,
	tracked map[string]struct{},
	roster []RosterEntry,
	window acceptWindow,
) map[string]matchdomain.Claim {
	claims := make(map[string]matchdomain.Claim, len(tracked))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range roster {
		g.Go(func() error {
			// Recent never fails; a broken upstream yields an empty list.
			subs := s.feed.Recent(gctx, entry.Handle)
			for _, sub := range subs {
				if sub.Verdict != judge.VerdictOK {
					continue
				}
				key := sub.Problem.Key()
				if _, ok := tracked[key]; !ok {
					continue
				}
				if !window.contains(sub.CreationTimeSeconds) {
					continue
				}
				candidate := matchdomain.Claim{
					TeamID:       entry.TeamID,
					SolvedAt:     sub.CreationTimeSeconds,
					SubmissionID: sub.ID,
				}
				mu.Lock()
				if existing, ok := claims[key]; !ok || candidate.Better(existing) {
					claims[key] = candidate
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Unreachable today: fetches fail open. Kept so a future fallible
		// fetch path cannot silently drop claims.
		s.logger.WarnContext(ctx, "Attribution fan-out aborted", attr.Error(err))
	}
	return claims
}
