package matchservice

import (
	"context"
	"errors"
	"fmt"

	matchdomain "github.com/Solve-Wars/arena-bot/app/modules/match/domain"
	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
)

// applyTug accumulates the signed counter: team A (position 0) pulls
// positive by the solved problem's rating, team B pulls negative. The
// single sub-mode also replaces each solved problem from the match's own
// rating band.
func (s *MatchService) applyTug(
	ctx context.Context,
	match *matchdb.Match,
	teams []matchdb.Team,
	problems []matchdb.Problem,
	roster []RosterEntry,
	newSolves []matchdomain.NewSolve,
) error {
	if len(teams) < 2 {
		return fmt.Errorf("tug match %s has %d teams, need 2", match.ID, len(teams))
	}
	teamA := teams[0].ID
	teamB := teams[1].ID

	byKey := make(map[string]matchdb.Problem, len(problems))
	exclude := make(map[string]struct{}, len(problems))
	for _, p := range problems {
		byKey[p.Key()] = p
		exclude[p.Key()] = struct{}{}
	}
	handles := rosterHandles(roster)

	for _, solve := range newSolves {
		p, ok := byKey[problemKey(solve.ContestID, solve.Index)]
		if !ok {
			continue
		}

		var delta int
		switch solve.TeamID {
		case teamA:
			delta = p.Rating
		case teamB:
			delta = -p.Rating
		default:
			return fmt.Errorf("solve attributed to unknown team %s in tug match %s", solve.TeamID, match.ID)
		}

		counter, err := s.repo.AddTugCounter(ctx, nil, match.ID, delta)
		if err != nil {
			return err
		}
		match.TugCounter = counter
		s.logger.InfoContext(ctx, "Tug counter moved",
			attr.ExtractCorrelationID(ctx),
			attr.MatchID("match_id", match.ID),
			attr.String("problem", p.Key()),
			attr.Int("delta", delta),
			attr.Int("counter", counter),
		)

		if match.TugKind != matchdomain.TugSingle {
			continue
		}
		replacement, err := s.pickReplacement(ctx, match, match.MinRating, match.MaxRating, handles, exclude, p.Row, p.Col)
		if err != nil {
			return err
		}
		if err := s.repo.ReplaceProblem(ctx, nil, p.ID, replacement); err != nil {
			if errors.Is(err, matchdb.ErrNoRowsAffected) {
				continue
			}
			return err
		}
		exclude[replacement.Key()] = struct{}{}
	}
	return nil
}
