package matchservice

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	matchdomain "github.com/Solve-Wars/arena-bot/app/modules/match/domain"
	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
)

// applyGridReplace retires each freshly solved cell and refills its grid
// position with a harder problem. The grid never grows a hole: when the
// pool comes back empty a synthetic placeholder fills the position.
func (s *MatchService) applyGridReplace(
	ctx context.Context,
	match *matchdb.Match,
	problems []matchdb.Problem,
	roster []RosterEntry,
	newSolves []matchdomain.NewSolve,
) error {
	byKey := make(map[string]matchdb.Problem, len(problems))
	exclude := make(map[string]struct{}, len(problems))
	for _, p := range problems {
		byKey[p.Key()] = p
		exclude[p.Key()] = struct{}{}
	}
	handles := rosterHandles(roster)

	for _, solve := range newSolves {
		old, ok := byKey[problemKey(solve.ContestID, solve.Index)]
		if !ok {
			// Cell already replaced by a concurrent poller.
			continue
		}

		target := old.Rating + match.ReplaceIncrement
		if target > matchdomain.MaxProblemRating {
			target = matchdomain.MaxProblemRating
		}

		replacement, err := s.pickReplacement(ctx, match, target, target, handles, exclude, old.Row, old.Col)
		if err != nil {
			return err
		}

		if err := s.repo.ReplaceProblem(ctx, nil, old.ID, replacement); err != nil {
			if errors.Is(err, matchdb.ErrNoRowsAffected) {
				// Lost the replace race; the winner's cell stands.
				continue
			}
			return err
		}
		exclude[replacement.Key()] = struct{}{}
		s.logger.InfoContext(ctx, "Grid cell replaced",
			attr.ExtractCorrelationID(ctx),
			attr.MatchID("match_id", match.ID),
			attr.String("retired", old.Key()),
			attr.String("replacement", replacement.Key()),
			attr.Int("rating", replacement.Rating),
		)
	}
	return nil
}

// pickReplacement asks the pool for one problem in [minRating, maxRating]
// and falls back to a synthetic placeholder when the pool is exhausted.
func (s *MatchService) pickReplacement(
	ctx context.Context,
	match *matchdb.Match,
	minRating, maxRating int,
	handles []string,
	exclude map[string]struct{},
	row, col int,
) (*matchdb.Problem, error) {
	picked, err := s.selector.Select(ctx, minRating, maxRating, handles, 1, exclude)
	if err != nil {
		return nil, err
	}

	replacement := &matchdb.Problem{
		ID:      uuid.New(),
		MatchID: match.ID,
		Row:     row,
		Col:     col,
		Active:  true,
	}
	if len(picked) > 0 {
		replacement.ContestID = picked[0].ContestID
		replacement.Index = picked[0].Index
		replacement.Name = picked[0].Name
		replacement.Rating = picked[0].Rating
		return replacement, nil
	}

	// Placeholder: contest 0 with an index unique within the match.
	replacement.ContestID = 0
	replacement.Index = "Z" + strings.ToUpper(uuid.NewString()[:6])
	replacement.Name = "Placeholder"
	replacement.Rating = maxRating
	s.logger.WarnContext(ctx, "Pool exhausted, inserting placeholder problem",
		attr.MatchID("match_id", match.ID),
		attr.Int("rating", maxRating),
	)
	return replacement, nil
}

func rosterHandles(roster []RosterEntry) []string {
	handles := make([]string, 0, len(roster))
	for _, entry := range roster {
		handles = append(handles, entry.Handle)
	}
	return handles
}

func problemKey(contestID int, index string) string {
	return (&matchdb.Problem{ContestID: contestID, Index: index}).Key()
}
