package ttrservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	matchdomain "github.com/Solve-Wars/arena-bot/app/modules/match/domain"
	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
	ttrdomain "github.com/Solve-Wars/arena-bot/app/modules/ttr/domain"
	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
)

// ApplySolves settles freshly attributed market solves: each one retires
// its problem, credits the level's coin reward plus a flat score bonus, and
// refills the slot from the level's rating band. A level with no candidates
// left simply runs short; the market never gets placeholder problems.
func (s *Service) ApplySolves(ctx context.Context, match *matchdb.Match, teams []matchdb.Team, problems []matchdb.Problem, solves []matchdomain.NewSolve) error {
	if len(solves) == 0 {
		return nil
	}

	byKey := make(map[string]matchdb.Problem, len(problems))
	exclude := make(map[string]struct{}, len(problems))
	for _, p := range problems {
		byKey[p.Key()] = p
		exclude[p.Key()] = struct{}{}
	}
	levelByRow := make(map[int]matchdb.TTRLevel, len(match.TTRLevels))
	for _, lvl := range match.TTRLevels {
		levelByRow[lvl.Row] = lvl
	}
	teamsByID := make(map[uuid.UUID]*matchdb.Team, len(teams))
	for i := range teams {
		teamsByID[teams[i].ID] = &teams[i]
	}

	members, err := s.matchRepo.GetMembers(ctx, nil, match.ID)
	if err != nil {
		return fmt.Errorf("loading roster for market refill: %w", err)
	}
	handles := make([]string, 0, len(members))
	for _, m := range members {
		handles = append(handles, m.Handle)
	}

	for _, solve := range solves {
		key := fmt.Sprintf("%d%s", solve.ContestID, solve.Index)
		problem, ok := byKey[key]
		if !ok {
			// Solve landed on a problem already off the market.
			continue
		}
		level, ok := levelByRow[problem.Level]
		if !ok {
			return fmt.Errorf("problem %s references unknown market level %d", key, problem.Level)
		}
		team, ok := teamsByID[solve.TeamID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrTeamNotFound, solve.TeamID)
		}

		replacement, err := s.pickReplacement(ctx, match.ID, problem, level, handles, exclude)
		if err != nil {
			return err
		}

		err = s.runInTx(ctx, func(ctx context.Context, db bun.IDB) error {
			if replacement != nil {
				if err := s.matchRepo.ReplaceProblem(ctx, db, problem.ID, replacement); err != nil {
					return err
				}
			} else {
				if err := s.matchRepo.DeactivateProblem(ctx, db, problem.ID); err != nil {
					return err
				}
			}
			return s.matchRepo.AdjustTeamResources(ctx, db, team.ID, level.Coins, ttrdomain.MarketSolveBonus, 0)
		})
		if err != nil {
			return fmt.Errorf("settling market solve %s: %w", key, err)
		}

		delete(byKey, key)
		if replacement != nil {
			byKey[replacement.Key()] = *replacement
			exclude[replacement.Key()] = struct{}{}
		}

		s.logger.InfoContext(ctx, "Market solve settled",
			attr.ExtractCorrelationID(ctx),
			attr.MatchID("match_id", match.ID),
			attr.TeamID("team_id", team.ID),
			attr.String("problem", key),
			attr.Int("coins_awarded", level.Coins),
			attr.Bool("refilled", replacement != nil),
		)
	}
	return nil
}

// pickReplacement fetches one problem from the level's band, keeping the
// retired slot's position. Returns nil when the band has nothing left.
func (s *Service) pickReplacement(ctx context.Context, matchID uuid.UUID, retired matchdb.Problem, level matchdb.TTRLevel, handles []string, exclude map[string]struct{}) (*matchdb.Problem, error) {
	picked, err := s.selector.Select(ctx, level.MinRating, level.MaxRating, handles, 1, exclude)
	if err != nil {
		return nil, fmt.Errorf("refilling level %d: %w", level.Row, err)
	}
	if len(picked) == 0 {
		return nil, nil
	}
	return &matchdb.Problem{
		ID:        uuid.New(),
		MatchID:   matchID,
		ContestID: picked[0].ContestID,
		Index:     picked[0].Index,
		Name:      picked[0].Name,
		Rating:    picked[0].Rating,
		Row:       retired.Row,
		Col:       retired.Col,
		Level:     retired.Level,
		Active:    true,
	}, nil
}
