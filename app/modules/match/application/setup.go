package matchservice

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	matchdomain "github.com/Solve-Wars/arena-bot/app/modules/match/domain"
	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
)

// TeamSetup describes one team at match creation time.
type TeamSetup struct {
	Name    string   `json:"name"`
	Color   string   `json:"color"`
	Handles []string `json:"handles"`
}

// CreateMatchParams carries everything needed to start a match. Fields that
// do not apply to the chosen mode are ignored.
type CreateMatchParams struct {
	Mode             matchdomain.Mode    `json:"mode"`
	StartTime        time.Time           `json:"start_time"`
	DurationSeconds  int64               `json:"duration_seconds"`
	TimeoutSeconds   *int64              `json:"timeout_seconds,omitempty"`
	GridSize         int                 `json:"grid_size,omitempty"`
	MinRating        int                 `json:"min_rating,omitempty"`
	MaxRating        int                 `json:"max_rating,omitempty"`
	ReplaceIncrement int                 `json:"replace_increment,omitempty"`
	TugThreshold     int                 `json:"tug_threshold,omitempty"`
	TugKind          matchdomain.TugKind `json:"tug_kind,omitempty"`
	TTRLevels        []matchdb.TTRLevel  `json:"ttr_levels,omitempty"`
	StartingCoins    int                 `json:"starting_coins,omitempty"`
	Teams            []TeamSetup         `json:"teams"`
}

func (p CreateMatchParams) validate() error {
	if !p.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, p.Mode)
	}
	if p.DurationSeconds <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if len(p.Teams) < 2 {
		return fmt.Errorf("a match needs at least two teams")
	}
	for _, t := range p.Teams {
		if len(t.Handles) == 0 {
			return fmt.Errorf("team %q has no handles", t.Name)
		}
	}
	switch p.Mode {
	case matchdomain.ModeClassic, matchdomain.ModeReplace:
		if p.GridSize < 2 {
			return fmt.Errorf("grid matches need a grid size of at least 2")
		}
	case matchdomain.ModeTug:
		if len(p.Teams) != 2 {
			return fmt.Errorf("tug matches take exactly two teams")
		}
		if p.TugThreshold <= 0 {
			return fmt.Errorf("tug matches need a positive threshold")
		}
		if p.TugKind == matchdomain.TugGrid && p.GridSize < 2 {
			return fmt.Errorf("grid-style tug matches need a grid size of at least 2")
		}
	case matchdomain.ModeTTR:
		if len(p.TTRLevels) == 0 {
			return fmt.Errorf("ticket-to-ride matches need at least one market level")
		}
		if p.GridSize < 1 {
			return fmt.Errorf("ticket-to-ride matches need a market width of at least 1")
		}
	}
	return nil
}

// CreateMatch persists a new match, its teams and rosters, and seeds the
// problem set for the chosen mode. Grid modes fill a GridSize x GridSize
// board from the rating band; tug seeds a single problem or a grid
// depending on TugKind; ticket-to-ride seeds GridSize market problems per
// level from the level's own band.
func (s *MatchService) CreateMatch(ctx context.Context, params CreateMatchParams) (*MatchView, error) {
	matchID := uuid.New()
	return withTelemetry(s, ctx, "CreateMatch", matchID, func(ctx context.Context) (*MatchView, error) {
		if err := params.validate(); err != nil {
			return nil, err
		}

		match := &matchdb.Match{
			ID:               matchID,
			Mode:             params.Mode,
			StartTime:        params.StartTime,
			DurationSeconds:  params.DurationSeconds,
			TimeoutSeconds:   params.TimeoutSeconds,
			GridSize:         params.GridSize,
			MinRating:        params.MinRating,
			MaxRating:        params.MaxRating,
			ReplaceIncrement: params.ReplaceIncrement,
			TugThreshold:     params.TugThreshold,
			TugKind:          params.TugKind,
			TTRLevels:        params.TTRLevels,
		}
		if match.StartTime.IsZero() {
			match.StartTime = s.now()
		}

		teams := make([]*matchdb.Team, 0, len(params.Teams))
		members := make([]*matchdb.Member, 0)
		allHandles := make([]string, 0)
		for i, ts := range params.Teams {
			team := &matchdb.Team{
				ID:       uuid.New(),
				MatchID:  matchID,
				Name:     ts.Name,
				Color:    ts.Color,
				Position: i,
				Coins:    params.StartingCoins,
			}
			teams = append(teams, team)
			for _, h := range ts.Handles {
				members = append(members, &matchdb.Member{
					ID:     uuid.New(),
					TeamID: team.ID,
					Handle: h,
				})
				allHandles = append(allHandles, h)
			}
		}

		problems, err := s.seedProblems(ctx, match, allHandles)
		if err != nil {
			return nil, err
		}

		err = s.runInTx(ctx, func(ctx context.Context, db bun.IDB) error {
			if err := s.repo.CreateMatch(ctx, db, match); err != nil {
				return err
			}
			if err := s.repo.CreateTeams(ctx, db, teams); err != nil {
				return err
			}
			if err := s.repo.CreateMembers(ctx, db, members); err != nil {
				return err
			}
			if len(problems) > 0 {
				if err := s.repo.SeedProblems(ctx, db, problems); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		s.logger.InfoContext(ctx, "Match created",
			attr.ExtractCorrelationID(ctx),
			attr.MatchID("match_id", matchID),
			attr.String("mode", string(match.Mode)),
			attr.Int("teams", len(teams)),
			attr.Int("problems", len(problems)),
		)

		return s.buildView(ctx, match)
	})
}

// seedProblems picks the initial problem set for a new match.
func (s *MatchService) seedProblems(ctx context.Context, match *matchdb.Match, handles []string) ([]*matchdb.Problem, error) {
	exclude := make(map[string]struct{})

	switch match.Mode {
	case matchdomain.ModeClassic, matchdomain.ModeReplace:
		return s.seedGrid(ctx, match, handles, match.GridSize, exclude)
	case matchdomain.ModeTug:
		if match.TugKind == matchdomain.TugGrid {
			return s.seedGrid(ctx, match, handles, match.GridSize, exclude)
		}
		picked, err := s.selector.Select(ctx, match.MinRating, match.MaxRating, handles, 1, exclude)
		if err != nil {
			return nil, fmt.Errorf("seeding tug problem: %w", err)
		}
		if len(picked) == 0 {
			return nil, fmt.Errorf("%w: %d-%d", ErrEmptyPool, match.MinRating, match.MaxRating)
		}
		return []*matchdb.Problem{{
			ID:        uuid.New(),
			MatchID:   match.ID,
			ContestID: picked[0].ContestID,
			Index:     picked[0].Index,
			Name:      picked[0].Name,
			Rating:    picked[0].Rating,
			Active:    true,
		}}, nil
	case matchdomain.ModeTTR:
		problems := make([]*matchdb.Problem, 0, len(match.TTRLevels)*match.GridSize)
		for _, level := range match.TTRLevels {
			picked, err := s.selector.Select(ctx, level.MinRating, level.MaxRating, handles, match.GridSize, exclude)
			if err != nil {
				return nil, fmt.Errorf("seeding market level %d: %w", level.Row, err)
			}
			for col, cp := range picked {
				exclude[cp.Ref().Key()] = struct{}{}
				problems = append(problems, &matchdb.Problem{
					ID:        uuid.New(),
					MatchID:   match.ID,
					ContestID: cp.ContestID,
					Index:     cp.Index,
					Name:      cp.Name,
					Rating:    cp.Rating,
					Row:       level.Row,
					Col:       col,
					Level:     level.Row,
					Active:    true,
				})
			}
		}
		return problems, nil
	}
	return nil, ErrUnknownMode
}

// seedGrid fills a size x size board row-major from the match rating band.
func (s *MatchService) seedGrid(ctx context.Context, match *matchdb.Match, handles []string, size int, exclude map[string]struct{}) ([]*matchdb.Problem, error) {
	picked, err := s.selector.Select(ctx, match.MinRating, match.MaxRating, handles, size*size, exclude)
	if err != nil {
		return nil, fmt.Errorf("seeding grid: %w", err)
	}
	if len(picked) < size*size {
		return nil, fmt.Errorf("%w: %d-%d yields %d of %d cells", ErrEmptyPool, match.MinRating, match.MaxRating, len(picked), size*size)
	}
	problems := make([]*matchdb.Problem, 0, len(picked))
	for i, cp := range picked {
		problems = append(problems, &matchdb.Problem{
			ID:        uuid.New(),
			MatchID:   match.ID,
			ContestID: cp.ContestID,
			Index:     cp.Index,
			Name:      cp.Name,
			Rating:    cp.Rating,
			Row:       i / size,
			Col:       i % size,
			Active:    true,
		})
	}
	return problems, nil
}

// runInTx executes fn inside a transaction when a database handle is
// configured, and directly otherwise.
func (s *MatchService) runInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}
