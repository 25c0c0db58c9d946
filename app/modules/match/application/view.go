package matchservice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	matchdomain "github.com/Solve-Wars/arena-bot/app/modules/match/domain"
	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
	ttrdomain "github.com/Solve-Wars/arena-bot/app/modules/ttr/domain"
)

// MatchView is the presentation snapshot of a match, computed fresh from
// canonical state on every build.
type MatchView struct {
	ID              uuid.UUID        `json:"id"`
	Mode            matchdomain.Mode `json:"mode"`
	StartTime       time.Time        `json:"start_time"`
	DurationSeconds int64            `json:"duration_seconds"`
	Teams           []TeamView       `json:"teams"`
	Grid            *GridView        `json:"grid,omitempty"`
	Tug             *TugView         `json:"tug,omitempty"`
	TTR             *TTRView         `json:"ttr,omitempty"`
}

// TeamView is a team with its resource counters.
type TeamView struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Color        string    `json:"color"`
	Coins        int       `json:"coins"`
	Points       int       `json:"points"`
	TracksUsed   int       `json:"tracks_used"`
	StationsUsed int       `json:"stations_used"`
}

// GridView is the board for classic, replace, and tug-grid matches.
type GridView struct {
	Size  int                  `json:"size"`
	Cells []CellView           `json:"cells"`
	Win   *matchdomain.WinLine `json:"win,omitempty"`
}

// CellView is one active grid cell plus its attribution, if any.
type CellView struct {
	ContestID int        `json:"contest_id"`
	Index     string     `json:"index"`
	Name      string     `json:"name,omitempty"`
	Rating    int        `json:"rating"`
	Row       int        `json:"row"`
	Col       int        `json:"col"`
	OwnedBy   *uuid.UUID `json:"owned_by,omitempty"`
	SolvedAt  int64      `json:"solved_at,omitempty"`
}

// TugView is the tug counter with its win state.
type TugView struct {
	Counter   int                     `json:"counter"`
	Threshold int                     `json:"threshold"`
	Kind      matchdomain.TugKind     `json:"kind"`
	Win       *matchdomain.TugOutcome `json:"win,omitempty"`
}

// TTRView carries the per-team reachability-derived snapshots.
type TTRView struct {
	Teams []ttrdomain.TeamSnapshot `json:"teams"`
}

// GetMatch returns the current presentation snapshot without polling.
func (s *MatchService) GetMatch(ctx context.Context, matchID uuid.UUID) (*MatchView, error) {
	return withTelemetry(s, ctx, "GetMatch", matchID, func(ctx context.Context) (*MatchView, error) {
		match, err := s.repo.GetMatch(ctx, nil, matchID)
		if err != nil {
			if errors.Is(err, matchdb.ErrNotFound) {
				return nil, ErrMatchNotFound
			}
			return nil, err
		}
		return s.buildView(ctx, match)
	})
}

// buildView assembles the match view from canonical state. Nothing here is
// cached; win state, route completion, and scores are all recomputed.
func (s *MatchService) buildView(ctx context.Context, match *matchdb.Match) (*MatchView, error) {
	teams, err := s.repo.GetTeams(ctx, nil, match.ID)
	if err != nil {
		return nil, err
	}
	view := &MatchView{
		ID:              match.ID,
		Mode:            match.Mode,
		StartTime:       match.StartTime,
		DurationSeconds: match.DurationSeconds,
		Teams:           make([]TeamView, 0, len(teams)),
	}
	for _, t := range teams {
		view.Teams = append(view.Teams, TeamView{
			ID:           t.ID,
			Name:         t.Name,
			Color:        t.Color,
			Coins:        t.Coins,
			Points:       t.Points,
			TracksUsed:   t.TracksUsed,
			StationsUsed: t.StationsUsed,
		})
	}

	switch match.Mode {
	case matchdomain.ModeClassic, matchdomain.ModeReplace:
		grid, err := s.buildGridView(ctx, match)
		if err != nil {
			return nil, err
		}
		view.Grid = grid
	case matchdomain.ModeTug:
		grid, err := s.buildGridView(ctx, match)
		if err != nil {
			return nil, err
		}
		grid.Win = nil // tug win state lives in the tug view
		view.Grid = grid

		tug, err := s.buildTugView(ctx, match, teams)
		if err != nil {
			return nil, err
		}
		view.Tug = tug
	case matchdomain.ModeTTR:
		snapshots, err := s.ttrEngine.Snapshot(ctx, match, teams)
		if err != nil {
			return nil, err
		}
		view.TTR = &TTRView{Teams: snapshots}

		grid, err := s.buildGridView(ctx, match)
		if err != nil {
			return nil, err
		}
		grid.Win = nil // ttr has no line-win condition
		view.Grid = grid
	}
	return view, nil
}

// buildGridView maps solve-log attribution onto grid positions. Retired
// problems keep their position, so a position stays owned after its cell
// was replaced.
func (s *MatchService) buildGridView(ctx context.Context, match *matchdb.Match) (*GridView, error) {
	problems, err := s.repo.GetProblems(ctx, nil, match.ID)
	if err != nil {
		return nil, err
	}
	log, err := s.repo.GetSolveLog(ctx, nil, match.ID)
	if err != nil {
		return nil, err
	}

	logByKey := make(map[string]matchdb.SolveLog, len(log))
	for _, entry := range log {
		logByKey[entry.Key()] = entry
	}

	type owned struct {
		team         uuid.UUID
		solvedAt     int64
		submissionID int64
	}
	ownerAt := make(map[[2]int]owned)
	var cells []CellView
	for i := range problems {
		p := &problems[i]
		entry, solved := logByKey[p.Key()]
		if solved {
			// A retired problem and its replacement can both be solved at
			// the same position; the earliest solve owns it, submission id
			// breaking ties, so ownership never depends on row order.
			pos := [2]int{p.Row, p.Col}
			cur, seen := ownerAt[pos]
			if !seen || entry.SolvedAt < cur.solvedAt ||
				(entry.SolvedAt == cur.solvedAt && entry.SubmissionID < cur.submissionID) {
				ownerAt[pos] = owned{team: entry.TeamID, solvedAt: entry.SolvedAt, submissionID: entry.SubmissionID}
			}
		}
		if !p.Active {
			continue
		}
		cell := CellView{
			ContestID: p.ContestID,
			Index:     p.Index,
			Name:      p.Name,
			Rating:    p.Rating,
			Row:       p.Row,
			Col:       p.Col,
		}
		if solved {
			team := entry.TeamID
			cell.OwnedBy = &team
			cell.SolvedAt = entry.SolvedAt
		}
		cells = append(cells, cell)
	}

	grid := &GridView{Size: match.GridSize, Cells: cells}
	for pos, o := range ownerAt {
		// A retired cell's position counts as owned for win detection even
		// though the active cell at that position is unsolved.
		if cellIndex := findCell(cells, pos[0], pos[1]); cellIndex >= 0 && cells[cellIndex].OwnedBy == nil {
			team := o.team
			cells[cellIndex].OwnedBy = &team
			cells[cellIndex].SolvedAt = o.solvedAt
		}
	}

	grid.Win = matchdomain.DetectGridWin(match.GridSize, func(row, col int) (uuid.UUID, bool) {
		o, ok := ownerAt[[2]int{row, col}]
		return o.team, ok
	})
	return grid, nil
}

func (s *MatchService) buildTugView(ctx context.Context, match *matchdb.Match, teams []matchdb.Team) (*TugView, error) {
	if len(teams) < 2 {
		return &TugView{Counter: match.TugCounter, Threshold: match.TugThreshold, Kind: match.TugKind}, nil
	}

	allSolved := false
	if match.TugKind == matchdomain.TugGrid {
		problems, err := s.repo.GetActiveProblems(ctx, nil, match.ID)
		if err != nil {
			return nil, err
		}
		log, err := s.repo.GetSolveLog(ctx, nil, match.ID)
		if err != nil {
			return nil, err
		}
		solved := make(map[string]struct{}, len(log))
		for _, entry := range log {
			solved[entry.Key()] = struct{}{}
		}
		allSolved = len(problems) > 0
		for i := range problems {
			if _, ok := solved[problems[i].Key()]; !ok {
				allSolved = false
				break
			}
		}
	}

	win := matchdomain.EvaluateTug(matchdomain.TugState{
		Counter:   match.TugCounter,
		Threshold: match.TugThreshold,
		TeamA:     teams[0].ID,
		TeamB:     teams[1].ID,
		Kind:      match.TugKind,
		TimeUp:    s.now().After(match.EndTime()),
		AllSolved: allSolved,
	})
	return &TugView{
		Counter:   match.TugCounter,
		Threshold: match.TugThreshold,
		Kind:      match.TugKind,
		Win:       win,
	}, nil
}

func findCell(cells []CellView, row, col int) int {
	for i := range cells {
		if cells[i].Row == row && cells[i].Col == col {
			return i
		}
	}
	return -1
}
