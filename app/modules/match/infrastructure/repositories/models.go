package matchdb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	matchdomain "github.com/Solve-Wars/arena-bot/app/modules/match/domain"
)

// Match represents a single contest instance.
type Match struct {
	bun.BaseModel `bun:"table:matches,alias:m"`

	ID              uuid.UUID        `bun:"id,pk,type:uuid"`
	Mode            matchdomain.Mode `bun:"mode,notnull"`
	StartTime       time.Time        `bun:"start_time,notnull"`
	DurationSeconds int64            `bun:"duration_seconds,notnull"`
	// TimeoutSeconds, when set, stops accepting solves that many seconds
	// after start even while the match keeps running for display.
	TimeoutSeconds *int64 `bun:"timeout_seconds"`

	GridSize         int                 `bun:"grid_size,nullzero"`
	MinRating        int                 `bun:"min_rating,nullzero"`
	MaxRating        int                 `bun:"max_rating,nullzero"`
	ReplaceIncrement int                 `bun:"replace_increment,nullzero"`
	TugThreshold     int                 `bun:"tug_threshold,nullzero"`
	TugKind          matchdomain.TugKind `bun:"tug_kind,nullzero"`
	TugCounter       int                 `bun:"tug_counter"`
	TTRLevels        []TTRLevel          `bun:"ttr_levels,type:jsonb,nullzero"`

	LastPolledAt time.Time `bun:"last_polled_at,nullzero"`
	CreatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// SolveCutoff returns the last instant at which solves count, or zero when
// the match accepts solves for its whole duration.
func (m *Match) SolveCutoff() time.Time {
	if m.TimeoutSeconds == nil {
		return time.Time{}
	}
	return m.StartTime.Add(time.Duration(*m.TimeoutSeconds) * time.Second)
}

// EndTime returns when the match duration elapses.
func (m *Match) EndTime() time.Time {
	return m.StartTime.Add(time.Duration(m.DurationSeconds) * time.Second)
}

// TTRLevel defines one market row: its rating band and coin reward.
type TTRLevel struct {
	Row       int `json:"row"`
	MinRating int `json:"min_rating"`
	MaxRating int `json:"max_rating"`
	Coins     int `json:"coins"`
}

// Team belongs to exactly one match. Position 0 and 1 are team A and B in
// tug mode.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	MatchID      uuid.UUID `bun:"match_id,notnull,type:uuid"`
	Name         string    `bun:"name,notnull"`
	Color        string    `bun:"color,notnull"`
	Position     int       `bun:"position,notnull"`
	Coins        int       `bun:"coins"`
	Points       int       `bun:"points"`
	TracksUsed   int       `bun:"tracks_used"`
	StationsUsed int       `bun:"stations_used"`
}

// Member is a judge handle on a team's roster. ClaimedBy holds the session
// token of the player who claimed the handle (ttr mode only).
type Member struct {
	bun.BaseModel `bun:"table:members,alias:mb"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	TeamID       uuid.UUID `bun:"team_id,notnull,type:uuid"`
	Handle       string    `bun:"handle,notnull"`
	ClaimedBy    *string   `bun:"claimed_by"`
	LastPolledAt time.Time `bun:"last_polled_at,nullzero"`
}

// Problem is a cell of the match grid or a market entry. Replace mode
// retires the old row (active=false) and inserts a new one at the same
// position rather than mutating in place.
type Problem struct {
	bun.BaseModel `bun:"table:problems,alias:p"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	MatchID   uuid.UUID `bun:"match_id,notnull,type:uuid"`
	ContestID int       `bun:"contest_id,notnull"`
	Index     string    `bun:"problem_index,notnull"`
	Name      string    `bun:"name,nullzero"`
	Rating    int       `bun:"rating,notnull"`
	Row       int       `bun:"row"`
	Col       int       `bun:"col"`
	Level     int       `bun:"level"`
	Active    bool      `bun:"active,notnull,default:true"`
}

// Key returns the judge identity string for the problem.
func (p *Problem) Key() string {
	return fmt.Sprintf("%d%s", p.ContestID, p.Index)
}

// SolveLog is the authoritative record that a problem was attributed to a
// team. At most one row exists per (match, contest, index); corrections
// amend team/time in place, never duplicate.
type SolveLog struct {
	bun.BaseModel `bun:"table:solve_logs,alias:sl"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	MatchID      uuid.UUID `bun:"match_id,notnull,type:uuid"`
	ContestID    int       `bun:"contest_id,notnull"`
	Index        string    `bun:"problem_index,notnull"`
	TeamID       uuid.UUID `bun:"team_id,notnull,type:uuid"`
	SolvedAt     int64     `bun:"solved_at,notnull"`
	SubmissionID int64     `bun:"submission_id,notnull"`
	CreatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// Key returns the judge identity string for the solved problem.
func (s *SolveLog) Key() string {
	return fmt.Sprintf("%d%s", s.ContestID, s.Index)
}
