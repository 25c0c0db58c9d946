package matchdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository is the transactional store for matches, teams, rosters,
// problems, and the solve log. Every method takes an optional bun.IDB so
// callers can pass a transaction; nil falls back to the repository's DB.
type Repository interface {
	CreateMatch(ctx context.Context, db bun.IDB, match *Match) error
	GetMatch(ctx context.Context, db bun.IDB, id uuid.UUID) (*Match, error)

	// TryMarkPolled atomically stamps last_polled_at if the previous stamp
	// is older than window. Returns false when someone else polled recently.
	TryMarkPolled(ctx context.Context, db bun.IDB, id uuid.UUID, window time.Duration) (bool, error)

	// AddTugCounter adds delta to the match's tug counter and returns the
	// new value.
	AddTugCounter(ctx context.Context, db bun.IDB, id uuid.UUID, delta int) (int, error)

	CreateTeams(ctx context.Context, db bun.IDB, teams []*Team) error
	GetTeams(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]Team, error)
	GetTeam(ctx context.Context, db bun.IDB, id uuid.UUID) (*Team, error)

	// DebitTrackClaim atomically spends length coins and books the points
	// and track length, but only while the team can afford it and stays
	// within lengthCap. Returns the remaining coins and whether it applied.
	DebitTrackClaim(ctx context.Context, db bun.IDB, teamID uuid.UUID, length, points, lengthCap int) (int, bool, error)

	// DebitStationPlacement atomically charges stations_used+1 coins and
	// increments the station count, but only while the team has coins and
	// stations left. Returns the remaining coins and the new station count.
	DebitStationPlacement(ctx context.Context, db bun.IDB, teamID uuid.UUID, maxStations int) (int, int, bool, error)

	// AdjustTeamResources adds the given deltas to a team's counters in one
	// statement. Used for market credits and for refunding a lost race.
	AdjustTeamResources(ctx context.Context, db bun.IDB, teamID uuid.UUID, coins, points, trackLength int) error

	CreateMembers(ctx context.Context, db bun.IDB, members []*Member) error
	GetMembers(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]Member, error)

	// ClaimMember binds a handle to a session token. Fails closed when the
	// handle is already claimed by a different session.
	ClaimMember(ctx context.Context, db bun.IDB, matchID uuid.UUID, handle, session string) (bool, error)

	SeedProblems(ctx context.Context, db bun.IDB, problems []*Problem) error
	GetActiveProblems(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]Problem, error)

	// GetProblems returns every problem row, retired included. Views need
	// retired rows to map solve-log entries back to grid positions.
	GetProblems(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]Problem, error)

	// ReplaceProblem retires the given problem row and inserts its
	// replacement in one transaction.
	ReplaceProblem(ctx context.Context, db bun.IDB, retiredID uuid.UUID, replacement *Problem) error

	// DeactivateProblem retires a problem row with no replacement.
	DeactivateProblem(ctx context.Context, db bun.IDB, id uuid.UUID) error

	GetSolveLog(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]SolveLog, error)

	// InsertSolveIfAbsent inserts the entry unless one already exists for
	// its (match, contest, index). Returns whether the insert happened.
	InsertSolveIfAbsent(ctx context.Context, db bun.IDB, entry *SolveLog) (bool, error)

	// CorrectSolveIfEarlier re-attributes an existing entry when solvedAt is
	// strictly earlier than the recorded time. Returns whether it applied.
	CorrectSolveIfEarlier(ctx context.Context, db bun.IDB, matchID uuid.UUID, contestID int, index string, teamID uuid.UUID, solvedAt, submissionID int64) (bool, error)
}
