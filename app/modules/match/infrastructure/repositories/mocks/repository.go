// Package mocks provides an in-memory Repository for service tests. It
// mirrors the conditional-write semantics of the real store so tests can
// exercise races, idempotency, and corrections without a database.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
)

// Repository is an in-memory matchdb.Repository. FailOn maps a method name
// to an error that method returns instead of running; Calls records every
// method invocation in order.
type Repository struct {
	mu sync.Mutex

	Matches  map[uuid.UUID]*matchdb.Match
	Teams    map[uuid.UUID]*matchdb.Team
	Members  []*matchdb.Member
	Problems map[uuid.UUID]*matchdb.Problem
	Solves   map[string]*matchdb.SolveLog

	Calls  []string
	FailOn map[string]error
	Now    func() time.Time
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		Matches:  make(map[uuid.UUID]*matchdb.Match),
		Teams:    make(map[uuid.UUID]*matchdb.Team),
		Problems: make(map[uuid.UUID]*matchdb.Problem),
		Solves:   make(map[string]*matchdb.SolveLog),
		FailOn:   make(map[string]error),
		Now:      time.Now,
	}
}

func (r *Repository) enter(method string) error {
	r.Calls = append(r.Calls, method)
	return r.FailOn[method]
}

func solveKey(matchID uuid.UUID, contestID int, index string) string {
	return matchID.String() + "|" + (&matchdb.SolveLog{ContestID: contestID, Index: index}).Key()
}

func (r *Repository) CreateMatch(_ context.Context, _ bun.IDB, match *matchdb.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CreateMatch"); err != nil {
		return err
	}
	cp := *match
	r.Matches[match.ID] = &cp
	return nil
}

func (r *Repository) GetMatch(_ context.Context, _ bun.IDB, id uuid.UUID) (*matchdb.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetMatch"); err != nil {
		return nil, err
	}
	m, ok := r.Matches[id]
	if !ok {
		return nil, matchdb.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *Repository) TryMarkPolled(_ context.Context, _ bun.IDB, id uuid.UUID, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("TryMarkPolled"); err != nil {
		return false, err
	}
	m, ok := r.Matches[id]
	if !ok {
		return false, matchdb.ErrNotFound
	}
	now := r.Now()
	if !m.LastPolledAt.IsZero() && now.Sub(m.LastPolledAt) < window {
		return false, nil
	}
	m.LastPolledAt = now
	return true, nil
}

func (r *Repository) AddTugCounter(_ context.Context, _ bun.IDB, id uuid.UUID, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("AddTugCounter"); err != nil {
		return 0, err
	}
	m, ok := r.Matches[id]
	if !ok {
		return 0, matchdb.ErrNotFound
	}
	m.TugCounter += delta
	return m.TugCounter, nil
}

func (r *Repository) CreateTeams(_ context.Context, _ bun.IDB, teams []*matchdb.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CreateTeams"); err != nil {
		return err
	}
	for _, t := range teams {
		cp := *t
		r.Teams[t.ID] = &cp
	}
	return nil
}

func (r *Repository) GetTeams(_ context.Context, _ bun.IDB, matchID uuid.UUID) ([]matchdb.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetTeams"); err != nil {
		return nil, err
	}
	var out []matchdb.Team
	for _, t := range r.Teams {
		if t.MatchID == matchID {
			out = append(out, *t)
		}
	}
	sortTeams(out)
	return out, nil
}

func (r *Repository) GetTeam(_ context.Context, _ bun.IDB, id uuid.UUID) (*matchdb.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetTeam"); err != nil {
		return nil, err
	}
	t, ok := r.Teams[id]
	if !ok {
		return nil, matchdb.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *Repository) DebitTrackClaim(_ context.Context, _ bun.IDB, teamID uuid.UUID, length, points, lengthCap int) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("DebitTrackClaim"); err != nil {
		return 0, false, err
	}
	t, ok := r.Teams[teamID]
	if !ok || t.Coins < length || t.TracksUsed+length > lengthCap {
		return 0, false, nil
	}
	t.Coins -= length
	t.Points += points
	t.TracksUsed += length
	return t.Coins, true, nil
}

func (r *Repository) DebitStationPlacement(_ context.Context, _ bun.IDB, teamID uuid.UUID, maxStations int) (int, int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("DebitStationPlacement"); err != nil {
		return 0, 0, false, err
	}
	t, ok := r.Teams[teamID]
	if !ok || t.StationsUsed >= maxStations || t.Coins < t.StationsUsed+1 {
		return 0, 0, false, nil
	}
	t.Coins -= t.StationsUsed + 1
	t.StationsUsed++
	return t.Coins, t.StationsUsed, true, nil
}

func (r *Repository) AdjustTeamResources(_ context.Context, _ bun.IDB, teamID uuid.UUID, coins, points, trackLength int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("AdjustTeamResources"); err != nil {
		return err
	}
	t, ok := r.Teams[teamID]
	if !ok {
		return matchdb.ErrNoRowsAffected
	}
	t.Coins += coins
	t.Points += points
	t.TracksUsed += trackLength
	return nil
}

func (r *Repository) CreateMembers(_ context.Context, _ bun.IDB, members []*matchdb.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CreateMembers"); err != nil {
		return err
	}
	for _, m := range members {
		cp := *m
		r.Members = append(r.Members, &cp)
	}
	return nil
}

func (r *Repository) GetMembers(_ context.Context, _ bun.IDB, matchID uuid.UUID) ([]matchdb.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetMembers"); err != nil {
		return nil, err
	}
	var out []matchdb.Member
	for _, m := range r.Members {
		team, ok := r.Teams[m.TeamID]
		if ok && team.MatchID == matchID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *Repository) ClaimMember(_ context.Context, _ bun.IDB, matchID uuid.UUID, handle, session string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("ClaimMember"); err != nil {
		return false, err
	}
	for _, m := range r.Members {
		team, ok := r.Teams[m.TeamID]
		if !ok || team.MatchID != matchID || m.Handle != handle {
			continue
		}
		if m.ClaimedBy != nil {
			return *m.ClaimedBy == session, nil
		}
		m.ClaimedBy = &session
		return true, nil
	}
	return false, nil
}

func (r *Repository) SeedProblems(_ context.Context, _ bun.IDB, problems []*matchdb.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("SeedProblems"); err != nil {
		return err
	}
	for _, p := range problems {
		cp := *p
		r.Problems[p.ID] = &cp
	}
	return nil
}

func (r *Repository) GetActiveProblems(_ context.Context, _ bun.IDB, matchID uuid.UUID) ([]matchdb.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetActiveProblems"); err != nil {
		return nil, err
	}
	var out []matchdb.Problem
	for _, p := range r.Problems {
		if p.MatchID == matchID && p.Active {
			out = append(out, *p)
		}
	}
	sortProblems(out)
	return out, nil
}

func (r *Repository) GetProblems(_ context.Context, _ bun.IDB, matchID uuid.UUID) ([]matchdb.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetProblems"); err != nil {
		return nil, err
	}
	var out []matchdb.Problem
	for _, p := range r.Problems {
		if p.MatchID == matchID {
			out = append(out, *p)
		}
	}
	sortProblems(out)
	return out, nil
}

func (r *Repository) ReplaceProblem(_ context.Context, _ bun.IDB, retiredID uuid.UUID, replacement *matchdb.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("ReplaceProblem"); err != nil {
		return err
	}
	old, ok := r.Problems[retiredID]
	if !ok || !old.Active {
		return matchdb.ErrNoRowsAffected
	}
	old.Active = false
	cp := *replacement
	cp.Active = true
	r.Problems[cp.ID] = &cp
	return nil
}

func (r *Repository) DeactivateProblem(_ context.Context, _ bun.IDB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("DeactivateProblem"); err != nil {
		return err
	}
	p, ok := r.Problems[id]
	if !ok || !p.Active {
		return matchdb.ErrNoRowsAffected
	}
	p.Active = false
	return nil
}

func (r *Repository) GetSolveLog(_ context.Context, _ bun.IDB, matchID uuid.UUID) ([]matchdb.SolveLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetSolveLog"); err != nil {
		return nil, err
	}
	var out []matchdb.SolveLog
	for _, s := range r.Solves {
		if s.MatchID == matchID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *Repository) InsertSolveIfAbsent(_ context.Context, _ bun.IDB, entry *matchdb.SolveLog) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("InsertSolveIfAbsent"); err != nil {
		return false, err
	}
	key := solveKey(entry.MatchID, entry.ContestID, entry.Index)
	if _, exists := r.Solves[key]; exists {
		return false, nil
	}
	cp := *entry
	r.Solves[key] = &cp
	return true, nil
}

func (r *Repository) CorrectSolveIfEarlier(_ context.Context, _ bun.IDB, matchID uuid.UUID, contestID int, index string, teamID uuid.UUID, solvedAt, submissionID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CorrectSolveIfEarlier"); err != nil {
		return false, err
	}
	s, ok := r.Solves[solveKey(matchID, contestID, index)]
	if !ok || solvedAt >= s.SolvedAt {
		return false, nil
	}
	s.TeamID = teamID
	s.SolvedAt = solvedAt
	s.SubmissionID = submissionID
	return true, nil
}

// CallCount returns how many times method was invoked.
func (r *Repository) CallCount(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func sortTeams(teams []matchdb.Team) {
	sort.Slice(teams, func(i, j int) bool { return teams[i].Position < teams[j].Position })
}

func sortProblems(problems []matchdb.Problem) {
	sort.Slice(problems, func(i, j int) bool {
		a, b := problems[i], problems[j]
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return a.Key() < b.Key()
	})
}
