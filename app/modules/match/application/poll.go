package matchservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	matchdomain "github.com/Solve-Wars/arena-bot/app/modules/match/domain"
	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
)

// PollResult is what a poll call hands back to the transport layer.
type PollResult struct {
	Updated bool       `json:"updated"`
	Match   *MatchView `json:"match"`
}

// Poll drives one attribution cycle for a match: it passes the cooldown
// gate, resolves solve attribution across the roster, commits new and
// corrected solve-log entries, and dispatches new solves to the match's
// mode engine. When the gate rejects (someone polled recently), the current
// state is returned with Updated=false and nothing upstream is touched.
func (s *MatchService) Poll(ctx context.Context, matchID uuid.UUID) (PollResult, error) {
	return withTelemetry(s, ctx, "Poll", matchID, func(ctx context.Context) (PollResult, error) {
		match, err := s.repo.GetMatch(ctx, nil, matchID)
		if err != nil {
			if errors.Is(err, matchdb.ErrNotFound) {
				return PollResult{}, ErrMatchNotFound
			}
			return PollResult{}, err
		}

		passed, err := s.repo.TryMarkPolled(ctx, nil, matchID, s.cooldown)
		if err != nil {
			return PollResult{}, err
		}
		if !passed {
			s.metrics.RecordPollCooldownHit(ctx, string(match.Mode))
			view, err := s.buildView(ctx, match)
			if err != nil {
				return PollResult{}, err
			}
			return PollResult{Updated: false, Match: view}, nil
		}
		s.metrics.RecordPollAttempt(ctx, string(match.Mode))

		teams, err := s.repo.GetTeams(ctx, nil, matchID)
		if err != nil {
			return PollResult{}, err
		}
		members, err := s.repo.GetMembers(ctx, nil, matchID)
		if err != nil {
			return PollResult{}, err
		}
		// Active problems only: retired cells must never be re-attributed.
		problems, err := s.repo.GetActiveProblems(ctx, nil, matchID)
		if err != nil {
			return PollResult{}, err
		}
		log, err := s.repo.GetSolveLog(ctx, nil, matchID)
		if err != nil {
			return PollResult{}, err
		}

		tracked := make(map[string]struct{}, len(problems))
		for i := range problems {
			tracked[problems[i].Key()] = struct{}{}
		}
		roster := buildRoster(teams, members)

		window := acceptWindow{from: match.StartTime.Unix(), until: match.EndTime().Unix()}
		if cutoff := match.SolveCutoff(); !cutoff.IsZero() {
			window.until = cutoff.Unix()
		}

		claims := s.resolveClaims(ctx, tracked, roster, window)

		newSolves, err := s.commitClaims(ctx, match, claims, log)
		if err != nil {
			return PollResult{}, err
		}

		if len(newSolves) > 0 {
			if err := s.dispatch(ctx, match, teams, problems, roster, newSolves); err != nil {
				return PollResult{}, err
			}
		}

		view, err := s.buildView(ctx, match)
		if err != nil {
			return PollResult{}, err
		}
		return PollResult{Updated: true, Match: view}, nil
	})
}

// commitClaims diffs resolver output against the recorded solve log and
// applies the difference. Corrections never re-trigger engine side effects;
// they only repair attribution bookkeeping.
func (s *MatchService) commitClaims(
	ctx context.Context,
	match *matchdb.Match,
	claims map[string]matchdomain.Claim,
	log []matchdb.SolveLog,
) ([]matchdomain.NewSolve, error) {
	logByKey := make(map[string]matchdb.SolveLog, len(log))
	for _, entry := range log {
		logByKey[entry.Key()] = entry
	}

	var newSolves []matchdomain.NewSolve
	for key, claim := range claims {
		existing, recorded := logByKey[key]
		if recorded {
			// Same team, or no earlier evidence: nothing to repair.
			if claim.TeamID == existing.TeamID || claim.SolvedAt >= existing.SolvedAt {
				continue
			}
			applied, err := s.repo.CorrectSolveIfEarlier(ctx, nil, match.ID,
				existing.ContestID, existing.Index, claim.TeamID, claim.SolvedAt, claim.SubmissionID)
			if err != nil {
				return nil, err
			}
			if applied {
				s.metrics.RecordSolveCorrected(ctx, string(match.Mode))
				s.logger.InfoContext(ctx, "Solve re-attributed on earlier evidence",
					attr.ExtractCorrelationID(ctx),
					attr.MatchID("match_id", match.ID),
					attr.String("problem", key),
					attr.TeamID("team_id", claim.TeamID),
					attr.Int64("solved_at", claim.SolvedAt),
				)
			}
			continue
		}

		contestID, index, err := splitProblemKey(key)
		if err != nil {
			return nil, err
		}
		entry := &matchdb.SolveLog{
			ID:           uuid.New(),
			MatchID:      match.ID,
			ContestID:    contestID,
			Index:        index,
			TeamID:       claim.TeamID,
			SolvedAt:     claim.SolvedAt,
			SubmissionID: claim.SubmissionID,
		}
		inserted, err := s.repo.InsertSolveIfAbsent(ctx, nil, entry)
		if err != nil {
			return nil, err
		}
		if !inserted {
			// A concurrent poller won the insert race; their entry stands.
			continue
		}
		s.metrics.RecordSolveRecorded(ctx, string(match.Mode))
		s.logger.InfoContext(ctx, "Solve recorded",
			attr.ExtractCorrelationID(ctx),
			attr.MatchID("match_id", match.ID),
			attr.String("problem", key),
			attr.TeamID("team_id", claim.TeamID),
		)
		newSolves = append(newSolves, matchdomain.NewSolve{
			ContestID:    contestID,
			Index:        index,
			TeamID:       claim.TeamID,
			SolvedAt:     claim.SolvedAt,
			SubmissionID: claim.SubmissionID,
		})
	}
	return newSolves, nil
}

// dispatch hands freshly committed solves to the engine for the match's
// mode. The switch is exhaustive over the Mode enum on purpose.
func (s *MatchService) dispatch(
	ctx context.Context,
	match *matchdb.Match,
	teams []matchdb.Team,
	problems []matchdb.Problem,
	roster []RosterEntry,
	newSolves []matchdomain.NewSolve,
) error {
	switch match.Mode {
	case matchdomain.ModeClassic:
		// Claims are solely solve-log existence; nothing else to mutate.
		return nil
	case matchdomain.ModeReplace:
		return s.applyGridReplace(ctx, match, problems, roster, newSolves)
	case matchdomain.ModeTug:
		return s.applyTug(ctx, match, teams, problems, roster, newSolves)
	case matchdomain.ModeTTR:
		return s.ttrEngine.ApplySolves(ctx, match, teams, problems, newSolves)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, match.Mode)
	}
}

func buildRoster(teams []matchdb.Team, members []matchdb.Member) []RosterEntry {
	teamByID := make(map[uuid.UUID]struct{}, len(teams))
	for _, t := range teams {
		teamByID[t.ID] = struct{}{}
	}
	roster := make([]RosterEntry, 0, len(members))
	for _, m := range members {
		if _, ok := teamByID[m.TeamID]; !ok {
			continue
		}
		roster = append(roster, RosterEntry{Handle: m.Handle, TeamID: m.TeamID})
	}
	return roster
}

// splitProblemKey reconstructs (contestId, index) from a problem key.
// Claims only exist for tracked problems, and tracked keys are built from
// problem rows, so the key always round-trips.
func splitProblemKey(key string) (int, string, error) {
	contestID := 0
	i := 0
	for i < len(key) && key[i] >= '0' && key[i] <= '9' {
		contestID = contestID*10 + int(key[i]-'0')
		i++
	}
	if i == 0 || i == len(key) {
		return 0, "", fmt.Errorf("malformed problem key %q", key)
	}
	return contestID, key[i:], nil
}
