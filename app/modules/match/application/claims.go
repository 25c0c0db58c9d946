package matchservice

import (
	"context"
	"errors"

	"github.com/google/uuid"

	matchdomain "github.com/Solve-Wars/arena-bot/app/modules/match/domain"
	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
	"github.com/Solve-Wars/arena-bot/internal/results"
)

// ClaimHandleSuccess reports a handle bound to the caller's session.
type ClaimHandleSuccess struct {
	Handle string `json:"handle"`
}

// ClaimHandleRejected explains why a claim attempt was refused.
type ClaimHandleRejected struct {
	Reason string `json:"reason"`
}

// ClaimHandleResult is the operation envelope for ClaimHandle.
type ClaimHandleResult = results.OperationResult[ClaimHandleSuccess, ClaimHandleRejected]

// ClaimHandle binds a roster handle to a player session so the player gets
// its own poll cooldown. Only ticket-to-ride matches support claiming. A
// handle is claimed by at most one session; re-claiming with the same
// session is a no-op success.
func (s *MatchService) ClaimHandle(ctx context.Context, matchID uuid.UUID, handle, session string) (ClaimHandleResult, error) {
	return withTelemetry(s, ctx, "ClaimHandle", matchID, func(ctx context.Context) (ClaimHandleResult, error) {
		match, err := s.repo.GetMatch(ctx, nil, matchID)
		if err != nil {
			if errors.Is(err, matchdb.ErrNotFound) {
				return ClaimHandleResult{}, ErrMatchNotFound
			}
			return ClaimHandleResult{}, err
		}
		if match.Mode != matchdomain.ModeTTR {
			return ClaimHandleResult{}, ErrWrongMode
		}

		claimed, err := s.repo.ClaimMember(ctx, nil, matchID, handle, session)
		if err != nil {
			return ClaimHandleResult{}, err
		}
		if !claimed {
			return results.Fail[ClaimHandleSuccess](ClaimHandleRejected{
				Reason: "handle not on roster or already claimed",
			}), nil
		}

		s.logger.InfoContext(ctx, "Handle claimed",
			attr.ExtractCorrelationID(ctx),
			attr.MatchID("match_id", matchID),
			attr.String("handle", handle),
		)
		return results.OK[ClaimHandleSuccess, ClaimHandleRejected](ClaimHandleSuccess{Handle: handle}), nil
	})
}
