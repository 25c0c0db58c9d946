package matchdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func (r *Impl) GetSolveLog(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]SolveLog, error) {
	var entries []SolveLog
	err := r.idb(db).NewSelect().
		Model(&entries).
		Where("match_id = ?", matchID).
		Order("solved_at ASC", "submission_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch solve log for match %s: %w", matchID, err)
	}
	return entries, nil
}

// InsertSolveIfAbsent is the idempotency boundary for solve attribution.
// The existence check and insert run in one transaction, and the insert
// additionally carries ON CONFLICT DO NOTHING so two pollers racing past
// the check can never both commit a row for the same problem.
func (r *Impl) InsertSolveIfAbsent(ctx context.Context, db bun.IDB, entry *SolveLog) (bool, error) {
	inserted := false
	err := r.idb(db).RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*SolveLog)(nil)).
			Where("match_id = ?", entry.MatchID).
			Where("contest_id = ?", entry.ContestID).
			Where("problem_index = ?", entry.Index).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check existing solve: %w", err)
		}
		if exists {
			return nil
		}
		res, err := tx.NewInsert().
			Model(entry).
			On("CONFLICT (match_id, contest_id, problem_index) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert solve: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		inserted = rows > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to record solve %s for match %s: %w", entry.Key(), entry.MatchID, err)
	}
	return inserted, nil
}

// CorrectSolveIfEarlier re-verifies inside the transaction that the stored
// time is still later than the new evidence before overwriting, so a stale
// correction racing a fresher one becomes a no-op.
func (r *Impl) CorrectSolveIfEarlier(ctx context.Context, db bun.IDB, matchID uuid.UUID, contestID int, index string, teamID uuid.UUID, solvedAt, submissionID int64) (bool, error) {
	corrected := false
	err := r.idb(db).RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var entry SolveLog
		err := tx.NewSelect().
			Model(&entry).
			Where("match_id = ?", matchID).
			Where("contest_id = ?", contestID).
			Where("problem_index = ?", index).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("fetch solve for correction: %w", err)
		}
		if solvedAt >= entry.SolvedAt {
			return nil
		}
		if _, err := tx.NewUpdate().
			Model((*SolveLog)(nil)).
			Set("team_id = ?", teamID).
			Set("solved_at = ?", solvedAt).
			Set("submission_id = ?", submissionID).
			Where("id = ?", entry.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("apply correction: %w", err)
		}
		corrected = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to correct solve %d%s for match %s: %w", contestID, index, matchID, err)
	}
	return corrected, nil
}
