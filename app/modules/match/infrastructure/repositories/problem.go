package matchdb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func (r *Impl) SeedProblems(ctx context.Context, db bun.IDB, problems []*Problem) error {
	if len(problems) == 0 {
		return nil
	}
	if _, err := r.idb(db).NewInsert().Model(&problems).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert problems: %w", err)
	}
	return nil
}

func (r *Impl) GetActiveProblems(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]Problem, error) {
	var problems []Problem
	err := r.idb(db).NewSelect().
		Model(&problems).
		Where("match_id = ?", matchID).
		Where("active").
		Order("row ASC", "col ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active problems for match %s: %w", matchID, err)
	}
	return problems, nil
}

func (r *Impl) GetProblems(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]Problem, error) {
	var problems []Problem
	err := r.idb(db).NewSelect().
		Model(&problems).
		Where("match_id = ?", matchID).
		Order("row ASC", "col ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch problems for match %s: %w", matchID, err)
	}
	return problems, nil
}

func (r *Impl) ReplaceProblem(ctx context.Context, db bun.IDB, retiredID uuid.UUID, replacement *Problem) error {
	err := r.idb(db).RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*Problem)(nil)).
			Set("active = FALSE").
			Where("id = ?", retiredID).
			Where("active").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("retire problem %s: %w", retiredID, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			// Another poller already replaced this cell.
			return ErrNoRowsAffected
		}
		if _, err := tx.NewInsert().Model(replacement).Exec(ctx); err != nil {
			return fmt.Errorf("insert replacement problem: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace problem %s: %w", retiredID, err)
	}
	return nil
}

func (r *Impl) DeactivateProblem(ctx context.Context, db bun.IDB, id uuid.UUID) error {
	if _, err := r.idb(db).NewUpdate().
		Model((*Problem)(nil)).
		Set("active = FALSE").
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to deactivate problem %s: %w", id, err)
	}
	return nil
}
