package matchmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating match tables...")

		models := []any{
			(*matchdb.Match)(nil),
			(*matchdb.Team)(nil),
			(*matchdb.Member)(nil),
			(*matchdb.Problem)(nil),
			(*matchdb.SolveLog)(nil),
		}
		for _, model := range models {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			// One solve-log entry per problem per match is the core
			// correctness invariant; the insert path relies on this index.
			if _, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS uq_solve_logs_match_problem
				ON solve_logs(match_id, contest_id, problem_index);
			`); err != nil {
				return fmt.Errorf("failed to add solve_logs unique index: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS uq_problems_active_key
				ON problems(match_id, contest_id, problem_index) WHERE active;
			`); err != nil {
				return fmt.Errorf("failed to add problems partial unique index: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS uq_teams_match_name
				ON teams(match_id, name);
			`); err != nil {
				return fmt.Errorf("failed to add teams name index: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS uq_teams_match_color
				ON teams(match_id, color);
			`); err != nil {
				return fmt.Errorf("failed to add teams color index: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping match tables...")

		models := []any{
			(*matchdb.SolveLog)(nil),
			(*matchdb.Problem)(nil),
			(*matchdb.Member)(nil),
			(*matchdb.Team)(nil),
			(*matchdb.Match)(nil),
		}
		for _, model := range models {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
