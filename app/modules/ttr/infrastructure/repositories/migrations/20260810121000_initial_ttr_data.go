package ttrmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	ttrdb "github.com/Solve-Wars/arena-bot/app/modules/ttr/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating ttr tables...")

		models := []any{
			(*ttrdb.Track)(nil),
			(*ttrdb.Station)(nil),
			(*ttrdb.RouteCard)(nil),
		}
		for _, model := range models {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS uq_stations_team_city
				ON stations(team_id, city);
			`); err != nil {
				return fmt.Errorf("failed to add stations unique index: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping ttr tables...")

		models := []any{
			(*ttrdb.RouteCard)(nil),
			(*ttrdb.Station)(nil),
			(*ttrdb.Track)(nil),
		}
		for _, model := range models {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
