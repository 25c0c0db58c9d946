package bundb

import (
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
	ttrdb "github.com/Solve-Wars/arena-bot/app/modules/ttr/infrastructure/repositories"
	"github.com/Solve-Wars/arena-bot/config"
)

// DBService bundles the bun connection with the module repositories built
// on it.
type DBService struct {
	MatchDB *matchdb.Impl
	TTRDB   *ttrdb.Impl
	db      *bun.DB
}

// GetDB returns the underlying database connection pool.
func (s *DBService) GetDB() *bun.DB {
	return s.db
}

// Close closes the underlying connection pool.
func (s *DBService) Close() error {
	return s.db.Close()
}

// NewBunDBService connects to Postgres and wires the repositories.
func NewBunDBService(cfg config.PostgresConfig) (*DBService, error) {
	sqldb, err := pgConn(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	db.RegisterModel(
		&matchdb.Match{},
		&matchdb.Team{},
		&matchdb.Member{},
		&matchdb.Problem{},
		&matchdb.SolveLog{},
		&ttrdb.Track{},
		&ttrdb.Station{},
		&ttrdb.RouteCard{},
	)

	return &DBService{
		MatchDB: matchdb.New(db),
		TTRDB:   ttrdb.New(db),
		db:      db,
	}, nil
}

func pgConn(dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return sqldb, nil
}
