package matchdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impl implements Repository on bun.
type Impl struct {
	db *bun.DB
}

// New builds the repository.
func New(db *bun.DB) *Impl {
	return &Impl{db: db}
}

var _ Repository = (*Impl)(nil)

func (r *Impl) idb(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) CreateMatch(ctx context.Context, db bun.IDB, match *Match) error {
	if _, err := r.idb(db).NewInsert().Model(match).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert match %s: %w", match.ID, err)
	}
	return nil
}

func (r *Impl) GetMatch(ctx context.Context, db bun.IDB, id uuid.UUID) (*Match, error) {
	match := new(Match)
	err := r.idb(db).NewSelect().
		Model(match).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch match %s: %w", id, err)
	}
	return match, nil
}

func (r *Impl) TryMarkPolled(ctx context.Context, db bun.IDB, id uuid.UUID, window time.Duration) (bool, error) {
	now := time.Now().UTC()
	res, err := r.idb(db).NewUpdate().
		Model((*Match)(nil)).
		Set("last_polled_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("last_polled_at IS NULL OR last_polled_at <= ?", now.Add(-window)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to stamp last_polled_at for match %s: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *Impl) AddTugCounter(ctx context.Context, db bun.IDB, id uuid.UUID, delta int) (int, error) {
	var counter int
	_, err := r.idb(db).NewUpdate().
		Model((*Match)(nil)).
		Set("tug_counter = tug_counter + ?", delta).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Returning("tug_counter").
		Exec(ctx, &counter)
	if err != nil {
		return 0, fmt.Errorf("failed to update tug counter for match %s: %w", id, err)
	}
	return counter, nil
}

func (r *Impl) CreateTeams(ctx context.Context, db bun.IDB, teams []*Team) error {
	if len(teams) == 0 {
		return nil
	}
	if _, err := r.idb(db).NewInsert().Model(&teams).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert teams: %w", err)
	}
	return nil
}

func (r *Impl) GetTeams(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]Team, error) {
	var teams []Team
	err := r.idb(db).NewSelect().
		Model(&teams).
		Where("match_id = ?", matchID).
		Order("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teams for match %s: %w", matchID, err)
	}
	return teams, nil
}

func (r *Impl) GetTeam(ctx context.Context, db bun.IDB, id uuid.UUID) (*Team, error) {
	team := new(Team)
	err := r.idb(db).NewSelect().
		Model(team).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch team %s: %w", id, err)
	}
	return team, nil
}

func (r *Impl) DebitTrackClaim(ctx context.Context, db bun.IDB, teamID uuid.UUID, length, points, lengthCap int) (int, bool, error) {
	var coins int
	_, err := r.idb(db).NewUpdate().
		Model((*Team)(nil)).
		Set("coins = coins - ?", length).
		Set("points = points + ?", points).
		Set("tracks_used = tracks_used + ?", length).
		Where("id = ?", teamID).
		Where("coins >= ?", length).
		Where("tracks_used + ? <= ?", length, lengthCap).
		Returning("coins").
		Exec(ctx, &coins)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to debit team %s for track claim: %w", teamID, err)
	}
	return coins, true, nil
}

func (r *Impl) DebitStationPlacement(ctx context.Context, db bun.IDB, teamID uuid.UUID, maxStations int) (int, int, bool, error) {
	var coins, stationsUsed int
	_, err := r.idb(db).NewUpdate().
		Model((*Team)(nil)).
		Set("coins = coins - (stations_used + 1)").
		Set("stations_used = stations_used + 1").
		Where("id = ?", teamID).
		Where("stations_used < ?", maxStations).
		Where("coins >= stations_used + 1").
		Returning("coins, stations_used").
		Exec(ctx, &coins, &stationsUsed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, false, nil
		}
		return 0, 0, false, fmt.Errorf("failed to debit team %s for station: %w", teamID, err)
	}
	return coins, stationsUsed, true, nil
}

func (r *Impl) AdjustTeamResources(ctx context.Context, db bun.IDB, teamID uuid.UUID, coins, points, trackLength int) error {
	res, err := r.idb(db).NewUpdate().
		Model((*Team)(nil)).
		Set("coins = coins + ?", coins).
		Set("points = points + ?", points).
		Set("tracks_used = tracks_used + ?", trackLength).
		Where("id = ?", teamID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to adjust resources for team %s: %w", teamID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *Impl) CreateMembers(ctx context.Context, db bun.IDB, members []*Member) error {
	if len(members) == 0 {
		return nil
	}
	if _, err := r.idb(db).NewInsert().Model(&members).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert members: %w", err)
	}
	return nil
}

func (r *Impl) GetMembers(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]Member, error) {
	var members []Member
	err := r.idb(db).NewSelect().
		Model(&members).
		Join("JOIN teams AS t ON t.id = mb.team_id").
		Where("t.match_id = ?", matchID).
		Order("mb.handle ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members for match %s: %w", matchID, err)
	}
	return members, nil
}

func (r *Impl) ClaimMember(ctx context.Context, db bun.IDB, matchID uuid.UUID, handle, session string) (bool, error) {
	res, err := r.idb(db).NewUpdate().
		Model((*Member)(nil)).
		TableExpr("teams AS t").
		Set("claimed_by = ?", session).
		Where("mb.team_id = t.id").
		Where("t.match_id = ?", matchID).
		Where("mb.handle = ?", handle).
		Where("mb.claimed_by IS NULL OR mb.claimed_by = ?", session).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to claim handle %q in match %s: %w", handle, matchID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows > 0, nil
}
