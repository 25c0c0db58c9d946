package ttrdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *Impl) CreateTracks(ctx context.Context, db bun.IDB, tracks []*Track) error {
	if len(tracks) == 0 {
		return nil
	}
	if _, err := r.idb(db).NewInsert().Model(&tracks).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert tracks: %w", err)
	}
	return nil
}

func (r *Impl) GetTracks(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]Track, error) {
	var tracks []Track
	err := r.idb(db).NewSelect().
		Model(&tracks).
		Where("match_id = ?", matchID).
		Order("city_a ASC", "city_b ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracks for match %s: %w", matchID, err)
	}
	return tracks, nil
}

func (r *Impl) GetTrack(ctx context.Context, db bun.IDB, id uuid.UUID) (*Track, error) {
	track := new(Track)
	err := r.idb(db).NewSelect().
		Model(track).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch track %s: %w", id, err)
	}
	return track, nil
}

func (r *Impl) SetTrackOwner(ctx context.Context, db bun.IDB, trackID, teamID uuid.UUID) (bool, error) {
	res, err := r.idb(db).NewUpdate().
		Model((*Track)(nil)).
		Set("claimed_by = ?", teamID).
		Where("id = ?", trackID).
		Where("claimed_by IS NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to claim track %s: %w", trackID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *Impl) InsertStation(ctx context.Context, db bun.IDB, station *Station) error {
	if _, err := r.idb(db).NewInsert().Model(station).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert station at %q: %w", station.City, err)
	}
	return nil
}

func (r *Impl) GetStations(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]Station, error) {
	var stations []Station
	err := r.idb(db).NewSelect().
		Model(&stations).
		Where("match_id = ?", matchID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stations for match %s: %w", matchID, err)
	}
	return stations, nil
}

func (r *Impl) CreateRouteCards(ctx context.Context, db bun.IDB, cards []*RouteCard) error {
	if len(cards) == 0 {
		return nil
	}
	if _, err := r.idb(db).NewInsert().Model(&cards).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert route cards: %w", err)
	}
	return nil
}

func (r *Impl) GetRouteCards(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]RouteCard, error) {
	var cards []RouteCard
	err := r.idb(db).NewSelect().
		Model(&cards).
		Where("match_id = ?", matchID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch route cards for match %s: %w", matchID, err)
	}
	return cards, nil
}
