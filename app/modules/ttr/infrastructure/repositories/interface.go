package ttrdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository stores the ticket-to-ride map state: tracks, stations, and
// route cards. Methods take an optional bun.IDB so callers can pass a
// transaction; nil falls back to the repository's DB.
type Repository interface {
	CreateTracks(ctx context.Context, db bun.IDB, tracks []*Track) error
	GetTracks(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]Track, error)
	GetTrack(ctx context.Context, db bun.IDB, id uuid.UUID) (*Track, error)

	// SetTrackOwner claims a track for a team. Set-once: the update only
	// matches while claimed_by is NULL, so a second claimant is a no-op.
	SetTrackOwner(ctx context.Context, db bun.IDB, trackID, teamID uuid.UUID) (bool, error)

	InsertStation(ctx context.Context, db bun.IDB, station *Station) error
	GetStations(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]Station, error)

	CreateRouteCards(ctx context.Context, db bun.IDB, cards []*RouteCard) error
	GetRouteCards(ctx context.Context, db bun.IDB, matchID uuid.UUID) ([]RouteCard, error)
}
