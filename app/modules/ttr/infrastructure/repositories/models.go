package ttrdb

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	ttrdomain "github.com/Solve-Wars/arena-bot/app/modules/ttr/domain"
)

// Track is an edge of the match map. ClaimedBy is set once and never
// cleared or reassigned.
type Track struct {
	bun.BaseModel `bun:"table:tracks,alias:tr"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid"`
	MatchID   uuid.UUID  `bun:"match_id,notnull,type:uuid"`
	CityA     string     `bun:"city_a,notnull"`
	CityB     string     `bun:"city_b,notnull"`
	Length    int        `bun:"length,notnull"`
	ClaimedBy *uuid.UUID `bun:"claimed_by,type:uuid"`
}

// Edge converts the row to its domain representation.
func (t *Track) Edge() ttrdomain.TrackEdge {
	owner := uuid.Nil
	if t.ClaimedBy != nil {
		owner = *t.ClaimedBy
	}
	return ttrdomain.TrackEdge{
		ID:        t.ID,
		CityA:     t.CityA,
		CityB:     t.CityB,
		Length:    t.Length,
		ClaimedBy: owner,
	}
}

// Station is a (team, city) right-of-way marker.
type Station struct {
	bun.BaseModel `bun:"table:stations,alias:st"`

	ID      uuid.UUID `bun:"id,pk,type:uuid"`
	MatchID uuid.UUID `bun:"match_id,notnull,type:uuid"`
	TeamID  uuid.UUID `bun:"team_id,notnull,type:uuid"`
	City    string    `bun:"city,notnull"`
}

// RouteCard is a destination ticket dealt to a team at match creation. Its
// completion is recomputed from track/station state, never stored.
type RouteCard struct {
	bun.BaseModel `bun:"table:route_cards,alias:rc"`

	ID      uuid.UUID               `bun:"id,pk,type:uuid"`
	MatchID uuid.UUID               `bun:"match_id,notnull,type:uuid"`
	TeamID  uuid.UUID               `bun:"team_id,notnull,type:uuid"`
	CityA   string                  `bun:"city_a,notnull"`
	CityB   string                  `bun:"city_b,notnull"`
	Points  int                     `bun:"points,notnull"`
	Kind    ttrdomain.RouteCardKind `bun:"kind,notnull"`
}
