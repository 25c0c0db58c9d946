// Package mocks provides an in-memory ttr Repository for service tests.
package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	ttrdb "github.com/Solve-Wars/arena-bot/app/modules/ttr/infrastructure/repositories"
)

// Repository is an in-memory ttrdb.Repository. FailOn maps a method name to
// an error that method returns instead of running.
type Repository struct {
	mu sync.Mutex

	Tracks     map[uuid.UUID]*ttrdb.Track
	Stations   []*ttrdb.Station
	RouteCards []*ttrdb.RouteCard

	Calls  []string
	FailOn map[string]error
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		Tracks: make(map[uuid.UUID]*ttrdb.Track),
		FailOn: make(map[string]error),
	}
}

func (r *Repository) enter(method string) error {
	r.Calls = append(r.Calls, method)
	return r.FailOn[method]
}

func (r *Repository) CreateTracks(_ context.Context, _ bun.IDB, tracks []*ttrdb.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CreateTracks"); err != nil {
		return err
	}
	for _, t := range tracks {
		cp := *t
		r.Tracks[t.ID] = &cp
	}
	return nil
}

func (r *Repository) GetTracks(_ context.Context, _ bun.IDB, matchID uuid.UUID) ([]ttrdb.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetTracks"); err != nil {
		return nil, err
	}
	var out []ttrdb.Track
	for _, t := range r.Tracks {
		if t.MatchID == matchID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *Repository) GetTrack(_ context.Context, _ bun.IDB, id uuid.UUID) (*ttrdb.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetTrack"); err != nil {
		return nil, err
	}
	t, ok := r.Tracks[id]
	if !ok {
		return nil, ttrdb.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *Repository) SetTrackOwner(_ context.Context, _ bun.IDB, trackID, teamID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("SetTrackOwner"); err != nil {
		return false, err
	}
	t, ok := r.Tracks[trackID]
	if !ok {
		return false, ttrdb.ErrNotFound
	}
	if t.ClaimedBy != nil {
		return false, nil
	}
	owner := teamID
	t.ClaimedBy = &owner
	return true, nil
}

func (r *Repository) InsertStation(_ context.Context, _ bun.IDB, station *ttrdb.Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("InsertStation"); err != nil {
		return err
	}
	cp := *station
	r.Stations = append(r.Stations, &cp)
	return nil
}

func (r *Repository) GetStations(_ context.Context, _ bun.IDB, matchID uuid.UUID) ([]ttrdb.Station, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetStations"); err != nil {
		return nil, err
	}
	var out []ttrdb.Station
	for _, st := range r.Stations {
		if st.MatchID == matchID {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (r *Repository) CreateRouteCards(_ context.Context, _ bun.IDB, cards []*ttrdb.RouteCard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CreateRouteCards"); err != nil {
		return err
	}
	for _, c := range cards {
		cp := *c
		r.RouteCards = append(r.RouteCards, &cp)
	}
	return nil
}

func (r *Repository) GetRouteCards(_ context.Context, _ bun.IDB, matchID uuid.UUID) ([]ttrdb.RouteCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetRouteCards"); err != nil {
		return nil, err
	}
	var out []ttrdb.RouteCard
	for _, c := range r.RouteCards {
		if c.MatchID == matchID {
			out = append(out, *c)
		}
	}
	return out, nil
}
