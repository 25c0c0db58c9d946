package ttrservice

import (
	"context"

	"github.com/google/uuid"

	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
	ttrdomain "github.com/Solve-Wars/arena-bot/app/modules/ttr/domain"
)

// Snapshot derives every team's ticket-to-ride standing from the current
// track map. Nothing here is cached; route completion, the longest-path
// bonus, and totals are recomputed on every call.
func (s *Service) Snapshot(ctx context.Context, match *matchdb.Match, teams []matchdb.Team) ([]ttrdomain.TeamSnapshot, error) {
	tracks, err := s.repo.GetTracks(ctx, nil, match.ID)
	if err != nil {
		return nil, err
	}
	stations, err := s.repo.GetStations(ctx, nil, match.ID)
	if err != nil {
		return nil, err
	}
	cards, err := s.repo.GetRouteCards(ctx, nil, match.ID)
	if err != nil {
		return nil, err
	}

	edges := make([]ttrdomain.TrackEdge, 0, len(tracks))
	for _, t := range tracks {
		edges = append(edges, t.Edge())
	}
	citiesByTeam := make(map[uuid.UUID][]string)
	for _, st := range stations {
		citiesByTeam[st.TeamID] = append(citiesByTeam[st.TeamID], st.City)
	}
	cardsByTeam := make(map[uuid.UUID][]ttrdomain.RouteCard)
	for _, c := range cards {
		cardsByTeam[c.TeamID] = append(cardsByTeam[c.TeamID], ttrdomain.RouteCard{
			CityA:  c.CityA,
			CityB:  c.CityB,
			Points: c.Points,
			Kind:   c.Kind,
		})
	}

	inputs := make([]ttrdomain.SnapshotInput, 0, len(teams))
	for _, t := range teams {
		inputs = append(inputs, ttrdomain.SnapshotInput{
			TeamID:        t.ID,
			Name:          t.Name,
			Color:         t.Color,
			Coins:         t.Coins,
			Points:        t.Points,
			TracksUsed:    t.TracksUsed,
			StationsUsed:  t.StationsUsed,
			StationCities: citiesByTeam[t.ID],
			Routes:        cardsByTeam[t.ID],
		})
	}
	return ttrdomain.BuildSnapshots(inputs, edges), nil
}
