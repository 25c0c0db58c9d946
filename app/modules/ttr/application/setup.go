package ttrservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	ttrdomain "github.com/Solve-Wars/arena-bot/app/modules/ttr/domain"
	ttrdb "github.com/Solve-Wars/arena-bot/app/modules/ttr/infrastructure/repositories"
	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
)

// TrackSetup describes one map edge at match creation.
type TrackSetup struct {
	CityA  string `json:"city_a"`
	CityB  string `json:"city_b"`
	Length int    `json:"length"`
}

// RouteCardSetup is one destination ticket to deal at match creation.
type RouteCardSetup struct {
	TeamID uuid.UUID               `json:"team_id"`
	CityA  string                  `json:"city_a"`
	CityB  string                  `json:"city_b"`
	Points int                     `json:"points"`
	Kind   ttrdomain.RouteCardKind `json:"kind"`
}

// SetupMap persists the match map and deals the route cards. Called once
// right after match creation, before any poll runs.
func (s *Service) SetupMap(ctx context.Context, matchID uuid.UUID, tracks []TrackSetup, cards []RouteCardSetup) error {
	_, err := withTelemetry(s, ctx, "SetupMap", matchID, func(ctx context.Context) (struct{}, error) {
		for _, t := range tracks {
			if t.Length < 1 || t.Length > 6 {
				return struct{}{}, fmt.Errorf("track %s-%s has invalid length %d", t.CityA, t.CityB, t.Length)
			}
		}

		trackRows := make([]*ttrdb.Track, 0, len(tracks))
		for _, t := range tracks {
			trackRows = append(trackRows, &ttrdb.Track{
				ID:      uuid.New(),
				MatchID: matchID,
				CityA:   t.CityA,
				CityB:   t.CityB,
				Length:  t.Length,
			})
		}
		cardRows := make([]*ttrdb.RouteCard, 0, len(cards))
		for _, c := range cards {
			cardRows = append(cardRows, &ttrdb.RouteCard{
				ID:      uuid.New(),
				MatchID: matchID,
				TeamID:  c.TeamID,
				CityA:   c.CityA,
				CityB:   c.CityB,
				Points:  c.Points,
				Kind:    c.Kind,
			})
		}

		err := s.runInTx(ctx, func(ctx context.Context, db bun.IDB) error {
			if len(trackRows) > 0 {
				if err := s.repo.CreateTracks(ctx, db, trackRows); err != nil {
					return err
				}
			}
			if len(cardRows) > 0 {
				return s.repo.CreateRouteCards(ctx, db, cardRows)
			}
			return nil
		})
		if err != nil {
			return struct{}{}, err
		}

		s.logger.InfoContext(ctx, "Match map created",
			attr.ExtractCorrelationID(ctx),
			attr.MatchID("match_id", matchID),
			attr.Int("tracks", len(trackRows)),
			attr.Int("route_cards", len(cardRows)),
		)
		return struct{}{}, nil
	})
	return err
}
