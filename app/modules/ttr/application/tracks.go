package ttrservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	matchdb "github.com/Solve-Wars/arena-bot/app/modules/match/infrastructure/repositories"
	ttrdomain "github.com/Solve-Wars/arena-bot/app/modules/ttr/domain"
	ttrdb "github.com/Solve-Wars/arena-bot/app/modules/ttr/infrastructure/repositories"
	"github.com/Solve-Wars/arena-bot/internal/observability/attr"
	"github.com/Solve-Wars/arena-bot/internal/results"
)

// ClaimTrackSuccess reports a settled track claim.
type ClaimTrackSuccess struct {
	TrackID       uuid.UUID `json:"track_id"`
	PointsAwarded int       `json:"points_awarded"`
	CoinsLeft     int       `json:"coins_left"`
}

// ClaimRejected explains why a claim or placement was refused.
type ClaimRejected struct {
	Reason string `json:"reason"`
}

// ClaimTrackResult is the operation envelope for ClaimTrack.
type ClaimTrackResult = results.OperationResult[ClaimTrackSuccess, ClaimRejected]

// ClaimTrack spends team coins to take an unclaimed track. The claim is
// exclusive and permanent; losing a race to another team is a rejection,
// not an error.
func (s *Service) ClaimTrack(ctx context.Context, matchID, teamID, trackID uuid.UUID) (ClaimTrackResult, error) {
	return withTelemetry(s, ctx, "ClaimTrack", matchID, func(ctx context.Context) (ClaimTrackResult, error) {
		track, err := s.repo.GetTrack(ctx, nil, trackID)
		if err != nil {
			if errors.Is(err, ttrdb.ErrNotFound) {
				return ClaimTrackResult{}, ErrTrackNotFound
			}
			return ClaimTrackResult{}, err
		}
		if track.MatchID != matchID {
			return ClaimTrackResult{}, ErrTrackNotFound
		}
		if _, err := s.matchRepo.GetTeam(ctx, nil, teamID); err != nil {
			if errors.Is(err, matchdb.ErrNotFound) {
				return ClaimTrackResult{}, ErrTeamNotFound
			}
			return ClaimTrackResult{}, err
		}

		if track.ClaimedBy != nil {
			return results.Fail[ClaimTrackSuccess](ClaimRejected{Reason: "track already claimed"}), nil
		}

		// The debit is a single conditional update so concurrent claims by
		// the same team cannot overspend or slip past the length cap.
		points := ttrdomain.TrackPoints(track.Length)
		var coinsLeft int
		var rejection *ClaimRejected
		err = s.runInTx(ctx, func(ctx context.Context, db bun.IDB) error {
			left, ok, err := s.matchRepo.DebitTrackClaim(ctx, db, teamID, track.Length, points, ttrdomain.MaxTrackLength)
			if err != nil {
				return err
			}
			if !ok {
				reason, err := s.trackDebitRefusal(ctx, db, teamID, track.Length)
				if err != nil {
					return err
				}
				rejection = &ClaimRejected{Reason: reason}
				return nil
			}
			claimed, err := s.repo.SetTrackOwner(ctx, db, trackID, teamID)
			if err != nil {
				return err
			}
			if !claimed {
				if err := s.matchRepo.AdjustTeamResources(ctx, db, teamID, track.Length, -points, -track.Length); err != nil {
					return err
				}
				rejection = &ClaimRejected{Reason: "track already claimed"}
				return nil
			}
			coinsLeft = left
			return nil
		})
		if err != nil {
			return ClaimTrackResult{}, err
		}
		if rejection != nil {
			return results.Fail[ClaimTrackSuccess](*rejection), nil
		}

		s.logger.InfoContext(ctx, "Track claimed",
			attr.ExtractCorrelationID(ctx),
			attr.MatchID("match_id", matchID),
			attr.TeamID("team_id", teamID),
			attr.String("track_id", trackID.String()),
			attr.Int("length", track.Length),
		)
		return results.OK[ClaimTrackSuccess, ClaimRejected](ClaimTrackSuccess{
			TrackID:       trackID,
			PointsAwarded: points,
			CoinsLeft:     coinsLeft,
		}), nil
	})
}

// trackDebitRefusal re-reads the team to explain a refused debit.
func (s *Service) trackDebitRefusal(ctx context.Context, db bun.IDB, teamID uuid.UUID, length int) (string, error) {
	team, err := s.matchRepo.GetTeam(ctx, db, teamID)
	if err != nil {
		return "", err
	}
	if team.TracksUsed+length > ttrdomain.MaxTrackLength {
		return fmt.Sprintf("claim would exceed the %d track-length cap", ttrdomain.MaxTrackLength), nil
	}
	return fmt.Sprintf("need %d coins, have %d", length, team.Coins), nil
}

// PlaceStationSuccess reports a settled station placement.
type PlaceStationSuccess struct {
	City      string `json:"city"`
	CoinsLeft int    `json:"coins_left"`
}

// PlaceStationResult is the operation envelope for PlaceStation.
type PlaceStationResult = results.OperationResult[PlaceStationSuccess, ClaimRejected]

// PlaceStation buys right-of-way at a city. A station is only useful on a
// city an opponent's claimed track touches, so placement requires one;
// each team gets three stations per match at rising cost.
func (s *Service) PlaceStation(ctx context.Context, matchID, teamID uuid.UUID, city string) (PlaceStationResult, error) {
	return withTelemetry(s, ctx, "PlaceStation", matchID, func(ctx context.Context) (PlaceStationResult, error) {
		if _, err := s.matchRepo.GetTeam(ctx, nil, teamID); err != nil {
			if errors.Is(err, matchdb.ErrNotFound) {
				return PlaceStationResult{}, ErrTeamNotFound
			}
			return PlaceStationResult{}, err
		}

		tracks, err := s.repo.GetTracks(ctx, nil, matchID)
		if err != nil {
			return PlaceStationResult{}, err
		}
		if !opponentTrackTouches(tracks, teamID, city) {
			return results.Fail[PlaceStationSuccess](ClaimRejected{
				Reason: "no opponent track touches that city",
			}), nil
		}

		stations, err := s.repo.GetStations(ctx, nil, matchID)
		if err != nil {
			return PlaceStationResult{}, err
		}
		for _, st := range stations {
			if st.TeamID == teamID && st.City == city {
				return results.Fail[PlaceStationSuccess](ClaimRejected{
					Reason: "station already placed at that city",
				}), nil
			}
		}

		// Cost rises with every station, so the debit charges and counts in
		// one conditional update; concurrent placements each pay full price.
		var coinsLeft, cost int
		var rejection *ClaimRejected
		err = s.runInTx(ctx, func(ctx context.Context, db bun.IDB) error {
			left, stationsUsed, ok, err := s.matchRepo.DebitStationPlacement(ctx, db, teamID, ttrdomain.MaxStations)
			if err != nil {
				return err
			}
			if !ok {
				reason, err := s.stationDebitRefusal(ctx, db, teamID)
				if err != nil {
					return err
				}
				rejection = &ClaimRejected{Reason: reason}
				return nil
			}
			coinsLeft = left
			cost = stationsUsed
			return s.repo.InsertStation(ctx, db, &ttrdb.Station{
				ID:      uuid.New(),
				MatchID: matchID,
				TeamID:  teamID,
				City:    city,
			})
		})
		if err != nil {
			return PlaceStationResult{}, err
		}
		if rejection != nil {
			return results.Fail[PlaceStationSuccess](*rejection), nil
		}

		s.logger.InfoContext(ctx, "Station placed",
			attr.ExtractCorrelationID(ctx),
			attr.MatchID("match_id", matchID),
			attr.TeamID("team_id", teamID),
			attr.String("city", city),
			attr.Int("cost", cost),
		)
		return results.OK[PlaceStationSuccess, ClaimRejected](PlaceStationSuccess{
			City:      city,
			CoinsLeft: coinsLeft,
		}), nil
	})
}

// stationDebitRefusal re-reads the team to explain a refused debit.
func (s *Service) stationDebitRefusal(ctx context.Context, db bun.IDB, teamID uuid.UUID) (string, error) {
	team, err := s.matchRepo.GetTeam(ctx, db, teamID)
	if err != nil {
		return "", err
	}
	if team.StationsUsed >= ttrdomain.MaxStations {
		return fmt.Sprintf("all %d stations already placed", ttrdomain.MaxStations), nil
	}
	cost := ttrdomain.StationCost(team.StationsUsed)
	return fmt.Sprintf("need %d coins, have %d", cost, team.Coins), nil
}

// opponentTrackTouches reports whether any track claimed by another team
// has the city as an endpoint.
func opponentTrackTouches(tracks []ttrdb.Track, teamID uuid.UUID, city string) bool {
	for _, t := range tracks {
		if t.ClaimedBy == nil || *t.ClaimedBy == teamID {
			continue
		}
		if t.CityA == city || t.CityB == city {
			return true
		}
	}
	return false
}
