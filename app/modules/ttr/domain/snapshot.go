package ttrdomain

import "github.com/google/uuid"

// RouteCard is one destination ticket dealt to a team.
type RouteCard struct {
	CityA  string
	CityB  string
	Points int
	Kind   RouteCardKind
}

// TeamSnapshot is a team's fully derived ticket-to-ride state: resource
// counters straight from storage plus route completion, longest-path
// standing, and the aggregate score recomputed from the track map.
type TeamSnapshot struct {
	TeamID       uuid.UUID     `json:"team_id"`
	Name         string        `json:"name"`
	Color        string        `json:"color"`
	Coins        int           `json:"coins"`
	Points       int           `json:"points"`
	TracksUsed   int           `json:"tracks_used"`
	StationsUsed int           `json:"stations_used"`
	Routes       []RouteResult `json:"routes"`
	LongestPath  bool          `json:"longest_path"`
	Total        int           `json:"total"`
}

// SnapshotInput is one team's raw state handed to BuildSnapshots.
type SnapshotInput struct {
	TeamID        uuid.UUID
	Name          string
	Color         string
	Coins         int
	Points        int
	TracksUsed    int
	StationsUsed  int
	StationCities []string
	Routes        []RouteCard
}

// BuildSnapshots derives every team's snapshot from the shared track map.
// Route completion honors station right-of-way, the longest-path bonus is
// shared on ties, and totals come from TotalScore.
func BuildSnapshots(teams []SnapshotInput, tracks []TrackEdge) []TeamSnapshot {
	teamIDs := make([]uuid.UUID, len(teams))
	for i, t := range teams {
		teamIDs[i] = t.TeamID
	}
	holders := make(map[uuid.UUID]bool)
	for _, id := range LongestPathHolders(teamIDs, tracks) {
		holders[id] = true
	}

	snapshots := make([]TeamSnapshot, 0, len(teams))
	for _, t := range teams {
		graph := BuildTeamGraph(t.TeamID, tracks, t.StationCities)
		routes := make([]RouteResult, 0, len(t.Routes))
		for _, rc := range t.Routes {
			routes = append(routes, RouteResult{
				CityA:     rc.CityA,
				CityB:     rc.CityB,
				Points:    rc.Points,
				Kind:      rc.Kind,
				Completed: graph.Connected(rc.CityA, rc.CityB),
			})
		}
		snapshots = append(snapshots, TeamSnapshot{
			TeamID:       t.TeamID,
			Name:         t.Name,
			Color:        t.Color,
			Coins:        t.Coins,
			Points:       t.Points,
			TracksUsed:   t.TracksUsed,
			StationsUsed: t.StationsUsed,
			Routes:       routes,
			LongestPath:  holders[t.TeamID],
			Total:        TotalScore(t.Points, routes, holders[t.TeamID], t.StationsUsed),
		})
	}
	return snapshots
}
