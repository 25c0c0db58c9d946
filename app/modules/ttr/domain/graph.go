// Package ttrdomain holds the pure rules of the ticket-to-ride mode: the
// per-team traversal graph, route reachability, the longest-path bonus, and
// the scoring tables. Graphs are built fresh from the flat track list on
// every query; state is small and queries are rare, so there is nothing
// worth memoizing and nothing to go stale.
package ttrdomain

import "github.com/google/uuid"

// TrackEdge is a claimable connection between two cities.
type TrackEdge struct {
	ID        uuid.UUID
	CityA     string
	CityB     string
	Length    int
	ClaimedBy uuid.UUID // uuid.Nil while unclaimed
}

// Claimed reports whether any team holds the track.
func (t TrackEdge) Claimed() bool {
	return t.ClaimedBy != uuid.Nil
}

// Touches reports whether the track has an endpoint at city.
func (t TrackEdge) Touches(city string) bool {
	return t.CityA == city || t.CityB == city
}

// TeamGraph is the adjacency view a single team can traverse.
type TeamGraph struct {
	adj map[string][]string
}

// BuildTeamGraph assembles the team's traversal graph: every track the team
// claimed, plus, for each city where the team holds a station, every
// opponent-claimed track touching that city (right-of-way).
func BuildTeamGraph(teamID uuid.UUID, tracks []TrackEdge, stationCities []string) *TeamGraph {
	stations := make(map[string]struct{}, len(stationCities))
	for _, c := range stationCities {
		stations[c] = struct{}{}
	}

	g := &TeamGraph{adj: make(map[string][]string)}
	for _, t := range tracks {
		if !t.Claimed() {
			continue
		}
		if t.ClaimedBy == teamID {
			g.addEdge(t.CityA, t.CityB)
			continue
		}
		_, atA := stations[t.CityA]
		_, atB := stations[t.CityB]
		if atA || atB {
			g.addEdge(t.CityA, t.CityB)
		}
	}
	return g
}

func (g *TeamGraph) addEdge(a, b string) {
	g.adj[a] = append(g.adj[a], b)
	g.adj[b] = append(g.adj[b], a)
}

// Connected answers a route card: can the team travel from a to b over its
// graph. Plain breadth-first search.
func (g *TeamGraph) Connected(a, b string) bool {
	if a == b {
		return true
	}
	if len(g.adj[a]) == 0 {
		return false
	}

	visited := map[string]struct{}{a: {}}
	queue := []string{a}
	for len(queue) > 0 {
		city := queue[0]
		queue = queue[1:]
		for _, next := range g.adj[city] {
			if next == b {
				return true
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return false
}

// LongestOwnPath returns the longest continuous path through the team's own
// claimed tracks, measured in summed track length. Stations are excluded:
// the bonus rewards the team's own rail, not borrowed right-of-way. Each
// track is traversed at most once; cities may repeat.
func LongestOwnPath(teamID uuid.UUID, tracks []TrackEdge) int {
	var own []TrackEdge
	for _, t := range tracks {
		if t.ClaimedBy == teamID {
			own = append(own, t)
		}
	}
	if len(own) == 0 {
		return 0
	}

	// Edge-indexed adjacency so the DFS can mark tracks used.
	byCity := make(map[string][]int)
	for i, t := range own {
		byCity[t.CityA] = append(byCity[t.CityA], i)
		byCity[t.CityB] = append(byCity[t.CityB], i)
	}

	used := make([]bool, len(own))
	best := 0

	var dfs func(city string, length int)
	dfs = func(city string, length int) {
		if length > best {
			best = length
		}
		for _, i := range byCity[city] {
			if used[i] {
				continue
			}
			next := own[i].CityA
			if next == city {
				next = own[i].CityB
			}
			used[i] = true
			dfs(next, length+own[i].Length)
			used[i] = false
		}
	}

	for city := range byCity {
		dfs(city, 0)
	}
	return best
}

// LongestPathHolders returns the teams achieving the global maximum own-path
// length, when that maximum is positive. Ties are not broken; every team at
// the maximum shares the bonus.
func LongestPathHolders(teamIDs []uuid.UUID, tracks []TrackEdge) []uuid.UUID {
	best := 0
	lengths := make(map[uuid.UUID]int, len(teamIDs))
	for _, id := range teamIDs {
		l := LongestOwnPath(id, tracks)
		lengths[id] = l
		if l > best {
			best = l
		}
	}
	if best == 0 {
		return nil
	}
	var holders []uuid.UUID
	for _, id := range teamIDs {
		if lengths[id] == best {
			holders = append(holders, id)
		}
	}
	return holders
}
