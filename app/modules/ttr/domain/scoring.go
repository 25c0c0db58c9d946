package ttrdomain

// Track-claim limits and rewards.
const (
	// MaxStations is the per-team station allowance for a whole match.
	MaxStations = 3
	// MaxTrackLength caps a team's total claimed track length.
	MaxTrackLength = 45
	// LongestPathBonus goes to every team sharing the longest own path.
	LongestPathBonus = 10
	// UnusedStationBonus is awarded per station never placed.
	UnusedStationBonus = 4
	// MarketSolveBonus is the flat score a team earns per market solve, on
	// top of the level's coin reward.
	MarketSolveBonus = 2
)

// trackPoints maps a track's length to the points scored for claiming it.
var trackPoints = map[int]int{1: 1, 2: 2, 3: 4, 4: 7, 5: 10, 6: 15}

// TrackPoints returns the points for claiming a track of the given length.
func TrackPoints(length int) int {
	return trackPoints[length]
}

// StationCost returns the coin cost of the next station given how many the
// team has already placed: 1, then 2, then 3.
func StationCost(stationsUsed int) int {
	return stationsUsed + 1
}

// RouteCardKind distinguishes long destination tickets from short ones.
type RouteCardKind string

const (
	RouteLong  RouteCardKind = "long"
	RouteShort RouteCardKind = "short"
)

// RouteResult is a route card scored against the team's current graph.
type RouteResult struct {
	CityA     string        `json:"city_a"`
	CityB     string        `json:"city_b"`
	Points    int           `json:"points"`
	Kind      RouteCardKind `json:"kind"`
	Completed bool          `json:"completed"`
}

// TotalScore aggregates a team's score: points accumulated from claims and
// market solves, completed routes added, incomplete routes subtracted, the
// longest-path bonus, and the unused-station bonus.
func TotalScore(accumulated int, routes []RouteResult, hasLongestPath bool, stationsUsed int) int {
	total := accumulated
	for _, r := range routes {
		if r.Completed {
			total += r.Points
		} else {
			total -= r.Points
		}
	}
	if hasLongestPath {
		total += LongestPathBonus
	}
	total += UnusedStationBonus * (MaxStations - stationsUsed)
	return total
}
