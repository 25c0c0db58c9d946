package ttrdomain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func track(a, b string, length int, owner uuid.UUID) TrackEdge {
	return TrackEdge{ID: uuid.New(), CityA: a, CityB: b, Length: length, ClaimedBy: owner}
}

func TestTeamGraph_RouteCompletion(t *testing.T) {
	red := uuid.New()
	blue := uuid.New()

	tracks := []TrackEdge{
		track("A", "B", 2, red),
		track("B", "C", 3, red),
	}

	g := BuildTeamGraph(red, tracks, nil)
	assert.True(t, g.Connected("A", "C"))

	// Removing B–C breaks the route.
	g = BuildTeamGraph(red, tracks[:1], nil)
	assert.False(t, g.Connected("A", "C"))

	// An opponent claiming B–C does not help without a station.
	tracks[1].ClaimedBy = blue
	g = BuildTeamGraph(red, tracks, nil)
	assert.False(t, g.Connected("A", "C"))

	// A station at B grants right-of-way through the opponent's B–C track.
	g = BuildTeamGraph(red, tracks, []string{"B"})
	assert.True(t, g.Connected("A", "C"))
}

func TestTeamGraph_UnclaimedTracksAreNotEdges(t *testing.T) {
	red := uuid.New()
	tracks := []TrackEdge{
		track("A", "B", 2, red),
		track("B", "C", 3, uuid.Nil),
	}

	g := BuildTeamGraph(red, tracks, nil)
	assert.False(t, g.Connected("A", "C"))
	// A station cannot grant right-of-way through an unclaimed track either.
	g = BuildTeamGraph(red, tracks, []string{"B"})
	assert.False(t, g.Connected("A", "C"))
}

func TestTeamGraph_SameCityIsConnected(t *testing.T) {
	g := BuildTeamGraph(uuid.New(), nil, nil)
	assert.True(t, g.Connected("A", "A"))
	assert.False(t, g.Connected("A", "B"))
}

func TestLongestOwnPath_SumsLengthsNotEdges(t *testing.T) {
	red := uuid.New()
	tracks := []TrackEdge{
		track("A", "B", 6, red),
		track("B", "C", 1, red),
		track("C", "D", 1, red),
	}
	assert.Equal(t, 8, LongestOwnPath(red, tracks))

	// A long detached track beats a chain of short ones.
	tracks = []TrackEdge{
		track("A", "B", 1, red),
		track("B", "C", 1, red),
		track("X", "Y", 6, red),
	}
	assert.Equal(t, 6, LongestOwnPath(red, tracks))
}

func TestLongestOwnPath_ExcludesStationsAndOpponents(t *testing.T) {
	red := uuid.New()
	blue := uuid.New()
	tracks := []TrackEdge{
		track("A", "B", 2, red),
		track("B", "C", 5, blue),
	}
	// Blue's track never counts toward red's path, station or not.
	assert.Equal(t, 2, LongestOwnPath(red, tracks))
}

func TestLongestOwnPath_BranchChoosesBest(t *testing.T) {
	red := uuid.New()
	tracks := []TrackEdge{
		track("A", "B", 3, red),
		track("B", "C", 2, red),
		track("B", "D", 5, red),
	}
	// A-B then the better branch B-D.
	assert.Equal(t, 8, LongestOwnPath(red, tracks))
}

func TestLongestPathHolders_TiesShareBonus(t *testing.T) {
	red := uuid.New()
	blue := uuid.New()
	green := uuid.New()

	tracks := []TrackEdge{
		track("A", "B", 4, red),
		track("C", "D", 4, blue),
		track("E", "F", 2, green),
	}

	holders := LongestPathHolders([]uuid.UUID{red, blue, green}, tracks)
	assert.ElementsMatch(t, []uuid.UUID{red, blue}, holders)
}

func TestLongestPathHolders_NoTracksNoBonus(t *testing.T) {
	red := uuid.New()
	assert.Nil(t, LongestPathHolders([]uuid.UUID{red}, nil))
}

func TestTrackPointsTable(t *testing.T) {
	want := map[int]int{1: 1, 2: 2, 3: 4, 4: 7, 5: 10, 6: 15}
	for length, points := range want {
		assert.Equal(t, points, TrackPoints(length))
	}
}

func TestStationCost(t *testing.T) {
	assert.Equal(t, 1, StationCost(0))
	assert.Equal(t, 2, StationCost(1))
	assert.Equal(t, 3, StationCost(2))
}

func TestTotalScore(t *testing.T) {
	routes := []RouteResult{
		{Points: 10, Completed: true},
		{Points: 6, Completed: false},
	}
	// 20 + 10 - 6 + 10 bonus + 4*(3-1) stations.
	assert.Equal(t, 42, TotalScore(20, routes, true, 1))
	// No bonus, all stations used.
	assert.Equal(t, 24, TotalScore(20, routes, false, 3))
}
