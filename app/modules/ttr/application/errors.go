package ttrservice

import "errors"

// Service-level sentinel errors.
var (
	// ErrTrackNotFound indicates the track id does not exist in the match.
	ErrTrackNotFound = errors.New("track not found")

	// ErrTeamNotFound indicates the team id does not exist in the match.
	ErrTeamNotFound = errors.New("team not found")
)
