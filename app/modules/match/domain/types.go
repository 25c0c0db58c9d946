package matchdomain

import "github.com/google/uuid"

// Mode is the closed set of game rulesets. Dispatch on it is an exhaustive
// switch at the poll coordinator; adding a mode must not compile until every
// switch handles it.
type Mode string

const (
	ModeClassic Mode = "classic"
	ModeReplace Mode = "replace"
	ModeTug     Mode = "tug"
	ModeTTR     Mode = "ttr"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeClassic, ModeReplace, ModeTug, ModeTTR:
		return true
	}
	return false
}

// TugKind selects the tug sub-mode.
type TugKind string

const (
	// TugSingle replaces each solved problem from the match rating band.
	TugSingle TugKind = "single"
	// TugGrid keeps a fixed problem grid; solving it all ends the match.
	TugGrid TugKind = "grid"
)

// MaxProblemRating caps replacement difficulty.
const MaxProblemRating = 3500

// Claim is the attribution resolver's verdict for one problem: the team
// whose member first got it accepted.
type Claim struct {
	TeamID       uuid.UUID
	SolvedAt     int64
	SubmissionID int64
}

// Better reports whether c beats other under the total attribution order:
// earliest accepted time first, lowest submission id on equal times.
func (c Claim) Better(other Claim) bool {
	if c.SolvedAt != other.SolvedAt {
		return c.SolvedAt < other.SolvedAt
	}
	return c.SubmissionID < other.SubmissionID
}

// NewSolve is one freshly committed solve-log entry handed to a mode engine.
type NewSolve struct {
	ContestID    int
	Index        string
	TeamID       uuid.UUID
	SolvedAt     int64
	SubmissionID int64
}

// LineKind labels the winning line of a grid match.
type LineKind string

const (
	LineRow      LineKind = "row"
	LineColumn   LineKind = "column"
	LineDiagonal LineKind = "diagonal"
	LineAntiDiag LineKind = "anti-diagonal"
)

// WinLine reports a completed grid line.
type WinLine struct {
	TeamID uuid.UUID `json:"team_id"`
	Kind   LineKind  `json:"kind"`
	Index  int       `json:"index"`
}

// TugOutcome reports the winner of a tug match and why.
type TugOutcome struct {
	TeamID uuid.UUID `json:"team_id"`
	Reason string    `json:"reason"`
}

const (
	TugReasonThreshold = "threshold"
	TugReasonTime      = "time"
	TugReasonAllSolved = "all-solved"
)
