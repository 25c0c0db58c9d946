package matchdomain

import "github.com/google/uuid"

// TugState is the inputs to tug win evaluation at a point in time.
type TugState struct {
	Counter   int
	Threshold int
	TeamA     uuid.UUID
	TeamB     uuid.UUID
	Kind      TugKind
	TimeUp    bool
	AllSolved bool
}

// EvaluateTug decides the winner of a tug match, if any. Precedence:
// threshold wins first, then the time-up sign check, then (grid sub-mode
// only) the all-solved sign check. Sign ties default to team A.
func EvaluateTug(s TugState) *TugOutcome {
	if s.Threshold > 0 {
		if s.Counter >= s.Threshold {
			return &TugOutcome{TeamID: s.TeamA, Reason: TugReasonThreshold}
		}
		if s.Counter <= -s.Threshold {
			return &TugOutcome{TeamID: s.TeamB, Reason: TugReasonThreshold}
		}
	}
	if s.TimeUp {
		return &TugOutcome{TeamID: signWinner(s), Reason: TugReasonTime}
	}
	if s.Kind == TugGrid && s.AllSolved {
		return &TugOutcome{TeamID: signWinner(s), Reason: TugReasonAllSolved}
	}
	return nil
}

func signWinner(s TugState) uuid.UUID {
	if s.Counter >= 0 {
		return s.TeamA
	}
	return s.TeamB
}
