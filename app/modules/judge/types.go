package judge

import "fmt"

// VerdictOK is the upstream verdict string for an accepted submission.
const VerdictOK = "OK"

// ProblemRef identifies a problem on the external judge.
type ProblemRef struct {
	ContestID int    `json:"contestId"`
	Index     string `json:"index"`
}

// Key returns the canonical identity string for a problem, e.g. "1700A".
func (p ProblemRef) Key() string {
	return fmt.Sprintf("%d%s", p.ContestID, p.Index)
}

// Submission is one entry from a user's judge submission history.
type Submission struct {
	ID                  int64      `json:"id"`
	CreationTimeSeconds int64      `json:"creationTimeSeconds"`
	Problem             ProblemRef `json:"problem"`
	Verdict             string     `json:"verdict"`
}

// CatalogProblem is one entry from the judge's problemset catalog.
type CatalogProblem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating"`
	Tags      []string `json:"tags"`
}

// Ref returns the catalog entry's problem identity.
func (p CatalogProblem) Ref() ProblemRef {
	return ProblemRef{ContestID: p.ContestID, Index: p.Index}
}
