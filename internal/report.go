package internal

import "github.com/google/uuid"

// Outcome is what happened to a single comment during a run.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// Entry records the outcome for one comment.
type Entry struct {
	Identifier string
	Username   string
	Outcome    Outcome
	Reasons    []string
	Path       string
	Err        error
}

// Report accounts for every comment considered during a run.
type Report struct {
	RunID string

	Accepted int
	Rejected int
	Skipped  int
	Failed   int
	Pages    int

	// Entries holds accepted, rejected and failed comments in the order they
	// were considered. Skipped comments are only counted.
	Entries []Entry
}

// NewReport returns an empty report with a fresh run ID.
func NewReport() *Report {
	return &Report{RunID: uuid.NewString()}
}

// Add will account for the entry based on its outcome.
func (r *Report) Add(entry Entry) {
	switch entry.Outcome {
	case OutcomeAccepted:
		r.Accepted++
	case OutcomeRejected:
		r.Rejected++
	case OutcomeSkipped:
		r.Skipped++
		return
	case OutcomeFailed:
		r.Failed++
	}

	r.Entries = append(r.Entries, entry)
}
