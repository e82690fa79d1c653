package poll

import (
	"time"

	"outreach-sync/internal/domain"
)

type Outcome string

const (
	OutcomeSent       Outcome = "sent"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeCRMFailed  Outcome = "crm_failed"
	OutcomeMarkFailed Outcome = "mark_failed"
)

// Failed outcomes leave the status cell untouched, so the row is retried next cycle.
func (o Outcome) Failed() bool {
	return o == OutcomeCRMFailed || o == OutcomeMarkFailed
}

type RowResult struct {
	Row     int
	Email   string
	Company string
	Outcome Outcome
	Skip    domain.SkipReason
	Err     error
}

// Report describes one cycle. Err is set when the cycle ended early.
type Report struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time

	RowsRead  int
	Malformed int
	Rows      []RowResult

	Err error
}

func (r Report) Count(o Outcome) int {
	n := 0
	for _, row := range r.Rows {
		if row.Outcome == o {
			n++
		}
	}
	return n
}

// Marked counts rows written as Sent this cycle, duplicates included.
func (r Report) Marked() int {
	return r.Count(OutcomeSent) + r.Count(OutcomeDuplicate)
}

func (r Report) Failed() int {
	n := 0
	for _, row := range r.Rows {
		if row.Outcome.Failed() {
			n++
		}
	}
	return n
}

func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
