package types

import "time"

type DecisionKind string

const (
	DecisionReviewTransition DecisionKind = "review_transition"
	DecisionRosterReorder    DecisionKind = "roster_reorder"
)

// Decision is one journal entry for a mutation that the payroll service accepted.
type Decision struct {
	ID           string       `json:"id"`
	Kind         DecisionKind `json:"kind"`
	CompanyID    string       `json:"company_id"`
	PayrollRunID string       `json:"payroll_run_id,omitempty"`
	SubjectID    string       `json:"subject_id"`
	FromValue    string       `json:"from_value"`
	ToValue      string       `json:"to_value"`
	ActorUserID  string       `json:"actor_user_id"`
	RequestID    string       `json:"request_id"`
	DecidedAt    time.Time    `json:"decided_at"`
}
