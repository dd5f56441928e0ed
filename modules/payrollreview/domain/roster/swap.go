package roster

import (
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/pkg/httperr"
)

// SwapPlan is the single reorder request that exchanges two levels.
// A zero plan (NoChange) means there is nothing to send.
type SwapPlan struct {
	NoChange    bool
	Assignments []types.LevelAssignment
}

// Swap exchanges the levels of two reviewers.
func (r *Roster) Swap(reviewerA string, reviewerB string) (SwapPlan, error) {
	if reviewerA == "" || reviewerB == "" {
		return SwapPlan{}, httperr.NewValidation("two reviewers are required")
	}
	if reviewerA == reviewerB {
		return SwapPlan{}, httperr.NewValidation("select two different reviewers")
	}
	a, ok := r.Get(reviewerA)
	if !ok {
		return SwapPlan{}, httperr.NewNotFound("reviewer not found: " + reviewerA)
	}
	b, ok := r.Get(reviewerB)
	if !ok {
		return SwapPlan{}, httperr.NewNotFound("reviewer not found: " + reviewerB)
	}
	if a.Level == b.Level {
		return SwapPlan{NoChange: true}, nil
	}
	return SwapPlan{Assignments: []types.LevelAssignment{
		{ReviewerID: a.ReviewerID, Level: b.Level},
		{ReviewerID: b.ReviewerID, Level: a.Level},
	}}, nil
}

// MoveUp swaps the reviewer with its nearest neighbour at a lower level.
// Reviewers sharing its level are skipped. With no such neighbour it returns
// a NoChange plan.
func (r *Roster) MoveUp(reviewerID string) (SwapPlan, error) {
	return r.move(reviewerID, -1)
}

// MoveDown swaps the reviewer with its nearest neighbour at a higher level.
func (r *Roster) MoveDown(reviewerID string) (SwapPlan, error) {
	return r.move(reviewerID, 1)
}

func (r *Roster) move(reviewerID string, step int) (SwapPlan, error) {
	i := r.index(reviewerID)
	if i < 0 {
		return SwapPlan{}, httperr.NewNotFound("reviewer not found")
	}
	level := r.reviewers[i].Level
	for j := i + step; j >= 0 && j < len(r.reviewers); j += step {
		if r.reviewers[j].Level != level {
			return r.Swap(reviewerID, r.reviewers[j].ReviewerID)
		}
	}
	return SwapPlan{NoChange: true}, nil
}

// Apply writes an accepted plan into the local copy.
func (r *Roster) Apply(plan SwapPlan) {
	if plan.NoChange {
		return
	}
	for _, a := range plan.Assignments {
		if i := r.index(a.ReviewerID); i >= 0 {
			r.reviewers[i].Level = a.Level
		}
	}
	r.sort()
}
