package approval

import (
	"sort"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
)

// Summarize aggregates items per reviewer level. Every reviewer on the
// roster gets a step, even with no items; items routed to a level with no
// reviewer still get a step. Items without a review id are not counted.
//
// Items that carry no level (one review record per employee per run) are
// counted in every reviewer's step.
func Summarize(run types.PayrollRun, items []types.ReviewItem, reviewers []types.Reviewer) types.RunProgress {
	steps := map[int]*types.ReviewStepSummary{}
	for _, rv := range reviewers {
		if _, ok := steps[rv.Level]; ok {
			continue
		}
		steps[rv.Level] = &types.ReviewStepSummary{
			ReviewerID:    rv.ReviewerID,
			ReviewerName:  rv.FullName,
			ReviewerLevel: rv.Level,
		}
	}

	var shared []types.ReviewItem
	for _, it := range items {
		if !it.UnderReview() {
			continue
		}
		if it.ReviewerLevel == 0 {
			shared = append(shared, it)
			continue
		}
		st, ok := steps[it.ReviewerLevel]
		if !ok {
			st = &types.ReviewStepSummary{ReviewerLevel: it.ReviewerLevel}
			steps[it.ReviewerLevel] = st
		}
		count(st, it.Status)
	}
	for _, st := range steps {
		for _, it := range shared {
			count(st, it.Status)
		}
	}

	out := types.RunProgress{Run: run, Source: types.ProgressLocal}
	out.Steps = make([]types.ReviewStepSummary, 0, len(steps))
	for _, st := range steps {
		st.CompletionPercentage = Percent(st.ApprovedItems, st.TotalItems)
		out.Steps = append(out.Steps, *st)
	}
	sort.Slice(out.Steps, func(i, j int) bool { return out.Steps[i].ReviewerLevel < out.Steps[j].ReviewerLevel })

	for _, it := range items {
		if !it.UnderReview() {
			continue
		}
		out.TotalItems++
		switch it.Status {
		case types.ReviewApproved:
			out.TotalApproved++
		case types.ReviewRejected:
			out.TotalRejected++
		default:
			out.TotalPending++
		}
	}
	out.OverallCompletion = Percent(out.TotalApproved, out.TotalItems)
	return out
}

// FromBackend turns a pre-aggregated summary into progress, recomputing
// only what the backend leaves implied.
func FromBackend(summary types.ReviewSummary) types.RunProgress {
	out := types.RunProgress{Run: summary.Run, Source: types.ProgressFromBackend}
	out.Steps = make([]types.ReviewStepSummary, 0, len(summary.Steps))
	for _, st := range summary.Steps {
		switch {
		case st.TotalItems == 0:
			st.CompletionPercentage = 0
		case st.CompletionPercentage == 0 && st.ApprovedItems > 0:
			st.CompletionPercentage = Percent(st.ApprovedItems, st.TotalItems)
		}
		out.Steps = append(out.Steps, st)
		out.TotalItems += st.TotalItems
		out.TotalApproved += st.ApprovedItems
		out.TotalPending += st.PendingItems
		out.TotalRejected += st.RejectedItems
	}
	sort.SliceStable(out.Steps, func(i, j int) bool { return out.Steps[i].ReviewerLevel < out.Steps[j].ReviewerLevel })
	out.OverallCompletion = Percent(out.TotalApproved, out.TotalItems)
	return out
}

// FullyApproved is true only for a non-empty set in which every item under
// review is APPROVED.
func FullyApproved(items []types.ReviewItem) bool {
	n := 0
	for _, it := range items {
		if !it.UnderReview() {
			continue
		}
		n++
		if it.Status != types.ReviewApproved {
			return false
		}
	}
	return n > 0
}

func count(st *types.ReviewStepSummary, status types.ReviewStatus) {
	st.TotalItems++
	switch status {
	case types.ReviewApproved:
		st.ApprovedItems++
	case types.ReviewRejected:
		st.RejectedItems++
	default:
		st.PendingItems++
	}
}
