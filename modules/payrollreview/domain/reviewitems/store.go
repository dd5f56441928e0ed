package reviewitems

import (
	"strings"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
)

// Store holds the review items of one payroll run. It is a refreshable copy
// of what the payroll service returned; the service stays authoritative.
type Store struct {
	runID string
	items []types.ReviewItem
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) RunID() string { return s.runID }

// Load makes runID the current run and replaces its items.
func (s *Store) Load(runID string, items []types.ReviewItem) {
	s.runID = runID
	s.items = append([]types.ReviewItem(nil), items...)
}

// Replace applies a refreshed item list for runID. A response for another
// run is stale and dropped; the return value reports whether it was applied.
func (s *Store) Replace(runID string, items []types.ReviewItem) bool {
	if s.runID != "" && s.runID != runID {
		return false
	}
	s.Load(runID, items)
	return true
}

func (s *Store) Items() []types.ReviewItem {
	return append([]types.ReviewItem(nil), s.items...)
}

func (s *Store) Len() int { return len(s.items) }

// Actionable returns the items that carry a review id.
func (s *Store) Actionable() []types.ReviewItem {
	out := make([]types.ReviewItem, 0, len(s.items))
	for _, it := range s.items {
		if it.UnderReview() {
			out = append(out, it)
		}
	}
	return out
}

func (s *Store) Get(reviewID string) (types.ReviewItem, bool) {
	if reviewID == "" {
		return types.ReviewItem{}, false
	}
	for _, it := range s.items {
		if it.ReviewID == reviewID {
			return it, true
		}
	}
	return types.ReviewItem{}, false
}

// SetStatus records a transition the payroll service accepted.
func (s *Store) SetStatus(reviewID string, status types.ReviewStatus) bool {
	for i := range s.items {
		if s.items[i].ReviewID == reviewID && reviewID != "" {
			s.items[i].Status = status
			return true
		}
	}
	return false
}

func (s *Store) FilterByStatus(status types.ReviewStatus) []types.ReviewItem {
	return FilterByStatus(s.items, status)
}

// Approved is the only view disbursement and payslip distribution may consume.
func (s *Store) Approved() []types.ReviewItem {
	return FilterByStatus(s.items, types.ReviewApproved)
}

func (s *Store) GlobalSearch(term string) []types.ReviewItem {
	return GlobalSearch(s.items, term)
}

func FilterByStatus(items []types.ReviewItem, status types.ReviewStatus) []types.ReviewItem {
	out := make([]types.ReviewItem, 0, len(items))
	for _, it := range items {
		if it.UnderReview() && it.Status == status {
			out = append(out, it)
		}
	}
	return out
}

// GlobalSearch matches term case-insensitively against any one of the
// item's display fields or allowance metadata fields.
func GlobalSearch(items []types.ReviewItem, term string) []types.ReviewItem {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return append([]types.ReviewItem(nil), items...)
	}
	out := make([]types.ReviewItem, 0, len(items))
	for _, it := range items {
		if matches(it, needle) {
			out = append(out, it)
		}
	}
	return out
}

func matches(it types.ReviewItem, needle string) bool {
	for _, f := range []string{it.EmployeeName, it.EmployeeID, it.JobTitle, it.Department} {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	for _, a := range it.Allowances {
		for _, f := range a.SearchFields() {
			if strings.Contains(strings.ToLower(f), needle) {
				return true
			}
		}
	}
	return false
}
