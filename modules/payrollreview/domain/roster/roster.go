package roster

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/pkg/httperr"
)

// Roster is a company's reviewers ordered by level. Levels order the
// reviewers; they may be sparse and are not identities.
type Roster struct {
	reviewers []types.Reviewer
}

func New(reviewers []types.Reviewer) *Roster {
	r := &Roster{reviewers: append([]types.Reviewer(nil), reviewers...)}
	r.sort()
	return r
}

func (r *Roster) sort() {
	sort.SliceStable(r.reviewers, func(i, j int) bool {
		if r.reviewers[i].Level != r.reviewers[j].Level {
			return r.reviewers[i].Level < r.reviewers[j].Level
		}
		return r.reviewers[i].ReviewerID < r.reviewers[j].ReviewerID
	})
}

// InOrder returns a copy of the roster sorted ascending by level.
func (r *Roster) InOrder() []types.Reviewer {
	return append([]types.Reviewer(nil), r.reviewers...)
}

func (r *Roster) Len() int { return len(r.reviewers) }

func (r *Roster) Get(reviewerID string) (types.Reviewer, bool) {
	i := r.index(reviewerID)
	if i < 0 {
		return types.Reviewer{}, false
	}
	return r.reviewers[i], true
}

func (r *Roster) ByCompanyUser(companyUserID string) (types.Reviewer, bool) {
	for _, rv := range r.reviewers {
		if rv.CompanyUserID == companyUserID {
			return rv, true
		}
	}
	return types.Reviewer{}, false
}

func (r *Roster) AtLevel(level int) (types.Reviewer, bool) {
	for _, rv := range r.reviewers {
		if rv.Level == level && rv.Active() {
			return rv, true
		}
	}
	return types.Reviewer{}, false
}

func (r *Roster) index(reviewerID string) int {
	for i, rv := range r.reviewers {
		if rv.ReviewerID == reviewerID {
			return i
		}
	}
	return -1
}

// ValidateAdd checks a new reviewer assignment before it is sent to the
// payroll service. A level already held by someone is allowed: the service
// adjusts the other levels.
func (r *Roster) ValidateAdd(candidate types.CompanyUser, level int) error {
	if strings.TrimSpace(candidate.CompanyUserID) == "" {
		return httperr.NewValidation("company user is required")
	}
	if level < 1 {
		return httperr.NewValidation("level must be at least 1")
	}
	if _, ok := r.ByCompanyUser(candidate.CompanyUserID); ok {
		return httperr.NewValidation("user is already a reviewer")
	}
	if !candidate.Role.CanReview() {
		return httperr.NewValidation(fmt.Sprintf("role %s cannot review payroll", candidate.Role))
	}
	return nil
}

// ValidateRemove rejects unknown reviewers and self-removal.
func (r *Roster) ValidateRemove(reviewerID string, actingCompanyUserID string) error {
	rv, ok := r.Get(reviewerID)
	if !ok {
		return httperr.NewNotFound("reviewer not found")
	}
	if actingCompanyUserID != "" && rv.CompanyUserID == actingCompanyUserID {
		return httperr.NewInvalidOperation("you cannot remove yourself as a reviewer")
	}
	return nil
}

// ValidateSetLevel is best effort: the payroll service arbitrates conflicts
// that appear between this check and the update.
func (r *Roster) ValidateSetLevel(reviewerID string, newLevel int) error {
	if newLevel < 1 {
		return httperr.NewValidation("level must be at least 1")
	}
	if _, ok := r.Get(reviewerID); !ok {
		return httperr.NewNotFound("reviewer not found")
	}
	for _, rv := range r.reviewers {
		if rv.ReviewerID != reviewerID && rv.Level == newLevel && rv.Active() {
			return httperr.NewValidation(fmt.Sprintf("level %d is already held by %s", newLevel, displayName(rv)))
		}
	}
	return nil
}

// LevelsDistinct reports whether no two active reviewers share a level.
func (r *Roster) LevelsDistinct() bool {
	seen := make(map[int]struct{}, len(r.reviewers))
	for _, rv := range r.reviewers {
		if !rv.Active() {
			continue
		}
		if _, ok := seen[rv.Level]; ok {
			return false
		}
		seen[rv.Level] = struct{}{}
	}
	return true
}

func displayName(rv types.Reviewer) string {
	if rv.FullName != "" {
		return rv.FullName
	}
	return rv.ReviewerID
}
