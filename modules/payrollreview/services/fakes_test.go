package services

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/pkg/httperr"
)

var adminCred = types.Credential{Token: "t", CompanyID: "c1", CompanyUserID: "u1", Role: types.RoleAdmin}

// fakePayroll is an in-memory payroll service with call recording and
// per-method error injection.
type fakePayroll struct {
	reviewers map[string]types.Reviewer
	users     map[string]types.CompanyUser
	items     []types.ReviewItem

	summary    *types.ReviewSummary
	summaryErr error
	updateErr  error
	listErr    error
	prepareErr error

	prepareCalls int
	reorders     [][]types.LevelAssignment
	updates      []string
	created      []string
	deleted      []string
}

func newFakePayroll(reviewers ...types.Reviewer) *fakePayroll {
	f := &fakePayroll{reviewers: map[string]types.Reviewer{}, users: map[string]types.CompanyUser{}}
	for _, rv := range reviewers {
		if rv.Status == "" {
			rv.Status = types.ReviewerActive
		}
		f.reviewers[rv.ReviewerID] = rv
	}
	return f
}

func (f *fakePayroll) ListReviewers(context.Context, types.Credential) ([]types.Reviewer, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]types.Reviewer, 0, len(f.reviewers))
	for _, rv := range f.reviewers {
		out = append(out, rv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewerID < out[j].ReviewerID })
	return out, nil
}

func (f *fakePayroll) GetCompanyUser(_ context.Context, _ types.Credential, id string) (types.CompanyUser, error) {
	u, ok := f.users[id]
	if !ok {
		return types.CompanyUser{}, httperr.NewNotFound("company user not found")
	}
	return u, nil
}

func (f *fakePayroll) CreateReviewer(_ context.Context, _ types.Credential, companyUserID string, level int) (types.Reviewer, error) {
	u := f.users[companyUserID]
	rv := types.Reviewer{ReviewerID: "r-" + companyUserID, CompanyUserID: companyUserID, FullName: u.FullName, Role: u.Role, Level: level, Status: types.ReviewerActive}
	f.reviewers[rv.ReviewerID] = rv
	f.created = append(f.created, companyUserID)
	return rv, nil
}

func (f *fakePayroll) UpdateReviewerLevel(_ context.Context, _ types.Credential, id string, level int) (types.Reviewer, error) {
	rv, ok := f.reviewers[id]
	if !ok {
		return types.Reviewer{}, httperr.NewNotFound("reviewer not found")
	}
	rv.Level = level
	f.reviewers[id] = rv
	return rv, nil
}

func (f *fakePayroll) UpdateReviewerStatus(_ context.Context, _ types.Credential, id string, status types.ReviewerStatus) (types.Reviewer, error) {
	rv, ok := f.reviewers[id]
	if !ok {
		return types.Reviewer{}, httperr.NewNotFound("reviewer not found")
	}
	rv.Status = status
	f.reviewers[id] = rv
	return rv, nil
}

func (f *fakePayroll) ReorderReviewers(_ context.Context, _ types.Credential, assignments []types.LevelAssignment) error {
	f.reorders = append(f.reorders, assignments)
	for _, a := range assignments {
		rv := f.reviewers[a.ReviewerID]
		rv.Level = a.Level
		f.reviewers[a.ReviewerID] = rv
	}
	return nil
}

func (f *fakePayroll) DeleteReviewer(_ context.Context, _ types.Credential, id string) error {
	delete(f.reviewers, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePayroll) PrepareRun(context.Context, types.Credential, string) ([]types.ReviewItem, error) {
	f.prepareCalls++
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}
	return append([]types.ReviewItem(nil), f.items...), nil
}

func (f *fakePayroll) UpdateReviewStatus(_ context.Context, _ types.Credential, reviewID string, status types.ReviewStatus) error {
	f.updates = append(f.updates, reviewID+"="+string(status))
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.items {
		if f.items[i].ReviewID == reviewID {
			f.items[i].Status = status
		}
	}
	return nil
}

func (f *fakePayroll) ReviewSummary(context.Context, types.Credential, string) (types.ReviewSummary, error) {
	if f.summaryErr != nil {
		return types.ReviewSummary{}, f.summaryErr
	}
	if f.summary == nil {
		return types.ReviewSummary{}, httperr.NewNetwork(errors.New("summary not configured"))
	}
	return *f.summary, nil
}

type fakeJournal struct {
	entries []types.Decision
	err     error
}

func (j *fakeJournal) AppendDecision(_ context.Context, d types.Decision) (types.Decision, error) {
	if j.err != nil {
		return types.Decision{}, j.err
	}
	d.ID = "d" + strconv.Itoa(len(j.entries)+1)
	j.entries = append(j.entries, d)
	return d, nil
}

func (j *fakeJournal) ListDecisions(_ context.Context, companyID string, runID string) ([]types.Decision, error) {
	var out []types.Decision
	for _, d := range j.entries {
		if d.CompanyID == companyID && d.PayrollRunID == runID {
			out = append(out, d)
		}
	}
	return out, nil
}

func item(reviewID string, employeeID string, level int, status types.ReviewStatus) types.ReviewItem {
	return types.ReviewItem{ReviewID: reviewID, PayrollRunID: "run1", EmployeeID: employeeID, ReviewerLevel: level, Status: status}
}

func ids(reviewers []types.Reviewer) []string {
	out := make([]string, 0, len(reviewers))
	for _, rv := range reviewers {
		out = append(out, rv.ReviewerID)
	}
	return out
}
