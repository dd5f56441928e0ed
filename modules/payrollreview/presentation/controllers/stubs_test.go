package controllers

import (
	"context"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/services"
)

var testCred = types.Credential{Token: "tok", CompanyID: "c1", CompanyUserID: "u1", Role: types.RoleAdmin}

func credOK(context.Context) (types.Credential, bool) { return testCred, true }

func credMissing(context.Context) (types.Credential, bool) { return types.Credential{}, false }

type stubRoster struct {
	list      []types.Reviewer
	decisions []types.Decision
	err       error

	calls []string
	args  []any
}

func (s *stubRoster) record(name string, args ...any) ([]types.Reviewer, error) {
	s.calls = append(s.calls, name)
	s.args = append(s.args, args...)
	return s.list, s.err
}

func (s *stubRoster) List(_ context.Context, _ types.Credential) ([]types.Reviewer, error) {
	return s.record("List")
}

func (s *stubRoster) Add(_ context.Context, _ types.Credential, companyUserID string, level int) ([]types.Reviewer, error) {
	return s.record("Add", companyUserID, level)
}

func (s *stubRoster) Remove(_ context.Context, _ types.Credential, reviewerID string) ([]types.Reviewer, error) {
	return s.record("Remove", reviewerID)
}

func (s *stubRoster) SetLevel(_ context.Context, _ types.Credential, reviewerID string, level int) ([]types.Reviewer, error) {
	return s.record("SetLevel", reviewerID, level)
}

func (s *stubRoster) SetStatus(_ context.Context, _ types.Credential, reviewerID string, status types.ReviewerStatus) ([]types.Reviewer, error) {
	return s.record("SetStatus", reviewerID, status)
}

func (s *stubRoster) Swap(_ context.Context, _ types.Credential, a string, b string) ([]types.Reviewer, error) {
	return s.record("Swap", a, b)
}

func (s *stubRoster) Decisions(_ context.Context, _ types.Credential) ([]types.Decision, error) {
	s.calls = append(s.calls, "Decisions")
	return s.decisions, s.err
}

func (s *stubRoster) Move(_ context.Context, _ types.Credential, reviewerID string, direction services.Direction) ([]types.Reviewer, error) {
	return s.record("Move", reviewerID, direction)
}

type stubReviews struct {
	items     []types.ReviewItem
	result    services.TransitionResult
	decisions []types.Decision
	err       error
	gotRunID  string
	gotReview string
	gotTarget types.ReviewStatus
	gotQuery  services.ItemQuery
}

func (s *stubReviews) Items(_ context.Context, _ types.Credential, runID string, q services.ItemQuery) ([]types.ReviewItem, error) {
	s.gotRunID, s.gotQuery = runID, q
	return s.items, s.err
}

func (s *stubReviews) Transition(_ context.Context, _ types.Credential, runID string, reviewID string, target types.ReviewStatus) (services.TransitionResult, error) {
	s.gotRunID, s.gotReview, s.gotTarget = runID, reviewID, target
	return s.result, s.err
}

func (s *stubReviews) Decisions(_ context.Context, _ types.Credential, runID string) ([]types.Decision, error) {
	s.gotRunID = runID
	return s.decisions, s.err
}

type stubPipeline struct {
	progress types.RunProgress
	view     services.StageView
	items    []types.ReviewItem
	err      error
	gotRunID string
}

func (s *stubPipeline) IsRunFullyApproved(_ context.Context, _ types.Credential, runID string) (bool, error) {
	s.gotRunID = runID
	return s.view.State == services.StageFullyApproved, s.err
}

func (s *stubPipeline) ReviewersInOrder(context.Context, types.Credential) ([]types.Reviewer, error) {
	return nil, s.err
}

func (s *stubPipeline) Progress(_ context.Context, _ types.Credential, runID string) (types.RunProgress, error) {
	s.gotRunID = runID
	return s.progress, s.err
}

func (s *stubPipeline) StageState(_ context.Context, _ types.Credential, runID string) (services.StageView, error) {
	s.gotRunID = runID
	return s.view, s.err
}

func (s *stubPipeline) UnlockNextStage(_ context.Context, _ types.Credential, runID string) (bool, error) {
	s.gotRunID = runID
	return s.view.CanContinue, s.err
}

func (s *stubPipeline) DisbursementItems(_ context.Context, _ types.Credential, runID string) ([]types.ReviewItem, error) {
	s.gotRunID = runID
	return s.items, s.err
}
