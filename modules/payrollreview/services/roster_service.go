package services

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/ports"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/roster"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/pkg/httperr"
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// RosterService edits the company's reviewer roster. Every mutation is
// followed by a fresh read so callers always get the service's view back.
type RosterService interface {
	List(ctx context.Context, cred types.Credential) ([]types.Reviewer, error)
	Add(ctx context.Context, cred types.Credential, companyUserID string, level int) ([]types.Reviewer, error)
	Remove(ctx context.Context, cred types.Credential, reviewerID string) ([]types.Reviewer, error)
	SetLevel(ctx context.Context, cred types.Credential, reviewerID string, level int) ([]types.Reviewer, error)
	SetStatus(ctx context.Context, cred types.Credential, reviewerID string, status types.ReviewerStatus) ([]types.Reviewer, error)
	Swap(ctx context.Context, cred types.Credential, reviewerA string, reviewerB string) ([]types.Reviewer, error)
	Move(ctx context.Context, cred types.Credential, reviewerID string, direction Direction) ([]types.Reviewer, error)
	// Decisions lists the company's journalled roster changes, oldest first.
	Decisions(ctx context.Context, cred types.Credential) ([]types.Decision, error)
}

type rosterService struct {
	payroll ports.PayrollService
	journal ports.DecisionJournal
}

func NewRosterService(payroll ports.PayrollService, journal ports.DecisionJournal) RosterService {
	return &rosterService{payroll: payroll, journal: journal}
}

func loadRoster(ctx context.Context, payroll ports.PayrollService, cred types.Credential) (*roster.Roster, error) {
	reviewers, err := payroll.ListReviewers(ctx, cred)
	if err != nil {
		return nil, err
	}
	return roster.New(reviewers), nil
}

func (s *rosterService) List(ctx context.Context, cred types.Credential) ([]types.Reviewer, error) {
	r, err := loadRoster(ctx, s.payroll, cred)
	if err != nil {
		return nil, err
	}
	return r.InOrder(), nil
}

func (s *rosterService) Add(ctx context.Context, cred types.Credential, companyUserID string, level int) ([]types.Reviewer, error) {
	companyUserID = strings.TrimSpace(companyUserID)
	if companyUserID == "" {
		return nil, httperr.NewValidation("company user is required")
	}
	r, err := loadRoster(ctx, s.payroll, cred)
	if err != nil {
		return nil, err
	}
	candidate, err := s.payroll.GetCompanyUser(ctx, cred, companyUserID)
	if err != nil {
		return nil, err
	}
	if candidate.CompanyUserID == "" {
		candidate.CompanyUserID = companyUserID
	}
	if err := r.ValidateAdd(candidate, level); err != nil {
		return nil, err
	}
	if _, err := s.payroll.CreateReviewer(ctx, cred, companyUserID, level); err != nil {
		return nil, err
	}
	return s.List(ctx, cred)
}

func (s *rosterService) Remove(ctx context.Context, cred types.Credential, reviewerID string) ([]types.Reviewer, error) {
	r, err := loadRoster(ctx, s.payroll, cred)
	if err != nil {
		return nil, err
	}
	if err := r.ValidateRemove(reviewerID, cred.CompanyUserID); err != nil {
		return nil, err
	}
	if err := s.payroll.DeleteReviewer(ctx, cred, reviewerID); err != nil {
		return nil, err
	}
	return s.List(ctx, cred)
}

func (s *rosterService) SetLevel(ctx context.Context, cred types.Credential, reviewerID string, level int) ([]types.Reviewer, error) {
	r, err := loadRoster(ctx, s.payroll, cred)
	if err != nil {
		return nil, err
	}
	if err := r.ValidateSetLevel(reviewerID, level); err != nil {
		return nil, err
	}
	before, _ := r.Get(reviewerID)
	if before.Level == level {
		return r.InOrder(), nil
	}
	if _, err := s.payroll.UpdateReviewerLevel(ctx, cred, reviewerID, level); err != nil {
		return nil, err
	}
	recordDecision(ctx, s.journal, cred, types.Decision{
		Kind:      types.DecisionRosterReorder,
		SubjectID: reviewerID,
		FromValue: strconv.Itoa(before.Level),
		ToValue:   strconv.Itoa(level),
	})
	return s.List(ctx, cred)
}

func (s *rosterService) SetStatus(ctx context.Context, cred types.Credential, reviewerID string, status types.ReviewerStatus) ([]types.Reviewer, error) {
	status = types.ReviewerStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, httperr.NewValidation("invalid reviewer status: " + string(status))
	}
	r, err := loadRoster(ctx, s.payroll, cred)
	if err != nil {
		return nil, err
	}
	rv, ok := r.Get(reviewerID)
	if !ok {
		return nil, httperr.NewNotFound("reviewer not found")
	}
	if rv.Status == status {
		return r.InOrder(), nil
	}
	if _, err := s.payroll.UpdateReviewerStatus(ctx, cred, reviewerID, status); err != nil {
		return nil, err
	}
	return s.List(ctx, cred)
}

func (s *rosterService) Swap(ctx context.Context, cred types.Credential, reviewerA string, reviewerB string) ([]types.Reviewer, error) {
	r, err := loadRoster(ctx, s.payroll, cred)
	if err != nil {
		return nil, err
	}
	plan, err := r.Swap(reviewerA, reviewerB)
	if err != nil {
		return nil, err
	}
	return s.applyPlan(ctx, cred, r, plan)
}

func (s *rosterService) Move(ctx context.Context, cred types.Credential, reviewerID string, direction Direction) ([]types.Reviewer, error) {
	r, err := loadRoster(ctx, s.payroll, cred)
	if err != nil {
		return nil, err
	}
	var plan roster.SwapPlan
	switch Direction(strings.ToLower(strings.TrimSpace(string(direction)))) {
	case DirectionUp:
		plan, err = r.MoveUp(reviewerID)
	case DirectionDown:
		plan, err = r.MoveDown(reviewerID)
	default:
		return nil, httperr.NewValidation("direction must be up or down")
	}
	if err != nil {
		return nil, err
	}
	return s.applyPlan(ctx, cred, r, plan)
}

// applyPlan sends all reassignments in one request; two separate level
// updates would briefly put two reviewers on the same level.
func (s *rosterService) applyPlan(ctx context.Context, cred types.Credential, r *roster.Roster, plan roster.SwapPlan) ([]types.Reviewer, error) {
	if plan.NoChange {
		return r.InOrder(), nil
	}
	if err := s.payroll.ReorderReviewers(ctx, cred, plan.Assignments); err != nil {
		return nil, err
	}
	for _, a := range plan.Assignments {
		before, _ := r.Get(a.ReviewerID)
		recordDecision(ctx, s.journal, cred, types.Decision{
			Kind:      types.DecisionRosterReorder,
			SubjectID: a.ReviewerID,
			FromValue: strconv.Itoa(before.Level),
			ToValue:   strconv.Itoa(a.Level),
		})
	}
	fresh, err := s.List(ctx, cred)
	if err != nil {
		log.Printf("payrollreview: refresh after reorder failed: %v", err)
		r.Apply(plan)
		return r.InOrder(), nil
	}
	return fresh, nil
}

func (s *rosterService) Decisions(ctx context.Context, cred types.Credential) ([]types.Decision, error) {
	if !cred.Present() {
		return nil, httperr.NewAuth("")
	}
	if s.journal == nil {
		return []types.Decision{}, nil
	}
	return s.journal.ListDecisions(ctx, cred.CompanyID, "")
}
