package services

import (
	"context"
	"log"
	"strings"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/approval"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/ports"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/reviewitems"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/pkg/httperr"
)

type ItemQuery struct {
	Status types.ReviewStatus
	Search string
}

type TransitionResult struct {
	Item             types.ReviewItem     `json:"item"`
	Changed          bool                 `json:"changed"`
	AvailableTargets []types.ReviewStatus `json:"available_targets"`
	Items            []types.ReviewItem   `json:"items"`
	Progress         *types.RunProgress   `json:"progress,omitempty"`
}

type ProgressReader interface {
	Progress(ctx context.Context, cred types.Credential, runID string) (types.RunProgress, error)
}

type ReviewService interface {
	Items(ctx context.Context, cred types.Credential, runID string, q ItemQuery) ([]types.ReviewItem, error)
	Transition(ctx context.Context, cred types.Credential, runID string, reviewID string, target types.ReviewStatus) (TransitionResult, error)
	Decisions(ctx context.Context, cred types.Credential, runID string) ([]types.Decision, error)
}

type reviewService struct {
	payroll    ports.PayrollService
	journal    ports.DecisionJournal
	progress   ProgressReader
	precedence approval.Precedence
}

func NewReviewService(payroll ports.PayrollService, journal ports.DecisionJournal, progress ProgressReader, policy Policy) ReviewService {
	return &reviewService{
		payroll:    payroll,
		journal:    journal,
		progress:   progress,
		precedence: approval.Precedence{EnforceSequential: policy.EnforceSequentialApproval},
	}
}

func (s *reviewService) load(ctx context.Context, cred types.Credential, runID string) (*reviewitems.Store, error) {
	if err := requireRunID(runID); err != nil {
		return nil, err
	}
	items, err := s.payroll.PrepareRun(ctx, cred, runID)
	if err != nil {
		return nil, err
	}
	store := reviewitems.NewStore()
	store.Load(runID, items)
	return store, nil
}

// Items lists a run's items. A status filter only ever returns items under
// review; the search term is applied on top of it.
func (s *reviewService) Items(ctx context.Context, cred types.Credential, runID string, q ItemQuery) ([]types.ReviewItem, error) {
	status := types.ReviewStatus(strings.ToUpper(strings.TrimSpace(string(q.Status))))
	if status != "" && !status.Valid() {
		return nil, httperr.NewValidation("invalid review status: " + string(q.Status))
	}
	store, err := s.load(ctx, cred, runID)
	if err != nil {
		return nil, err
	}
	items := store.Items()
	if status != "" {
		items = reviewitems.FilterByStatus(items, status)
	}
	if strings.TrimSpace(q.Search) != "" {
		items = reviewitems.GlobalSearch(items, q.Search)
	}
	return items, nil
}

func (s *reviewService) Transition(ctx context.Context, cred types.Credential, runID string, reviewID string, target types.ReviewStatus) (TransitionResult, error) {
	target = types.ReviewStatus(strings.ToUpper(strings.TrimSpace(string(target))))
	if strings.TrimSpace(reviewID) == "" {
		return TransitionResult{}, httperr.NewValidation("review id is required")
	}
	store, err := s.load(ctx, cred, runID)
	if err != nil {
		return TransitionResult{}, err
	}
	item, ok := store.Get(reviewID)
	if !ok {
		return TransitionResult{}, httperr.NewNotFound("review item not found")
	}

	if s.precedence.EnforceSequential && target.Valid() && item.Status != target {
		if err := s.checkPrecedence(ctx, cred, store); err != nil {
			return TransitionResult{Item: item, AvailableTargets: approval.AvailableTargets(item.Status)}, err
		}
	}

	machine := approval.NewMachine(approval.UpdaterFunc(func(ctx context.Context, id string, status types.ReviewStatus) error {
		return s.payroll.UpdateReviewStatus(ctx, cred, id, status)
	}))
	res, err := machine.Transition(ctx, item, target)
	if err != nil {
		return TransitionResult{Item: res.Item, AvailableTargets: approval.AvailableTargets(res.Item.Status)}, err
	}

	out := TransitionResult{Item: res.Item, Changed: res.Changed}
	if res.Changed {
		recordDecision(ctx, s.journal, cred, types.Decision{
			Kind:         types.DecisionReviewTransition,
			PayrollRunID: runID,
			SubjectID:    reviewID,
			FromValue:    string(item.Status),
			ToValue:      string(target),
		})
		fresh, err := s.payroll.PrepareRun(ctx, cred, runID)
		if err != nil {
			log.Printf("payrollreview: refresh after transition of %s failed: %v", reviewID, err)
			store.SetStatus(reviewID, target)
		} else {
			store.Replace(runID, fresh)
		}
		if refreshed, ok := store.Get(reviewID); ok {
			out.Item = refreshed
		}
	}
	out.Items = store.Items()
	out.AvailableTargets = approval.AvailableTargets(out.Item.Status)

	if s.progress != nil {
		p, err := s.progress.Progress(ctx, cred, runID)
		if err != nil {
			log.Printf("payrollreview: progress after transition of %s failed: %v", reviewID, err)
		} else {
			out.Progress = &p
		}
	}
	return out, nil
}

// checkPrecedence resolves the caller's level on the roster and checks the
// levels below it. A caller who is not an active reviewer has level 0.
func (s *reviewService) checkPrecedence(ctx context.Context, cred types.Credential, store *reviewitems.Store) error {
	reviewers, err := s.payroll.ListReviewers(ctx, cred)
	if err != nil {
		return err
	}
	level := 0
	for _, rv := range reviewers {
		if rv.CompanyUserID == cred.CompanyUserID && rv.Active() {
			level = rv.Level
			break
		}
	}
	progress := approval.Summarize(types.PayrollRun{PayrollRunID: store.RunID()}, store.Items(), reviewers)
	return s.precedence.Check(level, progress.Steps)
}

func (s *reviewService) Decisions(ctx context.Context, cred types.Credential, runID string) ([]types.Decision, error) {
	if !cred.Present() {
		return nil, httperr.NewAuth("")
	}
	if err := requireRunID(runID); err != nil {
		return nil, err
	}
	if s.journal == nil {
		return []types.Decision{}, nil
	}
	return s.journal.ListDecisions(ctx, cred.CompanyID, runID)
}
