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

type StageState string

const (
	StageNoReviewers   StageState = "NO_REVIEWERS"
	StageInReview      StageState = "IN_REVIEW"
	StageFullyApproved StageState = "FULLY_APPROVED"
)

type StageView struct {
	RunID                  string            `json:"run_id"`
	State                  StageState        `json:"state"`
	ConfigureReviewersPath string            `json:"configure_reviewers_path,omitempty"`
	CanContinue            bool              `json:"can_continue"`
	Progress               types.RunProgress `json:"progress"`
}

// PipelineOrchestrator answers where a run stands in the approval pipeline
// and whether the disbursement stage may be opened.
type PipelineOrchestrator interface {
	IsRunFullyApproved(ctx context.Context, cred types.Credential, runID string) (bool, error)
	ReviewersInOrder(ctx context.Context, cred types.Credential) ([]types.Reviewer, error)
	Progress(ctx context.Context, cred types.Credential, runID string) (types.RunProgress, error)
	StageState(ctx context.Context, cred types.Credential, runID string) (StageView, error)
	UnlockNextStage(ctx context.Context, cred types.Credential, runID string) (bool, error)
	DisbursementItems(ctx context.Context, cred types.Credential, runID string) ([]types.ReviewItem, error)
}

type orchestrator struct {
	payroll ports.PayrollService
	gate    *StageGate
	policy  Policy
}

func NewPipelineOrchestrator(payroll ports.PayrollService, policy Policy) (PipelineOrchestrator, error) {
	gate, err := NewStageGate(policy.UnlockExpression)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(policy.ConfigureReviewersPath) == "" {
		policy.ConfigureReviewersPath = DefaultConfigureReviewersPath
	}
	return &orchestrator{payroll: payroll, gate: gate, policy: policy}, nil
}

func requireRunID(runID string) error {
	if strings.TrimSpace(runID) == "" {
		return httperr.NewValidation("payroll run id is required")
	}
	return nil
}

func (o *orchestrator) loadItems(ctx context.Context, cred types.Credential, runID string) (*reviewitems.Store, error) {
	if err := requireRunID(runID); err != nil {
		return nil, err
	}
	items, err := o.payroll.PrepareRun(ctx, cred, runID)
	if err != nil {
		return nil, err
	}
	store := reviewitems.NewStore()
	store.Load(runID, items)
	return store, nil
}

// IsRunFullyApproved is false for a run with no items under review.
func (o *orchestrator) IsRunFullyApproved(ctx context.Context, cred types.Credential, runID string) (bool, error) {
	store, err := o.loadItems(ctx, cred, runID)
	if err != nil {
		return false, err
	}
	return approval.FullyApproved(store.Items()), nil
}

func (o *orchestrator) ReviewersInOrder(ctx context.Context, cred types.Credential) ([]types.Reviewer, error) {
	r, err := loadRoster(ctx, o.payroll, cred)
	if err != nil {
		return nil, err
	}
	return r.InOrder(), nil
}

// Progress prefers the service's review summary and aggregates locally when
// the summary cannot be read. Auth failures are never papered over.
func (o *orchestrator) Progress(ctx context.Context, cred types.Credential, runID string) (types.RunProgress, error) {
	if err := requireRunID(runID); err != nil {
		return types.RunProgress{}, err
	}
	summary, err := o.payroll.ReviewSummary(ctx, cred, runID)
	if err == nil {
		return approval.FromBackend(summary), nil
	}
	if httperr.IsAuth(err) {
		return types.RunProgress{}, err
	}
	log.Printf("payrollreview: review summary for run %s unavailable, aggregating locally: %v", runID, err)
	return o.localProgress(ctx, cred, runID)
}

func (o *orchestrator) localProgress(ctx context.Context, cred types.Credential, runID string) (types.RunProgress, error) {
	store, err := o.loadItems(ctx, cred, runID)
	if err != nil {
		return types.RunProgress{}, err
	}
	reviewers, err := o.payroll.ListReviewers(ctx, cred)
	if err != nil {
		return types.RunProgress{}, err
	}
	return approval.Summarize(types.PayrollRun{PayrollRunID: runID}, store.Items(), reviewers), nil
}

func (o *orchestrator) StageState(ctx context.Context, cred types.Credential, runID string) (StageView, error) {
	store, err := o.loadItems(ctx, cred, runID)
	if err != nil {
		return StageView{}, err
	}
	reviewers, err := o.payroll.ListReviewers(ctx, cred)
	if err != nil {
		return StageView{}, err
	}
	progress, err := o.Progress(ctx, cred, runID)
	if err != nil {
		return StageView{}, err
	}

	active := 0
	for _, rv := range reviewers {
		if rv.Active() {
			active++
		}
	}
	fully := approval.FullyApproved(store.Items())

	view := StageView{RunID: runID, Progress: progress}
	switch {
	case active == 0 || len(store.Actionable()) == 0:
		view.State = StageNoReviewers
		view.ConfigureReviewersPath = o.policy.ConfigureReviewersPath
	case fully:
		view.State = StageFullyApproved
	default:
		view.State = StageInReview
	}

	view.CanContinue, err = o.gate.Allow(GateInput{FullyApproved: fully, Reviewers: active, Progress: progress})
	if err != nil {
		return StageView{}, err
	}
	return view, nil
}

// UnlockNextStage reports whether continue-to-disbursement is enabled. With
// the default expression it always is; a stricter gate is configuration.
func (o *orchestrator) UnlockNextStage(ctx context.Context, cred types.Credential, runID string) (bool, error) {
	view, err := o.StageState(ctx, cred, runID)
	if err != nil {
		return false, err
	}
	return view.CanContinue, nil
}

// DisbursementItems is the only source of items for bank files and payslips.
func (o *orchestrator) DisbursementItems(ctx context.Context, cred types.Credential, runID string) ([]types.ReviewItem, error) {
	store, err := o.loadItems(ctx, cred, runID)
	if err != nil {
		return nil, err
	}
	return store.Approved(), nil
}
