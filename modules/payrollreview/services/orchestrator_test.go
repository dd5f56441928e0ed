package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/pkg/httperr"
)

func newOrchestrator(t *testing.T, f *fakePayroll, policy Policy) PipelineOrchestrator {
	t.Helper()
	o, err := NewPipelineOrchestrator(f, policy)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestOrchestrator_IsRunFullyApproved(t *testing.T) {
	ctx := context.Background()

	f := reviewFixture()
	o := newOrchestrator(t, f, DefaultPolicy())
	if ok, err := o.IsRunFullyApproved(ctx, adminCred, "run1"); err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}

	f.items = []types.ReviewItem{item("rv1", "e1", 1, types.ReviewApproved), item("rv2", "e2", 2, types.ReviewApproved)}
	if ok, err := o.IsRunFullyApproved(ctx, adminCred, "run1"); err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}

	f.items = nil
	if ok, err := o.IsRunFullyApproved(ctx, adminCred, "run1"); err != nil || ok {
		t.Fatalf("empty run must not be approved: ok=%v err=%v", ok, err)
	}
}

func TestOrchestrator_ProgressPrefersBackend(t *testing.T) {
	f := reviewFixture()
	f.summary = &types.ReviewSummary{
		Run: types.PayrollRun{PayrollRunID: "run1"},
		Steps: []types.ReviewStepSummary{
			{ReviewerLevel: 2, TotalItems: 2, ApprovedItems: 1, PendingItems: 1},
			{ReviewerLevel: 1, TotalItems: 0, CompletionPercentage: 80},
		},
	}
	p, err := newOrchestrator(t, f, DefaultPolicy()).Progress(context.Background(), adminCred, "run1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Source != types.ProgressFromBackend || p.Steps[0].ReviewerLevel != 1 || p.Steps[0].CompletionPercentage != 0 {
		t.Fatalf("progress=%+v", p)
	}
	if p.OverallCompletion != 50 {
		t.Fatalf("overall=%d", p.OverallCompletion)
	}
	if f.prepareCalls != 0 {
		t.Fatalf("prepare calls=%d", f.prepareCalls)
	}
}

func TestOrchestrator_ProgressFallsBackLocally(t *testing.T) {
	f := reviewFixture()
	f.summaryErr = httperr.NewNetwork(errors.New("timeout"))
	p, err := newOrchestrator(t, f, DefaultPolicy()).Progress(context.Background(), adminCred, "run1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Source != types.ProgressLocal || p.TotalItems != 3 || p.OverallCompletion != 33 {
		t.Fatalf("progress=%+v", p)
	}
	if len(p.Steps) != 2 || p.Steps[0].CompletionPercentage != 50 || p.Steps[1].CompletionPercentage != 0 {
		t.Fatalf("steps=%+v", p.Steps)
	}
}

func TestOrchestrator_ProgressAuthIsNotMasked(t *testing.T) {
	f := reviewFixture()
	f.summaryErr = httperr.NewAuth("")
	if _, err := newOrchestrator(t, f, DefaultPolicy()).Progress(context.Background(), adminCred, "run1"); !httperr.IsAuth(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestOrchestrator_StageState(t *testing.T) {
	ctx := context.Background()

	t.Run("no reviewers", func(t *testing.T) {
		f := newFakePayroll()
		f.items = []types.ReviewItem{{EmployeeID: "e1"}}
		view, err := newOrchestrator(t, f, DefaultPolicy()).StageState(ctx, adminCred, "run1")
		if err != nil {
			t.Fatal(err)
		}
		if view.State != StageNoReviewers || view.ConfigureReviewersPath != DefaultConfigureReviewersPath {
			t.Fatalf("view=%+v", view)
		}
		if view.Progress.OverallCompletion != 0 {
			t.Fatalf("progress=%+v", view.Progress)
		}
		if !view.CanContinue {
			t.Fatal("default gate always allows continuing")
		}
	})

	t.Run("only suspended reviewers", func(t *testing.T) {
		f := reviewFixture()
		for id, rv := range f.reviewers {
			rv.Status = types.ReviewerSuspended
			f.reviewers[id] = rv
		}
		view, err := newOrchestrator(t, f, DefaultPolicy()).StageState(ctx, adminCred, "run1")
		if err != nil || view.State != StageNoReviewers {
			t.Fatalf("view=%+v err=%v", view, err)
		}
	})

	t.Run("in review", func(t *testing.T) {
		view, err := newOrchestrator(t, reviewFixture(), DefaultPolicy()).StageState(ctx, adminCred, "run1")
		if err != nil || view.State != StageInReview || view.ConfigureReviewersPath != "" {
			t.Fatalf("view=%+v err=%v", view, err)
		}
	})

	t.Run("fully approved", func(t *testing.T) {
		f := reviewFixture()
		f.items = []types.ReviewItem{item("rv1", "e1", 1, types.ReviewApproved)}
		view, err := newOrchestrator(t, f, DefaultPolicy()).StageState(ctx, adminCred, "run1")
		if err != nil || view.State != StageFullyApproved {
			t.Fatalf("view=%+v err=%v", view, err)
		}
	})
}

func TestOrchestrator_UnlockNextStage(t *testing.T) {
	ctx := context.Background()

	open := newOrchestrator(t, reviewFixture(), DefaultPolicy())
	if ok, err := open.UnlockNextStage(ctx, adminCred, "run1"); err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}

	strict := DefaultPolicy()
	strict.UnlockExpression = "fully_approved && reviewers > 0"
	f := reviewFixture()
	o := newOrchestrator(t, f, strict)
	if ok, err := o.UnlockNextStage(ctx, adminCred, "run1"); err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	f.items = []types.ReviewItem{item("rv1", "e1", 1, types.ReviewApproved)}
	if ok, err := o.UnlockNextStage(ctx, adminCred, "run1"); err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestOrchestrator_DisbursementItemsApprovedOnly(t *testing.T) {
	got, err := newOrchestrator(t, reviewFixture(), DefaultPolicy()).DisbursementItems(context.Background(), adminCred, "run1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ReviewID != "rv2" {
		t.Fatalf("got=%+v", got)
	}
	for _, it := range got {
		if it.Status != types.ReviewApproved {
			t.Fatalf("non-approved item leaked: %+v", it)
		}
	}
}

func TestOrchestrator_ReviewersInOrder(t *testing.T) {
	got, err := newOrchestrator(t, threeReviewers(), DefaultPolicy()).ReviewersInOrder(context.Background(), adminCred)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].Level != 1 || got[2].Level != 5 {
		t.Fatalf("got=%+v", got)
	}
}

func TestNewPipelineOrchestrator_BadExpression(t *testing.T) {
	p := DefaultPolicy()
	p.UnlockExpression = "reviewers + 1"
	if _, err := NewPipelineOrchestrator(newFakePayroll(), p); err == nil {
		t.Fatal("expected error")
	}
}
