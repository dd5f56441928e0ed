package approval

import (
	"context"
	"errors"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/pkg/httperr"
)

// Updater persists a single item's status. It is the only seam between a
// transition and the payroll service, so a version check can be added here
// without touching callers.
type Updater interface {
	UpdateReviewStatus(ctx context.Context, reviewID string, status types.ReviewStatus) error
}

type UpdaterFunc func(ctx context.Context, reviewID string, status types.ReviewStatus) error

func (f UpdaterFunc) UpdateReviewStatus(ctx context.Context, reviewID string, status types.ReviewStatus) error {
	return f(ctx, reviewID, status)
}

// CanTransition reports whether from -> to is a real move. Every status can
// reach both other statuses; none is terminal.
func CanTransition(from types.ReviewStatus, to types.ReviewStatus) bool {
	return from.Valid() && to.Valid() && from != to
}

// AvailableTargets lists the statuses offered for an item in status current.
func AvailableTargets(current types.ReviewStatus) []types.ReviewStatus {
	out := make([]types.ReviewStatus, 0, 2)
	for _, s := range types.ReviewStatuses {
		if CanTransition(current, s) {
			out = append(out, s)
		}
	}
	return out
}

type Result struct {
	Item    types.ReviewItem
	Changed bool
}

type Machine struct {
	updater Updater
}

func NewMachine(updater Updater) Machine {
	return Machine{updater: updater}
}

// Transition moves item to target through the updater. Asking for the
// current status is a no-op with no call. On failure the returned item keeps
// its last known status.
func (m Machine) Transition(ctx context.Context, item types.ReviewItem, target types.ReviewStatus) (Result, error) {
	if !item.UnderReview() {
		return Result{Item: item}, httperr.NewInvalidOperation("item is not under review")
	}
	if !target.Valid() {
		return Result{Item: item}, httperr.NewValidation("invalid review status: " + string(target))
	}
	if item.Status == target {
		return Result{Item: item}, nil
	}
	if m.updater == nil {
		return Result{Item: item}, errors.New("approval: missing updater")
	}
	if err := m.updater.UpdateReviewStatus(ctx, item.ReviewID, target); err != nil {
		return Result{Item: item}, classifyUpdateError(err)
	}
	next := item
	next.Status = target
	return Result{Item: next, Changed: true}, nil
}

func classifyUpdateError(err error) error {
	if _, ok := httperr.KindOf(err); ok {
		return err
	}
	return httperr.WrapUpdateFailed("could not update review status", err)
}
