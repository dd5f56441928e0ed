package approval

import (
	"fmt"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/pkg/httperr"
)

// Precedence decides whether a reviewer may act given the progress of the
// levels before it. With EnforceSequential off (the default) any reviewer
// may act at any time.
type Precedence struct {
	EnforceSequential bool
}

// Check returns an InvalidOperationError when sequential approval is
// enforced and a lower level still has pending items. Rejected items do
// not hold later levels back.
func (p Precedence) Check(actingLevel int, steps []types.ReviewStepSummary) error {
	if !p.EnforceSequential {
		return nil
	}
	if actingLevel < 1 {
		return httperr.NewInvalidOperation("acting user is not a reviewer on this run")
	}
	for _, st := range steps {
		if st.ReviewerLevel >= actingLevel || st.TotalItems == 0 {
			continue
		}
		if st.PendingItems > 0 {
			return httperr.NewInvalidOperation(fmt.Sprintf("level %d has not finished its review", st.ReviewerLevel))
		}
	}
	return nil
}
