package ports

import (
	"context"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
)

type DecisionJournal interface {
	AppendDecision(ctx context.Context, d types.Decision) (types.Decision, error)
	ListDecisions(ctx context.Context, companyID string, runID string) ([]types.Decision, error)
}
