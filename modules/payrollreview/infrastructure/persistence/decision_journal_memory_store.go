package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/ports"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
)

// DecisionJournalMemoryStore keeps entries for the life of the process. It
// backs local development and tests when no database is configured.
type DecisionJournalMemoryStore struct {
	mu      sync.Mutex
	entries []types.Decision
}

var _ ports.DecisionJournal = (*DecisionJournalMemoryStore)(nil)

func NewDecisionJournalMemoryStore() *DecisionJournalMemoryStore {
	return &DecisionJournalMemoryStore{}
}

func (s *DecisionJournalMemoryStore) AppendDecision(_ context.Context, d types.Decision) (types.Decision, error) {
	d, err := stamp(d)
	if err != nil {
		return types.Decision{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, d)
	return d, nil
}

func (s *DecisionJournalMemoryStore) ListDecisions(_ context.Context, companyID string, runID string) ([]types.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []types.Decision{}
	for _, d := range s.entries {
		if d.CompanyID == companyID && d.PayrollRunID == runID {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DecidedAt.Before(out[j].DecidedAt) })
	return out, nil
}
