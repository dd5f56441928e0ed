package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/ports"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

var (
	newDecisionID = func() (string, error) {
		id, err := uuid.NewV7()
		if err != nil {
			return "", err
		}
		return id.String(), nil
	}
	decisionNow = func() time.Time { return time.Now().UTC() }
)

var ErrDuplicateDecision = errors.New("decision journal: duplicate entry")

type DecisionJournalPGStore struct {
	pool pgBeginner
}

var _ ports.DecisionJournal = (*DecisionJournalPGStore)(nil)

func NewDecisionJournalPGStore(pool pgBeginner) *DecisionJournalPGStore {
	return &DecisionJournalPGStore{pool: pool}
}

func validateDecision(d types.Decision) error {
	if strings.TrimSpace(d.CompanyID) == "" {
		return errors.New("decision journal: company_id is required")
	}
	if strings.TrimSpace(d.SubjectID) == "" {
		return errors.New("decision journal: subject_id is required")
	}
	switch d.Kind {
	case types.DecisionReviewTransition:
		if strings.TrimSpace(d.PayrollRunID) == "" {
			return errors.New("decision journal: payroll_run_id is required for review transitions")
		}
	case types.DecisionRosterReorder:
	default:
		return fmt.Errorf("decision journal: unknown kind %q", d.Kind)
	}
	return nil
}

// stamp fills the server-assigned fields of a new entry.
func stamp(d types.Decision) (types.Decision, error) {
	if err := validateDecision(d); err != nil {
		return types.Decision{}, err
	}
	id, err := newDecisionID()
	if err != nil {
		return types.Decision{}, err
	}
	d.ID = id
	if d.DecidedAt.IsZero() {
		d.DecidedAt = decisionNow()
	}
	d.DecidedAt = d.DecidedAt.UTC()
	return d, nil
}

func (s *DecisionJournalPGStore) AppendDecision(ctx context.Context, d types.Decision) (types.Decision, error) {
	d, err := stamp(d)
	if err != nil {
		return types.Decision{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Decision{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, d.CompanyID); err != nil {
		return types.Decision{}, err
	}

	if _, err := tx.Exec(ctx, `
	INSERT INTO payroll_review.decisions (
	  id, company_id, kind, payroll_run_id, subject_id,
	  from_value, to_value, actor_user_id, request_id, decided_at
	)
	VALUES ($1::uuid, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, NULLIF($9, ''), $10)
	`, d.ID, d.CompanyID, string(d.Kind), d.PayrollRunID, d.SubjectID,
		d.FromValue, d.ToValue, d.ActorUserID, d.RequestID, d.DecidedAt); err != nil {
		if pgErr, ok := errors.AsType[*pgconn.PgError](err); ok && pgErr != nil && pgErr.Code == "23505" {
			return types.Decision{}, fmt.Errorf("%w: %s", ErrDuplicateDecision, strings.TrimSpace(pgErr.ConstraintName))
		}
		return types.Decision{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Decision{}, err
	}
	return d, nil
}

// ListDecisions returns a run's entries oldest first. An empty runID lists
// the company's roster reorders.
func (s *DecisionJournalPGStore) ListDecisions(ctx context.Context, companyID string, runID string) ([]types.Decision, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, companyID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
	SELECT
	  id::text,
	  kind,
	  company_id,
	  COALESCE(payroll_run_id, ''),
	  subject_id,
	  from_value,
	  to_value,
	  actor_user_id,
	  COALESCE(request_id, ''),
	  decided_at
	FROM payroll_review.decisions
	WHERE company_id = $1 AND COALESCE(payroll_run_id, '') = $2
	ORDER BY decided_at ASC, id ASC
	`, companyID, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.Decision{}
	for rows.Next() {
		var d types.Decision
		var kind string
		if err := rows.Scan(&d.ID, &kind, &d.CompanyID, &d.PayrollRunID, &d.SubjectID, &d.FromValue, &d.ToValue, &d.ActorUserID, &d.RequestID, &d.DecidedAt); err != nil {
			return nil, err
		}
		d.Kind = types.DecisionKind(kind)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}
