package services

import (
	"context"
	"log"
	"time"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/ports"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/pkg/requestid"
)

var nowUTC = func() time.Time { return time.Now().UTC() }

// recordDecision appends to the journal after the payroll service has
// accepted a mutation. The service is the system of record, so a journal
// failure is logged and never reaches the caller.
func recordDecision(ctx context.Context, journal ports.DecisionJournal, cred types.Credential, d types.Decision) {
	if journal == nil {
		return
	}
	d.CompanyID = cred.CompanyID
	d.ActorUserID = cred.CompanyUserID
	if id, ok := requestid.From(ctx); ok {
		d.RequestID = id
	}
	if d.DecidedAt.IsZero() {
		d.DecidedAt = nowUTC()
	}
	if _, err := journal.AppendDecision(ctx, d); err != nil {
		log.Printf("payrollreview: journal %s %s failed: %v", d.Kind, d.SubjectID, err)
	}
}
