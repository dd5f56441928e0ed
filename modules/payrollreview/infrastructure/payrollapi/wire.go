package payrollapi

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
)

type reviewerWire struct {
	ID            string `json:"id"`
	CompanyUserID string `json:"companyUserId"`
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	Level         int    `json:"level"`
	Status        string `json:"status"`
}

func (w reviewerWire) toDomain() types.Reviewer {
	status := types.ReviewerStatus(strings.ToUpper(strings.TrimSpace(w.Status)))
	if !status.Valid() {
		status = types.ReviewerActive
	}
	return types.Reviewer{
		ReviewerID:    w.ID,
		CompanyUserID: w.CompanyUserID,
		FullName:      w.FullName,
		Email:         w.Email,
		Role:          types.Role(strings.ToUpper(strings.TrimSpace(w.Role))),
		Level:         w.Level,
		Status:        status,
	}
}

type companyUserWire struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type allowanceWire struct {
	TypeCode string          `json:"typeCode"`
	Name     string          `json:"name"`
	Amount   string          `json:"amount"`
	Payload  json.RawMessage `json:"payload"`
}

type reviewItemWire struct {
	ReviewID       *string         `json:"reviewId"`
	PayrollRunID   string          `json:"payrollRunId"`
	EmployeeID     string          `json:"employeeId"`
	EmployeeName   string          `json:"employeeName"`
	JobTitle       string          `json:"jobTitle"`
	Department     string          `json:"department"`
	ReviewStatus   string          `json:"reviewStatus"`
	ReviewerLevel  int             `json:"reviewerLevel"`
	Currency       string          `json:"currency"`
	BasicSalary    json.Number     `json:"basicSalary"`
	GrossPay       json.Number     `json:"grossPay"`
	TotalDeduction json.Number     `json:"totalDeduction"`
	TaxPayable     json.Number     `json:"taxPayable"`
	NetPay         json.Number     `json:"netPay"`
	Allowances     []allowanceWire `json:"allowances"`
}

func (w reviewItemWire) toDomain(runID string) types.ReviewItem {
	it := types.ReviewItem{
		PayrollRunID:  w.PayrollRunID,
		EmployeeID:    w.EmployeeID,
		EmployeeName:  w.EmployeeName,
		JobTitle:      w.JobTitle,
		Department:    w.Department,
		ReviewerLevel: w.ReviewerLevel,
		Status:        types.ReviewPending,
		Pay: types.PayFigures{
			Currency:       w.Currency,
			BasicSalary:    w.BasicSalary.String(),
			GrossPay:       w.GrossPay.String(),
			TotalDeduction: w.TotalDeduction.String(),
			TaxPayable:     w.TaxPayable.String(),
			NetPay:         w.NetPay.String(),
		},
	}
	if it.PayrollRunID == "" {
		it.PayrollRunID = runID
	}
	if w.ReviewID != nil {
		it.ReviewID = strings.TrimSpace(*w.ReviewID)
	}
	if s := types.ReviewStatus(strings.ToUpper(strings.TrimSpace(w.ReviewStatus))); s.Valid() {
		it.Status = s
	}
	for _, a := range w.Allowances {
		it.Allowances = append(it.Allowances, a.toDomain())
	}
	return it
}

// toDomain never fails: a payload that does not fit its type code is kept
// raw as an OtherAllowance so the item stays reviewable.
func (a allowanceWire) toDomain() types.AllowanceMetadata {
	m, err := types.DecodeAllowance(a.TypeCode, a.Name, a.Amount, a.Payload)
	if err == nil {
		return m
	}
	log.Printf("payrollapi: allowance %q kept raw: %v", a.Name, err)
	return types.AllowanceMetadata{
		Name:    a.Name,
		Amount:  a.Amount,
		Payload: types.OtherAllowance{Code: strings.ToUpper(strings.TrimSpace(a.TypeCode)), Raw: a.Payload},
	}
}

type runWire struct {
	ID            string `json:"id"`
	PayrollMonth  int    `json:"payrollMonth"`
	PayrollYear   int    `json:"payrollYear"`
	PayrollNumber string `json:"payrollNumber"`
	Status        string `json:"status"`
}

type stepWire struct {
	ReviewerID           string `json:"reviewerId"`
	ReviewerName         string `json:"reviewerName"`
	Level                int    `json:"level"`
	TotalItems           int    `json:"totalItems"`
	ApprovedItems        int    `json:"approvedItems"`
	PendingItems         int    `json:"pendingItems"`
	RejectedItems        int    `json:"rejectedItems"`
	CompletionPercentage int    `json:"completionPercentage"`
}

type reviewSummaryWire struct {
	PayrollRun  runWire    `json:"payrollRun"`
	ReviewSteps []stepWire `json:"reviewSteps"`
}

func (w reviewSummaryWire) toDomain(runID string) types.ReviewSummary {
	out := types.ReviewSummary{
		Run: types.PayrollRun{
			PayrollRunID:  w.PayrollRun.ID,
			PayrollMonth:  w.PayrollRun.PayrollMonth,
			PayrollYear:   w.PayrollRun.PayrollYear,
			PayrollNumber: w.PayrollRun.PayrollNumber,
			Status:        w.PayrollRun.Status,
		},
		Steps: make([]types.ReviewStepSummary, 0, len(w.ReviewSteps)),
	}
	if out.Run.PayrollRunID == "" {
		out.Run.PayrollRunID = runID
	}
	for _, s := range w.ReviewSteps {
		out.Steps = append(out.Steps, types.ReviewStepSummary{
			ReviewerID:           s.ReviewerID,
			ReviewerName:         s.ReviewerName,
			ReviewerLevel:        s.Level,
			TotalItems:           s.TotalItems,
			ApprovedItems:        s.ApprovedItems,
			PendingItems:         s.PendingItems,
			RejectedItems:        s.RejectedItems,
			CompletionPercentage: s.CompletionPercentage,
		})
	}
	return out
}
