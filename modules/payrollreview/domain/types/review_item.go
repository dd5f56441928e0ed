package types

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

var ReviewStatuses = []ReviewStatus{ReviewPending, ReviewApproved, ReviewRejected}

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	default:
		return false
	}
}

// PayFigures are computed by the payroll service and only ever displayed.
type PayFigures struct {
	Currency       string `json:"currency"`
	BasicSalary    string `json:"basic_salary"`
	GrossPay       string `json:"gross_pay"`
	TotalDeduction string `json:"total_deduction"`
	TaxPayable     string `json:"tax_payable"`
	NetPay         string `json:"net_pay"`
}

type ReviewItem struct {
	ReviewID      string              `json:"review_id"`
	PayrollRunID  string              `json:"payroll_run_id"`
	EmployeeID    string              `json:"employee_id"`
	Status        ReviewStatus        `json:"review_status"`
	ReviewerLevel int                 `json:"reviewer_level"`
	EmployeeName  string              `json:"employee_name"`
	JobTitle      string              `json:"job_title"`
	Department    string              `json:"department"`
	Pay           PayFigures          `json:"pay"`
	Allowances    []AllowanceMetadata `json:"allowances,omitempty"`
}

// UnderReview is false for items of a run without reviewers; such items
// are shown but never offer an approval action.
func (i ReviewItem) UnderReview() bool {
	return i.ReviewID != ""
}

type PayrollRun struct {
	PayrollRunID  string `json:"payroll_run_id"`
	PayrollMonth  int    `json:"payroll_month"`
	PayrollYear   int    `json:"payroll_year"`
	PayrollNumber string `json:"payroll_number"`
	Status        string `json:"status"`
}

const (
	RunStatusDraft      = "Draft"
	RunStatusProcessing = "Processing"
	RunStatusCompleted  = "Completed"
)
