package types

type ReviewStepSummary struct {
	ReviewerID           string `json:"reviewer_id"`
	ReviewerName         string `json:"reviewer_name"`
	ReviewerLevel        int    `json:"reviewer_level"`
	TotalItems           int    `json:"total_items"`
	ApprovedItems        int    `json:"approved_items"`
	PendingItems         int    `json:"pending_items"`
	RejectedItems        int    `json:"rejected_items"`
	CompletionPercentage int    `json:"completion_percentage"`
}

type ProgressSource string

const (
	ProgressFromBackend ProgressSource = "backend"
	ProgressLocal       ProgressSource = "local"
)

type RunProgress struct {
	Run               PayrollRun          `json:"run"`
	Steps             []ReviewStepSummary `json:"steps"`
	TotalItems        int                 `json:"total_items"`
	TotalApproved     int                 `json:"total_approved"`
	TotalPending      int                 `json:"total_pending"`
	TotalRejected     int                 `json:"total_rejected"`
	OverallCompletion int                 `json:"overall_completion"`
	Source            ProgressSource      `json:"source"`
}

// ReviewSummary is the pre-aggregated payload of the review-summary endpoint.
type ReviewSummary struct {
	Run   PayrollRun          `json:"run"`
	Steps []ReviewStepSummary `json:"steps"`
}
