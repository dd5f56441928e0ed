package authz

const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RoleAnonymous = "anonymous"
)

const (
	ActionRead   = "read"
	ActionReview = "review"
	ActionAdmin  = "admin"
)

// DomainAny matches every company in policy rows.
const DomainAny = "*"

const (
	ObjectPayrollReviewReviewers = "payroll-review.reviewers"
	ObjectPayrollReviewReviews   = "payroll-review.reviews"
	ObjectPayrollReviewRuns      = "payroll-review.runs"
)
