package ports

import (
	"context"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
)

// PayrollService is the remote system of record for reviewers and review items.
type PayrollService interface {
	ListReviewers(ctx context.Context, cred types.Credential) ([]types.Reviewer, error)
	GetCompanyUser(ctx context.Context, cred types.Credential, companyUserID string) (types.CompanyUser, error)
	CreateReviewer(ctx context.Context, cred types.Credential, companyUserID string, level int) (types.Reviewer, error)
	UpdateReviewerLevel(ctx context.Context, cred types.Credential, reviewerID string, level int) (types.Reviewer, error)
	UpdateReviewerStatus(ctx context.Context, cred types.Credential, reviewerID string, status types.ReviewerStatus) (types.Reviewer, error)
	ReorderReviewers(ctx context.Context, cred types.Credential, assignments []types.LevelAssignment) error
	DeleteReviewer(ctx context.Context, cred types.Credential, reviewerID string) error

	PrepareRun(ctx context.Context, cred types.Credential, runID string) ([]types.ReviewItem, error)
	UpdateReviewStatus(ctx context.Context, cred types.Credential, reviewID string, status types.ReviewStatus) error
	ReviewSummary(ctx context.Context, cred types.Credential, runID string) (types.ReviewSummary, error)
}
