package types

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
)

// CanReview reports whether a company user with this role may sit on a roster.
func (r Role) CanReview() bool {
	return r == RoleAdmin || r == RoleManager
}

type ReviewerStatus string

const (
	ReviewerActive    ReviewerStatus = "ACTIVE"
	ReviewerSuspended ReviewerStatus = "SUSPENDED"
)

func (s ReviewerStatus) Valid() bool {
	return s == ReviewerActive || s == ReviewerSuspended
}

type Reviewer struct {
	ReviewerID    string         `json:"reviewer_id"`
	CompanyUserID string         `json:"company_user_id"`
	FullName      string         `json:"full_name"`
	Email         string         `json:"email"`
	Role          Role           `json:"role"`
	Level         int            `json:"level"`
	Status        ReviewerStatus `json:"status"`
}

func (r Reviewer) Active() bool {
	return r.Status != ReviewerSuspended
}

type CompanyUser struct {
	CompanyUserID string `json:"company_user_id"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Role          Role   `json:"role"`
}

// LevelAssignment is one entry of an atomic reorder request.
type LevelAssignment struct {
	ReviewerID string `json:"id"`
	Level      int    `json:"level"`
}
