package payrollstub

import (
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Error carries the HTTP status the handler answers with.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func conflict(msg string) error   { return &Error{Status: http.StatusConflict, Message: msg} }
func notFound(msg string) error   { return &Error{Status: http.StatusNotFound, Message: msg} }
func badRequest(msg string) error { return &Error{Status: http.StatusBadRequest, Message: msg} }

type companyUser struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type reviewer struct {
	ID            string `json:"id"`
	CompanyUserID string `json:"companyUserId"`
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	Level         int    `json:"level"`
	Status        string `json:"status"`
}

type allowance struct {
	TypeCode string         `json:"typeCode"`
	Name     string         `json:"name"`
	Amount   string         `json:"amount"`
	Payload  map[string]any `json:"payload,omitempty"`
}

type reviewItem struct {
	ReviewID       *string     `json:"reviewId"`
	PayrollRunID   string      `json:"payrollRunId"`
	EmployeeID     string      `json:"employeeId"`
	EmployeeName   string      `json:"employeeName"`
	JobTitle       string      `json:"jobTitle"`
	Department     string      `json:"department"`
	ReviewStatus   string      `json:"reviewStatus"`
	ReviewerLevel  int         `json:"reviewerLevel"`
	Currency       string      `json:"currency"`
	BasicSalary    string      `json:"basicSalary"`
	GrossPay       string      `json:"grossPay"`
	TotalDeduction string      `json:"totalDeduction"`
	TaxPayable     string      `json:"taxPayable"`
	NetPay         string      `json:"netPay"`
	Allowances     []allowance `json:"allowances"`
}

type run struct {
	ID            string `json:"id"`
	PayrollMonth  int    `json:"payrollMonth"`
	PayrollYear   int    `json:"payrollYear"`
	PayrollNumber string `json:"payrollNumber"`
	Status        string `json:"status"`
}

type reviewStep struct {
	ReviewerID           string `json:"reviewerId"`
	ReviewerName         string `json:"reviewerName"`
	Level                int    `json:"level"`
	TotalItems           int    `json:"totalItems"`
	ApprovedItems        int    `json:"approvedItems"`
	PendingItems         int    `json:"pendingItems"`
	RejectedItems        int    `json:"rejectedItems"`
	CompletionPercentage int    `json:"completionPercentage"`
}

type reviewSummary struct {
	PayrollRun  run          `json:"payrollRun"`
	ReviewSteps []reviewStep `json:"reviewSteps"`
}

type review struct {
	id     string
	runID  string
	empID  string
	level  int
	status string
}

type runState struct {
	run       run
	currency  string
	employees []SeedEmployee
	// reviews by employee id
	reviews map[string]*review
}

// Store is the stub's in-memory system of record.
type Store struct {
	mu sync.Mutex

	users     map[string]companyUser
	reviewers map[string]*reviewer
	runs      map[string]*runState
	reviews   map[string]*review

	newID func() string
}

func NewStore(seed Seed) *Store {
	s := &Store{
		users:     map[string]companyUser{},
		reviewers: map[string]*reviewer{},
		runs:      map[string]*runState{},
		reviews:   map[string]*review{},
		newID:     uuid.NewString,
	}
	for _, u := range seed.CompanyUsers {
		s.users[u.ID] = companyUser{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: strings.ToUpper(u.Role)}
	}
	for _, r := range seed.Reviewers {
		u := s.users[r.CompanyUserID]
		id := r.ID
		if id == "" {
			id = s.newID()
		}
		s.reviewers[id] = &reviewer{ID: id, CompanyUserID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role, Level: r.Level, Status: "ACTIVE"}
	}
	for _, sr := range seed.Runs {
		status := sr.Status
		if status == "" {
			status = "Processing"
		}
		s.runs[sr.ID] = &runState{
			run:       run{ID: sr.ID, PayrollMonth: sr.PayrollMonth, PayrollYear: sr.PayrollYear, PayrollNumber: sr.PayrollNumber, Status: status},
			currency:  sr.Currency,
			employees: sr.Employees,
			reviews:   map[string]*review{},
		}
	}
	return s
}

func (s *Store) orderedLocked() []reviewer {
	out := make([]reviewer, 0, len(s.reviewers))
	for _, r := range s.reviewers {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b reviewer) int {
		if a.Level != b.Level {
			return a.Level - b.Level
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Store) Reviewers() []reviewer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderedLocked()
}

func (s *Store) CompanyUser(id string) (companyUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return companyUser{}, notFound("company user not found")
	}
	return u, nil
}

func (s *Store) levelTakenLocked(level int, except string) bool {
	for id, r := range s.reviewers {
		if id != except && r.Level == level {
			return true
		}
	}
	return false
}

// AddReviewer inserts a reviewer. When the level is taken, every reviewer
// at or above it moves up by one.
func (s *Store) AddReviewer(companyUserID string, level int) (reviewer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if level < 1 {
		return reviewer{}, badRequest("level must be at least 1")
	}
	u, ok := s.users[companyUserID]
	if !ok {
		return reviewer{}, notFound("company user not found")
	}
	if u.Role != "ADMIN" && u.Role != "MANAGER" {
		return reviewer{}, badRequest("only admins and managers can be reviewers")
	}
	for _, r := range s.reviewers {
		if r.CompanyUserID == companyUserID {
			return reviewer{}, conflict("user is already a reviewer")
		}
	}
	if s.levelTakenLocked(level, "") {
		for _, r := range s.reviewers {
			if r.Level >= level {
				r.Level++
			}
		}
	}
	r := &reviewer{ID: s.newID(), CompanyUserID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role, Level: level, Status: "ACTIVE"}
	s.reviewers[r.ID] = r
	return *r, nil
}

func (s *Store) UpdateReviewer(id string, level *int, status *string) (reviewer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviewers[id]
	if !ok {
		return reviewer{}, notFound("reviewer not found")
	}
	if level != nil {
		if *level < 1 {
			return reviewer{}, badRequest("level must be at least 1")
		}
		if s.levelTakenLocked(*level, id) {
			return reviewer{}, conflict("level already taken")
		}
	}
	if status != nil {
		st := strings.ToUpper(strings.TrimSpace(*status))
		if st != "ACTIVE" && st != "SUSPENDED" {
			return reviewer{}, badRequest("invalid status")
		}
		r.Status = st
	}
	if level != nil {
		r.Level = *level
	}
	return *r, nil
}

type Assignment struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

// Reorder applies all assignments at once; the result must keep levels unique.
func (s *Store) Reorder(assignments []Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(assignments) == 0 {
		return badRequest("no reviewers to reorder")
	}
	next := map[string]int{}
	for id, r := range s.reviewers {
		next[id] = r.Level
	}
	for _, a := range assignments {
		if _, ok := s.reviewers[a.ID]; !ok {
			return notFound("reviewer not found")
		}
		if a.Level < 1 {
			return badRequest("level must be at least 1")
		}
		next[a.ID] = a.Level
	}
	seen := map[int]bool{}
	for _, lvl := range next {
		if seen[lvl] {
			return conflict("reorder would duplicate a level")
		}
		seen[lvl] = true
	}
	for id, lvl := range next {
		s.reviewers[id].Level = lvl
	}
	return nil
}

func (s *Store) DeleteReviewer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviewers[id]; !ok {
		return notFound("reviewer not found")
	}
	delete(s.reviewers, id)
	return nil
}

func (s *Store) firstActiveLevelLocked() (int, bool) {
	for _, r := range s.orderedLocked() {
		if r.Status != "SUSPENDED" {
			return r.Level, true
		}
	}
	return 0, false
}

// Prepare lists a run's items, opening a review for each employee once the
// company has an active reviewer.
func (s *Store) Prepare(runID string) ([]reviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.runs[runID]
	if !ok {
		return nil, notFound("payroll run not found")
	}
	level, hasReviewers := s.firstActiveLevelLocked()

	out := make([]reviewItem, 0, len(rs.employees))
	for _, e := range rs.employees {
		rv, ok := rs.reviews[e.ID]
		if !ok && hasReviewers {
			rv = &review{id: s.newID(), runID: runID, empID: e.ID, level: level, status: "PENDING"}
			rs.reviews[e.ID] = rv
			s.reviews[rv.id] = rv
		}
		it := reviewItem{
			PayrollRunID:   runID,
			EmployeeID:     e.ID,
			EmployeeName:   e.Name,
			JobTitle:       e.JobTitle,
			Department:     e.Department,
			ReviewStatus:   "PENDING",
			Currency:       rs.currency,
			BasicSalary:    e.BasicSalary,
			GrossPay:       e.GrossPay,
			TotalDeduction: e.TotalDeduction,
			TaxPayable:     e.TaxPayable,
			NetPay:         e.NetPay,
			Allowances:     make([]allowance, 0, len(e.Allowances)),
		}
		if rv != nil {
			id := rv.id
			it.ReviewID = &id
			it.ReviewStatus = rv.status
			it.ReviewerLevel = rv.level
		}
		for _, a := range e.Allowances {
			it.Allowances = append(it.Allowances, allowance{TypeCode: a.TypeCode, Name: a.Name, Amount: a.Amount, Payload: a.Payload})
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *Store) UpdateReview(reviewID string, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rv, ok := s.reviews[reviewID]
	if !ok {
		return notFound("review not found")
	}
	st := strings.ToUpper(strings.TrimSpace(status))
	switch st {
	case "PENDING", "APPROVED", "REJECTED":
	default:
		return badRequest("invalid review status")
	}
	if rv.status == st {
		return conflict("review is already " + st)
	}
	rv.status = st
	return nil
}

// Summary aggregates a run per active reviewer level.
func (s *Store) Summary(runID string) (reviewSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.runs[runID]
	if !ok {
		return reviewSummary{}, notFound("payroll run not found")
	}
	out := reviewSummary{PayrollRun: rs.run, ReviewSteps: []reviewStep{}}
	for _, r := range s.orderedLocked() {
		if r.Status == "SUSPENDED" {
			continue
		}
		step := reviewStep{ReviewerID: r.ID, ReviewerName: r.FullName, Level: r.Level}
		for _, rv := range rs.reviews {
			if rv.level != r.Level {
				continue
			}
			step.TotalItems++
			switch rv.status {
			case "APPROVED":
				step.ApprovedItems++
			case "REJECTED":
				step.RejectedItems++
			default:
				step.PendingItems++
			}
		}
		if step.TotalItems > 0 {
			step.CompletionPercentage = (step.ApprovedItems*100 + step.TotalItems/2) / step.TotalItems
		}
		out.ReviewSteps = append(out.ReviewSteps, step)
	}
	return out, nil
}
