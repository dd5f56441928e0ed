package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/services"
)

type CredentialGetter func(ctx context.Context) (types.Credential, bool)

type ReviewersController struct {
	Credential CredentialGetter
	Roster     services.RosterService
}

type reviewersResponse struct {
	Reviewers []types.Reviewer `json:"reviewers"`
}

type rosterDecisionsResponse struct {
	Decisions []types.Decision `json:"decisions"`
}

type addReviewerRequest struct {
	CompanyUserID string `json:"company_user_id"`
	Level         int    `json:"level"`
}

type patchReviewerRequest struct {
	Level  *int    `json:"level"`
	Status *string `json:"status"`
}

type swapReviewersRequest struct {
	ReviewerA string `json:"reviewer_a"`
	ReviewerB string `json:"reviewer_b"`
}

type moveReviewerRequest struct {
	Direction string `json:"direction"`
}

func credentialOrError(w http.ResponseWriter, r *http.Request, get CredentialGetter) (types.Credential, bool) {
	if get == nil {
		writeError(w, r, http.StatusUnauthorized, "auth_required", "please log in again")
		return types.Credential{}, false
	}
	cred, ok := get(r.Context())
	if !ok || !cred.Present() {
		writeError(w, r, http.StatusUnauthorized, "auth_required", "please log in again")
		return types.Credential{}, false
	}
	return cred, true
}

func writeReviewers(w http.ResponseWriter, status int, list []types.Reviewer) {
	if list == nil {
		list = []types.Reviewer{}
	}
	writeJSON(w, status, reviewersResponse{Reviewers: list})
}

func (c ReviewersController) HandleList(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentialOrError(w, r, c.Credential)
	if !ok {
		return
	}
	list, err := c.Roster.List(r.Context(), cred)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeReviewers(w, http.StatusOK, list)
}

func (c ReviewersController) HandleAdd(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentialOrError(w, r, c.Credential)
	if !ok {
		return
	}
	var req addReviewerRequest
	if !decodeBody(r, &req) {
		writeError(w, r, http.StatusBadRequest, "bad_json", "bad json")
		return
	}
	req.CompanyUserID = strings.TrimSpace(req.CompanyUserID)
	if req.CompanyUserID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "company_user_id is required")
		return
	}
	list, err := c.Roster.Add(r.Context(), cred, req.CompanyUserID, req.Level)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeReviewers(w, http.StatusCreated, list)
}

// HandlePatch changes either the level or the status of one reviewer.
func (c ReviewersController) HandlePatch(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentialOrError(w, r, c.Credential)
	if !ok {
		return
	}
	reviewerID := strings.TrimSpace(r.PathValue("reviewer_id"))
	var req patchReviewerRequest
	if !decodeBody(r, &req) {
		writeError(w, r, http.StatusBadRequest, "bad_json", "bad json")
		return
	}
	if (req.Level == nil) == (req.Status == nil) {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "exactly one of level or status is required")
		return
	}

	var (
		list []types.Reviewer
		err  error
	)
	if req.Level != nil {
		list, err = c.Roster.SetLevel(r.Context(), cred, reviewerID, *req.Level)
	} else {
		list, err = c.Roster.SetStatus(r.Context(), cred, reviewerID, types.ReviewerStatus(*req.Status))
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeReviewers(w, http.StatusOK, list)
}

func (c ReviewersController) HandleDelete(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentialOrError(w, r, c.Credential)
	if !ok {
		return
	}
	list, err := c.Roster.Remove(r.Context(), cred, strings.TrimSpace(r.PathValue("reviewer_id")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeReviewers(w, http.StatusOK, list)
}

func (c ReviewersController) HandleSwap(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentialOrError(w, r, c.Credential)
	if !ok {
		return
	}
	var req swapReviewersRequest
	if !decodeBody(r, &req) {
		writeError(w, r, http.StatusBadRequest, "bad_json", "bad json")
		return
	}
	list, err := c.Roster.Swap(r.Context(), cred, strings.TrimSpace(req.ReviewerA), strings.TrimSpace(req.ReviewerB))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeReviewers(w, http.StatusOK, list)
}

func (c ReviewersController) HandleMove(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentialOrError(w, r, c.Credential)
	if !ok {
		return
	}
	var req moveReviewerRequest
	if !decodeBody(r, &req) {
		writeError(w, r, http.StatusBadRequest, "bad_json", "bad json")
		return
	}
	direction := services.Direction(strings.ToLower(strings.TrimSpace(req.Direction)))
	list, err := c.Roster.Move(r.Context(), cred, strings.TrimSpace(r.PathValue("reviewer_id")), direction)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeReviewers(w, http.StatusOK, list)
}

func (c ReviewersController) HandleDecisions(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentialOrError(w, r, c.Credential)
	if !ok {
		return
	}
	decisions, err := c.Roster.Decisions(r.Context(), cred)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if decisions == nil {
		decisions = []types.Decision{}
	}
	writeJSON(w, http.StatusOK, rosterDecisionsResponse{Decisions: decisions})
}
