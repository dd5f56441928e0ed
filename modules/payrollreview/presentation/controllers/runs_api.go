package controllers

import (
	"net/http"
	"strings"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/services"
)

type RunsController struct {
	Credential CredentialGetter
	Reviews    services.ReviewService
	Pipeline   services.PipelineOrchestrator
}

type runItemsResponse struct {
	RunID string             `json:"run_id"`
	Items []types.ReviewItem `json:"items"`
}

type decisionsResponse struct {
	RunID     string           `json:"run_id"`
	Decisions []types.Decision `json:"decisions"`
}

type transitionRequest struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

func writeItems(w http.ResponseWriter, runID string, items []types.ReviewItem) {
	if items == nil {
		items = []types.ReviewItem{}
	}
	writeJSON(w, http.StatusOK, runItemsResponse{RunID: runID, Items: items})
}

func (c RunsController) HandleItems(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentialOrError(w, r, c.Credential)
	if !ok {
		return
	}
	runID := strings.TrimSpace(r.PathValue("run_id"))
	q := services.ItemQuery{
		Status: types.ReviewStatus(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("q"),
	}
	items, err := c.Reviews.Items(r.Context(), cred, runID, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeItems(w, runID, items)
}

func (c RunsController) HandleTransition(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentialOrError(w, r, c.Credential)
	if !ok {
		return
	}
	var req transitionRequest
	if !decodeBody(r, &req) {
		writeError(w, r, http.StatusBadRequest, "bad_json", "bad json")
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "status is required")
		return
	}
	res, err := c.Reviews.Transition(r.Context(), cred, strings.TrimSpace(req.RunID), strings.TrimSpace(r.PathValue("review_id")), types.ReviewStatus(req.Status))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if res.Items == nil {
		res.Items = []types.ReviewItem{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (c RunsController) HandleProgress(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentialOrError(w, r, c.Credential)
	if !ok {
		return
	}
	progress, err := c.Pipeline.Progress(r.Context(), cred, strings.TrimSpace(r.PathValue("run_id")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (c RunsController) HandleStage(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentialOrError(w, r, c.Credential)
	if !ok {
		return
	}
	view, err := c.Pipeline.StageState(r.Context(), cred, strings.TrimSpace(r.PathValue("run_id")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (c RunsController) HandleDisbursementItems(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentialOrError(w, r, c.Credential)
	if !ok {
		return
	}
	runID := strings.TrimSpace(r.PathValue("run_id"))
	items, err := c.Pipeline.DisbursementItems(r.Context(), cred, runID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeItems(w, runID, items)
}

func (c RunsController) HandleDecisions(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentialOrError(w, r, c.Credential)
	if !ok {
		return
	}
	runID := strings.TrimSpace(r.PathValue("run_id"))
	decisions, err := c.Reviews.Decisions(r.Context(), cred, runID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if decisions == nil {
		decisions = []types.Decision{}
	}
	writeJSON(w, http.StatusOK, decisionsResponse{RunID: runID, Decisions: decisions})
}
