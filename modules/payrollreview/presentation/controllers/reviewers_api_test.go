package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/services"
	"github.com/jacksonlee411/payroll-approvals/pkg/httperr"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, rec.Body.String())
	}
	return env
}

func TestReviewersController_List(t *testing.T) {
	roster := &stubRoster{list: []types.Reviewer{{ReviewerID: "rv1", Level: 1}, {ReviewerID: "rv2", Level: 2}}}
	c := ReviewersController{Credential: credOK, Roster: roster}

	rec := httptest.NewRecorder()
	c.HandleList(rec, httptest.NewRequest(http.MethodGet, "/payroll-review/api/reviewers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var body reviewersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Reviewers) != 2 || body.Reviewers[0].ReviewerID != "rv1" {
		t.Fatalf("body=%+v", body)
	}
}

func TestReviewersController_ListEmptyIsArray(t *testing.T) {
	c := ReviewersController{Credential: credOK, Roster: &stubRoster{}}
	rec := httptest.NewRecorder()
	c.HandleList(rec, httptest.NewRequest(http.MethodGet, "/payroll-review/api/reviewers", nil))
	if !strings.Contains(rec.Body.String(), `"reviewers":[]`) {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestReviewersController_AuthRequired(t *testing.T) {
	for name, get := range map[string]CredentialGetter{"missing": credMissing, "nil": nil} {
		t.Run(name, func(t *testing.T) {
			roster := &stubRoster{}
			c := ReviewersController{Credential: get, Roster: roster}
			rec := httptest.NewRecorder()
			c.HandleList(rec, httptest.NewRequest(http.MethodGet, "/payroll-review/api/reviewers", nil))
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status=%d", rec.Code)
			}
			if env := decodeEnvelope(t, rec); env.Code != "auth_required" {
				t.Fatalf("code=%q", env.Code)
			}
			if len(roster.calls) != 0 {
				t.Fatalf("calls=%v", roster.calls)
			}
		})
	}
}

func TestReviewersController_Add(t *testing.T) {
	roster := &stubRoster{list: []types.Reviewer{{ReviewerID: "rv1"}}}
	c := ReviewersController{Credential: credOK, Roster: roster}

	req := httptest.NewRequest(http.MethodPost, "/payroll-review/api/reviewers", strings.NewReader(`{"company_user_id":" u7 ","level":2}`))
	rec := httptest.NewRecorder()
	c.HandleAdd(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d", rec.Code)
	}
	if roster.calls[0] != "Add" || roster.args[0] != "u7" || roster.args[1] != 2 {
		t.Fatalf("calls=%v args=%v", roster.calls, roster.args)
	}
}

func TestReviewersController_AddBadInput(t *testing.T) {
	cases := []struct {
		name string
		body string
		code string
	}{
		{name: "bad json", body: `{`, code: "bad_json"},
		{name: "unknown field", body: `{"user":"u7"}`, code: "bad_json"},
		{name: "missing user", body: `{"level":1}`, code: "invalid_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := ReviewersController{Credential: credOK, Roster: &stubRoster{}}
			rec := httptest.NewRecorder()
			c.HandleAdd(rec, httptest.NewRequest(http.MethodPost, "/payroll-review/api/reviewers", strings.NewReader(tc.body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status=%d", rec.Code)
			}
			if env := decodeEnvelope(t, rec); env.Code != tc.code {
				t.Fatalf("code=%q", env.Code)
			}
		})
	}
}

func TestReviewersController_Patch(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		status   int
		wantCall string
		wantArg  any
	}{
		{name: "level", body: `{"level":3}`, status: http.StatusOK, wantCall: "SetLevel", wantArg: 3},
		{name: "status", body: `{"status":"suspended"}`, status: http.StatusOK, wantCall: "SetStatus", wantArg: types.ReviewerStatus("suspended")},
		{name: "both", body: `{"level":3,"status":"ACTIVE"}`, status: http.StatusBadRequest},
		{name: "neither", body: `{}`, status: http.StatusBadRequest},
		{name: "bad json", body: `nope`, status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			roster := &stubRoster{}
			c := ReviewersController{Credential: credOK, Roster: roster}
			req := httptest.NewRequest(http.MethodPatch, "/payroll-review/api/reviewers/rv1", strings.NewReader(tc.body))
			req.SetPathValue("reviewer_id", "rv1")
			rec := httptest.NewRecorder()
			c.HandlePatch(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
			}
			if tc.wantCall == "" {
				if len(roster.calls) != 0 {
					t.Fatalf("calls=%v", roster.calls)
				}
				return
			}
			if roster.calls[0] != tc.wantCall || roster.args[0] != "rv1" || roster.args[1] != tc.wantArg {
				t.Fatalf("calls=%v args=%v", roster.calls, roster.args)
			}
		})
	}
}

func TestReviewersController_DeleteSwapMove(t *testing.T) {
	roster := &stubRoster{}
	c := ReviewersController{Credential: credOK, Roster: roster}

	req := httptest.NewRequest(http.MethodDelete, "/payroll-review/api/reviewers/rv2", nil)
	req.SetPathValue("reviewer_id", "rv2")
	rec := httptest.NewRecorder()
	c.HandleDelete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c.HandleSwap(rec, httptest.NewRequest(http.MethodPost, "/payroll-review/api/reviewers:swap", strings.NewReader(`{"reviewer_a":"rv1","reviewer_b":"rv2"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("swap status=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/payroll-review/api/reviewers/rv1:move", strings.NewReader(`{"direction":"UP"}`))
	req.SetPathValue("reviewer_id", "rv1")
	rec = httptest.NewRecorder()
	c.HandleMove(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("move status=%d", rec.Code)
	}

	wantCalls := []string{"Remove", "Swap", "Move"}
	for i, name := range wantCalls {
		if roster.calls[i] != name {
			t.Fatalf("calls=%v", roster.calls)
		}
	}
	if roster.args[0] != "rv2" || roster.args[1] != "rv1" || roster.args[2] != "rv2" || roster.args[3] != "rv1" || roster.args[4] != services.DirectionUp {
		t.Fatalf("args=%v", roster.args)
	}

	for _, h := range []http.HandlerFunc{c.HandleSwap, c.HandleMove} {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/payroll-review/api/reviewers:swap", strings.NewReader(`[`)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status=%d", rec.Code)
		}
	}
}

func TestReviewersController_ServiceErrors(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		code    string
		message string
	}{
		{err: httperr.NewAuth(""), status: http.StatusUnauthorized, code: "auth_required", message: "please log in again"},
		{err: httperr.NewValidation("level must be at least 1"), status: http.StatusBadRequest, code: "validation_failed", message: "level must be at least 1"},
		{err: httperr.NewNotFound("reviewer not found"), status: http.StatusNotFound, code: "not_found", message: "reviewer not found"},
		{err: httperr.NewInvalidOperation("you cannot remove yourself"), status: http.StatusConflict, code: "invalid_operation", message: "you cannot remove yourself"},
		{err: httperr.NewUpdateFailed("level taken"), status: http.StatusUnprocessableEntity, code: "update_failed", message: "level taken"},
		{err: httperr.NewNetwork(errors.New("dial tcp: refused")), status: http.StatusBadGateway, code: "network_error", message: "network error, try again"},
		{err: errors.New("boom"), status: http.StatusInternalServerError, code: "internal_error", message: "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			c := ReviewersController{Credential: credOK, Roster: &stubRoster{err: tc.err}}
			req := httptest.NewRequest(http.MethodGet, "/payroll-review/api/reviewers", nil)
			req.Header.Set("traceparent", "00-0123456789abcdef0123456789abcdef-0123456789abcdef-01")
			rec := httptest.NewRecorder()
			c.HandleList(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status=%d", rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Code != tc.code || env.Message != tc.message {
				t.Fatalf("env=%+v", env)
			}
			if env.TraceID != "0123456789abcdef0123456789abcdef" || env.Meta.Method != http.MethodGet {
				t.Fatalf("env=%+v", env)
			}
		})
	}
}

func TestReviewersController_Decisions(t *testing.T) {
	roster := &stubRoster{decisions: []types.Decision{{ID: "d1", Kind: types.DecisionRosterReorder, SubjectID: "rv1"}}}
	c := ReviewersController{Credential: credOK, Roster: roster}

	rec := httptest.NewRecorder()
	c.HandleDecisions(rec, httptest.NewRequest(http.MethodGet, "/payroll-review/api/reviewers/decisions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var body rosterDecisionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Decisions) != 1 || body.Decisions[0].SubjectID != "rv1" || roster.calls[0] != "Decisions" {
		t.Fatalf("body=%+v calls=%v", body, roster.calls)
	}

	rec = httptest.NewRecorder()
	ReviewersController{Credential: credOK, Roster: &stubRoster{}}.HandleDecisions(rec, httptest.NewRequest(http.MethodGet, "/payroll-review/api/reviewers/decisions", nil))
	if !strings.Contains(rec.Body.String(), `"decisions":[]`) {
		t.Fatalf("body=%s", rec.Body.String())
	}
}
