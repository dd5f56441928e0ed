package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jacksonlee411/payroll-approvals/internal/routing"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/pkg/authz"
)

type stubAuthorizer struct {
	allowed  bool
	enforced bool
	err      error

	gotSubject, gotDomain, gotObject, gotAction string
}

func (a *stubAuthorizer) Authorize(subject string, domain string, object string, action string) (bool, bool, error) {
	a.gotSubject, a.gotDomain, a.gotObject, a.gotAction = subject, domain, object, action
	return a.allowed, a.enforced, a.err
}

func mustTestClassifier(t *testing.T) *routing.Classifier {
	t.Helper()

	c, err := routing.NewClassifier(routing.Allowlist{Version: 1, Entrypoints: map[string]routing.Entrypoint{
		"server": {Routes: []routing.Route{
			{Path: "/health", Methods: []string{"GET"}, RouteClass: "ops"},
			{Path: "/payroll-review/api/reviewers", Methods: []string{"GET", "POST"}, RouteClass: "internal_api"},
		}},
	}}, "server")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func managerRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	return req.WithContext(withCredential(req.Context(), types.Credential{
		Token:         "tok",
		CompanyID:     "C1",
		CompanyUserID: "u-kofi",
		Role:          types.RoleManager,
	}))
}

func TestWithAuthz_SkipsWhenNoRequirement(t *testing.T) {
	called := false
	a := &stubAuthorizer{allowed: false, enforced: true}
	h := withAuthz(mustTestClassifier(t), a, okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("status=%d called=%v", rec.Code, called)
	}
}

func TestWithAuthz_MissingCredential(t *testing.T) {
	called := false
	h := withAuthz(mustTestClassifier(t), &stubAuthorizer{allowed: true, enforced: true}, okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payroll-review/api/reviewers", nil))
	if rec.Code != http.StatusUnauthorized || called {
		t.Fatalf("status=%d called=%v", rec.Code, called)
	}
}

func TestWithAuthz_PassesSubjectAndDomain(t *testing.T) {
	called := false
	a := &stubAuthorizer{allowed: true, enforced: true}
	h := withAuthz(mustTestClassifier(t), a, okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, managerRequest(http.MethodPost, "/payroll-review/api/reviewers"))
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("status=%d called=%v", rec.Code, called)
	}
	if a.gotSubject != "role:manager" || a.gotDomain != "c1" {
		t.Fatalf("subject=%q domain=%q", a.gotSubject, a.gotDomain)
	}
	if a.gotObject != authz.ObjectPayrollReviewReviewers || a.gotAction != authz.ActionAdmin {
		t.Fatalf("object=%q action=%q", a.gotObject, a.gotAction)
	}
}

func TestWithAuthz_Forbidden(t *testing.T) {
	called := false
	h := withAuthz(mustTestClassifier(t), &stubAuthorizer{allowed: false, enforced: true}, okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, managerRequest(http.MethodGet, "/payroll-review/api/reviewers"))
	if rec.Code != http.StatusForbidden || called {
		t.Fatalf("status=%d called=%v", rec.Code, called)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}
}

func TestWithAuthz_ShadowModeLetsDeniedThrough(t *testing.T) {
	called := false
	h := withAuthz(mustTestClassifier(t), &stubAuthorizer{allowed: false, enforced: false}, okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, managerRequest(http.MethodGet, "/payroll-review/api/reviewers"))
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("status=%d called=%v", rec.Code, called)
	}
}

func TestWithAuthz_AuthorizerError(t *testing.T) {
	called := false
	h := withAuthz(mustTestClassifier(t), &stubAuthorizer{err: errors.New("boom")}, okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, managerRequest(http.MethodGet, "/payroll-review/api/reviewers"))
	if rec.Code != http.StatusInternalServerError || called {
		t.Fatalf("status=%d called=%v", rec.Code, called)
	}
}

func TestAuthzRequirementForRoute(t *testing.T) {
	cases := []struct {
		method, path   string
		object, action string
		ok             bool
	}{
		{http.MethodGet, "/payroll-review/api/reviewers", authz.ObjectPayrollReviewReviewers, authz.ActionRead, true},
		{http.MethodPost, "/payroll-review/api/reviewers", authz.ObjectPayrollReviewReviewers, authz.ActionAdmin, true},
		{http.MethodPost, "/payroll-review/api/reviewers:swap", authz.ObjectPayrollReviewReviewers, authz.ActionAdmin, true},
		{http.MethodGet, "/payroll-review/api/reviewers/decisions", authz.ObjectPayrollReviewReviewers, authz.ActionAdmin, true},
		{http.MethodPatch, "/payroll-review/api/reviewers/rv-1", authz.ObjectPayrollReviewReviewers, authz.ActionAdmin, true},
		{http.MethodDelete, "/payroll-review/api/reviewers/rv-1", authz.ObjectPayrollReviewReviewers, authz.ActionAdmin, true},
		{http.MethodPost, "/payroll-review/api/reviewers/rv-1:move", authz.ObjectPayrollReviewReviewers, authz.ActionAdmin, true},
		{http.MethodPatch, "/payroll-review/api/reviews/rev-9", authz.ObjectPayrollReviewReviews, authz.ActionReview, true},
		{http.MethodGet, "/payroll-review/api/runs/r1/items", authz.ObjectPayrollReviewReviews, authz.ActionRead, true},
		{http.MethodGet, "/payroll-review/api/runs/r1/stage", authz.ObjectPayrollReviewRuns, authz.ActionRead, true},
		{http.MethodGet, "/payroll-review/api/runs/r1/decisions", authz.ObjectPayrollReviewRuns, authz.ActionAdmin, true},
		{http.MethodPost, "/payroll-review/api/reviewers/:move", "", "", false},
		{http.MethodPost, "/payroll-review/api/reviewers/rv-1", "", "", false},
		{http.MethodGet, "/health", "", "", false},
	}
	for _, c := range cases {
		object, action, ok := authzRequirementForRoute(c.method, c.path)
		if object != c.object || action != c.action || ok != c.ok {
			t.Errorf("%s %s: got (%q,%q,%v)", c.method, c.path, object, action, ok)
		}
	}
}

func TestPathMatchRouteTemplate(t *testing.T) {
	if !pathMatchRouteTemplate("/a/x1:move", "/a/{id}:move") {
		t.Fatal("expected verb match")
	}
	if pathMatchRouteTemplate("/a/x1:swap", "/a/{id}:move") {
		t.Fatal("unexpected verb match")
	}
	if pathMatchRouteTemplate("/a//b", "/a/{id}/b") {
		t.Fatal("empty segment must not match")
	}
	if pathMatchRouteTemplate("/a/b/c", "/a/{id}") {
		t.Fatal("length mismatch must not match")
	}
}

func TestLoadAuthorizer_RepoPolicy(t *testing.T) {
	t.Setenv("AUTHZ_MODEL_PATH", "")
	t.Setenv("AUTHZ_POLICY_PATH", "")
	t.Setenv("AUTHZ_MODE", "")

	a, err := loadAuthorizer()
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		role, object, action string
		want                 bool
	}{
		{authz.RoleManager, authz.ObjectPayrollReviewReviews, authz.ActionReview, true},
		{authz.RoleManager, authz.ObjectPayrollReviewRuns, authz.ActionRead, true},
		{authz.RoleManager, authz.ObjectPayrollReviewRuns, authz.ActionAdmin, false},
		{authz.RoleManager, authz.ObjectPayrollReviewReviewers, authz.ActionAdmin, false},
		{authz.RoleAdmin, authz.ObjectPayrollReviewReviewers, authz.ActionAdmin, true},
		{"employee", authz.ObjectPayrollReviewReviews, authz.ActionRead, false},
	}
	for _, c := range cases {
		allowed, enforced, err := a.Authorize(authz.SubjectFromRoleSlug(c.role), "c1", c.object, c.action)
		if err != nil {
			t.Fatal(err)
		}
		if !enforced || allowed != c.want {
			t.Errorf("%s %s %s: allowed=%v enforced=%v", c.role, c.object, c.action, allowed, enforced)
		}
	}
}

func TestLoadAuthorizer_BadPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AUTHZ_MODEL_PATH", filepath.Join(dir, "missing.conf"))
	t.Setenv("AUTHZ_POLICY_PATH", filepath.Join(dir, "missing.csv"))
	if _, err := loadAuthorizer(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadAuthorizer_InvalidMode(t *testing.T) {
	t.Setenv("AUTHZ_MODE", "sometimes")
	if _, err := loadAuthorizer(); err == nil {
		t.Fatal("expected error")
	}
}

func TestFindRepoFile(t *testing.T) {
	if _, err := findRepoFile("config/access/model.conf"); err != nil {
		t.Fatal(err)
	}
	t.Chdir(t.TempDir())
	if _, err := findRepoFile("config/access/model.conf"); err == nil {
		t.Fatal("expected not found")
	}
}
