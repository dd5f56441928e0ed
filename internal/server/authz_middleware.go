package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jacksonlee411/payroll-approvals/internal/routing"
	"github.com/jacksonlee411/payroll-approvals/pkg/authz"
)

func loadAuthorizer() (*authz.Authorizer, error) {
	modelPath := os.Getenv("AUTHZ_MODEL_PATH")
	if modelPath == "" {
		p, err := findRepoFile("config/access/model.conf")
		if err != nil {
			return nil, err
		}
		modelPath = p
	}

	policyPath := os.Getenv("AUTHZ_POLICY_PATH")
	if policyPath == "" {
		p, err := findRepoFile("config/access/policy.csv")
		if err != nil {
			return nil, err
		}
		policyPath = p
	}

	mode, err := authz.ModeFromEnv()
	if err != nil {
		return nil, err
	}

	return authz.NewAuthorizer(modelPath, policyPath, mode)
}

// findRepoFile looks for path relative to the working directory and up to
// eight of its parents.
func findRepoFile(path string) (string, error) {
	for range 8 {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: " + filepath.Base(path) + " not found")
}

type authorizer interface {
	Authorize(subject string, domain string, object string, action string) (allowed bool, enforced bool, err error)
}

func withAuthz(classifier *routing.Classifier, a authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		rc := routing.RouteClassUI
		if classifier != nil {
			rc = classifier.Classify(path)
		}

		object, action, shouldCheck := authzRequirementForRoute(r.Method, path)
		if !shouldCheck {
			next.ServeHTTP(w, r)
			return
		}

		cred, ok := currentCredential(r.Context())
		if !ok {
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "auth_required", "please log in again")
			return
		}

		subject := authz.SubjectFromRoleSlug(string(cred.Role))
		domain := authz.DomainFromCompanyID(cred.CompanyID)

		allowed, enforced, err := a.Authorize(subject, domain, object, action)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "authz_error", "authz error")
			return
		}
		if enforced && !allowed {
			routing.WriteError(w, r, rc, http.StatusForbidden, "forbidden", "you are not allowed to do this")
			return
		}

		next.ServeHTTP(w, r)
	})
}

type routeRequirement struct {
	method   string
	template string
	object   string
	action   string
}

var routeRequirements = []routeRequirement{
	{http.MethodGet, "/payroll-review/api/reviewers", authz.ObjectPayrollReviewReviewers, authz.ActionRead},
	{http.MethodPost, "/payroll-review/api/reviewers", authz.ObjectPayrollReviewReviewers, authz.ActionAdmin},
	{http.MethodGet, "/payroll-review/api/reviewers/decisions", authz.ObjectPayrollReviewReviewers, authz.ActionAdmin},
	{http.MethodPost, "/payroll-review/api/reviewers:swap", authz.ObjectPayrollReviewReviewers, authz.ActionAdmin},
	{http.MethodPatch, "/payroll-review/api/reviewers/{reviewer_id}", authz.ObjectPayrollReviewReviewers, authz.ActionAdmin},
	{http.MethodDelete, "/payroll-review/api/reviewers/{reviewer_id}", authz.ObjectPayrollReviewReviewers, authz.ActionAdmin},
	{http.MethodPost, "/payroll-review/api/reviewers/{reviewer_id}:move", authz.ObjectPayrollReviewReviewers, authz.ActionAdmin},
	{http.MethodPatch, "/payroll-review/api/reviews/{review_id}", authz.ObjectPayrollReviewReviews, authz.ActionReview},
	{http.MethodGet, "/payroll-review/api/runs/{run_id}/items", authz.ObjectPayrollReviewReviews, authz.ActionRead},
	{http.MethodGet, "/payroll-review/api/runs/{run_id}/progress", authz.ObjectPayrollReviewRuns, authz.ActionRead},
	{http.MethodGet, "/payroll-review/api/runs/{run_id}/stage", authz.ObjectPayrollReviewRuns, authz.ActionRead},
	{http.MethodGet, "/payroll-review/api/runs/{run_id}/disbursement-items", authz.ObjectPayrollReviewRuns, authz.ActionRead},
	{http.MethodGet, "/payroll-review/api/runs/{run_id}/decisions", authz.ObjectPayrollReviewRuns, authz.ActionAdmin},
}

func authzRequirementForRoute(method string, path string) (object string, action string, ok bool) {
	for _, req := range routeRequirements {
		if req.method == method && pathMatchRouteTemplate(path, req.template) {
			return req.object, req.action, true
		}
	}
	return "", "", false
}

func pathMatchRouteTemplate(path string, template string) bool {
	in := splitRouteSegments(path)
	want := splitRouteSegments(template)
	if len(in) != len(want) {
		return false
	}
	for i := range want {
		if !segmentMatchesTemplate(in[i], want[i]) {
			return false
		}
	}
	return true
}

// segmentMatchesTemplate handles literal segments, "{param}" and
// "{param}:verb".
func segmentMatchesTemplate(got string, want string) bool {
	if got == "" {
		return false
	}
	if !strings.HasPrefix(want, "{") {
		return got == want
	}
	end := strings.Index(want, "}")
	if end < 2 {
		return got == want
	}
	suffix := want[end+1:]
	if suffix == "" {
		return true
	}
	return strings.HasSuffix(got, suffix) && len(got) > len(suffix)
}

func splitRouteSegments(path string) []string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
