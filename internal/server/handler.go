package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jacksonlee411/payroll-approvals/internal/routing"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/ports"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/infrastructure/payrollapi"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/infrastructure/persistence"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/presentation/controllers"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/services"
)

func NewHandler() (http.Handler, error) {
	return NewHandlerWithOptions(HandlerOptions{})
}

// HandlerOptions overrides the collaborators NewHandlerWithOptions would
// otherwise build from the environment.
type HandlerOptions struct {
	Payroll    ports.PayrollService
	Journal    ports.DecisionJournal
	Authorizer authorizer
	Verifier   credentialVerifier
	Policy     *services.Policy
}

func NewHandlerWithOptions(opts HandlerOptions) (http.Handler, error) {
	allowlistPath := os.Getenv("ALLOWLIST_PATH")
	if allowlistPath == "" {
		p, err := findRepoFile("config/routing/allowlist.yaml")
		if err != nil {
			return nil, err
		}
		allowlistPath = p
	}

	a, err := routing.LoadAllowlist(allowlistPath)
	if err != nil {
		return nil, err
	}

	classifier, err := routing.NewClassifier(a, "server")
	if err != nil {
		return nil, err
	}

	payroll := opts.Payroll
	if payroll == nil {
		payroll, err = payrollClientFromEnv()
		if err != nil {
			return nil, err
		}
	}

	journal := opts.Journal
	if journal == nil {
		journal, err = journalFromEnv(context.Background())
		if err != nil {
			return nil, err
		}
	}

	var policy services.Policy
	if opts.Policy != nil {
		policy = *opts.Policy
	} else {
		policy, err = policyFromEnv()
		if err != nil {
			return nil, err
		}
	}

	authz := opts.Authorizer
	if authz == nil {
		loaded, err := loadAuthorizer()
		if err != nil {
			return nil, err
		}
		log.Printf("server: authz mode %s", loaded.Mode())
		authz = loaded
	}

	verifier := opts.Verifier
	if verifier == nil {
		v, err := newJWTVerifier(os.Getenv("JWT_SECRET"))
		if err != nil {
			return nil, err
		}
		verifier = v
	}

	pipeline, err := services.NewPipelineOrchestrator(payroll, policy)
	if err != nil {
		return nil, err
	}
	reviewersController := controllers.ReviewersController{
		Credential: currentCredential,
		Roster:     services.NewRosterService(payroll, journal),
	}
	runsController := controllers.RunsController{
		Credential: currentCredential,
		Reviews:    services.NewReviewService(payroll, journal, pipeline, policy),
		Pipeline:   pipeline,
	}

	router := routing.NewRouter(classifier)
	if err := registerRoutes(router, classifier, serverRoutes(reviewersController, runsController)); err != nil {
		return nil, err
	}

	var h http.Handler = router
	h = withAuthz(classifier, authz, h)
	h = withBearerCredential(classifier, verifier, h)
	h = withRequestID(h)
	return h, nil
}

type serverRoute struct {
	rc      routing.RouteClass
	method  string
	path    string
	handler http.HandlerFunc
}

func serverRoutes(reviewers controllers.ReviewersController, runs controllers.RunsController) []serverRoute {
	const api = "/payroll-review/api"
	return []serverRoute{
		{routing.RouteClassOps, http.MethodGet, "/health", handleHealth},
		{routing.RouteClassOps, http.MethodGet, "/healthz", handleHealth},

		{routing.RouteClassInternalAPI, http.MethodGet, api + "/reviewers", reviewers.HandleList},
		{routing.RouteClassInternalAPI, http.MethodPost, api + "/reviewers", reviewers.HandleAdd},
		{routing.RouteClassInternalAPI, http.MethodGet, api + "/reviewers/decisions", reviewers.HandleDecisions},
		{routing.RouteClassInternalAPI, http.MethodPost, api + "/reviewers:swap", reviewers.HandleSwap},
		{routing.RouteClassInternalAPI, http.MethodPatch, api + "/reviewers/{reviewer_id}", reviewers.HandlePatch},
		{routing.RouteClassInternalAPI, http.MethodDelete, api + "/reviewers/{reviewer_id}", reviewers.HandleDelete},
		{routing.RouteClassInternalAPI, http.MethodPost, api + "/reviewers/{reviewer_id}:move", reviewers.HandleMove},

		{routing.RouteClassInternalAPI, http.MethodPatch, api + "/reviews/{review_id}", runs.HandleTransition},
		{routing.RouteClassInternalAPI, http.MethodGet, api + "/runs/{run_id}/items", runs.HandleItems},
		{routing.RouteClassInternalAPI, http.MethodGet, api + "/runs/{run_id}/progress", runs.HandleProgress},
		{routing.RouteClassInternalAPI, http.MethodGet, api + "/runs/{run_id}/stage", runs.HandleStage},
		{routing.RouteClassInternalAPI, http.MethodGet, api + "/runs/{run_id}/disbursement-items", runs.HandleDisbursementItems},
		{routing.RouteClassInternalAPI, http.MethodGet, api + "/runs/{run_id}/decisions", runs.HandleDecisions},
	}
}

// registerRoutes refuses to serve a route the allowlist does not declare.
func registerRoutes(router *routing.Router, classifier *routing.Classifier, routes []serverRoute) error {
	for _, rt := range routes {
		if !classifier.Declares(rt.method, rt.path) {
			return fmt.Errorf("server: route %s %s missing from allowlist", rt.method, rt.path)
		}
		router.Handle(rt.rc, rt.method, rt.path, rt.handler)
	}
	return nil
}

func MustNewHandler() http.Handler {
	h, err := NewHandler()
	if err != nil {
		panic(errors.New("server: failed to build handler: " + err.Error()))
	}
	return h
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func payrollClientFromEnv() (*payrollapi.Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("PAYROLL_API_URL"))
	if baseURL == "" {
		return nil, errors.New("server: missing PAYROLL_API_URL")
	}
	timeout := payrollapi.DefaultTimeout
	if raw := strings.TrimSpace(os.Getenv("PAYROLL_API_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, errors.New("server: invalid PAYROLL_API_TIMEOUT")
		}
		timeout = d
	}
	return payrollapi.New(baseURL, timeout)
}

// journalFromEnv picks the decision journal backend. JOURNAL_STORE=pg keeps
// decisions in Postgres; anything else keeps them in memory.
func journalFromEnv(ctx context.Context) (ports.DecisionJournal, error) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("JOURNAL_STORE"))) {
	case "", "memory":
		return persistence.NewDecisionJournalMemoryStore(), nil
	case "pg", "postgres":
		pool, err := pgxpool.New(ctx, dbDSNFromEnv())
		if err != nil {
			return nil, err
		}
		log.Printf("server: decision journal backed by postgres")
		return persistence.NewDecisionJournalPGStore(pool), nil
	default:
		return nil, errors.New("server: invalid JOURNAL_STORE")
	}
}

func policyFromEnv() (services.Policy, error) {
	path := os.Getenv("PIPELINE_POLICY_PATH")
	if path == "" {
		p, err := findRepoFile("config/pipeline/policy.yaml")
		if err != nil {
			return services.DefaultPolicy(), nil
		}
		path = p
	}
	return services.LoadPolicy(path)
}
