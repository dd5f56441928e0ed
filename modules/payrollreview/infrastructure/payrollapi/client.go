package payrollapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/ports"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
	"github.com/jacksonlee411/payroll-approvals/pkg/httperr"
	"github.com/jacksonlee411/payroll-approvals/pkg/requestid"
)

const DefaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ ports.PayrollService = (*Client)(nil)

// HTTPError is a non-2xx answer from the payroll service.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("payrollapi: http %d: %s", e.StatusCode, msg)
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, errors.New("payrollapi: missing base url")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.New("payrollapi: invalid base url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("payrollapi: invalid base url scheme")
	}
	if u.Host == "" {
		return nil, errors.New("payrollapi: invalid base url host")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *Client) ListReviewers(ctx context.Context, cred types.Credential) ([]types.Reviewer, error) {
	var out struct {
		Reviewers []reviewerWire `json:"reviewers"`
	}
	if err := c.do(ctx, cred, http.MethodGet, "/reviewers", nil, &out, false); err != nil {
		return nil, err
	}
	reviewers := make([]types.Reviewer, 0, len(out.Reviewers))
	for _, w := range out.Reviewers {
		reviewers = append(reviewers, w.toDomain())
	}
	return reviewers, nil
}

func (c *Client) GetCompanyUser(ctx context.Context, cred types.Credential, companyUserID string) (types.CompanyUser, error) {
	var out companyUserWire
	if err := c.do(ctx, cred, http.MethodGet, "/company-users/"+url.PathEscape(companyUserID), nil, &out, false); err != nil {
		return types.CompanyUser{}, err
	}
	return types.CompanyUser{
		CompanyUserID: out.ID,
		FullName:      out.FullName,
		Email:         out.Email,
		Role:          types.Role(strings.ToUpper(out.Role)),
	}, nil
}

func (c *Client) CreateReviewer(ctx context.Context, cred types.Credential, companyUserID string, level int) (types.Reviewer, error) {
	body := map[string]any{"companyUserId": companyUserID, "level": level}
	var out reviewerWire
	if err := c.do(ctx, cred, http.MethodPost, "/reviewers", body, &out, true); err != nil {
		return types.Reviewer{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) UpdateReviewerLevel(ctx context.Context, cred types.Credential, reviewerID string, level int) (types.Reviewer, error) {
	var out reviewerWire
	if err := c.do(ctx, cred, http.MethodPatch, "/reviewers/"+url.PathEscape(reviewerID), map[string]any{"level": level}, &out, true); err != nil {
		return types.Reviewer{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) UpdateReviewerStatus(ctx context.Context, cred types.Credential, reviewerID string, status types.ReviewerStatus) (types.Reviewer, error) {
	var out reviewerWire
	if err := c.do(ctx, cred, http.MethodPatch, "/reviewers/"+url.PathEscape(reviewerID), map[string]any{"status": string(status)}, &out, true); err != nil {
		return types.Reviewer{}, err
	}
	return out.toDomain(), nil
}

// ReorderReviewers sends every assignment in one request so the service
// never sees two reviewers on the same level.
func (c *Client) ReorderReviewers(ctx context.Context, cred types.Credential, assignments []types.LevelAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	h := http.Header{}
	h.Set(IdempotencyKeyHeader, reorderIdempotencyKey(cred.CompanyID, assignments))
	return c.doWithHeader(ctx, cred, http.MethodPost, "/reviewers/reorder", map[string]any{"reviewers": assignments}, nil, true, h)
}

const IdempotencyKeyHeader = "Idempotency-Key"

var reorderNamespace = uuid.Must(uuid.Parse("3f1c9a52-8d0e-4b7a-9e61-5c2d7b4a0f18"))

// reorderIdempotencyKey is the same for any retry of one target level layout.
func reorderIdempotencyKey(companyID string, assignments []types.LevelAssignment) string {
	parts := make([]string, 0, len(assignments))
	for _, a := range assignments {
		parts = append(parts, fmt.Sprintf("%s=%d", a.ReviewerID, a.Level))
	}
	sort.Strings(parts)
	name := fmt.Sprintf("payroll_review.reviewer_reorder:%s:%s", companyID, strings.Join(parts, ","))
	return uuid.NewSHA1(reorderNamespace, []byte(name)).String()
}

func (c *Client) DeleteReviewer(ctx context.Context, cred types.Credential, reviewerID string) error {
	return c.do(ctx, cred, http.MethodDelete, "/reviewers/"+url.PathEscape(reviewerID), nil, nil, true)
}

func (c *Client) PrepareRun(ctx context.Context, cred types.Credential, runID string) ([]types.ReviewItem, error) {
	var out struct {
		Items []reviewItemWire `json:"items"`
	}
	if err := c.do(ctx, cred, http.MethodGet, "/payroll/runs/"+url.PathEscape(runID)+"/prepare", nil, &out, false); err != nil {
		return nil, err
	}
	items := make([]types.ReviewItem, 0, len(out.Items))
	for _, w := range out.Items {
		items = append(items, w.toDomain(runID))
	}
	return items, nil
}

func (c *Client) UpdateReviewStatus(ctx context.Context, cred types.Credential, reviewID string, status types.ReviewStatus) error {
	return c.do(ctx, cred, http.MethodPatch, "/payroll/reviews/"+url.PathEscape(reviewID), map[string]any{"status": string(status)}, nil, true)
}

func (c *Client) ReviewSummary(ctx context.Context, cred types.Credential, runID string) (types.ReviewSummary, error) {
	var out reviewSummaryWire
	if err := c.do(ctx, cred, http.MethodGet, "/payroll/runs/"+url.PathEscape(runID)+"/review-summary", nil, &out, false); err != nil {
		return types.ReviewSummary{}, err
	}
	return out.toDomain(runID), nil
}

func (c *Client) do(ctx context.Context, cred types.Credential, method string, path string, in any, out any, mutation bool) error {
	return c.doWithHeader(ctx, cred, method, path, in, out, mutation, nil)
}

func (c *Client) doWithHeader(ctx context.Context, cred types.Credential, method string, path string, in any, out any, mutation bool, header http.Header) error {
	if !cred.Present() {
		return httperr.NewAuth("")
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	id, ok := requestid.From(ctx)
	if !ok {
		id = requestid.New()
	}
	req.Header.Set(requestid.Header, id)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return httperr.NewNetwork(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return classify(readHTTPError(resp), mutation)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return httperr.NewNetwork(fmt.Errorf("payrollapi: decode %s %s: %w", method, path, err))
	}
	return nil
}

func classify(he *HTTPError, mutation bool) error {
	switch he.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return httperr.NewAuth("")
	case http.StatusNotFound:
		return httperr.NewNotFound(messageOr(he, "not found"))
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return httperr.NewValidation(messageOr(he, "invalid request"))
	}
	if mutation {
		return httperr.WrapUpdateFailed(messageOr(he, ""), he)
	}
	return httperr.NewNetwork(he)
}

func messageOr(he *HTTPError, def string) string {
	if msg := strings.TrimSpace(he.Message); msg != "" {
		return msg
	}
	return def
}

func readHTTPError(resp *http.Response) *HTTPError {
	const maxBody = 4096
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Message:    errorMessage(b),
	}
}

// errorMessage extracts {error} or {message} from a JSON body and falls
// back to the raw text.
func errorMessage(b []byte) string {
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &env); err == nil {
		if s := strings.TrimSpace(env.Error); s != "" {
			return s
		}
		if s := strings.TrimSpace(env.Message); s != "" {
			return s
		}
	}
	return strings.TrimSpace(string(b))
}
