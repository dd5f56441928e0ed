package payrollstub

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
)

// NewHandler serves the payroll service contract the BFF client speaks.
func NewHandler(s *Store) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/ready", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	mux.HandleFunc("GET /reviewers", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"reviewers": s.Reviewers()})
	})
	mux.HandleFunc("GET /company-users/{id}", func(w http.ResponseWriter, r *http.Request) {
		u, err := s.CompanyUser(r.PathValue("id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	})
	mux.HandleFunc("POST /reviewers", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CompanyUserID string `json:"companyUserId"`
			Level         int    `json:"level"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeStoreError(w, badRequest("invalid json"))
			return
		}
		rv, err := s.AddReviewer(strings.TrimSpace(req.CompanyUserID), req.Level)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rv)
	})
	mux.HandleFunc("PATCH /reviewers/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Level  *int    `json:"level"`
			Status *string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeStoreError(w, badRequest("invalid json"))
			return
		}
		if req.Level == nil && req.Status == nil {
			writeStoreError(w, badRequest("level or status is required"))
			return
		}
		rv, err := s.UpdateReviewer(r.PathValue("id"), req.Level, req.Status)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rv)
	})
	mux.HandleFunc("POST /reviewers/reorder", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Reviewers []Assignment `json:"reviewers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeStoreError(w, badRequest("invalid json"))
			return
		}
		if err := s.Reorder(req.Reviewers); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /reviewers/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := s.DeleteReviewer(r.PathValue("id")); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /payroll/runs/{id}/prepare", func(w http.ResponseWriter, r *http.Request) {
		items, err := s.Prepare(r.PathValue("id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	})
	mux.HandleFunc("PATCH /payroll/reviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeStoreError(w, badRequest("invalid json"))
			return
		}
		if err := s.UpdateReview(r.PathValue("id"), req.Status); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /payroll/runs/{id}/review-summary", func(w http.ResponseWriter, r *http.Request) {
		sum, err := s.Summary(r.PathValue("id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	})

	return requireBearer(mux)
}

func requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health/ready" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if se, ok := errors.AsType[*Error](err); ok {
		writeJSON(w, se.Status, map[string]string{"error": se.Message})
		return
	}
	log.Printf("payrollstub: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
