package routing

import (
	"encoding/json"
	"net/http"
	"strings"
)

type ErrorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	TraceID string            `json:"trace_id"`
	Meta    ErrorEnvelopeMeta `json:"meta"`
}

type ErrorEnvelopeMeta struct {
	Path   string `json:"path"`
	Method string `json:"method"`
}

func WriteError(w http.ResponseWriter, r *http.Request, rc RouteClass, status int, code string, message string) {
	message = normalizeErrorMessage(code, message)
	if isJSONOnly(rc) || wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(ErrorEnvelope{
			Code:    code,
			Message: message,
			TraceID: traceIDFromRequest(r),
			Meta: ErrorEnvelopeMeta{
				Path:   r.URL.Path,
				Method: r.Method,
			},
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte("<!doctype html><html><body>"))
	_, _ = w.Write([]byte(message))
	_, _ = w.Write([]byte("</body></html>"))
}

func wantsJSON(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json" || r.Header.Get("Accept") == "application/json; charset=utf-8"
}

func isJSONOnly(rc RouteClass) bool {
	return rc == RouteClassInternalAPI || rc == RouteClassPublicAPI || rc == RouteClassOps
}

func traceIDFromRequest(r *http.Request) string {
	traceparent := strings.TrimSpace(r.Header.Get("traceparent"))
	if traceparent == "" {
		return ""
	}
	parts := strings.Split(traceparent, "-")
	if len(parts) != 4 {
		return ""
	}
	traceID := strings.ToLower(parts[1])
	if len(traceID) != 32 || traceID == "00000000000000000000000000000000" {
		return ""
	}
	for _, ch := range traceID {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
			return ""
		}
	}
	return traceID
}

// normalizeErrorMessage keeps explicit messages and replaces generic ones
// ("update failed", the code itself) with something a reviewer can act on.
func normalizeErrorMessage(code string, message string) string {
	if !isGenericErrorMessage(code, message) {
		return message
	}
	if known := knownErrorMessage(code); known != "" {
		return known
	}
	return humanizeErrorCode(code)
}

func isGenericErrorMessage(code string, message string) bool {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return true
	}
	if strings.EqualFold(msg, strings.TrimSpace(code)) {
		return true
	}
	lower := strings.ToLower(msg)
	if !strings.Contains(lower, " ") && (strings.HasSuffix(lower, "_failed") || strings.HasSuffix(lower, "_error")) {
		return true
	}
	words := strings.Fields(lower)
	if len(words) <= 3 && (words[len(words)-1] == "failed" || words[len(words)-1] == "error") {
		return true
	}
	return false
}

func knownErrorMessage(code string) string {
	switch strings.TrimSpace(code) {
	case "auth_required", "unauthorized":
		return "Please log in again."
	case "forbidden":
		return "You do not have permission to perform this action."
	case "invalid_request", "validation_failed":
		return "The request is invalid. Check the values and try again."
	case "bad_json":
		return "The request body is not valid JSON."
	case "not_found":
		return "The requested resource was not found."
	case "method_not_allowed":
		return "This method is not allowed here."
	case "update_failed":
		return "The change could not be saved. Refresh and try again."
	case "network_error":
		return "The payroll service could not be reached. Try again shortly."
	case "invalid_operation":
		return "This action is not allowed in the current state."
	case "internal_error":
		return "Something went wrong. Try again shortly."
	default:
		return ""
	}
}

func humanizeErrorCode(code string) string {
	words := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(code)), func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	switch {
	case len(words) == 0:
		return "Request failed."
	case len(words) == 1 && words[0] == "failed":
		return "Request failed."
	case len(words) == 1 && words[0] == "error":
		return "Request error."
	}
	return titleCaseWords(words) + "."
}

var errorCodeAcronyms = map[string]string{
	"api":  "API",
	"db":   "DB",
	"id":   "ID",
	"jwt":  "JWT",
	"rls":  "RLS",
	"uuid": "UUID",
}

func titleCaseWords(words []string) string {
	out := make([]string, 0, len(words))
	for i, w := range words {
		if a, ok := errorCodeAcronyms[w]; ok {
			out = append(out, a)
			continue
		}
		if i == 0 {
			w = capitalizeWord(w)
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

func capitalizeWord(w string) string {
	if w == "" {
		return ""
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
