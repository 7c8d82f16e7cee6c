package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/vgen/internal/shared"
)

// APIError describes a non-2xx backend response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
	kind       error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// Unwrap returns the sentinel error matching the failure.
func (e *APIError) Unwrap() error {
	if e.kind != nil {
		return e.kind
	}
	return shared.ErrAPIRequest
}

// detailOf extracts the FastAPI-style {"detail": "..."} message, falling back to the raw body.
func detailOf(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(payload.Detail); err == nil {
			return string(b)
		}
	}
	const maxRaw = 200
	s := strings.TrimSpace(string(body))
	if len(s) > maxRaw {
		s = s[:maxRaw] + "…"
	}
	return s
}

// checkResponse converts a non-2xx response into an [*APIError]; notFound is used for 404s.
func checkResponse(method, path string, resp *APIResponse, notFound error) error {
	if resp.OK() {
		return nil
	}
	apiErr := &APIError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Detail:     detailOf(resp.Body),
	}
	if resp.StatusCode == http.StatusNotFound && notFound != nil {
		apiErr.kind = notFound
	}
	return apiErr
}
