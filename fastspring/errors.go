package fastspring

import (
	"encoding/json"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cashier-fastspring/core"
)

// APIError is a non-2xx FastSpring response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	// Fields holds the decoded {"error": {...}} object when present.
	Fields map[string]any
}

func newAPIError(method string, path string, res core.TransportResponse) *APIError {
	apiErr := &APIError{
		Method:     method,
		Path:       path,
		StatusCode: res.StatusCode,
		Body:       append([]byte(nil), res.Body...),
	}
	var envelope struct {
		Error map[string]any `json:"error"`
	}
	if err := json.Unmarshal(res.Body, &envelope); err == nil && len(envelope.Error) > 0 {
		apiErr.Fields = envelope.Error
	}
	return apiErr
}

func (e *APIError) Error() string {
	if e == nil {
		return "fastspring: api error"
	}
	return fmt.Sprintf("fastspring: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// HasFieldError reports whether the response named field in its error object,
// which is how FastSpring reports a duplicate email on account creation.
func (e *APIError) HasFieldError(field string) bool {
	if e == nil || len(e.Fields) == 0 {
		return false
	}
	_, ok := e.Fields[strings.TrimSpace(field)]
	return ok
}

// AsAPIError extracts an APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if goerrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsDuplicateEmail reports whether err is a 4xx account creation failure
// caused by an email already known to FastSpring. Server errors never count.
func IsDuplicateEmail(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.IsClientError() && apiErr.HasFieldError("email")
}

func (e *APIError) IsClientError() bool {
	return e != nil && e.StatusCode >= 400 && e.StatusCode < 500
}
