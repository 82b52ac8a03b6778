package dashsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed call.
type Kind string

const (
	KindTransport      Kind = "transport"
	KindUnauthorized   Kind = "unauthorized"
	KindForbidden      Kind = "forbidden"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindServer         Kind = "server"
	KindSessionExpired Kind = "session_expired"
)

var (
	// ErrSessionExpired is returned when a refresh fails. The token store has
	// been cleared and the user must log in again.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotAdmin is returned by Session.Login when the identity behind the
	// token does not hold the ADMIN role.
	ErrNotAdmin = errors.New("wrong username or password")

	// ErrNoToken is returned when the backend accepts a login without
	// issuing an access token.
	ErrNoToken = errors.New("token not provided")
)

// APIError is a failed backend call.
type APIError struct {
	StatusCode int
	Kind       Kind

	// Message is the human readable text the UI shows in its toast.
	Message string

	// Errors is the raw "errors" member of the response body, if any.
	Errors json.RawMessage

	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" when err is not an *APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// kindForStatus maps an HTTP status to a Kind.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

// parseErrorResponse builds an *APIError from a non-2xx response body of the
// form {"errors": "message"} or {"errors": [...]}.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Kind:       kindForStatus(resp.StatusCode),
	}

	var envelope struct {
		Errors  json.RawMessage `json:"errors"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Errors = envelope.Errors
		apiErr.Message = messageFromErrors(envelope.Errors)
		if apiErr.Message == "" {
			apiErr.Message = envelope.Message
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = strings.ToLower(http.StatusText(resp.StatusCode))
	}
	if apiErr.Message == "" {
		apiErr.Message = "something wrong"
	}

	return apiErr
}

// messageFromErrors returns a string "errors" verbatim and a non-empty array
// as its JSON text.
func messageFromErrors(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return ""
		}
		return string(raw)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil && len(fields) > 0 {
		return string(raw)
	}

	return ""
}

// validationError reports fields rejected before any request was sent.
func validationError(fields map[string]string) error {
	raw, _ := json.Marshal(fields)
	return &APIError{
		StatusCode: http.StatusUnprocessableEntity,
		Kind:       KindValidation,
		Message:    "invalid input",
		Errors:     raw,
	}
}
