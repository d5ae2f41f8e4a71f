package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultErrorMessage is shown when a failed request carries no usable message.
const DefaultErrorMessage = "Try again."

// APIError is returned when the API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
	// ErrorText is the optional short error name sent by the API, e.g. "Not Found".
	ErrorText string
	// HasMessage is false when the body carried no message and Message
	// holds the status text instead.
	HasMessage bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// TransportError wraps failures that happened before any response was read.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrorMessage returns the message the API attached to err, or fallback
// when err is not an API error or the body had no message.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.HasMessage {
		return apiErr.Message
	}
	return fallback
}

// IsStatus reports whether err is an API error with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type errorBody struct {
	Message    json.RawMessage `json:"message"`
	StatusCode int             `json:"statusCode"`
	Error      string          `json:"error"`
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Message:    http.StatusText(status),
	}

	var eb errorBody
	if len(body) == 0 || json.Unmarshal(body, &eb) != nil {
		return apiErr
	}
	apiErr.ErrorText = eb.Error

	if msg := decodeMessage(eb.Message); msg != "" {
		apiErr.Message = msg
		apiErr.HasMessage = true
	}
	return apiErr
}

// decodeMessage accepts both a plain string and a list of strings, the
// latter being what the API sends for request validation failures.
func decodeMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var single string
	if json.Unmarshal(raw, &single) == nil {
		return strings.TrimSpace(single)
	}

	var many []string
	if json.Unmarshal(raw, &many) == nil {
		return strings.TrimSpace(strings.Join(many, "; "))
	}
	return ""
}
