package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 error body, served as application/problem+json.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// TraceID is the request ID, echoed in X-Request-Id.
	TraceID string `json:"traceId"`

	// Errors contains structured field validation errors.
	Errors []FieldError `json:"errors,omitempty"`

	// Upstream describes the service-area provider failure behind a 502.
	Upstream *UpstreamError `json:"upstream,omitempty"`
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// UpstreamError is the provider side of a failed solve, token or catalog call.
type UpstreamError struct {
	Provider string `json:"provider,omitempty"`
	// Code is the client's classification, e.g. "TOKEN_REJECTED".
	Code string `json:"code,omitempty"`
	// ServiceCode is the error code reported in the provider's error object.
	ServiceCode int      `json:"serviceCode,omitempty"`
	Details     []string `json:"details,omitempty"`
}

// ProblemType constants for standard error types.
const (
	problemBase = "https://isochrones.mlmgis.dev/problems/"

	ProblemTypeValidation       = problemBase + "validation-error"
	ProblemTypeUnauthorized     = problemBase + "unauthorized"
	ProblemTypeNotFound         = problemBase + "not-found"
	ProblemTypeUnsupportedMedia = problemBase + "unsupported-media-type"
	ProblemTypeTooManyRequests  = problemBase + "too-many-requests"
	ProblemTypeTLSRequired      = problemBase + "tls-required"
	ProblemTypeInternal         = problemBase + "internal-error"
	ProblemTypeUpstream         = problemBase + "upstream-error"
	ProblemTypeUnavailable      = problemBase + "service-unavailable"
)

var problemTitles = map[string]string{
	ProblemTypeValidation:       "Validation error",
	ProblemTypeUnauthorized:     "Unauthorized",
	ProblemTypeNotFound:         "Not found",
	ProblemTypeUnsupportedMedia: "Unsupported media type",
	ProblemTypeTooManyRequests:  "Too many requests",
	ProblemTypeTLSRequired:      "TLS required",
	ProblemTypeInternal:         "Internal server error",
	ProblemTypeUpstream:         "Upstream provider error",
	ProblemTypeUnavailable:      "Service unavailable",
}

// NewProblem creates a new Problem with the given parameters.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

func newTyped(problemType string, status int, traceID, detail string) *Problem {
	p := NewProblem(problemType, problemTitles[problemType], status, traceID)
	p.Detail = detail
	return p
}

// WithUpstream attaches the provider failure to the Problem.
func (p *Problem) WithUpstream(u UpstreamError) *Problem {
	p.Upstream = &u
	return p
}

// Write writes the Problem as JSON to the ResponseWriter.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("X-Request-Id", p.TraceID)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 Bad Request problem.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	p := newTyped(ProblemTypeValidation, http.StatusBadRequest, traceID, detail)
	p.Errors = errors
	return p
}

// NewUnauthorized creates a 401 Unauthorized problem.
func NewUnauthorized(traceID, detail string) *Problem {
	return newTyped(ProblemTypeUnauthorized, http.StatusUnauthorized, traceID, detail)
}

// NewTLSRequired creates a 403 problem for plain HTTP requests.
func NewTLSRequired(traceID string) *Problem {
	return newTyped(ProblemTypeTLSRequired, http.StatusForbidden, traceID, "HTTPS is required")
}

// NewNotFound creates a 404 Not Found problem.
func NewNotFound(traceID, detail string) *Problem {
	return newTyped(ProblemTypeNotFound, http.StatusNotFound, traceID, detail)
}

// NewUnsupportedMediaType creates a 415 Unsupported Media Type problem.
func NewUnsupportedMediaType(traceID, detail string) *Problem {
	return newTyped(ProblemTypeUnsupportedMedia, http.StatusUnsupportedMediaType, traceID, detail)
}

// NewTooManyRequests creates a 429 Too Many Requests problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return newTyped(ProblemTypeTooManyRequests, http.StatusTooManyRequests, traceID, detail)
}

// NewInternalError creates a 500 Internal Server Error problem.
func NewInternalError(traceID, detail string) *Problem {
	return newTyped(ProblemTypeInternal, http.StatusInternalServerError, traceID, detail)
}

// NewBadGateway creates a 502 Bad Gateway problem for upstream provider failures.
func NewBadGateway(traceID, detail string) *Problem {
	return newTyped(ProblemTypeUpstream, http.StatusBadGateway, traceID, detail)
}

// NewServiceUnavailable creates a 503 Service Unavailable problem.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return newTyped(ProblemTypeUnavailable, http.StatusServiceUnavailable, traceID, detail)
}
