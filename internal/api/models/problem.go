package models

import (
	"encoding/json"
	"net/http"
)

// ProblemBaseURI prefixes every problem type the API emits.
const ProblemBaseURI = "https://api.livehike.app/problems/"

// Problem types.
const (
	ProblemTypeValidation      = ProblemBaseURI + "validation-error"
	ProblemTypeForbidden       = ProblemBaseURI + "forbidden"
	ProblemTypeNotFound        = ProblemBaseURI + "not-found"
	ProblemTypeConflict        = ProblemBaseURI + "conflict"
	ProblemTypeTooManyRequests = ProblemBaseURI + "too-many-requests"
	ProblemTypeInternal        = ProblemBaseURI + "internal-error"
	ProblemTypeUnavailable     = ProblemBaseURI + "service-unavailable"
)

// Problem is an RFC 7807 error body, served as application/problem+json.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected request field, e.g. "coordinate.lat".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Field error codes.
const (
	CodeRequired   = "REQUIRED"
	CodeOutOfRange = "OUT_OF_RANGE"
	CodeInvalid    = "INVALID_VALUE"
	CodeTooLong    = "TOO_LONG"
)

type problemKind struct {
	uri   string
	title string
}

var problemKinds = map[int]problemKind{
	http.StatusBadRequest:          {ProblemTypeValidation, "Validation error"},
	http.StatusForbidden:           {ProblemTypeForbidden, "Forbidden"},
	http.StatusNotFound:            {ProblemTypeNotFound, "Not found"},
	http.StatusConflict:            {ProblemTypeConflict, "Conflict"},
	http.StatusTooManyRequests:     {ProblemTypeTooManyRequests, "Too many requests"},
	http.StatusInternalServerError: {ProblemTypeInternal, "Internal server error"},
	http.StatusServiceUnavailable:  {ProblemTypeUnavailable, "Service unavailable"},
}

// NewProblem creates a Problem of an explicit type.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// NewStatusProblem creates the Problem the API uses for status. Statuses
// without a dedicated type fall back to about:blank and the status text.
func NewStatusProblem(status int, traceID, detail string) *Problem {
	kind, ok := problemKinds[status]
	if !ok {
		kind = problemKind{uri: "about:blank", title: http.StatusText(status)}
	}
	return NewProblem(kind.uri, kind.title, status, traceID).WithDetail(detail)
}

// WithDetail sets the occurrence-specific explanation.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

// WithInstance sets the request path the problem occurred on.
func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

// WithErrors attaches field errors.
func (p *Problem) WithErrors(errors []FieldError) *Problem {
	p.Errors = errors
	return p
}

// Write sends the problem. The trace id is echoed in X-Request-Id.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Request-Id", p.TraceID)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	return NewStatusProblem(http.StatusBadRequest, traceID, detail).WithErrors(errors)
}

func NewForbidden(traceID, detail string) *Problem {
	return NewStatusProblem(http.StatusForbidden, traceID, detail)
}

func NewNotFound(traceID, detail string) *Problem {
	return NewStatusProblem(http.StatusNotFound, traceID, detail)
}

func NewConflict(traceID, detail string) *Problem {
	return NewStatusProblem(http.StatusConflict, traceID, detail)
}

func NewTooManyRequests(traceID, detail string) *Problem {
	return NewStatusProblem(http.StatusTooManyRequests, traceID, detail)
}

func NewInternalError(traceID, detail string) *Problem {
	return NewStatusProblem(http.StatusInternalServerError, traceID, detail)
}

func NewServiceUnavailable(traceID, detail string) *Problem {
	return NewStatusProblem(http.StatusServiceUnavailable, traceID, detail)
}
