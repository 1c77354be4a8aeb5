package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livehike/livehike/internal/api/models"
)

func TestStatusProblems(t *testing.T) {
	tests := []struct {
		name     string
		problem  *models.Problem
		status   int
		wantType string
		title    string
	}{
		{"bad request", models.NewBadRequest("req_1", "d", nil), http.StatusBadRequest, models.ProblemTypeValidation, "Validation error"},
		{"forbidden", models.NewForbidden("req_1", "d"), http.StatusForbidden, models.ProblemTypeForbidden, "Forbidden"},
		{"not found", models.NewNotFound("req_1", "d"), http.StatusNotFound, models.ProblemTypeNotFound, "Not found"},
		{"conflict", models.NewConflict("req_1", "d"), http.StatusConflict, models.ProblemTypeConflict, "Conflict"},
		{"too many", models.NewTooManyRequests("req_1", "d"), http.StatusTooManyRequests, models.ProblemTypeTooManyRequests, "Too many requests"},
		{"internal", models.NewInternalError("req_1", "d"), http.StatusInternalServerError, models.ProblemTypeInternal, "Internal server error"},
		{"unavailable", models.NewServiceUnavailable("req_1", "d"), http.StatusServiceUnavailable, models.ProblemTypeUnavailable, "Service unavailable"},
		{"unmapped status", models.NewStatusProblem(http.StatusTeapot, "req_1", "d"), http.StatusTeapot, "about:blank", "I'm a teapot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.problem.Status)
			assert.Equal(t, tt.wantType, tt.problem.Type)
			assert.Equal(t, tt.title, tt.problem.Title)
			assert.Equal(t, "d", tt.problem.Detail)
			assert.Equal(t, "req_1", tt.problem.TraceID)
			assert.True(t, strings.HasPrefix(tt.problem.Type, models.ProblemBaseURI) || tt.problem.Type == "about:blank")
		})
	}
}

func TestNewProblem_Builders(t *testing.T) {
	p := models.NewProblem(models.ProblemBaseURI+"tls-required", "TLS required", http.StatusForbidden, "req_9").
		WithDetail("This endpoint requires HTTPS").
		WithInstance("/v1/pins/p1/verify").
		WithErrors([]models.FieldError{{Field: "coordinate.lat", Message: "must be between -90 and 90", Code: models.CodeOutOfRange}})

	assert.Equal(t, "https://api.livehike.app/problems/tls-required", p.Type)
	assert.Equal(t, "This endpoint requires HTTPS", p.Detail)
	assert.Equal(t, "/v1/pins/p1/verify", p.Instance)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "OUT_OF_RANGE", p.Errors[0].Code)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_test123", "invalid input", []models.FieldError{
		{Field: "description", Message: "is required", Code: models.CodeRequired},
	}).WithInstance("/v1/trails/Big C Trail/pins/wrong-turns")

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))

	var result models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, *p, result)
}

func TestProblem_OmitsEmptyOptionalFields(t *testing.T) {
	w := httptest.NewRecorder()
	models.NewNotFound("req_1", "").Write(w)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "detail")
	assert.NotContains(t, raw, "instance")
	assert.NotContains(t, raw, "errors")
	assert.Equal(t, "req_1", raw["traceId"])
}

func TestLandmarkList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.LandmarkList
	}{
		{"comma separated string", `{"landmarks":"Large oak tree, Rocky outcrop"}`, models.LandmarkList{"Large oak tree", " Rocky outcrop"}},
		{"array", `{"landmarks":["Bench","Gate"]}`, models.LandmarkList{"Bench", "Gate"}},
		{"absent", `{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req models.WrongTurnReportRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.Landmarks)
		})
	}

	var req models.WrongTurnReportRequest
	assert.Error(t, json.Unmarshal([]byte(`{"landmarks":42}`), &req))
}

func TestTimestamp_RoundTrip(t *testing.T) {
	ts := models.Timestamp(time.Date(2026, 5, 1, 12, 30, 0, 123000000, time.UTC))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2026-05-01T12:30:00.123Z"`, string(data))

	var decoded models.Timestamp
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, ts.Time().Equal(decoded.Time()))
}
