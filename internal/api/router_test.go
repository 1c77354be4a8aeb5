package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livehike/livehike/internal/api"
	"github.com/livehike/livehike/internal/api/middleware"
	"github.com/livehike/livehike/internal/api/models"
	"github.com/livehike/livehike/internal/blob"
	"github.com/livehike/livehike/internal/pin"
	"github.com/livehike/livehike/internal/trail"
)

type testAPI struct {
	handler http.Handler
	store   *pin.Store
	blobs   *blob.MemoryStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	blobs := blob.NewMemoryStore()
	store, err := pin.NewStore(context.Background(), pin.StoreConfig{
		Blobs:        blobs,
		Logger:       zerolog.Nop(),
		SeedDemoData: true,
	})
	require.NoError(t, err)

	return &testAPI{
		handler: api.NewRouter(api.RouterConfig{
			Version:     "test",
			BuildTime:   "2026-01-01T00:00:00Z",
			Logger:      zerolog.Nop(),
			Store:       store,
			Reports:     pin.NewReportService(store),
			Blobs:       blobs,
			Backend:     blob.BackendMemory,
			DefaultUser: "current_user",
		}),
		store: store,
		blobs: blobs,
	}
}

func trailPath(name string, rest ...string) string {
	return "/v1/trails/" + url.PathEscape(name) + strings.Join(rest, "")
}

func (a *testAPI) do(t *testing.T, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		req.Header.Set(middleware.ActorHeader, actor)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func hazardBody() map[string]any {
	return map[string]any{
		"coordinate":  map[string]float64{"lat": 37.8740, "lon": -122.2480},
		"hazardType":  "Rockslide",
		"severity":    "High",
		"description": "Loose rocks across the switchback.",
	}
}

func TestRouter_HealthCheck(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, "/v1/ops/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	health := decode[models.Health](t, rec)
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestRouter_ReadinessCheck(t *testing.T) {
	a := newTestAPI(t)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/v1/ops/ready", "", nil).Code)

	require.NoError(t, a.blobs.Close())
	rec := a.do(t, http.MethodGet, "/v1/ops/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRouter_SystemStatus(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, "/v1/ops/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	status := decode[models.SystemStatus](t, rec)
	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Subsystems, 1)
	assert.Equal(t, "blob-memory", status.Subsystems[0].Name)
	assert.Equal(t, models.StoreStats{Trails: 5, PinLocations: 4, HazardPins: 2, WrongTurnPins: 1}, status.Store)
}

func TestRouter_ListTrails(t *testing.T) {
	a := newTestAPI(t)

	all := decode[models.TrailList](t, a.do(t, http.MethodGet, "/v1/trails", "", nil))
	assert.Len(t, all.Items, 5)

	canyons := decode[models.TrailList](t, a.do(t, http.MethodGet, "/v1/trails?q=CANYON", "", nil))
	assert.Equal(t, "CANYON", canyons.Query)
	names := make([]string, 0, len(canyons.Items))
	for _, item := range canyons.Items {
		names = append(names, item.Name)
	}
	assert.ElementsMatch(t, []string{trail.StrawberryCanyon, trail.ClaremontCanyon}, names)

	none := decode[models.TrailList](t, a.do(t, http.MethodGet, "/v1/trails?q=yosemite", "", nil))
	assert.NotNil(t, none.Items)
	assert.Empty(t, none.Items)
}

func TestRouter_GetTrail(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, trailPath(trail.BigC), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	detail := decode[models.TrailDetail](t, rec)
	assert.Equal(t, trail.BigC, detail.Name)
	assert.Len(t, detail.Coordinates, 2)
	assert.NotEmpty(t, detail.Polyline)
	assert.InDelta(t, 550, detail.RouteLengthMeters, 50)
	assert.InDelta(t, 0.01, detail.Region.Span.LatDelta, 1e-9)

	region := decode[models.Region](t, a.do(t, http.MethodGet, trailPath(trail.BigC, "/region"), "", nil))
	assert.Equal(t, detail.Region, region)
}

func TestRouter_UnknownTrail(t *testing.T) {
	a := newTestAPI(t)
	for _, path := range []string{trailPath("Nowhere"), trailPath("Nowhere", "/region"), trailPath("Nowhere", "/pins")} {
		rec := a.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, models.ProblemTypeNotFound, decode[models.Problem](t, rec).Type)
	}

	rec := a.do(t, http.MethodPost, trailPath("Nowhere", "/pins/hazards"), "", hazardBody())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ReportHazardLifecycle(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, trailPath(trail.BigC, "/pins/hazards"), "ranger_rick", hazardBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.PinDetail](t, rec)

	assert.Equal(t, "/v1/pins/"+created.ID, rec.Header().Get("Location"))
	assert.Equal(t, "Hazard", created.Type)
	assert.Equal(t, trail.BigC, created.TrailName)
	assert.Equal(t, "ranger_rick", created.CreatedBy)
	assert.True(t, created.CanDelete)
	require.NotNil(t, created.Hazard)
	assert.Equal(t, "Rockslide", created.Hazard.HazardType)
	assert.Equal(t, "High", created.Hazard.Severity)

	pins := decode[models.PinList](t, a.do(t, http.MethodGet, trailPath(trail.BigC, "/pins"), "someone_else", nil))
	require.Len(t, pins.Items, 2)
	for _, p := range pins.Items {
		assert.False(t, p.CanDelete, "only the creator may delete")
	}

	got := decode[models.PinDetail](t, a.do(t, http.MethodGet, "/v1/pins/"+created.ID, "ranger_rick", nil))
	assert.Equal(t, created.ID, got.ID)
	require.NotNil(t, got.Hazard)
	assert.Nil(t, got.WrongTurn)

	verified := decode[models.ModerationResult](t, a.do(t, http.MethodPost, "/v1/pins/"+created.ID+"/verify", "", nil))
	require.NotNil(t, verified.Pin)
	assert.Equal(t, 1, verified.Pin.VerifiedCount)
	assert.NotNil(t, verified.Pin.UpdatedAt)

	first := decode[models.ModerationResult](t, a.do(t, http.MethodPost, "/v1/pins/"+created.ID+"/dismiss", "", nil))
	assert.False(t, first.Expired)
	require.NotNil(t, first.Pin)
	assert.Equal(t, 1, first.Pin.DismissedCount)

	second := decode[models.ModerationResult](t, a.do(t, http.MethodPost, "/v1/pins/"+created.ID+"/dismiss", "", nil))
	assert.True(t, second.Expired)
	assert.Nil(t, second.Pin)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/pins/"+created.ID, "", nil).Code)
	_, ok := a.store.HazardPinDetails(pin.PinLocation{ID: created.ID, Type: pin.TypeHazard})
	assert.False(t, ok, "detail record removed with its pin")
}

func TestRouter_ReportWrongTurn(t *testing.T) {
	a := newTestAPI(t)
	body := map[string]any{
		"coordinate":                  map[string]float64{"lat": 37.8850, "lon": -122.2450},
		"description":                 "Unmarked fork by the water tank.",
		"correctDirectionDescription": "Keep left and uphill.",
		"landmarks":                   "Water tank, Bench",
	}

	rec := a.do(t, http.MethodPost, trailPath(trail.StrawberryCanyon, "/pins/wrong-turns"), "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[models.PinDetail](t, rec)
	assert.Equal(t, "Wrong Turn", created.Type)
	assert.Equal(t, "current_user", created.CreatedBy)
	require.NotNil(t, created.WrongTurn)
	assert.Equal(t, []string{"Water tank", "Bench"}, created.WrongTurn.Landmarks)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/v1/pins/"+created.ID+"/dismiss", "", nil).Code)
	dismissed := decode[models.ModerationResult](t, a.do(t, http.MethodPost, "/v1/pins/"+created.ID+"/dismiss", "", nil))
	assert.False(t, dismissed.Expired, "wrong-turn pins do not expire")
	require.NotNil(t, dismissed.Pin)
	assert.Equal(t, 2, dismissed.Pin.DismissedCount)
}

func TestRouter_ReportWildlife(t *testing.T) {
	a := newTestAPI(t)
	body := map[string]any{"coordinate": map[string]float64{"lat": 37.9125, "lon": -122.3000}}

	rec := a.do(t, http.MethodPost, trailPath(trail.ElCerritoHillside, "/pins/wildlife"), "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decode[models.PinDetail](t, rec)
	assert.Equal(t, "Wildlife", created.Type)
	assert.Nil(t, created.Hazard)
	assert.Nil(t, created.WrongTurn)
}

func TestRouter_ReportValidation(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, trailPath(trail.BigC, "/pins/hazards"), "", map[string]any{
		"hazardType": "Rockslide",
		"severity":   "Extreme",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	problem := decode[models.Problem](t, rec)
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	fields := make([]string, 0, len(problem.Errors))
	for _, e := range problem.Errors {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "coordinate")
	assert.Contains(t, fields, "description")
	assert.Contains(t, fields, "severity")

	rec = a.do(t, http.MethodPost, trailPath(trail.BigC, "/pins/wildlife"), "", map[string]any{"colour": "brown"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")

	req := httptest.NewRequest(http.MethodPost, trailPath(trail.BigC, "/pins/wildlife"), strings.NewReader("lat=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_DeleteOwnership(t *testing.T) {
	a := newTestAPI(t)
	created := decode[models.PinDetail](t, a.do(t, http.MethodPost, trailPath(trail.BigC, "/pins/hazards"), "ranger_rick", hazardBody()))

	rec := a.do(t, http.MethodDelete, "/v1/pins/"+created.ID, "someone_else", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, models.ProblemTypeForbidden, decode[models.Problem](t, rec).Type)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/v1/pins/"+created.ID, "", nil).Code)

	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, "/v1/pins/"+created.ID, "ranger_rick", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, "/v1/pins/"+created.ID, "ranger_rick", nil).Code)
}

func TestRouter_ModerationUnknownPin(t *testing.T) {
	a := newTestAPI(t)
	for _, path := range []string{"/v1/pins/missing/verify", "/v1/pins/missing/dismiss"} {
		assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, path, "", nil).Code, path)
	}
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	a := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "req_from_client")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req_from_client", rec.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, "/v1/nonexistent", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRouter_PinStream(t *testing.T) {
	a := newTestAPI(t)
	srv := httptest.NewServer(a.handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + trailPath(trail.BigC, "/pins/stream")
	header := http.Header{}
	header.Set(middleware.ActorHeader, "hiker_bob")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var snapshot models.PinSnapshot
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, "snapshot", snapshot.Kind)
	assert.Equal(t, trail.BigC, snapshot.TrailName)
	require.Len(t, snapshot.Items, 1)
	assert.True(t, snapshot.Items[0].CanDelete, "seeded wrong turn belongs to hiker_bob")

	// Mutations on other trails are filtered out.
	other := a.store.PinsForTrail(trail.StrawberryCanyon)[0]
	a.store.VerifyPin(context.Background(), other)
	mine, ok := a.store.PinLocation(snapshot.Items[0].ID)
	require.True(t, ok)
	a.store.VerifyPin(context.Background(), mine)

	var event models.PinEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "pin.verified", event.Kind)
	assert.Equal(t, trail.BigC, event.TrailName)
	require.NotNil(t, event.Pin)
	assert.Equal(t, snapshot.Items[0].ID, event.Pin.ID)
	assert.Equal(t, 1, event.Pin.VerifiedCount)
}

func TestRouter_PinStream_UnknownTrail(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, trailPath("Nowhere", "/pins/stream"), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
