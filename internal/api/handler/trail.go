package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/livehike/livehike/internal/api/middleware"
	"github.com/livehike/livehike/internal/api/models"
	"github.com/livehike/livehike/internal/api/response"
	"github.com/livehike/livehike/internal/geo"
	"github.com/livehike/livehike/internal/pin"
	"github.com/livehike/livehike/internal/trail"
)

// TrailHandler serves the trail catalog and per-trail pin lists.
type TrailHandler struct {
	store *pin.Store
}

// NewTrailHandler creates a new TrailHandler.
func NewTrailHandler(store *pin.Store) *TrailHandler {
	return &TrailHandler{store: store}
}

// ListTrails handles GET /v1/trails?q= - search by name or location.
func (h *TrailHandler) ListTrails(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	trails := h.store.SearchTrails(query)

	out := models.TrailList{Items: make([]models.Trail, 0, len(trails)), Query: query}
	for _, t := range trails {
		out.Items = append(out.Items, toAPITrail(t))
	}
	response.JSON(w, r, http.StatusOK, out)
}

// GetTrail handles GET /v1/trails/{trailName}.
func (h *TrailHandler) GetTrail(w http.ResponseWriter, r *http.Request) {
	t, ok := h.trail(w, r)
	if !ok {
		return
	}

	points := make([]models.Point, 0, len(t.Coordinates))
	for _, p := range t.Coordinates {
		points = append(points, toAPIPoint(p))
	}

	response.JSON(w, r, http.StatusOK, models.TrailDetail{
		Trail:             toAPITrail(t),
		Coordinates:       points,
		Polyline:          trail.EncodedPolyline(t),
		RouteLengthMeters: trail.RouteLengthMeters(t),
		Region:            toAPIRegion(h.store.TrailRegion(t)),
	})
}

// GetRegion handles GET /v1/trails/{trailName}/region.
func (h *TrailHandler) GetRegion(w http.ResponseWriter, r *http.Request) {
	t, ok := h.trail(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, toAPIRegion(h.store.TrailRegion(t)))
}

// ListPins handles GET /v1/trails/{trailName}/pins.
func (h *TrailHandler) ListPins(w http.ResponseWriter, r *http.Request) {
	t, ok := h.trail(w, r)
	if !ok {
		return
	}

	actor := middleware.GetActor(r.Context())
	pins := h.store.PinsForTrail(t.Name)

	out := models.PinList{TrailName: t.Name, Items: make([]models.PinLocation, 0, len(pins))}
	for _, p := range pins {
		out.Items = append(out.Items, pin.ToAPIPin(p, actor))
	}
	response.JSON(w, r, http.StatusOK, out)
}

// trail resolves the {trailName} parameter, writing a 404 when unknown.
func (h *TrailHandler) trail(w http.ResponseWriter, r *http.Request) (trail.Trail, bool) {
	name := trailNameParam(r)
	t, ok := h.store.TrailByName(name)
	if !ok {
		response.NotFound(w, r, "trail "+name+" not found")
		return trail.Trail{}, false
	}
	return t, true
}

func trailNameParam(r *http.Request) string {
	raw := chi.URLParam(r, "trailName")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

func toAPITrail(t trail.Trail) models.Trail {
	return models.Trail{
		ID:            t.ID,
		Name:          t.Name,
		Location:      t.Location,
		Difficulty:    t.Difficulty,
		Length:        t.Length,
		ElevationGain: t.ElevationGain,
	}
}

func toAPIPoint(p geo.Point) models.Point {
	return models.Point{Lat: p.Lat, Lon: p.Lon}
}

func toAPIRegion(region geo.Region) models.Region {
	return models.Region{
		Center: toAPIPoint(region.Center),
		Span:   models.Span{LatDelta: region.Span.LatDelta, LonDelta: region.Span.LonDelta},
	}
}
