// Package handler provides HTTP handlers for the LiveHike API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/livehike/livehike/internal/api/models"
	"github.com/livehike/livehike/internal/api/response"
	"github.com/livehike/livehike/internal/blob"
	"github.com/livehike/livehike/internal/pin"
)

// ReadinessTimeout bounds the backend ping in readiness checks.
const ReadinessTimeout = 2 * time.Second

// HealthReporter is implemented by backends guarded by a circuit breaker.
type HealthReporter interface {
	Health() blob.Health
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	backend   string
	store     *pin.Store
	blobs     blob.Store
}

// OpsConfig holds the dependencies of OpsHandler.
type OpsConfig struct {
	Version   string
	BuildTime string
	Backend   string
	Store     *pin.Store
	Blobs     blob.Store
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		backend:   cfg.Backend,
		store:     cfg.Store,
		blobs:     cfg.Blobs,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. It fails while the blob backend
// is unreachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), ReadinessTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		response.ServiceUnavailable(w, r, "blob backend unavailable: "+err.Error())
		return
	}

	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	})
}

// SystemStatus handles GET /v1/ops/status - backend and store status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), ReadinessTimeout)
	defer cancel()

	backend := models.SubsystemStatus{Name: "blob-" + h.backend, Status: models.HealthStatusOK}
	if err := h.store.Ping(ctx); err != nil {
		detail := err.Error()
		backend.Status = models.HealthStatusFail
		backend.Detail = &detail
	}
	if reporter, ok := h.blobs.(HealthReporter); ok {
		health := reporter.Health()
		if !health.Healthy() && backend.Status == models.HealthStatusOK {
			backend.Status = models.HealthStatusDegraded
		}
		if health.LastFailureAt != nil {
			ts := models.Timestamp(*health.LastFailureAt)
			backend.LastFailureAt = &ts
		}
		if backend.Detail == nil && health.LastError != "" {
			detail := "circuit " + health.State.String() + ": " + health.LastError
			backend.Detail = &detail
		}
	}

	snap := h.store.Snapshot()
	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:     backend.Status,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{backend},
		Store: models.StoreStats{
			Trails:        len(snap.Trails),
			PinLocations:  len(snap.PinLocations),
			HazardPins:    len(snap.HazardPins),
			WrongTurnPins: len(snap.WrongTurnPins),
			Subscribers:   h.store.Subscribers(),
		},
	})
}
