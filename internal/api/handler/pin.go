package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/livehike/livehike/internal/api/middleware"
	"github.com/livehike/livehike/internal/api/models"
	"github.com/livehike/livehike/internal/api/response"
	"github.com/livehike/livehike/internal/pin"
)

// PinHandler handles pin reporting and moderation.
type PinHandler struct {
	store   *pin.Store
	reports *pin.ReportService
	logger  zerolog.Logger
}

// NewPinHandler creates a new PinHandler.
func NewPinHandler(store *pin.Store, reports *pin.ReportService, logger zerolog.Logger) *PinHandler {
	return &PinHandler{store: store, reports: reports, logger: logger}
}

// ReportHazard handles POST /v1/trails/{trailName}/pins/hazards.
func (h *PinHandler) ReportHazard(w http.ResponseWriter, r *http.Request) {
	var input models.HazardReportRequest
	if !response.Decode(w, r, &input) {
		return
	}

	actor := middleware.GetActor(r.Context())
	loc, hazard, err := h.reports.ReportHazard(r.Context(), actor, trailNameParam(r), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, r, "/v1/pins/"+loc.ID, models.PinDetail{
		PinLocation: pin.ToAPIPin(loc, actor),
		Hazard:      pin.ToAPIHazard(hazard),
	})
}

// ReportWrongTurn handles POST /v1/trails/{trailName}/pins/wrong-turns.
func (h *PinHandler) ReportWrongTurn(w http.ResponseWriter, r *http.Request) {
	var input models.WrongTurnReportRequest
	if !response.Decode(w, r, &input) {
		return
	}

	actor := middleware.GetActor(r.Context())
	loc, wrongTurn, err := h.reports.ReportWrongTurn(r.Context(), actor, trailNameParam(r), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, r, "/v1/pins/"+loc.ID, models.PinDetail{
		PinLocation: pin.ToAPIPin(loc, actor),
		WrongTurn:   pin.ToAPIWrongTurn(wrongTurn),
	})
}

// ReportWildlife handles POST /v1/trails/{trailName}/pins/wildlife.
func (h *PinHandler) ReportWildlife(w http.ResponseWriter, r *http.Request) {
	var input models.WildlifeReportRequest
	if !response.Decode(w, r, &input) {
		return
	}

	actor := middleware.GetActor(r.Context())
	loc, err := h.reports.ReportWildlife(r.Context(), actor, trailNameParam(r), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, r, "/v1/pins/"+loc.ID, models.PinDetail{PinLocation: pin.ToAPIPin(loc, actor)})
}

// GetPin handles GET /v1/pins/{pinId} - the pin with its detail record.
func (h *PinHandler) GetPin(w http.ResponseWriter, r *http.Request) {
	p, ok := h.store.PinLocation(chi.URLParam(r, "pinId"))
	if !ok {
		response.NotFound(w, r, "pin not found")
		return
	}

	out := models.PinDetail{PinLocation: pin.ToAPIPin(p, middleware.GetActor(r.Context()))}
	if hazard, ok := h.store.HazardPinDetails(p); ok {
		out.Hazard = pin.ToAPIHazard(hazard)
	}
	if wrongTurn, ok := h.store.WrongTurnPinDetails(p); ok {
		out.WrongTurn = pin.ToAPIWrongTurn(wrongTurn)
	}
	response.JSON(w, r, http.StatusOK, out)
}

// VerifyPin handles POST /v1/pins/{pinId}/verify.
func (h *PinHandler) VerifyPin(w http.ResponseWriter, r *http.Request) {
	p, err := h.reports.Verify(r.Context(), chi.URLParam(r, "pinId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := pin.ToAPIPin(p, middleware.GetActor(r.Context()))
	response.JSON(w, r, http.StatusOK, models.ModerationResult{Pin: &out})
}

// DismissPin handles POST /v1/pins/{pinId}/dismiss. The pin is omitted from
// the result once it has expired.
func (h *PinHandler) DismissPin(w http.ResponseWriter, r *http.Request) {
	p, expired, err := h.reports.Dismiss(r.Context(), chi.URLParam(r, "pinId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result := models.ModerationResult{Expired: expired}
	if !expired {
		out := pin.ToAPIPin(p, middleware.GetActor(r.Context()))
		result.Pin = &out
	}
	response.JSON(w, r, http.StatusOK, result)
}

// DeletePin handles DELETE /v1/pins/{pinId}. Only the creator may delete.
func (h *PinHandler) DeletePin(w http.ResponseWriter, r *http.Request) {
	err := h.reports.Delete(r.Context(), middleware.GetActor(r.Context()), chi.URLParam(r, "pinId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func (h *PinHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *pin.ValidationError

	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, r, "validation failed", validationErr.Errors)
	case errors.Is(err, pin.ErrTrailNotFound):
		response.NotFound(w, r, "trail "+trailNameParam(r)+" not found")
	case errors.Is(err, pin.ErrPinNotFound):
		response.NotFound(w, r, "pin not found")
	case errors.Is(err, pin.ErrNotOwner):
		response.Forbidden(w, r, "only the pin's creator may delete it")
	case errors.Is(err, pin.ErrDuplicatePin):
		response.Conflict(w, r, "pin already exists")
	case errors.Is(err, pin.ErrDetailMismatch):
		response.BadRequest(w, r, err.Error(), nil)
	default:
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("pin operation failed")
		response.InternalError(w, r, "internal server error")
	}
}
