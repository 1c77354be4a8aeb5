package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/livehike/livehike/internal/api/middleware"
	"github.com/livehike/livehike/internal/api/models"
	"github.com/livehike/livehike/internal/api/response"
	"github.com/livehike/livehike/internal/pin"
	"github.com/livehike/livehike/internal/trail"
)

// Stream defaults.
const (
	DefaultPingInterval = 30 * time.Second
	streamWriteWait     = 10 * time.Second
	streamBuffer        = 64
	snapshotKind        = "snapshot"
)

// StreamConfig holds the dependencies of StreamHandler.
type StreamConfig struct {
	Store   *pin.Store
	Metrics *middleware.Metrics
	Logger  zerolog.Logger

	// PingInterval is the keepalive period. The peer must answer within
	// twice this interval. Default: 30 seconds.
	PingInterval time.Duration
}

// StreamHandler pushes pin events for one trail over a websocket.
type StreamHandler struct {
	store        *pin.Store
	metrics      *middleware.Metrics
	logger       zerolog.Logger
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(cfg StreamConfig) *StreamHandler {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	return &StreamHandler{
		store:        cfg.Store,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger.With().Str("component", "pin_stream").Logger(),
		pingInterval: cfg.PingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Native clients send no Origin; browsers are not a supported client.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Stream handles GET /v1/trails/{trailName}/pins/stream. The first message is
// a snapshot of the trail's pins; each later message is a models.PinEvent.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	name := trailNameParam(r)
	t, ok := h.store.TrailByName(name)
	if !ok {
		response.NotFound(w, r, "trail "+name+" not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	actor := middleware.GetActor(r.Context())
	logger := h.logger.With().Str("trail", t.Name).Str("actor", actor).Logger()

	// A hijacked request's context is not cancelled on disconnect; the read
	// loop cancels instead. Server shutdown still reaches it through the
	// server's base context.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	release := h.metrics.TrackStream(ctx, t.Name)
	defer release()

	// Subscribe before the snapshot so no mutation falls between them.
	events := h.store.Subscribe(ctx, streamBuffer)

	go h.readLoop(conn, cancel)

	if err := h.write(conn, h.snapshot(t, actor)); err != nil {
		return
	}
	logger.Info().Msg("stream opened")

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("stream closed")
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if !trail.MatchesName(t, e.TrailName) {
				continue
			}
			if err := h.write(conn, pin.ToAPIEvent(e, actor)); err != nil {
				logger.Debug().Err(err).Msg("stream write failed")
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(streamWriteWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				logger.Debug().Err(err).Msg("stream ping failed")
				return
			}
		}
	}
}

func (h *StreamHandler) snapshot(t trail.Trail, actor string) models.PinSnapshot {
	pins := h.store.PinsForTrail(t.Name)
	out := models.PinSnapshot{
		Kind:      snapshotKind,
		At:        models.Timestamp(time.Now()),
		TrailName: t.Name,
		Items:     make([]models.PinLocation, 0, len(pins)),
	}
	for _, p := range pins {
		out.Items = append(out.Items, pin.ToAPIPin(p, actor))
	}
	return out
}

func (h *StreamHandler) write(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

// readLoop discards client messages and keeps the read deadline fresh on
// pongs. It cancels the stream when the peer goes away.
func (h *StreamHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	pongWait := 2 * h.pingInterval
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	conn.SetReadLimit(512)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
