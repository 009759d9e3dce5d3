package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Jessiellen/shareup-app/internal/events"
)

const (
	eventsWriteWait  = 10 * time.Second
	eventsPongWait   = 60 * time.Second
	eventsPingPeriod = (eventsPongWait * 9) / 10
)

type eventSubscriber interface {
	Subscribe(ctx context.Context, userID string) (*events.Subscription, error)
}

// EventsHandler streams the caller's events over a websocket.
type EventsHandler struct {
	bus      eventSubscriber
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewEventsHandler(bus eventSubscriber, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		newResponder(h.logger).writeError(r.Context(), w, http.StatusUnauthorized, errMissingToken)
		return
	}
	logger := handlerLogger(r.Context(), h.logger, "EventsHandler", "Stream", "user_id", principal.UserID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := h.bus.Subscribe(ctx, principal.UserID)
	if err != nil {
		logger.ErrorContext(ctx, "subscribe failed", "error", err)
		newResponder(h.logger).writeError(r.Context(), w, http.StatusServiceUnavailable, err)
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logger.WarnContext(ctx, "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	logger.InfoContext(ctx, "event stream opened")

	go h.readLoop(conn, cancel)

	ticker := time.NewTicker(eventsPingPeriod)
	defer ticker.Stop()

	errs := sub.Errors()

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "event stream closed")
			return
		case event, ok := <-sub.Events():
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				logger.WarnContext(ctx, "event write failed", "error", err)
				return
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.WarnContext(ctx, "event stream error", "error", err)
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so pongs and close frames are processed.
func (h *EventsHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("event stream read failed", "error", err)
			}
			return
		}
	}
}
