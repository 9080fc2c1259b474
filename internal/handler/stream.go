package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/daily-log/internal/auth"
	"github.com/sakif/daily-log/internal/realtime"
)

// StreamHandler serves the change-notification stream over Server-Sent
// Events.
//
// SSE over a plain http.Flusher is all this needs: events carry no
// payload (the client re-fetches on every "change"), delivery is
// one-directional, and EventSource reconnects by itself. The
// subscription's lifecycle is the request context — when the client
// disconnects or the server shuts down, the hub subscriber is removed
// and nothing is left running for a view that no longer exists.
type StreamHandler struct {
	hub    *realtime.Hub
	logger *slog.Logger
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler(hub *realtime.Hub, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, logger: logger}
}

// heartbeatInterval keeps idle connections alive through proxies that
// time out silent streams.
const heartbeatInterval = 30 * time.Second

// HandleStream subscribes the caller to changes on their own log entries.
//
// HTTP: GET /api/logs/stream  (behind RequireAuth)
//
// Emits one "change" event per notification; the client responds by
// re-fetching its history. The scope is always the session's own userId —
// there is no parameter to watch somebody else's rows.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, unsubscribe := h.hub.Subscribe(userID)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Tell the client it's connected before any change happens.
	fmt.Fprint(w, "event: ready\ndata: {}\n\n")
	flusher.Flush()

	h.logger.Debug("stream opened", slog.String("userID", userID))

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			// Client disconnected (or server shutting down) — the
			// deferred unsubscribe tears the subscription down.
			h.logger.Debug("stream closed", slog.String("userID", userID))
			return

		case _, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprint(w, "event: change\ndata: {}\n\n")
			flusher.Flush()

		case <-heartbeat.C:
			// SSE comment line — ignored by EventSource, keeps the
			// connection from idling out.
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
