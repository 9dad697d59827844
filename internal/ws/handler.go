package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"solar-dispatch/internal/config"
	"solar-dispatch/internal/model"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RunSource resolves a run request into samples and a battery. The API
// layer implements this against its dataset directory and presets.
type RunSource interface {
	ResolveRun(dataset string, batteryID string, battery config.BatteryConfig) ([]model.TimeSeriesSample, *model.Battery, error)
}

// Handler manages WebSocket connections and routes control messages to
// the runner.
type Handler struct {
	hub    *Hub
	runner *Runner
	source RunSource
	log    *slog.Logger
}

func NewHandler(hub *Hub, runner *Runner, source RunSource, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{hub: hub, runner: runner, source: source, log: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendState(client)
	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read error", "error", err)
			}
			return
		}
		h.handleMessage(msg)
	}
}

func (h *Handler) handleMessage(msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		h.log.Warn("invalid message", "error", err)
		return
	}

	switch env.Type {
	case TypeRunStart:
		var p RunStartPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.log.Warn("invalid run:start payload", "error", err)
			return
		}
		h.startRun(p)

	case TypeRunPause:
		h.runner.Pause()

	case TypeRunResume:
		h.runner.Resume()

	default:
		h.log.Warn("unknown message type", "type", env.Type)
	}
}

func (h *Handler) startRun(p RunStartPayload) {
	samples, batt, err := h.source.ResolveRun(p.Dataset, p.BatteryID, p.Battery)
	if err != nil {
		h.broadcastError(err)
		return
	}
	delay := time.Duration(p.StepDelayMs) * time.Millisecond
	if err := h.runner.Start(samples, batt, delay); err != nil {
		h.broadcastError(err)
	}
}

func (h *Handler) broadcastError(err error) {
	msg, encErr := NewEnvelope(TypeRunError, RunErrorPayload{Message: err.Error()})
	if encErr != nil {
		return
	}
	h.hub.Broadcast(msg)
}

func (h *Handler) sendState(c *Client) {
	msg, err := NewEnvelope(TypeRunState, RunStatePayload{
		Running: h.runner.Running(),
		Paused:  false,
	})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
