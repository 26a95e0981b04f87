package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/example/availability-scheduler/internal/application"
	"github.com/example/availability-scheduler/internal/logging"
)

// HandlerConfig wires a Handler.
type HandlerConfig struct {
	Hub            *Hub
	Service        Service
	AllowedOrigins []string
	Timeouts       Timeouts
	IDGenerator    func() string
	Logger         *slog.Logger
}

// Handler upgrades HTTP requests to WebSocket connections and serves commands on them.
type Handler struct {
	hub         *Hub
	service     Service
	dispatcher  *Dispatcher
	upgrader    websocket.Upgrader
	timeouts    Timeouts
	idGenerator func() string
	logger      *slog.Logger
}

// NewHandler constructs a Handler. With no allowed origins only same-host
// browsers may connect.
func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{
		hub:         cfg.Hub,
		service:     cfg.Service,
		dispatcher:  NewDispatcher(cfg.Service),
		timeouts:    cfg.Timeouts,
		idGenerator: cfg.IDGenerator,
		logger:      cfg.Logger,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.idGenerator == nil {
		h.idGenerator = uuid.NewString
	}
	if h.timeouts == (Timeouts{}) {
		h.timeouts = DefaultTimeouts
	}
	h.upgrader = websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096}
	if origins := lo.Filter(cfg.AllowedOrigins, func(o string, _ int) bool { return strings.TrimSpace(o) != "" }); len(origins) > 0 {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			return lo.Contains(origins, r.Header.Get("Origin"))
		}
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	connID := h.idGenerator()
	logger := h.logger.With("conn_id", connID, "remote_addr", r.RemoteAddr)
	client := newClient(connID, conn, logger)
	h.hub.register(client)
	logger.Info("connection opened")

	go client.writePump(h.timeouts)
	h.readPump(client, logger)
}

func (h *Handler) readPump(client *Client, logger *slog.Logger) {
	ctx := logging.ContextWithLogger(context.Background(), logger)
	defer func() {
		h.hub.unregister(client.id)
		h.service.Disconnect(ctx, client.id)
		client.close()
		logger.Info("connection closed")
	}()

	client.conn.SetReadLimit(maxMessageBytes)
	_ = client.conn.SetReadDeadline(time.Now().Add(h.timeouts.Pong))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(h.timeouts.Pong))
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.Warn("websocket read error", "error", err)
			}
			return
		}
		_ = client.conn.SetReadDeadline(time.Now().Add(h.timeouts.Pong))
		h.handleFrame(ctx, client.id, raw)
	}
}

func (h *Handler) handleFrame(ctx context.Context, connID string, raw []byte) {
	var frame Inbound
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
		h.hub.ack(connID, frame.ID, frame.Event, ackError(application.ErrInvalidPayload))
		return
	}

	data, err := h.dispatcher.Dispatch(ctx, connID, frame.Event, frame.Payload)
	if err != nil {
		h.hub.ack(connID, frame.ID, frame.Event, ackError(err))
		return
	}
	h.hub.ack(connID, frame.ID, frame.Event, data)
}
