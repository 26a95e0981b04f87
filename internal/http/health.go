package http

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/shirou/gopsutil/process"
)

// Counter reports a live quantity such as rooms or connections.
type Counter interface {
	Count() int
}

// CounterFunc adapts a function to Counter.
type CounterFunc func() int

// Count implements Counter.
func (f CounterFunc) Count() int { return f() }

// MemoryProbe returns the resident set size of the process in bytes.
type MemoryProbe func() (uint64, error)

// ProcessRSS reads the RSS of the current process.
func ProcessRSS() (uint64, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}

// HealthConfig wires a HealthHandler.
type HealthConfig struct {
	Rooms       Counter
	Connections Counter
	Backend     string
	Memory      MemoryProbe
	Logger      *slog.Logger
}

// HealthHandler answers liveness probes.
type HealthHandler struct {
	rooms       Counter
	connections Counter
	backend     string
	memory      MemoryProbe
	logger      *slog.Logger
	responder   responder
}

// NewHealthHandler constructs a HealthHandler. Memory defaults to ProcessRSS.
func NewHealthHandler(cfg HealthConfig) *HealthHandler {
	h := &HealthHandler{
		rooms:       cfg.Rooms,
		connections: cfg.Connections,
		backend:     cfg.Backend,
		memory:      cfg.Memory,
		logger:      defaultLogger(cfg.Logger),
	}
	if h.memory == nil {
		h.memory = ProcessRSS
	}
	if h.backend == "" {
		h.backend = "none"
	}
	h.responder = newResponder(h.logger)
	return h
}

type healthResponse struct {
	OK          bool   `json:"ok"`
	Rooms       int    `json:"rooms"`
	Backend     string `json:"backend"`
	Connections int    `json:"connections"`
	RSSBytes    uint64 `json:"rssBytes"`
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.responder.writeJSON(ctx, w, http.StatusOK, h.snapshot(ctx))
}

func (h *HealthHandler) snapshot(ctx context.Context) healthResponse {
	resp := healthResponse{OK: true, Backend: h.backend}
	if h.rooms != nil {
		resp.Rooms = h.rooms.Count()
	}
	if h.connections != nil {
		resp.Connections = h.connections.Count()
	}
	rss, err := h.memory()
	if err != nil {
		handlerLogger(ctx, h.logger, "HealthHandler").DebugContext(ctx, "memory probe failed", "error", err)
	}
	resp.RSSBytes = rss
	return resp
}
