package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/availability-scheduler/internal/application"
	"github.com/example/availability-scheduler/internal/auth"
	"github.com/example/availability-scheduler/internal/config"
	httptransport "github.com/example/availability-scheduler/internal/http"
	"github.com/example/availability-scheduler/internal/lifecycle"
	"github.com/example/availability-scheduler/internal/logging"
	"github.com/example/availability-scheduler/internal/persistence"
	"github.com/example/availability-scheduler/internal/persistence/backend"
	"github.com/example/availability-scheduler/internal/realtime"
	"github.com/example/availability-scheduler/internal/slots"
	"github.com/example/availability-scheduler/internal/store/memory"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	logger := logging.New(level, cfg.LogFormat, os.Stdout)
	if err != nil {
		logger.Warn("falling back to info logging", "error", err)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("scheduler stopped with error", "error", err)
		os.Exit(1)
	}
}

// app holds the wired components of one scheduler process.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	store   persistence.SnapshotStore
	outbox  *persistence.Outbox
	hub     *realtime.Hub
	service *application.RoomService
	sweeper *lifecycle.Sweeper
	handler http.Handler
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	store, err := backend.Open(ctx, backend.Settings{
		Backend:       cfg.StoreBackend,
		SnapshotPath:  cfg.SnapshotPath,
		SQLiteDSN:     cfg.SQLiteDSN,
		PostgresDSN:   cfg.PostgresDSN,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		BadgerPath:    cfg.BadgerPath,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}

	var tokens application.TokenIssuer
	if cfg.ResumeTokens {
		manager, err := auth.NewTokenManager([]byte(cfg.SessionSecret), time.Now)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		tokens = manager
	}

	a := &app{cfg: cfg, logger: logger, store: store}
	a.hub = realtime.NewHub(logger)
	a.outbox = persistence.NewOutbox(store, persistence.SourceFunc(func(code string) (persistence.RoomSnapshot, bool) {
		return a.service.Snapshot(code)
	}), cfg.FlushDebounce, logger)

	hasher := application.NewPinHasher(application.Argon2idParams{
		Memory:     cfg.PinArgonMemoryKiB,
		Iterations: cfg.PinArgonTime,
	})
	a.service = application.NewRoomService(application.RoomServiceConfig{
		Store:          memory.New(),
		Changes:        a.outbox,
		Publisher:      a.hub,
		Tokens:         tokens,
		Hasher:         &hasher,
		Slots:          slots.NewEngine(cfg.MaxSpanDays),
		MaxMembers:     cfg.MaxMembers,
		MaxUnavailable: cfg.MaxUnavailable,
		Logger:         logger,
	})
	a.sweeper = lifecycle.NewSweeper(a.service, cfg.SweepInterval, logger)

	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Health: httptransport.NewHealthHandler(httptransport.HealthConfig{
			Rooms:       httptransport.CounterFunc(a.service.RoomCount),
			Connections: a.hub,
			Backend:     store.Name(),
			Logger:      logger,
		}),
		Realtime: realtime.NewHandler(realtime.HandlerConfig{
			Hub:            a.hub,
			Service:        a.service,
			AllowedOrigins: cfg.AllowedOrigins,
			Logger:         logger,
		}),
		StaticDir: cfg.StaticDir,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.Recoverer(logger),
			httptransport.RequestLogger(logger),
		},
	})
	return a, nil
}

// restore loads persisted rooms and drops any that expired while the process was down.
func (a *app) restore(ctx context.Context) error {
	snapshots, err := a.store.Load(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("load snapshots: %w", err)
	}
	if _, err := a.service.Restore(ctx, snapshots); err != nil {
		return err
	}
	a.service.SweepExpired(ctx)
	return nil
}

// shutdown flushes pending snapshots and releases the store.
func (a *app) shutdown(ctx context.Context) error {
	flushErr := a.outbox.Flush(ctx)
	a.outbox.Close()
	closeErr := a.store.Close()
	return errors.Join(flushErr, closeErr)
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := a.restore(ctx); err != nil {
		_ = a.store.Close()
		return err
	}
	logger.Info("rooms restored", "rooms", a.service.RoomCount(), "backend", a.store.Name())

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go a.sweeper.Run(sweepCtx)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("scheduler listening", "addr", server.Addr)
	serveErr := server.ListenAndServe()
	if errors.Is(serveErr, http.ErrServerClosed) {
		serveErr = nil
	}

	stopSweeper()
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.shutdown(flushCtx); err != nil {
		logger.Error("failed to flush snapshots on shutdown", "error", err)
	}
	return serveErr
}
