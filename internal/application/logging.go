package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/availability-scheduler/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps command and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrWrongPin):
		return "unauthorized"
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrMemberNotFound), errors.Is(err, ErrTargetNotFound):
		return "not_found"
	case errors.Is(err, ErrNameTaken):
		return "conflict"
	case errors.Is(err, ErrRoomFull):
		return "capacity"
	case errors.Is(err, ErrCannotKickOwner):
		return "forbidden"
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr != ErrInternal {
		return "validation"
	}

	return "unexpected"
}

// logOutcome records how a command ended. Expected client errors log at warn
// so they do not drown real failures.
func logOutcome(ctx context.Context, logger *slog.Logger, err error, failure, success string, attrs ...any) {
	if err == nil {
		logger.InfoContext(ctx, success, attrs...)
		return
	}
	level := slog.LevelWarn
	if ErrorKind(err) == "unexpected" {
		level = slog.LevelError
	}
	logger.Log(ctx, level, failure, append([]any{"error", err, "error_kind", ErrorKind(err)}, attrs...)...)
}
