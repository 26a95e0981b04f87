package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("attaches request id and logger to the context", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		var gotID string
		var gotLogger bool
		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID, _ = RequestIDFromContext(r.Context())
			gotLogger = LoggerFromContext(r.Context()) != nil
			w.WriteHeader(http.StatusNoContent)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

		if gotID == "" {
			t.Fatal("expected request id in context")
		}
		if !gotLogger {
			t.Fatal("expected logger in context")
		}
		out := buf.String()
		if !strings.Contains(out, `"request_id":"`+gotID+`"`) || !strings.Contains(out, `"path":"/health"`) {
			t.Fatalf("completion log missing request attributes: %s", out)
		}
	})

	t.Run("assigns distinct ids", func(t *testing.T) {
		t.Parallel()

		var ids []string
		handler := RequestLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := RequestIDFromContext(r.Context())
			ids = append(ids, id)
		}))

		for range 2 {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		}
		if len(ids) != 2 || ids[0] == ids[1] {
			t.Fatalf("expected two distinct ids, got %v", ids)
		}
	})
}

func TestRecovererReturns500(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := Recoverer(slog.New(slog.NewTextHandler(&buf, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"ok":false`) {
		t.Fatalf("unexpected body: %s", recorder.Body.String())
	}
	if !strings.Contains(buf.String(), "handler panicked") {
		t.Fatalf("expected panic to be logged, got %s", buf.String())
	}
}
