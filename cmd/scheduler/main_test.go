package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/availability-scheduler/internal/config"
)

func testConfig(t *testing.T, backendName string) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		HTTPPort:          0,
		StaticDir:         filepath.Join(dir, "public"),
		LogLevel:          "info",
		LogFormat:         "text",
		FlushDebounce:     10 * time.Millisecond,
		SweepInterval:     time.Minute,
		MaxMembers:        60,
		MaxUnavailable:    5000,
		MaxSpanDays:       21,
		SessionSecret:     "test-secret",
		ResumeTokens:      true,
		PinArgonMemoryKiB: 64,
		PinArgonTime:      1,
		StoreConfig: config.StoreConfig{
			StoreBackend: backendName,
			SnapshotPath: filepath.Join(dir, "rooms.json"),
			SQLiteDSN:    filepath.Join(dir, "rooms.db"),
			BadgerPath:   filepath.Join(dir, "badger"),
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type frame struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// createRoom opens a WebSocket against server and creates a session dated in
// the future, returning the ack data.
func createRoom(t *testing.T, server *httptest.Server) map[string]any {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	start := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")
	end := time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02")
	require.NoError(t, conn.WriteJSON(map[string]any{
		"id":    "1",
		"event": "room:create",
		"payload": map[string]any{
			"title":       "Planning",
			"creatorName": "Alice",
			"pin":         "1234",
			"startDate":   start,
			"endDate":     end,
			"dayStart":    "09:00",
			"dayEnd":      "11:00",
			"slotMinutes": 30,
			"timeZone":    "Europe/Berlin",
		},
	}))

	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type != "ack" {
			continue
		}
		var ack map[string]any
		require.NoError(t, json.Unmarshal(f.Data, &ack))
		return ack
	}
}

func TestAppPersistsAndRestoresRooms(t *testing.T) {
	for _, backendName := range []string{"file", "sqlite", "badger"} {
		t.Run(backendName, func(t *testing.T) {
			cfg := testConfig(t, backendName)

			first, err := newApp(t.Context(), cfg, quietLogger())
			require.NoError(t, err)
			require.NoError(t, first.restore(t.Context()))

			server := httptest.NewServer(first.handler)
			ack := createRoom(t, server)
			server.Close()

			require.Equal(t, true, ack["ok"], "ack: %v", ack)
			assert.NotEmpty(t, ack["resumeToken"])
			code, _ := ack["code"].(string)
			require.Len(t, code, 6)
			require.NoError(t, first.shutdown(t.Context()))

			second, err := newApp(t.Context(), cfg, quietLogger())
			require.NoError(t, err)
			t.Cleanup(func() { _ = second.shutdown(context.Background()) })
			require.NoError(t, second.restore(t.Context()))

			assert.Equal(t, 1, second.service.RoomCount())
			snapshot, ok := second.service.Snapshot(code)
			require.True(t, ok)
			assert.Equal(t, "Planning", snapshot.Title)
			assert.Equal(t, "Europe/Berlin", snapshot.TimeZone)
		})
	}
}

func TestAppHealth(t *testing.T) {
	cfg := testConfig(t, "none")
	cfg.ResumeTokens = false

	a, err := newApp(t.Context(), cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.shutdown(context.Background()) })

	recorder := httptest.NewRecorder()
	a.handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "memory", body["backend"])
	assert.EqualValues(t, 0, body["rooms"])
	assert.EqualValues(t, 0, body["connections"])
}

func TestAppRequiresSecretForResumeTokens(t *testing.T) {
	cfg := testConfig(t, "none")
	cfg.SessionSecret = ""

	_, err := newApp(t.Context(), cfg, quietLogger())
	require.Error(t, err)
}
