package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/availability-scheduler/internal/application"
	"github.com/example/availability-scheduler/internal/testfixtures"
)

type wireFrame struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type liveServer struct {
	server *httptest.Server
	hub    *Hub
	svc    *application.RoomService
}

func newLiveServer(t *testing.T, origins ...string) *liveServer {
	t.Helper()

	hub := NewHub(discardLogger())
	svc := testfixtures.NewServiceFactory().NewRoomService(testfixtures.RoomServiceDeps{Publisher: hub})
	handler := NewHandler(HandlerConfig{
		Hub:            hub,
		Service:        svc,
		AllowedOrigins: origins,
		IDGenerator:    testfixtures.NewIDGenerator("conn").Next,
		Logger:         discardLogger(),
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &liveServer{server: server, hub: hub, svc: svc}
}

func (s *liveServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, id, event string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Inbound{ID: id, Event: event, Payload: raw}))
}

func read(t *testing.T, conn *websocket.Conn) wireFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame wireFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func createPayloadFixture() createPayload {
	p := testfixtures.NewCreateParams()
	return createPayload{
		Title:       p.Title,
		CreatorName: p.CreatorName,
		PIN:         p.PIN,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		DayStart:    p.DayStart,
		DayEnd:      p.DayEnd,
		SlotMinutes: p.SlotMinutes,
		TimeZone:    p.TimeZone,
	}
}

func TestHandlerCreateDeliversStateBeforeAck(t *testing.T) {
	live := newLiveServer(t)
	conn := live.dial(t)

	send(t, conn, "1", EventCreate, createPayloadFixture())

	push := read(t, conn)
	assert.Equal(t, FrameEvent, push.Type)
	assert.Equal(t, application.EventRoomState, push.Event)

	var view application.RoomView
	require.NoError(t, json.Unmarshal(push.Data, &view))
	assert.Len(t, view.Slots, 9)
	assert.True(t, view.IsHost)

	ack := read(t, conn)
	assert.Equal(t, FrameAck, ack.Type)
	assert.Equal(t, "1", ack.ID)
	assert.Equal(t, EventCreate, ack.Event)

	var created createAck
	require.NoError(t, json.Unmarshal(ack.Data, &created))
	assert.True(t, created.OK)
	assert.Equal(t, "100001", created.Code)
	assert.Equal(t, 1, live.svc.RoomCount())
}

func TestHandlerBroadcastsToOtherMembers(t *testing.T) {
	live := newLiveServer(t)
	host := live.dial(t)
	guest := live.dial(t)

	send(t, host, "1", EventCreate, createPayloadFixture())
	read(t, host)
	read(t, host)

	send(t, guest, "1", EventEnter, enterPayload{Code: "100001", Name: "Bob", PIN: "0000"})
	guestPush := read(t, guest)
	assert.Equal(t, application.EventRoomState, guestPush.Event)
	guestAck := read(t, guest)
	var entered enterAck
	require.NoError(t, json.Unmarshal(guestAck.Data, &entered))
	assert.True(t, entered.OK)
	assert.False(t, entered.IsHost)

	hostPush := read(t, host)
	var view application.RoomView
	require.NoError(t, json.Unmarshal(hostPush.Data, &view))
	assert.Equal(t, 2, view.MemberCount)
}

func TestHandlerAcksErrors(t *testing.T) {
	live := newLiveServer(t)
	conn := live.dial(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	ack := read(t, conn)
	var failure AckError
	require.NoError(t, json.Unmarshal(ack.Data, &failure))
	assert.False(t, failure.OK)
	assert.Equal(t, "InvalidPayload", failure.Code)

	send(t, conn, "7", EventEnter, enterPayload{Code: "999999", Name: "Bob", PIN: "0000"})
	ack = read(t, conn)
	assert.Equal(t, "7", ack.ID)
	require.NoError(t, json.Unmarshal(ack.Data, &failure))
	assert.Equal(t, "RoomNotFound", failure.Code)
}

func TestHandlerDisconnectReleasesConnection(t *testing.T) {
	live := newLiveServer(t)
	conn := live.dial(t)

	send(t, conn, "1", EventCreate, createPayloadFixture())
	read(t, conn)
	read(t, conn)
	require.Equal(t, 1, live.svc.Sessions())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return live.hub.Count() == 0 && live.svc.Sessions() == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, live.svc.RoomCount(), "rooms outlive their connections")
}

func TestHandlerSendsCloseFrameWhenClosingConnection(t *testing.T) {
	live := newLiveServer(t)
	conn := live.dial(t)

	require.Eventually(t, func() bool { return live.hub.Count() == 1 }, 5*time.Second, 10*time.Millisecond)
	live.hub.mu.RLock()
	client := live.hub.clients["conn-1"]
	live.hub.mu.RUnlock()
	require.NotNil(t, client)

	client.close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "expected a normal close frame, got %v", err)
	require.Eventually(t, func() bool { return live.hub.Count() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestHandlerRejectsForeignOrigins(t *testing.T) {
	live := newLiveServer(t, "https://scheduler.example")
	url := "ws" + strings.TrimPrefix(live.server.URL, "http")

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://scheduler.example")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = conn.Close()
}
