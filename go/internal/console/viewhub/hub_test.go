package viewhub

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash0238/quizmaster/go/internal/console"
	"github.com/yash0238/quizmaster/go/internal/models"
)

type testHub struct {
	hub     *Hub
	server  *httptest.Server
	actions chan console.Action
}

func newTestHub(t *testing.T) *testHub {
	t.Helper()
	actions := make(chan console.Action, 8)
	hub := New(DefaultConfig(), func(a console.Action) { actions <- a })

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Start(ctx)

	server := httptest.NewServer(hub.Handler())
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return &testHub{hub: hub, server: server, actions: actions}
}

func (th *testHub) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(th.server.URL, "http") + "/ws/console"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	return frame.Type, frame.Data
}

func waitForConnections(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.Stats()["total_connections"] == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestViewEndpoint(t *testing.T) {
	th := newTestHub(t)

	resp, err := http.Get(th.server.URL + "/api/console/view")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	th.hub.Publish(console.View{Version: 3, Role: models.RoleTeam, GameID: "g1"})

	resp, err = http.Get(th.server.URL + "/api/console/view")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var v console.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, uint64(3), v.Version)
	assert.Equal(t, models.ID("g1"), v.GameID)
}

func TestHealthAndStats(t *testing.T) {
	th := newTestHub(t)

	resp, err := http.Get(th.server.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	resp, err = http.Get(th.server.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	var stats map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, float64(0), stats["total_connections"])
}

func TestCORSPreflight(t *testing.T) {
	th := newTestHub(t)

	req, err := http.NewRequest(http.MethodOptions, th.server.URL+"/api/console/view", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestPushesViewsAndToasts(t *testing.T) {
	th := newTestHub(t)
	th.hub.Publish(console.View{Version: 1, Role: models.RoleTeam})

	conn := th.dial(t)

	// The cached view arrives first
	typ, data := readFrame(t, conn)
	assert.Equal(t, FrameView, typ)
	var v console.View
	require.NoError(t, json.Unmarshal(data, &v))
	assert.Equal(t, uint64(1), v.Version)

	waitForConnections(t, th.hub, 1)
	th.hub.Publish(console.View{Version: 2, Role: models.RoleTeam})
	typ, data = readFrame(t, conn)
	assert.Equal(t, FrameView, typ)
	require.NoError(t, json.Unmarshal(data, &v))
	assert.Equal(t, uint64(2), v.Version)

	th.hub.Notify(console.Notification{Severity: console.SeveritySuccess, Message: "50-50 lifeline applied!"})
	typ, data = readFrame(t, conn)
	assert.Equal(t, FrameToast, typ)
	var n console.Notification
	require.NoError(t, json.Unmarshal(data, &n))
	assert.Equal(t, "50-50 lifeline applied!", n.Message)
}

func TestDispatchesActions(t *testing.T) {
	th := newTestHub(t)
	conn := th.dial(t)
	waitForConnections(t, th.hub, 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"lifeline","kind":"FIFTY_FIFTY"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`garbage`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"select","option":2}`)))

	select {
	case a := <-th.actions:
		assert.Equal(t, console.ActionLifeline, a.Action)
		assert.Equal(t, models.LifelineFiftyFifty, a.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no action dispatched")
	}

	select {
	case a := <-th.actions:
		assert.Equal(t, console.ActionSelect, a.Action)
		require.NotNil(t, a.Option)
		assert.Equal(t, 2, *a.Option)
	case <-time.After(2 * time.Second):
		t.Fatal("no action dispatched")
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	th := newTestHub(t)
	conn := th.dial(t)
	waitForConnections(t, th.hub, 1)

	conn.Close()
	waitForConnections(t, th.hub, 0)
}

func TestBroadcastRacesUnregister(t *testing.T) {
	hub := New(DefaultConfig(), nil)
	frame := []byte(`{"type":"view","data":{}}`)

	for i := 0; i < 500; i++ {
		conn := &Connection{ID: "c", Send: make(chan []byte, 1), Hub: hub}
		hub.register(conn)

		done := make(chan struct{})
		go func() {
			defer close(done)
			hub.unregister(conn)
		}()
		require.NotPanics(t, func() { hub.handleBroadcast(frame) })
		<-done
	}
	assert.Equal(t, 0, hub.Stats()["total_connections"])
}

func TestClientsLeaveDuringBroadcasts(t *testing.T) {
	th := newTestHub(t)

	stop := make(chan struct{})
	published := make(chan struct{})
	go func() {
		defer close(published)
		for v := uint64(1); ; v++ {
			select {
			case <-stop:
				return
			default:
			}
			th.hub.Publish(console.View{Version: v, Role: models.RoleTeam})
			th.hub.Notify(console.Notification{Severity: console.SeverityInfo, Message: "tick"})
		}
	}()

	url := "ws" + strings.TrimPrefix(th.server.URL, "http") + "/ws/console"
	for i := 0; i < 50; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		conn.Close()
	}
	close(stop)
	<-published

	waitForConnections(t, th.hub, 0)

	// The hub still serves new adapters
	conn := th.dial(t)
	typ, _ := readFrame(t, conn)
	assert.Equal(t, FrameView, typ)
}
