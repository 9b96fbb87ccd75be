package services

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*WebSocketHub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewWebSocketHub(quietLogger())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	router := gin.New()
	router.GET("/ws", hub.HandleWebSocket)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestWebSocketHub_BroadcastsEvents(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)

	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(EventSimulationProgress, "run-1", ProgressUpdate{Done: 10, Total: 100})

	ev := readEvent(t, conn)
	assert.Equal(t, EventSimulationProgress, ev.Type)
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, map[string]interface{}{"done": float64(10), "total": float64(100)}, ev.Data)
}

func TestWebSocketHub_FiltersByRun(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url+"?run_id=run-2")

	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(EventSimulationProgress, "run-1", ProgressUpdate{Done: 1, Total: 2})
	hub.Publish(EventSimulationComplete, "run-2", map[string]string{"status": "done"})

	ev := readEvent(t, conn)
	assert.Equal(t, EventSimulationComplete, ev.Type)
	assert.Equal(t, "run-2", ev.RunID)
}

func TestWebSocketHub_Unregisters(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)

	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	conn.Close()
	assert.Eventually(t, func() bool { return hub.GetConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketHub_ShutdownSendsCloseFrame(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewWebSocketHub(quietLogger())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", hub.HandleWebSocket)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived), "got %v", err)
	assert.Equal(t, 0, hub.GetConnectionCount())
}
