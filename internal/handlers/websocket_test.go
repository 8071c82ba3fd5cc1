package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	plog "github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/services/events"
)

func dialTestClient(t *testing.T, handler *WebSocketHandler) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

// readMessage reads frames until one of the given type arrives or the
// deadline passes.
func readMessage(t *testing.T, conn *websocket.Conn, msgType string) (WSMessage, bool) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return WSMessage{}, false
		}
		if msg.Type == msgType {
			return msg, true
		}
	}
}

func TestWebSocketConnectedMessage(t *testing.T) {
	logger := arbor.NewLogger()
	handler := NewWebSocketHandler(nil, logger, &common.WebSocketConfig{})

	conn := dialTestClient(t, handler)

	msg, ok := readMessage(t, conn, "connected")
	require.True(t, ok, "expected connected message")

	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, handler.serverInstanceID, payload["server_instance_id"])
}

func TestBroadcastLogFanOut(t *testing.T) {
	logger := arbor.NewLogger()
	handler := NewWebSocketHandler(nil, logger, &common.WebSocketConfig{})

	conns := []*websocket.Conn{
		dialTestClient(t, handler),
		dialTestClient(t, handler),
		dialTestClient(t, handler),
	}

	// Wait for all clients to register before broadcasting.
	require.Eventually(t, func() bool {
		return handler.ClientCount() == len(conns)
	}, 2*time.Second, 10*time.Millisecond)

	handler.BroadcastLog(LogEntry{
		Timestamp: "10:30:00",
		Level:     "info",
		Message:   "volume baseline computed",
	})

	for i, conn := range conns {
		msg, ok := readMessage(t, conn, "log")
		require.True(t, ok, "subscriber %d did not receive log", i)

		data, err := json.Marshal(msg.Payload)
		require.NoError(t, err)

		var entry LogEntry
		require.NoError(t, json.Unmarshal(data, &entry))
		assert.Equal(t, "info", entry.Level)
		assert.Equal(t, "volume baseline computed", entry.Message)
	}
}

func TestEventBroadcast(t *testing.T) {
	logger := arbor.NewLogger()
	eventService := events.NewService(logger)
	handler := NewWebSocketHandler(eventService, logger, &common.WebSocketConfig{})

	conn := dialTestClient(t, handler)

	require.Eventually(t, func() bool {
		return handler.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	err := eventService.PublishSync(context.Background(), interfaces.Event{
		Type: interfaces.EventScanProgress,
		Payload: map[string]interface{}{
			"symbol": "BHP",
			"index":  1,
			"total":  3,
		},
	})
	require.NoError(t, err)

	msg, ok := readMessage(t, conn, "scan_progress")
	require.True(t, ok, "expected scan_progress message")

	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "BHP", payload["symbol"])
}

func TestEventWhitelistFiltersBroadcast(t *testing.T) {
	logger := arbor.NewLogger()
	eventService := events.NewService(logger)
	handler := NewWebSocketHandler(eventService, logger, &common.WebSocketConfig{
		AllowedEvents: []string{"scan_completed"},
	})

	conn := dialTestClient(t, handler)

	require.Eventually(t, func() bool {
		return handler.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, eventService.PublishSync(ctx, interfaces.Event{
		Type:    interfaces.EventScanProgress,
		Payload: map[string]interface{}{"symbol": "BHP"},
	}))
	require.NoError(t, eventService.PublishSync(ctx, interfaces.Event{
		Type:    interfaces.EventScanCompleted,
		Payload: map[string]interface{}{"symbols": 3},
	}))

	// Only the whitelisted event should arrive; scan_progress is dropped so
	// the first non-connected frame must be scan_completed.
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg WSMessage
		err := conn.ReadJSON(&msg)
		require.NoError(t, err)

		if msg.Type == "connected" {
			continue
		}
		assert.Equal(t, "scan_completed", msg.Type)
		return
	}
}

func TestLogStreamerFiltersAndBroadcasts(t *testing.T) {
	logger := arbor.NewLogger()
	handler := NewWebSocketHandler(nil, logger, &common.WebSocketConfig{MinLevel: "info"})
	streamer := NewLogStreamer(handler, logger, &common.WebSocketConfig{MinLevel: "info"})
	streamer.Start()
	t.Cleanup(streamer.Stop)

	conn := dialTestClient(t, handler)

	require.Eventually(t, func() bool {
		return handler.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	streamer.Channel() <- []arbormodels.LogEvent{
		{Level: plog.DebugLevel, Message: "below min level", Timestamp: now},
		{Level: plog.InfoLevel, Message: "HTTP request", Timestamp: now},
		{Level: plog.WarnLevel, Message: "quote source failed", Timestamp: now},
	}

	msg, ok := readMessage(t, conn, "log")
	require.True(t, ok, "expected log message")

	data, err := json.Marshal(msg.Payload)
	require.NoError(t, err)

	var entry LogEntry
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "warn", entry.Level)
	assert.Equal(t, "quote source failed", entry.Message)
	assert.Equal(t, "10:30:00", entry.Timestamp)
}

func TestClientCleanupOnDisconnect(t *testing.T) {
	logger := arbor.NewLogger()
	handler := NewWebSocketHandler(nil, logger, &common.WebSocketConfig{})

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return handler.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return handler.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	handler.mu.RLock()
	remainingMutexes := len(handler.clientMutex)
	handler.mu.RUnlock()
	assert.Zero(t, remainingMutexes)
}
