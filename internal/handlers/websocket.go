package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// broadcastEvents is the set of event types relayed to WebSocket clients.
var broadcastEvents = []interfaces.EventType{
	interfaces.EventAnalysisStarted,
	interfaces.EventAnalysisStep,
	interfaces.EventAnalysisCompleted,
	interfaces.EventAnalysisFailed,
	interfaces.EventScanStarted,
	interfaces.EventScanProgress,
	interfaces.EventScanCompleted,
}

// WSMessage is the wire format for all WebSocket messages.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// LogEntry is a single log line streamed to clients.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// WebSocketHandler streams analysis events, scan progress and log lines to
// connected clients.
type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]bool
	clientMutex      map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	eventService     interfaces.EventService
	allowedEvents    map[string]bool               // Whitelist of events to broadcast (empty = allow all)
	throttlers       map[string]*rate.Limiter      // Per-event rate limiters from config
	serverInstanceID string                        // Unique ID generated on startup - clients use to detect server restart
}

func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		eventService:     eventService,
		allowedEvents:    make(map[string]bool),
		throttlers:       make(map[string]*rate.Limiter),
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized")

	if config != nil && len(config.AllowedEvents) > 0 {
		for _, eventType := range config.AllowedEvents {
			h.allowedEvents[eventType] = true
		}
		logger.Debug().
			Int("allowed_events", len(h.allowedEvents)).
			Msg("Initialized event whitelist for WebSocketHandler")
	}

	// Nil throttler for an event type means no throttling.
	if config != nil {
		for eventType, intervalStr := range config.ThrottleIntervals {
			duration, err := time.ParseDuration(intervalStr)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("event_type", eventType).
					Str("interval", intervalStr).
					Msg("Failed to parse throttle interval, throttler disabled")
				continue
			}
			h.throttlers[eventType] = rate.NewLimiter(rate.Every(duration), 1)
			logger.Debug().
				Str("event_type", eventType).
				Str("interval", intervalStr).
				Msg("Throttler initialized")
		}
	}

	if eventService != nil {
		h.subscribeToEvents()
	}

	return h
}

// subscribeToEvents relays pipeline and scan events to connected clients. The
// message type on the wire matches the event type string.
func (h *WebSocketHandler) subscribeToEvents() {
	for _, eventType := range broadcastEvents {
		name := string(eventType)
		h.eventService.Subscribe(eventType, func(ctx context.Context, event interfaces.Event) error {
			if len(h.allowedEvents) > 0 && !h.allowedEvents[name] {
				return nil
			}
			if throttler, ok := h.throttlers[name]; ok && throttler != nil && !throttler.Allow() {
				return nil
			}

			h.broadcast(WSMessage{
				Type:    name,
				Payload: event.Payload,
			})
			return nil
		})
	}
}

// HandleWebSocket upgrades the connection and holds it open until the client
// disconnects.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	h.sendConnected(conn)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	// Read messages from client (keep connection alive)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// sendConnected tells a new client which server instance it is talking to so
// it can reset state after a restart.
func (h *WebSocketHandler) sendConnected(conn *websocket.Conn) {
	msg := WSMessage{
		Type: "connected",
		Payload: map[string]interface{}{
			"server_instance_id": h.serverInstanceID,
			"timestamp":          time.Now().Format(time.RFC3339),
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal connected message")
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()

	if mutex != nil {
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to send connected message")
		}
	}
}

// BroadcastLog streams a log line to all connected clients. Called by the
// arbor WebSocket writer, so it must never log through arbor itself.
func (h *WebSocketHandler) BroadcastLog(entry LogEntry) {
	h.broadcastSilent(WSMessage{
		Type:    "log",
		Payload: entry,
	})
}

// broadcast marshals msg and writes it to every connected client.
func (h *WebSocketHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal WebSocket message")
		return
	}
	h.writeToAll(data, msg.Type, true)
}

// broadcastSilent is broadcast without logging. Logging here would feed the
// log writer, which calls back into this method, creating an infinite loop.
func (h *WebSocketHandler) broadcastSilent(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.writeToAll(data, msg.Type, false)
}

func (h *WebSocketHandler) writeToAll(data []byte, msgType string, logFailures bool) {
	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil && logFailures {
			h.logger.Warn().Err(err).Str("type", msgType).Msg("Failed to send message to client")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
