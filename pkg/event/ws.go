package event

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/choraleia/filebrowser/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsPingInterval = 30 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 5 * time.Second
	wsSendBuffer   = 64
)

// WSMessage is the JSON message sent over WebSocket.
type WSMessage struct {
	Event string         `json:"event"`          // Event name (e.g., "menu.navigate")
	Data  map[string]any `json:"data,omitempty"` // Event fields
	TS    int64          `json:"ts"`             // Timestamp (Unix ms)
}

// WSHandler streams emitter events to WebSocket clients.
type WSHandler struct {
	emitter  *Emitter
	upgrader websocket.Upgrader
}

// NewWSHandler creates a WebSocket handler bound to emitter.
func NewWSHandler(emitter *Emitter) *WSHandler {
	if emitter == nil {
		emitter = Global()
	}
	return &WSHandler{
		emitter: emitter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle is the Gin handler for WebSocket connections.
// Query params:
//   - events: comma-separated event names to subscribe (empty = all)
//   - session: only forward events whose session_id matches (empty = all)
//
// Example: /api/events/ws?events=menu.navigate,menu.rename&session=<id>
func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	filter := newWSFilter(c.Query("events"), c.Query("session"))
	logger := utils.GetLogger()

	sendCh := make(chan WSMessage, wsSendBuffer)
	done := make(chan struct{})

	unsubscribe := h.emitter.OnAny(func(ev Event) {
		data := eventToData(ev)
		if !filter.match(ev.EventName(), data) {
			return
		}
		msg := WSMessage{Event: ev.EventName(), Data: data, TS: time.Now().UnixMilli()}
		select {
		case sendCh <- msg:
		default:
			logger.Warn("dropped websocket event, buffer full", "event", ev.EventName())
		}
	})
	defer unsubscribe()

	// Reader goroutine keeps the connection alive and notices disconnects.
	go func() {
		defer close(done)
		conn.SetReadLimit(4096)
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	// Only this loop writes to conn.
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-done:
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msg := <-sendCh:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

type wsFilter struct {
	events    map[string]bool
	sessionID string
}

func newWSFilter(events, sessionID string) wsFilter {
	f := wsFilter{sessionID: strings.TrimSpace(sessionID)}
	if events != "" {
		f.events = make(map[string]bool)
		for _, e := range strings.Split(events, ",") {
			if e = strings.TrimSpace(e); e != "" {
				f.events[e] = true
			}
		}
	}
	return f
}

func (f wsFilter) match(name string, data map[string]any) bool {
	if f.events != nil && !f.events[name] {
		return false
	}
	if f.sessionID == "" {
		return true
	}
	sid, ok := data["session_id"].(string)
	// Events without a session (e.g. bookmarks) reach every client.
	return !ok || sid == f.sessionID
}

// eventToData converts an Event to a map for JSON serialization.
func eventToData(ev Event) map[string]any {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}
