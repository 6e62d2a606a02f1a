package event

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestEmitter_OnAndUnsubscribe(t *testing.T) {
	e := NewEmitter()

	var specific, wildcard int
	off := e.On(MenuRename, func(Event) { specific++ })
	offAll := e.OnAny(func(Event) { wildcard++ })

	e.Emit(MenuRenameEvent{SessionID: "s1", Name: "a.txt"})
	e.Emit(MenuDeleteEvent{SessionID: "s1", Name: "a.txt"})

	if specific != 1 {
		t.Fatalf("specific listener calls = %d, want 1", specific)
	}
	if wildcard != 2 {
		t.Fatalf("wildcard listener calls = %d, want 2", wildcard)
	}

	off()
	offAll()
	e.Emit(MenuRenameEvent{SessionID: "s1", Name: "a.txt"})
	if specific != 1 || wildcard != 2 {
		t.Fatalf("listeners still called after unsubscribe: specific=%d wildcard=%d", specific, wildcard)
	}
}

func TestEmitter_UnsubscribeKeepsOthers(t *testing.T) {
	e := NewEmitter()

	var a, b int
	offA := e.On(FSDeleted, func(Event) { a++ })
	e.On(FSDeleted, func(Event) { b++ })

	offA()
	e.Emit(FSDeletedEvent{Path: "/x"})

	if a != 0 || b != 1 {
		t.Fatalf("a=%d b=%d, want a=0 b=1", a, b)
	}
}

func TestWSFilter(t *testing.T) {
	tests := []struct {
		name    string
		events  string
		session string
		event   Event
		want    bool
	}{
		{"no filter", "", "", MenuNavigateEvent{SessionID: "s1"}, true},
		{"event listed", "menu.navigate, menu.rename", "", MenuNavigateEvent{SessionID: "s1"}, true},
		{"event not listed", "menu.rename", "", MenuNavigateEvent{SessionID: "s1"}, false},
		{"session match", "", "s1", MenuDeleteEvent{SessionID: "s1"}, true},
		{"session mismatch", "", "s2", MenuDeleteEvent{SessionID: "s1"}, false},
		{"sessionless event", "", "s2", BookmarksChangedEvent{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWSFilter(tt.events, tt.session)
			if got := f.match(tt.event.EventName(), eventToData(tt.event)); got != tt.want {
				t.Fatalf("match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWSHandler_ForwardsEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	emitter := NewEmitter()
	engine := gin.New()
	engine.GET("/ws", NewWSHandler(emitter).Handle)

	srv := httptest.NewServer(engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session=s1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The handler subscribes after the upgrade; retry until the message shows up.
	deadline := time.Now().Add(2 * time.Second)
	received := make(chan WSMessage, 1)
	go func() {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err == nil {
			received <- msg
		}
	}()
	for {
		emitter.Emit(MenuNavigateEvent{SessionID: "other", Name: "skip"})
		emitter.Emit(MenuNavigateEvent{SessionID: "s1", Name: "docs"})
		select {
		case msg := <-received:
			if msg.Event != MenuNavigate {
				t.Fatalf("event = %q, want %q", msg.Event, MenuNavigate)
			}
			if msg.Data["name"] != "docs" {
				t.Fatalf("data.name = %v, want docs", msg.Data["name"])
			}
			return
		case <-time.After(50 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatal("no websocket message received")
		}
	}
}
