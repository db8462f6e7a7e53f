package pushevents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tokendash/config"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func testConfig(baseURL string) *config.Config {
	cfg := config.Defaults()
	cfg.Monitor.BaseURL = baseURL
	cfg.Push.HandshakeTimeout = 2 * time.Second
	cfg.Push.ReconnectDelay = 10 * time.Millisecond
	cfg.Push.MaxReconnectDelay = 40 * time.Millisecond
	return cfg
}

// fakeSocketServer plays the server side of an Engine.IO v4 websocket
// session. script runs after the Socket.IO connect has been acknowledged.
func fakeSocketServer(t *testing.T, script func(conn *websocket.Conn)) (*httptest.Server, *int32) {
	t.Helper()

	var sessions int32
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/socket.io/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("EIO") != "4" || r.URL.Query().Get("transport") != "websocket" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		atomic.AddInt32(&sessions, 1)

		open := `0{"sid":"abc","upgrades":[],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(open)); err != nil {
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if string(msg) != "40" {
			t.Errorf("expected socket connect 40, got %q", msg)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`40{"sid":"xyz"}`)); err != nil {
			return
		}

		script(conn)
	}))

	return server, &sessions
}

func nextEvent(t *testing.T, client *PushEventsClient) Event {
	t.Helper()
	select {
	case ev := <-client.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestNewPushEventsClient(t *testing.T) {
	client := NewPushEventsClient(nil, testConfig("http://localhost:5000"))

	if client.logger == nil {
		t.Error("expected logger to be set")
	}
	if client.eventCh == nil {
		t.Error("expected eventCh to be initialized")
	}
	if client.closeCh == nil {
		t.Error("expected closeCh to be initialized")
	}
	if client.reconnectDelay != 10*time.Millisecond {
		t.Errorf("unexpected reconnect delay: %v", client.reconnectDelay)
	}
}

func TestNewPushEventsClient_WithLogger(t *testing.T) {
	logger := zap.NewNop()
	client := NewPushEventsClient(logger, testConfig("http://localhost:5000"))

	if client.logger != logger {
		t.Error("expected custom logger to be set")
	}
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		base    string
		path    string
		want    string
		wantErr bool
	}{
		{"http://localhost:5000", "/socket.io/", "ws://localhost:5000/socket.io/?EIO=4&transport=websocket", false},
		{"https://monitor.example.com", "/socket.io", "wss://monitor.example.com/socket.io/?EIO=4&transport=websocket", false},
		{"https://monitor.example.com/app/", "/socket.io/", "wss://monitor.example.com/app/socket.io/?EIO=4&transport=websocket", false},
		{"ftp://monitor.example.com", "/socket.io/", "", true},
	}

	for _, tt := range tests {
		cfg := testConfig(tt.base)
		cfg.Push.Path = tt.path
		client := NewPushEventsClient(nil, cfg)

		got, err := client.SocketURL()
		if (err != nil) != tt.wantErr {
			t.Errorf("SocketURL(%q) error = %v, wantErr %v", tt.base, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("SocketURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestStats_Empty(t *testing.T) {
	client := NewPushEventsClient(nil, testConfig("http://localhost:5000"))

	stats := client.Stats()

	if stats.MessageCount != 0 {
		t.Errorf("expected 0 messages, got %d", stats.MessageCount)
	}
	if !stats.LastMessageAt.IsZero() {
		t.Error("expected zero time for last message")
	}
	if stats.Connected {
		t.Error("expected not connected")
	}
}

func TestClose_NoConnection(t *testing.T) {
	client := NewPushEventsClient(nil, testConfig("http://localhost:5000"))

	if err := client.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("unexpected error on second close: %v", err)
	}
}

func TestRun_DeliversEvents(t *testing.T) {
	server, _ := fakeSocketServer(t, func(conn *websocket.Conn) {
		frames := []string{
			`42["connected",{"data":"Connected to token monitor"}]`,
			`42["new_token",{"name":"Alpha","contract_address":"0xAAA","posted_at":"2024-03-01T12:00:00"}]`,
			`42["stats_update",{"total_tokens_found":3,"total_tokens_posted":1,"is_running":true}]`,
			`42["monitor_error",{"error":"rpc timeout"}]`,
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Hold the session open until the client goes away.
		conn.ReadMessage()
	})
	defer server.Close()

	client := NewPushEventsClient(zap.NewNop(), testConfig(server.URL))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	if ev := nextEvent(t, client); ev.Name != EventConnect {
		t.Fatalf("expected connect, got %q", ev.Name)
	}

	want := []string{"connected", "new_token", "stats_update", "monitor_error"}
	for _, name := range want {
		ev := nextEvent(t, client)
		if ev.Name != name {
			t.Fatalf("expected %q, got %q", name, ev.Name)
		}
		if len(ev.Data) == 0 {
			t.Errorf("expected payload for %q", name)
		}
	}

	if !client.Stats().Connected {
		t.Error("expected connected stats")
	}
	if client.Stats().MessageCount < 5 {
		t.Errorf("expected at least 5 messages, got %d", client.Stats().MessageCount)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected run error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestRun_AnswersPing(t *testing.T) {
	pong := make(chan string, 1)
	server, _ := fakeSocketServer(t, func(conn *websocket.Conn) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("2")); err != nil {
			return
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		pong <- string(msg)
		conn.ReadMessage()
	})
	defer server.Close()

	client := NewPushEventsClient(nil, testConfig(server.URL))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	nextEvent(t, client) // connect

	select {
	case msg := <-pong:
		if msg != "3" {
			t.Errorf("expected pong 3, got %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no pong received")
	}
}

func TestRun_ReconnectsAfterServerDisconnect(t *testing.T) {
	server, sessions := fakeSocketServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("41"))
	})
	defer server.Close()

	client := NewPushEventsClient(nil, testConfig(server.URL))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	expect := []string{EventConnect, EventDisconnect, EventConnect, EventDisconnect}
	for _, name := range expect {
		if ev := nextEvent(t, client); ev.Name != name {
			t.Fatalf("expected %q, got %q", name, ev.Name)
		}
	}

	if atomic.LoadInt32(sessions) < 2 {
		t.Errorf("expected at least 2 sessions, got %d", atomic.LoadInt32(sessions))
	}
	if client.Stats().Reconnects < 1 {
		t.Errorf("expected reconnects to be counted, got %d", client.Stats().Reconnects)
	}
}

func TestRun_ConnectErrorDoesNotEmitLifecycle(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var sessions int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		atomic.AddInt32(&sessions, 1)
		conn.WriteMessage(websocket.TextMessage, []byte(`0{"sid":"abc","pingInterval":25000,"pingTimeout":20000}`))
		conn.ReadMessage()
		conn.WriteMessage(websocket.TextMessage, []byte(`44{"message":"not authorized"}`))
	}))
	defer server.Close()

	client := NewPushEventsClient(nil, testConfig(server.URL))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&sessions) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if atomic.LoadInt32(&sessions) < 2 {
		t.Fatal("expected the client to retry after a connect error")
	}

	select {
	case ev := <-client.Events():
		t.Errorf("unexpected event %q", ev.Name)
	default:
	}
}

func TestRun_StopsOnClose(t *testing.T) {
	server, _ := fakeSocketServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})
	defer server.Close()

	client := NewPushEventsClient(nil, testConfig(server.URL))
	done := make(chan error, 1)
	go func() { done <- client.Run(context.Background()) }()

	nextEvent(t, client) // connect

	if err := client.Close(); err != nil && !strings.Contains(err.Error(), "closed") {
		t.Errorf("unexpected close error: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected run error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after close")
	}
}

func TestRun_AlreadyRunning(t *testing.T) {
	server, _ := fakeSocketServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})
	defer server.Close()

	client := NewPushEventsClient(nil, testConfig(server.URL))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	nextEvent(t, client) // connect

	if err := client.Run(ctx); err == nil {
		t.Error("expected error for second Run")
	}
}
