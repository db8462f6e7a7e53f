package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"tokendash/internal/view"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket upgrader for live document updates
var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatusReport is the JSON body of GET /api/state.
type StatusReport struct {
	Build struct {
		Commit    string `json:"commit"`
		Time      string `json:"time,omitempty"`
		GoVersion string `json:"go_version"`
	} `json:"build"`

	StartTime string `json:"start_time"`
	Uptime    string `json:"uptime"`
	UptimeSec int64  `json:"uptime_seconds"`

	Session SessionState `json:"session"`

	Push struct {
		Enabled        bool   `json:"enabled"`
		Connected      bool   `json:"connected"`
		MessageCount   uint64 `json:"message_count"`
		LastMessageAt  string `json:"last_message_at,omitempty"`
		LastMessageAgo string `json:"last_message_ago,omitempty"`
		Reconnects     uint64 `json:"reconnects"`
	} `json:"push"`

	Viewers int64 `json:"ws_viewers"`

	Notifications struct {
		DiscordEnabled  bool `json:"discord_enabled"`
		TelegramEnabled bool `json:"telegram_enabled"`
	} `json:"notifications"`
}

// documentFrame is what GET /api/document and /ws send.
type documentFrame struct {
	Version  uint64         `json:"version"`
	Elements []view.Element `json:"elements"`
}

// GetStatus returns a snapshot of the session and the push channel.
func (r *Runner) GetStatus() StatusReport {
	var report StatusReport

	report.Build.Commit = BuildCommit
	report.Build.Time = BuildTime
	report.Build.GoVersion = runtime.Version()

	now := r.clock.Now()
	report.StartTime = r.startTime.UTC().Format(time.RFC3339)
	uptime := now.Sub(r.startTime)
	report.Uptime = uptime.Round(time.Second).String()
	report.UptimeSec = int64(uptime.Seconds())

	report.Session = r.session.State()

	report.Push.Enabled = r.clients.Push != nil
	if r.clients.Push != nil {
		ws := r.clients.Push.Stats()
		report.Push.Connected = ws.Connected
		report.Push.MessageCount = ws.MessageCount
		report.Push.Reconnects = ws.Reconnects
		if !ws.LastMessageAt.IsZero() {
			report.Push.LastMessageAt = ws.LastMessageAt.UTC().Format(time.RFC3339)
			report.Push.LastMessageAgo = now.Sub(ws.LastMessageAt).Round(time.Second).String()
		}
	}

	report.Viewers = r.wsViewers.Load()

	report.Notifications.DiscordEnabled = r.clients.Discord != nil && r.clients.Discord.Enabled()
	report.Notifications.TelegramEnabled = r.clients.Telegram != nil && r.clients.Telegram.Enabled()

	return report
}

// statusRouter builds the routes of the local status server.
func (r *Runner) statusRouter() *mux.Router {
	logger := r.clients.Logger
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// JSON session state
	router.HandleFunc("/api/state", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, r.GetStatus())
	}).Methods(http.MethodGet)

	// Current document elements
	router.HandleFunc("/api/document", func(w http.ResponseWriter, _ *http.Request) {
		elements, version := r.document.Snapshot()
		writeJSON(w, http.StatusOK, documentFrame{Version: version, Elements: elements})
	}).Methods(http.MethodGet)

	// Manual token list refresh. Browser form posts are sent back to the page.
	router.HandleFunc("/api/refresh", func(w http.ResponseWriter, req *http.Request) {
		r.Refresh()
		logger.Info("token refresh requested", zap.String("remote", req.RemoteAddr))

		if strings.HasPrefix(req.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			http.Redirect(w, req, "/", http.StatusSeeOther)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}).Methods(http.MethodPost)

	router.Handle("/metrics", r.metrics.Handler()).Methods(http.MethodGet)

	// WebSocket endpoint pushing the document whenever it changes
	router.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, req, nil)
		if err != nil {
			logger.Error("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		r.wsViewers.Add(1)
		defer r.wsViewers.Add(-1)

		// The hijacked connection outlives req.Context(); a failed read is
		// the only sign the viewer went away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		ticker := r.clock.NewTicker(time.Second)
		defer ticker.Stop()

		var sent uint64
		first := true
		for {
			elements, version := r.document.Snapshot()
			if first || version != sent {
				if err := conn.WriteJSON(documentFrame{Version: version, Elements: elements}); err != nil {
					return // Client disconnected
				}
				sent = version
				first = false
			}

			select {
			case <-req.Context().Done():
				return
			case <-gone:
				return
			case <-ticker.Chan():
			}
		}
	}).Methods(http.MethodGet)

	// HTML dashboard
	router.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		elements, _ := r.document.Snapshot()
		page, err := view.RenderPage(elements, int(r.cfg.Dashboard.TickInterval/time.Second))
		if err != nil {
			logger.Error("render page failed", zap.Error(err))
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(page))
	}).Methods(http.MethodGet)

	return router
}

// startStatusServer serves statusRouter on port in the background. A
// listener failure is logged, not fatal.
func (r *Runner) startStatusServer(port int) {
	r.statusServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r.statusRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := r.statusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.clients.Logger.Error("status server error", zap.Error(err))
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
