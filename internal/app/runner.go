package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	clts "tokendash/clients"
	"tokendash/config"
	"tokendash/internal/metrics"
	"tokendash/internal/view"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Build info - populated from embedded VCS info at init time
var (
	BuildCommit = "dev"
	BuildTime   = "unknown"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if setting.Value != "" {
					BuildCommit = setting.Value
				}
			case "vcs.time":
				BuildTime = setting.Value
			}
		}
	}
}

type Runner struct {
	clients *clts.Clients
	cfg     *config.Config
	clock   clockwork.Clock
	metrics *metrics.Metrics

	document   *view.Document
	session    *Session
	renderer   *view.Renderer
	dispatcher *Dispatcher
	connection *ConnectionManager

	statusServer *http.Server
	startTime    time.Time
	wsViewers    atomic.Int64

	stdin  io.Reader
	stdout io.Writer
}

func NewRunner(clients *clts.Clients, cfg *config.Config, m *metrics.Metrics) *Runner {
	if clients.Logger == nil {
		clients.Logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewMetrics(cfg.Metrics.Namespace)
	}

	clock := clockwork.NewRealClock()
	r := &Runner{
		clients:   clients,
		cfg:       cfg,
		clock:     clock,
		metrics:   m,
		document:  view.NewDashboardDocument(),
		session:   NewSession(clock.Now()),
		startTime: clock.Now(),
		stdin:     os.Stdin,
		stdout:    os.Stdout,
	}

	r.renderer = view.NewRenderer(r.document, clock, cfg)
	r.dispatcher = NewDispatcher(clients.Logger, cfg, clock, r.session, r.renderer, clients.Monitor, clients.Notifier, m)
	if clients.Push != nil {
		r.connection = NewConnectionManager(clients.Logger, clients.Push, m, r.dispatcher.Post)
	}
	return r
}

// Document returns the element store the runner renders into.
func (r *Runner) Document() *view.Document {
	return r.document
}

func (r *Runner) Session() *Session {
	return r.session
}

// Refresh re-fetches the token list.
func (r *Runner) Refresh() {
	r.dispatcher.Post(LoadTokens{})
}

// Run wires the dashboard together and blocks until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	logger := r.clients.Logger
	cfg := r.cfg

	if err := view.CheckElements(r.document); err != nil {
		return fmt.Errorf("dashboard document: %w", err)
	}

	logger.Info("starting dashboard",
		zap.String("session", r.session.ID()),
		zap.String("backend", cfg.Monitor.BaseURL),
		zap.String("commit", BuildCommit),
		zap.Duration("tickInterval", cfg.Dashboard.TickInterval),
	)

	go r.dispatcher.Run(ctx)

	// Push channel
	if r.clients.Push != nil {
		go r.connection.Run(ctx)
		go func() {
			if err := r.clients.Push.Run(ctx); err != nil {
				logger.Error("push channel stopped", zap.Error(err))
			}
		}()
	} else {
		logger.Warn("push channel not configured, live updates disabled")
	}

	// Initial loads
	r.dispatcher.Post(LoadStats{})
	r.dispatcher.Post(LoadTokens{})

	go r.runTicker(ctx, cfg.Dashboard.TickInterval)

	if cfg.Terminal.Enabled {
		term := view.NewTerminal(logger, r.document, r.stdout, r.clock, cfg.Terminal.Width, cfg.Terminal.Refresh)
		go term.Run(ctx)
		logger.Info("terminal display started", zap.Int("width", cfg.Terminal.Width))
	}
	if cfg.Terminal.Commands {
		go r.readCommands(ctx, r.stdin)
	}

	if cfg.StatusServer.Enabled {
		r.startStatusServer(cfg.StatusServer.Port)
		logger.Info("status server started", zap.Int("port", cfg.StatusServer.Port))
	}

	<-ctx.Done()
	logger.Info("runner shutting down")

	if r.clients.Push != nil {
		_ = r.clients.Push.Close()
	}

	if r.statusServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = r.statusServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	<-r.dispatcher.Done()
	r.dispatcher.Fetchers().Wait()

	return nil
}

// runTicker posts a Tick every interval for the process lifetime.
func (r *Runner) runTicker(ctx context.Context, interval time.Duration) {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.dispatcher.Post(Tick{})
		}
	}
}

// readCommands maps stdin lines to refreshes: "r" reloads the token list,
// "s" reloads the stats.
func (r *Runner) readCommands(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "r", "refresh":
			r.dispatcher.Post(LoadTokens{})
		case "s", "stats":
			r.dispatcher.Post(LoadStats{})
		case "":
		default:
			r.clients.Logger.Debug("unknown command", zap.String("line", scanner.Text()))
		}
	}
	if err := scanner.Err(); err != nil {
		r.clients.Logger.Warn("command input closed", zap.Error(err))
	}
}
