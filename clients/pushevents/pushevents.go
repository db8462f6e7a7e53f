package pushevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tokendash/config"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Lifecycle events synthesized by the client. Every other event name is
// whatever the server emitted.
const (
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
)

var (
	errServerClosed     = errors.New("server closed the engine session")
	errServerDisconnect = errors.New("server disconnected the socket")
)

// Event is one inbound push event. Data is the first event argument, nil
// for lifecycle events and argument-less emits.
type Event struct {
	Name string
	Data json.RawMessage
}

// PushEventsClient is a receive-only Socket.IO v4 client over a plain
// websocket transport. It reconnects on its own with exponential backoff.
type PushEventsClient struct {
	logger *zap.Logger
	clock  clockwork.Clock

	baseURL           string
	path              string
	dialer            *websocket.Dialer
	handshakeTimeout  time.Duration
	reconnectDelay    time.Duration
	maxReconnectDelay time.Duration

	connMu  sync.Mutex
	writeMu sync.Mutex
	conn    *websocket.Conn

	eventCh   chan Event
	closeCh   chan struct{}
	closeOnce sync.Once
	running   atomic.Bool
	connected atomic.Bool

	msgCount        uint64
	lastMsgUnixNano int64
	reconnects      uint64
}

func NewPushEventsClient(logger *zap.Logger, cfg *config.Config) *PushEventsClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PushEventsClient{
		logger:            logger,
		clock:             clockwork.NewRealClock(),
		baseURL:           cfg.Monitor.BaseURL,
		path:              cfg.Push.Path,
		dialer:            &websocket.Dialer{HandshakeTimeout: cfg.Push.HandshakeTimeout},
		handshakeTimeout:  cfg.Push.HandshakeTimeout,
		reconnectDelay:    cfg.Push.ReconnectDelay,
		maxReconnectDelay: cfg.Push.MaxReconnectDelay,

		eventCh: make(chan Event, 256),
		closeCh: make(chan struct{}),
	}
}

// Events returns the inbound event stream. The channel is never closed.
func (c *PushEventsClient) Events() <-chan Event {
	return c.eventCh
}

// SocketURL derives the websocket endpoint from the backend base URL.
func (c *PushEventsClient) SocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	path := c.path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = "EIO=4&transport=websocket"
	u.Fragment = ""

	return u.String(), nil
}

// Run keeps the push channel open until ctx is done or Close is called.
// A connect event is emitted for every established session and a
// disconnect event for every session that is lost afterwards.
func (c *PushEventsClient) Run(ctx context.Context) error {
	wsURL, err := c.SocketURL()
	if err != nil {
		return err
	}
	if !c.running.CompareAndSwap(false, true) {
		return fmt.Errorf("already running")
	}
	defer c.running.Store(false)

	delay := c.reconnectDelay

	for {
		connected, err := c.runSession(ctx, wsURL)

		if connected {
			c.connected.Store(false)
			c.forward(ctx, Event{Name: EventDisconnect})
			delay = c.reconnectDelay
		}

		if ctx.Err() != nil || c.isClosed() {
			c.logger.Info("push channel stopped")
			return nil
		}

		c.logger.Warn(
			"push channel lost",
			zap.Error(err),
			zap.Bool("was_connected", connected),
			zap.Duration("retry_in", delay),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-c.closeCh:
			return nil
		case <-c.clock.After(delay):
		}

		atomic.AddUint64(&c.reconnects, 1)

		delay *= 2
		if delay > c.maxReconnectDelay {
			delay = c.maxReconnectDelay
		}
	}
}

// runSession dials once and reads until the session ends. connected reports
// whether the Socket.IO connect was acknowledged.
func (c *PushEventsClient) runSession(ctx context.Context, wsURL string) (connected bool, err error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.handshakeTimeout)
	conn, _, err := c.dialer.DialContext(dialCtx, wsURL, nil)
	cancel()
	if err != nil {
		return false, fmt.Errorf("dial push ws: %w", err)
	}

	c.logger.Info("push ws dialed", zap.String("url", wsURL))

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	stop := make(chan struct{})
	defer func() {
		close(stop)
		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		_ = conn.Close()
	}()

	// Unblock ReadMessage on shutdown.
	go func() {
		select {
		case <-ctx.Done():
		case <-c.closeCh:
		case <-stop:
			return
		}
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(c.handshakeTimeout))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		return false, fmt.Errorf("read open packet: %w", err)
	}
	open, err := parseOpen(frame)
	if err != nil {
		return false, err
	}

	c.logger.Info(
		"push engine session opened",
		zap.String("sid", open.SID),
		zap.Int64("ping_interval_ms", open.PingInterval),
		zap.Int64("ping_timeout_ms", open.PingTimeout),
	)

	if err := c.writeText(string([]byte{eioMessage, sioConnect})); err != nil {
		return false, fmt.Errorf("send socket connect: %w", err)
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(open.liveness()))
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return connected, fmt.Errorf("read: %w", err)
		}

		atomic.AddUint64(&c.msgCount, 1)
		atomic.StoreInt64(&c.lastMsgUnixNano, c.clock.Now().UnixNano())

		if len(frame) == 0 {
			continue
		}

		switch frame[0] {
		case eioPing:
			if err := c.writeText(string(eioPong)); err != nil {
				return connected, fmt.Errorf("send pong: %w", err)
			}

		case eioClose:
			return connected, errServerClosed

		case eioPong, eioNoop:

		case eioMessage:
			pkt, err := parseSocketPacket(string(frame[1:]))
			if err != nil {
				c.logger.Warn("push ws bad socket packet", zap.Error(err))
				continue
			}
			if pkt.Namespace != "/" {
				c.logger.Debug("push ws packet for foreign namespace", zap.String("nsp", pkt.Namespace))
				continue
			}

			switch pkt.Type {
			case sioConnect:
				connected = true
				c.connected.Store(true)
				c.logger.Info("push socket connected")
				c.forward(ctx, Event{Name: EventConnect})

			case sioDisconnect:
				return connected, errServerDisconnect

			case sioConnectError:
				return connected, fmt.Errorf("socket connect error: %s", connectErrorMessage(pkt.Payload))

			case sioEvent:
				ev, err := decodeEvent(pkt.Payload)
				if err != nil {
					c.logger.Warn("push ws bad event", zap.Error(err))
					continue
				}
				c.forward(ctx, ev)

			default:
				c.logger.Debug("push ws ignoring socket packet", zap.String("type", string(pkt.Type)))
			}

		default:
			c.logger.Debug("push ws ignoring engine packet", zap.String("frame", truncate(frame)))
		}
	}
}

type WSStats struct {
	MessageCount  uint64
	LastMessageAt time.Time
	Reconnects    uint64
	Connected     bool
}

func (c *PushEventsClient) Stats() WSStats {
	n := atomic.LoadUint64(&c.msgCount)
	ns := atomic.LoadInt64(&c.lastMsgUnixNano)

	var t time.Time
	if ns > 0 {
		t = time.Unix(0, ns)
	}

	return WSStats{
		MessageCount:  n,
		LastMessageAt: t,
		Reconnects:    atomic.LoadUint64(&c.reconnects),
		Connected:     c.connected.Load(),
	}
}

// Close stops Run and drops the current connection. It is safe to call
// more than once.
func (c *PushEventsClient) Close() error {
	c.closeOnce.Do(func() {
		close(c.closeCh)
	})

	c.connMu.Lock()
	defer c.connMu.Unlock()

	var err error
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}

func (c *PushEventsClient) isClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

func (c *PushEventsClient) writeText(s string) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return conn.WriteMessage(websocket.TextMessage, []byte(s))
}

// forward blocks until the event is consumed or the client is stopping.
func (c *PushEventsClient) forward(ctx context.Context, ev Event) {
	select {
	case c.eventCh <- ev:
	case <-ctx.Done():
		c.logger.Debug("dropping push event on shutdown", zap.String("event", ev.Name))
	case <-c.closeCh:
		c.logger.Debug("dropping push event on close", zap.String("event", ev.Name))
	}
}
