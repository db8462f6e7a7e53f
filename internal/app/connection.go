package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"tokendash/clients/monitorapi"
	"tokendash/clients/pushevents"
	"tokendash/internal/metrics"

	"go.uber.org/zap"
)

// Push event names emitted by the backend.
const (
	pushNewToken     = "new_token"
	pushStatsUpdate  = "stats_update"
	pushMonitorError = "monitor_error"
)

// EventSource is the receive side of the push channel.
type EventSource interface {
	Events() <-chan pushevents.Event
}

// ConnectionManager maps push channel events onto dispatcher events. The
// transport reconnects on its own; this side only observes.
type ConnectionManager struct {
	logger  *zap.Logger
	source  EventSource
	metrics *metrics.Metrics
	post    func(Event)

	connects int
}

func NewConnectionManager(logger *zap.Logger, source EventSource, m *metrics.Metrics, post func(Event)) *ConnectionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionManager{
		logger:  logger,
		source:  source,
		metrics: m,
		post:    post,
	}
}

// Run forwards translated events until ctx is done or the source closes.
func (c *ConnectionManager) Run(ctx context.Context) {
	events := c.source.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if out, ok := c.translate(ev); ok {
				c.post(out)
			}
		}
	}
}

func (c *ConnectionManager) translate(ev pushevents.Event) (Event, bool) {
	switch ev.Name {
	case pushevents.EventConnect:
		c.connects++
		if c.connects > 1 {
			c.logger.Info("push channel reconnected", zap.Int("connects", c.connects))
			if c.metrics != nil {
				c.metrics.PushReconnects.Inc()
			}
		} else {
			c.logger.Info("push channel connected")
		}
		return Connected{}, true

	case pushevents.EventDisconnect:
		c.logger.Warn("push channel disconnected")
		return Disconnected{}, true

	case pushNewToken:
		var token monitorapi.TokenRecord
		if err := decodePayload(ev.Data, &token); err != nil {
			c.logger.Warn("dropping push event", zap.String("event", ev.Name), zap.Error(err))
			return nil, false
		}
		return NewToken{Token: token}, true

	case pushStatsUpdate:
		var stats monitorapi.StatsSnapshot
		if err := decodePayload(ev.Data, &stats); err != nil {
			c.logger.Warn("dropping push event", zap.String("event", ev.Name), zap.Error(err))
			return nil, false
		}
		return StatsUpdate{Stats: stats}, true

	case pushMonitorError:
		var payload monitorapi.MonitorError
		if err := decodePayload(ev.Data, &payload); err != nil {
			c.logger.Warn("dropping push event", zap.String("event", ev.Name), zap.Error(err))
			return nil, false
		}
		return MonitorError{Message: payload.Error}, true

	default:
		c.logger.Debug("ignoring push event", zap.String("event", ev.Name))
		return nil, false
	}
}

// decodePayload accepts only JSON objects. Missing fields stay zero.
func decodePayload(data json.RawMessage, dest any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("payload is not an object: %q", truncatePayload(trimmed))
	}
	if err := json.Unmarshal(trimmed, dest); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func truncatePayload(b []byte) string {
	const limit = 120
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
