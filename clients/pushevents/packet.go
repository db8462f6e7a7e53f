package pushevents

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Engine.IO v4 packet types.
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
	eioUpgrade = '5'
	eioNoop    = '6'
)

// Socket.IO v4 packet types, carried inside an Engine.IO message.
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioAck          = '3'
	sioConnectError = '4'
)

// openPacket is the Engine.IO handshake payload.
type openPacket struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int64    `json:"pingInterval"` // ms
	PingTimeout  int64    `json:"pingTimeout"`  // ms
	MaxPayload   int64    `json:"maxPayload"`
}

// liveness is how long the server may stay silent before the connection is
// considered dead.
func (o openPacket) liveness() time.Duration {
	return time.Duration(o.PingInterval+o.PingTimeout) * time.Millisecond
}

func parseOpen(frame []byte) (openPacket, error) {
	var o openPacket
	if len(frame) == 0 || frame[0] != eioOpen {
		return o, fmt.Errorf("expected open packet, got %q", truncate(frame))
	}
	if err := json.Unmarshal(frame[1:], &o); err != nil {
		return o, fmt.Errorf("decode open packet: %w", err)
	}
	if o.PingInterval <= 0 || o.PingTimeout <= 0 {
		return o, fmt.Errorf("open packet missing ping timings: %q", truncate(frame))
	}
	return o, nil
}

// socketPacket is a decoded Socket.IO packet.
type socketPacket struct {
	Type      byte
	Namespace string
	AckID     string
	Payload   json.RawMessage
}

// parseSocketPacket decodes "<type>[/ns,][ackid][json]".
func parseSocketPacket(s string) (socketPacket, error) {
	var p socketPacket
	if s == "" {
		return p, fmt.Errorf("empty socket packet")
	}
	p.Type = s[0]
	rest := s[1:]

	// Binary packets carry an attachment count terminated by '-'.
	if p.Type == '5' || p.Type == '6' {
		return p, nil
	}

	p.Namespace = "/"
	if strings.HasPrefix(rest, "/") {
		if i := strings.IndexByte(rest, ','); i >= 0 {
			p.Namespace = rest[:i]
			rest = rest[i+1:]
		} else {
			p.Namespace = rest
			rest = ""
		}
	}

	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	p.AckID = rest[:i]
	rest = rest[i:]

	if rest != "" {
		if !json.Valid([]byte(rest)) {
			return p, fmt.Errorf("invalid socket packet payload: %q", truncate([]byte(rest)))
		}
		p.Payload = json.RawMessage(rest)
	}
	return p, nil
}

// decodeEvent splits an event payload ["name", data, ...] into its name and
// first argument.
func decodeEvent(payload json.RawMessage) (Event, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(payload, &args); err != nil {
		return Event{}, fmt.Errorf("decode event args: %w", err)
	}
	if len(args) == 0 {
		return Event{}, fmt.Errorf("event without name")
	}

	var ev Event
	if err := json.Unmarshal(args[0], &ev.Name); err != nil {
		return Event{}, fmt.Errorf("decode event name: %w", err)
	}
	if len(args) > 1 {
		ev.Data = args[1]
	}
	return ev, nil
}

// connectErrorMessage extracts the message of a CONNECT_ERROR payload.
func connectErrorMessage(payload json.RawMessage) string {
	if len(payload) == 0 {
		return "connect error"
	}
	var m struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &m); err == nil && m.Message != "" {
		return m.Message
	}
	return string(payload)
}

func truncate(b []byte) string {
	const max = 120
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
