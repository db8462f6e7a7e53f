package app

import (
	"sync"
	"time"

	"tokendash/clients/monitorapi"

	"github.com/google/uuid"
)

// Session is the client's state for one process lifetime. The dispatcher is
// its only writer; readers such as the status server get copies.
type Session struct {
	mu sync.RWMutex

	id        string
	startedAt time.Time

	connected bool
	stats     monitorapi.StatsSnapshot
	hasStats  bool
	tokens    []monitorapi.TokenRecord // most recent first
}

func NewSession(startedAt time.Time) *Session {
	return &Session{
		id:        uuid.NewString(),
		startedAt: startedAt,
		tokens:    []monitorapi.TokenRecord{},
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Session) SetConnected(connected bool) {
	s.mu.Lock()
	s.connected = connected
	s.mu.Unlock()
}

// Stats returns the held snapshot and whether one has been received yet.
func (s *Session) Stats() (monitorapi.StatsSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, s.hasStats
}

// SetStats replaces the snapshot wholesale.
func (s *Session) SetStats(stats monitorapi.StatsSnapshot) {
	s.mu.Lock()
	s.stats = stats
	s.hasStats = true
	s.mu.Unlock()
}

// Tokens returns a copy of the held token sequence.
func (s *Session) Tokens() []monitorapi.TokenRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]monitorapi.TokenRecord, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// SetTokens replaces the token sequence with a copy of tokens.
func (s *Session) SetTokens(tokens []monitorapi.TokenRecord) {
	cp := make([]monitorapi.TokenRecord, len(tokens))
	copy(cp, tokens)

	s.mu.Lock()
	s.tokens = cp
	s.mu.Unlock()
}

// PrependToken inserts token at the front of the sequence.
func (s *Session) PrependToken(token monitorapi.TokenRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]monitorapi.TokenRecord, 0, len(s.tokens)+1)
	next = append(next, token)
	next = append(next, s.tokens...)
	s.tokens = next
}

func (s *Session) TokenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// SessionState is a point-in-time copy of the session for reporting.
type SessionState struct {
	SessionID string                    `json:"session_id"`
	StartedAt time.Time                 `json:"started_at"`
	Connected bool                      `json:"connected"`
	Stats     *monitorapi.StatsSnapshot `json:"stats"`
	Tokens    []monitorapi.TokenRecord  `json:"tokens"`
}

// State returns a consistent copy of the whole session.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := SessionState{
		SessionID: s.id,
		StartedAt: s.startedAt.UTC(),
		Connected: s.connected,
		Tokens:    make([]monitorapi.TokenRecord, len(s.tokens)),
	}
	copy(state.Tokens, s.tokens)
	if s.hasStats {
		stats := s.stats
		state.Stats = &stats
	}
	return state
}
