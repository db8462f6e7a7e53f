package app

import (
	"testing"

	"tokendash/clients/monitorapi"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	s := NewSession(testNow)

	_, err := uuid.Parse(s.ID())
	require.NoError(t, err)
	assert.Equal(t, testNow, s.StartedAt())
	assert.False(t, s.Connected())
	assert.Equal(t, 0, s.TokenCount())

	_, ok := s.Stats()
	assert.False(t, ok)

	assert.NotEqual(t, s.ID(), NewSession(testNow).ID())
}

func TestSession_TokensAreCopied(t *testing.T) {
	s := NewSession(testNow)
	in := []monitorapi.TokenRecord{{Name: "Alpha"}}

	s.SetTokens(in)
	in[0].Name = "mutated"
	assert.Equal(t, "Alpha", s.Tokens()[0].Name)

	out := s.Tokens()
	out[0].Name = "mutated"
	assert.Equal(t, "Alpha", s.Tokens()[0].Name)
}

func TestSession_PrependToken(t *testing.T) {
	s := NewSession(testNow)
	s.SetTokens([]monitorapi.TokenRecord{{Name: "Beta"}, {Name: "Alpha"}})

	before := s.Tokens()
	s.PrependToken(monitorapi.TokenRecord{Name: "Gamma"})

	after := s.Tokens()
	require.Len(t, after, len(before)+1)
	assert.Equal(t, "Gamma", after[0].Name)
	assert.Equal(t, before, after[1:])
}

func TestSession_State(t *testing.T) {
	s := NewSession(testNow)

	state := s.State()
	assert.Nil(t, state.Stats)
	assert.NotNil(t, state.Tokens)

	s.SetConnected(true)
	s.SetStats(monitorapi.StatsSnapshot{TotalTokensFound: 3})
	s.SetTokens([]monitorapi.TokenRecord{{Name: "Alpha"}})

	state = s.State()
	assert.Equal(t, s.ID(), state.SessionID)
	assert.True(t, state.Connected)
	require.NotNil(t, state.Stats)
	assert.Equal(t, 3, state.Stats.TotalTokensFound)
	assert.Len(t, state.Tokens, 1)
}
