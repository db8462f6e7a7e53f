package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics("")
	b := NewMetrics("")

	a.Notices.WithLabelValues("error").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(a.Notices.WithLabelValues("error")))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.Notices.WithLabelValues("error")))
}

func TestSetPushConnected(t *testing.T) {
	m := NewMetrics("test")

	m.SetPushConnected(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PushConnected))

	m.SetPushConnected(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.PushConnected))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := NewMetrics("tokendash")
	m.EventsDispatched.WithLabelValues("Tick").Inc()
	m.Fetches.WithLabelValues(EndpointTokens, ResultSuccess).Inc()
	m.TokensHeld.Set(3)

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `tokendash_dispatcher_events_dispatched_total{event="Tick"} 1`)
	assert.Contains(t, string(body), `tokendash_fetch_fetches_total{endpoint="tokens",result="success"} 1`)
	assert.Contains(t, string(body), `tokendash_session_tokens_held 3`)
	assert.Contains(t, string(body), "go_goroutines")
}
