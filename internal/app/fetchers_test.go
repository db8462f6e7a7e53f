package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"tokendash/clients/monitorapi"
	"tokendash/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchResult(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", &monitorapi.APIError{Message: "x"})

	assert.Equal(t, metrics.ResultSuccess, fetchResult(nil))
	assert.Equal(t, metrics.ResultAppFailure, fetchResult(&monitorapi.APIError{}))
	assert.Equal(t, metrics.ResultAppFailure, fetchResult(wrapped))
	assert.Equal(t, metrics.ResultTransport, fetchResult(errors.New("dial tcp: refused")))
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "Database is locked", failureMessage(&monitorapi.APIError{Message: "Database is locked"}, "fallback"))
	assert.Equal(t, "fallback", failureMessage(&monitorapi.APIError{}, "fallback"))
	assert.Equal(t, "fallback", failureMessage(errors.New("boom"), "fallback"))
}

func TestFetchers_PostCompletions(t *testing.T) {
	api := &MockMonitor{
		stats:     monitorapi.StatsSnapshot{TotalTokensFound: 1},
		tokensErr: &monitorapi.APIError{Endpoint: "/api/tokens", Status: 500, Message: "locked"},
	}
	m := metrics.NewMetrics("test")

	var mu sync.Mutex
	var posted []Event
	f := NewFetchers(nil, api, m, nil, func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		posted = append(posted, ev)
	})

	f.LoadStats(context.Background())
	f.LoadTokens(context.Background())
	f.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, posted, 2)
	assert.Contains(t, posted, Event(StatsLoaded{Stats: api.stats}))

	var failed FetchFailed
	for _, ev := range posted {
		if ff, ok := ev.(FetchFailed); ok {
			failed = ff
		}
	}
	assert.Equal(t, metrics.EndpointTokens, failed.Endpoint)
	assert.Equal(t, "locked", failed.Message)
	assert.Error(t, failed.Err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Fetches.WithLabelValues(metrics.EndpointStats, metrics.ResultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Fetches.WithLabelValues(metrics.EndpointTokens, metrics.ResultAppFailure)))
}
