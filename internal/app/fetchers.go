package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"tokendash/clients/monitorapi"
	"tokendash/internal/metrics"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Banner text used when a read fails without a server-provided message.
const (
	statsFallbackMessage  = "Failed to load monitoring statistics"
	tokensFallbackMessage = "Failed to load posted tokens"
)

// MonitorReader is the backend read surface the fetchers use.
type MonitorReader interface {
	GetStats(ctx context.Context) (monitorapi.StatsSnapshot, error)
	GetTokens(ctx context.Context) ([]monitorapi.TokenRecord, error)
}

// Fetchers run one backend read per trigger, each on its own goroutine, and
// post the completion to the dispatcher. They never touch the session.
type Fetchers struct {
	logger  *zap.Logger
	api     MonitorReader
	metrics *metrics.Metrics
	clock   clockwork.Clock
	post    func(Event)

	wg sync.WaitGroup
}

func NewFetchers(logger *zap.Logger, api MonitorReader, m *metrics.Metrics, clock clockwork.Clock, post func(Event)) *Fetchers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Fetchers{
		logger:  logger,
		api:     api,
		metrics: m,
		clock:   clock,
		post:    post,
	}
}

// LoadStats fetches the stats snapshot in the background.
func (f *Fetchers) LoadStats(ctx context.Context) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		start := f.clock.Now()
		stats, err := f.api.GetStats(ctx)
		f.observe(metrics.EndpointStats, start, err)

		if err != nil {
			f.post(FetchFailed{
				Endpoint: metrics.EndpointStats,
				Message:  failureMessage(err, statsFallbackMessage),
				Err:      err,
			})
			return
		}
		f.post(StatsLoaded{Stats: stats})
	}()
}

// LoadTokens fetches the token list in the background.
func (f *Fetchers) LoadTokens(ctx context.Context) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		start := f.clock.Now()
		tokens, err := f.api.GetTokens(ctx)
		f.observe(metrics.EndpointTokens, start, err)

		if err != nil {
			f.post(FetchFailed{
				Endpoint: metrics.EndpointTokens,
				Message:  failureMessage(err, tokensFallbackMessage),
				Err:      err,
			})
			return
		}
		f.post(TokensLoaded{Tokens: tokens})
	}()
}

// Wait blocks until every started fetch has posted its completion.
func (f *Fetchers) Wait() {
	f.wg.Wait()
}

func (f *Fetchers) observe(endpoint string, start time.Time, err error) {
	result := fetchResult(err)
	if err != nil {
		f.logger.Warn("fetch failed",
			zap.String("endpoint", endpoint),
			zap.String("result", result),
			zap.Error(err),
		)
	}

	if f.metrics == nil {
		return
	}
	f.metrics.Fetches.WithLabelValues(endpoint, result).Inc()
	f.metrics.FetchDuration.WithLabelValues(endpoint).Observe(f.clock.Since(start).Seconds())
}

func fetchResult(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	var apiErr *monitorapi.APIError
	if errors.As(err, &apiErr) {
		return metrics.ResultAppFailure
	}
	return metrics.ResultTransport
}

// failureMessage returns the server's message for an application failure
// and fallback for everything else.
func failureMessage(err error, fallback string) string {
	if msg := monitorapi.ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}
