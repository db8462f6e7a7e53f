package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"tokendash/clients/monitorapi"
	"tokendash/clients/notifier"
	"tokendash/clients/pushevents"
	"tokendash/config"
	"tokendash/internal/metrics"
	"tokendash/internal/view"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var testNow = time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

// tokensResult is one scripted GetTokens completion.
type tokensResult struct {
	tokens []monitorapi.TokenRecord
	err    error
}

// MockMonitor is a scripted MonitorReader. When tokenResults is set,
// each GetTokens call blocks until a result is sent on it.
type MockMonitor struct {
	mu         sync.Mutex
	stats      monitorapi.StatsSnapshot
	statsErr   error
	tokens     []monitorapi.TokenRecord
	tokensErr  error
	statsCalls int
	tokenCalls int

	tokenResults chan tokensResult
}

func (m *MockMonitor) GetStats(ctx context.Context) (monitorapi.StatsSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsCalls++
	return m.stats, m.statsErr
}

func (m *MockMonitor) GetTokens(ctx context.Context) ([]monitorapi.TokenRecord, error) {
	m.mu.Lock()
	m.tokenCalls++
	results := m.tokenResults
	tokens, err := m.tokens, m.tokensErr
	m.mu.Unlock()

	if results != nil {
		select {
		case res := <-results:
			return res.tokens, res.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return tokens, err
}

func (m *MockMonitor) TokenCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenCalls
}

// MockNotifier records relayed notices.
type MockNotifier struct {
	mu      sync.Mutex
	notices []notifier.Notice
}

func (m *MockNotifier) SendNotice(notice notifier.Notice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, notice)
}

func (m *MockNotifier) Close() error {
	return nil
}

func (m *MockNotifier) Notices() []notifier.Notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notifier.Notice, len(m.notices))
	copy(out, m.notices)
	return out
}

// MockEventSource feeds push events to a ConnectionManager.
type MockEventSource struct {
	ch chan pushevents.Event
}

func NewMockEventSource() *MockEventSource {
	return &MockEventSource{ch: make(chan pushevents.Event, 16)}
}

func (m *MockEventSource) Events() <-chan pushevents.Event {
	return m.ch
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Dashboard.Timezone = "UTC"
	return cfg
}

type dispatcherFixture struct {
	d        *Dispatcher
	doc      *view.Document
	session  *Session
	clock    *clockwork.FakeClock
	api      *MockMonitor
	notifier *MockNotifier
	metrics  *metrics.Metrics
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()

	cfg := testConfig()
	clock := clockwork.NewFakeClockAt(testNow)
	doc := view.NewDashboardDocument()
	session := NewSession(clock.Now())
	api := &MockMonitor{}
	n := &MockNotifier{}
	m := metrics.NewMetrics("test")

	renderer := view.NewRenderer(doc, clock, cfg)
	d := NewDispatcher(zap.NewNop(), cfg, clock, session, renderer, api, n, m)

	return &dispatcherFixture{
		d:        d,
		doc:      doc,
		session:  session,
		clock:    clock,
		api:      api,
		notifier: n,
		metrics:  m,
	}
}

// nextQueued returns the next event posted to a dispatcher whose loop is
// not running.
func nextQueued(t *testing.T, d *Dispatcher) Event {
	t.Helper()
	select {
	case ev := <-d.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a posted event")
		return nil
	}
}

func assertNothingQueued(t *testing.T, d *Dispatcher, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-d.events:
		t.Fatalf("unexpected posted event %s", EventName(ev))
	case <-time.After(wait):
	}
}

func ts(t time.Time) monitorapi.Timestamp {
	return monitorapi.Timestamp{Time: t}
}
