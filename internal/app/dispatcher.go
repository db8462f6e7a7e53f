package app

import (
	"context"

	"tokendash/clients/monitorapi"
	"tokendash/clients/notifier"
	"tokendash/config"
	"tokendash/internal/metrics"
	"tokendash/internal/view"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const eventQueueSize = 256

// Dispatcher is the single event loop. Apply is the only writer of the
// session and the only caller of the renderer.
type Dispatcher struct {
	logger   *zap.Logger
	clock    clockwork.Clock
	session  *Session
	renderer *view.Renderer
	fetchers *Fetchers
	notifier notifier.Notifier
	metrics  *metrics.Metrics

	errorBanner   *Banner
	successBanner *Banner

	ctx    context.Context
	events chan Event
	done   chan struct{}
}

func NewDispatcher(
	logger *zap.Logger,
	cfg *config.Config,
	clock clockwork.Clock,
	session *Session,
	renderer *view.Renderer,
	api MonitorReader,
	n notifier.Notifier,
	m *metrics.Metrics,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	d := &Dispatcher{
		logger:   logger,
		clock:    clock,
		session:  session,
		renderer: renderer,
		notifier: n,
		metrics:  m,
		ctx:      context.Background(),
		events:   make(chan Event, eventQueueSize),
		done:     make(chan struct{}),
	}
	d.fetchers = NewFetchers(logger, api, m, clock, d.Post)
	d.errorBanner = NewBanner(notifier.NoticeKindError, cfg.Dashboard.ErrorBannerTTL, clock, renderer, d.Post)
	d.successBanner = NewBanner(notifier.NoticeKindSuccess, cfg.Dashboard.SuccessBannerTTL, clock, renderer, d.Post)
	return d
}

// Post queues ev for the loop. It blocks until the event is queued or the
// loop has stopped; events posted after that are dropped.
func (d *Dispatcher) Post(ev Event) {
	select {
	case <-d.done:
		d.logger.Debug("dispatcher stopped, dropping event", zap.String("event", EventName(ev)))
		return
	default:
	}

	select {
	case d.events <- ev:
	case <-d.done:
		d.logger.Debug("dispatcher stopped, dropping event", zap.String("event", EventName(ev)))
	}
}

// Run applies queued events in arrival order until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	d.ctx = ctx
	defer close(d.done)
	defer d.errorBanner.Stop()
	defer d.successBanner.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.events:
			d.Apply(ev)
		}
	}
}

// Done is closed once the loop has stopped.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Fetchers exposes the fetchers so shutdown can wait for in-flight reads.
func (d *Dispatcher) Fetchers() *Fetchers {
	return d.fetchers
}

// Apply mutates the session for one event and renders the result.
func (d *Dispatcher) Apply(ev Event) {
	start := d.clock.Now()

	switch e := ev.(type) {
	case Connected:
		d.session.SetConnected(true)
		d.renderer.RenderConnection(true)
		if d.metrics != nil {
			d.metrics.SetPushConnected(true)
		}

	case Disconnected:
		d.session.SetConnected(false)
		d.renderer.RenderConnection(false)
		if d.metrics != nil {
			d.metrics.SetPushConnected(false)
		}

	case NewToken:
		d.session.PrependToken(e.Token)
		d.renderTokens()
		d.showSuccess("New token posted: "+e.Token.Name, e.Token)

	case StatsUpdate:
		d.session.SetStats(e.Stats)
		d.renderer.RenderStats(e.Stats)

	case MonitorError:
		d.showError(e.Message)

	case Tick:
		if stats, ok := d.session.Stats(); ok {
			d.renderer.RenderTime(stats)
		}

	case LoadStats:
		d.fetchers.LoadStats(d.ctx)

	case LoadTokens:
		d.renderer.ShowLoading()
		d.fetchers.LoadTokens(d.ctx)

	case StatsLoaded:
		d.session.SetStats(e.Stats)
		d.renderer.RenderStats(e.Stats)

	case TokensLoaded:
		d.session.SetTokens(e.Tokens)
		d.renderTokens()

	case FetchFailed:
		if e.Endpoint == metrics.EndpointTokens {
			// Held tokens are unchanged; resolve the view back to them.
			d.renderTokens()
		}
		d.showError(e.Message)

	case BannerExpired:
		d.bannerFor(e.Kind).Expire(e.Seq)

	default:
		d.logger.Warn("unknown event", zap.String("event", EventName(ev)))
		return
	}

	if d.metrics != nil {
		d.metrics.EventsDispatched.WithLabelValues(EventName(ev)).Inc()
		d.metrics.DispatchLatency.Observe(d.clock.Since(start).Seconds())
	}
}

func (d *Dispatcher) renderTokens() {
	tokens := d.session.Tokens()
	if err := d.renderer.RenderTokens(tokens); err != nil {
		d.logger.Error("failed to render token list", zap.Error(err))
	}
	if d.metrics != nil {
		d.metrics.TokensHeld.Set(float64(len(tokens)))
	}
}

func (d *Dispatcher) bannerFor(kind notifier.NoticeKind) *Banner {
	if kind == notifier.NoticeKindSuccess {
		return d.successBanner
	}
	return d.errorBanner
}

func (d *Dispatcher) showError(message string) {
	d.logger.Warn("error notice", zap.String("message", message))
	d.errorBanner.Show(message)
	d.relay(notifier.Notice{Kind: notifier.NoticeKindError, Message: message})
}

func (d *Dispatcher) showSuccess(message string, token monitorapi.TokenRecord) {
	d.logger.Info("success notice",
		zap.String("message", message),
		zap.String("contract", token.ContractAddress),
	)
	d.successBanner.Show(message)
	d.relay(notifier.Notice{
		Kind:            notifier.NoticeKindSuccess,
		Message:         message,
		TokenName:       token.Name,
		ContractAddress: token.ContractAddress,
	})
}

// relay hands a notice to the external channels without blocking the loop.
func (d *Dispatcher) relay(notice notifier.Notice) {
	if d.metrics != nil {
		d.metrics.Notices.WithLabelValues(string(notice.Kind)).Inc()
	}
	if d.notifier == nil {
		return
	}
	notice.SessionID = d.session.ID()
	notice.Timestamp = d.clock.Now()
	go d.notifier.SendNotice(notice)
}
