package app

import (
	"time"

	"tokendash/clients/notifier"
	"tokendash/internal/view"

	"github.com/jonboulle/clockwork"
)

// Banner is a timed notice area. It is owned by the dispatcher goroutine;
// its timer only posts BannerExpired back to the loop.
type Banner struct {
	kind      notifier.NoticeKind
	alertID   string
	messageID string
	ttl       time.Duration

	clock    clockwork.Clock
	renderer *view.Renderer
	post     func(Event)

	seq   uint64
	timer clockwork.Timer
}

func NewBanner(kind notifier.NoticeKind, ttl time.Duration, clock clockwork.Clock, renderer *view.Renderer, post func(Event)) *Banner {
	alertID, messageID := view.IDErrorAlert, view.IDErrorMessage
	if kind == notifier.NoticeKindSuccess {
		alertID, messageID = view.IDSuccessAlert, view.IDSuccessMessage
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Banner{
		kind:      kind,
		alertID:   alertID,
		messageID: messageID,
		ttl:       ttl,
		clock:     clock,
		renderer:  renderer,
		post:      post,
	}
}

func (b *Banner) Kind() notifier.NoticeKind {
	return b.kind
}

// Show sets the message, reveals the banner and restarts its hide timer.
func (b *Banner) Show(message string) {
	b.renderer.ShowBanner(b.alertID, b.messageID, message)

	if b.timer != nil {
		b.timer.Stop()
	}
	b.seq++
	seq := b.seq
	kind := b.kind
	b.timer = b.clock.AfterFunc(b.ttl, func() {
		b.post(BannerExpired{Kind: kind, Seq: seq})
	})
}

// Expire hides the banner if seq belongs to the latest Show.
func (b *Banner) Expire(seq uint64) bool {
	if seq != b.seq {
		return false
	}
	b.renderer.HideBanner(b.alertID)
	b.timer = nil
	return true
}

// Stop cancels a pending hide.
func (b *Banner) Stop() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
