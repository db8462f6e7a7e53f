package view

import (
	"fmt"
	"strconv"
	"time"

	"tokendash/clients/monitorapi"
	"tokendash/config"

	"github.com/jonboulle/clockwork"
)

// Classes applied by the renderer.
const (
	ClassConnected    = "fas fa-circle text-success me-1"
	ClassDisconnected = "fas fa-circle text-danger me-1"
	ClassRunning      = "badge bg-success"
	ClassStopped      = "badge bg-danger"
)

// Renderer projects session state onto a ViewPort. Every method is
// idempotent for unchanged input.
type Renderer struct {
	vp         ViewPort
	clock      clockwork.Clock
	loc        *time.Location
	timeLayout string
	dateLayout string
}

func NewRenderer(vp ViewPort, clock clockwork.Clock, cfg *config.Config) *Renderer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Renderer{
		vp:         vp,
		clock:      clock,
		loc:        cfg.Location(),
		timeLayout: cfg.Dashboard.TimeLayout,
		dateLayout: cfg.Dashboard.DateLayout,
	}
}

func (r *Renderer) RenderConnection(connected bool) {
	if connected {
		r.vp.SetClass(IDStatusIndicator, ClassConnected)
		r.vp.SetText(IDStatusText, "Connected")
		return
	}
	r.vp.SetClass(IDStatusIndicator, ClassDisconnected)
	r.vp.SetText(IDStatusText, "Disconnected")
}

// RenderStats writes the counters and the running badge, then the time view.
func (r *Renderer) RenderStats(stats monitorapi.StatsSnapshot) {
	r.vp.SetText(IDTokensFound, strconv.Itoa(stats.TotalTokensFound))
	r.vp.SetText(IDTokensPosted, strconv.Itoa(stats.TotalTokensPosted))

	if stats.IsRunning {
		r.vp.SetClass(IDMonitorStatus, ClassRunning)
		r.vp.SetText(IDMonitorStatus, "Running")
	} else {
		r.vp.SetClass(IDMonitorStatus, ClassStopped)
		r.vp.SetText(IDMonitorStatus, "Stopped")
	}

	r.RenderTime(stats)
}

// RenderTime refreshes the last-check text. An absent or malformed
// last_check leaves the element untouched.
func (r *Renderer) RenderTime(stats monitorapi.StatsSnapshot) {
	if !stats.LastCheck.Valid() {
		return
	}
	r.vp.SetText(IDLastCheck, FormatElapsed(stats.LastCheck.Time, r.clock.Now(), r.loc, r.timeLayout))
}

// ShowLoading switches the token view to its loading state.
func (r *Renderer) ShowLoading() {
	r.vp.SetVisible(IDLoadingTokens, true)
	r.vp.SetVisible(IDTokensList, false)
	r.vp.SetVisible(IDEmptyTokens, false)
}

// HideLoading hides the loading indicator only.
func (r *Renderer) HideLoading() {
	r.vp.SetVisible(IDLoadingTokens, false)
}

// RenderTokens resolves the token view to the list or the empty placeholder.
func (r *Renderer) RenderTokens(tokens []monitorapi.TokenRecord) error {
	r.HideLoading()

	if len(tokens) == 0 {
		r.vp.SetVisible(IDTokensList, false)
		r.vp.SetVisible(IDEmptyTokens, true)
		r.vp.SetListContent(IDTokensList, "")
		return nil
	}

	entries := make([]TokenEntry, 0, len(tokens))
	for _, t := range tokens {
		entries = append(entries, TokenEntry{
			Name:            t.Name,
			ContractAddress: t.ContractAddress,
			Posted:          r.FormatPosted(t.PostedAt),
		})
	}

	markup, err := BuildTokenMarkup(entries)
	if err != nil {
		return err
	}

	r.vp.SetVisible(IDEmptyTokens, false)
	r.vp.SetVisible(IDTokensList, true)
	r.vp.SetListContent(IDTokensList, markup)
	return nil
}

// FormatPosted formats a token's posted time in the dashboard location.
func (r *Renderer) FormatPosted(ts monitorapi.Timestamp) string {
	if ts.Malformed() {
		return "Invalid Date"
	}
	if !ts.Valid() {
		return "Unknown"
	}
	return ts.Time.In(r.loc).Format(r.dateLayout)
}

// ShowBanner sets a banner message and reveals it.
func (r *Renderer) ShowBanner(alertID, messageID, message string) {
	r.vp.SetText(messageID, message)
	r.vp.SetVisible(alertID, true)
}

func (r *Renderer) HideBanner(alertID string) {
	r.vp.SetVisible(alertID, false)
}

// FormatElapsed renders the age of last relative to now: whole seconds under
// a minute, whole minutes under an hour, the absolute time otherwise.
func FormatElapsed(last, now time.Time, loc *time.Location, layout string) string {
	secs := int64(now.Sub(last) / time.Second)
	if secs < 0 {
		secs = 0
	}

	switch {
	case secs < 60:
		return fmt.Sprintf("%ds ago", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	default:
		if loc == nil {
			loc = time.Local
		}
		return last.In(loc).Format(layout)
	}
}
