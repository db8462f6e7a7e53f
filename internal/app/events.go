package app

import (
	"tokendash/clients/monitorapi"
	"tokendash/clients/notifier"
)

// Event is anything the dispatcher applies. The set is closed; the
// unexported method keeps other packages from adding to it.
type Event interface {
	eventName() string
}

// Push channel events.
type (
	Connected    struct{}
	Disconnected struct{}

	NewToken struct {
		Token monitorapi.TokenRecord
	}

	StatsUpdate struct {
		Stats monitorapi.StatsSnapshot
	}

	MonitorError struct {
		Message string
	}
)

// Timer and loop-internal events.
type (
	Tick struct{}

	LoadStats  struct{}
	LoadTokens struct{}

	StatsLoaded struct {
		Stats monitorapi.StatsSnapshot
	}

	TokensLoaded struct {
		Tokens []monitorapi.TokenRecord
	}

	// FetchFailed carries the banner text for a failed read. Err is the
	// underlying cause, kept for logging.
	FetchFailed struct {
		Endpoint string
		Message  string
		Err      error
	}

	BannerExpired struct {
		Kind notifier.NoticeKind
		Seq  uint64
	}
)

func (Connected) eventName() string     { return "Connected" }
func (Disconnected) eventName() string  { return "Disconnected" }
func (NewToken) eventName() string      { return "NewToken" }
func (StatsUpdate) eventName() string   { return "StatsUpdate" }
func (MonitorError) eventName() string  { return "MonitorError" }
func (Tick) eventName() string          { return "Tick" }
func (LoadStats) eventName() string     { return "LoadStats" }
func (LoadTokens) eventName() string    { return "LoadTokens" }
func (StatsLoaded) eventName() string   { return "StatsLoaded" }
func (TokensLoaded) eventName() string  { return "TokensLoaded" }
func (FetchFailed) eventName() string   { return "FetchFailed" }
func (BannerExpired) eventName() string { return "BannerExpired" }

// EventName returns the label used for an event in logs and metrics.
func EventName(ev Event) string {
	if ev == nil {
		return "nil"
	}
	return ev.eventName()
}
