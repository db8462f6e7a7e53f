package notifier

import (
	"time"
)

// NoticeKind indicates which dashboard banner produced a notice.
type NoticeKind string

const (
	NoticeKindError   NoticeKind = "error"
	NoticeKindSuccess NoticeKind = "success"
)

// Notice is a banner message relayed to external channels.
type Notice struct {
	Kind    NoticeKind
	Message string

	// Set when the notice announces a newly posted token
	TokenName       string
	ContractAddress string

	// Dashboard metadata
	SessionID string
	Timestamp time.Time
}

// HasToken reports whether the notice carries token details.
func (n Notice) HasToken() bool {
	return n.TokenName != "" || n.ContractAddress != ""
}

// Notifier is the interface for relaying dashboard notices to various channels.
type Notifier interface {
	// SendNotice relays a notice. Implementations must not block the caller
	// on network I/O failures; errors are logged, not returned.
	SendNotice(notice Notice)

	// Close cleans up any resources.
	Close() error
}

// MultiNotifier broadcasts notices to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a new MultiNotifier with the given notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	// Filter out nil notifiers
	var active []Notifier
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &MultiNotifier{notifiers: active}
}

// SendNotice sends the notice to all registered notifiers.
func (m *MultiNotifier) SendNotice(notice Notice) {
	for _, n := range m.notifiers {
		n.SendNotice(notice)
	}
}

// Close closes all registered notifiers.
func (m *MultiNotifier) Close() error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Count returns the number of active notifiers.
func (m *MultiNotifier) Count() int {
	return len(m.notifiers)
}
