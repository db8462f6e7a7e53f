package view

import (
	"errors"
	"fmt"
	"strings"
)

// Element ids of the dashboard template.
const (
	IDStatusIndicator = "status-indicator"
	IDStatusText      = "status-text"
	IDTokensFound     = "tokens-found"
	IDTokensPosted    = "tokens-posted"
	IDMonitorStatus   = "monitor-status"
	IDLastCheck       = "last-check"
	IDTokensList      = "tokens-list"
	IDEmptyTokens     = "empty-tokens"
	IDLoadingTokens   = "loading-tokens"
	IDErrorAlert      = "error-alert"
	IDErrorMessage    = "error-message"
	IDSuccessAlert    = "success-alert"
	IDSuccessMessage  = "success-message"
)

// RequiredElements is every element id the renderer writes to.
var RequiredElements = []string{
	IDStatusIndicator,
	IDStatusText,
	IDTokensFound,
	IDTokensPosted,
	IDMonitorStatus,
	IDLastCheck,
	IDTokensList,
	IDEmptyTokens,
	IDLoadingTokens,
	IDErrorAlert,
	IDErrorMessage,
	IDSuccessAlert,
	IDSuccessMessage,
}

// ErrMissingElement is returned when the view-port lacks a required element.
var ErrMissingElement = errors.New("missing element")

// ViewPort is the mutation surface the renderer draws on.
type ViewPort interface {
	SetText(id, text string)
	SetClass(id, class string)
	SetVisible(id string, visible bool)
	SetListContent(id, markup string)
}

// ElementLookup reports whether an element id exists.
type ElementLookup interface {
	Has(id string) bool
}

// CheckElements verifies that every required element exists.
func CheckElements(l ElementLookup) error {
	var missing []string
	for _, id := range RequiredElements {
		if !l.Has(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingElement, strings.Join(missing, ", "))
	}
	return nil
}
