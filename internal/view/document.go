package view

import (
	"sync"
)

// Element is the state of one document element.
type Element struct {
	ID      string `json:"id"`
	Text    string `json:"text,omitempty"`
	Class   string `json:"class,omitempty"`
	Visible bool   `json:"visible"`
	Markup  string `json:"markup,omitempty"`
}

// Document is an in-memory element store implementing ViewPort. Writes to
// unknown ids are ignored. Version increases on every effective change.
type Document struct {
	mu       sync.RWMutex
	elements map[string]*Element
	order    []string
	version  uint64
}

// NewDocument creates a document holding the given element ids, all
// visible and empty.
func NewDocument(ids ...string) *Document {
	d := &Document{elements: make(map[string]*Element, len(ids))}
	for _, id := range ids {
		if _, ok := d.elements[id]; ok {
			continue
		}
		d.elements[id] = &Element{ID: id, Visible: true}
		d.order = append(d.order, id)
	}
	return d
}

// NewDashboardDocument creates the dashboard template in its initial state:
// disconnected, loading, no banners.
func NewDashboardDocument() *Document {
	d := NewDocument(RequiredElements...)

	d.SetClass(IDStatusIndicator, ClassDisconnected)
	d.SetText(IDStatusText, "Connecting...")
	d.SetText(IDTokensFound, "0")
	d.SetText(IDTokensPosted, "0")
	d.SetClass(IDMonitorStatus, "badge bg-secondary")
	d.SetText(IDMonitorStatus, "Unknown")
	d.SetText(IDLastCheck, "Never")
	d.SetVisible(IDTokensList, false)
	d.SetVisible(IDEmptyTokens, false)
	d.SetVisible(IDLoadingTokens, true)
	d.SetVisible(IDErrorAlert, false)
	d.SetVisible(IDSuccessAlert, false)

	return d
}

func (d *Document) update(id string, fn func(e *Element) bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.elements[id]
	if !ok {
		return
	}
	if fn(e) {
		d.version++
	}
}

func (d *Document) SetText(id, text string) {
	d.update(id, func(e *Element) bool {
		if e.Text == text {
			return false
		}
		e.Text = text
		return true
	})
}

func (d *Document) SetClass(id, class string) {
	d.update(id, func(e *Element) bool {
		if e.Class == class {
			return false
		}
		e.Class = class
		return true
	})
}

func (d *Document) SetVisible(id string, visible bool) {
	d.update(id, func(e *Element) bool {
		if e.Visible == visible {
			return false
		}
		e.Visible = visible
		return true
	})
}

func (d *Document) SetListContent(id, markup string) {
	d.update(id, func(e *Element) bool {
		if e.Markup == markup {
			return false
		}
		e.Markup = markup
		return true
	})
}

// Has reports whether the document holds id.
func (d *Document) Has(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.elements[id]
	return ok
}

// Get returns a copy of one element.
func (d *Document) Get(id string) (Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.elements[id]
	if !ok {
		return Element{}, false
	}
	return *e, true
}

// Text returns the text of id, or "" when absent.
func (d *Document) Text(id string) string {
	e, _ := d.Get(id)
	return e.Text
}

// Class returns the class of id, or "" when absent.
func (d *Document) Class(id string) string {
	e, _ := d.Get(id)
	return e.Class
}

// Visible reports whether id exists and is visible.
func (d *Document) Visible(id string) bool {
	e, ok := d.Get(id)
	return ok && e.Visible
}

// Markup returns the list content of id.
func (d *Document) Markup(id string) string {
	e, _ := d.Get(id)
	return e.Markup
}

// Version returns the change counter.
func (d *Document) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// Snapshot returns copies of all elements in template order along with the
// version they were taken at.
func (d *Document) Snapshot() ([]Element, uint64) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Element, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, *d.elements[id])
	}
	return out, d.version
}
