package view

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorDanger  = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorAccent  = lipgloss.Color("#3B82F6")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(colorMuted)
	valueStyle = lipgloss.NewStyle().Bold(true)
)

const clearScreen = "\033[H\033[2J"

// Terminal repaints the document to a writer whenever it changes.
type Terminal struct {
	logger  *zap.Logger
	doc     *Document
	out     io.Writer
	clock   clockwork.Clock
	width   int
	refresh time.Duration
	clear   bool

	lastVersion uint64
	painted     bool
}

func NewTerminal(logger *zap.Logger, doc *Document, out io.Writer, clock clockwork.Clock, width int, refresh time.Duration) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Terminal{
		logger:  logger,
		doc:     doc,
		out:     out,
		clock:   clock,
		width:   width,
		refresh: refresh,
		clear:   true,
	}
}

// Run polls the document version and repaints on change until ctx is done.
func (t *Terminal) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(t.refresh)
	defer ticker.Stop()

	t.PaintIfChanged()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.PaintIfChanged()
		}
	}
}

// PaintIfChanged repaints when the document moved past the last painted
// version. It reports whether a paint happened.
func (t *Terminal) PaintIfChanged() bool {
	elements, version := t.doc.Snapshot()
	if t.painted && version == t.lastVersion {
		return false
	}

	frame := RenderTerminal(elements, t.width)
	if t.clear {
		frame = clearScreen + frame
	}
	if _, err := io.WriteString(t.out, frame+"\n"); err != nil {
		t.logger.Warn("terminal paint failed", zap.Error(err))
		return false
	}

	t.lastVersion = version
	t.painted = true
	return true
}

// RenderTerminal lays out a document snapshot as styled text.
func RenderTerminal(elements []Element, width int) string {
	byID := make(map[string]Element, len(elements))
	for _, e := range elements {
		byID[e.ID] = e
	}

	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	sections := []string{
		titleStyle.Render("Crypto Token Monitor"),
		renderStatusLine(byID),
	}

	if banner := renderBanner(byID[IDErrorAlert], byID[IDErrorMessage], colorDanger, "✗"); banner != "" {
		sections = append(sections, banner)
	}
	if banner := renderBanner(byID[IDSuccessAlert], byID[IDSuccessMessage], colorSuccess, "✓"); banner != "" {
		sections = append(sections, banner)
	}

	sections = append(sections,
		panelStyle.Width(inner).Render(renderStatsPanel(byID)),
		panelStyle.Width(inner).Render(renderTokensPanel(byID)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderStatusLine(byID map[string]Element) string {
	indicator := byID[IDStatusIndicator]
	color := colorDanger
	if strings.Contains(indicator.Class, "text-success") {
		color = colorSuccess
	}
	dot := lipgloss.NewStyle().Foreground(color).Render("●")
	return dot + " " + printable(byID[IDStatusText].Text)
}

func renderBanner(alert, message Element, color lipgloss.Color, mark string) string {
	if !alert.Visible {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Render(mark + " " + printable(message.Text))
}

func renderStatsPanel(byID map[string]Element) string {
	badge := byID[IDMonitorStatus]
	badgeColor := colorMuted
	switch badge.Class {
	case ClassRunning:
		badgeColor = colorSuccess
	case ClassStopped:
		badgeColor = colorDanger
	}

	rows := []string{
		labelStyle.Render("Tokens found:  ") + valueStyle.Render(byID[IDTokensFound].Text),
		labelStyle.Render("Tokens posted: ") + valueStyle.Render(byID[IDTokensPosted].Text),
		labelStyle.Render("Monitor:       ") + lipgloss.NewStyle().Foreground(badgeColor).Bold(true).Render(printable(badge.Text)),
		labelStyle.Render("Last check:    ") + printable(byID[IDLastCheck].Text),
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderTokensPanel(byID map[string]Element) string {
	header := valueStyle.Render("Posted tokens")

	switch {
	case byID[IDLoadingTokens].Visible:
		return lipgloss.JoinVertical(lipgloss.Left, header, labelStyle.Render("Loading..."))
	case byID[IDEmptyTokens].Visible:
		return lipgloss.JoinVertical(lipgloss.Left, header, labelStyle.Render("No tokens posted yet"))
	case !byID[IDTokensList].Visible:
		return header
	}

	entries, err := TextEntries(byID[IDTokensList].Markup)
	if err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, header, labelStyle.Render(err.Error()))
	}

	rows := []string{header}
	for i, e := range entries {
		rows = append(rows, fmt.Sprintf("%2d. %s  %s  %s",
			i+1,
			valueStyle.Render(printable(e.Name)),
			lipgloss.NewStyle().Foreground(colorAccent).Render(printable(e.ContractAddress)),
			labelStyle.Render(printable(e.Posted)),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// printable drops control and other non-printing runes from backend text so
// it cannot move the cursor or restyle the terminal.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		if unicode.IsSpace(r) {
			return ' '
		}
		return -1
	}, s)
}
