package view

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/net/html"
)

// Classes marking the parts of a token entry in list markup.
const (
	ClassTokenEntry   = "token-entry"
	ClassTokenName    = "token-name"
	ClassTokenAddress = "token-address"
	ClassTokenPosted  = "token-posted"
)

var tokenListTemplate = template.Must(template.New("tokens").Parse(
	`{{range .}}<div class="token-entry border-bottom py-3">` +
		`<div class="d-flex justify-content-between align-items-start">` +
		`<div class="flex-grow-1">` +
		`<h6 class="token-name mb-1">{{.Name}}</h6>` +
		`<p class="mb-1"><small class="text-muted">Contract:</small> <code class="token-address ms-1">{{.ContractAddress}}</code></p>` +
		`<small class="token-posted text-muted">{{.Posted}}</small>` +
		`</div>` +
		`<div class="text-end"><span class="badge bg-success">Posted</span></div>` +
		`</div>` +
		`</div>{{end}}`,
))

// TokenEntry is the visible text of one rendered token.
type TokenEntry struct {
	Name            string
	ContractAddress string
	Posted          string
}

// BuildTokenMarkup renders entries as list markup. Name and address are
// HTML-escaped by the template.
func BuildTokenMarkup(entries []TokenEntry) (string, error) {
	var buf bytes.Buffer
	if err := tokenListTemplate.Execute(&buf, entries); err != nil {
		return "", fmt.Errorf("render token list: %w", err)
	}
	return buf.String(), nil
}

// TextEntries parses list markup and returns the visible text of every
// token entry in document order.
func TextEntries(markup string) ([]TokenEntry, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse list markup: %w", err)
	}

	var entries []TokenEntry
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, ClassTokenEntry) {
			entries = append(entries, TokenEntry{
				Name:            textOf(findByClass(n, ClassTokenName)),
				ContractAddress: textOf(findByClass(n, ClassTokenAddress)),
				Posted:          textOf(findByClass(n, ClassTokenPosted)),
			})
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return entries, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func findByClass(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && hasClass(c, class) {
			return c
		}
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}
