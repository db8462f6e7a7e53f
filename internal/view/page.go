package view

import (
	"bytes"
	"fmt"
	"html/template"
)

// pageTemplate is the browser rendering of the dashboard document.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="{{.RefreshSeconds}}">
<title>Crypto Token Monitor</title>
<link href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.0/dist/css/bootstrap.min.css" rel="stylesheet">
<link href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.4.0/css/all.min.css" rel="stylesheet">
</head>
<body class="bg-light">
<nav class="navbar navbar-dark bg-dark mb-4">
  <div class="container">
    <span class="navbar-brand"><i class="fas fa-coins me-2"></i>Crypto Token Monitor</span>
    <span class="navbar-text"><i id="status-indicator" class="{{.Class "status-indicator"}}"></i><span id="status-text">{{.Text "status-text"}}</span></span>
  </div>
</nav>
<div class="container">
  <div id="error-alert" class="alert alert-danger{{.Hidden "error-alert"}}"><span id="error-message">{{.Text "error-message"}}</span></div>
  <div id="success-alert" class="alert alert-success{{.Hidden "success-alert"}}"><span id="success-message">{{.Text "success-message"}}</span></div>
  <div class="row mb-4">
    <div class="col-md-3"><div class="card"><div class="card-body"><h6 class="text-muted">Tokens Found</h6><h3 id="tokens-found">{{.Text "tokens-found"}}</h3></div></div></div>
    <div class="col-md-3"><div class="card"><div class="card-body"><h6 class="text-muted">Tokens Posted</h6><h3 id="tokens-posted">{{.Text "tokens-posted"}}</h3></div></div></div>
    <div class="col-md-3"><div class="card"><div class="card-body"><h6 class="text-muted">Monitor Status</h6><span id="monitor-status" class="{{.Class "monitor-status"}}">{{.Text "monitor-status"}}</span></div></div></div>
    <div class="col-md-3"><div class="card"><div class="card-body"><h6 class="text-muted">Last Check</h6><span id="last-check">{{.Text "last-check"}}</span></div></div></div>
  </div>
  <div class="card">
    <div class="card-header d-flex justify-content-between align-items-center">
      <span>Posted Tokens</span>
      <form method="post" action="/api/refresh"><button class="btn btn-sm btn-outline-primary" type="submit"><i class="fas fa-sync-alt"></i> Refresh</button></form>
    </div>
    <div class="card-body">
      <div id="loading-tokens" class="text-center py-4{{.Hidden "loading-tokens"}}"><div class="spinner-border" role="status"></div></div>
      <div id="empty-tokens" class="text-center text-muted py-4{{.Hidden "empty-tokens"}}">No tokens posted yet</div>
      <div id="tokens-list" class="{{.Hidden "tokens-list"}}">{{.Markup "tokens-list"}}</div>
    </div>
  </div>
</div>
</body>
</html>
`

var page = template.Must(template.New("page").Parse(pageTemplate))

type pageData struct {
	byID           map[string]Element
	RefreshSeconds int
}

func (p pageData) Text(id string) string  { return p.byID[id].Text }
func (p pageData) Class(id string) string { return p.byID[id].Class }

// Hidden returns the class suffix for hidden elements.
func (p pageData) Hidden(id string) string {
	if p.byID[id].Visible {
		return ""
	}
	return " d-none"
}

// Markup returns list content as trusted HTML; it is produced by
// BuildTokenMarkup, which escapes every field.
func (p pageData) Markup(id string) template.HTML {
	return template.HTML(p.byID[id].Markup)
}

// RenderPage renders a document snapshot as a standalone HTML page that
// reloads itself every refreshSeconds.
func RenderPage(elements []Element, refreshSeconds int) (string, error) {
	if refreshSeconds < 1 {
		refreshSeconds = 1
	}

	data := pageData{
		byID:           make(map[string]Element, len(elements)),
		RefreshSeconds: refreshSeconds,
	}
	for _, e := range elements {
		data.byID[e.ID] = e
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return buf.String(), nil
}
