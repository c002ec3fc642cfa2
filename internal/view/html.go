// Package view projects the controller's screen onto HTML for the web
// front-end and onto styled text for the terminal. Rendering is a full
// rebuild from state every time.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"TeaCounter/internal/catalog"
	"TeaCounter/internal/register"
)

//go:embed templates/*
var templateFS embed.FS

const currency = "₹"

// refreshAfter reloads a page that shows notifications once they have
// expired, in seconds. Pages with an open form never reload.
const refreshAfter = 4

var page = template.Must(template.New("page.gohtml").Funcs(template.FuncMap{
	"capitalize": catalog.Capitalize,
	"price":      FormatPrice,
	"pathEscape": url.PathEscape,
}).ParseFS(templateFS, "templates/page.gohtml"))

type pageData struct {
	register.Screen
	ManagerLock  bool
	RefreshAfter int
}

// Page renders the full calculator page for s.
func Page(s register.Screen) ([]byte, error) {
	return renderPage(s, false)
}

func renderPage(s register.Screen, managerLock bool) ([]byte, error) {
	refresh := refreshAfter
	switch s.Dialog.Mode {
	case register.ModeAddEdit, register.ModeRemove:
		// Never reload under an open form.
		refresh = 0
	}

	var buf bytes.Buffer
	err := page.Execute(&buf, pageData{
		Screen:       s,
		ManagerLock:  managerLock,
		RefreshAfter: refresh,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatPrice prints a price the way the counter shows it: currency sign,
// no trailing zeros.
func FormatPrice(p float64) string {
	return currency + formatNumber(p)
}

func formatNumber(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// HTML is a register.Renderer that keeps the most recent page. The web
// front-end serves Bytes.
type HTML struct {
	// ManagerLock adds the unlock and lock forms to the page.
	ManagerLock bool
	Log         *zap.Logger

	mu     sync.RWMutex
	page   []byte
	screen register.Screen
}

func (h *HTML) Render(s register.Screen) {
	b, err := renderPage(s, h.ManagerLock)
	if err != nil {
		if h.Log != nil {
			h.Log.Error("render page failed", zap.Error(err))
		}
		return
	}

	h.mu.Lock()
	h.page = b
	h.screen = s
	h.mu.Unlock()
}

// Bytes returns the last rendered page.
func (h *HTML) Bytes() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.page
}

// Screen returns the state the last page was rendered from.
func (h *HTML) Screen() register.Screen {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.screen
}
