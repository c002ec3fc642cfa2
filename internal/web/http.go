// Package web serves the counter as a server-rendered page. Every gesture is
// a form post that redirects back to the page, or a JSON call answered with
// the new screen.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"TeaCounter/internal/auth"
	"TeaCounter/internal/register"
	"TeaCounter/internal/view"
	"TeaCounter/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	Log        *zap.Logger
	Controller *register.Controller
	// Page is the controller's HTML renderer.
	Page  *view.HTML
	Store Pinger
	// Auth guards catalog edits. Nil disables the manager lock.
	Auth *auth.Server
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.handleReady)

	r.Get("/", s.handlePage)
	r.Get("/api/state", s.handleState)

	r.Post("/items/{name}/increment", s.handleIncrement)
	r.Post("/items/{name}/decrement", s.handleDecrement)
	r.Post("/dialogs/cancel", s.handleCancel)
	r.Post("/total", s.handleTotal)
	r.Post("/total/close", s.handleCloseTotal)
	r.Post("/notifications/{id}/dismiss", s.handleDismiss)

	r.Group(func(m chi.Router) {
		m.Use(s.requireManager)
		m.Post("/items/{name}/edit", s.handleShowEdit)
		m.Post("/dialogs/add", s.handleShowAdd)
		m.Post("/dialogs/remove", s.handleShowRemove)
		m.Post("/items", s.handleSubmitAddEdit)
		m.Post("/items/remove", s.handleSubmitRemove)
	})

	if s.Auth != nil {
		r.Mount("/auth", s.Auth.Routes())
	}

	return r
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.log().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	b := s.Page.Bytes()
	if b == nil {
		var err error
		if b, err = view.Page(s.Controller.Screen()); err != nil {
			s.log().Error("render page failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b)
}

type stateResp struct {
	register.Screen
	Locked bool `json:"locked"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.state(r))
}

func (s *Server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.Controller.Increment(r.Context(), itemParam(r)))
}

func (s *Server) handleDecrement(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.Controller.Decrement(r.Context(), itemParam(r)))
}

func (s *Server) handleShowEdit(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.Controller.ShowEdit(itemParam(r)))
}

func (s *Server) handleShowAdd(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.Controller.ShowAdd())
}

func (s *Server) handleShowRemove(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.Controller.ShowRemove())
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.Controller.Cancel(r.Context()))
}

type itemReq struct {
	Name  string `json:"name"`
	Price any    `json:"price"`
}

func (s *Server) handleSubmitAddEdit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeItem(w, r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad request", map[string]any{"cause": err.Error()})
		return
	}
	s.respond(w, r, s.Controller.SubmitAddEdit(r.Context(), req.Name, priceString(req.Price)))
}

func (s *Server) handleSubmitRemove(w http.ResponseWriter, r *http.Request) {
	req, err := decodeItem(w, r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad request", map[string]any{"cause": err.Error()})
		return
	}
	s.respond(w, r, s.Controller.SubmitRemove(r.Context(), req.Name))
}

func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	_, err := s.Controller.ComputeTotal()
	s.respond(w, r, err)
}

func (s *Server) handleCloseTotal(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.Controller.CloseTotal(r.Context()))
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Controller.Dismiss(id) && kit.WantsJSON(r) {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	s.respond(w, r, nil)
}

// respond finishes a gesture. Form posts always go back to the page, where
// the notification stack reports the outcome.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, err error) {
	if !kit.WantsJSON(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.log().Error("gesture failed", zap.Error(err))
		}
		kit.WriteError(w, r, status, err.Error(), nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.state(r))
}

func (s *Server) state(r *http.Request) stateResp {
	return stateResp{
		Screen: s.Controller.Screen(),
		Locked: s.Auth != nil && s.Auth.Lock.Enabled() && !s.Auth.Authorized(r),
	}
}

func (s *Server) requireManager(next http.Handler) http.Handler {
	if s.Auth == nil {
		return next
	}
	return s.Auth.RequireManager(next)
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, register.ErrInvalidName), errors.Is(err, register.ErrInvalidPrice):
		return http.StatusBadRequest
	case errors.Is(err, register.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, register.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, register.ErrDialogOpen), errors.Is(err, register.ErrNoDialog):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// itemParam reads the {name} segment. chi routes on RawPath when the request
// carries one, and only then is the segment still escaped.
func itemParam(r *http.Request) string {
	seg := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return seg
	}
	if name, err := url.PathUnescape(seg); err == nil {
		return name
	}
	return seg
}

func decodeItem(w http.ResponseWriter, r *http.Request) (itemReq, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req itemReq
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			return itemReq{}, err
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return itemReq{}, err
	}
	req.Name = r.PostForm.Get("name")
	req.Price = r.PostForm.Get("price")
	return req, nil
}

func priceString(v any) string {
	switch p := v.(type) {
	case nil:
		return ""
	case string:
		return p
	case json.Number:
		return p.String()
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64)
	default:
		return fmt.Sprint(p)
	}
}
