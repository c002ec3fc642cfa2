package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"TeaCounter/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20

	CookieName = "teacounter_manager"

	unlockLimitPerMin = 5
	limitWindow       = 60 * time.Second
)

type Server struct {
	Log  *zap.Logger
	Lock *Lock
	JWT  *TokenMaker
	TTL  time.Duration
	// SecureCookie marks the manager cookie HTTPS-only.
	SecureCookie bool
}

// Routes serves /unlock and /lock. Mount it under /auth.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	unlockLimiter := kit.NewIPRateLimiter(unlockLimitPerMin, limitWindow)
	r.With(unlockLimiter.Middleware).Post("/unlock", s.handleUnlock)
	r.Post("/lock", s.handleLock)

	return r
}

type unlockReq struct {
	PIN string `json:"pin"`
}

type unlockResp struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if !s.Lock.Enabled() {
		kit.WriteError(w, r, http.StatusNotFound, "manager lock disabled", nil)
		return
	}

	pin, err := readPIN(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad request", map[string]any{"cause": err.Error()})
		return
	}
	if pin == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "pin required", nil)
		return
	}

	if err := s.Lock.Verify(pin); err != nil {
		s.log().Info("manager unlock rejected", zap.String("remote", r.RemoteAddr))
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid pin", nil)
		return
	}

	tok, exp, err := s.JWT.New(RoleManager, s.TTL)
	if err != nil {
		s.log().Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   s.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	if kit.WantsJSON(r) {
		kit.WriteJSON(w, http.StatusOK, unlockResp{AccessToken: tok, ExpiresAt: exp})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	if kit.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RequireManager rejects requests without a valid manager token. With the
// lock disabled it is a pass-through.
func (s *Server) RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Lock.Enabled() || s.Authorized(r) {
			next.ServeHTTP(w, r)
			return
		}
		if kit.WantsJSON(r) {
			kit.WriteError(w, r, http.StatusUnauthorized, "manager pin required", nil)
			return
		}
		http.Error(w, "manager pin required", http.StatusUnauthorized)
	})
}

// Authorized reports whether r carries a manager token, as a bearer token
// or the manager cookie.
func (s *Server) Authorized(r *http.Request) bool {
	tok, ok := kit.BearerToken(r)
	if !ok {
		c, err := r.Cookie(CookieName)
		if err != nil || c.Value == "" {
			return false
		}
		tok = c.Value
	}

	claims, err := s.JWT.Parse(tok)
	return err == nil && claims.Role == RoleManager
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func readPIN(r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req unlockReq
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return "", err
		}
		return strings.TrimSpace(req.PIN), nil
	}

	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return strings.TrimSpace(r.PostForm.Get("pin")), nil
}
