package kit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestIPRateLimiter_PerIPBuckets(t *testing.T) {
	l := NewIPRateLimiter(2, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatal("burst of 2 should pass")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatal("other IPs have their own bucket")
	}

	now = now.Add(30 * time.Second)
	if !l.Allow("10.0.0.1") {
		t.Fatal("one token refills every 30s")
	}
}

func TestIPRateLimiter_EvictsIdle(t *testing.T) {
	l := NewIPRateLimiter(1, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	now = now.Add(visitorIdle + time.Second)
	l.Allow("10.0.0.2")

	if _, ok := l.visitors["10.0.0.1"]; ok {
		t.Fatal("idle visitor not evicted")
	}
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	l := NewIPRateLimiter(1, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes=%v", codes)
	}
}

func TestWantsJSON(t *testing.T) {
	cases := map[string]bool{
		"":                                  false,
		"text/html":                         false,
		"application/json":                  true,
		"text/html, application/json;q=0.9": true,
		"application/json; charset=utf-8":   true,
		"application/jsonp":                 false,
	}
	for accept, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", accept)
		if got := WantsJSON(r); got != want {
			t.Fatalf("WantsJSON(%q)=%v want %v", accept, got, want)
		}
	}
}

func TestMetricsAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	check := func(token, header string, want int) {
		t.Helper()
		r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		MetricsAuth(token)(ok).ServeHTTP(rr, r)
		if rr.Code != want {
			t.Fatalf("token=%q header=%q: status=%d want=%d", token, header, rr.Code, want)
		}
	}

	check("", "", http.StatusOK)
	check("s3cret", "", http.StatusForbidden)
	check("s3cret", "Bearer nope", http.StatusForbidden)
	check("s3cret", "Bearer s3cret", http.StatusOK)
}

func TestChiRoutePatternOrPath(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/items/{name}", func(_ http.ResponseWriter, r *http.Request) {
		got = ChiRoutePatternOrPath(r)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/tea", nil))

	if got != "/items/{name}" {
		t.Fatalf("pattern=%q", got)
	}

	plain := httptest.NewRequest(http.MethodGet, "/no/router", nil)
	if p := ChiRoutePatternOrPath(plain); p != "/no/router" {
		t.Fatalf("fallback=%q", p)
	}
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := Recoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/items/tea/increment", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"error":"server error"`) {
		t.Fatalf("body=%s", rr.Body.String())
	}
	entries := logs.FilterMessage("handler panic").All()
	if len(entries) != 1 || entries[0].ContextMap()["panic"] != "boom" {
		t.Fatalf("logs=%v", logs.All())
	}
}

func TestLogging_LevelFollowsStatus(t *testing.T) {
	cases := []struct {
		path   string
		status int
		want   zapcore.Level
	}{
		{"/", http.StatusOK, zapcore.InfoLevel},
		{"/healthz", http.StatusOK, zapcore.DebugLevel},
		{"/readyz", http.StatusServiceUnavailable, zapcore.ErrorLevel},
		{"/items/chai/increment", http.StatusNotFound, zapcore.WarnLevel},
		{"/total", http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		core, logs := observer.New(zap.DebugLevel)
		h := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.path, nil))

		all := logs.All()
		if len(all) != 1 || all[0].Level != tc.want {
			t.Fatalf("%s %d: logs=%v want level %v", tc.path, tc.status, all, tc.want)
		}
		if got := all[0].ContextMap()["status"]; got != int64(tc.status) {
			t.Fatalf("%s: status field=%v", tc.path, got)
		}
	}
}

func TestMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware("teacounter", ChiRoutePatternOrPath))
	r.Post("/items/{name}/increment", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, accept := range []string{"application/json", "text/html", "application/json"} {
		req := httptest.NewRequest(http.MethodPost, "/items/tea/increment", nil)
		req.Header.Set("Accept", accept)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	jsonCalls := m.Requests.WithLabelValues("teacounter", http.MethodPost, "/items/{name}/increment", "200", "json")
	if got := testutil.ToFloat64(jsonCalls); got != 2 {
		t.Fatalf("json requests=%v", got)
	}
	formPosts := m.Requests.WithLabelValues("teacounter", http.MethodPost, "/items/{name}/increment", "200", "html")
	if got := testutil.ToFloat64(formPosts); got != 1 {
		t.Fatalf("html requests=%v", got)
	}
	if got := testutil.ToFloat64(m.InFlight.WithLabelValues("teacounter")); got != 0 {
		t.Fatalf("in flight=%v", got)
	}
}
