//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8080")

type entry struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type screen struct {
	Items  []entry `json:"items"`
	Dialog struct {
		Mode  string  `json:"mode"`
		Total float64 `json:"total"`
	} `json:"dialog"`
	Locked bool `json:"locked"`
}

func (s screen) find(name string) (entry, bool) {
	for _, e := range s.Items {
		if e.Name == name {
			return e, true
		}
	}
	return entry{}, false
}

func TestSystem_E2E_OrderAndPersistence(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var st screen
	doJSON(t, http.MethodGet, baseURL+"/api/state", "", nil, &st, 200)
	if st.Dialog.Mode != "idle" {
		doJSON(t, http.MethodPost, baseURL+"/dialogs/cancel", "", nil, &st, 200)
	}

	token := ""
	if st.Locked {
		pin := os.Getenv("E2E_MANAGER_PIN")
		if pin == "" {
			t.Skip("manager lock is on and E2E_MANAGER_PIN is not set")
		}
		var unlock struct {
			AccessToken string `json:"access_token"`
		}
		doJSON(t, http.MethodPost, baseURL+"/auth/unlock", "", map[string]any{"pin": pin}, &unlock, 200)
		token = unlock.AccessToken
	}

	name := fmt.Sprintf("itest %d", rand.Intn(1_000_000))
	item := baseURL + "/items/" + url.PathEscape(name)

	doJSON(t, http.MethodPost, baseURL+"/dialogs/add", token, nil, nil, 200)
	doJSON(t, http.MethodPost, baseURL+"/items", token, map[string]any{"name": name, "price": 12.5}, &st, 200)
	if _, ok := st.find(name); !ok {
		t.Fatalf("added item missing from state: %#v", st.Items)
	}

	doJSON(t, http.MethodPost, item+"/increment", "", nil, nil, 200)
	doJSON(t, http.MethodPost, item+"/increment", "", nil, &st, 200)
	if e, _ := st.find(name); e.Quantity != 2 {
		t.Fatalf("quantity=%d want 2", e.Quantity)
	}

	if os.Getenv("E2E_RESTART") == "1" {
		restartCounterContainer(t, ctx)
		waitReady(t, ctx, baseURL+"/readyz")

		doJSON(t, http.MethodGet, baseURL+"/api/state", "", nil, &st, 200)
		if e, ok := st.find(name); !ok || e.Quantity != 2 || e.Price != 12.5 {
			t.Fatalf("state not persisted across restart: %#v", e)
		}
	}

	doJSON(t, http.MethodPost, baseURL+"/total", "", nil, &st, 200)
	if st.Dialog.Mode != "total" || st.Dialog.Total < 25 {
		t.Fatalf("unexpected total dialog: %#v", st.Dialog)
	}
	doJSON(t, http.MethodPost, baseURL+"/total/close", "", nil, &st, 200)
	for _, e := range st.Items {
		if e.Quantity != 0 {
			t.Fatalf("%s quantity=%d after reset", e.Name, e.Quantity)
		}
	}

	doJSON(t, http.MethodPost, baseURL+"/dialogs/remove", token, nil, nil, 200)
	doJSON(t, http.MethodPost, baseURL+"/items/remove", token, map[string]any{"name": name}, &st, 200)
	doJSON(t, http.MethodPost, item+"/increment", "", nil, nil, 404)
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url, token string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
