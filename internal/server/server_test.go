package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/contactkeval/option-lattice/internal/config"
	"github.com/contactkeval/option-lattice/internal/engine"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	cfg.LogLevel = "error"
	cfg.Option.Steps = 4
	return NewRouter(engine.NewEngine(cfg, nil))
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(newTestRouter(t), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", w.Code, w.Body.String())
	}
}

func TestPrice(t *testing.T) {
	body := `{"option_type":"put","spot":100,"strike":100,"expiry":1,"rate":0.05,"vol":0.25,"steps":4}`
	w := do(newTestRouter(t), http.MethodPost, "/price", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res engine.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if res.AmericanPrice < 7.71 || res.AmericanPrice > 7.7101 {
		t.Fatalf("unexpected american price %v", res.AmericanPrice)
	}
	if len(res.Boundary) != 3 {
		t.Fatalf("expected 3 boundary points, got %d", len(res.Boundary))
	}
}

func TestPrice_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"option_type":`},
		{"unknown option type", `{"option_type":"straddle","spot":100,"strike":100,"expiry":1,"vol":0.2,"steps":10}`},
		{"missing strike", `{"option_type":"put","spot":100,"expiry":1,"vol":0.2,"steps":10}`},
		{"zero steps", `{"option_type":"put","spot":100,"strike":100,"expiry":1,"vol":0.2,"steps":0}`},
		{"too many steps", `{"option_type":"put","spot":100,"strike":100,"expiry":1,"vol":0.2,"steps":2000000}`},
		{"bad strike rule", `{"option_type":"put","spot":100,"strike_rule":"DELTA:30","expiry":1,"vol":0.2,"steps":10}`},
		{"no spot without underlying", `{"option_type":"put","strike":100,"expiry":1,"vol":0.2,"steps":10}`},
		{"probability out of range", `{"option_type":"put","spot":100,"strike":100,"expiry":1,"rate":0.05,"vol":0.000001,"steps":10}`},
	}

	r := newTestRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/price", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Fatalf("expected error body, got %s", w.Body.String())
			}
		})
	}
}

func TestRun(t *testing.T) {
	w := do(newTestRouter(t), http.MethodPost, "/run", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"steps":4`) {
		t.Fatalf("expected configured run, got %s", w.Body.String())
	}
}

func TestConcurrentRequests(t *testing.T) {
	r := newTestRouter(t)
	body := `{"option_type":"call","spot":100,"strike":95,"expiry":0.5,"rate":0.05,"vol":0.3,"steps":20}`

	var wg sync.WaitGroup
	codes := make([]int, 8)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				codes[i] = do(r, http.MethodPost, "/run", "").Code
			} else {
				codes[i] = do(r, http.MethodPost, "/price", body).Code
			}
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler()); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}
