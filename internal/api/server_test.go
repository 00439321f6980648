// internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	handlerapi "github.com/newthinker/vega/internal/api/handler/api"
	"github.com/newthinker/vega/internal/backtest"
	"github.com/newthinker/vega/internal/metrics"
)

type okRunner struct{}

func (okRunner) Run(ctx context.Context, req backtest.Request) (*backtest.Result, error) {
	return &backtest.Result{ID: "run-1", Symbol: req.Symbol, FinalEquity: req.InitialCapital}, nil
}

func testDeps() Dependencies {
	return Dependencies{
		Resolve: func(source string) (handlerapi.Runner, error) { return okRunner{}, nil },
		Defaults: handlerapi.Defaults{
			Start:          time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			End:            time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
			InitialCapital: 10000,
		},
	}
}

func TestServer_Health(t *testing.T) {
	srv, err := NewServer(Config{Addr: ":0"}, testDeps(), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("expected ok status, got %s", w.Body.String())
	}
}

func TestServer_RequiresResolver(t *testing.T) {
	_, err := NewServer(Config{Addr: ":0"}, Dependencies{}, zap.NewNop())
	if err == nil {
		t.Error("expected error without a resolver")
	}
}

func TestServer_APIAuth_Required(t *testing.T) {
	srv, _ := NewServer(Config{Addr: ":0", APIKey: "test-key"}, testDeps(), zap.NewNop())

	req := httptest.NewRequest("GET", "/api/v1/symbols", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", w.Code)
	}
}

func TestServer_APIAuth_ValidKey(t *testing.T) {
	srv, _ := NewServer(Config{Addr: ":0", APIKey: "test-key"}, testDeps(), zap.NewNop())

	req := httptest.NewRequest("GET", "/api/v1/symbols", nil)
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with key, got %d", w.Code)
	}
}

func TestServer_APIAuth_Disabled(t *testing.T) {
	srv, _ := NewServer(Config{Addr: ":0"}, testDeps(), zap.NewNop())

	req := httptest.NewRequest("GET", "/api/v1/symbols", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with disabled auth, got %d", w.Code)
	}
}

func TestServer_HealthSkipsAuth(t *testing.T) {
	srv, _ := NewServer(Config{Addr: ":0", APIKey: "test-key"}, testDeps(), zap.NewNop())

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected health to skip auth, got %d", w.Code)
	}
}

func TestServer_RequestID(t *testing.T) {
	srv, _ := NewServer(Config{Addr: ":0"}, testDeps(), zap.NewNop())

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestServer_Metrics(t *testing.T) {
	deps := testDeps()
	deps.Metrics = metrics.NewRegistry()
	srv, _ := NewServer(Config{Addr: ":0"}, deps, zap.NewNop())

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_in_flight") {
		t.Error("expected exposition to include the in-flight gauge")
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	srv, _ := NewServer(Config{Addr: ":0"}, testDeps(), zap.NewNop())

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a registry, got %d", w.Code)
	}
}

func TestServer_BacktestFlow(t *testing.T) {
	srv, err := NewServer(Config{Addr: ":0"}, testDeps(), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	body := bytes.NewBufferString(`{"symbol": "AAPL", "preset": "sma_20_50"}`)
	req := httptest.NewRequest("POST", "/api/v1/backtests", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		Data struct {
			JobID string `json:"job_id"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.Data.JobID == "" {
		t.Fatal("expected job_id")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		req = httptest.NewRequest("GET", "/api/v1/backtests/"+created.Data.JobID, nil)
		w = httptest.NewRecorder()
		srv.mux.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 polling job, got %d", w.Code)
		}

		var status struct {
			Data struct {
				Status string          `json:"status"`
				Result json.RawMessage `json:"result"`
			} `json:"data"`
		}
		json.Unmarshal(w.Body.Bytes(), &status)
		if status.Data.Status == "completed" {
			if len(status.Data.Result) == 0 {
				t.Error("expected result on completed job")
			}
			break
		}
		if status.Data.Status == "failed" {
			t.Fatalf("job failed: %s", w.Body.String())
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %s", status.Data.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	srv, _ := NewServer(Config{Addr: ":0"}, testDeps(), zap.NewNop())

	req := httptest.NewRequest("GET", "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
