package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/jellyfin-mqtt/internal/audit"
	"github.com/nerrad567/jellyfin-mqtt/internal/infrastructure/config"
	"github.com/nerrad567/jellyfin-mqtt/internal/infrastructure/logging"
	"github.com/nerrad567/jellyfin-mqtt/internal/scheduler"
)

// ============================================================================
// Mocks
// ============================================================================

type MockStatus struct{ status scheduler.Status }

func (m MockStatus) Status() scheduler.Status { return m.status }

type MockChecker struct{ err error }

func (m MockChecker) HealthCheck(context.Context) error { return m.err }

type MockCommands struct {
	filter audit.Filter
	result *audit.ListResult
	err    error
}

func (m *MockCommands) Create(context.Context, *audit.Entry) error { return nil }

func (m *MockCommands) List(_ context.Context, f audit.Filter) (*audit.ListResult, error) {
	m.filter = f
	return m.result, m.err
}

func testServer(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Status == nil {
		deps.Status = MockStatus{}
	}
	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv.buildRouter()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ============================================================================
// Construction and lifecycle
// ============================================================================

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{Status: MockStatus{}}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: logging.Discard()}); err == nil {
		t.Error("New() without status should fail")
	}
}

func TestServer_StartAndClose(t *testing.T) {
	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Port:     0,
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		Logger:  logging.Discard(),
		Status:  MockStatus{},
		Version: "test",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestServer_CloseBeforeStart(t *testing.T) {
	srv, err := New(Deps{Logger: logging.Discard(), Status: MockStatus{}})
	if err != nil {
		t.Fatal(err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// ============================================================================
// Handlers
// ============================================================================

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]Checker
		wantStatus int
		wantBody   string
	}{
		{"no checks", nil, http.StatusOK, `"status":"ok"`},
		{"all healthy", map[string]Checker{"mqtt": MockChecker{}, "database": MockChecker{}}, http.StatusOK, `"mqtt":"ok"`},
		{"one failing", map[string]Checker{"mqtt": MockChecker{errors.New("not connected")}}, http.StatusServiceUnavailable, `"mqtt":"not connected"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, testServer(t, Deps{Checks: tt.checks, Version: "1.2.3"}), "/healthz")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want it to contain %s", rec.Body.String(), tt.wantBody)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID header")
			}
		})
	}
}

func TestRequestID_Reused(t *testing.T) {
	h := testServer(t, Deps{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("X-Request-ID = %q, want abc", got)
	}
}

func TestStatus(t *testing.T) {
	status := scheduler.Status{
		Ticks:       7,
		FailedSteps: []string{"tasks"},
		Groups:      map[string]bool{"sessions": true},
		Registry:    map[string]int{"session": 2},
		Dropped:     3,
	}
	rec := get(t, testServer(t, Deps{Status: MockStatus{status}}), "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got scheduler.Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Ticks != 7 || got.Dropped != 3 || got.Registry["session"] != 2 || !got.Groups["sessions"] {
		t.Errorf("status = %+v", got)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	rec := get(t, testServer(t, Deps{Gatherer: reg}), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "test_total 1") {
		t.Errorf("metrics body missing counter:\n%s", body)
	}
}

func TestListCommands(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		rec := get(t, testServer(t, Deps{}), "/api/v1/commands")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("filters passed through", func(t *testing.T) {
		repo := &MockCommands{result: &audit.ListResult{
			Entries: []audit.Entry{{ID: "cmd-1", Outcome: "ok"}},
			Total:   1,
			Limit:   10,
		}}
		rec := get(t, testServer(t, Deps{Commands: repo}), "/api/v1/commands?category=sessions&outcome=ok&limit=10&offset=5")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		want := audit.Filter{Category: "sessions", Outcome: "ok", Limit: 10, Offset: 5}
		if repo.filter != want {
			t.Errorf("filter = %+v, want %+v", repo.filter, want)
		}
		if !strings.Contains(rec.Body.String(), `"cmd-1"`) {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := get(t, testServer(t, Deps{Commands: &MockCommands{}}), "/api/v1/commands?limit=-1")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("repository error", func(t *testing.T) {
		repo := &MockCommands{err: errors.New("disk I/O error")}
		rec := get(t, testServer(t, Deps{Commands: repo}), "/api/v1/commands")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}

func TestRecovery(t *testing.T) {
	srv, err := New(Deps{Logger: logging.Discard(), Status: panicStatus{}})
	if err != nil {
		t.Fatal(err)
	}
	rec := get(t, srv.buildRouter(), "/api/v1/status")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

type panicStatus struct{}

func (panicStatus) Status() scheduler.Status { panic("boom") }
