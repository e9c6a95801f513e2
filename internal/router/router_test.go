package router

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRouter_Get(t *testing.T) {
	r := New()

	called := false
	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if !called {
		t.Error("handler was not called")
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestRouter_MiddlewareOrder(t *testing.T) {
	var order []string

	middleware1 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "before1")
			next.ServeHTTP(w, r)
			order = append(order, "after1")
		})
	}

	middleware2 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "before2")
			next.ServeHTTP(w, r)
			order = append(order, "after2")
		})
	}

	r := New(middleware1)
	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusOK)
	}, middleware2)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	expected := []string{"before1", "before2", "handler", "after2", "after1"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d elements, got %d", len(expected), len(order))
	}

	for i, v := range expected {
		if order[i] != v {
			t.Errorf("position %d: expected %s, got %s", i, v, order[i])
		}
	}
}

func TestRouter_Group(t *testing.T) {
	globalCalled := false
	groupCalled := false

	globalMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			globalCalled = true
			next.ServeHTTP(w, r)
		})
	}

	groupMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			groupCalled = true
			next.ServeHTTP(w, r)
		})
	}

	r := New(globalMiddleware)
	group := r.Group(groupMiddleware)

	group.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if !globalCalled {
		t.Error("global middleware was not called")
	}
	if !groupCalled {
		t.Error("group middleware was not called")
	}
}

func TestRouter_PathValue(t *testing.T) {
	r := New()

	var got string
	r.Post("/invoices/{id}/resend", func(w http.ResponseWriter, r *http.Request) {
		got = r.PathValue("id")
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/invoices/abc-123/resend", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got != "abc-123" {
		t.Errorf("expected id abc-123, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/invoices/abc-123/resend", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestRouter_Static(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "INV-20250314-K7Q2.pdf"), []byte("%PDF-1.3"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New()
	r.Static("/files/", dir)

	req := httptest.NewRequest(http.MethodGet, "/files/INV-20250314-K7Q2.pdf", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "%PDF-1.3" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestRecovery(t *testing.T) {
	r := New(Recovery(slog.New(slog.DiscardHandler)))
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("renderer exploded")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"internal"`) {
		t.Errorf("expected internal error body, got %s", w.Body.String())
	}
}

func TestLogger_CapturesStatus(t *testing.T) {
	var buf bytes.Buffer
	r := New(Logger(slog.New(slog.NewJSONHandler(&buf, nil))))
	r.Get("/invoices", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), `"status":418`) {
		t.Errorf("expected status in log line, got %s", buf.String())
	}
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"https://desk.example.com"})(New())

	req := httptest.NewRequest(http.MethodOptions, "/invoices", nil)
	req.Header.Set("Origin", "https://desk.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://desk.example.com" {
		t.Errorf("expected allowed origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/invoices", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no allow header for unknown origin, got %q", got)
	}
}

func TestRouter_UnmatchedJSON(t *testing.T) {
	r := New()
	r.Post("/invoices", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		method string
		path   string
		status int
		code   string
	}{
		{http.MethodGet, "/nope", http.StatusNotFound, `"code":"not_found"`},
		{http.MethodGet, "/invoices", http.StatusMethodNotAllowed, `"code":"method_not_allowed"`},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tt.status {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.status, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s %s: expected JSON content type, got %q", tt.method, tt.path, ct)
		}
		if !strings.Contains(w.Body.String(), tt.code) {
			t.Errorf("%s %s: unexpected body %s", tt.method, tt.path, w.Body.String())
		}
	}
}

func TestRouter_StaticNoListing(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "invoices"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := New()
	r.Static("/files/", dir)

	for _, path := range []string{"/files/", "/files/invoices/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", path, w.Code)
		}
	}
}
