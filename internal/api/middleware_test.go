package api

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func authTestHandler(t *testing.T, key string) (http.Handler, *bool) {
	t.Helper()
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})
	log := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	return AuthMiddleware(key, log)(next), &called
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	h, called := authTestHandler(t, "secret")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if *called {
		t.Fatal("handler ran without a token")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	h, called := authTestHandler(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if *called {
		t.Fatal("handler ran with a bad token")
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	h, called := authTestHandler(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if !*called {
		t.Fatal("handler did not run with a valid token")
	}
}

func TestRequestLogger_RecordsStatus(t *testing.T) {
	var buf strings.Builder
	log := slog.New(slog.NewTextHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := RequestLogger(log)(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	out := buf.String()
	if !strings.Contains(out, "status=418") {
		t.Errorf("log line missing status: %q", out)
	}
	if !strings.Contains(out, "path=/api/health") {
		t.Errorf("log line missing path: %q", out)
	}
}
