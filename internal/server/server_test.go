package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
)

func TestBasicRouter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	t.Run("Method Filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", ok)

		tc := []struct {
			method string
			status int
		}{
			{http.MethodGet, http.StatusOK},
			{http.MethodPost, http.StatusMethodNotAllowed},
		}

		for _, tt := range tc {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, "/ping", nil))
			if rec.Code != tt.status {
				t.Errorf("%s /ping: expected %d, got %d", tt.method, tt.status, rec.Code)
			}
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", ok)

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("expected first,second, got %v", order)
		}
	})

	t.Run("Request Logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

		router := NewBasicRouter()
		router.Use(RequestLogger(logger))
		router.Handle(http.MethodGet, "/callback", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=secret", nil))

		id := rec.Header().Get("X-Request-ID")
		if id == "" {
			t.Error("expected X-Request-ID header")
		}

		out := buf.String()
		if !strings.Contains(out, id) {
			t.Errorf("expected request id in log, got %q", out)
		}
		if !strings.Contains(out, "/callback") || !strings.Contains(out, "418") {
			t.Errorf("expected path and status in log, got %q", out)
		}
		if strings.Contains(out, "secret") {
			t.Error("query string must not be logged")
		}
	})
}

func TestCallbackHandler(t *testing.T) {
	t.Run("Invalid Redirect URI", func(t *testing.T) {
		if _, err := NewCallbackHandler("/callback"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Captures Redirect", func(t *testing.T) {
		h, err := NewCallbackHandler("http://127.0.0.1:3000/callback")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if routes := h.Routes(); len(routes) != 1 || routes[0] != "/callback" {
			t.Errorf("unexpected routes %v", routes)
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=C&state=s1", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization Received") {
			t.Errorf("expected success page, got %s", rec.Body.String())
		}

		got := <-h.Result()
		if got != "http://127.0.0.1:3000/callback?code=C&state=s1" {
			t.Errorf("unexpected redirect url %q", got)
		}
	})

	t.Run("Denied", func(t *testing.T) {
		h, _ := NewCallbackHandler("http://127.0.0.1:3000/callback")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?error=access_denied&state=s1", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "access_denied") {
			t.Errorf("expected reason on page, got %s", rec.Body.String())
		}
		if got := <-h.Result(); !strings.Contains(got, "error=access_denied") {
			t.Errorf("expected the denial to be delivered, got %q", got)
		}
	})

	t.Run("Ignores Stray Requests", func(t *testing.T) {
		h, _ := NewCallbackHandler("http://127.0.0.1:3000/callback")

		for _, target := range []string{"/callback", "/callback?state=s1", "/callback?foo=bar"} {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", target, rec.Code)
			}
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=C&state=s1", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected the real redirect to be accepted, got %d", rec.Code)
		}
		if got := <-h.Result(); !strings.Contains(got, "code=C") {
			t.Errorf("expected the real redirect, got %q", got)
		}
	})

	t.Run("Single Callback", func(t *testing.T) {
		h, _ := NewCallbackHandler("http://127.0.0.1:3000/callback")

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=C", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=D", nil))
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409 on replay, got %d", rec.Code)
		}

		if got := <-h.Result(); !strings.Contains(got, "code=C") {
			t.Errorf("expected first callback, got %q", got)
		}
		if _, open := <-h.Result(); open {
			t.Error("expected result channel to be closed")
		}
	})
}

// freePort reserves an ephemeral port and releases it for the prompter to bind.
func freePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestCallbackPrompter(t *testing.T) {
	t.Run("Returns Redirect", func(t *testing.T) {
		port := freePort(t)
		redirectURI := fmt.Sprintf("http://127.0.0.1:%d/callback", port)

		var out bytes.Buffer
		p := NewCallbackPrompter("127.0.0.1", port, redirectURI, &out, nil)
		p.Open = func(string) error {
			go func() {
				resp, err := http.Get(redirectURI + "?code=C&state=s1")
				if err != nil {
					t.Errorf("callback request failed: %v", err)
					return
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}()
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		got, err := p.Present(ctx, "https://accounts.example.com/authorize?state=s1")
		if err != nil {
			t.Fatalf("Present() error = %v", err)
		}
		if got != redirectURI+"?code=C&state=s1" {
			t.Errorf("unexpected redirect url %q", got)
		}
		if !strings.Contains(out.String(), "https://accounts.example.com/authorize?state=s1") {
			t.Errorf("expected authorize URL in output, got %q", out.String())
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		port := freePort(t)
		p := NewCallbackPrompter("127.0.0.1", port, fmt.Sprintf("http://127.0.0.1:%d/callback", port), io.Discard, nil)
		p.Open = shared.NoBrowser

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if _, err := p.Present(ctx, "https://accounts.example.com/authorize"); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected DeadlineExceeded, got %v", err)
		}
	})

	t.Run("Address In Use", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		defer ln.Close()

		port := ln.Addr().(*net.TCPAddr).Port
		p := NewCallbackPrompter("127.0.0.1", port, fmt.Sprintf("http://127.0.0.1:%d/callback", port), io.Discard, nil)

		if _, err := p.Present(context.Background(), "https://accounts.example.com/authorize"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
