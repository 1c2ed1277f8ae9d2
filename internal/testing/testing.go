// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// TokenRequest is one request received by a [TokenServer].
type TokenRequest struct {
	Form         url.Values
	ClientID     string
	ClientSecret string
	HasBasicAuth bool
	ContentType  string
}

// TokenServer is a fake OAuth2 token endpoint that records requests and replies with a canned response.
type TokenServer struct {
	*httptest.Server

	mu       sync.Mutex
	status   int
	body     string
	requests []TokenRequest
}

// NewTokenServer starts a [TokenServer] that answers every request with status and body. It is closed when the test ends.
func NewTokenServer(t *testing.T, status int, body string) *TokenServer {
	t.Helper()

	ts := &TokenServer{status: status, body: body}
	ts.Server = httptest.NewServer(http.HandlerFunc(ts.handle))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *TokenServer) handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, secret, ok := r.BasicAuth()

	ts.mu.Lock()
	ts.requests = append(ts.requests, TokenRequest{
		Form:         r.PostForm,
		ClientID:     id,
		ClientSecret: secret,
		HasBasicAuth: ok,
		ContentType:  r.Header.Get("Content-Type"),
	})
	status, body := ts.status, ts.body
	ts.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

// Respond changes the canned response for subsequent requests.
func (ts *TokenServer) Respond(status int, body string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.status = status
	ts.body = body
}

// Requests returns a copy of the recorded requests.
func (ts *TokenServer) Requests() []TokenRequest {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]TokenRequest(nil), ts.requests...)
}

// Endpoint returns an [oauth2.Endpoint] whose token URL is this server.
func (ts *TokenServer) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   ts.URL + "/authorize",
		TokenURL:  ts.URL + "/api/token",
		AuthStyle: oauth2.AuthStyleInHeader,
	}
}

// Clock is a settable time source for expiry tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the clock's current time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
