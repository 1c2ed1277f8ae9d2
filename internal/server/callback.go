package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
)

// CallbackHandler receives the provider's redirect and hands the full redirect URL to whoever is waiting on [CallbackHandler.Result].
//
// Validation of state and code is left to the caller. Requests carrying neither code nor error are answered with 400
// and ignored. Only the first redirect is accepted; later ones get 409.
type CallbackHandler struct {
	path    string
	base    string
	results chan string

	mu  sync.Mutex
	hit bool
}

// NewCallbackHandler serves redirectURI's path and rebuilds redirect URLs against it.
func NewCallbackHandler(redirectURI string) (*CallbackHandler, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("%w: redirect uri: %v", shared.ErrInvalidConfig, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: redirect uri %q has no host", shared.ErrInvalidConfig, redirectURI)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	u.RawQuery = ""
	u.Fragment = ""

	return &CallbackHandler{path: path, base: u.String(), results: make(chan string, 1)}, nil
}

// Routes returns the redirect path.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: {{.Color}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

type pageData struct {
	Title   string
	Color   template.CSS
	Message string
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("code") && !query.Has("error") {
		http.Error(w, "Not an authorization redirect", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusConflict)
		return
	}
	h.hit = true
	h.mu.Unlock()

	h.results <- h.base + "?" + r.URL.RawQuery
	close(h.results)

	data := pageData{
		Title:   "Authorization Received",
		Color:   "#1DB954",
		Message: "You can close this window and return to the terminal.",
	}
	status := http.StatusOK

	if query.Get("code") == "" {
		reason := query.Get("error")
		if reason == "" {
			reason = "no authorization code"
		}
		data = pageData{Title: "Authorization Failed", Color: "#E22134", Message: reason}
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	callbackPage.Execute(w, data)
}

// Result delivers exactly one redirect URL and is then closed.
func (h *CallbackHandler) Result() <-chan string {
	return h.results
}

// CallbackPrompter implements auth.Prompter by listening for the provider's redirect on a local address.
//
// The redirect URI registered with the provider must point at Addr, e.g. http://127.0.0.1:3000/callback.
type CallbackPrompter struct {
	Addr        string
	RedirectURI string
	Out         io.Writer
	Open        shared.BrowserOpener
	Logger      *log.Logger
}

// NewCallbackPrompter creates a [CallbackPrompter] listening on host:port that opens URLs with [shared.OpenBrowser].
func NewCallbackPrompter(host string, port int, redirectURI string, out io.Writer, logger *log.Logger) *CallbackPrompter {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &CallbackPrompter{
		Addr:        net.JoinHostPort(host, fmt.Sprint(port)),
		RedirectURI: redirectURI,
		Out:         out,
		Open:        shared.OpenBrowser,
		Logger:      logger,
	}
}

// Present starts the callback server, shows the authorization URL and blocks until the redirect arrives or ctx ends.
// The server is shut down before Present returns.
func (p *CallbackPrompter) Present(ctx context.Context, authorizeURL string) (string, error) {
	handler, err := NewCallbackHandler(p.RedirectURI)
	if err != nil {
		return "", err
	}

	logger := p.Logger
	if logger == nil {
		logger = shared.NopLogger()
	}

	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handler(handler)

	ln, err := net.Listen("tcp", p.Addr)
	if err != nil {
		return "", fmt.Errorf("%w: failed to listen on %s: %v", shared.ErrServiceUnavailable, p.Addr, err)
	}

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("callback server stopped", "err", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("callback server shutdown", "err", err)
		}
	}()

	logger.Info("waiting for authorization callback", "addr", ln.Addr().String(), "path", handler.path)

	if p.Open != nil {
		if err := p.Open(authorizeURL); err == nil {
			fmt.Fprintln(p.Out, "→ Opened the authorization page in your browser.")
		}
	}
	fmt.Fprintf(p.Out, "Open this URL to authorize:\n\n  %s\n\nWaiting for the redirect to %s ...\n", authorizeURL, p.RedirectURI)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case redirected := <-handler.Result():
		return redirected, nil
	}
}
