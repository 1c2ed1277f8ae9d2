package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/oauth2"
)

// fetchFunc performs one grant through x/oauth2 using the HTTP client carried by ctx.
type fetchFunc func(ctx context.Context) (*oauth2.Token, error)

// oauth2Endpoint is the configured endpoint with client credentials always sent as HTTP Basic.
func (o *options) oauth2Endpoint() oauth2.Endpoint {
	e := o.endpoint
	e.AuthStyle = oauth2.AuthStyleInHeader
	return e
}

// exchange runs fetch against the token endpoint and issues a Token from the result.
//
// x/oauth2 flattens transport and read failures into plain errors, so the HTTP client is wrapped to record what
// actually came back and the failure is classified from that.
func (o *options) exchange(ctx context.Context, grant string, fetch fetchFunc) (*Token, error) {
	base := o.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	rec := &recordingTransport{base: base}
	client := *o.httpClient
	client.Transport = rec

	o.logger.Debug("requesting token", "grant_type", grant, "endpoint", o.endpoint.TokenURL)

	now := o.now()
	raw, err := fetch(context.WithValue(ctx, oauth2.HTTPClient, &client))
	if err != nil {
		return nil, o.classify(grant, rec, now, err)
	}

	tok, err := fromOAuth2(raw, now)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("token issued", "grant_type", grant, "expires_in", tok.ExpiresIn(), "refreshable", tok.HasRefreshToken())
	return tok, nil
}

// classify maps a failed grant onto the package's error kinds.
func (o *options) classify(grant string, rec *recordingTransport, now time.Time, err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		status := rec.status
		if rErr.Response != nil {
			status = rErr.Response.StatusCode
		}
		authErr := &AuthorizationError{StatusCode: status, Reason: failureReason(status, rErr)}
		o.logger.Warn("token request rejected", "grant_type", grant, "status", status, "reason", authErr.Reason)
		return authErr
	}

	if rec.status == 0 || rec.readErr != nil {
		return fmt.Errorf("%w: token request: %w", shared.ErrAPIRequest, err)
	}

	// A success status with a body x/oauth2 refused: report the offending field.
	if _, issueErr := Issue(rec.body.Bytes(), now); issueErr != nil {
		return issueErr
	}
	return &MalformedResponseError{Err: err}
}

// failureReason prefers the server's error_description, then its error code, then the HTTP status text.
func failureReason(status int, e *oauth2.RetrieveError) string {
	if e.ErrorDescription != "" {
		return e.ErrorDescription
	}
	if e.ErrorCode != "" {
		return e.ErrorCode
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("unexpected status %d", status)
}

// fromOAuth2 issues a Token from an x/oauth2 result, applying the same checks as [Issue].
func fromOAuth2(t *oauth2.Token, now time.Time) (*Token, error) {
	expiresIn, err := extraInt(t.Extra("expires_in"))
	if err != nil {
		return nil, &MalformedResponseError{Field: "expires_in", Err: err}
	}

	var scope *string
	if s, ok := t.Extra("scope").(string); ok {
		scope = &s
	}

	return checkedToken(t.AccessToken, t.TokenType, expiresIn, scope, t.RefreshToken, now)
}

// extraInt reads a numeric response member. JSON bodies decode numbers as float64, form bodies as int64 or string.
func extraInt(v any) (*int64, error) {
	var n int64
	switch x := v.(type) {
	case nil:
		return nil, nil
	case float64:
		n = int64(x)
	case int64:
		n = x
	case string:
		if strings.TrimSpace(x) == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, err
		}
		n = parsed
	default:
		return nil, fmt.Errorf("unexpected type %T", v)
	}
	return &n, nil
}

// recordingTransport remembers the status and body of the response it carried.
type recordingTransport struct {
	base    http.RoundTripper
	status  int
	body    bytes.Buffer
	readErr error
}

func (r *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	r.status = resp.StatusCode
	resp.Body = &recordingBody{ReadCloser: resp.Body, rec: r}
	return resp, nil
}

type recordingBody struct {
	io.ReadCloser
	rec *recordingTransport
}

func (b *recordingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.rec.body.Write(p[:n])
	if err != nil && err != io.EOF {
		b.rec.readErr = err
	}
	return n, err
}

// cache writes tok when a store and identifier are configured; otherwise it does nothing.
//
// A failed write is logged rather than returned: the token was issued and stays usable for this session.
func (o *options) cache(ctx context.Context, tok *Token) {
	if !o.cachingEnabled() {
		return
	}
	if err := o.store.Save(ctx, o.cacheID, tok); err != nil {
		o.logger.Warn("failed to cache token", "id", o.cacheID, "err", err)
		return
	}
	o.logger.Debug("token cached", "id", o.cacheID)
}
