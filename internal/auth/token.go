package auth

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Token is an issued access token. It is immutable: refreshing produces a new Token.
//
// A Token without a refresh token cannot be renewed once it expires; the session that owns it has to authorize again.
type Token struct {
	value        string
	tokenType    string
	expiresIn    int64
	issuedAt     time.Time
	scope        []string
	refreshToken string
}

// NewToken builds a Token from its parts. The scope is normalized the same way as a token response.
func NewToken(value, tokenType string, expiresIn int64, issuedAt time.Time, scope []string, refreshToken string) *Token {
	return &Token{
		value:        value,
		tokenType:    tokenType,
		expiresIn:    expiresIn,
		issuedAt:     issuedAt,
		scope:        normalizeScope(scope),
		refreshToken: refreshToken,
	}
}

func (t *Token) Value() string        { return t.value }
func (t *Token) Type() string         { return t.tokenType }
func (t *Token) ExpiresIn() int64     { return t.expiresIn }
func (t *Token) IssuedAt() time.Time  { return t.issuedAt }
func (t *Token) RefreshToken() string { return t.refreshToken }

// Scope returns a copy of the granted scope set. It is never nil.
func (t *Token) Scope() []string {
	return slices.Clone(t.scope)
}

// HasRefreshToken reports whether the token can be renewed without user interaction.
func (t *Token) HasRefreshToken() bool {
	return t.refreshToken != ""
}

// ExpiresAt is issuedAt plus the server-declared lifetime.
func (t *Token) ExpiresAt() time.Time {
	return t.issuedAt.Add(time.Duration(t.expiresIn) * time.Second)
}

// ExpiredAt reports whether the token is expired at now. A token is still valid at exactly [Token.ExpiresAt].
func (t *Token) ExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt())
}

// Expired reports whether the token is expired at the current time.
func (t *Token) Expired() bool {
	return t.ExpiredAt(time.Now())
}

// Covers reports whether every scope in required was granted to this token.
func (t *Token) Covers(required []string) bool {
	for _, s := range required {
		if s == "" {
			continue
		}
		if !slices.Contains(t.scope, s) {
			return false
		}
	}
	return true
}

// WithRefreshToken returns a copy of t carrying refreshToken.
func (t *Token) WithRefreshToken(refreshToken string) *Token {
	c := *t
	c.scope = slices.Clone(t.scope)
	c.refreshToken = refreshToken
	return &c
}

// AuthorizationHeader formats the value of the Authorization header for API requests.
func (t *Token) AuthorizationHeader() string {
	return t.tokenType + " " + t.value
}

// OAuth2 converts t for use with [golang.org/x/oauth2] transports.
func (t *Token) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.value,
		TokenType:    t.tokenType,
		RefreshToken: t.refreshToken,
		Expiry:       t.ExpiresAt(),
		ExpiresIn:    t.expiresIn,
	}
}

// String describes the token without revealing secrets.
func (t *Token) String() string {
	return fmt.Sprintf("%s [REDACTED] expires=%s scope=%q refreshable=%t",
		t.tokenType, t.ExpiresAt().Format(time.RFC3339), strings.Join(t.scope, " "), t.HasRefreshToken())
}

// GoString keeps token values out of %#v output.
func (t *Token) GoString() string {
	return "auth.Token{[REDACTED]}"
}

// Equal reports whether t and o hold the same attributes.
func (t *Token) Equal(o *Token) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.value == o.value &&
		t.tokenType == o.tokenType &&
		t.expiresIn == o.expiresIn &&
		t.issuedAt.Equal(o.issuedAt) &&
		slices.Equal(t.scope, o.scope) &&
		t.refreshToken == o.refreshToken
}

// ParseScope splits a space-delimited scope string. An empty string means no scopes were granted.
func ParseScope(s string) []string {
	return normalizeScope(strings.Fields(s))
}

// normalizeScope drops empty and duplicate entries, keeping first-seen order.
func normalizeScope(scope []string) []string {
	out := make([]string, 0, len(scope))
	for _, s := range scope {
		s = strings.TrimSpace(s)
		if s == "" || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// tokenResponse is the body of a successful token exchange.
// Pointer fields distinguish an absent member from its zero value.
type tokenResponse struct {
	AccessToken  string  `json:"access_token"`
	TokenType    string  `json:"token_type"`
	ExpiresIn    *int64  `json:"expires_in"`
	Scope        *string `json:"scope"`
	RefreshToken string  `json:"refresh_token"`
}

// Issue parses a token-exchange response body into a Token issued at now.
//
// The access token and its lifetime are required; token_type defaults to Bearer.
func Issue(body []byte, now time.Time) (*Token, error) {
	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}

	return checkedToken(resp.AccessToken, resp.TokenType, resp.ExpiresIn, resp.Scope, resp.RefreshToken, now)
}

// checkedToken validates the members of a token response. The access token and its lifetime are required.
func checkedToken(access, tokenType string, expiresIn *int64, scope *string, refreshToken string, now time.Time) (*Token, error) {
	if access == "" {
		return nil, &MalformedResponseError{Field: "access_token"}
	}
	if expiresIn == nil {
		return nil, &MalformedResponseError{Field: "expires_in"}
	}

	if tokenType == "" {
		tokenType = "Bearer"
	}

	var granted []string
	if scope != nil {
		granted = ParseScope(*scope)
	}

	return NewToken(access, tokenType, *expiresIn, now, granted, refreshToken), nil
}

// credentialRecord is the persisted form of a Token.
type credentialRecord struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    *int64    `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
	Scope        []string  `json:"scope"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

// EncodeCredential serializes every attribute of t, including an empty scope set.
func EncodeCredential(t *Token) ([]byte, error) {
	expiresIn := t.expiresIn
	return json.MarshalIndent(credentialRecord{
		AccessToken:  t.value,
		TokenType:    t.tokenType,
		ExpiresIn:    &expiresIn,
		IssuedAt:     t.issuedAt,
		Scope:        normalizeScope(t.scope),
		RefreshToken: t.refreshToken,
	}, "", "  ")
}

// DecodeCredential parses data written by [EncodeCredential].
func DecodeCredential(data []byte) (*Token, error) {
	var rec credentialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	switch {
	case rec.AccessToken == "":
		return nil, fmt.Errorf("missing access_token")
	case rec.ExpiresIn == nil:
		return nil, fmt.Errorf("missing expires_in")
	case rec.IssuedAt.IsZero():
		return nil, fmt.Errorf("missing issued_at")
	}

	return NewToken(rec.AccessToken, rec.TokenType, *rec.ExpiresIn, rec.IssuedAt, rec.Scope, rec.RefreshToken), nil
}
