package auth

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotx/internal/shared"
)

var issuedAt = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func TestIssue(t *testing.T) {
	t.Run("client credentials response", func(t *testing.T) {
		tok, err := Issue([]byte(`{"access_token":"abc","token_type":"Bearer","expires_in":3600}`), issuedAt)
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}

		if tok.Value() != "abc" {
			t.Errorf("expected value abc, got %s", tok.Value())
		}
		if tok.Type() != "Bearer" {
			t.Errorf("expected type Bearer, got %s", tok.Type())
		}
		if tok.Scope() == nil || len(tok.Scope()) != 0 {
			t.Errorf("expected empty non-nil scope, got %#v", tok.Scope())
		}
		if tok.HasRefreshToken() {
			t.Errorf("expected no refresh token, got %q", tok.RefreshToken())
		}
		if !tok.IssuedAt().Equal(issuedAt) {
			t.Errorf("expected issuedAt %v, got %v", issuedAt, tok.IssuedAt())
		}
		if tok.ExpiredAt(issuedAt) {
			t.Error("token should not be expired immediately after issue")
		}
	})

	t.Run("user authorization response", func(t *testing.T) {
		body := `{"access_token":"xyz","token_type":"Bearer","expires_in":3600,"scope":"user-read-private user-read-email","refresh_token":"r1"}`
		tok, err := Issue([]byte(body), issuedAt)
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}

		want := []string{"user-read-private", "user-read-email"}
		if !slices.Equal(tok.Scope(), want) {
			t.Errorf("expected scope %v, got %v", want, tok.Scope())
		}
		if tok.RefreshToken() != "r1" {
			t.Errorf("expected refresh token r1, got %s", tok.RefreshToken())
		}
	})

	t.Run("defaults token type", func(t *testing.T) {
		tok, err := Issue([]byte(`{"access_token":"abc","expires_in":10}`), issuedAt)
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		if tok.Type() != "Bearer" {
			t.Errorf("expected default type Bearer, got %s", tok.Type())
		}
	})

	t.Run("empty scope string is the empty set", func(t *testing.T) {
		tok, err := Issue([]byte(`{"access_token":"abc","expires_in":10,"scope":""}`), issuedAt)
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		if len(tok.Scope()) != 0 {
			t.Errorf("expected empty scope, got %v", tok.Scope())
		}
	})

	t.Run("malformed", func(t *testing.T) {
		tc := []struct {
			name  string
			body  string
			field string
		}{
			{name: "missing access token", body: `{"token_type":"Bearer","expires_in":3600}`, field: "access_token"},
			{name: "empty access token", body: `{"access_token":"","expires_in":3600}`, field: "access_token"},
			{name: "missing lifetime", body: `{"access_token":"abc","token_type":"Bearer"}`, field: "expires_in"},
			{name: "not json", body: `<html>oops</html>`},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Issue([]byte(tt.body), issuedAt)
				if !errors.Is(err, shared.ErrMalformedResponse) {
					t.Fatalf("expected ErrMalformedResponse, got %v", err)
				}

				var malformed *MalformedResponseError
				if !errors.As(err, &malformed) {
					t.Fatalf("expected *MalformedResponseError, got %T", err)
				}
				if malformed.Field != tt.field {
					t.Errorf("expected field %q, got %q", tt.field, malformed.Field)
				}
			})
		}
	})
}

func TestTokenExpiry(t *testing.T) {
	tok := NewToken("abc", "Bearer", 3600, issuedAt, nil, "")
	deadline := issuedAt.Add(time.Hour)

	if !tok.ExpiresAt().Equal(deadline) {
		t.Fatalf("expected ExpiresAt %v, got %v", deadline, tok.ExpiresAt())
	}

	tc := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "at issue", now: issuedAt, want: false},
		{name: "one second before", now: deadline.Add(-time.Second), want: false},
		{name: "exactly at deadline", now: deadline, want: false},
		{name: "one nanosecond past", now: deadline.Add(time.Nanosecond), want: true},
		{name: "one second past", now: deadline.Add(time.Second), want: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tok.ExpiredAt(tt.now); got != tt.want {
				t.Errorf("ExpiredAt(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}

	t.Run("zero lifetime", func(t *testing.T) {
		tok := NewToken("abc", "Bearer", 0, issuedAt, nil, "")
		if tok.ExpiredAt(issuedAt) {
			t.Error("a zero-lifetime token is not expired at its issue time")
		}
		if !tok.ExpiredAt(issuedAt.Add(time.Millisecond)) {
			t.Error("a zero-lifetime token is expired right after issue")
		}
	})
}

func TestTokenCovers(t *testing.T) {
	tok := NewToken("abc", "Bearer", 3600, issuedAt, []string{"a", "b", "c"}, "")

	tc := []struct {
		name     string
		required []string
		want     bool
	}{
		{name: "nil", required: nil, want: true},
		{name: "empty", required: []string{}, want: true},
		{name: "subset", required: []string{"c", "a"}, want: true},
		{name: "equal", required: []string{"a", "b", "c"}, want: true},
		{name: "superset", required: []string{"a", "d"}, want: false},
		{name: "disjoint", required: []string{"d"}, want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tok.Covers(tt.required); got != tt.want {
				t.Errorf("Covers(%v) = %v, want %v", tt.required, got, tt.want)
			}
		})
	}

	t.Run("empty grant covers nothing", func(t *testing.T) {
		empty := NewToken("abc", "Bearer", 3600, issuedAt, nil, "")
		if empty.Covers([]string{"a"}) {
			t.Error("token without scope should not cover a")
		}
	})
}

func TestParseScope(t *testing.T) {
	tc := []struct {
		in   string
		want []string
	}{
		{in: "", want: []string{}},
		{in: "   ", want: []string{}},
		{in: "read", want: []string{"read"}},
		{in: "read write", want: []string{"read", "write"}},
		{in: " write  read\tread ", want: []string{"write", "read"}},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseScope(tt.in)
			if got == nil {
				t.Fatal("ParseScope() returned nil")
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseScope(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestToken(t *testing.T) {
	tok := NewToken("secret-value", "Bearer", 3600, issuedAt, []string{"a"}, "secret-refresh")

	t.Run("WithRefreshToken copies", func(t *testing.T) {
		next := tok.WithRefreshToken("other")
		if next.RefreshToken() != "other" {
			t.Errorf("expected new refresh token, got %s", next.RefreshToken())
		}
		if tok.RefreshToken() != "secret-refresh" {
			t.Error("original token was modified")
		}
		if next.Value() != tok.Value() || !next.IssuedAt().Equal(tok.IssuedAt()) {
			t.Error("copy should keep the other attributes")
		}
	})

	t.Run("Scope returns a copy", func(t *testing.T) {
		scope := tok.Scope()
		scope[0] = "mutated"
		if tok.Scope()[0] != "a" {
			t.Error("mutating the returned scope changed the token")
		}
	})

	t.Run("String redacts secrets", func(t *testing.T) {
		for _, s := range []string{tok.String(), tok.GoString()} {
			if strings.Contains(s, "secret") {
				t.Errorf("token description leaks a secret: %s", s)
			}
		}
	})

	t.Run("AuthorizationHeader", func(t *testing.T) {
		if got := tok.AuthorizationHeader(); got != "Bearer secret-value" {
			t.Errorf("AuthorizationHeader() = %q", got)
		}
	})

	t.Run("OAuth2", func(t *testing.T) {
		o := tok.OAuth2()
		if o.AccessToken != "secret-value" || o.RefreshToken != "secret-refresh" || o.TokenType != "Bearer" {
			t.Errorf("unexpected oauth2 token %+v", o)
		}
		if !o.Expiry.Equal(issuedAt.Add(time.Hour)) {
			t.Errorf("expected expiry %v, got %v", issuedAt.Add(time.Hour), o.Expiry)
		}
		if o.ExpiresIn != 3600 {
			t.Errorf("expected ExpiresIn 3600, got %d", o.ExpiresIn)
		}
	})
}

func TestCredentialEncoding(t *testing.T) {
	tc := []struct {
		name string
		tok  *Token
	}{
		{name: "empty scope without refresh token", tok: NewToken("abc", "Bearer", 3600, issuedAt, nil, "")},
		{name: "scope with refresh token", tok: NewToken("abc", "Bearer", 3600, issuedAt, []string{"b", "a"}, "r1")},
		{name: "local time with nanoseconds", tok: NewToken("abc", "bearer", 1, time.Now(), []string{"x"}, "r2")},
		{name: "zero lifetime", tok: NewToken("abc", "Bearer", 0, issuedAt, nil, "")},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeCredential(tt.tok)
			if err != nil {
				t.Fatalf("EncodeCredential() error = %v", err)
			}

			got, err := DecodeCredential(data)
			if err != nil {
				t.Fatalf("DecodeCredential() error = %v", err)
			}

			if !got.Equal(tt.tok) {
				t.Errorf("round trip mismatch:\n got  %s\n want %s", data, mustEncode(t, got))
			}
		})
	}

	t.Run("rejects incomplete records", func(t *testing.T) {
		for _, data := range []string{
			`{"token_type":"Bearer","expires_in":1,"issued_at":"2026-10-17T12:00:00Z"}`,
			`{"access_token":"abc","issued_at":"2026-10-17T12:00:00Z"}`,
			`{"access_token":"abc","expires_in":1}`,
			`not json`,
		} {
			if _, err := DecodeCredential([]byte(data)); err == nil {
				t.Errorf("DecodeCredential(%s) should fail", data)
			}
		}
	})
}

func mustEncode(t *testing.T, tok *Token) string {
	t.Helper()
	data, err := EncodeCredential(tok)
	if err != nil {
		t.Fatalf("EncodeCredential() error = %v", err)
	}
	return string(data)
}
