package auth

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentialsFlow authenticates the application itself. Tokens it issues carry no user and no refresh token.
type ClientCredentialsFlow struct {
	clientID     string
	clientSecret string
	opts         *options
}

// NewClientCredentialsFlow creates a flow for the given application credentials.
func NewClientCredentialsFlow(clientID, clientSecret string, opts ...Option) (*ClientCredentialsFlow, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: client id and secret are required", shared.ErrMissingCredentials)
	}

	return &ClientCredentialsFlow{
		clientID:     clientID,
		clientSecret: clientSecret,
		opts:         newOptions(opts),
	}, nil
}

// Authorize exchanges the application credentials for a new Token. Every call performs one request.
func (f *ClientCredentialsFlow) Authorize(ctx context.Context) (*Token, error) {
	conf := clientcredentials.Config{
		ClientID:     f.clientID,
		ClientSecret: f.clientSecret,
		TokenURL:     f.opts.endpoint.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	tok, err := f.opts.exchange(ctx, "client_credentials", conf.Token)
	if err != nil {
		return nil, err
	}

	f.opts.cache(ctx, tok)
	return tok, nil
}

// Renew implements [Renewer] by authorizing again; client-credentials tokens have nothing to refresh.
func (f *ClientCredentialsFlow) Renew(ctx context.Context, _ *Token) (*Token, error) {
	return f.Authorize(ctx)
}
