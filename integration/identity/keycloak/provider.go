package keycloak

import (
	"context"

	"github.com/dmitrymomot/sessionguard/core/lifecycle"
)

// TokenSource supplies the refresh token of the session being revoked.
// Returning an empty token makes SignOut a no-op.
type TokenSource func(ctx context.Context) (string, error)

var _ lifecycle.IdentityProvider = (*Provider)(nil)

// Provider adapts the Keycloak client to the lifecycle's identity provider
// contract so logout revokes the upstream Keycloak session too.
type Provider struct {
	client *Client
	tokens TokenSource
}

// NewProvider wires a client and a token source into an identity provider.
func NewProvider(client *Client, tokens TokenSource) *Provider {
	return &Provider{client: client, tokens: tokens}
}

func (p *Provider) SignOut(ctx context.Context) error {
	if p.tokens == nil {
		return nil
	}
	token, err := p.tokens(ctx)
	if err != nil {
		return err
	}
	return p.client.Logout(ctx, token)
}
