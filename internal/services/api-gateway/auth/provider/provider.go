package provider

import (
	"context"

	"github.com/reelhouse/reelhouse/internal/domain/auth"
)

// OAuthProvider is the contract every upstream identity provider implements.
// Implementations return identity facts only; user creation, linking and
// session management stay with the auth service.
type OAuthProvider interface {
	Name() string

	// AuthCodeURL returns the provider authorization URL for a state nonce.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a verified, normalized
	// identity. No auth decisions are made here.
	Exchange(ctx context.Context, code string) (*auth.OAuthIdentity, error)
}

// Registry holds the configured providers by name.
type Registry struct {
	byName map[string]OAuthProvider
}

func NewRegistry(providers ...OAuthProvider) *Registry {
	r := &Registry{byName: make(map[string]OAuthProvider, len(providers))}
	for _, p := range providers {
		r.byName[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (OAuthProvider, bool) {
	p, ok := r.byName[name]
	return p, ok
}
