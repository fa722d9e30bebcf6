// Package auth talks to external identity providers.
package auth

import "context"

// OAuthUserInfo is the identity returned by a provider after a successful
// authorization-code exchange.
type OAuthUserInfo struct {
	Provider       string
	ProviderUserID string
	Nickname       string
	ProfileImage   string
}

// OAuthProvider is an OAuth 2.0 authorization-code provider.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*OAuthUserInfo, error)
}
