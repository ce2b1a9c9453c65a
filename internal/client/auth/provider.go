package auth

import (
	"context"
	"errors"
)

// ErrNoCredential is returned when no token is available (not logged in).
var ErrNoCredential = errors.New("no credential available")

// MockToken is the credential used when the console talks to a mock backend.
const MockToken = "mock-token-for-admin"

// Provider returns the bearer token for the next backend call.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// StaticProvider always returns the same token.
type StaticProvider struct {
	token string
}

func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

func (p *StaticProvider) Token(context.Context) (string, error) {
	if p.token == "" {
		return "", ErrNoCredential
	}
	return p.token, nil
}
