package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// OAuth2Config describes the client registration at the identity provider.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	Endpoint     oauth2.Endpoint
	HTTPClient   *http.Client
}

func (c OAuth2Config) oauth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Scopes:       c.Scopes,
		Endpoint:     c.Endpoint,
	}
}

// OAuth2Provider serves tokens from an oauth2.TokenSource that refreshes
// itself with the refresh token. It is empty until a login succeeds.
type OAuth2Provider struct {
	cfg        *oauth2.Config
	httpClient *http.Client

	mu sync.RWMutex
	ts oauth2.TokenSource
}

func NewOAuth2Provider(cfg OAuth2Config) *OAuth2Provider {
	return &OAuth2Provider{cfg: cfg.oauth2(), httpClient: cfg.HTTPClient}
}

func (p *OAuth2Provider) withClient(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// LoginPassword runs the resource owner password grant.
func (p *OAuth2Provider) LoginPassword(ctx context.Context, username string, password []byte) (string, error) {
	tok, err := p.cfg.PasswordCredentialsToken(p.withClient(ctx), username, string(password))
	if err != nil {
		return "", fmt.Errorf("password grant: %w", err)
	}
	return p.install(ctx, tok), nil
}

// LoginDevice runs the device authorization flow. prompt is called once with
// the verification URI and user code; the call then blocks until the
// operator approves, the code expires or ctx is cancelled.
func (p *OAuth2Provider) LoginDevice(ctx context.Context, prompt func(*oauth2.DeviceAuthResponse)) (string, error) {
	if p.cfg.Endpoint.DeviceAuthURL == "" {
		return "", errors.New("identity provider has no device authorization endpoint")
	}
	ctx = p.withClient(ctx)

	da, err := p.cfg.DeviceAuth(ctx)
	if err != nil {
		return "", fmt.Errorf("device auth: %w", err)
	}
	if prompt != nil {
		prompt(da)
	}

	tok, err := p.cfg.DeviceAccessToken(ctx, da)
	if err != nil {
		return "", fmt.Errorf("device token: %w", err)
	}
	return p.install(ctx, tok), nil
}

// install stores a refreshing source for tok and returns its access token.
// Refreshes outlive the login call, so they must not inherit its cancellation.
func (p *OAuth2Provider) install(ctx context.Context, tok *oauth2.Token) string {
	ts := p.cfg.TokenSource(p.withClient(context.WithoutCancel(ctx)), tok)

	p.mu.Lock()
	p.ts = ts
	p.mu.Unlock()

	return tok.AccessToken
}

// Token returns a valid access token, refreshing it when it is about to expire.
func (p *OAuth2Provider) Token(context.Context) (string, error) {
	p.mu.RLock()
	ts := p.ts
	p.mu.RUnlock()

	if ts == nil {
		return "", ErrNoCredential
	}

	tok, err := ts.Token()
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	return tok.AccessToken, nil
}

// Logout forgets the token source.
func (p *OAuth2Provider) Logout() {
	p.mu.Lock()
	p.ts = nil
	p.mu.Unlock()
}
