package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const wellKnownSuffix = "/.well-known/openid-configuration"

// Discover fetches the issuer's OIDC discovery document and returns its
// OAuth2 endpoints. issuer may be given with or without the well-known
// suffix. A nil httpClient uses http.DefaultClient.
func Discover(ctx context.Context, httpClient *http.Client, issuer string) (oauth2.Endpoint, error) {
	if issuer == "" {
		return oauth2.Endpoint{}, errors.New("issuer URL is required")
	}
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	issuer = strings.TrimSuffix(issuer, "/")
	issuer = strings.TrimSuffix(issuer, wellKnownSuffix)

	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("oidc discovery: %w", err)
	}
	return op.Endpoint(), nil
}
