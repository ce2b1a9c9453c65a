// Package auth acquires the bearer credential the console attaches to
// backend calls.
//
// A Provider hands out the current access token. StaticProvider returns a
// fixed token (mock and development setups); OAuth2Provider obtains one
// from an external identity provider using the password grant or the
// device authorization flow and refreshes it transparently. Endpoints are
// found through OIDC discovery (see Discover).
//
// The console never verifies tokens itself. PrincipalFromToken only reads
// the operator name out of a JWT for display and for the job request.
package auth
