package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoPrincipal is returned when a token carries no usable name claim.
var ErrNoPrincipal = errors.New("token has no principal claim")

type principalClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username"`
	Username          string `json:"username"`
	Email             string `json:"email"`
}

// PrincipalFromToken reads the operator name from an access token without
// verifying it; the backend does verification. preferred_username wins,
// then username, email and sub.
func PrincipalFromToken(token string) (string, error) {
	claims := &principalClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	for _, v := range []string{claims.PreferredUsername, claims.Username, claims.Email, claims.Subject} {
		if v != "" {
			return v, nil
		}
	}
	return "", ErrNoPrincipal
}
