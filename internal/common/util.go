package common

import "strings"

// WipeByteArray overwrites the contents of b with zeros. Used for passwords
// read from the terminal. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// BearerToken formats a token for the Authorization header.
func BearerToken(token string) string {
	return BearerPrefix + token
}

// ContentTypeOrDefault returns ct, or DefaultContentType when ct is blank.
func ContentTypeOrDefault(ct string) string {
	if strings.TrimSpace(ct) == "" {
		return DefaultContentType
	}
	return ct
}
