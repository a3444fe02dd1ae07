package mediagate

import (
	"crypto/subtle"
	"fmt"
	"strings"
)

// BearerToken extracts the credentials of an Authorization header using the
// Bearer scheme. The scheme name is matched case-insensitively.
func BearerToken(authorization string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// SharedSecret guards write operations with a single pre-shared bearer token.
// It is not an identity system: every holder of the secret has the same rights.
type SharedSecret struct {
	secret []byte
}

// NewSharedSecret creates a SharedSecret. An empty secret rejects every request.
func NewSharedSecret(secret string) *SharedSecret {
	return &SharedSecret{secret: []byte(secret)}
}

// Enabled reports whether a non-empty secret is configured.
func (s *SharedSecret) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// Verify checks an Authorization header value of the form "Bearer <secret>".
// The comparison runs in constant time with respect to the token contents.
func (s *SharedSecret) Verify(authorization string) error {
	if !s.Enabled() {
		return fmt.Errorf("verify bearer token: no secret configured: %w", ErrUnauthorized)
	}

	token, ok := BearerToken(authorization)
	if !ok {
		return fmt.Errorf("verify bearer token: missing bearer credentials: %w", ErrUnauthorized)
	}

	if subtle.ConstantTimeCompare([]byte(token), s.secret) != 1 {
		return fmt.Errorf("verify bearer token: token mismatch: %w", ErrUnauthorized)
	}

	return nil
}
