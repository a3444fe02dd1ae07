// Package keybackend holds the set of bearer tokens allowed to upload.
package keybackend

import (
	"crypto/subtle"
	"fmt"

	"github.com/sagarc03/mediagate"
)

// Keyring accepts any of several named upload tokens, so tokens can be issued
// per client and rotated one at a time.
type Keyring struct {
	names  []string
	tokens [][]byte
}

// NewKeyring creates a keyring from entries. A later entry with the same name
// replaces an earlier one.
func NewKeyring(entries ...TokenEntry) *Keyring {
	k := &Keyring{}
	for _, e := range entries {
		k.Add(e)
	}
	return k
}

// Add inserts or replaces the entry called e.Name. Empty names or tokens are ignored.
func (k *Keyring) Add(e TokenEntry) {
	if e.Name == "" || e.Token == "" {
		return
	}
	for i, name := range k.names {
		if name == e.Name {
			k.tokens[i] = []byte(e.Token)
			return
		}
	}
	k.names = append(k.names, e.Name)
	k.tokens = append(k.tokens, []byte(e.Token))
}

// Len returns the number of tokens.
func (k *Keyring) Len() int {
	return len(k.names)
}

// Names returns the token names in insertion order.
func (k *Keyring) Names() []string {
	return append([]string(nil), k.names...)
}

// Identify returns the name of the token carried by an Authorization header.
// Every entry is compared in constant time.
func (k *Keyring) Identify(authorization string) (string, error) {
	if k.Len() == 0 {
		return "", fmt.Errorf("identify token: no tokens configured: %w", mediagate.ErrUnauthorized)
	}

	token, ok := mediagate.BearerToken(authorization)
	if !ok {
		return "", fmt.Errorf("identify token: missing bearer credentials: %w", mediagate.ErrUnauthorized)
	}

	match := -1
	for i, candidate := range k.tokens {
		if subtle.ConstantTimeCompare([]byte(token), candidate) == 1 {
			match = i
		}
	}
	if match < 0 {
		return "", ErrTokenUnknown
	}

	return k.names[match], nil
}

// Verify implements the upload TokenVerifier.
func (k *Keyring) Verify(authorization string) error {
	_, err := k.Identify(authorization)
	return err
}
