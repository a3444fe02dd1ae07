// Package internal holds helpers shared by the SQL metadata backends.
package internal

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/sagarc03/mediagate"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Cursor is the (created_at, key) position after which the next page starts.
type Cursor struct {
	CreatedAt time.Time
	Key       string
}

// EncodeCursor encodes a page position as an opaque URL-safe token.
func EncodeCursor(createdAt time.Time, key string) string {
	data := createdAt.UTC().Format(time.RFC3339Nano) + "|" + key
	return base64.URLEncoding.EncodeToString([]byte(data))
}

// DecodeCursor reverses EncodeCursor. An empty token decodes to the zero Cursor.
func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: %w: invalid encoding", mediagate.ErrInvalidInput)
	}

	ts, key, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return Cursor{}, fmt.Errorf("decode cursor: %w: invalid format", mediagate.ErrInvalidInput)
	}

	if key == "" {
		return Cursor{}, fmt.Errorf("decode cursor: %w: empty key", mediagate.ErrInvalidInput)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: %w: invalid timestamp", mediagate.ErrInvalidInput)
	}

	return Cursor{CreatedAt: createdAt, Key: key}, nil
}

// EscapeLikePattern escapes %, _ and \ so a key prefix matches literally.
func EscapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}

// NormalizeLimit clamps a page size into [1, MaxLimit], using DefaultLimit for zero or negative values.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}
