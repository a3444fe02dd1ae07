package mediagate

import (
	"path"
	"strings"
)

const (
	// DefaultContentType is served for keys with no better type.
	DefaultContentType = "application/octet-stream"
	// VideoContentType is the single format served on the video route.
	VideoContentType = "video/mp4"
)

var imageExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"webp": {},
}

// ImageContentType reports the image MIME type for keys with a known image
// extension. The type is always image/<ext> with the extension lowercased.
func ImageContentType(key string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(key), "."))
	if _, ok := imageExtensions[ext]; !ok {
		return "", false
	}
	return "image/" + ext, true
}

// ResolveContentType picks the type to serve for key. Video keys are always
// VideoContentType. Otherwise known image extensions win, then the type
// recorded at upload, then DefaultContentType.
func ResolveContentType(key string, video bool, stored string) string {
	if video {
		return VideoContentType
	}
	if ct, ok := ImageContentType(key); ok {
		return ct
	}
	if stored != "" {
		return stored
	}
	return DefaultContentType
}
